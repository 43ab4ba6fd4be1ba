package static

import (
	"io"
	"os"
)

// FileSystem opens files for reading. Builder only needs to tell an open
// failure apart from a read failure, so a ReadCloser is enough.
type FileSystem interface {
	Open(name string) (io.ReadCloser, error)
}

// OSFileSystem reads straight from the local disk.
type OSFileSystem struct{}

func (OSFileSystem) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}

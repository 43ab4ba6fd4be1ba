package static

import (
	"errors"
	"fmt"
	"io"

	"github.com/Brownie44l1/fileserve/internal/response"
)

// ErrReadFailed means the file opened but its contents could not be read.
// It is reported as a server error, never as not found.
var ErrReadFailed = errors.New("file read failed")

// Builder turns a resolved path into a response.
type Builder struct {
	FS          FileSystem
	ContentType func(name string) string
}

// NewBuilder returns a Builder reading from disk with extension-based
// content types.
func NewBuilder() *Builder {
	return &Builder{
		FS:          OSFileSystem{},
		ContentType: ContentType,
	}
}

// Build opens and fully reads path. A file that cannot be opened yields the
// bare 404; a read error after a successful open is returned wrapped in
// ErrReadFailed.
func (b *Builder) Build(path string) (*response.Response, error) {
	fsys := b.FS
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	contentType := b.ContentType
	if contentType == nil {
		contentType = ContentType
	}

	f, err := fsys.Open(path)
	if err != nil {
		return response.NotFound(), nil
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadFailed, path, err)
	}

	return response.OK(contentType(path), body), nil
}

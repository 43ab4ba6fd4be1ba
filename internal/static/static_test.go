package static

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/fileserve/internal/response"
)

func TestResolveRoot(t *testing.T) {
	r := NewResolver("/srv", "home.html")
	assert.Equal(t, "/srv/home.html", r.Resolve("/"))

	r = NewResolver(".", "index.html")
	assert.Equal(t, "./index.html", r.Resolve("/"))
}

func TestResolveConcatenatesTarget(t *testing.T) {
	r := NewResolver(".", "index.html")

	targets := []string{
		"/foo.txt",
		"/dir/",
		"/a%20b.txt",
		"/../etc/passwd",
		"/page.html?x=1",
		"//double",
	}
	for _, target := range targets {
		assert.Equal(t, "."+target, r.Resolve(target), target)
	}

	// No separator is inserted
	r = NewResolver("/srv/www", "index.html")
	assert.Equal(t, "/srv/wwwnoslash", r.Resolve("noslash"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/html", ContentType("./index.html"))
	assert.Equal(t, "text/css", ContentType("/srv/site/style.css"))
	assert.Equal(t, "image/png", ContentType("logo.png"))
	assert.Equal(t, "application/json", ContentType("./data/v1.json"))

	// Test: Types outside Go's built-in table are pinned
	assert.Equal(t, "text/markdown", ContentType("./README.md"))
	assert.Equal(t, "font/woff2", ContentType("/fonts/inter.woff2"))
	assert.Equal(t, "image/x-icon", ContentType("favicon.ico"))
	for ext, want := range pinnedTypes {
		assert.Equal(t, want, ContentType("./file"+ext), ext)
	}

	// Unknown or missing extensions
	assert.Equal(t, DefaultContentType, ContentType("./archive.zzqx"))
	assert.Equal(t, DefaultContentType, ContentType("./Makefile"))
	assert.Equal(t, DefaultContentType, ContentType("./dir.d/"))
}

func TestBuildServesFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "home.html"), []byte("hi"), 0o644))

	path := NewResolver(root, "home.html").Resolve("/")
	resp, err := NewBuilder().Build(path)

	require.NoError(t, err)
	assert.Equal(t, response.StatusOK, resp.Status)
	assert.Equal(t,
		"HTTP/1.1 200 OK\r\nContent-type: text/html\r\nContent-length: 2\r\n\r\nhi",
		string(resp.Bytes()))
}

func TestBuildBinaryRoundTrip(t *testing.T) {
	root := t.TempDir()
	data := make([]byte, 70000)
	for i := range data {
		data[i] = byte(i * 7)
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.bin"), data, 0o644))

	resp, err := NewBuilder().Build(NewResolver(root, "index.html").Resolve("/blob.bin"))

	require.NoError(t, err)
	assert.Equal(t, response.StatusOK, resp.Status)
	assert.Equal(t, data, resp.Body)

	cl, ok := resp.Headers.Get("Content-length")
	require.True(t, ok)
	assert.Equal(t, "70000", cl)
}

func TestBuildMissingFile(t *testing.T) {
	root := t.TempDir()

	resp, err := NewBuilder().Build(NewResolver(root, "index.html").Resolve("/missing.txt"))

	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 404 NOT FOUND\r\n\r\n", string(resp.Bytes()))
}

func TestBuildReadFailureIsNotNotFound(t *testing.T) {
	b := &Builder{FS: fakeFS{"/broken.txt": &failingFile{}}}

	resp, err := b.Build("/broken.txt")

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrReadFailed)
	assert.Contains(t, err.Error(), "/broken.txt")
}

func TestBuildClosesFile(t *testing.T) {
	f := &memFile{Reader: strings.NewReader("body")}
	b := &Builder{FS: fakeFS{"/a.txt": f}, ContentType: func(string) string { return "text/x" }}

	resp, err := b.Build("/a.txt")

	require.NoError(t, err)
	assert.True(t, f.closed)
	ct, _ := resp.Headers.Get("content-type")
	assert.Equal(t, "text/x", ct)
}

type fakeFS map[string]io.ReadCloser

func (fs fakeFS) Open(name string) (io.ReadCloser, error) {
	f, ok := fs[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return f, nil
}

type memFile struct {
	io.Reader
	closed bool
}

func (f *memFile) Close() error {
	f.closed = true
	return nil
}

type failingFile struct{}

func (failingFile) Read(p []byte) (int, error) {
	return 0, errors.New("input/output error")
}

func (failingFile) Close() error {
	return nil
}

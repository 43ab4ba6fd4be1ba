package request

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleGETRequest(t *testing.T) {
	data := "GET /index.html HTTP/1.1\r\nHost: example.com\r\n\r\n"
	req, err := RequestFromReader(strings.NewReader(data), 0)

	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method())
	assert.Equal(t, "/index.html", req.Target())
	assert.Equal(t, "HTTP/1.1", req.RequestLine.Version)
	assert.Equal(t, "example.com", req.Header("host"))
	assert.Zero(t, req.MalformedHeaders)
}

func TestReadHeaderBlockStopsAtTerminator(t *testing.T) {
	data := "GET /a.txt HTTP/1.1\r\nHost: x\r\n\r\nbody bytes that are dropped"
	block, err := ReadHeaderBlock(strings.NewReader(data), 0)

	require.NoError(t, err)
	assert.Equal(t, "GET /a.txt HTTP/1.1\r\nHost: x", block)
}

func TestReadHeaderBlockFirstTerminatorWins(t *testing.T) {
	data := "GET / HTTP/1.1\r\n\r\nGET /second HTTP/1.1\r\n\r\n"
	block, err := ReadHeaderBlock(strings.NewReader(data), 0)

	require.NoError(t, err)
	assert.Equal(t, "GET / HTTP/1.1", block)
}

func TestIncrementalParsing(t *testing.T) {
	// Simulate slow reader that returns data a few bytes at a time, so the
	// terminator is split across reads.
	data := []byte("GET /style.css HTTP/1.1\r\nHost: example.com\r\n\r\n")
	for _, size := range []int{1, 2, 3, 5, 7} {
		reader := &slowReader{data: data, chunkSize: size}

		req, err := RequestFromReader(reader, 0)

		require.NoError(t, err, "chunk size %d", size)
		assert.Equal(t, "/style.css", req.Target())
	}
}

func TestHeaderBlockLargerThanOneChunk(t *testing.T) {
	long := strings.Repeat("a", 3*chunkSize)
	data := "GET /" + long + " HTTP/1.1\r\nHost: example.com\r\n\r\n"

	req, err := RequestFromReader(strings.NewReader(data), 0)

	require.NoError(t, err)
	assert.Equal(t, "/"+long, req.Target())
}

func TestHeaderTooLarge(t *testing.T) {
	data := "GET / HTTP/1.1\r\nX-Junk: " + strings.Repeat("x", 5000)

	_, err := ReadHeaderBlock(strings.NewReader(data), 2048)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHeaderTooLarge)
}

func TestConnectionClosedBeforeTerminator(t *testing.T) {
	_, err := ReadHeaderBlock(strings.NewReader("GET / HTTP/1.1\r\n"), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionClosed)

	_, err = ReadHeaderBlock(strings.NewReader(""), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestReaderErrorIsWrapped(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := ReadHeaderBlock(&errReader{err: boom}, 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrConnectionClosed)
}

func TestEmptyReadsDoNotSpin(t *testing.T) {
	_, err := ReadHeaderBlock(&errReader{}, 0)

	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrNoProgress)
}

func TestInvalidUTF8IsReplaced(t *testing.T) {
	data := "GET /caf\xe9.txt HTTP/1.1\r\n\r\n"
	req, err := RequestFromReader(strings.NewReader(data), 0)

	require.NoError(t, err)
	assert.Equal(t, "/caf\uFFFD.txt", req.Target())

	// Test: Each invalid byte that cannot start a sequence gets its own replacement
	req, err = RequestFromReader(strings.NewReader("GET /a\xff\xfe.txt HTTP/1.1\r\n\r\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, "/a\uFFFD\uFFFD.txt", req.Target())

	// Test: Overlong encoding is two replacements
	req, err = RequestFromReader(strings.NewReader("GET /a\xc0\xaf.txt HTTP/1.1\r\n\r\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, "/a\uFFFD\uFFFD.txt", req.Target())

	// Test: A truncated sequence collapses into one replacement
	req, err = RequestFromReader(strings.NewReader("GET /a\xe2\x82.txt HTTP/1.1\r\n\r\n"), 0)
	require.NoError(t, err)
	assert.Equal(t, "/a\uFFFD.txt", req.Target())
}

func TestMalformedRequestLine(t *testing.T) {
	// Single token, no space
	_, err := RequestFromReader(strings.NewReader("GARBAGE\r\n\r\n"), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRequestLine)

	// Empty first line
	_, err = Parse("\r\nHost: example.com")
	assert.ErrorIs(t, err, ErrMalformedRequestLine)

	// Double space leaves an empty second token
	_, err = Parse("GET  /path HTTP/1.1")
	assert.ErrorIs(t, err, ErrMalformedRequestLine)
}

func TestRequestLineTokens(t *testing.T) {
	// Missing version is fine, only the target matters
	rl, err := ParseRequestLine("GET /path")
	require.NoError(t, err)
	assert.Equal(t, "/path", rl.Target)
	assert.Equal(t, "", rl.Version)

	// Method is not validated
	rl, err = ParseRequestLine("BREW /pot HTTP/1.1\r\nHost: x")
	require.NoError(t, err)
	assert.Equal(t, "BREW", rl.Method)
	assert.Equal(t, "/pot", rl.Target)

	// Query strings and encodings are left alone
	rl, err = ParseRequestLine("GET /a%20b.txt?x=1 HTTP/1.1")
	require.NoError(t, err)
	assert.Equal(t, "/a%20b.txt?x=1", rl.Target)
}

func TestMalformedHeadersAreCounted(t *testing.T) {
	req, err := Parse("GET / HTTP/1.1\r\nHost: example.com\r\nbroken\r\nUser-Agent: test")

	require.NoError(t, err)
	assert.Equal(t, 1, req.MalformedHeaders)
	assert.Equal(t, "test", req.Header("user-agent"))
}

// slowReader simulates a network connection that provides data slowly
type slowReader struct {
	data      []byte
	chunkSize int
	offset    int
}

func (r *slowReader) Read(p []byte) (int, error) {
	if r.offset >= len(r.data) {
		return 0, io.EOF
	}

	n := r.chunkSize
	if n > len(p) {
		n = len(p)
	}
	if n > len(r.data)-r.offset {
		n = len(r.data) - r.offset
	}

	copy(p, r.data[r.offset:r.offset+n])
	r.offset += n
	return n, nil
}

// errReader returns err on every read, or (0, nil) when err is nil.
type errReader struct {
	err error
}

func (r *errReader) Read(p []byte) (int, error) {
	return 0, r.err
}

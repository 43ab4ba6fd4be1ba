package response

import (
	"fmt"
	"io"

	"github.com/Brownie44l1/fileserve/internal/headers"
)

// StatusCode represents HTTP status codes
type StatusCode int

const (
	StatusOK                          StatusCode = 200
	StatusBadRequest                  StatusCode = 400
	StatusNotFound                    StatusCode = 404
	StatusRequestTimeout              StatusCode = 408
	StatusRequestHeaderFieldsTooLarge StatusCode = 431
	StatusInternalServerError         StatusCode = 500
)

// statusText maps status codes to reason phrases. 404 is upper case on the
// wire and clients match on it byte for byte.
var statusText = map[StatusCode]string{
	StatusOK:                          "OK",
	StatusBadRequest:                  "Bad Request",
	StatusNotFound:                    "NOT FOUND",
	StatusRequestTimeout:              "Request Timeout",
	StatusRequestHeaderFieldsTooLarge: "Request Header Fields Too Large",
	StatusInternalServerError:         "Internal Server Error",
}

// writerState tracks what's been written so far
type writerState int

const (
	stateStart writerState = iota
	stateStatusWritten
	stateHeadersWritten
	stateBodyWritten
)

// Writer writes HTTP responses to an io.Writer
type Writer struct {
	w          io.Writer
	state      writerState
	statusCode StatusCode
	written    int64
}

// NewWriter creates a new response writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:     w,
		state: stateStart,
	}
}

// WriteStatusLine writes the HTTP status line
func (w *Writer) WriteStatusLine(code StatusCode) error {
	if w.state != stateStart {
		return fmt.Errorf("status line already written")
	}

	statusLine := fmt.Sprintf("HTTP/1.1 %d %s\r\n", code, StatusText(code))
	if err := w.write([]byte(statusLine)); err != nil {
		return err
	}

	w.statusCode = code
	w.state = stateStatusWritten
	return nil
}

// WriteHeaders writes all header fields in order, then the blank line.
func (w *Writer) WriteHeaders(h *headers.Headers) error {
	if w.state != stateStatusWritten {
		return fmt.Errorf("must write status line before headers")
	}

	var err error
	h.Each(func(name, value string) {
		if err != nil {
			return
		}
		err = w.write([]byte(name + ": " + value + "\r\n"))
	})
	if err != nil {
		return err
	}

	if err := w.write([]byte("\r\n")); err != nil {
		return err
	}

	w.state = stateHeadersWritten
	return nil
}

// WriteBody writes the complete response body
func (w *Writer) WriteBody(data []byte) error {
	if w.state != stateHeadersWritten {
		return fmt.Errorf("must write headers before body")
	}

	if len(data) > 0 {
		if err := w.write(data); err != nil {
			return err
		}
	}

	w.state = stateBodyWritten
	return nil
}

func (w *Writer) write(p []byte) error {
	n, err := w.w.Write(p)
	w.written += int64(n)
	return err
}

// StatusCode returns the status that was written, or 0 if the status line
// never went out.
func (w *Writer) StatusCode() StatusCode {
	return w.statusCode
}

// Written returns the number of bytes handed to the underlying writer.
func (w *Writer) Written() int64 {
	return w.written
}

package response

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/Brownie44l1/fileserve/internal/headers"
)

// Response is a complete response held in memory until it is written.
type Response struct {
	Status  StatusCode
	Headers *headers.Headers
	Body    []byte
}

// NotFound is the bare 404: status line, blank line, nothing else.
func NotFound() *Response {
	return &Response{
		Status:  StatusNotFound,
		Headers: headers.NewHeaders(),
	}
}

// OK wraps file contents. Header names are sent as "Content-type" and
// "Content-length", lower case after the first letter.
func OK(contentType string, body []byte) *Response {
	h := headers.NewHeaders()
	h.Set("Content-type", contentType)
	h.Set("Content-length", strconv.Itoa(len(body)))

	return &Response{
		Status:  StatusOK,
		Headers: h,
		Body:    body,
	}
}

// Error builds a short plain-text error response.
func Error(code StatusCode, message string) *Response {
	if message == "" {
		message = StatusText(code)
	}

	body := fmt.Sprintf("Error %d: %s\n", code, message)

	h := headers.NewHeaders()
	h.Set("Content-type", "text/plain; charset=utf-8")
	h.Set("Content-length", strconv.Itoa(len(body)))

	return &Response{
		Status:  code,
		Headers: h,
		Body:    []byte(body),
	}
}

// WriteTo serialises the response through a Writer.
func (r *Response) WriteTo(dst io.Writer) (int64, error) {
	w := NewWriter(dst)
	err := r.Send(w)
	return w.Written(), err
}

// Send drives w through status line, headers and body.
func (r *Response) Send(w *Writer) error {
	if err := w.WriteStatusLine(r.Status); err != nil {
		return err
	}

	h := r.Headers
	if h == nil {
		h = headers.NewHeaders()
	}
	if err := w.WriteHeaders(h); err != nil {
		return err
	}

	return w.WriteBody(r.Body)
}

// Bytes returns the exact wire form of the response.
func (r *Response) Bytes() []byte {
	var buf bytes.Buffer
	// bytes.Buffer writes only fail on out-of-memory, which panics.
	_, _ = r.WriteTo(&buf)
	return buf.Bytes()
}

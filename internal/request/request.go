package request

import (
	"fmt"
	"io"
	"strings"

	"github.com/Brownie44l1/fileserve/internal/headers"
)

type Request struct {
	RequestLine RequestLine
	Headers     *headers.Headers

	// MalformedHeaders counts header lines that were skipped.
	MalformedHeaders int
}

// Parse builds a Request from a header block as returned by ReadHeaderBlock.
func Parse(block string) (*Request, error) {
	rl, err := ParseRequestLine(block)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(block, lineSeparator)
	h, skipped := headers.Parse(lines[1:])

	return &Request{
		RequestLine:      rl,
		Headers:          h,
		MalformedHeaders: skipped,
	}, nil
}

// RequestFromReader frames and parses a single request from reader.
func RequestFromReader(reader io.Reader, maxHeaderBytes int) (*Request, error) {
	block, err := ReadHeaderBlock(reader, maxHeaderBytes)
	if err != nil {
		return nil, err
	}

	req, err := Parse(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, firstLine(block))
	}
	return req, nil
}

func (r *Request) Target() string {
	return r.RequestLine.Target
}

func (r *Request) Method() string {
	return r.RequestLine.Method
}

// Header returns the first value of a request header, or "".
func (r *Request) Header(key string) string {
	val, _ := r.Headers.Get(key)
	return val
}

func firstLine(block string) string {
	line, _, _ := strings.Cut(block, lineSeparator)
	const maxLen = 100
	if len(line) > maxLen {
		return line[:maxLen] + "...[truncated]"
	}
	return line
}

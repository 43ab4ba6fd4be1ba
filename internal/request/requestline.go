package request

import (
	"errors"
	"strings"
)

var ErrMalformedRequestLine = errors.New("malformed request line")

const lineSeparator = "\r\n"

// RequestLine holds the first line of a request. Only Target drives the
// response; Method and Version are kept for logging.
type RequestLine struct {
	Method  string
	Target  string
	Version string
}

// ParseRequestLine takes the first line of the header block, splits it on
// single spaces and returns the second token as the target.
func ParseRequestLine(block string) (RequestLine, error) {
	first, _, _ := strings.Cut(block, lineSeparator)

	parts := strings.Split(first, " ")
	if len(parts) < 2 || parts[1] == "" {
		return RequestLine{}, ErrMalformedRequestLine
	}

	rl := RequestLine{
		Method: parts[0],
		Target: parts[1],
	}
	if len(parts) > 2 {
		rl.Version = parts[2]
	}
	return rl, nil
}

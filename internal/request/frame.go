package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
)

// DefaultMaxHeaderBytes bounds the header block when the caller passes no limit.
const DefaultMaxHeaderBytes = 1 << 20

// maxConsecutiveEmptyReads matches bufio's guard against readers that
// keep returning (0, nil).
const maxConsecutiveEmptyReads = 100

var (
	ErrHeaderTooLarge   = errors.New("header block too large")
	ErrConnectionClosed = errors.New("connection closed before end of headers")
)

var headerTerminator = []byte("\r\n\r\n")

// ReadHeaderBlock reads r in fixed-size chunks until the accumulated bytes
// contain "\r\n\r\n" and returns everything before the first terminator,
// decoded as UTF-8 with invalid sequences replaced by U+FFFD.
//
// Bytes received after the terminator are dropped. The server never reads
// a request body, so there is nothing to hand them to.
func ReadHeaderBlock(r io.Reader, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxHeaderBytes
	}

	chunk := getChunk()
	defer putChunk(chunk)
	acc := getAccumulator()
	defer putAccumulator(acc)

	empty := 0
	for {
		n, err := r.Read(*chunk)
		if n > 0 {
			empty = 0

			// Only the tail of the previous data can start a terminator
			// that ends in this chunk.
			from := max(len(*acc)-len(headerTerminator)+1, 0)
			*acc = append(*acc, (*chunk)[:n]...)

			if idx := bytes.Index((*acc)[from:], headerTerminator); idx != -1 {
				block, err := decode((*acc)[:from+idx])
				if err != nil {
					return "", fmt.Errorf("decode header block: %w", err)
				}
				return block, nil
			}

			if len(*acc) > limit {
				return "", fmt.Errorf("%w: more than %d bytes without terminator", ErrHeaderTooLarge, limit)
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w after %d bytes", ErrConnectionClosed, len(*acc))
			}
			return "", fmt.Errorf("read error: %w", err)
		}

		if n == 0 {
			empty++
			if empty >= maxConsecutiveEmptyReads {
				return "", io.ErrNoProgress
			}
		}
	}
}

// decode replaces each maximal invalid subsequence with one U+FFFD, so
// "\xff\xfe" becomes two replacement characters and a truncated sequence
// becomes one. The decoder keeps state and is built per call.
func decode(b []byte) (string, error) {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

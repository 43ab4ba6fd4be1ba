package headers

import (
	"fmt"
	"strings"
)

// field keeps the name as it was written so responses go out with the
// exact casing the caller chose (e.g. "Content-type").
type field struct {
	name  string
	value string
}

// Headers is an ordered, case-insensitive list of header fields.
type Headers struct {
	fields []field
}

func NewHeaders() *Headers {
	return &Headers{}
}

// Get returns the first value for a header
func (h *Headers) Get(key string) (string, bool) {
	for _, f := range h.fields {
		if strings.EqualFold(f.name, key) {
			return f.value, true
		}
	}
	return "", false
}

// Set replaces all values for a header. The field keeps the position of
// its first occurrence; a new field goes to the end.
func (h *Headers) Set(key, value string) {
	kept := h.fields[:0]
	replaced := false
	for _, f := range h.fields {
		if !strings.EqualFold(f.name, key) {
			kept = append(kept, f)
			continue
		}
		if !replaced {
			kept = append(kept, field{name: key, value: value})
			replaced = true
		}
	}
	h.fields = kept
	if !replaced {
		h.fields = append(h.fields, field{name: key, value: value})
	}
}

// Add appends a value to a header
func (h *Headers) Add(key, value string) {
	h.fields = append(h.fields, field{name: key, value: value})
}

// Each calls fn for every field in insertion order.
func (h *Headers) Each(fn func(name, value string)) {
	for _, f := range h.fields {
		fn(f.name, f.value)
	}
}

// Parse collects header fields from the lines of a header block that
// follow the request line. Malformed lines are skipped and counted:
// nothing in the server depends on a header, so a bad one is not worth
// failing the request over.
func Parse(lines []string) (*Headers, int) {
	h := NewHeaders()
	skipped := 0

	for _, line := range lines {
		if line == "" {
			continue
		}

		// Obsolete line folding
		if line[0] == ' ' || line[0] == '\t' {
			skipped++
			continue
		}

		name, value, err := ParseLine(line)
		if err != nil {
			skipped++
			continue
		}
		h.Add(name, value)
	}

	return h, skipped
}

// ParseLine splits a single "Name: value" line.
func ParseLine(line string) (string, string, error) {
	colonIdx := strings.IndexByte(line, ':')
	if colonIdx == -1 {
		return "", "", fmt.Errorf("malformed header: no colon")
	}

	name := line[:colonIdx]
	value := line[colonIdx+1:]

	if name == "" {
		return "", "", fmt.Errorf("malformed header: empty name")
	}

	if strings.ContainsAny(name, " \t") {
		return "", "", fmt.Errorf("malformed header: whitespace in name")
	}

	for i := 0; i < len(name); i++ {
		if !isValidHeaderChar(name[i]) {
			return "", "", fmt.Errorf("invalid character in header name: %q", name[i])
		}
	}

	return name, strings.TrimSpace(value), nil
}

func isValidHeaderChar(b byte) bool {
	return (b >= 'A' && b <= 'Z') ||
		(b >= 'a' && b <= 'z') ||
		(b >= '0' && b <= '9') ||
		b == '!' || b == '#' || b == '$' || b == '%' || b == '&' ||
		b == '\'' || b == '*' || b == '+' || b == '-' || b == '.' ||
		b == '^' || b == '_' || b == '`' || b == '|' || b == '~'
}

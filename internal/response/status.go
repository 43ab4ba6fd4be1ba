package response

// StatusText returns the reason phrase for a status code
func StatusText(code StatusCode) string {
	if text, ok := statusText[code]; ok {
		return text
	}
	return "Unknown Status"
}

// IsSuccess returns true for 2xx status codes
func (code StatusCode) IsSuccess() bool {
	return code >= 200 && code < 300
}

// IsClientError returns true for 4xx status codes
func (code StatusCode) IsClientError() bool {
	return code >= 400 && code < 500
}

// IsServerError returns true for 5xx status codes
func (code StatusCode) IsServerError() bool {
	return code >= 500 && code < 600
}

package http

import (
	"net/http"
	"time"
)

// Response represents a drained HTTP response
type Response struct {
	StatusCode int
	Status     string
	BytesRead  int64
	Duration   time.Duration

	// Body is only filled by PostCapture
	Body []byte
}

// IsOK returns true only for HTTP 200. Other 2xx codes do not count as success.
func (r *Response) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// IsServerError returns true if the response status code is in the 5xx range
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}

// GetResponseTimeMillis returns the response time in milliseconds
func (r *Response) GetResponseTimeMillis() int64 {
	return r.Duration.Milliseconds()
}

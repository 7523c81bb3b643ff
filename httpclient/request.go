package httpclient

import "github.com/kbukum/edgeshim/resilience"

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method. Defaults to GET.
	Method string
	// Path is appended to the client's BaseURL. Can be a full URL.
	Path string
	// Headers are request-specific headers (merged with client defaults).
	Headers map[string]string
	// ExpectStatus, when non-zero, turns any other status into an error.
	ExpectStatus int
	// Retry overrides the client-level retry for this request.
	Retry *resilience.RetryConfig
}

// Response is the result of an HTTP request.
type Response struct {
	StatusCode int
	Headers    map[string]string
	// Body is the response body, truncated at 1 MiB.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

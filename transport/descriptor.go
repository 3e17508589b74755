package transport

import (
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// Descriptor describes one logical request. It is built once per call and
// never mutated afterwards; per-request state the interceptor hooks add
// (such as the bearer header) lives on the derived *http.Request instead.
type Descriptor struct {
	Method    string
	Path      string
	Query     url.Values
	Payload   any         // JSON-encoded unless Multipart is set
	Headers   http.Header // Per-call headers, override defaults
	Multipart bool
	Body      io.Reader // Pre-encoded body for multipart requests
	BodyType  string    // Content-Type for Body, including the boundary
	RequestID string
}

// NewDescriptor builds a Descriptor for a JSON request, assigning it a
// fresh request id.
func NewDescriptor(method, path string, query url.Values, payload any) Descriptor {
	return Descriptor{
		Method:    method,
		Path:      path,
		Query:     query,
		Payload:   payload,
		RequestID: uuid.NewString(),
	}
}

// NewMultipartDescriptor builds a Descriptor whose body is already encoded
// (fields and file parts, boundary included in bodyType). The JSON
// serialization path is bypassed entirely.
func NewMultipartDescriptor(method, path string, body io.Reader, bodyType string) Descriptor {
	return Descriptor{
		Method:    method,
		Path:      path,
		Multipart: true,
		Body:      body,
		BodyType:  bodyType,
		RequestID: uuid.NewString(),
	}
}

// Response is the raw outcome of a completed exchange. Non-2xx statuses are
// carried here, not returned as errors: classification is the interceptor
// chain's job, not the transport's.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// OK reports whether the exchange ended in a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/jrsteele09/go-api-client/transport"
)

// Kind discriminates the normalized failure categories every facade call
// can resolve to.
type Kind string

const (
	KindNetwork      Kind = "network"      // Host unreachable, connection refused
	KindTimeout      Kind = "timeout"      // Exchange aborted by the transport timeout
	KindUnauthorized Kind = "unauthorized" // 401 - triggers forced logout
	KindForbidden    Kind = "forbidden"    // 403
	KindValidation   Kind = "validation"   // 4xx carrying structured field errors
	KindServer       Kind = "server"       // 5xx
	KindUnknown      Kind = "unknown"      // Unparseable failure shape
)

// Error is the normalized failure every facade operation returns. No raw
// transport or decoding fault ever escapes to a caller in any other shape.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int               // Zero for failures without a completed exchange
	Fields     map[string]string // Field-level messages for KindValidation
	RequestID  string
	Cause      error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches errors by Kind, so callers can write
// errors.Is(err, &api.Error{Kind: api.KindTimeout}).
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the failure kind from any error returned by the facade.
// Non-facade errors report KindUnknown.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// errorBody is the shape the backend uses for failure payloads. Both the
// flat message and the per-field map are optional.
type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

// normalizeTransport maps a transport-level failure (no completed exchange)
// to its normalized kind.
func normalizeTransport(err error, requestID string) *Error {
	kind := KindNetwork
	message := "service unreachable"

	switch {
	case isTimeout(err):
		kind = KindTimeout
		message = "the request timed out"
	case isCanceled(err):
		kind = KindNetwork
		message = "the request was canceled"
	}

	return &Error{
		Kind:      kind,
		Message:   message,
		RequestID: requestID,
		Cause:     err,
	}
}

// normalizeResponse maps a completed non-2xx exchange to its normalized
// kind, decoding structured field errors when the body carries them.
func normalizeResponse(resp *transport.Response) *Error {
	var body errorBody
	_ = json.Unmarshal(resp.Body, &body)

	e := &Error{
		StatusCode: resp.StatusCode,
		Message:    body.Message,
		RequestID:  resp.RequestID,
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
		if e.Message == "" {
			e.Message = "your session has expired, please sign in again"
		}
	case resp.StatusCode == http.StatusForbidden:
		e.Kind = KindForbidden
		if e.Message == "" {
			e.Message = "you do not have permission to do that"
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && len(body.Errors) > 0:
		e.Kind = KindValidation
		e.Fields = body.Errors
		if e.Message == "" {
			e.Message = "please correct the highlighted fields"
		}
	case resp.StatusCode >= 500:
		e.Kind = KindServer
		if e.Message == "" {
			e.Message = "something went wrong on our side"
		}
	default:
		e.Kind = KindUnknown
		if e.Message == "" {
			e.Message = fmt.Sprintf("unexpected response (%d)", resp.StatusCode)
		}
	}

	return e
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

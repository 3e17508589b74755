// Package transport performs the raw HTTP exchange for the request facade
// and runs the ordered interceptor hooks around it. Callers above this
// package never construct http requests themselves; they describe the call
// with a Descriptor and receive a discriminated Response/error outcome.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// Transport owns the connection configuration: base address, fixed
// timeout, and default headers merged into every request. Safe for
// concurrent use once constructed.
type Transport struct {
	base          *url.URL
	client        *http.Client
	defaultHeader http.Header
	requestHooks  []RequestHook
	responseHooks []ResponseHook
	log           zerolog.Logger
}

// Option configures a Transport.
type Option func(*Transport)

// WithTimeout sets the abort threshold for every exchange.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		t.client.Timeout = d
	}
}

// WithDefaultHeader adds a header merged into every request unless the
// Descriptor overrides it.
func WithDefaultHeader(key, value string) Option {
	return func(t *Transport) {
		t.defaultHeader.Set(key, value)
	}
}

// WithHTTPClient replaces the underlying http client (primarily for tests).
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		t.client = c
	}
}

// WithRequestHook appends an outgoing-stage hook. Hooks run in registration
// order on every request before it is sent.
func WithRequestHook(h RequestHook) Option {
	return func(t *Transport) {
		t.requestHooks = append(t.requestHooks, h)
	}
}

// WithResponseHook appends an incoming-stage hook. Hooks observe every
// completed exchange, in registration order, before the outcome is
// returned to the caller.
func WithResponseHook(h ResponseHook) Option {
	return func(t *Transport) {
		t.responseHooks = append(t.responseHooks, h)
	}
}

// WithTransportLogger sets the logger used for request/response traces.
func WithTransportLogger(log zerolog.Logger) Option {
	return func(t *Transport) {
		t.log = log
	}
}

// New creates a Transport rooted at baseAddress. All Descriptor paths are
// resolved relative to it.
func New(baseAddress string, options ...Option) (*Transport, error) {
	base, err := url.Parse(baseAddress)
	if err != nil {
		return nil, errors.Wrap(err, "[New] parsing base address")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("[New] base address %q must be absolute", baseAddress)
	}

	t := &Transport{
		base:          base,
		client:        &http.Client{Timeout: defaultTimeout},
		defaultHeader: http.Header{},
		log:           zerolog.Nop(),
	}
	for _, opt := range options {
		opt(t)
	}
	return t, nil
}

// Do performs the exchange described by d. The error return carries only
// transport-level failures (unreachable host, timeout, cancellation);
// any completed exchange is returned as a *Response regardless of status.
func (t *Transport) Do(ctx context.Context, d Descriptor) (*Response, error) {
	req, err := t.buildRequest(ctx, d)
	if err != nil {
		return nil, err
	}

	for _, hook := range t.requestHooks {
		hook(req)
	}

	t.log.Debug().Str("requestID", d.RequestID).Str("method", d.Method).Str("url", req.URL.String()).Msg("sending request")

	httpResp, err := t.client.Do(req)
	if err != nil {
		t.runResponseHooks(nil, err)
		return nil, errors.Wrap(err, "[Do] performing exchange")
	}
	defer httpResp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		err = errors.Wrap(err, "[Do] reading response body")
		t.runResponseHooks(nil, err)
		return nil, err
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		RequestID:  d.RequestID,
	}

	t.log.Debug().Str("requestID", d.RequestID).Int("status", resp.StatusCode).Msg("received response")
	t.runResponseHooks(resp, nil)
	return resp, nil
}

func (t *Transport) runResponseHooks(resp *Response, err error) {
	for _, hook := range t.responseHooks {
		hook(resp, err)
	}
}

func (t *Transport) buildRequest(ctx context.Context, d Descriptor) (*http.Request, error) {
	target, err := t.resolve(d.Path, d.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	contentType := ""
	switch {
	case d.Multipart:
		body = d.Body
		contentType = d.BodyType
	case d.Payload != nil:
		encoded, err := json.Marshal(d.Payload)
		if err != nil {
			return nil, errors.Wrap(err, "[buildRequest] encoding payload")
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, d.Method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "[buildRequest] creating request")
	}

	for key, values := range t.defaultHeader {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	for key, values := range d.Headers {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if d.RequestID != "" && req.Header.Get("X-Request-Id") == "" {
		req.Header.Set("X-Request-Id", d.RequestID)
	}

	return req, nil
}

func (t *Transport) resolve(path string, query url.Values) (string, error) {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return "", errors.Wrapf(err, "[resolve] parsing path %q", path)
	}

	base := *t.base
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	resolved := base.ResolveReference(ref)
	if len(query) > 0 {
		resolved.RawQuery = query.Encode()
	}
	return resolved.String(), nil
}

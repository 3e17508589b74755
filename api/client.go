// Package api exposes the unified request facade: verb-oriented operations
// over the transport that always resolve to either decoded data or a
// normalized *Error, with user-facing notifications as a side channel.
// Screens call this package (directly or through the query cache) and
// never touch the transport themselves.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-api-client/transport"
)

// Client is the unified request facade. Safe for concurrent use.
type Client struct {
	transport *transport.Transport
	notifier  Notifier
	log       zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithNotifier routes the user-facing notification side channel.
func WithNotifier(n Notifier) ClientOption {
	return func(c *Client) {
		c.notifier = n
	}
}

// WithLogger sets the facade logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a facade over the given transport.
func NewClient(t *transport.Transport, options ...ClientOption) (*Client, error) {
	if t == nil {
		return nil, errors.New("[NewClient] transport is required")
	}

	client := &Client{
		transport: t,
		notifier:  NopNotifier(),
		log:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// callConfig holds the per-call-site notification policy.
type callConfig struct {
	silent         bool
	successMessage string
}

// CallOption adjusts one facade call.
type CallOption func(*callConfig)

// Silent suppresses all notifications for this call, success and failure.
func Silent() CallOption {
	return func(cc *callConfig) {
		cc.silent = true
	}
}

// WithSuccessMessage sets (or, for reads, enables) the success
// notification text for this call.
func WithSuccessMessage(msg string) CallOption {
	return func(cc *callConfig) {
		cc.successMessage = msg
	}
}

// Fetch performs a read. Reads are quiet on success unless a success
// message is requested.
func (c *Client) Fetch(ctx context.Context, path string, params url.Values, out any, opts ...CallOption) error {
	d := transport.NewDescriptor(http.MethodGet, path, params, nil)
	return c.execute(ctx, d, out, "", opts)
}

// Create performs a write creating a new resource.
func (c *Client) Create(ctx context.Context, path string, payload, out any, opts ...CallOption) error {
	d := transport.NewDescriptor(http.MethodPost, path, nil, payload)
	return c.execute(ctx, d, out, "saved", opts)
}

// Replace performs a full-resource write.
func (c *Client) Replace(ctx context.Context, path string, payload, out any, opts ...CallOption) error {
	d := transport.NewDescriptor(http.MethodPut, path, nil, payload)
	return c.execute(ctx, d, out, "saved", opts)
}

// Patch performs a partial write.
func (c *Client) Patch(ctx context.Context, path string, payload, out any, opts ...CallOption) error {
	d := transport.NewDescriptor(http.MethodPatch, path, nil, payload)
	return c.execute(ctx, d, out, "saved", opts)
}

// Remove deletes a resource.
func (c *Client) Remove(ctx context.Context, path string, opts ...CallOption) error {
	d := transport.NewDescriptor(http.MethodDelete, path, nil, nil)
	return c.execute(ctx, d, nil, "deleted", opts)
}

// UploadMultipart sends a multipart form, bypassing JSON serialization.
func (c *Client) UploadMultipart(ctx context.Context, path string, form *Form, out any, opts ...CallOption) error {
	body, contentType, err := form.encode()
	if err != nil {
		return c.fail(&Error{Kind: KindUnknown, Message: "could not prepare the upload", Cause: err}, callOptions(opts))
	}
	d := transport.NewMultipartDescriptor(http.MethodPost, path, body, contentType)
	return c.execute(ctx, d, out, "uploaded", opts)
}

// execute runs one descriptor through the interceptor chain and transport,
// normalizing every possible outcome. defaultSuccess is the write-path
// success notification text; empty means quiet on success.
func (c *Client) execute(ctx context.Context, d transport.Descriptor, out any, defaultSuccess string, opts []CallOption) error {
	cc := callOptions(opts)

	resp, err := c.transport.Do(ctx, d)
	if err != nil {
		return c.fail(normalizeTransport(err, d.RequestID), cc)
	}
	if !resp.OK() {
		return c.fail(normalizeResponse(resp), cc)
	}

	if out != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return c.fail(&Error{
				Kind:      KindUnknown,
				Message:   "the server response could not be read",
				RequestID: d.RequestID,
				Cause:     err,
			}, cc)
		}
	}

	message := defaultSuccess
	if cc.successMessage != "" {
		message = cc.successMessage
	}
	if message != "" && !cc.silent {
		c.notifier.Notify(NoticeSuccess, message)
	}
	return nil
}

// fail emits the single failure notification (unless silenced) and returns
// the normalized error. Unauthorized failures are still surfaced so
// in-flight UI state can reset, even though the forced logout has already
// been handled by the interceptor chain.
func (c *Client) fail(e *Error, cc callConfig) error {
	c.log.Debug().Str("kind", string(e.Kind)).Str("requestID", e.RequestID).Msg(e.Message)
	if !cc.silent {
		c.notifier.Notify(NoticeError, e.Message)
	}
	return e
}

func callOptions(opts []CallOption) callConfig {
	var cc callConfig
	for _, opt := range opts {
		opt(&cc)
	}
	return cc
}

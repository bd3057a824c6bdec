// Package gateway is the single path from the portal to the REST backend.
// It attaches credentials, normalises headers and turns every response into
// either a JSON result or an *Error of a known Kind.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxResponseBytes caps how much of a backend response is read.
const maxResponseBytes = 10 << 20

// DefaultLoginPath is where a 401 sends the client.
const DefaultLoginPath = "/login"

// TokenSource supplies the bearer token and drops it when the backend
// reports the session as expired.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
	Logout(ctx context.Context)
}

// Navigator moves the client to another route.
type Navigator interface {
	Navigate(path string)
}

// Client issues backend requests on behalf of one portal client.
type Client struct {
	baseURL   string
	http      *http.Client
	tokens    TokenSource
	nav       Navigator
	logger    *zap.Logger
	loginPath string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. The portal shares one
// client (and its connection pool) across all visitors.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger for backend and transport failures.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithLoginPath overrides the route a 401 navigates to.
func WithLoginPath(path string) Option {
	return func(c *Client) { c.loginPath = path }
}

// New creates a Client for baseURL (for example http://localhost:8080/api).
func New(baseURL string, tokens TokenSource, nav Navigator, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      http.DefaultClient,
		tokens:    tokens,
		nav:       nav,
		logger:    zap.NewNop(),
		loginPath: DefaultLoginPath,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes one backend call. The zero value of Public means the
// call is authenticated.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is nil, a *Multipart, or any JSON-encodable value.
	Body   any
	Header http.Header
	Public bool
}

// errorBody is the backend's error payload.
type errorBody struct {
	Message    string `json:"message"`
	TrackingID string `json:"trackingId"`
}

// method defaults to GET.
func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

func (c *Client) target(r Request) string {
	target := c.baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}
	return target
}

// Do sends req and returns the JSON result. A 204 yields a nil result and
// no error.
func (c *Client) Do(ctx context.Context, req Request) (json.RawMessage, error) {
	method := req.method()
	target := c.target(req)

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, c.transportError(method, target, fmt.Errorf("encoding request body: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, c.transportError(method, target, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	switch {
	case contentType != "":
		// Multipart carries its boundary; never force JSON onto an upload.
		httpReq.Header.Set("Content-Type", contentType)
	case httpReq.Header.Get("Content-Type") == "":
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if !req.Public {
		if token, ok := c.tokens.Token(ctx); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		observe(method, 0, start)
		return nil, c.transportError(method, target, err)
	}
	defer resp.Body.Close()
	observe(method, resp.StatusCode, start)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.tokens.Logout(ctx)
		c.nav.Navigate(c.loginPath)
		c.logger.Info("backend rejected credentials, session cleared",
			zap.String("method", method), zap.String("url", target))
		return nil, &Error{Kind: KindSessionExpired, Status: resp.StatusCode, Message: "session expired"}

	case resp.StatusCode == http.StatusForbidden:
		return nil, &Error{Kind: KindForbidden, Status: resp.StatusCode, Message: "forbidden"}

	case resp.StatusCode == http.StatusNoContent:
		return nil, nil

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, c.backendError(method, target, resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.transportError(method, target, fmt.Errorf("reading response: %w", err))
	}
	if !json.Valid(data) {
		return nil, c.transportError(method, target, fmt.Errorf("response body is not valid JSON"))
	}
	return json.RawMessage(data), nil
}

// DoJSON sends req and decodes a non-empty result into out.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	data, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return c.transportError(req.method(), c.target(req), fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func (c *Client) backendError(method, target string, resp *http.Response) error {
	gwErr := &Error{Kind: KindBackend, Status: resp.StatusCode, Message: DefaultMessage}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err == nil {
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			if eb.Message != "" {
				gwErr.Message = eb.Message
			}
			gwErr.TrackingID = eb.TrackingID
		}
	}

	c.logger.Warn("backend error",
		zap.String("method", method),
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.String("tracking_id", gwErr.TrackingID),
		zap.String("message", gwErr.Message),
	)
	return gwErr
}

func (c *Client) transportError(method, target string, err error) error {
	c.logger.Error("backend request failed",
		zap.String("method", method),
		zap.String("url", target),
		zap.Error(err),
	)
	return &Error{Kind: KindTransport, Message: "request failed", Err: err}
}

// encodeBody returns the request body and, for multipart bodies only, the
// content type to send.
func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *Multipart:
		r, err := b.reader()
		if err != nil {
			return nil, "", err
		}
		return r, b.ContentType(), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "", nil
	}
}

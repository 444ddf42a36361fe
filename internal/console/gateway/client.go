// Package gateway is the typed HTTP client of the patrol backend.
//
// Every call reads the credential store first and attaches a present token as
// a bearer credential. Only login goes ahead when that read fails. Failures
// are classified into *NetworkError, *ServerError or *RequestSetupError. There
// are no retries and no request de-duplication.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/autopeer-io/patrolctl/internal/console/credential"
	"github.com/autopeer-io/patrolctl/internal/pkg/metrics"
	"github.com/autopeer-io/patrolctl/pkg/log"
)

const (
	headerRequestID = "X-Request-ID"

	// defaultMaxBodyBytes caps how much of a response body is read.
	defaultMaxBodyBytes = 16 << 20
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request traces.
func WithLogger(l log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTelemetryURL overrides the WebSocket address of the live telemetry hub.
func WithTelemetryURL(u string) Option {
	return func(c *Client) { c.telemetryURL = u }
}

// WithMaxBodyBytes caps the size of a response body. Larger responses fail
// with a *ServerError.
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// Client talks to one backend. It is safe for concurrent use.
type Client struct {
	base         *url.URL
	store        credential.Store
	http         *http.Client
	dialer       *websocket.Dialer
	logger       log.Logger
	telemetryURL string
	maxBody      int64
}

// New creates a Client for the absolute http(s) baseURL, e.g.
// http://localhost:8080/api/v1. The base URL cannot be changed afterwards.
func New(baseURL string, store credential.Store, opts ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("credential store is required")
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) url", baseURL)
	}

	c := &Client{
		base:    u,
		store:   store,
		http:    http.DefaultClient,
		dialer:  websocket.DefaultDialer,
		logger:  log.Std(),
		maxBody: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.telemetryURL == "" {
		c.telemetryURL = defaultTelemetryURL(u)
	}
	c.logger = c.logger.WithName("gateway")

	return c, nil
}

// BaseURL returns the REST base address.
func (c *Client) BaseURL() string { return c.base.String() }

// defaultTelemetryURL maps the origin of base to ws(s)://origin/ws/telemetry.
func defaultTelemetryURL(base *url.URL) string {
	u := *base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = "/ws/telemetry"
	u.RawPath = ""
	u.RawQuery = ""
	return u.String()
}

// endpoint joins path segments onto the base URL, escaping each one.
func (c *Client) endpoint(segments ...string) *url.URL {
	u := *c.base
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	u.Path = c.base.Path + "/" + strings.Join(segments, "/")
	u.RawPath = c.base.EscapedPath() + "/" + strings.Join(escaped, "/")
	return &u
}

// token returns the stored credential, or "" when the slot is empty.
func (c *Client) token() (string, error) {
	token, err := c.store.Get()
	if errors.Is(err, credential.ErrNoCredential) {
		return "", nil
	}
	return token, err
}

type call struct {
	op     string
	method string
	url    *url.URL
	body   any
	out    any

	// optionalAuth sends the request without a bearer token when the stored
	// credential cannot be read.
	optionalAuth bool
}

// do performs one round trip. out may be nil, in which case the body is
// discarded. The returned raw body is valid only for successful calls.
func (c *Client) do(ctx context.Context, r call) (raw []byte, err error) {
	defer observe(r.op, time.Now(), &err)

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, &RequestSetupError{Op: r.op, Message: "encode request body", Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url.String(), body)
	if err != nil {
		return nil, &RequestSetupError{Op: r.op, Message: "build request", Err: err}
	}

	token, err := c.token()
	if err != nil {
		if !r.optionalAuth {
			return nil, &RequestSetupError{Op: r.op, Message: "read credential", Err: err}
		}
		c.logger.Error(err, "Stored credential is unreadable, sending request without it", "op", r.op)
		token = ""
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, requestID)

	c.logger.Debug("Sending request", "op", r.op, "method", r.method, "url", req.URL.Redacted(), "requestID", requestID, "authenticated", token != "")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: r.op, URL: req.URL.Redacted(), Err: err}
	}
	defer resp.Body.Close()

	raw, err = io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &NetworkError{Op: r.op, URL: req.URL.Redacted(), Err: err}
	}
	if int64(len(raw)) > c.maxBody {
		return nil, &ServerError{Op: r.op, StatusCode: resp.StatusCode, Message: fmt.Sprintf("response body exceeds the %d byte limit", c.maxBody)}
	}

	c.logger.Debug("Received response", "op", r.op, "status", resp.StatusCode, "requestID", requestID, "bytes", len(raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{Op: r.op, StatusCode: resp.StatusCode, Message: serverMessage(raw)}
	}

	if r.out != nil {
		if err := json.Unmarshal(raw, r.out); err != nil {
			return nil, &ServerError{Op: r.op, StatusCode: resp.StatusCode, Message: "invalid response body", Err: err}
		}
	}
	return raw, nil
}

func observe(op string, start time.Time, err *error) {
	metrics.APIRequestsTotal.WithLabelValues(op, Outcome(*err)).Inc()
	metrics.APIRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// serverMessage extracts the message of an error body such as
// {"error": "invalid credentials"}.
func serverMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}

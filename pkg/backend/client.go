package backend

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

	"github.com/angelmondragon/foodstore/pkg/config"
	pkgerrors "github.com/angelmondragon/foodstore/pkg/errors"
	"github.com/angelmondragon/foodstore/pkg/logger"
)

const (
	defaultTimeout                = 10 * time.Second
	defaultErrorBodyLimit   int64 = 2048
	defaultSuccessBodyLimit int64 = 8 << 20
	alreadyProcessedStatus        = "ALREADY_PROCESSED"
)

var errBaseURLRequired = errors.New("backend base url is required")

// Observer receives one sample per upstream call.
type Observer interface {
	ObserveBackendRequest(resource, method string, status int, duration time.Duration)
}

// Client talks to the food backend. Every method takes the caller's bearer
// token explicitly; an empty token sends no Authorization header.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	maxErrorBody int64
	markers      []string
	observer     Observer
	logg         *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured backend base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithObserver records request durations.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithLogger sets the logger used when display reads degrade to empty values.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

// WithAlreadyProcessedMarkers sets the body substrings that flag a replayed payment confirmation.
func WithAlreadyProcessedMarkers(markers ...string) Option {
	return func(c *Client) {
		c.markers = c.markers[:0]
		for _, m := range markers {
			if m = strings.TrimSpace(m); m != "" {
				c.markers = append(c.markers, m)
			}
		}
	}
}

// NewClient builds the backend client from configuration.
func NewClient(cfg config.BackendConfig, opts ...Option) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := cfg.MaxErrorBody
	if limit <= 0 {
		limit = defaultErrorBodyLimit
	}
	client := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		maxErrorBody: limit,
		logg:         logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.baseURL == "" {
		return nil, errBaseURLRequired
	}
	return client, nil
}

// StatusError records a non-2xx answer from the backend.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string

	// AlreadyProcessed is set when a call that asked for replay detection
	// found a configured marker anywhere in the unbounded body.
	AlreadyProcessed bool
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// UpstreamStatus exposes the HTTP status for error dumps.
func (e *StatusError) UpstreamStatus() int { return e.Status }

// UpstreamBody exposes the bounded response body for error dumps.
func (e *StatusError) UpstreamBody() string { return e.Body }

// AsStatusError extracts the upstream failure from an error chain.
func AsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}

type call struct {
	resource string
	method   string
	path     string
	query    url.Values
	token    string
	body     any

	// replayCheck scans the whole error body for already-processed markers
	// before it is cut to maxErrorBody.
	replayCheck bool
}

// do executes the call and returns the raw success body.
func (c *Client) do(ctx context.Context, in call) ([]byte, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "backend client not configured")
	}
	target := c.baseURL + in.path
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}

	var reader io.Reader
	if in.body != nil {
		payload, err := json.Marshal(in.body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode "+in.resource+" request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, target, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+in.resource+" request")
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := strings.TrimSpace(in.token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(in, 0, started)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, in.resource+" request failed")
	}
	defer func() { _ = resp.Body.Close() }()
	c.observe(in, resp.StatusCode, started)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		limit := c.maxErrorBody
		if in.replayCheck {
			limit = defaultSuccessBodyLimit
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, limit))
		statusErr := &StatusError{
			Method:           in.method,
			Path:             in.path,
			Status:           resp.StatusCode,
			AlreadyProcessed: in.replayCheck && c.IsAlreadyProcessed(msg),
		}
		if int64(len(msg)) > c.maxErrorBody {
			msg = msg[:c.maxErrorBody]
		}
		statusErr.Body = strings.TrimSpace(string(msg))
		return nil, mapStatus(in.resource, statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, defaultSuccessBodyLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+in.resource+" response")
	}
	return body, nil
}

// doJSON executes the call and decodes a non-empty body into out.
func (c *Client) doJSON(ctx context.Context, in call, out any) error {
	body, err := c.do(ctx, in)
	if err != nil {
		return err
	}
	return decodeBody(in.resource, body, out)
}

func decodeBody(resource string, body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+resource+" response")
	}
	return nil
}

func (c *Client) observe(in call, status int, started time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveBackendRequest(in.resource, in.method, status, time.Since(started))
}

func mapStatus(resource string, statusErr *StatusError) error {
	code := pkgerrors.CodeDependency
	switch statusErr.Status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		code = pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		code = pkgerrors.CodeForbidden
	case http.StatusNotFound:
		code = pkgerrors.CodeNotFound
	case http.StatusConflict:
		code = pkgerrors.CodeConflict
	}
	return pkgerrors.Wrap(code, statusErr, fmt.Sprintf("%s request rejected", resource))
}

func pathf(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, arg := range args {
		escaped[i] = url.PathEscape(fmt.Sprint(arg))
	}
	return fmt.Sprintf(format, escaped...)
}

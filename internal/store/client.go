package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/orderdesk/pkg/errors"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/metrics"
)

const (
	defaultTimeout             = 15 * time.Second
	errorBodyReadLimit   int64 = 1024
	responseBodyMaxBytes int64 = 8 << 20
)

// Client talks to the remote record store REST API. Every call is attempted once.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	metrics    *metrics.StoreMetrics
	logg       *logger.Logger
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

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(ua); trimmed != "" {
			c.userAgent = trimmed
		}
	}
}

func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// NewClient builds a record store client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "record store base url is required")
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return client, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Reachable sends a HEAD request to the base URL. Any HTTP response counts as reachable.
func (c *Client) Reachable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build reachability request")
	}
	c.decorate(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConnectivity, err, "record store unreachable")
	}
	_ = resp.Body.Close()
	return nil
}

type call struct {
	op     string
	method string
	path   string
	body   any
	accept func(int) bool
}

func statusIn(codes ...int) func(int) bool {
	return func(status int) bool {
		for _, code := range codes {
			if status == code {
				return true
			}
		}
		return false
	}
}

func status2xx(status int) bool {
	return status >= 200 && status < 300
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "record store client not configured")
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("marshal %s request", cl.op))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.buildURL(cl.path), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("build %s request", cl.op))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.decorate(req)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.Observe(cl.op, 0, time.Since(started))
		failure := &pkgerrors.RemoteFailure{Method: cl.method, Path: cl.path}
		return pkgerrors.Wrap(pkgerrors.CodeTransport, fmt.Errorf("%w: %w", failure, err), fmt.Sprintf("%s request failed", cl.op))
	}
	defer func() { _ = resp.Body.Close() }()
	c.metrics.Observe(cl.op, resp.StatusCode, time.Since(started))

	accept := cl.accept
	if accept == nil {
		accept = status2xx
	}
	if !accept(resp.StatusCode) {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		failure := &pkgerrors.RemoteFailure{
			Method: cl.method,
			Path:   cl.path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(msg)),
		}
		if c.logg != nil {
			ctx = c.logg.WithFields(ctx, map[string]any{
				"store_op":     cl.op,
				"store_status": resp.StatusCode,
				"store_path":   cl.path,
			})
			c.logg.Warn(ctx, "record store returned unexpected status")
		}
		return pkgerrors.Wrap(pkgerrors.CodeUnexpectedStatus, failure, fmt.Sprintf("%s returned status %d", cl.op, resp.StatusCode)).
			WithDetails(map[string]any{"status": resp.StatusCode, "operation": cl.op})
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyMaxBytes))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, fmt.Sprintf("read %s response", cl.op))
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := decodeBody(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, fmt.Sprintf("decode %s response", cl.op))
	}
	return nil
}

// decodeBody accepts either the bare payload or one wrapped in {"data": ...}.
func decodeBody(raw []byte, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if err := json.Unmarshal(trimmed, out); err == nil {
		return nil
	} else if len(trimmed) == 0 || trimmed[0] != '{' {
		return err
	}
	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil || len(wrapped.Data) == 0 {
		return fmt.Errorf("unexpected response shape")
	}
	return json.Unmarshal(wrapped.Data, out)
}

func (c *Client) decorate(req *http.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

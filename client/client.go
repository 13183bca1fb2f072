package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs/url"
	"github.com/viant/pakuspa/client/auth/flow"
	"github.com/viant/pakuspa/client/auth/store"
	"github.com/viant/pakuspa/client/auth/transport"
	"github.com/viant/pakuspa/internal/httperr"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader correlates client calls with API logs
	RequestIDHeader = "X-Request-ID"
	defaultTimeout  = 30 * time.Second
)

// Client calls the PAKU Spa API with a refreshing bearer token session
type Client struct {
	baseURL     string
	userAgent   string
	timeout     time.Duration
	store       store.Store
	logger      *zap.Logger
	transport   http.RoundTripper
	refreshFlow flow.RefreshFlow
	httpClient  *http.Client
}

// BaseURL returns API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store returns the session token store
func (c *Client) Store() store.Store {
	return c.store
}

// HTTPClient returns the authenticated http client, usable with any API endpoint
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// URL resolves path against the API base URL
func (c *Client) URL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return url.Join(c.baseURL, strings.TrimPrefix(path, "/"))
}

// Do sends an authenticated request; the caller owns the response body
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.Clone(ctx)
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	c.logger.Debug("sending request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("requestID", req.Header.Get(RequestIDHeader)))
	return c.httpClient.Do(req)
}

// Get reads path into out
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

// Post sends in to path, decoding response into out when not nil
func (c *Client) Post(ctx context.Context, path string, in, out interface{}) error {
	return c.call(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out interface{}) error {
	return c.call(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Patch(ctx context.Context, path string, in, out interface{}) error {
	return c.call(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.call(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) call(ctx context.Context, method, path string, in, out interface{}) error {
	data, err := send[json.RawMessage](ctx, c, method, path, in)
	if err != nil {
		return err
	}
	if out == nil || data == nil || len(*data) == 0 {
		return nil
	}
	if err = json.Unmarshal(*data, out); err != nil {
		return fmt.Errorf("failed to decode %v %v response: %w", method, path, err)
	}
	return nil
}

// send issues a JSON request and decodes a 2xx response into R; non-2xx responses become *Error
func send[R any](ctx context.Context, client *Client, method, path string, in interface{}) (*R, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %v %v request: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, client.URL(path), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httperr.FromResponse(resp)
	}
	defer resp.Body.Close()
	var result R
	if resp.StatusCode == http.StatusNoContent {
		return &result, nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %v %v response: %w", method, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &result, nil
	}
	if err = json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %v %v response: %w", method, path, err)
	}
	return &result, nil
}

// New creates an API client for baseURL
func New(baseURL string, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL was empty")
	}
	ret := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   defaultTimeout,
		store:     store.NewMemoryStore(),
		logger:    zap.NewNop(),
		transport: http.DefaultTransport,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.refreshFlow == nil {
		ret.refreshFlow = flow.NewEndpointFlow(ret.baseURL,
			flow.WithHTTPClient(&http.Client{Transport: ret.transport, Timeout: ret.timeout}))
	}
	roundTripper, err := transport.New(
		transport.WithStore(ret.store),
		transport.WithFlow(ret.refreshFlow),
		transport.WithTransport(ret.transport),
		transport.WithLogger(ret.logger),
	)
	if err != nil {
		return nil, err
	}
	ret.httpClient = &http.Client{Transport: roundTripper, Timeout: ret.timeout}
	return ret, nil
}

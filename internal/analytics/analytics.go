// Package analytics reports hits to a Google Analytics Measurement Protocol (v1) collector.
package analytics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/darmiel/customtoken/internal/core"
)

const (
	DefaultEndpoint = "https://www.google-analytics.com"

	// DefaultTimeout bounds a single hit. Hits are sent in the request path.
	DefaultTimeout = 3 * time.Second
)

var _ core.Tracker = (*Client)(nil)

// Client sends hits for a single tracking ID.
type Client struct {
	trackingID string
	clientID   string
	endpoint   string
	userAgent  string
	httpClient *http.Client

	mu     sync.RWMutex
	userID string
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout replaces the timeout of the client's HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			cpy := *c.httpClient
			cpy.Timeout = timeout
			c.httpClient = &cpy
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// New creates a Client. Every Client identifies itself with a random client ID.
func New(trackingID string, opts ...Option) *Client {
	c := &Client{
		trackingID: trackingID,
		clientID:   uuid.NewString(),
		endpoint:   DefaultEndpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetUserID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = id
}

func (c *Client) Pageview(ctx context.Context, p core.Pageview) error {
	v := url.Values{}
	v.Set("t", "pageview")
	setIf(v, "dh", p.DocumentHost)
	setIf(v, "dp", p.DocumentPath)
	setIf(v, "dt", p.DocumentTitle)
	// deployment metadata is sent as custom dimensions
	setIf(v, "cd1", p.Env)
	setIf(v, "cd2", p.Branch)
	setIf(v, "cd3", p.Commit)
	return c.send(ctx, v)
}

func (c *Client) Event(ctx context.Context, e core.Event) error {
	v := url.Values{}
	v.Set("t", "event")
	v.Set("ec", e.Category)
	v.Set("ea", e.Action)
	setIf(v, "el", e.Label)
	v.Set("ev", strconv.Itoa(e.Value))
	return c.send(ctx, v)
}

func (c *Client) Exception(ctx context.Context, e core.Exception) error {
	v := url.Values{}
	v.Set("t", "exception")
	setIf(v, "exd", e.Description)
	if e.Fatal {
		v.Set("exf", "1")
	} else {
		v.Set("exf", "0")
	}
	return c.send(ctx, v)
}

func (c *Client) send(ctx context.Context, v url.Values) error {
	v.Set("v", "1")
	v.Set("tid", c.trackingID)
	v.Set("cid", c.clientID)

	c.mu.RLock()
	setIf(v, "uid", c.userID)
	c.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/collect", strings.NewReader(v.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending %s hit: %w", v.Get("t"), err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code %d for %s hit", resp.StatusCode, v.Get("t"))
	}
	return nil
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

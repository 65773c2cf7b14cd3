// Package bazaar fetches snapshots from the Hypixel SkyBlock bazaar endpoint.
package bazaar

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ahmethakanbesel/bazaar-history/internal/apperror"
	"github.com/ahmethakanbesel/bazaar-history/internal/feed"
)

const (
	defaultEndpoint = "https://api.hypixel.net/skyblock/bazaar"
	defaultTimeout  = 30 * time.Second
	userAgent       = "bazaar-history/1.0"
)

// Client is a feed.Source backed by the bazaar HTTP API. It is safe for
// concurrent use.
type Client struct {
	http     *resty.Client
	endpoint string
	timeout  time.Duration
}

// New creates a Client with the given options applied.
func New(opts ...Option) *Client {
	c := &Client{
		http:     resty.New(),
		endpoint: defaultEndpoint,
		timeout:  defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	c.http.SetTimeout(c.timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	return c
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the default bazaar endpoint.
func WithEndpoint(ep string) Option {
	return func(c *Client) { c.endpoint = ep }
}

// WithTimeout bounds each upstream request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRestyClient swaps the underlying HTTP client.
func WithRestyClient(rc *resty.Client) Option {
	return func(c *Client) { c.http = rc }
}

// Name returns the source identifier.
func (c *Client) Name() string { return "bazaar" }

// Fetch performs one GET against the endpoint. Transport failures, non-2xx
// statuses and bodies that are not a JSON object wrap
// apperror.ErrUpstreamFetch. A body with success=false is returned as a
// snapshot, not an error.
func (c *Client) Fetch(ctx context.Context) (*feed.Snapshot, error) {
	res, err := c.http.R().SetContext(ctx).Get(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch bazaar: %w: %w", apperror.ErrUpstreamFetch, err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("fetch bazaar: %w: HTTP %d", apperror.ErrUpstreamFetch, res.StatusCode())
	}

	snap, err := feed.Parse(res.Body())
	if err != nil {
		return nil, fmt.Errorf("decode bazaar: %w: %w", apperror.ErrUpstreamFetch, err)
	}
	return snap, nil
}

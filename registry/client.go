package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client configuration defaults.
const (
	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultRequestTimeout      = 15 * time.Second
)

// Client fetches packages from an HTTP registry laid out as
//
//	{base}/packages/{name}/metadata.json
//	{base}/packages/{name}/{version}/MANIFEST.star
type Client struct {
	baseURL string
	client  *http.Client

	// metadata keyed by package name
	metadataCache sync.Map

	validateResponses bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithValidation enables or disables validation of metadata responses.
func WithValidation(enabled bool) ClientOption {
	return func(c *Client) {
		c.validateResponses = enabled
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets a custom HTTP request timeout.
// Zero or negative values fall back to the default timeout (15 seconds).
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout <= 0 {
			timeout = DefaultRequestTimeout
		}
		// Copy so a shared client passed via WithHTTPClient is not mutated.
		hc := *c.client
		hc.Timeout = timeout
		c.client = &hc
	}
}

// NewClient creates a client for the given registry URL.
//
// By default, metadata is validated and unknown fields are rejected.
// Use WithValidation(false) to accept anything that decodes.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout:   DefaultRequestTimeout,
			Transport: transport,
		},
		validateResponses: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the registry base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetMetadata fetches and parses a package's metadata.json.
// Results are cached by package name.
func (c *Client) GetMetadata(ctx context.Context, name string) (*Metadata, error) {
	if cached, ok := c.metadataCache.Load(name); ok {
		return cached.(*Metadata), nil
	}
	if err := checkName(name); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/packages/%s/metadata.json", c.baseURL, name)
	data, err := c.fetch(ctx, url, name, "")
	if err != nil {
		return nil, err
	}

	metadata, err := decodeMetadata(data, c.validateResponses)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata for %s: %w", name, err)
	}

	c.metadataCache.Store(name, metadata)
	return metadata, nil
}

// GetManifest fetches the raw MANIFEST.star for a package version.
func (c *Client) GetManifest(ctx context.Context, name, version string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/packages/%s/%s/MANIFEST.star", c.baseURL, name, version)
	return c.fetch(ctx, url, name, version)
}

// ClearCache removes all cached metadata.
func (c *Client) ClearCache() {
	c.metadataCache.Clear()
}

// fetch performs an HTTP GET and returns the response body.
func (c *Client) fetch(ctx context.Context, url, name, version string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &RegistryError{
			StatusCode: resp.StatusCode,
			Package:    name,
			Version:    version,
			URL:        url,
		}
	}

	return io.ReadAll(resp.Body)
}

var _ Source = (*Client)(nil)

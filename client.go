package emberdb

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
)

// HTTPClient is the interface for HTTP client.
type HTTPClient interface {
	// Get sends a GET request to the EmberDB server.
	Get(context.Context, *url.URL) (*http.Response, error)
	// Post sends a POST request to the EmberDB server.
	Post(context.Context, *url.URL, []byte) (*http.Response, error)
}

type httpClient struct {
	client   *http.Client
	user     string
	password string
	database string
}

// NewHTTPClient creates a new internal HTTP client carrying the session
// credentials on every request.
func NewHTTPClient(config *Config) HTTPClient {
	return &httpClient{
		client:   http.DefaultClient,
		user:     config.User,
		password: config.Password,
		database: config.Database,
	}
}

// Ensure httpClient implements HTTPClient.
var _ HTTPClient = (*httpClient)(nil)

func (c *httpClient) Get(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req)
	resp, err := c.client.Do(req)
	return resp, err
}

func (c *httpClient) Post(ctx context.Context, u *url.URL, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(req)
	resp, err := c.client.Do(req)
	return resp, err
}

func (c *httpClient) decorate(req *http.Request) {
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	if c.database != "" {
		req.Header.Set("X-EmberDB-Database", c.database)
	}
}

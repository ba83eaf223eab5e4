package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

var ErrUnexpectedStatus = errors.New("unexpected response status")

const (
	DefaultURL      = "https://coronadashboard.rijksoverheid.nl/json/NL.json"
	DefaultRetryMax = 4
	DefaultTimeout  = time.Minute
)

// Client downloads the dashboard feed
type Client struct {
	url  string
	http *retryablehttp.Client
}

// NewClient returns a client retrying failed downloads up to retryMax times. An empty url uses
// the national dashboard.
func NewClient(url string, retryMax int) *Client {
	if url == "" {
		url = DefaultURL
	}
	if retryMax < 0 {
		retryMax = DefaultRetryMax
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retryMax
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.HTTPClient.Timeout = DefaultTimeout
	retryClient.Logger = slog.Default()

	return &Client{url: url, http: retryClient}
}

func (c *Client) URL() string {
	return c.url
}

// Fetch downloads the raw feed
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to build request, %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch %s, %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("got %d from %s, %w", resp.StatusCode, c.url, ErrUnexpectedStatus)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read response body, %w", err)
	}
	slog.Debug("fetched feed", "url", c.url, "bytes", len(body))
	return body, nil
}

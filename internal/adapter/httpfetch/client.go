// Package httpfetch implements domain.Fetcher over HTTP.
package httpfetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
	"github.com/go-resty/resty/v2"
)

// maxErrorBody caps how much of a failed response is quoted in an error.
const maxErrorBody = 512

// Client fetches raw page bodies. It never retries: a failed fetch aborts
// the run.
type Client struct {
	http    *resty.Client
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates a fetch client with the given timeout and User-Agent.
func NewClient(timeout time.Duration, userAgent string, metrics *observability.Metrics, logger *slog.Logger) *Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", userAgent)
	client.SetRetryCount(0)
	return &Client{http: client, metrics: metrics, logger: logger}
}

// Fetch performs a GET and returns the body. Network failures and non-2xx
// responses wrap domain.ErrTransport.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get(url)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: GET %s: %w", domain.ErrTransport, url, err)
	}

	if !resp.IsSuccess() {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		body := resp.Body()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: GET %s: status %d: %s", domain.ErrTransport, url, resp.StatusCode(), body)
	}

	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	c.logger.Debug("fetched", "url", url, "status", resp.StatusCode(), "bytes", len(resp.Body()), "duration", resp.Time())
	return resp.Body(), nil
}

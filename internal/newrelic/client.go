// Package newrelic reads application summaries from the New Relic REST API v2.
package newrelic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxBodyBytes = 1 << 20

var ErrNoApplication = errors.New("response has no application record")

// StatusError is returned when the API answers with anything but 200.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

type Application struct {
	ID      int64               `json:"id"`
	Name    string              `json:"name"`
	Summary *ApplicationSummary `json:"application_summary"`
}

// ApplicationSummary fields are pointers because New Relic omits or nulls
// them, apdex in particular, for applications without traffic.
type ApplicationSummary struct {
	ResponseTime *float64 `json:"response_time"`
	Throughput   *float64 `json:"throughput"`
	ErrorRate    *float64 `json:"error_rate"`
	ApdexScore   *float64 `json:"apdex_score"`
}

type applicationResponse struct {
	Application *Application `json:"application"`
}

type Client struct {
	log     *slog.Logger
	baseURL string
	client  *http.Client
}

func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	return &Client{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Application fetches GET /applications/{appID}.json authenticated with apiKey.
func (c *Client) Application(ctx context.Context, apiKey, appID string) (*Application, error) {
	endpoint := fmt.Sprintf("%s/applications/%s.json", c.baseURL, url.PathEscape(appID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(body, 256)}
	}

	c.log.Debug("received application summary",
		slog.String("app_id", appID),
		slog.Int("bytes", len(body)),
	)

	var parsed applicationResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if parsed.Application == nil {
		return nil, ErrNoApplication
	}

	return parsed.Application, nil
}

func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func truncate(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}

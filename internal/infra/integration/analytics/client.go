package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/xavierca1/quote-payments/internal/infra/tracking"
	"github.com/xavierca1/quote-payments/internal/logger"
)

var ErrCollectorUnavailable = errors.New("analytics collector unavailable")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type captureRequest struct {
	APIKey     string         `json:"api_key"`
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Client posts events to a PostHog-compatible /capture/ endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

func NewClient(baseURL, apiKey string, httpClient HTTPClient) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(20), 20),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "analytics",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warnw("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (c *Client) Send(ctx context.Context, event tracking.Event) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.capture(ctx, event)
	})
	return err
}

func (c *Client) capture(ctx context.Context, event tracking.Event) error {
	props := make(map[string]any, len(event.Properties)+1)
	for k, v := range event.Properties {
		props[k] = v
	}
	props["$insert_id"] = event.ID

	body, err := json.Marshal(captureRequest{
		APIKey:     c.apiKey,
		Event:      event.Name,
		DistinctID: event.DistinctID,
		Properties: props,
		Timestamp:  event.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/capture/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCollectorUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrCollectorUnavailable, resp.StatusCode)
	}
	return nil
}

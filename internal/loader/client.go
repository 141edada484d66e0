// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package loader

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/domfi/internal/metrics"
	"github.com/tomtom215/domfi/internal/models"
)

const (
	// maxBodySize bounds a single upstream response.
	maxBodySize = 64 << 20

	// maxErrorBodySize bounds how much of a failed response is quoted.
	maxErrorBodySize = 4 << 10

	userAgent = "domfi-loader/1.0"
)

// ClientConfig tunes a rate-limited upstream client.
type ClientConfig struct {
	// Name labels the breaker metrics.
	Name string

	// Interval is the refill period of the request bucket.
	Interval time.Duration

	// Burst is the bucket capacity.
	Burst int

	// Timeout bounds one HTTP exchange.
	Timeout time.Duration

	// CacheBust appends _=<random> to every request.
	CacheBust bool
}

// Fetched is one upstream response with everything needed to record its
// provenance.
type Fetched struct {
	Body      []byte
	Mime      string
	FetchedAt time.Time
	Request   models.RequestMetadata
	Response  models.ResponseMetadata
}

// ProvenanceInput converts the response into a provenance record for agent.
func (f *Fetched) ProvenanceInput(agent string) (models.ProvenanceInput, error) {
	req, err := json.Marshal(f.Request)
	if err != nil {
		return models.ProvenanceInput{}, fmt.Errorf("failed to encode request metadata: %w", err)
	}
	res, err := json.Marshal(f.Response)
	if err != nil {
		return models.ProvenanceInput{}, fmt.Errorf("failed to encode response metadata: %w", err)
	}
	return models.ProvenanceInput{
		Agent:            agent,
		Timestamp:        f.FetchedAt,
		Data:             f.Body,
		Mime:             f.Mime,
		RequestMetadata:  req,
		ResponseMetadata: res,
	}, nil
}

// Client fetches upstream documents through a token bucket and a circuit
// breaker. Safe for concurrent use.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*Fetched]
	cfg     ClientConfig
	now     func() time.Time
}

// NewClient creates a client. Interval and Burst default to one request
// per second with no burst.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "upstream"
	}

	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.Interval), cfg.Burst),
		breaker: newBreaker(cfg.Name),
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Fetch waits for a token, then GETs rawURL. Non-2xx responses are errors
// and count against the breaker.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Fetched, error) {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	metrics.LoaderRateLimitWait.Observe(time.Since(waitStart).Seconds())

	f, err := c.breaker.Execute(func() (*Fetched, error) {
		return c.do(ctx, rawURL)
	})
	recordBreakerResult(c.cfg.Name, err)
	return f, err
}

func (c *Client) do(ctx context.Context, rawURL string) (*Fetched, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	if c.cfg.CacheBust {
		q := u.Query()
		q.Set("_", strconv.FormatUint(rand.Uint64(), 10))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	fetchedAt := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Fetched{
		Body:      body,
		Mime:      resp.Header.Get("Content-Type"),
		FetchedAt: fetchedAt,
		Request: models.RequestMetadata{
			Method:  req.Method,
			URL:     req.URL.String(),
			Headers: models.HeaderEntries(req.Header),
		},
		Response: models.ResponseMetadata{
			URL:     resp.Request.URL.String(),
			Status:  resp.StatusCode,
			Headers: models.HeaderEntries(resp.Header),
		},
	}, nil
}

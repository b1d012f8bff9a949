package infrastructure

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RESTClient wraps http.Client with base URL handling and outbound throttling so adapters stay thin.
type RESTClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// RESTOptions tunes the client; zero values fall back to defaults.
type RESTOptions struct {
	Timeout time.Duration
	// RatePerSecond caps outbound requests; <= 0 disables throttling.
	RatePerSecond float64
	Burst         int
	Client        *http.Client
}

func NewRESTClient(baseURL string, opts RESTOptions) *RESTClient {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = "http://localhost:8080"
	}
	trimmed = strings.TrimRight(trimmed, "/")
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeoutOrDefault(opts.Timeout)}
	} else if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}
	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}
	return &RESTClient{baseURL: trimmed, client: client, limiter: limiter}
}

// NewRequest builds a request against the base URL carrying a fresh X-Request-ID and, when
// token is non-empty, a bearer Authorization header.
func (c *RESTClient) NewRequest(ctx context.Context, method, endpoint, token string, body io.Reader) (*http.Request, error) {
	url := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if trimmed := strings.TrimSpace(token); trimmed != "" {
		req.Header.Set("Authorization", "Bearer "+trimmed)
	}
	return req, nil
}

// Do waits for the rate limiter, then sends the request.
func (c *RESTClient) Do(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	return c.client.Do(req)
}

func timeoutOrDefault(value time.Duration) time.Duration {
	if value <= 0 {
		return 10 * time.Second
	}
	return value
}

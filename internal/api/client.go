package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/hackmate/client/internal/infrastructure/config"
	"github.com/hackmate/client/internal/infrastructure/logging"
	"github.com/hackmate/client/internal/infrastructure/resilience"
	"github.com/hackmate/client/internal/shared/id"
)

var (
	// ErrUnauthorized indicates a missing or rejected credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the caller lacks access to the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the resource does not exist.
	ErrNotFound = errors.New("not found")
)

// StatusError reports a non-2xx response not covered by a sentinel.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client is the REST collaborator for everything outside the realtime layer:
// team CRUD, invitations, chat history, discovery.
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	log     *logging.Logger
}

// New creates a client with retrying transport, outbound rate limiting, and
// circuit breaker protection.
func New(cfg config.APIConfig, rl config.RateLimitConfig, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "hackmate-client/1.0").
		SetHeader("Accept", "application/json").
		// The retryable client rides as the transport so 5xx and transport
		// errors are retried with backoff before resty sees the response.
		SetTransport(&retryablehttp.RoundTripper{Client: retryClient})
	if cfg.Token != "" {
		rc.SetAuthToken(cfg.Token)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if rl.Enabled && rl.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), rl.Burst)
	}

	breaker := resilience.New("hackmate-api", resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		resty:   rc,
		limiter: limiter,
		breaker: breaker,
		log:     log.Named("api"),
	}
}

// SetToken replaces the bearer credential after re-authentication.
func (c *Client) SetToken(token string) {
	c.resty.SetAuthToken(token)
}

// BreakerState returns the circuit breaker state for health reporting.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// request prepares a rate-limited request bound to ctx, stamped with a
// request ID for log correlation against the server.
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if c.breaker.State() == resilience.StateOpen {
		return nil, resilience.ErrCircuitOpen
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return c.resty.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", id.NewRequestID().String()), nil
}

// execute runs the request through the circuit breaker and maps error
// statuses. Auth failures do not count against the breaker; they are the
// caller's problem, not the service's.
func (c *Client) execute(fn func() (*resty.Response, error)) (*resty.Response, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := fn()
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= 500 {
			return nil, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	resp := result.(*resty.Response)
	switch {
	case resp.StatusCode() == 401:
		return nil, ErrUnauthorized
	case resp.StatusCode() == 403:
		return nil, ErrForbidden
	case resp.StatusCode() == 404:
		return nil, ErrNotFound
	case resp.StatusCode() >= 400:
		return nil, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}
	return resp, nil
}

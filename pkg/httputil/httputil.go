package httputil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mlabs-haskell/cardano-dev-wallet/pkg/circuitbreaker"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"
)

var (
	// DefaultTimeout ...
	DefaultTimeout = 30 * time.Second

	errServer = errors.New("server error")
)

// ClientOpts is the struct given to the NewClient method.
type ClientOpts struct {
	Name string
	// Timeout of every single request, DefaultTimeout if zero.
	Timeout time.Duration
	// RateLimit is the max number of requests per second, unlimited if zero.
	RateLimit int
}

// Client wraps an http.Client with a rate limiter and a circuit breaker. It
// never retries.
type Client struct {
	client  *http.Client
	limiter ratelimit.Limiter
	cb      *gobreaker.CircuitBreaker
}

// NewClient ...
func NewClient(opts ClientOpts) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limiter := ratelimit.NewUnlimited()
	if opts.RateLimit > 0 {
		limiter = ratelimit.New(opts.RateLimit)
	}
	name := opts.Name
	if name == "" {
		name = "http"
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		cb:      circuitbreaker.NewCircuitBreaker(name),
	}
}

type response struct {
	status int
	body   string
}

// NewHTTPRequest performs the request and returns status code and body.
// Responses with status 5xx count as failures for the circuit breaker but
// are returned with no error like any other status.
func (c *Client) NewHTTPRequest(
	ctx context.Context,
	method, url, body string,
	header map[string]string,
) (int, string, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return 0, "", fmt.Errorf("verb not supported %s", method)
	}

	c.limiter.Take()

	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.do(ctx, method, url, body, header)
	})
	if err != nil && !errors.Is(err, errServer) {
		return 0, "", err
	}
	resp := res.(*response)
	return resp.status, resp.body, nil
}

func (c *Client) do(
	ctx context.Context,
	method, url, body string,
	header map[string]string,
) (*response, error) {
	var reqBody io.Reader
	if len(body) > 0 {
		reqBody = bytes.NewBufferString(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer rs.Body.Close()

	bodyBytes, err := io.ReadAll(rs.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response body: %w", err)
	}

	resp := &response{rs.StatusCode, string(bodyBytes)}
	if rs.StatusCode >= http.StatusInternalServerError {
		return resp, errServer
	}
	return resp, nil
}

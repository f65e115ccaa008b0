package pennylane

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/partnerhub/backend/internal/domain/billingsync"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response

	// maxErrorBodyLen caps how much of an error response body is carried
	// into error messages
	maxErrorBodyLen = 512
)

// Client is the HTTP client for the Pennylane external API. It handles
// bearer authentication, retry with exponential backoff, rate-limit
// handling and cursor pagination. A Client is scoped to one billing
// connection and is not shared across connections.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Pennylane API client for one connection's token
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.Named("pennylane"),
	}, nil
}

// Request performs one API call with the retry policy applied and returns
// the raw response body. Failures are classified into the billingsync
// error taxonomy:
//   - 401/403 fail immediately as *billingsync.AuthError, never retried
//   - 429 waits for the Retry-After hint when present, exponential backoff
//     otherwise; an exhausted budget becomes *billingsync.RateLimitError
//     carrying the last-seen hint
//   - 503 and network timeouts retry with exponential backoff; an exhausted
//     budget becomes *billingsync.APIError
//   - any other non-2xx status fails immediately as *billingsync.APIError
func (c *Client) Request(ctx context.Context, method, path string, query url.Values) (json.RawMessage, error) {
	var lastRetryAfter time.Duration

	for attempt := 0; ; attempt++ {
		status, header, body, err := c.do(ctx, method, path, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !isTimeout(err) {
				return nil, &billingsync.APIError{Message: "request failed: " + err.Error(), Cause: err}
			}
			if attempt >= c.config.MaxRetries {
				return nil, &billingsync.APIError{
					Message: fmt.Sprintf("request timeout after %d retries", c.config.MaxRetries),
					Cause:   err,
				}
			}
			wait := c.backoffDelay(attempt)
			c.logger.Warn("Request timeout, retrying",
				zap.String("path", path),
				zap.Duration("wait", wait),
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", c.config.MaxRetries))
			if err := sleepContext(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case status >= 200 && status < 300:
			return body, nil

		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return nil, &billingsync.AuthError{
				StatusCode: status,
				Message:    "authentication failed: " + truncateBody(body),
			}

		case status == http.StatusTooManyRequests:
			hint := retryAfterHint(header)
			if hint > 0 {
				lastRetryAfter = hint
			}
			if attempt >= c.config.MaxRetries {
				return nil, &billingsync.RateLimitError{
					RetryAfter: lastRetryAfter,
					Message:    "rate limit exceeded after max retries",
				}
			}
			wait := hint
			if wait == 0 {
				wait = c.backoffDelay(attempt)
			}
			c.logger.Warn("Rate limited, retrying",
				zap.String("path", path),
				zap.Duration("wait", wait),
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", c.config.MaxRetries))
			if err := sleepContext(ctx, wait); err != nil {
				return nil, err
			}
			continue

		case status == http.StatusServiceUnavailable:
			if attempt >= c.config.MaxRetries {
				return nil, &billingsync.APIError{
					StatusCode: status,
					Message:    fmt.Sprintf("service unavailable after %d retries", c.config.MaxRetries),
				}
			}
			wait := c.backoffDelay(attempt)
			c.logger.Warn("Service unavailable, retrying",
				zap.String("path", path),
				zap.Duration("wait", wait),
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", c.config.MaxRetries))
			if err := sleepContext(ctx, wait); err != nil {
				return nil, err
			}
			continue

		default:
			return nil, &billingsync.APIError{
				StatusCode: status,
				Message:    "API error: " + truncateBody(body),
			}
		}
	}
}

// TestConnection probes the account-identity endpoint and returns the
// company profile the token belongs to
func (c *Client) TestConnection(ctx context.Context) (*CompanyProfile, error) {
	c.logger.Debug("Testing API connection")

	body, err := c.Request(ctx, http.MethodGet, EndpointMe, nil)
	if err != nil {
		return nil, err
	}

	var profile CompanyProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, &billingsync.APIError{Message: "failed to decode account identity response", Cause: err}
	}
	return &profile, nil
}

// do performs a single HTTP round trip without retries
func (c *Client) do(ctx context.Context, method, path string, query url.Values) (int, http.Header, []byte, error) {
	endpoint := c.config.BaseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("pennylane: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("pennylane: failed to read response: %w", err)
	}

	return resp.StatusCode, resp.Header, body, nil
}

// backoffDelay computes the exponential backoff wait for a retry attempt
// (0-based): base, base*2, base*4, ...
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.config.RetryBaseDelay
	for i := 0; i < attempt; i++ {
		delay *= retryBackoffMultiplier
	}
	return delay
}

// retryAfterHint parses the Retry-After header as integer seconds.
// Returns zero when the header is absent or unparsable.
func retryAfterHint(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// sleepContext waits for the given duration or until the context is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isTimeout reports whether a transport error is a timeout, which is
// retried like a 503
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncateBody(body []byte) string {
	s := string(body)
	if len(s) > maxErrorBodyLen {
		return s[:maxErrorBodyLen] + "..."
	}
	return s
}

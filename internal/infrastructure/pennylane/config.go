package pennylane

import (
	"errors"
	"time"
)

// Config holds configuration for the Pennylane external API integration
type Config struct {
	// APIToken is the per-connection bearer token for API authorization
	APIToken string
	// BaseURL is the base URL for the Pennylane external API
	BaseURL string
	// Timeout is the per-request HTTP timeout
	Timeout time.Duration
	// PerPage is the page size used for paginated listings (max 100)
	PerPage int
	// MaxRetries is the number of retries after the initial attempt
	// for retryable failures (429, 503, timeouts)
	MaxRetries int
	// RetryBaseDelay is the first backoff delay; each subsequent
	// retry doubles it
	RetryBaseDelay time.Duration
}

const (
	// ProductionAPIURL is the production external API endpoint
	ProductionAPIURL = "https://app.pennylane.com/api/external/v2"

	// maxPerPage is the page size ceiling enforced by the provider
	maxPerPage = 100

	// retryBackoffMultiplier doubles the wait between successive retries
	retryBackoffMultiplier = 2
)

// Endpoints consumed by the sync engine
const (
	EndpointMe            = "/me"
	EndpointCustomers     = "/customers"
	EndpointInvoices      = "/customer_invoices"
	EndpointQuotes        = "/quotes"
	EndpointSubscriptions = "/billing_subscriptions"
)

// ErrConfigMissingAPIToken is returned when no bearer token is configured
var ErrConfigMissingAPIToken = errors.New("pennylane: API token is required")

// NewConfig creates a new Pennylane configuration with defaults
func NewConfig(apiToken string) *Config {
	return &Config{
		APIToken:       apiToken,
		BaseURL:        ProductionAPIURL,
		Timeout:        30 * time.Second,
		PerPage:        maxPerPage,
		MaxRetries:     3,
		RetryBaseDelay: time.Second,
	}
}

// Validate validates the Pennylane configuration
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return ErrConfigMissingAPIToken
	}
	if c.BaseURL == "" {
		c.BaseURL = ProductionAPIURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.PerPage <= 0 || c.PerPage > maxPerPage {
		c.PerPage = maxPerPage
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = time.Second
	}
	return nil
}

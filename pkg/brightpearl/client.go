package brightpearl

import (
	"context"
	"iter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Requester issues a single request against the account's base path and
// returns the decoded JSON object.
type Requester interface {
	Request(ctx context.Context, method, path string, params Params, body any) (Payload, error)
}

// SearchNormalizer reshapes a search payload into records.
type SearchNormalizer interface {
	Normalize(payload Payload) []Record
}

// SearchClient is the search and pagination surface shared by the
// resources that expose a search endpoint.
type SearchClient interface {
	Search(ctx context.Context, opts *SearchOptions) (Payload, error)
	List(ctx context.Context, opts *ListOptions) (Payload, error)
	ListRecords(ctx context.Context, opts *ListOptions) ([]Record, error)
	IteratePages(ctx context.Context, opts *ListOptions) iter.Seq2[Payload, error]
	IterateRecords(ctx context.Context, opts *ListOptions) iter.Seq2[Record, error]
	// CollectRecords drains IterateRecords, reading at most maxPages pages
	// when maxPages > 0.
	CollectRecords(ctx context.Context, opts *ListOptions, maxPages int) ([]Record, error)
}

// OrdersClient defines operations for the order-service resources.
type OrdersClient interface {
	SearchClient

	Get(ctx context.Context, orderID string) (Payload, error)
	GetBulk(ctx context.Context, orderIDs []string) (Payload, error)
	Create(ctx context.Context, order any) (Payload, error)
	Patch(ctx context.Context, orderID string, patch any) (Payload, error)
	Replace(ctx context.Context, orderID string, order any) (Payload, error)
	AddNote(ctx context.Context, orderID string, note *OrderNote) (Payload, error)
	ListNotes(ctx context.Context, orderID string) (Payload, error)
	UpdateStatus(ctx context.Context, orderID string, statusID int) (Payload, error)
}

// ProductsClient defines operations for the product-service resources.
type ProductsClient interface {
	SearchClient

	Get(ctx context.Context, productID string) (Payload, error)
	GetBulk(ctx context.Context, productIDs []string) (Payload, error)
	Create(ctx context.Context, product any) (Payload, error)
	Patch(ctx context.Context, productID string, changes any) (Payload, error)
	Replace(ctx context.Context, productID string, product any) (Payload, error)
	FindBySKU(ctx context.Context, sku string) (Record, error)
	GetAvailability(ctx context.Context, productIDs []string, warehouseID *int) (Payload, error)
}

// Client is the unified Brightpearl client.
type Client interface {
	Requester

	Orders() OrdersClient
	Products() ProductsClient

	// LastRateLimit returns the rate-limit headers seen on the most recent response.
	LastRateLimit() RateLimitInfo
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Default connection settings.
const (
	DefaultTimeout       = 30 * time.Second
	DefaultMaxRetries    = 3
	DefaultBackoffFactor = 0.5
	DefaultRetryWaitMax  = 120 * time.Second
)

// Config represents client configuration for building a brightpearl.Client.
//
// # Host
//
// Host must include a URI scheme ("https://use1.brightpearlconnect.com").
// A small set of bare datacentre hostnames is rewritten to its https form by
// NormalizeHost; anything else without a scheme is rejected with a
// *ConfigurationError. Requests are sent to {Host}/public-api/{AccountID}.
//
// # Retries
//
// MaxRetries is the number of retries allowed per call for connection
// failures and for 429/500/502/503/504 responses. Zero disables retries.
// Waits follow BackoffFactor*2^n (the first retry is immediate), capped at
// RetryWaitMax; a numeric Retry-After header takes precedence.
type Config struct {
	// Host: scheme-qualified API host.
	Host string
	// AccountID: the Brightpearl account code.
	AccountID string
	// AppRef: value of the brightpearl-app-ref header.
	AppRef string
	// AccountToken: value of the brightpearl-account-token header.
	AccountToken string

	// Timeout bounds each HTTP attempt. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxRetries: retry budget per call. Zero disables retries.
	MaxRetries int
	// BackoffFactor seeds the exponential backoff, in seconds.
	BackoffFactor float64
	// RetryWaitMax caps a single backoff wait. Zero means DefaultRetryWaitMax.
	RetryWaitMax time.Duration

	// RequestsPerSecond enables a client-side throttle when > 0.
	RequestsPerSecond float64
	// RateBurst is the throttle's burst size. Defaults to 1.
	RateBurst int

	// ProductColumns overrides the default projection for product listings.
	ProductColumns []string

	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Debug enables request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer.
	Logger Logger
	// MetricsRegisterer receives the transport's Prometheus collectors when set.
	MetricsRegisterer prometheus.Registerer
}

// NewConfig returns a Config with the default timeout and retry policy.
func NewConfig(host, accountID, appRef, accountToken string) *Config {
	return &Config{
		Host:          host,
		AccountID:     accountID,
		AppRef:        appRef,
		AccountToken:  accountToken,
		Timeout:       DefaultTimeout,
		MaxRetries:    DefaultMaxRetries,
		BackoffFactor: DefaultBackoffFactor,
		RetryWaitMax:  DefaultRetryWaitMax,
	}
}

// BaseURL returns {Host}/public-api/{AccountID} after host normalization.
func (c *Config) BaseURL() (string, error) {
	host, err := NormalizeHost(c.Host)
	if err != nil {
		return "", err
	}

	return host + "/public-api/" + c.AccountID, nil
}

// Validate checks the fields required to build a client.
func (c *Config) Validate() error {
	if c.AccountID == "" {
		return &ConfigurationError{Field: "AccountID", Err: ErrAccountIDRequired}
	}

	_, err := NormalizeHost(c.Host)

	return err
}

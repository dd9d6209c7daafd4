package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600

	// ConfigDirName is the directory under $HOME holding the CLI config.
	ConfigDirName = ".brightpearl"

	// ConfigFileName is the CLI config file inside ConfigDirName.
	ConfigFileName = "config.yml"
)

// HTTP headers sent or read by the transport.
const (
	// HeaderAppRef carries the application reference.
	HeaderAppRef = "brightpearl-app-ref"

	// HeaderAccountToken carries the account token.
	HeaderAccountToken = "brightpearl-account-token"

	// HeaderRequestsRemaining reports the calls left in the current throttle period.
	HeaderRequestsRemaining = "brightpearl-requests-remaining"

	// HeaderNextThrottlePeriod reports milliseconds until the throttle period resets.
	HeaderNextThrottlePeriod = "brightpearl-next-throttle-period"

	// HeaderRetryAfter is the standard Retry-After header.
	HeaderRetryAfter = "Retry-After"

	// ContentTypeJSON is the media type for request and response bodies.
	ContentTypeJSON = "application/json"

	// DefaultUserAgent is sent when no User-Agent is configured.
	DefaultUserAgent = "brightpearl-go/1.0"
)

// API paths, relative to {host}/public-api/{account}.
const (
	// APIPathPublic is the prefix joining host and account.
	APIPathPublic = "/public-api/"

	// APIPathOrders is the order resource.
	APIPathOrders = "order-service/order"

	// APIPathOrderSearch is the order search endpoint.
	APIPathOrderSearch = "order-service/order-search"

	// APIPathProducts is the product resource.
	APIPathProducts = "product-service/product"

	// APIPathProductSearch is the product search endpoint.
	APIPathProductSearch = "product-service/product-search"

	// APIPathProductAvailability is the availability endpoint.
	APIPathProductAvailability = "product-service/product-availability"
)

// Search query keys.
const (
	// QueryPageSize is the page size key.
	QueryPageSize = "pageSize"

	// QueryPage is the 1-based page key.
	QueryPage = "page"

	// QueryFirstResult is the absolute offset key.
	QueryFirstResult = "firstResult"

	// QueryColumns is the projection key.
	QueryColumns = "columns"

	// QueryOrderBy is the sort key used by order search.
	QueryOrderBy = "orderBy"

	// QuerySort is the sort key used by product search.
	QuerySort = "sort"
)

// Retry and throttling defaults.
const (
	// ExponentialBackoffBase is the base for exponential backoff.
	ExponentialBackoffBase = 2

	// DefaultRateBurst is the burst used when a throttle is enabled without one.
	DefaultRateBurst = 1

	// BrightpearlRequestsPerMinute is the documented per-account quota.
	BrightpearlRequestsPerMinute = 200
)

// Pagination and display limits.
const (
	// DefaultPageSize is the default number of rows per search page.
	DefaultPageSize = 100

	// MaxPageSize is the largest page the search endpoints accept.
	MaxPageSize = 500

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

// Timeouts used outside the transport.
const (
	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second

	// NATSFlushTimeout bounds the final flush of an export.
	NATSFlushTimeout = 5 * time.Second
)

// Output formats.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)

package brightpearl

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for every non-2xx response and for transport
// failures that outlive the retry policy.
type APIError struct {
	Message    string `json:"message"           yaml:"message"`
	Method     string `json:"method"            yaml:"method"`
	URL        string `json:"url"               yaml:"url"`
	StatusCode int    `json:"status,omitempty"  yaml:"status,omitempty"`
	Payload    any    `json:"payload,omitempty" yaml:"payload,omitempty"`
	Err        error  `json:"-"                 yaml:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil && e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

// Unwrap returns the underlying transport error, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// HasStatus reports whether a response was received at all.
func (e *APIError) HasStatus() bool {
	return e.StatusCode != 0
}

// NewAPIError builds an APIError for a failed response.
func NewAPIError(method, url string, status int, payload any) *APIError {
	return &APIError{
		Message:    fmt.Sprintf("Brightpearl API %s %s failed with %d", method, url, status),
		Method:     method,
		URL:        url,
		StatusCode: status,
		Payload:    payload,
	}
}

// NewTransportError builds an APIError for a request that never got a response.
func NewTransportError(method, url string, err error) *APIError {
	return &APIError{
		Message: fmt.Sprintf("Brightpearl API %s %s failed", method, url),
		Method:  method,
		URL:     url,
		Err:     err,
	}
}

// ConfigurationError reports an invalid client setup.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}

	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

// Unwrap returns the wrapped sentinel.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Static errors that can be wrapped with context.
var (
	ErrConfigRequired    = errors.New("config is required")
	ErrHostRequired      = errors.New("host is required")
	ErrMissingScheme     = errors.New("host must include scheme, e.g. https://use1.brightpearlconnect.com")
	ErrAccountIDRequired = errors.New("account ID is required")
	ErrIDRequired        = errors.New("resource ID is required")
	ErrSKURequired       = errors.New("SKU is required")
	ErrNoteRequired      = errors.New("note is required")
)

// StatusCode extracts the HTTP status from an *APIError, or 0.
func StatusCode(err error) int {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a 404 from the API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsRateLimited checks if the error is a 429 from the API.
func IsRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}

// IsServerError checks if the error is a 5xx from the API.
func IsServerError(err error) bool {
	return StatusCode(err) >= http.StatusInternalServerError
}

// IsConfigurationError checks if the error came from client configuration.
func IsConfigurationError(err error) bool {
	cfgErr := &ConfigurationError{}

	return errors.As(err, &cfgErr)
}

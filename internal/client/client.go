package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivetwenty-io/brightpearl/internal/http"
	"github.com/fivetwenty-io/brightpearl/internal/metrics"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// Client implements the brightpearl.Client interface.
type Client struct {
	httpClient *http.Client
	baseURL    string

	// Resource clients
	orders   *OrdersClient
	products *ProductsClient
}

func createHTTPClientOptions(config *brightpearl.Config) ([]http.Option, error) {
	httpOpts := []http.Option{
		http.WithCredentials(config.AppRef, config.AccountToken),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(&loggerAdapter{logger: config.Logger}))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.Timeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.Timeout))
	}

	retryWaitMax := brightpearl.DefaultRetryWaitMax
	if config.RetryWaitMax > 0 {
		retryWaitMax = config.RetryWaitMax
	}

	httpOpts = append(httpOpts, http.WithRetryPolicy(max(config.MaxRetries, 0), config.BackoffFactor, retryWaitMax))

	if config.RequestsPerSecond > 0 {
		httpOpts = append(httpOpts, http.WithRateLimit(config.RequestsPerSecond, config.RateBurst))
	}

	if config.MetricsRegisterer != nil {
		collector := metrics.NewCollector()

		err := collector.Register(config.MetricsRegisterer)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}

		httpOpts = append(httpOpts, http.WithMetrics(collector))
	}

	return httpOpts, nil
}

// New creates a new Brightpearl client. The host is normalized and
// validated before any request is made.
func New(_ context.Context, config *brightpearl.Config, extra ...http.Option) (*Client, error) {
	if config == nil {
		return nil, brightpearl.ErrConfigRequired
	}

	err := config.Validate()
	if err != nil {
		return nil, err
	}

	baseURL, err := config.BaseURL()
	if err != nil {
		return nil, err
	}

	httpOpts, err := createHTTPClientOptions(config)
	if err != nil {
		return nil, err
	}

	httpClient := http.NewClient(baseURL, append(httpOpts, extra...)...)

	client := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}

	client.initializeResourceClients(config)

	return client, nil
}

// BaseURL returns {host}/public-api/{account}.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request implements brightpearl.Requester.Request.
//
// A 2xx body that is empty or not JSON decodes to an empty Payload; a JSON
// value that is not an object is returned as {"response": value}.
func (c *Client) Request(ctx context.Context, method, path string, params brightpearl.Params, body any) (brightpearl.Payload, error) {
	resp, err := c.httpClient.Do(ctx, &http.Request{
		Method: method,
		Path:   path,
		Query:  params.ToValues(),
		Body:   body,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // APIError already names method and URL
	}

	return decodePayload(resp.Body), nil
}

// Orders implements brightpearl.Client.Orders.
func (c *Client) Orders() brightpearl.OrdersClient {
	return c.orders
}

// Products implements brightpearl.Client.Products.
func (c *Client) Products() brightpearl.ProductsClient {
	return c.products
}

// LastRateLimit implements brightpearl.Client.LastRateLimit.
func (c *Client) LastRateLimit() brightpearl.RateLimitInfo {
	return c.httpClient.LastRateLimit()
}

// initializeResourceClients initializes all resource-specific clients.
func (c *Client) initializeResourceClients(config *brightpearl.Config) {
	c.orders = NewOrdersClient(c)
	c.products = NewProductsClient(c, config.ProductColumns)
}

func decodePayload(body []byte) brightpearl.Payload {
	if len(bytes.TrimSpace(body)) == 0 {
		return brightpearl.Payload{}
	}

	var value any

	err := json.Unmarshal(body, &value)
	if err != nil {
		return brightpearl.Payload{}
	}

	switch v := value.(type) {
	case map[string]any:
		return brightpearl.Payload(v)
	case nil:
		return brightpearl.Payload{}
	default:
		return brightpearl.Payload{"response": v}
	}
}

// loggerAdapter adapts brightpearl.Logger to http.Logger.
type loggerAdapter struct {
	logger brightpearl.Logger
}

func (l *loggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, fields)
}

func (l *loggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, fields)
}

func (l *loggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, fields)
}

func (l *loggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, fields)
}

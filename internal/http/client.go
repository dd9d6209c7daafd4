// Package http implements the retrying transport shared by every
// Brightpearl resource client.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/brightpearl/internal/constants"
	"github.com/fivetwenty-io/brightpearl/internal/metrics"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// Logger interface for transport logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Request describes a single API call. Path is relative to the client's
// base URL; a leading slash is ignored.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client is a retrying HTTP client bound to one account's base URL.
// It is safe for concurrent use.
type Client struct {
	baseURL       string
	httpClient    *retryablehttp.Client
	baseClient    *http.Client
	headers       map[string]string
	userAgent     string
	logger        Logger
	debug         bool
	timeout       time.Duration
	maxRetries    int
	backoffFactor float64
	retryWaitMax  time.Duration
	limiter       *rate.Limiter
	sleep         Sleeper
	metrics       *metrics.Collector
	now           func() time.Time

	mu        sync.Mutex
	rateLimit brightpearl.RateLimitInfo
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithCredentials sets the app reference and account token headers.
func WithCredentials(appRef, accountToken string) Option {
	return func(c *Client) {
		c.headers[constants.HeaderAppRef] = appRef
		c.headers[constants.HeaderAccountToken] = accountToken
	}
}

// WithHeader adds a fixed header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithTimeout bounds each HTTP attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetryPolicy sets the retry budget and the backoff schedule.
func WithRetryPolicy(maxRetries int, backoffFactor float64, retryWaitMax time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoffFactor = backoffFactor
		c.retryWaitMax = retryWaitMax
	}
}

// WithRateLimit throttles outgoing calls to perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil

			return
		}

		if burst <= 0 {
			burst = constants.DefaultRateBurst
		}

		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithSleeper replaces the function used for backoff and Retry-After waits.
func WithSleeper(sleep Sleeper) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithMetrics records calls, retries and waits on collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithHTTPClient sets the underlying *http.Client used for each attempt.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.baseClient = httpClient
	}
}

// NewClient creates a new transport for baseURL ({host}/public-api/{account}).
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		headers:       make(map[string]string),
		userAgent:     constants.DefaultUserAgent,
		timeout:       brightpearl.DefaultTimeout,
		maxRetries:    brightpearl.DefaultMaxRetries,
		backoffFactor: brightpearl.DefaultBackoffFactor,
		retryWaitMax:  brightpearl.DefaultRetryWaitMax,
		sleep:         SleepContext,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(client)
	}

	retryClient := retryablehttp.NewClient()
	if client.baseClient != nil {
		httpClient := *client.baseClient
		retryClient.HTTPClient = &httpClient
	}

	if client.timeout > 0 {
		retryClient.HTTPClient.Timeout = client.timeout
	}

	retryClient.Logger = nil
	retryClient.RetryMax = client.maxRetries
	retryClient.CheckRetry = client.checkRetry
	// Waits happen inside checkRetry so they can honour the caller's context
	// and an injected Sleeper.
	retryClient.Backoff = func(_, _ time.Duration, _ int, _ *http.Response) time.Duration {
		return 0
	}

	client.httpClient = retryClient

	return client
}

// BaseURL returns the account base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LastRateLimit returns the throttling headers of the most recent response.
func (c *Client) LastRateLimit() brightpearl.RateLimitInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rateLimit
}

// Do performs a request. Non-2xx responses return both the response and a
// *brightpearl.APIError; transport failures return a nil response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.buildURL(req.Path, req.Query)

	var body []byte

	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}

		body = data
	}

	if c.limiter != nil {
		err := c.limiter.Wait(ctx)
		if err != nil {
			return nil, brightpearl.NewTransportError(req.Method, fullURL, fmt.Errorf("rate limiter wait: %w", err))
		}
	}

	ctx = context.WithValue(ctx, retryStateKey{}, &retryState{method: req.Method})

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, bodyReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.setHeaders(httpReq, req.Headers)

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	start := c.now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.ObserveRequest(req.Method, 0, c.now().Sub(start))

		if c.logger != nil {
			c.logger.Error("HTTP request failed", map[string]interface{}{
				"method": req.Method,
				"url":    fullURL,
				"error":  err.Error(),
			})
		}

		return nil, brightpearl.NewTransportError(req.Method, fullURL, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, brightpearl.NewTransportError(req.Method, fullURL, fmt.Errorf("reading response body: %w", err))
	}

	response := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	c.metrics.ObserveRequest(req.Method, resp.StatusCode, c.now().Sub(start))
	c.recordRateLimit(resp.Header)

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":   req.Method,
			"url":      fullURL,
			"status":   resp.StatusCode,
			"duration": c.now().Sub(start).String(),
		})
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		err = c.waitRetryAfter(ctx, req.Method, resp.Header)
		if err != nil {
			apiErr := brightpearl.NewAPIError(req.Method, fullURL, resp.StatusCode, ParseErrorPayload(data))
			apiErr.Err = err

			return response, apiErr
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return response, brightpearl.NewAPIError(req.Method, fullURL, resp.StatusCode, ParseErrorPayload(data))
	}

	return response, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) buildURL(path string, query url.Values) string {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	return fullURL
}

func (c *Client) setHeaders(req *retryablehttp.Request, extra map[string]string) {
	req.Header.Set("Content-Type", constants.ContentTypeJSON)
	req.Header.Set("Accept", constants.ContentTypeJSON)
	req.Header.Set("User-Agent", c.userAgent)

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	for key, value := range extra {
		req.Header.Set(key, value)
	}
}

// waitRetryAfter sleeps for a numeric Retry-After after a final 429.
// Malformed values are ignored.
func (c *Client) waitRetryAfter(ctx context.Context, method string, header http.Header) error {
	wait, ok := ParseRetryAfter(header.Get(constants.HeaderRetryAfter))
	if !ok {
		return nil
	}

	if c.logger != nil {
		c.logger.Warn("Rate limited, honouring Retry-After", map[string]interface{}{
			"method": method,
			"wait":   wait.String(),
		})
	}

	return c.wait(ctx, wait)
}

func (c *Client) wait(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return nil
	}

	c.metrics.ObserveSleep(wait)

	return c.sleep(ctx, wait)
}

func (c *Client) recordRateLimit(header http.Header) {
	info := brightpearl.RateLimitInfo{ObservedAt: c.now()}

	if remaining, err := strconv.Atoi(header.Get(constants.HeaderRequestsRemaining)); err == nil {
		info.Remaining = &remaining
	}

	if period, err := strconv.ParseInt(header.Get(constants.HeaderNextThrottlePeriod), 10, 64); err == nil {
		info.NextThrottlePeriod = time.Duration(period) * time.Millisecond
	}

	if wait, ok := ParseRetryAfter(header.Get(constants.HeaderRetryAfter)); ok {
		info.RetryAfter = wait
	}

	c.mu.Lock()
	c.rateLimit = info
	c.mu.Unlock()
}

// ParseRetryAfter parses a Retry-After value given in (possibly fractional)
// seconds. Empty, negative and non-numeric values are rejected.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, false
	}

	return time.Duration(seconds * float64(time.Second)), true
}

// ParseErrorPayload decodes an error body as JSON, falling back to
// {"text": body} when it is not JSON.
func ParseErrorPayload(body []byte) interface{} {
	var payload interface{}

	err := json.Unmarshal(body, &payload)
	if err != nil {
		return map[string]interface{}{"text": string(body)}
	}

	return payload
}

// SleepContext sleeps for d unless ctx is done first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("sleep interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func bodyReader(body []byte) interface{} {
	if body == nil {
		return nil
	}

	return bytes.NewReader(body)
}

type retryStateKey struct{}

// retryState tracks one logical call across its attempts.
type retryState struct {
	method  string
	retries int
}

var retryableMethods = map[string]bool{
	http.MethodGet:   true,
	http.MethodPost:  true,
	http.MethodPatch: true,
	http.MethodPut:   true,
}

var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// checkRetry decides whether an attempt is retried and performs the wait
// before the next one. Connection failures and retryable statuses share a
// single budget of maxRetries per call.
func (c *Client) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	state, ok := ctx.Value(retryStateKey{}).(*retryState)
	if !ok {
		return false, nil
	}

	reason, retryable := retryReason(ctx, resp, err)
	if !retryable || !retryableMethods[state.method] || state.retries >= c.maxRetries {
		return false, nil
	}

	wait := c.backoff(state.retries, resp)
	state.retries++

	c.metrics.ObserveRetry(state.method, reason)

	if c.logger != nil {
		c.logger.Warn("Retrying request", map[string]interface{}{
			"method":  state.method,
			"reason":  reason,
			"attempt": state.retries,
			"wait":    wait.String(),
		})
	}

	waitErr := c.wait(ctx, wait)
	if waitErr != nil {
		return false, waitErr
	}

	return true, nil
}

func retryReason(ctx context.Context, resp *http.Response, err error) (string, bool) {
	if err != nil {
		// DefaultRetryPolicy rejects redirect loops, bad schemes and TLS
		// verification failures.
		retry, _ := retryablehttp.DefaultRetryPolicy(ctx, nil, err)

		return "connection", retry
	}

	if resp != nil && retryableStatuses[resp.StatusCode] {
		return "status_" + strconv.Itoa(resp.StatusCode), true
	}

	return "", false
}

func (c *Client) backoff(retry int, resp *http.Response) time.Duration {
	if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
		if wait, ok := ParseRetryAfter(resp.Header.Get(constants.HeaderRetryAfter)); ok {
			return wait
		}
	}

	return ExponentialBackoff(c.backoffFactor, retry, c.retryWaitMax)
}

// ExponentialBackoff returns the wait before the given 0-based retry: the
// first retry is immediate, later ones wait factor*2^retry seconds, capped
// at ceiling when ceiling is positive.
func ExponentialBackoff(factor float64, retry int, ceiling time.Duration) time.Duration {
	if retry <= 0 || factor <= 0 {
		return 0
	}

	seconds := factor * math.Pow(constants.ExponentialBackoffBase, float64(retry))
	if ceiling > 0 && seconds >= ceiling.Seconds() {
		return ceiling
	}

	if seconds >= math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(seconds * float64(time.Second))
}

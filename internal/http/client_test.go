package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bphttp "github.com/fivetwenty-io/brightpearl/internal/http"
	"github.com/fivetwenty-io/brightpearl/internal/metrics"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

// mockSleeper records requested waits without blocking.
type mockSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *mockSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.waits = append(s.waits, d)

	return nil
}

func (s *mockSleeper) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]time.Duration(nil), s.waits...)
}

func newTestClient(serverURL string, opts ...bphttp.Option) *bphttp.Client {
	opts = append([]bphttp.Option{bphttp.WithCredentials("app-ref", "token-123")}, opts...)

	return bphttp.NewClient(serverURL+"/public-api/acme", opts...)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/public-api/acme/order-service/order/1", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "app-ref", request.Header.Get("brightpearl-app-ref"))
			assert.Equal(t, "token-123", request.Header.Get("brightpearl-account-token"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
			assert.Equal(t, "brightpearl-go/1.0", request.Header.Get("User-Agent"))

			_ = json.NewEncoder(writer).Encode(map[string]interface{}{"response": []int{1}})
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		resp, err := client.Do(context.Background(), &bphttp.Request{
			Method: "GET",
			Path:   "/order-service/order/1",
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.JSONEq(t, `{"response":[1]}`, string(resp.Body))
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/public-api/acme/order-service/order-search", request.URL.Path)
			assert.Equal(t, "page=2&pageSize=50", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		resp, err := client.Do(context.Background(), &bphttp.Request{
			Method: "GET",
			Path:   "order-service/order-search",
			Query:  url.Values{"page": []string{"2"}, "pageSize": []string{"50"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)

			var body map[string]interface{}

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "Leave at door", body["text"])
			assert.Equal(t, true, body["isPublic"])

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		resp, err := client.Do(context.Background(), &bphttp.Request{
			Method: "POST",
			Path:   "/order-service/order/7/note",
			Body:   brightpearl.NewOrderNote("Leave at door"),
		})
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)
	})

	t.Run("error response with JSON payload", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(writer).Encode(map[string]interface{}{
				"errors": []map[string]string{{"code": "ORDC-001", "message": "Order not found"}},
			})
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		resp, err := client.Get(context.Background(), "/order-service/order/999", nil)
		require.Error(t, err)
		assert.Equal(t, 404, resp.StatusCode)
		assert.True(t, brightpearl.IsNotFound(err))

		apiErr := &brightpearl.APIError{}
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "GET", apiErr.Method)
		assert.Equal(t, server.URL+"/public-api/acme/order-service/order/999", apiErr.URL)

		payload, ok := apiErr.Payload.(map[string]interface{})
		require.True(t, ok)
		assert.Contains(t, payload, "errors")
	})

	t.Run("error response with text payload", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusBadRequest)
			_, _ = writer.Write([]byte("bad things happened"))
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Get(context.Background(), "/order-service/order/x", nil)
		require.Error(t, err)

		apiErr := &brightpearl.APIError{}
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 400, apiErr.StatusCode)
		assert.Equal(t, map[string]interface{}{"text": "bad things happened"}, apiErr.Payload)
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "fixed", request.Header.Get("X-Fixed"))
			assert.Equal(t, "my-agent", request.Header.Get("User-Agent"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newTestClient(server.URL, bphttp.WithHeader("X-Fixed", "fixed"), bphttp.WithUserAgent("my-agent"))

		resp, err := client.Do(context.Background(), &bphttp.Request{
			Method:  "GET",
			Path:    "/product-service/product/1",
			Headers: map[string]string{"X-Custom-Header": "custom-value"},
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := newTestClient(server.URL, bphttp.WithLogger(logger), bphttp.WithDebug(true))

		_, err := client.Get(context.Background(), "/order-service/order/1", nil)
		require.NoError(t, err)

		require.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])

		for _, entry := range logger.logs {
			fields, _ := entry["fields"].(map[string]interface{})
			for _, value := range fields {
				assert.NotEqual(t, "token-123", value)
			}
		}
	})

	t.Run("captures rate limit headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("brightpearl-requests-remaining", "150")
			writer.Header().Set("brightpearl-next-throttle-period", "2500")
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		assert.Nil(t, client.LastRateLimit().Remaining)

		_, err := client.Get(context.Background(), "/order-service/order/1", nil)
		require.NoError(t, err)

		info := client.LastRateLimit()
		require.NotNil(t, info.Remaining)
		assert.Equal(t, 150, *info.Remaining)
		assert.Equal(t, 2500*time.Millisecond, info.NextThrottlePeriod)
		assert.False(t, info.ObservedAt.IsZero())
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		fn     func(*bphttp.Client, context.Context) (*bphttp.Response, error)
	}{
		{
			name:   "GET",
			method: "GET",
			fn: func(c *bphttp.Client, ctx context.Context) (*bphttp.Response, error) {
				return c.Get(ctx, "/test", nil)
			},
		},
		{
			name:   "POST",
			method: "POST",
			fn: func(c *bphttp.Client, ctx context.Context) (*bphttp.Response, error) {
				return c.Post(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PUT",
			method: "PUT",
			fn: func(c *bphttp.Client, ctx context.Context) (*bphttp.Response, error) {
				return c.Put(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PATCH",
			method: "PATCH",
			fn: func(c *bphttp.Client, ctx context.Context) (*bphttp.Response, error) {
				return c.Patch(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "DELETE",
			method: "DELETE",
			fn: func(c *bphttp.Client, ctx context.Context) (*bphttp.Response, error) {
				return c.Delete(ctx, "/test")
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/public-api/acme/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			resp, err := testCase.fn(client, context.Background())
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()

	t.Run("exhausts budget on persistent 503", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		sleeper := &mockSleeper{}
		client := newTestClient(server.URL,
			bphttp.WithRetryPolicy(3, 0.5, 2*time.Minute),
			bphttp.WithSleeper(sleeper.Sleep),
		)

		resp, err := client.Get(context.Background(), "/order-service/order/1", nil)
		require.Error(t, err)
		assert.Equal(t, 503, resp.StatusCode)
		assert.Equal(t, 503, brightpearl.StatusCode(err))
		assert.True(t, brightpearl.IsServerError(err))
		assert.Equal(t, int32(4), attempts.Load())
		// First retry is immediate.
		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.Waits())
	})

	t.Run("retries on 5xx then succeeds", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)

				return
			}

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		sleeper := &mockSleeper{}
		client := newTestClient(server.URL, bphttp.WithRetryPolicy(3, 0.5, time.Minute), bphttp.WithSleeper(sleeper.Sleep))

		resp, err := client.Post(context.Background(), "/order-service/order", map[string]string{"ref": "A1"})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("honours Retry-After on 429", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) == 1 {
				writer.Header().Set("Retry-After", "2")
				writer.WriteHeader(http.StatusTooManyRequests)

				return
			}

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		sleeper := &mockSleeper{}
		client := newTestClient(server.URL, bphttp.WithSleeper(sleeper.Sleep))

		resp, err := client.Get(context.Background(), "/order-service/order/1", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(2), attempts.Load())

		var total time.Duration
		for _, wait := range sleeper.Waits() {
			total += wait
		}

		assert.GreaterOrEqual(t, total, 2*time.Second)
	})

	t.Run("sleeps on final 429 before returning", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Retry-After", "1.5")
			writer.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		sleeper := &mockSleeper{}
		client := newTestClient(server.URL, bphttp.WithRetryPolicy(0, 0.5, time.Minute), bphttp.WithSleeper(sleeper.Sleep))

		_, err := client.Get(context.Background(), "/order-service/order/1", nil)
		require.Error(t, err)
		assert.True(t, brightpearl.IsRateLimited(err))
		assert.Equal(t, []time.Duration{1500 * time.Millisecond}, sleeper.Waits())
	})

	t.Run("ignores malformed Retry-After", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Retry-After", "soon")
			writer.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		sleeper := &mockSleeper{}
		client := newTestClient(server.URL, bphttp.WithRetryPolicy(0, 0.5, time.Minute), bphttp.WithSleeper(sleeper.Sleep))

		_, err := client.Get(context.Background(), "/order-service/order/1", nil)
		require.Error(t, err)
		assert.True(t, brightpearl.IsRateLimited(err))
		assert.Empty(t, sleeper.Waits())
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := newTestClient(server.URL, bphttp.WithSleeper((&mockSleeper{}).Sleep))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("does not retry DELETE", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := newTestClient(server.URL, bphttp.WithSleeper((&mockSleeper{}).Sleep))

		_, err := client.Delete(context.Background(), "/test")
		require.Error(t, err)
		assert.Equal(t, 503, brightpearl.StatusCode(err))
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("cancelled wait aborts the call", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		cancelled := func(_ context.Context, _ time.Duration) error {
			return context.Canceled
		}
		client := newTestClient(server.URL, bphttp.WithRetryPolicy(3, 0.5, time.Minute), bphttp.WithSleeper(cancelled))

		_, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, brightpearl.StatusCode(err))
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		client := newTestClient(server.URL)

		resp, err := client.Get(ctx, "/test", nil)
		require.Error(t, err)
		assert.Nil(t, resp)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("transport failure after budget", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {}))
		serverURL := server.URL
		server.Close()

		sleeper := &mockSleeper{}
		client := newTestClient(serverURL, bphttp.WithRetryPolicy(2, 0.5, time.Minute), bphttp.WithSleeper(sleeper.Sleep))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Nil(t, resp)

		apiErr := &brightpearl.APIError{}
		require.True(t, errors.As(err, &apiErr))
		assert.False(t, apiErr.HasStatus())
		require.Error(t, apiErr.Unwrap())
		assert.Equal(t, []time.Duration{time.Second}, sleeper.Waits())
	})
}

func TestClient_Metrics(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if attempts.Add(1) == 1 {
			writer.WriteHeader(http.StatusGatewayTimeout)

			return
		}

		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reg := prometheus.NewPedanticRegistry()
	collector := metrics.NewCollector()
	require.NoError(t, collector.Register(reg))

	client := newTestClient(server.URL, bphttp.WithMetrics(collector), bphttp.WithSleeper((&mockSleeper{}).Sleep))

	_, err := client.Get(context.Background(), "/test", nil)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "brightpearl_client_retries_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(reg, "brightpearl_client_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClient_RateLimiter(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		attempts.Add(1)
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(server.URL, bphttp.WithRateLimit(1000, 5))

	for range 5 {
		_, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(5), attempts.Load())
}

func TestExponentialBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		factor  float64
		retry   int
		ceiling time.Duration
		want    time.Duration
	}{
		{name: "first retry immediate", factor: 0.5, retry: 0, ceiling: time.Minute, want: 0},
		{name: "second retry", factor: 0.5, retry: 1, ceiling: time.Minute, want: time.Second},
		{name: "third retry", factor: 0.5, retry: 2, ceiling: time.Minute, want: 2 * time.Second},
		{name: "fourth retry", factor: 0.5, retry: 3, ceiling: time.Minute, want: 4 * time.Second},
		{name: "capped", factor: 0.5, retry: 20, ceiling: 2 * time.Minute, want: 2 * time.Minute},
		{name: "zero factor", factor: 0, retry: 3, ceiling: time.Minute, want: 0},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, bphttp.ExponentialBackoff(testCase.factor, testCase.retry, testCase.ceiling))
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value  string
		want   time.Duration
		wantOK bool
	}{
		{value: "2", want: 2 * time.Second, wantOK: true},
		{value: "0.25", want: 250 * time.Millisecond, wantOK: true},
		{value: " 3 ", want: 3 * time.Second, wantOK: true},
		{value: "0", want: 0, wantOK: true},
		{value: "", wantOK: false},
		{value: "-1", wantOK: false},
		{value: "soon", wantOK: false},
		{value: "Wed, 21 Oct 2015 07:28:00 GMT", wantOK: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.value, func(t *testing.T) {
			t.Parallel()

			got, ok := bphttp.ParseRetryAfter(testCase.value)
			assert.Equal(t, testCase.wantOK, ok)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	require.NoError(t, bphttp.SleepContext(context.Background(), 0))
	require.NoError(t, bphttp.SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bphttp.SleepContext(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

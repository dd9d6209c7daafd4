// Package metrics provides Prometheus collectors for the Brightpearl transport.
package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "brightpearl_client"

// Collector groups the transport's Prometheus collectors. A nil *Collector
// is valid and records nothing.
type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
	sleeps   prometheus.Histogram
}

// NewCollector creates unregistered collectors.
func NewCollector() *Collector {
	return &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Brightpearl API calls by method and final status code (0 for transport failures).",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Wall time of Brightpearl API calls including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retries issued by the transport by method and reason.",
		}, []string{"method", "reason"}),
		sleeps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "throttle_sleep_seconds",
			Help:      "Time spent waiting on Retry-After or backoff.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
	}
}

// Register registers all collectors. Collectors already present in reg (for
// example from another client sharing the registry) are adopted instead.
func (c *Collector) Register(reg prometheus.Registerer) error {
	if c == nil || reg == nil {
		return nil
	}

	var err error

	c.requests, err = register(reg, c.requests)
	if err != nil {
		return err
	}

	c.duration, err = register(reg, c.duration)
	if err != nil {
		return err
	}

	c.retries, err = register(reg, c.retries)
	if err != nil {
		return err
	}

	c.sleeps, err = register(reg, c.sleeps)

	return err
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
	}

	return collector, fmt.Errorf("registering brightpearl metrics: %w", err)
}

// ObserveRequest records a completed call.
func (c *Collector) ObserveRequest(method string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}

	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveRetry records a retry decision.
func (c *Collector) ObserveRetry(method, reason string) {
	if c == nil {
		return
	}

	c.retries.WithLabelValues(method, reason).Inc()
}

// ObserveSleep records time spent waiting before a retry or after a 429.
func (c *Collector) ObserveSleep(wait time.Duration) {
	if c == nil {
		return
	}

	c.sleeps.Observe(wait.Seconds())
}

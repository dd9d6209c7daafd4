// Package bpclient provides the main entry point for creating Brightpearl API clients.
package bpclient

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/fivetwenty-io/brightpearl/internal/client"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// Environment variables read by NewFromEnv.
const (
	EnvHost         = "BRIGHTPEARL_HOST"
	EnvAccountID    = "BRIGHTPEARL_ACCOUNT_ID"
	EnvAppRef       = "BRIGHTPEARL_APP_REF"
	EnvAccountToken = "BRIGHTPEARL_ACCOUNT_TOKEN"
)

// New creates a new Brightpearl API client. The config is copied, including
// ProductColumns; its host is normalized on the copy.
func New(ctx context.Context, config *brightpearl.Config) (brightpearl.Client, error) {
	if config == nil {
		return nil, brightpearl.ErrConfigRequired
	}

	normalized := *config
	normalized.ProductColumns = slices.Clone(config.ProductColumns)

	host, err := brightpearl.NormalizeHost(normalized.Host)
	if err != nil {
		return nil, err
	}

	normalized.Host = host

	bp, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return bp, nil
}

// NewWithCredentials creates a client with the default timeout and retry policy.
func NewWithCredentials(ctx context.Context, host, accountID, appRef, accountToken string) (brightpearl.Client, error) {
	return New(ctx, brightpearl.NewConfig(host, accountID, appRef, accountToken))
}

// NewFromEnv creates a client from the BRIGHTPEARL_* environment variables.
func NewFromEnv(ctx context.Context) (brightpearl.Client, error) {
	return NewWithCredentials(ctx,
		os.Getenv(EnvHost),
		os.Getenv(EnvAccountID),
		os.Getenv(EnvAppRef),
		os.Getenv(EnvAccountToken),
	)
}

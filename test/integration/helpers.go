//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/fivetwenty-io/brightpearl/pkg/bpclient"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	Host         string
	AccountID    string
	AppRef       string
	AccountToken string
	SKU          string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Host:         os.Getenv(bpclient.EnvHost),
		AccountID:    os.Getenv(bpclient.EnvAccountID),
		AppRef:       os.Getenv(bpclient.EnvAppRef),
		AccountToken: os.Getenv(bpclient.EnvAccountToken),
		SKU:          os.Getenv("BRIGHTPEARL_TEST_SKU"),
		Verbose:      os.Getenv("BRIGHTPEARL_VERBOSE") == "true",
	}
}

// Complete reports whether every credential needed to reach an account is set.
func (c *TestConfig) Complete() bool {
	return c.Host != "" && c.AccountID != "" && c.AppRef != "" && c.AccountToken != ""
}

// NewClient builds a client for the configured account, skipping the test
// when credentials are missing.
func (c *TestConfig) NewClient(t *testing.T, logger brightpearl.Logger) brightpearl.Client {
	t.Helper()

	if !c.Complete() {
		t.Skip("BRIGHTPEARL_HOST, BRIGHTPEARL_ACCOUNT_ID, BRIGHTPEARL_APP_REF and BRIGHTPEARL_ACCOUNT_TOKEN must be set")
	}

	config := brightpearl.NewConfig(c.Host, c.AccountID, c.AppRef, c.AccountToken)
	config.RequestsPerSecond = 2
	config.Debug = c.Verbose
	config.Logger = logger

	client, err := bpclient.New(context.Background(), config)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	return client
}

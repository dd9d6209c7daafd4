package brightpearl_test

import (
	"errors"
	"testing"

	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		host     string
		expected string
		wantErr  error
	}{
		{name: "https host", host: "https://use1.brightpearlconnect.com", expected: "https://use1.brightpearlconnect.com"},
		{name: "trailing slash", host: "https://example.test/", expected: "https://example.test"},
		{name: "http is kept", host: "http://127.0.0.1:8080", expected: "http://127.0.0.1:8080"},
		{name: "bare alias", host: "use1.brightpearlconnect.com", expected: "https://use1.brightpearlconnect.com"},
		{name: "bare alias with slash", host: " ws-use.brightpearlconnect.com/ ", expected: "https://ws-use.brightpearlconnect.com"},
		{name: "http alias upgraded", host: "http://use1.brightpearlconnect.com", expected: "https://use1.brightpearlconnect.com"},
		{name: "bare unknown host", host: "example.test", wantErr: brightpearl.ErrMissingScheme},
		{name: "empty", host: "  ", wantErr: brightpearl.ErrHostRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := brightpearl.NormalizeHost(tt.host)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.True(t, brightpearl.IsConfigurationError(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestConfig_BaseURL(t *testing.T) {
	t.Parallel()

	cfg := brightpearl.NewConfig("https://use1.brightpearlconnect.com/", "acme", "app", "token")

	baseURL, err := cfg.BaseURL()
	require.NoError(t, err)
	assert.Equal(t, "https://use1.brightpearlconnect.com/public-api/acme", baseURL)
	assert.Equal(t, brightpearl.DefaultMaxRetries, cfg.MaxRetries)
	assert.InDelta(t, brightpearl.DefaultBackoffFactor, cfg.BackoffFactor, 0)
	assert.Equal(t, brightpearl.DefaultTimeout, cfg.Timeout)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	err := brightpearl.NewConfig("https://example.test", "", "app", "token").Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, brightpearl.ErrAccountIDRequired)

	err = brightpearl.NewConfig("example.test", "acme", "app", "token").Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, brightpearl.ErrMissingScheme)

	require.NoError(t, brightpearl.NewConfig("https://example.test", "acme", "app", "token").Validate())
}

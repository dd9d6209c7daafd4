package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/brightpearl/internal/constants"
	"github.com/fivetwenty-io/brightpearl/pkg/bpclient"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
	"github.com/fivetwenty-io/brightpearl/pkg/logger"
)

// Config represents the CLI configuration file.
type Config struct {
	Host              string   `json:"host,omitempty"                yaml:"host,omitempty"`
	AccountID         string   `json:"account_id,omitempty"          yaml:"account_id,omitempty"`
	AppRef            string   `json:"app_ref,omitempty"             yaml:"app_ref,omitempty"`
	AccountToken      string   `json:"account_token,omitempty"       yaml:"account_token,omitempty"`
	Output            string   `json:"output,omitempty"              yaml:"output,omitempty"`
	LogFormat         string   `json:"log_format,omitempty"          yaml:"log_format,omitempty"`
	MaxRetries        *int     `json:"max_retries,omitempty"         yaml:"max_retries,omitempty"`
	BackoffFactor     float64  `json:"backoff_factor,omitempty"      yaml:"backoff_factor,omitempty"`
	Timeout           string   `json:"timeout,omitempty"             yaml:"timeout,omitempty"`
	RequestsPerSecond float64  `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`
	ProductColumns    []string `json:"product_columns,omitempty"     yaml:"product_columns,omitempty"`
}

// configKeys lists the keys accepted by "config set" and "config unset".
var configKeys = []string{
	"host", "account_id", "app_ref", "output", "log_format",
	"max_retries", "backoff_factor", "timeout", "requests_per_second", "product_columns",
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage Brightpearl CLI configuration including host, account and credentials",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())
	cmd.AddCommand(newConfigSetCredentialsCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective CLI configuration with the account token masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config := loadConfig()
			if config.AccountToken != "" {
				config.AccountToken = constants.MaskedSecret
			}

			return writeOutput(cmd.OutOrStdout(), config, func(w io.Writer) error {
				return displayConfigTable(w, config)
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: "Set a configuration value. Valid keys: " + strings.Join(configKeys, ", ") + ".\n" +
			"Use 'config set-credentials' for the app reference and account token.",
		Args: cobra.ExactArgs(2), //nolint:mnd // KEY and VALUE
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			config, err := loadFileConfig()
			if err != nil {
				return err
			}

			err = setConfigValue(config, key, value)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Set", key, value)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Remove a configuration value from the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			config, err := loadFileConfig()
			if err != nil {
				return err
			}

			err = unsetConfigValue(config, key)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Unset", key, "")
		},
	}
}

func newConfigSetCredentialsCommand() *cobra.Command {
	var (
		appRef string
		token  string
	)

	cmd := &cobra.Command{
		Use:   "set-credentials",
		Short: "Store the app reference and account token",
		Long: `Store the brightpearl-app-ref and brightpearl-account-token values.

When --token is omitted the token is read from the terminal without echo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := loadFileConfig()
			if err != nil {
				return err
			}

			if appRef != "" {
				config.AppRef = appRef
			}

			if config.AppRef == "" {
				return fmt.Errorf("%w: --app-ref is required", constants.ErrNoCredentials)
			}

			if token == "" {
				prompted, promptErr := promptToken(cmd.ErrOrStderr())
				if promptErr != nil {
					return promptErr
				}

				token = prompted
			}

			config.AccountToken = token

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Set", "credentials", constants.MaskedSecret)
		},
	}

	cmd.Flags().StringVar(&appRef, "app-ref", "", "application reference (brightpearl-app-ref)")
	cmd.Flags().StringVar(&token, "token", "", "account token (prompted for when omitted)")

	return cmd
}

func promptToken(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int

	if !term.IsTerminal(fd) {
		return "", constants.ErrTokenNotInteractive
	}

	_, _ = fmt.Fprint(prompt, "Account token: ")

	secret, err := term.ReadPassword(fd)

	_, _ = fmt.Fprintln(prompt)

	if err != nil {
		return "", fmt.Errorf("failed to read account token: %w", err)
	}

	token := strings.TrimSpace(string(secret))
	if token == "" {
		return "", constants.ErrNoCredentials
	}

	return token, nil
}

// loadConfig returns the effective configuration: flags, then environment,
// then the config file.
func loadConfig() *Config {
	config := &Config{
		Host:              viper.GetString("host"),
		AccountID:         viper.GetString("account_id"),
		AppRef:            viper.GetString("app_ref"),
		AccountToken:      viper.GetString("account_token"),
		Output:            viper.GetString("output"),
		LogFormat:         viper.GetString("log_format"),
		BackoffFactor:     viper.GetFloat64("backoff_factor"),
		Timeout:           viper.GetString("timeout"),
		RequestsPerSecond: viper.GetFloat64("requests_per_second"),
		ProductColumns:    viper.GetStringSlice("product_columns"),
	}

	if viper.IsSet("max_retries") {
		retries := viper.GetInt("max_retries")
		config.MaxRetries = &retries
	}

	return config
}

// loadFileConfig returns only what the config file holds, so values from
// flags or the environment are never written back. A missing file is empty.
func loadFileConfig() (*Config, error) {
	configFile, err := configFilePath()
	if err != nil {
		return nil, err
	}

	config := &Config{}

	data, err := os.ReadFile(configFile) //nolint:gosec // path comes from the user's own config location
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	return config, nil
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.ConfigFileName), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "host":
		host, err := brightpearl.NormalizeHost(value)
		if err != nil {
			return err
		}

		config.Host = host
	case "account_id", "account":
		config.AccountID = value
	case "app_ref":
		config.AppRef = value
	case "output":
		switch value {
		case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
			config.Output = value
		default:
			return fmt.Errorf("%w: %q", constants.ErrInvalidOutputFormat, value)
		}
	case "log_format":
		config.LogFormat = value
	case "max_retries":
		retries, err := strconv.Atoi(value)
		if err != nil || retries < 0 {
			return fmt.Errorf("invalid max_retries %q: must be a non-negative integer", value)
		}

		config.MaxRetries = &retries
	case "backoff_factor":
		factor, err := strconv.ParseFloat(value, 64)
		if err != nil || factor < 0 {
			return fmt.Errorf("invalid backoff_factor %q: must be a non-negative number", value)
		}

		config.BackoffFactor = factor
	case "timeout":
		_, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", value, err)
		}

		config.Timeout = value
	case "requests_per_second":
		rate, err := strconv.ParseFloat(value, 64)
		if err != nil || rate < 0 {
			return fmt.Errorf("invalid requests_per_second %q: must be a non-negative number", value)
		}

		config.RequestsPerSecond = rate
	case "product_columns":
		columns, _ := splitIDs([]string{value})
		config.ProductColumns = columns
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func unsetConfigValue(config *Config, key string) error {
	switch key {
	case "host":
		config.Host = ""
	case "account_id", "account":
		config.AccountID = ""
	case "app_ref":
		config.AppRef = ""
	case "account_token", "credentials":
		config.AppRef = ""
		config.AccountToken = ""
	case "output":
		config.Output = ""
	case "log_format":
		config.LogFormat = ""
	case "max_retries":
		config.MaxRetries = nil
	case "backoff_factor":
		config.BackoffFactor = 0
	case "timeout":
		config.Timeout = ""
	case "requests_per_second":
		config.RequestsPerSecond = 0
	case "product_columns":
		config.ProductColumns = nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

// clientConfig converts the CLI configuration into a client Config.
func clientConfig(config *Config) (*brightpearl.Config, error) {
	if config.Host == "" {
		return nil, constants.ErrNoHostConfigured
	}

	if config.AccountID == "" {
		return nil, constants.ErrNoAccountConfigured
	}

	if config.AppRef == "" || config.AccountToken == "" {
		return nil, constants.ErrNoCredentials
	}

	bpConfig := brightpearl.NewConfig(config.Host, config.AccountID, config.AppRef, config.AccountToken)
	bpConfig.UserAgent = "brightpearl-cli"
	bpConfig.ProductColumns = config.ProductColumns
	bpConfig.RequestsPerSecond = config.RequestsPerSecond

	if config.MaxRetries != nil {
		bpConfig.MaxRetries = *config.MaxRetries
	}

	if config.BackoffFactor > 0 {
		bpConfig.BackoffFactor = config.BackoffFactor
	}

	if config.Timeout != "" {
		timeout, err := time.ParseDuration(config.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", config.Timeout, err)
		}

		bpConfig.Timeout = timeout
	}

	if viper.GetBool("verbose") {
		bpConfig.Debug = true
		bpConfig.Logger = logger.Adapt(logger.New("debug", config.LogFormat))
	}

	return bpConfig, nil
}

// CreateClient builds a client from the effective CLI configuration.
func CreateClient(ctx context.Context) (brightpearl.Client, error) {
	bpConfig, err := clientConfig(loadConfig())
	if err != nil {
		return nil, err
	}

	return bpclient.New(ctx, bpConfig)
}

func displayConfigTable(w io.Writer, config *Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	retries := constants.NotAvailable
	if config.MaxRetries != nil {
		retries = strconv.Itoa(*config.MaxRetries)
	}

	rows := [][]string{
		{"Host", formatConfigValue(config.Host)},
		{"Account ID", formatConfigValue(config.AccountID)},
		{"App Ref", formatConfigValue(config.AppRef)},
		{"Account Token", formatConfigValue(config.AccountToken)},
		{"Output", formatConfigValue(config.Output)},
		{"Max Retries", retries},
		{"Timeout", formatConfigValue(config.Timeout)},
		{"Product Columns", formatConfigValue(strings.Join(config.ProductColumns, ","))},
	}

	for _, row := range rows {
		err := table.Append(row)
		if err != nil {
			return fmt.Errorf("failed to append %s to table: %w", row[0], err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func formatConfigValue(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

func outputConfigUpdateResult(w io.Writer, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	if value != "" {
		result["value"] = value
	}

	return writeOutput(w, result, func(w io.Writer) error {
		if value == "" {
			_, err := fmt.Fprintf(w, "%s %s\n", action, key)

			return err
		}

		_, err := fmt.Fprintf(w, "%s %s = %s\n", action, key, value)

		return err
	})
}

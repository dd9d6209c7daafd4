package constants

import "errors"

// Configuration errors.
var (
	ErrNoHostConfigured      = errors.New("no host configured, use 'brightpearl config set host <url>' or --host")
	ErrNoAccountConfigured   = errors.New("no account configured, use 'brightpearl config set account <id>' or --account")
	ErrNoCredentials         = errors.New("no credentials configured, use 'brightpearl config set-credentials'")
	ErrUnknownConfigKey      = errors.New("unknown configuration key")
	ErrTokenNotInteractive   = errors.New("account token required: stdin is not a terminal, pass --token")
	ErrInvalidOutputFormat   = errors.New("invalid output format")
	ErrInvalidFilter         = errors.New("invalid filter, expected key=value")
	ErrNATSSubjectRequired   = errors.New("NATS subject is required when --nats-url is set")
	ErrSKUNotFound           = errors.New("no product found for SKU")
	ErrInvalidWarehouseID    = errors.New("invalid warehouse ID")
	ErrInvalidStatusID       = errors.New("invalid status ID")
	ErrAtLeastOneIDRequired  = errors.New("at least one ID is required")
	ErrPageAndOffsetConflict = errors.New("--page and --first-result are mutually exclusive")
)

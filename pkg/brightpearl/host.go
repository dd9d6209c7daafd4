package brightpearl

import (
	"strings"
)

// hostAliases maps bare datacentre hostnames to their canonical form.
var hostAliases = map[string]string{
	"use1.brightpearlconnect.com":   "https://use1.brightpearlconnect.com",
	"ws-use.brightpearlconnect.com": "https://ws-use.brightpearlconnect.com",
	"euw1.brightpearlconnect.com":   "https://euw1.brightpearlconnect.com",
	"ws-eu1.brightpearl.com":        "https://ws-eu1.brightpearl.com",
}

// NormalizeHost validates host and returns it without a trailing slash.
// Known datacentre hosts are rewritten to their https form whether or not a
// scheme was given; any other host must already carry an http or https scheme.
func NormalizeHost(host string) (string, error) {
	raw := strings.TrimSpace(host)
	if raw == "" {
		return "", &ConfigurationError{Field: "Host", Err: ErrHostRequired}
	}

	bare := strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if canonical, ok := hostAliases[strings.Trim(bare, "/")]; ok {
		return canonical, nil
	}

	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "", &ConfigurationError{Field: "Host", Value: host, Err: ErrMissingScheme}
	}

	return strings.TrimRight(raw, "/"), nil
}

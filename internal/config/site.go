package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/linkmatch/internal/fetch"
)

// HostConfig holds settings that apply to fetches of one host.
type HostConfig struct {
	// Port overrides the configured port for URLs without an explicit port.
	Port int `yaml:"port,omitempty"`

	// Boundary overrides the header/body split strategy.
	Boundary string `yaml:"boundary,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// Defaults holds file-level defaults. Command line flags take precedence.
type Defaults struct {
	HostConfig `yaml:",inline"`

	// Timeout bounds each fetch, e.g. "10s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Dedup is "trailing-slash" or "exact".
	Dedup string `yaml:"dedup,omitempty"`

	// ScanMode is "pattern" or "tokenizer".
	ScanMode string `yaml:"scanMode,omitempty"`

	// Proxy is a SOCKS5 proxy address in "host:port" form.
	Proxy string `yaml:"proxy,omitempty"`
}

// File represents the structure of the .linkmatch configuration file.
type File struct {
	// Defaults apply to every extraction.
	Defaults Defaults `yaml:"defaults,omitempty"`

	// Hosts maps a host name (without scheme or port) to its overrides.
	Hosts map[string]HostConfig `yaml:"hosts,omitempty"`
}

// Validate reports the first invalid setting. Zero values mean the setting
// is not overridden and are always valid.
func (hc HostConfig) Validate() error {
	if hc.Port != 0 && (hc.Port < 1 || hc.Port > 65535) {
		return ErrInvalidPort
	}
	if hc.Boundary != "" {
		if _, err := fetch.ParseBoundaryMode(hc.Boundary); err != nil {
			return ErrInvalidBoundary
		}
	}
	return nil
}

// Validate checks the defaults and every host entry. Errors from a host
// entry are prefixed with the host name and wrap the Config.Validate
// sentinels.
func (cf *File) Validate() error {
	if err := cf.Defaults.HostConfig.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	for _, host := range slices.Sorted(maps.Keys(cf.Hosts)) {
		if err := cf.Hosts[host].Validate(); err != nil {
			return fmt.Errorf("host %q: %w", host, err)
		}
	}
	return nil
}

// GetHostConfig returns the entry for host. Host names compare
// case-insensitively. File defaults are not merged in; ApplyFile has
// already copied them into the Config.
func (cf *File) GetHostConfig(host string) (HostConfig, bool) {
	if hc, ok := cf.Hosts[host]; ok {
		return hc, true
	}
	for name, hc := range cf.Hosts {
		if strings.EqualFold(name, host) {
			return hc, true
		}
	}
	return HostConfig{}, false
}

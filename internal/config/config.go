package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/linkmatch/internal/fetch"
	"github.com/nao1215/linkmatch/internal/matcher"
	"github.com/nao1215/linkmatch/internal/transport"
)

// Default configuration values.
const (
	// DefaultPort is dialed when a URL does not name a port.
	DefaultPort = fetch.DefaultPort

	// DefaultTimeout bounds one fetch from dial to end of stream.
	DefaultTimeout = fetch.DefaultTimeout

	// DefaultBatchSize is the number of sources extracted concurrently.
	DefaultBatchSize = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "linkmatch"

	// DefaultUserAgent identifies linkmatch in HTTP requests.
	DefaultUserAgent = "linkmatch/1.0 (+https://github.com/nao1215/linkmatch)"

	// DefaultMaxBodySize limits how much of a response is read.
	DefaultMaxBodySize = fetch.DefaultMaxBodySize

	// DefaultBoundary splits responses at the end of the header block.
	DefaultBoundary = string(fetch.BoundaryHeader)

	// DefaultDedup treats "x" and "x/" as the same link.
	DefaultDedup = string(matcher.DedupTrailingSlash)

	// DefaultScanMode scans documents with the anchor pattern.
	DefaultScanMode = string(matcher.ScanPattern)

	// DefaultTorStartupTimeout bounds the bootstrap of an embedded Tor daemon.
	DefaultTorStartupTimeout = transport.DefaultTorStartupTimeout
)

// Config holds all configuration options for linkmatch.
// It is filled from flags and the configuration file once at startup and
// then handed to the components that need it.
type Config struct {
	// Port is dialed when a URL has no explicit port.
	Port int

	// Timeout bounds each fetch.
	Timeout time.Duration

	// MaxBodySize is the maximum number of response bytes read.
	// Zero selects DefaultMaxBodySize.
	MaxBodySize int64

	// Boundary is "header" or "marker".
	Boundary string

	// Dedup is "trailing-slash" or "exact".
	Dedup string

	// ScanMode is "pattern" or "tokenizer".
	ScanMode string

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	// Empty dials directly.
	ProxyAddress string

	// EmbeddedTor starts a private Tor daemon and fetches through its SOCKS5
	// port. Mutually exclusive with ProxyAddress.
	EmbeddedTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// UserAgent is sent with every request. Empty omits the header.
	UserAgent string

	// Verbose enables debug logging, including every fetched document.
	Verbose bool

	// BatchSize is the number of sources extracted concurrently.
	BatchSize int

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// FileConfig holds the configuration file contents, if one was loaded.
	FileConfig *File

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// LinksOnly prints bare links to stdout, one per line.
	LinksOnly bool

	// DumpBody copies every fetched document to stderr.
	DumpBody bool

	// DBDir is the directory holding the history database.
	DBDir string

	// SaveToDB records every extraction in the history database.
	SaveToDB bool

	// Targets are the files and URLs to extract from.
	Targets []string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Port:        DefaultPort,
		Timeout:     DefaultTimeout,
		MaxBodySize: DefaultMaxBodySize,
		Boundary:    DefaultBoundary,
		Dedup:       DefaultDedup,
		ScanMode:    DefaultScanMode,
		UserAgent:   DefaultUserAgent,
		BatchSize:   DefaultBatchSize,
		DBDir:       XDGDataDir(),
		SaveToDB:    true,

		TorStartupTimeout: DefaultTorStartupTimeout,
	}
}

// XDGDataDir returns the XDG data directory for linkmatch.
// On Linux: ~/.local/share/linkmatch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for linkmatch.
// On Linux: ~/.config/linkmatch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.EmbeddedTor && c.ProxyAddress != "" {
		return ErrConflictingProxy
	}
	if c.EmbeddedTor && c.TorStartupTimeout <= 0 {
		return ErrInvalidTorStartupTimeout
	}
	if _, err := fetch.ParseBoundaryMode(c.Boundary); err != nil {
		return ErrInvalidBoundary
	}
	if _, err := matcher.ParseDedupMode(c.Dedup); err != nil {
		return ErrInvalidDedup
	}
	if _, err := matcher.ParseScanMode(c.ScanMode); err != nil {
		return ErrInvalidScanMode
	}
	if c.FileConfig != nil {
		return c.FileConfig.Validate()
	}
	return nil
}

// FetchOptions converts the configuration into fetch options for host.
// A host entry in the configuration file overrides the port, boundary and
// user agent for that host only.
func (c *Config) FetchOptions(host string) ([]fetch.Option, error) {
	port, boundary, userAgent := c.Port, c.Boundary, c.UserAgent
	if c.FileConfig != nil {
		if hc, ok := c.FileConfig.GetHostConfig(host); ok {
			if err := hc.Validate(); err != nil {
				return nil, fmt.Errorf("host %q: %w", host, err)
			}
			if hc.Port != 0 {
				port = hc.Port
			}
			if hc.Boundary != "" {
				boundary = hc.Boundary
			}
			if hc.UserAgent != "" {
				userAgent = hc.UserAgent
			}
		}
	}
	mode, err := fetch.ParseBoundaryMode(boundary)
	if err != nil {
		return nil, ErrInvalidBoundary
	}

	return []fetch.Option{
		fetch.WithPort(port),
		fetch.WithTimeout(c.Timeout),
		fetch.WithMaxBodySize(c.MaxBodySize),
		fetch.WithBoundary(mode),
		fetch.WithUserAgent(userAgent),
	}, nil
}

// MatcherOptions converts the configuration into matcher options.
// Validate must have succeeded.
func (c *Config) MatcherOptions() []matcher.Option {
	dedup, err := matcher.ParseDedupMode(c.Dedup)
	if err != nil {
		dedup = matcher.DedupTrailingSlash
	}
	scan, err := matcher.ParseScanMode(c.ScanMode)
	if err != nil {
		scan = matcher.ScanPattern
	}
	return []matcher.Option{matcher.WithDedup(dedup), matcher.WithScanMode(scan)}
}

// ApplyFile copies the file-level defaults into c for every setting that
// was not given explicitly. explicit reports whether a named setting was
// set on the command line.
func (c *Config) ApplyFile(cf *File, explicit func(name string) bool) {
	if cf == nil {
		return
	}
	c.FileConfig = cf
	d := cf.Defaults

	if d.Port != 0 && !explicit("port") {
		c.Port = d.Port
	}
	if d.Boundary != "" && !explicit("boundary") {
		c.Boundary = d.Boundary
	}
	if d.UserAgent != "" && !explicit("user-agent") {
		c.UserAgent = d.UserAgent
	}
	if d.Timeout > 0 && !explicit("timeout") {
		c.Timeout = d.Timeout
	}
	if d.Dedup != "" && !explicit("dedup") {
		c.Dedup = d.Dedup
	}
	if d.ScanMode != "" && !explicit("scan-mode") {
		c.ScanMode = d.ScanMode
	}
	if d.Proxy != "" && !explicit("proxy") && !explicit("embedded-tor") {
		c.ProxyAddress = d.Proxy
	}
}

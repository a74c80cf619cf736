package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoTarget is returned when no file or URL is given.
	ErrNoTarget = errors.New("no target specified: provide at least one file or URL")

	// ErrInvalidPort is returned when the port is outside 1-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 1 and 65535")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown are given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrConflictingProxy is returned when both --proxy and --embedded-tor are given.
	ErrConflictingProxy = errors.New("conflicting proxy settings: --proxy and --embedded-tor cannot be used together")

	// ErrInvalidTorStartupTimeout is returned when the embedded Tor startup timeout is not positive.
	ErrInvalidTorStartupTimeout = errors.New("invalid Tor startup timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidBoundary is returned for an unknown boundary mode.
	ErrInvalidBoundary = errors.New("invalid boundary: must be \"header\" or \"marker\"")

	// ErrInvalidDedup is returned for an unknown dedup mode.
	ErrInvalidDedup = errors.New("invalid dedup mode: must be \"trailing-slash\" or \"exact\"")

	// ErrInvalidScanMode is returned for an unknown scan mode.
	ErrInvalidScanMode = errors.New("invalid scan mode: must be \"pattern\" or \"tokenizer\"")
)

package config

import "errors"

// Configuration validation errors returned by Config.Validate. Callers
// can match them with errors.Is.
var (
	// ErrNoFlow is returned when no flow name is given.
	ErrNoFlow = errors.New("no flow specified: pass a flow name or use --preset")

	// ErrInvalidBaseURL is returned when the base URL has no http(s) scheme.
	ErrInvalidBaseURL = errors.New("invalid base URL: must start with http:// or https://")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the batch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidProxyAddress is returned when the proxy is not host:port.
	ErrInvalidProxyAddress = errors.New("invalid proxy address: expected host:port")

	// ErrUnknownPreset is returned when a named preset is not in the config file.
	ErrUnknownPreset = errors.New("unknown preset")

	// ErrInvalidSeed is returned when a key=value seed assignment is malformed.
	ErrInvalidSeed = errors.New("invalid seed assignment: expected key=value")
)

package config

import (
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultBaseURL is the production TripWell API root.
	DefaultBaseURL = "https://gofastbackend.onrender.com/tripwell"

	// DefaultTimeout bounds each request. Content generation calls a
	// language model behind the service and routinely takes 30s or more.
	DefaultTimeout = 90 * time.Second

	// DefaultConcurrency is the number of runs a batch executes at once.
	// The service is a single small instance; more parallel runs mostly
	// queue on its side.
	DefaultConcurrency = 4

	// AppName is the application name used for XDG directory paths.
	AppName = "tripctl"

	// DefaultUserAgent identifies tripctl in HTTP requests.
	DefaultUserAgent = "tripctl/1.0 (+https://github.com/tripwell/tripctl)"
)

// Config holds all options for a tripctl invocation. It is populated
// from the config file and CLI flags and passed down explicitly.
type Config struct {
	// BaseURL is the TripWell API root.
	BaseURL string

	// Timeout is the per-request timeout. It does not bound a whole run.
	Timeout time.Duration

	// Token is the bearer token for authenticated endpoints.
	Token string

	// ProxyAddress optionally routes requests through a SOCKS5 proxy
	// ("host:port").
	ProxyAddress string

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Headers are extra headers sent with every request.
	Headers map[string]string

	// Verbose enables debug logging.
	Verbose bool

	// Concurrency is the number of runs executed at once in batch mode.
	Concurrency int

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string

	// File holds the loaded configuration file, if one was found.
	File *File

	// Flow is the name of the flow to run.
	Flow string

	// Seed holds the seed values for a single run.
	Seed map[string]any

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// DBDir is where the run history database lives. Empty disables history.
	DBDir string

	// SaveToDB records every report in the run history.
	SaveToDB bool

	// TUI shows an interactive progress view while a run executes.
	TUI bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		UserAgent:   DefaultUserAgent,
		Headers:     make(map[string]string),
		Seed:        make(map[string]any),
	}
}

// XDGDataDir returns the XDG data directory for tripctl.
// On Linux: ~/.local/share/tripctl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for tripctl.
// On Linux: ~/.config/tripctl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplyService copies the non-empty service settings from the config
// file into c. CLI flags are applied afterwards and win.
func (c *Config) ApplyService(s ServiceConfig) {
	if s.BaseURL != "" {
		c.BaseURL = s.BaseURL
	}
	if s.Timeout > 0 {
		c.Timeout = s.Timeout
	}
	if s.Token != "" {
		c.Token = s.Token
	}
	if s.Proxy != "" {
		c.ProxyAddress = s.Proxy
	}
	if s.UserAgent != "" {
		c.UserAgent = s.UserAgent
	}
	if s.Concurrency > 0 {
		c.Concurrency = s.Concurrency
	}
	if len(s.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(s.Headers))
		}
		for k, v := range s.Headers {
			c.Headers[k] = v
		}
	}
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Flow == "" {
		return ErrNoFlow
	}

	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return ErrInvalidBaseURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.ProxyAddress != "" {
		if _, _, err := net.SplitHostPort(c.ProxyAddress); err != nil {
			return ErrInvalidProxyAddress
		}
	}

	return nil
}

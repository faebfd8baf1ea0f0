package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tripwell/tripctl/internal/config"
	"github.com/tripwell/tripctl/internal/log"
	"github.com/tripwell/tripctl/internal/report"
	"github.com/tripwell/tripctl/internal/tripwell"
)

// tokenEnv supplies the bearer token when neither flag nor file sets one.
const tokenEnv = "TRIPCTL_TOKEN"

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the masking logger on stderr.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	return log.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
}

// buildConfig layers defaults, the config file and the global flags.
// Flags win over the file only when they were set explicitly.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user named a config file, it must exist. Otherwise a missing
	// file just means an empty one.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.File, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.File = &config.File{
			Defaults: make(map[string]any),
			Presets:  make(map[string]config.Preset),
		}
	}
	cfg.ApplyService(cfg.File.Service)

	if flags.Changed("base-url") {
		if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("token") {
		if cfg.Token, err = flags.GetString("token"); err != nil {
			return nil, err
		}
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv(tokenEnv)
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return nil, err
		}
	}
	headers, err := flags.GetStringToString("header")
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		cfg.Headers[k] = v
	}

	cfg.DBDir, err = flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// readOutputFlags fills the report format and destination. Not every
// command has every flag; absent flags are left at their zero value.
func readOutputFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if f := flags.Lookup("json"); f != nil {
		cfg.JSONReport, _ = flags.GetBool("json")
	}
	if f := flags.Lookup("markdown"); f != nil {
		cfg.MarkdownReport, _ = flags.GetBool("markdown")
	}
	if f := flags.Lookup("output"); f != nil {
		cfg.ReportFile, _ = flags.GetString("output")
	}
}

// addOutputFlags registers the report flags shared by run, batch and history.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
}

func reportFormat(cfg *config.Config) report.Format {
	switch {
	case cfg.JSONReport:
		return report.FormatJSON
	case cfg.MarkdownReport:
		return report.FormatMarkdown
	default:
		return report.FormatText
	}
}

// withReportWriter opens the report destination and hands fn a writer
// in the configured format. A JSON or Markdown report written to a file
// is echoed to stdout as text.
func withReportWriter(cmd *cobra.Command, cfg *config.Config, fn func(report.Writer) error) error {
	format := reportFormat(cfg)
	if cfg.ReportFile == "" {
		return fn(report.NewWriter(format, cmd.OutOrStdout(), cfg.Verbose))
	}

	if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	// Reports carry traveller data; owner-only.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := report.NewWriter(format, f, cfg.Verbose)
	if format != report.FormatText {
		w = report.NewMultiWriter(w, report.NewWriter(report.FormatText, cmd.OutOrStdout(), false))
	}
	return fn(w)
}

// newClient builds the TripWell client from cfg.
func newClient(cfg *config.Config, logger *slog.Logger) (*tripwell.Client, error) {
	opts := []tripwell.Option{
		tripwell.WithTimeout(cfg.Timeout),
		tripwell.WithUserAgent(cfg.UserAgent),
		tripwell.WithLogger(logger),
	}
	if cfg.Token != "" {
		opts = append(opts, tripwell.WithToken(cfg.Token))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, tripwell.WithHeaders(cfg.Headers))
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, tripwell.WithProxy(cfg.ProxyAddress))
	}
	return tripwell.NewClient(cfg.BaseURL, opts...)
}

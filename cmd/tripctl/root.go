package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tripwell/tripctl/internal/config"
)

// NewRootCmd creates the root command for tripctl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tripctl",
		Short: "Run and debug TripWell content pipelines",
		Long: `tripctl drives the TripWell content service through its multi-step flows
(place profile, persona, city metadata, trip setup) and reports which stage
of a flow failed and why.

Every run is recorded in a local history database so that failures can be
compared across runs with the same inputs.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable verbose logging")
	pf.StringP("config", "c", "",
		"Configuration file path (default: .tripctl in current or home directory)")
	pf.String("base-url", config.DefaultBaseURL, "TripWell API root")
	pf.DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each request")
	pf.String("token", "", "Bearer token for authenticated endpoints (or $TRIPCTL_TOKEN)")
	pf.String("proxy", "", "Route requests through a SOCKS5 proxy (host:port)")
	pf.StringToString("header", nil, "Extra request header, may be repeated (Name=value)")
	pf.String("db-dir", config.XDGDataDir(), "Directory of the run history database")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewFlowsCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewLibraryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

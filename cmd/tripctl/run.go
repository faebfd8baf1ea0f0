package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tripwell/tripctl/internal/config"
	"github.com/tripwell/tripctl/internal/flows"
	"github.com/tripwell/tripctl/internal/pipeline"
	"github.com/tripwell/tripctl/internal/report"
	"github.com/tripwell/tripctl/internal/store"
	"github.com/tripwell/tripctl/internal/tui"
)

// errRunFailed marks a command that completed but whose run failed; the
// report has already been written.
var errRunFailed = errors.New("run failed")

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flow]",
		Short: "Run one flow against the TripWell service",
		Long: `Run executes a flow stage by stage and stops at the first failing stage.
The report names the failed stage and classifies the failure:

  PreconditionError  an input was missing, nothing was sent
  TransportError     the request did not complete (network, timeout, cancel)
  ValidationError    the service answered with a failure or an unexpected body

Seed values come from, lowest precedence first: the flow's defaults, the
config file defaults, a preset, a seed file, and --set.

Examples:
  # Build a place profile
  tripctl run place --set city=Paris --set budget='$$' --set whoWith=friends

  # Run a preset from .tripctl
  tripctl run --preset paris-solo

  # Show live progress and write a Markdown report
  tripctl run place --set city=Rome --tui --markdown -o reports/rome.md

Run 'tripctl flows' to list flows and the seed keys they need.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRunCmd,
	}

	cmd.Flags().StringArrayP("set", "s", nil, "Seed value as key=value, may be repeated")
	cmd.Flags().StringP("seed-file", "f", "", "YAML or TOML file holding a single seed")
	cmd.Flags().StringP("preset", "p", "", "Named preset from the config file")
	cmd.Flags().Bool("tui", false, "Show an interactive progress view")
	cmd.Flags().Bool("no-save", false, "Do not record the run in the history database")
	addOutputFlags(cmd)

	return cmd
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	readOutputFlags(cmd, cfg)

	if cfg.TUI, err = cmd.Flags().GetBool("tui"); err != nil {
		return err
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return err
	}
	cfg.SaveToDB = !noSave && cfg.DBDir != ""

	if err := resolveSeed(cmd, cfg, args, true); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)
	flow, err := flows.Default().Get(cfg.Flow)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed := flow.Seed(cfg.Seed)
	logger.Debug("starting run", "flow", flow.Name, "base_url", client.BaseURL(), "seed", seed)
	stages := flow.Stages(client)
	execute := func(ctx context.Context, rep pipeline.Reporter) *pipeline.Report {
		runner := pipeline.New(
			pipeline.WithName(flow.Name),
			pipeline.WithLogger(logger),
			pipeline.WithReporter(rep),
		)
		return runner.Run(ctx, stages, seed)
	}

	var rep *pipeline.Report
	if cfg.TUI {
		title := fmt.Sprintf("tripctl %s", flow.Name)
		rep, err = tui.Run(ctx, title, flow.StageNames(), cmd.ErrOrStderr(), execute)
		if err != nil {
			logger.Warn("progress view failed", "error", err)
		}
	} else {
		rep = execute(ctx, progressReporter(cmd.ErrOrStderr()))
	}

	if cfg.SaveToDB {
		if err := saveReports(ctx, cfg, logger, rep); err != nil {
			logger.Error("failed to record run", "run_id", rep.RunID, "error", err)
		}
	}

	if err := withReportWriter(cmd, cfg, func(w report.Writer) error {
		_, err := w.Write(rep)
		return err
	}); err != nil {
		return err
	}

	if !rep.Succeeded() {
		return fmt.Errorf("%w: %w", errRunFailed, rep.Err())
	}
	return nil
}

// resolveSeed sets cfg.Flow and cfg.Seed from the arguments, --preset,
// --seed-file and --set. With single set, a seed file must hold exactly
// one seed; batch reads its seed file itself.
func resolveSeed(cmd *cobra.Command, cfg *config.Config, args []string, single bool) error {
	flags := cmd.Flags()

	if len(args) > 0 {
		cfg.Flow = args[0]
	}
	if f := flags.Lookup("flow"); f != nil && f.Changed {
		cfg.Flow = f.Value.String()
	}

	seed := cfg.File.MergeSeed(nil)

	preset, err := flags.GetString("preset")
	if err != nil {
		return err
	}
	if preset != "" {
		p, err := cfg.File.GetPreset(preset)
		if err != nil {
			return err
		}
		switch {
		case cfg.Flow == "":
			cfg.Flow = p.Flow
		case p.Flow != "" && p.Flow != cfg.Flow:
			return fmt.Errorf("preset %q runs flow %q, not %q", preset, p.Flow, cfg.Flow)
		}
		maps.Copy(seed, p.Seed)
	}

	if single {
		path, err := flags.GetString("seed-file")
		if err != nil {
			return err
		}
		if path != "" {
			seeds, err := config.LoadSeedFile(path)
			if err != nil {
				return err
			}
			if len(seeds) != 1 {
				return fmt.Errorf("seed file %s holds %d seeds; use 'tripctl batch' for more than one", path, len(seeds))
			}
			maps.Copy(seed, seeds[0])
		}
	}

	sets, err := flags.GetStringArray("set")
	if err != nil {
		return err
	}
	assigned, err := config.ParseAssignments(sets)
	if err != nil {
		return err
	}
	maps.Copy(seed, assigned)

	cfg.Seed = seed
	return nil
}

// progressReporter prints one line per stage start and failure.
func progressReporter(w io.Writer) pipeline.Reporter {
	return pipeline.ReporterFuncs{
		Start: func(name string, index, total int) {
			fmt.Fprintf(w, "[%d/%d] %s...\n", index, total, name)
		},
		Failure: func(name string, err *pipeline.StageError) {
			fmt.Fprintf(w, "      %s failed: %s: %s\n", name, err.Kind, err.Message)
		},
	}
}

// saveReports records reports in the history database.
func saveReports(ctx context.Context, cfg *config.Config, logger *slog.Logger, reports ...*pipeline.Report) error {
	db, err := store.Open(cfg.DBDir, store.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	// The run may have been cancelled; recording it still matters.
	ctx = context.WithoutCancel(ctx)
	for _, r := range reports {
		if r == nil {
			continue
		}
		if err := db.SaveReport(ctx, r); err != nil {
			return err
		}
		logger.Debug("run recorded", "run_id", r.RunID, "db", db.Path())
	}
	return nil
}

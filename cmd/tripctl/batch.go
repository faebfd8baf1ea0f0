package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tripwell/tripctl/internal/config"
	"github.com/tripwell/tripctl/internal/flows"
	"github.com/tripwell/tripctl/internal/pipeline"
	"github.com/tripwell/tripctl/internal/report"
	"github.com/tripwell/tripctl/internal/store"
)

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run one flow for every seed in a file",
		Long: `Batch runs a flow once per seed, several at a time. A failing run never
stops the others. Each run is printed as it finishes, followed by a
summary of failures by stage.

Seed file (YAML):
  - city: Paris
    budget: "$$"
  - city: Lisbon
    whoWith: family

Seed file (TOML):
  [[seeds]]
  city = "Paris"

Values from --preset and --set apply to every seed; --set wins over the file.

Examples:
  tripctl batch -f seeds.yaml --flow place --concurrency 4
  tripctl batch -f personas.yaml --preset persona-base --markdown -o batch.md`,
		Args: cobra.NoArgs,
		RunE: runBatchCmd,
	}

	cmd.Flags().StringP("file", "f", "", "Seed file (YAML or TOML)")
	cmd.Flags().String("flow", "", "Flow to run for every seed")
	cmd.Flags().StringP("preset", "p", "", "Named preset from the config file")
	cmd.Flags().StringArrayP("set", "s", nil, "Seed value applied to every run, key=value")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency, "Number of concurrent runs")
	cmd.Flags().Bool("no-save", false, "Do not record the runs in the history database")
	addOutputFlags(cmd)
	_ = cmd.MarkFlagRequired("file") //nolint:errcheck // flag is defined above

	return cmd
}

func runBatchCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	readOutputFlags(cmd, cfg)

	if cmd.Flags().Changed("concurrency") {
		if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
			return err
		}
	}
	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return err
	}
	cfg.SaveToDB = !noSave && cfg.DBDir != ""

	if err := resolveSeed(cmd, cfg, nil, false); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	path, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}
	fileSeeds, err := config.LoadSeedFile(path)
	if err != nil {
		return err
	}
	if len(fileSeeds) == 0 {
		return fmt.Errorf("seed file %s holds no seeds", path)
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

	// Flow defaults < shared seed < file seed < --set.
	sets, err := cmd.Flags().GetStringArray("set")
	if err != nil {
		return err
	}
	assigned, err := config.ParseAssignments(sets)
	if err != nil {
		return err
	}
	seeds := make([]map[string]any, len(fileSeeds))
	for i, s := range fileSeeds {
		seed := maps.Clone(cfg.Seed)
		maps.Copy(seed, s)
		maps.Copy(seed, assigned)
		seeds[i] = flow.Seed(seed)
	}

	var db *store.RunDB
	if cfg.SaveToDB {
		db, err = store.Open(cfg.DBDir, store.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		defer db.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Runner {
			return pipeline.New(pipeline.WithName(flow.Name), pipeline.WithLogger(logger))
		},
		flow.Stages(client),
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "Running %s for %d seeds (concurrency: %d)...\n\n", flow.Name, len(seeds), cfg.Concurrency)
	startTime := time.Now()

	reports := make([]*pipeline.Report, len(seeds))
	var (
		mu       sync.Mutex
		finished int
	)
	batchErr := bp.ProcessBatchWithCallback(ctx, seeds, func(rep *pipeline.Report, index int) {
		mu.Lock()
		defer mu.Unlock()

		reports[index] = rep
		finished++
		status := "ok"
		if !rep.Succeeded() {
			status = fmt.Sprintf("failed at %s: %s", rep.FailedStage, rep.Error.Message)
		}
		fmt.Fprintf(stderr, "[%d/%d] seed %d: %s\n", finished, len(seeds), index+1, status)

		if db != nil {
			if err := db.SaveReport(context.WithoutCancel(ctx), rep); err != nil {
				logger.Error("failed to record run", "run_id", rep.RunID, "error", err)
			}
		}
	})
	fmt.Fprintf(stderr, "\nBatch completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	if err := withReportWriter(cmd, cfg, func(w report.Writer) error {
		_, err := w.WriteBatch(reports)
		return err
	}); err != nil {
		return err
	}

	if batchErr != nil {
		return fmt.Errorf("batch interrupted: %w", batchErr)
	}
	if s := report.Summarize(reports); s.Failed > 0 {
		return fmt.Errorf("%w: %d of %d runs failed", errRunFailed, s.Failed, s.Total)
	}
	return nil
}


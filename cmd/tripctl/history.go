package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tripwell/tripctl/internal/pipeline"
	"github.com/tripwell/tripctl/internal/report"
	"github.com/tripwell/tripctl/internal/store"
)

// errNoHistory is returned when the history database is disabled.
var errNoHistory = errors.New("run history is disabled: --db-dir is empty")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [flow]",
		Short: "Inspect recorded runs",
		Long: `History lists recorded runs, newest first, and can show a stored report.

Runs that used the same flow and the same seed share a fingerprint, so
--same-as lists every earlier attempt at a run that just failed.

Examples:
  # Recent runs
  tripctl history

  # Failed place runs
  tripctl history place --failed

  # Full report of one run, as Markdown
  tripctl history --show 3f2a... -m

  # Every run with the same inputs as a given run
  tripctl history --same-as 3f2a...

  # Outcome counts per flow
  tripctl history --stats

  # Drop runs older than 30 days
  tripctl history --prune 720h`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("show", "", "Print the stored report of a run")
	cmd.Flags().String("same-as", "", "List runs with the same flow and seed as this run")
	cmd.Flags().Bool("failed", false, "Only list failed runs")
	cmd.Flags().IntP("limit", "l", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().Bool("stats", false, "Show outcome counts per flow")
	cmd.Flags().Duration("prune", 0, "Delete runs older than this duration")
	addOutputFlags(cmd)
	cmd.MarkFlagsMutuallyExclusive("show", "same-as", "stats", "prune")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	readOutputFlags(cmd, cfg)
	if cfg.DBDir == "" {
		return errNoHistory
	}

	db, err := store.Open(cfg.DBDir, store.DefaultOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	flags := cmd.Flags()
	out := cmd.OutOrStdout()

	if id, _ := flags.GetString("show"); id != "" {
		rep, err := db.GetReport(ctx, id)
		if err != nil {
			return err
		}
		return withReportWriter(cmd, cfg, func(w report.Writer) error {
			_, err := w.Write(rep)
			return err
		})
	}

	if id, _ := flags.GetString("same-as"); id != "" {
		rep, err := db.GetReport(ctx, id)
		if err != nil {
			return err
		}
		runs, err := db.FindByFingerprint(ctx, rep.Fingerprint)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d runs of %s with fingerprint %s\n", len(runs), rep.Flow, shortID(rep.Fingerprint))
		printRuns(out, runs)
		return nil
	}

	if stats, _ := flags.GetBool("stats"); stats {
		all, err := db.Stats(ctx)
		if err != nil {
			return err
		}
		if len(all) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}
		rows := make([][]string, 0, len(all))
		for _, s := range all {
			rows = append(rows, []string{
				s.Flow,
				fmt.Sprint(s.Runs),
				fmt.Sprint(s.Succeeded),
				fmt.Sprint(s.Failed),
				fmt.Sprintf("%.0f%%", 100*float64(s.Succeeded)/float64(max(s.Runs, 1))),
			})
		}
		fmt.Fprintln(out, renderTable([]string{"FLOW", "RUNS", "OK", "FAILED", "SUCCESS"}, rows))
		return nil
	}

	if age, _ := flags.GetDuration("prune"); age > 0 {
		n, err := db.Prune(ctx, time.Now().Add(-age))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Pruned %d runs older than %s\n", n, age)
		return nil
	}

	opts := store.ListOptions{}
	if len(args) == 1 {
		opts.Flow = args[0]
	}
	if failed, _ := flags.GetBool("failed"); failed {
		opts.Status = pipeline.StatusFailed
	}
	if opts.Limit, err = flags.GetInt("limit"); err != nil {
		return err
	}

	runs, err := db.ListRuns(ctx, opts)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	printRuns(out, runs)
	return nil
}

// printRuns renders run summaries as a table.
func printRuns(w io.Writer, runs []store.RunSummary) {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		failed := r.FailedStage
		if failed == "" {
			failed = "-"
		}
		rows = append(rows, []string{
			r.RunID,
			r.Flow,
			string(r.Status),
			failed,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Duration().Round(time.Millisecond).String(),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"RUN", "FLOW", "STATUS", "FAILED STAGE", "STARTED", "DURATION"}, rows))
}

// shortID trims an id for display.
func shortID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}

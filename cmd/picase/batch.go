package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nao1215/picase/internal/config"
	"github.com/nao1215/picase/internal/database"
	"github.com/nao1215/picase/internal/pipeline"
)

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <case_folder>...",
		Short: "Render case summaries for several case folders in parallel",
		Long: `Batch aggregates several case folders concurrently and writes each case
summary into its own folder, exactly as 'picase run' would.

A failing case does not stop the others. The command exits non-zero when
any case failed.

Examples:
  # Every case under ./cases
  picase batch ./cases/*

  # HTML summaries, two cases at a time
  picase batch --format html --parallel 2 ./cases/pi_case_001 ./cases/pi_case_002`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBatchCmd,
	}

	cmd.Flags().StringP("format", "f", string(config.NewConfig().Format),
		"Report format: json, markdown or html")
	cmd.Flags().IntP("parallel", "p", config.DefaultParallel,
		"Number of cases processed at once")
	cmd.Flags().Bool("json-export", true,
		"Also write the JSON export next to Markdown and HTML reports")
	cmd.Flags().Bool("no-history", false,
		"Do not record snapshots in the history database")

	return cmd
}

// runBatchCmd executes the batch command.
func runBatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.CaseFolders = args
	if err := applyReportFlags(cmd, cfg); err != nil {
		return usageError(cmd, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	var db *database.CaseDB
	if cfg.SaveHistory {
		if db, err = openHistory(cfg); err != nil {
			logger.Warn("case history disabled", "error", err)
		} else {
			defer db.Close()
		}
	}

	bp := pipeline.NewBatchProcessor(nil,
		pipeline.WithConcurrency(cfg.Parallel),
		pipeline.WithBatchLogger(logger),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processing %d case(s) with parallelism %d\n\n", len(args), cfg.Parallel)

	// The callback runs on worker goroutines; mu serialises output and
	// history writes.
	var (
		mu     sync.Mutex
		failed int
	)
	err = bp.ProcessBatchWithCallback(ctx, args, func(result pipeline.Result, index int) {
		mu.Lock()
		defer mu.Unlock()

		prefix := fmt.Sprintf("[%d/%d] %s", index+1, len(args), result.Dir)
		if result.Err != nil {
			failed++
			fmt.Fprintf(out, "%s: FAILED: %v\n", prefix, result.Err)
			return
		}

		written, err := writeCaseOutputs(cfg, result.Dir, result.Record)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: FAILED: %v\n", prefix, err)
			return
		}
		if db != nil {
			saveSnapshot(ctx, db, result.Record, result.Dir, logger)
		}

		meets := "needs review"
		if result.Record.Threshold.MeetsThreshold {
			meets = "meets threshold"
		}
		fmt.Fprintf(out, "%s: %s, specials %s, %s\n",
			prefix, written[0], result.Record.Bills.TotalBilled, meets)
	})
	if err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}

	fmt.Fprintf(out, "\nProcessed %d case(s): %d succeeded, %d failed\n",
		len(args), len(args)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d case(s) failed", failed, len(args))
	}
	return nil
}

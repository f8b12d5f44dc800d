package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/picase/internal/config"
	"github.com/nao1215/picase/internal/pipeline"
	"github.com/nao1215/picase/internal/report"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <case_folder> [json|markdown|html]",
		Short: "Render the case summary for one case folder",
		Long: `Run aggregates the IDP documents of a case folder and renders the case summary.

The case folder holds one directory per document type (MEDICAL_RECORDS,
POLICE_REPORT, INSURANCE_POLICY, MEDICAL_BILLS), either directly or below
one result directory per processed document.

The report is written to <case_folder>/case_summary.<ext> (md, html or json).
Markdown and HTML reports are accompanied by case_summary.json unless
--json-export=false is given.

Examples:
  # Markdown summary (default)
  picase run ./cases/pi_case_001

  # HTML summary
  picase run ./cases/pi_case_001 html

  # Write the report somewhere else
  picase run ./cases/pi_case_001 html -o ./out/rodriguez.html`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runRunCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Write the report to this path instead of the case folder")
	cmd.Flags().Bool("json-export", true,
		"Also write the JSON export next to Markdown and HTML reports")
	cmd.Flags().Bool("no-history", false,
		"Do not record a snapshot in the history database")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, args []string) error {
	// An unknown format is a usage error: nothing is read or written.
	var format report.Format
	if len(args) > 1 {
		f, err := report.ParseFormat(args[1])
		if err != nil {
			return usageError(cmd, err)
		}
		format = f
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.CaseFolders = args[:1]
	if format != "" {
		cfg.Format = format
	}
	if err := applyReportFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	folder := cfg.CaseFolders[0]
	record, err := pipeline.Aggregate(ctx, folder, pipeline.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to process case folder %s: %w", folder, err)
	}

	written, err := writeCaseOutputs(cfg, folder, record)
	if err != nil {
		return err
	}

	if cfg.SaveHistory {
		db, err := openHistory(cfg)
		if err != nil {
			logger.Warn("case history disabled", "error", err)
		} else {
			defer db.Close()
			saveSnapshot(ctx, db, record, folder, logger)
		}
	}

	out := cmd.OutOrStdout()
	for _, path := range written {
		fmt.Fprintf(out, "Report written to: %s\n", path)
	}
	_, err = report.NewSummaryWriter(out, report.WithVerbose(cfg.Verbose)).Write(record)
	return err
}

// applyReportFlags copies the report flags given on the command line onto cfg.
func applyReportFlags(cmd *cobra.Command, cfg *config.Config) error {
	if v, ok := stringFlag(cmd, "output"); ok {
		cfg.OutputFile = v
	}
	if v, ok := stringFlag(cmd, "format"); ok {
		f, err := report.ParseFormat(v)
		if err != nil {
			return err
		}
		cfg.Format = f
	}
	if v, ok := boolFlag(cmd, "json-export"); ok {
		cfg.JSONExport = v
	}
	if v, ok := boolFlag(cmd, "no-history"); ok {
		cfg.SaveHistory = !v
	}
	if v, ok := intFlag(cmd, "parallel"); ok {
		cfg.Parallel = v
	}
	return nil
}

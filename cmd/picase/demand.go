package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/picase/internal/config"
	"github.com/nao1215/picase/internal/demand"
	"github.com/nao1215/picase/internal/model"
	"github.com/nao1215/picase/internal/pipeline"
	"github.com/nao1215/picase/internal/report"
)

// NewDemandCmd creates the demand command.
func NewDemandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demand <case_folder|case_summary.json> [markdown|html]",
		Short: "Draft a settlement demand letter",
		Long: `Demand drafts a settlement demand letter to the defendant's insurance carrier.

The demand is medical specials plus pain and suffering, where pain and
suffering is specials times a multiplier chosen from the injury severity and
the strength of liability. The total is rounded to the nearest $500.

The input is either a case folder, which is aggregated first, or a
case_summary.json written by 'picase run'. Both demand_letter.md and
demand_letter.html are written unless a single format is given.

The law firm letterhead comes from the 'firm' block of the configuration file
(see 'picase init').

Examples:
  # Letter for a case folder, written into the folder
  picase demand ./cases/pi_case_001

  # Letter from an existing JSON export, HTML only
  picase demand ./cases/pi_case_001/case_summary.json html -o ./letters`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runDemandCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Directory for the letter (default: the case folder)")
	cmd.Flags().Int("response-days", demand.DefaultResponseDays,
		"Days the carrier has to respond")

	return cmd
}

// runDemandCmd executes the demand command.
func runDemandCmd(cmd *cobra.Command, args []string) error {
	formats := []report.Format{report.FormatMarkdown, report.FormatHTML}
	if len(args) > 1 {
		f, err := report.ParseFormat(args[1])
		if err == nil && f == report.FormatJSON {
			err = &report.FormatError{Value: args[1]}
		}
		if err != nil {
			return usageError(cmd, err)
		}
		formats = []report.Format{f}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.CaseFolders = args[:1]
	if v, ok := intFlag(cmd, "response-days"); ok {
		cfg.ResponseDays = v
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	input := args[0]
	record, err := loadRecord(ctx, input, logger)
	if err != nil {
		return err
	}

	outDir, _ := stringFlag(cmd, "output")
	if outDir == "" {
		outDir = input
		if isJSONFile(input) {
			outDir = filepath.Dir(input)
		}
	}

	calc, written, err := writeDemandLetters(cfg, outDir, formats, record)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, path := range written {
		fmt.Fprintf(out, "Demand letter written to: %s\n", path)
	}
	printCalculation(out, record, calc)
	return nil
}

// loadRecord aggregates a case folder or reads a JSON export.
func loadRecord(ctx context.Context, input string, logger *slog.Logger) (*model.CaseRecord, error) {
	if !isJSONFile(input) {
		record, err := pipeline.Aggregate(ctx, input, pipeline.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to process case folder %s: %w", input, err)
		}
		return record, nil
	}

	data, err := os.ReadFile(input) //nolint:gosec // the path is the user's own export
	if err != nil {
		return nil, fmt.Errorf("failed to read case summary: %w", err)
	}
	var record model.CaseRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse case summary %s: %w", input, err)
	}
	logger.Debug("case summary loaded", "case", record.CaseID, "path", input)
	return &record, nil
}

func isJSONFile(path string) bool {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// writeDemandLetters renders one letter per format into dir. Every letter is
// rendered before the first is written, so a case without specials leaves no
// files behind.
func writeDemandLetters(cfg *config.Config, dir string, formats []report.Format, record *model.CaseRecord) (*demand.Calculation, []string, error) {
	gen := demand.NewGenerator(cfg.DemandOptions()...)

	var (
		calc    *demand.Calculation
		letters = make(map[string][]byte, len(formats))
		paths   = make([]string, 0, len(formats))
	)
	for _, f := range formats {
		var buf bytes.Buffer
		c, err := gen.Write(&buf, f, record)
		if err != nil {
			if errors.Is(err, demand.ErrNoSpecials) {
				return nil, nil, fmt.Errorf("cannot draft a demand for %s: %w", record.CaseID, err)
			}
			return nil, nil, err
		}
		calc = c
		path := filepath.Join(dir, config.DefaultDemandBase+"."+f.Extension())
		letters[path] = buf.Bytes()
		paths = append(paths, path)
	}

	for _, path := range paths {
		if err := writeFile(path, letters[path]); err != nil {
			return nil, nil, err
		}
	}
	return calc, paths, nil
}

// printCalculation prints how the demand was reached.
func printCalculation(w io.Writer, record *model.CaseRecord, calc *demand.Calculation) {
	fmt.Fprintf(w, "\nDemand Calculation: %s\n", record.CaseID)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "  Injury Severity:     %s\n", calc.SeverityName)
	fmt.Fprintf(w, "  Liability Strength:  %.0f%%\n", calc.LiabilityStrength*100)
	fmt.Fprintf(w, "  Multiplier:          %.1fx (range %.1fx-%.1fx)\n",
		calc.Multiplier, calc.MultiplierLow, calc.MultiplierHigh)
	fmt.Fprintf(w, "  Medical Specials:    %s\n", calc.Specials)
	fmt.Fprintf(w, "  Pain & Suffering:    %s\n", calc.PainAndSuffering)
	fmt.Fprintf(w, "  TOTAL DEMAND:        %s\n", calc.Demand)
	if calc.ExceedsCoverage {
		fmt.Fprintf(w, "\n  Note: the demand exceeds the defendant's bodily injury limit of %s.\n",
			calc.DefendantBI.Whole())
	}
}

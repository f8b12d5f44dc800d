package main

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/nao1215/picase/internal/demand"
	"github.com/nao1215/picase/internal/pipeline"
	"github.com/nao1215/picase/internal/report"
)

// previewStyles are the glamour styles accepted by --style.
var previewStyles = []string{"auto", "dark", "light", "notty", "ascii"}

// defaultPreviewWidth is the word wrap width of the preview.
const defaultPreviewWidth = 80

// NewPreviewCmd creates the preview command.
func NewPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <case_folder>",
		Short: "Show the case summary in the terminal",
		Long: `Preview aggregates a case folder and prints the Markdown case summary styled
for the terminal. Nothing is written to disk and no history is recorded.

Examples:
  # Preview with a style matching the terminal background
  picase preview ./cases/pi_case_001

  # Preview the demand letter without colors
  picase preview --demand --style notty ./cases/pi_case_001`,
		Args: cobra.ExactArgs(1),
		RunE: runPreviewCmd,
	}

	cmd.Flags().StringP("style", "s", "auto",
		"Terminal style: auto, dark, light, notty or ascii")
	cmd.Flags().IntP("width", "w", defaultPreviewWidth,
		"Word wrap width")
	cmd.Flags().Bool("demand", false,
		"Preview the demand letter instead of the case summary")

	return cmd
}

// runPreviewCmd executes the preview command.
func runPreviewCmd(cmd *cobra.Command, args []string) error {
	style, err := cmd.Flags().GetString("style")
	if err != nil {
		return err
	}
	width, err := cmd.Flags().GetInt("width")
	if err != nil {
		return err
	}
	letter, err := cmd.Flags().GetBool("demand")
	if err != nil {
		return err
	}

	renderer, err := newTermRenderer(style, width)
	if err != nil {
		return usageError(cmd, err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg)
	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	folder := args[0]
	record, err := pipeline.Aggregate(ctx, folder, pipeline.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to process case folder %s: %w", folder, err)
	}

	var src bytes.Buffer
	if letter {
		gen := demand.NewGenerator(cfg.DemandOptions()...)
		if _, err := gen.WriteMarkdown(&src, record); err != nil {
			return err
		}
	} else if _, err := report.NewMarkdownWriter(&src).Write(record); err != nil {
		return err
	}

	styled, err := renderer.Render(src.String())
	if err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), styled)
	return err
}

// newTermRenderer creates the glamour renderer for style.
func newTermRenderer(style string, width int) (*glamour.TermRenderer, error) {
	if !slices.Contains(previewStyles, style) {
		return nil, fmt.Errorf("unknown preview style %q: must be one of %v", style, previewStyles)
	}
	if width <= 0 {
		return nil, fmt.Errorf("preview width must be positive, got %d", width)
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	return glamour.NewTermRenderer(opts...)
}

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/picase/internal/model"
)

// SummaryWriter outputs a short plain-text summary for terminal display.
// It is printed after a report has been written to disk.
type SummaryWriter struct {
	baseWriter

	// verbose adds recommended actions and data-quality issues.
	verbose bool
}

// SummaryWriterOption configures a SummaryWriter.
type SummaryWriterOption func(*SummaryWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SummaryWriterOption {
	return func(w *SummaryWriter) {
		w.verbose = verbose
	}
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer, opts ...SummaryWriterOption) *SummaryWriter {
	w := &SummaryWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary.
func (w *SummaryWriter) Write(record *model.CaseRecord) (int, error) {
	var sb strings.Builder

	sb.WriteString("\nCase Summary: " + record.CaseID + "\n")
	sb.WriteString(strings.Repeat("-", 60) + "\n")

	fmt.Fprintf(&sb, "  Plaintiff:         %s\n", orDefault(record.Plaintiff.Name, "Not documented"))

	accident := orDefault(record.Accident.Date, "Date not documented")
	if record.Accident.Location != "" {
		accident += " at " + record.Accident.Location
	}
	fmt.Fprintf(&sb, "  Accident:          %s\n", accident)
	fmt.Fprintf(&sb, "  Diagnoses:         %d\n", len(record.Injuries.Diagnoses))
	fmt.Fprintf(&sb, "  Medical Specials:  %s\n", record.Bills.TotalBilled)
	fmt.Fprintf(&sb, "  Total Coverage:    %s\n", record.Coverage.TotalAvailable)

	meets := "Needs Review"
	if record.Threshold.MeetsThreshold {
		meets = "Yes"
	}
	fmt.Fprintf(&sb, "  Serious Injury:    %s\n", meets)

	if record.HasIssues() {
		fmt.Fprintf(&sb, "  Data Quality:      %d issue(s)\n", len(record.DataQuality))
	}

	if w.verbose {
		if len(record.RecommendedActions) > 0 {
			sb.WriteString("\nRecommended Actions:\n")
			for i, a := range record.RecommendedActions {
				fmt.Fprintf(&sb, "  %2d. %s\n", i+1, a)
			}
		}
		if record.HasIssues() {
			sb.WriteString("\nData Quality Issues:\n")
			for _, issue := range record.DataQuality {
				fmt.Fprintf(&sb, "  [%s] %s\n", issue.Section, issue.Message)
			}
		}
	}

	return w.output.Write([]byte(sb.String()))
}

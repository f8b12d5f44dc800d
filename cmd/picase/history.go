package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/picase/internal/database"
	"github.com/nao1215/picase/internal/model"
)

const timestampLayout = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// This command compares rendered cases with snapshots stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [case_id]",
		Short: "Show how a case changed between runs",
		Long: `History compares the two latest snapshots of a case and shows:
- Changes in billed, outstanding and available coverage amounts
- Whether the serious injury threshold assessment changed
- Diagnoses, recommended actions and data-quality issues added or removed

A snapshot is recorded each time 'picase run' or 'picase batch' renders a case
whose documents changed. The case id is the case folder name.

Examples:
  # Compare the latest two snapshots
  picase history pi_case_001

  # List the snapshots of a case
  picase history --list pi_case_001

  # Compare the latest snapshot with snapshot 3
  picase history --with-id 3 pi_case_001

  # List every case in the database
  picase history --list-cases`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List the snapshots of the case")
	cmd.Flags().BoolP("list-cases", "L", false,
		"List every case in the database")
	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare the latest snapshot with this snapshot id (see --list)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the comparison as JSON")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listCases, err := cmd.Flags().GetBool("list-cases")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var caseID string
	if !listCases {
		if len(args) == 0 {
			return errors.New("case id is required (use --list-cases to see recorded cases)")
		}
		caseID = args[0]
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	db, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if listCases {
		return listRecordedCases(ctx, out, db)
	}

	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list {
		return listSnapshots(ctx, out, db, caseID)
	}

	withID, err := cmd.Flags().GetInt64("with-id")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	comparison, err := runComparison(ctx, db, caseID, withID)
	if err != nil {
		return err
	}
	if jsonOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(comparison)
	}
	outputComparisonText(out, comparison)
	return nil
}

// listRecordedCases lists every case that has snapshots.
func listRecordedCases(ctx context.Context, w io.Writer, db *database.CaseDB) error {
	cases, err := db.ListCases(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cases: %w", err)
	}

	if len(cases) == 0 {
		fmt.Fprintln(w, "No cases found in the history database.")
		fmt.Fprintln(w, "\nUse 'picase run <case_folder>' to render a case.")
		return nil
	}

	fmt.Fprintf(w, "Recorded cases (%d):\n\n", len(cases))
	fmt.Fprintf(w, "  %-24s  %-9s  %s\n", "Case", "Snapshots", "Last Run")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 60))
	for _, c := range cases {
		fmt.Fprintf(w, "  %-24s  %-9d  %s\n", c.CaseID, c.Snapshots, c.LastRun.Format(timestampLayout))
	}
	fmt.Fprintln(w, "\nUse 'picase history --list <case_id>' to see the snapshots of a case.")
	return nil
}

// listSnapshots lists the snapshots of one case, newest first.
func listSnapshots(ctx context.Context, w io.Writer, db *database.CaseDB, caseID string) error {
	snapshots, err := db.ListSnapshots(ctx, caseID)
	if err != nil {
		return fmt.Errorf("failed to get case history: %w", err)
	}

	if len(snapshots) == 0 {
		fmt.Fprintf(w, "No history found for %s\n", caseID)
		fmt.Fprintln(w, "\nUse 'picase run <case_folder>' to render this case.")
		return nil
	}

	fmt.Fprintf(w, "History for %s (%d snapshots):\n\n", caseID, len(snapshots))
	fmt.Fprintf(w, "  %-6s  %-20s  %-14s  %-14s  %s\n", "ID", "Date", "Billed", "Outstanding", "Threshold")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 72))
	for _, s := range snapshots {
		fmt.Fprintf(w, "  %-6d  %-20s  %-14s  %-14s  %s\n",
			s.ID,
			s.Timestamp.Format(timestampLayout),
			s.TotalBilled,
			s.TotalOutstanding,
			thresholdStatus(s.MeetsThreshold),
		)
	}

	fmt.Fprintf(w, "\nUse 'picase history %s' to compare the latest two snapshots.\n", caseID)
	fmt.Fprintf(w, "Use 'picase history --with-id <id> %s' to compare with a specific snapshot.\n", caseID)
	return nil
}

// Comparison holds the changes between two snapshots of a case.
type Comparison struct {
	CaseID   string            `json:"case_id"`
	Previous database.Snapshot `json:"previous"`
	Current  database.Snapshot `json:"current"`

	BilledDelta      model.Money `json:"billed_delta"`
	OutstandingDelta model.Money `json:"outstanding_delta"`
	CoverageDelta    model.Money `json:"coverage_delta"`

	// ThresholdChange is "met", "no longer met" or empty when unchanged.
	ThresholdChange string `json:"threshold_change,omitempty"`

	NewDiagnoses     []string `json:"new_diagnoses,omitempty"`
	RemovedDiagnoses []string `json:"removed_diagnoses,omitempty"`
	NewActions       []string `json:"new_actions,omitempty"`
	CompletedActions []string `json:"completed_actions,omitempty"`
	NewIssues        []string `json:"new_issues,omitempty"`
	ResolvedIssues   []string `json:"resolved_issues,omitempty"`
}

// Changed reports whether anything differs between the snapshots.
func (c *Comparison) Changed() bool {
	return c.BilledDelta != 0 || c.OutstandingDelta != 0 || c.CoverageDelta != 0 ||
		c.ThresholdChange != "" ||
		len(c.NewDiagnoses)+len(c.RemovedDiagnoses) > 0 ||
		len(c.NewActions)+len(c.CompletedActions) > 0 ||
		len(c.NewIssues)+len(c.ResolvedIssues) > 0
}

// runComparison loads the snapshots to compare: the latest against the one
// before it, or against withID when given.
func runComparison(ctx context.Context, db *database.CaseDB, caseID string, withID int64) (*Comparison, error) {
	snapshots, err := db.ListSnapshots(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get case history: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("no history found for %s", caseID)
	}

	currentID := snapshots[0].ID
	var previousID int64
	switch {
	case withID > 0:
		if withID == currentID {
			return nil, fmt.Errorf("snapshot %d is the latest snapshot; choose an older one", withID)
		}
		previousID = withID
	case len(snapshots) < 2:
		return nil, fmt.Errorf("at least 2 snapshots are required for comparison (found %d)", len(snapshots))
	default:
		previousID = snapshots[1].ID
	}

	current, currentRecord, err := db.GetSnapshot(ctx, currentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %d: %w", currentID, err)
	}
	previous, previousRecord, err := db.GetSnapshot(ctx, previousID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %d: %w", previousID, err)
	}
	if previous.CaseID != caseID {
		return nil, fmt.Errorf("snapshot %d belongs to %s, not %s", previousID, previous.CaseID, caseID)
	}

	return compareSnapshots(previous, current, previousRecord, currentRecord), nil
}

// compareSnapshots compares two snapshots of the same case.
func compareSnapshots(previous, current *database.Snapshot, previousRecord, currentRecord *model.CaseRecord) *Comparison {
	c := &Comparison{
		CaseID:           current.CaseID,
		Previous:         *previous,
		Current:          *current,
		BilledDelta:      current.TotalBilled - previous.TotalBilled,
		OutstandingDelta: current.TotalOutstanding - previous.TotalOutstanding,
		CoverageDelta:    current.TotalCoverage - previous.TotalCoverage,
	}

	switch {
	case current.MeetsThreshold && !previous.MeetsThreshold:
		c.ThresholdChange = "met"
	case !current.MeetsThreshold && previous.MeetsThreshold:
		c.ThresholdChange = "no longer met"
	}

	c.NewDiagnoses, c.RemovedDiagnoses = diff(previousRecord.Injuries.Diagnoses, currentRecord.Injuries.Diagnoses)
	c.NewActions, c.CompletedActions = diff(previousRecord.RecommendedActions, currentRecord.RecommendedActions)
	c.NewIssues, c.ResolvedIssues = diff(issueTexts(previousRecord), issueTexts(currentRecord))
	return c
}

// diff returns the items only in current and the items only in previous,
// each in their original order.
func diff(previous, current []string) (added, removed []string) {
	for _, s := range current {
		if !slices.Contains(previous, s) {
			added = append(added, s)
		}
	}
	for _, s := range previous {
		if !slices.Contains(current, s) {
			removed = append(removed, s)
		}
	}
	return added, removed
}

func issueTexts(record *model.CaseRecord) []string {
	texts := make([]string, 0, len(record.DataQuality))
	for _, issue := range record.DataQuality {
		texts = append(texts, "["+issue.Section+"] "+issue.Message)
	}
	return texts
}

// outputComparisonText prints the comparison in human-readable form.
func outputComparisonText(w io.Writer, c *Comparison) {
	fmt.Fprintf(w, "Case Comparison: %s\n", c.CaseID)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "\nPrevious snapshot: #%d %s\n", c.Previous.ID, c.Previous.Timestamp.Format(timestampLayout))
	fmt.Fprintf(w, "Current snapshot:  #%d %s\n", c.Current.ID, c.Current.Timestamp.Format(timestampLayout))

	fmt.Fprintln(w, "\nAmounts:")
	fmt.Fprintf(w, "  %-18s  %-14s  %-14s  %s\n", "", "Previous", "Current", "Change")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 62))
	amount := func(label string, prev, cur, delta model.Money) {
		fmt.Fprintf(w, "  %-18s  %-14s  %-14s  %s\n", label, prev, cur, formatDelta(delta))
	}
	amount("Total Billed", c.Previous.TotalBilled, c.Current.TotalBilled, c.BilledDelta)
	amount("Outstanding", c.Previous.TotalOutstanding, c.Current.TotalOutstanding, c.OutstandingDelta)
	amount("Coverage", c.Previous.TotalCoverage, c.Current.TotalCoverage, c.CoverageDelta)

	fmt.Fprintf(w, "\nSerious Injury Threshold: %s", thresholdStatus(c.Current.MeetsThreshold))
	if c.ThresholdChange != "" {
		fmt.Fprintf(w, " (%s since previous snapshot)", c.ThresholdChange)
	}
	fmt.Fprintln(w)

	changes := func(title, marker string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s (%d):\n", title, len(items))
		for _, item := range items {
			fmt.Fprintf(w, "  [%s] %s\n", marker, item)
		}
	}
	changes("New Diagnoses", "+", c.NewDiagnoses)
	changes("Removed Diagnoses", "-", c.RemovedDiagnoses)
	changes("New Actions", "+", c.NewActions)
	changes("Completed Actions", "-", c.CompletedActions)
	changes("New Data Quality Issues", "+", c.NewIssues)
	changes("Resolved Data Quality Issues", "-", c.ResolvedIssues)

	if !c.Changed() {
		fmt.Fprintln(w, "\nNo changes between the snapshots.")
	}
}

func thresholdStatus(meets bool) string {
	if meets {
		return "Meets threshold"
	}
	return "Needs review"
}

// formatDelta formats a money delta with its sign.
func formatDelta(delta model.Money) string {
	if delta > 0 {
		return "+" + delta.String()
	}
	if delta < 0 {
		return delta.String()
	}
	return "0"
}

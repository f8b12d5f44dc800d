package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/picase/internal/database"
	"github.com/nao1215/picase/internal/model"
	"github.com/nao1215/picase/internal/pipeline"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
}

func aggregateSample(t *testing.T) *model.CaseRecord {
	t.Helper()
	record, err := pipeline.Aggregate(context.Background(), sampleCase, pipeline.WithClock(fixedClock))
	if err != nil {
		t.Fatalf("failed to aggregate sample case: %v", err)
	}
	return record
}

// seedHistory stores two snapshots of the sample case in dbDir: the first
// without the threshold met, the second with an extra bill, an extra
// diagnosis and the first recommended action completed.
func seedHistory(t *testing.T, dbDir string) (before, after *model.CaseRecord) {
	t.Helper()

	before = aggregateSample(t)
	before.Threshold.MeetsThreshold = false

	after = aggregateSample(t)
	after.GeneratedAt = after.GeneratedAt.Add(24 * time.Hour)
	after.Bills.TotalBilled += model.Dollars(500)
	after.Bills.TotalOutstanding += model.Dollars(500)
	after.Injuries.Diagnoses = append(after.Injuries.Diagnoses, "Rotator cuff tear")
	after.RecommendedActions = after.RecommendedActions[1:]

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	for _, r := range []*model.CaseRecord{before, after} {
		if _, saved, err := db.SaveSnapshot(context.Background(), r, sampleCase); err != nil || !saved {
			t.Fatalf("failed to seed snapshot: saved=%v err=%v", saved, err)
		}
	}
	return before, after
}

func TestRunComparison(t *testing.T) {
	t.Parallel()

	dbDir := t.TempDir()
	before, _ := seedHistory(t, dbDir)

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	t.Run("latest two snapshots", func(t *testing.T) {
		c, err := runComparison(ctx, db, "pi_case_001", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Previous.ID != 1 || c.Current.ID != 2 {
			t.Errorf("expected snapshots 1 and 2, got %d and %d", c.Previous.ID, c.Current.ID)
		}
		if c.BilledDelta != model.Dollars(500) || c.OutstandingDelta != model.Dollars(500) || c.CoverageDelta != 0 {
			t.Errorf("unexpected deltas: %s %s %s", c.BilledDelta, c.OutstandingDelta, c.CoverageDelta)
		}
		if c.ThresholdChange != "met" {
			t.Errorf("expected threshold change 'met', got %q", c.ThresholdChange)
		}
		if diff := cmp.Diff([]string{"Rotator cuff tear"}, c.NewDiagnoses); diff != "" {
			t.Errorf("new diagnoses mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(before.RecommendedActions[:1], c.CompletedActions); diff != "" {
			t.Errorf("completed actions mismatch (-want +got):\n%s", diff)
		}
		if len(c.RemovedDiagnoses) != 0 || len(c.NewActions) != 0 {
			t.Errorf("unexpected changes: %+v", c)
		}
		if !c.Changed() {
			t.Error("expected Changed to be true")
		}
	})

	t.Run("with the latest id", func(t *testing.T) {
		if _, err := runComparison(ctx, db, "pi_case_001", 2); err == nil {
			t.Error("expected an error comparing the latest snapshot with itself")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := runComparison(ctx, db, "pi_case_001", 99); err == nil {
			t.Error("expected an error for an unknown snapshot")
		}
	})

	t.Run("unknown case", func(t *testing.T) {
		if _, err := runComparison(ctx, db, "pi_case_999", 0); err == nil {
			t.Error("expected an error for a case without history")
		}
	})
}

func TestDiff(t *testing.T) {
	t.Parallel()

	added, removed := diff([]string{"a", "b", "c"}, []string{"c", "d", "a"})
	if diff := cmp.Diff([]string{"d"}, added); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b"}, removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		delta    model.Money
		expected string
	}{
		{model.Dollars(500), "+$500.00"},
		{-model.Dollars(1250), "-$1,250.00"},
		{0, "0"},
	}
	for _, tc := range testCases {
		if got := formatDelta(tc.delta); got != tc.expected {
			t.Errorf("formatDelta(%d) = %q, expected %q", tc.delta, got, tc.expected)
		}
	}
}

// TestHistoryCmd reads a database selected through the environment, so it
// cannot run in parallel.
func TestHistoryCmd(t *testing.T) {
	dbDir := t.TempDir()
	t.Setenv("PICASE_DB_DIR", dbDir)
	seedHistory(t, dbDir)

	t.Run("text comparison", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "pi_case_001")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"Case Comparison: pi_case_001",
			"Previous snapshot: #1 2024-03-01 09:30:00",
			"Current snapshot:  #2 2024-03-02 09:30:00",
			"+$500.00",
			"Serious Injury Threshold: Meets threshold (met since previous snapshot)",
			"[+] Rotator cuff tear",
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
			}
		}
	})

	t.Run("json comparison", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "pi_case_001", "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var c Comparison
		if err := json.Unmarshal([]byte(stdout), &c); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if c.CaseID != "pi_case_001" || c.BilledDelta != model.Dollars(500) {
			t.Errorf("unexpected comparison: %+v", c)
		}
	})

	t.Run("list snapshots", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "--list", "pi_case_001")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "History for pi_case_001 (2 snapshots)") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("list cases", func(t *testing.T) {
		stdout, _, err := execute(t, "history", "--list-cases")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Recorded cases (1)") || !strings.Contains(stdout, "pi_case_001") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
	})

	t.Run("requires a case id", func(t *testing.T) {
		if _, _, err := execute(t, "history"); err == nil {
			t.Error("expected an error")
		}
	})
}

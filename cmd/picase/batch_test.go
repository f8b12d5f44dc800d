package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewBatchCmd tests the batch command creation.
func TestNewBatchCmd(t *testing.T) {
	t.Parallel()

	cmd := NewBatchCmd()

	t.Run("has parallel flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("parallel")
		if flag == nil {
			t.Fatal("expected parallel flag")
		}
		if flag.Shorthand != "p" || flag.DefValue != "4" {
			t.Errorf("unexpected parallel flag: -%s default %s", flag.Shorthand, flag.DefValue)
		}
	})

	t.Run("has format flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("format")
		if flag == nil {
			t.Fatal("expected format flag")
		}
		if flag.DefValue != "markdown" {
			t.Errorf("expected default markdown, got %q", flag.DefValue)
		}
	})
}

func TestBatchCmd(t *testing.T) {
	t.Parallel()

	t.Run("renders every case", func(t *testing.T) {
		t.Parallel()
		first := copyCase(t, "pi_case_001")
		second := copyCase(t, "pi_case_002")

		stdout, _, err := execute(t, "batch", "--format", "html", "--parallel", "2", "--no-history", first, second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, dir := range []string{first, second} {
			if !fileExists(filepath.Join(dir, "case_summary.html")) {
				t.Errorf("expected an html report in %s", dir)
			}
			if !fileExists(filepath.Join(dir, "case_summary.json")) {
				t.Errorf("expected a JSON export in %s", dir)
			}
		}
		if !strings.Contains(stdout, "Processed 2 case(s): 2 succeeded, 0 failed") {
			t.Errorf("unexpected output:\n%s", stdout)
		}
		if !strings.Contains(stdout, "specials $6,290.00, meets threshold") {
			t.Errorf("expected a per-case line, got:\n%s", stdout)
		}
	})

	t.Run("a failing case does not stop the others", func(t *testing.T) {
		t.Parallel()
		good := copyCase(t, "pi_case_001")
		missing := filepath.Join(t.TempDir(), "missing")

		stdout, _, err := execute(t, "batch", "--no-history", good, missing)
		if err == nil || !strings.Contains(err.Error(), "1 of 2 case(s) failed") {
			t.Fatalf("expected a batch failure, got %v", err)
		}
		if !fileExists(filepath.Join(good, "case_summary.md")) {
			t.Error("expected the good case to be rendered")
		}
		if !strings.Contains(stdout, missing+": FAILED:") {
			t.Errorf("expected the failure to be reported, got:\n%s", stdout)
		}
	})

	t.Run("rejects an invalid format", func(t *testing.T) {
		t.Parallel()
		dir := copyCase(t, "pi_case_001")

		if _, _, err := execute(t, "batch", "--format", "pdf", "--no-history", dir); err == nil {
			t.Fatal("expected an error")
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), "case_summary") {
				t.Errorf("unexpected output file %s", e.Name())
			}
		}
	})

	t.Run("rejects a non-positive parallelism", func(t *testing.T) {
		t.Parallel()
		dir := copyCase(t, "pi_case_001")
		if _, _, err := execute(t, "batch", "--parallel", "0", "--no-history", dir); err == nil {
			t.Fatal("expected an error")
		}
	})
}

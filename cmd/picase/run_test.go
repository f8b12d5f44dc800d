package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/nao1215/picase/internal/database"
	"github.com/nao1215/picase/internal/idp"
	"github.com/nao1215/picase/internal/report"
)

// TestNewRunCmd tests the run command creation.
func TestNewRunCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRunCmd()
	for name, def := range map[string]string{"output": "", "json-export": "true", "no-history": "false"} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("expected %s flag", name)
			continue
		}
		if flag.DefValue != def {
			t.Errorf("%s: expected default %q, got %q", name, def, flag.DefValue)
		}
	}
}

func TestRunCmd(t *testing.T) {
	t.Parallel()

	t.Run("markdown by default with JSON export", func(t *testing.T) {
		t.Parallel()
		dir := copyCase(t, "pi_case_001")

		stdout, _, err := execute(t, "run", dir, "--no-history")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		mdPath := filepath.Join(dir, "case_summary.md")
		jsonPath := filepath.Join(dir, "case_summary.json")
		md, err := os.ReadFile(mdPath)
		if err != nil {
			t.Fatalf("expected markdown report: %v", err)
		}
		if !strings.HasPrefix(string(md), "# NY Personal Injury Case Summary") {
			t.Errorf("unexpected report start:\n%.200s", md)
		}
		if !fileExists(jsonPath) {
			t.Error("expected the JSON export")
		}

		info, err := os.Stat(mdPath)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}

		for _, want := range []string{
			"Report written to: " + mdPath,
			"Report written to: " + jsonPath,
			"Case Summary: pi_case_001",
			"Plaintiff:         Maria Rodriguez",
			"Medical Specials:  $6,290.00",
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
			}
		}
	})

	t.Run("html without JSON export", func(t *testing.T) {
		t.Parallel()
		dir := copyCase(t, "pi_case_001")

		if _, _, err := execute(t, "run", dir, "HTML", "--json-export=false", "--no-history"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		f, err := os.Open(filepath.Join(dir, "case_summary.html"))
		if err != nil {
			t.Fatalf("expected html report: %v", err)
		}
		defer f.Close()
		if _, err := html.Parse(f); err != nil {
			t.Errorf("report is not valid HTML: %v", err)
		}
		if fileExists(filepath.Join(dir, "case_summary.json")) {
			t.Error("JSON export should be disabled")
		}
	})

	t.Run("json writes a single file", func(t *testing.T) {
		t.Parallel()
		dir := copyCase(t, "pi_case_001")

		stdout, _, err := execute(t, "run", dir, "json", "--no-history")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fileExists(filepath.Join(dir, "case_summary.json")) {
			t.Error("expected case_summary.json")
		}
		if fileExists(filepath.Join(dir, "case_summary.md")) {
			t.Error("unexpected markdown report")
		}
		if got := strings.Count(stdout, "Report written to:"); got != 1 {
			t.Errorf("expected one written file, got %d", got)
		}
	})

	t.Run("output flag", func(t *testing.T) {
		t.Parallel()
		dir := copyCase(t, "pi_case_001")
		out := filepath.Join(t.TempDir(), "reports", "rodriguez.html")

		if _, _, err := execute(t, "run", dir, "html", "-o", out, "--no-history"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fileExists(out) {
			t.Error("expected report at the output path")
		}
		if !fileExists(filepath.Join(filepath.Dir(out), "rodriguez.json")) {
			t.Error("expected the JSON export next to the output path")
		}
		if fileExists(filepath.Join(dir, "case_summary.html")) {
			t.Error("nothing should be written to the case folder")
		}
	})

	t.Run("invalid format prints usage and writes nothing", func(t *testing.T) {
		t.Parallel()
		dir := copyCase(t, "pi_case_001")

		_, stderr, err := execute(t, "run", dir, "pdf", "--no-history")
		if !errors.Is(err, report.ErrInvalidFormat) {
			t.Fatalf("expected ErrInvalidFormat, got %v", err)
		}
		if !strings.Contains(stderr, "Usage:") {
			t.Errorf("expected usage on stderr, got:\n%s", stderr)
		}
		entries, err := filepath.Glob(filepath.Join(dir, "case_summary.*"))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("expected no output files, got %v", entries)
		}
	})

	t.Run("missing folder", func(t *testing.T) {
		t.Parallel()
		_, _, err := execute(t, "run", filepath.Join(t.TempDir(), "nope"), "--no-history")
		if !errors.Is(err, idp.ErrCaseFolderNotFound) {
			t.Errorf("expected ErrCaseFolderNotFound, got %v", err)
		}
	})

	t.Run("requires a case folder", func(t *testing.T) {
		t.Parallel()
		if _, _, err := execute(t, "run"); err == nil {
			t.Error("expected an error")
		}
	})
}

// TestRunCmdHistory records snapshots in a temporary database.
// It sets environment variables, so it cannot run in parallel.
func TestRunCmdHistory(t *testing.T) {
	dbDir := t.TempDir()
	t.Setenv("PICASE_DB_DIR", dbDir)
	dir := copyCase(t, "pi_case_001")

	for range 2 {
		if _, _, err := execute(t, "run", dir); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	db, err := database.Open(dbDir, database.ReadOnlyOptions())
	if err != nil {
		t.Fatalf("expected a history database: %v", err)
	}
	defer db.Close()

	snapshots, err := db.ListSnapshots(context.Background(), "pi_case_001")
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected unchanged documents to be recorded once, got %d snapshots", len(snapshots))
	}
	if snapshots[0].CaseFolder != dir {
		t.Errorf("expected case folder %q, got %q", dir, snapshots[0].CaseFolder)
	}
}

func TestJSONSibling(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path     string
		expected string
	}{
		{"case/case_summary.md", "case/case_summary.json"},
		{"out/report.html", "out/report.json"},
		{"report", "report.json"},
	}
	for _, tc := range testCases {
		if got := jsonSibling(tc.path); got != tc.expected {
			t.Errorf("jsonSibling(%q) = %q, expected %q", tc.path, got, tc.expected)
		}
	}
}

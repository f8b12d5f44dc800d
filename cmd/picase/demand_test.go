package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/picase/internal/demand"
	"github.com/nao1215/picase/internal/report"
)

func TestDemandCmd(t *testing.T) {
	t.Parallel()

	t.Run("writes both letters into the case folder", func(t *testing.T) {
		t.Parallel()
		dir := copyCase(t, "pi_case_001")

		stdout, _, err := execute(t, "demand", dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		md, err := os.ReadFile(filepath.Join(dir, "demand_letter.md"))
		if err != nil {
			t.Fatalf("expected markdown letter: %v", err)
		}
		if !strings.Contains(string(md), "## Introduction") {
			t.Error("expected the letter sections")
		}
		if !fileExists(filepath.Join(dir, "demand_letter.html")) {
			t.Error("expected html letter")
		}

		for _, want := range []string{
			"Demand Calculation: pi_case_001",
			"Injury Severity:     permanent",
			"Liability Strength:  100%",
			"Multiplier:          5.0x (range 3.0x-5.0x)",
			"Medical Specials:    $6,290.00",
			"Pain & Suffering:    $31,450.00",
			"TOTAL DEMAND:        $37,500.00",
		} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, stdout)
			}
		}
	})

	t.Run("single format into an output directory", func(t *testing.T) {
		t.Parallel()
		dir := copyCase(t, "pi_case_001")
		outDir := filepath.Join(t.TempDir(), "letters")

		if _, _, err := execute(t, "demand", dir, "html", "-o", outDir); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fileExists(filepath.Join(outDir, "demand_letter.html")) {
			t.Error("expected html letter in the output directory")
		}
		if fileExists(filepath.Join(outDir, "demand_letter.md")) {
			t.Error("unexpected markdown letter")
		}
	})

	t.Run("from a JSON export", func(t *testing.T) {
		t.Parallel()
		dir := copyCase(t, "pi_case_001")
		if _, _, err := execute(t, "run", dir, "json", "--no-history"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		stdout, _, err := execute(t, "demand", filepath.Join(dir, "case_summary.json"), "markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fileExists(filepath.Join(dir, "demand_letter.md")) {
			t.Error("expected the letter next to the JSON export")
		}
		if !strings.Contains(stdout, "TOTAL DEMAND:        $37,500.00") {
			t.Errorf("expected the same demand as the folder, got:\n%s", stdout)
		}
	})

	t.Run("response days flag", func(t *testing.T) {
		t.Parallel()
		dir := copyCase(t, "pi_case_001")
		if _, _, err := execute(t, "demand", dir, "markdown", "--response-days", "14"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		md, err := os.ReadFile(filepath.Join(dir, "demand_letter.md"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(md), "open for **14 days**") {
			t.Error("expected the response deadline to use 14 days")
		}
	})

	t.Run("json is not a letter format", func(t *testing.T) {
		t.Parallel()
		dir := copyCase(t, "pi_case_001")

		_, stderr, err := execute(t, "demand", dir, "json")
		if !errors.Is(err, report.ErrInvalidFormat) {
			t.Fatalf("expected ErrInvalidFormat, got %v", err)
		}
		if !strings.Contains(stderr, "Usage:") {
			t.Error("expected usage on stderr")
		}
	})

	t.Run("no specials leaves no files", func(t *testing.T) {
		t.Parallel()
		dir := copyCase(t, "pi_case_001")
		if err := os.RemoveAll(filepath.Join(dir, "MEDICAL_BILLS")); err != nil {
			t.Fatal(err)
		}

		_, _, err := execute(t, "demand", dir)
		if !errors.Is(err, demand.ErrNoSpecials) {
			t.Fatalf("expected ErrNoSpecials, got %v", err)
		}
		matches, err := filepath.Glob(filepath.Join(dir, "demand_letter.*"))
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 0 {
			t.Errorf("expected no letters, got %v", matches)
		}
	})
}

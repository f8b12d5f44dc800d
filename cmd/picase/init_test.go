package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/picase/internal/config"
	"github.com/nao1215/picase/internal/demand"
	"github.com/nao1215/picase/internal/report"
)

// TestNewInitCmd tests the init command creation.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
		if flag.DefValue != ".picase" {
			t.Errorf("expected default .picase, got %q", flag.DefValue)
		}
	})

	t.Run("has force flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("force")
		if flag == nil {
			t.Fatal("expected force flag")
		}
		if flag.Shorthand != "f" || flag.DefValue != "false" {
			t.Errorf("unexpected force flag: -%s default %s", flag.Shorthand, flag.DefValue)
		}
	})
}

// TestRunInitCmd tests the init command execution.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()
		outputPath := filepath.Join(t.TempDir(), "nested", ".picase")

		stdout, _, err := execute(t, "init", "-o", outputPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "Created configuration file: "+outputPath) {
			t.Errorf("unexpected output:\n%s", stdout)
		}

		info, err := os.Stat(outputPath)
		if err != nil {
			t.Fatalf("expected config file: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}

		file, err := config.LoadConfigFile(outputPath)
		if err != nil {
			t.Fatalf("template does not parse: %v", err)
		}
		if file.Firm != (demand.Firm{}) {
			t.Errorf("expected the firm block to be commented out, got %+v", file.Firm)
		}

		cfg := config.NewConfig()
		file.Apply(cfg)
		want := config.NewConfig()
		if cfg.Format != report.FormatMarkdown || cfg.Parallel != want.Parallel ||
			cfg.ResponseDays != want.ResponseDays || !cfg.JSONExport || !cfg.SaveHistory ||
			!cfg.CertifiedMail || !cfg.CCClient {
			t.Errorf("template should restate the built-in defaults, got %+v", cfg)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		t.Parallel()
		outputPath := filepath.Join(t.TempDir(), ".picase")
		if err := os.WriteFile(outputPath, []byte("existing"), 0600); err != nil {
			t.Fatal(err)
		}

		_, _, err := execute(t, "init", "-o", outputPath)
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Fatalf("expected an already exists error, got %v", err)
		}
		content, _ := os.ReadFile(outputPath)
		if string(content) != "existing" {
			t.Error("existing file was modified")
		}
	})

	t.Run("force overwrites", func(t *testing.T) {
		t.Parallel()
		outputPath := filepath.Join(t.TempDir(), ".picase")
		if err := os.WriteFile(outputPath, []byte("existing"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, _, err := execute(t, "init", "-o", outputPath, "-f"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		content, _ := os.ReadFile(outputPath)
		if !strings.Contains(string(content), "defaults:") {
			t.Error("expected the template to replace the file")
		}
	})
}

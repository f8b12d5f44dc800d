package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/picase/internal/config"
	"github.com/nao1215/picase/internal/database"
	pilog "github.com/nao1215/picase/internal/log"
	"github.com/nao1215/picase/internal/model"
	"github.com/nao1215/picase/internal/report"
)

// loadConfig builds the configuration for cmd: defaults, then the
// configuration file, then PICASE_* variables, then the global flags.
// Command specific flags are applied by each command.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := stringFlag(cmd, "config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	if v, ok := boolFlag(cmd, "verbose"); ok {
		cfg.Verbose = v
	}
	if v, ok := boolFlag(cmd, "log-json"); ok {
		cfg.LogJSON = v
	}
	return cfg, nil
}

// boolFlag returns the value of a boolean flag and whether it was given on
// the command line. Flags the command does not define count as not given.
func boolFlag(cmd *cobra.Command, name string) (bool, bool) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil || !flag.Changed {
		return false, false
	}
	v, err := cmd.Flags().GetBool(name)
	return v, err == nil
}

// stringFlag is boolFlag for string flags.
func stringFlag(cmd *cobra.Command, name string) (string, bool) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil || !flag.Changed {
		return "", false
	}
	v, err := cmd.Flags().GetString(name)
	return v, err == nil
}

// intFlag is boolFlag for int flags.
func intFlag(cmd *cobra.Command, name string) (int, bool) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil || !flag.Changed {
		return 0, false
	}
	v, err := cmd.Flags().GetInt(name)
	return v, err == nil
}

// setupLogger creates the redacting logger selected by cfg.
// Logs go to stderr so that report output on stdout stays clean.
func setupLogger(cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return pilog.NewSecureJSONLogger(os.Stderr, cfg.Verbose)
	}
	return pilog.NewSecureLogger(os.Stderr, cfg.Verbose)
}

// signalContext returns a context that is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// outputPath returns the report path for a case folder: the configured
// output file, or case_summary.<ext> inside the folder.
func outputPath(cfg *config.Config, folder string) string {
	if cfg.OutputFile != "" {
		return cfg.OutputFile
	}
	return filepath.Join(folder, config.DefaultOutputBase+"."+cfg.Format.Extension())
}

// jsonSibling returns path with its extension replaced by .json.
func jsonSibling(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
}

// renderReport renders the record in format.
func renderReport(format report.Format, record *model.CaseRecord) ([]byte, error) {
	var buf bytes.Buffer
	w, err := report.NewWriter(format, &buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(record); err != nil {
		return nil, fmt.Errorf("failed to render %s report: %w", format, err)
	}
	return buf.Bytes(), nil
}

// writeFile writes data to path, creating parent directories as needed.
// Reports hold medical and insurance details, so files are readable by the
// owner only.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// writeCaseOutputs renders the record in the configured format and, unless
// disabled, its JSON export. Everything is rendered before the first file is
// written. It returns the paths written.
func writeCaseOutputs(cfg *config.Config, folder string, record *model.CaseRecord) ([]string, error) {
	type output struct {
		path string
		data []byte
	}

	path := outputPath(cfg, folder)
	data, err := renderReport(cfg.Format, record)
	if err != nil {
		return nil, err
	}
	outputs := []output{{path: path, data: data}}

	if cfg.JSONExport && cfg.Format != report.FormatJSON {
		if jsonPath := jsonSibling(path); jsonPath != path {
			data, err := renderReport(report.FormatJSON, record)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, output{path: jsonPath, data: data})
		}
	}

	written := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if err := writeFile(o.path, o.data); err != nil {
			return written, err
		}
		written = append(written, o.path)
	}
	return written, nil
}

// openHistory opens the history database in the configured directory.
func openHistory(cfg *config.Config) (*database.CaseDB, error) {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return db, nil
}

// saveSnapshot stores a history snapshot of record. Failures are logged and
// never fail the command.
func saveSnapshot(ctx context.Context, db *database.CaseDB, record *model.CaseRecord, folder string, logger *slog.Logger) {
	if abs, err := filepath.Abs(folder); err == nil {
		folder = abs
	}

	snapshot, saved, err := db.SaveSnapshot(ctx, record, folder)
	if err != nil {
		logger.Warn("failed to save case history", "case", record.CaseID, "error", err)
		return
	}
	if !saved {
		logger.Debug("case unchanged since last snapshot", "case", record.CaseID, "snapshot", snapshot.ID)
		return
	}
	logger.Debug("case snapshot saved", "case", record.CaseID, "snapshot", snapshot.ID)
}

// usageError prints the command usage to stderr and returns err.
func usageError(cmd *cobra.Command, err error) error {
	fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	return err
}

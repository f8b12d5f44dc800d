package config

import (
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/nao1215/picase/internal/demand"
	"github.com/nao1215/picase/internal/report"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "picase"

	// DefaultParallel is the number of case folders a batch processes at once.
	// Aggregation is I/O light, so a small pool keeps memory flat on large batches.
	DefaultParallel = 4

	// DefaultDBFile is the history database file name inside DBDir.
	DefaultDBFile = "picase.db"

	// DefaultOutputBase is the file name, without extension, of the rendered
	// summary written into the case folder.
	DefaultOutputBase = "case_summary"

	// DefaultDemandBase is the file name, without extension, of the demand letter.
	DefaultDemandBase = "demand_letter"
)

// Config holds all configuration options for picase.
// It is populated from defaults, the configuration file, the environment and
// finally command line flags, and is passed down explicitly.
type Config struct {
	// CaseFolders are the case folders to process.
	CaseFolders []string

	// Format is the output format of the case summary.
	Format report.Format

	// OutputFile overrides the derived output path. Only valid with a
	// single case folder.
	OutputFile string

	// JSONExport writes case_summary.json next to a Markdown or HTML summary.
	JSONExport bool

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches the log handler from text to JSON.
	LogJSON bool

	// Parallel bounds the number of cases processed concurrently.
	Parallel int

	// ConfigFilePath is the explicit configuration file, if any.
	ConfigFilePath string

	// DBDir is the directory holding the history database.
	// Defaults to the XDG data directory (~/.local/share/picase on Linux).
	DBDir string

	// SaveHistory stores a snapshot of every rendered case.
	SaveHistory bool

	// Firm is the law firm printed on demand letters.
	Firm demand.Firm

	// ResponseDays is how long a demand stays open.
	ResponseDays int

	// CertifiedMail prints the certified mail line on demand letters.
	CertifiedMail bool

	// CCClient copies the client on demand letters.
	CCClient bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Format:        report.DefaultFormat,
		JSONExport:    true,
		Parallel:      DefaultParallel,
		DBDir:         XDGDataDir(),
		SaveHistory:   true,
		Firm:          demand.DefaultFirm(),
		ResponseDays:  demand.DefaultResponseDays,
		CertifiedMail: true,
		CCClient:      true,
	}
}

// XDGDataDir returns the XDG data directory for picase.
// On Linux: ~/.local/share/picase
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for picase.
// On Linux: ~/.config/picase
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DBPath returns the path of the history database.
func (c *Config) DBPath() string {
	return filepath.Join(c.DBDir, DefaultDBFile)
}

// DemandOptions returns the demand letter options the configuration selects.
func (c *Config) DemandOptions() []demand.Option {
	return []demand.Option{
		demand.WithFirm(c.Firm),
		demand.WithResponseDays(c.ResponseDays),
		demand.WithCertifiedMail(c.CertifiedMail),
		demand.WithCCClient(c.CCClient),
	}
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.CaseFolders) == 0 {
		return ErrNoCaseFolder
	}
	if _, err := report.ParseFormat(string(c.Format)); err != nil {
		return err
	}
	if c.Parallel <= 0 {
		return ErrInvalidParallel
	}
	if c.ResponseDays <= 0 {
		return ErrInvalidResponseDays
	}
	if c.OutputFile != "" && len(c.CaseFolders) > 1 {
		return ErrOutputWithBatch
	}
	if c.SaveHistory && c.DBDir == "" {
		return ErrNoDBDir
	}
	return nil
}

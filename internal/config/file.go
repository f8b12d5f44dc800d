package config

import (
	"github.com/nao1215/picase/internal/demand"
	"github.com/nao1215/picase/internal/report"
)

// File represents the structure of the .picase configuration file.
type File struct {
	// Firm is the law firm printed on demand letters.
	Firm demand.Firm `yaml:"firm,omitempty"`

	// Defaults overrides the built-in defaults.
	Defaults Defaults `yaml:"defaults,omitempty"`
}

// Defaults holds the settings a configuration file may override.
// Unset fields keep the built-in default.
type Defaults struct {
	Format     string `yaml:"format,omitempty"`
	JSONExport *bool  `yaml:"json_export,omitempty"`
	Parallel   int    `yaml:"parallel,omitempty"`
	DBDir      string `yaml:"db_dir,omitempty"`
	History    *bool  `yaml:"history,omitempty"`

	ResponseDays  int   `yaml:"response_days,omitempty"`
	CertifiedMail *bool `yaml:"certified_mail,omitempty"`
	CCClient      *bool `yaml:"cc_client,omitempty"`
}

// Apply copies every setting present in the file onto c.
func (f *File) Apply(c *Config) {
	if f.Firm != (demand.Firm{}) {
		c.Firm = f.Firm
	}

	d := f.Defaults
	if d.Format != "" {
		c.Format = report.Format(d.Format)
	}
	if d.JSONExport != nil {
		c.JSONExport = *d.JSONExport
	}
	if d.Parallel != 0 {
		c.Parallel = d.Parallel
	}
	if d.DBDir != "" {
		c.DBDir = d.DBDir
	}
	if d.History != nil {
		c.SaveHistory = *d.History
	}
	if d.ResponseDays != 0 {
		c.ResponseDays = d.ResponseDays
	}
	if d.CertifiedMail != nil {
		c.CertifiedMail = *d.CertifiedMail
	}
	if d.CCClient != nil {
		c.CCClient = *d.CCClient
	}
}

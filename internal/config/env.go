package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/nao1215/picase/internal/report"
)

// Env holds the PICASE_* environment overrides.
// Unset variables leave the configuration untouched.
type Env struct {
	ConfigFile string `env:"PICASE_CONFIG"`
	Format     string `env:"PICASE_FORMAT"`
	Parallel   int    `env:"PICASE_PARALLEL"`
	DBDir      string `env:"PICASE_DB_DIR"`
	Verbose    bool   `env:"PICASE_VERBOSE"`
	LogJSON    bool   `env:"PICASE_LOG_JSON"`
	NoHistory  bool   `env:"PICASE_NO_HISTORY"`
}

// ParseEnv reads the PICASE_* environment variables.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Apply copies every variable that is set onto c.
func (e Env) Apply(c *Config) {
	if e.Format != "" {
		c.Format = report.Format(e.Format)
	}
	if e.Parallel != 0 {
		c.Parallel = e.Parallel
	}
	if e.DBDir != "" {
		c.DBDir = e.DBDir
	}
	if e.Verbose {
		c.Verbose = true
	}
	if e.LogJSON {
		c.LogJSON = true
	}
	if e.NoHistory {
		c.SaveHistory = false
	}
}

// Package config provides the configuration of picase: defaults, the .picase
// YAML file, PICASE_* environment overrides and validation.
package config

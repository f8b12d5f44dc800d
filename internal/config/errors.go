package config

import "errors"

// Configuration errors. Validate returns them unwrapped so callers can use
// errors.Is.
var (
	// ErrNoCaseFolder is returned when no case folder was given.
	ErrNoCaseFolder = errors.New("no case folder specified")

	// ErrInvalidParallel is returned when the parallelism is not positive.
	ErrInvalidParallel = errors.New("invalid parallel: must be positive")

	// ErrInvalidResponseDays is returned when the demand response period is not positive.
	ErrInvalidResponseDays = errors.New("invalid response days: must be positive")

	// ErrOutputWithBatch is returned when --output is combined with several case folders.
	ErrOutputWithBatch = errors.New("--output cannot be used with more than one case folder")

	// ErrNoDBDir is returned when history is enabled without a database directory.
	ErrNoDBDir = errors.New("history is enabled but no database directory is set")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)

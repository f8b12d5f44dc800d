package idp

import (
	"errors"
	"fmt"
)

var (
	// ErrCaseFolderNotFound is returned when the case folder does not exist
	// or is not a directory.
	ErrCaseFolderNotFound = errors.New("case folder not found")

	// ErrNoDocuments is returned when a case folder holds no recognised documents.
	ErrNoDocuments = errors.New("no IDP documents found")
)

// InputError reports a case folder or document that could not be located or parsed.
type InputError struct {
	// Path is the folder or file that failed.
	Path string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	return fmt.Sprintf("input error: %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InputError) Unwrap() error {
	return e.Err
}

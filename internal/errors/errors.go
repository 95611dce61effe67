// Package errors provides custom error types and exit codes for certfetch.
package errors

import (
	"errors"
	"fmt"
)

// FetchError is a custom error type that provides context about operations.
type FetchError struct {
	Op   string // Operation being performed (e.g., "download bundle", "write bundle")
	Path string // URL or file path involved
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Predefined errors for common scenarios.
var (
	ErrDigestMismatch = fmt.Errorf("digest does not match pinned value")
	ErrNotPEM         = fmt.Errorf("payload is not PEM data")
	ErrEmptyBundle    = fmt.Errorf("downloaded bundle is empty")
	ErrUnknownBundle  = fmt.Errorf("unknown bundle name")
	ErrNoManifest     = fmt.Errorf("no manifest found")
)

// Exit codes - use these constants in CLI commands instead of hardcoding values.
const (
	ExitSuccess      = 0 // Success
	ExitGeneralError = 1 // General error (all bundles failed, file I/O)
	ExitConfigError  = 2 // Configuration error (unknown bundle name, bad flags)
	ExitVerifyError  = 3 // Verification error (on-disk bundle does not match pin)
	ExitNetworkError = 4 // Network error (explicitly named bundles all failed to download)
)

// IsError checks if the given error matches the target error using errors.Is.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

package main

import (
	"errors"

	"github.com/matsen/bibrender/internal/cite"
)

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, unreadable input, runtime failure)
	ExitConfigError = 2 // Configuration error (missing or invalid config)
	ExitDataError   = 3 // Data error (an entry has no usable date)
)

// configError marks failures to find or load configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var ce *configError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ce):
		return ExitConfigError
	case isDateError(err):
		return ExitDataError
	default:
		return ExitError
	}
}

func isDateError(err error) bool {
	return errors.Is(err, cite.ErrNoDate) ||
		errors.Is(err, cite.ErrBadYear) ||
		errors.Is(err, cite.ErrBadMonth) ||
		errors.Is(err, cite.ErrBadDay)
}

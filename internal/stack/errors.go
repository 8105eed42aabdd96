package stack

import (
	"errors"
	"fmt"
)

var (
	// ErrModeNotFound is wrapped by ModeNotFoundError
	ErrModeNotFound = errors.New("mode not found")

	// ErrUnknownService marks a service outside the known ServiceId set
	ErrUnknownService = errors.New("unknown service")

	// ErrInvalidOperation marks an operation outside the supported set
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrServiceNotInMode marks a service that the selected mode does not include
	ErrServiceNotInMode = errors.New("service not in mode")

	// ErrRepositoryNotConfigured is returned by clone without a repository URL
	ErrRepositoryNotConfigured = errors.New("repository url is not configured")
)

// ModeNotFoundError is returned when resolving an unknown mode id
type ModeNotFoundError struct {
	ID string
}

func (e *ModeNotFoundError) Error() string {
	return fmt.Sprintf("mode not found: %s", e.ID)
}

// Unwrap returns ErrModeNotFound
func (e *ModeNotFoundError) Unwrap() error {
	return ErrModeNotFound
}

// ValidationError is a rejected request. It never reaches the executor.
type ValidationError struct {
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Detail)
}

// Unwrap returns the sentinel
func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Err: err, Detail: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a client error
func IsValidation(err error) bool {
	var verr *ValidationError
	var merr *ModeNotFoundError
	return errors.As(err, &verr) || errors.As(err, &merr)
}

package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors represent orchestration failures. Only manager
// misconfiguration surfaces to callers of RunAll/RunSingle; every
// operational driver failure is captured inside the DriverResult instead.
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDriverNotFound indicates a driver name is not registered.
	ErrDriverNotFound = errors.New("driver not found")

	// ErrDuplicateDriver indicates two drivers registered the same name.
	ErrDuplicateDriver = errors.New("duplicate driver name")

	// ErrRunInProgress indicates a run is already in flight. Configuration
	// may only be replaced between runs.
	ErrRunInProgress = errors.New("run in progress")

	// ErrInvalidEntity indicates the research subject has no name.
	ErrInvalidEntity = errors.New("entity name is required")

	// ErrRateLimited indicates a source rejected a request for quota
	// reasons. Always retryable.
	ErrRateLimited = errors.New("rate limited")
)

// ErrorKind classifies a driver failure for the retry policy and for
// downstream display.
type ErrorKind string

const (
	// KindTransient marks retryable failures: timeouts, 5xx responses,
	// connection resets, rate-limit signals.
	KindTransient ErrorKind = "transient"

	// KindTerminal marks failures retrying cannot fix: rejected
	// credentials, malformed requests, unsupported entities.
	KindTerminal ErrorKind = "terminal"

	// KindCancelled marks a caller-initiated abort.
	KindCancelled ErrorKind = "cancelled"

	// KindConfigurationGap marks drivers skipped because they are disabled
	// or missing a credential. Not a runtime error.
	KindConfigurationGap ErrorKind = "configuration_gap"
)

// FetchError tags a driver failure with its classification.
type FetchError struct {
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return e.Err.Error()
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable failure.
func Transient(err error) error {
	return &FetchError{Kind: KindTransient, Err: err}
}

// Transientf wraps a formatted message as a retryable failure.
func Transientf(format string, args ...any) error {
	return Transient(fmt.Errorf(format, args...))
}

// Terminal wraps err as a non-retryable failure.
func Terminal(err error) error {
	return &FetchError{Kind: KindTerminal, Err: err}
}

// Terminalf wraps a formatted message as a non-retryable failure.
func Terminalf(format string, args ...any) error {
	return Terminal(fmt.Errorf(format, args...))
}

// Cancelled wraps err as a caller-initiated abort.
func Cancelled(err error) error {
	return &FetchError{Kind: KindCancelled, Err: err}
}

// Classify returns the error kind for a driver failure. Untagged errors
// default to transient: external sources fail in transient ways far more
// often than not, and a wasted retry is cheaper than a lost result.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	switch {
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	case errors.Is(err, ErrRateLimited):
		return KindTransient
	}
	return KindTransient
}

// Package errdefs defines the error classes shared across veind packages.
//
// Packages return errors wrapping one of these definitions with %w so the
// HTTP layer can map them to response codes without string matching.
package errdefs

import (
	"context"
	"errors"
)

var (
	// ErrInvalidArgument is returned for malformed request bodies, unsafe
	// filenames, and unparsable config documents.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnauthenticated is returned when the API key is missing or wrong.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound is returned when a config or log file does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an operation is rejected because of the
	// current process state (e.g. update while the server is running).
	ErrConflict = errors.New("conflict")

	// ErrUnavailable is returned when an external tool or the managed
	// process fails underneath us.
	ErrUnavailable = errors.New("unavailable")
)

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

func IsDeadlineExceeded(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

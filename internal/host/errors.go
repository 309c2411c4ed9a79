package host

import (
	"errors"
	"strings"
)

// Common errors returned by host operations.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, host.ErrBinaryNotFound) {
//	    // suggest installing PostgreSQL client tools
//	}
var (
	// ErrBinaryNotFound is returned when a required external binary
	// (psql, pg_dump, ssh, brew, systemctl...) is not in PATH.
	ErrBinaryNotFound = errors.New("required binary not found")

	// ErrTimeout is returned when a command exceeds its timeout.
	ErrTimeout = errors.New("command timed out")

	// ErrUnsupportedHost is returned when an operation is not supported
	// for the host type (e.g. service management on cloud hosts).
	ErrUnsupportedHost = errors.New("operation not supported for this host type")

	// ErrAuthFailed is returned when PostgreSQL rejects the credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrConnectionRefused is returned when the server is not accepting
	// connections, usually because the service is not running.
	ErrConnectionRefused = errors.New("connection refused")
)

// ClassifyPGError maps psql/pg_dump stderr text onto sentinel errors so
// callers can branch on the failure mode instead of grepping messages.
// Returns nil when the text matches no known failure.
func ClassifyPGError(stderr string) error {
	lower := strings.ToLower(stderr)
	switch {
	case strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "password authentication"),
		strings.Contains(lower, "no password supplied"):
		return ErrAuthFailed
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "could not connect to server"),
		strings.Contains(lower, "connection to server"):
		return ErrConnectionRefused
	default:
		return nil
	}
}

// IsRemediable returns true when the error can likely be fixed by the
// tool itself (installing PostgreSQL or starting the service).
func IsRemediable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrBinaryNotFound) || errors.Is(err, ErrConnectionRefused)
}

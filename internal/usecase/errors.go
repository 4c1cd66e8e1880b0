package usecase

import crerr "github.com/cockroachdb/errors"

// Service sentinels. Every error leaving a service wraps exactly one of
// these so the HTTP layer can classify it without knowing which provider,
// repository or cache produced the failure.
var (
	// ErrInvalidInput covers malformed dates, empty lookup keys and
	// payloads that fail validation.
	ErrInvalidInput = crerr.New("invalid input")

	// ErrNotFound covers unknown leagues, team families, prospects,
	// refresh runs and audit events.
	ErrNotFound = crerr.New("resource not found")

	// ErrUnauthorized covers a missing or wrong internal job token.
	ErrUnauthorized = crerr.New("unauthorized")

	// ErrDependencyUnavailable covers provider outages surfaced through a
	// refresh with no cached snapshot to fall back on, and operator
	// endpoints that cannot run because required wiring is absent.
	ErrDependencyUnavailable = crerr.New("dependency unavailable")
)

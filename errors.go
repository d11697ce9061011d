// File: confstack/errors.go
package confstack

import "errors"

// Sentinel errors for the distinct failure classes of a build. Callers
// match them with errors.Is; the wrapped message carries the source kind,
// key or path, and the underlying cause.
var (
	// ErrSourceUnavailable indicates a required source could not be read,
	// e.g. a non-optional config file that does not exist.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrDecode indicates a source's raw payload could not be parsed into
	// a value tree.
	ErrDecode = errors.New("decode failure")

	// ErrValidation indicates the caller's validation hook rejected the
	// merged tree.
	ErrValidation = errors.New("validation failure")

	// ErrBinding indicates the merged tree could not be coerced into the
	// target struct (missing required field, type mismatch).
	ErrBinding = errors.New("binding failure")

	// ErrConfiguration indicates a malformed default literal or an
	// internal composition error (e.g. a cyclic descriptor graph).
	ErrConfiguration = errors.New("configuration error")
)

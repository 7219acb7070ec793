// Package curiosityerr defines the sentinel errors surfaced across curiosity's
// core packages, mapped to the error taxonomy clients see: query, page,
// internal, not-found.
package curiosityerr

import "errors"

// Sentinel errors for common cases. Wrap with fmt.Errorf("...: %w", err) at
// call sites so errors.Is still matches.
var (
	// ErrInvalidQuery means the free-text query string failed to parse.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidPage means a page token could not be decoded.
	ErrInvalidPage = errors.New("invalid page token")

	// ErrNotFound means a requested episode or transcript does not exist.
	ErrNotFound = errors.New("not found")

	// ErrClosed means an operation was attempted on a closed store or engine.
	ErrClosed = errors.New("closed")

	// ErrEmptyDownload means an episode has no download descriptor and must
	// be skipped during ingest.
	ErrEmptyDownload = errors.New("episode has no download descriptor")
)

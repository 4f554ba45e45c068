// Package domain holds the value types and sentinel errors shared across
// the indexing and retrieval pipeline.
package domain

import "errors"

// Error taxonomy. Each concrete error wraps one of these with
// fmt.Errorf("%w: ...") at its point of origin so callers can classify
// failures with errors.Is without depending on component internals.
var (
	// ErrPrecondition indicates a caller supplied invalid input: a bad id
	// format, a length mismatch between documents and vectors, a required
	// field left empty.
	ErrPrecondition = errors.New("precondition failed")

	// ErrIO indicates an unreadable file, a missing directory, or a git
	// subprocess failure that isn't the empty-repository marker.
	ErrIO = errors.New("io error")

	// ErrParse indicates a syntactic failure parsing a single file.
	ErrParse = errors.New("parse error")

	// ErrModel indicates embedder initialization or inference failure.
	ErrModel = errors.New("model error")

	// ErrBackend indicates a vector-store failure (create, add, search, delete).
	ErrBackend = errors.New("backend error")

	// ErrConsistency indicates metadata JSON was malformed on read.
	ErrConsistency = errors.New("consistency error")

	// ErrNotFound indicates a requested row or resource does not exist.
	ErrNotFound = errors.New("not found")
)

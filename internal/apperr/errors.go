// Package apperr holds the sentinel errors shared across packages.
// Callers wrap them with context and branch with errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound: a named array literal or a target record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMalformedInput: an entered or decoded value failed a validity rule.
	ErrMalformedInput = errors.New("malformed input")
	// ErrPartialSync: at least one document was skipped during propagation.
	ErrPartialSync = errors.New("partial sync")
	// ErrUnconfirmed: the operator declined a destructive action.
	ErrUnconfirmed = errors.New("not confirmed")
	// ErrExternalFetch: the image collaborator could not deliver.
	ErrExternalFetch = errors.New("external fetch failed")
	// ErrAmbiguousKey: a grouping key selects more than one logical post.
	ErrAmbiguousKey = errors.New("ambiguous key")
	// ErrInvalidDocument: document text could not be scanned.
	ErrInvalidDocument = errors.New("invalid document")

	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
)

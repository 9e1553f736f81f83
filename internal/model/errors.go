package model

import "errors"

// Engine error kinds. All are deterministic for a given input; none is worth
// retrying without changing the input first.
var (
	// ErrStaleReference marks a NodeRef used against the wrong tree
	// generation. This is a programmer error and is always surfaced.
	ErrStaleReference = errors.New("stale node reference")

	// ErrInvalidFragment marks replacement text that does not parse as the
	// grammatical category the edit requires.
	ErrInvalidFragment = errors.New("invalid source fragment")

	// ErrConflictingEdit marks a staged batch in which two edits claim
	// overlapping source spans. The whole batch is discarded.
	ErrConflictingEdit = errors.New("conflicting edits")

	// ErrUnsupportedConstruct marks a node kind outside the code generator's
	// supported table. Generation fails rather than emitting lossy text.
	ErrUnsupportedConstruct = errors.New("unsupported construct")
)

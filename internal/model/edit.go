package model

import "fmt"

// EditOp enumerates the staged mutation kinds.
type EditOp string

const (
	// OpReplace substitutes a node's source text with a fragment.
	OpReplace EditOp = "replace"
	// OpRemove deletes a node's source text, including its line when the
	// node was alone on it.
	OpRemove EditOp = "remove"
	// OpInsertBefore places a fragment on its own line before a node.
	OpInsertBefore EditOp = "insert-before"
	// OpInsertAfter places a fragment on its own line after a node.
	OpInsertAfter EditOp = "insert-after"
	// OpReplaceRange substitutes an inclusive 1-based line range with text.
	OpReplaceRange EditOp = "replace-range"
)

// FragmentCategory is the grammatical category a fragment must parse as.
type FragmentCategory string

const (
	// FragmentStatement covers statement-position fragments.
	FragmentStatement FragmentCategory = "statement"
	// FragmentExpression covers expression-position fragments.
	FragmentExpression FragmentCategory = "expression"
)

// Edit is one staged, not-yet-applied mutation. Node edits carry the Ref they
// were staged against and the span they own for conflict checking; range
// edits carry the line interval instead.
type Edit struct {
	Op        EditOp
	Ref       NodeRef
	Span      Span
	StartLine int
	EndLine   int
	Fragment  string
}

// IsRange reports whether the edit addresses lines rather than a node.
func (e Edit) IsRange() bool {
	return e.Op == OpReplaceRange
}

// ChangeRecord describes one applied edit. Records are append-only and
// ordered by staging order; the session owns them, callers only read them.
type ChangeRecord struct {
	Op      EditOp `yaml:"op"`
	Line    int    `yaml:"line"`
	Summary string `yaml:"summary"`
}

// String renders a record for summaries.
func (c ChangeRecord) String() string {
	return fmt.Sprintf("%s at line %d: %s", c.Op, c.Line, c.Summary)
}

package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"pyrefac.dev/pkg/pyrefac/internal/adapter"
	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

// Refactor is a staged mutation session over one source file. Edits are
// validated and anchored when staged, but the tree and source only change on
// Apply, which commits the whole batch atomically and produces the next tree
// generation. After a successful Apply all previously handed-out references
// are stale.
type Refactor interface {
	// ReplaceNode stages swapping the node's source text for fragment.
	ReplaceNode(ctx context.Context, ref m.NodeRef, fragment string) error

	// ReplaceName stages rewriting just the name token of a named
	// definition, leaving the rest of the construct untouched.
	ReplaceName(ctx context.Context, ref m.NodeRef, name string) error

	// RemoveNode stages deleting the node. A node alone on its lines takes
	// the lines with it.
	RemoveNode(ctx context.Context, ref m.NodeRef) error

	// InsertBefore stages a statement fragment on its own line before the
	// node, at the node's indentation.
	InsertBefore(ctx context.Context, ref m.NodeRef, fragment string) error

	// InsertAfter stages a statement fragment on its own line after the
	// node, at the node's indentation.
	InsertAfter(ctx context.Context, ref m.NodeRef, fragment string) error

	// ReplaceRange stages replacing an inclusive 1-based line range with
	// text. Range edits cannot be mixed with node edits in one batch.
	ReplaceRange(ctx context.Context, startLine, endLine int, text string) error

	// Apply commits every staged edit against the current generation,
	// re-parses the spliced source and returns the new tree. With nothing
	// staged it returns the current tree unchanged. On any error the staged
	// batch is discarded and the current generation stays live.
	Apply(ctx context.Context) (*m.SyntaxTree, error)

	// Tree returns the live generation.
	Tree() *m.SyntaxTree

	// Source returns the live generation's source text.
	Source() []byte

	// Query returns a query facade over the live generation.
	Query() *Query

	// Pending reports how many edits are staged.
	Pending() int

	// Records returns the change log of all applied edits, oldest first.
	Records() []m.ChangeRecord

	// Summary renders the change log as one line per record.
	Summary() string
}

type refactor struct {
	parser  adapter.PythonParser
	tree    *m.SyntaxTree
	staged  []m.Edit
	records []m.ChangeRecord
}

// NewRefactor opens a mutation session on tree.
func NewRefactor(parser adapter.PythonParser, tree *m.SyntaxTree) Refactor {
	return &refactor{parser: parser, tree: tree}
}

func (r *refactor) Tree() *m.SyntaxTree {
	return r.tree
}

func (r *refactor) Source() []byte {
	return r.tree.Source()
}

func (r *refactor) Query() *Query {
	return NewQuery(r.tree)
}

func (r *refactor) Pending() int {
	return len(r.staged)
}

func (r *refactor) Records() []m.ChangeRecord {
	out := make([]m.ChangeRecord, len(r.records))
	copy(out, r.records)

	return out
}

func (r *refactor) Summary() string {
	lines := make([]string, 0, len(r.records))
	for _, rec := range r.records {
		lines = append(lines, rec.String())
	}

	return strings.Join(lines, "\n")
}

func (r *refactor) ReplaceNode(ctx context.Context, ref m.NodeRef, fragment string) error {
	node, err := ref.Resolve(r.tree)
	if err != nil {
		return err
	}

	if err := r.parser.ValidateFragment(ctx, fragment, categoryFor(node.Kind)); err != nil {
		return err
	}

	r.stage(m.Edit{Op: m.OpReplace, Ref: ref, Span: node.Span, Fragment: fragment})

	return nil
}

func (r *refactor) ReplaceName(ctx context.Context, ref m.NodeRef, name string) error {
	node, err := ref.Resolve(r.tree)
	if err != nil {
		return err
	}

	if node.NameSpan.IsZero() {
		return fmt.Errorf("%w: %s has no rewritable name", m.ErrUnsupportedConstruct, node.Kind)
	}

	if err := r.parser.ValidateFragment(ctx, name, m.FragmentExpression); err != nil {
		return err
	}

	r.stage(m.Edit{Op: m.OpReplace, Ref: ref, Span: node.NameSpan, Fragment: name})

	return nil
}

func (r *refactor) RemoveNode(ctx context.Context, ref m.NodeRef) error {
	node, err := ref.Resolve(r.tree)
	if err != nil {
		return err
	}

	r.stage(m.Edit{Op: m.OpRemove, Ref: ref, Span: node.Span})

	return nil
}

func (r *refactor) InsertBefore(ctx context.Context, ref m.NodeRef, fragment string) error {
	return r.stageInsert(ctx, m.OpInsertBefore, ref, fragment)
}

func (r *refactor) InsertAfter(ctx context.Context, ref m.NodeRef, fragment string) error {
	return r.stageInsert(ctx, m.OpInsertAfter, ref, fragment)
}

func (r *refactor) stageInsert(ctx context.Context, op m.EditOp, ref m.NodeRef, fragment string) error {
	node, err := ref.Resolve(r.tree)
	if err != nil {
		return err
	}

	if err := r.parser.ValidateFragment(ctx, fragment, m.FragmentStatement); err != nil {
		return err
	}

	r.stage(m.Edit{Op: op, Ref: ref, Span: node.Span, Fragment: fragment})

	return nil
}

func (r *refactor) ReplaceRange(ctx context.Context, startLine, endLine int, text string) error {
	lines := newLineIndex(r.tree.Source())

	if startLine < 1 || endLine < startLine || endLine > lines.count() {
		return fmt.Errorf("line range %d-%d outside file of %d lines",
			startLine, endLine, lines.count())
	}

	if err := r.parser.ValidateFragment(ctx, text, m.FragmentStatement); err != nil {
		return err
	}

	span := m.Span{
		StartByte: lines.lineStart(startLine),
		EndByte:   lines.lineEnd(endLine),
		StartLine: startLine,
		EndLine:   endLine,
	}

	r.stage(m.Edit{
		Op:        m.OpReplaceRange,
		Span:      span,
		StartLine: startLine,
		EndLine:   endLine,
		Fragment:  text,
	})

	return nil
}

func (r *refactor) stage(edit m.Edit) {
	r.staged = append(r.staged, edit)
}

func (r *refactor) Apply(ctx context.Context) (*m.SyntaxTree, error) {
	if len(r.staged) == 0 {
		return r.tree, nil
	}

	batch := r.staged
	r.staged = nil

	if err := checkBatch(batch); err != nil {
		return nil, err
	}

	source, records, err := splice(r.tree.Source(), batch)
	if err != nil {
		return nil, err
	}

	next, err := r.parser.ParseGeneration(ctx, source, r.tree.Generation()+1)
	if err != nil {
		return nil, fmt.Errorf("applying %d edits: %w", len(batch), err)
	}

	r.tree = next
	r.records = append(r.records, records...)

	return next, nil
}

// checkBatch rejects mixed node/range batches and overlapping owned spans.
// Every edit owns its anchor's full span, so removing a node and inserting
// relative to the same node in one batch is a conflict. Two inserts may
// share an anchor; neither touches the anchor's bytes.
func checkBatch(batch []m.Edit) error {
	ranges := 0
	for _, e := range batch {
		if e.IsRange() {
			ranges++
		}
	}

	if ranges > 0 && ranges < len(batch) {
		return fmt.Errorf("%w: range and node edits cannot share a batch", m.ErrConflictingEdit)
	}

	for i := range batch {
		for j := i + 1; j < len(batch); j++ {
			a, b := batch[i], batch[j]
			if !a.Span.Overlaps(b.Span) {
				continue
			}

			if isInsert(a.Op) && isInsert(b.Op) {
				continue
			}

			return fmt.Errorf("%w: spans %d-%d and %d-%d",
				m.ErrConflictingEdit,
				a.Span.StartByte, a.Span.EndByte,
				b.Span.StartByte, b.Span.EndByte)
		}
	}

	return nil
}

func isInsert(op m.EditOp) bool {
	return op == m.OpInsertBefore || op == m.OpInsertAfter
}

// resolvedEdit is one edit pinned to concrete byte offsets of the original
// buffer, with its final text already rendered.
type resolvedEdit struct {
	start uint32
	end   uint32
	text  []byte
}

// splice rewrites source bytes for the whole batch. Every edit is resolved
// against the original buffer before any bytes move: line-derived positions
// (inserts, line-taking removals) must not read an already-mutated buffer
// when another edit shares their line. The resolved edits then apply from
// the back of the file forward so earlier offsets stay valid; untouched text
// keeps its exact bytes.
func splice(source []byte, batch []m.Edit) ([]byte, []m.ChangeRecord, error) {
	lines := newLineIndex(source)

	resolved := make([]resolvedEdit, 0, len(batch))
	for _, e := range batch {
		re, err := resolveEdit(source, lines, e)
		if err != nil {
			return nil, nil, err
		}

		resolved = append(resolved, re)
	}

	// Ties happen when a zero-width insert sits exactly at another edit's
	// start; applying the wider edit first keeps the insert outside the
	// replaced text.
	sort.SliceStable(resolved, func(i, j int) bool {
		if resolved[i].start != resolved[j].start {
			return resolved[i].start > resolved[j].start
		}

		return resolved[i].end > resolved[j].end
	})

	out := source
	for _, re := range resolved {
		out = replaceBytes(out, re.start, re.end, re.text)
	}

	records := make([]m.ChangeRecord, 0, len(batch))
	for _, e := range batch {
		records = append(records, m.ChangeRecord{
			Op:      e.Op,
			Line:    e.Span.StartLine,
			Summary: editSummary(source, e),
		})
	}

	return out, records, nil
}

func resolveEdit(source []byte, lines *lineIndex, e m.Edit) (resolvedEdit, error) {
	switch e.Op {
	case m.OpReplace:
		// Continuation lines of a multi-line fragment land at the anchor's
		// indentation so nested replacements stay aligned.
		fragment := indentContinuation(e.Fragment, lines.indentation(source, e.Span.StartLine))

		return resolvedEdit{start: e.Span.StartByte, end: e.Span.EndByte, text: []byte(fragment)}, nil

	case m.OpReplaceRange:
		fragment := e.Fragment
		if !strings.HasSuffix(fragment, "\n") {
			fragment += "\n"
		}

		return resolvedEdit{start: e.Span.StartByte, end: e.Span.EndByte, text: []byte(fragment)}, nil

	case m.OpRemove:
		start, end := e.Span.StartByte, e.Span.EndByte
		if lines.aloneOnLines(source, e.Span) {
			start = lines.lineStart(e.Span.StartLine)
			end = lines.lineEnd(e.Span.EndLine)
		}

		return resolvedEdit{start: start, end: end}, nil

	case m.OpInsertBefore:
		at := lines.lineStart(e.Span.StartLine)
		text := indentFragment(e.Fragment, lines.indentation(source, e.Span.StartLine)) + "\n"

		return resolvedEdit{start: at, end: at, text: []byte(text)}, nil

	case m.OpInsertAfter:
		at := lines.lineEnd(e.Span.EndLine)
		text := indentFragment(e.Fragment, lines.indentation(source, e.Span.StartLine)) + "\n"

		return resolvedEdit{start: at, end: at, text: []byte(text)}, nil

	default:
		return resolvedEdit{}, fmt.Errorf("%w: edit op %q", m.ErrUnsupportedConstruct, e.Op)
	}
}

func replaceBytes(source []byte, start, end uint32, text []byte) []byte {
	out := make([]byte, 0, len(source)-int(end-start)+len(text))
	out = append(out, source[:start]...)
	out = append(out, text...)
	out = append(out, source[end:]...)

	return out
}

func editSummary(source []byte, e m.Edit) string {
	switch e.Op {
	case m.OpRemove:
		return firstLine(string(source[e.Span.StartByte:e.Span.EndByte]))
	case m.OpReplaceRange:
		return fmt.Sprintf("lines %d-%d", e.StartLine, e.EndLine)
	default:
		return firstLine(e.Fragment)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}

	return s
}

// indentContinuation indents every line after the first; the first line
// splices into an already-indented position.
func indentContinuation(fragment, indent string) string {
	if indent == "" || !strings.Contains(fragment, "\n") {
		return fragment
	}

	parts := strings.Split(fragment, "\n")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = indent + parts[i]
		}
	}

	return strings.Join(parts, "\n")
}

// indentFragment prefixes every non-empty line of fragment with indent so
// multi-line insertions land at the anchor's depth.
func indentFragment(fragment string, indent string) string {
	fragment = strings.TrimRight(fragment, "\n")
	if indent == "" {
		return fragment
	}

	parts := strings.Split(fragment, "\n")
	for i, p := range parts {
		if p != "" {
			parts[i] = indent + p
		}
	}

	return strings.Join(parts, "\n")
}

// categoryFor picks the grammatical category a replacement for the given
// node kind must parse as.
func categoryFor(kind m.Kind) m.FragmentCategory {
	switch kind {
	case m.KindName, m.KindAttribute, m.KindCall, m.KindSubscript,
		m.KindBinaryOp, m.KindCompare, m.KindString, m.KindNumber,
		m.KindBool, m.KindNone, m.KindComprehension, m.KindRawExpr:
		return m.FragmentExpression
	default:
		return m.FragmentStatement
	}
}

// lineIndex maps 1-based line numbers to byte offsets of one source buffer.
type lineIndex struct {
	starts []uint32
	size   uint32
}

func newLineIndex(source []byte) *lineIndex {
	idx := &lineIndex{starts: []uint32{0}, size: uint32(len(source))}
	for i, b := range source {
		if b == '\n' && i+1 < len(source) {
			idx.starts = append(idx.starts, uint32(i+1))
		}
	}

	return idx
}

func (l *lineIndex) count() int {
	return len(l.starts)
}

// lineStart returns the byte offset of the first column of line.
func (l *lineIndex) lineStart(line int) uint32 {
	if line < 1 {
		return 0
	}

	if line > len(l.starts) {
		return l.size
	}

	return l.starts[line-1]
}

// lineEnd returns the offset one past line's newline.
func (l *lineIndex) lineEnd(line int) uint32 {
	if line >= len(l.starts) {
		return l.size
	}

	return l.starts[line]
}

// indentation returns the leading whitespace of line.
func (l *lineIndex) indentation(source []byte, line int) string {
	start, end := l.lineStart(line), l.lineEnd(line)

	i := start
	for i < end && (source[i] == ' ' || source[i] == '\t') {
		i++
	}

	return string(source[start:i])
}

// aloneOnLines reports whether span is the only non-whitespace content on
// the lines it covers, in which case removal takes the lines too.
func (l *lineIndex) aloneOnLines(source []byte, span m.Span) bool {
	before := source[l.lineStart(span.StartLine):span.StartByte]
	if len(strings.TrimSpace(string(before))) != 0 {
		return false
	}

	after := source[span.EndByte:l.lineEnd(span.EndLine)]

	return len(strings.TrimSpace(string(after))) == 0
}

// Package model defines the data structures for the refactoring engine.
package model

// Kind identifies the syntactic category of a node.
type Kind string

const (
	// KindModule is the root of every parsed tree.
	KindModule Kind = "module"
	// KindFunctionDef is a "def name(...):" statement.
	KindFunctionDef Kind = "function-def"
	// KindClassDef is a "class Name(...):" statement.
	KindClassDef Kind = "class-def"
	// KindImport is an "import a, b as c" statement; children are aliases.
	KindImport Kind = "import"
	// KindImportFrom is a "from mod import a, b as c" statement.
	KindImportFrom Kind = "import-from"
	// KindAlias is one imported name inside an import statement.
	KindAlias Kind = "alias"
	// KindAssign is a plain assignment; children are [target, value].
	KindAssign Kind = "assignment"
	// KindAugAssign is an augmented assignment; Value holds the operator.
	KindAugAssign Kind = "augmented-assignment"
	// KindCall is a call expression; children are [callee, args...].
	KindCall Kind = "call"
	// KindTry is a try statement; children are the try block followed by
	// handlers and optional else/finally clauses.
	KindTry Kind = "try"
	// KindExceptHandler is one except clause; Name holds the exception type
	// text and Value the bound name, children are [block].
	KindExceptHandler Kind = "except-handler"
	// KindElseClause is the else clause of a try/for/while statement.
	KindElseClause Kind = "else-clause"
	// KindFinallyClause is the finally clause of a try statement.
	KindFinallyClause Kind = "finally-clause"
	// KindFor is a for loop; children are [target, iterable, block, ...].
	KindFor Kind = "for-loop"
	// KindWhile is a while loop; children are [condition, block].
	KindWhile Kind = "while-loop"
	// KindIf is an if statement; children are [condition, block, clauses...].
	KindIf Kind = "if"
	// KindElifClause is an elif clause; children are [condition, block].
	KindElifClause Kind = "elif-clause"
	// KindReturn is a return statement with an optional value child.
	KindReturn Kind = "return"
	// KindPass is a pass statement.
	KindPass Kind = "pass"
	// KindExprStmt is an expression used as a statement.
	KindExprStmt Kind = "expression-statement"
	// KindBlock is an indented suite of statements.
	KindBlock Kind = "block"
	// KindParameters is a function parameter list; children are KindParam.
	KindParameters Kind = "parameters"
	// KindParam is a single function parameter.
	KindParam Kind = "parameter"
	// KindArguments is the base-class list of a class definition.
	KindArguments Kind = "arguments"
	// KindName is an identifier reference; Name holds the identifier.
	KindName Kind = "name"
	// KindAttribute is "value.attr"; Name holds attr, children are [value].
	KindAttribute Kind = "attribute"
	// KindSubscript is "value[slice]"; children are [value, slice].
	KindSubscript Kind = "subscript"
	// KindBinaryOp is a binary expression; Value holds the operator.
	KindBinaryOp Kind = "binary-op"
	// KindCompare is a comparison; Value holds the operator.
	KindCompare Kind = "comparison"
	// KindString is a string literal; Value holds the verbatim text.
	KindString Kind = "string"
	// KindNumber is a numeric literal; Value holds the verbatim text.
	KindNumber Kind = "number"
	// KindBool is True or False; Value holds the literal.
	KindBool Kind = "bool"
	// KindNone is the None literal.
	KindNone Kind = "none"
	// KindComment is a source comment; Value holds the verbatim text.
	KindComment Kind = "comment"
	// KindComprehension covers list/set/dict comprehensions and generator
	// expressions. Recognized by the parser, rejected by the generator.
	KindComprehension Kind = "comprehension"
	// KindRawExpr is a synthesis-only leaf carrying verbatim expression text.
	// It never appears in parsed trees; fragment constructors use it to embed
	// caller-supplied expression text.
	KindRawExpr Kind = "raw-expression"
	// KindUnknown tags constructs the engine does not model. They keep their
	// source span so untouched regions still render verbatim.
	KindUnknown Kind = "unknown"
)

// Span is a half-open [StartByte, EndByte) range into the original source,
// with 1-based line bookkeeping for reporting. A zero Span means the node was
// synthesized rather than parsed.
type Span struct {
	StartByte uint32
	EndByte   uint32
	StartLine int
	EndLine   int
	StartCol  int
}

// IsZero reports whether the span carries no source location.
func (s Span) IsZero() bool {
	return s == Span{}
}

// Overlaps reports whether two half-open spans share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.StartByte < other.EndByte && other.StartByte < s.EndByte
}

// Node is one element of a syntax tree. The per-Kind meaning of Name, Value
// and Children is documented on the Kind constants. Nodes are never mutated
// after a tree is built; edits produce a new tree generation instead.
type Node struct {
	Kind     Kind
	Name     string
	Value    string
	Children []*Node
	Span     Span

	// NameSpan locates the Name token inside Span for constructs whose
	// name can be rewritten in place (function and class definitions).
	// Zero for synthesized nodes and unnamed constructs.
	NameSpan Span
}

// Child returns the i-th child or nil when out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}

	return n.Children[i]
}

// SyntaxTree is one immutable generation of a parsed module, together with
// the source text it was parsed from. Edits never modify a tree in place; a
// successful apply produces a new tree with a higher generation number.
type SyntaxTree struct {
	root       *Node
	source     []byte
	generation uint64
}

// NewSyntaxTree wraps a parsed root node and its source into a tree value.
func NewSyntaxTree(root *Node, source []byte, generation uint64) *SyntaxTree {
	return &SyntaxTree{
		root:       root,
		source:     source,
		generation: generation,
	}
}

// Root returns the module node. It is nil only for a zero tree.
func (t *SyntaxTree) Root() *Node {
	return t.root
}

// Source returns the source text this generation was parsed from.
func (t *SyntaxTree) Source() []byte {
	return t.source
}

// Generation returns the tree's generation counter. The external parser
// produces generation 1; every applied edit batch increments it.
func (t *SyntaxTree) Generation() uint64 {
	return t.generation
}

// Snippet returns the verbatim source slice covered by span, or "" when the
// span is zero or out of range.
func (t *SyntaxTree) Snippet(span Span) string {
	if span.IsZero() || int(span.EndByte) > len(t.source) || span.StartByte > span.EndByte {
		return ""
	}

	return string(t.source[span.StartByte:span.EndByte])
}

// IsEmpty reports whether the module has no statements.
func (t *SyntaxTree) IsEmpty() bool {
	return t.root == nil || len(t.root.Children) == 0
}

// StatementCount returns the number of top-level statements.
func (t *SyntaxTree) StatementCount() int {
	if t.root == nil {
		return 0
	}

	return len(t.root.Children)
}

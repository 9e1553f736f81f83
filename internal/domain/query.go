// Package domain contains the core refactoring engine: tree queries,
// structural patterns, the staged mutation session, and the batch workflow.
package domain

import (
	"iter"
	"strings"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

// Query provides side-effect-free traversal over one tree generation. All
// find methods yield node references in pre-order (document order), visiting
// nested functions and classes; there is no implicit scope boundary. The
// returned sequences are lazy and restartable.
type Query struct {
	tree *m.SyntaxTree
}

// NewQuery builds a query facade over a tree generation.
func NewQuery(tree *m.SyntaxTree) *Query {
	return &Query{tree: tree}
}

// Tree returns the generation this query reads from.
func (q *Query) Tree() *m.SyntaxTree {
	return q.tree
}

// Walk yields every node of the tree in pre-order together with its
// reference. An empty tree yields nothing.
func (q *Query) Walk() iter.Seq2[m.NodeRef, *m.Node] {
	return func(yield func(m.NodeRef, *m.Node) bool) {
		root := q.tree.Root()
		if root == nil {
			return
		}

		walk(m.RootRef(q.tree), root, yield)
	}
}

func walk(ref m.NodeRef, node *m.Node, yield func(m.NodeRef, *m.Node) bool) bool {
	if !yield(ref, node) {
		return false
	}

	for i, child := range node.Children {
		if child == nil {
			continue
		}

		if !walk(ref.ChildRef(i), child, yield) {
			return false
		}
	}

	return true
}

// FindNodes yields references to nodes of the given kind satisfying pred.
// An empty kind matches every kind; a nil pred accepts every candidate.
func (q *Query) FindNodes(kind m.Kind, pred func(*m.Node) bool) iter.Seq[m.NodeRef] {
	return func(yield func(m.NodeRef) bool) {
		for ref, node := range q.Walk() {
			if kind != "" && node.Kind != kind {
				continue
			}

			if pred != nil && !pred(node) {
				continue
			}

			if !yield(ref) {
				return
			}
		}
	}
}

// FindImports yields import and import-from statements. A non-empty pattern
// matches when it equals the imported module's dotted path or is a dotted
// prefix of it: "os" matches "os" and "os.path" but not "osmium". For
// from-imports the pattern is tested against the source module.
func (q *Query) FindImports(pattern string) iter.Seq[m.NodeRef] {
	return func(yield func(m.NodeRef) bool) {
		for ref, node := range q.Walk() {
			if node.Kind != m.KindImport && node.Kind != m.KindImportFrom {
				continue
			}

			if !importMatches(node, pattern) {
				continue
			}

			if !yield(ref) {
				return
			}
		}
	}
}

func importMatches(node *m.Node, pattern string) bool {
	if pattern == "" {
		return true
	}

	if node.Kind == m.KindImportFrom {
		return moduleMatches(node.Name, pattern)
	}

	for _, alias := range node.Children {
		if alias.Kind == m.KindAlias && moduleMatches(alias.Name, pattern) {
			return true
		}
	}

	return false
}

func moduleMatches(module, pattern string) bool {
	return module == pattern || strings.HasPrefix(module, pattern+".")
}

// FindFunctionCalls yields call expressions whose callee's trailing
// identifier equals name: "get_distribution" matches both
// get_distribution(...) and pkg.get_distribution(...). The match is purely
// syntactic; no scope or type resolution is attempted.
func (q *Query) FindFunctionCalls(name string) iter.Seq[m.NodeRef] {
	return q.FindNodes(m.KindCall, func(node *m.Node) bool {
		return CalleeName(node) == name
	})
}

// FindTryExceptBlocks yields try statements. When exceptionType is given,
// only those with at least one handler naming that exact exception type are
// yielded; a handler over a tuple matches when any element matches.
func (q *Query) FindTryExceptBlocks(exceptionType string) iter.Seq[m.NodeRef] {
	return q.FindNodes(m.KindTry, func(node *m.Node) bool {
		if exceptionType == "" {
			return true
		}

		for _, child := range node.Children {
			if child.Kind == m.KindExceptHandler && handlerMatches(child, exceptionType) {
				return true
			}
		}

		return false
	})
}

func handlerMatches(handler *m.Node, exceptionType string) bool {
	// Tuple handlers keep their verbatim "(A, B)" text in Name.
	trimmed := strings.Trim(handler.Name, "() ")
	for _, part := range strings.Split(trimmed, ",") {
		if exceptionTypeMatches(strings.TrimSpace(part), exceptionType) {
			return true
		}
	}

	return false
}

// exceptionTypeMatches accepts the full dotted handler text or its trailing
// component: "DistributionNotFound" matches both the bare name and
// "pkg_resources.DistributionNotFound".
func exceptionTypeMatches(handlerType, exceptionType string) bool {
	if handlerType == exceptionType {
		return true
	}

	return strings.HasSuffix(handlerType, "."+exceptionType)
}

// FindAssignments yields assignment statements (plain and augmented). When
// targetPattern is given, the target's rendered dotted text must equal it
// exactly.
func (q *Query) FindAssignments(targetPattern string) iter.Seq[m.NodeRef] {
	return func(yield func(m.NodeRef) bool) {
		for ref, node := range q.Walk() {
			if node.Kind != m.KindAssign && node.Kind != m.KindAugAssign {
				continue
			}

			if targetPattern != "" && DottedText(node.Child(0)) != targetPattern {
				continue
			}

			if !yield(ref) {
				return
			}
		}
	}
}

// CalleeName returns the trailing identifier of a call's callee, or "" when
// the callee is not a name or attribute chain.
func CalleeName(call *m.Node) string {
	callee := call.Child(0)
	if callee == nil {
		return ""
	}

	switch callee.Kind {
	case m.KindName:
		return callee.Name
	case m.KindAttribute:
		return callee.Name
	default:
		return ""
	}
}

// DottedText renders a name or attribute chain as dotted text, e.g.
// "self.config.path". Non-name expressions render as "".
func DottedText(expr *m.Node) string {
	switch {
	case expr == nil:
		return ""
	case expr.Kind == m.KindName:
		return expr.Name
	case expr.Kind == m.KindAttribute:
		base := DottedText(expr.Child(0))
		if base == "" {
			return ""
		}

		return base + "." + expr.Name
	default:
		return ""
	}
}

// ImportInfo is a flattened view of one imported name, in the shape rule
// logic wants to reason about.
type ImportInfo struct {
	Module     string
	Alias      string
	FromModule string
	IsFrom     bool
	Ref        m.NodeRef
}

// Imports flattens every import statement into per-name records, in
// document order.
func (q *Query) Imports() []ImportInfo {
	var infos []ImportInfo

	for ref, node := range q.Walk() {
		switch node.Kind {
		case m.KindImport:
			for _, alias := range node.Children {
				infos = append(infos, ImportInfo{
					Module: alias.Name,
					Alias:  alias.Value,
					Ref:    ref,
				})
			}
		case m.KindImportFrom:
			for _, alias := range node.Children {
				infos = append(infos, ImportInfo{
					Module:     alias.Name,
					Alias:      alias.Value,
					FromModule: node.Name,
					IsFrom:     true,
					Ref:        ref,
				})
			}
		}
	}

	return infos
}

package domain

import (
	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

// Capture names used by the built-in pattern conditions.
const (
	CaptureImport     = "import"
	CaptureTry        = "try"
	CaptureCall       = "call"
	CaptureAssignment = "assignment"
)

// MatchContext binds the node references captured by one pattern match. All
// captures come from the same enclosing scope. A context is only meaningful
// against the generation it was produced from.
type MatchContext struct {
	scope    m.NodeRef
	captures map[string]m.NodeRef
}

// Scope returns the enclosing scope (module, function or class) the match
// was assembled in.
func (c MatchContext) Scope() m.NodeRef {
	return c.scope
}

// Capture returns the reference bound under name.
func (c MatchContext) Capture(name string) (m.NodeRef, bool) {
	ref, ok := c.captures[name]
	return ref, ok
}

// scopeCondition matches against a whole scope subtree and contributes
// captures. tryCondition refines a single try statement; all try conditions
// of a pattern must hold on the same try node, which keeps captures from
// assembling out of unrelated code.
type scopeCondition func(q *Query, scope m.NodeRef) (map[string]m.NodeRef, bool)

type tryCondition func(q *Query, tryRef m.NodeRef, tryNode *m.Node) (map[string]m.NodeRef, bool)

// Pattern is an immutable, AND-combined predicate over tree structure. Every
// builder method returns a new value; a Pattern can therefore be shared and
// evaluated concurrently.
type Pattern struct {
	scopeConds []scopeCondition
	tryConds   []tryCondition
}

// NewPattern returns the empty pattern, which matches every scope.
func NewPattern() Pattern {
	return Pattern{}
}

func (p Pattern) withScopeCond(cond scopeCondition) Pattern {
	conds := make([]scopeCondition, len(p.scopeConds), len(p.scopeConds)+1)
	copy(conds, p.scopeConds)

	return Pattern{
		scopeConds: append(conds, cond),
		tryConds:   p.tryConds,
	}
}

func (p Pattern) withTryCond(cond tryCondition) Pattern {
	conds := make([]tryCondition, len(p.tryConds), len(p.tryConds)+1)
	copy(conds, p.tryConds)

	return Pattern{
		scopeConds: p.scopeConds,
		tryConds:   append(conds, cond),
	}
}

// HasImport requires an import of module (dotted-prefix policy, see
// Query.FindImports) inside the scope. Captures the import statement.
func (p Pattern) HasImport(module string) Pattern {
	return p.withScopeCond(func(q *Query, scope m.NodeRef) (map[string]m.NodeRef, bool) {
		for ref := range q.FindImports(module) {
			if scope.Contains(ref) {
				return map[string]m.NodeRef{CaptureImport: ref}, true
			}
		}

		return nil, false
	})
}

// HasAssignment requires an assignment to the given target inside the scope.
// Captures the assignment statement.
func (p Pattern) HasAssignment(target string) Pattern {
	return p.withScopeCond(func(q *Query, scope m.NodeRef) (map[string]m.NodeRef, bool) {
		for ref := range q.FindAssignments(target) {
			if scope.Contains(ref) {
				return map[string]m.NodeRef{CaptureAssignment: ref}, true
			}
		}

		return nil, false
	})
}

// ContainsTryExcept requires a try statement; with a non-empty exceptionType
// one handler must name that type. Captures the try statement.
func (p Pattern) ContainsTryExcept(exceptionType string) Pattern {
	return p.withTryCond(func(q *Query, tryRef m.NodeRef, tryNode *m.Node) (map[string]m.NodeRef, bool) {
		if exceptionType == "" {
			return nil, true
		}

		for _, child := range tryNode.Children {
			if child.Kind == m.KindExceptHandler && handlerMatches(child, exceptionType) {
				return nil, true
			}
		}

		return nil, false
	})
}

// ExceptHandles is ContainsTryExcept with a mandatory exception type.
func (p Pattern) ExceptHandles(exceptionType string) Pattern {
	return p.ContainsTryExcept(exceptionType)
}

// TryBodyContainsCall requires the try block to call name somewhere in its
// body. Captures the call expression.
func (p Pattern) TryBodyContainsCall(name string) Pattern {
	return p.withTryCond(func(q *Query, tryRef m.NodeRef, tryNode *m.Node) (map[string]m.NodeRef, bool) {
		body := tryNode.Child(0)
		if body == nil || body.Kind != m.KindBlock {
			return nil, false
		}

		bodyRef := tryRef.ChildRef(0)
		for ref := range q.FindFunctionCalls(name) {
			if bodyRef.Contains(ref) {
				return map[string]m.NodeRef{CaptureCall: ref}, true
			}
		}

		return nil, false
	})
}

// FindMatches evaluates the pattern against each enclosing scope of the tree
// (the module plus every function and class definition, in pre-order) and
// returns one MatchContext per matching scope. All conditions of a pattern
// must hold within the same scope, and all try conditions on the same try
// statement.
func (p Pattern) FindMatches(tree *m.SyntaxTree) []MatchContext {
	q := NewQuery(tree)

	var matches []MatchContext

	for scopeRef, scopeNode := range q.Walk() {
		switch scopeNode.Kind {
		case m.KindModule, m.KindFunctionDef, m.KindClassDef:
		default:
			continue
		}

		if ctx, ok := p.evalScope(q, scopeRef); ok {
			matches = append(matches, ctx)
		}
	}

	return matches
}

func (p Pattern) evalScope(q *Query, scope m.NodeRef) (MatchContext, bool) {
	captures := make(map[string]m.NodeRef)

	for _, cond := range p.scopeConds {
		found, ok := cond(q, scope)
		if !ok {
			return MatchContext{}, false
		}

		for name, ref := range found {
			captures[name] = ref
		}
	}

	if len(p.tryConds) > 0 {
		tryCaptures, ok := p.evalTryConds(q, scope)
		if !ok {
			return MatchContext{}, false
		}

		for name, ref := range tryCaptures {
			captures[name] = ref
		}
	}

	return MatchContext{scope: scope, captures: captures}, true
}

// evalTryConds finds the first try statement in the scope satisfying every
// try condition at once.
func (p Pattern) evalTryConds(q *Query, scope m.NodeRef) (map[string]m.NodeRef, bool) {
	for tryRef := range q.FindTryExceptBlocks("") {
		if !scope.Contains(tryRef) {
			continue
		}

		tryNode, err := tryRef.Resolve(q.Tree())
		if err != nil {
			continue
		}

		captures := map[string]m.NodeRef{CaptureTry: tryRef}
		satisfied := true

		for _, cond := range p.tryConds {
			found, ok := cond(q, tryRef, tryNode)
			if !ok {
				satisfied = false
				break
			}

			for name, ref := range found {
				captures[name] = ref
			}
		}

		if satisfied {
			return captures, true
		}
	}

	return nil, false
}

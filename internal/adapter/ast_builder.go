package adapter

import (
	sitter "github.com/smacker/go-tree-sitter"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

// astBuilder converts a tree-sitter parse tree into the engine's Kind-tagged
// node tree. Grammar constructs the engine does not model become
// KindUnknown nodes that keep their span, so untouched regions still render
// verbatim from the original source.
type astBuilder struct {
	source []byte
}

func newASTBuilder(source []byte) *astBuilder {
	return &astBuilder{source: source}
}

// Build converts the whole parse tree, starting at the module node.
func (b *astBuilder) Build(tree *sitter.Tree) *m.Node {
	root := tree.RootNode()

	module := &m.Node{
		Kind: m.KindModule,
		Span: b.span(root),
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		module.Children = append(module.Children, b.buildStatement(root.NamedChild(i)))
	}

	return module
}

func (b *astBuilder) buildStatement(ts *sitter.Node) *m.Node {
	switch ts.Type() {
	case "import_statement":
		return b.buildImport(ts)
	case "import_from_statement":
		return b.buildImportFrom(ts)
	case "expression_statement":
		return b.buildExpressionStatement(ts)
	case "function_definition":
		return b.buildFunctionDef(ts)
	case "class_definition":
		return b.buildClassDef(ts)
	case "decorated_definition":
		// Decorator lines stay verbatim source; the inner definition is
		// modeled so queries still see the function or class.
		if def := ts.ChildByFieldName("definition"); def != nil {
			return b.buildStatement(def)
		}

		return b.unknown(ts)
	case "try_statement":
		return b.buildTry(ts)
	case "for_statement":
		return b.buildFor(ts)
	case "while_statement":
		return b.buildWhile(ts)
	case "if_statement":
		return b.buildIf(ts)
	case "return_statement":
		return b.buildReturn(ts)
	case "pass_statement":
		return &m.Node{Kind: m.KindPass, Span: b.span(ts)}
	case "comment":
		return &m.Node{Kind: m.KindComment, Value: b.text(ts), Span: b.span(ts)}
	case "block":
		return b.buildBlock(ts)
	default:
		return b.unknown(ts)
	}
}

func (b *astBuilder) buildImport(ts *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindImport, Span: b.span(ts)}

	for i := 0; i < int(ts.NamedChildCount()); i++ {
		node.Children = append(node.Children, b.buildAlias(ts.NamedChild(i)))
	}

	return node
}

func (b *astBuilder) buildImportFrom(ts *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindImportFrom, Span: b.span(ts)}

	moduleName := ts.ChildByFieldName("module_name")
	if moduleName != nil {
		node.Name = b.text(moduleName)
	}

	for i := 0; i < int(ts.NamedChildCount()); i++ {
		child := ts.NamedChild(i)
		if moduleName != nil && child.StartByte() == moduleName.StartByte() && child.EndByte() == moduleName.EndByte() {
			continue
		}

		if child.Type() == "wildcard_import" {
			node.Children = append(node.Children, &m.Node{
				Kind: m.KindAlias,
				Name: "*",
				Span: b.span(child),
			})

			continue
		}

		node.Children = append(node.Children, b.buildAlias(child))
	}

	return node
}

// buildAlias handles both bare dotted names and "name as alias" imports.
func (b *astBuilder) buildAlias(ts *sitter.Node) *m.Node {
	alias := &m.Node{Kind: m.KindAlias, Span: b.span(ts)}

	if ts.Type() == "aliased_import" {
		if name := ts.ChildByFieldName("name"); name != nil {
			alias.Name = b.text(name)
		}

		if as := ts.ChildByFieldName("alias"); as != nil {
			alias.Value = b.text(as)
		}

		return alias
	}

	alias.Name = b.text(ts)

	return alias
}

func (b *astBuilder) buildExpressionStatement(ts *sitter.Node) *m.Node {
	if ts.NamedChildCount() == 1 {
		inner := ts.NamedChild(0)

		switch inner.Type() {
		case "assignment":
			return b.buildAssignment(inner, ts)
		case "augmented_assignment":
			return b.buildAugAssignment(inner, ts)
		}
	}

	node := &m.Node{Kind: m.KindExprStmt, Span: b.span(ts)}
	for i := 0; i < int(ts.NamedChildCount()); i++ {
		node.Children = append(node.Children, b.buildExpression(ts.NamedChild(i)))
	}

	return node
}

// buildAssignment lifts the inner assignment to statement position so the
// query engine sees assignment nodes directly. The span covers the whole
// statement.
func (b *astBuilder) buildAssignment(ts, stmt *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindAssign, Span: b.span(stmt)}

	if left := ts.ChildByFieldName("left"); left != nil {
		node.Children = append(node.Children, b.buildExpression(left))
	}

	if right := ts.ChildByFieldName("right"); right != nil {
		node.Children = append(node.Children, b.buildExpression(right))
	}

	return node
}

func (b *astBuilder) buildAugAssignment(ts, stmt *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindAugAssign, Span: b.span(stmt)}

	if op := ts.ChildByFieldName("operator"); op != nil {
		node.Value = b.text(op)
	}

	if left := ts.ChildByFieldName("left"); left != nil {
		node.Children = append(node.Children, b.buildExpression(left))
	}

	if right := ts.ChildByFieldName("right"); right != nil {
		node.Children = append(node.Children, b.buildExpression(right))
	}

	return node
}

func (b *astBuilder) buildFunctionDef(ts *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindFunctionDef, Span: b.span(ts)}

	if name := ts.ChildByFieldName("name"); name != nil {
		node.Name = b.text(name)
		node.NameSpan = b.span(name)
	}

	params := &m.Node{Kind: m.KindParameters}
	if p := ts.ChildByFieldName("parameters"); p != nil {
		params.Span = b.span(p)
		for i := 0; i < int(p.NamedChildCount()); i++ {
			params.Children = append(params.Children, b.buildParam(p.NamedChild(i)))
		}
	}

	node.Children = append(node.Children, params)

	if body := ts.ChildByFieldName("body"); body != nil {
		node.Children = append(node.Children, b.buildBlock(body))
	}

	return node
}

func (b *astBuilder) buildParam(ts *sitter.Node) *m.Node {
	param := &m.Node{Kind: m.KindParam, Span: b.span(ts)}

	switch ts.Type() {
	case "identifier":
		param.Name = b.text(ts)
	case "typed_parameter", "default_parameter", "typed_default_parameter":
		// First identifier child carries the parameter name; the full
		// verbatim text is kept so the generator can reproduce defaults
		// and annotations.
		param.Value = b.text(ts)
		for i := 0; i < int(ts.NamedChildCount()); i++ {
			if ts.NamedChild(i).Type() == "identifier" {
				param.Name = b.text(ts.NamedChild(i))
				break
			}
		}
	default:
		param.Name = b.text(ts)
		param.Value = b.text(ts)
	}

	return param
}

func (b *astBuilder) buildClassDef(ts *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindClassDef, Span: b.span(ts)}

	if name := ts.ChildByFieldName("name"); name != nil {
		node.Name = b.text(name)
		node.NameSpan = b.span(name)
	}

	bases := &m.Node{Kind: m.KindArguments}
	if super := ts.ChildByFieldName("superclasses"); super != nil {
		bases.Span = b.span(super)
		for i := 0; i < int(super.NamedChildCount()); i++ {
			bases.Children = append(bases.Children, b.buildExpression(super.NamedChild(i)))
		}
	}

	node.Children = append(node.Children, bases)

	if body := ts.ChildByFieldName("body"); body != nil {
		node.Children = append(node.Children, b.buildBlock(body))
	}

	return node
}

func (b *astBuilder) buildTry(ts *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindTry, Span: b.span(ts)}

	if body := ts.ChildByFieldName("body"); body != nil {
		node.Children = append(node.Children, b.buildBlock(body))
	}

	for i := 0; i < int(ts.NamedChildCount()); i++ {
		child := ts.NamedChild(i)

		switch child.Type() {
		case "except_clause":
			node.Children = append(node.Children, b.buildExceptClause(child))
		case "else_clause":
			node.Children = append(node.Children, b.buildTrailingClause(child, m.KindElseClause))
		case "finally_clause":
			node.Children = append(node.Children, b.buildTrailingClause(child, m.KindFinallyClause))
		}
	}

	return node
}

// buildExceptClause models "except Type as name:". Name holds the exception
// type text, Value the bound name when present.
func (b *astBuilder) buildExceptClause(ts *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindExceptHandler, Span: b.span(ts)}

	for i := 0; i < int(ts.NamedChildCount()); i++ {
		child := ts.NamedChild(i)

		switch child.Type() {
		case "block":
			node.Children = append(node.Children, b.buildBlock(child))
		case "as_pattern":
			if child.NamedChildCount() > 0 {
				node.Name = b.text(child.NamedChild(0))
			}

			if alias := child.ChildByFieldName("alias"); alias != nil {
				node.Value = b.text(alias)
			}
		default:
			node.Name = b.text(child)
		}
	}

	return node
}

func (b *astBuilder) buildTrailingClause(ts *sitter.Node, kind m.Kind) *m.Node {
	node := &m.Node{Kind: kind, Span: b.span(ts)}

	if body := ts.ChildByFieldName("body"); body != nil {
		node.Children = append(node.Children, b.buildBlock(body))
		return node
	}

	for i := 0; i < int(ts.NamedChildCount()); i++ {
		if ts.NamedChild(i).Type() == "block" {
			node.Children = append(node.Children, b.buildBlock(ts.NamedChild(i)))
		}
	}

	return node
}

func (b *astBuilder) buildFor(ts *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindFor, Span: b.span(ts)}

	if left := ts.ChildByFieldName("left"); left != nil {
		node.Children = append(node.Children, b.buildExpression(left))
	}

	if right := ts.ChildByFieldName("right"); right != nil {
		node.Children = append(node.Children, b.buildExpression(right))
	}

	if body := ts.ChildByFieldName("body"); body != nil {
		node.Children = append(node.Children, b.buildBlock(body))
	}

	if alt := ts.ChildByFieldName("alternative"); alt != nil {
		node.Children = append(node.Children, b.buildTrailingClause(alt, m.KindElseClause))
	}

	return node
}

func (b *astBuilder) buildWhile(ts *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindWhile, Span: b.span(ts)}

	if cond := ts.ChildByFieldName("condition"); cond != nil {
		node.Children = append(node.Children, b.buildExpression(cond))
	}

	if body := ts.ChildByFieldName("body"); body != nil {
		node.Children = append(node.Children, b.buildBlock(body))
	}

	return node
}

func (b *astBuilder) buildIf(ts *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindIf, Span: b.span(ts)}

	if cond := ts.ChildByFieldName("condition"); cond != nil {
		node.Children = append(node.Children, b.buildExpression(cond))
	}

	if cons := ts.ChildByFieldName("consequence"); cons != nil {
		node.Children = append(node.Children, b.buildBlock(cons))
	}

	for i := 0; i < int(ts.NamedChildCount()); i++ {
		child := ts.NamedChild(i)

		switch child.Type() {
		case "elif_clause":
			elif := &m.Node{Kind: m.KindElifClause, Span: b.span(child)}
			if cond := child.ChildByFieldName("condition"); cond != nil {
				elif.Children = append(elif.Children, b.buildExpression(cond))
			}

			if cons := child.ChildByFieldName("consequence"); cons != nil {
				elif.Children = append(elif.Children, b.buildBlock(cons))
			}

			node.Children = append(node.Children, elif)
		case "else_clause":
			node.Children = append(node.Children, b.buildTrailingClause(child, m.KindElseClause))
		}
	}

	return node
}

func (b *astBuilder) buildReturn(ts *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindReturn, Span: b.span(ts)}

	for i := 0; i < int(ts.NamedChildCount()); i++ {
		node.Children = append(node.Children, b.buildExpression(ts.NamedChild(i)))
	}

	return node
}

func (b *astBuilder) buildBlock(ts *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindBlock, Span: b.span(ts)}

	for i := 0; i < int(ts.NamedChildCount()); i++ {
		node.Children = append(node.Children, b.buildStatement(ts.NamedChild(i)))
	}

	return node
}

func (b *astBuilder) buildExpression(ts *sitter.Node) *m.Node {
	switch ts.Type() {
	case "identifier":
		return &m.Node{Kind: m.KindName, Name: b.text(ts), Span: b.span(ts)}
	case "attribute":
		node := &m.Node{Kind: m.KindAttribute, Span: b.span(ts)}
		if attr := ts.ChildByFieldName("attribute"); attr != nil {
			node.Name = b.text(attr)
		}

		if obj := ts.ChildByFieldName("object"); obj != nil {
			node.Children = append(node.Children, b.buildExpression(obj))
		}

		return node
	case "call":
		return b.buildCall(ts)
	case "binary_operator":
		return b.buildOperator(ts, m.KindBinaryOp)
	case "comparison_operator":
		return b.buildComparison(ts)
	case "string", "concatenated_string":
		return &m.Node{Kind: m.KindString, Value: b.text(ts), Span: b.span(ts)}
	case "integer", "float":
		return &m.Node{Kind: m.KindNumber, Value: b.text(ts), Span: b.span(ts)}
	case "true", "false":
		return &m.Node{Kind: m.KindBool, Value: b.text(ts), Span: b.span(ts)}
	case "none":
		return &m.Node{Kind: m.KindNone, Span: b.span(ts)}
	case "subscript":
		node := &m.Node{Kind: m.KindSubscript, Span: b.span(ts)}
		if value := ts.ChildByFieldName("value"); value != nil {
			node.Children = append(node.Children, b.buildExpression(value))
		}

		if sub := ts.ChildByFieldName("subscript"); sub != nil {
			node.Children = append(node.Children, b.buildExpression(sub))
		}

		return node
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		return &m.Node{Kind: m.KindComprehension, Value: b.text(ts), Span: b.span(ts)}
	default:
		return b.unknown(ts)
	}
}

func (b *astBuilder) buildCall(ts *sitter.Node) *m.Node {
	node := &m.Node{Kind: m.KindCall, Span: b.span(ts)}

	if fn := ts.ChildByFieldName("function"); fn != nil {
		node.Children = append(node.Children, b.buildExpression(fn))
	}

	if args := ts.ChildByFieldName("arguments"); args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			node.Children = append(node.Children, b.buildExpression(args.NamedChild(i)))
		}
	}

	return node
}

func (b *astBuilder) buildOperator(ts *sitter.Node, kind m.Kind) *m.Node {
	node := &m.Node{Kind: kind, Span: b.span(ts)}

	if op := ts.ChildByFieldName("operator"); op != nil {
		node.Value = b.text(op)
	}

	if left := ts.ChildByFieldName("left"); left != nil {
		node.Children = append(node.Children, b.buildExpression(left))
	}

	if right := ts.ChildByFieldName("right"); right != nil {
		node.Children = append(node.Children, b.buildExpression(right))
	}

	return node
}

// buildComparison keeps two-operand comparisons structured; chained
// comparisons fall back to an unknown node rendered verbatim.
func (b *astBuilder) buildComparison(ts *sitter.Node) *m.Node {
	if ts.NamedChildCount() != 2 {
		return b.unknown(ts)
	}

	node := &m.Node{Kind: m.KindCompare, Span: b.span(ts)}

	for i := 0; i < int(ts.ChildCount()); i++ {
		child := ts.Child(i)
		if !child.IsNamed() {
			node.Value = b.text(child)
			break
		}
	}

	node.Children = append(node.Children,
		b.buildExpression(ts.NamedChild(0)),
		b.buildExpression(ts.NamedChild(1)),
	)

	return node
}

func (b *astBuilder) unknown(ts *sitter.Node) *m.Node {
	return &m.Node{Kind: m.KindUnknown, Span: b.span(ts)}
}

func (b *astBuilder) text(ts *sitter.Node) string {
	return ts.Content(b.source)
}

func (b *astBuilder) span(ts *sitter.Node) m.Span {
	return m.Span{
		StartByte: ts.StartByte(),
		EndByte:   ts.EndByte(),
		StartLine: int(ts.StartPoint().Row) + 1,
		EndLine:   int(ts.EndPoint().Row) + 1,
		StartCol:  int(ts.StartPoint().Column),
	}
}

package codegen

import (
	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

// callString renders a call node: first child is the callee, the rest are
// arguments.
func callString(n *m.Node) (string, error) {
	callee, err := exprString(n.Child(0))
	if err != nil {
		return "", err
	}

	args, err := exprList(n.Children[1:])
	if err != nil {
		return "", err
	}

	return callee + "(" + args + ")", nil
}

func genExprStmt(b *builder, n *m.Node) error {
	parts, err := exprList(n.Children)
	if err != nil {
		return err
	}

	b.line(parts)

	return nil
}

// CreateFunctionCall builds "name(arg, ...)" from verbatim callee and
// argument text. The callee may be dotted.
func CreateFunctionCall(name string, args ...string) *m.Node {
	node := &m.Node{
		Kind:     m.KindCall,
		Children: []*m.Node{NewRawExpr(name)},
	}

	for _, arg := range args {
		node.Children = append(node.Children, NewRawExpr(arg))
	}

	return node
}

// CreateCallStatement wraps a call in statement position.
func CreateCallStatement(name string, args ...string) *m.Node {
	return &m.Node{
		Kind:     m.KindExprStmt,
		Children: []*m.Node{CreateFunctionCall(name, args...)},
	}
}

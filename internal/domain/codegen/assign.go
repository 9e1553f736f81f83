package codegen

import (
	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

func genAssign(b *builder, n *m.Node) error {
	target, err := exprString(n.Child(0))
	if err != nil {
		return err
	}

	value, err := exprString(n.Child(1))
	if err != nil {
		return err
	}

	b.linef("%s = %s", target, value)

	return nil
}

func genAugAssign(b *builder, n *m.Node) error {
	target, err := exprString(n.Child(0))
	if err != nil {
		return err
	}

	value, err := exprString(n.Child(1))
	if err != nil {
		return err
	}

	b.linef("%s %s %s", target, n.Value, value)

	return nil
}

// CreateAssignment builds "target = value" from verbatim expression text on
// both sides.
func CreateAssignment(target, value string) *m.Node {
	return &m.Node{
		Kind: m.KindAssign,
		Children: []*m.Node{
			NewRawExpr(target),
			NewRawExpr(value),
		},
	}
}

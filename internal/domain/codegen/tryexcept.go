package codegen

import (
	"fmt"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

func genTry(b *builder, n *m.Node) error {
	body := n.Child(0)
	if body == nil || body.Kind != m.KindBlock {
		return fmt.Errorf("%w: try without body", m.ErrUnsupportedConstruct)
	}

	handlers := 0

	b.line("try:")
	if err := genBlock(b, body); err != nil {
		return err
	}

	for _, child := range n.Children[1:] {
		switch child.Kind {
		case m.KindExceptHandler:
			handlers++
			if err := genExceptHandler(b, child); err != nil {
				return err
			}
		case m.KindElseClause:
			b.line("else:")
			if err := genBlock(b, child.Child(0)); err != nil {
				return err
			}
		case m.KindFinallyClause:
			b.line("finally:")
			if err := genBlock(b, child.Child(0)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s inside try", m.ErrUnsupportedConstruct, child.Kind)
		}
	}

	if handlers == 0 {
		return fmt.Errorf("%w: try without except handler", m.ErrUnsupportedConstruct)
	}

	return nil
}

func genExceptHandler(b *builder, n *m.Node) error {
	switch {
	case n.Name == "":
		b.line("except:")
	case n.Value != "":
		b.linef("except %s as %s:", n.Name, n.Value)
	default:
		b.linef("except %s:", n.Name)
	}

	return genBlock(b, n.Child(0))
}

// CreateTryExcept builds a try statement with one handler. The exception
// type may be empty for a bare except, and bound may be empty when the
// handler does not bind the exception.
func CreateTryExcept(body []*m.Node, exceptionType, bound string, handlerBody []*m.Node) *m.Node {
	return &m.Node{
		Kind: m.KindTry,
		Children: []*m.Node{
			{Kind: m.KindBlock, Children: body},
			{
				Kind:  m.KindExceptHandler,
				Name:  exceptionType,
				Value: bound,
				Children: []*m.Node{
					{Kind: m.KindBlock, Children: handlerBody},
				},
			},
		},
	}
}

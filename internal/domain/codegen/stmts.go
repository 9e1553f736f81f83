package codegen

import (
	"fmt"
	"strings"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

func genReturn(b *builder, n *m.Node) error {
	if len(n.Children) == 0 {
		b.line("return")
		return nil
	}

	values, err := exprList(n.Children)
	if err != nil {
		return err
	}

	b.linef("return %s", values)

	return nil
}

func genPass(b *builder, _ *m.Node) error {
	b.line("pass")
	return nil
}

func genComment(b *builder, n *m.Node) error {
	b.line(n.Value)
	return nil
}

func genIf(b *builder, n *m.Node) error {
	cond, err := exprString(n.Child(0))
	if err != nil {
		return err
	}

	b.linef("if %s:", cond)
	if err := genBlock(b, n.Child(1)); err != nil {
		return err
	}

	for _, child := range n.Children[2:] {
		switch child.Kind {
		case m.KindElifClause:
			elifCond, err := exprString(child.Child(0))
			if err != nil {
				return err
			}

			b.linef("elif %s:", elifCond)
			if err := genBlock(b, child.Child(1)); err != nil {
				return err
			}
		case m.KindElseClause:
			b.line("else:")
			if err := genBlock(b, child.Child(0)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s inside if", m.ErrUnsupportedConstruct, child.Kind)
		}
	}

	return nil
}

func genFor(b *builder, n *m.Node) error {
	target, err := exprString(n.Child(0))
	if err != nil {
		return err
	}

	iterable, err := exprString(n.Child(1))
	if err != nil {
		return err
	}

	b.linef("for %s in %s:", target, iterable)
	if err := genBlock(b, n.Child(2)); err != nil {
		return err
	}

	for _, child := range n.Children[3:] {
		if child.Kind != m.KindElseClause {
			return fmt.Errorf("%w: %s inside for", m.ErrUnsupportedConstruct, child.Kind)
		}

		b.line("else:")
		if err := genBlock(b, child.Child(0)); err != nil {
			return err
		}
	}

	return nil
}

func genWhile(b *builder, n *m.Node) error {
	cond, err := exprString(n.Child(0))
	if err != nil {
		return err
	}

	b.linef("while %s:", cond)

	return genBlock(b, n.Child(1))
}

func genFunctionDef(b *builder, n *m.Node) error {
	if n.Name == "" {
		return fmt.Errorf("%w: function without name", m.ErrUnsupportedConstruct)
	}

	params, err := paramList(n.Child(0))
	if err != nil {
		return err
	}

	b.linef("def %s(%s):", n.Name, params)

	return genBlock(b, n.Child(1))
}

func genClassDef(b *builder, n *m.Node) error {
	if n.Name == "" {
		return fmt.Errorf("%w: class without name", m.ErrUnsupportedConstruct)
	}

	bases := n.Child(0)
	if bases != nil && len(bases.Children) > 0 {
		list, err := exprList(bases.Children)
		if err != nil {
			return err
		}

		b.linef("class %s(%s):", n.Name, list)
	} else {
		b.linef("class %s:", n.Name)
	}

	return genBlock(b, n.Child(1))
}

// paramList renders a parameter list; verbatim text on a parameter (defaults,
// annotations) wins over the bare name.
func paramList(params *m.Node) (string, error) {
	if params == nil {
		return "", nil
	}

	parts := make([]string, 0, len(params.Children))

	for _, p := range params.Children {
		switch {
		case p == nil || p.Kind != m.KindParam:
			return "", fmt.Errorf("%w: malformed parameter", m.ErrUnsupportedConstruct)
		case p.Value != "":
			parts = append(parts, p.Value)
		case p.Name != "":
			parts = append(parts, p.Name)
		default:
			return "", fmt.Errorf("%w: empty parameter", m.ErrUnsupportedConstruct)
		}
	}

	return strings.Join(parts, ", "), nil
}

// CreateFunctionDef builds "def name(params...)" with the given body
// statements. Parameters are verbatim text.
func CreateFunctionDef(name string, params []string, body []*m.Node) *m.Node {
	paramsNode := &m.Node{Kind: m.KindParameters}
	for _, p := range params {
		paramsNode.Children = append(paramsNode.Children, &m.Node{Kind: m.KindParam, Name: p})
	}

	return &m.Node{
		Kind: m.KindFunctionDef,
		Name: name,
		Children: []*m.Node{
			paramsNode,
			{Kind: m.KindBlock, Children: body},
		},
	}
}

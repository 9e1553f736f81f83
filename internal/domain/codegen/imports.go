package codegen

import (
	"fmt"
	"strings"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

func genImport(b *builder, n *m.Node) error {
	names, err := aliasList(n.Children)
	if err != nil {
		return err
	}

	b.linef("import %s", names)

	return nil
}

func genImportFrom(b *builder, n *m.Node) error {
	if n.Name == "" {
		return fmt.Errorf("%w: from-import without module", m.ErrUnsupportedConstruct)
	}

	names, err := aliasList(n.Children)
	if err != nil {
		return err
	}

	b.linef("from %s import %s", n.Name, names)

	return nil
}

func aliasList(aliases []*m.Node) (string, error) {
	if len(aliases) == 0 {
		return "", fmt.Errorf("%w: import without names", m.ErrUnsupportedConstruct)
	}

	parts := make([]string, 0, len(aliases))

	for _, a := range aliases {
		if a == nil || a.Kind != m.KindAlias || a.Name == "" {
			return "", fmt.Errorf("%w: malformed import name", m.ErrUnsupportedConstruct)
		}

		if a.Value != "" {
			parts = append(parts, a.Name+" as "+a.Value)
		} else {
			parts = append(parts, a.Name)
		}
	}

	return strings.Join(parts, ", "), nil
}

// CreateImport builds "import module" or "import module as alias".
func CreateImport(module, alias string) *m.Node {
	return &m.Node{
		Kind: m.KindImport,
		Children: []*m.Node{
			{Kind: m.KindAlias, Name: module, Value: alias},
		},
	}
}

// CreateImportFrom builds "from module import name, ...".
func CreateImportFrom(module string, names ...string) *m.Node {
	node := &m.Node{Kind: m.KindImportFrom, Name: module}
	for _, name := range names {
		node.Children = append(node.Children, &m.Node{Kind: m.KindAlias, Name: name})
	}

	return node
}

// Package adapter contains the external collaborators of the refactoring
// engine: the grammar parser, the filesystem, and change-log persistence.
package adapter

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

// PythonParser is the engine's view of the external grammar parser. The
// engine never parses text itself; it consumes Kind-tagged trees with spans
// and delegates fragment validation back here.
type PythonParser interface {
	// Parse turns source text into a generation-1 syntax tree.
	Parse(ctx context.Context, source []byte) (*m.SyntaxTree, error)

	// ParseGeneration parses source text into a tree stamped with the given
	// generation number. The mutation engine uses it to mint the successor
	// generation after an applied edit batch.
	ParseGeneration(ctx context.Context, source []byte, generation uint64) (*m.SyntaxTree, error)

	// ValidateFragment checks that fragment parses cleanly as the given
	// grammatical category, returning ErrInvalidFragment otherwise.
	ValidateFragment(ctx context.Context, fragment string, category m.FragmentCategory) error
}

// TreeSitterParser backs PythonParser with the tree-sitter Python grammar.
// It is stateless; a fresh tree-sitter parser is created per call so
// concurrent parses never share parser state.
type TreeSitterParser struct{}

// NewTreeSitterParser constructs a TreeSitterParser.
func NewTreeSitterParser() *TreeSitterParser {
	return &TreeSitterParser{}
}

// Parse builds a generation-1 tree from source.
func (p *TreeSitterParser) Parse(ctx context.Context, source []byte) (*m.SyntaxTree, error) {
	return p.ParseGeneration(ctx, source, 1)
}

// ParseGeneration builds a tree stamped with the given generation.
func (p *TreeSitterParser) ParseGeneration(ctx context.Context, source []byte, generation uint64) (*m.SyntaxTree, error) {
	tree, err := p.parseRaw(ctx, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	if tree.RootNode().HasError() {
		return nil, fmt.Errorf("syntax error%s", errorLocation(tree.RootNode()))
	}

	root := newASTBuilder(source).Build(tree)

	return m.NewSyntaxTree(root, source, generation), nil
}

// ValidateFragment parses fragment and checks its grammatical category.
// Statements accept any non-empty, error-free module body; expressions must
// reduce to exactly one expression statement.
func (p *TreeSitterParser) ValidateFragment(ctx context.Context, fragment string, category m.FragmentCategory) error {
	if strings.TrimSpace(fragment) == "" {
		return fmt.Errorf("%w: empty %s fragment", m.ErrInvalidFragment, category)
	}

	tree, err := p.parseRaw(ctx, []byte(fragment))
	if err != nil {
		return fmt.Errorf("%w: %v", m.ErrInvalidFragment, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return fmt.Errorf("%w: %s does not parse%s", m.ErrInvalidFragment, category, errorLocation(root))
	}

	statements := 0
	expressionOnly := true

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}

		statements++

		// An assignment also parses as an expression_statement; it is not
		// an expression for replacement purposes.
		if child.Type() != "expression_statement" || containsAssignment(child) {
			expressionOnly = false
		}
	}

	if statements == 0 {
		return fmt.Errorf("%w: %s fragment has no content", m.ErrInvalidFragment, category)
	}

	if category == m.FragmentExpression && (statements != 1 || !expressionOnly) {
		return fmt.Errorf("%w: fragment is not a single expression", m.ErrInvalidFragment)
	}

	return nil
}

func (p *TreeSitterParser) parseRaw(ctx context.Context, source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	return tree, nil
}

func containsAssignment(stmt *sitter.Node) bool {
	for i := 0; i < int(stmt.NamedChildCount()); i++ {
		switch stmt.NamedChild(i).Type() {
		case "assignment", "augmented_assignment":
			return true
		}
	}

	return false
}

// errorLocation finds the first ERROR or missing node for diagnostics.
func errorLocation(root *sitter.Node) string {
	var loc string

	var walk func(n *sitter.Node) bool

	walk = func(n *sitter.Node) bool {
		if n.Type() == "ERROR" || n.IsMissing() {
			loc = fmt.Sprintf(" at line %d", n.StartPoint().Row+1)
			return true
		}

		for i := 0; i < int(n.ChildCount()); i++ {
			if walk(n.Child(i)) {
				return true
			}
		}

		return false
	}

	walk(root)

	return loc
}

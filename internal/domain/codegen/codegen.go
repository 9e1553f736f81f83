// Package codegen renders engine node trees back to source text. Generation
// is fail-closed: a node kind outside the dispatch table is an error, never
// best-effort text.
package codegen

import (
	"fmt"
	"strings"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

const indentUnit = "    "

type genFunc func(b *builder, n *m.Node) error

// statements maps each generatable statement kind to its renderer. Assembled
// in init so the per-construct files can reference each other.
var statements map[m.Kind]genFunc

func init() {
	statements = map[m.Kind]genFunc{
		m.KindImport:      genImport,
		m.KindImportFrom:  genImportFrom,
		m.KindAssign:      genAssign,
		m.KindAugAssign:   genAugAssign,
		m.KindExprStmt:    genExprStmt,
		m.KindReturn:      genReturn,
		m.KindPass:        genPass,
		m.KindComment:     genComment,
		m.KindTry:         genTry,
		m.KindIf:          genIf,
		m.KindFor:         genFor,
		m.KindWhile:       genWhile,
		m.KindFunctionDef: genFunctionDef,
		m.KindClassDef:    genClassDef,
	}
}

// Supported reports whether the generator can render kind in statement
// position.
func Supported(kind m.Kind) bool {
	_, ok := statements[kind]
	return ok
}

// Generate renders a single node. Statement nodes render as one or more
// indented lines without a trailing newline; expression nodes render inline.
func Generate(n *m.Node) (string, error) {
	if n == nil {
		return "", fmt.Errorf("%w: nil node", m.ErrUnsupportedConstruct)
	}

	if isExprKind(n.Kind) {
		return exprString(n)
	}

	b := &builder{}
	if err := genStatement(b, n); err != nil {
		return "", err
	}

	return strings.TrimRight(b.sb.String(), "\n"), nil
}

// GenerateTree renders a whole module, one statement per line group,
// separated by single blank-line-free newlines.
func GenerateTree(tree *m.SyntaxTree) (string, error) {
	root := tree.Root()
	if root == nil {
		return "", nil
	}

	if root.Kind != m.KindModule {
		return "", fmt.Errorf("%w: %s at module position", m.ErrUnsupportedConstruct, root.Kind)
	}

	b := &builder{}
	for _, child := range root.Children {
		if err := genStatement(b, child); err != nil {
			return "", err
		}
	}

	return b.sb.String(), nil
}

func genStatement(b *builder, n *m.Node) error {
	gen, ok := statements[n.Kind]
	if !ok {
		return fmt.Errorf("%w: %s in statement position", m.ErrUnsupportedConstruct, n.Kind)
	}

	return gen(b, n)
}

// genBlock renders a block body one level deeper. An empty block renders a
// pass so the output still parses.
func genBlock(b *builder, block *m.Node) error {
	b.depth++
	defer func() { b.depth-- }()

	if block == nil || len(block.Children) == 0 {
		b.line("pass")
		return nil
	}

	for _, child := range block.Children {
		if err := genStatement(b, child); err != nil {
			return err
		}
	}

	return nil
}

type builder struct {
	sb    strings.Builder
	depth int
}

func (b *builder) line(s string) {
	for i := 0; i < b.depth; i++ {
		b.sb.WriteString(indentUnit)
	}

	b.sb.WriteString(s)
	b.sb.WriteByte('\n')
}

func (b *builder) linef(format string, args ...any) {
	b.line(fmt.Sprintf(format, args...))
}

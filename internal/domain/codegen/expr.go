package codegen

import (
	"fmt"
	"strings"

	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

func isExprKind(kind m.Kind) bool {
	switch kind {
	case m.KindName, m.KindAttribute, m.KindCall, m.KindSubscript,
		m.KindBinaryOp, m.KindCompare, m.KindString, m.KindNumber,
		m.KindBool, m.KindNone, m.KindComprehension, m.KindRawExpr:
		return true
	default:
		return false
	}
}

// exprString renders an expression node inline.
func exprString(n *m.Node) (string, error) {
	if n == nil {
		return "", fmt.Errorf("%w: missing expression", m.ErrUnsupportedConstruct)
	}

	switch n.Kind {
	case m.KindName:
		return n.Name, nil

	case m.KindRawExpr, m.KindString, m.KindNumber, m.KindBool, m.KindComprehension:
		return n.Value, nil

	case m.KindNone:
		return "None", nil

	case m.KindAttribute:
		obj, err := exprString(n.Child(0))
		if err != nil {
			return "", err
		}

		return obj + "." + n.Name, nil

	case m.KindCall:
		return callString(n)

	case m.KindSubscript:
		value, err := exprString(n.Child(0))
		if err != nil {
			return "", err
		}

		sub, err := exprString(n.Child(1))
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("%s[%s]", value, sub), nil

	case m.KindBinaryOp, m.KindCompare:
		left, err := exprString(n.Child(0))
		if err != nil {
			return "", err
		}

		right, err := exprString(n.Child(1))
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("%s %s %s", left, n.Value, right), nil

	default:
		return "", fmt.Errorf("%w: %s in expression position", m.ErrUnsupportedConstruct, n.Kind)
	}
}

func exprList(nodes []*m.Node) (string, error) {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		s, err := exprString(n)
		if err != nil {
			return "", err
		}

		parts = append(parts, s)
	}

	return strings.Join(parts, ", "), nil
}

// NewRawExpr wraps verbatim expression text as a synthesis-only leaf. Raw
// expressions let callers build assignments and calls around text the node
// model does not structure.
func NewRawExpr(text string) *m.Node {
	return &m.Node{Kind: m.KindRawExpr, Value: text}
}

package domain

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"pyrefac.dev/pkg/pyrefac/internal/domain/codegen"
	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

// deprecatedModules is the built-in modernization table: Python 2 era module
// paths and their current replacements.
var deprecatedModules = map[string]string{
	"imp":          "importlib",
	"optparse":     "argparse",
	"ConfigParser": "configparser",
	"StringIO":     "io",
	"cPickle":      "pickle",
	"urllib2":      "urllib.request",
	"urlparse":     "urllib.parse",
}

// ApplyRule stages and applies one recipe rule on the session. Each rule is
// its own batch; a rule that matches nothing applies cleanly as a no-op.
func ApplyRule(ctx context.Context, r Refactor, rule m.Rule) error {
	var err error

	switch rule.Kind {
	case m.RuleRenameFunction:
		err = RenameFunction(ctx, r, rule.Old, rule.New)
	case m.RuleRenameClass:
		err = RenameClass(ctx, r, rule.Old, rule.New)
	case m.RuleReplaceImport:
		err = ReplaceImport(ctx, r, rule.Old, rule.New)
	case m.RuleModernizeImports:
		err = ModernizeImports(ctx, r)
	case m.RulePkgResources:
		err = ModernizePkgResources(ctx, r, rule.Module, rule.Function)
	default:
		return fmt.Errorf("unknown rule kind %q", rule.Kind)
	}

	if err != nil {
		return fmt.Errorf("rule %s: %w", rule.Kind, err)
	}

	return nil
}

// RenameFunction renames every definition of oldName plus every plain-name call
// site, then applies. Attribute calls (method syntax) are left alone.
func RenameFunction(ctx context.Context, r Refactor, oldName, newName string) error {
	if err := renameDefinitions(ctx, r, m.KindFunctionDef, oldName, newName); err != nil {
		return err
	}

	if err := renameCallSites(ctx, r, oldName, newName); err != nil {
		return err
	}

	_, err := r.Apply(ctx)

	return err
}

// RenameClass renames class definitions, constructor call sites, and base
// class references, then applies.
func RenameClass(ctx context.Context, r Refactor, oldName, newName string) error {
	if err := renameDefinitions(ctx, r, m.KindClassDef, oldName, newName); err != nil {
		return err
	}

	if err := renameCallSites(ctx, r, oldName, newName); err != nil {
		return err
	}

	q := r.Query()
	for ref, node := range q.Walk() {
		if node.Kind != m.KindClassDef {
			continue
		}

		bases := node.Child(0)
		if bases == nil {
			continue
		}

		basesRef := ref.ChildRef(0)
		for i, base := range bases.Children {
			if base != nil && base.Kind == m.KindName && base.Name == oldName {
				if err := r.ReplaceNode(ctx, basesRef.ChildRef(i), newName); err != nil {
					return err
				}
			}
		}
	}

	_, err := r.Apply(ctx)

	return err
}

func renameDefinitions(ctx context.Context, r Refactor, kind m.Kind, oldName, newName string) error {
	for ref := range r.Query().FindNodes(kind, func(n *m.Node) bool { return n.Name == oldName }) {
		if err := r.ReplaceName(ctx, ref, newName); err != nil {
			return err
		}
	}

	return nil
}

func renameCallSites(ctx context.Context, r Refactor, oldName, newName string) error {
	q := r.Query()

	for callRef := range q.FindFunctionCalls(oldName) {
		call, err := callRef.Resolve(q.Tree())
		if err != nil {
			return err
		}

		callee := call.Child(0)
		if callee == nil || callee.Kind != m.KindName || callee.Name != oldName {
			continue
		}

		if err := r.ReplaceNode(ctx, callRef.ChildRef(0), newName); err != nil {
			return err
		}
	}

	return nil
}

// ReplaceImport rewrites imports of oldPath (dotted-prefix policy) to newPath and
// applies. Plain imports keep their aliases; from-imports keep their names.
func ReplaceImport(ctx context.Context, r Refactor, oldPath, newPath string) error {
	q := r.Query()

	for ref := range q.FindImports(oldPath) {
		node, err := ref.Resolve(q.Tree())
		if err != nil {
			return err
		}

		rebuilt := rebuildImport(node, oldPath, newPath)

		fragment, err := codegen.Generate(rebuilt)
		if err != nil {
			return err
		}

		if err := r.ReplaceNode(ctx, ref, fragment); err != nil {
			return err
		}
	}

	_, err := r.Apply(ctx)

	return err
}

func rebuildImport(node *m.Node, oldPath, newPath string) *m.Node {
	if node.Kind == m.KindImportFrom {
		rebuilt := &m.Node{Kind: m.KindImportFrom, Name: rewriteModule(node.Name, oldPath, newPath)}
		for _, alias := range node.Children {
			rebuilt.Children = append(rebuilt.Children, &m.Node{
				Kind:  m.KindAlias,
				Name:  alias.Name,
				Value: alias.Value,
			})
		}

		return rebuilt
	}

	rebuilt := &m.Node{Kind: m.KindImport}
	for _, alias := range node.Children {
		rebuilt.Children = append(rebuilt.Children, &m.Node{
			Kind:  m.KindAlias,
			Name:  rewriteModule(alias.Name, oldPath, newPath),
			Value: alias.Value,
		})
	}

	return rebuilt
}

// rewriteModule swaps the legacy module path for its replacement when module
// is the path itself or a submodule of it.
func rewriteModule(module, oldPath, newPath string) string {
	if module == oldPath {
		return newPath
	}

	if strings.HasPrefix(module, oldPath+".") {
		return newPath + strings.TrimPrefix(module, oldPath)
	}

	return module
}

// ModernizeImports applies every entry of the deprecated-module table, one
// batch per module so each rewrite sees the previous one's generation.
// Modules go in sorted order so change records and diffs come out the same
// on every run.
func ModernizeImports(ctx context.Context, r Refactor) error {
	legacies := make([]string, 0, len(deprecatedModules))
	for legacy := range deprecatedModules {
		legacies = append(legacies, legacy)
	}

	sort.Strings(legacies)

	for _, legacy := range legacies {
		if err := ReplaceImport(ctx, r, legacy, deprecatedModules[legacy]); err != nil {
			return err
		}
	}

	return nil
}

// ModernizePkgResources rewrites the version-detection idiom
//
//	try:
//	    __version__ = pkg_resources.get_distribution("pkg").version
//	except pkg_resources.DistributionNotFound:
//	    ...
//
// to importlib.metadata, in every scope where the module import, the guarded
// call and the handler all line up. module and function name the legacy pair
// to look for, typically pkg_resources and get_distribution.
func ModernizePkgResources(ctx context.Context, r Refactor, module, function string) error {
	pattern := NewPattern().
		HasImport(module).
		TryBodyContainsCall(function).
		ExceptHandles("DistributionNotFound")

	matches := pattern.FindMatches(r.Tree())
	if len(matches) == 0 {
		return nil
	}

	q := r.Query()

	type tryRewrite struct {
		ref      m.NodeRef
		fragment string
	}

	seen := map[string]bool{}
	var rewrites []tryRewrite

	for _, match := range matches {
		tryRef, ok := match.Capture(CaptureTry)
		if !ok || seen[tryRef.String()] {
			continue
		}

		seen[tryRef.String()] = true

		tryNode, err := tryRef.Resolve(q.Tree())
		if err != nil {
			return err
		}

		rebuilt, err := modernizeTry(tryNode, function)
		if err != nil {
			return err
		}

		// A guarded call the rewrite cannot reach must keep its imports and
		// handler; swapping either would leave the body calling a name the
		// file no longer imports. Leave the whole file alone.
		if rebuilt == nil {
			return nil
		}

		fragment, err := codegen.Generate(rebuilt)
		if err != nil {
			return err
		}

		rewrites = append(rewrites, tryRewrite{ref: tryRef, fragment: fragment})
	}

	for _, rw := range rewrites {
		if err := r.ReplaceNode(ctx, rw.ref, rw.fragment); err != nil {
			return err
		}
	}

	if err := rewriteLegacyImports(ctx, r, q, module); err != nil {
		return err
	}

	_, err := r.Apply(ctx)

	return err
}

// rewriteLegacyImports swaps the first import of module for the
// importlib.metadata form and removes the rest, covering files that split
// the legacy names across several import statements.
func rewriteLegacyImports(ctx context.Context, r Refactor, q *Query, module string) error {
	fragment, err := codegen.Generate(
		codegen.CreateImportFrom("importlib.metadata", "version", "PackageNotFoundError"))
	if err != nil {
		return err
	}

	replaced := false
	for ref := range q.FindImports(module) {
		if !replaced {
			replaced = true
			if err := r.ReplaceNode(ctx, ref, fragment); err != nil {
				return err
			}

			continue
		}

		if err := r.RemoveNode(ctx, ref); err != nil {
			return err
		}
	}

	return nil
}

// modernizeTry rebuilds a try statement around version(), keeping assignment
// targets and handler bodies. When the legacy call survives the body rewrite
// (it sits outside any assignment the rule understands) it returns nil and
// the caller skips the file. The handler body must be regenerable; anything
// the generator does not support fails the whole rule.
func modernizeTry(tryNode *m.Node, function string) (*m.Node, error) {
	body := tryNode.Child(0)
	if body == nil || body.Kind != m.KindBlock {
		return nil, fmt.Errorf("%w: try without body", m.ErrUnsupportedConstruct)
	}

	newBody := make([]*m.Node, 0, len(body.Children))

	for _, stmt := range body.Children {
		rebuilt, err := modernizeVersionAssign(stmt, function)
		if err != nil {
			return nil, err
		}

		newBody = append(newBody, rebuilt)
	}

	for _, stmt := range newBody {
		if findCallNamed(stmt, function) != nil {
			return nil, nil
		}
	}

	rebuilt := &m.Node{
		Kind:     m.KindTry,
		Children: []*m.Node{{Kind: m.KindBlock, Children: newBody}},
	}

	for _, child := range tryNode.Children[1:] {
		if child.Kind == m.KindExceptHandler && strings.Contains(child.Name, "DistributionNotFound") {
			rebuilt.Children = append(rebuilt.Children, &m.Node{
				Kind:     m.KindExceptHandler,
				Name:     "PackageNotFoundError",
				Value:    child.Value,
				Children: child.Children,
			})

			continue
		}

		rebuilt.Children = append(rebuilt.Children, child)
	}

	return rebuilt, nil
}

// modernizeVersionAssign rewrites "x = <mod>.get_distribution(arg).version"
// to "x = version(arg)". The argument may be any renderable expression, a
// string literal and __name__ being the common forms; statements without the
// idiom, or with an argument the generator cannot render, pass through.
func modernizeVersionAssign(stmt *m.Node, function string) (*m.Node, error) {
	if stmt.Kind != m.KindAssign {
		return stmt, nil
	}

	call := findCallNamed(stmt.Child(1), function)
	if call == nil {
		return stmt, nil
	}

	target := DottedText(stmt.Child(0))
	if target == "" {
		return stmt, nil
	}

	if len(call.Children) != 2 {
		return stmt, nil
	}

	arg, err := codegen.Generate(call.Children[1])
	if err != nil {
		return stmt, nil
	}

	return codegen.CreateAssignment(target, fmt.Sprintf("version(%s)", arg)), nil
}

// findCallNamed walks an expression for a call whose callee's trailing
// identifier is name.
func findCallNamed(n *m.Node, name string) *m.Node {
	if n == nil {
		return nil
	}

	if n.Kind == m.KindCall {
		if callee := n.Child(0); callee != nil {
			if callee.Kind == m.KindName && callee.Name == name {
				return n
			}

			if callee.Kind == m.KindAttribute && callee.Name == name {
				return n
			}
		}
	}

	for _, child := range n.Children {
		if found := findCallNamed(child, name); found != nil {
			return found
		}
	}

	return nil
}

package model

import (
	"fmt"
	"strings"
)

// NodeRef is a stable address for a node: the path of child indices from the
// root, scoped to one tree generation. A NodeRef stays valid (and comparable)
// after the tree value it came from goes away, but resolving it against a
// different generation fails with ErrStaleReference.
type NodeRef struct {
	path       []int
	generation uint64
}

// RootRef addresses the module node of the given tree.
func RootRef(tree *SyntaxTree) NodeRef {
	return NodeRef{generation: tree.Generation()}
}

// Generation returns the tree generation this reference was produced from.
func (r NodeRef) Generation() uint64 {
	return r.generation
}

// Depth returns the number of steps from the root.
func (r NodeRef) Depth() int {
	return len(r.path)
}

// Index returns the node's position among its siblings, or -1 for the root.
func (r NodeRef) Index() int {
	if len(r.path) == 0 {
		return -1
	}

	return r.path[len(r.path)-1]
}

// ChildRef addresses the i-th child of this node. The path slice is copied so
// references derived from the same parent never share backing storage.
func (r NodeRef) ChildRef(i int) NodeRef {
	path := make([]int, len(r.path)+1)
	copy(path, r.path)
	path[len(r.path)] = i

	return NodeRef{path: path, generation: r.generation}
}

// ParentRef addresses the node's parent. Calling it on the root returns the
// root again.
func (r NodeRef) ParentRef() NodeRef {
	if len(r.path) == 0 {
		return r
	}

	path := make([]int, len(r.path)-1)
	copy(path, r.path[:len(r.path)-1])

	return NodeRef{path: path, generation: r.generation}
}

// Equal reports whether both references address the same structural location
// in the same generation.
func (r NodeRef) Equal(other NodeRef) bool {
	if r.generation != other.generation || len(r.path) != len(other.path) {
		return false
	}

	for i, step := range r.path {
		if other.path[i] != step {
			return false
		}
	}

	return true
}

// Contains reports whether other addresses r itself or a descendant of r
// within the same generation.
func (r NodeRef) Contains(other NodeRef) bool {
	if r.generation != other.generation || len(other.path) < len(r.path) {
		return false
	}

	for i, step := range r.path {
		if other.path[i] != step {
			return false
		}
	}

	return true
}

// Resolve walks the tree to the addressed node. It fails with
// ErrStaleReference when the reference was produced from a different
// generation or the path no longer exists.
func (r NodeRef) Resolve(tree *SyntaxTree) (*Node, error) {
	if tree == nil || tree.Generation() != r.generation {
		return nil, fmt.Errorf("%w: ref generation %d, tree generation %d",
			ErrStaleReference, r.generation, treeGeneration(tree))
	}

	node := tree.Root()
	for _, idx := range r.path {
		if node == nil || idx < 0 || idx >= len(node.Children) {
			return nil, fmt.Errorf("%w: path %s does not exist in generation %d",
				ErrStaleReference, r, r.generation)
		}

		node = node.Children[idx]
	}

	if node == nil {
		return nil, fmt.Errorf("%w: path %s resolved to nothing", ErrStaleReference, r)
	}

	return node, nil
}

// String renders the path for diagnostics, e.g. "/3/0/1@g2".
func (r NodeRef) String() string {
	if len(r.path) == 0 {
		return fmt.Sprintf("/@g%d", r.generation)
	}

	var b strings.Builder
	for _, idx := range r.path {
		fmt.Fprintf(&b, "/%d", idx)
	}

	fmt.Fprintf(&b, "@g%d", r.generation)

	return b.String()
}

func treeGeneration(tree *SyntaxTree) uint64 {
	if tree == nil {
		return 0
	}

	return tree.Generation()
}

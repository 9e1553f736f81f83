package domain

import (
	"context"
	"testing"

	"pyrefac.dev/pkg/pyrefac/internal/adapter"
	m "pyrefac.dev/pkg/pyrefac/internal/model"
)

func parseSource(t *testing.T, source string) *m.SyntaxTree {
	t.Helper()

	tree, err := adapter.NewTreeSitterParser().Parse(context.Background(), []byte(source))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	return tree
}

const querySource = `import os
import os.path
import json as j
from urllib.parse import urlparse

counter = 0


def fetch(url):
    parsed = urlparse(url)
    try:
        body = os.path.join("a", "b")
    except (OSError, ValueError):
        body = None
    return body


class Client:
    retries = 3

    def get(self, url):
        self.last = fetch(url)
        return self.last
`

func TestWalkPreOrder(t *testing.T) {
	tree := parseSource(t, querySource)
	q := NewQuery(tree)

	var kinds []m.Kind
	for _, node := range q.Walk() {
		kinds = append(kinds, node.Kind)
	}

	if kinds[0] != m.KindModule {
		t.Fatalf("walk starts at %s, want module", kinds[0])
	}

	// Pre-order: the function definition comes before the statements of its
	// body, the class before its methods.
	idx := func(kind m.Kind) int {
		for i, k := range kinds {
			if k == kind {
				return i
			}
		}

		return -1
	}

	if idx(m.KindFunctionDef) == -1 || idx(m.KindTry) == -1 {
		t.Fatal("walk misses nested constructs")
	}

	if idx(m.KindFunctionDef) > idx(m.KindTry) {
		t.Fatal("function must be visited before its body")
	}
}

func TestWalkIsRestartable(t *testing.T) {
	tree := parseSource(t, querySource)
	q := NewQuery(tree)

	count := func() int {
		n := 0
		for range q.Walk() {
			n++
		}

		return n
	}

	first := count()
	second := count()

	if first == 0 || first != second {
		t.Fatalf("walk not restartable: %d vs %d", first, second)
	}
}

func TestFindImports(t *testing.T) {
	tree := parseSource(t, querySource)
	q := NewQuery(tree)

	countMatches := func(pattern string) int {
		n := 0
		for range q.FindImports(pattern) {
			n++
		}

		return n
	}

	t.Run("empty pattern matches all imports", func(t *testing.T) {
		if got := countMatches(""); got != 4 {
			t.Fatalf("got %d imports, want 4", got)
		}
	})

	t.Run("exact module", func(t *testing.T) {
		if got := countMatches("json"); got != 1 {
			t.Fatalf("got %d, want 1", got)
		}
	})

	t.Run("dotted prefix matches submodules", func(t *testing.T) {
		// "os" matches both "import os" and "import os.path".
		if got := countMatches("os"); got != 2 {
			t.Fatalf("got %d, want 2", got)
		}
	})

	t.Run("prefix is dotted, not textual", func(t *testing.T) {
		if got := countMatches("o"); got != 0 {
			t.Fatalf("got %d, want 0", got)
		}
	})

	t.Run("from-import matches source module", func(t *testing.T) {
		if got := countMatches("urllib.parse"); got != 1 {
			t.Fatalf("got %d, want 1", got)
		}

		if got := countMatches("urllib"); got != 1 {
			t.Fatalf("dotted prefix on from-import: got %d, want 1", got)
		}
	})
}

func TestFindFunctionCalls(t *testing.T) {
	tree := parseSource(t, querySource)
	q := NewQuery(tree)

	var spans []m.Span

	for ref := range q.FindFunctionCalls("fetch") {
		node, err := ref.Resolve(tree)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}

		spans = append(spans, node.Span)
	}

	if len(spans) != 1 {
		t.Fatalf("got %d fetch calls, want 1", len(spans))
	}

	// Attribute calls match by trailing identifier.
	joins := 0
	for range q.FindFunctionCalls("join") {
		joins++
	}

	if joins != 1 {
		t.Fatalf("got %d join calls, want 1", joins)
	}
}

func TestFindTryExceptBlocks(t *testing.T) {
	tree := parseSource(t, querySource)
	q := NewQuery(tree)

	count := func(exceptionType string) int {
		n := 0
		for range q.FindTryExceptBlocks(exceptionType) {
			n++
		}

		return n
	}

	if count("") != 1 {
		t.Fatal("should find the try block")
	}

	// Tuple handlers match any element.
	if count("OSError") != 1 || count("ValueError") != 1 {
		t.Fatal("tuple handler should match each element")
	}

	if count("KeyError") != 0 {
		t.Fatal("unrelated exception type must not match")
	}
}

func TestFindAssignments(t *testing.T) {
	tree := parseSource(t, querySource)
	q := NewQuery(tree)

	count := func(target string) int {
		n := 0
		for range q.FindAssignments(target) {
			n++
		}

		return n
	}

	if count("counter") != 1 {
		t.Fatal("module-level assignment not found")
	}

	if count("self.last") != 1 {
		t.Fatal("attribute target should match by dotted text")
	}

	if count("last") != 0 {
		t.Fatal("dotted target must match exactly")
	}
}

func TestImportsFlattened(t *testing.T) {
	tree := parseSource(t, querySource)
	q := NewQuery(tree)

	imports := q.Imports()
	if len(imports) != 4 {
		t.Fatalf("got %d import records, want 4", len(imports))
	}

	if imports[2].Module != "json" || imports[2].Alias != "j" {
		t.Fatalf("alias record wrong: %+v", imports[2])
	}

	last := imports[3]
	if !last.IsFrom || last.FromModule != "urllib.parse" || last.Module != "urlparse" {
		t.Fatalf("from record wrong: %+v", last)
	}
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecipe(t *testing.T) {
	data := []byte(`
version: 1
name: cleanup
rules:
  - rule: rename-function
    old: make_rect
    new: make_rectangle
  - rule: modernize-imports
  - rule: pkg-resources-version
    module: pkg_resources
    function: get_distribution
`)

	recipe, err := ParseRecipe(data)
	require.NoError(t, err)

	assert.Equal(t, 1, recipe.Version)
	assert.Equal(t, "cleanup", recipe.Name)
	require.Len(t, recipe.Rules, 3)
	assert.Equal(t, RuleRenameFunction, recipe.Rules[0].Kind)
	assert.Equal(t, "make_rect", recipe.Rules[0].Old)
	assert.Equal(t, RuleModernizeImports, recipe.Rules[1].Kind)
	assert.Equal(t, "pkg_resources", recipe.Rules[2].Module)
}

func TestParseRecipeRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"no rules":            "version: 1\nrules: []\n",
		"unknown rule":        "rules:\n  - rule: frobnicate\n",
		"rename without new":  "rules:\n  - rule: rename-class\n    old: A\n",
		"pkg without module":  "rules:\n  - rule: pkg-resources-version\n    function: f\n",
		"not yaml at all":     "{{{",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRecipe([]byte(doc))
			assert.Error(t, err)
		})
	}
}

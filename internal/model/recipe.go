package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RuleKind enumerates the high-level refactorings a recipe may request.
type RuleKind string

const (
	// RuleRenameFunction renames a function definition.
	RuleRenameFunction RuleKind = "rename-function"
	// RuleRenameClass renames a class definition.
	RuleRenameClass RuleKind = "rename-class"
	// RuleReplaceImport rewrites one imported module path to another.
	RuleReplaceImport RuleKind = "replace-import"
	// RuleModernizeImports applies the built-in deprecated-module table.
	RuleModernizeImports RuleKind = "modernize-imports"
	// RulePkgResources rewrites the pkg_resources version-detection idiom.
	RulePkgResources RuleKind = "pkg-resources-version"
)

// Rule is one recipe entry. Old/New apply to the rename and replace rules;
// Module/Function apply to the pkg_resources rule.
type Rule struct {
	Kind     RuleKind `yaml:"rule"`
	Old      string   `yaml:"old,omitempty"`
	New      string   `yaml:"new,omitempty"`
	Module   string   `yaml:"module,omitempty"`
	Function string   `yaml:"function,omitempty"`
}

// Recipe is a YAML-defined list of refactorings applied to every file in a
// batch run.
type Recipe struct {
	Version int    `yaml:"version"`
	Name    string `yaml:"name,omitempty"`
	Rules   []Rule `yaml:"rules"`
}

// ParseRecipe decodes and validates a YAML recipe document.
func ParseRecipe(data []byte) (Recipe, error) {
	var recipe Recipe
	if err := yaml.Unmarshal(data, &recipe); err != nil {
		return Recipe{}, fmt.Errorf("parse recipe: %w", err)
	}

	if len(recipe.Rules) == 0 {
		return Recipe{}, fmt.Errorf("recipe has no rules")
	}

	for i, rule := range recipe.Rules {
		if err := validateRule(rule); err != nil {
			return Recipe{}, fmt.Errorf("recipe rule %d: %w", i+1, err)
		}
	}

	return recipe, nil
}

func validateRule(rule Rule) error {
	switch rule.Kind {
	case RuleRenameFunction, RuleRenameClass, RuleReplaceImport:
		if rule.Old == "" || rule.New == "" {
			return fmt.Errorf("%s requires old and new", rule.Kind)
		}
	case RuleModernizeImports:
		// No arguments.
	case RulePkgResources:
		if rule.Module == "" || rule.Function == "" {
			return fmt.Errorf("%s requires module and function", rule.Kind)
		}
	default:
		return fmt.Errorf("unknown rule kind %q", rule.Kind)
	}

	return nil
}

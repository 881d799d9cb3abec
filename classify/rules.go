// Package classify assigns unclassified items to taxonomy nodes from
// wildcard filename rules: descending priority, first match wins, stable
// ties by rule-list position.
package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/modshelf/modshelf/taxonomy"
)

// Rule maps a wildcard pattern to a target taxonomy node. Higher priority
// rules are evaluated first; equal priorities keep their original list
// order.
type Rule struct {
	Pattern      string `yaml:"pattern"`
	TargetNodeID string `yaml:"target"`
	Priority     int    `yaml:"priority"`
}

// ruleFile is the on-disk shape of a rule set.
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	return rf.Rules, nil
}

// SaveRules writes a YAML rule file.
func SaveRules(path string, rules []Rule) error {
	data, err := yaml.Marshal(ruleFile{Rules: rules})
	if err != nil {
		return fmt.Errorf("failed to marshal rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write rules file: %w", err)
	}
	return nil
}

// RulesFromNodes derives the rule view over a forest: each node contributes
// a substring pattern on its own name at its own priority, in display
// order. Display order is what keeps equal-priority ties stable across
// fetches.
func RulesFromNodes(forest taxonomy.Forest) []Rule {
	var rules []Rule
	forest.Walk(func(n *taxonomy.Node) {
		rules = append(rules, Rule{
			Pattern:      "*" + n.Name + "*",
			TargetNodeID: n.ID,
			Priority:     n.Priority,
		})
	})
	return rules
}

package classify

import (
	"log/slog"
	"regexp"
	"sort"

	"github.com/modshelf/modshelf/internal/wildcard"
)

// Unclassified is the result for a name no rule matches.
const Unclassified = ""

type compiledRule struct {
	re       *regexp.Regexp
	target   string
	priority int
}

// Engine evaluates a fixed rule set against candidate names. Patterns are
// compiled once at construction, so classifying a batch of N names against
// R rules is O(N·R) matcher runs.
type Engine struct {
	rules  []compiledRule
	logger *slog.Logger
}

// NewEngine compiles the rule set. A rule whose pattern fails to compile is
// logged and skipped; it never aborts the batch.
func NewEngine(rules []Rule, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{logger: logger}
	for _, r := range rules {
		re, err := wildcard.Compile(r.Pattern)
		if err != nil {
			logger.Warn("skipping rule with invalid pattern",
				"pattern", r.Pattern, "target", r.TargetNodeID, "error", err)
			continue
		}
		e.rules = append(e.rules, compiledRule{
			re:       re,
			target:   r.TargetNodeID,
			priority: r.Priority,
		})
	}
	// Descending priority; SliceStable keeps original order within a
	// priority band so equal-priority outcomes are deterministic.
	sort.SliceStable(e.rules, func(a, b int) bool {
		return e.rules[a].priority > e.rules[b].priority
	})
	return e
}

// Len reports how many rules survived compilation.
func (e *Engine) Len() int {
	return len(e.rules)
}

// Classify returns the target node ID of the first matching rule, or
// Unclassified when nothing matches.
func (e *Engine) Classify(name string) string {
	for _, r := range e.rules {
		if r.re.MatchString(name) {
			return r.target
		}
	}
	return Unclassified
}

// ClassifyAll classifies a batch of names against the compiled rule set.
func (e *Engine) ClassifyAll(names []string) map[string]string {
	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = e.Classify(name)
	}
	return out
}

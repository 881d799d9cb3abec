package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/modshelf/modshelf/taxonomy"
)

// Engine searches a provider's nodes and items.
type Engine struct {
	provider Provider
}

// NewEngine creates a new search engine over the given provider
func NewEngine(provider Provider) *Engine {
	return &Engine{provider: provider}
}

// Search performs a search and returns ranked results
func (e *Engine) Search(options Options) ([]Result, error) {
	if options.Query == "" {
		return []Result{}, nil
	}

	forest, err := e.provider.FetchTree()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tree: %w", err)
	}
	items, err := e.provider.Items()
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	var results []Result
	forest.Walk(func(n *taxonomy.Node) {
		if r, ok := e.match(KindNode, n.ID, n.Name, "", options); ok {
			// Node names outrank item names at equal match quality.
			r.Score += 0.1
			if r.Score > 1.0 {
				r.Score = 1.0
			}
			results = append(results, r)
		}
	})
	for _, it := range items {
		if r, ok := e.match(KindItem, it.SHA, it.Name, it.Category, options); ok {
			results = append(results, r)
		}
	}

	// Sort by score (highest first); equal scores keep tree/item order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if options.MaxResults != nil && *options.MaxResults > 0 && len(results) > *options.MaxResults {
		results = results[:*options.MaxResults]
	}
	return results, nil
}

// match tests one name against the query and builds the result.
func (e *Engine) match(kind Kind, id, name, category string, options Options) (Result, bool) {
	haystack := name
	needle := options.Query
	if !options.CaseSensitive {
		haystack = strings.ToLower(haystack)
		needle = strings.ToLower(needle)
	}

	if options.ExactMatch {
		if haystack != needle {
			return Result{}, false
		}
		return Result{Kind: kind, ID: id, Name: name, Category: category, Score: 1.0,
			Highlight: e.highlight(name, options)}, true
	}

	if !strings.Contains(haystack, needle) {
		return Result{}, false
	}
	return Result{
		Kind:      kind,
		ID:        id,
		Name:      name,
		Category:  category,
		Score:     score(haystack, needle),
		Highlight: e.highlight(name, options),
	}, true
}

// score computes match relevance for a substring hit.
func score(name, query string) float64 {
	s := 0.5
	if strings.HasPrefix(name, query) {
		s += 0.2
	}
	if len(name) > 0 {
		coverage := float64(len(query)) / float64(len(name))
		if coverage > 0.5 {
			s += 0.1
		}
	}
	if s > 1.0 {
		s = 1.0
	}
	return s
}

// highlight wraps every match run in the configured markers.
func (e *Engine) highlight(name string, options Options) string {
	if !options.EnableHighlight {
		return ""
	}
	start := options.HighlightStartMarker
	end := options.HighlightEndMarker
	if start == "" {
		start = "**"
	}
	if end == "" {
		end = "**"
	}

	haystack := name
	needle := options.Query
	if !options.CaseSensitive {
		haystack = strings.ToLower(haystack)
		needle = strings.ToLower(needle)
	}
	qlen := len(needle)
	if qlen == 0 {
		return name
	}

	var b strings.Builder
	last := 0
	for i := 0; i+qlen <= len(haystack); i++ {
		if haystack[i:i+qlen] == needle {
			b.WriteString(name[last:i])
			b.WriteString(start)
			b.WriteString(name[i : i+qlen])
			b.WriteString(end)
			last = i + qlen
			i += qlen - 1
		}
	}
	if last == 0 {
		return name
	}
	b.WriteString(name[last:])
	return b.String()
}

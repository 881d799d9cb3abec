// Package search finds taxonomy nodes and classified items by name, with
// simple relevance ranking and optional match highlighting.
package search

import "github.com/modshelf/modshelf/taxonomy"

// Options configures search behavior
type Options struct {
	// Query is the search term to look for
	Query string

	// CaseSensitive controls whether search is case-sensitive
	CaseSensitive bool

	// ExactMatch requires the entire name to match the query
	// When false, performs substring matching
	ExactMatch bool

	// EnableHighlight includes highlighted match text in results
	EnableHighlight bool

	// HighlightStartMarker and HighlightEndMarker wrap matched runs when
	// highlighting is enabled. Both default to "**".
	HighlightStartMarker string
	HighlightEndMarker   string

	// MaxResults limits the number of search results
	// nil means no limit
	MaxResults *int
}

// Kind indicates what a result refers to.
type Kind string

const (
	KindNode Kind = "node"
	KindItem Kind = "item"
)

// Result represents a search match with metadata
type Result struct {
	// Kind says whether the match is a taxonomy node or a mod item.
	Kind Kind

	// ID is the node's path ID or the item's SHA.
	ID string

	// Name is the matched display name.
	Name string

	// Category is the item's category node ID; empty for node results.
	Category string

	// Score represents match relevance (0.0 to 1.0, higher is better)
	Score float64

	// Highlight is the name with match markers, when requested.
	Highlight string
}

// Provider supplies the current tree and item set. *taxonomy* stores
// satisfy it directly, and tests can inject fixed data.
type Provider interface {
	FetchTree() (taxonomy.Forest, error)
	Items() ([]taxonomy.Item, error)
}

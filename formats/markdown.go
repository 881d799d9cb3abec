package formats

import (
	"fmt"
	"strings"

	"github.com/modshelf/modshelf/taxonomy"
)

// Markdown format implementation
// Renders the tree as a nested bullet list with per-node mod counts,
// followed by an Unclassified section when loose items exist.
var Markdown = &ExportFormat{
	Name:      "markdown",
	Extension: ".md",
	Render: func(forest taxonomy.Forest, items []taxonomy.Item) string {
		var b strings.Builder
		b.WriteString("# Categories\n\n")

		depth := depths(forest)
		forest.Walk(func(n *taxonomy.Node) {
			b.WriteString(strings.Repeat("  ", depth[n.ID]))
			fmt.Fprintf(&b, "- **%s** (%s)", n.Name, countLabel(n.ModCount))
			if n.Description != "" {
				b.WriteString(" - " + n.Description)
			}
			b.WriteString("\n")
		})

		loose := unclassifiedItems(forest, items)
		if len(loose) > 0 {
			b.WriteString("\n## Unclassified\n\n")
			for _, it := range loose {
				fmt.Fprintf(&b, "- %s\n", it.Name)
			}
		}
		return b.String()
	},
}

func init() {
	if err := Register(Markdown); err != nil {
		panic(fmt.Sprintf("failed to register Markdown format: %v", err))
	}
}

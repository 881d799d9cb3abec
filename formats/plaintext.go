package formats

import (
	"fmt"
	"strings"

	"github.com/modshelf/modshelf/taxonomy"
)

// PlainText format implementation
// Renders the tree as a plain indented outline, suitable for pasting into
// chat or issue trackers that strip markup.
var PlainText = &ExportFormat{
	Name:      "text",
	Extension: ".txt",
	Render: func(forest taxonomy.Forest, items []taxonomy.Item) string {
		var b strings.Builder

		depth := depths(forest)
		forest.Walk(func(n *taxonomy.Node) {
			b.WriteString(strings.Repeat("    ", depth[n.ID]))
			fmt.Fprintf(&b, "%s (%s)\n", n.Name, countLabel(n.ModCount))
		})

		loose := unclassifiedItems(forest, items)
		if len(loose) > 0 {
			b.WriteString("\nUnclassified:\n")
			for _, it := range loose {
				fmt.Fprintf(&b, "    %s\n", it.Name)
			}
		}
		return b.String()
	},
}

func init() {
	if err := Register(PlainText); err != nil {
		panic(fmt.Sprintf("failed to register PlainText format: %v", err))
	}
}

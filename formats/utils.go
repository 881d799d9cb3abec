package formats

import (
	"fmt"

	"github.com/modshelf/modshelf/taxonomy"
)

// countLabel renders a mod count for humans.
func countLabel(n int) string {
	if n == 1 {
		return "1 mod"
	}
	return fmt.Sprintf("%d mods", n)
}

// unclassifiedItems returns the items with no valid category, in input order.
func unclassifiedItems(forest taxonomy.Forest, items []taxonomy.Item) []taxonomy.Item {
	var out []taxonomy.Item
	for _, it := range items {
		if it.Category == "" || forest.Find(it.Category) == nil {
			out = append(out, it)
		}
	}
	return out
}

// depths maps node ID to tree depth, roots at zero.
func depths(forest taxonomy.Forest) map[string]int {
	d := make(map[string]int)
	forest.Walk(func(n *taxonomy.Node) {
		parent, _ := forest.ParentOf(n.ID)
		if parent == nil {
			d[n.ID] = 0
		} else {
			d[n.ID] = d[parent.ID] + 1
		}
	})
	return d
}

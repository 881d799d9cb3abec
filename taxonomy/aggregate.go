package taxonomy

// GroupByCategory buckets items by their category node ID. Items with an
// empty category are skipped; dangling categories are kept here and simply
// never matched by a node, which makes them count as unclassified.
func GroupByCategory(items []Item) map[string]int {
	counts := make(map[string]int)
	for _, it := range items {
		if it.Category == "" {
			continue
		}
		counts[it.Category]++
	}
	return counts
}

// Aggregate populates ModCount for every node in the forest: a node's count
// is its direct item count plus the sum of its children's counts. Pure and
// side-effect free apart from writing ModCount; safe to call repeatedly on
// the same forest.
//
// The traversal is an explicit two-phase stack (post-order) rather than call
// recursion, since tree depth is user-controlled.
func Aggregate(forest Forest, directCounts map[string]int) {
	type frame struct {
		node     *Node
		expanded bool
	}
	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: forest[i]})
	}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if !top.expanded {
			top.expanded = true
			n := top.node
			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: n.Children[i]})
			}
			continue
		}
		n := top.node
		stack = stack[:len(stack)-1]
		total := directCounts[n.ID]
		for _, child := range n.Children {
			total += child.ModCount
		}
		n.ModCount = total
	}
}

package taxonomy

import "testing"

func makeNode(id string, children ...*Node) *Node {
	return &Node{UUID: "u-" + id, ID: id, Name: id, Children: children}
}

func TestAggregateParentIncludesChildCounts(t *testing.T) {
	b := makeNode("a/b")
	a := makeNode("a", b)
	forest := Forest{a}

	Aggregate(forest, map[string]int{"a/b": 1})

	if a.ModCount != 1 {
		t.Errorf("expected a.ModCount == 1, got %d", a.ModCount)
	}
	if b.ModCount != 1 {
		t.Errorf("expected b.ModCount == 1, got %d", b.ModCount)
	}
}

func TestAggregateDirectPlusChildren(t *testing.T) {
	grandchild := makeNode("r/c1/g")
	c1 := makeNode("r/c1", grandchild)
	c2 := makeNode("r/c2")
	root := makeNode("r", c1, c2)
	forest := Forest{root}

	counts := map[string]int{
		"r":      2,
		"r/c1":   1,
		"r/c1/g": 4,
		"r/c2":   3,
	}
	Aggregate(forest, counts)

	cases := []struct {
		node *Node
		want int
	}{
		{grandchild, 4},
		{c1, 5},
		{c2, 3},
		{root, 10},
	}
	for _, tc := range cases {
		if tc.node.ModCount != tc.want {
			t.Errorf("%s: expected count %d, got %d", tc.node.ID, tc.want, tc.node.ModCount)
		}
	}

	// Invariant: count(node) == directCount(node) + sum of child counts.
	forest.Walk(func(n *Node) {
		sum := counts[n.ID]
		for _, child := range n.Children {
			sum += child.ModCount
		}
		if n.ModCount != sum {
			t.Errorf("%s: count %d violates direct+children sum %d", n.ID, n.ModCount, sum)
		}
	})
}

func TestAggregateRecallable(t *testing.T) {
	child := makeNode("p/c")
	parent := makeNode("p", child)
	forest := Forest{parent}
	counts := map[string]int{"p/c": 2}

	Aggregate(forest, counts)
	Aggregate(forest, counts)

	if parent.ModCount != 2 || child.ModCount != 2 {
		t.Errorf("re-aggregation changed counts: parent=%d child=%d", parent.ModCount, child.ModCount)
	}
}

func TestAggregateDeepTreeIterative(t *testing.T) {
	// Deep chains must not depend on call-stack depth.
	const depth = 20000
	leaf := makeNode("n0")
	cur := leaf
	for i := 1; i < depth; i++ {
		cur = &Node{ID: "skip", Children: []*Node{cur}}
	}
	forest := Forest{cur}

	Aggregate(forest, map[string]int{"n0": 1})

	if cur.ModCount != 1 {
		t.Errorf("expected root count 1, got %d", cur.ModCount)
	}
}

func TestGroupByCategorySkipsUnclassified(t *testing.T) {
	items := []Item{
		{SHA: "1", Category: "a"},
		{SHA: "2", Category: "a"},
		{SHA: "3", Category: ""},
		{SHA: "4", Category: "ghost"}, // dangling ref, counted nowhere visible
	}
	counts := GroupByCategory(items)
	if counts["a"] != 2 {
		t.Errorf("expected 2 items in a, got %d", counts["a"])
	}
	if _, ok := counts[""]; ok {
		t.Error("unclassified items must not be grouped")
	}
}

// Package taxonomy implements the hierarchical category tree that mod
// packages are organized into: node CRUD and relinking, sibling ordering,
// cascade deletion with thumbnail cleanup, and per-fetch aggregation of
// item counts.
package taxonomy

import "time"

// Node is one entry in the classification tree. UUID is the stable internal
// identifier; ID is the user-facing path-like identifier composed from
// ancestor names at creation time (e.g. "characters/raiden"). ID is assigned
// once and never rewritten, so it survives later renames and moves of
// ancestors.
type Node struct {
	UUID        string `json:"uuid" yaml:"uuid"`
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	ParentUUID  string `json:"parent_uuid,omitempty" yaml:"parent_uuid,omitempty"`
	Priority    int    `json:"priority" yaml:"priority"`
	Thumbnail   string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Children holds the node's children in display order. Populated by
	// FetchTree, never persisted.
	Children []*Node `json:"-" yaml:"-"`

	// ModCount is the number of items classified to this node or any
	// descendant. Derived on every fetch, never persisted.
	ModCount int `json:"-" yaml:"-"`
}

// Item is a classifiable unit (a mod archive). Category holds the ID of the
// node it is classified to, or "" for unclassified. A category referencing a
// node that no longer exists is treated as unclassified for display.
type Item struct {
	SHA      string `json:"sha" yaml:"sha"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Forest is an ordered set of root nodes with Children populated.
type Forest []*Node

// Find returns the node with the given ID or UUID, searching the forest with
// an explicit stack. Returns nil when no node matches.
func (f Forest) Find(id string) *Node {
	stack := make([]*Node, len(f))
	copy(stack, f)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.ID == id || n.UUID == id {
			return n
		}
		stack = append(stack, n.Children...)
	}
	return nil
}

// ParentOf returns the parent of the node with the given ID or UUID, along
// with the node's index among its siblings. A root node yields a nil parent
// and its index within the forest's roots. The index is -1 when the node is
// not in the forest.
func (f Forest) ParentOf(id string) (*Node, int) {
	for i, root := range f {
		if root.ID == id || root.UUID == id {
			return nil, i
		}
	}
	stack := make([]*Node, len(f))
	copy(stack, f)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i, child := range n.Children {
			if child.ID == id || child.UUID == id {
				return n, i
			}
			stack = append(stack, child)
		}
	}
	return nil, -1
}

// Contains reports whether the node identified by id lies inside the subtree
// rooted at the node identified by rootID (inclusive).
func (f Forest) Contains(rootID, id string) bool {
	root := f.Find(rootID)
	if root == nil {
		return false
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.ID == id || n.UUID == id {
			return true
		}
		stack = append(stack, n.Children...)
	}
	return false
}

// Walk visits every node in the forest in depth-first display order using an
// explicit stack. Tree depth is user-controlled, so no call recursion.
func (f Forest) Walk(visit func(n *Node)) {
	stack := make([]*Node, 0, len(f))
	for i := len(f) - 1; i >= 0; i-- {
		stack = append(stack, f[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Clone returns a deep copy of the forest. Mutating the copy (for example
// when applying an optimistic prediction) never touches the original.
func (f Forest) Clone() Forest {
	type pair struct {
		src *Node
		dst *Node
	}
	out := make(Forest, len(f))
	stack := make([]pair, 0, len(f))
	for i, root := range f {
		c := *root
		c.Children = nil
		out[i] = &c
		stack = append(stack, pair{src: root, dst: &c})
	}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range p.src.Children {
			c := *child
			c.Children = nil
			p.dst.Children = append(p.dst.Children, &c)
			stack = append(stack, pair{src: child, dst: &c})
		}
	}
	return out
}

// CreateRequest carries the fields for a new node.
type CreateRequest struct {
	Name        string
	ParentID    string // "" creates a root node
	Priority    int
	Thumbnail   string
	Description string
}

// ThumbnailReleaser removes a thumbnail resource from disk. The store calls
// it during cascade deletion, only for thumbnails no surviving node shares.
type ThumbnailReleaser interface {
	Release(ref string) error
}

// Store is the persistence contract for the taxonomy. Implementations must
// apply each mutation atomically per request: a move touching two parents is
// one relink with no observable half-applied state.
type Store interface {
	// CreateNode adds a node under the given parent. Fails with
	// ErrDuplicateName when a sibling with the same name already exists
	// and ErrNotFound for an unknown parent.
	CreateNode(req CreateRequest) (*Node, error)

	// RenameNode changes a node's display name, applying the same
	// per-parent duplicate check as CreateNode. The node's ID is stable
	// and does not change.
	RenameNode(id, newName string) (*Node, error)

	// SetNodePriority updates the classifier evaluation priority.
	SetNodePriority(id string, priority int) (*Node, error)

	// DeleteNode removes a node and its descendants depth-first,
	// releasing each exclusively owned thumbnail. On ErrResourceLocked or
	// ErrPermissionDenied the cascade halts at the failing node; nodes
	// already removed stay removed and the remainder of the tree is left
	// internally consistent.
	DeleteNode(id string) error

	// MoveNode relinks a node under newParentID at the given sibling
	// index (newParentID "" moves to root level). Fails with ErrCycle
	// when newParentID lies inside the node's own subtree.
	MoveNode(nodeID, newParentID string, insertIndex int) error

	// FetchTree returns the forest in display order with ModCount
	// populated for every node.
	FetchTree() (Forest, error)

	// AssignItemCategory sets an item's category to the given node
	// ("" unclassifies). The item is created if unknown.
	AssignItemCategory(sha, name, nodeID string) error

	// Items returns all known items.
	Items() ([]Item, error)

	Close() error
}

// storeMetadata is bookkeeping persisted alongside the node data.
type storeMetadata struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

package reorder

import (
	"fmt"

	"github.com/modshelf/modshelf/taxonomy"
)

// Drop describes a completed drag gesture over the tree.
type Drop struct {
	SourceID string
	TargetID string
	Intent   Intent
}

// Move is a single moveNode instruction for the store.
type Move struct {
	SourceID    string
	NewParentID string // "" means root level
	InsertIndex int
}

// PlanMove resolves a drop against the current forest into one move
// instruction, or nil for a no-op. Self-drops and drops that would leave
// the node at its exact current position return (nil, nil): the caller
// must issue no backend call and no optimistic mutation for those.
//
// A drop whose target lies inside the source's own subtree is rejected
// here, before any request is constructed, mirroring the store's own cycle
// check.
func PlanMove(d Drop, forest taxonomy.Forest) (*Move, error) {
	if d.SourceID == d.TargetID {
		return nil, nil
	}
	source := forest.Find(d.SourceID)
	if source == nil {
		return nil, fmt.Errorf("source %q: %w", d.SourceID, taxonomy.ErrNotFound)
	}
	target := forest.Find(d.TargetID)
	if target == nil {
		return nil, fmt.Errorf("target %q: %w", d.TargetID, taxonomy.ErrNotFound)
	}
	if forest.Contains(source.ID, target.ID) {
		return nil, fmt.Errorf("target %q is inside the subtree of %q: %w",
			d.TargetID, d.SourceID, taxonomy.ErrCycle)
	}

	curParent, curIndex := forest.ParentOf(source.ID)

	if d.Intent.DropType == DropInto {
		// Becomes the target's first child. The UI auto-expands the
		// target so the result is visible; that is a display concern,
		// not something the instruction carries.
		if sameParent(curParent, target) && curIndex == 0 {
			return nil, nil
		}
		return &Move{SourceID: source.ID, NewParentID: target.ID, InsertIndex: 0}, nil
	}

	// Gap drop: insert relative to the target among the target's siblings.
	gapParent, gapIndex := forest.ParentOf(target.ID)
	insert := gapIndex
	if d.Intent.GapSide == GapAfter {
		insert = gapIndex + 1
	}

	if sameParent(curParent, gapParent) {
		// Within the same parent, inserting immediately before or after
		// the node's own slot leaves the order unchanged.
		if insert == curIndex || insert == curIndex+1 {
			return nil, nil
		}
		// The store splices after removing the source, so slots past the
		// source's own shift down by one.
		if insert > curIndex {
			insert--
		}
	}

	parentID := ""
	if gapParent != nil {
		parentID = gapParent.ID
	}
	return &Move{SourceID: source.ID, NewParentID: parentID, InsertIndex: insert}, nil
}

func sameParent(a, b *taxonomy.Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}

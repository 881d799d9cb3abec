// Package reorder turns drag-and-drop gestures over tree rows into discrete
// drop intents and single move instructions, with no-op short-circuiting
// and fail-fast cycle rejection before any store call.
package reorder

// DropType distinguishes dropping into a node from dropping into the gap
// between two siblings.
type DropType string

const (
	DropInto DropType = "into"
	DropGap  DropType = "gap"
)

// GapSide says which side of the target row a gap drop lands on.
type GapSide string

const (
	GapBefore GapSide = "before"
	GapAfter  GapSide = "after"
)

// Intent is the discrete classification of a pointer position over a row.
type Intent struct {
	DropType DropType
	GapSide  GapSide // set only for DropGap
}

// DefaultGapThreshold is the fraction of row height at each edge that
// counts as a gap rather than the row itself.
const DefaultGapThreshold = 0.15

// ClassifyPointer maps a pointer position over a row to a drop intent.
// relativeY below the threshold is the gap before the row, above
// 1-threshold the gap after it, anything between is the row itself.
func ClassifyPointer(rowTop, rowHeight, pointerY, gapThreshold float64) Intent {
	if rowHeight <= 0 {
		return Intent{DropType: DropInto}
	}
	relativeY := (pointerY - rowTop) / rowHeight
	switch {
	case relativeY < gapThreshold:
		return Intent{DropType: DropGap, GapSide: GapBefore}
	case relativeY > 1-gapThreshold:
		return Intent{DropType: DropGap, GapSide: GapAfter}
	default:
		return Intent{DropType: DropInto}
	}
}

// Rect is an axis-aligned bounding box in view coordinates.
type Rect struct {
	X, Y, W, H float64
}

// ContainsPoint reports whether the point lies inside the rect.
func (r Rect) ContainsPoint(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// ContainsRect reports whether other lies entirely inside r. A leave event
// whose destination is a descendant element still sits inside the row's
// box.
func (r Rect) ContainsRect(other Rect) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.X+other.W <= r.X+r.W && other.Y+other.H <= r.Y+r.H
}

// Gesture is the single owner of drag state: which node is being dragged
// and which row (or gap) is currently marked as the drop target. All
// pipeline stages read the drag source from here rather than keeping their
// own flags.
type Gesture struct {
	SourceID string
	marks    map[string]Intent
	active   string
}

// Begin starts a drag of the given node.
func Begin(sourceID string) *Gesture {
	return &Gesture{
		SourceID: sourceID,
		marks:    make(map[string]Intent),
	}
}

// Enter marks rowID as the active drop target with the given intent and
// returns the IDs whose marks were cleared. Every other mark is cleared,
// not just the previous active row, so a missed leave event cannot leave a
// stale indicator behind.
func (g *Gesture) Enter(rowID string, intent Intent) []string {
	var cleared []string
	for id := range g.marks {
		if id != rowID {
			cleared = append(cleared, id)
			delete(g.marks, id)
		}
	}
	g.marks[rowID] = intent
	g.active = rowID
	return cleared
}

// Leave handles a leave event for rowID. The mark is cleared only when the
// destination truly lies outside the row's bounding box; leave events that
// bubble from entering a nested child element keep the mark and so avoid
// flicker. Returns true when the mark was cleared.
func (g *Gesture) Leave(rowID string, row Rect, destination Rect) bool {
	if row.ContainsRect(destination) {
		return false
	}
	delete(g.marks, rowID)
	if g.active == rowID {
		g.active = ""
	}
	return true
}

// ActiveTarget returns the currently marked row and its intent. ok is false
// when nothing is marked, e.g. the pointer is outside every valid target.
func (g *Gesture) ActiveTarget() (rowID string, intent Intent, ok bool) {
	if g.active == "" {
		return "", Intent{}, false
	}
	intent, ok = g.marks[g.active]
	return g.active, intent, ok
}

// Drop finalizes the gesture into a drop description. ok is false when
// there is no active target, which is a cancelled drag: no instruction is
// produced and no backend call happens.
func (g *Gesture) Drop() (Drop, bool) {
	rowID, intent, ok := g.ActiveTarget()
	if !ok {
		return Drop{}, false
	}
	return Drop{SourceID: g.SourceID, TargetID: rowID, Intent: intent}, true
}

// Cancel clears all marks; the caller issues no backend call on this path.
func (g *Gesture) Cancel() []string {
	cleared := make([]string, 0, len(g.marks))
	for id := range g.marks {
		cleared = append(cleared, id)
		delete(g.marks, id)
	}
	g.active = ""
	return cleared
}

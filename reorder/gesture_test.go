package reorder

import "testing"

func TestClassifyPointerZones(t *testing.T) {
	const top, height = 100.0, 40.0

	tests := []struct {
		name     string
		pointerY float64
		want     Intent
	}{
		{"top edge is gap before", 102, Intent{DropType: DropGap, GapSide: GapBefore}},
		{"just under threshold", top + height*0.14, Intent{DropType: DropGap, GapSide: GapBefore}},
		{"exactly at threshold is into", top + height*DefaultGapThreshold, Intent{DropType: DropInto}},
		{"middle is into", 120, Intent{DropType: DropInto}},
		{"just over upper threshold", top + height*0.86, Intent{DropType: DropGap, GapSide: GapAfter}},
		{"bottom edge is gap after", 139, Intent{DropType: DropGap, GapSide: GapAfter}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyPointer(top, height, tt.pointerY, DefaultGapThreshold)
			if got != tt.want {
				t.Errorf("pointerY=%v: got %+v, want %+v", tt.pointerY, got, tt.want)
			}
		})
	}
}

func TestClassifyPointerDegenerateRow(t *testing.T) {
	got := ClassifyPointer(100, 0, 100, DefaultGapThreshold)
	if got.DropType != DropInto {
		t.Errorf("zero-height row should classify as into, got %+v", got)
	}
}

func TestEnterClearsAllOtherMarks(t *testing.T) {
	g := Begin("characters/raiden")
	g.Enter("weapons", Intent{DropType: DropInto})
	g.Enter("ui", Intent{DropType: DropInto})

	cleared := g.Enter("characters", Intent{DropType: DropGap, GapSide: GapBefore})
	if len(cleared) != 2 {
		t.Fatalf("expected 2 cleared marks, got %v", cleared)
	}

	rowID, intent, ok := g.ActiveTarget()
	if !ok || rowID != "characters" {
		t.Fatalf("expected active target characters, got %q ok=%v", rowID, ok)
	}
	if intent.GapSide != GapBefore {
		t.Errorf("expected gap/before intent, got %+v", intent)
	}
}

func TestLeaveIntoNestedElementKeepsMark(t *testing.T) {
	g := Begin("src")
	g.Enter("row", Intent{DropType: DropInto})

	row := Rect{X: 0, Y: 100, W: 300, H: 40}
	// Destination is a child element inside the row's box.
	label := Rect{X: 20, Y: 110, W: 100, H: 20}
	if g.Leave("row", row, label) {
		t.Error("leave into a nested element must not clear the mark")
	}
	if _, _, ok := g.ActiveTarget(); !ok {
		t.Error("mark should still be active")
	}

	// Destination truly outside the row.
	outside := Rect{X: 0, Y: 200, W: 300, H: 40}
	if !g.Leave("row", row, outside) {
		t.Error("leave to an outside destination must clear the mark")
	}
	if _, _, ok := g.ActiveTarget(); ok {
		t.Error("mark should be gone")
	}
}

func TestDropWithoutTargetIsCancelled(t *testing.T) {
	g := Begin("src")
	if _, ok := g.Drop(); ok {
		t.Error("drop with no marked target must produce no instruction")
	}

	g.Enter("row", Intent{DropType: DropInto})
	row := Rect{X: 0, Y: 0, W: 100, H: 40}
	g.Leave("row", row, Rect{X: 0, Y: 500, W: 10, H: 10})
	if _, ok := g.Drop(); ok {
		t.Error("drop after leaving every target must produce no instruction")
	}
}

func TestCancelClearsEverything(t *testing.T) {
	g := Begin("src")
	g.Enter("a", Intent{DropType: DropInto})
	cleared := g.Cancel()
	if len(cleared) != 1 || cleared[0] != "a" {
		t.Errorf("expected [a], got %v", cleared)
	}
	if _, ok := g.Drop(); ok {
		t.Error("cancelled gesture must not produce a drop")
	}
}

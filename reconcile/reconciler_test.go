package reconcile

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/modshelf/modshelf/taxonomy"
)

// predictForest builds:
//
//	characters (2 items total)
//	  raiden   (1 item)
//	  hutao    (1 item)
//	weapons    (0 items)
func predictForest() taxonomy.Forest {
	node := func(id, name string, count int, children ...*taxonomy.Node) *taxonomy.Node {
		return &taxonomy.Node{UUID: "uuid-" + id, ID: id, Name: name, ModCount: count, Children: children}
	}
	return taxonomy.Forest{
		node("characters", "Characters", 2,
			node("characters/raiden", "Raiden", 1),
			node("characters/hutao", "HuTao", 1),
		),
		node("weapons", "Weapons", 0),
	}
}

func TestPredictAssignToAncestorLeavesAncestorUnchanged(t *testing.T) {
	// Reclassifying an item from raiden to its parent: raiden drops to 0,
	// characters already counted the item through raiden so it nets zero.
	p := PredictAssign(predictForest(), "characters/raiden", "characters")
	deltas := p.Deltas()
	if len(deltas) != 1 {
		t.Fatalf("expected exactly one delta, got %v", deltas)
	}
	if deltas["characters/raiden"] != -1 {
		t.Errorf("expected raiden -1, got %v", deltas)
	}
}

func TestPredictAssignBetweenSiblings(t *testing.T) {
	p := PredictAssign(predictForest(), "characters/raiden", "characters/hutao")
	deltas := p.Deltas()
	if deltas["characters/raiden"] != -1 || deltas["characters/hutao"] != 1 {
		t.Errorf("unexpected deltas: %v", deltas)
	}
	if _, ok := deltas["characters"]; ok {
		t.Errorf("shared ancestor must net zero, got %v", deltas)
	}
}

func TestPredictAssignAcrossRoots(t *testing.T) {
	p := PredictAssign(predictForest(), "characters/raiden", "weapons")
	deltas := p.Deltas()
	want := map[string]int{"characters/raiden": -1, "characters": -1, "weapons": 1}
	if len(deltas) != len(want) {
		t.Fatalf("expected %v, got %v", want, deltas)
	}
	for id, d := range want {
		if deltas[id] != d {
			t.Errorf("%s: expected %d, got %d", id, d, deltas[id])
		}
	}
}

func TestPredictAssignFromUnclassified(t *testing.T) {
	p := PredictAssign(predictForest(), "", "characters/hutao")
	deltas := p.Deltas()
	if deltas["characters/hutao"] != 1 || deltas["characters"] != 1 {
		t.Errorf("unexpected deltas: %v", deltas)
	}
}

func TestPredictAssignNoOp(t *testing.T) {
	p := PredictAssign(predictForest(), "characters/raiden", "characters/raiden")
	if len(p.Deltas()) != 0 {
		t.Errorf("same source and destination must predict nothing, got %v", p.Deltas())
	}
}

type fakeNotifier struct {
	successes []string
	failures  []string
}

func (f *fakeNotifier) Notify(success bool, message string) {
	if success {
		f.successes = append(f.successes, message)
	} else {
		f.failures = append(f.failures, message)
	}
}

func count(t *testing.T, f taxonomy.Forest, id string) int {
	t.Helper()
	n := f.Find(id)
	if n == nil {
		t.Fatalf("node %s not found", id)
	}
	return n.ModCount
}

func TestApplyInstallsPredictedCounts(t *testing.T) {
	snap := NewSnapshot(predictForest())
	r := New(snap, nil, nil)

	r.Apply(PredictAssign(snap.Get(), "characters/raiden", "characters"))

	got := snap.Get()
	if c := count(t, got, "characters/raiden"); c != 0 {
		t.Errorf("raiden: expected 0, got %d", c)
	}
	if c := count(t, got, "characters"); c != 2 {
		t.Errorf("characters: expected 2 (unchanged), got %d", c)
	}
}

func TestApplyEmptyPredictionChangesNothing(t *testing.T) {
	original := predictForest()
	snap := NewSnapshot(original)
	r := New(snap, nil, nil)

	r.Apply(Prediction{})
	if len(snap.Get()) != len(original) || snap.Get()[0] != original[0] {
		t.Error("empty prediction must not replace the displayed forest")
	}
}

func TestConfirmMatchingPredictionIsSilent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	snap := NewSnapshot(predictForest())
	r := New(snap, logger, nil)

	r.Apply(PredictAssign(snap.Get(), "characters/raiden", "characters/hutao"))
	predicted := snap.Get()

	// Backend agrees with the prediction.
	r.Confirm(predicted.Clone())

	if buf.Len() != 0 {
		t.Errorf("matching confirmation must not log, got: %s", buf.String())
	}
	if c := count(t, snap.Get(), "characters/hutao"); c != 2 {
		t.Errorf("hutao: expected 2, got %d", c)
	}
}

func TestConfirmMismatchAdoptsAuthoritative(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	snap := NewSnapshot(predictForest())
	r := New(snap, logger, nil)

	r.Apply(PredictAssign(snap.Get(), "characters/raiden", "characters/hutao"))

	// Backend disagrees: another process reclassified an extra item.
	authoritative := predictForest()
	authoritative.Find("characters/hutao").ModCount = 5

	r.Confirm(authoritative)

	if buf.Len() == 0 {
		t.Error("mismatch must be logged")
	}
	if c := count(t, snap.Get(), "characters/hutao"); c != 5 {
		t.Errorf("authoritative count must win, expected 5, got %d", c)
	}

	// A second identical confirmation has no further effect.
	buf.Reset()
	r.Confirm(authoritative.Clone())
	if buf.Len() != 0 {
		t.Errorf("repeated confirmation logged: %s", buf.String())
	}
	if c := count(t, snap.Get(), "characters/hutao"); c != 5 {
		t.Errorf("expected 5 after repeat, got %d", c)
	}
}

func TestConfirmOverridesInterveningSnapshotUpdate(t *testing.T) {
	snap := NewSnapshot(predictForest())
	r := New(snap, nil, nil)

	r.Apply(PredictAssign(snap.Get(), "characters/raiden", "characters/hutao"))
	authoritative := snap.Get().Clone()

	// Something else replaces the displayed state before the backend
	// call resolves.
	stale := predictForest()
	stale.Find("weapons").ModCount = 9
	snap.Set(stale)

	r.Confirm(authoritative)
	if c := count(t, snap.Get(), "weapons"); c != 0 {
		t.Errorf("authoritative fetch must replace the intervening state, got weapons=%d", c)
	}
	if c := count(t, snap.Get(), "characters/hutao"); c != 2 {
		t.Errorf("expected hutao 2, got %d", c)
	}
}

func TestConfirmWithoutPredictionAdoptsNewState(t *testing.T) {
	snap := NewSnapshot(predictForest())
	r := New(snap, nil, nil)

	authoritative := predictForest()
	authoritative.Find("weapons").ModCount = 3

	r.Confirm(authoritative)
	if c := count(t, snap.Get(), "weapons"); c != 3 {
		t.Errorf("expected 3, got %d", c)
	}
}

func TestFailDiscardsPredictionAndNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	snap := NewSnapshot(predictForest())
	r := New(snap, nil, notifier)

	r.Apply(PredictAssign(snap.Get(), "characters/raiden", "characters/hutao"))

	authoritative := predictForest()
	r.Fail(authoritative, "move failed: file is in use by another process")

	if c := count(t, snap.Get(), "characters/hutao"); c != 1 {
		t.Errorf("failed mutation must roll back to authoritative state, got %d", c)
	}
	if len(notifier.failures) != 1 {
		t.Fatalf("expected one failure notification, got %+v", notifier)
	}

	// The discarded prediction must not resurface on the next confirm.
	r.Confirm(authoritative.Clone())
	if c := count(t, snap.Get(), "characters/raiden"); c != 1 {
		t.Errorf("expected 1, got %d", c)
	}

	r.Succeed("moved")
	if len(notifier.successes) != 1 {
		t.Errorf("expected one success notification, got %+v", notifier)
	}
}

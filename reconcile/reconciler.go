// Package reconcile implements the optimistic predict-then-verify pattern
// for mutations whose effect on displayed tree state is cheap to predict
// but slow to confirm: apply the predicted state immediately, then compare
// it structurally against the authoritative fetch once the backend call
// resolves.
package reconcile

import (
	"log/slog"
	"sync"

	"github.com/google/go-cmp/cmp"

	"github.com/modshelf/modshelf/taxonomy"
)

// Notifier receives the outcome of user-initiated mutations. The core
// produces outcome plus message; rendering is someone else's job.
type Notifier interface {
	Notify(success bool, message string)
}

// Snapshot holds the latest displayed forest. Callbacks must read through
// Get at call time rather than capturing a forest value at closure
// creation, so they never operate on state that a later update replaced.
type Snapshot struct {
	mu     sync.RWMutex
	forest taxonomy.Forest
}

func NewSnapshot(forest taxonomy.Forest) *Snapshot {
	return &Snapshot{forest: forest}
}

// Get returns the current forest.
func (s *Snapshot) Get() taxonomy.Forest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forest
}

// Set replaces the current forest.
func (s *Snapshot) Set(f taxonomy.Forest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forest = f
}

// Prediction is the expected effect of a mutation on per-node counts,
// expressed as ModCount deltas keyed by node ID.
type Prediction struct {
	deltas map[string]int
}

// Deltas exposes the non-zero count changes, mainly for tests.
func (p Prediction) Deltas() map[string]int {
	return p.deltas
}

// PredictAssign computes the expected count changes of reclassifying one
// item from oldNodeID to newNodeID (either may be "" for unclassified).
//
// Every ancestor of the old node loses the item and every ancestor of the
// new node gains it; a node on both chains nets to zero. In particular,
// moving an item to an ancestor of its old node leaves that ancestor's
// total unchanged: it already counted the item through the old node.
func PredictAssign(forest taxonomy.Forest, oldNodeID, newNodeID string) Prediction {
	deltas := make(map[string]int)
	addChain(forest, oldNodeID, -1, deltas)
	addChain(forest, newNodeID, +1, deltas)
	for id, d := range deltas {
		if d == 0 {
			delete(deltas, id)
		}
	}
	return Prediction{deltas: deltas}
}

// addChain applies delta to the node and every ancestor up to its root.
func addChain(forest taxonomy.Forest, id string, delta int, deltas map[string]int) {
	if id == "" {
		return
	}
	n := forest.Find(id)
	for n != nil {
		deltas[n.ID] += delta
		parent, _ := forest.ParentOf(n.ID)
		n = parent
	}
}

// Reconciler owns the two-phase lifecycle: Apply installs a predicted
// forest immediately; Confirm verifies it against the authoritative fetch.
// Predictions are speculative and fully replaceable; the latest
// authoritative state always wins and stale predictions are never merged.
type Reconciler struct {
	snap     *Snapshot
	logger   *slog.Logger
	notifier Notifier

	mu        sync.Mutex
	predicted taxonomy.Forest // nil when no prediction is outstanding
}

func New(snap *Snapshot, logger *slog.Logger, notifier Notifier) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{snap: snap, logger: logger, notifier: notifier}
}

// Apply clones the current forest, applies the prediction's deltas and
// installs the result as the displayed state. An empty prediction (a
// recognized no-op) installs nothing.
func (r *Reconciler) Apply(p Prediction) {
	if len(p.deltas) == 0 {
		return
	}
	predicted := r.snap.Get().Clone()
	predicted.Walk(func(n *taxonomy.Node) {
		if d, ok := p.deltas[n.ID]; ok {
			n.ModCount += d
		}
	})
	r.mu.Lock()
	r.predicted = predicted
	r.mu.Unlock()
	r.snap.Set(predicted)
}

// Confirm reconciles the displayed state with an authoritative fetch. A
// prediction that matches structurally is discarded silently. A mismatch
// is logged with the differing paths and resolved by adopting the
// authoritative state; it is never surfaced as a user error.
//
// Applying the same authoritative result twice is idempotent.
func (r *Reconciler) Confirm(authoritative taxonomy.Forest) {
	r.mu.Lock()
	predicted := r.predicted
	r.predicted = nil
	r.mu.Unlock()

	if predicted != nil {
		if diff := cmp.Diff(predicted, authoritative); diff != "" {
			r.logger.Warn("optimistic prediction mismatch, adopting authoritative state",
				"diff", diff)
		}
		// Adopt even on a match: the snapshot may have been replaced
		// since Apply, and the authoritative fetch always wins.
		r.snap.Set(authoritative)
		return
	}

	current := r.snap.Get()
	if diff := cmp.Diff(current, authoritative); diff != "" {
		r.snap.Set(authoritative)
	}
}

// Fail discards the outstanding prediction after a failed mutation, adopts
// the authoritative state and reports the failure outcome.
func (r *Reconciler) Fail(authoritative taxonomy.Forest, message string) {
	r.mu.Lock()
	r.predicted = nil
	r.mu.Unlock()
	r.snap.Set(authoritative)
	if r.notifier != nil {
		r.notifier.Notify(false, message)
	}
}

// Succeed reports a successful user-initiated mutation.
func (r *Reconciler) Succeed(message string) {
	if r.notifier != nil {
		r.notifier.Notify(true, message)
	}
}

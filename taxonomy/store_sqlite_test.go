package taxonomy_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/modshelf/modshelf/taxonomy"
)

func newSQLiteUniverse(t *testing.T) (taxonomy.Store, map[string]*taxonomy.Node) {
	t.Helper()
	store, err := taxonomy.NewSQLiteStore(filepath.Join(t.TempDir(), "tax.db"), nil)
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	nodes := make(map[string]*taxonomy.Node)
	mk := func(name, parentID string, priority int) {
		t.Helper()
		n, err := store.CreateNode(taxonomy.CreateRequest{Name: name, ParentID: parentID, Priority: priority})
		if err != nil {
			t.Fatalf("failed to create %q: %v", name, err)
		}
		nodes[name] = n
	}
	mk("Characters", "", 10)
	mk("Raiden", nodes["Characters"].ID, 5)
	mk("Weapons", "", 8)
	return store, nodes
}

func TestSQLiteCreateAndFetch(t *testing.T) {
	store, nodes := newSQLiteUniverse(t)

	if err := store.AssignItemCategory("sha-1", "RaidenShogunSkin.zip", nodes["Raiden"].ID); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	forest, err := store.FetchTree()
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	characters := forest.Find(nodes["Characters"].ID)
	if characters == nil {
		t.Fatal("Characters not found")
	}
	if characters.ModCount != 1 {
		t.Errorf("expected Characters.ModCount == 1, got %d", characters.ModCount)
	}
	if len(characters.Children) != 1 || characters.Children[0].Name != "Raiden" {
		t.Errorf("unexpected children: %+v", childNames(characters))
	}
}

func TestSQLiteDuplicateSibling(t *testing.T) {
	store, nodes := newSQLiteUniverse(t)
	_, err := store.CreateNode(taxonomy.CreateRequest{Name: "raiden", ParentID: nodes["Characters"].ID})
	if !errors.Is(err, taxonomy.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestSQLiteMoveAndCycleCheck(t *testing.T) {
	store, nodes := newSQLiteUniverse(t)

	if err := store.MoveNode(nodes["Characters"].ID, nodes["Raiden"].ID, 0); !errors.Is(err, taxonomy.ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}

	if err := store.MoveNode(nodes["Raiden"].ID, nodes["Weapons"].ID, 0); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	forest, err := store.FetchTree()
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	weapons := forest.Find(nodes["Weapons"].ID)
	if len(weapons.Children) != 1 || weapons.Children[0].Name != "Raiden" {
		t.Errorf("expected Raiden under Weapons, got %v", childNames(weapons))
	}
	characters := forest.Find(nodes["Characters"].ID)
	if len(characters.Children) != 0 {
		t.Errorf("expected Characters empty, got %v", childNames(characters))
	}
}

func TestSQLiteMoveClampsInsertIndex(t *testing.T) {
	store, nodes := newSQLiteUniverse(t)

	// Negative index into a childless parent lands at position 0.
	if err := store.MoveNode(nodes["Raiden"].ID, nodes["Weapons"].ID, -1); err != nil {
		t.Fatalf("move with negative index failed: %v", err)
	}
	// An index past the end appends after the last sibling.
	if err := store.MoveNode(nodes["Characters"].ID, nodes["Weapons"].ID, 99); err != nil {
		t.Fatalf("move with oversized index failed: %v", err)
	}

	forest, err := store.FetchTree()
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	weapons := forest.Find(nodes["Weapons"].ID)
	if got := childNames(weapons); len(got) != 2 || got[0] != "Raiden" || got[1] != "Characters" {
		t.Fatalf("unexpected sibling order under Weapons: %v", got)
	}
}

func TestSQLiteDeleteCascade(t *testing.T) {
	store, nodes := newSQLiteUniverse(t)

	if err := store.DeleteNode(nodes["Characters"].ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	forest, err := store.FetchTree()
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if forest.Find(nodes["Raiden"].ID) != nil {
		t.Error("descendant survived cascade delete")
	}
	if forest.Find(nodes["Weapons"].ID) == nil {
		t.Error("unrelated root must survive")
	}
}

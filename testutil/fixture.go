// Package testutil provides a shared taxonomy fixture so tests across
// packages exercise the same realistic forest instead of each inventing a
// minimal one.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/modshelf/modshelf/taxonomy"
)

// Universe gives typed access to the fixture nodes.
type Universe struct {
	Store taxonomy.Store

	Characters *taxonomy.Node // root, priority 10
	Raiden     *taxonomy.Node // under Characters, priority 5
	HuTao      *taxonomy.Node // under Characters, priority 5
	Zhongli    *taxonomy.Node // under Characters, priority 0
	Weapons    *taxonomy.Node // root, priority 8
	Swords     *taxonomy.Node // under Weapons, priority 3
	UI         *taxonomy.Node // root, priority 0
}

// FixtureItems are the items classified into the fixture tree. SHAs are
// arbitrary but stable so tests can reference them.
var FixtureItems = []taxonomy.Item{
	{SHA: "sha-raiden-1", Name: "RaidenShogunSkin.zip"},
	{SHA: "sha-raiden-2", Name: "raiden.7z"},
	{SHA: "sha-hutao-1", Name: "HuTaoOutfit.rar"},
	{SHA: "sha-sword-1", Name: "JadeCutterRetexture.zip"},
	{SHA: "sha-loose-1", Name: "Rai_den.zip"},
}

// LoadUniverse builds the standard fixture forest in a fresh JSON store
// under t.TempDir. The store is closed automatically when the test ends.
func LoadUniverse(t *testing.T) *Universe {
	t.Helper()

	store, err := taxonomy.NewJSONStore(filepath.Join(t.TempDir(), "taxonomy.json"), nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	u := &Universe{Store: store}

	mk := func(name, parentID string, priority int) *taxonomy.Node {
		t.Helper()
		n, err := store.CreateNode(taxonomy.CreateRequest{
			Name:     name,
			ParentID: parentID,
			Priority: priority,
		})
		if err != nil {
			t.Fatalf("failed to create node %q: %v", name, err)
		}
		return n
	}

	u.Characters = mk("Characters", "", 10)
	u.Raiden = mk("Raiden", u.Characters.ID, 5)
	u.HuTao = mk("HuTao", u.Characters.ID, 5)
	u.Zhongli = mk("Zhongli", u.Characters.ID, 0)
	u.Weapons = mk("Weapons", "", 8)
	u.Swords = mk("Swords", u.Weapons.ID, 3)
	u.UI = mk("UI", "", 0)

	assign := map[string]string{
		"sha-raiden-1": u.Raiden.ID,
		"sha-raiden-2": u.Raiden.ID,
		"sha-hutao-1":  u.HuTao.ID,
		"sha-sword-1":  u.Swords.ID,
		"sha-loose-1":  "", // unclassified
	}
	for _, it := range FixtureItems {
		if err := store.AssignItemCategory(it.SHA, it.Name, assign[it.SHA]); err != nil {
			t.Fatalf("failed to assign item %q: %v", it.SHA, err)
		}
	}
	return u
}

// FetchTree fetches the current forest, failing the test on error.
func (u *Universe) FetchTree(t *testing.T) taxonomy.Forest {
	t.Helper()
	forest, err := u.Store.FetchTree()
	if err != nil {
		t.Fatalf("failed to fetch tree: %v", err)
	}
	return forest
}

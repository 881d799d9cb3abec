package thumbs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := NewLibrary(filepath.Join(t.TempDir(), "thumbnails"))
	if err != nil {
		t.Fatalf("failed to create library: %v", err)
	}
	return lib
}

func writeSource(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}
	return path
}

func TestAddAndPath(t *testing.T) {
	lib := newTestLibrary(t)
	src := writeSource(t, "raiden.png", []byte("png-bytes"))

	ref, err := lib.Add(src)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.HasSuffix(ref, ".png") {
		t.Errorf("reference should keep the extension, got %q", ref)
	}

	data, err := os.ReadFile(lib.Path(ref))
	if err != nil {
		t.Fatalf("stored file unreadable: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("stored content mismatch: %q", data)
	}
}

func TestAddDeduplicatesByContent(t *testing.T) {
	lib := newTestLibrary(t)
	a := writeSource(t, "a.png", []byte("same-bytes"))
	b := writeSource(t, "b.png", []byte("same-bytes"))

	refA, err := lib.Add(a)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	refB, err := lib.Add(b)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if refA != refB {
		t.Errorf("identical content must share one reference: %q vs %q", refA, refB)
	}

	entries, err := lib.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected a single stored file, got %d", len(entries))
	}
}

func TestAddDifferentContentDifferentRefs(t *testing.T) {
	lib := newTestLibrary(t)
	refA, err := lib.Add(writeSource(t, "a.png", []byte("one")))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	refB, err := lib.Add(writeSource(t, "b.png", []byte("two")))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if refA == refB {
		t.Errorf("different content collided on %q", refA)
	}
}

func TestReleaseRemovesFile(t *testing.T) {
	lib := newTestLibrary(t)
	ref, err := lib.Add(writeSource(t, "a.png", []byte("bytes")))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := lib.Release(ref); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := os.Stat(lib.Path(ref)); !os.IsNotExist(err) {
		t.Error("released file still present")
	}
}

func TestReleaseMissingRefIsNil(t *testing.T) {
	lib := newTestLibrary(t)
	if err := lib.Release("0000000000000000.png"); err != nil {
		t.Errorf("releasing an unknown reference must succeed, got %v", err)
	}
}

func TestListReportsSizes(t *testing.T) {
	lib := newTestLibrary(t)
	if _, err := lib.Add(writeSource(t, "a.png", []byte("abcd"))); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := lib.Add(writeSource(t, "b.jpg", []byte("xy"))); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	entries, err := lib.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	if total != 6 {
		t.Errorf("expected total size 6, got %d", total)
	}
}

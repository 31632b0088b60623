package fswatcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestAddDoesNotEmitChange(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.py")
	writeFile(t, a, "X = 1\n")

	w := New()
	w.AddWatchedPaths([]string{a})
	if changed := w.FindChanged(); len(changed) != 0 {
		t.Errorf("freshly added unmodified path reported changed: %v", changed)
	}
}

func TestFindChangedDetectsEdit(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.py")
	writeFile(t, a, "X = 1\n")

	w := New()
	w.AddWatchedPaths([]string{a})
	w.FindChanged()

	writeFile(t, a, "X = 2\n")
	// Coarse filesystem timestamps could leave the mtime unchanged for
	// back-to-back writes; bump it explicitly.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(a, future, future); err != nil {
		t.Fatal(err)
	}
	changed := w.FindChanged()
	if !changed[a] {
		t.Fatalf("edit not detected: %v", changed)
	}

	// Idempotence: with no further mutation a second poll is empty.
	if again := w.FindChanged(); len(again) != 0 {
		t.Errorf("second poll not empty: %v", again)
	}
}

func TestNoOpTouchIsIgnored(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.py")
	writeFile(t, a, "X = 1\n")

	w := New()
	w.AddWatchedPaths([]string{a})
	w.FindChanged()

	// Same content, new mtime: the hash tiebreaker suppresses the change.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(a, future, future); err != nil {
		t.Fatal(err)
	}
	if changed := w.FindChanged(); len(changed) != 0 {
		t.Errorf("no-op touch reported as change: %v", changed)
	}
}

func TestRemovalAndReappearance(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.py")
	writeFile(t, a, "X = 1\n")

	w := New()
	w.AddWatchedPaths([]string{a})
	w.FindChanged()

	if err := os.Remove(a); err != nil {
		t.Fatal(err)
	}
	changed := w.FindChanged()
	if !changed[a] {
		t.Fatal("deletion must be reported")
	}
	if again := w.FindChanged(); len(again) != 0 {
		t.Errorf("still-missing file reported again: %v", again)
	}

	writeFile(t, a, "X = 1\n")
	changed = w.FindChanged()
	if !changed[a] {
		t.Error("re-appearance must be reported as changed")
	}
}

func TestUpdateChangedSkipsStat(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.py")
	b := filepath.Join(dir, "b.py")
	writeFile(t, a, "X = 1\n")
	writeFile(t, b, "Y = 1\n")

	w := New()
	w.AddWatchedPaths([]string{a, b})
	w.FindChanged()

	writeFile(t, b, "Y = 2\n")
	changed := w.UpdateChanged([]string{a}, []string{b})
	if !changed[a] || !changed[b] {
		t.Fatalf("UpdateChanged = %v, want both paths", changed)
	}
	if _, tracked := w.DumpFileData()[a]; tracked {
		t.Error("removed path must stop being tracked")
	}
	// The updated snapshot is authoritative: nothing further to report.
	if again := w.FindChanged(); len(again) != 0 {
		t.Errorf("poll after UpdateChanged not empty: %v", again)
	}
}

func TestDumpFileData(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.py")
	writeFile(t, a, "X = 1\n")

	w := New()
	w.AddWatchedPaths([]string{a})
	data := w.DumpFileData()
	fd, ok := data[a]
	if !ok {
		t.Fatal("tracked path missing from dump")
	}
	if fd.Size != 6 || fd.Hash == "" || fd.MTime == 0 {
		t.Errorf("snapshot incomplete: %+v", fd)
	}
}

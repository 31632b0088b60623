// Package fswatcher tracks watched source paths by their (mtime, size,
// content-hash) snapshot and answers which of them changed since the last
// poll.
package fswatcher

import (
	"crypto/md5"
	"encoding/hex"
	"os"
)

// FileData is the identity snapshot of one file. MTime is in nanoseconds.
type FileData struct {
	MTime int64  `json:"mtime"`
	Size  int64  `json:"size"`
	Hash  string `json:"hash"`
}

// Watcher polls tracked paths for changes. A nil snapshot value marks a
// path known to be missing: its re-appearance is reported as changed.
type Watcher struct {
	files map[string]*FileData
}

// New creates an empty watcher.
func New() *Watcher {
	return &Watcher{files: make(map[string]*FileData)}
}

// AddWatchedPaths starts tracking the given paths, recording their current
// snapshots without emitting a change. Already-tracked paths keep their
// snapshot.
func (w *Watcher) AddWatchedPaths(paths []string) {
	for _, path := range paths {
		if _, ok := w.files[path]; ok {
			continue
		}
		w.files[path] = snapshot(path)
	}
}

// SetFileData installs an authoritative snapshot for a path, starting to
// track it if needed. The fine-grained cache seeds the watcher this way so
// the next poll picks up anything that changed since the cache was written.
func (w *Watcher) SetFileData(path string, data FileData) {
	d := data
	w.files[path] = &d
}

// RemoveWatchedPaths stops tracking the given paths.
func (w *Watcher) RemoveWatchedPaths(paths []string) {
	for _, path := range paths {
		delete(w.files, path)
	}
}

// FindChanged stats every tracked path and returns the set that changed
// since the last FindChanged or UpdateChanged. A path counts as changed
// when its mtime or size differ, with the content hash as tiebreaker to
// ignore no-op touches. An unreadable path is reported as removed (and
// included in the changed set); re-appearance reports it as changed again.
func (w *Watcher) FindChanged() map[string]bool {
	changed := make(map[string]bool)
	for path, old := range w.files {
		cur := snapshot(path)
		switch {
		case cur == nil && old == nil:
			// Still missing.
		case cur == nil || old == nil:
			changed[path] = true
			w.files[path] = cur
		case cur.MTime != old.MTime || cur.Size != old.Size:
			if cur.Hash != old.Hash {
				changed[path] = true
			}
			// A touch with identical content just refreshes the snapshot.
			w.files[path] = cur
		}
	}
	return changed
}

// UpdateChanged applies the caller's authoritative remove and update lists
// without scanning the full tracked set, and returns their union after
// validation. Removed paths stop being tracked; updated paths get a fresh
// snapshot.
func (w *Watcher) UpdateChanged(remove, update []string) map[string]bool {
	changed := make(map[string]bool)
	for _, path := range remove {
		if _, ok := w.files[path]; ok {
			delete(w.files, path)
			changed[path] = true
		}
	}
	for _, path := range update {
		w.files[path] = snapshot(path)
		changed[path] = true
	}
	return changed
}

// DumpFileData exposes the current snapshot for debugging. Missing files
// map to a zero FileData.
func (w *Watcher) DumpFileData() map[string]FileData {
	out := make(map[string]FileData, len(w.files))
	for path, data := range w.files {
		if data != nil {
			out[path] = *data
		} else {
			out[path] = FileData{}
		}
	}
	return out
}

// snapshot stats and hashes a path; nil if unreadable.
func snapshot(path string) *FileData {
	st, err := os.Stat(path)
	if err != nil {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	sum := md5.Sum(content)
	return &FileData{
		MTime: st.ModTime().UnixNano(),
		Size:  st.Size(),
		Hash:  hex.EncodeToString(sum[:]),
	}
}

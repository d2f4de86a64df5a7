package anim

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Index maps animation asset ids to files named <uuid>.anim under a directory tree.
type Index struct {
	entries map[uuid.UUID]string
}

// BuildIndex scans dir and its subdirectories. Files whose stem is not a
// UUID are ignored.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[uuid.UUID]string)}
	if dir == "" {
		return idx
	}

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".anim" {
			return nil
		}
		id, err := uuid.Parse(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		if err != nil {
			return nil
		}
		idx.entries[id] = path
		return nil
	})

	return idx
}

// Add registers a path for id, replacing any earlier entry.
func (idx *Index) Add(id uuid.UUID, path string) {
	idx.entries[id] = path
}

// ResolvePath returns the file for an asset id, or ("", false).
func (idx *Index) ResolvePath(id uuid.UUID) (string, bool) {
	path, ok := idx.entries[id]
	return path, ok
}

// IDs returns every indexed asset id.
func (idx *Index) IDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(idx.entries))
	for id := range idx.entries {
		out = append(out, id)
	}
	return out
}

// Len returns the number of indexed animations.
func (idx *Index) Len() int {
	return len(idx.entries)
}

package posestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"poser-sync/internal/poser"
)

// File is the on-disk form of an exported pose.
type File struct {
	Name      string       `json:"name"`
	Character uuid.UUID    `json:"character_id"`
	Record    poser.Record `json:"record"`
}

// WriteFile writes e as indented JSON to path, creating parent directories.
func WriteFile(path string, e Entry) error {
	data, err := json.MarshalIndent(File{Name: e.Name, Character: e.Character, Record: e.Record}, "", "  ")
	if err != nil {
		return fmt.Errorf("posestore: encode %s: %w", e.Name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("posestore: mkdir %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("posestore: write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a pose written by WriteFile. A file without a name takes
// its base name.
func ReadFile(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, fmt.Errorf("posestore: read %s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return Entry{}, fmt.Errorf("posestore: parse %s: %w", path, err)
	}
	if f.Record.Version > poser.RecordVersion {
		return Entry{}, fmt.Errorf("posestore: %s: unsupported record version %d", path, f.Record.Version)
	}
	if f.Name == "" {
		base := filepath.Base(path)
		f.Name = base[:len(base)-len(filepath.Ext(base))]
	}
	return Entry{Name: f.Name, Character: f.Character, Record: f.Record}, nil
}

// ManifestEntry represents one exported pose in manifest.json.
type ManifestEntry struct {
	Name      string    `json:"name"`
	Character uuid.UUID `json:"character_id"`
	Joints    int       `json:"joints"`
	Snapshots int       `json:"snapshots"`
	File      string    `json:"file"`
}

// WriteManifest writes manifest.json listing exported poses and their files
// relative to the export directory.
func WriteManifest(path string, poses []Summary, fileFor func(Summary) string) error {
	entries := make([]ManifestEntry, len(poses))
	for i, p := range poses {
		entries[i] = ManifestEntry{
			Name:      p.Name,
			Character: p.Character,
			Joints:    p.Joints,
			Snapshots: p.Snapshots,
			File:      fileFor(p),
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

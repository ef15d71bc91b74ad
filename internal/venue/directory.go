// Package venue resolves missing event location metadata.
//
// A persistent directory caches venue name → (suburb, state). Events
// missing location are checked against the directory first; remaining
// misses trigger one fallback lookup per distinct venue name, and
// successful resolutions are merged back into the directory and
// persisted for future runs. Events that still cannot be resolved are
// kept and reported, never dropped.
package venue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Location is a venue's resolved locality.
type Location struct {
	Suburb string `json:"suburb"`
	State  string `json:"state"`
}

// Directory is the venue → location cache. Keys are exact venue-name
// strings, case-sensitive, no fuzzy matching. The Resolver exclusively
// owns it during a run; it is not safe for concurrent writers.
type Directory struct {
	entries map[string]Location
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]Location)}
}

// LoadDirectory reads the directory from disk. A missing file yields an
// empty directory, not an error.
func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDirectory(), nil
		}
		return nil, fmt.Errorf("reading venue directory: %w", err)
	}

	entries := make(map[string]Location)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing venue directory: %w", err)
	}
	return &Directory{entries: entries}, nil
}

// Lookup returns the location for an exact venue name.
func (d *Directory) Lookup(venue string) (Location, bool) {
	loc, ok := d.entries[venue]
	return loc, ok
}

// Put writes an entry, overwriting any stale value for that key.
func (d *Directory) Put(venue string, loc Location) {
	d.entries[venue] = loc
}

// Len returns the number of entries.
func (d *Directory) Len() int { return len(d.entries) }

// Save persists the directory. Keys marshal sorted, keeping diffs
// deterministic across runs, and the file is replaced atomically via a
// temp-file rename.
func (d *Directory) Save(path string) error {
	data, err := json.MarshalIndent(d.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding venue directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".venues-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing venue directory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing venue directory: %w", err)
	}
	return nil
}

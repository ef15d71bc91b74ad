// Package sink persists the final canonical event list.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mintydevdaz/gigs/internal/gig"
)

// Sink accepts the deduplicated, sorted event list.
type Sink interface {
	Name() string
	Write(ctx context.Context, events []gig.Gig) error
}

// JSONFile writes the events as an indented JSON array.
type JSONFile struct {
	Path string
}

// NewJSONFile creates a file sink.
func NewJSONFile(path string) *JSONFile { return &JSONFile{Path: path} }

func (s *JSONFile) Name() string { return "json:" + s.Path }

func (s *JSONFile) Write(ctx context.Context, events []gig.Gig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if events == nil {
		events = []gig.Gig{}
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding events: %w", err)
	}
	return writeAtomic(s.Path, data)
}

// writeAtomic replaces path via a temp-file rename so readers never see
// a half-written output.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".gigs-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing events: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing output: %w", err)
	}
	return nil
}

// Discard drops all events. Used for dry runs.
type Discard struct{}

func (Discard) Name() string { return "discard" }

func (Discard) Write(context.Context, []gig.Gig) error { return nil }

package venue

import (
	"context"
	"errors"
	"sync"

	"github.com/mintydevdaz/gigs/internal/gig"
	"github.com/mintydevdaz/gigs/internal/logger"
)

// ErrUnresolvable marks a venue whose fallback address could not be
// parsed into a location. Not retried further this run.
var ErrUnresolvable = errors.New("address has no recognizable state")

// Lookup resolves a venue name to a raw address line via the fallback
// site. Implementations perform network I/O and must honor ctx.
type Lookup interface {
	ResolveAddress(ctx context.Context, venue string) (string, error)
}

// Resolver enriches events with suburb/state through the directory,
// falling back to live lookup for cache misses.
type Resolver struct {
	dir     *Directory
	lookup  Lookup
	path    string // persistence target; empty disables saving
	workers int
	failed  map[string]bool // venues that failed this run
}

// NewResolver wires a resolver around a loaded directory. lookup may be
// nil for cache-only resolution.
func NewResolver(dir *Directory, lookup Lookup, path string, workers int) *Resolver {
	if workers <= 0 {
		workers = 4
	}
	return &Resolver{
		dir:     dir,
		lookup:  lookup,
		path:    path,
		workers: workers,
		failed:  make(map[string]bool),
	}
}

// Resolve runs the two resolution passes over a batch of events. Events
// it cannot resolve are returned in the second slice, still carrying
// location sentinels — they pass through the pipeline unenriched rather
// than failing out. Resolving the same venues again performs no further
// lookups: hits come from the directory and failures are remembered for
// the run.
func (r *Resolver) Resolve(ctx context.Context, events []gig.Gig) (resolved, unresolved []gig.Gig) {
	resolved, unresolved = r.directoryPass(events)
	if len(unresolved) == 0 || r.lookup == nil {
		return resolved, unresolved
	}

	// One lookup per distinct venue name, not per event.
	distinct := make([]string, 0)
	seen := make(map[string]bool)
	for _, e := range unresolved {
		if e.Venue == gig.SentinelText || seen[e.Venue] || r.failed[e.Venue] {
			continue
		}
		seen[e.Venue] = true
		distinct = append(distinct, e.Venue)
	}
	if len(distinct) == 0 {
		return resolved, unresolved
	}

	found := r.lookupVenues(ctx, distinct)

	// Merge-back is serialized: the fan-out only collects, the writes
	// happen here, then the directory is persisted.
	for venue, loc := range found {
		r.dir.Put(venue, loc)
	}
	if len(found) > 0 && r.path != "" {
		if err := r.dir.Save(r.path); err != nil {
			logger.Error("venue directory save failed, using in-memory resolutions for this run",
				logger.Fields{"path": r.path}, err)
		}
	}

	// The re-check is just the directory pass again, now against the
	// updated directory.
	moved, still := r.directoryPass(unresolved)
	resolved = append(resolved, moved...)
	return resolved, still
}

// directoryPass copies locations from the directory into every event
// missing them. Misses land in the unresolved bucket, never the floor.
func (r *Resolver) directoryPass(events []gig.Gig) (resolved, unresolved []gig.Gig) {
	for _, e := range events {
		if e.HasLocation() {
			resolved = append(resolved, e)
			continue
		}
		if loc, ok := r.dir.Lookup(e.Venue); ok {
			e.Suburb = loc.Suburb
			e.State = loc.State
			resolved = append(resolved, e)
			continue
		}
		unresolved = append(unresolved, e)
	}
	return resolved, unresolved
}

// lookupVenues fans the fallback lookups out over a bounded worker
// pool. Different venues resolve in parallel; results are collected
// under one mutex.
func (r *Resolver) lookupVenues(ctx context.Context, venues []string) map[string]Location {
	found := make(map[string]Location)
	failed := make([]string, 0)
	var mu sync.Mutex

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for venue := range jobs {
				loc, err := r.resolveOne(ctx, venue)
				mu.Lock()
				if err != nil {
					failed = append(failed, venue)
				} else {
					found[venue] = loc
				}
				mu.Unlock()
			}
		}()
	}

schedule:
	for _, v := range venues {
		select {
		case <-ctx.Done():
			break schedule
		case jobs <- v:
		}
	}
	close(jobs)
	wg.Wait()

	for _, v := range failed {
		r.failed[v] = true
	}
	logger.Add("venues_resolved", int64(len(found)))
	logger.Add("venues_unresolved", int64(len(failed)))
	return found
}

func (r *Resolver) resolveOne(ctx context.Context, venue string) (Location, error) {
	address, err := r.lookup.ResolveAddress(ctx, venue)
	if err != nil {
		logger.Warn("venue lookup failed", logger.Fields{
			"venue":  venue,
			"reason": err.Error(),
		})
		return Location{}, err
	}
	loc, ok := ParseAddress(address)
	if !ok {
		logger.Warn("venue address unparsable", logger.Fields{
			"venue":   venue,
			"address": address,
		})
		return Location{}, ErrUnresolvable
	}
	return loc, nil
}

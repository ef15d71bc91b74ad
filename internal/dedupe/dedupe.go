// Package dedupe collapses duplicate events and orders the final set.
//
// Dedup is layered: exact duplicate titles collapse first, removing
// same-act-different-venue noise, then exact (title, venue) pairs
// collapse to tighten on venue. Which occurrence survives is an
// explicit policy choice, not an accident of iteration order.
package dedupe

import (
	"sort"
	"strings"

	"github.com/mintydevdaz/gigs/internal/gig"
)

// KeepPolicy selects which occurrence of a duplicate key survives.
type KeepPolicy string

const (
	KeepFirst KeepPolicy = "first"
	KeepLast  KeepPolicy = "last"
)

// Options configures duplicate collapse and sorting.
type Options struct {
	Keep          KeepPolicy
	TitleTieBreak bool // secondary title key for equal dates
}

// Dedupe runs both collapse stages. Idempotent: a second application
// returns the same set.
func Dedupe(events []gig.Gig, opts Options) []gig.Gig {
	events = collapse(events, func(g gig.Gig) string { return g.Title }, opts.Keep)
	return collapse(events, func(g gig.Gig) string { return g.Title + "\x00" + g.Venue }, opts.Keep)
}

func collapse(events []gig.Gig, key func(gig.Gig) string, keep KeepPolicy) []gig.Gig {
	out := make([]gig.Gig, 0, len(events))

	if keep == KeepLast {
		last := make(map[string]int, len(events))
		for i, e := range events {
			last[key(e)] = i
		}
		for i, e := range events {
			if last[key(e)] == i {
				out = append(out, e)
			}
		}
		return out
	}

	seen := make(map[string]bool, len(events))
	for _, e := range events {
		k := key(e)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, e)
	}
	return out
}

// SortByDate orders events ascending by start date. The sort is stable:
// equal dates keep input order unless the title tie-break is enabled.
// Sentinel-dated records sort last by construction.
func SortByDate(events []gig.Gig, titleTieBreak bool) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		if titleTieBreak {
			return strings.ToLower(events[i].Title) < strings.ToLower(events[j].Title)
		}
		return false
	})
}

// Package filter narrows the final event list by operator criteria:
// date ranges, states, suburbs, venues, title substrings, genres, a
// price ceiling, and weekends only. Criteria combine with AND; values
// within one criterion combine with OR.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/mintydevdaz/gigs/internal/gig"
)

// Filter holds the active criteria. A zero filter matches everything.
type Filter struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Substring matches, case-insensitive.
	Titles  []string `json:"titles,omitempty"`
	Venues  []string `json:"venues,omitempty"`
	Suburbs []string `json:"suburbs,omitempty"`

	// Exact matches, case-insensitive.
	States []string `json:"states,omitempty"`
	Genres []string `json:"genres,omitempty"`

	WeekendsOnly bool    `json:"weekends_only,omitempty"`
	MaxPrice     float64 `json:"max_price,omitempty"`
}

// New creates an empty filter that matches all events.
func New() *Filter {
	return &Filter{}
}

// IsEmpty reports whether the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Titles) == 0 &&
		len(f.Venues) == 0 &&
		len(f.Suburbs) == 0 &&
		len(f.States) == 0 &&
		len(f.Genres) == 0 &&
		!f.WeekendsOnly &&
		f.MaxPrice == 0
}

// Matches reports whether one event passes every active criterion.
// Sentinel-dated events pass the date criteria: an unknown date is not
// evidence of a mismatch.
func (f *Filter) Matches(e gig.Gig) bool {
	if f.IsEmpty() {
		return true
	}

	dateKnown := !e.Date.Equal(gig.SentinelDate)

	if f.DateFrom != nil && dateKnown && e.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && dateKnown && e.Date.After(*f.DateTo) {
		return false
	}
	if f.WeekendsOnly && dateKnown {
		wd := e.Date.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			return false
		}
	}

	if !containsAny(e.Title, f.Titles) {
		return false
	}
	if !containsAny(e.Venue, f.Venues) {
		return false
	}
	if !containsAny(e.Suburb, f.Suburbs) {
		return false
	}
	if !equalsAny(e.State, f.States) {
		return false
	}
	if !equalsAny(e.Genre, f.Genres) {
		return false
	}

	if f.MaxPrice > 0 {
		switch e.PriceStatus {
		case gig.PriceKnown:
			if e.Price > f.MaxPrice {
				return false
			}
		case gig.PriceFree:
			// Always under the ceiling.
		case gig.PriceUnknown:
			// Not evidence either way; keep the event.
		}
	}

	return true
}

// Apply returns the events that match. An empty filter returns the
// input unchanged.
func (f *Filter) Apply(events []gig.Gig) []gig.Gig {
	if f.IsEmpty() {
		return events
	}
	var out []gig.Gig
	for _, e := range events {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// String returns a human-readable description of the active criteria.
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "no active filters"
	}

	var parts []string
	if f.DateFrom != nil {
		parts = append(parts, "from "+f.DateFrom.Format("2006-01-02"))
	}
	if f.DateTo != nil {
		parts = append(parts, "to "+f.DateTo.Format("2006-01-02"))
	}
	if len(f.Titles) > 0 {
		parts = append(parts, "titles "+strings.Join(f.Titles, "|"))
	}
	if len(f.Venues) > 0 {
		parts = append(parts, "venues "+strings.Join(f.Venues, "|"))
	}
	if len(f.Suburbs) > 0 {
		parts = append(parts, "suburbs "+strings.Join(f.Suburbs, "|"))
	}
	if len(f.States) > 0 {
		parts = append(parts, "states "+strings.Join(f.States, "|"))
	}
	if len(f.Genres) > 0 {
		parts = append(parts, "genres "+strings.Join(f.Genres, "|"))
	}
	if f.WeekendsOnly {
		parts = append(parts, "weekends only")
	}
	if f.MaxPrice > 0 {
		parts = append(parts, fmt.Sprintf("max price $%.2f", f.MaxPrice))
	}
	return strings.Join(parts, ", ")
}

// containsAny reports whether value contains one of the wanted
// substrings, case-insensitive. An empty want list matches.
func containsAny(value string, want []string) bool {
	if len(want) == 0 {
		return true
	}
	lower := strings.ToLower(value)
	for _, w := range want {
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// equalsAny reports whether value equals one of the wanted strings,
// case-insensitive. An empty want list matches.
func equalsAny(value string, want []string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		if strings.EqualFold(value, w) {
			return true
		}
	}
	return false
}

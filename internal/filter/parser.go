package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse builds a filter from a compact query string, for use on the
// command line:
//
//	state:NSW genre:Music max:50 from:2024-06-01 to:2024-06-30 weekends
//
// Keys repeat to OR values together (state:NSW state:VIC). Values with
// spaces use quotes: venue:"the metro". Dates are YYYY-MM-DD; from is
// inclusive at midnight, to is inclusive through end of day.
func Parse(query string) (*Filter, error) {
	f := New()

	for _, tok := range tokenize(query) {
		key, value, found := strings.Cut(tok, ":")
		if !found {
			if strings.EqualFold(tok, "weekends") {
				f.WeekendsOnly = true
				continue
			}
			return nil, fmt.Errorf("unrecognized filter term %q", tok)
		}
		if value == "" {
			return nil, fmt.Errorf("filter term %q has no value", tok)
		}

		switch strings.ToLower(key) {
		case "title":
			f.Titles = append(f.Titles, value)
		case "venue":
			f.Venues = append(f.Venues, value)
		case "suburb":
			f.Suburbs = append(f.Suburbs, value)
		case "state":
			f.States = append(f.States, value)
		case "genre":
			f.Genres = append(f.Genres, value)
		case "max":
			price, err := strconv.ParseFloat(strings.TrimPrefix(value, "$"), 64)
			if err != nil || price <= 0 {
				return nil, fmt.Errorf("invalid max price %q", value)
			}
			f.MaxPrice = price
		case "from":
			t, err := time.Parse("2006-01-02", value)
			if err != nil {
				return nil, fmt.Errorf("invalid from date %q (want YYYY-MM-DD)", value)
			}
			f.DateFrom = &t
		case "to":
			t, err := time.Parse("2006-01-02", value)
			if err != nil {
				return nil, fmt.Errorf("invalid to date %q (want YYYY-MM-DD)", value)
			}
			end := t.Add(24*time.Hour - time.Second)
			f.DateTo = &end
		default:
			return nil, fmt.Errorf("unknown filter key %q", key)
		}
	}

	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return nil, fmt.Errorf("from date is after to date")
	}
	return f, nil
}

// tokenize splits on whitespace while keeping quoted values intact.
func tokenize(query string) []string {
	var toks []string
	var cur strings.Builder
	inQuote := false

	for _, r := range strings.TrimSpace(query) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case !inQuote && (r == ' ' || r == '\t'):
			if cur.Len() > 0 {
				toks = append(toks, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		toks = append(toks, cur.String())
	}
	return toks
}

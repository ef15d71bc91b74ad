package gig

import (
	"strings"
	"time"

	"github.com/mintydevdaz/gigs/internal/logger"
)

// SentinelText is substituted for any text field that is absent or
// unparsable. Records carrying it still sort and export.
const SentinelText = "-"

// SentinelDate is the far-future timestamp substituted for unparsable
// event dates so broken records sort last instead of failing.
var SentinelDate = time.Date(2099, time.January, 1, 0, 0, 0, 0, time.UTC)

// PriceStatus distinguishes a real advertised minimum from an explicit
// freebie and from a parse failure. The numeric price alone cannot:
// 0.0 is ambiguous between "free" and "unknown".
type PriceStatus string

const (
	PriceKnown   PriceStatus = "known"
	PriceFree    PriceStatus = "free"
	PriceUnknown PriceStatus = "unknown"
)

// Gig is the canonical, source-agnostic representation of one listed
// event.
type Gig struct {
	Date        time.Time   `json:"date"`
	Title       string      `json:"title"`
	Price       float64     `json:"price"`
	PriceStatus PriceStatus `json:"price_status"`
	Genre       string      `json:"genre"`
	Venue       string      `json:"venue"`
	Suburb      string      `json:"suburb"`
	State       string      `json:"state"`
	URL         string      `json:"url"`
	Image       string      `json:"image"`
	Source      string      `json:"source"`
}

// HasLocation reports whether both suburb and state carry real values.
func (g Gig) HasLocation() bool {
	return g.Suburb != SentinelText && g.State != SentinelText
}

// RawFields is one raw field-set handed over by a source extractor.
// Every field is optional free text; Normalize owns all interpretation.
type RawFields struct {
	Date      string
	Title     string
	PriceText string
	Genre     string
	Venue     string
	Suburb    string
	State     string
	URL       string
	Image     string
}

// CaseStyle selects the case normalization applied to a display field.
type CaseStyle string

const (
	CaseKeep  CaseStyle = "keep"
	CaseLower CaseStyle = "lower"
	CaseUpper CaseStyle = "upper"
	CaseTitle CaseStyle = "title"
)

// Options configures presentation-level normalization. Case styling is
// a run-level choice, never hard-coded per source.
type Options struct {
	TitleStyle  CaseStyle
	VenueStyle  CaseStyle
	SuburbStyle CaseStyle
}

// DefaultOptions matches the downstream report formatting: lowercase
// titles, uppercase venue names (directory keys are exact strings, so
// the style must stay consistent across runs), title-case suburbs.
func DefaultOptions() Options {
	return Options{
		TitleStyle:  CaseLower,
		VenueStyle:  CaseUpper,
		SuburbStyle: CaseTitle,
	}
}

// Normalize converts one raw field-set into a canonical Gig. It never
// fails; each rule substitutes its sentinel on error and the fallback
// is logged with the offending raw value.
func Normalize(source string, raw RawFields, opts Options) Gig {
	g := Gig{
		Date:   SentinelDate,
		Title:  SentinelText,
		Genre:  SentinelText,
		Venue:  SentinelText,
		Suburb: SentinelText,
		State:  SentinelText,
		URL:    SentinelText,
		Image:  SentinelText,
		Source: source,
	}

	if d, ok := ParseEventDate(Clean(raw.Date)); ok {
		g.Date = d
	} else if strings.TrimSpace(raw.Date) != "" {
		logger.Warn("unparsable event date, using sentinel", logger.Fields{
			"source": source,
			"date":   raw.Date,
			"title":  raw.Title,
		})
	}

	if title := FoldASCII(Clean(raw.Title)); title != "" {
		g.Title = ApplyCase(title, opts.TitleStyle)
	}

	g.Price, g.PriceStatus = ParsePrice(raw.PriceText)
	if g.PriceStatus == PriceUnknown && strings.TrimSpace(raw.PriceText) != "" {
		logger.Warn("unparsable price text", logger.Fields{
			"source": source,
			"price":  raw.PriceText,
			"title":  raw.Title,
		})
	}

	g.Genre = BucketGenre(Clean(raw.Genre))

	if venue := FoldASCII(Clean(raw.Venue)); venue != "" {
		g.Venue = ApplyCase(venue, opts.VenueStyle)
	}
	if suburb := FoldASCII(Clean(raw.Suburb)); suburb != "" {
		g.Suburb = ApplyCase(suburb, opts.SuburbStyle)
	}
	if state := strings.ToUpper(Clean(raw.State)); state != "" {
		g.State = state
	}

	// URL and image are opaque references; trimming is the only safe
	// transformation.
	if u := strings.TrimSpace(raw.URL); u != "" {
		g.URL = u
	}
	if img := strings.TrimSpace(raw.Image); img != "" {
		g.Image = img
	}

	return g
}

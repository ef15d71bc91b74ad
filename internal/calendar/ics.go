// Package calendar renders the event feed as an iCalendar document so
// the listing can be subscribed to from a calendar app.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mintydevdaz/gigs/internal/gig"
)

const prodID = "-//gigs//github.com/mintydevdaz/gigs//EN"

// defaultDuration is assumed for every event; sources list start times
// only.
const defaultDuration = 3 * time.Hour

// GenerateICS renders one VCALENDAR containing a VEVENT per gig.
// Sentinel-dated events are excluded: a calendar entry in 2099 is worse
// than no entry.
func GenerateICS(events []gig.Gig, now time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:" + prodID + "\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")

	stamp := formatICSTime(now.UTC())
	for _, e := range events {
		if e.Date.Equal(gig.SentinelDate) {
			continue
		}
		writeEvent(&ics, e, stamp)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, e gig.Gig, stamp string) {
	ics.WriteString("BEGIN:VEVENT\r\n")

	// UID must be stable across runs so resubscribing clients update
	// events in place instead of duplicating them.
	ics.WriteString(fmt.Sprintf("UID:%s\r\n", eventUID(e)))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", stamp))
	ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICSTime(e.Date)))
	ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICSTime(e.Date.Add(defaultDuration))))
	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS(e.Title)))

	var desc []string
	if e.Genre != gig.SentinelText {
		desc = append(desc, "Genre: "+e.Genre)
	}
	if e.PriceStatus == gig.PriceFree {
		desc = append(desc, "Free entry")
	} else if e.PriceStatus == gig.PriceKnown {
		desc = append(desc, fmt.Sprintf("From $%.2f", e.Price))
	}
	desc = append(desc, "Listed on "+e.Source)
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(strings.Join(desc, "\n"))))

	if loc := eventLocation(e); loc != "" {
		ics.WriteString(fmt.Sprintf("LOCATION:%s\r\n", escapeICS(loc)))
	}
	if e.URL != gig.SentinelText {
		ics.WriteString(fmt.Sprintf("URL:%s\r\n", e.URL))
	}

	ics.WriteString("STATUS:CONFIRMED\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// eventUID derives a deterministic UID from the listing URL, falling
// back to title and venue when the source gave no URL.
func eventUID(e gig.Gig) string {
	name := e.URL
	if name == gig.SentinelText {
		name = e.Title + "|" + e.Venue + "|" + e.Date.Format("20060102")
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String() + "@gigs"
}

func eventLocation(e gig.Gig) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Venue, e.Suburb, e.State} {
		if p != gig.SentinelText {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// formatICSTime formats a time as an iCalendar UTC datetime.
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters per RFC 5545.
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

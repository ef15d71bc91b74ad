package gig

import "time"

// dateLayouts are tried in priority order; the first successful parse
// wins. Layouts cover the formats observed across the ticketing
// sources: long weekday-prefixed strings, ISO timestamps with and
// without zone, bare ISO dates, and "DD Mon YYYY" variants.
var dateLayouts = []string{
	"Monday, 02 January 2006 03:04 PM", // Tuesday, 09 January 2024 07:00 PM
	time.RFC3339,                       // 2024-03-16T19:30:00+11:00
	"2006-01-02T15:04:05",              // 2024-03-16T19:30:00
	"2006-01-02",                       // 2024-03-16
	"02 Jan 2006",                      // 16 Mar 2024
	"2 Jan 2006",                       // 6 Mar 2024
	"Mon 02 Jan 2006",                  // Sat 16 Mar 2024
	"Mon 2 Jan 2006",                   // Sat 6 Mar 2024
}

// ParseEventDate attempts each known layout in order. The boolean is
// false when no layout matches; callers substitute SentinelDate.
func ParseEventDate(text string) (time.Time, bool) {
	if text == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

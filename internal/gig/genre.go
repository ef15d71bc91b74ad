package gig

import "strings"

// genreRule maps raw classification text to a genre bucket. Rules are
// applied in order; the first match wins.
type genreRule struct {
	match func(string) bool
	bucket func(string) string
}

var genreRules = []genreRule{
	{
		match:  func(s string) bool { return strings.Contains(s, "Music - ") },
		bucket: func(s string) string { return strings.TrimSpace(strings.Replace(s, "Music - ", "", 1)) },
	},
	{
		match:  func(s string) bool { return strings.Contains(s, "Comedy") },
		bucket: func(string) string { return "Comedy" },
	},
	{
		match:  func(s string) bool { return strings.Contains(s, "Arts") },
		bucket: func(string) string { return "Arts" },
	},
	{
		match:  func(s string) bool { return strings.Contains(s, "Other - ") },
		bucket: func(s string) string { return strings.TrimSpace(strings.Replace(s, "Other - ", "", 1)) },
	},
}

// BucketGenre classifies free-text genre labels into the fixed bucket
// set. Unmatched text maps to the sentinel.
func BucketGenre(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return SentinelText
	}
	for _, rule := range genreRules {
		if rule.match(text) {
			if out := rule.bucket(text); out != "" {
				return out
			}
		}
	}
	return SentinelText
}

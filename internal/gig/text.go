package gig

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Clean unescapes HTML entity residue, trims surrounding whitespace,
// and collapses internal runs of whitespace to single spaces.
func Clean(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

// FoldASCII strips accents and diacritics, then drops any remaining
// non-ASCII runes. "Étienne féte" becomes "Etienne fete".
func FoldASCII(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ApplyCase applies the configured case style to a display field.
func ApplyCase(s string, style CaseStyle) string {
	switch style {
	case CaseLower:
		return strings.ToLower(s)
	case CaseUpper:
		return strings.ToUpper(s)
	case CaseTitle:
		// Caser carries state, so build one per call.
		return cases.Title(language.English).String(strings.ToLower(s))
	default:
		return s
	}
}

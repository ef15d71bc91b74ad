package gig

import (
	"regexp"
	"strconv"
	"strings"
)

// One event may advertise several ticket tiers or sessions; the
// canonical price is the arithmetic minimum across all of them.
var priceRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParsePrice extracts the lowest advertised price from raw price text.
// No numeric substrings with an explicit free marker yields (0, free);
// no numeric substrings otherwise yields (0, unknown). A parsed
// minimum of zero is also treated as free.
func ParsePrice(text string) (float64, PriceStatus) {
	cleaned := strings.ReplaceAll(text, ",", "")
	matches := priceRe.FindAllString(cleaned, -1)
	if len(matches) == 0 {
		if strings.Contains(strings.ToLower(text), "free") {
			return 0, PriceFree
		}
		return 0, PriceUnknown
	}

	min := 0.0
	for i, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		if i == 0 || v < min {
			min = v
		}
	}
	if min == 0 {
		return 0, PriceFree
	}
	return min, PriceKnown
}

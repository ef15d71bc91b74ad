package venue

import "strings"

// validStates is the fixed set of recognized state codes.
var validStates = map[string]bool{
	"ACT": true,
	"NSW": true,
	"NT":  true,
	"QLD": true,
	"SA":  true,
	"TAS": true,
	"VIC": true,
	"WA":  true,
}

// ParseAddress extracts (suburb, state) from a canonical address line
// such as "123 Foo St, Newtown NSW 2042". The segment after the last
// comma is tokenized on whitespace; the first token matching a valid
// state code is the state, and the tokens before it join as the
// suburb. Trailing tokens after the state (postcodes) are ignored.
// Addresses with no comma, or with no recognizable state token, fail.
func ParseAddress(address string) (Location, bool) {
	if !strings.Contains(address, ",") {
		return Location{}, false
	}

	segments := strings.Split(address, ",")
	tokens := strings.Fields(strings.ToUpper(segments[len(segments)-1]))

	for i, tok := range tokens {
		if validStates[tok] {
			suburb := strings.TrimSpace(strings.Join(tokens[:i], " "))
			if suburb == "" {
				suburb = "-"
			}
			return Location{Suburb: suburb, State: tok}, true
		}
	}
	return Location{}, false
}

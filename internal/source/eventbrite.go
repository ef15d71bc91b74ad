package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mintydevdaz/gigs/internal/config"
	"github.com/mintydevdaz/gigs/internal/gig"
	"github.com/mintydevdaz/gigs/internal/logger"
)

// Eventbrite extracts events from eventbrite search pages. Listings are
// embedded as JSON-LD script blobs rather than markup, and the total
// page count sits inside a server-data script as "page_count".
type Eventbrite struct {
	name    string
	baseURL string
	headers map[string]string
	client  *http.Client
}

var pageCountRe = regexp.MustCompile(`"page_count":\s*(\d{1,3})`)

// NewEventbrite creates an eventbrite extractor from its config entry.
func NewEventbrite(sc config.SourceConfig, client *http.Client, userAgent string) *Eventbrite {
	return &Eventbrite{
		name:    sc.Name,
		baseURL: sc.BaseURL,
		headers: mergeHeaders(userAgent, sc.Headers),
		client:  client,
	}
}

// Name returns the source tag stamped on every record.
func (e *Eventbrite) Name() string { return e.name }

// FetchPage fetches one search result page.
func (e *Eventbrite) FetchPage(ctx context.Context, page int) (PageContent, error) {
	return Fetch(ctx, e.client, fmt.Sprintf("%s%d", e.baseURL, page), e.headers)
}

// DiscoverPageCount scans the raw page for the embedded page_count
// value.
func (e *Eventbrite) DiscoverPageCount(pc PageContent) (int, bool) {
	m := pageCountRe.FindSubmatch(pc.Body)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ldEvent is the subset of the JSON-LD Event schema the pipeline needs.
type ldEvent struct {
	Type      string          `json:"@type"`
	Name      string          `json:"name"`
	StartDate string          `json:"startDate"`
	URL       string          `json:"url"`
	Image     json.RawMessage `json:"image"`
	Location  struct {
		Name    string `json:"name"`
		Address struct {
			Locality string `json:"addressLocality"`
			Region   string `json:"addressRegion"`
		} `json:"address"`
	} `json:"location"`
	Offers []struct {
		Price    json.Number `json:"price"`
		LowPrice json.Number `json:"lowPrice"`
	} `json:"offers"`
}

// ExtractRecords decodes every JSON-LD blob on the page. Blobs that are
// not events, or that fail to decode, are skipped individually.
func (e *Eventbrite) ExtractRecords(pc PageContent) ([]gig.RawFields, int) {
	var records []gig.RawFields
	skipped := 0

	pc.Doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		for _, ev := range decodeLDEvents(s.Text()) {
			if !strings.Contains(ev.Type, "Event") {
				continue
			}
			if ev.Name == "" {
				skipped++
				logger.Warn("skipping malformed embedded event", logger.Fields{
					"source": e.name,
					"page":   pc.URL,
					"reason": "missing name",
				})
				continue
			}
			records = append(records, gig.RawFields{
				Date:      ev.StartDate,
				Title:     ev.Name,
				PriceText: e.priceText(ev),
				Venue:     ev.Location.Name,
				Suburb:    ev.Location.Address.Locality,
				State:     ev.Location.Address.Region,
				URL:       ev.URL,
				Image:     imageURL(ev.Image),
			})
		}
	})

	return records, skipped
}

// decodeLDEvents handles both a single JSON-LD object and an array of
// them.
func decodeLDEvents(blob string) []ldEvent {
	blob = strings.TrimSpace(blob)
	if blob == "" {
		return nil
	}
	var many []ldEvent
	if err := json.Unmarshal([]byte(blob), &many); err == nil {
		return many
	}
	var one ldEvent
	if err := json.Unmarshal([]byte(blob), &one); err == nil {
		return []ldEvent{one}
	}
	return nil
}

func (e *Eventbrite) priceText(ev ldEvent) string {
	var parts []string
	for _, o := range ev.Offers {
		if o.LowPrice != "" {
			parts = append(parts, o.LowPrice.String())
		} else if o.Price != "" {
			parts = append(parts, o.Price.String())
		}
	}
	return strings.Join(parts, " ")
}

// imageURL accepts either a bare string or an ImageObject with a url
// field.
func imageURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.URL
	}
	return ""
}

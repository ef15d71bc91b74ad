package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mintydevdaz/gigs/internal/config"
	"github.com/mintydevdaz/gigs/internal/gig"
	"github.com/mintydevdaz/gigs/internal/logger"
)

// Moshtix extracts events from moshtix search result pages. The page
// count comes from the pagination control at the foot of the first
// page ("Page 1 of N").
type Moshtix struct {
	name    string
	baseURL string
	headers map[string]string
	client  *http.Client
}

const (
	moshtixPaginationNode = "section.moduleseparator"
	moshtixEventNode      = "div.searchresult.clearfix"
)

// NewMoshtix creates a moshtix extractor from its config entry.
func NewMoshtix(sc config.SourceConfig, client *http.Client, userAgent string) *Moshtix {
	return &Moshtix{
		name:    sc.Name,
		baseURL: sc.BaseURL,
		headers: mergeHeaders(userAgent, sc.Headers),
		client:  client,
	}
}

// Name returns the source tag stamped on every record.
func (m *Moshtix) Name() string { return m.name }

// FetchPage fetches one search result page.
func (m *Moshtix) FetchPage(ctx context.Context, page int) (PageContent, error) {
	return Fetch(ctx, m.client, fmt.Sprintf("%s%d", m.baseURL, page), m.headers)
}

// DiscoverPageCount parses the trailing integer out of the pagination
// control text.
func (m *Moshtix) DiscoverPageCount(pc PageContent) (int, bool) {
	text := strings.TrimSpace(pc.Doc.Find(moshtixPaginationNode).First().Text())
	if text == "" {
		return 0, false
	}
	parts := strings.Fields(text)
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ExtractRecords walks the event cards on one page. A card missing its
// title link is skipped and logged; the rest of the page still yields.
func (m *Moshtix) ExtractRecords(pc PageContent) ([]gig.RawFields, int) {
	var records []gig.RawFields
	skipped := 0

	pc.Doc.Find(moshtixEventNode).Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h2.main-event-header > a > span").Text())
		href, _ := s.Find("h2.main-event-header > a").Attr("href")
		if title == "" || href == "" {
			skipped++
			logger.Warn("skipping malformed event card", logger.Fields{
				"source": m.name,
				"page":   pc.URL,
				"reason": "missing title or link",
			})
			return
		}

		records = append(records, gig.RawFields{
			Date:  m.extractDate(s),
			Title: title,
			Venue: strings.TrimSpace(s.Find("h2.main-artist-event-header > a > span").Text()),
			URL:   href,
			Image: m.extractImage(s),
		})
	})

	return records, skipped
}

// extractDate pulls the leading text node of the artist/venue header,
// e.g. "Sat 16 Mar 2024, 7.30pm |", and reduces it to "16 Mar 2024".
func (m *Moshtix) extractDate(s *goquery.Selection) string {
	var raw string
	s.Find("h2.main-artist-event-header").Contents().EachWithBreak(func(_ int, c *goquery.Selection) bool {
		if goquery.NodeName(c) == "#text" {
			if t := strings.TrimSpace(c.Text()); t != "" {
				raw = t
				return false
			}
		}
		return true
	})
	if raw == "" {
		return ""
	}

	raw = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(raw, "|", ""), ",", ""))
	parts := strings.Fields(raw) // [Sat 16 Mar 2024 7.30pm]
	if len(parts) == 5 {
		return strings.Join(parts[1:4], " ")
	}
	return raw
}

func (m *Moshtix) extractImage(s *goquery.Selection) string {
	src, ok := s.Find("div.searchresult_image > a > img").Attr("src")
	if !ok || src == "" {
		return ""
	}
	if !strings.HasPrefix(src, "http") {
		return "https:" + src
	}
	return src
}

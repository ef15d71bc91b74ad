package venue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mintydevdaz/gigs/internal/source"
)

// ErrNoResult means the fallback search returned nothing usable for a
// venue name.
var ErrNoResult = errors.New("no search result for venue")

const (
	searchResultNode = "h2.main-artist-event-header > a"
	addressNode      = "div.page_headtitle.page_headtitle_withleftimage > p > a"
)

// MoshtixLookup resolves venue addresses through the moshtix site: a
// name search locates the venue page, and the page header carries the
// canonical address line.
type MoshtixLookup struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// NewMoshtixLookup creates the fallback lookup client.
func NewMoshtixLookup(baseURL string, client *http.Client, userAgent string) *MoshtixLookup {
	return &MoshtixLookup{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: client,
		UserAgent:  userAgent,
	}
}

// ResolveAddress searches for the venue and scrapes its address line.
func (c *MoshtixLookup) ResolveAddress(ctx context.Context, venue string) (string, error) {
	headers := map[string]string{"User-Agent": c.UserAgent}

	searchURL := fmt.Sprintf("%s/v2/search?query=%s", c.BaseURL, url.QueryEscape(venue))
	pc, err := source.Fetch(ctx, c.HTTPClient, searchURL, headers)
	if err != nil {
		return "", fmt.Errorf("searching venue: %w", err)
	}

	link, ok := pc.Doc.Find(searchResultNode).First().Attr("href")
	if !ok || link == "" {
		return "", ErrNoResult
	}
	if !strings.HasPrefix(link, "http") {
		link = c.BaseURL + link
	}

	page, err := source.Fetch(ctx, c.HTTPClient, link, headers)
	if err != nil {
		return "", fmt.Errorf("fetching venue page: %w", err)
	}

	address := strings.TrimSpace(page.Doc.Find(addressNode).First().Text())
	if address == "" {
		return "", ErrNoResult
	}
	return strings.ToUpper(address), nil
}

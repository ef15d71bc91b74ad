// Package source defines the extractor contract and the concrete
// per-source extractors.
//
// The pipeline core never interprets source markup itself: each source
// supplies page fetching, record extraction, and page-count discovery
// behind the Extractor interface, constructed from an explicit config
// value. Adding a source means adding one implementation here.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mintydevdaz/gigs/internal/config"
	"github.com/mintydevdaz/gigs/internal/gig"
)

// PageContent is one fetched page: the raw bytes for script-blob
// scanning plus a parsed document for selector walks.
type PageContent struct {
	URL  string
	Body []byte
	Doc  *goquery.Document
}

// Extractor turns one source's pages into raw field-sets. ExtractRecords
// reports how many malformed items it skipped so the run summary can
// account for them; a skipped item never fails the page.
type Extractor interface {
	Name() string
	FetchPage(ctx context.Context, page int) (PageContent, error)
	ExtractRecords(pc PageContent) (records []gig.RawFields, skipped int)
	DiscoverPageCount(pc PageContent) (int, bool)
}

// StatusError reports a non-2xx response. The crawler retries 5xx and
// treats 4xx as permanent.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.Code, e.URL)
}

// NewHTTPClient builds the shared HTTP client with sane transport
// limits. The per-request timeout also bounds body reads.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

const maxBodyBytes = 8 << 20 // listings pages are small; cap reads anyway

// Fetch performs one GET attempt and parses the response. It is shared
// by the extractors and the venue fallback lookup.
func Fetch(ctx context.Context, client *http.Client, url string, headers map[string]string) (PageContent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PageContent{}, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return PageContent{}, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return PageContent{}, &StatusError{URL: url, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return PageContent{}, fmt.Errorf("reading body: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return PageContent{}, fmt.Errorf("parsing HTML: %w", err)
	}

	return PageContent{URL: url, Body: body, Doc: doc}, nil
}

// mergeHeaders layers source-specific headers over the default
// User-Agent.
func mergeHeaders(userAgent string, extra map[string]string) map[string]string {
	h := map[string]string{"User-Agent": userAgent}
	for k, v := range extra {
		h[k] = v
	}
	return h
}

// NewFromConfig builds the extractor for a source config entry.
func NewFromConfig(sc config.SourceConfig, client *http.Client, userAgent string) (Extractor, error) {
	switch sc.Type {
	case "moshtix":
		return NewMoshtix(sc, client, userAgent), nil
	case "eventbrite":
		return NewEventbrite(sc, client, userAgent), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", sc.Type)
	}
}

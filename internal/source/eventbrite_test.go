package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mintydevdaz/gigs/internal/config"
)

const eventbriteFixture = `<html><head>
<script type="application/ld+json">
[
  {"@type":"MusicEvent","name":"Ball Park Music","startDate":"2024-05-04T19:00:00",
   "url":"https://example.com/e/2","image":"https://img.example/2.jpg",
   "location":{"name":"The Lansdowne","address":{"addressLocality":"Chippendale","addressRegion":"NSW"}},
   "offers":[{"lowPrice":59.90},{"lowPrice":89.90}]},
  {"@type":"MusicEvent","startDate":"2024-05-05T19:00:00"},
  {"@type":"BreadcrumbList","name":"ignored"}
]
</script>
<script>window.__SERVER_DATA__ = {"search":{"page_count": 7}};</script>
</head><body></body></html>`

func newEventbriteForTest(t *testing.T, baseURL string) *Eventbrite {
	t.Helper()
	sc := config.SourceConfig{Type: "eventbrite", Name: "Eventbrite", BaseURL: baseURL}
	return NewEventbrite(sc, NewHTTPClient(0), config.DefaultUserAgent)
}

func fetchEventbriteFixture(t *testing.T, body string) PageContent {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	e := newEventbriteForTest(t, srv.URL+"/d/music--events/?page=")
	pc, err := e.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	return pc
}

func TestEventbriteDiscoverPageCount(t *testing.T) {
	pc := fetchEventbriteFixture(t, eventbriteFixture)
	e := newEventbriteForTest(t, "unused")

	n, ok := e.DiscoverPageCount(pc)
	if !ok || n != 7 {
		t.Errorf("DiscoverPageCount = %d, %v; want 7, true", n, ok)
	}
}

func TestEventbriteDiscoverPageCountAbsent(t *testing.T) {
	pc := fetchEventbriteFixture(t, "<html><body></body></html>")
	e := newEventbriteForTest(t, "unused")

	if _, ok := e.DiscoverPageCount(pc); ok {
		t.Error("expected discovery to fail without embedded page_count")
	}
}

func TestEventbriteExtractRecords(t *testing.T) {
	pc := fetchEventbriteFixture(t, eventbriteFixture)
	e := newEventbriteForTest(t, "unused")

	records, skipped := e.ExtractRecords(pc)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1 (event with no name)", skipped)
	}

	r := records[0]
	if r.Title != "Ball Park Music" {
		t.Errorf("Title = %q", r.Title)
	}
	if r.Date != "2024-05-04T19:00:00" {
		t.Errorf("Date = %q", r.Date)
	}
	if r.PriceText != "59.90 89.90" {
		t.Errorf("PriceText = %q", r.PriceText)
	}
	if r.Venue != "The Lansdowne" {
		t.Errorf("Venue = %q", r.Venue)
	}
	if r.Suburb != "Chippendale" || r.State != "NSW" {
		t.Errorf("location = %q, %q", r.Suburb, r.State)
	}
	if r.Image != "https://img.example/2.jpg" {
		t.Errorf("Image = %q", r.Image)
	}
}

func TestImageURLObjectForm(t *testing.T) {
	if got := imageURL([]byte(`{"url":"https://img.example/x.jpg"}`)); got != "https://img.example/x.jpg" {
		t.Errorf("imageURL object form = %q", got)
	}
	if got := imageURL([]byte(`"https://img.example/y.jpg"`)); got != "https://img.example/y.jpg" {
		t.Errorf("imageURL string form = %q", got)
	}
	if got := imageURL(nil); got != "" {
		t.Errorf("imageURL nil = %q", got)
	}
}

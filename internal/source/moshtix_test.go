package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mintydevdaz/gigs/internal/config"
)

const moshtixFixture = `<html><body>
<section class="moduleseparator">Showing results. Page 1 of 23</section>
<div class="searchresult clearfix">
  <div class="searchresult_image"><a href="#"><img src="//cdn.example/img1.jpg"></a></div>
  <h2 class="main-event-header"><a href="https://moshtix.example/event/1"><span>The Jezabels</span></a></h2>
  <h2 class="main-artist-event-header">Sat 16 Mar 2024, 7.30pm | <a href="/venue/1"><span>The Metro Theatre</span></a></h2>
</div>
<div class="searchresult clearfix">
  <h2 class="main-event-header"><a href=""><span></span></a></h2>
</div>
</body></html>`

func newMoshtixForTest(t *testing.T, baseURL string) *Moshtix {
	t.Helper()
	sc := config.SourceConfig{Type: "moshtix", Name: "Moshtix", BaseURL: baseURL}
	return NewMoshtix(sc, NewHTTPClient(0), config.DefaultUserAgent)
}

func fetchFixture(t *testing.T, body string) PageContent {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	m := newMoshtixForTest(t, srv.URL+"/search?Page=")
	pc, err := m.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	return pc
}

func TestMoshtixDiscoverPageCount(t *testing.T) {
	pc := fetchFixture(t, moshtixFixture)
	m := newMoshtixForTest(t, "unused")

	n, ok := m.DiscoverPageCount(pc)
	if !ok || n != 23 {
		t.Errorf("DiscoverPageCount = %d, %v; want 23, true", n, ok)
	}
}

func TestMoshtixDiscoverPageCountMissingControl(t *testing.T) {
	pc := fetchFixture(t, "<html><body><p>no pagination here</p></body></html>")
	m := newMoshtixForTest(t, "unused")

	if _, ok := m.DiscoverPageCount(pc); ok {
		t.Error("expected discovery to fail without a pagination control")
	}
}

func TestMoshtixExtractRecords(t *testing.T) {
	pc := fetchFixture(t, moshtixFixture)
	m := newMoshtixForTest(t, "unused")

	records, skipped := m.ExtractRecords(pc)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}

	r := records[0]
	if r.Title != "The Jezabels" {
		t.Errorf("Title = %q", r.Title)
	}
	if r.Date != "16 Mar 2024" {
		t.Errorf("Date = %q, want 16 Mar 2024", r.Date)
	}
	if r.Venue != "The Metro Theatre" {
		t.Errorf("Venue = %q", r.Venue)
	}
	if r.URL != "https://moshtix.example/event/1" {
		t.Errorf("URL = %q", r.URL)
	}
	if r.Image != "https://cdn.example/img1.jpg" {
		t.Errorf("Image = %q", r.Image)
	}
}

func TestMoshtixFetchPageStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := newMoshtixForTest(t, srv.URL+"/search?Page=")
	_, err := m.FetchPage(context.Background(), 1)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusInternalServerError {
		t.Errorf("Code = %d, want 500", statusErr.Code)
	}
}

func TestNewFromConfigUnknownType(t *testing.T) {
	_, err := NewFromConfig(config.SourceConfig{Type: "myspace"}, NewHTTPClient(0), "ua")
	if err == nil {
		t.Error("expected error for unknown source type")
	}
}

package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintydevdaz/gigs/internal/crawler"
	"github.com/mintydevdaz/gigs/internal/dedupe"
	"github.com/mintydevdaz/gigs/internal/filter"
	"github.com/mintydevdaz/gigs/internal/gig"
	"github.com/mintydevdaz/gigs/internal/sink"
	"github.com/mintydevdaz/gigs/internal/source"
	"github.com/mintydevdaz/gigs/internal/venue"
)

// fakeExtractor serves a single page of canned raw field-sets.
type fakeExtractor struct {
	name    string
	records []gig.RawFields
	skipped int
	err     error
}

func (f *fakeExtractor) Name() string { return f.name }

func (f *fakeExtractor) FetchPage(ctx context.Context, page int) (source.PageContent, error) {
	if f.err != nil {
		return source.PageContent{}, f.err
	}
	return source.PageContent{URL: "fake://" + f.name}, nil
}

func (f *fakeExtractor) ExtractRecords(pc source.PageContent) ([]gig.RawFields, int) {
	return f.records, f.skipped
}

func (f *fakeExtractor) DiscoverPageCount(pc source.PageContent) (int, bool) {
	return 1, true
}

type fakeLookup struct {
	addresses map[string]string
	calls     int
}

func (f *fakeLookup) ResolveAddress(ctx context.Context, name string) (string, error) {
	f.calls++
	if addr, ok := f.addresses[name]; ok {
		return addr, nil
	}
	return "", venue.ErrNoResult
}

type captureSink struct {
	events []gig.Gig
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) Write(ctx context.Context, events []gig.Gig) error {
	s.events = events
	return nil
}

type failingSink struct{}

func (failingSink) Name() string { return "failing" }

func (failingSink) Write(context.Context, []gig.Gig) error {
	return errors.New("disk full")
}

func fixedNow() time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func TestRunEndToEnd(t *testing.T) {
	ex := &fakeExtractor{
		name: "Moshtix",
		records: []gig.RawFields{
			{Date: "16 Mar 2024", Title: "The Jezabels", Venue: "The Metro", PriceText: "45.50"},
			{Date: "whenever", Title: "Mystery Act", Venue: "The Metro"},
			{Date: "01 Feb 2024", Title: "Warehouse Party", Venue: "Warehouse X"},
		},
	}

	dir := venue.NewDirectory()
	dir.Put("THE METRO", venue.Location{Suburb: "Sydney", State: "NSW"})
	lookup := &fakeLookup{addresses: map[string]string{}}
	out := &captureSink{}

	summary, err := Run(context.Background(), Options{
		Sources:    []SourceJob{{Extractor: ex, Crawl: crawler.Options{Workers: 1, FirstPage: 1}}},
		Resolver:   venue.NewResolver(dir, lookup, "", 1),
		Sink:       out,
		Normalize:  gig.DefaultOptions(),
		Dedupe:     dedupe.Options{Keep: dedupe.KeepFirst},
		WindowDays: 365,
		Now:        fixedNow,
	})
	require.NoError(t, err)

	require.Len(t, out.events, 3)

	// Ascending by date, broken date last.
	assert.Equal(t, "warehouse party", out.events[0].Title)
	assert.Equal(t, "the jezabels", out.events[1].Title)
	assert.Equal(t, "mystery act", out.events[2].Title)
	assert.True(t, out.events[2].Date.Equal(gig.SentinelDate))

	// Directory hit enriched both Metro events.
	assert.Equal(t, "Sydney", out.events[1].Suburb)
	assert.Equal(t, "NSW", out.events[1].State)
	assert.Equal(t, "Sydney", out.events[2].Suburb)

	// The unresolvable venue passed through with sentinels and is
	// reported once.
	assert.Equal(t, gig.SentinelText, out.events[0].Suburb)
	assert.Equal(t, gig.SentinelText, out.events[0].State)
	assert.Equal(t, []string{"WAREHOUSE X"}, summary.UnresolvedVenues)
	assert.Equal(t, 1, lookup.calls)

	assert.Equal(t, 45.5, out.events[1].Price)
	assert.Equal(t, gig.PriceKnown, out.events[1].PriceStatus)

	require.Len(t, summary.Sources, 1)
	assert.Equal(t, "Moshtix", summary.Sources[0].Source)
	assert.Equal(t, 3, summary.Sources[0].Records)
	assert.Equal(t, 1, summary.Sources[0].PagesVisited)
	assert.Empty(t, summary.Sources[0].Err)
	assert.Equal(t, 3, summary.TotalEvents)
	assert.NotEmpty(t, summary.RunID)

	// The process counters travel with the summary. The registry is
	// shared across the package, so only a lower bound is stable.
	require.NotNil(t, summary.Metrics)
	counters, ok := summary.Metrics["counters"].(map[string]int64)
	require.True(t, ok, "metrics counters missing from summary")
	assert.GreaterOrEqual(t, counters["records_fetched.Moshtix"], int64(3))
}

func TestRunSourceFailureIsolated(t *testing.T) {
	broken := &fakeExtractor{name: "Eventbrite", err: errors.New("connection refused")}
	working := &fakeExtractor{
		name:    "Moshtix",
		records: []gig.RawFields{{Date: "16 Mar 2024", Title: "Hilltop Hoods", Venue: "The Tivoli"}},
	}
	out := &captureSink{}

	summary, err := Run(context.Background(), Options{
		Sources: []SourceJob{
			{Extractor: broken, Crawl: crawler.Options{Workers: 1, FirstPage: 1}},
			{Extractor: working, Crawl: crawler.Options{Workers: 1, FirstPage: 1}},
		},
		Sink:      out,
		Normalize: gig.DefaultOptions(),
		Dedupe:    dedupe.Options{Keep: dedupe.KeepFirst},
	})
	require.NoError(t, err, "a failed source must not fail the run")

	require.Len(t, summary.Sources, 2)
	assert.Contains(t, summary.Sources[0].Err, "connection refused")
	assert.Equal(t, 0, summary.Sources[0].Records)
	assert.Empty(t, summary.Sources[1].Err)
	assert.Equal(t, 1, summary.Sources[1].Records)

	require.Len(t, out.events, 1)
	assert.Equal(t, "hilltop hoods", out.events[0].Title)
}

func TestRunDedupesAcrossSources(t *testing.T) {
	a := &fakeExtractor{
		name:    "Moshtix",
		records: []gig.RawFields{{Date: "16 Mar 2024", Title: "Ball Park Music", Venue: "The Zoo"}},
	}
	b := &fakeExtractor{
		name:    "Eventbrite",
		records: []gig.RawFields{{Date: "16 Mar 2024", Title: "Ball Park Music", Venue: "The Zoo"}},
	}
	out := &captureSink{}

	summary, err := Run(context.Background(), Options{
		Sources: []SourceJob{
			{Extractor: a, Crawl: crawler.Options{Workers: 1, FirstPage: 1}},
			{Extractor: b, Crawl: crawler.Options{Workers: 1, FirstPage: 1}},
		},
		Sink:      out,
		Normalize: gig.DefaultOptions(),
		Dedupe:    dedupe.Options{Keep: dedupe.KeepFirst},
	})
	require.NoError(t, err)

	require.Len(t, out.events, 1)
	assert.Equal(t, "Moshtix", out.events[0].Source, "first occurrence wins")
	assert.Equal(t, 1, summary.TotalEvents)
}

func TestRunWindowDropsOutOfRangeKeepsSentinel(t *testing.T) {
	ex := &fakeExtractor{
		name: "Moshtix",
		records: []gig.RawFields{
			{Date: "16 Mar 2024", Title: "In Window", Venue: "V1"},
			{Date: "16 Mar 2026", Title: "Too Far Out", Venue: "V2"},
			{Date: "16 Mar 2023", Title: "Already Happened", Venue: "V3"},
			{Date: "garbage", Title: "Broken Date", Venue: "V4"},
		},
	}
	out := &captureSink{}

	_, err := Run(context.Background(), Options{
		Sources:    []SourceJob{{Extractor: ex, Crawl: crawler.Options{Workers: 1, FirstPage: 1}}},
		Sink:       out,
		Normalize:  gig.DefaultOptions(),
		Dedupe:     dedupe.Options{Keep: dedupe.KeepFirst},
		WindowDays: 365,
		Now:        fixedNow,
	})
	require.NoError(t, err)

	require.Len(t, out.events, 2)
	assert.Equal(t, "in window", out.events[0].Title)
	assert.Equal(t, "broken date", out.events[1].Title)
}

func TestRunAppliesFilter(t *testing.T) {
	ex := &fakeExtractor{
		name: "Moshtix",
		records: []gig.RawFields{
			{Date: "16 Mar 2024", Title: "In State", Venue: "V1", State: "NSW"},
			{Date: "17 Mar 2024", Title: "Out Of State", Venue: "V2", State: "VIC"},
		},
	}
	out := &captureSink{}

	_, err := Run(context.Background(), Options{
		Sources:   []SourceJob{{Extractor: ex, Crawl: crawler.Options{Workers: 1, FirstPage: 1}}},
		Sink:      out,
		Normalize: gig.DefaultOptions(),
		Dedupe:    dedupe.Options{Keep: dedupe.KeepFirst},
		Filter:    &filter.Filter{States: []string{"NSW"}},
	})
	require.NoError(t, err)

	require.Len(t, out.events, 1)
	assert.Equal(t, "in state", out.events[0].Title)
}

func TestRunSinkErrorFailsRun(t *testing.T) {
	ex := &fakeExtractor{
		name:    "Moshtix",
		records: []gig.RawFields{{Date: "16 Mar 2024", Title: "x", Venue: "V"}},
	}

	summary, err := Run(context.Background(), Options{
		Sources:   []SourceJob{{Extractor: ex, Crawl: crawler.Options{Workers: 1, FirstPage: 1}}},
		Sink:      failingSink{},
		Normalize: gig.DefaultOptions(),
		Dedupe:    dedupe.Options{Keep: dedupe.KeepFirst},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 1, summary.TotalEvents, "summary still reports the processed set")
}

func TestRunNoSinkDryStyle(t *testing.T) {
	ex := &fakeExtractor{
		name:    "Moshtix",
		records: []gig.RawFields{{Date: "16 Mar 2024", Title: "x", Venue: "V"}},
	}

	summary, err := Run(context.Background(), Options{
		Sources:   []SourceJob{{Extractor: ex, Crawl: crawler.Options{Workers: 1, FirstPage: 1}}},
		Sink:      sink.Discard{},
		Normalize: gig.DefaultOptions(),
		Dedupe:    dedupe.Options{Keep: dedupe.KeepFirst},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalEvents)
}

// Package pipeline orchestrates a full multi-source run: crawl,
// normalize, enrich, dedupe, sort, emit.
//
// No condition inside the pipeline terminates the whole run. A failed
// source contributes zero records and a summary entry; everything else
// degrades per record, page, or venue. Only the invoking harness
// decides whether a failed source makes the job exit non-zero.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mintydevdaz/gigs/internal/crawler"
	"github.com/mintydevdaz/gigs/internal/dedupe"
	"github.com/mintydevdaz/gigs/internal/filter"
	"github.com/mintydevdaz/gigs/internal/gig"
	"github.com/mintydevdaz/gigs/internal/logger"
	"github.com/mintydevdaz/gigs/internal/sink"
	"github.com/mintydevdaz/gigs/internal/source"
	"github.com/mintydevdaz/gigs/internal/venue"
)

// SourceJob pairs an extractor with its crawl bounds.
type SourceJob struct {
	Extractor source.Extractor
	Crawl     crawler.Options
}

// Options wires one run.
type Options struct {
	Sources    []SourceJob
	Resolver   *venue.Resolver // nil skips enrichment
	Sink       sink.Sink       // nil skips output
	Normalize  gig.Options
	Dedupe     dedupe.Options
	Filter     *filter.Filter   // nil or empty keeps everything
	WindowDays int              // 0 disables the date window filter
	Now        func() time.Time // defaults to time.Now
}

// SourceSummary reports one source's crawl outcome.
type SourceSummary struct {
	Source         string `json:"source"`
	Records        int    `json:"records"`
	PagesVisited   int    `json:"pages_visited"`
	PagesFailed    int    `json:"pages_failed"`
	RecordsSkipped int    `json:"records_skipped"`
	Err            string `json:"error,omitempty"`
}

// Summary is the operator-facing report for one run.
type Summary struct {
	RunID            string          `json:"run_id"`
	StartedAt        time.Time       `json:"started_at"`
	Elapsed          string          `json:"elapsed"`
	Sources          []SourceSummary `json:"sources"`
	TotalEvents      int             `json:"total_events"`
	UnresolvedVenues []string        `json:"unresolved_venues"`

	// Metrics holds the process counters and timings accumulated while
	// the run executed (records fetched per source, crawl durations,
	// venue resolution tallies).
	Metrics map[string]interface{} `json:"metrics,omitempty"`
}

// Run executes the pipeline. Sources crawl in parallel — they hit
// independent hosts — while each source's page pool bounds its own
// concurrency. The returned error is only non-nil when the final sink
// write fails; per-source failures live in the summary.
func Run(ctx context.Context, opts Options) (Summary, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	start := now()
	summary := Summary{
		RunID:            uuid.NewString(),
		StartedAt:        start.UTC(),
		UnresolvedVenues: []string{},
	}

	type crawlOut struct {
		res crawler.Result
		err error
	}
	outs := make([]crawlOut, len(opts.Sources))
	var wg sync.WaitGroup
	for i, job := range opts.Sources {
		wg.Add(1)
		go func(i int, job SourceJob) {
			defer wg.Done()
			res, err := crawler.Crawl(ctx, job.Extractor, job.Crawl)
			outs[i] = crawlOut{res: res, err: err}
		}(i, job)
	}
	wg.Wait()

	var events []gig.Gig
	for i, job := range opts.Sources {
		name := job.Extractor.Name()
		ss := SourceSummary{Source: name}
		out := outs[i]
		if out.err != nil {
			ss.Err = out.err.Error()
			logger.Error("source yielded no records", logger.Fields{"source": name}, out.err)
		} else {
			for _, raw := range out.res.Records {
				events = append(events, gig.Normalize(name, raw, opts.Normalize))
			}
			ss.Records = len(out.res.Records)
			ss.PagesVisited = out.res.PagesVisited
			ss.PagesFailed = out.res.PagesFailed
			ss.RecordsSkipped = out.res.RecordsSkipped
		}
		summary.Sources = append(summary.Sources, ss)
	}

	if opts.Resolver != nil {
		resolved, unresolved := opts.Resolver.Resolve(ctx, events)
		summary.UnresolvedVenues = distinctVenues(unresolved)
		events = append(resolved, unresolved...)
	}

	if opts.WindowDays > 0 {
		events = filterWindow(events, now().UTC(), opts.WindowDays)
	}
	if opts.Filter != nil {
		events = opts.Filter.Apply(events)
	}

	events = dedupe.Dedupe(events, opts.Dedupe)
	dedupe.SortByDate(events, opts.Dedupe.TitleTieBreak)
	summary.TotalEvents = len(events)
	summary.Metrics = logger.MetricsSnapshot()

	if opts.Sink != nil {
		if err := opts.Sink.Write(ctx, events); err != nil {
			summary.Elapsed = time.Since(start).Truncate(time.Millisecond).String()
			return summary, fmt.Errorf("writing output to %s: %w", opts.Sink.Name(), err)
		}
	}

	summary.Elapsed = time.Since(start).Truncate(time.Millisecond).String()
	logger.Info("run complete", logger.Fields{
		"run_id":     summary.RunID,
		"events":     summary.TotalEvents,
		"unresolved": len(summary.UnresolvedVenues),
		"elapsed":    summary.Elapsed,
	})
	return summary, nil
}

// filterWindow keeps events between now and now+days. Sentinel-dated
// records are kept: an unparsable date is not evidence the event is
// outside the window, and broken records must still export.
func filterWindow(events []gig.Gig, now time.Time, days int) []gig.Gig {
	cutoff := now.AddDate(0, 0, days)
	out := make([]gig.Gig, 0, len(events))
	for _, e := range events {
		if e.Date.Equal(gig.SentinelDate) {
			out = append(out, e)
			continue
		}
		if e.Date.Before(now) || e.Date.After(cutoff) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// distinctVenues collects the unique venue names of still-unresolved
// events for the run report.
func distinctVenues(events []gig.Gig) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, e := range events {
		if e.Venue == gig.SentinelText || seen[e.Venue] {
			continue
		}
		seen[e.Venue] = true
		names = append(names, e.Venue)
	}
	sort.Strings(names)
	return names
}

// Package crawler drives fetch-and-extract over a source's page
// sequence.
//
// Failures are isolated at two levels: a malformed record is skipped
// without failing its page, and a failed page is skipped without
// aborting the crawl. The only fatal condition for a source is page
// count discovery failing with no fixed bound configured — there is
// nothing to visit.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mintydevdaz/gigs/internal/gig"
	"github.com/mintydevdaz/gigs/internal/logger"
	"github.com/mintydevdaz/gigs/internal/source"
)

// Options bound the crawl. Zero values fall back to package defaults.
type Options struct {
	Workers   int           // concurrent in-flight requests for this source
	Retries   int           // extra attempts per page for transient failures
	Backoff   time.Duration // initial retry delay, doubled per attempt
	FirstPage int           // 1 unless the source indexes from 0
	PageBound int           // fixed operator-supplied bound; 0 = rely on discovery
}

const (
	defaultWorkers = 6
	defaultBackoff = 500 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Result is everything one source's crawl produced, plus the counts the
// run summary reports.
type Result struct {
	Records        []gig.RawFields
	PagesVisited   int
	PagesFailed    int
	RecordsSkipped int
}

// DiscoveryError means the page count could not be determined for a
// source. Fatal for that source only; the run continues without it.
type DiscoveryError struct {
	Source string
	Err    error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("source %s: page count discovery failed: %v", e.Source, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// Crawl visits pages first..last inclusive via a bounded worker pool.
// The last page comes from the extractor's discovery on the first page,
// falling back to the configured fixed bound. Cancelling ctx stops
// scheduling new pages; results for completed pages are still returned.
func Crawl(ctx context.Context, ex source.Extractor, opts Options) (Result, error) {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.FirstPage < 0 {
		opts.FirstPage = 1
	}

	start := time.Now()
	defer func() {
		logger.RecordTiming("crawl."+ex.Name(), time.Since(start))
	}()

	var res Result
	first := opts.FirstPage

	firstPage, err := fetchPage(ctx, ex, opts, first)
	last := 0
	switch {
	case err == nil:
		if n, ok := ex.DiscoverPageCount(firstPage); ok {
			last = n
		} else if opts.PageBound > 0 {
			last = opts.PageBound
		} else {
			return Result{}, &DiscoveryError{
				Source: ex.Name(),
				Err:    errors.New("no page count on first page and no fixed bound configured"),
			}
		}
		records, skipped := ex.ExtractRecords(firstPage)
		res.Records = append(res.Records, records...)
		res.RecordsSkipped += skipped
		res.PagesVisited++
	case opts.PageBound > 0:
		// First page failed but the operator supplied a bound, so the
		// rest of the sequence is still crawlable.
		last = opts.PageBound
		res.PagesFailed++
		logger.Warn("first page failed, continuing with fixed bound", logger.Fields{
			"source": ex.Name(),
			"page":   first,
			"reason": err.Error(),
		})
	default:
		return Result{}, &DiscoveryError{Source: ex.Name(), Err: err}
	}

	type pageResult struct {
		records []gig.RawFields
		skipped int
		failed  bool
	}
	results := make(map[int]pageResult)
	var mu sync.Mutex

	pages := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range pages {
				var pr pageResult
				pc, err := fetchPage(ctx, ex, opts, page)
				if err != nil {
					pr.failed = true
					logger.Warn("page skipped", logger.Fields{
						"source": ex.Name(),
						"page":   page,
						"reason": err.Error(),
					})
				} else {
					pr.records, pr.skipped = ex.ExtractRecords(pc)
				}
				mu.Lock()
				results[page] = pr
				mu.Unlock()
			}
		}()
	}

schedule:
	for p := first + 1; p <= last; p++ {
		select {
		case <-ctx.Done():
			logger.Warn("crawl cancelled, emitting partial results", logger.Fields{
				"source": ex.Name(),
				"page":   p,
			})
			break schedule
		case pages <- p:
		}
	}
	close(pages)
	wg.Wait()

	// Fold page results back in page order so downstream first-wins
	// dedup sees a stable input order.
	for p := first + 1; p <= last; p++ {
		pr, ok := results[p]
		if !ok {
			continue // never scheduled (cancelled)
		}
		if pr.failed {
			res.PagesFailed++
			continue
		}
		res.PagesVisited++
		res.Records = append(res.Records, pr.records...)
		res.RecordsSkipped += pr.skipped
	}

	logger.Add("records_fetched."+ex.Name(), int64(len(res.Records)))
	return res, nil
}

// fetchPage performs one page fetch with bounded retry. Transport
// errors and 5xx responses are retried with doubling backoff; 4xx is
// permanent.
func fetchPage(ctx context.Context, ex source.Extractor, opts Options, page int) (source.PageContent, error) {
	var pc source.PageContent
	err := retry(ctx, opts.Retries+1, opts.Backoff, maxBackoff, func() error {
		var err error
		pc, err = ex.FetchPage(ctx, page)
		return err
	})
	return pc, err
}

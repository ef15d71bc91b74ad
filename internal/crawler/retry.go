package crawler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mintydevdaz/gigs/internal/source"
)

// retry runs fn up to attempts times with doubling backoff between
// tries. It stops early on context cancellation and on permanent
// errors (4xx responses).
func retry(ctx context.Context, attempts int, initial, max time.Duration, fn func() error) error {
	if attempts <= 1 {
		return fn()
	}
	d := initial
	var last error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
			if d < max {
				d *= 2
				if d > max {
					d = max
				}
			}
		}
		err := fn()
		if err == nil {
			return nil
		}
		last = err
		if permanent(err) {
			return err
		}
	}
	return last
}

// permanent reports whether a fetch error is not worth retrying: any
// non-2xx status below 500.
func permanent(err error) bool {
	var statusErr *source.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code < http.StatusInternalServerError
	}
	return false
}

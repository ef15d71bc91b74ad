package sink

import (
	"context"
	"time"

	"github.com/mintydevdaz/gigs/internal/calendar"
	"github.com/mintydevdaz/gigs/internal/gig"
)

// ICSFile writes the events as a subscribable iCalendar document.
type ICSFile struct {
	Path string
	Now  func() time.Time // defaults to time.Now
}

// NewICSFile creates a calendar file sink.
func NewICSFile(path string) *ICSFile { return &ICSFile{Path: path} }

func (s *ICSFile) Name() string { return "ics:" + s.Path }

func (s *ICSFile) Write(ctx context.Context, events []gig.Gig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}
	return writeAtomic(s.Path, []byte(calendar.GenerateICS(events, now())))
}

// Multi fans one event list out to several sinks. The first failure
// stops the fan-out.
type Multi []Sink

func (m Multi) Name() string {
	name := "multi"
	for _, s := range m {
		name += " " + s.Name()
	}
	return name
}

func (m Multi) Write(ctx context.Context, events []gig.Gig) error {
	for _, s := range m {
		if err := s.Write(ctx, events); err != nil {
			return err
		}
	}
	return nil
}

// Package scheduler runs registered jobs at fixed daily or weekly wall-clock
// times. Time is injected through a clockwork.Clock so jobs can be triggered
// deterministically in tests.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context)

type entry struct {
	name string
	job  Job
	next func(now time.Time) time.Time
}

// Scheduler fires jobs at their next wall-clock occurrence, repeatedly.
type Scheduler struct {
	clock   clockwork.Clock
	entries []entry
	wg      sync.WaitGroup
}

// New creates a Scheduler driven by the given clock.
func New(clock clockwork.Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// Daily registers a job to run every day at hour:minute.
func (s *Scheduler) Daily(hour, minute int, name string, job Job) {
	s.entries = append(s.entries, entry{
		name: name,
		job:  job,
		next: func(now time.Time) time.Time {
			next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
			if !next.After(now) {
				next = next.AddDate(0, 0, 1)
			}
			return next
		},
	})
}

// Weekly registers a job to run every week on the given weekday at hour:minute.
func (s *Scheduler) Weekly(weekday time.Weekday, hour, minute int, name string, job Job) {
	s.entries = append(s.entries, entry{
		name: name,
		job:  job,
		next: func(now time.Time) time.Time {
			next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
			days := (int(weekday) - int(now.Weekday()) + 7) % 7
			next = next.AddDate(0, 0, days)
			if !next.After(now) {
				next = next.AddDate(0, 0, 7)
			}
			return next
		},
	})
}

// Start launches one goroutine per registered entry. The goroutines exit when
// the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, e := range s.entries {
		e := e
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.run(ctx, e)
		}()
	}
}

// Wait blocks until all entry goroutines have exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, e entry) {
	for {
		now := s.clock.Now()
		next := e.next(now)
		log.Printf("scheduler: %s next run at %s", e.name, next.Format(time.RFC3339))

		select {
		case <-s.clock.After(next.Sub(now)):
			e.job(ctx)
		case <-ctx.Done():
			return
		}
	}
}

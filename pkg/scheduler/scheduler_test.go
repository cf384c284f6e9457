package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForRuns(t *testing.T, runs *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for runs.Load() < want {
		select {
		case <-deadline:
			t.Fatalf("expected %d runs, got %d", want, runs.Load())
		case <-time.After(time.Millisecond):
		}
	}
}

func TestDailyJobFiresAtConfiguredTime(t *testing.T) {
	start := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	sched := New(clock)

	var runs atomic.Int32
	sched.Daily(9, 0, "test-daily", func(context.Context) { runs.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)

	// The entry goroutine must be waiting before the clock advances.
	clock.BlockUntil(1)

	clock.Advance(30 * time.Minute)
	assert.Equal(t, int32(0), runs.Load(), "must not fire before 09:00")

	clock.Advance(time.Hour)
	waitForRuns(t, &runs, 1)

	// The next occurrence is tomorrow, not immediately.
	clock.BlockUntil(1)
	clock.Advance(23 * time.Hour)
	assert.Equal(t, int32(1), runs.Load())

	clock.Advance(2 * time.Hour)
	waitForRuns(t, &runs, 2)
}

func TestDailyJobScheduledForTomorrowWhenTimePassed(t *testing.T) {
	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	sched := New(clock)

	var runs atomic.Int32
	sched.Daily(9, 0, "test-daily", func(context.Context) { runs.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)
	clock.BlockUntil(1)

	clock.Advance(12 * time.Hour)
	assert.Equal(t, int32(0), runs.Load(), "09:00 already passed today")

	clock.Advance(12 * time.Hour)
	waitForRuns(t, &runs, 1)
}

func TestWeeklyJobFiresOnConfiguredWeekday(t *testing.T) {
	// 2024-03-15 is a Friday.
	start := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	sched := New(clock)

	var runs atomic.Int32
	sched.Weekly(time.Sunday, 18, 0, "test-weekly", func(context.Context) { runs.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)
	clock.BlockUntil(1)

	clock.Advance(24 * time.Hour)
	assert.Equal(t, int32(0), runs.Load(), "Saturday, nothing yet")

	// Through Sunday 18:00.
	clock.Advance(30 * time.Hour)
	waitForRuns(t, &runs, 1)
}

func TestStartStopsOnContextCancel(t *testing.T) {
	start := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	sched := New(clock)

	var runs atomic.Int32
	sched.Daily(9, 0, "test-daily", func(context.Context) { runs.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	sched.Start(ctx)
	clock.BlockUntil(1)

	cancel()
	sched.Wait()

	require.Equal(t, int32(0), runs.Load())
}

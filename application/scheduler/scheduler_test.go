// application/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedule_NextRun(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	daily := DailyAt(15, 30)
	require.Equal(t, time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC), daily.nextRun(now))

	// Сегодняшнее время уже прошло — запуск завтра
	passed := DailyAt(9, 0)
	require.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), passed.nextRun(now))

	every := Every(10 * time.Minute)
	require.Equal(t, now.Add(10*time.Minute), every.nextRun(now))
}

func TestScheduler_RunsIntervalJob(t *testing.T) {
	s := New()

	var runs int32
	s.Register(&Job{
		Name:     "tick",
		Schedule: Every(10 * time.Millisecond),
		Quiet:    true,
		Handler: func(ctx context.Context) error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	})

	s.Start()
	time.Sleep(1500 * time.Millisecond)
	s.Stop()

	require.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(1))
}

func TestScheduler_JobStatusTracksErrors(t *testing.T) {
	s := New()

	boom := errors.New("boom")
	job := &Job{
		Name:     "failing",
		Schedule: Every(10 * time.Millisecond),
		Quiet:    true,
		Handler: func(ctx context.Context) error {
			return boom
		},
	}
	s.Register(job)

	s.Start()
	time.Sleep(1500 * time.Millisecond)
	s.Stop()

	status := job.Status()
	require.GreaterOrEqual(t, status.Runs, 1)
	require.ErrorIs(t, status.LastErr, boom)
}

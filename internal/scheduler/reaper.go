package scheduler

import (
	"context"
	"time"
)

// StaleReaper fails jobs stuck in a running state.
type StaleReaper interface {
	ReapStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// ScheduleReaper registers a task failing jobs that have not reported
// progress for olderThan.
func (s *Scheduler) ScheduleReaper(r StaleReaper, interval, olderThan time.Duration) error {
	return s.Every("reap-stale-jobs", interval, func(ctx context.Context) error {
		n, err := r.ReapStale(ctx, olderThan)
		if n > 0 {
			s.log.Warn().Int("jobs", n).Dur("older_than", olderThan).Msg("failed stale jobs")
		}
		return err
	})
}

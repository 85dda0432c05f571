// Package scheduler runs the service's periodic maintenance tasks.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

type Scheduler struct {
	s      gocron.Scheduler
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(log zerolog.Logger) (*Scheduler, error) {
	log = log.With().Str("component", "scheduler").Logger()
	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(gocronLogger{log}),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{s: s, log: log, ctx: ctx, cancel: cancel}, nil
}

// Every runs task every interval. A run that is still going when the next
// one is due pushes it back.
func (s *Scheduler) Every(name string, interval time.Duration, task func(ctx context.Context) error) error {
	if name == "" {
		return errors.New("empty job name")
	}
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}

	run := func() {
		start := time.Now()
		if err := task(s.ctx); err != nil && s.ctx.Err() == nil {
			s.log.Error().Err(err).Str("job", name).Msg("scheduled job failed")
			return
		}
		if d := time.Since(start); d > interval {
			s.log.Warn().Str("job", name).Dur("elapsed", d).Msg("slow scheduled job")
		}
	}

	j, err := s.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(run),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	evt := s.log.Info().Str("job", name).Dur("interval", interval)
	if next, err := j.NextRun(); err == nil {
		evt = evt.Time("next_run", next)
	}
	evt.Msg("job scheduled")
	return nil
}

func (s *Scheduler) Start() {
	s.s.Start()
}

// Stop cancels running tasks and waits for them to return.
func (s *Scheduler) Stop() error {
	s.cancel()
	if err := s.s.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return nil
}

type gocronLogger struct {
	log zerolog.Logger
}

func (l gocronLogger) Debug(msg string, args ...any) { l.log.Debug().Fields(args).Msg(msg) }
func (l gocronLogger) Info(msg string, args ...any)  { l.log.Debug().Fields(args).Msg(msg) }
func (l gocronLogger) Warn(msg string, args ...any)  { l.log.Warn().Fields(args).Msg(msg) }
func (l gocronLogger) Error(msg string, args ...any) { l.log.Error().Fields(args).Msg(msg) }

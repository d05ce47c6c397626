// Package schedule runs jobs on cron expressions.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/rs/zerolog"
)

// Job is a task fired at every tick of Expr, a five field cron expression.
type Job struct {
	Name string
	Expr string
	Run  func(ctx context.Context)
}

// Validate rejects expressions gronx cannot evaluate.
func Validate(expr string) error {
	g := gronx.New()
	if !g.IsValid(expr) {
		return fmt.Errorf("invalid cron expression %q", expr)
	}
	return nil
}

// Scheduler runs one job at a time on its cron expression.
type Scheduler struct {
	log   zerolog.Logger
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{log: log, now: time.Now, after: time.After}
}

// Next is the first tick of expr strictly after t.
func Next(expr string, t time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, t, false)
}

// Run fires job until ctx is done. Runs never overlap: the next tick is
// computed after the previous run returns.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	if err := Validate(job.Expr); err != nil {
		return err
	}
	log := s.log.With().Str("job", job.Name).Str("cron", job.Expr).Logger()
	for ctx.Err() == nil {
		next, err := Next(job.Expr, s.now())
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		log.Debug().Time("next", next).Msg("job scheduled")

		select {
		case <-ctx.Done():
			return nil
		case <-s.after(next.Sub(s.now())):
		}

		start := s.now()
		job.Run(ctx)
		log.Info().Dur("took", s.now().Sub(start)).Msg("job finished")
	}
	return nil
}

package cron

import (
	"context"
	"log/slog"
	"time"
)

// SessionSweeper drops payroll sessions that have been idle past their TTL.
type SessionSweeper interface {
	EvictIdleSessions(ctx context.Context) (evicted int, open int)
}

type PayrollJobs struct {
	sessions SessionSweeper
	logger   *slog.Logger
}

func NewPayrollJobs(sessions SessionSweeper, logger *slog.Logger) *PayrollJobs {
	return &PayrollJobs{sessions: sessions, logger: logger}
}

// Register adds the payroll jobs to s.
func (j *PayrollJobs) Register(s *Scheduler, sweepInterval time.Duration) {
	s.AddJob("payroll_session_sweep", sweepInterval, j.SweepSessions)
}

func (j *PayrollJobs) SweepSessions(ctx context.Context) error {
	evicted, open := j.sessions.EvictIdleSessions(ctx)
	if evicted > 0 {
		j.logger.Info("evicted idle payroll sessions", "evicted", evicted, "open", open)
	}
	return nil
}

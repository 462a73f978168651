// Package scheduler triggers the daily digest on a cron expression.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/archpointlabs/milo/internal/services/digest"
)

type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// DigestBuilder is satisfied by *digest.Aggregator.
type DigestBuilder interface {
	BuildDigest(ctx context.Context, now time.Time) (*digest.Report, error)
}

type Scheduler struct {
	cron    *cron.Cron
	builder DigestBuilder
	logger  Logger
	timeout time.Duration
	now     func() time.Time
}

// New registers the digest job. spec uses the standard five-field cron
// syntax and is evaluated in loc.
func New(spec string, loc *time.Location, builder DigestBuilder, logger Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		builder: builder,
		logger:  logger,
		timeout: 2 * time.Minute,
		now:     time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("invalid DIGEST_CRON %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, entry := range s.cron.Entries() {
		s.logger.Info("Digest scheduler started", "next_run", entry.Next.Format(time.RFC3339))
	}
}

// Stop waits for a running job to finish or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce builds one digest. A failed run is logged and left for the next tick.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.builder.BuildDigest(ctx, s.now())
	if err != nil {
		s.logger.Error("Scheduled digest failed", "error", err)
		return
	}
	s.logger.Info("Scheduled digest finished", "run_id", report.RunID, "state", string(report.State), "count", report.Count)
}

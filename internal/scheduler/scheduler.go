package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Scheduler runs jobs on cron specs until its context is cancelled.
// A job still running when its next tick arrives is skipped for that tick.
type Scheduler struct {
	c *cron.Cron
	// ctx is the context passed to Run; jobs derive theirs from it.
	ctx context.Context
}

// New validates every spec up front so a bad CATALOG_REFRESH_CRON fails at startup.
func New(jobs ...Job) (*Scheduler, error) {
	s := &Scheduler{
		c:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx: context.Background(),
	}
	for _, j := range jobs {
		job := j
		if _, err := s.c.AddFunc(job.Spec, func() { s.runJob(job) }); err != nil {
			return nil, err
		}
		slog.Info("scheduler: job added", "job", job.Name, "spec", job.Spec)
	}
	return s, nil
}

func (s *Scheduler) runJob(j Job) {
	ctx := s.ctx
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	if err := j.Run(ctx); err != nil {
		slog.Error("scheduler: job failed", "job", j.Name, "err", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	slog.Debug("scheduler: job finished", "job", j.Name, "duration_ms", time.Since(start).Milliseconds())
}

// Run starts the cron loop and blocks until ctx is done, then waits for
// running jobs to finish. Running jobs see ctx cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.ctx = ctx
	s.c.Start()
	<-ctx.Done()
	<-s.c.Stop().Done()
}

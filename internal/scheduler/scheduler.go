// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is a unit of scheduled work. Its context is cancelled when the scheduler stops.
type Job func(ctx context.Context) error

// Scheduler wraps a cron runner with logging
type Scheduler struct {
	cron   *cron.Cron
	log    *logrus.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler using standard five-field cron specs
func New(log *logrus.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cronLog := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under name to run on spec
func (s *Scheduler) Add(name, spec string, job Job) error {
	id, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.log.Infof("Scheduled job %s (%s), entry %d", name, spec, id)
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()
	entry := s.log.WithField("job", name)
	entry.Info("Job started")

	if err := job(s.ctx); err != nil {
		entry.WithError(err).Error("Job failed")
		return
	}
	entry.WithField("duration_ms", time.Since(start).Milliseconds()).Info("Job finished")
}

// Len returns the number of registered jobs
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs' context and returns a context that is done once they return
func (s *Scheduler) Stop() context.Context {
	s.cancel()
	return s.cron.Stop()
}

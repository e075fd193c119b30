// Package scheduler runs periodic housekeeping jobs such as cache pruning.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// PruneFunc drops stale entries and reports how many were removed
type PruneFunc func() int

type job struct {
	name  string
	prune PruneFunc
}

// Scheduler runs prune jobs on a cron schedule
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	jobs     []job
	logger   *zap.Logger
}

// New creates a scheduler. schedule is any robfig/cron expression, e.g. "@every 10m".
func New(schedule string, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return &Scheduler{
		cron:     cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger))),
		schedule: schedule,
		logger:   logger,
	}, nil
}

// AddPruneJob registers a prune job under name
func (s *Scheduler) AddPruneJob(name string, prune PruneFunc) error {
	j := job{name: name, prune: prune}
	if _, err := s.cron.AddFunc(s.schedule, func() { s.run(j) }); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.jobs = append(s.jobs, j)
	return nil
}

// RunNow runs every registered job once, synchronously
func (s *Scheduler) RunNow() {
	for _, j := range s.jobs {
		s.run(j)
	}
}

func (s *Scheduler) run(j job) {
	removed := j.prune()
	if removed > 0 {
		s.logger.Debug("Pruned stale entries", zap.String("job", j.name), zap.Int("removed", removed))
	}
}

// Start starts the scheduler in the background
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", zap.String("schedule", s.schedule), zap.Int("jobs", len(s.jobs)))
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
	}
}

// Package scheduler wires up the cron job that periodically triggers the
// daily discovery batch.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobmate/matching-service/internal/discovery"
)

// Runner is the batch entry point the scheduler fires.
type Runner interface {
	RunDaily(ctx context.Context) discovery.BatchReport
}

// Scheduler wraps robfig/cron and manages the discovery loop.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	logger *zap.Logger
	spec   string // cron spec, e.g. "@every 24h"
}

// New creates a Scheduler that fires every intervalHours hours.
func New(runner Runner, intervalHours int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.DefaultLogger)),
		runner: runner,
		logger: logger,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one batch
// immediately so postings exist without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runBatch(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("cron started", zap.String("spec", s.spec))

	// Run immediately on startup (non-blocking)
	go s.runBatch(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("cron stopped")
}

func (s *Scheduler) runBatch(ctx context.Context) {
	report := s.runner.RunDaily(ctx)
	s.logger.Info("scheduled batch finished",
		zap.Int("candidates", report.Candidates),
		zap.Int("processed", report.Processed),
		zap.Int("matched", report.Matched),
	)
}

// Package scheduler drives the periodic economy tick.
package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"emberveil-engine/internal/economy"
)

// Runner executes economy ticks on a cron schedule. The tick counter is
// shared between scheduled runs and manual runs so frequency-gated trade
// routes see a single monotonic sequence.
type Runner struct {
	cron        *cron.Cron
	coordinator *economy.TickCoordinator
	logger      *logrus.Logger
	tickTimeout time.Duration

	tick int64
}

// NewRunner creates a runner that fires the coordinator on the given cron
// spec (e.g. "@every 1m").
func NewRunner(spec string, coordinator *economy.TickCoordinator, logger *logrus.Logger) (*Runner, error) {
	r := &Runner{
		cron:        cron.New(),
		coordinator: coordinator,
		logger:      logger,
		tickTimeout: 30 * time.Second,
	}

	if _, err := r.cron.AddFunc(spec, r.runScheduled); err != nil {
		return nil, fmt.Errorf("invalid tick schedule %q: %w", spec, err)
	}

	return r, nil
}

// Start begins scheduled tick processing.
func (r *Runner) Start() {
	r.cron.Start()
	r.logger.Info("Economy tick scheduler started")
}

// Stop halts the schedule and waits for an in-flight tick to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("Economy tick scheduler stopped")
}

// RunOnce processes a single tick immediately, outside the schedule.
func (r *Runner) RunOnce(ctx context.Context) economy.TickReport {
	tick := atomic.AddInt64(&r.tick, 1)
	return r.coordinator.ProcessTick(ctx, int(tick))
}

// TickCount returns the number of ticks processed so far.
func (r *Runner) TickCount() int64 {
	return atomic.LoadInt64(&r.tick)
}

func (r *Runner) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), r.tickTimeout)
	defer cancel()

	report := r.RunOnce(ctx)
	r.logger.WithFields(logrus.Fields{
		"tick":        report.TickCount,
		"trades":      report.TradesProcessed,
		"markets":     report.MarketsUpdated,
		"duration_ms": report.DurationMs,
	}).Debug("Scheduled economy tick complete")
}

/*
scheduler.go - Periodic full recompute

PURPOSE:
  Rebuilds every result on a fixed interval so stored results never drift
  from the raw records and the current rate schedule, even when records were
  changed behind the API's back (bulk imports, manual SQL fixes).

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Each tick calls Driver.Run with trigger "schedule"; runs are recorded in
    recompute_runs for audit and UI display
  - A tick that starts while a previous run is still going is skipped
  - Stop cancels the in-flight run between months and waits for it

USAGE:
  scheduler := NewRecomputeScheduler(driver, logger)
  scheduler.Interval = 15 * time.Minute
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerRecompute endpoint (manual recompute)
  - fuel/recompute.go: Driver.Run
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"go.uber.org/zap"
)

// RecomputeScheduler runs full recomputes periodically.
type RecomputeScheduler struct {
	Driver     *fuel.Driver
	Interval   time.Duration
	RunOnStart bool
	Enabled    bool

	logger  *zap.Logger
	ticker  *time.Ticker
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex // guards Start/Stop
	running sync.Mutex
	nextMu  sync.Mutex
	nextRun time.Time
}

// NewRecomputeScheduler creates a scheduler with a one hour interval.
func NewRecomputeScheduler(driver *fuel.Driver, logger *zap.Logger) *RecomputeScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecomputeScheduler{
		Driver:   driver,
		Interval: 1 * time.Hour,
		Enabled:  true,
		logger:   logger.Named("scheduler"),
	}
}

// Start begins the scheduler. It is a no-op when disabled or already started.
func (rs *RecomputeScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled || rs.Interval <= 0 {
		rs.logger.Info("disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ctx, rs.cancel = context.WithCancel(context.Background())
	rs.ticker = time.NewTicker(rs.Interval)
	rs.setNextRun(time.Now().Add(rs.Interval))
	rs.wg.Add(1)

	go rs.run()

	rs.logger.Info("started", zap.Duration("interval", rs.Interval))
}

// Stop stops the scheduler and waits for an in-flight run.
func (rs *RecomputeScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	rs.cancel()
	rs.wg.Wait()
	rs.ticker = nil
	rs.setNextRun(time.Time{})
	rs.logger.Info("stopped")
}

func (rs *RecomputeScheduler) run() {
	defer rs.wg.Done()

	if rs.RunOnStart {
		rs.recompute(rs.ctx, "startup")
	}

	for {
		select {
		case <-rs.ticker.C:
			rs.setNextRun(time.Now().Add(rs.Interval))
			rs.recompute(rs.ctx, "schedule")
		case <-rs.ctx.Done():
			return
		}
	}
}

// recompute runs once unless another run holds the slot.
func (rs *RecomputeScheduler) recompute(ctx context.Context, trigger string) (fuel.RecomputeRun, bool) {
	if !rs.running.TryLock() {
		rs.logger.Warn("previous recompute still running, skipping", zap.String("trigger", trigger))
		return fuel.RecomputeRun{}, false
	}
	defer rs.running.Unlock()

	run, err := rs.Driver.Run(ctx, trigger)
	if err != nil {
		rs.logger.Error("recompute failed",
			zap.String("run_id", run.ID),
			zap.String("trigger", trigger),
			zap.Error(err))
		return run, true
	}
	rs.logger.Info("recompute completed",
		zap.String("run_id", run.ID),
		zap.String("trigger", trigger),
		zap.Int("records", run.Records),
		zap.Duration("duration", run.FinishedAt.Sub(run.StartedAt)))
	return run, true
}

// RunNow triggers an immediate recompute (for testing/admin). It reports
// false when a run was already in progress.
func (rs *RecomputeScheduler) RunNow(ctx context.Context) (fuel.RecomputeRun, bool) {
	return rs.recompute(ctx, "manual")
}

// NextRunTime returns when the next scheduled run will occur, or the zero
// time when the scheduler is not running.
func (rs *RecomputeScheduler) NextRunTime() time.Time {
	rs.nextMu.Lock()
	defer rs.nextMu.Unlock()
	return rs.nextRun
}

func (rs *RecomputeScheduler) setNextRun(t time.Time) {
	rs.nextMu.Lock()
	rs.nextRun = t
	rs.nextMu.Unlock()
}

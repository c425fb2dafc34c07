/*
recompute.go - Deterministic replay of every record

PURPOSE:
  Results are derived from raw records and the rate schedule. When the
  schedule changes (or a record is edited) the Driver rebuilds results from
  scratch: sort, group by month, replay each month through a fresh tracker,
  and swap the month's stored results in one transaction.

GUARANTEES:
  - Idempotent: results carry no timestamps or run IDs, so two runs over
    unchanged records store identical rows
  - A month is replaced whole or not at all
  - A failing record aborts its month; nothing from that month is written
    and the run stops. Months replayed before it stay written. Callers must
    treat the whole run as failed (see MonthError)
  - Cancellation is only observed between months

CONCURRENCY:
  One writer per month key. RecomputeAll, RecomputeMonth and Service writes
  all take the month's lock, and the month's records are re-read under it.

SEE ALSO:
  - tracker.go: Cumulative state owned by each replay
  - engine.go: Per-record pricing
  - service.go: Submit/Delete, which recompute the affected month
*/
package fuel

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasb/fuel-revenue-engine/generic"
	"go.uber.org/zap"
)

// Observer receives replay outcomes. metrics.Recorder implements it.
type Observer interface {
	MonthReplayed(month generic.MonthKey, records int, elapsed time.Duration, err error)
	RunFinished(trigger string, records int, elapsed time.Duration, err error)
	RecordChanged(op string, err error)
}

type nopObserver struct{}

func (nopObserver) MonthReplayed(generic.MonthKey, int, time.Duration, error) {}
func (nopObserver) RunFinished(string, int, time.Duration, error)             {}
func (nopObserver) RecordChanged(string, error)                               {}

// =============================================================================
// MONTH LOCKS
// =============================================================================

type monthLocks struct {
	mu    sync.Mutex
	locks map[generic.MonthKey]*sync.Mutex
}

func (l *monthLocks) lock(month generic.MonthKey) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[generic.MonthKey]*sync.Mutex)
	}
	m, ok := l.locks[month]
	if !ok {
		m = &sync.Mutex{}
		l.locks[month] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// =============================================================================
// DRIVER
// =============================================================================

// Driver replays records into results.
type Driver struct {
	engine   *Engine
	store    Store
	runs     RunStore
	logger   *zap.Logger
	observer Observer
	locks    monthLocks
}

type DriverOption func(*Driver)

func WithLogger(logger *zap.Logger) DriverOption {
	return func(d *Driver) { d.logger = logger }
}

func WithObserver(o Observer) DriverOption {
	return func(d *Driver) { d.observer = o }
}

// WithRunStore makes Run record its history.
func WithRunStore(runs RunStore) DriverOption {
	return func(d *Driver) { d.runs = runs }
}

func NewDriver(engine *Engine, store Store, opts ...DriverOption) *Driver {
	d := &Driver{
		engine:   engine,
		store:    store,
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Engine returns the engine the driver prices with.
func (d *Driver) Engine() *Engine { return d.engine }

// RecomputeAll rebuilds every stored result and returns the number of
// records whose result was written. Months that still hold results but no
// longer have records are cleared.
func (d *Driver) RecomputeAll(ctx context.Context) (int, error) {
	records, err := d.store.ListRecords(ctx)
	if err != nil {
		return 0, err
	}
	stale, err := d.store.ResultMonths(ctx)
	if err != nil {
		return 0, err
	}

	months := monthsOf(records, stale)
	d.logger.Info("recompute started",
		zap.Int("records", len(records)),
		zap.Int("months", len(months)))

	updated := 0
	for _, month := range months {
		if err := ctx.Err(); err != nil {
			d.logger.Warn("recompute canceled",
				zap.String("month", month.String()),
				zap.Int("records", updated))
			return updated, err
		}
		n, err := d.RecomputeMonth(ctx, month)
		if err != nil {
			return updated, err
		}
		updated += n
	}

	d.logger.Info("recompute finished",
		zap.Int("records", updated),
		zap.Int("months", len(months)))
	return updated, nil
}

// RecomputeMonth rebuilds one month's results.
func (d *Driver) RecomputeMonth(ctx context.Context, month generic.MonthKey) (int, error) {
	unlock := d.locks.lock(month)
	defer unlock()
	return d.replayMonthLocked(ctx, month)
}

func (d *Driver) replayMonthLocked(ctx context.Context, month generic.MonthKey) (int, error) {
	start := time.Now()

	records, err := d.store.ListMonthRecords(ctx, month)
	if err != nil {
		err = &MonthError{Month: month, Err: err}
		d.observer.MonthReplayed(month, 0, time.Since(start), err)
		return 0, err
	}

	results, err := ReplayMonth(d.engine, NewTracker(), month, records)
	if err == nil {
		if perr := d.store.ReplaceMonthResults(ctx, month, results); perr != nil {
			err = &MonthError{Month: month, Err: perr}
		}
	}
	d.observer.MonthReplayed(month, len(results), time.Since(start), err)

	if err != nil {
		d.logger.Error("month replay aborted",
			zap.String("month", month.String()),
			zap.Error(err))
		return 0, err
	}
	d.logger.Debug("month replayed",
		zap.String("month", month.String()),
		zap.Int("records", len(results)))
	return len(results), nil
}

// ReplayMonth prices records of one month in (date, ID) order through
// tracker, which is reset first. A month has at most one closing record.
// Any failure returns a *MonthError and no results.
func ReplayMonth(engine *Engine, tracker *Tracker, month generic.MonthKey, records []DailyRecord) ([]Result, error) {
	ordered := make([]DailyRecord, len(records))
	copy(ordered, records)
	SortRecords(ordered)

	tracker.Reset(month)
	results := make([]Result, 0, len(ordered))
	closedBy := ""
	for _, rec := range ordered {
		if rec.Month() != month {
			return nil, &MonthError{Month: month, RecordID: rec.ID, Err: generic.ErrInvalidInput}
		}
		if rec.IsClosing() {
			if closedBy != "" {
				return nil, &MonthError{Month: month, RecordID: rec.ID, Err: &ValidationError{
					Field:   "costs",
					Message: fmt.Sprintf("month %s is already closed by record %s", month, closedBy),
				}}
			}
			closedBy = rec.ID
		}
		res, err := engine.Compute(rec, tracker.Peek(month))
		if err != nil {
			return nil, &MonthError{Month: month, RecordID: rec.ID, Err: err}
		}
		if _, err := tracker.Advance(month, rec.Date, res.GasolineVolume, res.DieselVolume); err != nil {
			return nil, &MonthError{Month: month, RecordID: rec.ID, Err: err}
		}
		results = append(results, res)
	}
	return results, nil
}

// SortRecords orders records by date, then ID, so same-day records always
// replay in the same order.
func SortRecords(records []DailyRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		di, dj := generic.Date(records[i].Date), generic.Date(records[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return records[i].ID < records[j].ID
	})
}

func monthsOf(records []DailyRecord, extra []generic.MonthKey) []generic.MonthKey {
	seen := make(map[generic.MonthKey]bool)
	var months []generic.MonthKey
	add := func(m generic.MonthKey) {
		if !seen[m] {
			seen[m] = true
			months = append(months, m)
		}
	}
	for _, r := range records {
		add(r.Month())
	}
	for _, m := range extra {
		add(m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months
}

// =============================================================================
// RUNS
// =============================================================================

// Run wraps RecomputeAll with run history and the observer.
func (d *Driver) Run(ctx context.Context, trigger string) (RecomputeRun, error) {
	run := RecomputeRun{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	d.saveRun(ctx, run)

	n, err := d.RecomputeAll(ctx)

	run.Records = n
	run.FinishedAt = time.Now().UTC()
	run.Status = RunCompleted
	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
	}
	d.saveRun(context.WithoutCancel(ctx), run)
	d.observer.RunFinished(trigger, n, run.FinishedAt.Sub(run.StartedAt), err)
	return run, err
}

func (d *Driver) saveRun(ctx context.Context, run RecomputeRun) {
	if d.runs == nil {
		return
	}
	if err := d.runs.SaveRun(ctx, run); err != nil {
		d.logger.Warn("failed to save recompute run",
			zap.String("run_id", run.ID),
			zap.Error(err))
	}
}

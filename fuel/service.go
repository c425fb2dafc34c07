package fuel

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/kasb/fuel-revenue-engine/generic"
	"go.uber.org/zap"
)

// =============================================================================
// SERVICE - The collaborator boundary for record writes
// =============================================================================

// Service accepts record writes. There is no separate "live" pricing path:
// a write replays the whole containing month through the Driver, so a
// submitted record is priced exactly as a later RecomputeAll would price it.
type Service struct {
	driver *Driver
	store  Store
}

func NewService(driver *Driver) *Service {
	return &Service{driver: driver, store: driver.store}
}

// Submit validates, persists and prices record. A record with an existing ID
// replaces it; if the date moved to another month, both months are replayed.
func (s *Service) Submit(ctx context.Context, record DailyRecord) (Result, error) {
	res, err := s.submit(ctx, record)
	s.driver.observer.RecordChanged("submit", err)
	return res, err
}

func (s *Service) submit(ctx context.Context, record DailyRecord) (Result, error) {
	record = normalize(record)
	if err := record.Validate(); err != nil {
		return Result{}, err
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	prev, err := s.store.GetRecord(ctx, record.ID)
	existed := err == nil
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return Result{}, err
	}

	month := record.Month()
	months := []generic.MonthKey{month}
	if existed && prev.Month() != month {
		// the month losing the record goes first
		months = []generic.MonthKey{prev.Month(), month}
	}
	if err := s.writeMonths(ctx, months, func() error {
		return s.store.SaveRecord(ctx, record)
	}, func() error {
		if existed {
			return s.store.SaveRecord(ctx, prev)
		}
		return s.store.DeleteRecord(ctx, record.ID)
	}); err != nil {
		return Result{}, err
	}

	s.driver.logger.Info("record submitted",
		zap.String("record_id", record.ID),
		zap.String("month", month.String()),
		zap.Bool("closing", record.IsClosing()))
	return s.store.GetResult(ctx, record.ID)
}

// Delete removes a record and replays its month.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.delete(ctx, id)
	s.driver.observer.RecordChanged("delete", err)
	return err
}

func (s *Service) delete(ctx context.Context, id string) error {
	prev, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	month := prev.Month()
	if err := s.writeMonths(ctx, []generic.MonthKey{month}, func() error {
		return s.store.DeleteRecord(ctx, id)
	}, func() error {
		return s.store.SaveRecord(ctx, prev)
	}); err != nil {
		return err
	}

	s.driver.logger.Info("record deleted",
		zap.String("record_id", id),
		zap.String("month", month.String()))
	return nil
}

// writeMonths applies write and replays months in order, holding every
// month's lock. If a replay fails, undo restores the raw records and the
// months already written are replayed again, so stored results still match.
func (s *Service) writeMonths(ctx context.Context, months []generic.MonthKey, write, undo func() error) error {
	locked := make([]generic.MonthKey, len(months))
	copy(locked, months)
	sort.Slice(locked, func(i, j int) bool { return locked[i].Before(locked[j]) })
	for _, m := range locked {
		unlock := s.driver.locks.lock(m)
		defer unlock()
	}

	if err := write(); err != nil {
		return err
	}
	for i, month := range months {
		if _, err := s.driver.replayMonthLocked(ctx, month); err != nil {
			s.rollback(ctx, months[:i], undo)
			return err
		}
	}
	return nil
}

func (s *Service) rollback(ctx context.Context, written []generic.MonthKey, undo func() error) {
	if err := undo(); err != nil {
		s.driver.logger.Error("failed to undo record write", zap.Error(err))
		return
	}
	for _, month := range written {
		if _, err := s.driver.replayMonthLocked(ctx, month); err != nil {
			s.driver.logger.Error("month left stale until the next full recompute",
				zap.String("month", month.String()),
				zap.Error(err))
		}
	}
}

func normalize(r DailyRecord) DailyRecord {
	r.ID = strings.TrimSpace(r.ID)
	if !r.Date.IsZero() {
		r.Date = generic.Date(r.Date)
	}
	r.Note = strings.TrimSpace(r.Note)
	return r
}

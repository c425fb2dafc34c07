// Package store provides in-memory fuel.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	records map[string]fuel.DailyRecord
	results map[generic.MonthKey][]fuel.Result
	runs    []fuel.RecomputeRun

	// FailReplace, when set, is returned by ReplaceMonthResults for the
	// month instead of writing. Tests use it to simulate a failed write.
	FailReplace map[generic.MonthKey]error
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]fuel.DailyRecord),
		results: make(map[generic.MonthKey][]fuel.Result),
	}
}

// =============================================================================
// RECORDS
// =============================================================================

func (m *Memory) SaveRecord(_ context.Context, record fuel.DailyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = copyRecord(record)
	return nil
}

func (m *Memory) GetRecord(_ context.Context, id string) (fuel.DailyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return fuel.DailyRecord{}, fuel.ErrRecordNotFound
	}
	return copyRecord(r), nil
}

func (m *Memory) ListRecords(_ context.Context) ([]fuel.DailyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]fuel.DailyRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, copyRecord(r))
	}
	fuel.SortRecords(out)
	return out, nil
}

func (m *Memory) ListMonthRecords(_ context.Context, month generic.MonthKey) ([]fuel.DailyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []fuel.DailyRecord
	for _, r := range m.records {
		if month.Contains(r.Date) {
			out = append(out, copyRecord(r))
		}
	}
	fuel.SortRecords(out)
	return out, nil
}

func (m *Memory) DeleteRecord(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return fuel.ErrRecordNotFound
	}
	delete(m.records, id)
	return nil
}

// =============================================================================
// RESULTS
// =============================================================================

// ReplaceMonthResults swaps the month's results under the write lock.
func (m *Memory) ReplaceMonthResults(_ context.Context, month generic.MonthKey, results []fuel.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailReplace[month]; err != nil {
		return err
	}
	if len(results) == 0 {
		delete(m.results, month)
		return nil
	}
	ids := make(map[string]bool, len(results))
	for _, r := range results {
		ids[r.RecordID] = true
	}
	// A record moved into this month drops its row under the old month.
	for other, rs := range m.results {
		if other == month {
			continue
		}
		kept := rs[:0:0]
		for _, r := range rs {
			if !ids[r.RecordID] {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(m.results, other)
		} else {
			m.results[other] = kept
		}
	}

	stored := make([]fuel.Result, len(results))
	copy(stored, results)
	m.results[month] = stored
	return nil
}

func (m *Memory) GetResult(_ context.Context, recordID string) (fuel.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, results := range m.results {
		for _, r := range results {
			if r.RecordID == recordID {
				return r, nil
			}
		}
	}
	return fuel.Result{}, fuel.ErrRecordNotFound
}

func (m *Memory) ListResults(_ context.Context, from, to time.Time) ([]fuel.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	from, to = generic.Date(from), generic.Date(to)
	var out []fuel.Result
	for _, results := range m.results {
		for _, r := range results {
			if !r.Date.Before(from) && !r.Date.After(to) {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].RecordID < out[j].RecordID
	})
	return out, nil
}

func (m *Memory) ResultMonths(_ context.Context) ([]generic.MonthKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	months := make([]generic.MonthKey, 0, len(m.results))
	for month := range m.results {
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months, nil
}

// =============================================================================
// RUNS
// =============================================================================

// SaveRun inserts or updates the run with the same ID.
func (m *Memory) SaveRun(_ context.Context, run fuel.RecomputeRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == run.ID {
			m.runs[i] = run
			return nil
		}
	}
	m.runs = append(m.runs, run)
	return nil
}

// ListRuns returns the newest runs first.
func (m *Memory) ListRuns(_ context.Context, limit int) ([]fuel.RecomputeRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]fuel.RecomputeRun, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		out = append(out, m.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func copyRecord(r fuel.DailyRecord) fuel.DailyRecord {
	r.Entries = append([]fuel.FuelEntry(nil), r.Entries...)
	if r.Costs != nil {
		c := &fuel.OverheadCosts{Dynamic: append([]fuel.DynamicCost(nil), r.Costs.Dynamic...)}
		if r.Costs.Fixed != nil {
			c.Fixed = make(map[string]decimal.Decimal, len(r.Costs.Fixed))
			for k, v := range r.Costs.Fixed {
				c.Fixed[k] = v
			}
		}
		r.Costs = c
	}
	return r
}

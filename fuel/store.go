/*
store.go - Persistence interfaces for raw records and derived results

PURPOSE:
  Raw records are the source of truth. Results are derived: the Driver can
  throw all of them away and rebuild them from records at any time.

KEY INTERFACES:
  RecordStore: Raw daily records (save, get, list, delete)
  ResultStore: Derived results, replaced a whole month at a time
  RunStore:    History of recompute runs

ATOMIC MONTHS:
  ReplaceMonthResults deletes every stored result of the month and writes
  the new set in one transaction. Readers never see half a month.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - fuel/store/memory.go: In-memory for testing
*/
package fuel

import (
	"context"
	"time"

	"github.com/kasb/fuel-revenue-engine/generic"
)

// RecordStore persists raw daily records.
type RecordStore interface {
	// SaveRecord inserts or replaces the record with the same ID.
	SaveRecord(ctx context.Context, record DailyRecord) error

	// GetRecord returns ErrRecordNotFound for unknown IDs.
	GetRecord(ctx context.Context, id string) (DailyRecord, error)

	// ListRecords returns every record, in any order.
	ListRecords(ctx context.Context) ([]DailyRecord, error)

	// ListMonthRecords returns the records dated inside month.
	ListMonthRecords(ctx context.Context, month generic.MonthKey) ([]DailyRecord, error)

	// DeleteRecord returns ErrRecordNotFound for unknown IDs.
	DeleteRecord(ctx context.Context, id string) error
}

// ResultStore persists derived results.
type ResultStore interface {
	// ReplaceMonthResults atomically swaps the month's results for results.
	// An empty slice clears the month.
	ReplaceMonthResults(ctx context.Context, month generic.MonthKey, results []Result) error

	// GetResult returns ErrRecordNotFound when the record has no result.
	GetResult(ctx context.Context, recordID string) (Result, error)

	// ListResults returns results dated in [from, to], ordered by date then ID.
	ListResults(ctx context.Context, from, to time.Time) ([]Result, error)

	// ResultMonths lists every month that has at least one stored result.
	ResultMonths(ctx context.Context) ([]generic.MonthKey, error)
}

// Store is what the Driver and Service need.
type Store interface {
	RecordStore
	ResultStore
}

// =============================================================================
// RECOMPUTE RUNS
// =============================================================================

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RecomputeRun is one recorded invocation of RecomputeAll.
type RecomputeRun struct {
	ID         string
	Trigger    string // "startup", "schedule", "manual"
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt time.Time
	Records    int
	Error      string
}

// RunStore keeps recompute run history.
type RunStore interface {
	SaveRun(ctx context.Context, run RecomputeRun) error
	ListRuns(ctx context.Context, limit int) ([]RecomputeRun, error)
}

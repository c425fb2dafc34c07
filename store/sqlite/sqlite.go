/*
Package sqlite provides a SQLite-backed implementation of the fuel storage interfaces.

PURPOSE:
  Implements fuel.RecordStore, fuel.ResultStore and fuel.RunStore using
  SQLite. Raw records and derived results live in separate tables so a
  recompute can drop and rewrite results without touching what the operator
  entered.

INTERFACES IMPLEMENTED:
  fuel.RecordStore: Raw daily records with entries and cost lines
  fuel.ResultStore: Per-record results, replaced a month at a time
  fuel.RunStore:    Recompute run history

KEY TABLES:
  daily_records:   One row per submitted day
  fuel_entries:    Product lines of a record, in submission order
  cost_lines:      Fixed and dynamic overhead lines of a closing record
  record_results:  Batch figures per record (derived)
  entry_results:   Per-entry allocation (derived)
  recompute_runs:  Run history

DECIMALS:
  Every volume, rate and amount is stored as decimal TEXT, never REAL, so a
  value read back is digit-for-digit what was written.

ATOMIC MONTHS:
  ReplaceMonthResults deletes and reinserts a month's results in a single
  transaction.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned to
  one connection since each connection would otherwise see its own empty
  database.

MIGRATION:
  Schema is auto-migrated on New().

USAGE:
  store, err := sqlite.New("./data/fuel.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - fuel/store.go: Interface definitions
  - fuel/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/generic"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

const (
	monthLayout = "2006-01"

	// Fixed width so timestamps sort as text.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Raw input
	CREATE TABLE IF NOT EXISTS daily_records (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		month TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		has_costs INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_daily_records_month
		ON daily_records(month, date, id);

	CREATE TABLE IF NOT EXISTS fuel_entries (
		record_id TEXT NOT NULL REFERENCES daily_records(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		category TEXT NOT NULL,
		volume TEXT NOT NULL,
		sales_amount TEXT NOT NULL,
		PRIMARY KEY (record_id, position)
	);

	-- kind is 'fixed' (name = line name) or 'dynamic' (name = category)
	CREATE TABLE IF NOT EXISTS cost_lines (
		record_id TEXT NOT NULL REFERENCES daily_records(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		PRIMARY KEY (record_id, position)
	);

	-- Derived results, rewritten by recompute
	CREATE TABLE IF NOT EXISTS record_results (
		record_id TEXT PRIMARY KEY,
		month TEXT NOT NULL,
		date TEXT NOT NULL,
		regime TEXT NOT NULL,
		profit_share_ratio TEXT NOT NULL,
		gasoline_volume TEXT NOT NULL,
		diesel_volume TEXT NOT NULL,
		gasoline_commission TEXT NOT NULL,
		diesel_commission TEXT NOT NULL,
		gross_commission TEXT NOT NULL,
		gasoline_sedc_fee TEXT NOT NULL,
		diesel_sedc_fee TEXT NOT NULL,
		sedc_fee TEXT NOT NULL,
		operating_costs TEXT NOT NULL,
		total_overhead TEXT NOT NULL,
		net_profit TEXT NOT NULL,
		kasb_share TEXT NOT NULL,
		closing INTEGER NOT NULL,
		cumulative_gasoline TEXT NOT NULL,
		cumulative_diesel TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_record_results_month
		ON record_results(month);
	CREATE INDEX IF NOT EXISTS idx_record_results_date
		ON record_results(date, record_id);

	CREATE TABLE IF NOT EXISTS entry_results (
		record_id TEXT NOT NULL REFERENCES record_results(record_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		category TEXT NOT NULL,
		volume TEXT NOT NULL,
		commission TEXT NOT NULL,
		overhead TEXT NOT NULL,
		net_profit TEXT NOT NULL,
		PRIMARY KEY (record_id, position)
	);

	-- Recompute runs (for scheduled recompute)
	CREATE TABLE IF NOT EXISTS recompute_runs (
		id TEXT PRIMARY KEY,
		triggered_by TEXT NOT NULL,
		status TEXT NOT NULL,
		records INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		finished_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_recompute_runs_started
		ON recompute_runs(started_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// =============================================================================
// RECORD STORE (fuel.RecordStore interface)
// =============================================================================

// SaveRecord inserts or replaces a record with its entries and cost lines.
func (s *Store) SaveRecord(ctx context.Context, r fuel.DailyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO daily_records (id, date, month, note, has_costs, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			month = excluded.month,
			note = excluded.note,
			has_costs = excluded.has_costs,
			updated_at = excluded.updated_at
	`, r.ID, r.Date.Format(generic.DateLayout), r.Month().String(), r.Note, boolInt(r.Costs != nil), now, now)
	if err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}

	if err := s.replaceLines(ctx, sqlTx, r); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (s *Store) replaceLines(ctx context.Context, db execer, r fuel.DailyRecord) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM fuel_entries WHERE record_id = ?`, r.ID); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM cost_lines WHERE record_id = ?`, r.ID); err != nil {
		return fmt.Errorf("failed to clear cost lines: %w", err)
	}

	for i, e := range r.Entries {
		_, err := db.ExecContext(ctx, `
			INSERT INTO fuel_entries (record_id, position, category, volume, sales_amount)
			VALUES (?, ?, ?, ?, ?)
		`, r.ID, i, string(e.Category), e.Volume.String(), e.SalesAmount.String())
		if err != nil {
			return fmt.Errorf("failed to save entry %d: %w", i, err)
		}
	}

	if r.Costs == nil {
		return nil
	}
	pos := 0
	for _, name := range r.Costs.FixedNames() {
		_, err := db.ExecContext(ctx, `
			INSERT INTO cost_lines (record_id, position, kind, name, amount)
			VALUES (?, ?, 'fixed', ?, ?)
		`, r.ID, pos, name, r.Costs.Fixed[name].String())
		if err != nil {
			return fmt.Errorf("failed to save cost line %s: %w", name, err)
		}
		pos++
	}
	for _, d := range r.Costs.Dynamic {
		_, err := db.ExecContext(ctx, `
			INSERT INTO cost_lines (record_id, position, kind, name, description, amount)
			VALUES (?, ?, 'dynamic', ?, ?, ?)
		`, r.ID, pos, d.Category, d.Description, d.Amount.String())
		if err != nil {
			return fmt.Errorf("failed to save cost line %d: %w", pos, err)
		}
		pos++
	}
	return nil
}

// GetRecord returns a record by ID.
func (s *Store) GetRecord(ctx context.Context, id string) (fuel.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.queryRecords(ctx, `WHERE id = ?`, id)
	if err != nil {
		return fuel.DailyRecord{}, err
	}
	if len(records) == 0 {
		return fuel.DailyRecord{}, fuel.ErrRecordNotFound
	}
	return records[0], nil
}

// ListRecords returns every record ordered by date, then ID.
func (s *Store) ListRecords(ctx context.Context) ([]fuel.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryRecords(ctx, ``)
}

// ListMonthRecords returns a month's records ordered by date, then ID.
func (s *Store) ListMonthRecords(ctx context.Context, month generic.MonthKey) ([]fuel.DailyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queryRecords(ctx, `WHERE month = ?`, month.String())
}

// DeleteRecord removes a record; entries and cost lines cascade.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM daily_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fuel.ErrRecordNotFound
	}
	return nil
}

// queryRecords loads the matching records, then their lines. Rows are fully
// drained before the next query so a single-connection pool never deadlocks.
func (s *Store) queryRecords(ctx context.Context, where string, args ...any) ([]fuel.DailyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, note, has_costs FROM daily_records `+where+`
		ORDER BY date, id
	`, args...)
	if err != nil {
		return nil, err
	}

	var records []fuel.DailyRecord
	var withCosts []bool
	for rows.Next() {
		var r fuel.DailyRecord
		var date string
		var hasCosts int
		if err := rows.Scan(&r.ID, &date, &r.Note, &hasCosts); err != nil {
			rows.Close()
			return nil, err
		}
		r.Date, err = generic.ParseDate(date)
		if err != nil {
			rows.Close()
			return nil, err
		}
		records = append(records, r)
		withCosts = append(withCosts, hasCosts == 1)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		entries, err := s.loadEntries(ctx, s.db, records[i].ID)
		if err != nil {
			return nil, err
		}
		records[i].Entries = entries
		if withCosts[i] {
			costs, err := s.loadCosts(ctx, s.db, records[i].ID)
			if err != nil {
				return nil, err
			}
			records[i].Costs = costs
		}
	}
	return records, nil
}

func (s *Store) loadEntries(ctx context.Context, db querier, recordID string) ([]fuel.FuelEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT category, volume, sales_amount FROM fuel_entries
		WHERE record_id = ? ORDER BY position
	`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []fuel.FuelEntry
	for rows.Next() {
		var category, volume, sales string
		if err := rows.Scan(&category, &volume, &sales); err != nil {
			return nil, err
		}
		entries = append(entries, fuel.FuelEntry{
			Category:    fuel.Category(category),
			Volume:      parseDecimal(volume),
			SalesAmount: parseDecimal(sales),
		})
	}
	return entries, rows.Err()
}

func (s *Store) loadCosts(ctx context.Context, db querier, recordID string) (*fuel.OverheadCosts, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT kind, name, description, amount FROM cost_lines
		WHERE record_id = ? ORDER BY position
	`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	costs := &fuel.OverheadCosts{Fixed: map[string]decimal.Decimal{}}
	for rows.Next() {
		var kind, name, description, amount string
		if err := rows.Scan(&kind, &name, &description, &amount); err != nil {
			return nil, err
		}
		if kind == "fixed" {
			costs.Fixed[name] = parseDecimal(amount)
			continue
		}
		costs.Dynamic = append(costs.Dynamic, fuel.DynamicCost{
			Category:    name,
			Description: description,
			Amount:      parseDecimal(amount),
		})
	}
	return costs, rows.Err()
}

// =============================================================================
// RESULT STORE (fuel.ResultStore interface)
// =============================================================================

// ReplaceMonthResults swaps a month's results in one transaction.
func (s *Store) ReplaceMonthResults(ctx context.Context, month generic.MonthKey, results []fuel.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM record_results WHERE month = ?`, month.String()); err != nil {
		return fmt.Errorf("failed to clear month %s: %w", month, err)
	}
	for _, r := range results {
		if err := insertResult(ctx, sqlTx, month, r); err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

func insertResult(ctx context.Context, db execer, month generic.MonthKey, r fuel.Result) error {
	// A record moved out of this month still has a row under its old month.
	if _, err := db.ExecContext(ctx, `DELETE FROM record_results WHERE record_id = ?`, r.RecordID); err != nil {
		return fmt.Errorf("failed to clear result %s: %w", r.RecordID, err)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO record_results (record_id, month, date, regime, profit_share_ratio,
			gasoline_volume, diesel_volume, gasoline_commission, diesel_commission, gross_commission,
			gasoline_sedc_fee, diesel_sedc_fee, sedc_fee, operating_costs, total_overhead,
			net_profit, kasb_share, closing, cumulative_gasoline, cumulative_diesel)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.RecordID, month.String(), r.Date.Format(generic.DateLayout), r.Regime, r.ProfitShareRatio.String(),
		r.GasolineVolume.String(), r.DieselVolume.String(),
		r.GasolineCommission.String(), r.DieselCommission.String(), r.GrossCommission.String(),
		r.GasolineSEDCFee.String(), r.DieselSEDCFee.String(), r.SEDCFee.String(),
		r.OperatingCosts.String(), r.TotalOverhead.String(),
		r.NetProfit.String(), r.KASBShare.String(), boolInt(r.Closing),
		r.CumulativeGasoline.String(), r.CumulativeDiesel.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save result %s: %w", r.RecordID, err)
	}

	for i, e := range r.Entries {
		_, err := db.ExecContext(ctx, `
			INSERT INTO entry_results (record_id, position, category, volume, commission, overhead, net_profit)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, r.RecordID, i, string(e.Category), e.Volume.String(),
			e.Commission.String(), e.Overhead.String(), e.NetProfit.String())
		if err != nil {
			return fmt.Errorf("failed to save entry result %s/%d: %w", r.RecordID, i, err)
		}
	}
	return nil
}

const resultColumns = `record_id, date, regime, profit_share_ratio,
	gasoline_volume, diesel_volume, gasoline_commission, diesel_commission, gross_commission,
	gasoline_sedc_fee, diesel_sedc_fee, sedc_fee, operating_costs, total_overhead,
	net_profit, kasb_share, closing, cumulative_gasoline, cumulative_diesel`

// GetResult returns the stored result of a record.
func (s *Store) GetResult(ctx context.Context, recordID string) (fuel.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results, err := s.queryResults(ctx, `WHERE record_id = ?`, recordID)
	if err != nil {
		return fuel.Result{}, err
	}
	if len(results) == 0 {
		return fuel.Result{}, fuel.ErrRecordNotFound
	}
	return results[0], nil
}

// ListResults returns results dated in [from, to].
func (s *Store) ListResults(ctx context.Context, from, to time.Time) ([]fuel.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryResults(ctx, `WHERE date >= ? AND date <= ?`,
		generic.Date(from).Format(generic.DateLayout), generic.Date(to).Format(generic.DateLayout))
}

// ResultMonths lists months holding at least one result.
func (s *Store) ResultMonths(ctx context.Context) ([]generic.MonthKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT month FROM record_results ORDER BY month`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var months []generic.MonthKey
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		t, err := time.Parse(monthLayout, m)
		if err != nil {
			return nil, err
		}
		months = append(months, generic.MonthOf(t))
	}
	return months, rows.Err()
}

func (s *Store) queryResults(ctx context.Context, where string, args ...any) ([]fuel.Result, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+resultColumns+` FROM record_results `+where+` ORDER BY date, record_id`, args...)
	if err != nil {
		return nil, err
	}

	var results []fuel.Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		entries, err := s.loadEntryResults(ctx, results[i].RecordID)
		if err != nil {
			return nil, err
		}
		results[i].Entries = entries
	}
	return results, nil
}

func scanResult(rows *sql.Rows) (fuel.Result, error) {
	var r fuel.Result
	var date string
	var closing int
	var ratio, gasVol, dieselVol, gasComm, dieselComm, gross, gasFee, dieselFee, fee,
		costs, overhead, net, share, cumGas, cumDiesel string

	if err := rows.Scan(&r.RecordID, &date, &r.Regime, &ratio,
		&gasVol, &dieselVol, &gasComm, &dieselComm, &gross,
		&gasFee, &dieselFee, &fee, &costs, &overhead,
		&net, &share, &closing, &cumGas, &cumDiesel,
	); err != nil {
		return fuel.Result{}, err
	}

	d, err := generic.ParseDate(date)
	if err != nil {
		return fuel.Result{}, err
	}
	r.Date = d
	r.ProfitShareRatio = parseDecimal(ratio)
	r.GasolineVolume = parseDecimal(gasVol)
	r.DieselVolume = parseDecimal(dieselVol)
	r.GasolineCommission = parseDecimal(gasComm)
	r.DieselCommission = parseDecimal(dieselComm)
	r.GrossCommission = parseDecimal(gross)
	r.GasolineSEDCFee = parseDecimal(gasFee)
	r.DieselSEDCFee = parseDecimal(dieselFee)
	r.SEDCFee = parseDecimal(fee)
	r.OperatingCosts = parseDecimal(costs)
	r.TotalOverhead = parseDecimal(overhead)
	r.NetProfit = parseDecimal(net)
	r.KASBShare = parseDecimal(share)
	r.Closing = closing == 1
	r.CumulativeGasoline = parseDecimal(cumGas)
	r.CumulativeDiesel = parseDecimal(cumDiesel)
	return r, nil
}

func (s *Store) loadEntryResults(ctx context.Context, recordID string) ([]fuel.EntryResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, volume, commission, overhead, net_profit FROM entry_results
		WHERE record_id = ? ORDER BY position
	`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []fuel.EntryResult
	for rows.Next() {
		var category, volume, commission, overhead, net string
		if err := rows.Scan(&category, &volume, &commission, &overhead, &net); err != nil {
			return nil, err
		}
		entries = append(entries, fuel.EntryResult{
			Category:   fuel.Category(category),
			Volume:     parseDecimal(volume),
			Commission: parseDecimal(commission),
			Overhead:   parseDecimal(overhead),
			NetProfit:  parseDecimal(net),
		})
	}
	return entries, rows.Err()
}

// =============================================================================
// RUN STORE (fuel.RunStore interface)
// =============================================================================

// SaveRun inserts or updates a recompute run.
func (s *Store) SaveRun(ctx context.Context, r fuel.RecomputeRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var finishedAt *string
	if !r.FinishedAt.IsZero() {
		f := r.FinishedAt.UTC().Format(timestampLayout)
		finishedAt = &f
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recompute_runs (id, triggered_by, status, records, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			records = excluded.records,
			error = excluded.error,
			finished_at = excluded.finished_at
	`, r.ID, r.Trigger, string(r.Status), r.Records, r.Error,
		r.StartedAt.UTC().Format(timestampLayout), finishedAt)
	return err
}

// ListRuns returns the newest runs first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]fuel.RecomputeRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, triggered_by, status, records, error, started_at, finished_at
		FROM recompute_runs
		ORDER BY started_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []fuel.RecomputeRun
	for rows.Next() {
		var r fuel.RecomputeRun
		var status, startedAt string
		var finishedAt sql.NullString
		if err := rows.Scan(&r.ID, &r.Trigger, &status, &r.Records, &r.Error, &startedAt, &finishedAt); err != nil {
			return nil, err
		}
		r.Status = fuel.RunStatus(status)
		r.StartedAt, _ = time.Parse(timestampLayout, startedAt)
		if finishedAt.Valid {
			r.FinishedAt, _ = time.Parse(timestampLayout, finishedAt.String)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Reset deletes all data. Used by the demo scenario loader.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"entry_results", "record_results", "cost_lines", "fuel_entries", "daily_records", "recompute_runs"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// Helper functions

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseDecimal reads a value this store wrote; it is always well-formed.
func parseDecimal(s string) decimal.Decimal {
	return generic.MustParseDecimal(s)
}

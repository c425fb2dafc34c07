package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/kasb/fuel-revenue-engine/store/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

func sampleRecord(id string, d time.Time) fuel.DailyRecord {
	return fuel.DailyRecord{
		ID:   id,
		Date: d,
		Note: "shift A",
		Entries: []fuel.FuelEntry{
			{Category: fuel.PremiumGasolineTierA, Volume: dec("12000.5"), SalesAmount: dec("24601.03")},
			{Category: fuel.DieselTierA, Volume: dec("20000"), SalesAmount: dec("43000")},
			{Category: fuel.Other, Volume: dec("0"), SalesAmount: dec("350")},
		},
	}
}

// =============================================================================
// RECORDS
// =============================================================================

func TestRecords_RoundTrip(t *testing.T) {
	// GIVEN: a closing record with fixed and dynamic lines
	s := newStore(t)
	ctx := context.Background()
	rec := sampleRecord("r1", generic.NewDate(2025, time.June, 30))
	rec.Costs = &fuel.OverheadCosts{
		Fixed: map[string]decimal.Decimal{"rent": dec("1500"), "salary": dec("3200.50")},
		Dynamic: []fuel.DynamicCost{
			{Category: "repair", Description: "pump 3", Amount: dec("220.10")},
			{Category: "misc", Description: "", Amount: dec("15")},
		},
	}

	// WHEN: saving and loading
	require.NoError(t, s.SaveRecord(ctx, rec))
	got, err := s.GetRecord(ctx, "r1")
	require.NoError(t, err)

	// THEN: everything comes back in order
	assert.Equal(t, rec.Date, got.Date)
	assert.Equal(t, "shift A", got.Note)
	require.Len(t, got.Entries, 3)
	assert.Equal(t, fuel.DieselTierA, got.Entries[1].Category)
	assert.True(t, got.Entries[0].Volume.Equal(dec("12000.5")))
	assert.True(t, got.Entries[0].SalesAmount.Equal(dec("24601.03")))
	require.NotNil(t, got.Costs)
	assert.True(t, got.Costs.Fixed["salary"].Equal(dec("3200.50")))
	require.Len(t, got.Costs.Dynamic, 2)
	assert.Equal(t, "pump 3", got.Costs.Dynamic[0].Description)
	assert.True(t, got.Costs.Total().Equal(dec("4935.60")))
	assert.True(t, got.IsClosing())
}

func TestRecords_SaveReplaces(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	rec := sampleRecord("r1", generic.NewDate(2025, time.June, 3))
	require.NoError(t, s.SaveRecord(ctx, rec))

	rec.Entries = rec.Entries[:1]
	rec.Date = generic.NewDate(2025, time.July, 3)
	require.NoError(t, s.SaveRecord(ctx, rec))

	got, err := s.GetRecord(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, got.Entries, 1)
	june, err := s.ListMonthRecords(ctx, generic.MonthKey{Year: 2025, Month: time.June})
	require.NoError(t, err)
	assert.Empty(t, june)
	july, err := s.ListMonthRecords(ctx, generic.MonthKey{Year: 2025, Month: time.July})
	require.NoError(t, err)
	assert.Len(t, july, 1)
}

func TestRecords_ListOrderedByDateThenID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRecord(ctx, sampleRecord("b", generic.NewDate(2025, time.June, 2))))
	require.NoError(t, s.SaveRecord(ctx, sampleRecord("c", generic.NewDate(2025, time.June, 1))))
	require.NoError(t, s.SaveRecord(ctx, sampleRecord("a", generic.NewDate(2025, time.June, 2))))

	all, err := s.ListRecords(ctx)
	require.NoError(t, err)

	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestRecords_NotFound(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.GetRecord(ctx, "nope")
	assert.ErrorIs(t, err, fuel.ErrRecordNotFound)
	assert.ErrorIs(t, s.DeleteRecord(ctx, "nope"), fuel.ErrRecordNotFound)
}

func TestRecords_DeleteCascades(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRecord(ctx, sampleRecord("r1", generic.NewDate(2025, time.June, 3))))

	require.NoError(t, s.DeleteRecord(ctx, "r1"))

	// re-saving the same ID must not collide with orphaned lines
	require.NoError(t, s.SaveRecord(ctx, sampleRecord("r1", generic.NewDate(2025, time.June, 3))))
	got, err := s.GetRecord(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, got.Entries, 3)
}

// =============================================================================
// RESULTS THROUGH THE DRIVER
// =============================================================================

func newDriver(s *sqlite.Store) *fuel.Driver {
	return fuel.NewDriver(fuel.NewEngine(fuel.DefaultSchedule()), s, fuel.WithRunStore(s))
}

func TestResults_RecomputeRoundTrip(t *testing.T) {
	// GIVEN: two June records, the second one closing
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRecord(ctx, sampleRecord("a", generic.NewDate(2025, time.June, 10))))
	closing := sampleRecord("b", generic.NewDate(2025, time.June, 30))
	closing.Costs = &fuel.OverheadCosts{Fixed: map[string]decimal.Decimal{"rent": dec("1000")}}
	require.NoError(t, s.SaveRecord(ctx, closing))

	// WHEN: recomputing
	n, err := newDriver(s).RecomputeAll(ctx)
	require.NoError(t, err)

	// THEN: results are stored with their entries
	assert.Equal(t, 2, n)
	res, err := s.GetResult(ctx, "b")
	require.NoError(t, err)
	assert.True(t, res.Closing)
	assert.Equal(t, "legacy", res.Regime)
	assert.True(t, res.CumulativeDiesel.Equal(dec("40000")))
	assert.True(t, res.DieselCommission.Equal(dec("600")))   // 20000 x 0.03
	assert.True(t, res.GasolineSEDCFee.Equal(dec("360.02"))) // 24001 x 0.015 = 360.015, half-even
	assert.True(t, res.DieselSEDCFee.Equal(dec("200")))      // batch only
	require.Len(t, res.Entries, 3)
	assert.True(t, res.Entries[2].Commission.IsZero())
}

func TestResults_Idempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRecord(ctx, sampleRecord("a", generic.NewDate(2025, time.June, 10))))
	require.NoError(t, s.SaveRecord(ctx, sampleRecord("b", generic.NewDate(2025, time.November, 10))))
	d := newDriver(s)
	from, to := generic.NewDate(2025, time.January, 1), generic.NewDate(2025, time.December, 31)

	_, err := d.RecomputeAll(ctx)
	require.NoError(t, err)
	first, err := s.ListResults(ctx, from, to)
	require.NoError(t, err)

	_, err = d.RecomputeAll(ctx)
	require.NoError(t, err)
	second, err := s.ListResults(ctx, from, to)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResults_ReplaceMonthIsScoped(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	june := generic.MonthKey{Year: 2025, Month: time.June}
	july := generic.MonthKey{Year: 2025, Month: time.July}
	require.NoError(t, s.ReplaceMonthResults(ctx, june, []fuel.Result{stubResult("j", generic.NewDate(2025, time.June, 1))}))
	require.NoError(t, s.ReplaceMonthResults(ctx, july, []fuel.Result{stubResult("k", generic.NewDate(2025, time.July, 1))}))

	// WHEN: clearing June
	require.NoError(t, s.ReplaceMonthResults(ctx, june, nil))

	// THEN: July survives
	months, err := s.ResultMonths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []generic.MonthKey{july}, months)
	_, err = s.GetResult(ctx, "j")
	assert.ErrorIs(t, err, fuel.ErrRecordNotFound)
}

func TestResults_MovedRecordLeavesOldMonth(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	june := generic.MonthKey{Year: 2025, Month: time.June}
	require.NoError(t, s.ReplaceMonthResults(ctx, june, []fuel.Result{stubResult("a", generic.NewDate(2025, time.June, 1))}))

	require.NoError(t, s.ReplaceMonthResults(ctx, generic.MonthKey{Year: 2025, Month: time.July}, []fuel.Result{stubResult("a", generic.NewDate(2025, time.July, 1))}))

	res, err := s.GetResult(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, time.July, res.Date.Month())
}

func stubResult(id string, d time.Time) fuel.Result {
	z := decimal.Zero
	return fuel.Result{
		RecordID: id, Date: d, Regime: "legacy", ProfitShareRatio: dec("0.2"),
		GasolineVolume: z, DieselVolume: z, GasolineCommission: z, DieselCommission: z,
		GrossCommission: z, GasolineSEDCFee: z, DieselSEDCFee: z, SEDCFee: z,
		OperatingCosts: z, TotalOverhead: z, NetProfit: z, KASBShare: z,
		CumulativeGasoline: z, CumulativeDiesel: z,
		Entries: []fuel.EntryResult{{Category: fuel.DieselTierA, Volume: z, Commission: z, Overhead: z, NetProfit: z}},
	}
}

// =============================================================================
// RUNS
// =============================================================================

func TestRuns_SaveAndList(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	run, err := newDriver(s).Run(ctx, "manual")
	require.NoError(t, err)
	second := fuel.RecomputeRun{ID: "later", Trigger: "schedule", Status: fuel.RunRunning, StartedAt: run.StartedAt.Add(time.Minute)}
	require.NoError(t, s.SaveRun(ctx, second))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "later", runs[0].ID)
	assert.True(t, runs[0].FinishedAt.IsZero())
	assert.Equal(t, run.ID, runs[1].ID)
	assert.Equal(t, fuel.RunCompleted, runs[1].Status)
	assert.Equal(t, "manual", runs[1].Trigger)

	limited, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestReset(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveRecord(ctx, sampleRecord("a", generic.NewDate(2025, time.June, 10))))
	_, err := newDriver(s).RecomputeAll(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	all, err := s.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	months, err := s.ResultMonths(ctx)
	require.NoError(t, err)
	assert.Empty(t, months)
}

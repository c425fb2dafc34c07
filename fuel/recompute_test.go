package fuel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/fuel/store"
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDriver(t *testing.T, records ...fuel.DailyRecord) (*fuel.Driver, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	for _, r := range records {
		require.NoError(t, mem.SaveRecord(context.Background(), r))
	}
	d := fuel.NewDriver(fuel.NewEngine(fuel.DefaultSchedule()), mem, fuel.WithRunStore(mem))
	return d, mem
}

func allResults(t *testing.T, mem *store.Memory) []fuel.Result {
	t.Helper()
	res, err := mem.ListResults(context.Background(), date(2000, time.January, 1), date(2100, time.January, 1))
	require.NoError(t, err)
	return res
}

func resultFor(t *testing.T, mem *store.Memory, id string) fuel.Result {
	t.Helper()
	res, err := mem.GetResult(context.Background(), id)
	require.NoError(t, err)
	return res
}

// =============================================================================
// RECOMPUTE ALL
// =============================================================================

func TestRecomputeAll_Idempotent(t *testing.T) {
	// GIVEN: two months of records, one closing
	d, mem := newDriver(t,
		record("a", date(2025, time.June, 10), entry(fuel.DieselTierA, "150000"), entry(fuel.PremiumGasolineTierA, "9000")),
		closing(record("b", date(2025, time.June, 30), entry(fuel.DieselTierA, "100000")), map[string]string{"rent": "800"}),
		record("c", date(2025, time.November, 2), entry(fuel.PremiumGasolineTierB, "210000")),
	)
	ctx := context.Background()

	// WHEN: running twice
	n1, err := d.RecomputeAll(ctx)
	require.NoError(t, err)
	first := allResults(t, mem)

	n2, err := d.RecomputeAll(ctx)
	require.NoError(t, err)
	second := allResults(t, mem)

	// THEN: identical results
	assert.Equal(t, 3, n1)
	assert.Equal(t, n1, n2)
	assert.Equal(t, first, second)
}

func TestRecomputeAll_OrderIsLoadBearing(t *testing.T) {
	// GIVEN: the same two batches in both date orders
	june10, june20 := date(2025, time.June, 10), date(2025, time.June, 20)

	forward, fmem := newDriver(t,
		record("x", june10, entry(fuel.DieselTierA, "150000")),
		record("y", june20, entry(fuel.DieselTierA, "100000")),
	)
	reversed, rmem := newDriver(t,
		record("x", june20, entry(fuel.DieselTierA, "150000")),
		record("y", june10, entry(fuel.DieselTierA, "100000")),
	)

	// WHEN: replaying both
	_, err := forward.RecomputeAll(context.Background())
	require.NoError(t, err)
	_, err = reversed.RecomputeAll(context.Background())
	require.NoError(t, err)

	// THEN: the split differs
	fx, fy := resultFor(t, fmem, "x"), resultFor(t, fmem, "y")
	rx, ry := resultFor(t, rmem, "x"), resultFor(t, rmem, "y")
	assertDec(t, "4500.00", fx.DieselCommission) // 150000 x 0.03
	assertDec(t, "2500.00", fy.DieselCommission) // 50000 x 0.03 + 50000 x 0.02
	assertDec(t, "4000.00", rx.DieselCommission) // 100000 x 0.03 + 50000 x 0.02
	assertDec(t, "3000.00", ry.DieselCommission) // 100000 x 0.03

	// THEN: the month total does not
	assertDec(t, "7000.00", fx.DieselCommission.Add(fy.DieselCommission))
	assertDec(t, "7000.00", rx.DieselCommission.Add(ry.DieselCommission))
}

func TestRecomputeAll_ResetsAtMonthBoundary(t *testing.T) {
	// GIVEN: June deep into the lowest diesel tier, then July 1
	d, mem := newDriver(t,
		record("june", date(2025, time.June, 30), entry(fuel.DieselTierA, "600000")),
		record("july", date(2025, time.July, 1), entry(fuel.DieselTierA, "10000")),
	)

	_, err := d.RecomputeAll(context.Background())
	require.NoError(t, err)

	// THEN: July is priced from zero
	july := resultFor(t, mem, "july")
	assertDec(t, "300.00", july.DieselCommission) // 10000 x 0.03
	assertDec(t, "10000", july.CumulativeDiesel)
}

func TestRecomputeAll_SameDayOrderedByID(t *testing.T) {
	day := date(2025, time.June, 5)
	d, mem := newDriver(t,
		record("b", day, entry(fuel.DieselTierA, "150000")),
		record("a", day, entry(fuel.DieselTierA, "100000")),
	)

	_, err := d.RecomputeAll(context.Background())
	require.NoError(t, err)

	assertDec(t, "3000.00", resultFor(t, mem, "a").DieselCommission)
	assertDec(t, "250000", resultFor(t, mem, "b").CumulativeDiesel)
}

func TestRecomputeAll_FailureAbortsRun(t *testing.T) {
	// GIVEN: July's write will fail
	d, mem := newDriver(t,
		record("june", date(2025, time.June, 30), entry(fuel.DieselTierA, "1000")),
		record("july", date(2025, time.July, 1), entry(fuel.DieselTierA, "1000")),
		record("aug", date(2025, time.August, 1), entry(fuel.DieselTierA, "1000")),
	)
	july := generic.MonthKey{Year: 2025, Month: time.July}
	boom := errors.New("disk full")
	mem.FailReplace = map[generic.MonthKey]error{july: boom}

	// WHEN: recomputing
	n, err := d.RecomputeAll(context.Background())

	// THEN: the run fails at July
	require.Error(t, err)
	assert.ErrorIs(t, err, fuel.ErrRecomputeAborted)
	assert.ErrorIs(t, err, boom)
	var monthErr *fuel.MonthError
	require.True(t, errors.As(err, &monthErr))
	assert.Equal(t, july, monthErr.Month)

	// THEN: June was written, July and August were not
	assert.Equal(t, 1, n)
	_, err = mem.GetResult(context.Background(), "june")
	assert.NoError(t, err)
	_, err = mem.GetResult(context.Background(), "july")
	assert.ErrorIs(t, err, fuel.ErrRecordNotFound)
	_, err = mem.GetResult(context.Background(), "aug")
	assert.ErrorIs(t, err, fuel.ErrRecordNotFound)
}

func TestRecomputeAll_CanceledBeforeFirstMonth(t *testing.T) {
	d, mem := newDriver(t, record("a", date(2025, time.June, 1), entry(fuel.DieselTierA, "1")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := d.RecomputeAll(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Empty(t, allResults(t, mem))
}

func TestRecomputeAll_ClearsMonthsWithoutRecords(t *testing.T) {
	// GIVEN: results exist, then the record is removed behind the driver's back
	d, mem := newDriver(t, record("a", date(2025, time.June, 1), entry(fuel.DieselTierA, "1")))
	ctx := context.Background()
	_, err := d.RecomputeAll(ctx)
	require.NoError(t, err)
	require.NoError(t, mem.DeleteRecord(ctx, "a"))

	// WHEN: recomputing
	n, err := d.RecomputeAll(ctx)

	// THEN: the orphaned result is gone
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, allResults(t, mem))
}

func TestRecomputeMonth_OnlyTouchesThatMonth(t *testing.T) {
	d, mem := newDriver(t,
		record("june", date(2025, time.June, 30), entry(fuel.DieselTierA, "1000")),
		record("july", date(2025, time.July, 1), entry(fuel.DieselTierA, "1000")),
	)

	n, err := d.RecomputeMonth(context.Background(), generic.MonthKey{Year: 2025, Month: time.July})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, allResults(t, mem), 1)
	assert.Equal(t, "july", allResults(t, mem)[0].RecordID)
}

// =============================================================================
// REPLAY MONTH
// =============================================================================

func TestReplayMonth_RejectsForeignRecord(t *testing.T) {
	engine := fuel.NewEngine(fuel.DefaultSchedule())
	june := generic.MonthKey{Year: 2025, Month: time.June}

	_, err := fuel.ReplayMonth(engine, fuel.NewTracker(), june, []fuel.DailyRecord{
		record("a", date(2025, time.June, 1), entry(fuel.DieselTierA, "1")),
		record("b", date(2025, time.July, 1), entry(fuel.DieselTierA, "1")),
	})

	var monthErr *fuel.MonthError
	require.True(t, errors.As(err, &monthErr))
	assert.Equal(t, "b", monthErr.RecordID)
}

func TestReplayMonth_IgnoresInputOrder(t *testing.T) {
	engine := fuel.NewEngine(fuel.DefaultSchedule())
	june := generic.MonthKey{Year: 2025, Month: time.June}
	a := record("a", date(2025, time.June, 1), entry(fuel.DieselTierA, "150000"))
	b := record("b", date(2025, time.June, 2), entry(fuel.DieselTierA, "100000"))

	sorted, err := fuel.ReplayMonth(engine, fuel.NewTracker(), june, []fuel.DailyRecord{a, b})
	require.NoError(t, err)
	shuffled, err := fuel.ReplayMonth(engine, fuel.NewTracker(), june, []fuel.DailyRecord{b, a})
	require.NoError(t, err)

	assert.Equal(t, sorted, shuffled)
}

func TestReplayMonth_ChargesAdminFeeOnce(t *testing.T) {
	// GIVEN: 300000 L before the closing batch of 200000 L
	engine := fuel.NewEngine(fuel.DefaultSchedule())
	dec2025 := generic.MonthKey{Year: 2025, Month: time.December}

	results, err := fuel.ReplayMonth(engine, fuel.NewTracker(), dec2025, []fuel.DailyRecord{
		record("a", date(2025, time.December, 10), entry(fuel.PremiumGasolineTierA, "300000")),
		closing(record("b", date(2025, time.December, 31), entry(fuel.PremiumGasolineTierA, "200000")), map[string]string{"rent": "500"}),
	})

	// THEN: 450000 x 0.015 + 50000 x 0.01, charged on the closing record only
	require.NoError(t, err)
	assertDec(t, "0", results[0].GasolineSEDCFee)
	assertDec(t, "7250.00", results[1].GasolineSEDCFee)
}

func TestReplayMonth_RejectsSecondClosingRecord(t *testing.T) {
	// GIVEN: two closing records in December
	engine := fuel.NewEngine(fuel.DefaultSchedule())
	dec2025 := generic.MonthKey{Year: 2025, Month: time.December}
	rent := map[string]string{"rent": "500"}

	// WHEN
	results, err := fuel.ReplayMonth(engine, fuel.NewTracker(), dec2025, []fuel.DailyRecord{
		record("a", date(2025, time.December, 10), entry(fuel.PremiumGasolineTierA, "300000")),
		closing(record("b", date(2025, time.December, 20), entry(fuel.PremiumGasolineTierA, "100000")), rent),
		closing(record("c", date(2025, time.December, 31), entry(fuel.PremiumGasolineTierA, "100000")), rent),
	})

	// THEN: the month aborts at the second one as invalid input
	require.Error(t, err)
	assert.Nil(t, results)
	var monthErr *fuel.MonthError
	require.True(t, errors.As(err, &monthErr))
	assert.Equal(t, "c", monthErr.RecordID)
	var valErr *fuel.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "costs", valErr.Field)
	assert.True(t, generic.IsClientError(err))
}

func TestRecomputeAll_SecondClosingRecordKeepsPreviousResults(t *testing.T) {
	// GIVEN: December priced with one closing record
	d, mem := newDriver(t,
		record("a", date(2025, time.December, 10), entry(fuel.PremiumGasolineTierA, "300000")),
		closing(record("b", date(2025, time.December, 20), entry(fuel.PremiumGasolineTierA, "100000")), map[string]string{"rent": "500"}),
	)
	_, err := d.RecomputeAll(context.Background())
	require.NoError(t, err)

	// WHEN: a second closing record lands behind the API's back
	require.NoError(t, mem.SaveRecord(context.Background(),
		closing(record("c", date(2025, time.December, 31), entry(fuel.PremiumGasolineTierA, "100000")), map[string]string{"rent": "500"})))
	_, err = d.RecomputeAll(context.Background())

	// THEN: the month is not rewritten
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
	assertDec(t, "6000.00", resultFor(t, mem, "b").GasolineSEDCFee)
	_, err = mem.GetResult(context.Background(), "c")
	assert.ErrorIs(t, err, fuel.ErrRecordNotFound)
}

// =============================================================================
// RUNS
// =============================================================================

func TestRun_RecordsHistory(t *testing.T) {
	d, mem := newDriver(t, record("a", date(2025, time.June, 1), entry(fuel.DieselTierA, "1")))

	run, err := d.Run(context.Background(), "manual")
	require.NoError(t, err)

	assert.Equal(t, fuel.RunCompleted, run.Status)
	assert.Equal(t, 1, run.Records)
	runs, err := mem.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "manual", runs[0].Trigger)
	assert.Equal(t, fuel.RunCompleted, runs[0].Status)
}

func TestRun_RecordsFailure(t *testing.T) {
	d, mem := newDriver(t, record("a", date(2025, time.June, 1), entry(fuel.DieselTierA, "1")))
	mem.FailReplace = map[generic.MonthKey]error{{Year: 2025, Month: time.June}: errors.New("locked")}

	run, err := d.Run(context.Background(), "schedule")

	require.Error(t, err)
	assert.Equal(t, fuel.RunFailed, run.Status)
	assert.Contains(t, run.Error, "locked")
}

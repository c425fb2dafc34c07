package fuel_test

import (
	"errors"
	"testing"
	"time"

	"github.com/kasb/fuel-revenue-engine/fuel"
	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_PeekUnseenMonthIsZero(t *testing.T) {
	tr := fuel.NewTracker()
	june := generic.MonthKey{Year: 2025, Month: time.June}

	c := tr.Peek(june)

	assert.Equal(t, june, c.Month)
	assertDec(t, "0", c.Gasoline)
	assertDec(t, "0", c.Diesel)
}

func TestTracker_AdvanceAccumulates(t *testing.T) {
	tr := fuel.NewTracker()
	june := generic.MonthKey{Year: 2025, Month: time.June}

	_, err := tr.Advance(june, date(2025, time.June, 1), dec("100"), dec("50"))
	require.NoError(t, err)
	_, err = tr.Advance(june, date(2025, time.June, 1), dec("10"), dec("0"))
	require.NoError(t, err, "same day is allowed")
	after, err := tr.Advance(june, date(2025, time.June, 2), dec("5"), dec("5"))
	require.NoError(t, err)

	assertDec(t, "115", after.Gasoline)
	assertDec(t, "55", after.Diesel)
	assertDec(t, "115", tr.Peek(june).Gasoline, "peek must not mutate")
}

func TestTracker_RejectsEarlierDate(t *testing.T) {
	// GIVEN: a month advanced to the 20th
	tr := fuel.NewTracker()
	june := generic.MonthKey{Year: 2025, Month: time.June}
	_, err := tr.Advance(june, date(2025, time.June, 20), dec("100"), dec("0"))
	require.NoError(t, err)

	// WHEN: advancing with the 10th
	_, err = tr.Advance(june, date(2025, time.June, 10), dec("100"), dec("0"))

	// THEN: rejected, state untouched
	require.Error(t, err)
	assert.ErrorIs(t, err, fuel.ErrOutOfOrder)
	var orderErr *fuel.OrderError
	require.True(t, errors.As(err, &orderErr))
	assert.Equal(t, june, orderErr.Month)
	assertDec(t, "100", tr.Peek(june).Gasoline)
}

func TestTracker_MonthsAreIndependent(t *testing.T) {
	// GIVEN: June ends well past every tier boundary
	tr := fuel.NewTracker()
	june := generic.MonthKey{Year: 2025, Month: time.June}
	july := generic.MonthKey{Year: 2025, Month: time.July}
	_, err := tr.Advance(june, date(2025, time.June, 30), dec("700000"), dec("600000"))
	require.NoError(t, err)

	// THEN: July starts at zero, and an early July date is not "out of order"
	assertDec(t, "0", tr.Peek(july).Gasoline)
	_, err = tr.Advance(july, date(2025, time.July, 1), dec("1"), dec("1"))
	assert.NoError(t, err)
}

func TestTracker_Reset(t *testing.T) {
	tr := fuel.NewTracker()
	june := generic.MonthKey{Year: 2025, Month: time.June}
	_, err := tr.Advance(june, date(2025, time.June, 30), dec("10"), dec("10"))
	require.NoError(t, err)

	tr.Reset(june)

	assertDec(t, "0", tr.Peek(june).Diesel)
	_, err = tr.Advance(june, date(2025, time.June, 1), dec("1"), dec("0"))
	assert.NoError(t, err, "reset also forgets the last date")
}

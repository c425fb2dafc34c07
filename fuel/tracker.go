/*
tracker.go - Monthly cumulative volume tracker

PURPOSE:
  Tier pricing needs to know how many liters of the month were already sold
  before the batch being priced. The Tracker holds that running total per
  month key, for Gasoline and Diesel separately.

OWNERSHIP:
  A Tracker is created by the replay loop and passed to whatever needs it.
  There is no package-level tracker. Two replays never share one.

ORDERING:
  Advance records the date it was called with. Advancing a month with an
  earlier date than the last one returns an *OrderError and leaves the state
  untouched: every tier computed after that point would be wrong.

LIFECYCLE:
  Peek -> price the batch -> Advance. Reset before the first record of a
  month so a replay never inherits stale totals.
*/
package fuel

import (
	"time"

	"github.com/kasb/fuel-revenue-engine/generic"
	"github.com/shopspring/decimal"
)

// Cumulative is the month's running volume before (or after) a batch.
type Cumulative struct {
	Month    generic.MonthKey
	Gasoline decimal.Decimal
	Diesel   decimal.Decimal
}

type monthState struct {
	gasoline decimal.Decimal
	diesel   decimal.Decimal
	last     time.Time
}

// Tracker holds running volume per month. Not safe for concurrent use; the
// Driver serializes access per month.
type Tracker struct {
	months map[generic.MonthKey]*monthState
}

func NewTracker() *Tracker {
	return &Tracker{months: make(map[generic.MonthKey]*monthState)}
}

// Peek returns current totals without mutating. Unseen months are zero.
func (t *Tracker) Peek(month generic.MonthKey) Cumulative {
	s, ok := t.months[month]
	if !ok {
		return Cumulative{Month: month, Gasoline: decimal.Zero, Diesel: decimal.Zero}
	}
	return Cumulative{Month: month, Gasoline: s.gasoline, Diesel: s.diesel}
}

// Advance adds a priced batch to the month's totals.
func (t *Tracker) Advance(month generic.MonthKey, date time.Time, gasoline, diesel decimal.Decimal) (Cumulative, error) {
	date = generic.Date(date)
	s, ok := t.months[month]
	if !ok {
		s = &monthState{gasoline: decimal.Zero, diesel: decimal.Zero}
		t.months[month] = s
	}
	if !s.last.IsZero() && date.Before(s.last) {
		return t.Peek(month), &OrderError{Month: month, Last: s.last, Attempt: date}
	}

	s.gasoline = s.gasoline.Add(gasoline)
	s.diesel = s.diesel.Add(diesel)
	s.last = date
	return Cumulative{Month: month, Gasoline: s.gasoline, Diesel: s.diesel}, nil
}

// Reset drops the month's state; the next Peek returns zero.
func (t *Tracker) Reset(month generic.MonthKey) {
	delete(t.months, month)
}

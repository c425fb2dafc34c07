package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// DATES - Records are dated at day granularity, always UTC
// =============================================================================

const DateLayout = "2006-01-02"

// Date truncates t to midnight UTC.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// =============================================================================
// MONTH KEY - The replay partition
// =============================================================================

// MonthKey identifies a calendar month. Cumulative volumes never cross a
// MonthKey boundary.
type MonthKey struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonthKey parses YYYY-MM.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month %q (use YYYY-MM): %w", s, err)
	}
	return MonthOf(t), nil
}

func (m MonthKey) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }

func (m MonthKey) Start() time.Time { return NewDate(m.Year, m.Month, 1) }

// End returns the last day of the month.
func (m MonthKey) End() time.Time { return m.Start().AddDate(0, 1, -1) }

func (m MonthKey) Before(o MonthKey) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

func (m MonthKey) Contains(t time.Time) bool { return MonthOf(t) == m }

package fuel

import (
	"errors"
	"fmt"
	"time"

	"github.com/kasb/fuel-revenue-engine/generic"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrRecordNotFound is returned when a record ID is unknown.
	ErrRecordNotFound = fmt.Errorf("record %w", generic.ErrNotFound)

	// ErrOutOfOrder is returned when the tracker is advanced with a date
	// earlier than one it already consumed for the same month.
	ErrOutOfOrder = errors.New("records replayed out of date order")

	// ErrRecomputeAborted is returned when a month could not be replayed.
	// Months before it are persisted, it and every later month are not.
	ErrRecomputeAborted = errors.New("recompute aborted")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError rejects malformed collaborator input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return generic.ErrInvalidInput
}

// OrderError provides details about a tracker ordering violation.
type OrderError struct {
	Month   generic.MonthKey
	Last    time.Time
	Attempt time.Time
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("%s: month %s already advanced to %s, got %s",
		ErrOutOfOrder, e.Month, e.Last.Format(generic.DateLayout), e.Attempt.Format(generic.DateLayout))
}

func (e *OrderError) Unwrap() error {
	return ErrOutOfOrder
}

// MonthError reports which month and record stopped a replay.
type MonthError struct {
	Month    generic.MonthKey
	RecordID string
	Err      error
}

func (e *MonthError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("%s: month %s, record %s: %v", ErrRecomputeAborted, e.Month, e.RecordID, e.Err)
	}
	return fmt.Sprintf("%s: month %s: %v", ErrRecomputeAborted, e.Month, e.Err)
}

// Unwrap exposes both the abort sentinel and the cause.
func (e *MonthError) Unwrap() []error {
	return []error{ErrRecomputeAborted, e.Err}
}

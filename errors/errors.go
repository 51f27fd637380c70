package errors

import (
	"fmt"

	"booking-calendar/models"
)

// RowError wraps a parse-level error with context about the raw row it
// occurred in. Row-local and non-fatal: the parser skips the row and
// keeps going, callers inspect the error for reporting.
type RowError struct {
	Row   int
	Cells []string
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v (cells: %v)", e.Row, e.Err, e.Cells)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// AllocationError carries the complete ordered failure list of a
// rejected batch. Every conflicting request is reported, not just the
// first, so the caller can fix all rows in one round trip.
type AllocationError struct {
	Failures []models.AllocationFailure
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocation rejected: %d of the requested bookings could not be placed", len(e.Failures))
}

var (
	// ErrConflict is returned by the store when a commit collides with a
	// booking written after the occupancy snapshot was taken. Retryable:
	// re-read occupancy and allocate again.
	ErrConflict = fmt.Errorf("booking already exists for date and slot")

	// Parse-level causes wrapped by RowError.
	ErrInvalidDate = fmt.Errorf("invalid date")

	// Validation errors rejected at the request-construction boundary,
	// before allocation is attempted.
	ErrNoRows       = fmt.Errorf("no bookable rows")
	ErrEmptyRange   = fmt.Errorf("empty date range")
	ErrNoFamily     = fmt.Errorf("missing slot family")
	ErrNoAdvertiser = fmt.Errorf("missing advertiser name")
)

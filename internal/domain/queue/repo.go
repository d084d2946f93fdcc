package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository reads and advances the queue. CallNext and Reset are the only
// writers; both operate on appointment rows through conditional updates so
// concurrent callers cannot double-promote.
type Repository interface {
	// ListDay returns the day's entries (confirmed, in_progress, completed,
	// cancelled) in serving order. An empty day is an empty slice, not an
	// error.
	ListDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Entry, error)
	// DateSummaries returns per-date queue counts for a doctor.
	DateSummaries(ctx context.Context, doctorID uuid.UUID) ([]*DateSummary, error)
	// CallNext atomically closes out the current consultation (when
	// currentID is non-nil it must still be in progress, otherwise
	// ErrStaleState) and promotes the first waiting entry. When no entry is
	// waiting the result has QueueCompleted set.
	CallNext(ctx context.Context, doctorID uuid.UUID, date time.Time, currentID uuid.UUID) (*CallResult, error)
	// Reset returns the day's non-cancelled appointments to confirmed with
	// queue numbers and called_at cleared, reporting how many rows changed.
	Reset(ctx context.Context, doctorID uuid.UUID, date time.Time) (int64, error)
	// ActiveForPatient finds the patient's confirmed or in-progress
	// appointment for the date, or ErrNotFound.
	ActiveForPatient(ctx context.Context, patientID uuid.UUID, date time.Time) (*Entry, error)
	EntryByID(ctx context.Context, id uuid.UUID) (*Entry, error)
}

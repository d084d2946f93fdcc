package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists appointments. All transition methods are conditional
// updates: they succeed only when the row is in the expected source state and
// return ErrStaleTransition otherwise.
type Repository interface {
	// Create inserts the appointment. When confirm is true the row is
	// created confirmed with the next queue number for (doctor, date)
	// assigned in the same statement.
	Create(ctx context.Context, a *Appointment, confirm bool) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// Accept moves pending → confirmed and assigns the next queue number.
	Accept(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// Reject moves pending → rejected.
	Reject(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// Cancel moves any non-terminal status → cancelled.
	Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error)
	ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time, status string, limit, offset int) ([]*Appointment, int, error)
}

package appointment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for visit dates.
const DateLayout = "2006-01-02"

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusRejected   = "rejected"
)

var (
	ErrNotFound = errors.New("appointment not found")
	// ErrStaleTransition means the row was not in the expected state when a
	// conditional update ran. The caller re-fetches; nothing was changed.
	ErrStaleTransition = errors.New("appointment state changed, re-fetch and retry")
	ErrForbidden       = errors.New("not a participant of this appointment")
)

// Appointment maps to the appointments table. PatientName is joined from
// users for doctor-facing listings.
type Appointment struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	PatientID        uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID         uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	PatientName      string     `db:"patient_name" json:"patient_name,omitempty"`
	VisitDate        time.Time  `db:"visit_date" json:"visit_date"`
	ScheduledTime    string     `db:"scheduled_time" json:"scheduled_time"`
	ConsultationType string     `db:"consultation_type" json:"consultation_type"`
	Status           string     `db:"status" json:"status"`
	QueueNumber      *int       `db:"queue_number" json:"queue_number,omitempty"`
	CalledAt         *time.Time `db:"called_at" json:"called_at,omitempty"`
	ReasonForVisit   *string    `db:"reason_for_visit" json:"reason_for_visit,omitempty"`
	Fee              float64    `db:"fee" json:"fee"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// DateString returns the visit date in wire format.
func (a *Appointment) DateString() string {
	return a.VisitDate.Format(DateLayout)
}

// Cancellable reports whether an appointment in the given status may still
// be cancelled. Completed and already-terminal states may not.
func Cancellable(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusInProgress:
		return true
	}
	return false
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

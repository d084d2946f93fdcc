package queue

import (
	"bytes"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for queue dates.
const DateLayout = "2006-01-02"

var (
	ErrNotFound = errors.New("appointment not found")
	// ErrStaleState means the queue moved under the caller: the appointment
	// they believed was in progress no longer is, or someone else is already
	// being served. The caller re-fetches the queue; nothing was changed.
	ErrStaleState = errors.New("queue state changed, re-fetch before calling next")
	ErrForbidden  = errors.New("not a participant of this queue")
)

// Entry is one appointment as seen by the queue. PatientName is joined from
// users in day listings and empty elsewhere.
type Entry struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	PatientName   string     `json:"patient_name,omitempty"`
	DoctorID      uuid.UUID  `json:"doctor_id"`
	VisitDate     time.Time  `json:"visit_date"`
	ScheduledTime string     `json:"scheduled_time"`
	Status        string     `json:"status"`
	QueueNumber   *int       `json:"queue_number,omitempty"`
	CalledAt      *time.Time `json:"called_at,omitempty"`
}

func (e *Entry) DateString() string {
	return e.VisitDate.Format(DateLayout)
}

// Less orders entries by queue number ascending with unnumbered entries
// last, then scheduled time, then id as the final tie-breaker. This is the
// serving order everywhere: listings, promotion, and position derivation.
func Less(a, b *Entry) bool {
	switch {
	case a.QueueNumber != nil && b.QueueNumber != nil:
		if *a.QueueNumber != *b.QueueNumber {
			return *a.QueueNumber < *b.QueueNumber
		}
	case a.QueueNumber != nil:
		return true
	case b.QueueNumber != nil:
		return false
	}
	if a.ScheduledTime != b.ScheduledTime {
		return a.ScheduledTime < b.ScheduledTime
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// DateSummary is one day's queue counts for a doctor.
type DateSummary struct {
	Date       time.Time `json:"date"`
	Waiting    int       `json:"waiting"`
	InProgress int       `json:"in_progress"`
	Completed  int       `json:"completed"`
}

// CallResult is the outcome of a call-next operation.
type CallResult struct {
	CompletedID    uuid.UUID `json:"completed_id,omitempty"`
	Called         *Entry    `json:"called,omitempty"`
	QueueCompleted bool      `json:"queue_completed"`
}

// Position is a patient's derived view of their place in the queue. It is
// computed from appointment state on every read, never stored.
type Position struct {
	InQueue          bool       `json:"in_queue"`
	AppointmentID    *uuid.UUID `json:"appointment_id,omitempty"`
	Status           string     `json:"status,omitempty"`
	QueueNumber      *int       `json:"queue_number,omitempty"`
	PatientsAhead    int        `json:"patients_ahead"`
	EstimatedWaitMin int        `json:"estimated_wait_min"`
	NowServing       *int       `json:"now_serving,omitempty"`
}

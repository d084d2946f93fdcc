package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("notification not found")

const (
	TypeAppointmentConfirmed = "appointment_confirmed"
	TypeAppointmentCancelled = "appointment_cancelled"
	TypeAppointmentReminder  = "appointment_reminder"
	TypeQueueCalled          = "queue_called"
	TypePrescriptionReady    = "prescription_ready"
	TypeReviewRequest        = "review_request"
	TypeGeneral              = "general"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Notification maps to the notifications table. Rows are never deleted;
// expired ones are filtered from listings.
type Notification struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      uuid.UUID  `db:"user_id" json:"user_id"`
	Title       string     `db:"title" json:"title"`
	Message     string     `db:"message" json:"message"`
	Type        string     `db:"type" json:"type"`
	Priority    string     `db:"priority" json:"priority"`
	IsRead      bool       `db:"is_read" json:"is_read"`
	RelatedType *string    `db:"related_type" json:"related_type,omitempty"`
	RelatedID   *uuid.UUID `db:"related_id" json:"related_id,omitempty"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

func ValidType(t string) bool {
	switch t {
	case TypeAppointmentConfirmed, TypeAppointmentCancelled, TypeAppointmentReminder,
		TypeQueueCalled, TypePrescriptionReady, TypeReviewRequest, TypeGeneral:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

package directory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	ConsultationInPerson     = "in_person"
	ConsultationTelemedicine = "telemedicine"
)

var (
	ErrNotFound  = errors.New("doctor not found")
	ErrNoSlot    = errors.New("no availability slot matches")
	ErrForbidden = errors.New("not the owning doctor")
)

// Doctor maps to the doctors table. FullName is joined from users.
type Doctor struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	UserID            uuid.UUID  `db:"user_id" json:"user_id"`
	HospitalID        *uuid.UUID `db:"hospital_id" json:"hospital_id,omitempty"`
	FullName          string     `db:"full_name" json:"full_name"`
	Specialty         string     `db:"specialty" json:"specialty"`
	Degrees           *string    `db:"degrees" json:"degrees,omitempty"`
	Bio               *string    `db:"bio" json:"bio,omitempty"`
	ConsultationFee   float64    `db:"consultation_fee" json:"consultation_fee"`
	AvgConsultMinutes *int       `db:"avg_consult_minutes" json:"avg_consult_minutes,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// AvailabilitySlot is a weekly recurring consultation window.
type AvailabilitySlot struct {
	ID               uuid.UUID `db:"id" json:"id"`
	DoctorID         uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Weekday          int       `db:"weekday" json:"weekday"` // 0 = Sunday
	StartTime        string    `db:"start_time" json:"start_time"`
	EndTime          string    `db:"end_time" json:"end_time"`
	Capacity         int       `db:"capacity" json:"capacity"`
	ConsultationType string    `db:"consultation_type" json:"consultation_type"`
	AutoConfirm      bool      `db:"auto_confirm" json:"auto_confirm"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

func ValidConsultationType(t string) bool {
	return t == ConsultationInPerson || t == ConsultationTelemedicine
}

// SearchParams filters the public doctor listing.
type SearchParams struct {
	Specialty  string
	Name       string
	HospitalID *uuid.UUID
}

package hospital

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means a conditional availability update matched no row:
	// the adjustment would push available below zero or above total.
	ErrUnavailable = errors.New("resource availability conflict")
)

// Ambulance statuses.
const (
	AmbulanceAvailable   = "available"
	AmbulanceOnTrip      = "on_trip"
	AmbulanceMaintenance = "maintenance"
)

func ValidAmbulanceStatus(s string) bool {
	switch s {
	case AmbulanceAvailable, AmbulanceOnTrip, AmbulanceMaintenance:
		return true
	}
	return false
}

type Hospital struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resource is a countable hospital asset: ICU beds, ward beds, oxygen
// cylinders. Available never exceeds Total and never goes negative.
type Resource struct {
	ID         uuid.UUID `json:"id"`
	HospitalID uuid.UUID `json:"hospital_id"`
	Name       string    `json:"name"`
	Total      int       `json:"total"`
	Available  int       `json:"available"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type StaffMember struct {
	ID         uuid.UUID `json:"id"`
	HospitalID uuid.UUID `json:"hospital_id"`
	FullName   string    `json:"full_name"`
	Role       string    `json:"role"`
	Shift      *string   `json:"shift,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Ambulance struct {
	ID            uuid.UUID `json:"id"`
	HospitalID    uuid.UUID `json:"hospital_id"`
	VehicleNumber string    `json:"vehicle_number"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	DriverName    *string   `json:"driver_name,omitempty"`
	DriverPhone   *string   `json:"driver_phone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

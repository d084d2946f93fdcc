package hospital

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateHospital(ctx context.Context, h *Hospital) error
	GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error)
	UpdateHospital(ctx context.Context, h *Hospital) error
	ListHospitals(ctx context.Context, limit, offset int) ([]*Hospital, int, error)

	CreateResource(ctx context.Context, r *Resource) error
	GetResource(ctx context.Context, id uuid.UUID) (*Resource, error)
	ListResources(ctx context.Context, hospitalID uuid.UUID) ([]*Resource, error)
	// AdjustAvailability applies delta as a conditional update. It returns
	// ErrUnavailable when the result would fall outside [0, total] and
	// ErrNotFound when the resource does not exist.
	AdjustAvailability(ctx context.Context, id uuid.UUID, delta int) (*Resource, error)
	SetResourceTotal(ctx context.Context, id uuid.UUID, total, available int) (*Resource, error)

	CreateStaff(ctx context.Context, s *StaffMember) error
	UpdateStaff(ctx context.Context, s *StaffMember) error
	DeleteStaff(ctx context.Context, id uuid.UUID) error
	ListStaff(ctx context.Context, hospitalID uuid.UUID) ([]*StaffMember, error)

	CreateAmbulance(ctx context.Context, a *Ambulance) error
	GetAmbulance(ctx context.Context, id uuid.UUID) (*Ambulance, error)
	UpdateAmbulance(ctx context.Context, a *Ambulance) error
	ListAmbulances(ctx context.Context, hospitalID uuid.UUID, status string) ([]*Ambulance, error)
}

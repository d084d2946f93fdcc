package directory

import (
	"context"

	"github.com/google/uuid"
)

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Doctor, int, error)
}

type SlotRepository interface {
	Create(ctx context.Context, sl *AvailabilitySlot) error
	GetByID(ctx context.Context, id uuid.UUID) (*AvailabilitySlot, error)
	Update(ctx context.Context, sl *AvailabilitySlot) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*AvailabilitySlot, error)
	FindForBooking(ctx context.Context, doctorID uuid.UUID, weekday int, consultationType string) (*AvailabilitySlot, error)
}

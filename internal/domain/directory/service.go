package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	doctors DoctorRepository
	slots   SlotRepository
}

func NewService(doctors DoctorRepository, slots SlotRepository) *Service {
	return &Service{doctors: doctors, slots: slots}
}

// -- Doctors --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.UserID == uuid.Nil {
		return fmt.Errorf("user_id is required")
	}
	if d.Specialty == "" {
		return fmt.Errorf("specialty is required")
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) GetDoctorByUser(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByUserID(ctx, userID)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	if d.Specialty == "" {
		return fmt.Errorf("specialty is required")
	}
	return s.doctors.Update(ctx, d)
}

func (s *Service) Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.Search(ctx, params, limit, offset)
}

// DoctorIDForUser resolves a doctor's profile id from their account id.
func (s *Service) DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	d, err := s.doctors.GetByUserID(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return d.ID, nil
}

// AvgConsultMinutes returns the doctor's average consultation length, or 0
// when the doctor has none recorded.
func (s *Service) AvgConsultMinutes(ctx context.Context, doctorID uuid.UUID) (int, error) {
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return 0, err
	}
	if d.AvgConsultMinutes == nil {
		return 0, nil
	}
	return *d.AvgConsultMinutes, nil
}

// BookingSlot looks up the availability window a booking falls into and
// returns its confirmation mode together with the doctor's fee.
func (s *Service) BookingSlot(ctx context.Context, doctorID uuid.UUID, weekday int, consultationType string) (autoConfirm bool, fee float64, err error) {
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return false, 0, err
	}
	sl, err := s.slots.FindForBooking(ctx, doctorID, weekday, consultationType)
	if err != nil {
		return false, 0, err
	}
	return sl.AutoConfirm, d.ConsultationFee, nil
}

// -- Availability Slots --

func validateSlot(sl *AvailabilitySlot) error {
	if sl.Weekday < 0 || sl.Weekday > 6 {
		return fmt.Errorf("weekday must be 0-6")
	}
	start, err := time.Parse("15:04", sl.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start_time: %s", sl.StartTime)
	}
	end, err := time.Parse("15:04", sl.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end_time: %s", sl.EndTime)
	}
	if !end.After(start) {
		return fmt.Errorf("end_time must be after start_time")
	}
	if sl.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive")
	}
	if !ValidConsultationType(sl.ConsultationType) {
		return fmt.Errorf("invalid consultation_type: %s", sl.ConsultationType)
	}
	return nil
}

// CreateSlot adds an availability window. callerUserID must own the doctor
// profile unless isAdmin.
func (s *Service) CreateSlot(ctx context.Context, sl *AvailabilitySlot, callerUserID uuid.UUID, isAdmin bool) error {
	if sl.ConsultationType == "" {
		sl.ConsultationType = ConsultationInPerson
	}
	if err := validateSlot(sl); err != nil {
		return err
	}
	if err := s.authorizeSlotOwner(ctx, sl.DoctorID, callerUserID, isAdmin); err != nil {
		return err
	}
	return s.slots.Create(ctx, sl)
}

func (s *Service) UpdateSlot(ctx context.Context, sl *AvailabilitySlot, callerUserID uuid.UUID, isAdmin bool) error {
	existing, err := s.slots.GetByID(ctx, sl.ID)
	if err != nil {
		return err
	}
	sl.DoctorID = existing.DoctorID
	if err := validateSlot(sl); err != nil {
		return err
	}
	if err := s.authorizeSlotOwner(ctx, existing.DoctorID, callerUserID, isAdmin); err != nil {
		return err
	}
	return s.slots.Update(ctx, sl)
}

// DeleteSlot removes a window. Existing appointments booked against it are
// untouched.
func (s *Service) DeleteSlot(ctx context.Context, id uuid.UUID, callerUserID uuid.UUID, isAdmin bool) error {
	existing, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeSlotOwner(ctx, existing.DoctorID, callerUserID, isAdmin); err != nil {
		return err
	}
	return s.slots.Delete(ctx, id)
}

func (s *Service) ListSlots(ctx context.Context, doctorID uuid.UUID) ([]*AvailabilitySlot, error) {
	return s.slots.ListByDoctor(ctx, doctorID)
}

func (s *Service) authorizeSlotOwner(ctx context.Context, doctorID, callerUserID uuid.UUID, isAdmin bool) error {
	if isAdmin {
		return nil
	}
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return err
	}
	if d.UserID != callerUserID {
		return ErrForbidden
	}
	return nil
}

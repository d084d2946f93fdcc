package hospital

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) CreateHospital(ctx context.Context, h *Hospital) error {
	return s.repo.CreateHospital(ctx, h)
}

func (s *Service) GetHospital(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.GetHospital(ctx, id)
}

func (s *Service) UpdateHospital(ctx context.Context, h *Hospital) error {
	return s.repo.UpdateHospital(ctx, h)
}

func (s *Service) ListHospitals(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	return s.repo.ListHospitals(ctx, limit, offset)
}

func (s *Service) CreateResource(ctx context.Context, r *Resource) error {
	if r.Total < 0 {
		return fmt.Errorf("total must not be negative")
	}
	if r.Available < 0 || r.Available > r.Total {
		return fmt.Errorf("available must be between 0 and total")
	}
	if _, err := s.repo.GetHospital(ctx, r.HospitalID); err != nil {
		return err
	}
	return s.repo.CreateResource(ctx, r)
}

func (s *Service) ListResources(ctx context.Context, hospitalID uuid.UUID) ([]*Resource, error) {
	return s.repo.ListResources(ctx, hospitalID)
}

// AdjustAvailability books or releases units of a resource. Negative delta
// consumes (a bed occupied), positive releases. The repository rejects
// adjustments that would leave available outside [0, total].
func (s *Service) AdjustAvailability(ctx context.Context, id uuid.UUID, delta int) (*Resource, error) {
	if delta == 0 {
		return s.repo.GetResource(ctx, id)
	}
	res, err := s.repo.AdjustAvailability(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("resource_id", id.String()).
		Int("delta", delta).
		Int("available", res.Available).
		Msg("resource availability adjusted")
	return res, nil
}

func (s *Service) SetResourceCapacity(ctx context.Context, id uuid.UUID, total, available int) (*Resource, error) {
	if total < 0 || available < 0 || available > total {
		return nil, fmt.Errorf("available must be between 0 and total")
	}
	return s.repo.SetResourceTotal(ctx, id, total, available)
}

func (s *Service) CreateStaff(ctx context.Context, m *StaffMember) error {
	if _, err := s.repo.GetHospital(ctx, m.HospitalID); err != nil {
		return err
	}
	return s.repo.CreateStaff(ctx, m)
}

func (s *Service) UpdateStaff(ctx context.Context, m *StaffMember) error {
	return s.repo.UpdateStaff(ctx, m)
}

func (s *Service) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteStaff(ctx, id)
}

func (s *Service) ListStaff(ctx context.Context, hospitalID uuid.UUID) ([]*StaffMember, error) {
	return s.repo.ListStaff(ctx, hospitalID)
}

func (s *Service) CreateAmbulance(ctx context.Context, a *Ambulance) error {
	if a.Status == "" {
		a.Status = AmbulanceAvailable
	}
	if !ValidAmbulanceStatus(a.Status) {
		return fmt.Errorf("invalid ambulance status: %s", a.Status)
	}
	if a.Type == "" {
		a.Type = "basic"
	}
	if _, err := s.repo.GetHospital(ctx, a.HospitalID); err != nil {
		return err
	}
	return s.repo.CreateAmbulance(ctx, a)
}

func (s *Service) SetAmbulanceStatus(ctx context.Context, id uuid.UUID, status string) (*Ambulance, error) {
	if !ValidAmbulanceStatus(status) {
		return nil, fmt.Errorf("invalid ambulance status: %s", status)
	}
	a, err := s.repo.GetAmbulance(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Status = status
	if err := s.repo.UpdateAmbulance(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) UpdateAmbulance(ctx context.Context, a *Ambulance) error {
	if !ValidAmbulanceStatus(a.Status) {
		return fmt.Errorf("invalid ambulance status: %s", a.Status)
	}
	return s.repo.UpdateAmbulance(ctx, a)
}

func (s *Service) ListAmbulances(ctx context.Context, hospitalID uuid.UUID, status string) ([]*Ambulance, error) {
	if status != "" && !ValidAmbulanceStatus(status) {
		return nil, fmt.Errorf("invalid ambulance status: %s", status)
	}
	return s.repo.ListAmbulances(ctx, hospitalID, status)
}

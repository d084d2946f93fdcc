package hospital

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// -- Mock Repository --

type mockRepo struct {
	mu         sync.Mutex
	hospitals  map[uuid.UUID]*Hospital
	resources  map[uuid.UUID]*Resource
	staff      map[uuid.UUID]*StaffMember
	ambulances map[uuid.UUID]*Ambulance
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		hospitals:  make(map[uuid.UUID]*Hospital),
		resources:  make(map[uuid.UUID]*Resource),
		staff:      make(map[uuid.UUID]*StaffMember),
		ambulances: make(map[uuid.UUID]*Ambulance),
	}
}

func (m *mockRepo) CreateHospital(_ context.Context, h *Hospital) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	h.UpdatedAt = h.CreatedAt
	m.hospitals[h.ID] = h
	return nil
}

func (m *mockRepo) GetHospital(_ context.Context, id uuid.UUID) (*Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hospitals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return h, nil
}

func (m *mockRepo) UpdateHospital(_ context.Context, h *Hospital) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hospitals[h.ID]; !ok {
		return ErrNotFound
	}
	m.hospitals[h.ID] = h
	return nil
}

func (m *mockRepo) ListHospitals(_ context.Context, limit, offset int) ([]*Hospital, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Hospital
	for _, h := range m.hospitals {
		items = append(items, h)
	}
	return items, len(items), nil
}

func (m *mockRepo) CreateResource(_ context.Context, r *Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	m.resources[r.ID] = r
	return nil
}

func (m *mockRepo) GetResource(_ context.Context, id uuid.UUID) (*Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (m *mockRepo) ListResources(_ context.Context, hospitalID uuid.UUID) ([]*Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Resource
	for _, r := range m.resources {
		if r.HospitalID == hospitalID {
			items = append(items, r)
		}
	}
	return items, nil
}

func (m *mockRepo) AdjustAvailability(_ context.Context, id uuid.UUID, delta int) (*Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := r.Available + delta
	if next < 0 || next > r.Total {
		return nil, ErrUnavailable
	}
	r.Available = next
	return r, nil
}

func (m *mockRepo) SetResourceTotal(_ context.Context, id uuid.UUID, total, available int) (*Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.Total = total
	r.Available = available
	return r, nil
}

func (m *mockRepo) CreateStaff(_ context.Context, s *StaffMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	m.staff[s.ID] = s
	return nil
}

func (m *mockRepo) UpdateStaff(_ context.Context, s *StaffMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.staff[s.ID]
	if !ok {
		return ErrNotFound
	}
	s.HospitalID = existing.HospitalID
	m.staff[s.ID] = s
	return nil
}

func (m *mockRepo) DeleteStaff(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staff[id]; !ok {
		return ErrNotFound
	}
	delete(m.staff, id)
	return nil
}

func (m *mockRepo) ListStaff(_ context.Context, hospitalID uuid.UUID) ([]*StaffMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*StaffMember
	for _, s := range m.staff {
		if s.HospitalID == hospitalID {
			items = append(items, s)
		}
	}
	return items, nil
}

func (m *mockRepo) CreateAmbulance(_ context.Context, a *Ambulance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New()
	m.ambulances[a.ID] = a
	return nil
}

func (m *mockRepo) GetAmbulance(_ context.Context, id uuid.UUID) (*Ambulance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.ambulances[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockRepo) UpdateAmbulance(_ context.Context, a *Ambulance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ambulances[a.ID]; !ok {
		return ErrNotFound
	}
	m.ambulances[a.ID] = a
	return nil
}

func (m *mockRepo) ListAmbulances(_ context.Context, hospitalID uuid.UUID, status string) ([]*Ambulance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Ambulance
	for _, a := range m.ambulances {
		if a.HospitalID != hospitalID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		items = append(items, a)
	}
	return items, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return NewService(repo, logger), repo
}

func seedHospital(t *testing.T, svc *Service) *Hospital {
	t.Helper()
	h := &Hospital{Name: "Dhaka Central"}
	if err := svc.CreateHospital(context.Background(), h); err != nil {
		t.Fatalf("seed hospital: %v", err)
	}
	return h
}

// -- Tests --

func TestAdjustAvailability_Bounds(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	h := seedHospital(t, svc)

	res := &Resource{HospitalID: h.ID, Name: "ICU bed", Total: 2, Available: 2}
	if err := svc.CreateResource(ctx, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.AdjustAvailability(ctx, res.ID, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Available != 1 {
		t.Errorf("expected 1 available, got %d", got.Available)
	}

	if _, err := svc.AdjustAvailability(ctx, res.ID, -2); err != ErrUnavailable {
		t.Errorf("expected ErrUnavailable going negative, got %v", err)
	}
	if _, err := svc.AdjustAvailability(ctx, res.ID, 5); err != ErrUnavailable {
		t.Errorf("expected ErrUnavailable exceeding total, got %v", err)
	}

	got, err = svc.AdjustAvailability(ctx, res.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Available != 2 {
		t.Errorf("expected 2 available after release, got %d", got.Available)
	}
}

func TestAdjustAvailability_ConcurrentLastUnit(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	h := seedHospital(t, svc)

	res := &Resource{HospitalID: h.ID, Name: "ventilator", Total: 5, Available: 1}
	if err := svc.CreateResource(ctx, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AdjustAvailability(ctx, res.ID, -1)
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch err {
		case nil:
			wins++
		case ErrUnavailable:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Errorf("expected exactly one winner, got %d wins and %d conflicts", wins, conflicts)
	}
}

func TestAdjustAvailability_ZeroDeltaReadsBack(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	h := seedHospital(t, svc)

	res := &Resource{HospitalID: h.ID, Name: "oxygen", Total: 10, Available: 7}
	if err := svc.CreateResource(ctx, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := svc.AdjustAvailability(ctx, res.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Available != 7 {
		t.Errorf("expected unchanged availability, got %d", got.Available)
	}
}

func TestCreateResource_Validation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	h := seedHospital(t, svc)

	if err := svc.CreateResource(ctx, &Resource{HospitalID: h.ID, Name: "bed", Total: 2, Available: 3}); err == nil {
		t.Error("expected error for available > total")
	}
	if err := svc.CreateResource(ctx, &Resource{HospitalID: uuid.New(), Name: "bed", Total: 2, Available: 1}); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for unknown hospital, got %v", err)
	}
}

func TestSetResourceCapacity(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	h := seedHospital(t, svc)

	res := &Resource{HospitalID: h.ID, Name: "ward bed", Total: 10, Available: 10}
	if err := svc.CreateResource(ctx, res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.SetResourceCapacity(ctx, res.ID, 20, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total != 20 || got.Available != 15 {
		t.Errorf("unexpected capacity: %d/%d", got.Available, got.Total)
	}
	if _, err := svc.SetResourceCapacity(ctx, res.ID, 5, 6); err == nil {
		t.Error("expected error for available > total")
	}
}

func TestAmbulanceStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	h := seedHospital(t, svc)

	a := &Ambulance{HospitalID: h.ID, VehicleNumber: "DHK-1122"}
	if err := svc.CreateAmbulance(ctx, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != AmbulanceAvailable || a.Type != "basic" {
		t.Errorf("expected defaults, got %s/%s", a.Status, a.Type)
	}

	got, err := svc.SetAmbulanceStatus(ctx, a.ID, AmbulanceOnTrip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != AmbulanceOnTrip {
		t.Errorf("expected on_trip, got %s", got.Status)
	}

	if _, err := svc.SetAmbulanceStatus(ctx, a.ID, "flying"); err == nil {
		t.Error("expected error for invalid status")
	}

	onTrip, err := svc.ListAmbulances(ctx, h.ID, AmbulanceOnTrip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(onTrip) != 1 {
		t.Errorf("expected 1 ambulance on trip, got %d", len(onTrip))
	}
	if _, err := svc.ListAmbulances(ctx, h.ID, "bogus"); err == nil {
		t.Error("expected error for invalid status filter")
	}
}

func TestStaffLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	h := seedHospital(t, svc)

	shift := "night"
	m := &StaffMember{HospitalID: h.ID, FullName: "Nasrin Akter", Role: "nurse", Shift: &shift}
	if err := svc.CreateStaff(ctx, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Role = "head nurse"
	if err := svc.UpdateStaff(ctx, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, err := svc.ListStaff(ctx, h.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Role != "head nurse" {
		t.Errorf("unexpected staff list: %+v", items)
	}

	if err := svc.DeleteStaff(ctx, m.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteStaff(ctx, m.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

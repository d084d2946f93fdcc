package appointment

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediconnect/api/internal/platform/auth"
	"github.com/mediconnect/api/internal/platform/events"
)

// -- Mock Repository --

type mockRepo struct {
	appts map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) nextQueueNumber(doctorID uuid.UUID, date time.Time) int {
	max := 0
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.VisitDate.Equal(date) && a.QueueNumber != nil && *a.QueueNumber > max {
			max = *a.QueueNumber
		}
	}
	return max + 1
}

func (m *mockRepo) Create(_ context.Context, a *Appointment, confirm bool) error {
	a.ID = uuid.New()
	a.Status = StatusPending
	if confirm {
		a.Status = StatusConfirmed
		n := m.nextQueueNumber(a.DoctorID, a.VisitDate)
		a.QueueNumber = &n
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	m.appts[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockRepo) Accept(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Status != StatusPending {
		return nil, ErrStaleTransition
	}
	a.Status = StatusConfirmed
	n := m.nextQueueNumber(a.DoctorID, a.VisitDate)
	a.QueueNumber = &n
	return a, nil
}

func (m *mockRepo) Reject(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Status != StatusPending {
		return nil, ErrStaleTransition
	}
	a.Status = StatusRejected
	return a, nil
}

func (m *mockRepo) Cancel(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !Cancellable(a.Status) {
		return nil, ErrStaleTransition
	}
	a.Status = StatusCancelled
	return a, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appts {
		if a.PatientID == patientID && (status == "" || a.Status == status) {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByDoctorDate(_ context.Context, doctorID uuid.UUID, date time.Time, status string, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.VisitDate.Equal(date) && (status == "" || a.Status == status) {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

// -- Mock Directory --

var errNoSlot = errors.New("no availability slot matches")

type mockDirectory struct {
	doctorID    uuid.UUID
	doctorUser  uuid.UUID
	autoConfirm bool
	fee         float64
	weekdays    map[int]bool
}

func (m *mockDirectory) BookingSlot(_ context.Context, doctorID uuid.UUID, weekday int, _ string) (bool, float64, error) {
	if doctorID != m.doctorID || !m.weekdays[weekday] {
		return false, 0, errNoSlot
	}
	return m.autoConfirm, m.fee, nil
}

func (m *mockDirectory) DoctorIDForUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	if userID == m.doctorUser {
		return m.doctorID, nil
	}
	return uuid.Nil, errors.New("not a doctor")
}

// -- Mock Notifier --

type sentNotification struct {
	UserID  uuid.UUID
	Type    string
	Message string
}

type mockNotifier struct {
	sent []sentNotification
}

func (m *mockNotifier) Notify(_ context.Context, userID uuid.UUID, _, message, ntype, _, _ string, _ uuid.UUID) error {
	m.sent = append(m.sent, sentNotification{UserID: userID, Type: ntype, Message: message})
	return nil
}

func allWeekdays() map[int]bool {
	days := make(map[int]bool)
	for i := 0; i < 7; i++ {
		days[i] = true
	}
	return days
}

func newTestService(autoConfirm bool) (*Service, *mockRepo, *mockDirectory, *mockNotifier) {
	repo := newMockRepo()
	dir := &mockDirectory{
		doctorID:    uuid.New(),
		doctorUser:  uuid.New(),
		autoConfirm: autoConfirm,
		fee:         800,
		weekdays:    allWeekdays(),
	}
	notifier := &mockNotifier{}
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	svc := NewService(repo, dir, notifier, events.Nop{}, logger)
	return svc, repo, dir, notifier
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format(DateLayout)
}

// -- Tests --

func TestBook_PendingByDefault(t *testing.T) {
	svc, _, dir, notifier := newTestService(false)

	a, err := svc.Book(context.Background(), uuid.New(), BookRequest{
		DoctorID: dir.doctorID, Date: tomorrow(), ScheduledTime: "10:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("expected pending, got %s", a.Status)
	}
	if a.QueueNumber != nil {
		t.Error("pending appointment must not hold a queue number")
	}
	if a.Fee != 800 {
		t.Errorf("expected fee from directory, got %v", a.Fee)
	}
	if len(notifier.sent) != 0 {
		t.Error("no notification expected for a pending booking")
	}
}

func TestBook_AutoConfirmAssignsSequentialQueueNumbers(t *testing.T) {
	svc, _, dir, notifier := newTestService(true)
	ctx := context.Background()
	date := tomorrow()

	for want := 1; want <= 3; want++ {
		a, err := svc.Book(ctx, uuid.New(), BookRequest{
			DoctorID: dir.doctorID, Date: date, ScheduledTime: "10:00",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Status != StatusConfirmed {
			t.Fatalf("expected confirmed, got %s", a.Status)
		}
		if a.QueueNumber == nil || *a.QueueNumber != want {
			t.Errorf("expected queue number %d, got %v", want, a.QueueNumber)
		}
	}
	if len(notifier.sent) != 3 {
		t.Errorf("expected 3 confirmation notifications, got %d", len(notifier.sent))
	}
}

func TestBook_Validation(t *testing.T) {
	svc, _, dir, _ := newTestService(false)
	ctx := context.Background()
	patient := uuid.New()

	cases := []struct {
		name string
		req  BookRequest
	}{
		{"bad date", BookRequest{DoctorID: dir.doctorID, Date: "28-08-2026", ScheduledTime: "10:00"}},
		{"past date", BookRequest{DoctorID: dir.doctorID, Date: "2020-01-01", ScheduledTime: "10:00"}},
		{"bad time", BookRequest{DoctorID: dir.doctorID, Date: tomorrow(), ScheduledTime: "ten"}},
		{"unknown doctor", BookRequest{DoctorID: uuid.New(), Date: tomorrow(), ScheduledTime: "10:00"}},
	}
	for _, tc := range cases {
		if _, err := svc.Book(ctx, patient, tc.req); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestBook_TodayIsBookable(t *testing.T) {
	svc, _, dir, _ := newTestService(false)

	a, err := svc.Book(context.Background(), uuid.New(), BookRequest{
		DoctorID: dir.doctorID, Date: time.Now().Format(DateLayout), ScheduledTime: "23:30",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status != StatusPending {
		t.Errorf("expected pending, got %s", a.Status)
	}
}

func TestAccept_AssignsQueueNumberOnce(t *testing.T) {
	svc, _, dir, notifier := newTestService(false)
	ctx := context.Background()

	a, err := svc.Book(ctx, uuid.New(), BookRequest{DoctorID: dir.doctorID, Date: tomorrow(), ScheduledTime: "10:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	accepted, err := svc.Accept(ctx, a.ID, dir.doctorUser, "doctor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accepted.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", accepted.Status)
	}
	if accepted.QueueNumber == nil || *accepted.QueueNumber != 1 {
		t.Errorf("expected queue number 1, got %v", accepted.QueueNumber)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Type != "appointment_confirmed" {
		t.Error("expected appointment_confirmed notification")
	}

	// A second accept is a stale transition.
	if _, err := svc.Accept(ctx, a.ID, dir.doctorUser, "doctor"); !errors.Is(err, ErrStaleTransition) {
		t.Errorf("expected ErrStaleTransition, got %v", err)
	}
}

func TestAccept_StrangerForbidden(t *testing.T) {
	svc, _, dir, _ := newTestService(false)
	ctx := context.Background()

	a, err := svc.Book(ctx, uuid.New(), BookRequest{DoctorID: dir.doctorID, Date: tomorrow(), ScheduledTime: "10:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Accept(ctx, a.ID, uuid.New(), "doctor"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestReject(t *testing.T) {
	svc, _, dir, notifier := newTestService(false)
	ctx := context.Background()

	a, err := svc.Book(ctx, uuid.New(), BookRequest{DoctorID: dir.doctorID, Date: tomorrow(), ScheduledTime: "10:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rejected, err := svc.Reject(ctx, a.ID, dir.doctorUser, "doctor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Errorf("expected rejected, got %s", rejected.Status)
	}
	if len(notifier.sent) != 1 {
		t.Error("expected patient notification on reject")
	}
}

func TestCancel_ByPatient(t *testing.T) {
	svc, _, dir, notifier := newTestService(true)
	ctx := context.Background()
	patient := uuid.New()

	a, err := svc.Book(ctx, patient, BookRequest{DoctorID: dir.doctorID, Date: tomorrow(), ScheduledTime: "10:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, a.ID, patient, "patient")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	// Only the booking confirmation was sent; self-cancel does not notify.
	if len(notifier.sent) != 1 {
		t.Errorf("expected 1 notification, got %d", len(notifier.sent))
	}
}

func TestCancel_ByDoctorNamesCanceller(t *testing.T) {
	svc, _, dir, notifier := newTestService(false)
	ctx := context.WithValue(context.Background(), auth.UserNameKey, "Dr. Farhana Rahman")

	a, err := svc.Book(ctx, uuid.New(), BookRequest{DoctorID: dir.doctorID, Date: tomorrow(), ScheduledTime: "10:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Cancel(ctx, a.ID, dir.doctorUser, "doctor"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	if !strings.Contains(notifier.sent[0].Message, "Dr. Farhana Rahman") {
		t.Errorf("expected canceller named in message, got %q", notifier.sent[0].Message)
	}
}

func TestCancel_CompletedIsStale(t *testing.T) {
	svc, repo, dir, _ := newTestService(true)
	ctx := context.Background()
	patient := uuid.New()

	a, err := svc.Book(ctx, patient, BookRequest{DoctorID: dir.doctorID, Date: tomorrow(), ScheduledTime: "10:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.appts[a.ID].Status = StatusCompleted

	if _, err := svc.Cancel(ctx, a.ID, patient, "patient"); !errors.Is(err, ErrStaleTransition) {
		t.Errorf("expected ErrStaleTransition, got %v", err)
	}
}

func TestCancel_StrangerForbidden(t *testing.T) {
	svc, _, dir, _ := newTestService(true)
	ctx := context.Background()

	a, err := svc.Book(ctx, uuid.New(), BookRequest{DoctorID: dir.doctorID, Date: tomorrow(), ScheduledTime: "10:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Cancel(ctx, a.ID, uuid.New(), "patient"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestListByPatient_StatusFilter(t *testing.T) {
	svc, _, dir, _ := newTestService(true)
	ctx := context.Background()
	patient := uuid.New()

	a, err := svc.Book(ctx, patient, BookRequest{DoctorID: dir.doctorID, Date: tomorrow(), ScheduledTime: "10:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Book(ctx, patient, BookRequest{DoctorID: dir.doctorID, Date: tomorrow(), ScheduledTime: "11:00"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Cancel(ctx, a.ID, patient, "patient"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items, total, err := svc.ListByPatient(ctx, patient, StatusConfirmed, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Errorf("expected 1 confirmed appointment, got %d", total)
	}

	if _, _, err := svc.ListByPatient(ctx, patient, "bogus", 20, 0); err == nil {
		t.Error("expected error for invalid status filter")
	}
}

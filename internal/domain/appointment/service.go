package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediconnect/api/internal/platform/auth"
	"github.com/mediconnect/api/internal/platform/events"
	"github.com/mediconnect/api/internal/platform/websocket"
)

// DoctorDirectory is the slice of the directory service booking needs.
type DoctorDirectory interface {
	BookingSlot(ctx context.Context, doctorID uuid.UUID, weekday int, consultationType string) (autoConfirm bool, fee float64, err error)
	DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// Notifier creates in-app notifications. Failures are logged, not returned.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message, ntype, priority, relatedType string, relatedID uuid.UUID) error
}

type Service struct {
	repo      Repository
	directory DoctorDirectory
	notifier  Notifier
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewService(repo Repository, directory DoctorDirectory, notifier Notifier, publisher events.Publisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, directory: directory, notifier: notifier, publisher: publisher, logger: logger}
}

// BookRequest is a patient's booking submission.
type BookRequest struct {
	DoctorID         uuid.UUID `json:"doctor_id" validate:"required"`
	Date             string    `json:"date" validate:"required"`
	ScheduledTime    string    `json:"scheduled_time" validate:"required"`
	ConsultationType string    `json:"consultation_type"`
	ReasonForVisit   *string   `json:"reason_for_visit"`
}

// Book creates an appointment. The slot's confirmation mode decides whether
// it starts pending or goes straight to confirmed with a queue number.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, req BookRequest) (*Appointment, error) {
	date, err := time.Parse(DateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", req.Date)
	}
	// Lexicographic compare of YYYY-MM-DD strings; local midnight, not the
	// UTC epoch, decides what "today" is.
	if req.Date < time.Now().Format(DateLayout) {
		return nil, fmt.Errorf("cannot book a past date")
	}
	if _, err := time.Parse("15:04", req.ScheduledTime); err != nil {
		return nil, fmt.Errorf("invalid scheduled_time %q, want HH:MM", req.ScheduledTime)
	}
	if req.ConsultationType == "" {
		req.ConsultationType = "in_person"
	}

	autoConfirm, fee, err := s.directory.BookingSlot(ctx, req.DoctorID, int(date.Weekday()), req.ConsultationType)
	if err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID:        patientID,
		DoctorID:         req.DoctorID,
		VisitDate:        date,
		ScheduledTime:    req.ScheduledTime,
		ConsultationType: req.ConsultationType,
		ReasonForVisit:   req.ReasonForVisit,
		Fee:              fee,
	}
	if err := s.repo.Create(ctx, a, autoConfirm); err != nil {
		return nil, err
	}

	if a.Status == StatusConfirmed {
		s.notifyPatient(ctx, a, "Appointment confirmed",
			fmt.Sprintf("Your appointment on %s is confirmed. Queue number %d.", a.DateString(), deref(a.QueueNumber)),
			"appointment_confirmed", "medium")
		s.publishQueueEvent(ctx, a, "appointment_confirmed")
	}
	return a, nil
}

// Accept confirms a pending appointment and assigns its queue number. Only
// the owning doctor or an admin may accept.
func (s *Service) Accept(ctx context.Context, id, callerUserID uuid.UUID, role string) (*Appointment, error) {
	if err := s.authorizeDoctor(ctx, id, callerUserID, role); err != nil {
		return nil, err
	}
	a, err := s.repo.Accept(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyPatient(ctx, a, "Appointment confirmed",
		fmt.Sprintf("Your appointment on %s is confirmed. Queue number %d.", a.DateString(), deref(a.QueueNumber)),
		"appointment_confirmed", "medium")
	s.publishQueueEvent(ctx, a, "appointment_confirmed")
	return a, nil
}

// Reject declines a pending appointment.
func (s *Service) Reject(ctx context.Context, id, callerUserID uuid.UUID, role string) (*Appointment, error) {
	if err := s.authorizeDoctor(ctx, id, callerUserID, role); err != nil {
		return nil, err
	}
	a, err := s.repo.Reject(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyPatient(ctx, a, "Appointment declined",
		fmt.Sprintf("Your appointment request for %s was declined.", a.DateString()),
		"appointment_cancelled", "medium")
	return a, nil
}

// Cancel ends a non-terminal appointment. The owning patient, the owning
// doctor, or an admin may cancel; records are never deleted.
func (s *Service) Cancel(ctx context.Context, id, callerUserID uuid.UUID, role string) (*Appointment, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(ctx, existing, callerUserID, role); err != nil {
		return nil, err
	}
	a, err := s.repo.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	if callerUserID != a.PatientID {
		msg := fmt.Sprintf("Your appointment on %s was cancelled.", a.DateString())
		if name := auth.NameFromContext(ctx); name != "" {
			msg = fmt.Sprintf("Your appointment on %s was cancelled by %s.", a.DateString(), name)
		}
		s.notifyPatient(ctx, a, "Appointment cancelled", msg, "appointment_cancelled", "high")
	}
	s.publishQueueEvent(ctx, a, "appointment_cancelled")
	return a, nil
}

func (s *Service) Get(ctx context.Context, id, callerUserID uuid.UUID, role string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(ctx, a, callerUserID, role); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	if status != "" && !ValidStatus(status) {
		return nil, 0, fmt.Errorf("invalid status filter: %s", status)
	}
	return s.repo.ListByPatient(ctx, patientID, status, limit, offset)
}

func (s *Service) ListByDoctorDate(ctx context.Context, doctorID uuid.UUID, date time.Time, status string, limit, offset int) ([]*Appointment, int, error) {
	if status != "" && !ValidStatus(status) {
		return nil, 0, fmt.Errorf("invalid status filter: %s", status)
	}
	return s.repo.ListByDoctorDate(ctx, doctorID, date, status, limit, offset)
}

// authorizeDoctor allows the appointment's doctor or an admin.
func (s *Service) authorizeDoctor(ctx context.Context, id, callerUserID uuid.UUID, role string) error {
	if role == "admin" {
		return nil
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	doctorID, err := s.directory.DoctorIDForUser(ctx, callerUserID)
	if err != nil || doctorID != a.DoctorID {
		return ErrForbidden
	}
	return nil
}

// authorizeParticipant allows the patient, the doctor, or an admin.
func (s *Service) authorizeParticipant(ctx context.Context, a *Appointment, callerUserID uuid.UUID, role string) error {
	if role == "admin" || a.PatientID == callerUserID {
		return nil
	}
	if role == "doctor" {
		doctorID, err := s.directory.DoctorIDForUser(ctx, callerUserID)
		if err == nil && doctorID == a.DoctorID {
			return nil
		}
	}
	return ErrForbidden
}

func (s *Service) notifyPatient(ctx context.Context, a *Appointment, title, message, ntype, priority string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, a.PatientID, title, message, ntype, priority, "appointment", a.ID); err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).Msg("notify patient failed")
	}
}

func (s *Service) publishQueueEvent(ctx context.Context, a *Appointment, eventType string) {
	if s.publisher == nil {
		return
	}
	event := websocket.Event{
		Type:         eventType,
		Topic:        websocket.QueueTopic(a.DoctorID, a.DateString()),
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		Timestamp:    time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("topic", event.Topic).Msg("publish event failed")
	}
}

func deref(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

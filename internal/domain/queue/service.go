package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediconnect/api/internal/platform/events"
	"github.com/mediconnect/api/internal/platform/websocket"
)

// Directory is the slice of the directory service the queue needs.
type Directory interface {
	DoctorIDForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	AvgConsultMinutes(ctx context.Context, doctorID uuid.UUID) (int, error)
}

// Notifier creates in-app notifications. Failures are logged, not returned.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message, ntype, priority, relatedType string, relatedID uuid.UUID) error
}

type Service struct {
	repo                  Repository
	directory             Directory
	notifier              Notifier
	publisher             events.Publisher
	logger                zerolog.Logger
	defaultConsultMinutes int
}

func NewService(repo Repository, directory Directory, notifier Notifier, publisher events.Publisher, logger zerolog.Logger, defaultConsultMinutes int) *Service {
	return &Service{
		repo:                  repo,
		directory:             directory,
		notifier:              notifier,
		publisher:             publisher,
		logger:                logger,
		defaultConsultMinutes: defaultConsultMinutes,
	}
}

// DoctorForUser resolves a doctor's profile id from their account id.
func (s *Service) DoctorForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	return s.directory.DoctorIDForUser(ctx, userID)
}

// DayView returns the day's queue in serving order. An empty day is a normal
// empty result.
func (s *Service) DayView(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Entry, error) {
	return s.repo.ListDay(ctx, doctorID, date)
}

// Dates returns per-date queue counts for the doctor's schedule overview.
func (s *Service) Dates(ctx context.Context, doctorID uuid.UUID) ([]*DateSummary, error) {
	return s.repo.DateSummaries(ctx, doctorID)
}

// CallNext advances the queue: the current consultation (if any) completes
// and the first waiting patient is promoted. The repository guarantees
// exactly one of two concurrent calls wins; the loser sees ErrStaleState.
func (s *Service) CallNext(ctx context.Context, doctorID uuid.UUID, date time.Time, currentID uuid.UUID) (*CallResult, error) {
	result, err := s.repo.CallNext(ctx, doctorID, date, currentID)
	if err != nil {
		return nil, err
	}

	dateStr := date.Format(DateLayout)
	if result.Called != nil {
		s.notify(ctx, result.Called.PatientID, "You are being called",
			fmt.Sprintf("The doctor is ready to see you now. Queue number %d.", derefInt(result.Called.QueueNumber)),
			"queue_called", "urgent", result.Called.ID)
		s.publish(ctx, websocket.UserTopic(result.Called.PatientID), "queue_called", result.Called.ID.String())
	}
	s.publish(ctx, websocket.QueueTopic(doctorID, dateStr), "queue_advanced", "")
	return result, nil
}

// Reset returns the day to its pre-consultation state. The action is
// audit-logged with the acting user; subscribers are told to re-fetch.
func (s *Service) Reset(ctx context.Context, doctorID uuid.UUID, date time.Time, actorID uuid.UUID) (int64, error) {
	affected, err := s.repo.Reset(ctx, doctorID, date)
	if err != nil {
		return 0, err
	}
	s.logger.Info().
		Str("actor_id", actorID.String()).
		Str("doctor_id", doctorID.String()).
		Str("date", date.Format(DateLayout)).
		Int64("appointments_reset", affected).
		Msg("queue reset")
	s.publish(ctx, websocket.QueueTopic(doctorID, date.Format(DateLayout)), "queue_reset", "")
	return affected, nil
}

// MyPosition derives the caller's place in the queue for one date. Having no
// active appointment is a normal answer, not an error.
func (s *Service) MyPosition(ctx context.Context, patientID uuid.UUID, date time.Time) (*Position, error) {
	entry, err := s.repo.ActiveForPatient(ctx, patientID, date)
	if err == ErrNotFound {
		return &Position{InQueue: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.derivePosition(ctx, entry)
}

// PositionFor derives the queue view for one appointment. Only the owning
// patient, the owning doctor, or an admin may look.
func (s *Service) PositionFor(ctx context.Context, appointmentID, callerUserID uuid.UUID, role string) (*Position, error) {
	entry, err := s.repo.EntryByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, entry, callerUserID, role); err != nil {
		return nil, err
	}
	return s.derivePosition(ctx, entry)
}

func (s *Service) authorize(ctx context.Context, entry *Entry, callerUserID uuid.UUID, role string) error {
	if role == "admin" || entry.PatientID == callerUserID {
		return nil
	}
	if role == "doctor" {
		doctorID, err := s.directory.DoctorIDForUser(ctx, callerUserID)
		if err == nil && doctorID == entry.DoctorID {
			return nil
		}
	}
	return ErrForbidden
}

// derivePosition computes patients_ahead, the wait estimate, and the number
// now being served from the day's entries. Nothing here is stored; the
// appointment rows are the single source of truth.
func (s *Service) derivePosition(ctx context.Context, entry *Entry) (*Position, error) {
	pos := &Position{
		AppointmentID: &entry.ID,
		Status:        entry.Status,
		QueueNumber:   entry.QueueNumber,
	}

	switch entry.Status {
	case "confirmed":
		pos.InQueue = true
	case "in_progress":
		pos.InQueue = true
		pos.NowServing = entry.QueueNumber
		return pos, nil
	default:
		return pos, nil
	}

	day, err := s.repo.ListDay(ctx, entry.DoctorID, entry.VisitDate)
	if err != nil {
		return nil, err
	}

	ahead := 0
	for _, other := range day {
		if other.ID == entry.ID {
			continue
		}
		if other.Status == "confirmed" && Less(other, entry) {
			ahead++
		}
		if other.Status == "in_progress" {
			pos.NowServing = other.QueueNumber
		}
	}
	pos.PatientsAhead = ahead
	pos.EstimatedWaitMin = ahead * s.consultMinutes(ctx, entry.DoctorID)
	return pos, nil
}

func (s *Service) consultMinutes(ctx context.Context, doctorID uuid.UUID) int {
	if s.directory != nil {
		if mins, err := s.directory.AvgConsultMinutes(ctx, doctorID); err == nil && mins > 0 {
			return mins
		}
	}
	return s.defaultConsultMinutes
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, title, message, ntype, priority string, relatedID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, title, message, ntype, priority, "appointment", relatedID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("notify failed")
	}
}

func (s *Service) publish(ctx context.Context, topic, eventType, resourceID string) {
	if s.publisher == nil {
		return
	}
	event := websocket.Event{
		Type:         eventType,
		Topic:        topic,
		ResourceType: "queue",
		ResourceID:   resourceID,
		Timestamp:    time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("publish event failed")
	}
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediconnect/api/internal/platform/events"
	"github.com/mediconnect/api/internal/platform/websocket"
)

type Service struct {
	repo      Repository
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewService(repo Repository, publisher events.Publisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// Notify creates a notification and pushes it to the user's topic. The push
// is best-effort; persistence is what the unread count and listing read.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, title, message, ntype, priority, relatedType string, relatedID uuid.UUID) error {
	if ntype == "" {
		ntype = TypeGeneral
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !ValidType(ntype) {
		return fmt.Errorf("invalid notification type: %s", ntype)
	}
	if !ValidPriority(priority) {
		return fmt.Errorf("invalid priority: %s", priority)
	}

	n := &Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Type:     ntype,
		Priority: priority,
	}
	if relatedType != "" {
		n.RelatedType = &relatedType
	}
	if relatedID != uuid.Nil {
		n.RelatedID = &relatedID
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.publisher != nil {
		event := websocket.Event{
			Type:         "notification",
			Topic:        websocket.UserTopic(userID),
			ResourceType: "notification",
			ResourceID:   n.ID.String(),
			Timestamp:    time.Now(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("push notification failed")
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*Notification, int, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

package notificationapp

import (
	"context"
	"fmt"
	"time"

	"instafeed/internal/core/apperr"
	"instafeed/internal/core/event"
	notificationEntity "instafeed/internal/core/notification"
	notificationPort "instafeed/internal/ports/notification"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const maxPageSize = 100

type NotificationService struct {
	NotificationRepository notificationPort.NotificationRepository
	Logger                 *zap.Logger
}

func NewNotificationService(repo notificationPort.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		NotificationRepository: repo,
		Logger:                 logger.Named("notification"),
	}
}

// HandleEvent turns a domain event into at most one notification. It is safe
// to call repeatedly with the same event: the idempotency key
// (recipient, sender, type, subject) absorbs redeliveries. Actors acting on
// their own content are never notified.
func (s *NotificationService) HandleEvent(ctx context.Context, evt *event.DomainEvent) error {
	n, err := fromEvent(evt)
	if err != nil {
		return err
	}
	if n == nil {
		return nil
	}

	created, err := s.NotificationRepository.CreateIgnoreDuplicate(ctx, n)
	if err != nil {
		return fmt.Errorf("store notification for event %s: %w", evt.ID, err)
	}
	if !created {
		s.Logger.Debug("Duplicate delivery ignored", zap.String("eventID", evt.ID), zap.String("type", evt.Type))
	}
	return nil
}

// fromEvent returns nil for events that notify nobody.
func fromEvent(evt *event.DomainEvent) (*notificationEntity.Notification, error) {
	if evt.ActorID == evt.TargetUserID {
		return nil, nil
	}
	sender, err := uuid.FromString(evt.ActorID)
	if err != nil {
		return nil, apperr.Invalid("actor_id", "must be a uuid")
	}
	recipient, err := uuid.FromString(evt.TargetUserID)
	if err != nil {
		return nil, apperr.Invalid("target_user_id", "must be a uuid")
	}

	n := &notificationEntity.Notification{
		ID:          uuid.Must(uuid.NewV4()),
		RecipientID: recipient,
		SenderID:    sender,
	}
	switch evt.Type {
	case event.PostLiked:
		postID, err := uuid.FromString(evt.PostID)
		if err != nil {
			return nil, apperr.Invalid("post_id", "must be a uuid")
		}
		n.Type = notificationEntity.TypeLike
		n.SubjectID = postID.String()
		n.PostID = &postID
	case event.CommentCreated:
		postID, err := uuid.FromString(evt.PostID)
		if err != nil {
			return nil, apperr.Invalid("post_id", "must be a uuid")
		}
		commentID, err := uuid.FromString(evt.CommentID)
		if err != nil {
			return nil, apperr.Invalid("comment_id", "must be a uuid")
		}
		n.Type = notificationEntity.TypeComment
		n.SubjectID = commentID.String()
		n.PostID = &postID
		n.CommentID = &commentID
	case event.FollowCreated:
		n.Type = notificationEntity.TypeFollow
		n.SubjectID = recipient.String()
	default:
		return nil, nil
	}
	return n, nil
}

func (s *NotificationService) ListNotifications(ctx context.Context, userID string, limit, offset int) ([]*notificationPort.NotificationDTO, error) {
	id, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	list, err := s.NotificationRepository.ListByRecipient(ctx, id, limit, max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	out := make([]*notificationPort.NotificationDTO, 0, len(list))
	for _, n := range list {
		dto := &notificationPort.NotificationDTO{
			ID:        n.ID.String(),
			SenderID:  n.SenderID.String(),
			Type:      n.Type,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.UTC(),
		}
		if n.PostID != nil {
			dto.PostID = n.PostID.String()
		}
		if n.CommentID != nil {
			dto.CommentID = n.CommentID.String()
		}
		out = append(out, dto)
	}
	return out, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	id, err := parseID("user_id", userID)
	if err != nil {
		return 0, err
	}
	n, err := s.NotificationRepository.UnreadCount(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return err
	}
	nid, err := parseID("notification_id", notificationID)
	if err != nil {
		return err
	}
	if err := s.NotificationRepository.MarkRead(ctx, uid, nid); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	id, err := parseID("user_id", userID)
	if err != nil {
		return 0, err
	}
	n, err := s.NotificationRepository.MarkAllRead(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return n, nil
}

func (s *NotificationService) ClearAll(ctx context.Context, userID string) (int64, error) {
	id, err := parseID("user_id", userID)
	if err != nil {
		return 0, err
	}
	n, err := s.NotificationRepository.DeleteAll(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("clear notifications: %w", err)
	}
	return n, nil
}

// PurgeRead deletes up to batch read notifications older than retention.
func (s *NotificationService) PurgeRead(ctx context.Context, retention time.Duration, batch int) (int64, error) {
	cutoff := time.Now().Add(-retention)
	n, err := s.NotificationRepository.DeleteReadOlderThan(ctx, cutoff, batch)
	if err != nil {
		return 0, fmt.Errorf("purge read notifications: %w", err)
	}
	return n, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.FromString(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.Invalid(field, "must be a uuid")
	}
	return id, nil
}

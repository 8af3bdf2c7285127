package database

import (
	"context"
	"time"

	"instafeed/internal/core/notification"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepositoryDatabase struct {
	DB *gorm.DB
}

func NewNotificationRepositoryDatabase(db *gorm.DB) *NotificationRepositoryDatabase {
	return &NotificationRepositoryDatabase{DB: db}
}

// CreateIgnoreDuplicate relies on the unique (recipient, sender, type,
// subject) index: a redelivered event becomes a no-op insert.
func (repo *NotificationRepositoryDatabase) CreateIgnoreDuplicate(ctx context.Context, n *notification.Notification) (bool, error) {
	res := repo.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(n)
	if res.Error != nil {
		return false, translate("create notification", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (repo *NotificationRepositoryDatabase) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]*notification.Notification, error) {
	var list []*notification.Notification
	err := repo.DB.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, translate("list notifications", err)
	}
	return list, nil
}

func (repo *NotificationRepositoryDatabase) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var n int64
	err := repo.DB.WithContext(ctx).Model(&notification.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&n).Error
	return n, translate("unread count", err)
}

// MarkRead returns ErrNotFound when id does not belong to recipientID.
func (repo *NotificationRepositoryDatabase) MarkRead(ctx context.Context, recipientID, id uuid.UUID) error {
	var n notification.Notification
	db := repo.DB.WithContext(ctx)
	if err := db.Where("id = ? AND recipient_id = ?", id, recipientID).First(&n).Error; err != nil {
		return translate("mark notification read", err)
	}
	if n.IsRead {
		return nil
	}
	err := db.Model(&notification.Notification{}).Where("id = ?", id).Update("is_read", true).Error
	return translate("mark notification read", err)
}

func (repo *NotificationRepositoryDatabase) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	res := repo.DB.WithContext(ctx).Model(&notification.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, translate("mark all read", res.Error)
	}
	return res.RowsAffected, nil
}

func (repo *NotificationRepositoryDatabase) DeleteAll(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	res := repo.DB.WithContext(ctx).Where("recipient_id = ?", recipientID).Delete(&notification.Notification{})
	if res.Error != nil {
		return 0, translate("clear notifications", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteReadOlderThan removes at most limit read notifications created
// before cutoff. The id subquery keeps the delete bounded on every dialect.
func (repo *NotificationRepositoryDatabase) DeleteReadOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	db := repo.DB.WithContext(ctx)
	var ids []uuid.UUID
	err := db.Model(&notification.Notification{}).
		Where("is_read = ? AND created_at < ?", true, cutoff.UTC()).
		Order("created_at").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, translate("select stale notifications", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.Where("id IN ?", ids).Delete(&notification.Notification{})
	if res.Error != nil {
		return 0, translate("delete stale notifications", res.Error)
	}
	return res.RowsAffected, nil
}

package database

import (
	"context"
	"time"

	"instafeed/internal/core/outbox"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type OutboxRepositoryDatabase struct {
	DB *gorm.DB
}

func NewOutboxRepositoryDatabase(db *gorm.DB) *OutboxRepositoryDatabase {
	return &OutboxRepositoryDatabase{DB: db}
}

func (repo *OutboxRepositoryDatabase) Create(ctx context.Context, e *outbox.Entry) error {
	return translate("create outbox entry", repo.DB.WithContext(ctx).Create(e).Error)
}

// Pending returns the oldest pending entries first.
func (repo *OutboxRepositoryDatabase) Pending(ctx context.Context, limit int) ([]*outbox.Entry, error) {
	var entries []*outbox.Entry
	err := repo.DB.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, translate("pending outbox entries", err)
	}
	return entries, nil
}

func (repo *OutboxRepositoryDatabase) MarkDone(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	err := repo.DB.WithContext(ctx).Model(&outbox.Entry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": outbox.StatusDone, "processed_at": now}).Error
	return translate("mark outbox entry done", err)
}

func (repo *OutboxRepositoryDatabase) MarkFailedAttempt(ctx context.Context, id uuid.UUID, reason string) error {
	err := repo.DB.WithContext(ctx).Model(&outbox.Entry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + ?", 1),
			"last_error": reason,
		}).Error
	return translate("mark outbox attempt", err)
}

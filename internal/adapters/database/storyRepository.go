package database

import (
	"context"
	"time"

	"instafeed/internal/core/story"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StoryRepositoryDatabase struct {
	DB *gorm.DB
}

func NewStoryRepositoryDatabase(db *gorm.DB) *StoryRepositoryDatabase {
	return &StoryRepositoryDatabase{DB: db}
}

func (repo *StoryRepositoryDatabase) Create(ctx context.Context, s *story.Story) error {
	return translate("create story", repo.DB.WithContext(ctx).Create(s).Error)
}

func (repo *StoryRepositoryDatabase) FindByID(ctx context.Context, id uuid.UUID) (*story.Story, error) {
	var st story.Story
	if err := repo.DB.WithContext(ctx).Where("id = ?", id).First(&st).Error; err != nil {
		return nil, translate("find story", err)
	}
	return &st, nil
}

func (repo *StoryRepositoryDatabase) RecordView(ctx context.Context, storyID, viewerID uuid.UUID) (bool, error) {
	created := false
	err := repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		view := &story.View{ID: uuid.Must(uuid.NewV4()), StoryID: storyID, UserID: viewerID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(view)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Model(&story.Story{}).Where("id = ?", storyID).
			UpdateColumn("views_count", gorm.Expr("views_count + ?", 1)).Error
	})
	if err != nil {
		return false, translate("record story view", err)
	}
	return created, nil
}

// ViewerIDs lists who opened the story, most recent first.
func (repo *StoryRepositoryDatabase) ViewerIDs(ctx context.Context, storyID uuid.UUID, limit, offset int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := repo.DB.WithContext(ctx).Model(&story.View{}).
		Where("story_id = ?", storyID).
		Order("viewed_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, translate("story viewers", err)
	}
	return ids, nil
}

// Delete removes the story and its views.
func (repo *StoryRepositoryDatabase) Delete(ctx context.Context, id uuid.UUID) error {
	err := repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("story_id = ?", id).Delete(&story.View{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&story.Story{}).Error
	})
	return translate("delete story", err)
}

func (repo *StoryRepositoryDatabase) ActiveByAuthors(ctx context.Context, authorIDs []uuid.UUID, now time.Time) ([]*story.Story, error) {
	var stories []*story.Story
	if len(authorIDs) == 0 {
		return stories, nil
	}
	err := repo.DB.WithContext(ctx).
		Where("user_id IN ? AND expires_at > ?", authorIDs, now.UTC()).
		Order("created_at DESC").
		Find(&stories).Error
	if err != nil {
		return nil, translate("active stories", err)
	}
	return stories, nil
}

// DeleteExpired removes at most limit expired stories with their views.
func (repo *StoryRepositoryDatabase) DeleteExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	db := repo.DB.WithContext(ctx)
	var ids []uuid.UUID
	err := db.Model(&story.Story{}).
		Where("expires_at <= ?", now.UTC()).
		Order("expires_at").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, translate("select expired stories", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	var removed int64
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("story_id IN ?", ids).Delete(&story.View{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&story.Story{})
		removed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, translate("delete expired stories", err)
	}
	return removed, nil
}

package database

import (
	"context"
	"time"

	"instafeed/internal/core/comment"
	"instafeed/internal/core/post"
	commentPort "instafeed/internal/ports/comment"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepositoryDatabase struct {
	DB *gorm.DB
}

func NewCommentRepositoryDatabase(db *gorm.DB) *CommentRepositoryDatabase {
	return &CommentRepositoryDatabase{DB: db}
}

func (repo *CommentRepositoryDatabase) Create(ctx context.Context, c *comment.Comment) error {
	err := repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Model(&post.Post{}).Where("id = ?", c.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1)).Error
	})
	return translate("create comment", err)
}

func (repo *CommentRepositoryDatabase) FindByID(ctx context.Context, id uuid.UUID) (*comment.Comment, error) {
	var c comment.Comment
	if err := repo.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translate("find comment", err)
	}
	return &c, nil
}

// Delete removes c, its replies and their likes and lowers comments_count by
// the number of comments removed, clamped at zero.
func (repo *CommentRepositoryDatabase) Delete(ctx context.Context, c *comment.Comment) (int64, error) {
	var removed int64
	err := repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		if err := tx.Model(&comment.Comment{}).Where("id = ? OR parent_id = ?", c.ID, c.ID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&comment.Like{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&comment.Comment{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		if removed == 0 {
			return nil
		}
		return tx.Model(&post.Post{}).Where("id = ?", c.PostID).
			UpdateColumn("comments_count",
				gorm.Expr("CASE WHEN comments_count >= ? THEN comments_count - ? ELSE 0 END", removed, removed)).Error
	})
	if err != nil {
		return 0, translate("delete comment", err)
	}
	return removed, nil
}

func (repo *CommentRepositoryDatabase) UpdateContent(ctx context.Context, id uuid.UUID, content string) error {
	res := repo.DB.WithContext(ctx).Model(&comment.Comment{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return translate("update comment", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("update comment", gorm.ErrRecordNotFound)
	}
	return nil
}

func (repo *CommentRepositoryDatabase) Like(ctx context.Context, userID, commentID uuid.UUID) (bool, error) {
	created := false
	err := repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		like := &comment.Like{ID: uuid.Must(uuid.NewV4()), UserID: userID, CommentID: commentID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Model(&comment.Comment{}).Where("id = ?", commentID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error
	})
	if err != nil {
		return false, translate("like comment", err)
	}
	return created, nil
}

func (repo *CommentRepositoryDatabase) Unlike(ctx context.Context, userID, commentID uuid.UUID) (bool, error) {
	deleted := false
	err := repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND comment_id = ?", userID, commentID).Delete(&comment.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Model(&comment.Comment{}).Where("id = ?", commentID).
			UpdateColumn("likes_count", gorm.Expr("CASE WHEN likes_count > 0 THEN likes_count - 1 ELSE 0 END")).Error
	})
	if err != nil {
		return false, translate("unlike comment", err)
	}
	return deleted, nil
}

type commentRow struct {
	ID           uuid.UUID
	PostID       uuid.UUID
	UserID       uuid.UUID
	AuthorHandle string
	ParentID     *uuid.UUID
	Content      string
	LikesCount   int64
	CreatedAt    time.Time
}

// ListByPost returns comments oldest first.
func (repo *CommentRepositoryDatabase) ListByPost(ctx context.Context, postID uuid.UUID, limit, offset int) ([]*commentPort.CommentDTO, error) {
	return repo.list(ctx, "list comments", "comments.post_id = ?", postID, limit, offset)
}

// ListReplies returns the replies to parentID oldest first.
func (repo *CommentRepositoryDatabase) ListReplies(ctx context.Context, parentID uuid.UUID, limit, offset int) ([]*commentPort.CommentDTO, error) {
	return repo.list(ctx, "list replies", "comments.parent_id = ?", parentID, limit, offset)
}

func (repo *CommentRepositoryDatabase) list(ctx context.Context, op, where string, arg uuid.UUID, limit, offset int) ([]*commentPort.CommentDTO, error) {
	var rows []commentRow
	err := repo.DB.WithContext(ctx).Table("comments").
		Select("comments.id, comments.post_id, comments.user_id, users.handle AS author_handle, " +
			"comments.parent_id, comments.content, comments.likes_count, comments.created_at").
		Joins("JOIN users ON users.id = comments.user_id").
		Where(where, arg).
		Order("comments.created_at ASC").
		Limit(limit).Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, translate(op, err)
	}

	out := make([]*commentPort.CommentDTO, 0, len(rows))
	for _, r := range rows {
		dto := &commentPort.CommentDTO{
			ID:           r.ID.String(),
			PostID:       r.PostID.String(),
			UserID:       r.UserID.String(),
			AuthorHandle: r.AuthorHandle,
			Content:      r.Content,
			LikesCount:   r.LikesCount,
			CreatedAt:    r.CreatedAt.UTC(),
		}
		if r.ParentID != nil {
			dto.ParentID = r.ParentID.String()
		}
		out = append(out, dto)
	}
	return out, nil
}

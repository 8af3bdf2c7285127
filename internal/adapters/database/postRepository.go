package database

import (
	"context"
	"time"

	"instafeed/internal/core/post"
	postPort "instafeed/internal/ports/post"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// PostRepositoryDatabase implements PostRepository on gorm.
type PostRepositoryDatabase struct {
	DB *gorm.DB
}

func NewPostRepositoryDatabase(db *gorm.DB) *PostRepositoryDatabase {
	return &PostRepositoryDatabase{DB: db}
}

// Create writes the post and its media in one transaction.
func (repo *PostRepositoryDatabase) Create(ctx context.Context, p *post.Post, media []*post.Media) error {
	err := repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if len(media) == 0 {
			return nil
		}
		return tx.Create(media).Error
	})
	return translate("create post", err)
}

func (repo *PostRepositoryDatabase) FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	var p post.Post
	if err := repo.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate("find post", err)
	}
	return &p, nil
}

func (repo *PostRepositoryDatabase) SetArchived(ctx context.Context, id uuid.UUID, archived bool) error {
	res := repo.DB.WithContext(ctx).Model(&post.Post{}).Where("id = ?", id).Update("is_archived", archived)
	if res.Error != nil {
		return translate("archive post", res.Error)
	}
	return nil
}

// FeedPostIDs returns the newest non-archived posts of the given authors.
func (repo *PostRepositoryDatabase) FeedPostIDs(ctx context.Context, authorIDs []uuid.UUID, limit int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if len(authorIDs) == 0 || limit <= 0 {
		return ids, nil
	}
	err := repo.DB.WithContext(ctx).Model(&post.Post{}).
		Where("author_id IN ? AND is_archived = ?", authorIDs, false).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, translate("feed post ids", err)
}

// ExplorePostIDs returns recent public posts outside excludeAuthors.
func (repo *PostRepositoryDatabase) ExplorePostIDs(ctx context.Context, excludeAuthors []uuid.UUID, offset, limit int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	q := repo.DB.WithContext(ctx).Model(&post.Post{}).
		Joins("JOIN users ON users.id = posts.author_id").
		Where("posts.is_archived = ? AND users.is_private = ?", false, false)
	if len(excludeAuthors) > 0 {
		q = q.Where("posts.author_id NOT IN ?", excludeAuthors)
	}
	err := q.Order("posts.created_at DESC, posts.id DESC").
		Offset(offset).Limit(limit).
		Pluck("posts.id", &ids).Error
	return ids, translate("explore post ids", err)
}

// TrendingPostIDs ranks posts created since the cutoff by
// likes + 2*comments, newest first on ties.
func (repo *PostRepositoryDatabase) TrendingPostIDs(ctx context.Context, since time.Time, limit int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := repo.DB.WithContext(ctx).Model(&post.Post{}).
		Where("created_at >= ? AND is_archived = ?", since.UTC(), false).
		Order("(likes_count + 2 * comments_count) DESC, created_at DESC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, translate("trending post ids", err)
}

type summaryRow struct {
	ID                uuid.UUID
	AuthorID          uuid.UUID
	AuthorHandle      string
	AuthorDisplayName string
	Caption           string
	Location          string
	LikesCount        int64
	CommentsCount     int64
	CommentsDisabled  bool
	IsArchived        bool
	CreatedAt         time.Time
}

func (repo *PostRepositoryDatabase) Summaries(ctx context.Context, ids []uuid.UUID) ([]*postPort.PostSummary, error) {
	out := []*postPort.PostSummary{}
	if len(ids) == 0 {
		return out, nil
	}

	var rows []summaryRow
	err := repo.DB.WithContext(ctx).Table("posts").
		Select("posts.id, posts.author_id, users.handle AS author_handle, users.display_name AS author_display_name, " +
			"posts.caption, posts.location, posts.likes_count, posts.comments_count, " +
			"posts.comments_disabled, posts.is_archived, posts.created_at").
		Joins("JOIN users ON users.id = posts.author_id").
		Where("posts.id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, translate("post summaries", err)
	}

	media, err := repo.MediaFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		s := &postPort.PostSummary{
			ID:                r.ID.String(),
			AuthorID:          r.AuthorID.String(),
			AuthorHandle:      r.AuthorHandle,
			AuthorDisplayName: r.AuthorDisplayName,
			Caption:           r.Caption,
			Location:          r.Location,
			Media:             []*postPort.MediaDTO{},
			LikesCount:        r.LikesCount,
			CommentsCount:     r.CommentsCount,
			CommentsDisabled:  r.CommentsDisabled,
			IsArchived:        r.IsArchived,
			CreatedAt:         r.CreatedAt.UTC(),
		}
		for _, m := range media[r.ID] {
			s.Media = append(s.Media, &postPort.MediaDTO{Type: m.MediaType, URL: m.URL, Position: m.Position})
		}
		out = append(out, s)
	}
	return out, nil
}

func (repo *PostRepositoryDatabase) MediaFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]*post.Media, error) {
	byPost := make(map[uuid.UUID][]*post.Media, len(ids))
	if len(ids) == 0 {
		return byPost, nil
	}
	var media []*post.Media
	err := repo.DB.WithContext(ctx).
		Where("post_id IN ?", ids).
		Order("post_id, position").
		Find(&media).Error
	if err != nil {
		return nil, translate("post media", err)
	}
	for _, m := range media {
		byPost[m.PostID] = append(byPost[m.PostID], m)
	}
	return byPost, nil
}

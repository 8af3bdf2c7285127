package postapp

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"instafeed/internal/core/apperr"
	"instafeed/internal/core/cachemanager"
	"instafeed/internal/core/event"
	postEntity "instafeed/internal/core/post"
	eventPort "instafeed/internal/ports/eventbus"
	feedPort "instafeed/internal/ports/feed"
	postPort "instafeed/internal/ports/post"
	userPort "instafeed/internal/ports/user"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const maxPageSize = 100

// PostService owns the post write paths. The row mutation is the unit of
// correctness; cache invalidation and event publication after it are best
// effort and only logged on failure.
type PostService struct {
	PostRepository      postPort.PostRepository
	LikeRepository      postPort.LikeRepository
	SavedPostRepository postPort.SavedPostRepository
	UserRepository      userPort.UserRepository
	FeedInvalidator     feedPort.Invalidator
	Cache               *cachemanager.Manager
	Publisher           eventPort.Publisher
	Logger              *zap.Logger
}

func NewPostService(
	postRepo postPort.PostRepository,
	likeRepo postPort.LikeRepository,
	savedRepo postPort.SavedPostRepository,
	userRepo userPort.UserRepository,
	feedInvalidator feedPort.Invalidator,
	cache *cachemanager.Manager,
	publisher eventPort.Publisher,
	logger *zap.Logger,
) *PostService {
	return &PostService{
		PostRepository:      postRepo,
		LikeRepository:      likeRepo,
		SavedPostRepository: savedRepo,
		UserRepository:      userRepo,
		FeedInvalidator:     feedInvalidator,
		Cache:               cache,
		Publisher:           publisher,
		Logger:              logger.Named("post"),
	}
}

// CreatePost persists a post with its media, drops the feeds that should now
// show it and announces it on the bus.
func (s *PostService) CreatePost(ctx context.Context, in postPort.CreatePostInput) (*postPort.PostSummary, error) {
	authorID, err := parseID("author_id", in.AuthorID)
	if err != nil {
		return nil, err
	}
	if err := validatePost(in); err != nil {
		return nil, err
	}

	p := &postEntity.Post{
		ID:               uuid.Must(uuid.NewV4()),
		AuthorID:         authorID,
		Caption:          in.Caption,
		Location:         in.Location,
		CommentsDisabled: in.CommentsDisabled,
	}
	media := make([]*postEntity.Media, len(in.MediaURLs))
	for i, url := range in.MediaURLs {
		media[i] = &postEntity.Media{
			ID:        uuid.Must(uuid.NewV4()),
			PostID:    p.ID,
			MediaType: in.MediaTypes[i],
			URL:       url,
			Position:  i,
		}
	}
	if err := s.PostRepository.Create(ctx, p, media); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.Logger.Info("Post created", zap.String("postID", p.ID.String()), zap.String("authorID", in.AuthorID))

	if err := s.FeedInvalidator.InvalidateFollowers(ctx, in.AuthorID); err != nil {
		s.Logger.Warn("Could not invalidate follower feeds", zap.String("authorID", in.AuthorID), zap.Error(err))
	}
	s.Cache.InvalidateUserProfile(ctx, in.AuthorID)

	evt := event.New(event.PostCreated, in.AuthorID)
	evt.TargetUserID = in.AuthorID
	evt.PostID = p.ID.String()
	s.publish(ctx, evt)

	return s.summary(ctx, p, media)
}

// GetPost returns post detail through the post cache. Liked is computed for
// the viewer on every call. Archived posts are visible to their author only.
func (s *PostService) GetPost(ctx context.Context, viewerID, postID string) (*postPort.PostSummary, error) {
	pid, err := parseID("post_id", postID)
	if err != nil {
		return nil, err
	}
	viewer := uuid.FromStringOrNil(viewerID)

	detail, ok := s.Cache.GetPostDetail(ctx, postID)
	if !ok {
		summaries, err := s.PostRepository.Summaries(ctx, []uuid.UUID{pid})
		if err != nil {
			return nil, fmt.Errorf("get post: %w", err)
		}
		if len(summaries) == 0 {
			return nil, fmt.Errorf("get post %s: %w", postID, apperr.ErrNotFound)
		}
		detail = summaries[0]
		s.Cache.SetPostDetail(ctx, detail)
	}
	if detail.IsArchived && detail.AuthorID != viewer.String() {
		return nil, fmt.Errorf("get post %s: %w", postID, apperr.ErrNotFound)
	}

	liked, err := s.LikeRepository.LikedPostIDs(ctx, viewer, []uuid.UUID{pid})
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	detail.Liked = liked[pid]
	return detail, nil
}

// LikePost is idempotent: liking twice succeeds and reports created=false.
func (s *PostService) LikePost(ctx context.Context, userID, postID string) (bool, error) {
	uid, p, err := s.loadForViewer(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	created, err := s.LikeRepository.Like(ctx, uid, p.ID)
	if err != nil {
		return false, fmt.Errorf("like post: %w", err)
	}
	if !created {
		return false, nil
	}
	s.Cache.InvalidatePostDetail(ctx, postID)

	evt := event.New(event.PostLiked, userID)
	evt.TargetUserID = p.AuthorID.String()
	evt.PostID = postID
	s.publish(ctx, evt)
	return true, nil
}

func (s *PostService) UnlikePost(ctx context.Context, userID, postID string) (bool, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return false, err
	}
	pid, err := parseID("post_id", postID)
	if err != nil {
		return false, err
	}
	deleted, err := s.LikeRepository.Unlike(ctx, uid, pid)
	if err != nil {
		return false, fmt.Errorf("unlike post: %w", err)
	}
	if deleted {
		s.Cache.InvalidatePostDetail(ctx, postID)
	}
	return deleted, nil
}

// ListLikers returns the users who liked a post the viewer can see.
func (s *PostService) ListLikers(ctx context.Context, viewerID, postID string, limit, offset int) ([]*userPort.UserDTO, error) {
	_, p, err := s.loadForViewer(ctx, viewerID, postID)
	if err != nil {
		return nil, err
	}
	limit, offset = page(limit, offset)
	ids, err := s.LikeRepository.LikerIDs(ctx, p.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list likers: %w", err)
	}
	users, err := s.UserRepository.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list likers: %w", err)
	}
	return userPort.OrderedDTOs(ids, users), nil
}

// SavePost bookmarks a post. Saving twice succeeds and reports created=false.
func (s *PostService) SavePost(ctx context.Context, userID, postID string) (bool, error) {
	uid, p, err := s.loadForViewer(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	created, err := s.SavedPostRepository.Save(ctx, uid, p.ID)
	if err != nil {
		return false, fmt.Errorf("save post: %w", err)
	}
	return created, nil
}

func (s *PostService) UnsavePost(ctx context.Context, userID, postID string) (bool, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return false, err
	}
	pid, err := parseID("post_id", postID)
	if err != nil {
		return false, err
	}
	removed, err := s.SavedPostRepository.Unsave(ctx, uid, pid)
	if err != nil {
		return false, fmt.Errorf("unsave post: %w", err)
	}
	return removed, nil
}

// ListSaved returns the user's bookmarks, most recently saved first. Posts
// archived by someone else since they were saved are left out.
func (s *PostService) ListSaved(ctx context.Context, userID string, limit, offset int) ([]*postPort.PostSummary, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}
	limit, offset = page(limit, offset)
	ids, err := s.SavedPostRepository.SavedPostIDs(ctx, uid, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list saved: %w", err)
	}
	summaries, err := s.PostRepository.Summaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list saved: %w", err)
	}
	liked, err := s.LikeRepository.LikedPostIDs(ctx, uid, ids)
	if err != nil {
		return nil, fmt.Errorf("list saved: %w", err)
	}

	byID := make(map[string]*postPort.PostSummary, len(summaries))
	for _, p := range summaries {
		byID[p.ID] = p
	}
	out := make([]*postPort.PostSummary, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id.String()]
		if !ok || (p.IsArchived && p.AuthorID != userID) {
			continue
		}
		p.Liked = liked[id]
		out = append(out, p)
	}
	return out, nil
}

func (s *PostService) ArchivePost(ctx context.Context, userID, postID string) error {
	return s.setArchived(ctx, userID, postID, true)
}

func (s *PostService) UnarchivePost(ctx context.Context, userID, postID string) error {
	return s.setArchived(ctx, userID, postID, false)
}

func (s *PostService) setArchived(ctx context.Context, userID, postID string, archived bool) error {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return err
	}
	pid, err := parseID("post_id", postID)
	if err != nil {
		return err
	}
	p, err := s.PostRepository.FindByID(ctx, pid)
	if err != nil {
		return fmt.Errorf("archive post: %w", err)
	}
	if p.AuthorID != uid {
		return fmt.Errorf("archive post %s: %w", postID, apperr.ErrForbidden)
	}
	if p.IsArchived == archived {
		return nil
	}
	if err := s.PostRepository.SetArchived(ctx, pid, archived); err != nil {
		return fmt.Errorf("archive post: %w", err)
	}

	s.Cache.InvalidatePostDetail(ctx, postID)
	s.Cache.InvalidateUserProfile(ctx, userID)
	if err := s.FeedInvalidator.InvalidateFollowers(ctx, userID); err != nil {
		s.Logger.Warn("Could not invalidate follower feeds", zap.String("authorID", userID), zap.Error(err))
	}
	return nil
}

// loadForViewer returns the post unless it is missing or archived.
func (s *PostService) loadForViewer(ctx context.Context, userID, postID string) (uuid.UUID, *postEntity.Post, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	pid, err := parseID("post_id", postID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	p, err := s.PostRepository.FindByID(ctx, pid)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("load post: %w", err)
	}
	if p.IsArchived && p.AuthorID != uid {
		return uuid.Nil, nil, fmt.Errorf("load post %s: %w", postID, apperr.ErrNotFound)
	}
	return uid, p, nil
}

func (s *PostService) summary(ctx context.Context, p *postEntity.Post, media []*postEntity.Media) (*postPort.PostSummary, error) {
	summaries, err := s.PostRepository.Summaries(ctx, []uuid.UUID{p.ID})
	if err == nil && len(summaries) == 1 {
		return summaries[0], nil
	}
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		s.Logger.Warn("Could not load summary of new post", zap.String("postID", p.ID.String()), zap.Error(err))
	}
	out := &postPort.PostSummary{
		ID:               p.ID.String(),
		AuthorID:         p.AuthorID.String(),
		Caption:          p.Caption,
		Location:         p.Location,
		Media:            make([]*postPort.MediaDTO, 0, len(media)),
		CommentsDisabled: p.CommentsDisabled,
		CreatedAt:        p.CreatedAt,
	}
	for _, m := range media {
		out.Media = append(out.Media, &postPort.MediaDTO{Type: m.MediaType, URL: m.URL, Position: m.Position})
	}
	return out, nil
}

func (s *PostService) publish(ctx context.Context, evt *event.DomainEvent) {
	if err := s.Publisher.Publish(ctx, evt.Type, evt); err != nil {
		s.Logger.Error("Event lost", zap.String("type", evt.Type), zap.String("eventID", evt.ID), zap.Error(err))
	}
}

func validatePost(in postPort.CreatePostInput) error {
	if utf8.RuneCountInString(in.Caption) > postEntity.MaxCaptionLength {
		return apperr.Invalid("caption", fmt.Sprintf("must be at most %d characters", postEntity.MaxCaptionLength))
	}
	if len(in.MediaURLs) != len(in.MediaTypes) {
		return apperr.Invalid("media", "media_urls and media_types must have the same length")
	}
	if len(in.MediaURLs) > postEntity.MaxMediaItems {
		return apperr.Invalid("media", fmt.Sprintf("at most %d items", postEntity.MaxMediaItems))
	}
	for i, url := range in.MediaURLs {
		if url == "" {
			return apperr.Invalid("media_urls", "must not be empty")
		}
		if t := in.MediaTypes[i]; t != postEntity.MediaImage && t != postEntity.MediaVideo {
			return apperr.Invalid("media_types", fmt.Sprintf("unknown media type %q", t))
		}
	}
	return nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, max(offset, 0)
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.FromString(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.Invalid(field, "must be a uuid")
	}
	return id, nil
}

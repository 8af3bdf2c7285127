package commentapp

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"instafeed/internal/core/apperr"
	"instafeed/internal/core/cachemanager"
	commentEntity "instafeed/internal/core/comment"
	"instafeed/internal/core/event"
	"instafeed/internal/core/post"
	commentPort "instafeed/internal/ports/comment"
	eventPort "instafeed/internal/ports/eventbus"
	postPort "instafeed/internal/ports/post"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

const maxPageSize = 100

type CommentService struct {
	CommentRepository commentPort.CommentRepository
	PostRepository    postPort.PostRepository
	Cache             *cachemanager.Manager
	Publisher         eventPort.Publisher
	Logger            *zap.Logger
}

func NewCommentService(
	commentRepo commentPort.CommentRepository,
	postRepo postPort.PostRepository,
	cache *cachemanager.Manager,
	publisher eventPort.Publisher,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{
		CommentRepository: commentRepo,
		PostRepository:    postRepo,
		Cache:             cache,
		Publisher:         publisher,
		Logger:            logger.Named("comment"),
	}
}

// CreateComment adds a top-level comment or a reply to one. Replies to
// replies are rejected.
func (s *CommentService) CreateComment(ctx context.Context, userID, postID, content, parentID string) (*commentPort.CommentDTO, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}
	pid, err := parseID("post_id", postID)
	if err != nil {
		return nil, err
	}
	content, err = validContent(content)
	if err != nil {
		return nil, err
	}

	p, err := s.PostRepository.FindByID(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if p.IsArchived && p.AuthorID != uid {
		return nil, fmt.Errorf("create comment on %s: %w", postID, apperr.ErrNotFound)
	}
	if p.CommentsDisabled {
		return nil, fmt.Errorf("comments are disabled on %s: %w", postID, apperr.ErrForbidden)
	}

	c := &commentEntity.Comment{
		ID:      uuid.Must(uuid.NewV4()),
		PostID:  pid,
		UserID:  uid,
		Content: content,
	}
	if parentID != "" {
		parent, err := s.parent(ctx, parentID, pid)
		if err != nil {
			return nil, err
		}
		c.ParentID = &parent.ID
	}

	if err := s.CommentRepository.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	s.Cache.InvalidatePostDetail(ctx, postID)

	evt := event.New(event.CommentCreated, userID)
	evt.TargetUserID = p.AuthorID.String()
	evt.PostID = postID
	evt.CommentID = c.ID.String()
	if err := s.Publisher.Publish(ctx, evt.Type, evt); err != nil {
		s.Logger.Error("Event lost", zap.String("type", evt.Type), zap.String("eventID", evt.ID), zap.Error(err))
	}

	dto := &commentPort.CommentDTO{
		ID:        c.ID.String(),
		PostID:    postID,
		UserID:    userID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
	if c.ParentID != nil {
		dto.ParentID = c.ParentID.String()
	}
	return dto, nil
}

func (s *CommentService) parent(ctx context.Context, parentID string, postID uuid.UUID) (*commentEntity.Comment, error) {
	id, err := parseID("parent_id", parentID)
	if err != nil {
		return nil, err
	}
	parent, err := s.CommentRepository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load parent comment: %w", err)
	}
	if parent.PostID != postID {
		return nil, apperr.Invalid("parent_id", "parent belongs to another post")
	}
	if parent.IsReply() {
		return nil, apperr.Invalid("parent_id", "cannot reply to a reply")
	}
	return parent, nil
}

// DeleteComment removes a comment with its replies. Only the comment author
// or the post author may delete.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID string) error {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return err
	}
	cid, err := parseID("comment_id", commentID)
	if err != nil {
		return err
	}
	c, err := s.CommentRepository.FindByID(ctx, cid)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if c.UserID != uid {
		p, err := s.PostRepository.FindByID(ctx, c.PostID)
		if err != nil {
			return fmt.Errorf("delete comment: %w", err)
		}
		if p.AuthorID != uid {
			return fmt.Errorf("delete comment %s: %w", commentID, apperr.ErrForbidden)
		}
	}

	removed, err := s.CommentRepository.Delete(ctx, c)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	s.Cache.InvalidatePostDetail(ctx, c.PostID.String())
	s.Logger.Debug("Comment deleted", zap.String("commentID", commentID), zap.Int64("removed", removed))
	return nil
}

// ListComments lists a post's comments oldest first. Comments of an archived
// post are visible to its author only.
func (s *CommentService) ListComments(ctx context.Context, viewerID, postID string, limit, offset int) ([]*commentPort.CommentDTO, error) {
	pid, err := parseID("post_id", postID)
	if err != nil {
		return nil, err
	}
	if _, err := s.visiblePost(ctx, viewerID, pid); err != nil {
		return nil, err
	}
	limit, offset = page(limit, offset)
	list, err := s.CommentRepository.ListByPost(ctx, pid, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return list, nil
}

func (s *CommentService) ListReplies(ctx context.Context, viewerID, commentID string, limit, offset int) ([]*commentPort.CommentDTO, error) {
	c, err := s.visibleComment(ctx, viewerID, commentID)
	if err != nil {
		return nil, err
	}
	limit, offset = page(limit, offset)
	list, err := s.CommentRepository.ListReplies(ctx, c.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return list, nil
}

// EditComment replaces the content. Only the comment author may edit.
func (s *CommentService) EditComment(ctx context.Context, userID, commentID, content string) (*commentPort.CommentDTO, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return nil, err
	}
	cid, err := parseID("comment_id", commentID)
	if err != nil {
		return nil, err
	}
	content, err = validContent(content)
	if err != nil {
		return nil, err
	}
	c, err := s.CommentRepository.FindByID(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("edit comment: %w", err)
	}
	if c.UserID != uid {
		return nil, fmt.Errorf("edit comment %s: %w", commentID, apperr.ErrForbidden)
	}
	if err := s.CommentRepository.UpdateContent(ctx, cid, content); err != nil {
		return nil, fmt.Errorf("edit comment: %w", err)
	}
	dto := &commentPort.CommentDTO{
		ID:         commentID,
		PostID:     c.PostID.String(),
		UserID:     userID,
		Content:    content,
		LikesCount: c.LikesCount,
		CreatedAt:  c.CreatedAt.UTC(),
	}
	if c.ParentID != nil {
		dto.ParentID = c.ParentID.String()
	}
	return dto, nil
}

// LikeComment is idempotent: liking twice succeeds and reports created=false.
func (s *CommentService) LikeComment(ctx context.Context, userID, commentID string) (bool, error) {
	c, err := s.visibleComment(ctx, userID, commentID)
	if err != nil {
		return false, err
	}
	created, err := s.CommentRepository.Like(ctx, uuid.FromStringOrNil(userID), c.ID)
	if err != nil {
		return false, fmt.Errorf("like comment: %w", err)
	}
	return created, nil
}

func (s *CommentService) UnlikeComment(ctx context.Context, userID, commentID string) (bool, error) {
	uid, err := parseID("user_id", userID)
	if err != nil {
		return false, err
	}
	cid, err := parseID("comment_id", commentID)
	if err != nil {
		return false, err
	}
	removed, err := s.CommentRepository.Unlike(ctx, uid, cid)
	if err != nil {
		return false, fmt.Errorf("unlike comment: %w", err)
	}
	return removed, nil
}

// visiblePost loads the post and hides it from everyone but its author once
// archived.
func (s *CommentService) visiblePost(ctx context.Context, viewerID string, postID uuid.UUID) (*post.Post, error) {
	viewer, err := parseID("user_id", viewerID)
	if err != nil {
		return nil, err
	}
	p, err := s.PostRepository.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if p.IsArchived && p.AuthorID != viewer {
		return nil, fmt.Errorf("load post %s: %w", postID, apperr.ErrNotFound)
	}
	return p, nil
}

func (s *CommentService) visibleComment(ctx context.Context, viewerID, commentID string) (*commentEntity.Comment, error) {
	cid, err := parseID("comment_id", commentID)
	if err != nil {
		return nil, err
	}
	c, err := s.CommentRepository.FindByID(ctx, cid)
	if err != nil {
		return nil, fmt.Errorf("load comment: %w", err)
	}
	if _, err := s.visiblePost(ctx, viewerID, c.PostID); err != nil {
		return nil, err
	}
	return c, nil
}

func validContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n == 0 || n > commentEntity.MaxContentLength {
		return "", apperr.Invalid("content", fmt.Sprintf("must be 1 to %d characters", commentEntity.MaxContentLength))
	}
	return content, nil
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

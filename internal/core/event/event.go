package event

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Topic names carried by the event bus.
const (
	PostCreated    = "post_created"
	PostLiked      = "post_liked"
	CommentCreated = "comment_created"
	FollowCreated  = "follow_created"
)

// Topics lists every topic the system publishes.
var Topics = []string{PostCreated, PostLiked, CommentCreated, FollowCreated}

// DomainEvent is an immutable fact appended to the bus. Consumers must treat
// delivery as at-least-once and possibly out of order.
type DomainEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	ActorID      string    `json:"actor_id"`
	TargetUserID string    `json:"target_user_id,omitempty"` // owner of the subject, or the followee
	PostID       string    `json:"post_id,omitempty"`
	CommentID    string    `json:"comment_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// New stamps a fresh event with a time-sortable id.
func New(topic, actorID string) *DomainEvent {
	now := time.Now().UTC()
	return &DomainEvent{
		ID:         ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Type:       topic,
		ActorID:    actorID,
		OccurredAt: now,
	}
}

// PartitionKey keeps events about the same recipient on one partition.
func (e *DomainEvent) PartitionKey() string {
	if e.TargetUserID != "" {
		return e.TargetUserID
	}
	return e.ActorID
}

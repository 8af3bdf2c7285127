package follower

import (
	"time"

	"github.com/gofrs/uuid"
)

// Follow is a directed edge: FollowerID follows FollowingID.
type Follow struct {
	ID          uuid.UUID `gorm:"primaryKey;type:char(36)"`
	FollowerID  uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uniq_follow_pair;index"`
	FollowingID uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:uniq_follow_pair;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

package outbox

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	StatusPending = "pending"
	StatusDone    = "done"
)

// Entry holds an event the bus refused at publish time. The relay worker
// republishes pending entries.
type Entry struct {
	ID          uuid.UUID  `gorm:"primaryKey;type:char(36)"`
	Topic       string     `gorm:"type:varchar(50);not null"`
	Key         string     `gorm:"type:varchar(64);not null"`
	Payload     []byte     `gorm:"not null"`
	Status      string     `gorm:"type:varchar(20);not null;index"` // pending, done
	Attempts    int        `gorm:"not null;default:0"`
	LastError   string     `gorm:"type:text"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index"`
	ProcessedAt *time.Time `gorm:"index"`
}

func (Entry) TableName() string { return "event_outbox" }

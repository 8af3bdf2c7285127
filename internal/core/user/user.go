package user

import (
	"time"

	"github.com/gofrs/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"primaryKey;type:char(36)"`
	Handle       string    `gorm:"type:varchar(30);uniqueIndex;not null"`
	Email        string    `gorm:"type:varchar(254);uniqueIndex;not null"`
	DisplayName  string    `gorm:"type:varchar(100);not null"`
	Bio          string    `gorm:"type:varchar(500)"`
	PasswordHash string    `gorm:"not null"`
	IsPrivate    bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// Stats are derived counts shown on a profile.
type Stats struct {
	Followers int64
	Following int64
	Posts     int64
}

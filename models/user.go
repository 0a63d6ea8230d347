package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an account that owns audio files. Accounts are provisioned
// out-of-band (see cmd/create_superuser); there is no registration endpoint.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Email       string    `gorm:"size:50;uniqueIndex;not null" json:"email"`
	IsSuperuser bool      `gorm:"default:false" json:"is_superuser"`

	AudioFiles []AudioFile `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (User) TableName() string { return "users" }

// BeforeCreate assigns the secondary identifier when the caller did not.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	return nil
}

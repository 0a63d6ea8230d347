package models

import "time"

// MaxNameLength caps the display name of an audio file (column is varchar(50)).
const MaxNameLength = 50

// AudioFile is the metadata row for one stored audio blob. The bytes live on
// disk at Path; the row is only committed after the bytes are in place.
type AudioFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	Path      string    `gorm:"size:512;not null" json:"path"`
}

func (AudioFile) TableName() string { return "audio_files" }

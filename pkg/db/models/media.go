package models

import (
	"time"

	"github.com/google/uuid"
)

// Media captures metadata for assets stored in Cloudinary. Exactly one of
// GameID/UserID is set (enforced by a table CHECK constraint).
type Media struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GameID       *uuid.UUID `gorm:"column:game_id;type:uuid;index:media_game_id_idx"`
	UserID       *uuid.UUID `gorm:"column:user_id;type:uuid;index:media_user_id_idx"`
	URL          string     `gorm:"column:url;not null"`
	PublicID     string     `gorm:"column:public_id;not null;unique"`
	Folder       string     `gorm:"column:folder;not null;index:media_folder_idx"`
	Format       string     `gorm:"column:format;not null;default:''"`
	ResourceType string     `gorm:"column:resource_type;not null;default:'image'"`
	FileName     string     `gorm:"column:file_name;not null"`
	SizeBytes    int64      `gorm:"column:size_bytes;not null"`
	Width        int        `gorm:"column:width;not null;default:0"`
	Height       int        `gorm:"column:height;not null;default:0"`
	AltText      *string    `gorm:"column:alt_text"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

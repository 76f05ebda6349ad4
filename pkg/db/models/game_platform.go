package models

import (
	"time"

	"github.com/google/uuid"
)

// GamePlatform tracks per-platform availability and stock for a game.
type GamePlatform struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GameID     uuid.UUID `gorm:"column:game_id;type:uuid;not null;uniqueIndex:game_platforms_game_platform_key"`
	PlatformID uuid.UUID `gorm:"column:platform_id;type:uuid;not null;uniqueIndex:game_platforms_game_platform_key"`
	Stock      int       `gorm:"column:stock;not null;default:0"`
	Platform   *Platform `gorm:"foreignKey:PlatformID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

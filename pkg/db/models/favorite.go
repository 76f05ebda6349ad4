package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite links a user to a game they marked as favorite.
type Favorite struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:favorites_user_id_idx;uniqueIndex:favorites_user_game_key"`
	GameID    uuid.UUID `gorm:"column:game_id;type:uuid;not null;index:favorites_game_id_idx;uniqueIndex:favorites_user_game_key"`
	Game      *Game     `gorm:"foreignKey:GameID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

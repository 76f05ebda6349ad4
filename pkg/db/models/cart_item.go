package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem links a user to a game they intend to buy. At most one row exists
// per (user, game); repeated adds fold into the quantity.
type CartItem struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index:cart_items_user_id_idx;uniqueIndex:cart_items_user_game_key"`
	GameID     uuid.UUID  `gorm:"column:game_id;type:uuid;not null;uniqueIndex:cart_items_user_game_key"`
	PlatformID *uuid.UUID `gorm:"column:platform_id;type:uuid"`
	Quantity   int        `gorm:"column:quantity;not null"`
	Game       *Game      `gorm:"foreignKey:GameID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

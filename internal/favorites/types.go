package favorites

import (
	"time"

	"github.com/google/uuid"

	"github.com/gamesage/gamesage-backend/internal/games"
)

// FavoriteItemDTO is a favorited game with the moment it was saved.
type FavoriteItemDTO struct {
	ID      uuid.UUID         `json:"id"`
	Game    games.GameSummary `json:"game"`
	SavedAt time.Time         `json:"saved_at"`
}

// FavoritesPageDTO is a cursor-paginated favorites view.
type FavoritesPageDTO struct {
	Items      []FavoriteItemDTO    `json:"items"`
	Pagination games.GamePagination `json:"pagination"`
}

// FavoriteStatusDTO reports whether a game is saved.
type FavoriteStatusDTO struct {
	GameID    uuid.UUID `json:"game_id"`
	Favorited bool      `json:"favorited"`
}

package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamesage/gamesage-backend/internal/games"
)

// CartItemDTO is a single cart row joined with its game summary.
type CartItemDTO struct {
	ID         uuid.UUID         `json:"id"`
	Game       games.GameSummary `json:"game"`
	PlatformID *uuid.UUID        `json:"platform_id,omitempty"`
	Quantity   int               `json:"quantity"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	LineTotal  decimal.Decimal   `json:"line_total"`
}

// CartDTO is the full cart view with decimal-summed totals.
type CartDTO struct {
	Items    []CartItemDTO   `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// AddToCartInput is the payload for adding a game to the cart.
type AddToCartInput struct {
	GameID     uuid.UUID  `json:"game_id" validate:"required"`
	PlatformID *uuid.UUID `json:"platform_id,omitempty"`
	Quantity   int        `json:"quantity" validate:"required,gte=1"`
}

// UpdateQuantityInput sets an exact quantity on an existing row.
type UpdateQuantityInput struct {
	Quantity int `json:"quantity" validate:"required,gte=1"`
}

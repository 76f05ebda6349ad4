package purchases

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamesage/gamesage-backend/internal/games"
	"github.com/gamesage/gamesage-backend/pkg/enums"
)

// PurchaseItemDTO is one snapshotted line of a purchase.
type PurchaseItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	GameID    *uuid.UUID      `json:"game_id,omitempty"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// PurchaseDTO is the full purchase view.
type PurchaseDTO struct {
	ID           uuid.UUID            `json:"id"`
	Status       enums.PurchaseStatus `json:"status"`
	Total        decimal.Decimal      `json:"total"`
	Items        []PurchaseItemDTO    `json:"items"`
	RefundReason *string              `json:"refund_reason,omitempty"`
	RefundedAt   *time.Time           `json:"refunded_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// PurchasesPageDTO is a cursor-paginated purchase history view.
type PurchasesPageDTO struct {
	Items      []PurchaseDTO        `json:"items"`
	Pagination games.GamePagination `json:"pagination"`
}

// CheckoutCartItemsInput selects cart rows to check out.
type CheckoutCartItemsInput struct {
	CartItemIDs []uuid.UUID `json:"cart_item_ids" validate:"required,min=1"`
}

// CheckoutGamesInput buys games directly, bypassing the cart.
type CheckoutGamesInput struct {
	GameIDs []uuid.UUID `json:"game_ids" validate:"required,min=1"`
}

// RefundInput carries the mandatory refund justification.
type RefundInput struct {
	Reason string `json:"reason" validate:"required"`
}

// ListFilters narrows purchase history queries.
type ListFilters struct {
	Status *enums.PurchaseStatus
	Cursor string
	Limit  int
}

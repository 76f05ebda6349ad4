package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service
// and by checkout.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	UpsertAdd(ctx context.Context, userID, gameID uuid.UUID, platformID *uuid.UUID, quantity int) (uuid.UUID, error)
	UpdateQuantity(ctx context.Context, userID, gameID uuid.UUID, quantity int) error
	Delete(ctx context.Context, userID, gameID uuid.UUID, platformID *uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	DeleteByIDs(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) error
	ListForCheckout(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]models.CartItem, error)
	ListByGameIDs(ctx context.Context, userID uuid.UUID, gameIDs []uuid.UUID) ([]models.CartItem, error)
	ListRows(ctx context.Context, userID uuid.UUID) ([]CartItemDTO, error)
}

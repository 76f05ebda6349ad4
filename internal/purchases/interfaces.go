package purchases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/pkg/db/models"
)

// PurchaseRepository defines the persistence surface required by the
// purchases service.
type PurchaseRepository interface {
	WithTx(tx *gorm.DB) PurchaseRepository
	Create(ctx context.Context, purchase *models.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	List(ctx context.Context, userID uuid.UUID, filters ListFilters) (PurchasesPageDTO, error)
	MarkRefunded(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gameLoader interface {
	FindForPurchase(ctx context.Context, id uuid.UUID) (*models.Game, error)
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamesage/gamesage-backend/pkg/enums"
)

// Purchase is an immutable record of a completed checkout. The only mutation
// it ever sees is the one-way transition to refunded.
type Purchase struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index:purchases_user_id_idx"`
	Status       enums.PurchaseStatus `gorm:"column:status;type:text;not null;default:'completed'"`
	Total        decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	RefundReason *string              `gorm:"column:refund_reason"`
	RefundedAt   *time.Time           `gorm:"column:refunded_at"`
	Items        []PurchaseItem       `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

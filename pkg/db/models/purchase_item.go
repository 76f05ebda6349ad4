package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseItem snapshots one line of a checkout. Title and unit price are
// copied from the game at purchase time and never change afterwards, so later
// catalog edits cannot rewrite purchase history. GameID is nullable to survive
// catalog deletions.
type PurchaseItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseID uuid.UUID       `gorm:"column:purchase_id;type:uuid;not null;index:purchase_items_purchase_id_idx"`
	GameID     *uuid.UUID      `gorm:"column:game_id;type:uuid"`
	Title      string          `gorm:"column:title;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	LineTotal  decimal.Decimal `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

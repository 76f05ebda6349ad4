package cart

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/internal/games"
	"github.com/gamesage/gamesage-backend/pkg/db/models"
)

// Repository encapsulates cart persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	return &Repository{db: tx}
}

// UpsertAdd inserts the cart row or folds the quantity into the existing one.
// The conflict target is the (user_id, game_id) unique key, so repeated adds
// for the same game accumulate regardless of platform choice.
func (r *Repository) UpsertAdd(ctx context.Context, userID, gameID uuid.UUID, platformID *uuid.UUID, quantity int) (uuid.UUID, error) {
	var row struct {
		ID uuid.UUID
	}
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO cart_items (user_id, game_id, platform_id, quantity)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, game_id)
		DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity,
			platform_id = COALESCE(EXCLUDED.platform_id, cart_items.platform_id),
			updated_at = NOW()
		RETURNING id`,
		userID, gameID, platformID, quantity,
	).Scan(&row).Error
	if err != nil {
		return uuid.Nil, err
	}
	return row.ID, nil
}

// UpdateQuantity sets an exact quantity on the user's row for a game.
// Returns gorm.ErrRecordNotFound when no such row exists.
func (r *Repository) UpdateQuantity(ctx context.Context, userID, gameID uuid.UUID, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the user's row for a game, optionally narrowed to a
// platform. Reports gorm.ErrRecordNotFound when absent.
func (r *Repository) Delete(ctx context.Context, userID, gameID uuid.UUID, platformID *uuid.UUID) error {
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", userID, gameID)
	if platformID != nil {
		query = query.Where("platform_id = ?", *platformID)
	}
	result := query.Delete(&models.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByUser clears every row for a user. No-op when the cart is empty.
func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.CartItem{}, "user_id = ?", userID).
		Error
}

// DeleteByIDs removes the consumed rows after checkout.
func (r *Repository) DeleteByIDs(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Delete(&models.CartItem{}, "user_id = ? AND id IN ?", userID, itemIDs).
		Error
}

// ListForCheckout loads the selected rows with their games preloaded.
func (r *Repository) ListForCheckout(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	query := r.db.WithContext(ctx).
		Preload("Game").
		Where("user_id = ?", userID)
	if len(itemIDs) > 0 {
		query = query.Where("id IN ?", itemIDs)
	}
	err := query.Order("created_at DESC").Find(&items).Error
	return items, err
}

// ListByGameIDs loads the user's rows for the given games.
func (r *Repository) ListByGameIDs(ctx context.Context, userID uuid.UUID, gameIDs []uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Game").
		Where("user_id = ? AND game_id IN ?", userID, gameIDs).
		Order("created_at DESC").
		Find(&items).
		Error
	return items, err
}

// ListRows returns the user's cart newest-first, each row joined with its
// game summary projection.
func (r *Repository) ListRows(ctx context.Context, userID uuid.UUID) ([]CartItemDTO, error) {
	var records []cartRowRecord
	err := r.db.WithContext(ctx).
		Table("cart_items ci").
		Select(`ci.id AS cart_item_id, ci.platform_id, ci.quantity,
			g.id, g.title, g.slug, g.price, g.sale_price, g.on_sale, g.rating,
			g.created_at, g.updated_at, gm_thumb.thumbnail_url`).
		Joins("JOIN games g ON g.id = ci.game_id").
		Joins(`LEFT JOIN LATERAL (
			SELECT m.url AS thumbnail_url
			FROM media m
			WHERE m.game_id = g.id
			ORDER BY m.created_at ASC
			LIMIT 1
		) gm_thumb ON true`).
		Where("ci.user_id = ?", userID).
		Order("ci.created_at DESC").
		Scan(&records).
		Error
	if err != nil {
		return nil, err
	}

	rows := make([]CartItemDTO, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.toDTO())
	}
	return rows, nil
}

type cartRowRecord struct {
	CartItemID   uuid.UUID           `gorm:"column:cart_item_id"`
	PlatformID   *uuid.UUID          `gorm:"column:platform_id"`
	Quantity     int                 `gorm:"column:quantity"`
	ID           uuid.UUID           `gorm:"column:id"`
	Title        string              `gorm:"column:title"`
	Slug         string              `gorm:"column:slug"`
	Price        decimal.Decimal     `gorm:"column:price"`
	SalePrice    decimal.NullDecimal `gorm:"column:sale_price"`
	OnSale       bool                `gorm:"column:on_sale"`
	Rating       float64             `gorm:"column:rating"`
	CreatedAt    time.Time           `gorm:"column:created_at"`
	UpdatedAt    time.Time           `gorm:"column:updated_at"`
	ThumbnailURL sql.NullString      `gorm:"column:thumbnail_url"`
}

func (r cartRowRecord) toDTO() CartItemDTO {
	summary := games.GameSummary{
		ID:        r.ID,
		Title:     r.Title,
		Slug:      r.Slug,
		Price:     r.Price,
		OnSale:    r.OnSale,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.SalePrice.Valid {
		v := r.SalePrice.Decimal
		summary.SalePrice = &v
	}
	if r.ThumbnailURL.Valid {
		v := r.ThumbnailURL.String
		summary.ThumbnailURL = &v
	}

	unit := summary.EffectivePrice()
	return CartItemDTO{
		ID:         r.CartItemID,
		Game:       summary,
		PlatformID: r.PlatformID,
		Quantity:   r.Quantity,
		UnitPrice:  unit,
		LineTotal:  unit.Mul(decimal.NewFromInt(int64(r.Quantity))),
	}
}

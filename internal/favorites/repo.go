package favorites

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/internal/games"
	"github.com/gamesage/gamesage-backend/pkg/db/models"
	"github.com/gamesage/gamesage-backend/pkg/pagination"
)

// Repository encapsulates favorites persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a favorite and ignores duplicates.
func (r *Repository) AddItem(ctx context.Context, userID, gameID uuid.UUID) error {
	if userID == uuid.Nil || gameID == uuid.Nil {
		return gorm.ErrInvalidValue
	}

	return r.db.WithContext(ctx).
		Exec(`INSERT INTO favorites (user_id, game_id) VALUES (?, ?) ON CONFLICT (user_id, game_id) DO NOTHING`, userID, gameID).
		Error
}

// RemoveItem deletes the favorite if it exists.
func (r *Repository) RemoveItem(ctx context.Context, userID, gameID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Delete(&models.Favorite{}).
		Error
}

// Exists reports whether the user has favorited the game.
func (r *Repository) Exists(ctx context.Context, userID, gameID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND game_id = ?", userID, gameID).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListItems returns a paginated, newest-first list of favorited games.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID, cursor string, limit int) (FavoritesPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)
	cursorValue := strings.TrimSpace(cursor)
	decodedCursor, err := pagination.ParseCursor(cursorValue)
	if err != nil {
		return FavoritesPageDTO{}, err
	}

	selectColumns := []string{
		"f.id AS favorite_id",
		"f.created_at AS favorite_created_at",
		"g.id AS game_id",
		"g.title",
		"g.slug",
		"g.price",
		"g.sale_price",
		"g.on_sale",
		"g.rating",
		"g.created_at AS game_created_at",
		"g.updated_at AS game_updated_at",
		"gm_thumb.thumbnail_url AS thumbnail_url",
	}

	dataQuery := r.db.WithContext(ctx).
		Table("favorites f").
		Select(strings.Join(selectColumns, ", ")).
		Joins("JOIN games g ON g.id = f.game_id").
		Joins(`LEFT JOIN LATERAL (
  SELECT m.url AS thumbnail_url
  FROM media m
  WHERE m.game_id = g.id
  ORDER BY m.created_at ASC
  LIMIT 1
) gm_thumb ON true`).
		Where("f.user_id = ?", userID)

	if decodedCursor != nil {
		dataQuery = dataQuery.Where("(f.created_at < ?) OR (f.created_at = ? AND f.id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	dataQuery = dataQuery.Order("f.created_at DESC").Order("f.id DESC").Limit(limitWithBuffer)

	var records []favoriteGameRecord
	if err := dataQuery.Scan(&records).Error; err != nil {
		return FavoritesPageDTO{}, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > normalizedLimit {
		resultRows = records[:normalizedLimit]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.FavoriteCreatedAt,
			ID:        last.FavoriteID,
		})
	}

	items := make([]FavoriteItemDTO, 0, len(resultRows))
	for _, record := range resultRows {
		items = append(items, record.toDTO())
	}

	totalCount, err := r.countFavorites(ctx, userID)
	if err != nil {
		return FavoritesPageDTO{}, err
	}
	firstCursor, err := r.fetchBoundaryCursor(ctx, userID, true)
	if err != nil {
		return FavoritesPageDTO{}, err
	}
	lastCursor, err := r.fetchBoundaryCursor(ctx, userID, false)
	if err != nil {
		return FavoritesPageDTO{}, err
	}

	prevCursor := ""
	if cursorValue != "" {
		prevCursor = cursorValue
	}

	return FavoritesPageDTO{
		Items: items,
		Pagination: games.GamePagination{
			Total:   int(totalCount),
			Current: cursorValue,
			First:   firstCursor,
			Last:    lastCursor,
			Prev:    prevCursor,
			Next:    nextCursor,
		},
	}, nil
}

func (r *Repository) countFavorites(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ?", userID).
		Count(&count).
		Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) fetchBoundaryCursor(ctx context.Context, userID uuid.UUID, ascending bool) (string, error) {
	order := "created_at DESC, id DESC"
	if ascending {
		order = "created_at ASC, id ASC"
	}

	var row struct {
		CreatedAt time.Time
		ID        uuid.UUID
	}

	query := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Select("created_at", "id").
		Where("user_id = ?", userID).
		Order(order).
		Limit(1)

	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	return pagination.EncodeCursor(pagination.Cursor{
		CreatedAt: row.CreatedAt,
		ID:        row.ID,
	}), nil
}

type favoriteGameRecord struct {
	FavoriteID        uuid.UUID           `gorm:"column:favorite_id"`
	FavoriteCreatedAt time.Time           `gorm:"column:favorite_created_at"`
	GameID            uuid.UUID           `gorm:"column:game_id"`
	Title             string              `gorm:"column:title"`
	Slug              string              `gorm:"column:slug"`
	Price             decimal.Decimal     `gorm:"column:price"`
	SalePrice         decimal.NullDecimal `gorm:"column:sale_price"`
	OnSale            bool                `gorm:"column:on_sale"`
	Rating            float64             `gorm:"column:rating"`
	GameCreatedAt     time.Time           `gorm:"column:game_created_at"`
	GameUpdatedAt     time.Time           `gorm:"column:game_updated_at"`
	ThumbnailURL      sql.NullString      `gorm:"column:thumbnail_url"`
}

func (r favoriteGameRecord) toDTO() FavoriteItemDTO {
	summary := games.GameSummary{
		ID:        r.GameID,
		Title:     r.Title,
		Slug:      r.Slug,
		Price:     r.Price,
		OnSale:    r.OnSale,
		Rating:    r.Rating,
		CreatedAt: r.GameCreatedAt,
		UpdatedAt: r.GameUpdatedAt,
	}
	if r.SalePrice.Valid {
		v := r.SalePrice.Decimal
		summary.SalePrice = &v
	}
	if r.ThumbnailURL.Valid {
		v := r.ThumbnailURL.String
		summary.ThumbnailURL = &v
	}
	return FavoriteItemDTO{
		ID:      r.FavoriteID,
		Game:    summary,
		SavedAt: r.FavoriteCreatedAt,
	}
}

package games

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/pkg/db/models"
	"github.com/gamesage/gamesage-backend/pkg/pagination"
)

// effectivePriceExpr resolves the charged price inside SQL filters so sale
// pricing is honored by min/max bounds.
const effectivePriceExpr = "(CASE WHEN g.on_sale AND g.sale_price IS NOT NULL THEN g.sale_price ELSE g.price END)"

const thumbnailJoin = `LEFT JOIN LATERAL (
  SELECT m.url AS thumbnail_url
  FROM media m
  WHERE m.game_id = g.id
  ORDER BY m.created_at ASC
  LIMIT 1
) gm_thumb ON true`

// Repository encapsulates catalog persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the full listing with its associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).
		Preload("Developer").
		Preload("Publisher").
		Preload("Genres").
		Preload("Platforms.Platform").
		Preload("Media").
		First(&game, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// FindForPurchase loads only the pricing fields needed at checkout.
func (r *Repository) FindForPurchase(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).
		Select("id", "title", "price", "sale_price", "on_sale", "refundable", "is_active").
		First(&game, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// FindSummaryByID returns the list projection for a single game.
func (r *Repository) FindSummaryByID(ctx context.Context, id uuid.UUID) (*GameSummary, error) {
	var record gameSummaryRecord
	err := r.db.WithContext(ctx).
		Table("games g").
		Select(summarySelect()).
		Joins(thumbnailJoin).
		Where("g.id = ?", id).
		Take(&record).
		Error
	if err != nil {
		return nil, err
	}
	summary := record.toSummary()
	return &summary, nil
}

// List returns a cursor-paginated page of active listings matching filters.
func (r *Repository) List(ctx context.Context, filters ListFilters) (GamesPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(filters.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(filters.Limit)
	cursorValue := strings.TrimSpace(filters.Cursor)
	decodedCursor, err := pagination.ParseCursor(cursorValue)
	if err != nil {
		return GamesPageDTO{}, err
	}

	dataQuery := r.filteredQuery(ctx, filters).
		Select(summarySelect()).
		Joins(thumbnailJoin)

	if decodedCursor != nil {
		dataQuery = dataQuery.Where("(g.created_at < ?) OR (g.created_at = ? AND g.id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	dataQuery = dataQuery.Order("g.created_at DESC").Order("g.id DESC").Limit(limitWithBuffer)

	var records []gameSummaryRecord
	if err := dataQuery.Scan(&records).Error; err != nil {
		return GamesPageDTO{}, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > normalizedLimit {
		resultRows = records[:normalizedLimit]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	items := make([]GameSummary, 0, len(resultRows))
	for _, record := range resultRows {
		items = append(items, record.toSummary())
	}

	var total int64
	if err := r.filteredQuery(ctx, filters).Count(&total).Error; err != nil {
		return GamesPageDTO{}, err
	}
	firstCursor, err := r.fetchBoundaryCursor(ctx, filters, true)
	if err != nil {
		return GamesPageDTO{}, err
	}
	lastCursor, err := r.fetchBoundaryCursor(ctx, filters, false)
	if err != nil {
		return GamesPageDTO{}, err
	}

	prevCursor := ""
	if cursorValue != "" {
		prevCursor = cursorValue
	}

	return GamesPageDTO{
		Items: items,
		Pagination: GamePagination{
			Total:   int(total),
			Current: cursorValue,
			First:   firstCursor,
			Last:    lastCursor,
			Prev:    prevCursor,
			Next:    nextCursor,
		},
	}, nil
}

func (r *Repository) fetchBoundaryCursor(ctx context.Context, filters ListFilters, ascending bool) (string, error) {
	order := "g.created_at DESC, g.id DESC"
	if ascending {
		order = "g.created_at ASC, g.id ASC"
	}

	var row struct {
		CreatedAt time.Time
		ID        uuid.UUID
	}

	query := r.filteredQuery(ctx, filters).
		Select("g.created_at", "g.id").
		Order(order).
		Limit(1)

	if err := query.Take(&row).Error; err != nil {
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

// SearchSummaries finds active listings whose title, description, or tags
// match the query. Used by the chat assistant's catalog tool.
func (r *Repository) SearchSummaries(ctx context.Context, query string, limit int) ([]GameSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	like := "%" + query + "%"

	var records []gameSummaryRecord
	err := r.db.WithContext(ctx).
		Table("games g").
		Select(summarySelect()).
		Joins(thumbnailJoin).
		Where("g.is_active = true").
		Where("g.title ILIKE ? OR g.description ILIKE ? OR EXISTS (SELECT 1 FROM unnest(g.tags) t WHERE t ILIKE ?)", like, like, like).
		Order("g.rating DESC").
		Order("g.created_at DESC").
		Limit(limit).
		Scan(&records).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]GameSummary, 0, len(records))
	for _, record := range records {
		items = append(items, record.toSummary())
	}
	return items, nil
}

// Create persists the listing with its genre and platform associations.
func (r *Repository) Create(ctx context.Context, game *models.Game) error {
	return r.db.WithContext(ctx).Create(game).Error
}

// Update applies the column updates and returns the refreshed row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceGenres resets the genre associations for a listing.
func (r *Repository) ReplaceGenres(ctx context.Context, gameID uuid.UUID, genreIDs []uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec(`DELETE FROM game_genres WHERE game_id = ?`, gameID).Error; err != nil {
		return err
	}
	for _, genreID := range genreIDs {
		if err := db.Exec(`INSERT INTO game_genres (game_id, genre_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, gameID, genreID).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the listing; dependent rows cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Game{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountBySlugPrefix supports slug disambiguation on create.
func (r *Repository) CountBySlugPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("slug = ? OR slug LIKE ?", prefix, prefix+"-%").
		Count(&count).
		Error
	return count, err
}

func (r *Repository) filteredQuery(ctx context.Context, filters ListFilters) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("games g").
		Where("g.is_active = true")

	if title := strings.TrimSpace(filters.Title); title != "" {
		query = query.Where("g.title ILIKE ?", "%"+title+"%")
	}
	if filters.MinPrice != nil {
		query = query.Where(effectivePriceExpr+" >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where(effectivePriceExpr+" <= ?", *filters.MaxPrice)
	}
	if filters.OnSale != nil {
		query = query.Where("g.on_sale = ?", *filters.OnSale)
	}
	if genre := strings.TrimSpace(filters.GenreSlug); genre != "" {
		query = query.Where(`EXISTS (
  SELECT 1 FROM game_genres gg JOIN genres ge ON ge.id = gg.genre_id
  WHERE gg.game_id = g.id AND ge.slug = ?)`, genre)
	}
	if platform := strings.TrimSpace(filters.PlatformSlug); platform != "" {
		query = query.Where(`EXISTS (
  SELECT 1 FROM game_platforms gp JOIN platforms pl ON pl.id = gp.platform_id
  WHERE gp.game_id = g.id AND pl.slug = ?)`, platform)
	}
	return query
}

func summarySelect() string {
	return strings.Join([]string{
		"g.id",
		"g.title",
		"g.slug",
		"g.price",
		"g.sale_price",
		"g.on_sale",
		"g.rating",
		"g.created_at",
		"g.updated_at",
		"gm_thumb.thumbnail_url AS thumbnail_url",
	}, ", ")
}

type gameSummaryRecord struct {
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

func (r gameSummaryRecord) toSummary() GameSummary {
	summary := GameSummary{
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
	return summary
}

package purchases

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/internal/games"
	"github.com/gamesage/gamesage-backend/pkg/db/models"
	"github.com/gamesage/gamesage-backend/pkg/enums"
	"github.com/gamesage/gamesage-backend/pkg/pagination"
)

// Repository encapsulates purchase persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a purchases repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) PurchaseRepository {
	return &Repository{db: tx}
}

// Create persists a purchase together with its snapshotted items.
func (r *Repository) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

// FindByID loads a purchase with its items regardless of owner.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&purchase, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// List returns a cursor-paginated, newest-first history for a user.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, filters ListFilters) (PurchasesPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(filters.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(filters.Limit)
	cursorValue := strings.TrimSpace(filters.Cursor)
	decodedCursor, err := pagination.ParseCursor(cursorValue)
	if err != nil {
		return PurchasesPageDTO{}, err
	}

	query := r.scopedQuery(ctx, userID, filters).Preload("Items")
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}
	query = query.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer)

	var records []models.Purchase
	if err := query.Find(&records).Error; err != nil {
		return PurchasesPageDTO{}, err
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

	items := make([]PurchaseDTO, 0, len(resultRows))
	for _, record := range resultRows {
		items = append(items, toPurchaseDTO(&record))
	}

	var total int64
	if err := r.scopedQuery(ctx, userID, filters).Count(&total).Error; err != nil {
		return PurchasesPageDTO{}, err
	}

	prevCursor := ""
	if cursorValue != "" {
		prevCursor = cursorValue
	}

	return PurchasesPageDTO{
		Items: items,
		Pagination: games.GamePagination{
			Total:   int(total),
			Current: cursorValue,
			Prev:    prevCursor,
			Next:    nextCursor,
		},
	}, nil
}

// MarkRefunded flips a completed purchase to refunded. The status guard in
// the WHERE clause makes concurrent refunds settle to exactly one winner.
// Returns gorm.ErrRecordNotFound when no completed row matched.
func (r *Repository) MarkRefunded(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ? AND status = ?", id, enums.PurchaseStatusCompleted).
		Updates(map[string]any{
			"status":        enums.PurchaseStatusRefunded,
			"refund_reason": reason,
			"refunded_at":   at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) scopedQuery(ctx context.Context, userID uuid.UUID, filters ListFilters) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("user_id = ?", userID)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	return query
}

func toPurchaseDTO(purchase *models.Purchase) PurchaseDTO {
	dto := PurchaseDTO{
		ID:           purchase.ID,
		Status:       purchase.Status,
		Total:        purchase.Total,
		RefundReason: purchase.RefundReason,
		RefundedAt:   purchase.RefundedAt,
		CreatedAt:    purchase.CreatedAt,
		Items:        make([]PurchaseItemDTO, 0, len(purchase.Items)),
	}
	for _, item := range purchase.Items {
		dto.Items = append(dto.Items, PurchaseItemDTO{
			ID:        item.ID,
			GameID:    item.GameID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	return dto
}

package media

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/pkg/db/models"
)

// Repository encapsulates media metadata persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a media repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists the asset metadata row.
func (r *Repository) Create(ctx context.Context, media *models.Media) error {
	return r.db.WithContext(ctx).Create(media).Error
}

// FindByID loads one asset row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	var media models.Media
	err := r.db.WithContext(ctx).First(&media, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &media, nil
}

// Update applies column updates and reports missing rows.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Media{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the metadata row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Media{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByOwner returns the owner's assets oldest-first, matching display order.
func (r *Repository) ListByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) ([]models.Media, error) {
	column := "game_id"
	if ownerType == "user" {
		column = "user_id"
	}

	var rows []models.Media
	err := r.db.WithContext(ctx).
		Where(column+" = ?", ownerID).
		Order("created_at ASC").
		Find(&rows).
		Error
	return rows, err
}

// CountInFolder reports how many local rows still reference a folder.
func (r *Repository) CountInFolder(ctx context.Context, folder string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Media{}).
		Where("folder = ?", folder).
		Count(&count).
		Error
	return count, err
}

// DistinctFolders lists every folder referenced by at least one local row.
func (r *Repository) DistinctFolders(ctx context.Context) ([]string, error) {
	var folders []string
	err := r.db.WithContext(ctx).
		Model(&models.Media{}).
		Distinct("folder").
		Order("folder ASC").
		Pluck("folder", &folders).
		Error
	return folders, err
}

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/pkg/config"
	"github.com/gamesage/gamesage-backend/pkg/db/models"
	"github.com/gamesage/gamesage-backend/pkg/enums"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
	"github.com/gamesage/gamesage-backend/pkg/logger"
	"github.com/gamesage/gamesage-backend/pkg/slug"
	"github.com/gamesage/gamesage-backend/pkg/storage/cloudinary"
)

type mediaRepository interface {
	Create(ctx context.Context, media *models.Media) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerType string, ownerID uuid.UUID) ([]models.Media, error)
	CountInFolder(ctx context.Context, folder string) (int64, error)
}

type storageClient interface {
	Upload(ctx context.Context, params cloudinary.UploadParams) (*cloudinary.UploadResult, error)
	Destroy(ctx context.Context, publicID, resourceType string) error
	Rename(ctx context.Context, fromPublicID, toPublicID, resourceType string) (*cloudinary.UploadResult, error)
	DeleteFolder(ctx context.Context, folder string) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type gameLoader interface {
	FindForPurchase(ctx context.Context, id uuid.UUID) (*models.Game, error)
}

// ServiceParams groups dependencies for the media service.
type ServiceParams struct {
	MediaRepo mediaRepository
	Storage   storageClient
	UserRepo  userLoader
	GameRepo  gameLoader
	Config    config.MediaConfig
	Logger    *logger.Logger
}

// Service orchestrates asset uploads against Cloudinary and local metadata.
type Service interface {
	Upload(ctx context.Context, input UploadInput) (MediaDTO, error)
	Update(ctx context.Context, mediaID uuid.UUID, input UpdateInput) (MediaDTO, error)
	Delete(ctx context.Context, mediaID uuid.UUID) error
	Get(ctx context.Context, mediaID uuid.UUID) (MediaDTO, error)
	ListForOwner(ctx context.Context, ownerType enums.MediaOwnerType, ownerID uuid.UUID) ([]MediaDTO, error)
}

type service struct {
	mediaRepo mediaRepository
	storage   storageClient
	userRepo  userLoader
	gameRepo  gameLoader
	cfg       config.MediaConfig
	logg      *logger.Logger
}

// NewService builds the media service.
func NewService(params ServiceParams) (Service, error) {
	if params.MediaRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media repo is required")
	}
	if params.Storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage client is required")
	}
	if params.UserRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	if params.GameRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{
		mediaRepo: params.MediaRepo,
		storage:   params.Storage,
		userRepo:  params.UserRepo,
		gameRepo:  params.GameRepo,
		cfg:       params.Config,
		logg:      params.Logger,
	}, nil
}

// Upload pushes a new asset to Cloudinary and records its metadata. If the
// metadata insert fails, the uploaded asset is destroyed best-effort so the
// external store does not accumulate orphans.
func (s *service) Upload(ctx context.Context, input UploadInput) (MediaDTO, error) {
	if err := s.validateFile(input.FileName, input.ContentType, input.SizeBytes, input.Body); err != nil {
		return MediaDTO{}, err
	}
	folder, err := s.resolveOwnerFolder(ctx, input.OwnerType, input.OwnerID)
	if err != nil {
		return MediaDTO{}, err
	}

	result, err := s.storage.Upload(ctx, cloudinary.UploadParams{
		Folder:       folder,
		PublicID:     uuid.NewString(),
		FileName:     input.FileName,
		ResourceType: resourceTypeFor(input.ContentType),
		Body:         input.Body,
	})
	if err != nil {
		return MediaDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload asset")
	}

	row := &models.Media{
		URL:          result.URL,
		PublicID:     result.PublicID,
		Folder:       folder,
		Format:       result.Format,
		ResourceType: result.ResourceType,
		FileName:     input.FileName,
		SizeBytes:    result.Bytes,
		Width:        result.Width,
		Height:       result.Height,
		AltText:      input.AltText,
	}
	if input.OwnerType == enums.MediaOwnerTypeGame {
		row.GameID = &input.OwnerID
	} else {
		row.UserID = &input.OwnerID
	}

	if err := s.mediaRepo.Create(ctx, row); err != nil {
		if destroyErr := s.storage.Destroy(ctx, result.PublicID, result.ResourceType); destroyErr != nil {
			s.logg.Error(ctx, "destroy orphaned upload", destroyErr)
		}
		return MediaDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist media metadata")
	}
	return toMediaDTO(row), nil
}

// Update replaces the file when one is supplied, uploading it into the
// (possibly new) target owner's folder; without a file an owner change is a
// rename; otherwise only metadata is touched.
func (s *service) Update(ctx context.Context, mediaID uuid.UUID, input UpdateInput) (MediaDTO, error) {
	row, err := s.loadRow(ctx, mediaID)
	if err != nil {
		return MediaDTO{}, err
	}

	switch {
	case input.Body != nil:
		return s.replaceFile(ctx, row, input)
	case input.NewOwnerType != nil || input.NewOwnerID != nil:
		return s.moveOwner(ctx, row, input)
	default:
		return s.updateMetadata(ctx, row, input)
	}
}

// Delete destroys the external asset best-effort, removes the metadata row,
// and prunes the folder when it was the last asset in it.
func (s *service) Delete(ctx context.Context, mediaID uuid.UUID) error {
	row, err := s.loadRow(ctx, mediaID)
	if err != nil {
		return err
	}

	var cleanupErr error
	if err := s.storage.Destroy(ctx, row.PublicID, row.ResourceType); err != nil && !errors.Is(err, cloudinary.ErrNotFound) {
		cleanupErr = multierr.Append(cleanupErr, fmt.Errorf("destroy asset: %w", err))
	}

	if err := s.mediaRepo.Delete(ctx, mediaID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "media not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete media metadata")
	}

	cleanupErr = multierr.Append(cleanupErr, s.pruneFolder(ctx, row.Folder))
	if cleanupErr != nil {
		s.logg.Error(ctx, "media delete cleanup", cleanupErr)
	}
	return nil
}

// Get loads one asset.
func (s *service) Get(ctx context.Context, mediaID uuid.UUID) (MediaDTO, error) {
	row, err := s.loadRow(ctx, mediaID)
	if err != nil {
		return MediaDTO{}, err
	}
	return toMediaDTO(row), nil
}

// ListForOwner returns all assets attached to a user or game.
func (s *service) ListForOwner(ctx context.Context, ownerType enums.MediaOwnerType, ownerID uuid.UUID) ([]MediaDTO, error) {
	if !ownerType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid owner type")
	}
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	rows, err := s.mediaRepo.ListByOwner(ctx, ownerType.String(), ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list media")
	}
	out := make([]MediaDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toMediaDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) replaceFile(ctx context.Context, row *models.Media, input UpdateInput) (MediaDTO, error) {
	if err := s.validateFile(input.FileName, input.ContentType, input.SizeBytes, input.Body); err != nil {
		return MediaDTO{}, err
	}

	targetFolder := row.Folder
	ownerUpdates := map[string]any{}
	if input.NewOwnerType != nil || input.NewOwnerID != nil {
		if input.NewOwnerType == nil || input.NewOwnerID == nil {
			return MediaDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "owner type and owner id are both required for a move")
		}
		folder, err := s.resolveOwnerFolder(ctx, *input.NewOwnerType, *input.NewOwnerID)
		if err != nil {
			return MediaDTO{}, err
		}
		targetFolder = folder
		ownerUpdates["game_id"] = nil
		ownerUpdates["user_id"] = nil
		if *input.NewOwnerType == enums.MediaOwnerTypeGame {
			ownerUpdates["game_id"] = *input.NewOwnerID
		} else {
			ownerUpdates["user_id"] = *input.NewOwnerID
		}
	}

	if err := s.storage.Destroy(ctx, row.PublicID, row.ResourceType); err != nil && !errors.Is(err, cloudinary.ErrNotFound) {
		s.logg.Error(ctx, "destroy replaced asset", err)
	}

	result, err := s.storage.Upload(ctx, cloudinary.UploadParams{
		Folder:       targetFolder,
		PublicID:     uuid.NewString(),
		FileName:     input.FileName,
		ResourceType: resourceTypeFor(input.ContentType),
		Body:         input.Body,
	})
	if err != nil {
		return MediaDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload replacement asset")
	}

	updates := map[string]any{
		"url":           result.URL,
		"public_id":     result.PublicID,
		"folder":        targetFolder,
		"format":        result.Format,
		"resource_type": result.ResourceType,
		"file_name":     input.FileName,
		"size_bytes":    result.Bytes,
		"width":         result.Width,
		"height":        result.Height,
	}
	for column, value := range ownerUpdates {
		updates[column] = value
	}
	if input.AltText != nil {
		updates["alt_text"] = *input.AltText
	}

	dto, err := s.applyUpdates(ctx, row.ID, updates)
	if err != nil {
		return MediaDTO{}, err
	}

	if targetFolder != row.Folder {
		if pruneErr := s.pruneFolder(ctx, row.Folder); pruneErr != nil {
			s.logg.Error(ctx, "prune vacated folder", pruneErr)
		}
	}
	return dto, nil
}

func (s *service) moveOwner(ctx context.Context, row *models.Media, input UpdateInput) (MediaDTO, error) {
	if input.NewOwnerType == nil || input.NewOwnerID == nil {
		return MediaDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "owner type and owner id are both required for a move")
	}

	oldFolder := row.Folder
	newFolder, err := s.resolveOwnerFolder(ctx, *input.NewOwnerType, *input.NewOwnerID)
	if err != nil {
		return MediaDTO{}, err
	}

	toPublicID := newFolder + "/" + lastSegment(row.PublicID)
	result, err := s.storage.Rename(ctx, row.PublicID, toPublicID, row.ResourceType)
	if err != nil {
		return MediaDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "move asset")
	}

	updates := map[string]any{
		"url":       result.URL,
		"public_id": result.PublicID,
		"folder":    newFolder,
		"game_id":   nil,
		"user_id":   nil,
	}
	if *input.NewOwnerType == enums.MediaOwnerTypeGame {
		updates["game_id"] = *input.NewOwnerID
	} else {
		updates["user_id"] = *input.NewOwnerID
	}
	if input.AltText != nil {
		updates["alt_text"] = *input.AltText
	}

	dto, err := s.applyUpdates(ctx, row.ID, updates)
	if err != nil {
		return MediaDTO{}, err
	}

	if oldFolder != newFolder {
		if pruneErr := s.pruneFolder(ctx, oldFolder); pruneErr != nil {
			s.logg.Error(ctx, "prune vacated folder", pruneErr)
		}
	}
	return dto, nil
}

func (s *service) updateMetadata(ctx context.Context, row *models.Media, input UpdateInput) (MediaDTO, error) {
	if input.AltText == nil {
		return toMediaDTO(row), nil
	}
	return s.applyUpdates(ctx, row.ID, map[string]any{"alt_text": *input.AltText})
}

func (s *service) applyUpdates(ctx context.Context, id uuid.UUID, updates map[string]any) (MediaDTO, error) {
	if err := s.mediaRepo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MediaDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "media not found")
		}
		return MediaDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update media metadata")
	}
	refreshed, err := s.mediaRepo.FindByID(ctx, id)
	if err != nil {
		return MediaDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload media")
	}
	return toMediaDTO(refreshed), nil
}

// pruneFolder deletes the external folder once no local rows reference it.
// A folder that still has remote-only content reports ErrFolderNotEmpty,
// which is benign here.
func (s *service) pruneFolder(ctx context.Context, folder string) error {
	if folder == "" {
		return nil
	}
	count, err := s.mediaRepo.CountInFolder(ctx, folder)
	if err != nil {
		return fmt.Errorf("count folder rows: %w", err)
	}
	if count > 0 {
		return nil
	}
	if err := s.storage.DeleteFolder(ctx, folder); err != nil && !errors.Is(err, cloudinary.ErrFolderNotEmpty) && !errors.Is(err, cloudinary.ErrNotFound) {
		return fmt.Errorf("delete folder %q: %w", folder, err)
	}
	return nil
}

func (s *service) loadRow(ctx context.Context, mediaID uuid.UUID) (*models.Media, error) {
	if mediaID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media id is required")
	}
	row, err := s.mediaRepo.FindByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "media not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load media")
	}
	return row, nil
}

func (s *service) resolveOwnerFolder(ctx context.Context, ownerType enums.MediaOwnerType, ownerID uuid.UUID) (string, error) {
	if !ownerType.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid owner type")
	}
	if ownerID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}

	switch ownerType {
	case enums.MediaOwnerTypeGame:
		game, err := s.gameRepo.FindForPurchase(ctx, ownerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "game not found")
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load game")
		}
		return "games/" + slug.Make(game.Title), nil
	default:
		user, err := s.userRepo.FindByID(ctx, ownerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "user not found")
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		return "users/" + slug.Make(user.DisplayName()), nil
	}
}

func (s *service) validateFile(fileName, contentType string, sizeBytes int64, body io.Reader) error {
	if body == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	if strings.TrimSpace(fileName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}
	if sizeBytes <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if maxBytes := int64(s.cfg.MaxUploadMB) * 1024 * 1024; maxBytes > 0 && sizeBytes > maxBytes {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file exceeds the %dMB upload limit", s.cfg.MaxUploadMB))
	}
	if len(s.cfg.AllowedTypes) > 0 && !typeAllowed(contentType, s.cfg.AllowedTypes) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("content type %q is not allowed", contentType))
	}
	return nil
}

func typeAllowed(contentType string, allowed []string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, candidate := range allowed {
		if strings.ToLower(strings.TrimSpace(candidate)) == contentType {
			return true
		}
	}
	return false
}

func resourceTypeFor(contentType string) string {
	if strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return "video"
	}
	return "image"
}

func lastSegment(publicID string) string {
	if idx := strings.LastIndex(publicID, "/"); idx >= 0 {
		return publicID[idx+1:]
	}
	return publicID
}

func toMediaDTO(row *models.Media) MediaDTO {
	dto := MediaDTO{
		ID:           row.ID,
		URL:          row.URL,
		PublicID:     row.PublicID,
		Folder:       row.Folder,
		Format:       row.Format,
		ResourceType: row.ResourceType,
		FileName:     row.FileName,
		SizeBytes:    row.SizeBytes,
		Width:        row.Width,
		Height:       row.Height,
		AltText:      row.AltText,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.GameID != nil {
		dto.OwnerType = enums.MediaOwnerTypeGame
		dto.OwnerID = *row.GameID
	} else if row.UserID != nil {
		dto.OwnerType = enums.MediaOwnerTypeUser
		dto.OwnerID = *row.UserID
	}
	return dto
}

package favorites

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/internal/games"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
)

// ServiceParams groups dependencies for the favorites service.
type ServiceParams struct {
	FavoriteRepo *Repository
	GameRepo     *games.Repository
}

// Service exposes business rules for favorites management.
type Service interface {
	GetFavorites(ctx context.Context, userID uuid.UUID, cursor string, limit int) (FavoritesPageDTO, error)
	AddFavorite(ctx context.Context, userID, gameID uuid.UUID) error
	RemoveFavorite(ctx context.Context, userID, gameID uuid.UUID) error
	CheckFavorite(ctx context.Context, userID, gameID uuid.UUID) (FavoriteStatusDTO, error)
}

type service struct {
	favoriteRepo *Repository
	gameRepo     *games.Repository
}

// NewService builds a favorites service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.FavoriteRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorite repo is required")
	}
	if params.GameRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game repo is required")
	}
	return &service{
		favoriteRepo: params.FavoriteRepo,
		gameRepo:     params.GameRepo,
	}, nil
}

// GetFavorites returns the paginated favorites for a user.
func (s *service) GetFavorites(ctx context.Context, userID uuid.UUID, cursor string, limit int) (FavoritesPageDTO, error) {
	if userID == uuid.Nil {
		return FavoritesPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.favoriteRepo.ListItems(ctx, userID, cursor, limit)
}

// AddFavorite ensures the game exists and saves it. Re-adding is a no-op.
func (s *service) AddFavorite(ctx context.Context, userID, gameID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if gameID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	if _, err := s.gameRepo.FindForPurchase(ctx, gameID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "game not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load game")
	}
	return s.favoriteRepo.AddItem(ctx, userID, gameID)
}

// RemoveFavorite drops the favorite regardless of prior state.
func (s *service) RemoveFavorite(ctx context.Context, userID, gameID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if gameID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	return s.favoriteRepo.RemoveItem(ctx, userID, gameID)
}

// CheckFavorite reports whether the user has saved the game.
func (s *service) CheckFavorite(ctx context.Context, userID, gameID uuid.UUID) (FavoriteStatusDTO, error) {
	if userID == uuid.Nil {
		return FavoriteStatusDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if gameID == uuid.Nil {
		return FavoriteStatusDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	exists, err := s.favoriteRepo.Exists(ctx, userID, gameID)
	if err != nil {
		return FavoriteStatusDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check favorite")
	}
	return FavoriteStatusDTO{GameID: gameID, Favorited: exists}, nil
}

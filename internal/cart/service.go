package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/pkg/db/models"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
)

type gameLoader interface {
	FindForPurchase(ctx context.Context, id uuid.UUID) (*models.Game, error)
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	CartRepo CartRepository
	GameRepo gameLoader
}

// Service exposes business rules for cart management.
type Service interface {
	AddToCart(ctx context.Context, userID uuid.UUID, input AddToCartInput) (CartDTO, error)
	UpdateQuantity(ctx context.Context, userID, gameID uuid.UUID, quantity int) (CartDTO, error)
	RemoveFromCart(ctx context.Context, userID, gameID uuid.UUID, platformID *uuid.UUID) (CartDTO, error)
	GetUserCart(ctx context.Context, userID uuid.UUID) (CartDTO, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	cartRepo CartRepository
	gameRepo gameLoader
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.GameRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game repo is required")
	}
	return &service{
		cartRepo: params.CartRepo,
		gameRepo: params.GameRepo,
	}, nil
}

// AddToCart validates the game and folds the quantity into the user's cart.
func (s *service) AddToCart(ctx context.Context, userID uuid.UUID, input AddToCartInput) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.GameID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	if input.Quantity < 1 {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	game, err := s.gameRepo.FindForPurchase(ctx, input.GameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "game not found")
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load game")
	}
	if !game.IsActive {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "game is not available for purchase")
	}
	if !game.EffectivePrice().IsPositive() {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "game has no purchasable price")
	}

	if _, err := s.cartRepo.UpsertAdd(ctx, userID, input.GameID, input.PlatformID, input.Quantity); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add to cart")
	}
	return s.GetUserCart(ctx, userID)
}

// UpdateQuantity sets an exact quantity on the user's row for a game.
func (s *service) UpdateQuantity(ctx context.Context, userID, gameID uuid.UUID, quantity int) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if gameID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	if quantity < 1 {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	if err := s.cartRepo.UpdateQuantity(ctx, userID, gameID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return s.GetUserCart(ctx, userID)
}

// RemoveFromCart deletes the user's row for a game, failing when it does
// not exist.
func (s *service) RemoveFromCart(ctx context.Context, userID, gameID uuid.UUID, platformID *uuid.UUID) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if gameID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}

	if err := s.cartRepo.Delete(ctx, userID, gameID, platformID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart item not found")
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.GetUserCart(ctx, userID)
}

// GetUserCart returns the cart newest-first with computed totals.
func (s *service) GetUserCart(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.cartRepo.ListRows(ctx, userID)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return buildCartDTO(rows), nil
}

// ClearCart empties the cart. Clearing an empty cart succeeds.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.cartRepo.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func buildCartDTO(rows []CartItemDTO) CartDTO {
	subtotal := decimal.Zero
	count := 0
	for _, row := range rows {
		subtotal = subtotal.Add(row.LineTotal)
		count += row.Quantity
	}
	if rows == nil {
		rows = []CartItemDTO{}
	}
	return CartDTO{
		Items:    rows,
		Count:    count,
		Subtotal: subtotal,
	}
}

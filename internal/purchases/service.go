package purchases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/internal/cart"
	"github.com/gamesage/gamesage-backend/pkg/db/models"
	"github.com/gamesage/gamesage-backend/pkg/enums"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
)

// Refund reasons shorter than this (after trimming) are rejected.
const minRefundReasonLen = 10

// ServiceParams groups dependencies for the purchases service.
type ServiceParams struct {
	Tx           txRunner
	PurchaseRepo PurchaseRepository
	CartRepo     cart.CartRepository
	GameRepo     gameLoader
}

// Service executes checkout, history, and refund flows.
type Service interface {
	CheckoutCartItems(ctx context.Context, userID uuid.UUID, cartItemIDs []uuid.UUID) (PurchaseDTO, error)
	CheckoutGames(ctx context.Context, userID uuid.UUID, gameIDs []uuid.UUID) (PurchaseDTO, error)
	GetUserPurchases(ctx context.Context, userID uuid.UUID, filters ListFilters) (PurchasesPageDTO, error)
	GetPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (PurchaseDTO, error)
	Refund(ctx context.Context, userID, purchaseID uuid.UUID, reason string) (PurchaseDTO, error)
}

type service struct {
	tx           txRunner
	purchaseRepo PurchaseRepository
	cartRepo     cart.CartRepository
	gameRepo     gameLoader
}

// NewService builds the purchases service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx runner is required")
	}
	if params.PurchaseRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase repo is required")
	}
	if params.CartRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.GameRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game repo is required")
	}
	return &service{
		tx:           params.Tx,
		purchaseRepo: params.PurchaseRepo,
		cartRepo:     params.CartRepo,
		gameRepo:     params.GameRepo,
	}, nil
}

// CheckoutCartItems converts the selected cart rows into an immutable
// purchase. Prices are snapshotted at this moment; the consumed rows are
// removed in the same transaction.
func (s *service) CheckoutCartItems(ctx context.Context, userID uuid.UUID, cartItemIDs []uuid.UUID) (PurchaseDTO, error) {
	if userID == uuid.Nil {
		return PurchaseDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	ids := dedupeIDs(cartItemIDs)
	if len(ids) == 0 {
		return PurchaseDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one cart item is required")
	}

	var result PurchaseDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		purchaseRepo := s.purchaseRepo.WithTx(tx)

		items, err := cartRepo.ListForCheckout(ctx, userID, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart items")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no matching cart items")
		}

		purchase, err := buildPurchaseFromCart(userID, items)
		if err != nil {
			return err
		}
		if err := purchaseRepo.Create(ctx, purchase); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase")
		}

		consumed := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			consumed = append(consumed, item.ID)
		}
		if err := cartRepo.DeleteByIDs(ctx, userID, consumed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear purchased cart items")
		}

		result = toPurchaseDTO(purchase)
		return nil
	})
	if err != nil {
		return PurchaseDTO{}, err
	}
	return result, nil
}

// CheckoutGames buys the given games directly, one copy each. Rows for those
// games sitting in the cart are consumed as part of the same transaction.
func (s *service) CheckoutGames(ctx context.Context, userID uuid.UUID, gameIDs []uuid.UUID) (PurchaseDTO, error) {
	if userID == uuid.Nil {
		return PurchaseDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	ids := dedupeIDs(gameIDs)
	if len(ids) == 0 {
		return PurchaseDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one game is required")
	}

	loaded := make([]*models.Game, 0, len(ids))
	for _, id := range ids {
		game, err := s.gameRepo.FindForPurchase(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return PurchaseDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "game not found")
			}
			return PurchaseDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load game")
		}
		if !game.IsActive {
			return PurchaseDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "game is not available for purchase")
		}
		loaded = append(loaded, game)
	}

	var result PurchaseDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		purchaseRepo := s.purchaseRepo.WithTx(tx)

		purchase := &models.Purchase{
			UserID: userID,
			Status: enums.PurchaseStatusCompleted,
		}
		total := decimal.Zero
		for _, game := range loaded {
			unit := game.EffectivePrice()
			gameID := game.ID
			purchase.Items = append(purchase.Items, models.PurchaseItem{
				GameID:    &gameID,
				Title:     game.Title,
				UnitPrice: unit,
				Quantity:  1,
				LineTotal: unit,
			})
			total = total.Add(unit)
		}
		purchase.Total = total

		if err := purchaseRepo.Create(ctx, purchase); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase")
		}

		cartRows, err := cartRepo.ListByGameIDs(ctx, userID, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart rows")
		}
		if len(cartRows) > 0 {
			consumed := make([]uuid.UUID, 0, len(cartRows))
			for _, row := range cartRows {
				consumed = append(consumed, row.ID)
			}
			if err := cartRepo.DeleteByIDs(ctx, userID, consumed); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear purchased cart items")
			}
		}

		result = toPurchaseDTO(purchase)
		return nil
	})
	if err != nil {
		return PurchaseDTO{}, err
	}
	return result, nil
}

// GetUserPurchases returns the user's purchase history newest-first.
func (s *service) GetUserPurchases(ctx context.Context, userID uuid.UUID, filters ListFilters) (PurchasesPageDTO, error) {
	if userID == uuid.Nil {
		return PurchasesPageDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	page, err := s.purchaseRepo.List(ctx, userID, filters)
	if err != nil {
		return PurchasesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}
	return page, nil
}

// GetPurchase loads one purchase. A purchase that exists but belongs to
// someone else is Forbidden, not NotFound.
func (s *service) GetPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (PurchaseDTO, error) {
	purchase, err := s.loadOwned(ctx, userID, purchaseID)
	if err != nil {
		return PurchaseDTO{}, err
	}
	return toPurchaseDTO(purchase), nil
}

// Refund transitions a completed purchase to refunded. The transition is
// one-way and the reason is mandatory.
func (s *service) Refund(ctx context.Context, userID, purchaseID uuid.UUID, reason string) (PurchaseDTO, error) {
	reason = strings.TrimSpace(reason)
	if len(reason) < minRefundReasonLen {
		return PurchaseDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "refund reason must be at least 10 characters")
	}

	purchase, err := s.loadOwned(ctx, userID, purchaseID)
	if err != nil {
		return PurchaseDTO{}, err
	}
	if purchase.Status == enums.PurchaseStatusRefunded {
		return PurchaseDTO{}, pkgerrors.New(pkgerrors.CodeAlreadyRefunded, "purchase already refunded")
	}

	if err := s.purchaseRepo.MarkRefunded(ctx, purchaseID, reason, time.Now().UTC()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost a concurrent refund race after the read above.
			return PurchaseDTO{}, pkgerrors.Wrap(pkgerrors.CodeAlreadyRefunded, err, "purchase already refunded")
		}
		return PurchaseDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refund purchase")
	}

	refreshed, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		return PurchaseDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload purchase")
	}
	return toPurchaseDTO(refreshed), nil
}

func (s *service) loadOwned(ctx context.Context, userID, purchaseID uuid.UUID) (*models.Purchase, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if purchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id is required")
	}
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	if purchase.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "purchase belongs to another user")
	}
	return purchase, nil
}

func buildPurchaseFromCart(userID uuid.UUID, items []models.CartItem) (*models.Purchase, error) {
	purchase := &models.Purchase{
		UserID: userID,
		Status: enums.PurchaseStatusCompleted,
	}
	total := decimal.Zero
	for _, item := range items {
		if item.Game == nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart item has no game")
		}
		if !item.Game.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "game is not available for purchase")
		}
		unit := item.Game.EffectivePrice()
		line := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		gameID := item.GameID
		purchase.Items = append(purchase.Items, models.PurchaseItem{
			GameID:    &gameID,
			Title:     item.Game.Title,
			UnitPrice: unit,
			Quantity:  item.Quantity,
			LineTotal: line,
		})
		total = total.Add(line)
	}
	purchase.Total = total
	return purchase, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package purchases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/internal/cart"
	"github.com/gamesage/gamesage-backend/pkg/db/models"
	"github.com/gamesage/gamesage-backend/pkg/enums"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCartRepo struct {
	cart.CartRepository
	items      []models.CartItem
	byGameIDs  []models.CartItem
	deletedIDs []uuid.UUID
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) cart.CartRepository { return s }

func (s *stubCartRepo) ListForCheckout(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]models.CartItem, error) {
	return s.items, nil
}

func (s *stubCartRepo) ListByGameIDs(ctx context.Context, userID uuid.UUID, gameIDs []uuid.UUID) ([]models.CartItem, error) {
	return s.byGameIDs, nil
}

func (s *stubCartRepo) DeleteByIDs(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) error {
	s.deletedIDs = append(s.deletedIDs, itemIDs...)
	return nil
}

type stubPurchaseRepo struct {
	created    *models.Purchase
	found      *models.Purchase
	findErr    error
	refundErr  error
	refundedID uuid.UUID
}

func (s *stubPurchaseRepo) WithTx(tx *gorm.DB) PurchaseRepository { return s }

func (s *stubPurchaseRepo) Create(ctx context.Context, purchase *models.Purchase) error {
	purchase.ID = uuid.New()
	s.created = purchase
	return nil
}

func (s *stubPurchaseRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.found, nil
}

func (s *stubPurchaseRepo) List(ctx context.Context, userID uuid.UUID, filters ListFilters) (PurchasesPageDTO, error) {
	return PurchasesPageDTO{}, nil
}

func (s *stubPurchaseRepo) MarkRefunded(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	if s.refundErr != nil {
		return s.refundErr
	}
	s.refundedID = id
	return nil
}

type stubGameLoader struct {
	games map[uuid.UUID]*models.Game
}

func (s *stubGameLoader) FindForPurchase(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	game, ok := s.games[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return game, nil
}

func newTestService(t *testing.T, cartRepo *stubCartRepo, purchaseRepo *stubPurchaseRepo, loader *stubGameLoader) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Tx:           fakeTxRunner{},
		PurchaseRepo: purchaseRepo,
		CartRepo:     cartRepo,
		GameRepo:     loader,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func activeGame(title string, price float64) *models.Game {
	return &models.Game{
		ID:       uuid.New(),
		Title:    title,
		Price:    decimal.NewFromFloat(price),
		IsActive: true,
	}
}

func TestCheckoutCartItemsEmptySelector(t *testing.T) {
	svc := newTestService(t, &stubCartRepo{}, &stubPurchaseRepo{}, &stubGameLoader{})

	_, err := svc.CheckoutCartItems(context.Background(), uuid.New(), nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty selector, got %v", err)
	}

	_, err = svc.CheckoutCartItems(context.Background(), uuid.New(), []uuid.UUID{uuid.Nil})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for nil-only selector, got %v", err)
	}
}

func TestCheckoutCartItemsNoMatches(t *testing.T) {
	svc := newTestService(t, &stubCartRepo{}, &stubPurchaseRepo{}, &stubGameLoader{})

	_, err := svc.CheckoutCartItems(context.Background(), uuid.New(), []uuid.UUID{uuid.New()})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for empty cart, got %v", err)
	}
}

func TestCheckoutCartItemsSnapshotsSalePrice(t *testing.T) {
	sale := decimal.NewFromFloat(39.99)
	game := activeGame("Elden Ring", 59.99)
	game.SalePrice = &sale
	game.OnSale = true

	rowID := uuid.New()
	cartRepo := &stubCartRepo{items: []models.CartItem{{
		ID:       rowID,
		GameID:   game.ID,
		Quantity: 2,
		Game:     game,
	}}}
	purchaseRepo := &stubPurchaseRepo{}
	svc := newTestService(t, cartRepo, purchaseRepo, &stubGameLoader{})

	dto, err := svc.CheckoutCartItems(context.Background(), uuid.New(), []uuid.UUID{rowID})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if len(dto.Items) != 1 {
		t.Fatalf("expected 1 purchase item, got %d", len(dto.Items))
	}
	if !dto.Items[0].UnitPrice.Equal(sale) {
		t.Fatalf("expected snapshot of sale price %s, got %s", sale, dto.Items[0].UnitPrice)
	}
	wantTotal := sale.Mul(decimal.NewFromInt(2))
	if !dto.Total.Equal(wantTotal) {
		t.Fatalf("expected total %s, got %s", wantTotal, dto.Total)
	}
	if dto.Status != enums.PurchaseStatusCompleted {
		t.Fatalf("expected completed status, got %s", dto.Status)
	}
	if len(cartRepo.deletedIDs) != 1 || cartRepo.deletedIDs[0] != rowID {
		t.Fatalf("expected consumed cart row %s to be deleted, got %v", rowID, cartRepo.deletedIDs)
	}
}

func TestCheckoutGamesMissingGame(t *testing.T) {
	svc := newTestService(t, &stubCartRepo{}, &stubPurchaseRepo{}, &stubGameLoader{games: map[uuid.UUID]*models.Game{}})

	_, err := svc.CheckoutGames(context.Background(), uuid.New(), []uuid.UUID{uuid.New()})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for missing game, got %v", err)
	}
}

func TestCheckoutGamesConsumesCartRows(t *testing.T) {
	game := activeGame("Hades II", 29.99)
	loader := &stubGameLoader{games: map[uuid.UUID]*models.Game{game.ID: game}}
	cartRow := models.CartItem{ID: uuid.New(), GameID: game.ID, Quantity: 1, Game: game}
	cartRepo := &stubCartRepo{byGameIDs: []models.CartItem{cartRow}}
	svc := newTestService(t, cartRepo, &stubPurchaseRepo{}, loader)

	dto, err := svc.CheckoutGames(context.Background(), uuid.New(), []uuid.UUID{game.ID, game.ID})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("expected duplicate game ids to collapse to 1 item, got %d", len(dto.Items))
	}
	if !dto.Total.Equal(game.Price) {
		t.Fatalf("expected total %s, got %s", game.Price, dto.Total)
	}
	if len(cartRepo.deletedIDs) != 1 || cartRepo.deletedIDs[0] != cartRow.ID {
		t.Fatalf("expected cart row consumed, got %v", cartRepo.deletedIDs)
	}
}

func TestRefundReasonTooShort(t *testing.T) {
	svc := newTestService(t, &stubCartRepo{}, &stubPurchaseRepo{}, &stubGameLoader{})

	_, err := svc.Refund(context.Background(), uuid.New(), uuid.New(), "   too bad   ")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for short reason, got %v", err)
	}
}

func TestRefundForbiddenForOtherUser(t *testing.T) {
	owner := uuid.New()
	purchaseRepo := &stubPurchaseRepo{found: &models.Purchase{
		ID:     uuid.New(),
		UserID: owner,
		Status: enums.PurchaseStatusCompleted,
	}}
	svc := newTestService(t, &stubCartRepo{}, purchaseRepo, &stubGameLoader{})

	_, err := svc.Refund(context.Background(), uuid.New(), purchaseRepo.found.ID, "the game keeps crashing on startup")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for another user's purchase, got %v", err)
	}
}

func TestRefundAlreadyRefunded(t *testing.T) {
	owner := uuid.New()
	purchaseRepo := &stubPurchaseRepo{found: &models.Purchase{
		ID:     uuid.New(),
		UserID: owner,
		Status: enums.PurchaseStatusRefunded,
	}}
	svc := newTestService(t, &stubCartRepo{}, purchaseRepo, &stubGameLoader{})

	_, err := svc.Refund(context.Background(), owner, purchaseRepo.found.ID, "the game keeps crashing on startup")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeAlreadyRefunded {
		t.Fatalf("expected already-refunded error, got %v", err)
	}
}

func TestRefundLosesGuardedUpdateRace(t *testing.T) {
	owner := uuid.New()
	purchaseRepo := &stubPurchaseRepo{
		found: &models.Purchase{
			ID:     uuid.New(),
			UserID: owner,
			Status: enums.PurchaseStatusCompleted,
		},
		refundErr: gorm.ErrRecordNotFound,
	}
	svc := newTestService(t, &stubCartRepo{}, purchaseRepo, &stubGameLoader{})

	_, err := svc.Refund(context.Background(), owner, purchaseRepo.found.ID, "the game keeps crashing on startup")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeAlreadyRefunded {
		t.Fatalf("expected already-refunded on guard race, got %v", err)
	}
}

func TestGetPurchaseNotFound(t *testing.T) {
	purchaseRepo := &stubPurchaseRepo{findErr: gorm.ErrRecordNotFound}
	svc := newTestService(t, &stubCartRepo{}, purchaseRepo, &stubGameLoader{})

	_, err := svc.GetPurchase(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

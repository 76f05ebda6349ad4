package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/internal/games"
	"github.com/gamesage/gamesage-backend/pkg/db/models"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
)

type stubCartRepo struct {
	rows map[uuid.UUID]*models.CartItem

	upserts    int
	updates    int
	deletes    int
	userClears int
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{rows: map[uuid.UUID]*models.CartItem{}}
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) CartRepository { return s }

func (s *stubCartRepo) UpsertAdd(_ context.Context, userID, gameID uuid.UUID, platformID *uuid.UUID, quantity int) (uuid.UUID, error) {
	s.upserts++
	for id, row := range s.rows {
		if row.UserID == userID && row.GameID == gameID {
			row.Quantity += quantity
			return id, nil
		}
	}
	id := uuid.New()
	s.rows[id] = &models.CartItem{ID: id, UserID: userID, GameID: gameID, PlatformID: platformID, Quantity: quantity}
	return id, nil
}

func (s *stubCartRepo) UpdateQuantity(_ context.Context, userID, gameID uuid.UUID, quantity int) error {
	s.updates++
	for _, row := range s.rows {
		if row.UserID == userID && row.GameID == gameID {
			row.Quantity = quantity
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubCartRepo) Delete(_ context.Context, userID, gameID uuid.UUID, platformID *uuid.UUID) error {
	s.deletes++
	for id, row := range s.rows {
		if row.UserID == userID && row.GameID == gameID {
			delete(s.rows, id)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *stubCartRepo) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	s.userClears++
	for id, row := range s.rows {
		if row.UserID == userID {
			delete(s.rows, id)
		}
	}
	return nil
}

func (s *stubCartRepo) DeleteByIDs(_ context.Context, userID uuid.UUID, itemIDs []uuid.UUID) error {
	return nil
}

func (s *stubCartRepo) ListForCheckout(_ context.Context, userID uuid.UUID, itemIDs []uuid.UUID) ([]models.CartItem, error) {
	return nil, nil
}

func (s *stubCartRepo) ListByGameIDs(_ context.Context, userID uuid.UUID, gameIDs []uuid.UUID) ([]models.CartItem, error) {
	return nil, nil
}

func (s *stubCartRepo) ListRows(_ context.Context, userID uuid.UUID) ([]CartItemDTO, error) {
	var out []CartItemDTO
	for _, row := range s.rows {
		if row.UserID != userID {
			continue
		}
		out = append(out, CartItemDTO{
			ID:       row.ID,
			Quantity: row.Quantity,
		})
	}
	return out, nil
}

type stubCartGameLoader struct {
	games map[uuid.UUID]*models.Game
}

func (s *stubCartGameLoader) FindForPurchase(_ context.Context, id uuid.UUID) (*models.Game, error) {
	if game, ok := s.games[id]; ok {
		return game, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newCartTestService(t *testing.T, repo *stubCartRepo, loader *stubCartGameLoader) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{CartRepo: repo, GameRepo: loader})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func activeGame(price string) *models.Game {
	return &models.Game{
		ID:       uuid.New(),
		Title:    "Celeste",
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	}
}

func TestBuildCartDTO(t *testing.T) {
	sale := decimal.NewFromFloat(19.99)
	rows := []CartItemDTO{
		{
			Game: games.GameSummary{
				Price:     decimal.NewFromFloat(59.99),
				SalePrice: &sale,
				OnSale:    true,
			},
			Quantity:  2,
			UnitPrice: sale,
			LineTotal: sale.Mul(decimal.NewFromInt(2)),
		},
		{
			Game:      games.GameSummary{Price: decimal.NewFromFloat(10)},
			Quantity:  1,
			UnitPrice: decimal.NewFromFloat(10),
			LineTotal: decimal.NewFromFloat(10),
		},
	}

	dto := buildCartDTO(rows)

	if dto.Count != 3 {
		t.Fatalf("expected count 3, got %d", dto.Count)
	}
	want := decimal.NewFromFloat(49.98)
	if !dto.Subtotal.Equal(want) {
		t.Fatalf("expected subtotal %s, got %s", want, dto.Subtotal)
	}
}

func TestBuildCartDTOEmpty(t *testing.T) {
	dto := buildCartDTO(nil)
	if dto.Items == nil {
		t.Fatal("expected non-nil items slice for empty cart")
	}
	if dto.Count != 0 || !dto.Subtotal.Equal(decimal.Zero) {
		t.Fatalf("expected empty totals, got count=%d subtotal=%s", dto.Count, dto.Subtotal)
	}
}

func TestCartRowRecordToDTOUsesEffectivePrice(t *testing.T) {
	sale := decimal.NewFromFloat(29.99)
	record := cartRowRecord{
		CartItemID: uuid.New(),
		Quantity:   3,
		ID:         uuid.New(),
		Title:      "Hades II",
		Price:      decimal.NewFromFloat(69.99),
		SalePrice:  decimal.NullDecimal{Decimal: sale, Valid: true},
		OnSale:     true,
	}

	dto := record.toDTO()

	if !dto.UnitPrice.Equal(sale) {
		t.Fatalf("expected sale unit price %s, got %s", sale, dto.UnitPrice)
	}
	want := sale.Mul(decimal.NewFromInt(3))
	if !dto.LineTotal.Equal(want) {
		t.Fatalf("expected line total %s, got %s", want, dto.LineTotal)
	}
}

func TestAddToCartFoldsRepeatedAddsIntoOneRow(t *testing.T) {
	repo := newStubCartRepo()
	game := activeGame("19.99")
	svc := newCartTestService(t, repo, &stubCartGameLoader{games: map[uuid.UUID]*models.Game{game.ID: game}})
	userID := uuid.New()

	if _, err := svc.AddToCart(context.Background(), userID, AddToCartInput{GameID: game.ID, Quantity: 1}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	dto, err := svc.AddToCart(context.Background(), userID, AddToCartInput{GameID: game.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	if len(repo.rows) != 1 {
		t.Fatalf("expected one cart row, got %d", len(repo.rows))
	}
	if dto.Count != 3 {
		t.Fatalf("expected folded quantity 3, got %d", dto.Count)
	}
}

func TestAddToCartRejectsZeroQuantityWithoutMutation(t *testing.T) {
	repo := newStubCartRepo()
	game := activeGame("19.99")
	svc := newCartTestService(t, repo, &stubCartGameLoader{games: map[uuid.UUID]*models.Game{game.ID: game}})

	_, err := svc.AddToCart(context.Background(), uuid.New(), AddToCartInput{GameID: game.ID, Quantity: 0})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.upserts != 0 {
		t.Fatal("expected no repo write for rejected quantity")
	}
}

func TestAddToCartUnknownGame(t *testing.T) {
	repo := newStubCartRepo()
	svc := newCartTestService(t, repo, &stubCartGameLoader{})

	_, err := svc.AddToCart(context.Background(), uuid.New(), AddToCartInput{GameID: uuid.New(), Quantity: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
	if repo.upserts != 0 {
		t.Fatal("expected no repo write for unknown game")
	}
}

func TestAddToCartRejectsInactiveGame(t *testing.T) {
	repo := newStubCartRepo()
	game := activeGame("19.99")
	game.IsActive = false
	svc := newCartTestService(t, repo, &stubCartGameLoader{games: map[uuid.UUID]*models.Game{game.ID: game}})

	_, err := svc.AddToCart(context.Background(), uuid.New(), AddToCartInput{GameID: game.ID, Quantity: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddToCartRejectsUnpurchasablePrice(t *testing.T) {
	repo := newStubCartRepo()
	game := activeGame("0")
	svc := newCartTestService(t, repo, &stubCartGameLoader{games: map[uuid.UUID]*models.Game{game.ID: game}})

	_, err := svc.AddToCart(context.Background(), uuid.New(), AddToCartInput{GameID: game.ID, Quantity: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.upserts != 0 {
		t.Fatal("expected no repo write for zero-priced game")
	}
}

func TestUpdateQuantitySetsExactValue(t *testing.T) {
	repo := newStubCartRepo()
	game := activeGame("19.99")
	svc := newCartTestService(t, repo, &stubCartGameLoader{games: map[uuid.UUID]*models.Game{game.ID: game}})
	userID := uuid.New()

	if _, err := svc.AddToCart(context.Background(), userID, AddToCartInput{GameID: game.ID, Quantity: 5}); err != nil {
		t.Fatalf("seed add failed: %v", err)
	}
	dto, err := svc.UpdateQuantity(context.Background(), userID, game.ID, 2)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if dto.Count != 2 {
		t.Fatalf("expected quantity set to 2, got %d", dto.Count)
	}
}

func TestUpdateQuantityMissingRow(t *testing.T) {
	repo := newStubCartRepo()
	svc := newCartTestService(t, repo, &stubCartGameLoader{})

	_, err := svc.UpdateQuantity(context.Background(), uuid.New(), uuid.New(), 2)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestUpdateQuantityRejectsZeroWithoutMutation(t *testing.T) {
	repo := newStubCartRepo()
	svc := newCartTestService(t, repo, &stubCartGameLoader{})

	_, err := svc.UpdateQuantity(context.Background(), uuid.New(), uuid.New(), 0)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.updates != 0 {
		t.Fatal("expected no repo write for rejected quantity")
	}
}

func TestRemoveFromCartMissingRow(t *testing.T) {
	repo := newStubCartRepo()
	svc := newCartTestService(t, repo, &stubCartGameLoader{})

	_, err := svc.RemoveFromCart(context.Background(), uuid.New(), uuid.New(), nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestClearCartIsIdempotent(t *testing.T) {
	repo := newStubCartRepo()
	svc := newCartTestService(t, repo, &stubCartGameLoader{})

	if err := svc.ClearCart(context.Background(), uuid.New()); err != nil {
		t.Fatalf("clearing an empty cart should succeed, got %v", err)
	}
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing repos, got %v", err)
	}

	_, err = NewService(ServiceParams{CartRepo: &Repository{}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing game repo, got %v", err)
	}
}

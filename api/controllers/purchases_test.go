package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	purchasesvc "github.com/gamesage/gamesage-backend/internal/purchases"
	"github.com/gamesage/gamesage-backend/pkg/enums"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
)

type stubPurchaseService struct {
	purchase purchasesvc.PurchaseDTO
	page     purchasesvc.PurchasesPageDTO
	err      error

	checkoutCartItemIDs []uuid.UUID
	checkoutGameIDs     []uuid.UUID
	listedFilters       purchasesvc.ListFilters
	refundReason        string
}

func (s *stubPurchaseService) CheckoutCartItems(ctx context.Context, userID uuid.UUID, cartItemIDs []uuid.UUID) (purchasesvc.PurchaseDTO, error) {
	s.checkoutCartItemIDs = cartItemIDs
	return s.purchase, s.err
}

func (s *stubPurchaseService) CheckoutGames(ctx context.Context, userID uuid.UUID, gameIDs []uuid.UUID) (purchasesvc.PurchaseDTO, error) {
	s.checkoutGameIDs = gameIDs
	return s.purchase, s.err
}

func (s *stubPurchaseService) GetUserPurchases(ctx context.Context, userID uuid.UUID, filters purchasesvc.ListFilters) (purchasesvc.PurchasesPageDTO, error) {
	s.listedFilters = filters
	return s.page, s.err
}

func (s *stubPurchaseService) GetPurchase(ctx context.Context, userID, purchaseID uuid.UUID) (purchasesvc.PurchaseDTO, error) {
	return s.purchase, s.err
}

func (s *stubPurchaseService) Refund(ctx context.Context, userID, purchaseID uuid.UUID, reason string) (purchasesvc.PurchaseDTO, error) {
	s.refundReason = reason
	return s.purchase, s.err
}

func TestPurchasesCheckoutSuccess(t *testing.T) {
	itemID := uuid.New()
	svc := &stubPurchaseService{purchase: purchasesvc.PurchaseDTO{
		ID:     uuid.New(),
		Status: enums.PurchaseStatusCompleted,
		Total:  decimal.RequireFromString("59.99"),
	}}
	handler := PurchasesCheckout(svc, nil)

	req := authedRequest(t, http.MethodPost, "/api/v1/purchases/checkout", `{"cart_item_ids":["`+itemID.String()+`"]}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if len(svc.checkoutCartItemIDs) != 1 || svc.checkoutCartItemIDs[0] != itemID {
		t.Fatalf("cart item ids not carried through")
	}

	var envelope struct {
		Data purchasesvc.PurchaseDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.PurchaseStatusCompleted {
		t.Fatalf("unexpected status: %s", envelope.Data.Status)
	}
}

func TestPurchasesCheckoutEmptySelection(t *testing.T) {
	handler := PurchasesCheckout(&stubPurchaseService{}, nil)

	req := authedRequest(t, http.MethodPost, "/api/v1/purchases/checkout", `{"cart_item_ids":[]}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPurchasesCheckoutGames(t *testing.T) {
	gameID := uuid.New()
	svc := &stubPurchaseService{}
	handler := PurchasesCheckoutGames(svc, nil)

	req := authedRequest(t, http.MethodPost, "/api/v1/purchases/checkout/games", `{"game_ids":["`+gameID.String()+`"]}`)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if len(svc.checkoutGameIDs) != 1 || svc.checkoutGameIDs[0] != gameID {
		t.Fatalf("game ids not carried through")
	}
}

func TestPurchasesListStatusFilter(t *testing.T) {
	svc := &stubPurchaseService{}
	handler := PurchasesList(svc, nil)

	req := authedRequest(t, http.MethodGet, "/api/v1/purchases?status=refunded&limit=10", "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.listedFilters.Status == nil || *svc.listedFilters.Status != enums.PurchaseStatusRefunded {
		t.Fatalf("status filter not parsed")
	}
	if svc.listedFilters.Limit != 10 {
		t.Fatalf("unexpected limit: %d", svc.listedFilters.Limit)
	}
}

func TestPurchasesListInvalidStatus(t *testing.T) {
	handler := PurchasesList(&stubPurchaseService{}, nil)

	req := authedRequest(t, http.MethodGet, "/api/v1/purchases?status=pending", "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPurchaseRefundCarriesReason(t *testing.T) {
	svc := &stubPurchaseService{}
	handler := PurchaseRefund(svc, nil)
	purchaseID := uuid.New()

	req := authedRequest(t, http.MethodPost, "/api/v1/purchases/"+purchaseID.String()+"/refund", `{"reason":"crashes on launch"}`)
	req = withPathParam(req, "purchaseId", purchaseID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.refundReason != "crashes on launch" {
		t.Fatalf("unexpected reason: %q", svc.refundReason)
	}
}

func TestPurchaseRefundAlreadyRefunded(t *testing.T) {
	svc := &stubPurchaseService{err: pkgerrors.New(pkgerrors.CodeAlreadyRefunded, "purchase already refunded")}
	handler := PurchaseRefund(svc, nil)
	purchaseID := uuid.New()

	req := authedRequest(t, http.MethodPost, "/api/v1/purchases/"+purchaseID.String()+"/refund", `{"reason":"changed my mind"}`)
	req = withPathParam(req, "purchaseId", purchaseID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeAlreadyRefunded) {
		t.Fatalf("unexpected error code: %s", envelope.Error.Code)
	}
	if envelope.Error.Message != "purchase already refunded" {
		t.Fatalf("unexpected message: %q", envelope.Error.Message)
	}
}

func TestPurchaseRefundMissingReason(t *testing.T) {
	handler := PurchaseRefund(&stubPurchaseService{}, nil)
	purchaseID := uuid.New()

	req := authedRequest(t, http.MethodPost, "/api/v1/purchases/"+purchaseID.String()+"/refund", `{}`)
	req = withPathParam(req, "purchaseId", purchaseID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPurchaseGetNotOwned(t *testing.T) {
	svc := &stubPurchaseService{err: pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")}
	handler := PurchaseGet(svc, nil)
	purchaseID := uuid.New()

	req := authedRequest(t, http.MethodGet, "/api/v1/purchases/"+purchaseID.String(), "")
	req = withPathParam(req, "purchaseId", purchaseID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamesage/gamesage-backend/api/middleware"
	cartsvc "github.com/gamesage/gamesage-backend/internal/cart"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
)

type stubCartService struct {
	cart cartsvc.CartDTO
	err  error

	addedInput      cartsvc.AddToCartInput
	updatedGameID   uuid.UUID
	updatedQuantity int
	removedGameID   uuid.UUID
	removedPlatform *uuid.UUID
	cleared         bool
}

func (s *stubCartService) AddToCart(ctx context.Context, userID uuid.UUID, input cartsvc.AddToCartInput) (cartsvc.CartDTO, error) {
	s.addedInput = input
	return s.cart, s.err
}

func (s *stubCartService) UpdateQuantity(ctx context.Context, userID, gameID uuid.UUID, quantity int) (cartsvc.CartDTO, error) {
	s.updatedGameID = gameID
	s.updatedQuantity = quantity
	return s.cart, s.err
}

func (s *stubCartService) RemoveFromCart(ctx context.Context, userID, gameID uuid.UUID, platformID *uuid.UUID) (cartsvc.CartDTO, error) {
	s.removedGameID = gameID
	s.removedPlatform = platformID
	return s.cart, s.err
}

func (s *stubCartService) GetUserCart(ctx context.Context, userID uuid.UUID) (cartsvc.CartDTO, error) {
	return s.cart, s.err
}

func (s *stubCartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	s.cleared = true
	return s.err
}

func authedRequest(t *testing.T, method, target string, body string) *http.Request {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))
}

func withPathParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCartGetSuccess(t *testing.T) {
	svc := &stubCartService{cart: cartsvc.CartDTO{Count: 2, Subtotal: decimal.RequireFromString("39.98")}}
	handler := CartGet(svc, nil)

	req := authedRequest(t, http.MethodGet, "/api/v1/cart", "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data cartsvc.CartDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Count != 2 {
		t.Fatalf("unexpected count: %d", envelope.Data.Count)
	}
}

func TestCartGetMissingUserContext(t *testing.T) {
	handler := CartGet(&stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCartAddDefaultsQuantity(t *testing.T) {
	svc := &stubCartService{}
	handler := CartAdd(svc, nil)
	gameID := uuid.New()

	req := authedRequest(t, http.MethodPost, "/api/v1/cart/"+gameID.String(), "")
	req = withPathParam(req, "gameId", gameID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.addedInput.GameID != gameID {
		t.Fatalf("unexpected game id: %s", svc.addedInput.GameID)
	}
	if svc.addedInput.Quantity != 1 {
		t.Fatalf("expected default quantity 1 got %d", svc.addedInput.Quantity)
	}
}

func TestCartAddExplicitQuantityAndPlatform(t *testing.T) {
	svc := &stubCartService{}
	handler := CartAdd(svc, nil)
	gameID := uuid.New()
	platformID := uuid.New()

	body := `{"quantity":3,"platform_id":"` + platformID.String() + `"}`
	req := authedRequest(t, http.MethodPost, "/api/v1/cart/"+gameID.String(), body)
	req = withPathParam(req, "gameId", gameID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.addedInput.Quantity != 3 {
		t.Fatalf("unexpected quantity: %d", svc.addedInput.Quantity)
	}
	if svc.addedInput.PlatformID == nil || *svc.addedInput.PlatformID != platformID {
		t.Fatalf("platform id not carried through")
	}
}

func TestCartAddInvalidGameID(t *testing.T) {
	handler := CartAdd(&stubCartService{}, nil)

	req := authedRequest(t, http.MethodPost, "/api/v1/cart/not-a-uuid", "")
	req = withPathParam(req, "gameId", "not-a-uuid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartUpdateQuantity(t *testing.T) {
	svc := &stubCartService{}
	handler := CartUpdate(svc, nil)
	gameID := uuid.New()

	req := authedRequest(t, http.MethodPatch, "/api/v1/cart/"+gameID.String(), `{"quantity":5}`)
	req = withPathParam(req, "gameId", gameID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.updatedGameID != gameID || svc.updatedQuantity != 5 {
		t.Fatalf("unexpected update: game=%s quantity=%d", svc.updatedGameID, svc.updatedQuantity)
	}
}

func TestCartUpdateNotFound(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")}
	handler := CartUpdate(svc, nil)
	gameID := uuid.New()

	req := authedRequest(t, http.MethodPatch, "/api/v1/cart/"+gameID.String(), `{"quantity":2}`)
	req = withPathParam(req, "gameId", gameID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartRemoveWithPlatformFilter(t *testing.T) {
	svc := &stubCartService{}
	handler := CartRemove(svc, nil)
	gameID := uuid.New()
	platformID := uuid.New()

	req := authedRequest(t, http.MethodDelete, "/api/v1/cart/"+gameID.String()+"?platformId="+platformID.String(), "")
	req = withPathParam(req, "gameId", gameID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.removedGameID != gameID {
		t.Fatalf("unexpected game id: %s", svc.removedGameID)
	}
	if svc.removedPlatform == nil || *svc.removedPlatform != platformID {
		t.Fatalf("platform filter not carried through")
	}
}

func TestCartRemoveInvalidPlatformQuery(t *testing.T) {
	handler := CartRemove(&stubCartService{}, nil)
	gameID := uuid.New()

	req := authedRequest(t, http.MethodDelete, "/api/v1/cart/"+gameID.String()+"?platformId=bogus", "")
	req = withPathParam(req, "gameId", gameID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartClear(t *testing.T) {
	svc := &stubCartService{}
	handler := CartClear(svc, nil)

	req := authedRequest(t, http.MethodDelete, "/api/v1/cart", "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !svc.cleared {
		t.Fatalf("expected clear to be invoked")
	}
}

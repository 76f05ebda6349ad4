package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	authsvc "github.com/gamesage/gamesage-backend/internal/auth"
	"github.com/gamesage/gamesage-backend/internal/users"
	"github.com/gamesage/gamesage-backend/pkg/config"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "gamesage-test",
		ExpirationMinutes: 15,
	}
}

type stubRegisterService struct {
	resp *authsvc.RegisterResponse
	err  error

	req authsvc.RegisterRequest
}

func (s *stubRegisterService) Register(ctx context.Context, req authsvc.RegisterRequest) (*authsvc.RegisterResponse, error) {
	s.req = req
	return s.resp, s.err
}

type stubAuthService struct {
	loginResp *authsvc.LoginResponse
	err       error
}

func (s *stubAuthService) Login(ctx context.Context, req authsvc.LoginRequest) (*authsvc.LoginResponse, error) {
	return s.loginResp, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, req authsvc.RefreshRequest) (*authsvc.RefreshResponse, error) {
	return nil, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	return s.err
}

func TestAuthRegisterReturnsUserAndTokenPair(t *testing.T) {
	userID := uuid.New()
	svc := &stubRegisterService{resp: &authsvc.RegisterResponse{
		AccessToken:  "access-jwt",
		RefreshToken: "refresh-opaque",
		User:         &users.UserDTO{ID: userID, Email: "ana@example.com"},
	}}
	handler := AuthRegister(svc, nil)

	body := `{"first_name":"Ana","last_name":"Reyes","email":"ana@example.com","password":"long-enough-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data authsvc.RegisterResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if envelope.Data.AccessToken != "access-jwt" {
		t.Fatalf("expected access token in response, got %+v", envelope.Data)
	}
	if envelope.Data.RefreshToken != "refresh-opaque" {
		t.Fatalf("expected refresh token in response, got %+v", envelope.Data)
	}
	if envelope.Data.User == nil || envelope.Data.User.ID != userID {
		t.Fatalf("expected created user in response, got %+v", envelope.Data.User)
	}
	if svc.req.Email != "ana@example.com" {
		t.Fatalf("payload not forwarded to service: %+v", svc.req)
	}
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	svc := &stubRegisterService{err: pkgerrors.New(pkgerrors.CodeConflict, "email already registered")}
	handler := AuthRegister(svc, nil)

	body := `{"first_name":"Ana","last_name":"Reyes","email":"ana@example.com","password":"long-enough-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAuthRegisterRejectsInvalidPayload(t *testing.T) {
	handler := AuthRegister(&stubRegisterService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"email":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLoginReturnsTokenPair(t *testing.T) {
	svc := &stubAuthService{loginResp: &authsvc.LoginResponse{
		AccessToken:  "access-jwt",
		RefreshToken: "refresh-opaque",
		User:         &users.UserDTO{ID: uuid.New()},
	}}
	handler := AuthLogin(svc, nil)

	body := `{"email":"ana@example.com","password":"long-enough-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data authsvc.LoginResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if envelope.Data.AccessToken == "" || envelope.Data.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", envelope.Data)
	}
}

func TestAuthLogoutRequiresToken(t *testing.T) {
	handler := AuthLogout(&stubAuthService{}, testJWTConfig(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

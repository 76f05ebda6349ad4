package auth

import (
	"context"
	"testing"

	"github.com/gamesage/gamesage-backend/pkg/config"
	"github.com/gamesage/gamesage-backend/pkg/db"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
)

func TestRegisterValidation(t *testing.T) {
	svc := &registerService{passwordCfg: config.PasswordConfig{}}

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{
			name: "missingEmail",
			req:  RegisterRequest{FirstName: "Ada", LastName: "Lovelace", Password: "long-enough"},
		},
		{
			name: "blankEmail",
			req:  RegisterRequest{Email: "   ", FirstName: "Ada", LastName: "Lovelace", Password: "long-enough"},
		},
		{
			name: "missingFirstName",
			req:  RegisterRequest{Email: "ada@example.com", LastName: "Lovelace", Password: "long-enough"},
		},
		{
			name: "missingLastName",
			req:  RegisterRequest{Email: "ada@example.com", FirstName: "Ada", Password: "long-enough"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.req)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNewRegisterServiceRequiresDB(t *testing.T) {
	_, err := NewRegisterService(RegisterServiceParams{})
	if err == nil {
		t.Fatalf("expected error when database client missing")
	}
}

func TestNewRegisterServiceRequiresSessionManager(t *testing.T) {
	_, err := NewRegisterService(RegisterServiceParams{DB: db.NewFromConn(nil)})
	if err == nil {
		t.Fatalf("expected error when session manager missing")
	}
}

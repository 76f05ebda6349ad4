package auth

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/internal/users"
	"github.com/gamesage/gamesage-backend/pkg/config"
	"github.com/gamesage/gamesage-backend/pkg/db"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
	"github.com/gamesage/gamesage-backend/pkg/logger"
	"github.com/gamesage/gamesage-backend/pkg/security"
)

// SeedAdminParams names the dependencies for the startup admin seed.
type SeedAdminParams struct {
	DB             *db.Client
	FeatureFlags   config.FeatureFlagsConfig
	AdminSeed      config.AdminSeedConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// SeedAdmin creates the bootstrap admin account when the seed flag is enabled
// and no admin exists yet. It is safe to run on every startup.
func SeedAdmin(ctx context.Context, params SeedAdminParams) error {
	if !params.FeatureFlags.SeedAdmin {
		return nil
	}
	if params.DB == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}

	email := strings.ToLower(strings.TrimSpace(params.AdminSeed.Email))
	password := params.AdminSeed.Password
	if email == "" || password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "admin seed requires email and password")
	}

	passwordHash, err := security.HashPassword(password, params.PasswordConfig)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return params.DB.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		count, err := userRepo.CountAdmins(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count admins")
		}
		if count > 0 {
			return nil
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    params.AdminSeed.FirstName,
			LastName:     params.AdminSeed.LastName,
			IsAdmin:      true,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create admin user")
		}
		if params.Logger != nil {
			params.Logger.Info(ctx, "seeded admin user "+user.Email)
		}
		return nil
	})
}

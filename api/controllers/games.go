package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gamesage/gamesage-backend/api/responses"
	"github.com/gamesage/gamesage-backend/api/validators"
	gamesvc "github.com/gamesage/gamesage-backend/internal/games"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
	"github.com/gamesage/gamesage-backend/pkg/logger"
)

// GamesList serves the public catalog with filters and cursor pagination.
func GamesList(svc gamesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "game service unavailable"))
			return
		}

		filters, err := parseGameFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListGames(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// GameGet serves a single listing by id.
func GameGet(svc gamesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "game service unavailable"))
			return
		}

		gameID, err := pathUUID(r, "gameId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		game, err := svc.GetGame(r.Context(), gameID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, game)
	}
}

// GameCreate creates a listing. Admin only.
func GameCreate(svc gamesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "game service unavailable"))
			return
		}

		var payload gamesvc.CreateGameInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		game, err := svc.CreateGame(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, game)
	}
}

// GameUpdate applies a partial update to a listing. Admin only.
func GameUpdate(svc gamesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "game service unavailable"))
			return
		}

		gameID, err := pathUUID(r, "gameId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload gamesvc.UpdateGameInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		game, err := svc.UpdateGame(r.Context(), gameID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, game)
	}
}

// GameDelete retires a listing. Admin only.
func GameDelete(svc gamesvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "game service unavailable"))
			return
		}

		gameID, err := pathUUID(r, "gameId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteGame(r.Context(), gameID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func parseGameFilters(r *http.Request) (gamesvc.ListFilters, error) {
	query := r.URL.Query()

	filters := gamesvc.ListFilters{
		Title:        validators.SanitizeString(query.Get("title"), 200),
		GenreSlug:    validators.SanitizeString(query.Get("genre"), 100),
		PlatformSlug: validators.SanitizeString(query.Get("platform"), 100),
		Cursor:       strings.TrimSpace(query.Get("cursor")),
	}

	minPrice, err := parseQueryDecimal(query.Get("min_price"), "min_price")
	if err != nil {
		return gamesvc.ListFilters{}, err
	}
	filters.MinPrice = minPrice

	maxPrice, err := parseQueryDecimal(query.Get("max_price"), "max_price")
	if err != nil {
		return gamesvc.ListFilters{}, err
	}
	filters.MaxPrice = maxPrice

	if raw := strings.TrimSpace(query.Get("on_sale")); raw != "" {
		onSale, err := strconv.ParseBool(raw)
		if err != nil {
			return gamesvc.ListFilters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid on_sale")
		}
		filters.OnSale = &onSale
	}

	limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
	if err != nil {
		return gamesvc.ListFilters{}, err
	}
	filters.Limit = limit

	return filters, nil
}

func parseQueryDecimal(raw, key string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	if value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, key+" must not be negative")
	}
	return &value, nil
}

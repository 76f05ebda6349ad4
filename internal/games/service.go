package games

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamesage/gamesage-backend/pkg/db"
	"github.com/gamesage/gamesage-backend/pkg/db/models"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
	"github.com/gamesage/gamesage-backend/pkg/slug"
)

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	GameRepo *Repository
}

// Service exposes business rules for catalog management.
type Service interface {
	ListGames(ctx context.Context, filters ListFilters) (GamesPageDTO, error)
	GetGame(ctx context.Context, id uuid.UUID) (GameDTO, error)
	CreateGame(ctx context.Context, input CreateGameInput) (GameDTO, error)
	UpdateGame(ctx context.Context, id uuid.UUID, input UpdateGameInput) (GameDTO, error)
	DeleteGame(ctx context.Context, id uuid.UUID) error
	SearchGames(ctx context.Context, query string, limit int) ([]GameSummary, error)
}

type service struct {
	gameRepo *Repository
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.GameRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "game repo is required")
	}
	return &service{gameRepo: params.GameRepo}, nil
}

// ListGames returns a filtered, cursor-paginated slice of the catalog.
func (s *service) ListGames(ctx context.Context, filters ListFilters) (GamesPageDTO, error) {
	if err := validatePriceBounds(filters.MinPrice, filters.MaxPrice); err != nil {
		return GamesPageDTO{}, err
	}
	page, err := s.gameRepo.List(ctx, filters)
	if err != nil {
		return GamesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list games")
	}
	return page, nil
}

// GetGame loads the full listing detail.
func (s *service) GetGame(ctx context.Context, id uuid.UUID) (GameDTO, error) {
	if id == uuid.Nil {
		return GameDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	game, err := s.gameRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return GameDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "game not found")
		}
		return GameDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load game")
	}
	return toGameDTO(game), nil
}

// CreateGame validates and persists a new listing with a derived slug.
func (s *service) CreateGame(ctx context.Context, input CreateGameInput) (GameDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return GameDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if err := validatePricing(input.Price, input.SalePrice, input.OnSale); err != nil {
		return GameDTO{}, err
	}
	if input.DeveloperID == uuid.Nil {
		return GameDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "developer id is required")
	}
	if input.PublisherID == uuid.Nil {
		return GameDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "publisher id is required")
	}

	slugValue, err := s.resolveSlug(ctx, title)
	if err != nil {
		return GameDTO{}, err
	}

	refundable := true
	if input.Refundable != nil {
		refundable = *input.Refundable
	}

	game := models.Game{
		Title:       title,
		Slug:        slugValue,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		SalePrice:   input.SalePrice,
		OnSale:      input.OnSale,
		Refundable:  refundable,
		ReleaseDate: input.ReleaseDate,
		DeveloperID: input.DeveloperID,
		PublisherID: input.PublisherID,
		Tags:        normalizeTags(input.Tags),
		IsActive:    true,
	}
	for _, genreID := range input.GenreIDs {
		game.Genres = append(game.Genres, models.Genre{ID: genreID})
	}
	for _, platform := range input.Platforms {
		game.Platforms = append(game.Platforms, models.GamePlatform{
			PlatformID: platform.PlatformID,
			Stock:      platform.Stock,
		})
	}

	if err := s.gameRepo.Create(ctx, &game); err != nil {
		if isUniqueViolation(err) {
			return GameDTO{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a game with this title already exists")
		}
		return GameDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create game")
	}
	return s.GetGame(ctx, game.ID)
}

// UpdateGame applies partial updates to a listing. Nil fields are unchanged.
func (s *service) UpdateGame(ctx context.Context, id uuid.UUID, input UpdateGameInput) (GameDTO, error) {
	if id == uuid.Nil {
		return GameDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	current, err := s.gameRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return GameDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "game not found")
		}
		return GameDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load game")
	}

	updates := map[string]any{}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return GameDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		if title != current.Title {
			slugValue, err := s.resolveSlug(ctx, title)
			if err != nil {
				return GameDTO{}, err
			}
			updates["title"] = title
			updates["slug"] = slugValue
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}

	price := current.Price
	if input.Price != nil {
		price = *input.Price
		updates["price"] = *input.Price
	}
	salePrice := current.SalePrice
	if input.SalePrice != nil {
		salePrice = input.SalePrice
		updates["sale_price"] = *input.SalePrice
	}
	onSale := current.OnSale
	if input.OnSale != nil {
		onSale = *input.OnSale
		updates["on_sale"] = *input.OnSale
	}
	if err := validatePricing(price, salePrice, onSale); err != nil {
		return GameDTO{}, err
	}

	if input.Refundable != nil {
		updates["refundable"] = *input.Refundable
	}
	if input.ReleaseDate != nil {
		updates["release_date"] = *input.ReleaseDate
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.Tags != nil {
		updates["tags"] = normalizeTags(input.Tags)
	}

	if len(updates) > 0 {
		if err := s.gameRepo.Update(ctx, id, updates); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return GameDTO{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "game not found")
			}
			if isUniqueViolation(err) {
				return GameDTO{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a game with this title already exists")
			}
			return GameDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update game")
		}
	}
	return s.GetGame(ctx, id)
}

// DeleteGame removes the listing. Purchase history keeps its snapshots.
func (s *service) DeleteGame(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "game id is required")
	}
	if err := s.gameRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "game not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete game")
	}
	return nil
}

// SearchGames runs the free-text catalog search used by the assistant tool.
func (s *service) SearchGames(ctx context.Context, query string, limit int) ([]GameSummary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}
	items, err := s.gameRepo.SearchSummaries(ctx, query, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search games")
	}
	return items, nil
}

func (s *service) resolveSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "title must contain at least one alphanumeric character")
	}
	count, err := s.gameRepo.CountBySlugPrefix(ctx, base)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve slug")
	}
	if count == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s-%d", base, count+1), nil
}

func validatePricing(price decimal.Decimal, salePrice *decimal.Decimal, onSale bool) error {
	if !price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be greater than zero")
	}
	if salePrice != nil {
		if !salePrice.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "sale price must be greater than zero")
		}
		if salePrice.GreaterThanOrEqual(price) {
			return pkgerrors.New(pkgerrors.CodeValidation, "sale price must be below the list price")
		}
	}
	if onSale && salePrice == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale price is required when a game is on sale")
	}
	return nil
}

func validatePriceBounds(min, max *decimal.Decimal) error {
	if min != nil && min.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "min price cannot be negative")
	}
	if max != nil && max.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "max price cannot be negative")
	}
	if min != nil && max != nil && min.GreaterThan(*max) {
		return pkgerrors.New(pkgerrors.CodeValidation, "min price cannot exceed max price")
	}
	return nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func toGameDTO(game *models.Game) GameDTO {
	dto := GameDTO{
		ID:          game.ID,
		Title:       game.Title,
		Slug:        game.Slug,
		Description: game.Description,
		Price:       game.Price,
		SalePrice:   game.SalePrice,
		OnSale:      game.OnSale,
		Refundable:  game.Refundable,
		Rating:      game.Rating,
		ReleaseDate: game.ReleaseDate,
		Tags:        game.Tags,
		IsActive:    game.IsActive,
		CreatedAt:   game.CreatedAt,
		UpdatedAt:   game.UpdatedAt,
		Genres:      make([]GenreDTO, 0, len(game.Genres)),
		Platforms:   make([]PlatformDTO, 0, len(game.Platforms)),
		Media:       make([]MediaDTO, 0, len(game.Media)),
	}
	if game.Developer != nil {
		name := game.Developer.Name
		dto.Developer = &name
	}
	if game.Publisher != nil {
		name := game.Publisher.Name
		dto.Publisher = &name
	}
	for _, genre := range game.Genres {
		dto.Genres = append(dto.Genres, GenreDTO{ID: genre.ID, Name: genre.Name, Slug: genre.Slug})
	}
	for _, gp := range game.Platforms {
		platform := PlatformDTO{ID: gp.PlatformID, Stock: gp.Stock}
		if gp.Platform != nil {
			platform.Name = gp.Platform.Name
			platform.Slug = gp.Platform.Slug
		}
		dto.Platforms = append(dto.Platforms, platform)
	}
	for _, media := range game.Media {
		dto.Media = append(dto.Media, MediaDTO{ID: media.ID, URL: media.URL, AltText: media.AltText})
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}
	return dto
}

func isUniqueViolation(err error) bool {
	return db.IsUniqueViolation(err, "")
}

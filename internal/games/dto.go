package games

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GameSummary is the lightweight projection used by catalog lists, cart rows,
// favorites, and the chat search tool.
type GameSummary struct {
	ID           uuid.UUID        `json:"id"`
	Title        string           `json:"title"`
	Slug         string           `json:"slug"`
	Price        decimal.Decimal  `json:"price"`
	SalePrice    *decimal.Decimal `json:"sale_price,omitempty"`
	OnSale       bool             `json:"on_sale"`
	Rating       float64          `json:"rating"`
	ThumbnailURL *string          `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// EffectivePrice mirrors the checkout price rule on the summary projection.
func (g GameSummary) EffectivePrice() decimal.Decimal {
	if g.OnSale && g.SalePrice != nil {
		return *g.SalePrice
	}
	return g.Price
}

// GenreDTO is the taxonomy projection exposed on game details.
type GenreDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// PlatformDTO carries availability per platform.
type PlatformDTO struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Slug  string    `json:"slug"`
	Stock int       `json:"stock"`
}

// MediaDTO is the asset projection embedded in game details.
type MediaDTO struct {
	ID      uuid.UUID `json:"id"`
	URL     string    `json:"url"`
	AltText *string   `json:"alt_text,omitempty"`
}

// GameDTO is the full detail view of a listing.
type GameDTO struct {
	ID          uuid.UUID        `json:"id"`
	Title       string           `json:"title"`
	Slug        string           `json:"slug"`
	Description string           `json:"description"`
	Price       decimal.Decimal  `json:"price"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	OnSale      bool             `json:"on_sale"`
	Refundable  bool             `json:"refundable"`
	Rating      float64          `json:"rating"`
	ReleaseDate *time.Time       `json:"release_date,omitempty"`
	Developer   *string          `json:"developer,omitempty"`
	Publisher   *string          `json:"publisher,omitempty"`
	Genres      []GenreDTO       `json:"genres"`
	Platforms   []PlatformDTO    `json:"platforms"`
	Media       []MediaDTO       `json:"media"`
	Tags        []string         `json:"tags"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ListFilters captures the catalog query surface.
type ListFilters struct {
	Title        string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	GenreSlug    string
	PlatformSlug string
	OnSale       *bool
	Cursor       string
	Limit        int
}

// GamePagination carries cursor metadata alongside list responses.
type GamePagination struct {
	Total   int    `json:"total"`
	Current string `json:"current,omitempty"`
	First   string `json:"first,omitempty"`
	Last    string `json:"last,omitempty"`
	Prev    string `json:"prev,omitempty"`
	Next    string `json:"next,omitempty"`
}

// GamesPageDTO is a cursor-paginated catalog view.
type GamesPageDTO struct {
	Items      []GameSummary  `json:"items"`
	Pagination GamePagination `json:"pagination"`
}

// PlatformStockInput assigns initial stock for one platform on create/update.
type PlatformStockInput struct {
	PlatformID uuid.UUID `json:"platform_id" validate:"required"`
	Stock      int       `json:"stock" validate:"gte=0"`
}

// CreateGameInput is the admin payload for a new listing.
type CreateGameInput struct {
	Title       string               `json:"title" validate:"required,min=1,max=200"`
	Description string               `json:"description"`
	Price       decimal.Decimal      `json:"price" validate:"required"`
	SalePrice   *decimal.Decimal     `json:"sale_price,omitempty"`
	OnSale      bool                 `json:"on_sale"`
	Refundable  *bool                `json:"refundable,omitempty"`
	ReleaseDate *time.Time           `json:"release_date,omitempty"`
	DeveloperID uuid.UUID            `json:"developer_id" validate:"required"`
	PublisherID uuid.UUID            `json:"publisher_id" validate:"required"`
	GenreIDs    []uuid.UUID          `json:"genre_ids"`
	Platforms   []PlatformStockInput `json:"platforms"`
	Tags        []string             `json:"tags"`
}

// UpdateGameInput carries the mutable listing fields; nil means unchanged.
type UpdateGameInput struct {
	Title       *string          `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	SalePrice   *decimal.Decimal `json:"sale_price,omitempty"`
	OnSale      *bool            `json:"on_sale,omitempty"`
	Refundable  *bool            `json:"refundable,omitempty"`
	ReleaseDate *time.Time       `json:"release_date,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
}

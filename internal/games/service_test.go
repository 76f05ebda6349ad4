package games

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamesage/gamesage-backend/pkg/db/models"
	pkgerrors "github.com/gamesage/gamesage-backend/pkg/errors"
)

func TestValidatePricing(t *testing.T) {
	price := decimal.NewFromFloat(59.99)
	sale := decimal.NewFromFloat(39.99)

	t.Run("validWithSale", func(t *testing.T) {
		if err := validatePricing(price, &sale, true); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("zeroPrice", func(t *testing.T) {
		err := validatePricing(decimal.Zero, nil, false)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("saleAtOrAboveListPrice", func(t *testing.T) {
		equal := decimal.NewFromFloat(59.99)
		err := validatePricing(price, &equal, true)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("onSaleWithoutSalePrice", func(t *testing.T) {
		err := validatePricing(price, nil, true)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestValidatePriceBounds(t *testing.T) {
	low := decimal.NewFromInt(10)
	high := decimal.NewFromInt(50)

	if err := validatePriceBounds(&low, &high); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := validatePriceBounds(nil, nil); err != nil {
		t.Fatalf("expected no error for open bounds, got %v", err)
	}

	err := validatePriceBounds(&high, &low)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for inverted bounds, got %v", err)
	}

	negative := decimal.NewFromInt(-1)
	err = validatePriceBounds(&negative, nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative min, got %v", err)
	}
}

func TestNormalizeTags(t *testing.T) {
	got := normalizeTags([]string{" RPG ", "rpg", "", "Open-World", "open-world", "co-op"})
	want := []string{"rpg", "open-world", "co-op"}
	if len(got) != len(want) {
		t.Fatalf("expected %d tags, got %v", len(want), got)
	}
	for i, tag := range want {
		if got[i] != tag {
			t.Fatalf("expected tag %q at %d, got %q", tag, i, got[i])
		}
	}
}

func TestEffectivePriceOnSummary(t *testing.T) {
	sale := decimal.NewFromFloat(29.99)
	summary := GameSummary{
		Price:     decimal.NewFromFloat(59.99),
		SalePrice: &sale,
		OnSale:    true,
	}
	if !summary.EffectivePrice().Equal(sale) {
		t.Fatalf("expected sale price, got %s", summary.EffectivePrice())
	}

	summary.OnSale = false
	if !summary.EffectivePrice().Equal(summary.Price) {
		t.Fatalf("expected list price when not on sale, got %s", summary.EffectivePrice())
	}
}

func TestToGameDTO(t *testing.T) {
	dev := &models.Developer{Name: "FromSoftware"}
	pub := &models.Publisher{Name: "Bandai Namco"}
	alt := "cover art"
	release := time.Date(2022, 2, 25, 0, 0, 0, 0, time.UTC)

	game := &models.Game{
		ID:          uuid.New(),
		Title:       "Elden Ring",
		Slug:        "elden-ring",
		Price:       decimal.NewFromFloat(59.99),
		Refundable:  true,
		Rating:      9.5,
		ReleaseDate: &release,
		Developer:   dev,
		Publisher:   pub,
		Genres:      []models.Genre{{ID: uuid.New(), Name: "Action RPG", Slug: "action-rpg"}},
		Platforms: []models.GamePlatform{{
			PlatformID: uuid.New(),
			Stock:      12,
			Platform:   &models.Platform{Name: "PlayStation 5", Slug: "ps5"},
		}},
		Media:    []models.Media{{ID: uuid.New(), URL: "https://cdn.example.com/elden.jpg", AltText: &alt}},
		IsActive: true,
	}

	dto := toGameDTO(game)

	if dto.Developer == nil || *dto.Developer != "FromSoftware" {
		t.Fatalf("expected developer name, got %v", dto.Developer)
	}
	if dto.Publisher == nil || *dto.Publisher != "Bandai Namco" {
		t.Fatalf("expected publisher name, got %v", dto.Publisher)
	}
	if len(dto.Genres) != 1 || dto.Genres[0].Slug != "action-rpg" {
		t.Fatalf("unexpected genres: %v", dto.Genres)
	}
	if len(dto.Platforms) != 1 || dto.Platforms[0].Slug != "ps5" || dto.Platforms[0].Stock != 12 {
		t.Fatalf("unexpected platforms: %v", dto.Platforms)
	}
	if len(dto.Media) != 1 || dto.Media[0].AltText == nil || *dto.Media[0].AltText != "cover art" {
		t.Fatalf("unexpected media: %v", dto.Media)
	}
	if dto.Tags == nil {
		t.Fatal("expected tags to be non-nil")
	}
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error when game repo is missing")
	}
}

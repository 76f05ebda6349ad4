package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Game represents the canonical storefront listing.
type Game struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title       string           `gorm:"column:title;not null"`
	Slug        string           `gorm:"column:slug;not null;uniqueIndex"`
	Description string           `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal  `gorm:"column:price;type:numeric(10,2);not null"`
	SalePrice   *decimal.Decimal `gorm:"column:sale_price;type:numeric(10,2)"`
	OnSale      bool             `gorm:"column:on_sale;not null;default:false"`
	Refundable  bool             `gorm:"column:refundable;not null;default:true"`
	Rating      float64          `gorm:"column:rating;type:numeric(3,1);not null;default:0"`
	ReleaseDate *time.Time       `gorm:"column:release_date"`
	DeveloperID uuid.UUID        `gorm:"column:developer_id;type:uuid;not null"`
	PublisherID uuid.UUID        `gorm:"column:publisher_id;type:uuid;not null"`
	Tags        pq.StringArray   `gorm:"column:tags;type:text[];not null;default:ARRAY[]::text[]"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	Developer   *Developer       `gorm:"foreignKey:DeveloperID"`
	Publisher   *Publisher       `gorm:"foreignKey:PublisherID"`
	Genres      []Genre          `gorm:"many2many:game_genres"`
	Platforms   []GamePlatform   `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
	Media       []Media          `gorm:"foreignKey:GameID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice is the price charged at checkout: the sale price when the
// listing is on sale, the list price otherwise.
func (g Game) EffectivePrice() decimal.Decimal {
	if g.OnSale && g.SalePrice != nil {
		return *g.SalePrice
	}
	return g.Price
}

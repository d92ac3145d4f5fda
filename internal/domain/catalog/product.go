package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductType string

const (
	ProductTypeStandalone ProductType = "standalone"
	ProductTypeBundle     ProductType = "bundle"
	ProductTypeComponent  ProductType = "component"
)

type ProductStatus string

const (
	StatusActive       ProductStatus = "active"
	StatusSunset       ProductStatus = "sunset"
	StatusDiscontinued ProductStatus = "discontinued"
)

type ProductImage struct {
	URL       string `json:"url"`
	AltText   string `json:"alt_text,omitempty"`
	SortOrder int    `json:"sort_order"`
	IsPrimary bool   `json:"is_primary"`
}

// Product is one row of a product lineage. All money fields are integer
// cents. ComponentPrice, when set, replaces Price whenever the product is
// embedded as a component of another product.
type Product struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SKU  string    `gorm:"column:sku;not null;index" json:"sku"`
	Slug string    `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Name string    `gorm:"column:name;not null" json:"name"`

	Price          int64  `gorm:"column:price;not null" json:"price"`
	ComponentPrice *int64 `gorm:"column:component_price" json:"component_price,omitempty"`

	// Version increases by one per fork within a logical lineage; rows of
	// older versions are never rewritten.
	Version int `gorm:"column:version;not null;default:1" json:"version"`

	ProductType            ProductType   `gorm:"column:product_type;not null;default:'standalone'" json:"product_type"`
	Status                 ProductStatus `gorm:"column:status;not null;default:'active';index" json:"status"`
	IsAvailableForPurchase bool          `gorm:"column:is_available_for_purchase;not null;default:true" json:"is_available_for_purchase"`

	SunsetReason         string     `gorm:"column:sunset_reason" json:"sunset_reason,omitempty"`
	ReplacementProductID *uuid.UUID `gorm:"type:uuid;column:replacement_product_id" json:"replacement_product_id,omitempty"`

	Images []ProductImage `gorm:"column:images;type:jsonb;serializer:json" json:"images"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string { return "product" }

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// EffectiveComponentPrice is the unit price used when this product appears
// as a component and the edge carries no override.
func (p *Product) EffectiveComponentPrice() int64 {
	if p.ComponentPrice != nil {
		return *p.ComponentPrice
	}
	return p.Price
}

// PrimaryImage returns the image flagged primary, falling back to the first
// image by sort order.
func (p *Product) PrimaryImage() *ProductImage {
	if len(p.Images) == 0 {
		return nil
	}
	best := &p.Images[0]
	for i := range p.Images {
		img := &p.Images[i]
		if img.IsPrimary {
			return img
		}
		if img.SortOrder < best.SortOrder {
			best = img
		}
	}
	return best
}

package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductComponent is one directed edge of the composition graph: the
// component product is used as a sub-part of the parent product. The graph
// formed by all edges must stay acyclic; inserts go through the graph
// service which verifies reachability before writing.
type ProductComponent struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ParentProductID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_component_edge,priority:1;index" json:"parent_product_id"`
	ComponentProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_component_edge,priority:2;index" json:"component_product_id"`

	Quantity   int  `gorm:"column:quantity;not null;default:1" json:"quantity"`
	IsRequired bool `gorm:"column:is_required;not null;default:false" json:"is_required"`

	// IsIncluded groups the component into the parent's bundled breakdown
	// rather than the optional one. Both groups contribute to the charged
	// total at snapshot time.
	IsIncluded bool `gorm:"column:is_included;not null;default:true" json:"is_included"`

	// PriceOverride supersedes the component's own price/component_price
	// when it is used under this specific parent. Cents.
	PriceOverride *int64 `gorm:"column:price_override" json:"price_override,omitempty"`

	DisplayName string `gorm:"column:display_name" json:"display_name,omitempty"`
	SortOrder   int    `gorm:"column:sort_order;not null;default:0" json:"sort_order"`

	Parent    *Product `gorm:"constraint:OnDelete:CASCADE;foreignKey:ParentProductID;references:ID" json:"parent,omitempty"`
	Component *Product `gorm:"constraint:OnDelete:CASCADE;foreignKey:ComponentProductID;references:ID" json:"component,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ProductComponent) TableName() string { return "product_component" }

func (c *ProductComponent) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// UnitPrice resolves the per-unit price of this edge against the component
// product: edge override first, then the component's own component price,
// then its standalone price.
func (c *ProductComponent) UnitPrice(component *Product) int64 {
	if c.PriceOverride != nil {
		return *c.PriceOverride
	}
	return component.EffectiveComponentPrice()
}

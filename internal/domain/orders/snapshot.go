package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/catalog"
)

// SnapshotComponent is one resolved node of a snapshot's component tree.
// UnitPrice is the price that was in force when the snapshot was taken
// (edge override, component price or standalone price, in that order).
type SnapshotComponent struct {
	ComponentID   uuid.UUID           `json:"componentId"`
	SKU           string              `json:"sku"`
	Name          string              `json:"name"`
	DisplayName   string              `json:"displayName,omitempty"`
	Version       int                 `json:"version"`
	Quantity      int                 `json:"quantity"`
	UnitPrice     int64               `json:"unitPrice"`
	IsIncluded    bool                `json:"isIncluded"`
	IsRequired    bool                `json:"isRequired"`
	SubComponents []SnapshotComponent `json:"subComponents,omitempty"`
}

// OrderItemSnapshot is the denormalized record written once per order line.
// It is serialized into the order_item row verbatim and never mutated or
// re-derived afterwards, so historical orders stay reproducible after any
// catalog change.
type OrderItemSnapshot struct {
	CurrentProductID uuid.UUID           `json:"currentProductId"`
	SKU              string              `json:"sku"`
	Slug             string              `json:"slug"`
	Name             string              `json:"name"`
	Version          int                 `json:"version"`
	ProductType      catalog.ProductType `json:"productType"`
	PrimaryImage     string              `json:"primaryImage,omitempty"`

	ComponentTree []SnapshotComponent `json:"componentTree"`

	BasePrice               int64 `json:"basePrice"`
	IncludedComponentsPrice int64 `json:"includedComponentsPrice"`
	OptionalComponentsPrice int64 `json:"optionalComponentsPrice"`

	// Price is the charged per-unit price: base plus both component
	// groups. LineTotal = Price * Quantity.
	Price     int64 `json:"price"`
	Quantity  int   `json:"quantity"`
	LineTotal int64 `json:"lineTotal"`

	CreatedAt time.Time `json:"createdAt"`
}

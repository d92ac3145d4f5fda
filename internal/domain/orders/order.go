package orders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Status    OrderStatus `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Subtotal  int64       `gorm:"column:subtotal;not null" json:"subtotal"`
	ItemCount int         `gorm:"column:item_count;not null" json:"item_count"`

	Items []OrderItem `gorm:"foreignKey:OrderID;references:ID" json:"items,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string { return "order" }

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem is one order line. ProductID links back to the exact catalog
// row the line was created from; Snapshot holds the serialized frozen copy
// and is never re-derived from live data.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`

	Quantity  int   `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice int64 `gorm:"column:unit_price;not null" json:"unit_price"`
	LineTotal int64 `gorm:"column:line_total;not null" json:"line_total"`

	Snapshot datatypes.JSON `gorm:"column:snapshot;type:jsonb;not null" json:"snapshot"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (OrderItem) TableName() string { return "order_item" }

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

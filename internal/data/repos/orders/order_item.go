package orders

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/orders"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/dbctx"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
)

type OrderRepo interface {
	Create(dbc dbctx.Context, rows []*orders.Order) ([]*orders.Order, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*orders.Order, error)
}

type OrderItemRepo interface {
	Create(dbc dbctx.Context, rows []*orders.OrderItem) ([]*orders.OrderItem, error)
	ListByOrder(dbc dbctx.Context, orderID uuid.UUID) ([]*orders.OrderItem, error)
	ExistsByProductID(dbc dbctx.Context, productID uuid.UUID) (bool, error)
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, log *logger.Logger) OrderRepo {
	return &orderRepo{db: db, log: log.With("repo", "OrderRepo")}
}

func (r *orderRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *orderRepo) Create(dbc dbctx.Context, rows []*orders.Order) ([]*orders.Order, error) {
	if len(rows) == 0 {
		return []*orders.Order{}, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *orderRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*orders.Order, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*orders.Order
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

type orderItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderItemRepo(db *gorm.DB, log *logger.Logger) OrderItemRepo {
	return &orderItemRepo{db: db, log: log.With("repo", "OrderItemRepo")}
}

func (r *orderItemRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *orderItemRepo) Create(dbc dbctx.Context, rows []*orders.OrderItem) ([]*orders.OrderItem, error) {
	if len(rows) == 0 {
		return []*orders.OrderItem{}, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *orderItemRepo) ListByOrder(dbc dbctx.Context, orderID uuid.UUID) ([]*orders.OrderItem, error) {
	var out []*orders.OrderItem
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ExistsByProductID answers whether any persisted order line references this
// exact product row. Once true, the row may only evolve via version fork.
func (r *orderItemRepo) ExistsByProductID(dbc dbctx.Context, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&orders.OrderItem{}).
		Where("product_id = ?", productID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

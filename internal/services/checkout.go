package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	orderrepo "github.com/molave0524/two-phase-cooling-education-sub004/internal/data/repos/orders"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/orders"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/dbctx"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/platform/apierr"
)

type CheckoutService interface {
	PlaceOrder(ctx context.Context, items []SnapshotRequest) (*orders.Order, error)
}

type checkoutService struct {
	db           *gorm.DB
	availability AvailabilityService
	snapshots    SnapshotService
	orderRepo    orderrepo.OrderRepo
	itemRepo     orderrepo.OrderItemRepo
	log          *logger.Logger
}

func NewCheckoutService(
	db *gorm.DB,
	availability AvailabilityService,
	snapshots SnapshotService,
	orderRepo orderrepo.OrderRepo,
	itemRepo orderrepo.OrderItemRepo,
	log *logger.Logger,
) CheckoutService {
	return &checkoutService{
		db:           db,
		availability: availability,
		snapshots:    snapshots,
		orderRepo:    orderRepo,
		itemRepo:     itemRepo,
		log:          log.With("service", "CheckoutService"),
	}
}

// PlaceOrder runs the order-creation flow: availability check, snapshot
// construction, then a single transaction writing the order and its lines.
// Each line embeds its serialized snapshot; after the commit nothing about
// the line is ever re-derived from the catalog.
func (s *checkoutService) PlaceOrder(ctx context.Context, items []SnapshotRequest) (*orders.Order, error) {
	if len(items) == 0 {
		return nil, apierr.Validation("order must contain at least one item")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apierr.Validation("quantity must be positive, got %d", item.Quantity)
		}
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	availability, err := s.availability.ValidateProductsAvailable(ctx, ids)
	if err != nil {
		return nil, err
	}
	if !availability.Valid {
		return nil, apierr.Validation("products unavailable for purchase: %v", availability.Unavailable)
	}

	snapshots, err := s.snapshots.CreateOrderItemSnapshots(ctx, items)
	if err != nil {
		return nil, err
	}
	totals := s.snapshots.CalculateOrderTotals(snapshots)

	var order *orders.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		order = &orders.Order{
			Status:    orders.OrderStatusPending,
			Subtotal:  totals.Subtotal,
			ItemCount: totals.ItemCount,
		}
		if _, err := s.orderRepo.Create(dbc, []*orders.Order{order}); err != nil {
			return err
		}

		lines := make([]*orders.OrderItem, 0, len(snapshots))
		for _, snap := range snapshots {
			raw, err := json.Marshal(snap)
			if err != nil {
				return err
			}
			lines = append(lines, &orders.OrderItem{
				OrderID:   order.ID,
				ProductID: snap.CurrentProductID,
				Quantity:  snap.Quantity,
				UnitPrice: snap.Price,
				LineTotal: snap.LineTotal,
				Snapshot:  datatypes.JSON(raw),
			})
		}
		created, err := s.itemRepo.Create(dbc, lines)
		if err != nil {
			return err
		}
		for _, line := range created {
			order.Items = append(order.Items, *line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("order placed", "order_id", order.ID, "items", len(order.Items), "subtotal", order.Subtotal)
	return order, nil
}

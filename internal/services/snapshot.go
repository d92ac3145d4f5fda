package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogrepo "github.com/molave0524/two-phase-cooling-education-sub004/internal/data/repos/catalog"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/catalog"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/orders"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/dbctx"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/platform/apierr"
)

// snapshotComponentDepth bounds how many component levels are materialized
// into an order snapshot. Two levels (direct components and their direct
// components) matches all existing order history; raising it would change
// snapshot fidelity, not correctness.
const snapshotComponentDepth = 2

// SnapshotRequest names one order line to freeze.
type SnapshotRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// OrderTotals aggregates a set of snapshots into order-level figures.
type OrderTotals struct {
	Subtotal  int64 `json:"subtotal"`
	ItemCount int   `json:"itemCount"`
}

type SnapshotService interface {
	CreateOrderItemSnapshot(ctx context.Context, productID uuid.UUID, quantity int) (*orders.OrderItemSnapshot, error)
	CreateOrderItemSnapshots(ctx context.Context, items []SnapshotRequest) ([]*orders.OrderItemSnapshot, error)
	CalculateOrderTotals(snapshots []*orders.OrderItemSnapshot) OrderTotals
}

type snapshotService struct {
	db         *gorm.DB
	products   catalogrepo.ProductRepo
	components catalogrepo.ComponentRepo
	log        *logger.Logger
}

func NewSnapshotService(db *gorm.DB, products catalogrepo.ProductRepo, components catalogrepo.ComponentRepo, log *logger.Logger) SnapshotService {
	return &snapshotService{
		db:         db,
		products:   products,
		components: components,
		log:        log.With("service", "SnapshotService"),
	}
}

// CreateOrderItemSnapshot freezes the product, a two-level resolution of
// its component tree and the computed price breakdown into a record that
// never looks at live data again. Both the included and the optional
// component groups are charged into the per-unit price; the grouping is a
// display distinction, not an opt-out.
func (s *snapshotService) CreateOrderItemSnapshot(ctx context.Context, productID uuid.UUID, quantity int) (*orders.OrderItemSnapshot, error) {
	if quantity <= 0 {
		return nil, apierr.Validation("quantity must be positive, got %d", quantity)
	}
	dbc := dbctx.New(ctx)
	product, err := s.products.GetByID(dbc, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apierr.NotFound("product %s does not exist", productID)
	}

	tree, err := s.resolveComponents(dbc, productID, snapshotComponentDepth)
	if err != nil {
		return nil, err
	}

	var includedPrice, optionalPrice int64
	for i := range tree {
		contribution := snapshotContribution(&tree[i])
		if tree[i].IsIncluded {
			includedPrice += contribution
		} else {
			optionalPrice += contribution
		}
	}

	price := product.Price + includedPrice + optionalPrice
	snapshot := &orders.OrderItemSnapshot{
		CurrentProductID:        product.ID,
		SKU:                     product.SKU,
		Slug:                    product.Slug,
		Name:                    product.Name,
		Version:                 product.Version,
		ProductType:             product.ProductType,
		ComponentTree:           tree,
		BasePrice:               product.Price,
		IncludedComponentsPrice: includedPrice,
		OptionalComponentsPrice: optionalPrice,
		Price:                   price,
		Quantity:                quantity,
		LineTotal:               price * int64(quantity),
		CreatedAt:               time.Now().UTC(),
	}
	if img := product.PrimaryImage(); img != nil {
		snapshot.PrimaryImage = img.URL
	}
	return snapshot, nil
}

func (s *snapshotService) CreateOrderItemSnapshots(ctx context.Context, items []SnapshotRequest) ([]*orders.OrderItemSnapshot, error) {
	out := make([]*orders.OrderItemSnapshot, 0, len(items))
	for _, item := range items {
		snapshot, err := s.CreateOrderItemSnapshot(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, err
		}
		out = append(out, snapshot)
	}
	return out, nil
}

func (s *snapshotService) CalculateOrderTotals(snapshots []*orders.OrderItemSnapshot) OrderTotals {
	totals := OrderTotals{}
	for _, snap := range snapshots {
		totals.Subtotal += snap.LineTotal
		totals.ItemCount += snap.Quantity
	}
	return totals
}

// resolveComponents materializes up to depth levels of components below
// parentID into snapshot nodes.
func (s *snapshotService) resolveComponents(dbc dbctx.Context, parentID uuid.UUID, depth int) ([]orders.SnapshotComponent, error) {
	if depth <= 0 {
		return nil, nil
	}
	edges, err := s.components.ListByParent(dbc, parentID)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.ComponentProductID)
	}
	products, err := s.products.GetByIDs(dbc, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	nodes := make([]orders.SnapshotComponent, 0, len(edges))
	for _, e := range edges {
		comp, ok := byID[e.ComponentProductID]
		if !ok {
			return nil, apierr.NotFound("component product %s does not exist", e.ComponentProductID)
		}
		sub, err := s.resolveComponents(dbc, e.ComponentProductID, depth-1)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, orders.SnapshotComponent{
			ComponentID:   comp.ID,
			SKU:           comp.SKU,
			Name:          comp.Name,
			DisplayName:   e.DisplayName,
			Version:       comp.Version,
			Quantity:      e.Quantity,
			UnitPrice:     e.UnitPrice(comp),
			IsIncluded:    e.IsIncluded,
			IsRequired:    e.IsRequired,
			SubComponents: sub,
		})
	}
	return nodes, nil
}

// snapshotContribution prices a materialized top-level node: its own
// unit*quantity plus every descendant whose own is_included flag is set,
// the same contribution rule the pricing engine applies to the live graph.
func snapshotContribution(node *orders.SnapshotComponent) int64 {
	total := node.UnitPrice * int64(node.Quantity)
	for i := range node.SubComponents {
		total += includedDescendants(&node.SubComponents[i])
	}
	return total
}

func includedDescendants(node *orders.SnapshotComponent) int64 {
	var total int64
	if node.IsIncluded {
		total += node.UnitPrice * int64(node.Quantity)
	}
	for i := range node.SubComponents {
		total += includedDescendants(&node.SubComponents[i])
	}
	return total
}

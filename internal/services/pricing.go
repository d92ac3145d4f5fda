package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogrepo "github.com/molave0524/two-phase-cooling-education-sub004/internal/data/repos/catalog"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/dbctx"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/platform/apierr"
)

// ComponentsPrice is the aggregate contribution of a product's component
// graph, split by the top-level included/optional grouping. Cents.
type ComponentsPrice struct {
	IncludedPrice int64 `json:"includedPrice"`
	OptionalPrice int64 `json:"optionalPrice"`
	Total         int64 `json:"total"`
}

type PricingService interface {
	CalculateComponentsPrice(ctx context.Context, productID uuid.UUID) (*ComponentsPrice, error)
}

type pricingService struct {
	db         *gorm.DB
	products   catalogrepo.ProductRepo
	components catalogrepo.ComponentRepo
	log        *logger.Logger
}

func NewPricingService(db *gorm.DB, products catalogrepo.ProductRepo, components catalogrepo.ComponentRepo, log *logger.Logger) PricingService {
	return &pricingService{
		db:         db,
		products:   products,
		components: components,
		log:        log.With("service", "PricingService"),
	}
}

// CalculateComponentsPrice walks the component graph under productID and
// totals per-node contributions. A top-level node's own contribution
// (resolved unit price times quantity) lands in the partition named by its
// is_included flag; each descendant contributes only when its own
// is_included flag is set, into the partition of its top-level ancestor.
// A node being optional never suppresses pricing of its included
// sub-children. Read-only, lock-free, recomputed from the live graph on
// every call.
func (s *pricingService) CalculateComponentsPrice(ctx context.Context, productID uuid.UUID) (*ComponentsPrice, error) {
	dbc := dbctx.New(ctx)
	product, err := s.products.GetByID(dbc, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apierr.NotFound("product %s does not exist", productID)
	}

	edges, err := s.components.ListByParent(dbc, productID)
	if err != nil {
		return nil, err
	}

	out := &ComponentsPrice{}
	for _, edge := range edges {
		comp, err := s.products.GetByID(dbc, edge.ComponentProductID)
		if err != nil {
			return nil, err
		}
		if comp == nil {
			return nil, apierr.NotFound("component product %s does not exist", edge.ComponentProductID)
		}
		own := edge.UnitPrice(comp) * int64(edge.Quantity)
		descendants, err := s.descendantContribution(dbc, edge.ComponentProductID)
		if err != nil {
			return nil, err
		}
		if edge.IsIncluded {
			out.IncludedPrice += own + descendants
		} else {
			out.OptionalPrice += own + descendants
		}
	}
	out.Total = out.IncludedPrice + out.OptionalPrice
	return out, nil
}

// descendantContribution sums unit*quantity over every edge below parentID
// whose own is_included flag is set, descending through all levels.
func (s *pricingService) descendantContribution(dbc dbctx.Context, parentID uuid.UUID) (int64, error) {
	edges, err := s.components.ListByParent(dbc, parentID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, edge := range edges {
		if edge.IsIncluded {
			comp, err := s.products.GetByID(dbc, edge.ComponentProductID)
			if err != nil {
				return 0, err
			}
			if comp == nil {
				return 0, apierr.NotFound("component product %s does not exist", edge.ComponentProductID)
			}
			total += edge.UnitPrice(comp) * int64(edge.Quantity)
		}
		below, err := s.descendantContribution(dbc, edge.ComponentProductID)
		if err != nil {
			return 0, err
		}
		total += below
	}
	return total, nil
}

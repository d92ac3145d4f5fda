package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogrepo "github.com/molave0524/two-phase-cooling-education-sub004/internal/data/repos/catalog"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/catalog"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/dbctx"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
)

// AvailabilityResult reports which of the requested products may not be
// purchased right now. Valid is true only when Unavailable is empty.
type AvailabilityResult struct {
	Valid       bool        `json:"valid"`
	Unavailable []uuid.UUID `json:"unavailable"`
}

type AvailabilityService interface {
	ValidateProductsAvailable(ctx context.Context, productIDs []uuid.UUID) (*AvailabilityResult, error)
}

type availabilityService struct {
	db       *gorm.DB
	products catalogrepo.ProductRepo
	log      *logger.Logger
}

func NewAvailabilityService(db *gorm.DB, products catalogrepo.ProductRepo, log *logger.Logger) AvailabilityService {
	return &availabilityService{
		db:       db,
		products: products,
		log:      log.With("service", "AvailabilityService"),
	}
}

// ValidateProductsAvailable batch-fetches the named products. A product id
// counts as unavailable when it does not exist, is flagged unavailable for
// purchase, or is not in active status.
func (s *availabilityService) ValidateProductsAvailable(ctx context.Context, productIDs []uuid.UUID) (*AvailabilityResult, error) {
	unique := make([]uuid.UUID, 0, len(productIDs))
	seen := make(map[uuid.UUID]bool, len(productIDs))
	for _, id := range productIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	products, err := s.products.GetByIDs(dbctx.New(ctx), unique)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	unavailable := []uuid.UUID{}
	for _, id := range unique {
		p, ok := byID[id]
		if !ok || !p.IsAvailableForPurchase || p.Status != catalog.StatusActive {
			unavailable = append(unavailable, id)
		}
	}
	return &AvailabilityResult{
		Valid:       len(unavailable) == 0,
		Unavailable: unavailable,
	}, nil
}

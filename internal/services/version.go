package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogrepo "github.com/molave0524/two-phase-cooling-education-sub004/internal/data/repos/catalog"
	orderrepo "github.com/molave0524/two-phase-cooling-education-sub004/internal/data/repos/orders"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/catalog"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/dbctx"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/platform/apierr"
)

// ProductPatch is a partial update applied either in place (never-ordered
// products) or onto a forked copy (products already referenced by orders).
// Nil fields are left unchanged.
type ProductPatch struct {
	SKU                 *string                `json:"sku,omitempty"`
	Name                *string                `json:"name,omitempty"`
	Price               *int64                 `json:"price,omitempty"`
	ComponentPrice      *int64                 `json:"component_price,omitempty"`
	ClearComponentPrice bool                   `json:"clear_component_price,omitempty"`
	ProductType         *catalog.ProductType   `json:"product_type,omitempty"`
	Images              []catalog.ProductImage `json:"images,omitempty"`
}

type VersionService interface {
	IsProductInOrders(ctx context.Context, productID uuid.UUID) (bool, error)
	CreateProductVersion(ctx context.Context, productID uuid.UUID, patch ProductPatch) (*catalog.Product, error)
	SunsetProduct(ctx context.Context, productID uuid.UUID, reason string, replacementID *uuid.UUID) (*catalog.Product, error)
	DiscontinueProduct(ctx context.Context, productID uuid.UUID) (*catalog.Product, error)
}

type versionService struct {
	db         *gorm.DB
	products   catalogrepo.ProductRepo
	orderItems orderrepo.OrderItemRepo
	log        *logger.Logger
}

func NewVersionService(db *gorm.DB, products catalogrepo.ProductRepo, orderItems orderrepo.OrderItemRepo, log *logger.Logger) VersionService {
	return &versionService{
		db:         db,
		products:   products,
		orderItems: orderItems,
		log:        log.With("service", "VersionService"),
	}
}

func (s *versionService) IsProductInOrders(ctx context.Context, productID uuid.UUID) (bool, error) {
	return s.orderItems.ExistsByProductID(dbctx.New(ctx), productID)
}

// CreateProductVersion forks productID into a new row: every field copied,
// the patch applied, version incremented, fresh id and slug. The source row
// is left byte-identical so historical snapshots keep a stable anchor. The
// row lock on the source serializes racing forks; only one "next version"
// can win.
func (s *versionService) CreateProductVersion(ctx context.Context, productID uuid.UUID, patch ProductPatch) (*catalog.Product, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var fork *catalog.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		source, err := s.products.LockByID(dbc, productID)
		if err != nil {
			return err
		}
		if source == nil {
			return apierr.NotFound("product %s does not exist", productID)
		}

		next := *source
		next.ID = uuid.New()
		next.Version = source.Version + 1
		next.CreatedAt = time.Time{}
		next.UpdatedAt = time.Time{}
		next.Images = append([]catalog.ProductImage(nil), source.Images...)
		if source.ComponentPrice != nil {
			cp := *source.ComponentPrice
			next.ComponentPrice = &cp
		}
		applyPatch(&next, patch)

		slug, err := s.nextSlug(dbc, source.Slug, next.Version)
		if err != nil {
			return err
		}
		next.Slug = slug

		if _, err := s.products.Create(dbc, []*catalog.Product{&next}); err != nil {
			return err
		}
		fork = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product version forked",
		"source_id", productID, "fork_id", fork.ID, "version", fork.Version)
	return fork, nil
}

func (s *versionService) SunsetProduct(ctx context.Context, productID uuid.UUID, reason string, replacementID *uuid.UUID) (*catalog.Product, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apierr.Validation("sunset reason is required")
	}

	var updated *catalog.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		product, err := s.products.LockByID(dbc, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return apierr.NotFound("product %s does not exist", productID)
		}
		if product.Status != catalog.StatusActive {
			return apierr.State("cannot sunset product in status %q", product.Status)
		}
		if replacementID != nil {
			replacement, err := s.products.GetByID(dbc, *replacementID)
			if err != nil {
				return err
			}
			if replacement == nil {
				return apierr.Validation("replacement product %s does not exist", *replacementID)
			}
		}

		updates := map[string]interface{}{
			"status":                    catalog.StatusSunset,
			"is_available_for_purchase": false,
			"sunset_reason":             reason,
		}
		if replacementID != nil {
			updates["replacement_product_id"] = *replacementID
		}
		if err := s.products.UpdateFields(dbc, productID, updates); err != nil {
			return err
		}
		updated, err = s.products.GetByID(dbc, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product sunset", "product_id", productID, "reason", reason)
	return updated, nil
}

func (s *versionService) DiscontinueProduct(ctx context.Context, productID uuid.UUID) (*catalog.Product, error) {
	var updated *catalog.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		product, err := s.products.LockByID(dbc, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return apierr.NotFound("product %s does not exist", productID)
		}
		if product.Status == catalog.StatusDiscontinued {
			return apierr.State("product %s is already discontinued", productID)
		}

		if err := s.products.UpdateFields(dbc, productID, map[string]interface{}{
			"status":                    catalog.StatusDiscontinued,
			"is_available_for_purchase": false,
		}); err != nil {
			return err
		}
		updated, err = s.products.GetByID(dbc, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product discontinued", "product_id", productID)
	return updated, nil
}

// nextSlug derives a url-safe slug for a fork: the lineage's base slug plus
// a -v<version> suffix, disambiguated further if the catalog already holds
// that slug.
func (s *versionService) nextSlug(dbc dbctx.Context, sourceSlug string, version int) (string, error) {
	candidate := fmt.Sprintf("%s-v%d", baseSlug(sourceSlug), version)
	for {
		exists, err := s.products.SlugExists(dbc, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%s", candidate, uuid.NewString()[:8])
	}
}

// baseSlug strips a trailing -v<digits> suffix left by a previous fork.
func baseSlug(slug string) string {
	i := strings.LastIndex(slug, "-v")
	if i <= 0 || i+2 >= len(slug) {
		return slug
	}
	for _, r := range slug[i+2:] {
		if r < '0' || r > '9' {
			return slug
		}
	}
	return slug[:i]
}

func validatePatch(patch ProductPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return apierr.Validation("name must not be empty")
	}
	if patch.SKU != nil && strings.TrimSpace(*patch.SKU) == "" {
		return apierr.Validation("sku must not be empty")
	}
	if patch.Price != nil && *patch.Price < 0 {
		return apierr.Validation("price must not be negative")
	}
	if patch.ComponentPrice != nil && *patch.ComponentPrice < 0 {
		return apierr.Validation("component price must not be negative")
	}
	return nil
}

func applyPatch(p *catalog.Product, patch ProductPatch) {
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.ClearComponentPrice {
		p.ComponentPrice = nil
	} else if patch.ComponentPrice != nil {
		cp := *patch.ComponentPrice
		p.ComponentPrice = &cp
	}
	if patch.ProductType != nil {
		p.ProductType = *patch.ProductType
	}
	if patch.Images != nil {
		p.Images = append([]catalog.ProductImage(nil), patch.Images...)
	}
}

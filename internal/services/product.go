package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogrepo "github.com/molave0524/two-phase-cooling-education-sub004/internal/data/repos/catalog"
	orderrepo "github.com/molave0524/two-phase-cooling-education-sub004/internal/data/repos/orders"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/catalog"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/dbctx"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/platform/apierr"
)

type CreateProductInput struct {
	SKU            string                 `json:"sku"`
	Slug           string                 `json:"slug,omitempty"`
	Name           string                 `json:"name"`
	Price          int64                  `json:"price"`
	ComponentPrice *int64                 `json:"component_price,omitempty"`
	ProductType    catalog.ProductType    `json:"product_type,omitempty"`
	Images         []catalog.ProductImage `json:"images,omitempty"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, in CreateProductInput) (*catalog.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*catalog.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*catalog.Product, error)
}

type productService struct {
	db         *gorm.DB
	products   catalogrepo.ProductRepo
	orderItems orderrepo.OrderItemRepo
	log        *logger.Logger
}

func NewProductService(db *gorm.DB, products catalogrepo.ProductRepo, orderItems orderrepo.OrderItemRepo, log *logger.Logger) ProductService {
	return &productService{
		db:         db,
		products:   products,
		orderItems: orderItems,
		log:        log.With("service", "ProductService"),
	}
}

func (s *productService) CreateProduct(ctx context.Context, in CreateProductInput) (*catalog.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apierr.Validation("name is required")
	}
	if strings.TrimSpace(in.SKU) == "" {
		return nil, apierr.Validation("sku is required")
	}
	if in.Price < 0 {
		return nil, apierr.Validation("price must not be negative")
	}
	if in.ComponentPrice != nil && *in.ComponentPrice < 0 {
		return nil, apierr.Validation("component price must not be negative")
	}
	productType := in.ProductType
	if productType == "" {
		productType = catalog.ProductTypeStandalone
	}
	switch productType {
	case catalog.ProductTypeStandalone, catalog.ProductTypeBundle, catalog.ProductTypeComponent:
	default:
		return nil, apierr.Validation("unknown product type %q", productType)
	}

	var created *catalog.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		slug := strings.TrimSpace(in.Slug)
		if slug == "" {
			slug = Slugify(in.Name)
		}
		slug, err := s.uniqueSlug(dbc, slug)
		if err != nil {
			return err
		}
		created = &catalog.Product{
			SKU:                    strings.TrimSpace(in.SKU),
			Slug:                   slug,
			Name:                   strings.TrimSpace(in.Name),
			Price:                  in.Price,
			ComponentPrice:         in.ComponentPrice,
			Version:                1,
			ProductType:            productType,
			Status:                 catalog.StatusActive,
			IsAvailableForPurchase: true,
			Images:                 in.Images,
		}
		_, err = s.products.Create(dbc, []*catalog.Product{created})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("product created", "product_id", created.ID, "sku", created.SKU)
	return created, nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.products.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apierr.NotFound("product %s does not exist", id)
	}
	return product, nil
}

func (s *productService) GetProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	product, err := s.products.GetBySlug(dbctx.New(ctx), slug)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apierr.NotFound("product with slug %q does not exist", slug)
	}
	return product, nil
}

// UpdateProduct mutates the row in place, which is only legal while no
// order line references it. Once ordered, the row is frozen and edits must
// go through CreateProductVersion; attempting a direct edit then is a
// conflict. The ordered check and the update run in one transaction under
// a row lock so a concurrent first order cannot slip in between.
func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, patch ProductPatch) (*catalog.Product, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	var updated *catalog.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		product, err := s.products.LockByID(dbc, id)
		if err != nil {
			return err
		}
		if product == nil {
			return apierr.NotFound("product %s does not exist", id)
		}
		ordered, err := s.orderItems.ExistsByProductID(dbc, id)
		if err != nil {
			return err
		}
		if ordered {
			return apierr.Conflict("product %s is referenced by orders; create a new version instead", id)
		}

		updates := map[string]interface{}{}
		if patch.SKU != nil {
			updates["sku"] = strings.TrimSpace(*patch.SKU)
		}
		if patch.Name != nil {
			updates["name"] = strings.TrimSpace(*patch.Name)
		}
		if patch.Price != nil {
			updates["price"] = *patch.Price
		}
		if patch.ClearComponentPrice {
			updates["component_price"] = nil
		} else if patch.ComponentPrice != nil {
			updates["component_price"] = *patch.ComponentPrice
		}
		if patch.ProductType != nil {
			updates["product_type"] = *patch.ProductType
		}
		if patch.Images != nil {
			updates["images"] = patch.Images
		}
		if err := s.products.UpdateFields(dbc, id, updates); err != nil {
			return err
		}
		updated, err = s.products.GetByID(dbc, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *productService) uniqueSlug(dbc dbctx.Context, slug string) (string, error) {
	candidate := slug
	for {
		exists, err := s.products.SlugExists(dbc, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = slug + "-" + uuid.NewString()[:8]
	}
}

// Slugify lowercases s and collapses every non-alphanumeric run into a
// single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

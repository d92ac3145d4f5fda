package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	catalogrepo "github.com/molave0524/two-phase-cooling-education-sub004/internal/data/repos/catalog"
	orderrepo "github.com/molave0524/two-phase-cooling-education-sub004/internal/data/repos/orders"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/catalog"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/orders"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
)

type testEnv struct {
	db *gorm.DB

	products   catalogrepo.ProductRepo
	components catalogrepo.ComponentRepo
	orderRepo  orderrepo.OrderRepo
	itemRepo   orderrepo.OrderItemRepo

	product      ProductService
	graph        GraphService
	pricing      PricingService
	version      VersionService
	availability AvailabilityService
	snapshot     SnapshotService
	checkout     CheckoutService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&catalog.Product{},
		&catalog.ProductComponent{},
		&orders.Order{},
		&orders.OrderItem{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	log := logger.NewNop()
	products := catalogrepo.NewProductRepo(db, log)
	components := catalogrepo.NewComponentRepo(db, log)
	orderRepo := orderrepo.NewOrderRepo(db, log)
	itemRepo := orderrepo.NewOrderItemRepo(db, log)

	availability := NewAvailabilityService(db, products, log)
	snapshot := NewSnapshotService(db, products, components, log)

	return &testEnv{
		db:           db,
		products:     products,
		components:   components,
		orderRepo:    orderRepo,
		itemRepo:     itemRepo,
		product:      NewProductService(db, products, itemRepo, log),
		graph:        NewGraphService(db, products, components, log),
		pricing:      NewPricingService(db, products, components, log),
		version:      NewVersionService(db, products, itemRepo, log),
		availability: availability,
		snapshot:     snapshot,
		checkout:     NewCheckoutService(db, availability, snapshot, orderRepo, itemRepo, log),
	}
}

func (env *testEnv) mustCreateProduct(t *testing.T, name string, price int64) *catalog.Product {
	t.Helper()
	p, err := env.product.CreateProduct(context.Background(), CreateProductInput{
		SKU:   "sku-" + Slugify(name),
		Name:  name,
		Price: price,
	})
	if err != nil {
		t.Fatalf("create product %q: %v", name, err)
	}
	return p
}

func (env *testEnv) mustAddComponent(t *testing.T, parentID, componentID uuid.UUID, in AddComponentInput) *catalog.ProductComponent {
	t.Helper()
	edge, err := env.graph.AddComponent(context.Background(), parentID, componentID, in)
	if err != nil {
		t.Fatalf("add component %s -> %s: %v", parentID, componentID, err)
	}
	return edge
}

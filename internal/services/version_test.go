package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/catalog"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/orders"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/dbctx"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/pointers"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/platform/apierr"
)

// referenceInOrder persists a minimal order line against the product so it
// counts as ordered.
func referenceInOrder(t *testing.T, env *testEnv, productID uuid.UUID) {
	t.Helper()
	dbc := dbctx.New(context.Background())
	order, err := env.orderRepo.Create(dbc, []*orders.Order{{Subtotal: 0, ItemCount: 1}})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	_, err = env.itemRepo.Create(dbc, []*orders.OrderItem{{
		OrderID:   order[0].ID,
		ProductID: productID,
		Quantity:  1,
		Snapshot:  datatypes.JSON([]byte(`{}`)),
	}})
	if err != nil {
		t.Fatalf("create order item: %v", err)
	}
}

func TestIsProductInOrders(t *testing.T) {
	env := newTestEnv(t)
	p := env.mustCreateProduct(t, "Pump", 4000)

	inOrders, err := env.version.IsProductInOrders(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("is in orders: %v", err)
	}
	if inOrders {
		t.Fatalf("expected product not in orders")
	}

	referenceInOrder(t, env, p.ID)

	inOrders, err = env.version.IsProductInOrders(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("is in orders: %v", err)
	}
	if !inOrders {
		t.Fatalf("expected product in orders")
	}
}

func TestUpdateProduct_DirectMutationWhileUnordered(t *testing.T) {
	env := newTestEnv(t)
	p := env.mustCreateProduct(t, "Pump", 4000)

	updated, err := env.product.UpdateProduct(context.Background(), p.ID, ProductPatch{Price: pointers.Int64(4500)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Price != 4500 {
		t.Fatalf("expected price 4500, got %d", updated.Price)
	}
	if updated.Version != p.Version {
		t.Fatalf("expected version unchanged (%d), got %d", p.Version, updated.Version)
	}
	if updated.ID != p.ID {
		t.Fatalf("expected same row id")
	}
}

func TestUpdateProduct_ConflictOnceOrdered(t *testing.T) {
	env := newTestEnv(t)
	p := env.mustCreateProduct(t, "Pump", 4000)
	referenceInOrder(t, env, p.ID)

	_, err := env.product.UpdateProduct(context.Background(), p.ID, ProductPatch{Price: pointers.Int64(4500)})
	if !apierr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateProductVersion_ForkLeavesSourceUntouched(t *testing.T) {
	env := newTestEnv(t)
	p := env.mustCreateProduct(t, "Cooling Kit", 25000)
	referenceInOrder(t, env, p.ID)

	before, err := env.product.GetProduct(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get source: %v", err)
	}

	fork, err := env.version.CreateProductVersion(context.Background(), p.ID, ProductPatch{Price: pointers.Int64(27000)})
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	if fork.ID == p.ID {
		t.Fatalf("fork must get a new id")
	}
	if fork.Version != before.Version+1 {
		t.Fatalf("expected version %d, got %d", before.Version+1, fork.Version)
	}
	if fork.Slug == before.Slug {
		t.Fatalf("fork must get a distinct slug")
	}
	if fork.Price != 27000 {
		t.Fatalf("expected patched price, got %d", fork.Price)
	}
	if fork.SKU != before.SKU || fork.Name != before.Name {
		t.Fatalf("unpatched fields must be copied")
	}

	after, err := env.product.GetProduct(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get source after fork: %v", err)
	}
	if after.Price != before.Price || after.Version != before.Version ||
		after.Slug != before.Slug || after.Status != before.Status ||
		after.Name != before.Name || after.SKU != before.SKU {
		t.Fatalf("source row changed by fork: before=%+v after=%+v", before, after)
	}
}

func TestCreateProductVersion_SequentialForksIncrement(t *testing.T) {
	env := newTestEnv(t)
	p := env.mustCreateProduct(t, "Cooling Kit", 25000)
	referenceInOrder(t, env, p.ID)

	v2, err := env.version.CreateProductVersion(context.Background(), p.ID, ProductPatch{})
	if err != nil {
		t.Fatalf("fork v2: %v", err)
	}
	referenceInOrder(t, env, v2.ID)
	v3, err := env.version.CreateProductVersion(context.Background(), v2.ID, ProductPatch{})
	if err != nil {
		t.Fatalf("fork v3: %v", err)
	}
	if v2.Version != 2 || v3.Version != 3 {
		t.Fatalf("expected versions 2 and 3, got %d and %d", v2.Version, v3.Version)
	}
	if v2.Slug == v3.Slug {
		t.Fatalf("fork slugs must be distinct")
	}
}

func TestCreateProductVersion_MissingProduct(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.version.CreateProductVersion(context.Background(), uuid.New(), ProductPatch{})
	if !apierr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSunsetProduct_RequiresReason(t *testing.T) {
	env := newTestEnv(t)
	p := env.mustCreateProduct(t, "Old Kit", 10000)

	_, err := env.version.SunsetProduct(context.Background(), p.ID, "  ", nil)
	if !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSunsetProduct_FromActive(t *testing.T) {
	env := newTestEnv(t)
	p := env.mustCreateProduct(t, "Old Kit", 10000)
	replacement := env.mustCreateProduct(t, "New Kit", 12000)

	updated, err := env.version.SunsetProduct(context.Background(), p.ID, "superseded by new kit", &replacement.ID)
	if err != nil {
		t.Fatalf("sunset: %v", err)
	}
	if updated.Status != catalog.StatusSunset {
		t.Fatalf("expected status sunset, got %q", updated.Status)
	}
	if updated.IsAvailableForPurchase {
		t.Fatalf("expected product unavailable after sunset")
	}
	if updated.ReplacementProductID == nil || *updated.ReplacementProductID != replacement.ID {
		t.Fatalf("expected replacement recorded")
	}

	// sunset is not repeatable.
	_, err = env.version.SunsetProduct(context.Background(), p.ID, "again", nil)
	if !apierr.IsState(err) {
		t.Fatalf("expected state error, got %v", err)
	}
}

func TestDiscontinueProduct_Transitions(t *testing.T) {
	env := newTestEnv(t)

	// active -> discontinued directly.
	a := env.mustCreateProduct(t, "Kit A", 1000)
	got, err := env.version.DiscontinueProduct(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("discontinue active: %v", err)
	}
	if got.Status != catalog.StatusDiscontinued || got.IsAvailableForPurchase {
		t.Fatalf("unexpected state after discontinue: %+v", got)
	}

	// active -> sunset -> discontinued.
	b := env.mustCreateProduct(t, "Kit B", 1000)
	if _, err := env.version.SunsetProduct(context.Background(), b.ID, "retiring", nil); err != nil {
		t.Fatalf("sunset: %v", err)
	}
	if _, err := env.version.DiscontinueProduct(context.Background(), b.ID); err != nil {
		t.Fatalf("discontinue sunset: %v", err)
	}

	// discontinued is terminal.
	_, err = env.version.DiscontinueProduct(context.Background(), b.ID)
	if !apierr.IsState(err) {
		t.Fatalf("expected state error on repeat discontinue, got %v", err)
	}
	_, err = env.version.SunsetProduct(context.Background(), a.ID, "too late", nil)
	if !apierr.IsState(err) {
		t.Fatalf("expected state error sunsetting discontinued product, got %v", err)
	}
}

package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/pointers"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/platform/apierr"
)

func TestAddComponent_RejectsSelfReference(t *testing.T) {
	env := newTestEnv(t)
	p := env.mustCreateProduct(t, "Cooling Loop", 10000)

	_, err := env.graph.AddComponent(context.Background(), p.ID, p.ID, AddComponentInput{Quantity: 1})
	if !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddComponent_RejectsNonPositiveQuantity(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustCreateProduct(t, "Chassis", 5000)
	child := env.mustCreateProduct(t, "Bracket", 500)

	_, err := env.graph.AddComponent(context.Background(), parent.ID, child.ID, AddComponentInput{Quantity: 0})
	if !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddComponent_RejectsMissingProduct(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustCreateProduct(t, "Chassis", 5000)

	_, err := env.graph.AddComponent(context.Background(), parent.ID, uuid.New(), AddComponentInput{Quantity: 1})
	if !apierr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddComponent_RejectsDuplicateEdge(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustCreateProduct(t, "Chassis", 5000)
	child := env.mustCreateProduct(t, "Bracket", 500)
	env.mustAddComponent(t, parent.ID, child.ID, AddComponentInput{Quantity: 1})

	_, err := env.graph.AddComponent(context.Background(), parent.ID, child.ID, AddComponentInput{Quantity: 2})
	if !apierr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAddComponent_RejectsDirectCycle(t *testing.T) {
	env := newTestEnv(t)
	a := env.mustCreateProduct(t, "Pump Assembly", 8000)
	b := env.mustCreateProduct(t, "Pump Head", 3000)
	env.mustAddComponent(t, a.ID, b.ID, AddComponentInput{Quantity: 1})

	_, err := env.graph.AddComponent(context.Background(), b.ID, a.ID, AddComponentInput{Quantity: 1})
	if !apierr.IsValidation(err) {
		t.Fatalf("expected validation error for direct cycle, got %v", err)
	}
}

func TestAddComponent_RejectsTransitiveCycle(t *testing.T) {
	env := newTestEnv(t)
	a := env.mustCreateProduct(t, "System", 20000)
	b := env.mustCreateProduct(t, "Loop", 9000)
	c := env.mustCreateProduct(t, "Fitting", 400)
	env.mustAddComponent(t, a.ID, b.ID, AddComponentInput{Quantity: 1})
	env.mustAddComponent(t, b.ID, c.ID, AddComponentInput{Quantity: 4})

	_, err := env.graph.AddComponent(context.Background(), c.ID, a.ID, AddComponentInput{Quantity: 1})
	if !apierr.IsValidation(err) {
		t.Fatalf("expected validation error for transitive cycle, got %v", err)
	}
}

func TestRemoveComponent_SecondCallFails(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustCreateProduct(t, "Chassis", 5000)
	child := env.mustCreateProduct(t, "Bracket", 500)
	env.mustAddComponent(t, parent.ID, child.ID, AddComponentInput{Quantity: 1})

	if err := env.graph.RemoveComponent(context.Background(), parent.ID, child.ID); err != nil {
		t.Fatalf("first remove: %v", err)
	}
	err := env.graph.RemoveComponent(context.Background(), parent.ID, child.ID)
	if !apierr.IsNotFound(err) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
}

func TestRemoveComponent_AllowsReAddingInOppositeDirection(t *testing.T) {
	env := newTestEnv(t)
	a := env.mustCreateProduct(t, "Radiator", 6000)
	b := env.mustCreateProduct(t, "Fan", 1500)
	env.mustAddComponent(t, a.ID, b.ID, AddComponentInput{Quantity: 2})

	if err := env.graph.RemoveComponent(context.Background(), a.ID, b.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	// With the edge gone the reverse direction no longer cycles.
	env.mustAddComponent(t, b.ID, a.ID, AddComponentInput{Quantity: 1})
}

func TestUpdateComponent_PatchesFields(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustCreateProduct(t, "Chassis", 5000)
	child := env.mustCreateProduct(t, "Bracket", 500)
	env.mustAddComponent(t, parent.ID, child.ID, AddComponentInput{Quantity: 1, IsIncluded: true})

	edge, err := env.graph.UpdateComponent(context.Background(), parent.ID, child.ID, ComponentPatch{
		Quantity:      pointers.Int(3),
		IsIncluded:    pointers.Bool(false),
		PriceOverride: pointers.Int64(450),
		DisplayName:   pointers.String("Mounting Bracket"),
		SortOrder:     pointers.Int(7),
	})
	if err != nil {
		t.Fatalf("update component: %v", err)
	}
	if edge.Quantity != 3 || edge.IsIncluded || edge.SortOrder != 7 {
		t.Fatalf("patch not applied: %+v", edge)
	}
	if edge.PriceOverride == nil || *edge.PriceOverride != 450 {
		t.Fatalf("expected price override 450, got %v", edge.PriceOverride)
	}
	if edge.DisplayName != "Mounting Bracket" {
		t.Fatalf("expected display name override, got %q", edge.DisplayName)
	}

	edge, err = env.graph.UpdateComponent(context.Background(), parent.ID, child.ID, ComponentPatch{ClearPriceOverride: true})
	if err != nil {
		t.Fatalf("clear override: %v", err)
	}
	if edge.PriceOverride != nil {
		t.Fatalf("expected override cleared, got %v", *edge.PriceOverride)
	}
}

func TestUpdateComponent_Validation(t *testing.T) {
	env := newTestEnv(t)
	parent := env.mustCreateProduct(t, "Chassis", 5000)
	child := env.mustCreateProduct(t, "Bracket", 500)
	env.mustAddComponent(t, parent.ID, child.ID, AddComponentInput{Quantity: 1})

	_, err := env.graph.UpdateComponent(context.Background(), parent.ID, child.ID, ComponentPatch{Quantity: pointers.Int(-1)})
	if !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = env.graph.UpdateComponent(context.Background(), parent.ID, uuid.New(), ComponentPatch{Quantity: pointers.Int(1)})
	if !apierr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetComponentTree_MarksSharedComponents(t *testing.T) {
	env := newTestEnv(t)
	p1 := env.mustCreateProduct(t, "Starter Kit", 30000)
	p2 := env.mustCreateProduct(t, "Pro Kit", 50000)
	shared := env.mustCreateProduct(t, "Coolant Bottle", 1200)
	only := env.mustCreateProduct(t, "Manual", 0)
	env.mustAddComponent(t, p1.ID, shared.ID, AddComponentInput{Quantity: 1})
	env.mustAddComponent(t, p1.ID, only.ID, AddComponentInput{Quantity: 1})
	env.mustAddComponent(t, p2.ID, shared.ID, AddComponentInput{Quantity: 2})

	tree, err := env.graph.GetComponentTree(context.Background(), p1.ID)
	if err != nil {
		t.Fatalf("get tree: %v", err)
	}
	if len(tree) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(tree))
	}
	byID := map[uuid.UUID]*ComponentTreeNode{}
	for _, n := range tree {
		byID[n.ComponentID] = n
	}
	if !byID[shared.ID].Shared {
		t.Fatalf("expected shared component to be marked shared")
	}
	if byID[only.ID].Shared {
		t.Fatalf("expected single-parent component not to be marked shared")
	}
}

func TestGetComponentTree_ResolvesUnboundedDepth(t *testing.T) {
	env := newTestEnv(t)
	l0 := env.mustCreateProduct(t, "System", 40000)
	l1 := env.mustCreateProduct(t, "Loop", 9000)
	l2 := env.mustCreateProduct(t, "Pump", 4000)
	l3 := env.mustCreateProduct(t, "Impeller", 700)
	env.mustAddComponent(t, l0.ID, l1.ID, AddComponentInput{Quantity: 1})
	env.mustAddComponent(t, l1.ID, l2.ID, AddComponentInput{Quantity: 1})
	env.mustAddComponent(t, l2.ID, l3.ID, AddComponentInput{Quantity: 1})

	tree, err := env.graph.GetComponentTree(context.Background(), l0.ID)
	if err != nil {
		t.Fatalf("get tree: %v", err)
	}
	if len(tree) != 1 || len(tree[0].Children) != 1 || len(tree[0].Children[0].Children) != 1 {
		t.Fatalf("expected 3 resolved levels, got %+v", tree)
	}
	if tree[0].Children[0].Children[0].ComponentID != l3.ID {
		t.Fatalf("expected deepest node %s", l3.ID)
	}
}

func TestGetComponentTree_MissingProduct(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.graph.GetComponentTree(context.Background(), uuid.New())
	if !apierr.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

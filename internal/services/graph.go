package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogrepo "github.com/molave0524/two-phase-cooling-education-sub004/internal/data/repos/catalog"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/catalog"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/dbctx"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/platform/apierr"
)

// AddComponentInput carries the edge attributes for a new parent→component
// relationship.
type AddComponentInput struct {
	Quantity      int    `json:"quantity"`
	IsRequired    bool   `json:"is_required"`
	IsIncluded    bool   `json:"is_included"`
	PriceOverride *int64 `json:"price_override,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	SortOrder     int    `json:"sort_order"`
}

// ComponentPatch is a partial update of an existing edge. Nil fields are
// left unchanged; ClearPriceOverride drops the override entirely.
type ComponentPatch struct {
	Quantity           *int    `json:"quantity,omitempty"`
	IsRequired         *bool   `json:"is_required,omitempty"`
	IsIncluded         *bool   `json:"is_included,omitempty"`
	PriceOverride      *int64  `json:"price_override,omitempty"`
	ClearPriceOverride bool    `json:"clear_price_override,omitempty"`
	DisplayName        *string `json:"display_name,omitempty"`
	SortOrder          *int    `json:"sort_order,omitempty"`
}

// ComponentTreeNode is one resolved node of the admin-facing component tree.
// Shared reports whether some other parent anywhere in the graph also uses
// this component.
type ComponentTreeNode struct {
	ComponentID uuid.UUID            `json:"component_id"`
	SKU         string               `json:"sku"`
	Name        string               `json:"name"`
	DisplayName string               `json:"display_name,omitempty"`
	Version     int                  `json:"version"`
	ProductType catalog.ProductType  `json:"product_type"`
	Status      catalog.ProductStatus `json:"status"`
	Quantity    int                  `json:"quantity"`
	UnitPrice   int64                `json:"unit_price"`
	IsIncluded  bool                 `json:"is_included"`
	IsRequired  bool                 `json:"is_required"`
	SortOrder   int                  `json:"sort_order"`
	Shared      bool                 `json:"shared"`
	Children    []*ComponentTreeNode `json:"children,omitempty"`
}

type GraphService interface {
	AddComponent(ctx context.Context, parentID, componentID uuid.UUID, in AddComponentInput) (*catalog.ProductComponent, error)
	RemoveComponent(ctx context.Context, parentID, componentID uuid.UUID) error
	UpdateComponent(ctx context.Context, parentID, componentID uuid.UUID, patch ComponentPatch) (*catalog.ProductComponent, error)
	GetComponentTree(ctx context.Context, parentID uuid.UUID) ([]*ComponentTreeNode, error)
}

type graphService struct {
	db         *gorm.DB
	products   catalogrepo.ProductRepo
	components catalogrepo.ComponentRepo
	log        *logger.Logger
}

func NewGraphService(db *gorm.DB, products catalogrepo.ProductRepo, components catalogrepo.ComponentRepo, log *logger.Logger) GraphService {
	return &graphService{
		db:         db,
		products:   products,
		components: components,
		log:        log.With("service", "GraphService"),
	}
}

func (s *graphService) AddComponent(ctx context.Context, parentID, componentID uuid.UUID, in AddComponentInput) (*catalog.ProductComponent, error) {
	if parentID == componentID {
		return nil, apierr.Validation("a product cannot be a component of itself")
	}
	if in.Quantity <= 0 {
		return nil, apierr.Validation("quantity must be positive, got %d", in.Quantity)
	}
	if in.PriceOverride != nil && *in.PriceOverride < 0 {
		return nil, apierr.Validation("price override must not be negative")
	}

	var edge *catalog.ProductComponent
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		// Lock both endpoints in deterministic order so two concurrent
		// inserts against the same pair cannot deadlock or interleave
		// their cycle checks.
		for _, id := range orderedPair(parentID, componentID) {
			row, err := s.products.LockByID(dbc, id)
			if err != nil {
				return err
			}
			if row == nil {
				return apierr.NotFound("product %s does not exist", id)
			}
		}

		existing, err := s.components.GetEdge(dbc, parentID, componentID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apierr.Conflict("component edge %s -> %s already exists", parentID, componentID)
		}

		// Reachability walk from the component through its own
		// descendants: if the parent shows up, the insert would close a
		// cycle at some depth.
		reachable, err := s.isReachable(dbc, componentID, parentID)
		if err != nil {
			return err
		}
		if reachable {
			return apierr.Validation("adding component %s to %s would create a cycle", componentID, parentID)
		}

		edge = &catalog.ProductComponent{
			ParentProductID:    parentID,
			ComponentProductID: componentID,
			Quantity:           in.Quantity,
			IsRequired:         in.IsRequired,
			IsIncluded:         in.IsIncluded,
			PriceOverride:      in.PriceOverride,
			DisplayName:        in.DisplayName,
			SortOrder:          in.SortOrder,
		}
		_, err = s.components.Create(dbc, edge)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("component added", "parent_id", parentID, "component_id", componentID)
	return edge, nil
}

func (s *graphService) RemoveComponent(ctx context.Context, parentID, componentID uuid.UUID) error {
	affected, err := s.components.Delete(dbctx.New(ctx), parentID, componentID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return apierr.NotFound("component edge %s -> %s does not exist", parentID, componentID)
	}
	s.log.Debug("component removed", "parent_id", parentID, "component_id", componentID)
	return nil
}

func (s *graphService) UpdateComponent(ctx context.Context, parentID, componentID uuid.UUID, patch ComponentPatch) (*catalog.ProductComponent, error) {
	if patch.Quantity != nil && *patch.Quantity <= 0 {
		return nil, apierr.Validation("quantity must be positive, got %d", *patch.Quantity)
	}
	if patch.PriceOverride != nil && *patch.PriceOverride < 0 {
		return nil, apierr.Validation("price override must not be negative")
	}

	dbc := dbctx.New(ctx)
	edge, err := s.components.GetEdge(dbc, parentID, componentID)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, apierr.NotFound("component edge %s -> %s does not exist", parentID, componentID)
	}

	updates := map[string]interface{}{}
	if patch.Quantity != nil {
		updates["quantity"] = *patch.Quantity
	}
	if patch.IsRequired != nil {
		updates["is_required"] = *patch.IsRequired
	}
	if patch.IsIncluded != nil {
		updates["is_included"] = *patch.IsIncluded
	}
	if patch.ClearPriceOverride {
		updates["price_override"] = nil
	} else if patch.PriceOverride != nil {
		updates["price_override"] = *patch.PriceOverride
	}
	if patch.DisplayName != nil {
		updates["display_name"] = *patch.DisplayName
	}
	if patch.SortOrder != nil {
		updates["sort_order"] = *patch.SortOrder
	}
	if err := s.components.UpdateFields(dbc, edge.ID, updates); err != nil {
		return nil, err
	}
	return s.components.GetEdge(dbc, parentID, componentID)
}

func (s *graphService) GetComponentTree(ctx context.Context, parentID uuid.UUID) ([]*ComponentTreeNode, error) {
	dbc := dbctx.New(ctx)
	root, err := s.products.GetByID(dbc, parentID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, apierr.NotFound("product %s does not exist", parentID)
	}
	return s.buildTree(dbc, parentID)
}

// buildTree resolves the full subgraph under parentID. Depth is unbounded;
// termination is guaranteed because inserts keep the edge set acyclic.
func (s *graphService) buildTree(dbc dbctx.Context, parentID uuid.UUID) ([]*ComponentTreeNode, error) {
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

	nodes := make([]*ComponentTreeNode, 0, len(edges))
	for _, e := range edges {
		comp, ok := byID[e.ComponentProductID]
		if !ok {
			return nil, apierr.NotFound("component product %s does not exist", e.ComponentProductID)
		}
		shared, err := s.components.ExistsWithOtherParent(dbc, e.ComponentProductID, parentID)
		if err != nil {
			return nil, err
		}
		children, err := s.buildTree(dbc, e.ComponentProductID)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, &ComponentTreeNode{
			ComponentID: comp.ID,
			SKU:         comp.SKU,
			Name:        comp.Name,
			DisplayName: e.DisplayName,
			Version:     comp.Version,
			ProductType: comp.ProductType,
			Status:      comp.Status,
			Quantity:    e.Quantity,
			UnitPrice:   e.UnitPrice(comp),
			IsIncluded:  e.IsIncluded,
			IsRequired:  e.IsRequired,
			SortOrder:   e.SortOrder,
			Shared:      shared,
			Children:    children,
		})
	}
	return nodes, nil
}

// isReachable walks descendant edges breadth-first from start and reports
// whether target is among them.
func (s *graphService) isReachable(dbc dbctx.Context, start, target uuid.UUID) (bool, error) {
	visited := map[uuid.UUID]bool{start: true}
	frontier := []uuid.UUID{start}
	for len(frontier) > 0 {
		edges, err := s.components.ListByParents(dbc, frontier)
		if err != nil {
			return false, err
		}
		frontier = frontier[:0]
		for _, e := range edges {
			next := e.ComponentProductID
			if next == target {
				return true, nil
			}
			if !visited[next] {
				visited[next] = true
				frontier = append(frontier, next)
			}
		}
	}
	return false, nil
}

func orderedPair(a, b uuid.UUID) [2]uuid.UUID {
	if a.String() < b.String() {
		return [2]uuid.UUID{a, b}
	}
	return [2]uuid.UUID{b, a}
}

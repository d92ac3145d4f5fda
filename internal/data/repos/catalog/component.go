package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/catalog"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/dbctx"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
)

type ComponentRepo interface {
	Create(dbc dbctx.Context, row *catalog.ProductComponent) (*catalog.ProductComponent, error)
	GetEdge(dbc dbctx.Context, parentID, componentID uuid.UUID) (*catalog.ProductComponent, error)
	ListByParent(dbc dbctx.Context, parentID uuid.UUID) ([]*catalog.ProductComponent, error)
	ListByParents(dbc dbctx.Context, parentIDs []uuid.UUID) ([]*catalog.ProductComponent, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, parentID, componentID uuid.UUID) (int64, error)
	ExistsWithOtherParent(dbc dbctx.Context, componentID, excludeParentID uuid.UUID) (bool, error)
}

type componentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewComponentRepo(db *gorm.DB, log *logger.Logger) ComponentRepo {
	return &componentRepo{db: db, log: log.With("repo", "ComponentRepo")}
}

func (r *componentRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *componentRepo) Create(dbc dbctx.Context, row *catalog.ProductComponent) (*catalog.ProductComponent, error) {
	if row == nil {
		return nil, fmt.Errorf("missing row")
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *componentRepo) GetEdge(dbc dbctx.Context, parentID, componentID uuid.UUID) (*catalog.ProductComponent, error) {
	var out []*catalog.ProductComponent
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("parent_product_id = ? AND component_product_id = ?", parentID, componentID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *componentRepo) ListByParent(dbc dbctx.Context, parentID uuid.UUID) ([]*catalog.ProductComponent, error) {
	var out []*catalog.ProductComponent
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("parent_product_id = ?", parentID).
		Order("sort_order ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *componentRepo) ListByParents(dbc dbctx.Context, parentIDs []uuid.UUID) ([]*catalog.ProductComponent, error) {
	if len(parentIDs) == 0 {
		return []*catalog.ProductComponent{}, nil
	}
	var out []*catalog.ProductComponent
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("parent_product_id IN ?", parentIDs).
		Order("sort_order ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *componentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&catalog.ProductComponent{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes the edge and reports how many rows went away so the caller
// can distinguish a miss from a hit.
func (r *componentRepo) Delete(dbc dbctx.Context, parentID, componentID uuid.UUID) (int64, error) {
	res := r.handle(dbc).WithContext(dbc.Ctx).
		Where("parent_product_id = ? AND component_product_id = ?", parentID, componentID).
		Delete(&catalog.ProductComponent{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ExistsWithOtherParent is the reverse-edge query behind the shared flag:
// does any parent other than excludeParentID also use this component?
func (r *componentRepo) ExistsWithOtherParent(dbc dbctx.Context, componentID, excludeParentID uuid.UUID) (bool, error) {
	var count int64
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&catalog.ProductComponent{}).
		Where("component_product_id = ? AND parent_product_id <> ?", componentID, excludeParentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

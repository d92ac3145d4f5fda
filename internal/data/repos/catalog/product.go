package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/molave0524/two-phase-cooling-education-sub004/internal/domain/catalog"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/dbctx"
	"github.com/molave0524/two-phase-cooling-education-sub004/internal/pkg/logger"
)

type ProductRepo interface {
	Create(dbc dbctx.Context, rows []*catalog.Product) ([]*catalog.Product, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*catalog.Product, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*catalog.Product, error)
	GetBySlug(dbc dbctx.Context, slug string) (*catalog.Product, error)
	SlugExists(dbc dbctx.Context, slug string) (bool, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*catalog.Product, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, log *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: log.With("repo", "ProductRepo")}
}

func (r *productRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *productRepo) Create(dbc dbctx.Context, rows []*catalog.Product) ([]*catalog.Product, error) {
	if len(rows) == 0 {
		return []*catalog.Product{}, nil
	}
	if err := r.handle(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *productRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*catalog.Product, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*catalog.Product
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *productRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*catalog.Product, error) {
	if len(ids) == 0 {
		return []*catalog.Product{}, nil
	}
	var out []*catalog.Product
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) GetBySlug(dbc dbctx.Context, slug string) (*catalog.Product, error) {
	var out []*catalog.Product
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Where("slug = ?", slug).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *productRepo) SlugExists(dbc dbctx.Context, slug string) (bool, error) {
	var count int64
	if err := r.handle(dbc).WithContext(dbc.Ctx).
		Model(&catalog.Product{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LockByID takes a FOR UPDATE row lock and must run inside a transaction.
// SQLite has no row locks; its single-writer model gives the same guarantee,
// so the locking clause is only emitted on Postgres.
func (r *productRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*catalog.Product, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	q := dbc.Tx.WithContext(dbc.Ctx)
	if dbc.Tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out []*catalog.Product
	if err := q.Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *productRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return r.handle(dbc).WithContext(dbc.Ctx).
		Model(&catalog.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

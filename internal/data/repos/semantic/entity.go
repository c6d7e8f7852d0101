package semantic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/calaisgraph/internal/domain"
	"github.com/yungbote/calaisgraph/internal/platform/ctxutil"
	"github.com/yungbote/calaisgraph/internal/platform/dbctx"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

type EntityTypeRepo interface {
	GetOrCreate(dbc dbctx.Context, name, urlhash string) (*types.EntityType, error)
	GetByName(dbc dbctx.Context, name string) (*types.EntityType, error)
}

type entityTypeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntityTypeRepo(db *gorm.DB, baseLog *logger.Logger) EntityTypeRepo {
	return &entityTypeRepo{db: db, log: baseLog.With("repo", "EntityTypeRepo")}
}

// GetOrCreate keys on name; urlhash is only used when the row is new.
func (r *entityTypeRepo) GetOrCreate(dbc dbctx.Context, name, urlhash string) (*types.EntityType, error) {
	t := dbc.Pick(r.db)
	row := &types.EntityType{Name: name, URLHash: urlhash}
	out, created, err := getOrCreate(ctxutil.Default(dbc.Ctx), t, row, []string{"name"}, map[string]interface{}{"name": name})
	if err != nil {
		return nil, err
	}
	if created {
		r.log.Debug("entity type created", "name", name)
	}
	return out, nil
}

func (r *entityTypeRepo) GetByName(dbc dbctx.Context, name string) (*types.EntityType, error) {
	return takeOne[types.EntityType](ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), map[string]interface{}{"name": name})
}

type EntityRepo interface {
	// GetOrCreate returns the stored entity for row.URLHash, inserting row
	// when none exists. An existing entity is never updated.
	GetOrCreate(dbc dbctx.Context, row *types.Entity) (*types.Entity, bool, error)
	GetByURLHash(dbc dbctx.Context, urlhash string) (*types.Entity, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Entity, error)
	Count(dbc dbctx.Context) (int64, error)
}

type entityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntityRepo(db *gorm.DB, baseLog *logger.Logger) EntityRepo {
	return &entityRepo{db: db, log: baseLog.With("repo", "EntityRepo")}
}

func (r *entityRepo) GetOrCreate(dbc dbctx.Context, row *types.Entity) (*types.Entity, bool, error) {
	return getOrCreate(ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), row, []string{"urlhash"}, map[string]interface{}{"urlhash": row.URLHash})
}

func (r *entityRepo) GetByURLHash(dbc dbctx.Context, urlhash string) (*types.Entity, error) {
	return takeOne[types.Entity](ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), map[string]interface{}{"urlhash": urlhash})
}

func (r *entityRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Entity, error) {
	var out []*types.Entity
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Pick(r.db).WithContext(ctxutil.Default(dbc.Ctx)).
		Preload("Type").
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *entityRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.Pick(r.db).WithContext(ctxutil.Default(dbc.Ctx)).Model(&types.Entity{}).Count(&n).Error
	return n, err
}

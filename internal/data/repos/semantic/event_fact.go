package semantic

import (
	"gorm.io/gorm"

	types "github.com/yungbote/calaisgraph/internal/domain"
	"github.com/yungbote/calaisgraph/internal/platform/ctxutil"
	"github.com/yungbote/calaisgraph/internal/platform/dbctx"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

type EventFactTypeRepo interface {
	GetOrCreate(dbc dbctx.Context, name, urlhash string) (*types.EventFactType, error)
}

type eventFactTypeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventFactTypeRepo(db *gorm.DB, baseLog *logger.Logger) EventFactTypeRepo {
	return &eventFactTypeRepo{db: db, log: baseLog.With("repo", "EventFactTypeRepo")}
}

func (r *eventFactTypeRepo) GetOrCreate(dbc dbctx.Context, name, urlhash string) (*types.EventFactType, error) {
	row := &types.EventFactType{Name: name, URLHash: urlhash}
	out, _, err := getOrCreate(ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), row, []string{"name"}, map[string]interface{}{"name": name})
	return out, err
}

type EventFactRepo interface {
	GetOrCreate(dbc dbctx.Context, row *types.EventFact) (*types.EventFact, bool, error)
	GetByURLHash(dbc dbctx.Context, urlhash string) (*types.EventFact, error)
	Count(dbc dbctx.Context) (int64, error)
}

type eventFactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventFactRepo(db *gorm.DB, baseLog *logger.Logger) EventFactRepo {
	return &eventFactRepo{db: db, log: baseLog.With("repo", "EventFactRepo")}
}

func (r *eventFactRepo) GetOrCreate(dbc dbctx.Context, row *types.EventFact) (*types.EventFact, bool, error) {
	return getOrCreate(ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), row, []string{"urlhash"}, map[string]interface{}{"urlhash": row.URLHash})
}

func (r *eventFactRepo) GetByURLHash(dbc dbctx.Context, urlhash string) (*types.EventFact, error) {
	return takeOne[types.EventFact](ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), map[string]interface{}{"urlhash": urlhash})
}

func (r *eventFactRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.Pick(r.db).WithContext(ctxutil.Default(dbc.Ctx)).Model(&types.EventFact{}).Count(&n).Error
	return n, err
}

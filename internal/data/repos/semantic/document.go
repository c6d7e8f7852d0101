package semantic

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/calaisgraph/internal/domain"
	"github.com/yungbote/calaisgraph/internal/platform/ctxutil"
	"github.com/yungbote/calaisgraph/internal/platform/dbctx"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

type DocumentRepo interface {
	GetOrCreate(dbc dbctx.Context, ownerType, ownerID string) (*types.Document, bool, error)
	// GetByOwner returns nil, nil when the owner has never been analyzed.
	GetByOwner(dbc dbctx.Context, ownerType, ownerID string) (*types.Document, error)
	TouchAnalysisDate(dbc dbctx.Context, id uuid.UUID, at time.Time) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) GetOrCreate(dbc dbctx.Context, ownerType, ownerID string) (*types.Document, bool, error) {
	row := &types.Document{
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		AnalysisDate: time.Now().UTC(),
	}
	return getOrCreate(ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), row,
		[]string{"owner_type", "owner_id"},
		map[string]interface{}{"owner_type": ownerType, "owner_id": ownerID},
	)
}

func (r *documentRepo) GetByOwner(dbc dbctx.Context, ownerType, ownerID string) (*types.Document, error) {
	return takeOne[types.Document](ctxutil.Default(dbc.Ctx), dbc.Pick(r.db),
		map[string]interface{}{"owner_type": ownerType, "owner_id": ownerID})
}

func (r *documentRepo) TouchAnalysisDate(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	return dbc.Pick(r.db).WithContext(ctxutil.Default(dbc.Ctx)).
		Model(&types.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"analysis_date": at, "updated_at": time.Now().UTC()}).Error
}

package semantic

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/calaisgraph/internal/domain"
	"github.com/yungbote/calaisgraph/internal/platform/ctxutil"
	"github.com/yungbote/calaisgraph/internal/platform/dbctx"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

// DetectionRepo stores the per-document join rows. Each GetOrCreate keys on
// (document, record) and leaves an existing row untouched.
type DetectionRepo interface {
	GetOrCreateEntity(dbc dbctx.Context, row *types.EntityDetection) (*types.EntityDetection, bool, error)
	GetOrCreateEvent(dbc dbctx.Context, row *types.EventDetection) (*types.EventDetection, bool, error)
	GetOrCreateSocialTag(dbc dbctx.Context, row *types.SocialTagDetection) (*types.SocialTagDetection, bool, error)
	GetOrCreateTopic(dbc dbctx.Context, row *types.TopicDetection) (*types.TopicDetection, bool, error)

	ListEntities(dbc dbctx.Context, documentID uuid.UUID) ([]*types.EntityDetection, error)
	ListEvents(dbc dbctx.Context, documentID uuid.UUID) ([]*types.EventDetection, error)
	ListSocialTags(dbc dbctx.Context, documentID uuid.UUID) ([]*types.SocialTagDetection, error)
	ListTopics(dbc dbctx.Context, documentID uuid.UUID) ([]*types.TopicDetection, error)

	Counts(dbc dbctx.Context, documentID uuid.UUID) (DetectionCounts, error)
}

type DetectionCounts struct {
	Entities   int64 `json:"entities"`
	Events     int64 `json:"events"`
	SocialTags int64 `json:"social_tags"`
	Topics     int64 `json:"topics"`
}

func (c DetectionCounts) Total() int64 {
	return c.Entities + c.Events + c.SocialTags + c.Topics
}

type detectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDetectionRepo(db *gorm.DB, baseLog *logger.Logger) DetectionRepo {
	return &detectionRepo{db: db, log: baseLog.With("repo", "DetectionRepo")}
}

func (r *detectionRepo) GetOrCreateEntity(dbc dbctx.Context, row *types.EntityDetection) (*types.EntityDetection, bool, error) {
	return getOrCreate(ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), row,
		[]string{"document_id", "entity_id"},
		map[string]interface{}{"document_id": row.DocumentID, "entity_id": row.EntityID},
	)
}

func (r *detectionRepo) GetOrCreateEvent(dbc dbctx.Context, row *types.EventDetection) (*types.EventDetection, bool, error) {
	return getOrCreate(ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), row,
		[]string{"document_id", "event_fact_id"},
		map[string]interface{}{"document_id": row.DocumentID, "event_fact_id": row.EventFactID},
	)
}

func (r *detectionRepo) GetOrCreateSocialTag(dbc dbctx.Context, row *types.SocialTagDetection) (*types.SocialTagDetection, bool, error) {
	return getOrCreate(ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), row,
		[]string{"document_id", "social_tag_id"},
		map[string]interface{}{"document_id": row.DocumentID, "social_tag_id": row.SocialTagID},
	)
}

func (r *detectionRepo) GetOrCreateTopic(dbc dbctx.Context, row *types.TopicDetection) (*types.TopicDetection, bool, error) {
	return getOrCreate(ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), row,
		[]string{"document_id", "topic_id"},
		map[string]interface{}{"document_id": row.DocumentID, "topic_id": row.TopicID},
	)
}

func (r *detectionRepo) ListEntities(dbc dbctx.Context, documentID uuid.UUID) ([]*types.EntityDetection, error) {
	var out []*types.EntityDetection
	err := dbc.Pick(r.db).WithContext(ctxutil.Default(dbc.Ctx)).
		Preload("Entity").
		Preload("Entity.Type").
		Where("document_id = ?", documentID).
		Order("relevance DESC").
		Find(&out).Error
	return out, err
}

func (r *detectionRepo) ListEvents(dbc dbctx.Context, documentID uuid.UUID) ([]*types.EventDetection, error) {
	var out []*types.EventDetection
	err := dbc.Pick(r.db).WithContext(ctxutil.Default(dbc.Ctx)).
		Preload("EventFact").
		Preload("EventFact.Type").
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *detectionRepo) ListSocialTags(dbc dbctx.Context, documentID uuid.UUID) ([]*types.SocialTagDetection, error) {
	var out []*types.SocialTagDetection
	err := dbc.Pick(r.db).WithContext(ctxutil.Default(dbc.Ctx)).
		Preload("SocialTag").
		Where("document_id = ?", documentID).
		Order("importance ASC").
		Find(&out).Error
	return out, err
}

func (r *detectionRepo) ListTopics(dbc dbctx.Context, documentID uuid.UUID) ([]*types.TopicDetection, error) {
	var out []*types.TopicDetection
	err := dbc.Pick(r.db).WithContext(ctxutil.Default(dbc.Ctx)).
		Preload("Topic").
		Where("document_id = ?", documentID).
		Order("score DESC").
		Find(&out).Error
	return out, err
}

func (r *detectionRepo) Counts(dbc dbctx.Context, documentID uuid.UUID) (DetectionCounts, error) {
	t := dbc.Pick(r.db).WithContext(ctxutil.Default(dbc.Ctx))
	var c DetectionCounts
	steps := []struct {
		model interface{}
		dst   *int64
	}{
		{&types.EntityDetection{}, &c.Entities},
		{&types.EventDetection{}, &c.Events},
		{&types.SocialTagDetection{}, &c.SocialTags},
		{&types.TopicDetection{}, &c.Topics},
	}
	for _, s := range steps {
		if err := t.Model(s.model).Where("document_id = ?", documentID).Count(s.dst).Error; err != nil {
			return DetectionCounts{}, err
		}
	}
	return c, nil
}

package semantic

import (
	"gorm.io/gorm"

	types "github.com/yungbote/calaisgraph/internal/domain"
	"github.com/yungbote/calaisgraph/internal/platform/ctxutil"
	"github.com/yungbote/calaisgraph/internal/platform/dbctx"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

type SocialTagRepo interface {
	GetOrCreate(dbc dbctx.Context, urlhash, name string) (*types.SocialTag, error)
	GetByURLHash(dbc dbctx.Context, urlhash string) (*types.SocialTag, error)
}

type socialTagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSocialTagRepo(db *gorm.DB, baseLog *logger.Logger) SocialTagRepo {
	return &socialTagRepo{db: db, log: baseLog.With("repo", "SocialTagRepo")}
}

func (r *socialTagRepo) GetOrCreate(dbc dbctx.Context, urlhash, name string) (*types.SocialTag, error) {
	row := &types.SocialTag{URLHash: urlhash, Name: name}
	out, _, err := getOrCreate(ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), row, []string{"urlhash"}, map[string]interface{}{"urlhash": urlhash})
	return out, err
}

func (r *socialTagRepo) GetByURLHash(dbc dbctx.Context, urlhash string) (*types.SocialTag, error) {
	return takeOne[types.SocialTag](ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), map[string]interface{}{"urlhash": urlhash})
}

type TopicRepo interface {
	GetOrCreate(dbc dbctx.Context, urlhash, name string) (*types.Topic, error)
	GetByURLHash(dbc dbctx.Context, urlhash string) (*types.Topic, error)
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{db: db, log: baseLog.With("repo", "TopicRepo")}
}

func (r *topicRepo) GetOrCreate(dbc dbctx.Context, urlhash, name string) (*types.Topic, error) {
	row := &types.Topic{URLHash: urlhash, Name: name}
	out, _, err := getOrCreate(ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), row, []string{"urlhash"}, map[string]interface{}{"urlhash": urlhash})
	return out, err
}

func (r *topicRepo) GetByURLHash(dbc dbctx.Context, urlhash string) (*types.Topic, error) {
	return takeOne[types.Topic](ctxutil.Default(dbc.Ctx), dbc.Pick(r.db), map[string]interface{}{"urlhash": urlhash})
}

package semantic

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/calaisgraph/internal/data/repos/testutil"
	types "github.com/yungbote/calaisgraph/internal/domain"
	"github.com/yungbote/calaisgraph/internal/platform/dbctx"
)

func TestEntityTypeRepoGetOrCreate(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewEntityTypeRepo(db, testutil.Logger(t))

	first, err := repo.GetOrCreate(dbc, "Person", "http://s.opencalais.com/1/type/em/e/Person")
	require.NoError(t, err)
	again, err := repo.GetOrCreate(dbc, "Person", "http://other")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "http://s.opencalais.com/1/type/em/e/Person", again.URLHash)

	got, err := repo.GetByName(dbc, "Person")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)

	missing, err := repo.GetByName(dbc, "City")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEntityRepoKeepsFirstSnapshot(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	et, err := NewEntityTypeRepo(db, log).GetOrCreate(dbc, "Company", "")
	require.NoError(t, err)
	repo := NewEntityRepo(db, log)

	e1, created, err := repo.GetOrCreate(dbc, &types.Entity{URLHash: "urn:acme", TypeID: et.ID, Name: "Acme"})
	require.NoError(t, err)
	assert.True(t, created)

	e2, created, err := repo.GetOrCreate(dbc, &types.Entity{URLHash: "urn:acme", TypeID: et.ID, Name: "Acme Corp"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, e1.ID, e2.ID)
	assert.Equal(t, "Acme", e2.Name)

	n, err := repo.Count(dbc)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	rows, err := repo.GetByIDs(dbc, []uuid.UUID{e1.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Type)
	assert.Equal(t, "Company", rows[0].Type.Name)
}

func TestDocumentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewDocumentRepo(db, testutil.Logger(t))

	none, err := repo.GetByOwner(dbc, "article", "1")
	require.NoError(t, err)
	assert.Nil(t, none)

	d1, created, err := repo.GetOrCreate(dbc, "article", "1")
	require.NoError(t, err)
	assert.True(t, created)
	d2, created, err := repo.GetOrCreate(dbc, "article", "1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, d1.ID, d2.ID)

	other, _, err := repo.GetOrCreate(dbc, "comment", "1")
	require.NoError(t, err)
	assert.NotEqual(t, d1.ID, other.ID)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, repo.TouchAnalysisDate(dbc, d1.ID, at))
	got, err := repo.GetByOwner(dbc, "article", "1")
	require.NoError(t, err)
	assert.True(t, got.AnalysisDate.Equal(at))
}

func TestDetectionRepoDedup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	doc := testutil.SeedDocument(t, ctx, tx, "article", "7")
	ent := testutil.SeedEntity(t, ctx, tx, "Person", "urn:jane", "Jane")
	tag, err := NewSocialTagRepo(db, log).GetOrCreate(dbc, "urn:tag", "Travel")
	require.NoError(t, err)
	topic, err := NewTopicRepo(db, log).GetOrCreate(dbc, "urn:cat", "Sports")
	require.NoError(t, err)

	repo := NewDetectionRepo(db, log)
	for i := 0; i < 2; i++ {
		_, _, err := repo.GetOrCreateEntity(dbc, &types.EntityDetection{
			DocumentID: doc.ID, EntityID: ent.ID, URLHash: ent.URLHash, Relevance: testutil.PtrFloat(0.5),
		})
		require.NoError(t, err)
		_, _, err = repo.GetOrCreateSocialTag(dbc, &types.SocialTagDetection{
			DocumentID: doc.ID, SocialTagID: tag.ID, URLHash: "urn:doc/tag/1", Importance: 1,
		})
		require.NoError(t, err)
		_, _, err = repo.GetOrCreateTopic(dbc, &types.TopicDetection{
			DocumentID: doc.ID, TopicID: topic.ID, URLHash: "urn:doc/cat/1", Score: 0.7,
		})
		require.NoError(t, err)
	}

	counts, err := repo.Counts(dbc, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, DetectionCounts{Entities: 1, SocialTags: 1, Topics: 1}, counts)
	assert.EqualValues(t, 3, counts.Total())

	ents, err := repo.ListEntities(dbc, doc.ID)
	require.NoError(t, err)
	require.Len(t, ents, 1)
	require.NotNil(t, ents[0].Entity)
	assert.Equal(t, "Jane", ents[0].Entity.Name)
	require.NotNil(t, ents[0].Entity.Type)
	assert.Equal(t, "Person", ents[0].Entity.Type.Name)

	tags, err := repo.ListSocialTags(dbc, doc.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Travel", tags[0].SocialTag.Name)

	topics, err := repo.ListTopics(dbc, doc.ID)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.InDelta(t, 0.7, topics[0].Score, 1e-9)
}

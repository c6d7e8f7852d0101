package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/calaisgraph/internal/config"
	"github.com/yungbote/calaisgraph/internal/data/repos"
	"github.com/yungbote/calaisgraph/internal/data/repos/testutil"
	types "github.com/yungbote/calaisgraph/internal/domain"
	"github.com/yungbote/calaisgraph/internal/normalization"
	"github.com/yungbote/calaisgraph/internal/platform/calais"
	"github.com/yungbote/calaisgraph/internal/platform/dbctx"
)

const (
	janeURI   = "http://d.opencalais.com/pershash-1/jane"
	bostonURI = "http://d.opencalais.com/genericHasher-1/city-boston"
	travelURI = "http://d.opencalais.com/genericHasher-1/travel-1"
)

type call struct {
	kind        string
	value       string
	contentType string
}

// fakeClient replays canned responses and records every call in order.
type fakeClient struct {
	mu    sync.Mutex
	calls []call
	text  func(text string) (*calais.Response, error)
	url   func(rawURL string) (*calais.Response, error)
}

func (f *fakeClient) AnalyzeText(_ context.Context, text, contentType string) (*calais.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{kind: "text", value: text, contentType: contentType})
	f.mu.Unlock()
	if f.text == nil {
		return nil, errors.New("no text handler")
	}
	return f.text(text)
}

func (f *fakeClient) AnalyzeURL(_ context.Context, rawURL, contentType string) (*calais.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{kind: "url", value: rawURL, contentType: contentType})
	f.mu.Unlock()
	if f.url == nil {
		return nil, errors.New("no url handler")
	}
	return f.url(rawURL)
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "normalization", "testdata", name))
	require.NoError(t, err)
	return raw
}

func replay(format normalization.Format, body []byte) func(string) (*calais.Response, error) {
	return func(string) (*calais.Response, error) {
		return &calais.Response{Format: format, Body: body}, nil
	}
}

type harness struct {
	db      *gorm.DB
	repos   repos.Set
	client  *fakeClient
	service AnalysisService
}

func newHarness(t *testing.T, client *fakeClient, cfg *config.Config) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	var c calais.Client
	if client != nil {
		c = client
	}
	return &harness{
		db:      db,
		repos:   set,
		client:  client,
		service: NewAnalysisService(db, log, c, NewDetectionService(log, set), set.Document, cfg),
	}
}

func (h *harness) dbc() dbctx.Context {
	return dbctx.Context{Ctx: context.Background()}
}

func (h *harness) counts(t *testing.T, doc *types.Document) repos.DetectionCounts {
	t.Helper()
	c, err := h.repos.Detection.Counts(h.dbc(), doc.ID)
	require.NoError(t, err)
	return c
}

func article(id, body string) *StaticObject {
	return &StaticObject{
		OwnerType: "article",
		OwnerID:   id,
		Content:   map[string]string{"body": body},
	}
}

func TestAnalyzeStoresDetections(t *testing.T) {
	client := &fakeClient{text: replay(normalization.FormatJSON, fixture(t, "response.json"))}
	h := newHarness(t, client, nil)

	doc, err := h.service.Analyze(h.dbc(), article("1", "Jane Doe of Boston"), []Field{{Name: "body"}})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "article", doc.OwnerType)
	assert.Equal(t, "1", doc.OwnerID)

	c := h.counts(t, doc)
	assert.Equal(t, int64(2), c.Entities)
	assert.Equal(t, int64(1), c.Events)
	assert.Equal(t, int64(1), c.SocialTags)
	assert.Equal(t, int64(1), c.Topics)

	require.Len(t, client.calls, 1)
	assert.Equal(t, "text/txt", client.calls[0].contentType)

	dets, err := h.repos.Detection.ListEntities(h.dbc(), doc.ID)
	require.NoError(t, err)
	byURI := map[string]*types.EntityDetection{}
	for _, d := range dets {
		byURI[d.URLHash] = d
	}
	require.Contains(t, byURI, janeURI)
	require.NotNil(t, byURI[janeURI].Relevance)
	assert.InDelta(t, 0.8, *byURI[janeURI].Relevance, 1e-9)

	tags, err := h.repos.Detection.ListSocialTags(h.dbc(), doc.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, 2, tags[0].Importance)

	topics, err := h.repos.Detection.ListTopics(h.dbc(), doc.ID)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.InDelta(t, 0.92, topics[0].Score, 1e-9)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	client := &fakeClient{text: replay(normalization.FormatJSON, fixture(t, "response.json"))}
	h := newHarness(t, client, nil)
	obj := article("1", "Jane Doe of Boston")

	first, err := h.service.Analyze(h.dbc(), obj, []Field{{Name: "body"}})
	require.NoError(t, err)
	before := h.counts(t, first)

	second, err := h.service.Analyze(h.dbc(), obj, []Field{{Name: "body"}})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, before, h.counts(t, second))
	assert.False(t, second.AnalysisDate.Before(first.AnalysisDate))

	n, err := h.repos.Entity.Count(h.dbc())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestAnalyzeSharesEntitiesAcrossDocuments(t *testing.T) {
	first := fixture(t, "response.json")
	second := bytes.Replace(first, []byte(`"relevance": 0.8`), []byte(`"relevance": 0.25`), 1)
	require.NotEqual(t, first, second)

	client := &fakeClient{text: func(text string) (*calais.Response, error) {
		if text == "b" {
			return &calais.Response{Format: normalization.FormatJSON, Body: second}, nil
		}
		return &calais.Response{Format: normalization.FormatJSON, Body: first}, nil
	}}
	h := newHarness(t, client, nil)

	a, err := h.service.Analyze(h.dbc(), article("1", "a"), []Field{{Name: "body"}})
	require.NoError(t, err)
	b, err := h.service.Analyze(h.dbc(), article("2", "b"), []Field{{Name: "body"}})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	n, err := h.repos.Entity.Count(h.dbc())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	n, err = h.repos.EventFact.Count(h.dbc())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, int64(2), h.counts(t, a).Entities)
	assert.Equal(t, int64(2), h.counts(t, b).Entities)

	detA := h.entityDetection(t, a, janeURI)
	detB := h.entityDetection(t, b, janeURI)
	assert.Equal(t, detA.EntityID, detB.EntityID)
	assert.NotEqual(t, detA.ID, detB.ID)
	require.NotNil(t, detA.Relevance)
	require.NotNil(t, detB.Relevance)
	assert.InDelta(t, 0.8, *detA.Relevance, 1e-9)
	assert.InDelta(t, 0.25, *detB.Relevance, 1e-9)
}

func (h *harness) entityDetection(t *testing.T, doc *types.Document, uri string) *types.EntityDetection {
	t.Helper()
	dets, err := h.repos.Detection.ListEntities(h.dbc(), doc.ID)
	require.NoError(t, err)
	for _, d := range dets {
		if d.URLHash == uri {
			return d
		}
	}
	t.Fatalf("no detection of %s on document %s", uri, doc.ID)
	return nil
}

func TestAnalyzeSkipsBlankRDFTypeName(t *testing.T) {
	body := []byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:c="http://s.opencalais.com/1/pred/">
  <rdf:Description rdf:about="urn:blank">
    <rdf:type rdf:resource="http://s.opencalais.com/1/type/em/e/"/>
    <c:name>Nobody</c:name>
  </rdf:Description>
</rdf:RDF>`)
	client := &fakeClient{text: replay(normalization.FormatRDF, body)}
	h := newHarness(t, client, nil)

	doc, err := h.service.Analyze(h.dbc(), article("1", "x"), []Field{{Name: "body"}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), h.counts(t, doc).Entities)

	et, err := h.repos.EntityType.GetByName(h.dbc(), "")
	require.NoError(t, err)
	assert.Nil(t, et)
}

func TestAnalyzeTransportFaultDegrades(t *testing.T) {
	client := &fakeClient{text: func(string) (*calais.Response, error) {
		return nil, &calais.HTTPError{StatusCode: 503, Body: "busy"}
	}}
	h := newHarness(t, client, nil)

	doc, err := h.service.Analyze(h.dbc(), article("1", "text"), []Field{{Name: "body"}})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, int64(0), h.counts(t, doc).Total())
}

func TestAnalyzeDecodeFaultDegrades(t *testing.T) {
	client := &fakeClient{text: replay(normalization.FormatUnknown, []byte("Service Unavailable"))}
	h := newHarness(t, client, nil)

	doc, err := h.service.Analyze(h.dbc(), article("1", "text"), []Field{{Name: "body"}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), h.counts(t, doc).Total())
}

func TestAnalyzeLookupFaultDegrades(t *testing.T) {
	body := []byte(`<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:c="http://s.opencalais.com/1/pred/">
  <rdf:Description rdf:about="http://d.opencalais.com/x/rel">
    <rdf:type rdf:resource="http://s.opencalais.com/1/type/sys/RelevanceInfo"/>
    <c:relevance>0.5</c:relevance>
  </rdf:Description>
</rdf:RDF>`)
	client := &fakeClient{text: replay(normalization.FormatRDF, body)}
	h := newHarness(t, client, nil)

	doc, err := h.service.Analyze(h.dbc(), article("1", "text"), []Field{{Name: "body"}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), h.counts(t, doc).Total())
}

func TestAnalyzeWithoutClientDegrades(t *testing.T) {
	h := newHarness(t, nil, nil)
	doc, err := h.service.Analyze(h.dbc(), article("1", "text"), []Field{{Name: "body"}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), h.counts(t, doc).Total())
}

func TestAnalyzeRDFPayload(t *testing.T) {
	client := &fakeClient{text: replay(normalization.FormatRDF, fixture(t, "response.rdf"))}
	h := newHarness(t, client, nil)

	doc, err := h.service.Analyze(h.dbc(), article("1", "text"), []Field{{Name: "body"}})
	require.NoError(t, err)
	c := h.counts(t, doc)
	assert.Equal(t, int64(2), c.Entities)
	assert.Equal(t, int64(1), c.Events)
	assert.Equal(t, int64(1), c.SocialTags)
	assert.Equal(t, int64(1), c.Topics)

	et, err := h.repos.EntityType.GetByName(h.dbc(), "Person")
	require.NoError(t, err)
	require.NotNil(t, et)
	assert.Equal(t, "http://s.opencalais.com/1/type/em/e/Person", et.URLHash)
}

func TestAnalyzeNoFields(t *testing.T) {
	client := &fakeClient{}
	h := newHarness(t, client, nil)

	_, err := h.service.Analyze(h.dbc(), article("1", "text"), nil)
	assert.ErrorIs(t, err, ErrNoAnalysisFields)
	assert.Empty(t, client.calls)

	_, err = h.service.DocumentFor(h.dbc(), article("1", "text"))
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestAnalyzeUsesObjectDefaults(t *testing.T) {
	client := &fakeClient{text: replay(normalization.FormatJSON, fixture(t, "response.json"))}
	h := newHarness(t, client, nil)
	obj := article("1", "Jane")
	obj.Defaults = []Field{{Name: "body", ContentType: "text/raw"}}

	_, err := h.service.Analyze(h.dbc(), obj, nil)
	require.NoError(t, err)
	require.Len(t, client.calls, 1)
	assert.Equal(t, "text/raw", client.calls[0].contentType)
}

func TestAnalyzeUsesConfiguredDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte("default_fields:\n  article:\n    - name: url\n    - name: body\n"))
	require.NoError(t, err)
	body := fixture(t, "response.json")
	client := &fakeClient{
		text: replay(normalization.FormatJSON, body),
		url:  replay(normalization.FormatJSON, body),
	}
	h := newHarness(t, client, cfg)

	obj := &StaticObject{
		OwnerType: "article",
		OwnerID:   "1",
		Content:   map[string]string{"body": "Jane"},
		URLs:      map[string]string{"url": "http://example.com/a"},
	}
	_, err = h.service.Analyze(h.dbc(), obj, nil)
	require.NoError(t, err)
	require.Len(t, client.calls, 2)
	assert.Equal(t, "url", client.calls[0].kind)
	assert.Equal(t, "text/html", client.calls[0].contentType)
	assert.Equal(t, "text", client.calls[1].kind)
}

func TestAnalyzeCallsURLFieldsFirst(t *testing.T) {
	body := fixture(t, "response.json")
	client := &fakeClient{
		text: replay(normalization.FormatJSON, body),
		url:  replay(normalization.FormatJSON, body),
	}
	h := newHarness(t, client, nil)
	obj := &StaticObject{
		OwnerType: "article",
		OwnerID:   "1",
		Content:   map[string]string{"title": "T", "body": "B", "empty": "  "},
		URLs:      map[string]string{"link": "http://example.com/a"},
	}

	doc, err := h.service.Analyze(h.dbc(), obj, []Field{
		{Name: "title"}, {Name: "link"}, {Name: "missing"}, {Name: "empty"}, {Name: "body"},
	})
	require.NoError(t, err)

	var order []string
	for _, c := range client.calls {
		order = append(order, c.kind+":"+c.value)
	}
	assert.Equal(t, []string{"url:http://example.com/a", "text:T", "text:B"}, order)
	assert.Equal(t, int64(2), h.counts(t, doc).Entities)
}

func TestDocumentFor(t *testing.T) {
	client := &fakeClient{text: replay(normalization.FormatJSON, fixture(t, "response.json"))}
	h := newHarness(t, client, nil)
	obj := article("9", "x")

	doc, err := h.service.Analyze(h.dbc(), obj, []Field{{Name: "body"}})
	require.NoError(t, err)
	got, err := h.service.DocumentFor(h.dbc(), obj)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
}

func TestAnalyzeInsideCallerTransaction(t *testing.T) {
	client := &fakeClient{text: replay(normalization.FormatJSON, fixture(t, "response.json"))}
	h := newHarness(t, client, nil)

	tx := h.db.Begin()
	require.NoError(t, tx.Error)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	_, err := h.service.Analyze(dbc, article("1", "x"), []Field{{Name: "body"}})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback().Error)

	_, err = h.service.DocumentFor(h.dbc(), article("1", "x"))
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestEntitySnapshotDropsTransientAttributes(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewDetectionService(log, repos.NewSet(db, log))
	dbc := dbctx.Context{Ctx: context.Background()}

	rec := normalization.NewRecord(janeURI)
	rec.Type = "Person"
	rec.TypeReference = "http://s.opencalais.com/1/type/em/e/Person"
	rec.Set("name", normalization.Text("Jane Doe"))
	rec.Set("instances", normalization.List(normalization.Text("Jane")))
	rec.Set("resolutions", normalization.List(normalization.Text("r")))

	ent, err := svc.EnsureEntity(dbc, rec, rec.URI)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", ent.Name)

	var attrs map[string]any
	require.NoError(t, json.Unmarshal(ent.Attributes, &attrs))
	assert.Equal(t, "Jane Doe", attrs["name"])
	assert.NotContains(t, attrs, "instances")
	assert.NotContains(t, attrs, "resolutions")

	_, ok := rec.Get("instances")
	assert.True(t, ok)

	rel := normalization.NewRecord(travelURI)
	rel.Type = "PersonTravel"
	rel.Set("instances", normalization.List(normalization.Text("i")))
	rel.Set("resolutions", normalization.Text("kept"))
	ev, err := svc.EnsureEvent(dbc, rel, rel.URI)
	require.NoError(t, err)
	var evAttrs map[string]any
	require.NoError(t, json.Unmarshal(ev.Attributes, &evAttrs))
	assert.NotContains(t, evAttrs, "instances")
	assert.Equal(t, "kept", evAttrs["resolutions"])
}

func TestAttachDetectionsEmptyResult(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	svc := NewDetectionService(log, set)
	dbc := dbctx.Context{Ctx: context.Background()}

	doc, _, err := set.Document.GetOrCreate(dbc, "article", "1")
	require.NoError(t, err)
	stats, err := svc.AttachDetections(dbc, doc, normalization.NewResult())
	require.NoError(t, err)
	assert.Equal(t, AttachStats{}, stats)

	_, err = svc.AttachDetections(dbc, nil, normalization.NewResult())
	assert.Error(t, err)
}

func TestAttachDetectionsReusesExistingEntity(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	svc := NewDetectionService(log, set)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	seeded := testutil.SeedEntity(t, ctx, db, "City", bostonURI, "Boston")
	doc := testutil.SeedDocument(t, ctx, db, "article", "1")

	res, err := normalization.NormalizeJSON(fixture(t, "response.json"))
	require.NoError(t, err)
	stats, err := svc.AttachDetections(dbc, doc, res)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entities)
	assert.Equal(t, 5, stats.Created)

	got, err := set.Entity.GetByURLHash(dbc, bostonURI)
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)
	assert.JSONEq(t, `{"name":"Boston"}`, string(got.Attributes))

	again, err := svc.AttachDetections(dbc, doc, res)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
}

package services

import (
	"encoding/json"
	"fmt"
	"sort"

	"gorm.io/datatypes"

	"github.com/yungbote/calaisgraph/internal/data/repos"
	types "github.com/yungbote/calaisgraph/internal/domain"
	"github.com/yungbote/calaisgraph/internal/normalization"
	"github.com/yungbote/calaisgraph/internal/platform/dbctx"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

// Attributes that describe one analysis rather than the entity itself.
var (
	entityTransientAttrs = []string{"instances", "resolutions"}
	eventTransientAttrs  = []string{"instances"}
)

// AttachStats counts the detections seen by one AttachDetections call;
// Created counts only the rows that did not exist before.
type AttachStats struct {
	Entities   int `json:"entities"`
	Events     int `json:"events"`
	SocialTags int `json:"social_tags"`
	Topics     int `json:"topics"`
	Created    int `json:"created"`
}

func (s AttachStats) Add(o AttachStats) AttachStats {
	return AttachStats{
		Entities:   s.Entities + o.Entities,
		Events:     s.Events + o.Events,
		SocialTags: s.SocialTags + o.SocialTags,
		Topics:     s.Topics + o.Topics,
		Created:    s.Created + o.Created,
	}
}

// DetectionService turns a normalized Result into deduplicated rows. All
// methods run inside dbc.Tx when one is set.
type DetectionService interface {
	EnsureEntity(dbc dbctx.Context, rec *normalization.Record, uri string) (*types.Entity, error)
	EnsureEvent(dbc dbctx.Context, rec *normalization.Record, uri string) (*types.EventFact, error)
	EnsureSocialTag(dbc dbctx.Context, tag normalization.SocialTag) (*types.SocialTag, error)
	EnsureTopic(dbc dbctx.Context, topic normalization.Topic) (*types.Topic, error)
	AttachDetections(dbc dbctx.Context, doc *types.Document, res *normalization.Result) (AttachStats, error)
}

type detectionService struct {
	log  *logger.Logger
	repo repos.Set
}

func NewDetectionService(baseLog *logger.Logger, repoSet repos.Set) DetectionService {
	return &detectionService{
		log:  baseLog.With("service", "DetectionService"),
		repo: repoSet,
	}
}

func (s *detectionService) EnsureEntity(dbc dbctx.Context, rec *normalization.Record, uri string) (*types.Entity, error) {
	existing, err := s.repo.Entity.GetByURLHash(dbc, uri)
	if err != nil {
		return nil, fmt.Errorf("lookup entity %s: %w", uri, err)
	}
	if existing != nil {
		return existing, nil
	}

	etype, err := s.repo.EntityType.GetOrCreate(dbc, rec.Type, rec.TypeReference)
	if err != nil {
		return nil, fmt.Errorf("entity type %q: %w", rec.Type, err)
	}
	attrs, err := snapshot(rec, entityTransientAttrs)
	if err != nil {
		return nil, fmt.Errorf("entity %s attributes: %w", uri, err)
	}
	ent, _, err := s.repo.Entity.GetOrCreate(dbc, &types.Entity{
		URLHash:    uri,
		TypeID:     etype.ID,
		Name:       rec.Name(),
		Attributes: attrs,
	})
	if err != nil {
		return nil, fmt.Errorf("create entity %s: %w", uri, err)
	}
	return ent, nil
}

func (s *detectionService) EnsureEvent(dbc dbctx.Context, rec *normalization.Record, uri string) (*types.EventFact, error) {
	existing, err := s.repo.EventFact.GetByURLHash(dbc, uri)
	if err != nil {
		return nil, fmt.Errorf("lookup event %s: %w", uri, err)
	}
	if existing != nil {
		return existing, nil
	}

	etype, err := s.repo.EventFactType.GetOrCreate(dbc, rec.Type, rec.TypeReference)
	if err != nil {
		return nil, fmt.Errorf("event type %q: %w", rec.Type, err)
	}
	attrs, err := snapshot(rec, eventTransientAttrs)
	if err != nil {
		return nil, fmt.Errorf("event %s attributes: %w", uri, err)
	}
	ev, _, err := s.repo.EventFact.GetOrCreate(dbc, &types.EventFact{
		URLHash:    uri,
		TypeID:     etype.ID,
		Attributes: attrs,
	})
	if err != nil {
		return nil, fmt.Errorf("create event %s: %w", uri, err)
	}
	return ev, nil
}

func (s *detectionService) EnsureSocialTag(dbc dbctx.Context, tag normalization.SocialTag) (*types.SocialTag, error) {
	row, err := s.repo.SocialTag.GetOrCreate(dbc, tag.URI, tag.Name)
	if err != nil {
		return nil, fmt.Errorf("social tag %s: %w", tag.URI, err)
	}
	return row, nil
}

func (s *detectionService) EnsureTopic(dbc dbctx.Context, topic normalization.Topic) (*types.Topic, error) {
	row, err := s.repo.Topic.GetOrCreate(dbc, topic.Category, topic.CategoryName)
	if err != nil {
		return nil, fmt.Errorf("topic %s: %w", topic.Category, err)
	}
	return row, nil
}

// AttachDetections runs the entity, event, social tag and topic passes in
// that order. Re-attaching the same result is a no-op.
func (s *detectionService) AttachDetections(dbc dbctx.Context, doc *types.Document, res *normalization.Result) (AttachStats, error) {
	var stats AttachStats
	if doc == nil {
		return stats, fmt.Errorf("attach detections: nil document")
	}
	if res.Empty() {
		return stats, nil
	}
	passes := []func(dbctx.Context, *types.Document, *normalization.Result, *AttachStats) error{
		s.attachEntities,
		s.attachEvents,
		s.attachSocialTags,
		s.attachTopics,
	}
	for _, pass := range passes {
		if err := pass(dbc, doc, res, &stats); err != nil {
			return stats, err
		}
	}
	s.log.Debug("detections attached",
		"document_id", doc.ID,
		"entities", stats.Entities,
		"events", stats.Events,
		"social_tags", stats.SocialTags,
		"topics", stats.Topics,
		"created", stats.Created,
	)
	return stats, nil
}

func (s *detectionService) attachEntities(dbc dbctx.Context, doc *types.Document, res *normalization.Result, stats *AttachStats) error {
	for _, rec := range sortedRecords(res.Entities) {
		ent, err := s.EnsureEntity(dbc, rec, rec.URI)
		if err != nil {
			return err
		}
		_, created, err := s.repo.Detection.GetOrCreateEntity(dbc, &types.EntityDetection{
			DocumentID: doc.ID,
			EntityID:   ent.ID,
			URLHash:    rec.URI,
			Relevance:  rec.Relevance,
		})
		if err != nil {
			return fmt.Errorf("entity detection %s: %w", rec.URI, err)
		}
		stats.Entities++
		if created {
			stats.Created++
		}
	}
	return nil
}

func (s *detectionService) attachEvents(dbc dbctx.Context, doc *types.Document, res *normalization.Result, stats *AttachStats) error {
	for _, rec := range sortedRecords(res.Relations) {
		ev, err := s.EnsureEvent(dbc, rec, rec.URI)
		if err != nil {
			return err
		}
		_, created, err := s.repo.Detection.GetOrCreateEvent(dbc, &types.EventDetection{
			DocumentID:  doc.ID,
			EventFactID: ev.ID,
			URLHash:     rec.URI,
		})
		if err != nil {
			return fmt.Errorf("event detection %s: %w", rec.URI, err)
		}
		stats.Events++
		if created {
			stats.Created++
		}
	}
	return nil
}

func (s *detectionService) attachSocialTags(dbc dbctx.Context, doc *types.Document, res *normalization.Result, stats *AttachStats) error {
	for _, uri := range sortedKeys(res.SocialTags) {
		tag := res.SocialTags[uri]
		row, err := s.EnsureSocialTag(dbc, tag)
		if err != nil {
			return err
		}
		_, created, err := s.repo.Detection.GetOrCreateSocialTag(dbc, &types.SocialTagDetection{
			DocumentID:  doc.ID,
			SocialTagID: row.ID,
			URLHash:     uri,
			Importance:  tag.Importance,
		})
		if err != nil {
			return fmt.Errorf("social tag detection %s: %w", uri, err)
		}
		stats.SocialTags++
		if created {
			stats.Created++
		}
	}
	return nil
}

func (s *detectionService) attachTopics(dbc dbctx.Context, doc *types.Document, res *normalization.Result, stats *AttachStats) error {
	for _, uri := range sortedKeys(res.Topics) {
		topic := res.Topics[uri]
		row, err := s.EnsureTopic(dbc, topic)
		if err != nil {
			return err
		}
		_, created, err := s.repo.Detection.GetOrCreateTopic(dbc, &types.TopicDetection{
			DocumentID: doc.ID,
			TopicID:    row.ID,
			URLHash:    uri,
			Score:      topic.Score,
		})
		if err != nil {
			return fmt.Errorf("topic detection %s: %w", uri, err)
		}
		stats.Topics++
		if created {
			stats.Created++
		}
	}
	return nil
}

// snapshot serializes rec without the named attributes. rec is not modified.
func snapshot(rec *normalization.Record, drop []string) (datatypes.JSON, error) {
	plain := rec.Plain()
	for _, name := range drop {
		delete(plain, name)
	}
	raw, err := json.Marshal(plain)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func sortedRecords(buckets map[string]map[string]*normalization.Record) []*normalization.Record {
	var out []*normalization.Record
	for _, bucket := range buckets {
		for _, rec := range bucket {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

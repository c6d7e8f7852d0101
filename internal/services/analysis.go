package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/calaisgraph/internal/config"
	"github.com/yungbote/calaisgraph/internal/data/repos"
	types "github.com/yungbote/calaisgraph/internal/domain"
	"github.com/yungbote/calaisgraph/internal/normalization"
	"github.com/yungbote/calaisgraph/internal/platform/calais"
	"github.com/yungbote/calaisgraph/internal/platform/ctxutil"
	"github.com/yungbote/calaisgraph/internal/platform/dbctx"
	"github.com/yungbote/calaisgraph/internal/platform/logger"
)

const tracerName = "github.com/yungbote/calaisgraph/internal/services"

type AnalysisService interface {
	// Analyze submits the selected fields of obj, then records every
	// detection against obj's Document. Remote or decode failures on a field
	// degrade that field to an empty result; they are logged, not returned.
	Analyze(dbc dbctx.Context, obj Analyzable, fields []Field) (*types.Document, error)
	// DocumentFor returns ErrDocumentNotFound when obj was never analyzed.
	DocumentFor(dbc dbctx.Context, obj Analyzable) (*types.Document, error)
}

type analysisService struct {
	db         *gorm.DB
	log        *logger.Logger
	client     calais.Client
	detections DetectionService
	documents  repos.DocumentRepo
	cfg        *config.Config
	tracer     trace.Tracer
}

func NewAnalysisService(
	db *gorm.DB,
	baseLog *logger.Logger,
	client calais.Client,
	detections DetectionService,
	documents repos.DocumentRepo,
	cfg *config.Config,
) AnalysisService {
	return &analysisService{
		db:         db,
		log:        baseLog.With("service", "AnalysisService"),
		client:     client,
		detections: detections,
		documents:  documents,
		cfg:        cfg,
		tracer:     otel.Tracer(tracerName),
	}
}

type plannedField struct {
	Field
	kind  FieldKind
	value string
}

func (s *analysisService) Analyze(dbc dbctx.Context, obj Analyzable, fields []Field) (*types.Document, error) {
	if obj == nil {
		return nil, fmt.Errorf("analyze: nil object")
	}
	ownerType, ownerID := obj.AnalysisOwner()
	if strings.TrimSpace(ownerType) == "" || strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("analyze: owner type and id required")
	}

	ctx, span := s.tracer.Start(ctxutil.Default(dbc.Ctx), "AnalysisService.Analyze",
		trace.WithAttributes(
			attribute.String("owner_type", ownerType),
			attribute.String("owner_id", ownerID),
		),
	)
	defer span.End()
	dbc = dbctx.Context{Ctx: ctx, Tx: dbc.Tx}

	log := s.log
	if td := ctxutil.GetTraceData(ctx); td != nil {
		if td.TraceID == "" && span.SpanContext().HasTraceID() {
			td.TraceID = span.SpanContext().TraceID().String()
		}
		log = log.With("request_id", td.RequestID, "trace_id", td.TraceID)
	}

	fields = s.resolveFields(obj, ownerType, fields)
	if len(fields) == 0 {
		span.SetStatus(codes.Error, ErrNoAnalysisFields.Error())
		return nil, ErrNoAnalysisFields
	}

	results := make([]*normalization.Result, 0, len(fields))
	for _, pf := range planFields(obj, fields) {
		results = append(results, s.analyzeField(ctx, log, pf))
	}

	run := func(inner dbctx.Context) (*types.Document, error) {
		doc, created, err := s.documents.GetOrCreate(inner, ownerType, ownerID)
		if err != nil {
			return nil, fmt.Errorf("document for %s/%s: %w", ownerType, ownerID, err)
		}
		if !created {
			now := time.Now().UTC()
			if err := s.documents.TouchAnalysisDate(inner, doc.ID, now); err != nil {
				return nil, fmt.Errorf("touch document %s: %w", doc.ID, err)
			}
			doc.AnalysisDate = now
		}
		var total AttachStats
		for _, res := range results {
			stats, err := s.detections.AttachDetections(inner, doc, res)
			if err != nil {
				return nil, err
			}
			total = total.Add(stats)
		}
		span.SetAttributes(
			attribute.Int("detections.entities", total.Entities),
			attribute.Int("detections.events", total.Events),
			attribute.Int("detections.social_tags", total.SocialTags),
			attribute.Int("detections.topics", total.Topics),
			attribute.Int("detections.created", total.Created),
		)
		log.Info("analysis stored",
			"owner_type", ownerType,
			"owner_id", ownerID,
			"document_id", doc.ID,
			"fields", len(fields),
			"created", total.Created,
		)
		return doc, nil
	}

	if dbc.Tx != nil {
		doc, err := run(dbc)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return doc, err
	}

	var out *types.Document
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := run(dbctx.Context{Ctx: ctx, Tx: tx})
		if err != nil {
			return err
		}
		out = doc
		return nil
	}); err != nil {
		log.Warn("Analyze transaction error", "owner_type", ownerType, "owner_id", ownerID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}

func (s *analysisService) DocumentFor(dbc dbctx.Context, obj Analyzable) (*types.Document, error) {
	ownerType, ownerID := obj.AnalysisOwner()
	doc, err := s.documents.GetByOwner(dbc, ownerType, ownerID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// resolveFields picks explicit fields, then the object's own defaults, then
// the configured defaults for its owner type.
func (s *analysisService) resolveFields(obj Analyzable, ownerType string, fields []Field) []Field {
	if len(fields) > 0 {
		return fields
	}
	if df, ok := obj.(DefaultFielder); ok {
		if out := df.DefaultAnalysisFields(); len(out) > 0 {
			return out
		}
	}
	specs := s.cfg.Fields(ownerType)
	out := make([]Field, 0, len(specs))
	for _, spec := range specs {
		out = append(out, Field{Name: spec.Name, ContentType: spec.ContentType})
	}
	return out
}

// planFields orders URL fields ahead of content fields and drops the rest.
func planFields(obj Analyzable, fields []Field) []plannedField {
	var urls, contents []plannedField
	for _, f := range fields {
		kind, value := obj.AnalysisField(f.Name)
		pf := plannedField{
			Field: Field{Name: f.Name, ContentType: defaultContentType(kind, f.ContentType)},
			kind:  kind,
			value: value,
		}
		switch kind {
		case FieldURL:
			urls = append(urls, pf)
		case FieldContent:
			contents = append(contents, pf)
		}
	}
	return append(urls, contents...)
}

// analyzeField never fails; every fault yields an empty result.
func (s *analysisService) analyzeField(ctx context.Context, log *logger.Logger, pf plannedField) *normalization.Result {
	ctx, span := s.tracer.Start(ctx, "AnalysisService.analyzeField",
		trace.WithAttributes(
			attribute.String("field", pf.Name),
			attribute.String("kind", pf.kind.String()),
			attribute.String("content_type", pf.ContentType),
		),
	)
	defer span.End()

	if strings.TrimSpace(pf.value) == "" {
		log.Debug("skipping empty field", "field", pf.Name)
		return normalization.NewResult()
	}
	if s.client == nil {
		log.Warn("analysis client not configured", "field", pf.Name)
		return normalization.NewResult()
	}

	var (
		resp *calais.Response
		err  error
	)
	if pf.kind == FieldURL {
		resp, err = s.client.AnalyzeURL(ctx, pf.value, pf.ContentType)
	} else {
		resp, err = s.client.AnalyzeText(ctx, pf.value, pf.ContentType)
	}
	if err != nil {
		log.Warn("analysis request failed", "field", pf.Name, "kind", pf.kind.String(), "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return normalization.NewResult()
	}

	res, err := normalization.Normalize(resp.Format, resp.Body)
	if err != nil {
		var lookupErr *normalization.LookupError
		reason := "decode"
		if errors.As(err, &lookupErr) {
			reason = "lookup"
		}
		log.Warn("analysis response rejected", "field", pf.Name, "reason", reason, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		return normalization.NewResult()
	}
	span.SetAttributes(
		attribute.Int("entities", res.EntityCount()),
		attribute.Int("relations", res.RelationCount()),
	)
	return res
}

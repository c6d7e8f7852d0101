package normalization

// Type groups used by the JSON response form.
const (
	GroupEntities  = "entities"
	GroupRelations = "relations"
	GroupSocialTag = "socialTag"
	GroupTopics    = "topics"
)

// Hierarchy is the flat record map regrouped by type group and type.
type Hierarchy struct {
	// Typed holds records with both a type group and a type.
	Typed map[string]map[string]map[string]*Record
	// Grouped holds records with a type group but no type.
	Grouped map[string]map[string]*Record
	// Loose holds records without a type group, keyed by URI.
	Loose map[string]*Record
}

func BuildHierarchy(flat map[string]*Record) *Hierarchy {
	h := &Hierarchy{
		Typed:   map[string]map[string]map[string]*Record{},
		Grouped: map[string]map[string]*Record{},
		Loose:   map[string]*Record{},
	}
	for uri, rec := range flat {
		switch {
		case rec.TypeGroup == "":
			h.Loose[uri] = rec
		case rec.Type == "":
			g, ok := h.Grouped[rec.TypeGroup]
			if !ok {
				g = map[string]*Record{}
				h.Grouped[rec.TypeGroup] = g
			}
			g[uri] = rec
		default:
			g, ok := h.Typed[rec.TypeGroup]
			if !ok {
				g = map[string]map[string]*Record{}
				h.Typed[rec.TypeGroup] = g
			}
			b, ok := g[rec.Type]
			if !ok {
				b = map[string]*Record{}
				g[rec.Type] = b
			}
			b[uri] = rec
		}
	}
	return h
}

// Result converts the hierarchy into the canonical result shape.
func (h *Hierarchy) Result() *Result {
	res := NewResult()
	for _, bucket := range h.Typed[GroupEntities] {
		for _, rec := range bucket {
			res.putEntity(rec)
			collectSideTables(res, rec)
		}
	}
	for _, bucket := range h.Typed[GroupRelations] {
		for _, rec := range bucket {
			res.putRelation(rec)
			collectSideTables(res, rec)
		}
	}
	for uri, rec := range h.Grouped[GroupSocialTag] {
		res.SocialTags[uri] = SocialTag{
			URI:        refOrText(rec, "socialTag", uri),
			Name:       rec.Name(),
			Importance: parseImportance(rec.TextAttr("importance")),
		}
	}
	for uri, rec := range h.Grouped[GroupTopics] {
		score, _ := parseScore(rec.TextAttr("score"))
		res.Topics[uri] = Topic{
			Category:     refOrText(rec, "category", uri),
			CategoryName: rec.TextAttr("categoryName"),
			Score:        score,
		}
	}
	for uri, rec := range h.Loose {
		res.Other[uri] = rec
	}
	return res
}

func collectSideTables(res *Result, rec *Record) {
	if rec.Relevance != nil {
		res.Relevance[rec.URI] = *rec.Relevance
	}
	v, ok := rec.Get("instances")
	if !ok {
		return
	}
	for _, it := range v.Items() {
		if inst, ok := it.Record(); ok {
			res.Instances[rec.URI] = append(res.Instances[rec.URI], inst)
		}
	}
}

// refOrText reads a URI-valued attribute that may have been resolved into a
// reference; fallback is used when the attribute is missing.
func refOrText(rec *Record, name, fallback string) string {
	v, ok := rec.Get(name)
	if !ok {
		return fallback
	}
	if target, ok := v.Record(); ok && target.URI != "" {
		return target.URI
	}
	if s, ok := v.Text(); ok && s != "" {
		return s
	}
	return fallback
}

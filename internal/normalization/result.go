package normalization

import (
	"encoding/json"
	"fmt"
)

// SocialTag is a document-level tag with its importance rank.
type SocialTag struct {
	URI        string `json:"socialTag"`
	Name       string `json:"name"`
	Importance int    `json:"importance"`
}

// Topic is a document category with its classifier score (0 when absent).
type Topic struct {
	Category     string  `json:"category"`
	CategoryName string  `json:"categoryName"`
	Score        float64 `json:"score"`
}

// Result is the canonical shape both response formats converge on.
type Result struct {
	Entities   map[string]map[string]*Record
	Relations  map[string]map[string]*Record
	SocialTags map[string]SocialTag
	Topics     map[string]Topic

	// Relevance and Instances are side tables; relevance is already merged
	// into the entity and relation records.
	Relevance map[string]float64
	Instances map[string][]*Record

	// Other holds records that carry no type group (e.g. the doc info block).
	Other map[string]*Record
}

func NewResult() *Result {
	return &Result{
		Entities:   map[string]map[string]*Record{},
		Relations:  map[string]map[string]*Record{},
		SocialTags: map[string]SocialTag{},
		Topics:     map[string]Topic{},
		Relevance:  map[string]float64{},
		Instances:  map[string][]*Record{},
		Other:      map[string]*Record{},
	}
}

// Empty reports whether the result has nothing to persist.
func (r *Result) Empty() bool {
	if r == nil {
		return true
	}
	return len(r.Entities) == 0 && len(r.Relations) == 0 && len(r.SocialTags) == 0 && len(r.Topics) == 0
}

// EntityCount returns the number of entity URIs across all type buckets.
func (r *Result) EntityCount() int {
	if r == nil {
		return 0
	}
	return countBuckets(r.Entities)
}

// RelationCount returns the number of relation URIs across all type buckets.
func (r *Result) RelationCount() int {
	if r == nil {
		return 0
	}
	return countBuckets(r.Relations)
}

// Entity finds an entity record by URI regardless of its type bucket.
func (r *Result) Entity(uri string) (*Record, bool) {
	return findIn(r.Entities, uri)
}

// Relation finds a relation record by URI regardless of its type bucket.
func (r *Result) Relation(uri string) (*Record, bool) {
	return findIn(r.Relations, uri)
}

func (r *Result) putEntity(rec *Record) {
	putIn(r.Entities, rec)
}

func (r *Result) putRelation(rec *Record) {
	putIn(r.Relations, rec)
}

func putIn(buckets map[string]map[string]*Record, rec *Record) {
	b, ok := buckets[rec.Type]
	if !ok {
		b = map[string]*Record{}
		buckets[rec.Type] = b
	}
	b[rec.URI] = rec
}

func findIn(buckets map[string]map[string]*Record, uri string) (*Record, bool) {
	for _, b := range buckets {
		if rec, ok := b[uri]; ok {
			return rec, true
		}
	}
	return nil, false
}

func countBuckets(buckets map[string]map[string]*Record) int {
	n := 0
	for _, b := range buckets {
		n += len(b)
	}
	return n
}

func (r *Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"entities":  r.Entities,
		"relations": r.Relations,
		"socialTag": r.SocialTags,
		"topics":    r.Topics,
		"relevance": r.Relevance,
	}
	return json.Marshal(out)
}

// DecodeError reports a payload that could not be decoded at all.
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// LookupError reports a node that is missing a child the parser needs.
type LookupError struct {
	Node  string
	Child string
	Err   error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("node %q: child %s: %v", e.Node, e.Child, e.Err)
	}
	return fmt.Sprintf("node %q: missing child %s", e.Node, e.Child)
}

func (e *LookupError) Unwrap() error { return e.Err }

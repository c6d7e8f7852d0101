package normalization

import (
	"encoding/json"
	"sort"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindText Kind = iota
	KindRef
	KindList
)

// Value is an attribute value: a text scalar, a reference to another record,
// or an ordered list of either.
type Value struct {
	kind  Kind
	text  string
	ref   *Record
	items []Value
}

func Text(s string) Value       { return Value{kind: KindText, text: s} }
func Ref(r *Record) Value       { return Value{kind: KindRef, ref: r} }
func List(items ...Value) Value { return Value{kind: KindList, items: items} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Text() (string, bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.text, true
}

func (v Value) Record() (*Record, bool) {
	if v.kind != KindRef || v.ref == nil {
		return nil, false
	}
	return v.ref, true
}

func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.items
}

// Record is one node of the analysis graph. Well-known attributes (_type,
// _typeGroup, _typeReference, relevance) are lifted into fields; the rest
// live in the attribute map.
type Record struct {
	URI           string
	Type          string
	TypeGroup     string
	TypeReference string
	Relevance     *float64

	attrs map[string]Value
}

func NewRecord(uri string) *Record {
	return &Record{URI: uri, attrs: map[string]Value{}}
}

func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

// Set stores v under name, replacing any previous value.
func (r *Record) Set(name string, v Value) {
	if r.attrs == nil {
		r.attrs = map[string]Value{}
	}
	r.attrs[name] = v
}

// Add stores v under name. A second occurrence promotes the attribute to a
// List that keeps occurrences in the order they were added.
func (r *Record) Add(name string, v Value) {
	cur, ok := r.attrs[name]
	switch {
	case !ok:
		r.Set(name, v)
	case cur.kind == KindList:
		cur.items = append(cur.items, v)
		r.attrs[name] = cur
	default:
		r.attrs[name] = List(cur, v)
	}
}

func (r *Record) Delete(name string) {
	delete(r.attrs, name)
}

// Names returns the attribute names in sorted order.
func (r *Record) Names() []string {
	out := make([]string, 0, len(r.attrs))
	for k := range r.attrs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// TextAttr returns the attribute as text, or "" when absent or not a scalar.
func (r *Record) TextAttr(name string) string {
	v, ok := r.attrs[name]
	if !ok {
		return ""
	}
	s, _ := v.Text()
	return s
}

func (r *Record) Name() string { return r.TextAttr("name") }

// Plain flattens the record into JSON-friendly maps and slices. A record
// that is already being flattened higher up the chain is emitted as a
// {"uri": ...} stub so cyclic graphs terminate.
func (r *Record) Plain() map[string]any {
	return r.plain(map[*Record]bool{})
}

func (r *Record) plain(open map[*Record]bool) map[string]any {
	open[r] = true
	defer delete(open, r)

	out := make(map[string]any, len(r.attrs)+5)
	for name, v := range r.attrs {
		out[name] = v.plain(open)
	}
	if r.URI != "" {
		out["uri"] = r.URI
	}
	if r.Type != "" {
		out["_type"] = r.Type
	}
	if r.TypeGroup != "" {
		out["_typeGroup"] = r.TypeGroup
	}
	if r.TypeReference != "" {
		out["_typeReference"] = r.TypeReference
	}
	if r.Relevance != nil {
		out["relevance"] = *r.Relevance
	}
	return out
}

func (v Value) plain(open map[*Record]bool) any {
	switch v.kind {
	case KindRef:
		if v.ref == nil {
			return nil
		}
		if open[v.ref] {
			return map[string]any{"uri": v.ref.URI}
		}
		return v.ref.plain(open)
	case KindList:
		out := make([]any, 0, len(v.items))
		for _, it := range v.items {
			out = append(out, it.plain(open))
		}
		return out
	default:
		return v.text
	}
}

func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Plain())
}

package normalization

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// DecodeFlat decodes the JSON response form: one object keyed by URI whose
// values are attribute objects. Non-object values at the top level are
// ignored. Cross-references are left as plain text until ResolveReferences.
func DecodeFlat(raw []byte) (map[string]*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var top map[string]any
	if err := dec.Decode(&top); err != nil {
		return nil, &DecodeError{Format: FormatJSON, Err: err}
	}
	if top == nil {
		return nil, &DecodeError{Format: FormatJSON, Err: fmt.Errorf("top level is not an object")}
	}
	flat := make(map[string]*Record, len(top))
	for uri, v := range top {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		flat[uri] = recordFromObject(uri, obj)
	}
	return flat, nil
}

// ResolveReferences replaces every text attribute whose value is itself a
// key of flat with a reference to that record. Targets are shared, never
// copied, and each (record, attribute) pair is visited once.
func ResolveReferences(flat map[string]*Record) map[string]*Record {
	for _, rec := range flat {
		for name, v := range rec.attrs {
			s, ok := v.Text()
			if !ok {
				continue
			}
			if target, ok := flat[s]; ok {
				rec.attrs[name] = Ref(target)
			}
		}
	}
	return flat
}

func recordFromObject(uri string, obj map[string]any) *Record {
	rec := NewRecord(uri)
	for name, raw := range obj {
		switch name {
		case "_type":
			rec.Type = scalarString(raw)
			continue
		case "_typeGroup":
			rec.TypeGroup = scalarString(raw)
			continue
		case "_typeReference":
			rec.TypeReference = scalarString(raw)
			continue
		case "relevance":
			if f, ok := parseScore(scalarString(raw)); ok {
				rec.Relevance = &f
				continue
			}
		}
		if v, ok := jsonValue(raw); ok {
			rec.Set(name, v)
		}
	}
	return rec
}

func jsonValue(raw any) (Value, bool) {
	switch t := raw.(type) {
	case nil:
		return Value{}, false
	case string:
		return Text(t), true
	case json.Number:
		return Text(t.String()), true
	case bool:
		return Text(strconv.FormatBool(t)), true
	case map[string]any:
		return Ref(recordFromObject("", t)), true
	case []any:
		items := make([]Value, 0, len(t))
		for _, it := range t {
			if v, ok := jsonValue(it); ok {
				items = append(items, v)
			}
		}
		return List(items...), true
	default:
		return Text(fmt.Sprint(t)), true
	}
}

func scalarString(raw any) string {
	switch t := raw.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

package services

import "strings"

// FieldKind says how a field's value is submitted for analysis.
type FieldKind int

const (
	// FieldIgnored marks fields that hold neither text nor a URL.
	FieldIgnored FieldKind = iota
	FieldContent
	FieldURL
)

func (k FieldKind) String() string {
	switch k {
	case FieldContent:
		return "content"
	case FieldURL:
		return "url"
	default:
		return "ignored"
	}
}

// Field names one field to analyze and the content type to submit it as
// (text/txt, text/raw, text/html or text/xml).
type Field struct {
	Name        string
	ContentType string
}

// Analyzable is anything that can be submitted for analysis. The owner pair
// identifies the object's Document.
type Analyzable interface {
	AnalysisOwner() (ownerType, ownerID string)
	AnalysisField(name string) (FieldKind, string)
}

// DefaultFielder supplies the fields to analyze when Analyze is called
// without any.
type DefaultFielder interface {
	DefaultAnalysisFields() []Field
}

// StaticObject is an Analyzable backed by plain maps.
type StaticObject struct {
	OwnerType string
	OwnerID   string
	Content   map[string]string
	URLs      map[string]string
	Defaults  []Field
}

func (o *StaticObject) AnalysisOwner() (string, string) {
	return o.OwnerType, o.OwnerID
}

func (o *StaticObject) AnalysisField(name string) (FieldKind, string) {
	if v, ok := o.URLs[name]; ok {
		return FieldURL, v
	}
	if v, ok := o.Content[name]; ok {
		return FieldContent, v
	}
	return FieldIgnored, ""
}

func (o *StaticObject) DefaultAnalysisFields() []Field {
	return o.Defaults
}

func defaultContentType(kind FieldKind, contentType string) string {
	if ct := strings.TrimSpace(contentType); ct != "" {
		return ct
	}
	if kind == FieldURL {
		return "text/html"
	}
	return "text/txt"
}

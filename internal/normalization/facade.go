package normalization

import (
	"bytes"
	"errors"
	"strings"
)

// Format identifies the wire form of an analysis response.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatRDF
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatRDF:
		return "rdf"
	default:
		return "unknown"
	}
}

// ParseFormat maps a user supplied name ("json", "rdf", "xml/rdf",
// "application/json") to a Format.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "application/json":
		return FormatJSON
	case "rdf", "xml", "xml/rdf", "application/rdf+xml":
		return FormatRDF
	default:
		return FormatUnknown
	}
}

// FormatForOutput returns the Format a response will arrive in for the
// requested outputFormat directive. Anything other than JSON is RDF.
func FormatForOutput(outputFormat string) Format {
	if ParseFormat(outputFormat) == FormatJSON {
		return FormatJSON
	}
	return FormatRDF
}

// DetectFormat sniffs the first non-space byte of raw.
func DetectFormat(raw []byte) Format {
	trimmed := bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	trimmed = bytes.TrimLeft(trimmed, " \t\r\n")
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	switch trimmed[0] {
	case '{':
		return FormatJSON
	case '<':
		return FormatRDF
	default:
		return FormatUnknown
	}
}

// Normalize turns a raw response into the canonical Result. FormatUnknown
// falls back to sniffing the payload.
func Normalize(format Format, raw []byte) (*Result, error) {
	if format == FormatUnknown {
		format = DetectFormat(raw)
	}
	switch format {
	case FormatJSON:
		return NormalizeJSON(raw)
	case FormatRDF:
		return NormalizeRDF(raw)
	default:
		return nil, &DecodeError{Format: FormatUnknown, Err: errors.New("unrecognized payload")}
	}
}

func NormalizeJSON(raw []byte) (*Result, error) {
	flat, err := DecodeFlat(raw)
	if err != nil {
		return nil, err
	}
	return BuildHierarchy(ResolveReferences(flat)).Result(), nil
}

func NormalizeRDF(raw []byte) (*Result, error) {
	return ParseRDF(bytes.NewReader(raw))
}

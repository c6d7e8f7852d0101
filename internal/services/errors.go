package services

import "errors"

var (
	// ErrNoAnalysisFields is returned when Analyze has no fields to work
	// with: none passed, none declared by the object, none configured.
	ErrNoAnalysisFields = errors.New("no analysis fields: pass fields, implement DefaultFielder or configure default_fields")

	ErrDocumentNotFound = errors.New("document not found")
)

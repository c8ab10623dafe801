// Package envelope provides the standard wrapper for every tool response. The
// envelope echoes the arguments that were applied so that an empty result can
// be told apart from a failed one.
package envelope

import "govinv/internal/errors"

// CurrentSchemaVersion is the current envelope schema version.
const CurrentSchemaVersion = "1.0"

// Truncation describes result trimming.
type Truncation struct {
	IsTruncated bool   `json:"isTruncated"`
	Shown       int    `json:"shown"`
	Total       int    `json:"total"`
	Reason      string `json:"reason,omitempty"` // e.g. "max-results"
}

// Meta holds response metadata.
type Meta struct {
	Tool       string         `json:"tool,omitempty"`
	Query      map[string]any `json:"query"`
	Truncation *Truncation    `json:"truncation,omitempty"`
	DurationMs int64          `json:"durationMs"`
}

// Warning represents a non-fatal issue.
type Warning struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ErrorInfo is the serialized form of a failed operation.
type ErrorInfo struct {
	Code           errors.ErrorCode   `json:"code"`
	Message        string             `json:"message"`
	Details        any                `json:"details,omitempty"`
	SuggestedFixes []errors.FixAction `json:"suggestedFixes,omitempty"`
}

// Response is the standard envelope for all tool responses.
type Response struct {
	SchemaVersion string     `json:"schemaVersion"`
	Data          any        `json:"data"`
	Meta          *Meta      `json:"meta"`
	Warnings      []Warning  `json:"warnings,omitempty"`
	Error         *ErrorInfo `json:"error,omitempty"`
}

// Failed reports whether the response carries an error.
func (r *Response) Failed() bool {
	return r != nil && r.Error != nil
}

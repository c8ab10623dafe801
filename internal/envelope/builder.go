package envelope

import (
	"time"

	"govinv/internal/errors"
)

// Builder constructs Response envelopes using a fluent API.
type Builder struct {
	resp  *Response
	start time.Time
}

// New creates a new envelope builder.
func New() *Builder {
	return &Builder{
		resp: &Response{
			SchemaVersion: CurrentSchemaVersion,
			Meta:          &Meta{Query: map[string]any{}},
		},
		start: time.Now(),
	}
}

// Tool records which operation produced the response.
func (b *Builder) Tool(name string) *Builder {
	b.resp.Meta.Tool = name
	return b
}

// Data sets the tool-specific payload.
func (b *Builder) Data(data any) *Builder {
	b.resp.Data = data
	return b
}

// Query records the applied arguments. Later calls merge into earlier ones.
func (b *Builder) Query(applied map[string]any) *Builder {
	for k, v := range applied {
		b.resp.Meta.Query[k] = v
	}
	return b
}

// WithTruncation adds truncation metadata when truncated is true.
func (b *Builder) WithTruncation(truncated bool, shown, total int, reason string) *Builder {
	if !truncated {
		return b
	}
	b.resp.Meta.Truncation = &Truncation{
		IsTruncated: true,
		Shown:       shown,
		Total:       total,
		Reason:      reason,
	}
	return b
}

// Warning adds a warning message.
func (b *Builder) Warning(msg string) *Builder {
	b.resp.Warnings = append(b.resp.Warnings, Warning{Message: msg})
	return b
}

// WarningWithCode adds a warning with a code.
func (b *Builder) WarningWithCode(code, msg string) *Builder {
	b.resp.Warnings = append(b.resp.Warnings, Warning{Code: code, Message: msg})
	return b
}

// Error sets the error field. Errors that are not GovErrors are reported as INTERNAL_ERROR.
func (b *Builder) Error(err error) *Builder {
	if err == nil {
		return b
	}
	if ge, ok := errors.As(err); ok {
		b.resp.Error = &ErrorInfo{
			Code:           ge.Code,
			Message:        ge.Error(),
			Details:        ge.Details,
			SuggestedFixes: ge.SuggestedFixes,
		}
		return b
	}
	b.resp.Error = &ErrorInfo{Code: errors.InternalError, Message: err.Error()}
	return b
}

// Build returns the completed response envelope.
func (b *Builder) Build() *Response {
	b.resp.Meta.DurationMs = time.Since(b.start).Milliseconds()
	return b.resp
}

// Operational creates a simple envelope around data with no query arguments.
func Operational(data any) *Response {
	return New().Data(data).Build()
}

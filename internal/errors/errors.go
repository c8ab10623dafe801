package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// StoreUnavailable indicates the inventory store could not be reached
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// QueryFailed indicates a malformed filter or a driver-level query error
	QueryFailed ErrorCode = "QUERY_FAILED"
	// InvalidArgument indicates an unknown enum value or a missing required field
	InvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ParseDegraded marks a nested field that failed to decode. It is logged, never returned.
	ParseDegraded ErrorCode = "PARSE_DEGRADED"
	// SubprocessFailed indicates the maintenance process exited non-zero or timed out
	SubprocessFailed ErrorCode = "SUBPROCESS_FAILED"
	// NotFound indicates an unknown tool or resource
	NotFound ErrorCode = "NOT_FOUND"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// CheckConfig suggests inspecting a configuration key
	CheckConfig FixActionType = "check-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	ConfigKey   string        `json:"configKey,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// GovError is the structured error returned by every engine operation.
type GovError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates a GovError. Suggested fixes default to the ones registered for the code.
func New(code ErrorCode, message string, cause error) *GovError {
	return &GovError{
		Code:           code,
		Message:        message,
		SuggestedFixes: GetSuggestedFixes(code),
		cause:          cause,
	}
}

// Error implements the error interface
func (e *GovError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GovError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *GovError) WithDetails(details interface{}) *GovError {
	e.Details = details
	return e
}

// ArgumentDetails identifies the offending argument of an InvalidArgument error.
type ArgumentDetails struct {
	Field   string   `json:"field"`
	Value   any      `json:"value,omitempty"`
	Allowed []string `json:"allowed,omitempty"`
}

// NewInvalidArgument reports a bad or missing argument.
func NewInvalidArgument(field, message string) *GovError {
	return New(InvalidArgument, fmt.Sprintf("invalid argument %q: %s", field, message), nil).
		WithDetails(ArgumentDetails{Field: field})
}

// NewInvalidEnum reports a value outside a closed set.
func NewInvalidEnum(field string, value any, allowed []string) *GovError {
	return New(InvalidArgument, fmt.Sprintf("invalid argument %q: %v is not one of %v", field, value, allowed), nil).
		WithDetails(ArgumentDetails{Field: field, Value: value, Allowed: allowed})
}

// NewStoreUnavailable wraps a connection-level failure.
func NewStoreUnavailable(cause error) *GovError {
	return New(StoreUnavailable, "inventory store unavailable", cause)
}

// NewQueryFailed wraps a query compile or execution failure, keeping the driver message.
func NewQueryFailed(operation string, cause error) *GovError {
	e := New(QueryFailed, operation+" failed", cause)
	if cause != nil {
		e.Details = map[string]string{"driverMessage": cause.Error()}
	}
	return e
}

// SubprocessDetails carries everything captured from a failed maintenance run.
type SubprocessDetails struct {
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	TimedOut bool     `json:"timedOut,omitempty"`
	Stdout   string   `json:"stdout,omitempty"`
	Stderr   string   `json:"stderr,omitempty"`
}

// NewSubprocessFailed wraps a failed maintenance process invocation.
func NewSubprocessFailed(message string, cause error, details SubprocessDetails) *GovError {
	return New(SubprocessFailed, message, cause).WithDetails(details)
}

// NewNotFound reports an unknown named resource such as a tool.
func NewNotFound(kind, name string) *GovError {
	return New(NotFound, fmt.Sprintf("%s not found: %s", kind, name), nil)
}

// CodeOf returns the code of the first GovError in err's chain, or InternalError.
func CodeOf(err error) ErrorCode {
	var ge *GovError
	if stderrors.As(err, &ge) {
		return ge.Code
	}
	return InternalError
}

// As is a convenience around errors.As for GovError.
func As(err error) (*GovError, bool) {
	var ge *GovError
	ok := stderrors.As(err, &ge)
	return ge, ok
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	StoreUnavailable: {
		{
			Type:        CheckConfig,
			ConfigKey:   "store.path",
			Description: "Check that the inventory database exists and is readable",
		},
		{
			Type:        RunCommand,
			Command:     "govinv init-store",
			Safe:        true,
			Description: "Create an empty inventory schema",
		},
	},
	SubprocessFailed: {
		{
			Type:        CheckConfig,
			ConfigKey:   "lifecycle.script",
			Description: "Check the maintenance script path and interpreter",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}

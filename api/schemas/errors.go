package schemas

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a string type used for structured error classification across
// the generation pipeline. Using a custom type ensures only predefined
// constants can appear where an ErrorCode is expected.
type ErrorCode string

const (
	// ErrCodeConfiguration covers quotas referencing unknown task kinds,
	// required icons missing from the layout catalog, and similar setup faults.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeSurfaceMismatch indicates a coordinate was normalized against
	// dimensions inconsistent with the surface of the persisted image.
	ErrCodeSurfaceMismatch ErrorCode = "SURFACE_MISMATCH"
	// ErrCodeSchemaViolation indicates a sample reached assembly without a
	// tolerance field or with an unresolvable image path.
	ErrCodeSchemaViolation ErrorCode = "SCHEMA_VIOLATION"
	// ErrCodeLeakage indicates the verifier found a disjointness key on both
	// sides of the test / train+val boundary.
	ErrCodeLeakage ErrorCode = "LEAKAGE"
	// ErrCodeWorkerFailure indicates one or more preprocessing transforms failed.
	ErrCodeWorkerFailure ErrorCode = "WORKER_FAILURE"
)

// PipelineError carries an ErrorCode alongside a human-readable message and
// an optional wrapped cause. Generation-time occurrences abort the whole run;
// they are never downgraded to skipped samples.
type PipelineError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewPipelineError constructs a PipelineError with a formatted message.
func NewPipelineError(code ErrorCode, format string, args ...any) *PipelineError {
	return &PipelineError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapPipelineError attaches a cause to a coded error.
func WrapPipelineError(code ErrorCode, err error, format string, args ...any) *PipelineError {
	return &PipelineError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the ErrorCode from err if it is (or wraps) a PipelineError,
// and returns the empty code otherwise.
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

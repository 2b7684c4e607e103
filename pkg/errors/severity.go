// Package errors provides severity-aware error types for pipeline stages.
package errors

import "fmt"

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// PipelineError is a structured error with stage context.
type PipelineError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	Stage       string   `json:"stage,omitempty"`
	Recoverable bool     `json:"recoverable"`
}

func (e *PipelineError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("[%s] %s: %s (stage: %s)", e.Severity, e.Code, e.Message, e.Stage)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
}

// Error codes
const (
	ErrCodeIngestFailed     = "INGEST_FAILED"
	ErrCodeMissingColumn    = "MISSING_COLUMN"
	ErrCodeSchemaViolation  = "SCHEMA_VIOLATION"
	ErrCodeBadConfig        = "BAD_CONFIG"
	ErrCodeEmptyDataset     = "EMPTY_DATASET"
	ErrCodeArtifactNotFound = "ARTIFACT_NOT_FOUND"
)

// NewMissingColumnError reports a required input column absent from an
// external dataset.
func NewMissingColumnError(column, stage string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeMissingColumn,
		Message:     fmt.Sprintf("Required column missing from input: %s", column),
		Severity:    SeverityError,
		Stage:       stage,
		Recoverable: false,
	}
}

// NewSchemaViolationError reports claims data that failed critical
// validation.
func NewSchemaViolationError(rule, detail string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeSchemaViolation,
		Message:     fmt.Sprintf("Validation rule %s failed: %s", rule, detail),
		Severity:    SeverityError,
		Stage:       "validate",
		Recoverable: false,
	}
}

// NewEmptyDatasetError reports a stage invoked with no claims to process.
func NewEmptyDatasetError(stage string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeEmptyDataset,
		Message:     "No claims available for processing",
		Severity:    SeverityWarning,
		Stage:       stage,
		Recoverable: true,
	}
}

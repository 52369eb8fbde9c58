package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds for the pipeline's failure scenarios.
const (
	ErrMalformedInput       = "MALFORMED_INPUT"
	ErrNormalizationFailure = "NORMALIZATION_FAILURE"
	ErrRetrievalBackend     = "RETRIEVAL_BACKEND_FAILURE"
	ErrGenerationFailure    = "GENERATION_FAILURE"
	ErrConfigurationMissing = "CONFIGURATION_MISSING"
)

// PipelineError is the structured error carried out of the pipeline.
// Kind is machine-usable, Message is safe for the caller, Detail holds
// debug-only context and must not be shown to end users.
type PipelineError struct {
	Kind       string `json:"error"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	StatusCode int    `json:"status_code"`
	cause      error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *PipelineError) Unwrap() error {
	return e.cause
}

// WithDetail attaches debug context and returns the error.
func (e *PipelineError) WithDetail(detail string) *PipelineError {
	e.Detail = detail
	return e
}

// WithCause attaches the underlying error and returns the error.
func (e *PipelineError) WithCause(err error) *PipelineError {
	e.cause = err
	if e.Detail == "" && err != nil {
		e.Detail = err.Error()
	}
	return e
}

// NewMalformedInputError reports a request body that is not well-formed or
// misses required fields. The pipeline never starts for these.
func NewMalformedInputError(message string) *PipelineError {
	return &PipelineError{Kind: ErrMalformedInput, Message: message, StatusCode: http.StatusBadRequest}
}

// NewNormalizationError reports a record that parsed but failed shape checks.
func NewNormalizationError(message string) *PipelineError {
	return &PipelineError{Kind: ErrNormalizationFailure, Message: message, StatusCode: http.StatusUnprocessableEntity}
}

// NewRetrievalBackendError reports a vector backend failure. The retriever
// recovers from these locally; they never surface as a hard failure.
func NewRetrievalBackendError(message string) *PipelineError {
	return &PipelineError{Kind: ErrRetrievalBackend, Message: message, StatusCode: http.StatusBadGateway}
}

// NewGenerationError reports a failed or timed-out generator call after the
// retry budget is exhausted.
func NewGenerationError(message string) *PipelineError {
	return &PipelineError{Kind: ErrGenerationFailure, Message: message, StatusCode: http.StatusInternalServerError}
}

// NewConfigurationMissingError reports absent required configuration,
// enumerating the missing settings.
func NewConfigurationMissingError(missing []string) *PipelineError {
	return &PipelineError{
		Kind:       ErrConfigurationMissing,
		Message:    fmt.Sprintf("missing required configuration: %v", missing),
		StatusCode: http.StatusInternalServerError,
	}
}

// AsPipelineError extracts a PipelineError from an error chain, wrapping
// unknown errors as a generation failure so the HTTP layer always has a
// structured shape to return.
func AsPipelineError(err error) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	return NewGenerationError("internal pipeline failure").WithCause(err)
}

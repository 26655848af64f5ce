package types

import (
	"errors"
	"fmt"
)

// Sentinel conditions for the retrieval side of the pipeline. All of these
// are absorbed by the orchestrator (degradation or configuration terminal),
// never shown raw to the caller.
var (
	// ErrCompanyNotConfigured means no knowledge source is configured for
	// the company at all. This is an operational gap, not a lookup miss.
	ErrCompanyNotConfigured = errors.New("company not configured")

	// ErrKnowledgeNotFound means the configured knowledge document is
	// missing or unreadable.
	ErrKnowledgeNotFound = errors.New("knowledge base not found")

	// ErrBackendUnavailable means the company has no semantic index, or
	// the index artifact is missing.
	ErrBackendUnavailable = errors.New("semantic backend unavailable")

	// ErrSearchTimeout means the semantic backend exceeded its wall-clock
	// budget and the in-flight invocation was abandoned.
	ErrSearchTimeout = errors.New("semantic search timeout")
)

// ErrorKind tags request-terminal failures so handlers can choose status
// codes and user-facing copy without matching on error strings.
type ErrorKind string

const (
	ErrKindClientInput         ErrorKind = "client_input"
	ErrKindConfiguration       ErrorKind = "configuration"
	ErrKindGenerationTimeout   ErrorKind = "generation_timeout"
	ErrKindGenerationRateLimit ErrorKind = "generation_rate_limit"
	ErrKindGenerationAuth      ErrorKind = "generation_auth"
	ErrKindGeneration          ErrorKind = "generation"
)

// PipelineError is a terminal error of the response pipeline.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func NewPipelineError(kind ErrorKind, message string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Err: err}
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Transient reports whether the caller should be told to retry shortly
// rather than contact support.
func (e *PipelineError) Transient() bool {
	return e.Kind == ErrKindGenerationTimeout || e.Kind == ErrKindGenerationRateLimit
}

// KindOf extracts the error kind, defaulting to generation for untagged
// errors that escape the pipeline.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrKindGeneration
}

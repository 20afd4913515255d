package contract

import "errors"

var (
	ErrBackendUnavailable = errors.New("model backend unavailable")
	ErrBackendTimeout     = errors.New("model backend timed out")
	ErrUnknownTool        = errors.New("unknown tool")
	ErrToolInternal       = errors.New("tool failed")
	ErrCompaction         = errors.New("memory compaction failed")
	ErrToolLoopExceeded   = errors.New("tool loop exceeded max iterations")
	ErrSchemaViolation    = errors.New("model response violates schema")
	ErrPromptMissing      = errors.New("required prompt is missing")
	ErrValidation         = errors.New("validation failed")
	ErrGraphState         = errors.New("invalid graph state")
)

package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for uploads whose extension has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrIndexUnavailable means document_qa was attempted with no semantic index.
	ErrIndexUnavailable = errors.New("semantic index unavailable")
)

// ParseError reports malformed file content: a corrupt PDF, invalid UTF-8, or no extractable text.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// CollaboratorError reports a failed or timed-out call to an external model or search service.
type CollaboratorError struct {
	Collaborator string // generation, embedding, classification, search
	Op           string
	Timeout      bool
	Err          error
}

func (e *CollaboratorError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s %s: timed out: %v", e.Collaborator, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Collaborator, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// RoutingError means no intent could be resolved for a query.
type RoutingError struct {
	Err error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing failed: %v", e.Err)
}

func (e *RoutingError) Unwrap() error { return e.Err }

func unsupportedFormat(ext string) error {
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Collaborator names used in errors, logs and metrics.
const (
	CollaboratorGeneration     = "generation"
	CollaboratorEmbedding      = "embedding"
	CollaboratorClassification = "classification"
	CollaboratorSearch         = "search"
)

// Recorder receives operational measurements. *metrics.Metrics satisfies it.
type Recorder interface {
	ObserveCollaborator(collaborator, outcome string, d time.Duration)
	ObserveRoute(intent, stage string)
	ObserveResponse(intent, source string)
	ObserveIngestion(outcome string)
	SetIndexChunks(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCollaborator(string, string, time.Duration) {}
func (nopRecorder) ObserveRoute(string, string)                       {}
func (nopRecorder) ObserveResponse(string, string)                    {}
func (nopRecorder) ObserveIngestion(string)                           {}
func (nopRecorder) SetIndexChunks(int)                                {}

type callResult[T any] struct {
	value T
	err   error
}

// callCollaborator runs fn in its own goroutine under a deadline. The caller returns as soon as
// the deadline passes or ctx is cancelled, even if fn ignores its context.
func callCollaborator[T any](ctx context.Context, rec Recorder, collaborator, op string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if rec == nil {
		rec = nopRecorder{}
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan callResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- callResult[T]{value: zero, err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fn(callCtx)
		done <- callResult[T]{value: v, err: err}
	}()

	var res callResult[T]
	select {
	case res = <-done:
	case <-callCtx.Done():
		res.err = callCtx.Err()
	}

	elapsed := time.Since(start)
	if res.err == nil {
		rec.ObserveCollaborator(collaborator, "ok", elapsed)
		return res.value, nil
	}

	timedOut := errors.Is(res.err, context.DeadlineExceeded)
	outcome := "error"
	if timedOut {
		outcome = "timeout"
	}
	rec.ObserveCollaborator(collaborator, outcome, elapsed)

	var zero T
	return zero, &CollaboratorError{
		Collaborator: collaborator,
		Op:           op,
		Timeout:      timedOut,
		Err:          res.err,
	}
}

package humanoid

import (
	"errors"
	"fmt"
)

// Sentinel errors for input dispatch failures.
var (
	// ErrDispatchFailed indicates the transport rejected an individual
	// input event.
	ErrDispatchFailed = errors.New("input event dispatch failed")

	// ErrSequenceAborted indicates a planned sequence was cancelled before
	// all of its events reached the page; the remainder was dropped.
	ErrSequenceAborted = errors.New("input sequence aborted")
)

// InputError wraps a dispatch failure with position information so callers
// know how much of a sequence actually executed.
type InputError struct {
	Kind       error
	Dispatched int
	Total      int
	cause      error
}

func (e *InputError) Error() string {
	msg := fmt.Sprintf("%v after %d/%d events", e.Kind, e.Dispatched, e.Total)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *InputError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

func newInputError(kind error, dispatched, total int, cause error) *InputError {
	return &InputError{Kind: kind, Dispatched: dispatched, Total: total, cause: cause}
}

package stealth

import (
	"errors"
	"fmt"
)

// Stage identifies where in the profile-application pipeline a failure occurred.
type Stage string

const (
	StagePrecondition  Stage = "precondition"
	StageContextCreate Stage = "context_create"
	StageRegister      Stage = "register"
	StageEvaluate      Stage = "evaluate"
	StageVerify        Stage = "verify"
)

// Sentinel error kinds. Callers match these with errors.Is to decide whether
// to retry, abandon the page, or surface the failure.
var (
	// ErrContextCreationFailed wraps a transport failure while creating the
	// isolated world.
	ErrContextCreationFailed = errors.New("isolated context creation failed")

	// ErrContextInvalidated means a cached context handle referred to a
	// detached frame or destroyed context. It is handled internally by
	// recreation and only surfaces if recreation also fails.
	ErrContextInvalidated = errors.New("isolated context invalidated")

	// ErrScriptEvaluationFailed means the target runtime threw while
	// evaluating a script; the Error carries the target-reported message.
	ErrScriptEvaluationFailed = errors.New("script evaluation failed")

	// ErrVerificationFailed means the bootstrap ran but the read-back
	// properties did not match the profile.
	ErrVerificationFailed = errors.New("profile verification failed")

	// ErrAppliedTooLate means ApplyProfile was called after the page already
	// loaded a non-blank document, so the bootstrap could not have run before
	// site scripts.
	ErrAppliedTooLate = errors.New("profile applied too late")
)

// Error is a structured stealth failure: which kind, at which stage, and the
// underlying transport/runtime detail.
type Error struct {
	Kind   error
	Stage  Stage
	Detail string
	cause  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("stealth: %v (stage=%s)", e.Kind, e.Stage)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel kind and the underlying cause so
// errors.Is works against either.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

func newError(kind error, stage Stage, detail string, cause error) *Error {
	return &Error{Kind: kind, Stage: stage, Detail: detail, cause: cause}
}

package lifecycle

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a rejected transition
type ErrorCode string

const (
	// CodeUnauthorized means the actor's role or assignment does not permit
	// the requested transition.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// CodeGuardNotSatisfied means the transition exists for the actor but a
	// domain guard (parts readiness, payment clearance) rejected it.
	CodeGuardNotSatisfied ErrorCode = "GUARD_NOT_SATISFIED"
	// CodeInvalidInput means the request itself is malformed: unknown target
	// status, missing mandatory remark.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	// CodeNotFound means the device (or its parts/payments) could not be
	// loaded from the store.
	CodeNotFound ErrorCode = "NOT_FOUND"
)

// TransitionError is a rejected transition. These are normal business
// conditions the caller must present to the user, never fatal.
type TransitionError struct {
	Code   ErrorCode
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// Unauthorized builds an authorization failure
func Unauthorized(format string, args ...interface{}) *TransitionError {
	return &TransitionError{Code: CodeUnauthorized, Reason: fmt.Sprintf(format, args...)}
}

// GuardNotSatisfied builds a guard failure carrying the human-readable reason
func GuardNotSatisfied(reason string) *TransitionError {
	return &TransitionError{Code: CodeGuardNotSatisfied, Reason: reason}
}

// InvalidInput builds a malformed-request failure
func InvalidInput(format string, args ...interface{}) *TransitionError {
	return &TransitionError{Code: CodeInvalidInput, Reason: fmt.Sprintf(format, args...)}
}

// NotFound builds a lookup failure
func NotFound(format string, args ...interface{}) *TransitionError {
	return &TransitionError{Code: CodeNotFound, Reason: fmt.Sprintf(format, args...)}
}

// CodeOf returns the error code of a TransitionError, or "" for any other
// error (store I/O failures propagate untyped)
func CodeOf(err error) ErrorCode {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

package utils

import (
	"errors"
	"fmt"
)

// ErrorRecordNotFound covers both "does not exist" and "not owned by the
// caller": owner-scoped queries make the two indistinguishable so a typoed or
// foreign id never leaks whether another user's document exists.
var ErrorRecordNotFound = errors.New("record not found")

// ErrorFinalized is returned when a save/delete hits a will whose status is
// no longer Draft.
var ErrorFinalized = errors.New("will is finalized and can no longer be modified")

var ErrorUnauthenticated = errors.New("unauthenticated")

// ValidationError aggregates every strict-validation violation so the client
// can render the complete remediation list in one pass.
type ValidationError struct {
	FieldErrors map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%d fields)", len(e.FieldErrors))
}

func (e *ValidationError) Add(path string, message string) {
	if e.FieldErrors == nil {
		e.FieldErrors = map[string][]string{}
	}
	e.FieldErrors[path] = append(e.FieldErrors[path], message)
}

func (e *ValidationError) HasErrors() bool {
	return len(e.FieldErrors) > 0
}

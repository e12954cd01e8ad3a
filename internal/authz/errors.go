package authz

import "errors"

// ErrNotFound matches every NotFoundError. A record outside the caller's
// closure and a record that does not exist are the same condition.
var ErrNotFound = errors.New("not found")

// NotFoundError reports that an entity is not reachable from the caller.
type NotFoundError struct{ Entity Entity }

func (e *NotFoundError) Error() string { return string(e.Entity) + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds the error for e.
func NotFound(e Entity) error { return &NotFoundError{Entity: e} }

// MissingParameterError reports that a required parent selector was not
// supplied at all.
type MissingParameterError struct{ Param string }

func (e *MissingParameterError) Error() string { return e.Param + " is required" }

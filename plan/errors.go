package plan

import (
	"errors"
	"fmt"

	"github.com/roach88/relquery/query"
)

// JoinResolutionError indicates the join planner could not bind a path:
// either the registry does not know a relation on the path, the
// materialization capability returned an error, or it returned a query
// missing the binding it was asked to add.
//
// When a JoinResolutionError is returned, no partial joins are retained;
// the caller gets its original query back unchanged.
type JoinResolutionError struct {
	// Path is the binding path being resolved.
	Path query.Path

	// Entity is the entity the failing relation was looked up on.
	Entity string

	// Relation is the failing relation name.
	Relation string

	// Err is the underlying materialization error, if any.
	Err error
}

// Error implements the error interface.
func (e *JoinResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve path %q: relation %q on %s: %v", e.Path, e.Relation, e.Entity, e.Err)
	}
	return fmt.Sprintf("resolve path %q: relation %q on %s", e.Path, e.Relation, e.Entity)
}

// Unwrap returns the underlying materialization error.
func (e *JoinResolutionError) Unwrap() error {
	return e.Err
}

// IsJoinResolution reports whether err is a JoinResolutionError.
// Uses errors.As to handle wrapped errors.
func IsJoinResolution(err error) bool {
	var jre *JoinResolutionError
	return errors.As(err, &jre)
}

// BindingNotFoundError indicates a spec referenced a path with no binding
// at composition time.
//
// This is an internal invariant violation, not bad input: the planner
// resolves every referenced path before the composer runs, so hitting this
// means a planner defect (or a caller composing by hand in the wrong
// order).
type BindingNotFoundError struct {
	// Path is the unbound binding path.
	Path query.Path

	// Field is the field the spec referenced, if any.
	Field string
}

// Error implements the error interface.
func (e *BindingNotFoundError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("no binding for path %q (field %q)", e.Path, e.Field)
	}
	return fmt.Sprintf("no binding for path %q", e.Path)
}

// IsBindingNotFound reports whether err is a BindingNotFoundError.
func IsBindingNotFound(err error) bool {
	var bnf *BindingNotFoundError
	return errors.As(err, &bnf)
}

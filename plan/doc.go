// Package plan resolves binding paths into joins and folds parsed specs
// onto a query.
//
// The planner (ResolvePaths) computes the minimal set of joins a request
// needs: paths already bound - including bindings a caller pre-applied for
// authorization scoping - are skipped, and a path referenced by any number
// of specs is joined exactly once. Join materialization itself is a
// caller-supplied capability (Registry); the planner only decides WHICH
// joins are missing and in what order to add them.
//
// The composer (ApplyFilters, ApplySorts, ApplyIncludes) attaches
// predicates, orderings, and include markers against resolved aliases.
// Build runs the whole pipeline.
//
// Everything here is a pure transformation: no I/O, no retries, no
// internal state. On failure the caller's input query is returned
// untouched with a tagged error (JoinResolutionError for capability
// failures, BindingNotFoundError for internal invariant violations).
package plan

// Package sqlgen compiles composed queries to parameterized SQL.
//
// This is the executable form behind the pipeline's handoff: a single
// SELECT with inner joins in binding order, a conjunctive WHERE clause, and
// a deterministic ORDER BY tail. Values are always parameterized, never
// interpolated.
//
// The operator set is closed: dispatch goes through an explicit strategy
// table keyed by operator tag, so each operator's SQL shape is testable in
// isolation and unknown tags fail compilation instead of producing
// surprising SQL.
package sqlgen

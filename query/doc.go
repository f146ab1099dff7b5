// Package query provides the immutable query representation at the core of
// relquery.
//
// A Query is an unexecuted, composable value describing a single SELECT
// against a root entity: which relations are joined (bindings), which
// predicates filter the result, how rows are ordered, and which relations
// are eagerly materialized (includes).
//
// IMMUTABILITY:
//
// Every mutator (WithPredicate, WithOrdering, WithBinding, WithInclude)
// returns a new Query and never alters the receiver. Two goroutines can
// derive queries from the same base value without synchronization; the
// shared structure is never observably mutated. This is the property that
// lets callers pre-build an authorization-scoped base query once and fan it
// out across concurrent requests.
//
// BINDINGS:
//
// A binding associates a Path (the ordered sequence of relation names from
// the root) with a stable alias and a join descriptor. Bindings are keyed
// on the FULL path, never on the terminal relation name alone: two distinct
// paths that happen to end in a relation of the same name get distinct
// aliases and distinct joins.
//
// SEALED INTERFACES:
//
// Value and Predicate are sealed interfaces using the marker method
// pattern. Only types in this package implement them, which lets backend
// compilers type-switch exhaustively.
package query

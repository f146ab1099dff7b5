// Package schema provides the reference relation-descriptor registry.
//
// The core pipeline treats relation metadata as a caller-supplied
// capability; this package is the implementation most callers will use. A
// Registry declares entities (tables, typed fields, relations) and
// satisfies both capability interfaces: params.Schema for filter value
// coercion and plan.Registry for join materialization.
//
// Declarations can be built in Go (New) or loaded from CUE files (Load),
// so a deployment can keep its query surface in versioned schema files
// next to its migrations.
package schema

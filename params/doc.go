// Package params parses raw filter/sort/include request parameters into
// normalized, typed specifications.
//
// The parser is the only component that touches raw request syntax. It
// produces a Request of FilterSpec/SortSpec/IncludeSpec values whose
// filter values are already coerced to the field kinds a caller-supplied
// Schema declares; everything downstream works with typed specs.
//
// Parsing is deterministic: output order follows first-encounter order of
// the raw parameters, and identical input always produces structurally
// identical output. Errors are tagged ParseError values (UnknownOperator,
// MalformedParameter, TypeMismatch) carrying the offending parameter.
package params

package query

// Op identifies a filter operator. The operator set is closed: backend
// compilers dispatch on it exhaustively and reject anything else.
type Op string

const (
	// OpEQ is standard equality.
	OpEQ Op = "EQ"

	// OpNE is standard inequality.
	OpNE Op = "NE"

	// OpGT is strictly-greater-than on the field's semantic type.
	OpGT Op = "GT"

	// OpGTE is greater-than-or-equal.
	OpGTE Op = "GTE"

	// OpLT is strictly-less-than.
	OpLT Op = "LT"

	// OpLTE is less-than-or-equal.
	OpLTE Op = "LTE"

	// OpLK is a case-insensitive substring match. The policy is fixed:
	// both the field and the operand are case-folded before comparison,
	// so filter[name][lk]=uk matches "United Kingdom".
	OpLK Op = "LK"

	// OpIN tests membership against a set of values.
	OpIN Op = "IN"
)

// Ops lists every operator in a fixed order, for validation and tests.
var Ops = []Op{OpEQ, OpNE, OpGT, OpGTE, OpLT, OpLTE, OpLK, OpIN}

// ValidOp reports whether op is a member of the closed operator set.
func ValidOp(op Op) bool {
	for _, known := range Ops {
		if op == known {
			return true
		}
	}
	return false
}

// Direction identifies sort order.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// Predicate is a sealed interface representing a filter condition attached
// to a query. Predicates attached to the same query are conjoined (AND).
//
// Predicate types:
//   - Compare: alias.field <op> value(s), built by the composer
//   - Raw: an opaque caller-owned fragment, e.g. an authorization scope
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Compare is a single field comparison scoped to a bound alias.
//
// Values holds exactly one element for every operator except OpIN, where it
// holds the membership set (at least one element).
type Compare struct {
	Alias  string
	Field  string
	Op     Op
	Values []Value
}

func (Compare) predicateNode() {}

// Raw is a caller-owned predicate fragment passed through to the backend
// verbatim. Placeholders use `?`; Args supplies their values in order.
//
// Raw exists so callers can fold scoping conditions the composer has no
// vocabulary for (e.g. `space_center.tenant_id = ?`) into a base query and
// still hand the result through the normal pipeline.
type Raw struct {
	SQL  string
	Args []any
}

func (Raw) predicateNode() {}

// Ordering is a single ORDER BY entry scoped to a bound alias.
type Ordering struct {
	Alias     string
	Field     string
	Direction Direction
}

// Join describes how a bound relation is attached to the query: which
// table to join under which alias, and the equi-join condition against the
// parent alias. The descriptor is produced by the caller's relation
// registry; the core only stores and replays it.
type Join struct {
	// Table is the joined relation's table name.
	Table string

	// Alias is the alias the table is joined under.
	Alias string

	// ParentAlias is the alias of the parent binding (root alias for
	// single-segment paths).
	ParentAlias string

	// ParentColumn is the join column on the parent side.
	ParentColumn string

	// Column is the join column on the joined side.
	Column string
}

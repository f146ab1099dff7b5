package query

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Query is an immutable, unexecuted query value.
//
// The zero Query is not usable; construct with New. All methods are safe
// for concurrent use because no method mutates the receiver.
type Query struct {
	root      string
	rootAlias string
	bindings  []binding
	preds     []Predicate
	orders    []Ordering
	includes  []Path
}

// binding pairs a path with its alias and join descriptor. Bindings are
// kept in resolution order so backends emit joins parent-before-child.
type binding struct {
	path  Path
	alias string
	join  Join
}

// New creates an empty query rooted at the named entity.
//
// The root alias is the NFC-normalized, lower-cased entity name; root
// fields are scoped to it (entity "Rocket" yields predicates against
// "rocket").
func New(rootEntity string) Query {
	return Query{
		root:      rootEntity,
		rootAlias: strings.ToLower(norm.NFC.String(rootEntity)),
	}
}

// Root returns the root entity name.
func (q Query) Root() string {
	return q.root
}

// RootAlias returns the alias root-entity fields are scoped to.
func (q Query) RootAlias() string {
	return q.rootAlias
}

// HasBinding reports whether the full path is already bound. The root path
// is always bound.
func (q Query) HasBinding(path Path) bool {
	if path.IsRoot() {
		return true
	}
	for _, b := range q.bindings {
		if b.path.Equal(path) {
			return true
		}
	}
	return false
}

// Alias returns the alias for a bound path. The root path resolves to the
// root alias. The second return is false when the path is not bound.
func (q Query) Alias(path Path) (string, bool) {
	if path.IsRoot() {
		return q.rootAlias, true
	}
	for _, b := range q.bindings {
		if b.path.Equal(path) {
			return b.alias, true
		}
	}
	return "", false
}

// Bindings returns the bound paths in binding order. The returned slice is
// a copy; callers cannot mutate the query through it.
func (q Query) Bindings() []Path {
	paths := make([]Path, len(q.bindings))
	for i, b := range q.bindings {
		paths[i] = b.path
	}
	return paths
}

// Joins returns the join descriptors in binding order.
func (q Query) Joins() []Join {
	joins := make([]Join, len(q.bindings))
	for i, b := range q.bindings {
		joins[i] = b.join
	}
	return joins
}

// Predicates returns the attached predicates in attachment order.
func (q Query) Predicates() []Predicate {
	return append([]Predicate(nil), q.preds...)
}

// Orderings returns the attached orderings in attachment order. The first
// entry is the primary sort key, later entries break ties.
func (q Query) Orderings() []Ordering {
	return append([]Ordering(nil), q.orders...)
}

// Includes returns the paths marked for eager materialization, in marking
// order.
func (q Query) Includes() []Path {
	paths := make([]Path, len(q.includes))
	copy(paths, q.includes)
	return paths
}

// IsIncluded reports whether the path carries an include marker.
func (q Query) IsIncluded(path Path) bool {
	for _, p := range q.includes {
		if p.Equal(path) {
			return true
		}
	}
	return false
}

// WithBinding returns a new query with the path bound under the given
// alias and join descriptor. Binding an already-bound path is a no-op:
// the returned query is structurally equal to the receiver. Bindings are
// never duplicated.
func (q Query) WithBinding(path Path, alias string, join Join) Query {
	if q.HasBinding(path) {
		return q
	}
	next := q
	next.bindings = append(append([]binding(nil), q.bindings...), binding{
		path:  path,
		alias: alias,
		join:  join,
	})
	return next
}

// WithPredicate returns a new query with the predicate conjoined (AND)
// onto the existing predicate set.
func (q Query) WithPredicate(p Predicate) Query {
	next := q
	next.preds = append(append([]Predicate(nil), q.preds...), p)
	return next
}

// WithOrdering returns a new query with an ordering appended after any
// existing orderings.
func (q Query) WithOrdering(alias, field string, dir Direction) Query {
	next := q
	next.orders = append(append([]Ordering(nil), q.orders...), Ordering{
		Alias:     alias,
		Field:     field,
		Direction: dir,
	})
	return next
}

// WithInclude returns a new query with the path marked for eager
// materialization. Marking an already-marked path is a no-op. The caller
// is responsible for the path being bound; the composer enforces this.
func (q Query) WithInclude(path Path) Query {
	if q.IsIncluded(path) {
		return q
	}
	next := q
	next.includes = append(append([]Path(nil), q.includes...), path)
	return next
}

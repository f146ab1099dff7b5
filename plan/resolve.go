package plan

import (
	"github.com/roach88/relquery/query"
)

// Registry is the caller-supplied relation descriptor capability.
//
// Relation semantics (foreign keys, join direction, cardinality) belong to
// schema metadata the core does not own. The planner only asks two things
// of a registry: whether an entity has a named relation, and how to
// materialize a join for it. The canonical implementation is
// schema.Registry; tests supply small fakes.
type Registry interface {
	// Relation resolves a named relation on an entity. The second return
	// is false when the entity has no such relation.
	Relation(entity, name string) (RelationDescriptor, bool)
}

// RelationDescriptor describes one navigable relation on an entity.
type RelationDescriptor struct {
	// Name is the relation name as it appears in binding paths.
	Name string

	// Target is the entity the relation navigates to. The planner uses
	// it to resolve the next segment of a multi-segment path.
	Target string

	// Materialize joins the relation onto q under the path's alias,
	// relative to the already-resolved parent alias, and returns the new
	// query. It must be referentially transparent with respect to q: no
	// hidden mutation, the input query stays valid. It may block (e.g.
	// schema lookups); latency and failure are opaque to the planner
	// beyond the error return.
	Materialize func(q query.Query, path query.Path, parentAlias string) (query.Query, error)
}

// ResolvePaths binds every path in paths onto q, in order, skipping paths
// already bound (including bindings pre-existing in a caller-supplied base
// query, such as an authorization join). Multi-segment paths are resolved
// prefix-first so a child join always finds its parent alias.
//
// ResolvePaths is idempotent: resolving the same paths twice adds nothing
// the second time, and a path referenced by many specs is joined exactly
// once.
//
// On any failure the ORIGINAL q is returned alongside a
// JoinResolutionError; queries with partially-applied joins are never
// observable by the caller.
func ResolvePaths(q query.Query, paths []query.Path, reg Registry) (query.Query, error) {
	resolved := q
	for _, path := range paths {
		for _, prefix := range path.Prefixes() {
			if resolved.HasBinding(prefix) {
				continue
			}
			next, err := resolveOne(resolved, prefix, reg)
			if err != nil {
				return q, err
			}
			resolved = next
		}
	}
	return resolved, nil
}

// resolveOne materializes the join for a single path whose parent prefix
// is already bound.
func resolveOne(q query.Query, path query.Path, reg Registry) (query.Query, error) {
	entity, err := entityAt(q.Root(), path.Parent(), reg)
	if err != nil {
		return q, err
	}

	desc, ok := reg.Relation(entity, path.Terminal())
	if !ok {
		return q, &JoinResolutionError{
			Path:     path,
			Entity:   entity,
			Relation: path.Terminal(),
		}
	}

	parentAlias, ok := q.Alias(path.Parent())
	if !ok {
		// Prefixes resolve in ascending length order, so the parent is
		// always bound by the time we get here.
		return q, &BindingNotFoundError{Path: path.Parent()}
	}

	next, err := desc.Materialize(q, path, parentAlias)
	if err != nil {
		return q, &JoinResolutionError{
			Path:     path,
			Entity:   entity,
			Relation: path.Terminal(),
			Err:      err,
		}
	}

	// Contract check: the capability must hand back a query that actually
	// carries the binding it was asked to add.
	if !next.HasBinding(path) {
		return q, &JoinResolutionError{
			Path:     path,
			Entity:   entity,
			Relation: path.Terminal(),
			Err:      errMissingBinding,
		}
	}

	return next, nil
}

// entityAt walks the registry from the root entity through a path and
// returns the entity the path lands on.
func entityAt(root string, path query.Path, reg Registry) (string, error) {
	entity := root
	for i, segment := range path {
		desc, ok := reg.Relation(entity, segment)
		if !ok {
			return "", &JoinResolutionError{
				Path:     path[:i+1],
				Entity:   entity,
				Relation: segment,
			}
		}
		entity = desc.Target
	}
	return entity, nil
}

// errMissingBinding tags a materializer that violated its contract.
var errMissingBinding = &contractError{"materializer returned a query without the requested binding"}

type contractError struct {
	msg string
}

func (e *contractError) Error() string {
	return e.msg
}

package plan

import (
	"github.com/roach88/relquery/params"
	"github.com/roach88/relquery/query"
)

// ApplyFilters translates each FilterSpec into a Compare predicate scoped
// to its path's alias and conjoins it onto q.
//
// Every referenced path must already be bound (run ResolvePaths first). An
// unbound path is a BindingNotFoundError - a planner defect, not user
// input - and q is returned unchanged.
func ApplyFilters(q query.Query, filters []params.FilterSpec) (query.Query, error) {
	result := q
	for _, f := range filters {
		alias, ok := result.Alias(f.Path)
		if !ok {
			return q, &BindingNotFoundError{Path: f.Path, Field: f.Field}
		}
		result = result.WithPredicate(query.Compare{
			Alias:  alias,
			Field:  f.Field,
			Op:     f.Op,
			Values: f.Values,
		})
	}
	return result, nil
}

// ApplySorts appends one ordering per SortSpec, preserving spec order as
// tie-break order: the first spec is the primary key, later specs break
// ties. Unbound paths are BindingNotFoundError, as in ApplyFilters.
func ApplySorts(q query.Query, sorts []params.SortSpec) (query.Query, error) {
	result := q
	for _, s := range sorts {
		alias, ok := result.Alias(s.Path)
		if !ok {
			return q, &BindingNotFoundError{Path: s.Path, Field: s.Field}
		}
		result = result.WithOrdering(alias, s.Field, s.Direction)
	}
	return result, nil
}

// ApplyIncludes marks each IncludeSpec path for eager materialization,
// binding it first if nothing else already did. An include marker is
// distinct from the join that supports it: a relation joined purely for
// filtering does not appear in the result shape, and a relation with an
// include marker is always bound.
func ApplyIncludes(q query.Query, includes []params.IncludeSpec, reg Registry) (query.Query, error) {
	result := q
	for _, inc := range includes {
		if !result.HasBinding(inc.Path) {
			resolved, err := ResolvePaths(result, []query.Path{inc.Path}, reg)
			if err != nil {
				return q, err
			}
			result = resolved
		}
		result = result.WithInclude(inc.Path)
	}
	return result, nil
}

package plan

import (
	"github.com/roach88/relquery/params"
	"github.com/roach88/relquery/query"
)

// Build folds a parsed Request onto a base query: join planning first,
// then filters, sorts, and include markers.
//
// The base query may be pre-populated by the caller - typically with an
// authorization predicate and the join it needs. Build reuses any binding
// the base already carries and never duplicates a join.
//
// The fold is commutative across the three spec categories: because every
// referenced path is bound before any predicate or ordering is attached,
// folding filters/sorts/includes in any order yields a structurally
// equivalent query - same bindings, same predicate set, same ordering
// sequence, same include markers.
//
// On any error the base query is returned unchanged alongside a tagged
// error; callers never observe a partially-applied query.
func Build(base query.Query, req params.Request, reg Registry) (query.Query, error) {
	resolved, err := ResolvePaths(base, req.Paths(), reg)
	if err != nil {
		return base, err
	}

	filtered, err := ApplyFilters(resolved, req.Filters)
	if err != nil {
		return base, err
	}

	sorted, err := ApplySorts(filtered, req.Sorts)
	if err != nil {
		return base, err
	}

	final, err := ApplyIncludes(sorted, req.Includes, reg)
	if err != nil {
		return base, err
	}

	return final, nil
}

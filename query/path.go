package query

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Path is an ordered sequence of relation names denoting a traversal from
// the query's root entity, e.g. Path{"space_center", "country"}.
//
// Two paths are equal iff their segments are equal element-wise. Equal
// paths always denote the same semantic binding. A nil or empty Path
// denotes the root entity itself.
type Path []string

// ParsePath splits a dotted traversal ("space_center.country") into a Path.
// An empty string yields a nil Path (the root).
func ParsePath(dotted string) Path {
	if dotted == "" {
		return nil
	}
	return Path(strings.Split(dotted, "."))
}

// String renders the path in dotted form.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// IsRoot reports whether the path denotes the root entity (no traversal).
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Equal reports element-wise equality.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Parent returns the path with the final segment removed. The parent of a
// single-segment path is the root (nil).
func (p Path) Parent() Path {
	if len(p) <= 1 {
		return nil
	}
	return p[:len(p)-1]
}

// Terminal returns the final relation name. Empty for the root path.
func (p Path) Terminal() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Prefixes returns every proper and improper prefix of p in ascending
// length order, excluding the root: for {a, b, c} it returns
// {a}, {a, b}, {a, b, c}. Join planning resolves prefixes in this order so
// a child join always has a resolved parent alias.
func (p Path) Prefixes() []Path {
	prefixes := make([]Path, 0, len(p))
	for i := 1; i <= len(p); i++ {
		prefixes = append(prefixes, p[:i])
	}
	return prefixes
}

// Alias derives the stable alias for the binding this path denotes.
//
// The alias is a pure function of the FULL path: segments are NFC
// normalized (so the alias does not depend on the Unicode representation
// of the input) and joined with underscores. Deriving from the full path
// rather than the terminal segment keeps distinct paths that share a final
// relation name from colliding.
func (p Path) Alias() string {
	if len(p) == 0 {
		return ""
	}
	segments := make([]string, len(p))
	for i, seg := range p {
		segments[i] = norm.NFC.String(seg)
	}
	return strings.Join(segments, "_")
}

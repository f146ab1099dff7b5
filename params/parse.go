package params

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/relquery/query"
)

// Schema resolves declared field kinds for value coercion. Implementations
// are caller-owned; the canonical one is schema.Registry.
//
// FieldKind resolves a field reachable from the root entity through the
// given relation path (empty path means a root field). The second return
// is false when the path or field is not declared.
type Schema interface {
	FieldKind(root string, path query.Path, field string) (query.Kind, bool)
}

// Param is a single raw request parameter. Parse consumes an ordered slice
// of these so output order can follow first-encounter order of the input,
// which a map-typed input cannot guarantee.
type Param struct {
	Key   string
	Value string
}

// FilterSpec is one parsed filter condition: a traversal path (empty for
// root fields), a terminal field, an operator, and coerced values. Values
// holds exactly one element unless Op is OpIN.
type FilterSpec struct {
	Path   query.Path
	Field  string
	Op     query.Op
	Values []query.Value
}

// SortSpec is one parsed ordering key.
type SortSpec struct {
	Path      query.Path
	Field     string
	Direction query.Direction
}

// IncludeSpec marks one relation path for eager materialization.
type IncludeSpec struct {
	Path query.Path
}

// Request is the normalized output of parameter parsing. Slice order
// follows first-encounter order of the raw parameters; parsing identical
// input twice yields structurally identical Requests.
type Request struct {
	Root     string
	Filters  []FilterSpec
	Sorts    []SortSpec
	Includes []IncludeSpec
}

// Paths returns every binding path referenced by the request's filters,
// sorts, and includes, deduplicated, in first-seen order across the three
// categories. Root references (empty paths) are excluded.
func (r Request) Paths() []query.Path {
	var paths []query.Path
	seen := func(p query.Path) bool {
		for _, existing := range paths {
			if existing.Equal(p) {
				return true
			}
		}
		return false
	}
	add := func(p query.Path) {
		if p.IsRoot() || seen(p) {
			return
		}
		paths = append(paths, p)
	}
	for _, f := range r.Filters {
		add(f.Path)
	}
	for _, s := range r.Sorts {
		add(s.Path)
	}
	for _, inc := range r.Includes {
		add(inc.Path)
	}
	return paths
}

// Parse turns raw parameters into a normalized Request.
//
// Grammar:
//
//	filter[field]=value            equality filter on a root field
//	filter[field][op]=value        explicit operator (eq ne gt gte lt lte lk in)
//	filter[rel.sub.field][op]=v    dotted fields traverse relations
//	sort=field,-other.field        comma list, leading '-' means descending
//	include=rel,rel.sub            comma list of relation paths
//
// Keys outside the filter/sort/include vocabulary (pagination, sparse
// fieldsets) are ignored; they belong to the transport layer.
//
// When sch is non-nil, filter values are coerced to the field's declared
// kind and undeclared fields are rejected. A nil schema leaves every value
// as query.String and skips field validation.
//
// Parse is deterministic: output order follows the order of pairs, and it
// never consults map iteration order.
func Parse(root string, pairs []Param, sch Schema) (Request, error) {
	req := Request{Root: root}

	for _, pair := range pairs {
		switch {
		case pair.Key == "sort":
			sorts, err := parseSorts(root, pair.Value, sch)
			if err != nil {
				return Request{}, err
			}
			req.Sorts = append(req.Sorts, sorts...)

		case pair.Key == "include":
			req.Includes = append(req.Includes, parseIncludes(pair.Value)...)

		case strings.HasPrefix(pair.Key, "filter"):
			filter, err := parseFilter(root, pair.Key, pair.Value, sch)
			if err != nil {
				return Request{}, err
			}
			req.Filters = append(req.Filters, filter)

		default:
			// Pagination, sparse fieldsets, etc. are not ours to parse.
		}
	}

	return req, nil
}

// ParseQuery parses a raw URL query string, preserving the parameter order
// as written. Use this over FromValues when the original encoding is
// available: url.Values is a map and forgets encounter order.
func ParseQuery(root, rawQuery string, sch Schema) (Request, error) {
	var pairs []Param
	for _, piece := range strings.Split(rawQuery, "&") {
		if piece == "" {
			continue
		}
		key, value, _ := strings.Cut(piece, "=")
		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			return Request{}, malformed(key, "invalid URL encoding in key")
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			return Request{}, malformed(decodedKey, "invalid URL encoding in value")
		}
		pairs = append(pairs, Param{Key: decodedKey, Value: decodedValue})
	}
	return Parse(root, pairs, sch)
}

// FromValues flattens url.Values into ordered pairs. Keys are sorted
// lexicographically (and repeated values kept in slice order) so parsing
// the same Values twice yields identical output despite map iteration.
func FromValues(values url.Values) []Param {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []Param
	for _, k := range keys {
		for _, v := range values[k] {
			pairs = append(pairs, Param{Key: k, Value: v})
		}
	}
	return pairs
}

// operators maps raw operator tokens (lower-cased) to the closed set.
// Anything absent from this table is an UnknownOperator error; the table
// is the single place the operator vocabulary is defined.
var operators = map[string]query.Op{
	"eq":  query.OpEQ,
	"ne":  query.OpNE,
	"gt":  query.OpGT,
	"gte": query.OpGTE,
	"lt":  query.OpLT,
	"lte": query.OpLTE,
	"lk":  query.OpLK,
	"in":  query.OpIN,
}

// parseFilter decomposes a filter key and coerces its value.
func parseFilter(root, key, value string, sch Schema) (FilterSpec, error) {
	segments, err := bracketSegments(key)
	if err != nil {
		return FilterSpec{}, err
	}

	var fieldSpec, opToken string
	switch len(segments) {
	case 1:
		fieldSpec, opToken = segments[0], "eq"
	case 2:
		fieldSpec, opToken = segments[0], segments[1]
	default:
		return FilterSpec{}, malformed(key, "expected filter[field] or filter[field][op]")
	}

	op, ok := operators[strings.ToLower(opToken)]
	if !ok {
		return FilterSpec{}, unknownOperator(key, opToken)
	}

	path, field, err := splitFieldSpec(key, fieldSpec)
	if err != nil {
		return FilterSpec{}, err
	}

	kind := query.KindString
	if sch != nil {
		kind, ok = sch.FieldKind(root, path, field)
		if !ok {
			return FilterSpec{}, malformed(key, "field %q is not declared on %s", fieldSpec, root)
		}
	}

	values, err := coerceValues(key, value, op, kind)
	if err != nil {
		return FilterSpec{}, err
	}

	return FilterSpec{Path: path, Field: field, Op: op, Values: values}, nil
}

// bracketSegments extracts the contents of the bracket groups following
// the "filter" prefix. "filter[a][b]" yields ["a", "b"]. Any deviation
// from well-nested, non-empty groups is a MalformedParameter error.
func bracketSegments(key string) ([]string, error) {
	rest := strings.TrimPrefix(key, "filter")
	if rest == "" {
		return nil, malformed(key, "filter parameter missing bracket syntax")
	}

	var segments []string
	for rest != "" {
		if rest[0] != '[' {
			return nil, malformed(key, "unexpected text after bracket group")
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, malformed(key, "unterminated bracket group")
		}
		segment := rest[1:end]
		if segment == "" {
			return nil, malformed(key, "empty bracket group")
		}
		segments = append(segments, segment)
		rest = rest[end+1:]
	}
	return segments, nil
}

// splitFieldSpec splits a dotted field spec into traversal path and
// terminal field: "space_center.country.name" becomes
// (Path{space_center, country}, "name").
func splitFieldSpec(key, spec string) (query.Path, string, error) {
	segments := strings.Split(spec, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, "", malformed(key, "empty segment in dotted field %q", spec)
		}
	}
	field := segments[len(segments)-1]
	if len(segments) == 1 {
		return nil, field, nil
	}
	return query.Path(segments[:len(segments)-1]), field, nil
}

// coerceValues coerces the raw value string for an operator. OpIN splits
// on commas and coerces each element; every other operator takes the value
// whole.
func coerceValues(key, raw string, op query.Op, kind query.Kind) ([]query.Value, error) {
	if op != query.OpIN {
		v, err := coerce(key, raw, kind)
		if err != nil {
			return nil, err
		}
		return []query.Value{v}, nil
	}

	parts := strings.Split(raw, ",")
	values := make([]query.Value, 0, len(parts))
	for _, part := range parts {
		v, err := coerce(key, part, kind)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, malformed(key, "IN requires at least one value")
	}
	return values, nil
}

// coerce converts a raw string to the declared kind.
func coerce(key, raw string, kind query.Kind) (query.Value, error) {
	switch kind {
	case query.KindString:
		return query.String(raw), nil
	case query.KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, typeMismatch(key, raw, "int")
		}
		return query.Int(n), nil
	case query.KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, typeMismatch(key, raw, "float")
		}
		return query.Float(f), nil
	case query.KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, typeMismatch(key, raw, "bool")
		}
		return query.Bool(b), nil
	case query.KindTime:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return query.Time(t), nil
		}
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, typeMismatch(key, raw, "time")
		}
		return query.Time(t), nil
	default:
		return nil, typeMismatch(key, raw, string(kind))
	}
}

// parseSorts parses a comma-separated sort list. A leading '-' selects
// descending order.
func parseSorts(root, value string, sch Schema) ([]SortSpec, error) {
	var sorts []SortSpec
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, malformed("sort", "empty sort key")
		}

		dir := query.Asc
		if strings.HasPrefix(item, "-") {
			dir = query.Desc
			item = item[1:]
			if item == "" {
				return nil, malformed("sort", "empty sort key after '-'")
			}
		}

		path, field, err := splitFieldSpec("sort", item)
		if err != nil {
			return nil, err
		}

		if sch != nil {
			if _, ok := sch.FieldKind(root, path, field); !ok {
				return nil, malformed("sort", "field %q is not declared on %s", item, root)
			}
		}

		sorts = append(sorts, SortSpec{Path: path, Field: field, Direction: dir})
	}
	return sorts, nil
}

// parseIncludes parses a comma-separated include list. Relation names are
// validated at join-planning time, not here: the parser does not own the
// relation vocabulary.
func parseIncludes(value string) []IncludeSpec {
	var includes []IncludeSpec
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		includes = append(includes, IncludeSpec{Path: query.ParsePath(item)})
	}
	return includes
}

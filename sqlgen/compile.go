package sqlgen

import (
	"fmt"
	"strings"

	"github.com/roach88/relquery/query"
	"github.com/roach88/relquery/schema"
)

// Compile converts a composed query into a single parameterized SELECT.
//
// Values are NEVER interpolated into the SQL text; every operand becomes a
// `?` placeholder with its value in the returned args slice, in placeholder
// order.
//
// Output is deterministic for a given query value: columns follow schema
// declaration order, joins follow binding order, predicates and orderings
// follow attachment order, and every statement ends with a stable ORDER BY
// tiebreaker on the root primary key.
func Compile(q query.Query, reg *schema.Registry) (string, []any, error) {
	root, ok := reg.Entity(q.Root())
	if !ok {
		return "", nil, fmt.Errorf("unknown root entity %q", q.Root())
	}

	entities, err := aliasEntities(q, reg)
	if err != nil {
		return "", nil, err
	}

	selectClause := compileColumns(q, root, entities)

	fromClause := fmt.Sprintf("%s %s", root.Table, q.RootAlias())

	var joinClause strings.Builder
	for _, join := range q.Joins() {
		fmt.Fprintf(&joinClause, " INNER JOIN %s %s ON %s.%s = %s.%s",
			join.Table, join.Alias,
			join.ParentAlias, join.ParentColumn,
			join.Alias, join.Column)
	}

	whereClause, args, err := compilePredicates(q.Predicates(), entities)
	if err != nil {
		return "", nil, err
	}

	orderClause, err := compileOrderings(q, root, entities)
	if err != nil {
		return "", nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s%s%s",
		selectClause, fromClause, joinClause.String(), whereClause, orderClause)

	return sql, args, nil
}

// aliasEntities maps every alias in the query to its entity declaration.
func aliasEntities(q query.Query, reg *schema.Registry) (map[string]*schema.Entity, error) {
	root, ok := reg.Entity(q.Root())
	if !ok {
		return nil, fmt.Errorf("unknown root entity %q", q.Root())
	}

	entities := map[string]*schema.Entity{q.RootAlias(): root}
	for _, path := range q.Bindings() {
		alias, _ := q.Alias(path)
		entity, found := reg.EntityAt(q.Root(), path)
		if !found {
			return nil, fmt.Errorf("binding %q does not resolve in schema", path)
		}
		entities[alias] = entity
	}
	return entities, nil
}

// compileColumns builds the SELECT list: every root field, then the fields
// of each included relation in include order. Relations joined purely to
// support filtering or sorting contribute no columns - a join is not a
// materialization.
//
// Columns are aliased "<alias>_<field>" so result rows stay addressable
// after scanning.
func compileColumns(q query.Query, root *schema.Entity, entities map[string]*schema.Entity) string {
	var parts []string
	appendEntity := func(alias string, e *schema.Entity) {
		for _, f := range e.Fields {
			parts = append(parts, fmt.Sprintf("%s.%s AS %s_%s", alias, f.Column, alias, f.Name))
		}
	}

	appendEntity(q.RootAlias(), root)
	for _, path := range q.Includes() {
		alias, ok := q.Alias(path)
		if !ok {
			continue // composer guarantees includes are bound
		}
		appendEntity(alias, entities[alias])
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, ", ")
}

// compilePredicates conjoins predicates into a WHERE clause.
func compilePredicates(preds []query.Predicate, entities map[string]*schema.Entity) (string, []any, error) {
	if len(preds) == 0 {
		return "", nil, nil
	}

	var parts []string
	var args []any
	for _, p := range preds {
		switch pred := p.(type) {
		case query.Compare:
			sql, predArgs, err := compileCompare(pred, entities)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			args = append(args, predArgs...)
		case query.Raw:
			parts = append(parts, pred.SQL)
			args = append(args, pred.Args...)
		default:
			return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
		}
	}

	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// operatorSQL is the closed strategy table from operator tag to SQL
// fragment builder. Operators outside this table do not exist; adding one
// means adding a row here and a constant in package query.
var operatorSQL = map[query.Op]func(col string, values []query.Value) (string, []any, error){
	query.OpEQ:  comparison("="),
	query.OpNE:  comparison("<>"),
	query.OpGT:  comparison(">"),
	query.OpGTE: comparison(">="),
	query.OpLT:  comparison("<"),
	query.OpLTE: comparison("<="),
	query.OpLK:  compileContains,
	query.OpIN:  compileIn,
}

// comparison builds the fragment for a simple binary operator.
func comparison(op string) func(col string, values []query.Value) (string, []any, error) {
	return func(col string, values []query.Value) (string, []any, error) {
		if len(values) != 1 {
			return "", nil, fmt.Errorf("operator %s requires exactly one value, got %d", op, len(values))
		}
		arg, err := query.Native(values[0])
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("%s %s ?", col, op), []any{arg}, nil
	}
}

// compileContains implements the LK operator: a case-insensitive substring
// match. Both sides are lower-cased, so the policy holds regardless of the
// backing collation.
func compileContains(col string, values []query.Value) (string, []any, error) {
	if len(values) != 1 {
		return "", nil, fmt.Errorf("operator LK requires exactly one value, got %d", len(values))
	}
	s, ok := values[0].(query.String)
	if !ok {
		return "", nil, fmt.Errorf("operator LK requires a string value, got %T", values[0])
	}
	pattern := "%" + strings.ToLower(string(s)) + "%"
	return fmt.Sprintf("LOWER(%s) LIKE ?", col), []any{pattern}, nil
}

// compileIn implements the IN operator against a value set.
func compileIn(col string, values []query.Value) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, fmt.Errorf("operator IN requires at least one value")
	}
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		arg, err := query.Native(v)
		if err != nil {
			return "", nil, err
		}
		placeholders[i] = "?"
		args[i] = arg
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")), args, nil
}

// compileCompare resolves the field's backing column and dispatches on the
// operator table.
func compileCompare(pred query.Compare, entities map[string]*schema.Entity) (string, []any, error) {
	entity, ok := entities[pred.Alias]
	if !ok {
		return "", nil, fmt.Errorf("predicate references unknown alias %q", pred.Alias)
	}
	col, err := columnFor(entity, pred.Field)
	if err != nil {
		return "", nil, err
	}

	build, ok := operatorSQL[pred.Op]
	if !ok {
		return "", nil, fmt.Errorf("unsupported operator %q", pred.Op)
	}
	return build(fmt.Sprintf("%s.%s", pred.Alias, col), pred.Values)
}

// compileOrderings builds the ORDER BY clause. Every statement carries a
// trailing tiebreaker on the root primary key so result order is fully
// deterministic even when user sort keys compare equal.
func compileOrderings(q query.Query, root *schema.Entity, entities map[string]*schema.Entity) (string, error) {
	var parts []string
	for _, o := range q.Orderings() {
		entity, ok := entities[o.Alias]
		if !ok {
			return "", fmt.Errorf("ordering references unknown alias %q", o.Alias)
		}
		col, err := columnFor(entity, o.Field)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s.%s %s", o.Alias, col, o.Direction))
	}

	parts = append(parts, fmt.Sprintf("%s.%s ASC", q.RootAlias(), root.Key))
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// columnFor resolves a field's backing column on an entity.
func columnFor(e *schema.Entity, field string) (string, error) {
	for _, f := range e.Fields {
		if f.Name == field {
			return f.Column, nil
		}
	}
	return "", fmt.Errorf("entity %q has no field %q", e.Name, field)
}

package sqlexec

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relquery/params"
	"github.com/roach88/relquery/plan"
	"github.com/roach88/relquery/query"
	"github.com/roach88/relquery/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.New(
		schema.Entity{
			Name:  "rocket",
			Table: "rockets",
			Fields: []schema.Field{
				{Name: "id", Type: query.KindInt},
				{Name: "name", Type: query.KindString},
				{Name: "age", Type: query.KindInt},
			},
			Relations: []schema.Relation{
				{Name: "space_center", Target: "space_center"},
			},
		},
		schema.Entity{
			Name:  "space_center",
			Table: "space_centers",
			Fields: []schema.Field{
				{Name: "id", Type: query.KindInt},
				{Name: "name", Type: query.KindString},
			},
			Relations: []schema.Relation{
				{Name: "country", Target: "country"},
			},
		},
		schema.Entity{
			Name:  "country",
			Table: "countries",
			Fields: []schema.Field{
				{Name: "id", Type: query.KindInt},
				{Name: "name", Type: query.KindString},
			},
		},
	)
	require.NoError(t, err)
	return reg
}

func testExecutor(t *testing.T) *Executor {
	t.Helper()
	e, err := Open(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })

	ddl := []string{
		`CREATE TABLE countries (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE space_centers (id INTEGER PRIMARY KEY, name TEXT, country_id INTEGER REFERENCES countries(id))`,
		`CREATE TABLE rockets (id INTEGER PRIMARY KEY, name TEXT, age INTEGER, space_center_id INTEGER REFERENCES space_centers(id))`,
		`INSERT INTO countries VALUES (1, 'United Kingdom'), (2, 'United States')`,
		`INSERT INTO space_centers VALUES (1, 'Houston', 2), (2, 'Spaceport Cornwall', 1)`,
		`INSERT INTO rockets VALUES
			(1, 'Apollo', 52, 1),
			(2, 'Skylark', 65, 2),
			(3, 'Ariel', 60, 2)`,
	}
	for _, stmt := range ddl {
		_, err := e.DB().Exec(stmt)
		require.NoError(t, err)
	}
	return e
}

func buildFromQuery(t *testing.T, reg *schema.Registry, rawQuery string) query.Query {
	t.Helper()
	req, err := params.ParseQuery("rocket", rawQuery, reg)
	require.NoError(t, err)
	q, err := plan.Build(query.New("rocket"), req, reg)
	require.NoError(t, err)
	return q
}

func TestRun_FilterSortInclude(t *testing.T) {
	reg := testRegistry(t)
	e := testExecutor(t)

	q := buildFromQuery(t, reg, "filter[name]=Apollo&sort=-age&include=space_center")

	rows, err := e.Run(context.Background(), q, reg)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "Apollo", rows[0]["rocket_name"])
	assert.Equal(t, int64(52), rows[0]["rocket_age"])
	// Included relation is materialized in the row.
	assert.Equal(t, "Houston", rows[0]["space_center_name"])
}

func TestRun_NestedContainsFilter(t *testing.T) {
	reg := testRegistry(t)
	e := testExecutor(t)

	q := buildFromQuery(t, reg, "filter[space_center.country.name][lk]=kingdom&sort=name")

	rows, err := e.Run(context.Background(), q, reg)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Ariel", rows[0]["rocket_name"])
	assert.Equal(t, "Skylark", rows[1]["rocket_name"])
	// Joined purely for filtering: country fields are not in the shape.
	_, present := rows[0]["space_center_country_name"]
	assert.False(t, present)
}

func TestRun_RangeAndInFilters(t *testing.T) {
	reg := testRegistry(t)
	e := testExecutor(t)

	q := buildFromQuery(t, reg, "filter[age][gte]=60&filter[age][in]=52,65&sort=age")

	rows, err := e.Run(context.Background(), q, reg)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "Skylark", rows[0]["rocket_name"])
}

func TestRun_PreScopedBaseQuery(t *testing.T) {
	reg := testRegistry(t)
	e := testExecutor(t)

	// Authorization scope: only UK space centers, join pre-applied.
	path := query.Path{"space_center"}
	base := query.New("rocket").
		WithBinding(path, path.Alias(), query.Join{
			Table: "space_centers", Alias: "space_center",
			ParentAlias: "rocket", ParentColumn: "space_center_id", Column: "id",
		}).
		WithPredicate(query.Raw{SQL: "space_center.country_id = ?", Args: []any{int64(1)}})

	req, err := params.ParseQuery("rocket", "filter[space_center.name][lk]=cornwall&sort=name", reg)
	require.NoError(t, err)
	q, err := plan.Build(base, req, reg)
	require.NoError(t, err)
	assert.Len(t, q.Bindings(), 1, "request reuses the authorization join")

	rows, err := e.Run(context.Background(), q, reg)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Ariel", rows[0]["rocket_name"])
	assert.Equal(t, "Skylark", rows[1]["rocket_name"])
}

func TestRun_StableOrderWithoutSort(t *testing.T) {
	reg := testRegistry(t)
	e := testExecutor(t)

	q := buildFromQuery(t, reg, "")

	rows, err := e.Run(context.Background(), q, reg)
	require.NoError(t, err)

	// No user sort: the deterministic primary-key tail still fixes order.
	require.Len(t, rows, 3)
	assert.Equal(t, int64(1), rows[0]["rocket_id"])
	assert.Equal(t, int64(2), rows[1]["rocket_id"])
	assert.Equal(t, int64(3), rows[2]["rocket_id"])
}

func TestRun_CompileFailure(t *testing.T) {
	reg := testRegistry(t)
	e := testExecutor(t)

	q := query.New("asteroid")
	_, err := e.Run(context.Background(), q, reg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile query")
}

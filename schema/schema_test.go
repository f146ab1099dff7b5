package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relquery/query"
)

func rocketEntities() []Entity {
	return []Entity{
		{
			Name:  "rocket",
			Table: "rockets",
			Fields: []Field{
				{Name: "id", Type: query.KindInt},
				{Name: "name", Type: query.KindString},
				{Name: "age", Type: query.KindInt},
			},
			Relations: []Relation{
				{Name: "space_center", Target: "space_center"},
			},
		},
		{
			Name:  "space_center",
			Table: "space_centers",
			Fields: []Field{
				{Name: "id", Type: query.KindInt},
				{Name: "name", Type: query.KindString},
			},
			Relations: []Relation{
				{Name: "country", Target: "country"},
			},
		},
		{
			Name:  "country",
			Table: "countries",
			Fields: []Field{
				{Name: "id", Type: query.KindInt},
				{Name: "name", Type: query.KindString},
			},
		},
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	reg, err := New(Entity{
		Name:   "pad",
		Fields: []Field{{Name: "code", Type: query.KindString}},
		Relations: []Relation{
			{Name: "site", Target: "site"},
		},
	}, Entity{
		Name: "site",
		Key:  "site_id",
	})
	require.NoError(t, err)

	pad, ok := reg.Entity("pad")
	require.True(t, ok)
	assert.Equal(t, "pad", pad.Table)
	assert.Equal(t, "id", pad.Key)
	assert.Equal(t, "code", pad.Fields[0].Column)
	assert.Equal(t, "site_id", pad.Relations[0].OwnerKey)
	// TargetKey defaults to the target's primary key.
	assert.Equal(t, "site_id", pad.Relations[0].TargetKey)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		entities []Entity
		contains string
	}{
		{
			name:     "missing entity name",
			entities: []Entity{{}},
			contains: "entity name is required",
		},
		{
			name:     "duplicate entity",
			entities: []Entity{{Name: "a"}, {Name: "a"}},
			contains: "duplicate entity",
		},
		{
			name: "duplicate field",
			entities: []Entity{{Name: "a", Fields: []Field{
				{Name: "x", Type: query.KindInt},
				{Name: "x", Type: query.KindInt},
			}}},
			contains: "duplicate field",
		},
		{
			name:     "unknown kind",
			entities: []Entity{{Name: "a", Fields: []Field{{Name: "x", Type: "decimal"}}}},
			contains: "unknown kind",
		},
		{
			name:     "unknown relation target",
			entities: []Entity{{Name: "a", Relations: []Relation{{Name: "r", Target: "nope"}}}},
			contains: "unknown target entity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entities...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestRegistry_FieldKind(t *testing.T) {
	reg, err := New(rocketEntities()...)
	require.NoError(t, err)

	kind, ok := reg.FieldKind("rocket", nil, "age")
	require.True(t, ok)
	assert.Equal(t, query.KindInt, kind)

	kind, ok = reg.FieldKind("rocket", query.Path{"space_center", "country"}, "name")
	require.True(t, ok)
	assert.Equal(t, query.KindString, kind)

	_, ok = reg.FieldKind("rocket", query.Path{"space_center"}, "serial")
	assert.False(t, ok)

	_, ok = reg.FieldKind("rocket", query.Path{"launch_pad"}, "name")
	assert.False(t, ok)
}

func TestRegistry_Relation(t *testing.T) {
	reg, err := New(rocketEntities()...)
	require.NoError(t, err)

	desc, ok := reg.Relation("rocket", "space_center")
	require.True(t, ok)
	assert.Equal(t, "space_center", desc.Target)

	_, ok = reg.Relation("rocket", "launch_pad")
	assert.False(t, ok)
	_, ok = reg.Relation("no_such_entity", "space_center")
	assert.False(t, ok)
}

func TestRegistry_Materialize(t *testing.T) {
	reg, err := New(rocketEntities()...)
	require.NoError(t, err)

	desc, ok := reg.Relation("rocket", "space_center")
	require.True(t, ok)

	base := query.New("rocket")
	path := query.Path{"space_center"}
	bound, err := desc.Materialize(base, path, "rocket")
	require.NoError(t, err)

	require.True(t, bound.HasBinding(path))
	joins := bound.Joins()
	require.Len(t, joins, 1)
	assert.Equal(t, query.Join{
		Table:        "space_centers",
		Alias:        "space_center",
		ParentAlias:  "rocket",
		ParentColumn: "space_center_id",
		Column:       "id",
	}, joins[0])

	// Referential transparency: the input query is untouched.
	assert.False(t, base.HasBinding(path))
}

func TestRegistry_EntityAt(t *testing.T) {
	reg, err := New(rocketEntities()...)
	require.NoError(t, err)

	e, ok := reg.EntityAt("rocket", query.Path{"space_center", "country"})
	require.True(t, ok)
	assert.Equal(t, "country", e.Name)

	_, ok = reg.EntityAt("rocket", query.Path{"space_center", "continent"})
	assert.False(t, ok)
}

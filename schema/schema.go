package schema

import (
	"fmt"

	"github.com/roach88/relquery/plan"
	"github.com/roach88/relquery/query"
)

// Field declares one filterable/sortable column on an entity.
type Field struct {
	// Name is the field name as it appears in request parameters.
	Name string

	// Column is the backing column name. Defaults to Name.
	Column string

	// Type is the field's semantic kind; filter values are coerced to it.
	Type query.Kind
}

// Relation declares one navigable relation on an entity. Joins are always
// inner equi-joins: parent.OwnerKey = child.TargetKey.
type Relation struct {
	// Name is the relation name as it appears in binding paths.
	Name string

	// Target is the entity the relation navigates to.
	Target string

	// OwnerKey is the join column on the owning side. Defaults to
	// Name + "_id".
	OwnerKey string

	// TargetKey is the join column on the target side. Defaults to the
	// target entity's primary key.
	TargetKey string
}

// Entity declares a queryable entity: its table, primary key, fields, and
// relations. Field and relation order is preserved as declared; backends
// emit columns in this order.
type Entity struct {
	Name      string
	Table     string // defaults to Name
	Key       string // primary key column, defaults to "id"
	Fields    []Field
	Relations []Relation
}

// Error represents an invalid schema declaration.
type Error struct {
	Entity  string
	Detail  string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("schema: entity %q: %s: %s", e.Entity, e.Detail, e.Message)
	}
	if e.Entity != "" {
		return fmt.Sprintf("schema: entity %q: %s", e.Entity, e.Message)
	}
	return "schema: " + e.Message
}

// Registry holds validated entity metadata. It implements both capability
// interfaces the pipeline consumes: params.Schema (field kinds for value
// coercion) and plan.Registry (relation descriptors and join
// materialization).
//
// A Registry is immutable after New and safe for unrestricted concurrent
// use.
type Registry struct {
	entities map[string]*Entity
	order    []string
}

// New builds a Registry from entity declarations, applying defaults and
// validating cross-references. Declarations are rejected when entity,
// field, or relation names collide, a relation targets an unknown entity,
// or a field kind is not one of the declared kinds.
func New(entities ...Entity) (*Registry, error) {
	reg := &Registry{entities: make(map[string]*Entity, len(entities))}

	for i := range entities {
		e := entities[i]
		if e.Name == "" {
			return nil, &Error{Message: "entity name is required"}
		}
		if _, dup := reg.entities[e.Name]; dup {
			return nil, &Error{Entity: e.Name, Message: "duplicate entity"}
		}
		if e.Table == "" {
			e.Table = e.Name
		}
		if e.Key == "" {
			e.Key = "id"
		}
		reg.entities[e.Name] = &e
		reg.order = append(reg.order, e.Name)
	}

	// Second pass: defaults and cross-entity validation, once every
	// entity is registered.
	for _, name := range reg.order {
		e := reg.entities[name]
		if err := reg.validateEntity(e); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func (r *Registry) validateEntity(e *Entity) error {
	fieldNames := make(map[string]bool, len(e.Fields))
	for i := range e.Fields {
		f := &e.Fields[i]
		if f.Name == "" {
			return &Error{Entity: e.Name, Message: "field name is required"}
		}
		if fieldNames[f.Name] {
			return &Error{Entity: e.Name, Detail: "field " + f.Name, Message: "duplicate field"}
		}
		fieldNames[f.Name] = true
		if f.Column == "" {
			f.Column = f.Name
		}
		if !query.ValidKind(f.Type) {
			return &Error{Entity: e.Name, Detail: "field " + f.Name, Message: fmt.Sprintf("unknown kind %q", f.Type)}
		}
	}

	relNames := make(map[string]bool, len(e.Relations))
	for i := range e.Relations {
		rel := &e.Relations[i]
		if rel.Name == "" {
			return &Error{Entity: e.Name, Message: "relation name is required"}
		}
		if relNames[rel.Name] {
			return &Error{Entity: e.Name, Detail: "relation " + rel.Name, Message: "duplicate relation"}
		}
		relNames[rel.Name] = true

		target, ok := r.entities[rel.Target]
		if !ok {
			return &Error{Entity: e.Name, Detail: "relation " + rel.Name, Message: fmt.Sprintf("unknown target entity %q", rel.Target)}
		}
		if rel.OwnerKey == "" {
			rel.OwnerKey = rel.Name + "_id"
		}
		if rel.TargetKey == "" {
			rel.TargetKey = target.Key
		}
	}

	return nil
}

// Entity returns the declaration for a named entity.
func (r *Registry) Entity(name string) (*Entity, bool) {
	e, ok := r.entities[name]
	return e, ok
}

// Entities returns entity names in declaration order.
func (r *Registry) Entities() []string {
	return append([]string(nil), r.order...)
}

// EntityAt walks relations from root along path and returns the entity the
// path lands on. An empty path returns the root entity itself.
func (r *Registry) EntityAt(root string, path query.Path) (*Entity, bool) {
	e, ok := r.entities[root]
	if !ok {
		return nil, false
	}
	for _, segment := range path {
		rel, found := e.relation(segment)
		if !found {
			return nil, false
		}
		e, ok = r.entities[rel.Target]
		if !ok {
			return nil, false
		}
	}
	return e, true
}

func (e *Entity) relation(name string) (*Relation, bool) {
	for i := range e.Relations {
		if e.Relations[i].Name == name {
			return &e.Relations[i], true
		}
	}
	return nil, false
}

func (e *Entity) field(name string) (*Field, bool) {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i], true
		}
	}
	return nil, false
}

// FieldKind implements params.Schema: it resolves the declared kind of a
// field reachable from root through path.
func (r *Registry) FieldKind(root string, path query.Path, field string) (query.Kind, bool) {
	e, ok := r.EntityAt(root, path)
	if !ok {
		return "", false
	}
	f, ok := e.field(field)
	if !ok {
		return "", false
	}
	return f.Type, true
}

// Column resolves the backing column for a field on an entity.
func (r *Registry) Column(entity, field string) (string, bool) {
	e, ok := r.entities[entity]
	if !ok {
		return "", false
	}
	f, ok := e.field(field)
	if !ok {
		return "", false
	}
	return f.Column, true
}

// Relation implements plan.Registry: it resolves a named relation on an
// entity into a descriptor whose materializer joins the target table under
// the path-derived alias with the declared equi-join condition.
func (r *Registry) Relation(entity, name string) (plan.RelationDescriptor, bool) {
	e, ok := r.entities[entity]
	if !ok {
		return plan.RelationDescriptor{}, false
	}
	rel, ok := e.relation(name)
	if !ok {
		return plan.RelationDescriptor{}, false
	}
	target, ok := r.entities[rel.Target]
	if !ok {
		return plan.RelationDescriptor{}, false
	}

	desc := plan.RelationDescriptor{
		Name:   rel.Name,
		Target: rel.Target,
		Materialize: func(q query.Query, path query.Path, parentAlias string) (query.Query, error) {
			alias := path.Alias()
			return q.WithBinding(path, alias, query.Join{
				Table:        target.Table,
				Alias:        alias,
				ParentAlias:  parentAlias,
				ParentColumn: rel.OwnerKey,
				Column:       rel.TargetKey,
			}), nil
		},
	}
	return desc, true
}

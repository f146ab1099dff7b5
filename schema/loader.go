package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/relquery/query"
)

// Load error code constants.
const (
	ErrCodeNotFound    = "E001" // Schema directory not found
	ErrCodeNoFiles     = "E002" // No CUE files found
	ErrCodeLoadFailed  = "E003" // CUE load failed
	ErrCodeBuildFailed = "E004" // CUE build failed
	ErrCodeDecode      = "E005" // Entity declaration invalid
)

// LoadError represents an error that occurred while loading schema files.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads entity declarations from the CUE files in dir and builds a
// validated Registry.
//
// Expected shape:
//
//	entities: {
//		rocket: {
//			table: "rockets"
//			fields: {
//				id:   {type: "int"}
//				name: {type: "string"}
//			}
//			relations: {
//				space_center: {target: "space_center", ownerKey: "space_center_id"}
//			}
//		}
//	}
//
// table, key, column, ownerKey, and targetKey are optional and take the
// same defaults as New.
func Load(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	return Decode(value)
}

// Decode extracts entity declarations from a built CUE value and runs them
// through New. Exposed separately from Load so callers can compile schema
// from strings or embed it.
func Decode(value cue.Value) (*Registry, error) {
	entitiesVal := value.LookupPath(cue.ParsePath("entities"))
	if !entitiesVal.Exists() {
		return nil, &LoadError{Code: ErrCodeDecode, Message: "no entities found in schema", Pos: value.Pos()}
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("iterating entities: %v", err), Pos: entitiesVal.Pos()}
	}

	var entities []Entity
	for iter.Next() {
		entity, decodeErr := decodeEntity(iter.Label(), iter.Value())
		if decodeErr != nil {
			return nil, decodeErr
		}
		entities = append(entities, entity)
	}

	reg, newErr := New(entities...)
	if newErr != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: newErr.Error(), Pos: entitiesVal.Pos()}
	}
	return reg, nil
}

// decodeEntity parses one entity struct. The entity name is the struct
// label, matching how concept names work in CUE-first tools.
func decodeEntity(name string, v cue.Value) (Entity, error) {
	entity := Entity{Name: name}

	if tableVal := v.LookupPath(cue.ParsePath("table")); tableVal.Exists() {
		table, err := tableVal.String()
		if err != nil {
			return Entity{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity %s: table must be a string: %v", name, err), Pos: tableVal.Pos()}
		}
		entity.Table = table
	}

	if keyVal := v.LookupPath(cue.ParsePath("key")); keyVal.Exists() {
		key, err := keyVal.String()
		if err != nil {
			return Entity{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity %s: key must be a string: %v", name, err), Pos: keyVal.Pos()}
		}
		entity.Key = key
	}

	if fieldsVal := v.LookupPath(cue.ParsePath("fields")); fieldsVal.Exists() {
		iter, err := fieldsVal.Fields()
		if err != nil {
			return Entity{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity %s: iterating fields: %v", name, err), Pos: fieldsVal.Pos()}
		}
		for iter.Next() {
			field, decodeErr := decodeField(name, iter.Label(), iter.Value())
			if decodeErr != nil {
				return Entity{}, decodeErr
			}
			entity.Fields = append(entity.Fields, field)
		}
	}

	if relsVal := v.LookupPath(cue.ParsePath("relations")); relsVal.Exists() {
		iter, err := relsVal.Fields()
		if err != nil {
			return Entity{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity %s: iterating relations: %v", name, err), Pos: relsVal.Pos()}
		}
		for iter.Next() {
			rel, decodeErr := decodeRelation(name, iter.Label(), iter.Value())
			if decodeErr != nil {
				return Entity{}, decodeErr
			}
			entity.Relations = append(entity.Relations, rel)
		}
	}

	return entity, nil
}

func decodeField(entity, name string, v cue.Value) (Field, error) {
	field := Field{Name: name}

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return Field{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity %s: field %s: type is required", entity, name), Pos: v.Pos()}
	}
	kind, err := typeVal.String()
	if err != nil {
		return Field{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity %s: field %s: type must be a string: %v", entity, name, err), Pos: typeVal.Pos()}
	}
	field.Type = query.Kind(kind)

	if colVal := v.LookupPath(cue.ParsePath("column")); colVal.Exists() {
		column, err := colVal.String()
		if err != nil {
			return Field{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity %s: field %s: column must be a string: %v", entity, name, err), Pos: colVal.Pos()}
		}
		field.Column = column
	}

	return field, nil
}

func decodeRelation(entity, name string, v cue.Value) (Relation, error) {
	rel := Relation{Name: name}

	targetVal := v.LookupPath(cue.ParsePath("target"))
	if !targetVal.Exists() {
		return Relation{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity %s: relation %s: target is required", entity, name), Pos: v.Pos()}
	}
	target, err := targetVal.String()
	if err != nil {
		return Relation{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity %s: relation %s: target must be a string: %v", entity, name, err), Pos: targetVal.Pos()}
	}
	rel.Target = target

	if okVal := v.LookupPath(cue.ParsePath("ownerKey")); okVal.Exists() {
		ownerKey, err := okVal.String()
		if err != nil {
			return Relation{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity %s: relation %s: ownerKey must be a string: %v", entity, name, err), Pos: okVal.Pos()}
		}
		rel.OwnerKey = ownerKey
	}

	if tkVal := v.LookupPath(cue.ParsePath("targetKey")); tkVal.Exists() {
		targetKey, err := tkVal.String()
		if err != nil {
			return Relation{}, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("entity %s: relation %s: targetKey must be a string: %v", entity, name, err), Pos: tkVal.Pos()}
		}
		rel.TargetKey = targetKey
	}

	return rel, nil
}

// findCUEFiles walks the directory and returns all .cue file paths.
func findCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

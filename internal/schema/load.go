package schema

import (
	"errors"
	"fmt"
	"os"
)

// Load reads and parses the schema file at path. Read failures are reported
// as *SchemaParseError wrapping the OS error.
func Load(path string) (*Model, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &SchemaParseError{Path: path, Message: "reading schema", Err: err}
	}
	m, err := Parse(src)
	if err != nil {
		var pe *SchemaParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	m.Path = path
	return m, nil
}

// Parse tokenizes, parses and normalizes schema source. The first syntax
// error is returned.
func Parse(src []byte) (*Model, error) {
	tokens, lexErrs := NewLexer(string(src)).Tokenize()
	if len(lexErrs) > 0 {
		return nil, lexErrs[0]
	}
	file, parseErrs := NewParser(tokens).Parse()
	if len(parseErrs) > 0 {
		return nil, parseErrs[0]
	}
	return Normalize(file)
}

// Normalize resolves field types against the declared enums and models.
// Views and composite types are not entities and are skipped; fields that
// reference a composite type become TypeUnknown.
func Normalize(file *File) (*Model, error) {
	m := &Model{}
	models := map[string]bool{}
	enums := map[string]bool{}
	seen := map[string]*Block{}

	for _, b := range file.Blocks {
		switch b.Kind {
		case BlockModel, BlockEnum, BlockView, BlockType:
			if prev, ok := seen[b.Name]; ok {
				return nil, &SchemaParseError{
					Line:    b.Line,
					Col:     b.Col,
					Message: fmt.Sprintf("%s %q is already declared at line %d", b.Kind, b.Name, prev.Line),
				}
			}
			seen[b.Name] = b
		}
		switch b.Kind {
		case BlockModel:
			models[b.Name] = true
		case BlockEnum:
			enums[b.Name] = true
		}
	}

	for _, b := range file.Blocks {
		switch b.Kind {
		case BlockEnum:
			e := &Enum{Name: b.Name}
			for _, v := range b.Values {
				e.Values = append(e.Values, v.Name)
			}
			m.Enums = append(m.Enums, e)
		case BlockDatasource:
			for _, p := range b.Properties {
				if p.Key == "provider" {
					m.Datasource = p.Value.Value
				}
			}
		case BlockModel:
			ent := &Entity{Name: b.Name}
			names := map[string]bool{}
			for _, fd := range b.Fields {
				if names[fd.Name] {
					return nil, &SchemaParseError{
						Line:    fd.Line,
						Col:     fd.Col,
						Message: fmt.Sprintf("field %q is declared twice in model %s", fd.Name, b.Name),
					}
				}
				names[fd.Name] = true
				ent.Fields = append(ent.Fields, normalizeField(fd, models, enums))
			}
			m.Entities = append(m.Entities, ent)
		}
	}
	return m, nil
}

func normalizeField(fd *FieldDecl, models, enums map[string]bool) *Field {
	f := &Field{
		Name:       fd.Name,
		RawType:    fd.Type,
		IsOptional: fd.Optional,
		IsList:     fd.List,
	}
	switch {
	case enums[fd.Type]:
		f.Type = TypeEnum
		f.EnumName = fd.Type
	case models[fd.Type]:
		f.Type = TypeRelation
		f.IsRelation = true
		f.RelationTarget = fd.Type
	default:
		f.Type = scalarNames[fd.Type]
	}

	for _, a := range fd.Attributes {
		switch a.Name {
		case "id":
			f.IsID = true
		case "unique":
			f.IsUnique = true
		case "updatedAt":
			f.IsUpdatedAt = true
		case "default":
			f.HasDefault = true
			if v, ok := a.Arg("value", 0); ok {
				f.DefaultExpr = v.String()
			}
		case "relation":
			if v, ok := a.Arg("fields", -1); ok {
				f.RelationFields = v.Idents()
			}
			if v, ok := a.Arg("references", -1); ok {
				f.RelationReferences = v.Idents()
			}
		}
	}
	return f
}

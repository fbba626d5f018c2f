// Package schema extracts the normalized data model from a Prisma schema
// file. The model is the single input every generator reads: entities with
// their fields in declaration order, and the enums they reference.
package schema

import (
	"slices"
	"strings"
)

// ScalarType classifies a field for the generators.
type ScalarType int

const (
	TypeUnknown ScalarType = iota
	TypeString
	TypeInt
	TypeFloat
	TypeDecimal
	TypeBoolean
	TypeDateTime
	TypeJSON
	TypeBigInt
	TypeBytes
	TypeEnum
	TypeRelation
)

var scalarNames = map[string]ScalarType{
	"String":   TypeString,
	"Int":      TypeInt,
	"Float":    TypeFloat,
	"Decimal":  TypeDecimal,
	"Boolean":  TypeBoolean,
	"DateTime": TypeDateTime,
	"Json":     TypeJSON,
	"BigInt":   TypeBigInt,
	"Bytes":    TypeBytes,
}

// String returns the type name used in inspect output.
func (t ScalarType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDecimal:
		return "decimal"
	case TypeBoolean:
		return "boolean"
	case TypeDateTime:
		return "datetime"
	case TypeJSON:
		return "json"
	case TypeBigInt:
		return "bigint"
	case TypeBytes:
		return "bytes"
	case TypeEnum:
		return "enum"
	case TypeRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// MarshalText lets encoders print the type by name.
func (t ScalarType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Numeric reports whether the type is edited as a number.
func (t ScalarType) Numeric() bool {
	switch t {
	case TypeInt, TypeFloat, TypeDecimal, TypeBigInt:
		return true
	default:
		return false
	}
}

// Reserved field names.
const (
	IDField        = "id"
	CreatedAtField = "createdAt"
	UpdatedAtField = "updatedAt"
	DeletedAtField = "deletedAt"
)

// AuditFields are required on every entity, in this order.
var AuditFields = []string{CreatedAtField, UpdatedAtField, DeletedAtField}

// IsAuditField reports whether name is one of the audit fields.
func IsAuditField(name string) bool {
	return slices.Contains(AuditFields, name)
}

// Field is one normalized entity field.
type Field struct {
	Name               string     `json:"name" yaml:"name"`
	Type               ScalarType `json:"type" yaml:"type"`
	RawType            string     `json:"rawType" yaml:"rawType"`
	IsOptional         bool       `json:"isOptional,omitempty" yaml:"isOptional,omitempty"`
	IsList             bool       `json:"isList,omitempty" yaml:"isList,omitempty"`
	IsRelation         bool       `json:"isRelation,omitempty" yaml:"isRelation,omitempty"`
	RelationTarget     string     `json:"relationTarget,omitempty" yaml:"relationTarget,omitempty"`
	RelationFields     []string   `json:"relationFields,omitempty" yaml:"relationFields,omitempty"`
	RelationReferences []string   `json:"relationReferences,omitempty" yaml:"relationReferences,omitempty"`
	IsID               bool       `json:"isId,omitempty" yaml:"isId,omitempty"`
	HasDefault         bool       `json:"hasDefault,omitempty" yaml:"hasDefault,omitempty"`
	DefaultExpr        string     `json:"default,omitempty" yaml:"default,omitempty"`
	IsUpdatedAt        bool       `json:"isUpdatedAt,omitempty" yaml:"isUpdatedAt,omitempty"`
	IsUnique           bool       `json:"isUnique,omitempty" yaml:"isUnique,omitempty"`
	EnumName           string     `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// IsAudit reports whether the field is one of the audit fields.
func (f *Field) IsAudit() bool { return IsAuditField(f.Name) }

// IsToOne reports whether the field is a single relation object
// (author User), as opposed to a list relation or a scalar.
func (f *Field) IsToOne() bool { return f.IsRelation && !f.IsList }

// IsListRelation reports whether the field is a relation list (tags Tag[]).
func (f *Field) IsListRelation() bool { return f.IsRelation && f.IsList }

// Entity is one Prisma model.
type Entity struct {
	Name   string   `json:"name" yaml:"name"`
	Fields []*Field `json:"fields" yaml:"fields"`
}

// Field returns the named field, or nil.
func (e *Entity) Field(name string) *Field {
	for _, f := range e.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ID returns the id field, or nil.
func (e *Entity) ID() *Field {
	return e.Field(IDField)
}

// NumericID reports whether the entity's id is an integer column. Entities
// without an id are treated as numeric.
func (e *Entity) NumericID() bool {
	id := e.ID()
	return id == nil || id.Type == TypeInt || id.Type == TypeBigInt
}

// RelationFor returns the to-one relation field that f is the scalar
// carrier of, or nil.
func (e *Entity) RelationFor(f *Field) *Field {
	if f.IsRelation {
		return nil
	}
	for _, r := range e.Fields {
		if !r.IsToOne() {
			continue
		}
		if slices.Contains(r.RelationFields, f.Name) {
			return r
		}
	}
	if base, ok := strings.CutSuffix(f.Name, "Id"); ok && base != "" {
		if r := e.Field(base); r != nil && r.IsToOne() {
			return r
		}
	}
	return nil
}

// Enum is one Prisma enum.
type Enum struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values" yaml:"values"`
}

// Model is the normalized schema: entities and enums in declaration order.
type Model struct {
	Path       string    `json:"path,omitempty" yaml:"path,omitempty"`
	Datasource string    `json:"datasource,omitempty" yaml:"datasource,omitempty"`
	Entities   []*Entity `json:"entities" yaml:"entities"`
	Enums      []*Enum   `json:"enums" yaml:"enums"`
}

// Entity returns the named entity, or nil.
func (m *Model) Entity(name string) *Entity {
	for _, e := range m.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// EntityByLower finds an entity by its lower-cased name, as used in routes.
func (m *Model) EntityByLower(lower string) *Entity {
	for _, e := range m.Entities {
		if strings.EqualFold(e.Name, lower) {
			return e
		}
	}
	return nil
}

// Enum returns the named enum, or nil.
func (m *Model) Enum(name string) *Enum {
	for _, e := range m.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

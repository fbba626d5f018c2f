// Package contract emits the shared Zod layer: per entity a base, create and
// update schema with inferred types and a paginated wrapper, plus the common
// query-options module. Backend validation and frontend typing both import
// these files, so the create/update inclusion rule lives only here.
package contract

import (
	"embed"
	"strings"

	"github.com/matthewbaird/crudgen/internal/emit"
	"github.com/matthewbaird/crudgen/internal/naming"
	"github.com/matthewbaird/crudgen/internal/schema"
)

//go:embed templates/*
var templateFS embed.FS

var templates = emit.MustParse(templateFS, "templates/*.tmpl", nil)

// Pagination defaults baked into the query-options schema.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Rule is the Zod expression validating one field, optionality included.
type Rule struct {
	Name     string `json:"name" yaml:"name"`
	Zod      string `json:"zod" yaml:"zod"`
	Optional bool   `json:"optional" yaml:"optional"`
}

// Contract holds the three schemas of one entity.
type Contract struct {
	Entity string       `json:"entity" yaml:"entity"`
	Names  naming.Names `json:"-" yaml:"-"`
	Base   []Rule       `json:"base" yaml:"base"`
	Create []Rule       `json:"create" yaml:"create"`
	Update []Rule       `json:"update" yaml:"update"`
}

// Fields is the create/update field lists of one entity.
type Fields struct {
	Create []string `json:"create" yaml:"create"`
	Update []string `json:"update" yaml:"update"`
}

// FieldSet returns the names of the fields the create and update schemas
// accept.
func FieldSet(m *schema.Model, e *schema.Entity) Fields {
	c := Build(m, e)
	return Fields{Create: ruleNames(c.Create), Update: ruleNames(c.Update)}
}

func ruleNames(rules []Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Name
	}
	return out
}

// Build derives the contract of e. Create takes every base field except
// the id, the audit fields, fields with a default and @updatedAt fields;
// update is create with every field optional.
func Build(m *schema.Model, e *schema.Entity) Contract {
	c := Contract{
		Entity: e.Name,
		Names:  naming.For(e.Name),
		Base:   []Rule{},
		Create: []Rule{},
		Update: []Rule{},
	}
	for _, f := range e.Fields {
		if f.IsToOne() {
			continue
		}
		isID := f.IsID || f.Name == schema.IDField
		c.Base = append(c.Base, baseRule(m, f, isID))

		if isID || f.IsAudit() || f.HasDefault || f.IsUpdatedAt {
			continue
		}
		create := inputRule(m, f)
		c.Create = append(c.Create, create)
		update := create
		if !update.Optional {
			update.Zod += ".optional()"
			update.Optional = true
		}
		c.Update = append(c.Update, update)
	}
	return c
}

func baseRule(m *schema.Model, f *schema.Field, isID bool) Rule {
	r := Rule{Name: f.Name, Zod: valueRule(m, f, !isID && !f.IsOptional)}
	switch {
	case isID:
	case f.IsOptional:
		r.Zod += ".nullable().optional()"
		r.Optional = true
	case f.IsList || f.HasDefault || f.IsUpdatedAt:
		r.Zod += ".optional()"
		r.Optional = true
	}
	return r
}

func inputRule(m *schema.Model, f *schema.Field) Rule {
	r := Rule{Name: f.Name, Zod: valueRule(m, f, !f.IsOptional)}
	switch {
	case f.IsOptional:
		r.Zod += ".nullable().optional()"
		r.Optional = true
	case f.IsList:
		r.Zod += ".optional()"
		r.Optional = true
	}
	return r
}

// valueRule is the closed scalar table. nonEmpty adds .min(1) to plain
// required strings.
func valueRule(m *schema.Model, f *schema.Field, nonEmpty bool) string {
	if f.IsListRelation() {
		return "z.array(" + idRule(m.Entity(f.RelationTarget)) + ")"
	}
	var rule string
	switch f.Type {
	case schema.TypeString:
		rule = "z.string()"
		if nonEmpty && !f.IsList {
			rule += ".min(1)"
		}
	case schema.TypeInt:
		rule = "z.number().int()"
	case schema.TypeFloat:
		rule = "z.number()"
	case schema.TypeDecimal:
		rule = "z.union([z.number(), z.string()])"
	case schema.TypeBigInt:
		rule = "z.coerce.bigint()"
	case schema.TypeBoolean:
		rule = "z.boolean()"
	case schema.TypeDateTime:
		rule = "z.coerce.date()"
	case schema.TypeEnum:
		rule = enumRule(m.Enum(f.EnumName))
	default:
		rule = "z.any()"
	}
	if f.IsList {
		return "z.array(" + rule + ")"
	}
	return rule
}

func enumRule(e *schema.Enum) string {
	if e == nil || len(e.Values) == 0 {
		return "z.string()"
	}
	quoted := make([]string, len(e.Values))
	for i, v := range e.Values {
		quoted[i] = emit.Quote(v)
	}
	return "z.enum([" + strings.Join(quoted, ", ") + "])"
}

func idRule(target *schema.Entity) string {
	if target != nil && !target.NumericID() {
		return "z.string()"
	}
	return "z.number().int()"
}

// SchemaPath is where an entity's contract module lives under the shared root.
func SchemaPath(entity string) string {
	return "zod/" + naming.Kebab(entity) + ".schema.ts"
}

// QuerySchemaPath is the common query-options module under the shared root.
const QuerySchemaPath = "zod/common/query.schema.ts"

// EntitySchema renders the contract module of e.
func EntitySchema(m *schema.Model, e *schema.Entity) (emit.Artifact, error) {
	return templates.Render(emit.RootShared, SchemaPath(e.Name), "entity.schema.ts.tmpl", Build(m, e))
}

// QuerySchema renders the query-options and paginated-result module.
func QuerySchema() (emit.Artifact, error) {
	return templates.Render(emit.RootShared, QuerySchemaPath, "query.schema.ts.tmpl", map[string]int{
		"Page":     DefaultPage,
		"Limit":    DefaultLimit,
		"MaxLimit": MaxLimit,
	})
}

// Index renders zod/index.ts re-exporting every module.
func Index(m *schema.Model) (emit.Artifact, error) {
	var mods []string
	for _, e := range m.Entities {
		mods = append(mods, naming.Kebab(e.Name))
	}
	return templates.Render(emit.RootShared, "zod/index.ts", "index.ts.tmpl", mods)
}

// All renders the whole shared layer.
func All(m *schema.Model) ([]emit.Artifact, error) {
	var out []emit.Artifact
	q, err := QuerySchema()
	if err != nil {
		return nil, err
	}
	out = append(out, q)
	for _, e := range m.Entities {
		a, err := EntitySchema(m, e)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	idx, err := Index(m)
	if err != nil {
		return nil, err
	}
	return append(out, idx), nil
}

// Package formschema projects an entity into the widget-level description
// the frontend emitters render: one FormField per editable field, in
// declaration order, with its widget type, label and required flag.
package formschema

import (
	"strings"

	"github.com/matthewbaird/crudgen/internal/naming"
	"github.com/matthewbaird/crudgen/internal/schema"
)

// WidgetType is the closed set of form controls.
type WidgetType string

const (
	WidgetText     WidgetType = "text"
	WidgetEmail    WidgetType = "email"
	WidgetPassword WidgetType = "password"
	WidgetTel      WidgetType = "tel"
	WidgetURL      WidgetType = "url"
	WidgetNumber   WidgetType = "number"
	WidgetTextarea WidgetType = "textarea"
	WidgetSelect   WidgetType = "select"
	WidgetCheckbox WidgetType = "checkbox"
	WidgetDate     WidgetType = "date"
	WidgetRelation WidgetType = "relation"
)

// Option is one choice of a select widget.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// FormField describes one form control.
type FormField struct {
	Name           string     `json:"name" yaml:"name"`
	Label          string     `json:"label" yaml:"label"`
	Type           WidgetType `json:"type" yaml:"type"`
	Required       bool       `json:"required" yaml:"required"`
	Options        []Option   `json:"options,omitempty" yaml:"options,omitempty"`
	RelationTarget string     `json:"relationTarget,omitempty" yaml:"relationTarget,omitempty"`
	Multiple       bool       `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Placeholder    string     `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`

	// ForeignKey marks an xxxId carrier; it gets a control but no entry in
	// the form's default-values block.
	ForeignKey bool `json:"foreignKey,omitempty" yaml:"foreignKey,omitempty"`
}

// FormSchema is the projection of one entity.
type FormSchema struct {
	Title  string      `json:"title" yaml:"title"`
	Entity string      `json:"entity" yaml:"entity"`
	Fields []FormField `json:"fields" yaml:"fields"`
}

// Field returns the named form field, or nil.
func (fs FormSchema) Field(name string) *FormField {
	for i := range fs.Fields {
		if fs.Fields[i].Name == name {
			return &fs.Fields[i]
		}
	}
	return nil
}

// ListRelations returns the names of the multi-valued relation pickers.
func (fs FormSchema) ListRelations() []string {
	var out []string
	for _, f := range fs.Fields {
		if f.Type == WidgetRelation && f.Multiple {
			out = append(out, f.Name)
		}
	}
	return out
}

// Projector turns entities into form schemas. Labels optionally overrides
// labels per entity name and field name.
type Projector struct {
	Enums  []*schema.Enum
	Labels map[string]map[string]string
}

// Project projects e with the model's enums and no label overrides.
func Project(m *schema.Model, e *schema.Entity) FormSchema {
	return Projector{Enums: m.Enums}.Project(e)
}

// Project returns the form schema of e. The id, the audit fields and to-one
// relation objects are left out; an xxxId carrier stands in for its
// relation as a single-valued picker.
func (p Projector) Project(e *schema.Entity) FormSchema {
	fs := FormSchema{
		Title:  naming.Pascal(e.Name),
		Entity: e.Name,
		Fields: []FormField{},
	}
	for _, f := range e.Fields {
		if f.IsID || f.Name == schema.IDField || f.IsAudit() || f.IsToOne() {
			continue
		}
		fs.Fields = append(fs.Fields, p.field(e, f))
	}
	return fs
}

func (p Projector) field(e *schema.Entity, f *schema.Field) FormField {
	ff := FormField{
		Name:     f.Name,
		Label:    naming.Label(f.Name),
		Required: !f.IsOptional && !f.HasDefault && !f.IsList,
	}

	switch {
	case f.IsListRelation():
		ff.Type = WidgetRelation
		ff.RelationTarget = f.RelationTarget
		ff.Multiple = true
	case e.RelationFor(f) != nil:
		rel := e.RelationFor(f)
		ff.Type = WidgetRelation
		ff.RelationTarget = rel.RelationTarget
		ff.ForeignKey = true
		ff.Label = naming.Label(rel.Name)
	default:
		ff.Type = widgetFor(f)
	}

	switch ff.Type {
	case WidgetCheckbox:
		ff.Required = false
	case WidgetSelect:
		ff.Options = p.options(f.EnumName)
	}
	if ff.Type != WidgetRelation && ff.Type != WidgetCheckbox && ff.Type != WidgetSelect {
		ff.Placeholder = "Enter " + strings.ToLower(ff.Label)
	}

	if override, ok := p.Labels[e.Name][f.Name]; ok && override != "" {
		ff.Label = override
	}
	return ff
}

// widgetFor maps a scalar field to its control. String fields are refined
// by name hints; anything unrecognized is a text input.
func widgetFor(f *schema.Field) WidgetType {
	switch f.Type {
	case schema.TypeInt, schema.TypeFloat, schema.TypeDecimal, schema.TypeBigInt:
		return WidgetNumber
	case schema.TypeBoolean:
		return WidgetCheckbox
	case schema.TypeDateTime:
		return WidgetDate
	case schema.TypeEnum:
		return WidgetSelect
	case schema.TypeJSON:
		return WidgetTextarea
	case schema.TypeString:
		return stringWidget(f.Name)
	default:
		return WidgetText
	}
}

var textareaHints = []string{"description", "content", "body", "notes", "note", "bio", "summary", "comment", "message"}

func stringWidget(name string) WidgetType {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "email"):
		return WidgetEmail
	case strings.Contains(lower, "password"):
		return WidgetPassword
	case strings.Contains(lower, "phone") || lower == "tel":
		return WidgetTel
	case strings.Contains(lower, "url") || strings.Contains(lower, "website") || lower == "link":
		return WidgetURL
	}
	for _, h := range textareaHints {
		if lower == h || strings.HasSuffix(lower, h) {
			return WidgetTextarea
		}
	}
	return WidgetText
}

func (p Projector) options(enumName string) []Option {
	for _, e := range p.Enums {
		if e.Name != enumName {
			continue
		}
		opts := make([]Option, len(e.Values))
		for i, v := range e.Values {
			opts[i] = Option{Value: v, Label: naming.EnumLabel(v)}
		}
		return opts
	}
	return nil
}

package frontend

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matthewbaird/crudgen/internal/emit"
	"github.com/matthewbaird/crudgen/internal/formschema"
	"github.com/matthewbaird/crudgen/internal/naming"
	"github.com/matthewbaird/crudgen/internal/schema"
)

// control renders the react-hook-form Controller wrapping one widget.
// Required fields get a non-empty rule and HeroUI's required marker.
func control(m *schema.Model, f formschema.FormField) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<Controller\n  name=%s\n  control={control}\n", emit.Quote(f.Name))
	if f.Required {
		fmt.Fprintf(&b, "  rules={{ required: %s }}\n", emit.Quote(f.Label+" is required"))
	}
	b.WriteString("  render={({ field }) => (\n")
	b.WriteString(indent(4, widget(m, f)))
	b.WriteString("\n  )}\n/>")
	return b.String()
}

// widget is the closed control table. Unknown widget types render as a
// text input.
func widget(m *schema.Model, f formschema.FormField) string {
	var attrs []string
	add := func(format string, args ...any) {
		attrs = append(attrs, fmt.Sprintf(format, args...))
	}
	validation := func() {
		if f.Required {
			add("isRequired")
		}
		add("isInvalid={!!errors.%s}", f.Name)
		add("errorMessage={errors.%s?.message?.toString()}", f.Name)
	}

	switch f.Type {
	case formschema.WidgetTextarea:
		add("name={field.name}")
		add("label=%s", emit.Quote(f.Label))
		add("placeholder=%s", emit.Quote(f.Placeholder))
		add(`value={field.value == null ? "" : String(field.value)}`)
		add("onValueChange={field.onChange}")
		add("onBlur={field.onBlur}")
		validation()
		return element("Textarea", attrs, "")

	case formschema.WidgetNumber:
		add("name={field.name}")
		add(`type="number"`)
		add("label=%s", emit.Quote(f.Label))
		add("placeholder=%s", emit.Quote(f.Placeholder))
		add(`value={field.value == null ? "" : String(field.value)}`)
		add(`onValueChange={(value) => field.onChange(value === "" ? null : Number(value))}`)
		add("onBlur={field.onBlur}")
		validation()
		return element("Input", attrs, "")

	case formschema.WidgetSelect:
		add("label=%s", emit.Quote(f.Label))
		add("selectedKeys={field.value ? [String(field.value)] : []}")
		add("onSelectionChange={(keys) => field.onChange(Array.from(keys)[0] ?? null)}")
		validation()
		var items []string
		for _, o := range f.Options {
			items = append(items, fmt.Sprintf("<SelectItem key=%s>%s</SelectItem>", emit.Quote(o.Value), jsxText(o.Label)))
		}
		return element("Select", attrs, strings.Join(items, "\n"))

	case formschema.WidgetCheckbox:
		add("name={field.name}")
		add("isSelected={!!field.value}")
		add("onValueChange={field.onChange}")
		add("isInvalid={!!errors.%s}", f.Name)
		return element("Checkbox", attrs, jsxText(f.Label))

	case formschema.WidgetDate:
		add("label=%s", emit.Quote(f.Label))
		add("value={field.value ? parseDate(new Date(field.value).toISOString().slice(0, 10)) : null}")
		add("onChange={(value) => field.onChange(value ? value.toString() : null)}")
		validation()
		return element("DatePicker", attrs, "")

	case formschema.WidgetRelation:
		add("resource=%s", emit.Quote(naming.For(f.RelationTarget).Lower))
		add("displayField=%s", emit.Quote(displayField(m.Entity(f.RelationTarget))))
		add("label=%s", emit.Quote(f.Label))
		add("multiple={%t}", f.Multiple)
		add("value={field.value}")
		add("onChange={field.onChange}")
		validation()
		return element("ResourceCombobox", attrs, "")

	default:
		typ := string(f.Type)
		switch f.Type {
		case formschema.WidgetEmail, formschema.WidgetPassword, formschema.WidgetTel, formschema.WidgetURL:
		default:
			typ = string(formschema.WidgetText)
		}
		add("name={field.name}")
		add("type=%s", emit.Quote(typ))
		add("label=%s", emit.Quote(f.Label))
		add("placeholder=%s", emit.Quote(f.Placeholder))
		add(`value={field.value == null ? "" : String(field.value)}`)
		add("onValueChange={field.onChange}")
		add("onBlur={field.onBlur}")
		validation()
		return element("Input", attrs, "")
	}
}

// element lays out a JSX element with one attribute per line.
func element(tag string, attrs []string, children string) string {
	var b strings.Builder
	b.WriteString("<" + tag)
	for _, a := range attrs {
		b.WriteString("\n  " + a)
	}
	if children == "" {
		b.WriteString("\n/>")
		return b.String()
	}
	b.WriteString("\n>\n")
	b.WriteString(indent(2, children))
	b.WriteString("\n</" + tag + ">")
	return b.String()
}

// heroImports lists the @heroui/react components a form needs.
func heroImports(fields []formschema.FormField) []string {
	set := map[string]bool{"Button": true, "Form": true}
	for _, f := range fields {
		switch f.Type {
		case formschema.WidgetTextarea:
			set["Textarea"] = true
		case formschema.WidgetSelect:
			set["Select"] = true
			set["SelectItem"] = true
		case formschema.WidgetCheckbox:
			set["Checkbox"] = true
		case formschema.WidgetDate:
			set["DatePicker"] = true
		case formschema.WidgetRelation:
		default:
			set["Input"] = true
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// defaultValue is the initial form value of a field. Foreign-key carriers,
// numbers, dates and selects start unset.
func defaultValue(f formschema.FormField) (string, bool) {
	if f.ForeignKey {
		return "", false
	}
	switch f.Type {
	case formschema.WidgetCheckbox:
		return "false", true
	case formschema.WidgetRelation:
		if f.Multiple {
			return "[]", true
		}
		return "", false
	case formschema.WidgetNumber, formschema.WidgetDate, formschema.WidgetSelect:
		return "", false
	default:
		return `""`, true
	}
}

// displayField picks the column shown for a row of e in pickers and
// confirmations: the first required string, else the first string, else id.
func displayField(e *schema.Entity) string {
	if e == nil {
		return schema.IDField
	}
	first := ""
	for _, f := range e.Fields {
		if f.Type != schema.TypeString || f.IsList || f.IsID || f.Name == schema.IDField {
			continue
		}
		if !f.IsOptional {
			return f.Name
		}
		if first == "" {
			first = f.Name
		}
	}
	if first != "" {
		return first
	}
	return schema.IDField
}

func indent(n int, s string) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}

// jsxText escapes text placed between JSX tags.
func jsxText(s string) string {
	r := strings.NewReplacer("{", "&#123;", "}", "&#125;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// Package frontend emits the React resource layer: per entity a form, page,
// list, column definitions and type modules, plus the application shell
// (routes, navigation, App, data context and provider) with one entry per
// entity keyed by its lower-case name.
package frontend

import (
	"embed"
	"text/template"

	"github.com/matthewbaird/crudgen/internal/emit"
	"github.com/matthewbaird/crudgen/internal/emit/contract"
	"github.com/matthewbaird/crudgen/internal/formschema"
	"github.com/matthewbaird/crudgen/internal/naming"
	"github.com/matthewbaird/crudgen/internal/schema"
)

//go:embed templates/*
var templateFS embed.FS

var templates = emit.MustParse(templateFS, "templates/*.tmpl", template.FuncMap{"indent": indent})

// NavIcon is the sidebar icon of every generated entry.
const NavIcon = "lucide:file-text"

type fieldView struct {
	formschema.FormField
	Control string
}

type defaultView struct {
	Name  string
	Value string
}

type columnView struct {
	Name     string
	Label    string
	Sortable bool
}

type entityView struct {
	Names         naming.Names
	IDType        string
	Fields        []fieldView
	Defaults      []defaultView
	Columns       []columnView
	HeroImports   []string
	NeedsDate     bool
	NeedsCombobox bool
	ListRelations []string
	DisplayField  string
	SearchField   string
	PageSize      int
}

func newEntityView(m *schema.Model, e *schema.Entity, fs formschema.FormSchema) entityView {
	v := entityView{
		Names:         naming.For(e.Name),
		IDType:        "string",
		HeroImports:   heroImports(fs.Fields),
		ListRelations: fs.ListRelations(),
		DisplayField:  displayField(e),
		PageSize:      contract.DefaultLimit,
	}
	if e.NumericID() {
		v.IDType = "number"
	}
	for _, f := range fs.Fields {
		v.Fields = append(v.Fields, fieldView{FormField: f, Control: control(m, f)})
		if val, ok := defaultValue(f); ok {
			v.Defaults = append(v.Defaults, defaultView{Name: f.Name, Value: val})
		}
		v.Columns = append(v.Columns, columnView{
			Name:     f.Name,
			Label:    f.Label,
			Sortable: !f.Multiple && f.Type != formschema.WidgetTextarea,
		})
		switch f.Type {
		case formschema.WidgetDate:
			v.NeedsDate = true
		case formschema.WidgetRelation:
			v.NeedsCombobox = true
		}
	}
	if v.DisplayField != schema.IDField {
		v.SearchField = v.DisplayField
	}
	return v
}

// Dir is the resource directory of an entity under the frontend root.
func Dir(entity string) string {
	return "src/" + naming.For(entity).Lower
}

func render(e *schema.Entity, file, tmpl string, data any) (emit.Artifact, error) {
	return templates.Render(emit.RootFrontend, Dir(e.Name)+"/"+file, tmpl, data)
}

// Form renders <Pascal>Form.tsx.
func Form(m *schema.Model, e *schema.Entity, fs formschema.FormSchema) (emit.Artifact, error) {
	return render(e, naming.Pascal(e.Name)+"Form.tsx", "form.tsx.tmpl", newEntityView(m, e, fs))
}

// Page renders <Pascal>Page.tsx: the form plus create/update dispatch.
func Page(m *schema.Model, e *schema.Entity, fs formschema.FormSchema) (emit.Artifact, error) {
	return render(e, naming.Pascal(e.Name)+"Page.tsx", "page.tsx.tmpl", newEntityView(m, e, fs))
}

// List renders <Pascal>List.tsx: the paginated table with its drawer and
// delete confirmation.
func List(m *schema.Model, e *schema.Entity, fs formschema.FormSchema) (emit.Artifact, error) {
	return render(e, naming.Pascal(e.Name)+"List.tsx", "list.tsx.tmpl", newEntityView(m, e, fs))
}

// Columns renders columns.tsx.
func Columns(m *schema.Model, e *schema.Entity, fs formschema.FormSchema) (emit.Artifact, error) {
	return render(e, "columns.tsx", "columns.tsx.tmpl", newEntityView(m, e, fs))
}

// FormType renders <Pascal>FormDto.ts, the form value type.
func FormType(e *schema.Entity) (emit.Artifact, error) {
	return render(e, naming.Pascal(e.Name)+"FormDto.ts", "form-type.ts.tmpl", entityView{
		Names:  naming.For(e.Name),
		IDType: idType(e),
	})
}

// EntityTypes renders <lower>.types.ts re-exporting the shared contract types.
func EntityTypes(e *schema.Entity) (emit.Artifact, error) {
	return render(e, naming.For(e.Name).Lower+".types.ts", "types.ts.tmpl", entityView{Names: naming.For(e.Name)})
}

func idType(e *schema.Entity) string {
	if e.NumericID() {
		return "number"
	}
	return "string"
}

func shellNames(m *schema.Model) []naming.Names {
	out := make([]naming.Names, len(m.Entities))
	for i, e := range m.Entities {
		out[i] = naming.For(e.Name)
	}
	return out
}

// Routes renders src/routes.tsx mapping /<lower> to each entity's list.
func Routes(m *schema.Model) (emit.Artifact, error) {
	return templates.Render(emit.RootFrontend, "src/routes.tsx", "routes.tsx.tmpl", shellNames(m))
}

// NavData renders the sidebar entries, labeled with the entity name.
func NavData(m *schema.Model) (emit.Artifact, error) {
	return templates.Render(emit.RootFrontend, "src/components/sidebar/nav-data.ts", "nav-data.ts.tmpl", struct {
		Entities []naming.Names
		Icon     string
	}{shellNames(m), NavIcon})
}

// App renders src/App.tsx.
func App(m *schema.Model) (emit.Artifact, error) {
	return templates.Render(emit.RootFrontend, "src/App.tsx", "app.tsx.tmpl", shellNames(m))
}

// DataContext renders the context type with one API handle per entity.
func DataContext(m *schema.Model) (emit.Artifact, error) {
	return templates.Render(emit.RootFrontend, "src/core/context/DataContext.tsx", "data-context.tsx.tmpl", shellNames(m))
}

// DataProvider renders the provider instantiating every API handle.
func DataProvider(m *schema.Model) (emit.Artifact, error) {
	return templates.Render(emit.RootFrontend, "src/core/context/DataProvider.tsx", "data-provider.tsx.tmpl", shellNames(m))
}

type layout struct {
	Shared string
}

// TSConfig renders tsconfig.app.json. shared is the shared root relative
// to the frontend project.
func TSConfig(shared string) (emit.Artifact, error) {
	return templates.Render(emit.RootFrontend, "tsconfig.app.json", "tsconfig.app.json.tmpl", layout{shared})
}

// ViteConfig renders vite.config.ts, aliasing @zod to the shared schemas
// and allowing the dev server to read them.
func ViteConfig(shared string) (emit.Artifact, error) {
	return templates.Render(emit.RootFrontend, "vite.config.ts", "vite.config.ts.tmpl", layout{shared})
}

// All renders the whole frontend layer in a stable order.
func All(m *schema.Model, p formschema.Projector) ([]emit.Artifact, error) {
	var out []emit.Artifact
	add := func(a emit.Artifact, err error) error {
		if err != nil {
			return err
		}
		out = append(out, a)
		return nil
	}
	for _, e := range m.Entities {
		fs := p.Project(e)
		for _, fn := range []func(*schema.Model, *schema.Entity, formschema.FormSchema) (emit.Artifact, error){Form, Page, List, Columns} {
			if err := add(fn(m, e, fs)); err != nil {
				return nil, err
			}
		}
		if err := add(FormType(e)); err != nil {
			return nil, err
		}
		if err := add(EntityTypes(e)); err != nil {
			return nil, err
		}
	}
	for _, fn := range []func(*schema.Model) (emit.Artifact, error){Routes, NavData, App, DataContext, DataProvider} {
		if err := add(fn(m)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

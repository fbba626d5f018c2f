// Package backend emits the NestJS resource layer: per entity a controller,
// service and module, plus the soft-delete aware Prisma service, the Prisma
// module and the application module wiring every resource.
package backend

import (
	"embed"

	"github.com/matthewbaird/crudgen/internal/emit"
	"github.com/matthewbaird/crudgen/internal/naming"
	"github.com/matthewbaird/crudgen/internal/schema"
	"github.com/matthewbaird/crudgen/internal/softdelete"
)

//go:embed templates/*
var templateFS embed.FS

var templates = emit.MustParse(templateFS, "templates/*.tmpl", nil)

// Carrier pairs an xxxId scalar with the relation it connects.
type Carrier struct {
	Field    string
	Relation string
}

type entityData struct {
	Names        naming.Names
	SchemaImport string
	NumericID    bool
	Carriers     []Carrier
	Lists        []string
}

func newEntityData(e *schema.Entity) entityData {
	d := entityData{
		Names:        naming.For(e.Name),
		SchemaImport: "@zod/" + naming.Kebab(e.Name) + ".schema",
		NumericID:    e.NumericID(),
	}
	for _, f := range e.Fields {
		switch {
		case f.IsListRelation():
			d.Lists = append(d.Lists, f.Name)
		case e.RelationFor(f) != nil:
			d.Carriers = append(d.Carriers, Carrier{Field: f.Name, Relation: e.RelationFor(f).Name})
		}
	}
	return d
}

// Carriers returns the entity's xxxId carriers mapped to their relation
// field names.
func Carriers(e *schema.Entity) map[string]string {
	out := map[string]string{}
	for _, c := range newEntityData(e).Carriers {
		out[c.Field] = c.Relation
	}
	return out
}

// Dir is the resource directory of an entity under the backend root.
func Dir(entity string) string {
	return "src/" + naming.For(entity).Lower
}

func entityPath(entity, kind string) string {
	return Dir(entity) + "/" + naming.For(entity).Lower + "." + kind + ".ts"
}

// Controller renders the REST controller of e.
func Controller(e *schema.Entity) (emit.Artifact, error) {
	return templates.Render(emit.RootBackend, entityPath(e.Name, "controller"), "controller.ts.tmpl", newEntityData(e))
}

// Service renders the service of e.
func Service(e *schema.Entity) (emit.Artifact, error) {
	return templates.Render(emit.RootBackend, entityPath(e.Name, "service"), "service.ts.tmpl", newEntityData(e))
}

// Module renders the Nest module of e, with PrismaService provided directly.
func Module(e *schema.Entity) (emit.Artifact, error) {
	return templates.Render(emit.RootBackend, entityPath(e.Name, "module"), "module.ts.tmpl", newEntityData(e))
}

// PrismaService renders the Prisma client service with the soft-delete
// middleware built from softdelete.Rules.
func PrismaService() (emit.Artifact, error) {
	return templates.Render(emit.RootBackend, "src/prisma/prisma.service.ts", "prisma.service.ts.tmpl", struct {
		Rules []softdelete.Rule
		Field string
	}{softdelete.Rules, softdelete.Field})
}

// PrismaModule renders the global module exporting PrismaService.
func PrismaModule() (emit.Artifact, error) {
	return templates.Render(emit.RootBackend, "src/prisma/prisma.module.ts", "prisma.module.ts.tmpl", nil)
}

// AppModule renders the root module importing every resource module.
func AppModule(m *schema.Model) (emit.Artifact, error) {
	names := make([]naming.Names, len(m.Entities))
	for i, e := range m.Entities {
		names[i] = naming.For(e.Name)
	}
	return templates.Render(emit.RootBackend, "src/app.module.ts", "app.module.ts.tmpl", names)
}

// TSConfig renders tsconfig.json with the @zod alias pointing at shared,
// the shared root relative to the backend project.
func TSConfig(shared string) (emit.Artifact, error) {
	return templates.Render(emit.RootBackend, "tsconfig.json", "tsconfig.json.tmpl", struct{ Shared string }{shared})
}

// All renders the whole backend layer in a stable order.
func All(m *schema.Model) ([]emit.Artifact, error) {
	var out []emit.Artifact
	for _, e := range m.Entities {
		for _, fn := range []func(*schema.Entity) (emit.Artifact, error){Controller, Service, Module} {
			a, err := fn(e)
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		}
	}
	for _, fn := range []func() (emit.Artifact, error){PrismaService, PrismaModule} {
		a, err := fn()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	app, err := AppModule(m)
	if err != nil {
		return nil, err
	}
	return append(out, app), nil
}

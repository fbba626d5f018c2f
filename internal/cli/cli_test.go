package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/crudgen/internal/emit"
	"github.com/matthewbaird/crudgen/internal/emit/contract"
	"github.com/matthewbaird/crudgen/internal/formschema"
	"github.com/matthewbaird/crudgen/internal/manifest"
	"github.com/matthewbaird/crudgen/internal/naming"
	"github.com/matthewbaird/crudgen/internal/pipeline"
	"github.com/matthewbaird/crudgen/internal/schema"
	"github.com/matthewbaird/crudgen/internal/softdelete"
)

const source = `
model Post {
  id        Int       @id @default(autoincrement())
  title     String
  published Boolean
  authorId  Int
  createdAt DateTime  @default(now())
  updatedAt DateTime  @updatedAt
  deletedAt DateTime?
}
`

func writeSchema(t *testing.T, src string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "schema.prisma")
	require.NoError(t, os.WriteFile(p, []byte(src), 0o644))
	return p
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd("1.2.3")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "crudgen 1.2.3\n", out)
}

func TestGenerate_DryRun(t *testing.T) {
	schemaPath := writeSchema(t, source)
	outDir := t.TempDir()

	out, err := execute(t, "", "generate", schemaPath, "--dry-run", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Finished contract")
	assert.Contains(t, out, filepath.Join(outDir, "app-backend", "src", "post", "post.service.ts"))
	assert.Contains(t, out, filepath.Join(outDir, "app-frontend", "src", "post", "PostForm.tsx"), "no terminal means both")
	assert.Contains(t, out, "Dry run:")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerate_Target(t *testing.T) {
	schemaPath := writeSchema(t, source)
	out, err := execute(t, "", "generate", schemaPath, "--dry-run", "--target", "front", "--out", t.TempDir())
	require.NoError(t, err)
	assert.NotContains(t, out, "app-backend")
	assert.Contains(t, out, "Finished frontend")

	_, err = execute(t, "", "generate", schemaPath, "--dry-run", "--target", "sideways")
	assert.ErrorContains(t, err, "unknown target")
}

func TestGenerate_InvalidSchemaWritesNothing(t *testing.T) {
	schemaPath := writeSchema(t, "model Post {\n  id Int @id\n}\n")
	outDir := t.TempDir()

	_, err := execute(t, "", "generate", schemaPath, "--target", "both", "--out", outDir)
	var audit *schema.MissingAuditFieldsError
	require.ErrorAs(t, err, &audit)

	msg := Describe(err)
	assert.Contains(t, msg, "validate phase failed")
	assert.Contains(t, msg, `model "Post" is missing fields: "createdAt", "updatedAt", "deletedAt"`)
	assert.Contains(t, msg, "deletedAt DateTime?")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no manifest or project directories")
}

func TestPromptTarget(t *testing.T) {
	tests := []struct {
		input string
		want  pipeline.Target
	}{
		{"1\n", pipeline.TargetFront},
		{"2\n", pipeline.TargetBack},
		{"\n", pipeline.TargetBoth},
		{"front and back\n", pipeline.TargetBoth},
		{"9\nback\n", pipeline.TargetBack},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := promptTarget(strings.NewReader(tt.input), &out)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
		assert.Contains(t, out.String(), "  3) front and back\n")
	}

	_, err := promptTarget(strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}

// inspected is the decodable part of an Inspection.
type inspected struct {
	Entities []struct {
		Names    naming.Names
		Contract contract.Fields
		Form     formschema.FormSchema
	}
	SoftDelete []softdelete.Rule
	Artifacts  []emit.Artifact
}

func TestInspect(t *testing.T) {
	schemaPath := writeSchema(t, source)

	out, err := execute(t, "", "inspect", schemaPath)
	require.NoError(t, err)
	var got inspected
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Entities, 1)
	e := got.Entities[0]
	assert.Equal(t, "/post", e.Names.Route)
	assert.Equal(t, []string{"title", "published", "authorId"}, e.Contract.Create)
	assert.Len(t, e.Form.Fields, 3)
	assert.NotEmpty(t, got.SoftDelete)
	assert.Empty(t, got.Artifacts)

	out, err = execute(t, "", "inspect", schemaPath, "--format", "yaml", "--artifacts", "back")
	require.NoError(t, err)
	assert.Contains(t, out, "softDelete:")
	assert.Contains(t, out, "path: src/post/post.controller.ts")
	assert.NotContains(t, out, "root: frontend")

	_, err = execute(t, "", "inspect", schemaPath, "--format", "toml")
	assert.ErrorContains(t, err, "unknown format")
}

func TestInspect_Labels(t *testing.T) {
	schemaPath := writeSchema(t, source)
	cfgPath := filepath.Join(filepath.Dir(schemaPath), "crudgen.cue")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`labels: Post: title: "Headline"`), 0o644))

	out, err := execute(t, "", "inspect", schemaPath)
	require.NoError(t, err)
	var got inspected
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Headline", got.Entities[0].Form.Fields[0].Label)
}

func TestDrift(t *testing.T) {
	outDir := t.TempDir()
	_, err := execute(t, "", "drift", "--out", outDir)
	assert.ErrorContains(t, err, "run generate first")

	ctx := context.Background()
	file := filepath.Join(outDir, "app-backend", "src", "app.module.ts")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte("app"), 0o644))

	store, err := manifest.Open(ctx, filepath.Join(outDir, ".crudgen", "manifest.db"))
	require.NoError(t, err)
	run := manifest.Run{ID: manifest.NewRunID(), StartedAt: time.Now()}
	require.NoError(t, store.BeginRun(ctx, run))
	require.NoError(t, store.RecordEntries(ctx, run.ID, []manifest.Entry{
		manifest.EntryFor(run.ID, emit.Artifact{Root: emit.RootBackend, Path: "src/app.module.ts", Content: []byte("app")}),
	}))
	require.NoError(t, store.FinishRun(ctx, run.ID, manifest.StatusSucceeded, time.Now()))
	require.NoError(t, store.Close())

	out, err := execute(t, "", "drift", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "checked 1 files")

	require.NoError(t, os.WriteFile(file, []byte("edited"), 0o644))
	out, err = execute(t, "", "drift", "--out", outDir)
	assert.True(t, errors.Is(err, ErrDrift))
	assert.Contains(t, out, "modified backend/src/app.module.ts")

	out, err = execute(t, "", "drift", "--out", outDir, "--format", "json")
	require.ErrorIs(t, err, ErrDrift)
	assert.Contains(t, out, `"kind": "modified"`)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Error: boom", Describe(errors.New("boom")))
	err := &pipeline.PhaseError{Phase: pipeline.PhaseFrontend, Err: errors.New("npm exited 1")}
	assert.Equal(t, "crudgen: frontend phase failed\nError: npm exited 1", Describe(err))
}

func TestDescribe_JoinedValidationErrors(t *testing.T) {
	m, err := schema.Parse([]byte(`
model A {
  id        Int      @id
  createdAt DateTime @default(now())
  updatedAt DateTime @updatedAt
}

model B {
  name      String
  createdAt DateTime  @default(now())
  updatedAt DateTime  @updatedAt
  deletedAt DateTime?
}
`))
	require.NoError(t, err)
	verr := schema.Validate(m)
	require.Error(t, verr)

	out := Describe(&pipeline.PhaseError{Phase: pipeline.PhaseValidate, Err: verr})
	assert.True(t, strings.HasPrefix(out, "crudgen: validate phase failed\n"), out)
	assert.Contains(t, out, `model "A" is missing fields: "deletedAt"`)
	assert.Contains(t, out, `models without an "id" field: B`)
	assert.Contains(t, out, "Every model needs:")

	ids := Describe(&schema.MissingIDError{Entities: []string{"B"}})
	assert.NotContains(t, ids, "Every model needs:")
}

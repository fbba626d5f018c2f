package static

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/crudgen/internal/emit"
)

func TestTree_Backend(t *testing.T) {
	paths, err := Paths(emit.RootBackend)
	require.NoError(t, err)
	assert.Contains(t, paths, "src/main.ts")
	assert.Contains(t, paths, "src/common/pipes/zod-validation.pipe.ts")
	assert.Contains(t, paths, "src/common/decorators/zod-decorator.ts")
	assert.Contains(t, paths, "src/common/utils/paginated-find-all.ts")
	assert.NotContains(t, paths, "tsconfig.json", "rendered per layout")

	tree, err := Tree(emit.RootBackend)
	require.NoError(t, err)
	pipe, err := fs.ReadFile(tree, "src/common/pipes/zod-validation.pipe.ts")
	require.NoError(t, err)
	assert.Contains(t, string(pipe), "export interface RelationMap")
	assert.Contains(t, string(pipe), "export function normalizeConnect")
	assert.Contains(t, string(pipe), "export function transformRelations")
}

func TestTree_Frontend(t *testing.T) {
	paths, err := Paths(emit.RootFrontend)
	require.NoError(t, err)
	for _, want := range []string{
		"src/main.tsx",
		"src/core/api/use-api.ts",
		"src/core/context/use-data.ts",
		"src/utils/relations.ts",
		"src/components/resource-combobox.tsx",
		"src/components/table/data-table.tsx",
		"src/components/sidebar/app-sidebar.tsx",
	} {
		assert.Contains(t, paths, want)
	}
	for _, p := range paths {
		assert.False(t, strings.HasPrefix(p, "frontend/"), p)
	}
	assert.NotContains(t, paths, "vite.config.ts", "rendered per layout")
	assert.NotContains(t, paths, "tsconfig.app.json", "rendered per layout")
}

// Generated pages submit toConnect(values, listRelations); the backend pipe
// expects exactly this shape back.
const toConnectSource = `type Id = string | number;

// toConnect rewrites the named id-array fields to { connect: [{ id }] }.
// Other fields are returned unchanged.
export function toConnect<T extends object>(values: T, fields: string[]): T {
  const result: Record<string, unknown> = { ...values };
  for (const field of fields) {
    const value = result[field];
    if (Array.isArray(value)) {
      result[field] = { connect: (value as Id[]).map((id) => ({ id })) };
    }
  }
  return result as T;
}
`

func TestTree_ToConnect(t *testing.T) {
	tree, err := Tree(emit.RootFrontend)
	require.NoError(t, err)
	src, err := fs.ReadFile(tree, "src/utils/relations.ts")
	require.NoError(t, err)
	assert.Equal(t, toConnectSource, string(src))
}

func TestTree_NoShared(t *testing.T) {
	_, err := Tree(emit.RootShared)
	assert.Error(t, err)
}

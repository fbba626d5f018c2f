package contract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/crudgen/internal/emit"
	"github.com/matthewbaird/crudgen/internal/schema"
)

const source = `
enum Status {
  DRAFT
  LIVE
}

model Post {
  id        Int       @id @default(autoincrement())
  title     String
  published Boolean
  authorId  Int
  createdAt DateTime  @default(now())
  updatedAt DateTime  @updatedAt
  deletedAt DateTime?
}

model Article {
  id        String    @id @default(uuid())
  slug      String    @unique
  summary   String?
  status    Status    @default(DRAFT)
  score     Float
  keywords  String[]
  tags      Tag[]
  writer    User      @relation(fields: [writerId], references: [id])
  writerId  Int
  createdAt DateTime  @default(now())
  updatedAt DateTime  @updatedAt
  deletedAt DateTime?
}

model Tag {
  id        Int       @id @default(autoincrement())
  label     String
  articles  Article[]
  createdAt DateTime  @default(now())
  updatedAt DateTime  @updatedAt
  deletedAt DateTime?
}

model User {
  id        Int       @id @default(autoincrement())
  articles  Article[]
  createdAt DateTime  @default(now())
  updatedAt DateTime  @updatedAt
  deletedAt DateTime?
}
`

func load(t *testing.T) *schema.Model {
	t.Helper()
	m, err := schema.Parse([]byte(source))
	require.NoError(t, err)
	require.NoError(t, schema.Validate(m))
	return m
}

func TestFieldSet_PostScenario(t *testing.T) {
	m := load(t)
	fs := FieldSet(m, m.Entity("Post"))
	assert.Equal(t, []string{"title", "published", "authorId"}, fs.Create)
	assert.Equal(t, fs.Create, fs.Update)

	c := Build(m, m.Entity("Post"))
	for _, r := range c.Update {
		assert.True(t, r.Optional, r.Name)
		assert.True(t, strings.HasSuffix(r.Zod, ".optional()"), r.Zod)
	}
	for _, r := range c.Create {
		assert.False(t, r.Optional, r.Name)
	}
}

// Create is base minus id, audit, defaulted and @updatedAt fields; update
// has the same names. Checked for every entity with no special cases.
func TestBuild_CreateUpdateLaw(t *testing.T) {
	m := load(t)
	for _, e := range m.Entities {
		c := Build(m, e)
		var want []string
		for _, r := range c.Base {
			f := e.Field(r.Name)
			if f.IsID || f.IsAudit() || f.HasDefault || f.IsUpdatedAt {
				continue
			}
			want = append(want, r.Name)
		}
		got := ruleNames(c.Create)
		if len(want) == 0 {
			assert.Empty(t, got, e.Name)
		} else {
			assert.Equal(t, want, got, e.Name)
		}
		assert.Equal(t, got, ruleNames(c.Update), e.Name)
	}
}

func TestBuild_RuleTable(t *testing.T) {
	m := load(t)
	c := Build(m, m.Entity("Article"))

	base := map[string]string{}
	for _, r := range c.Base {
		base[r.Name] = r.Zod
	}
	assert.Equal(t, "z.string()", base["id"])
	assert.Equal(t, "z.string().min(1)", base["slug"])
	assert.Equal(t, "z.string().nullable().optional()", base["summary"])
	assert.Equal(t, `z.enum(["DRAFT", "LIVE"]).optional()`, base["status"])
	assert.Equal(t, "z.number()", base["score"])
	assert.Equal(t, "z.array(z.string()).optional()", base["keywords"])
	assert.Equal(t, "z.array(z.number().int()).optional()", base["tags"])
	assert.Equal(t, "z.coerce.date().nullable().optional()", base["deletedAt"])
	assert.NotContains(t, base, "writer", "to-one relation objects are carried by their id")

	assert.Equal(t, []string{"slug", "summary", "score", "keywords", "tags", "writerId"}, ruleNames(c.Create))
}

func TestBuild_ListRelationToStringIDs(t *testing.T) {
	m := load(t)
	c := Build(m, m.Entity("Tag"))
	require.Len(t, c.Create, 2)
	assert.Equal(t, "articles", c.Create[1].Name)
	assert.Equal(t, "z.array(z.string()).optional()", c.Create[1].Zod)
}

func TestEntitySchema_Render(t *testing.T) {
	m := load(t)
	a, err := EntitySchema(m, m.Entity("Post"))
	require.NoError(t, err)
	assert.Equal(t, emit.RootShared, a.Root)
	assert.Equal(t, "zod/post.schema.ts", a.Path)

	src := string(a.Content)
	assert.True(t, strings.HasPrefix(src, emit.Header))
	assert.Contains(t, src, "export const PostSchema = z.object({\n  id: z.number().int(),\n  title: z.string().min(1),")
	assert.Contains(t, src, "export const CreatePostSchema = z.object({\n  title: z.string().min(1),\n  published: z.boolean(),\n  authorId: z.number().int(),\n});")
	assert.Contains(t, src, "  published: z.boolean().optional(),")
	assert.Contains(t, src, "export const PaginatedPostsSchema = createPaginatedResultSchema(PostSchema);")
	assert.Contains(t, src, "export type UpdatePostDto = z.infer<typeof UpdatePostSchema>;")
}

func TestEntitySchema_EmptyEntity(t *testing.T) {
	m, err := schema.Parse([]byte(`model Empty {
  id        Int      @id @default(autoincrement())
  createdAt DateTime @default(now())
  updatedAt DateTime @updatedAt
  deletedAt DateTime?
}`))
	require.NoError(t, err)
	a, err := EntitySchema(m, m.Entity("Empty"))
	require.NoError(t, err)
	assert.Contains(t, string(a.Content), "export const CreateEmptySchema = z.object({\n});")
	assert.Contains(t, string(a.Content), "export const UpdateEmptySchema = z.object({\n});")
}

func TestAll(t *testing.T) {
	m := load(t)
	as, err := All(m)
	require.NoError(t, err)
	var paths []string
	for _, a := range as {
		paths = append(paths, a.Path)
	}
	assert.Equal(t, []string{
		QuerySchemaPath,
		"zod/post.schema.ts",
		"zod/article.schema.ts",
		"zod/tag.schema.ts",
		"zod/user.schema.ts",
		"zod/index.ts",
	}, paths)

	q := string(as[0].Content)
	assert.Contains(t, q, "page: z.coerce.number().int().min(1).default(1),")
	assert.Contains(t, q, "limit: z.coerce.number().int().min(1).max(100).default(10),")
	assert.Contains(t, string(as[5].Content), `export * from "./article.schema";`)
}

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFile(t *testing.T, input string) *File {
	t.Helper()
	tokens, lexErrs := NewLexer(input).Tokenize()
	require.Empty(t, lexErrs, "lex errors")
	f, parseErrs := NewParser(tokens).Parse()
	require.Empty(t, parseErrs, "parse errors")
	return f
}

func TestParser_ModelFields(t *testing.T) {
	f := parseFile(t, `
model Post {
  id       Int     @id @default(autoincrement())
  title    String  @db.VarChar(255)
  tags     Tag[]
  note     String?
  author   User    @relation("authored", fields: [authorId], references: [id])
  authorId Int
  @@unique([title, authorId])
}`)
	require.Len(t, f.Blocks, 1)
	b := f.Blocks[0]
	assert.Equal(t, BlockModel, b.Kind)
	assert.Equal(t, "Post", b.Name)
	require.Len(t, b.Fields, 6)

	id := b.Fields[0]
	assert.Equal(t, "Int", id.Type)
	require.Len(t, id.Attributes, 2)
	assert.Equal(t, "id", id.Attributes[0].Name)
	def, ok := id.Attributes[1].Arg("value", 0)
	require.True(t, ok)
	assert.Equal(t, "autoincrement()", def.String())

	title := b.Fields[1]
	require.NotNil(t, title.Attribute("db.VarChar"))

	assert.True(t, b.Fields[2].List)
	assert.True(t, b.Fields[3].Optional)

	rel := b.Fields[4].Attribute("relation")
	require.NotNil(t, rel)
	name, ok := rel.Arg("name", 0)
	require.True(t, ok)
	assert.Equal(t, "authored", name.Value)
	fields, ok := rel.Arg("fields", -1)
	require.True(t, ok)
	assert.Equal(t, []string{"authorId"}, fields.Idents())

	require.Len(t, b.Attributes, 1)
	assert.Equal(t, "unique", b.Attributes[0].Name)
}

func TestParser_EnumAndConfigBlocks(t *testing.T) {
	f := parseFile(t, `
datasource db {
  provider = "sqlite"
  url      = env("DATABASE_URL")
}
enum Status {
  DRAFT
  LIVE @map("live")
  @@map("status")
}`)
	require.Len(t, f.Blocks, 2)
	ds := f.Blocks[0]
	require.Len(t, ds.Properties, 2)
	assert.Equal(t, "sqlite", ds.Properties[0].Value.Value)
	assert.Equal(t, `env("DATABASE_URL")`, ds.Properties[1].Value.String())

	enum := f.Blocks[1]
	require.Len(t, enum.Values, 2)
	assert.Equal(t, "LIVE", enum.Values[1].Name)
	require.Len(t, enum.Attributes, 1)
}

func TestParser_UnknownBlockSuggestsKeyword(t *testing.T) {
	tokens, _ := NewLexer("modle Post {\n id Int\n}\nmodel Tag { id Int }").Tokenize()
	f, errs := NewParser(tokens).Parse()
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].Line)
	assert.Equal(t, "did you mean 'model'?", errs[0].Suggestion)
	require.Len(t, f.Blocks, 1, "parser recovers at the next block")
	assert.Equal(t, "Tag", f.Blocks[0].Name)
}

func TestParser_MissingType(t *testing.T) {
	tokens, _ := NewLexer("model Post {\n  id\n}").Tokenize()
	_, errs := NewParser(tokens).Parse()
	require.NotEmpty(t, errs)
	assert.Equal(t, 3, errs[0].Line)
	assert.Contains(t, errs[0].Message, "expected type of field id")
}

func TestParser_UnclosedBlock(t *testing.T) {
	tokens, _ := NewLexer("model Post {\n  id Int @id").Tokenize()
	_, errs := NewParser(tokens).Parse()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "'}' to close model Post")
}

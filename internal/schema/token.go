package schema

import "fmt"

// TokenType identifies the kind of lexical token in a Prisma schema.
type TokenType int

const (
	TokenEOF    TokenType = iota
	TokenIdent            // model, String, authorId
	TokenString           // "quoted"
	TokenNumber           // 42, 3.14

	TokenLBrace   // {
	TokenRBrace   // }
	TokenLParen   // (
	TokenRParen   // )
	TokenLBrack   // [
	TokenRBrack   // ]
	TokenComma    // ,
	TokenColon    // :
	TokenEquals   // =
	TokenQuestion // ?
	TokenDot      // .
	TokenAt       // @
	TokenAtAt     // @@
	TokenComment  // // ... (dropped by Tokenize)
)

var tokenNames = map[TokenType]string{
	TokenEOF:      "end of file",
	TokenIdent:    "identifier",
	TokenString:   "string",
	TokenNumber:   "number",
	TokenLBrace:   "'{'",
	TokenRBrace:   "'}'",
	TokenLParen:   "'('",
	TokenRParen:   "')'",
	TokenLBrack:   "'['",
	TokenRBrack:   "']'",
	TokenComma:    "','",
	TokenColon:    "':'",
	TokenEquals:   "'='",
	TokenQuestion: "'?'",
	TokenDot:      "'.'",
	TokenAt:       "'@'",
	TokenAtAt:     "'@@'",
	TokenComment:  "comment",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a single lexical token with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int // byte offset
	Line    int // 1-based
	Col     int // 1-based
}

// Block keywords accepted at the top level of a schema.
const (
	BlockModel      = "model"
	BlockEnum       = "enum"
	BlockDatasource = "datasource"
	BlockGenerator  = "generator"
	BlockView       = "view"
	BlockType       = "type"
)

var blockKeywords = []string{BlockModel, BlockEnum, BlockDatasource, BlockGenerator, BlockView, BlockType}

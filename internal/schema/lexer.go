package schema

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes Prisma schema source text.
type Lexer struct {
	input  string
	pos    int // current byte position
	line   int // 1-based
	col    int // 1-based
	tokens []Token
	errors []*SchemaParseError
}

// NewLexer creates a lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Tokenize scans the entire input and returns all tokens plus any errors.
// Comments are dropped.
func (l *Lexer) Tokenize() ([]Token, []*SchemaParseError) {
	for {
		tok := l.next()
		if tok.Type == TokenComment {
			continue
		}
		l.tokens = append(l.tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return l.tokens, l.errors
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *Lexer) peekAt(offset int) rune {
	p := l.pos + offset
	if p >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[p:])
	return r
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.peek() {
		case ' ', '\t', '\r', '\n', '\ufeff':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) next() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos, Line: l.line, Col: l.col}
	}

	startPos, startLine, startCol := l.pos, l.line, l.col
	tok := func(t TokenType, lit string) Token {
		return Token{Type: t, Literal: lit, Pos: startPos, Line: startLine, Col: startCol}
	}
	r := l.peek()

	switch {
	case r == '/' && l.peekAt(1) == '/':
		for l.pos < len(l.input) && l.peek() != '\n' {
			l.advance()
		}
		return tok(TokenComment, l.input[startPos:l.pos])
	case r == '"':
		return l.scanString(startPos, startLine, startCol)
	case r == '-' || (r >= '0' && r <= '9'):
		if r == '-' && !(l.peekAt(1) >= '0' && l.peekAt(1) <= '9') {
			break
		}
		return l.scanNumber(startPos, startLine, startCol)
	case isIdentStart(r):
		for l.pos < len(l.input) && isIdentPart(l.peek()) {
			l.advance()
		}
		return tok(TokenIdent, l.input[startPos:l.pos])
	case r == '@' && l.peekAt(1) == '@':
		l.advance()
		l.advance()
		return tok(TokenAtAt, "@@")
	}

	l.advance()
	switch r {
	case '{':
		return tok(TokenLBrace, "{")
	case '}':
		return tok(TokenRBrace, "}")
	case '(':
		return tok(TokenLParen, "(")
	case ')':
		return tok(TokenRParen, ")")
	case '[':
		return tok(TokenLBrack, "[")
	case ']':
		return tok(TokenRBrack, "]")
	case ',':
		return tok(TokenComma, ",")
	case ':':
		return tok(TokenColon, ":")
	case '=':
		return tok(TokenEquals, "=")
	case '?':
		return tok(TokenQuestion, "?")
	case '.':
		return tok(TokenDot, ".")
	case '@':
		return tok(TokenAt, "@")
	}

	l.errors = append(l.errors, &SchemaParseError{
		Line:    startLine,
		Col:     startCol,
		Message: "unexpected character " + strconv.QuoteRune(r),
	})
	return l.next()
}

// scanString reads a double-quoted string literal.
func (l *Lexer) scanString(startPos, startLine, startCol int) Token {
	l.advance() // opening quote
	var b strings.Builder
	for l.pos < len(l.input) {
		r := l.advance()
		switch r {
		case '"':
			return Token{Type: TokenString, Literal: b.String(), Pos: startPos, Line: startLine, Col: startCol}
		case '\n':
			l.errors = append(l.errors, &SchemaParseError{Line: startLine, Col: startCol, Message: "unterminated string"})
			return Token{Type: TokenString, Literal: b.String(), Pos: startPos, Line: startLine, Col: startCol}
		case '\\':
			next := l.advance()
			switch next {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"', '\\':
				b.WriteRune(next)
			default:
				b.WriteByte('\\')
				b.WriteRune(next)
			}
			continue
		}
		b.WriteRune(r)
	}
	l.errors = append(l.errors, &SchemaParseError{Line: startLine, Col: startCol, Message: "unterminated string"})
	return Token{Type: TokenString, Literal: b.String(), Pos: startPos, Line: startLine, Col: startCol}
}

// scanNumber reads an optionally negative integer or decimal literal.
func (l *Lexer) scanNumber(startPos, startLine, startCol int) Token {
	if l.peek() == '-' {
		l.advance()
	}
	seenDot := false
	for l.pos < len(l.input) {
		r := l.peek()
		if r >= '0' && r <= '9' {
			l.advance()
		} else if r == '.' && !seenDot && l.peekAt(1) >= '0' && l.peekAt(1) <= '9' {
			seenDot = true
			l.advance()
		} else {
			break
		}
	}
	return Token{Type: TokenNumber, Literal: l.input[startPos:l.pos], Pos: startPos, Line: startLine, Col: startCol}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

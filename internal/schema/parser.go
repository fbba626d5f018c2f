package schema

import (
	"fmt"
	"slices"
)

// Parser is a recursive descent parser for the Prisma schema language.
type Parser struct {
	tokens []Token
	pos    int
	errors []*SchemaParseError
}

// NewParser creates a parser from a token slice (typically from Lexer.Tokenize).
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses the token stream into top-level blocks.
func (p *Parser) Parse() (*File, []*SchemaParseError) {
	f := &File{}
	for !p.atEnd() {
		if b := p.parseBlock(); b != nil {
			f.Blocks = append(f.Blocks, b)
		}
	}
	return f, p.errors
}

// ── Token navigation ────────────────────────────────────────────────────────

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+offset]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == TokenEOF
}

func (p *Parser) check(t TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(t TokenType, what string) (Token, bool) {
	if p.check(t) {
		return p.advance(), true
	}
	tok := p.peek()
	p.addError(tok, fmt.Sprintf("expected %s, got %s", what, describe(tok)))
	return tok, false
}

func (p *Parser) addError(tok Token, msg string) {
	p.addErrorWithSuggestion(tok, msg, "")
}

func (p *Parser) addErrorWithSuggestion(tok Token, msg, suggestion string) {
	p.errors = append(p.errors, &SchemaParseError{
		Line:       tok.Line,
		Col:        tok.Col,
		Message:    msg,
		Suggestion: suggestion,
	})
}

// synchronize skips to the next top-level block keyword at brace depth zero.
func (p *Parser) synchronize() {
	depth := 0
	for !p.atEnd() {
		tok := p.peek()
		switch tok.Type {
		case TokenLBrace:
			depth++
		case TokenRBrace:
			depth--
			if depth <= 0 {
				p.advance()
				return
			}
		case TokenIdent:
			if depth == 0 && slices.Contains(blockKeywords, tok.Literal) && p.peekAt(1).Type == TokenIdent {
				return
			}
		}
		p.advance()
	}
}

func describe(tok Token) string {
	if tok.Type == TokenEOF {
		return "end of file"
	}
	return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
}

// ── Blocks ──────────────────────────────────────────────────────────────────

func (p *Parser) parseBlock() *Block {
	kw := p.peek()
	if kw.Type != TokenIdent || !slices.Contains(blockKeywords, kw.Literal) {
		suggestion := ""
		if kw.Type == TokenIdent {
			suggestion = suggestFrom(kw.Literal, blockKeywords, 2)
		}
		p.addErrorWithSuggestion(kw, fmt.Sprintf("expected a block keyword (model, enum, datasource, generator, view, type), got %s", describe(kw)), suggestion)
		p.advance()
		p.synchronize()
		return nil
	}
	p.advance()

	name, ok := p.expect(TokenIdent, kw.Literal+" name")
	if !ok {
		p.synchronize()
		return nil
	}
	if _, ok := p.expect(TokenLBrace, "'{'"); !ok {
		p.synchronize()
		return nil
	}

	b := &Block{Kind: kw.Literal, Name: name.Literal, Line: kw.Line, Col: kw.Col}
	for !p.check(TokenRBrace) && !p.atEnd() {
		if p.check(TokenAtAt) {
			p.advance()
			if a := p.parseAttributeBody(); a != nil {
				b.Attributes = append(b.Attributes, a)
			}
			continue
		}
		switch kw.Literal {
		case BlockEnum:
			p.parseEnumValue(b)
		case BlockDatasource, BlockGenerator:
			p.parseProperty(b)
		default:
			p.parseField(b)
		}
	}
	p.expect(TokenRBrace, "'}' to close "+kw.Literal+" "+name.Literal)
	return b
}

func (p *Parser) parseField(b *Block) {
	name, ok := p.expect(TokenIdent, "field name")
	if !ok {
		p.advance()
		return
	}
	typ, ok := p.expect(TokenIdent, "type of field "+name.Literal)
	if !ok {
		return
	}
	fd := &FieldDecl{Name: name.Literal, Type: typ.Literal, Line: name.Line, Col: name.Col}
	if p.check(TokenLParen) {
		fd.TypeArgs = p.parseArgs()
	}
	if p.match(TokenLBrack) {
		if _, ok := p.expect(TokenRBrack, "']' after '['"); !ok {
			return
		}
		fd.List = true
	}
	if p.match(TokenQuestion) {
		fd.Optional = true
	}
	for p.check(TokenAt) {
		p.advance()
		if a := p.parseAttributeBody(); a != nil {
			fd.Attributes = append(fd.Attributes, a)
		}
	}
	b.Fields = append(b.Fields, fd)
}

func (p *Parser) parseEnumValue(b *Block) {
	name, ok := p.expect(TokenIdent, "enum value")
	if !ok {
		p.advance()
		return
	}
	v := &EnumValue{Name: name.Literal, Line: name.Line}
	for p.check(TokenAt) {
		p.advance()
		if a := p.parseAttributeBody(); a != nil {
			v.Attributes = append(v.Attributes, a)
		}
	}
	b.Values = append(b.Values, v)
}

func (p *Parser) parseProperty(b *Block) {
	key, ok := p.expect(TokenIdent, "property name")
	if !ok {
		p.advance()
		return
	}
	if _, ok := p.expect(TokenEquals, "'=' after "+key.Literal); !ok {
		return
	}
	val, ok := p.parseExpr()
	if !ok {
		return
	}
	b.Properties = append(b.Properties, &Property{Key: key.Literal, Value: val})
}

// parseAttributeBody parses what follows @ or @@: a dotted name and
// optional arguments.
func (p *Parser) parseAttributeBody() *Attribute {
	name, ok := p.parseDottedIdent("attribute name")
	if !ok {
		return nil
	}
	a := &Attribute{Name: name}
	if p.check(TokenLParen) {
		a.Args = p.parseArgs()
	}
	return a
}

func (p *Parser) parseDottedIdent(what string) (string, bool) {
	tok, ok := p.expect(TokenIdent, what)
	if !ok {
		return "", false
	}
	name := tok.Literal
	for p.check(TokenDot) && p.peekAt(1).Type == TokenIdent {
		p.advance()
		name += "." + p.advance().Literal
	}
	return name, true
}

// ── Expressions ─────────────────────────────────────────────────────────────

// parseArgs parses "(" [arg {"," arg}] [","] ")".
func (p *Parser) parseArgs() []*Arg {
	p.advance() // (
	var args []*Arg
	for !p.check(TokenRParen) && !p.atEnd() {
		arg := &Arg{}
		if p.check(TokenIdent) && p.peekAt(1).Type == TokenColon {
			arg.Name = p.advance().Literal
			p.advance() // :
		}
		val, ok := p.parseExpr()
		if !ok {
			p.skipTo(TokenRParen)
			break
		}
		arg.Value = val
		args = append(args, arg)
		if !p.match(TokenComma) {
			break
		}
	}
	p.expect(TokenRParen, "')'")
	return args
}

func (p *Parser) parseExpr() (Expr, bool) {
	tok := p.peek()
	switch tok.Type {
	case TokenString:
		p.advance()
		return Expr{Kind: ExprString, Value: tok.Literal}, true
	case TokenNumber:
		p.advance()
		return Expr{Kind: ExprNumber, Value: tok.Literal}, true
	case TokenIdent:
		name, _ := p.parseDottedIdent("identifier")
		if p.check(TokenLParen) {
			return Expr{Kind: ExprCall, Value: name, Args: p.parseArgs()}, true
		}
		return Expr{Kind: ExprIdent, Value: name}, true
	case TokenLBrack:
		p.advance()
		e := Expr{Kind: ExprArray}
		for !p.check(TokenRBrack) && !p.atEnd() {
			item, ok := p.parseExpr()
			if !ok {
				p.skipTo(TokenRBrack)
				break
			}
			e.Items = append(e.Items, item)
			if !p.match(TokenComma) {
				break
			}
		}
		p.expect(TokenRBrack, "']'")
		return e, true
	}
	p.addError(tok, "expected a value, got "+describe(tok))
	return Expr{}, false
}

func (p *Parser) skipTo(t TokenType) {
	for !p.atEnd() && !p.check(t) && !p.check(TokenRBrace) {
		p.advance()
	}
}

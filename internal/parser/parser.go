package parser

import (
	"fmt"
	"strconv"

	"github.com/huangsam/virtuc/internal/ast"
	"github.com/huangsam/virtuc/internal/headers"
	"github.com/huangsam/virtuc/internal/lexer"
	"github.com/huangsam/virtuc/internal/token"
)

// Error is a fatal syntax error. The parser stops at the first one; there is
// no recovery or synchronization.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

type Parser struct {
	l *lexer.Lexer

	cur  token.Token
	peek token.Token

	err *Error
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	// init cur/peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse tokenizes and parses a whole source string.
func Parse(source string) (*ast.Program, error) {
	l := lexer.New(source)
	p := New(l)
	prog := p.ParseProgram()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}

// Err returns the first syntax or lexical error hit during parsing, if any.
func (p *Parser) Err() error {
	if p.err == nil {
		return nil
	}
	return p.err
}

func (p *Parser) nextToken() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
	if p.peek.Kind == token.Illegal && p.err == nil {
		if lexErr, ok := p.l.Err().(*lexer.Error); ok {
			p.err = &Error{Pos: lexErr.Pos, Msg: lexErr.Msg}
		} else {
			p.err = &Error{Pos: p.peek.Pos, Msg: "illegal token"}
		}
	}
}

func (p *Parser) errorf(pos token.Position, format string, args ...interface{}) {
	if p.err == nil {
		p.err = &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
	}
}

func (p *Parser) expect(kind token.Kind) token.Token {
	if p.cur.Kind != kind {
		p.errorf(p.cur.Pos, "expected %s, got %s (%q)", kind, p.cur.Kind, p.cur.Lexeme)
	}
	tok := p.cur
	p.nextToken()
	return tok
}

// ---------- Top-level ----------

// ParseProgram parses top-level items in any order: includes, extern
// declarations, function definitions. After parsing, includes are resolved
// through the header registry and appended to the extern table, deduplicated
// by name.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}

	for p.cur.Kind != token.EOF && p.err == nil {
		switch p.cur.Kind {
		case token.Include:
			prog.Includes = append(prog.Includes, &ast.IncludeDecl{
				Header:  p.cur.Lexeme,
				HashPos: p.cur.Pos,
			})
			p.nextToken()
		case token.Extern:
			ext := p.parseExternDecl()
			if ext != nil {
				prog.Externs = append(prog.Externs, ext)
			}
		case token.IntType, token.FloatType, token.StringType:
			fn := p.parseFunDecl()
			if fn != nil {
				prog.Funcs = append(prog.Funcs, fn)
			}
		default:
			p.errorf(p.cur.Pos, "unexpected token at top level: %s (%q)", p.cur.Kind, p.cur.Lexeme)
		}
	}

	p.resolveIncludes(prog)

	return prog
}

// resolveIncludes appends the registry declarations for each include,
// skipping names already declared. Two identical includes contribute once.
func (p *Parser) resolveIncludes(prog *ast.Program) {
	seen := make(map[string]bool, len(prog.Externs))
	for _, ext := range prog.Externs {
		seen[ext.Name] = true
	}

	for _, inc := range prog.Includes {
		for _, ext := range headers.ExternsFor(inc.Header) {
			if seen[ext.Name] {
				continue
			}
			seen[ext.Name] = true
			prog.Externs = append(prog.Externs, ext)
		}
	}
}

func (p *Parser) parseType() ast.Type {
	switch p.cur.Kind {
	case token.IntType:
		p.nextToken()
		return ast.TypeInt
	case token.FloatType:
		p.nextToken()
		return ast.TypeFloat
	case token.StringType:
		p.nextToken()
		return ast.TypeString
	default:
		p.errorf(p.cur.Pos, "expected type, got %s (%q)", p.cur.Kind, p.cur.Lexeme)
		p.nextToken()
		return ast.TypeInt
	}
}

// parseExternDecl parses `extern Type name(Type, Type, ...);`. Parameter
// names are accepted and ignored; `...` must be last.
func (p *Parser) parseExternDecl() *ast.ExternDecl {
	p.nextToken() // consume 'extern'

	ret := p.parseType()
	nameTok := p.expect(token.Ident)

	p.expect(token.LParen)

	decl := &ast.ExternDecl{
		Return:  ret,
		Name:    nameTok.Lexeme,
		NamePos: nameTok.Pos,
	}

	if p.cur.Kind != token.RParen {
		for p.err == nil {
			if p.cur.Kind == token.Ellipsis {
				decl.IsVariadic = true
				p.nextToken()
				break
			}
			decl.ParamTypes = append(decl.ParamTypes, p.parseType())
			if p.cur.Kind == token.Ident {
				p.nextToken()
			}
			if p.cur.Kind == token.Comma {
				p.nextToken()
				continue
			}
			break
		}
	}

	p.expect(token.RParen)
	p.expect(token.Semicolon)

	if p.err != nil {
		return nil
	}
	return decl
}

func (p *Parser) parseFunDecl() *ast.FunDecl {
	ret := p.parseType()
	nameTok := p.expect(token.Ident)

	p.expect(token.LParen)

	var params []*ast.Param
	if p.cur.Kind != token.RParen {
		for p.err == nil {
			ty := p.parseType()
			paramTok := p.expect(token.Ident)
			params = append(params, &ast.Param{
				Type:    ty,
				Name:    paramTok.Lexeme,
				NamePos: paramTok.Pos,
			})
			if p.cur.Kind == token.Comma {
				p.nextToken()
				continue
			}
			break
		}
	}
	p.expect(token.RParen)

	body := p.parseBlock()

	if p.err != nil {
		return nil
	}
	return &ast.FunDecl{
		Return:  ret,
		Name:    nameTok.Lexeme,
		NamePos: nameTok.Pos,
		Params:  params,
		Body:    body,
	}
}

// ---------- Statements ----------

func (p *Parser) parseBlock() *ast.BlockStmt {
	lbrace := p.expect(token.LBrace)

	block := &ast.BlockStmt{LBrace: lbrace.Pos}
	for p.cur.Kind != token.RBrace && p.cur.Kind != token.EOF && p.err == nil {
		st := p.parseStmt()
		if st != nil {
			block.Stmts = append(block.Stmts, st)
		}
	}

	rbrace := p.expect(token.RBrace)
	block.RBrace = rbrace.Pos
	return block
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.cur.Kind {
	case token.IntType, token.FloatType, token.StringType:
		return p.parseDeclStmt()
	case token.Return:
		return p.parseReturnStmt()
	case token.If:
		return p.parseIfStmt()
	case token.For:
		return p.parseForStmt()
	case token.LBrace:
		return p.parseBlock()
	default:
		expr := p.parseExpr()
		p.expect(token.Semicolon)
		if p.err != nil {
			return nil
		}
		return &ast.ExprStmt{Expression: expr}
	}
}

func (p *Parser) parseDeclStmt() ast.Stmt {
	ty := p.parseType()
	nameTok := p.expect(token.Ident)

	var init ast.Expr
	if p.cur.Kind == token.Assign {
		p.nextToken()
		init = p.parseExpr()
	}
	p.expect(token.Semicolon)

	if p.err != nil {
		return nil
	}
	return &ast.DeclStmt{
		Type:    ty,
		Name:    nameTok.Lexeme,
		NamePos: nameTok.Pos,
		Init:    init,
	}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	retTok := p.cur
	p.nextToken()

	var result ast.Expr
	if p.cur.Kind != token.Semicolon {
		result = p.parseExpr()
	}
	p.expect(token.Semicolon)

	if p.err != nil {
		return nil
	}
	return &ast.ReturnStmt{
		ReturnPos: retTok.Pos,
		Result:    result,
	}
}

func (p *Parser) parseIfStmt() ast.Stmt {
	ifTok := p.cur
	p.nextToken()

	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)

	then := p.parseBlock()

	var elseStmt ast.Stmt
	if p.cur.Kind == token.Else {
		p.nextToken()
		if p.cur.Kind == token.If {
			elseStmt = p.parseIfStmt()
		} else {
			elseStmt = p.parseBlock()
		}
	}

	if p.err != nil {
		return nil
	}
	return &ast.IfStmt{
		IfPos: ifTok.Pos,
		Cond:  cond,
		Then:  then,
		Else:  elseStmt,
	}
}

// parseForStmt parses `for (init; cond; update) { ... }`. The init clause is
// a declaration, an expression statement, or empty; cond and update are
// independently optional.
func (p *Parser) parseForStmt() ast.Stmt {
	forTok := p.cur
	p.nextToken()
	p.expect(token.LParen)

	var init ast.Stmt
	switch p.cur.Kind {
	case token.Semicolon:
		p.nextToken()
	case token.IntType, token.FloatType, token.StringType:
		init = p.parseDeclStmt()
	default:
		expr := p.parseExpr()
		p.expect(token.Semicolon)
		init = &ast.ExprStmt{Expression: expr}
	}

	var cond ast.Expr
	if p.cur.Kind != token.Semicolon {
		cond = p.parseExpr()
	}
	p.expect(token.Semicolon)

	var update ast.Expr
	if p.cur.Kind != token.RParen {
		update = p.parseExpr()
	}
	p.expect(token.RParen)

	body := p.parseBlock()

	if p.err != nil {
		return nil
	}
	return &ast.ForStmt{
		ForPos: forTok.Pos,
		Init:   init,
		Cond:   cond,
		Update: update,
		Body:   body,
	}
}

// ---------- Expressions (with priorities) ----------

func (p *Parser) parseExpr() ast.Expr {
	return p.parseAssign()
}

// parseAssign handles `identifier = expr` (right-associative); anything else
// falls through to the comparison level.
func (p *Parser) parseAssign() ast.Expr {
	if p.cur.Kind == token.Ident && p.peek.Kind == token.Assign {
		nameTok := p.cur
		p.nextToken() // consume identifier
		p.nextToken() // consume '='
		value := p.parseAssign()
		return &ast.AssignExpr{
			Name:    nameTok.Lexeme,
			NamePos: nameTok.Pos,
			Value:   value,
		}
	}
	return p.parseComparison()
}

// parseComparison admits at most one operator application: comparisons do
// not chain and do not nest inside further comparisons, so `a < b < c`
// yields `(a < b)` and a syntax error on the trailing `< c`.
func (p *Parser) parseComparison() ast.Expr {
	left := p.parseAdditive()
	if p.cur.Kind.IsComparison() {
		opTok := p.cur
		p.nextToken()
		right := p.parseAdditive()
		return &ast.BinaryExpr{
			Left:  left,
			Op:    opTok.Kind,
			OpPos: opTok.Pos,
			Right: right,
		}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.cur.Kind == token.Plus || p.cur.Kind == token.Minus {
		opTok := p.cur
		p.nextToken()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{
			Left:  left,
			Op:    opTok.Kind,
			OpPos: opTok.Pos,
			Right: right,
		}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parsePrimary()
	for p.cur.Kind == token.Star || p.cur.Kind == token.Slash {
		opTok := p.cur
		p.nextToken()
		right := p.parsePrimary()
		left = &ast.BinaryExpr{
			Left:  left,
			Op:    opTok.Kind,
			OpPos: opTok.Pos,
			Right: right,
		}
	}
	return left
}

func (p *Parser) parsePrimary() ast.Expr {
	switch p.cur.Kind {
	case token.Ident:
		if p.peek.Kind == token.LParen {
			return p.parseCall()
		}
		tok := p.cur
		p.nextToken()
		return &ast.IdentExpr{
			Name:    tok.Lexeme,
			NamePos: tok.Pos,
		}
	case token.Int:
		tok := p.cur
		p.nextToken()
		val, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			p.errorf(tok.Pos, "invalid integer literal %q: %v", tok.Lexeme, err)
			val = 0
		}
		return &ast.IntLiteral{
			Value:  val,
			LitPos: tok.Pos,
			Raw:    tok.Lexeme,
		}
	case token.Float:
		tok := p.cur
		p.nextToken()
		val, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.errorf(tok.Pos, "invalid float literal %q: %v", tok.Lexeme, err)
			val = 0
		}
		return &ast.FloatLiteral{
			Value:  val,
			LitPos: tok.Pos,
			Raw:    tok.Lexeme,
		}
	case token.String:
		tok := p.cur
		p.nextToken()
		return &ast.StringLiteral{
			Value:  tok.Lexeme,
			LitPos: tok.Pos,
		}
	case token.LParen:
		p.nextToken()
		expr := p.parseExpr()
		p.expect(token.RParen)
		return expr
	default:
		p.errorf(p.cur.Pos, "expected expression, got %s (%q)", p.cur.Kind, p.cur.Lexeme)
		p.nextToken()
		return nil
	}
}

func (p *Parser) parseCall() ast.Expr {
	nameTok := p.cur
	p.nextToken() // consume identifier
	p.nextToken() // consume '('

	var args []ast.Expr
	if p.cur.Kind != token.RParen {
		for p.err == nil {
			args = append(args, p.parseExpr())
			if p.cur.Kind == token.Comma {
				p.nextToken()
				continue
			}
			break
		}
	}
	p.expect(token.RParen)

	return &ast.CallExpr{
		Name:    nameTok.Lexeme,
		NamePos: nameTok.Pos,
		Args:    args,
	}
}

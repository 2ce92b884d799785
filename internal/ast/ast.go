package ast

import "github.com/huangsam/virtuc/internal/token"

// Basic interfaces

type Node interface {
	Pos() token.Position
}

type Stmt interface {
	Node
	stmtNode()
}

type Expr interface {
	Node
	exprNode()
}

// Type is the closed set of value types in the language.
type Type int

const (
	TypeInt Type = iota
	TypeFloat
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	default:
		return "invalid"
	}
}

// Program / top-level declarations

type Program struct {
	Includes []*IncludeDecl
	Externs  []*ExternDecl
	Funcs    []*FunDecl
}

func (p *Program) Pos() token.Position {
	if len(p.Includes) > 0 {
		return p.Includes[0].Pos()
	}
	if len(p.Externs) > 0 {
		return p.Externs[0].Pos()
	}
	if len(p.Funcs) > 0 {
		return p.Funcs[0].Pos()
	}
	return token.Position{}
}

type IncludeDecl struct {
	Header  string // e.g. "stdio.h"
	HashPos token.Position
}

func (d *IncludeDecl) Pos() token.Position { return d.HashPos }

// ExternDecl declares a host function: a fixed parameter-type prefix plus an
// optional trailing variadic marker.
type ExternDecl struct {
	Return     Type
	Name       string
	NamePos    token.Position
	ParamTypes []Type
	IsVariadic bool
}

func (d *ExternDecl) Pos() token.Position { return d.NamePos }

type FunDecl struct {
	Return  Type
	Name    string
	NamePos token.Position
	Params  []*Param // declaration order is the calling-convention order
	Body    *BlockStmt
}

func (f *FunDecl) Pos() token.Position { return f.NamePos }

type Param struct {
	Type    Type
	Name    string
	NamePos token.Position
}

func (p *Param) Pos() token.Position { return p.NamePos }

// ---------- Statements ----------

type BlockStmt struct {
	LBrace token.Position
	Stmts  []Stmt
	RBrace token.Position
}

func (b *BlockStmt) Pos() token.Position { return b.LBrace }
func (b *BlockStmt) stmtNode()           {}

type DeclStmt struct {
	Type    Type
	Name    string
	NamePos token.Position
	Init    Expr // may be nil
}

func (s *DeclStmt) Pos() token.Position { return s.NamePos }
func (s *DeclStmt) stmtNode()           {}

type ReturnStmt struct {
	ReturnPos token.Position
	Result    Expr // may be nil for `return;`
}

func (s *ReturnStmt) Pos() token.Position { return s.ReturnPos }
func (s *ReturnStmt) stmtNode()           {}

type IfStmt struct {
	IfPos token.Position
	Cond  Expr
	Then  *BlockStmt
	Else  Stmt // either *BlockStmt or *IfStmt (else-if), may be nil
}

func (s *IfStmt) Pos() token.Position { return s.IfPos }
func (s *IfStmt) stmtNode()           {}

type ForStmt struct {
	ForPos token.Position
	Init   Stmt // *DeclStmt or *ExprStmt, may be nil
	Cond   Expr // may be nil
	Update Expr // may be nil
	Body   *BlockStmt
}

func (s *ForStmt) Pos() token.Position { return s.ForPos }
func (s *ForStmt) stmtNode()           {}

type ExprStmt struct {
	Expression Expr
}

func (s *ExprStmt) Pos() token.Position { return s.Expression.Pos() }
func (s *ExprStmt) stmtNode()           {}

// ---------- Expressions ----------

type IdentExpr struct {
	Name    string
	NamePos token.Position
}

func (e *IdentExpr) Pos() token.Position { return e.NamePos }
func (e *IdentExpr) exprNode()           {}

type IntLiteral struct {
	Value  int64
	LitPos token.Position
	Raw    string
}

func (e *IntLiteral) Pos() token.Position { return e.LitPos }
func (e *IntLiteral) exprNode()           {}

type FloatLiteral struct {
	Value  float64
	LitPos token.Position
	Raw    string
}

func (e *FloatLiteral) Pos() token.Position { return e.LitPos }
func (e *FloatLiteral) exprNode()           {}

type StringLiteral struct {
	Value  string
	LitPos token.Position
}

func (e *StringLiteral) Pos() token.Position { return e.LitPos }
func (e *StringLiteral) exprNode()           {}

type BinaryExpr struct {
	Left  Expr
	Op    token.Kind
	OpPos token.Position
	Right Expr
}

func (e *BinaryExpr) Pos() token.Position { return e.Left.Pos() }
func (e *BinaryExpr) exprNode()           {}

type CallExpr struct {
	Name    string
	NamePos token.Position
	Args    []Expr
}

func (e *CallExpr) Pos() token.Position { return e.NamePos }
func (e *CallExpr) exprNode()           {}

// AssignExpr is the expression form `name = value`; it is right-associative
// and only an identifier may appear on the left.
type AssignExpr struct {
	Name    string
	NamePos token.Position
	Value   Expr
}

func (e *AssignExpr) Pos() token.Position { return e.NamePos }
func (e *AssignExpr) exprNode()           {}

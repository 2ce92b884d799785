package token

import "fmt"

type Kind int

const (
	Illegal Kind = iota
	EOF

	Ident   // Identifier
	Int     // Integer literal
	Float   // Floating-point literal
	String  // String literal (escapes already resolved)
	Include // #include <header>; Lexeme holds the header name

	// Keywords
	IntType    // int
	FloatType  // float
	StringType // string
	If
	Else
	For
	Return
	Extern

	// Operators
	Assign // =

	Plus  // +
	Minus // -
	Star  // *
	Slash // /

	Eq    // ==
	NotEq // !=
	Lt    // <
	LtEq  // <=
	Gt    // >
	GtEq  // >=

	Ellipsis // ...

	// Symbols
	Comma     // ,
	Semicolon // ;

	LParen // (
	RParen // )
	LBrace // {
	RBrace // }
)

type Position struct {
	Line   int
	Column int
}

type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Position
}

func (k Kind) String() string {
	switch k {
	case Illegal:
		return "Illegal"
	case EOF:
		return "EOF"
	case Ident:
		return "Ident"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	case Include:
		return "Include"
	case IntType:
		return "IntType"
	case FloatType:
		return "FloatType"
	case StringType:
		return "StringType"
	case If:
		return "If"
	case Else:
		return "Else"
	case For:
		return "For"
	case Return:
		return "Return"
	case Extern:
		return "Extern"
	case Assign:
		return "Assign"
	case Plus:
		return "Plus"
	case Minus:
		return "Minus"
	case Star:
		return "Star"
	case Slash:
		return "Slash"
	case Eq:
		return "Eq"
	case NotEq:
		return "NotEq"
	case Lt:
		return "Lt"
	case LtEq:
		return "LtEq"
	case Gt:
		return "Gt"
	case GtEq:
		return "GtEq"
	case Ellipsis:
		return "Ellipsis"
	case Comma:
		return "Comma"
	case Semicolon:
		return "Semicolon"
	case LParen:
		return "LParen"
	case RParen:
		return "RParen"
	case LBrace:
		return "LBrace"
	case RBrace:
		return "RBrace"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsComparison reports whether k is one of the six comparison operators.
func (k Kind) IsComparison() bool {
	switch k {
	case Eq, NotEq, Lt, LtEq, Gt, GtEq:
		return true
	default:
		return false
	}
}

var keywords = map[string]Kind{
	"int":    IntType,
	"float":  FloatType,
	"string": StringType,
	"if":     If,
	"else":   Else,
	"for":    For,
	"return": Return,
	"extern": Extern,
}

func LookupIdent(lit string) Kind {
	if kind, ok := keywords[lit]; ok {
		return kind
	}
	return Ident
}

package lexer

import (
	"fmt"
	"unicode"

	"github.com/huangsam/virtuc/internal/token"
)

// Error is a fatal lexical error: some span of the input matched no token
// pattern. Lexing does not recover past it.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

type Lexer struct {
	input []rune

	pos int

	ch   rune
	line int
	col  int

	err *Error
}

func New(input string) *Lexer {
	l := &Lexer{
		input: []rune(input),
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// Lex tokenizes the whole source up to EOF. Any unmatched input aborts the
// call; no partial token stream is returned.
func Lex(source string) ([]token.Token, error) {
	l := New(source)
	var toks []token.Token
	for {
		tok := l.NextToken()
		if tok.Kind == token.Illegal {
			return nil, l.Err()
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

// Err returns the fatal error recorded by the last Illegal token, if any.
func (l *Lexer) Err() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := token.Position{
		Line:   l.line,
		Column: l.col,
	}

	ch := l.ch

	// EOF
	if ch == 0 {
		return token.Token{
			Kind:   token.EOF,
			Lexeme: "",
			Pos:    pos,
		}
	}

	// Numbers
	if isDigit(ch) {
		lit := l.readNumber()
		kind := token.Int
		for _, r := range lit {
			if r == '.' {
				kind = token.Float
				break
			}
		}
		return token.Token{
			Kind:   kind,
			Lexeme: lit,
			Pos:    pos,
		}
	}

	// Identifiers / keywords
	if isLetter(ch) {
		lit := l.readIdentifier()
		return token.Token{
			Kind:   token.LookupIdent(lit),
			Lexeme: lit,
			Pos:    pos,
		}
	}

	// String literals, escapes resolved in place
	if ch == '"' {
		l.readChar() // consume opening quote
		lit, ok := l.readString(pos)
		if !ok {
			return token.Token{Kind: token.Illegal, Lexeme: "", Pos: pos}
		}
		return token.Token{
			Kind:   token.String,
			Lexeme: lit,
			Pos:    pos,
		}
	}

	// #include <header>
	if ch == '#' {
		return l.readInclude(pos)
	}

	// Single- and two-character tokens; two-character forms win
	var kind token.Kind
	var lexeme string

	switch ch {
	case ';':
		kind = token.Semicolon
		lexeme = ";"
	case ',':
		kind = token.Comma
		lexeme = ","
	case '(':
		kind = token.LParen
		lexeme = "("
	case ')':
		kind = token.RParen
		lexeme = ")"
	case '{':
		kind = token.LBrace
		lexeme = "{"
	case '}':
		kind = token.RBrace
		lexeme = "}"
	case '+':
		kind = token.Plus
		lexeme = "+"
	case '-':
		kind = token.Minus
		lexeme = "-"
	case '*':
		kind = token.Star
		lexeme = "*"
	case '/':
		kind = token.Slash
		lexeme = "/"
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			kind = token.Eq
			lexeme = "=="
		} else {
			kind = token.Assign
			lexeme = "="
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			kind = token.NotEq
			lexeme = "!="
		} else {
			l.errorf(pos, "unexpected character %q", ch)
			return token.Token{Kind: token.Illegal, Lexeme: "!", Pos: pos}
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			kind = token.LtEq
			lexeme = "<="
		} else {
			kind = token.Lt
			lexeme = "<"
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			kind = token.GtEq
			lexeme = ">="
		} else {
			kind = token.Gt
			lexeme = ">"
		}
	case '.':
		if l.peekChar() == '.' && l.peekCharAt(1) == '.' {
			l.readChar()
			l.readChar()
			kind = token.Ellipsis
			lexeme = "..."
		} else {
			l.errorf(pos, "unexpected character %q", ch)
			return token.Token{Kind: token.Illegal, Lexeme: ".", Pos: pos}
		}
	default:
		l.errorf(pos, "unexpected character %q", ch)
		return token.Token{Kind: token.Illegal, Lexeme: string(ch), Pos: pos}
	}

	l.readChar()

	return token.Token{
		Kind:   kind,
		Lexeme: lexeme,
		Pos:    pos,
	}
}

// Helpers

func (l *Lexer) readChar() {
	if l.pos >= len(l.input) {
		// Keep advancing past EOF so l.pos-1 stays one past the last rune
		// consumed; readIdentifier and readNumber slice with that invariant.
		l.ch = 0
		l.pos++
		return
	}

	l.ch = l.input[l.pos]
	l.pos++

	if l.ch == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *Lexer) peekChar() rune {
	return l.peekCharAt(0)
}

func (l *Lexer) peekCharAt(n int) rune {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) errorf(pos token.Position, format string, args ...interface{}) {
	if l.err == nil {
		l.err = &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for unicode.IsSpace(l.ch) {
			l.readChar()
		}

		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}

		break
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos - 1 // current rune is already in l.ch
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return string(l.input[start : l.pos-1])
}

func (l *Lexer) readNumber() string {
	start := l.pos - 1
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return string(l.input[start : l.pos-1])
}

// readString consumes the body of a double-quoted string literal, resolving
// C escapes as it goes. The opening quote is already consumed.
func (l *Lexer) readString(startPos token.Position) (string, bool) {
	var sb []rune

	for {
		if l.ch == 0 || l.ch == '\n' {
			l.errorf(startPos, "unterminated string literal")
			return "", false
		}
		if l.ch == '"' {
			l.readChar() // consume closing quote
			return string(sb), true
		}
		if l.ch == '\\' {
			l.readChar()
			if l.ch == 0 {
				// Lone trailing backslash stays literal.
				sb = append(sb, '\\')
				continue
			}
			sb = append(sb, l.readEscape()...)
			continue
		}
		sb = append(sb, l.ch)
		l.readChar()
	}
}

// readEscape resolves the escape whose introducing backslash is already
// consumed and whose first character is in l.ch. Unknown escapes pass the
// following character through literally.
func (l *Lexer) readEscape() []rune {
	ch := l.ch
	l.readChar()

	switch ch {
	case 'n':
		return []rune{'\n'}
	case 't':
		return []rune{'\t'}
	case 'r':
		return []rune{'\r'}
	case '"':
		return []rune{'"'}
	case '\'':
		return []rune{'\''}
	case '0':
		return []rune{0}
	case 'x':
		val := 0
		digits := 0
		for digits < 2 {
			d, ok := hexDigit(l.ch)
			if !ok {
				break
			}
			val = val*16 + d
			digits++
			l.readChar()
		}
		if digits == 0 {
			// \x without hex digits falls back to a literal 'x'.
			return []rune{'x'}
		}
		return []rune{rune(val)}
	default:
		return []rune{ch}
	}
}

// readInclude consumes `#include <header>` as one token carrying the header
// name. Anything else after '#' is a lexical error.
func (l *Lexer) readInclude(pos token.Position) token.Token {
	l.readChar() // consume '#'

	word := l.readIdentifier()
	if word != "include" {
		l.errorf(pos, "expected 'include' after '#', got %q", word)
		return token.Token{Kind: token.Illegal, Lexeme: word, Pos: pos}
	}

	for l.ch == ' ' || l.ch == '\t' {
		l.readChar()
	}

	if l.ch != '<' {
		l.errorf(pos, "expected '<' after '#include'")
		return token.Token{Kind: token.Illegal, Lexeme: "", Pos: pos}
	}
	l.readChar() // consume '<'

	var name []rune
	for l.ch != '>' {
		if l.ch == 0 || l.ch == '\n' {
			l.errorf(pos, "unterminated include directive")
			return token.Token{Kind: token.Illegal, Lexeme: "", Pos: pos}
		}
		name = append(name, l.ch)
		l.readChar()
	}
	l.readChar() // consume '>'

	return token.Token{
		Kind:   token.Include,
		Lexeme: string(name),
		Pos:    pos,
	}
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func hexDigit(ch rune) (int, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0'), true
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10, true
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10, true
	default:
		return 0, false
	}
}

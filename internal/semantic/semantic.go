// Package semantic validates a parsed program. Analysis is two-phase and
// never fail-fast: every detectable error is collected and the full set is
// returned to the caller.
package semantic

import (
	"fmt"

	"github.com/huangsam/virtuc/internal/ast"
	"github.com/huangsam/virtuc/internal/token"
)

type ErrorKind int

const (
	UndefinedVariable ErrorKind = iota
	DuplicateVariable
	TypeMismatch
	UndefinedFunction
	WrongArgumentCount
	ReturnTypeMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case UndefinedVariable:
		return "UndefinedVariable"
	case DuplicateVariable:
		return "DuplicateVariable"
	case TypeMismatch:
		return "TypeMismatch"
	case UndefinedFunction:
		return "UndefinedFunction"
	case WrongArgumentCount:
		return "WrongArgumentCount"
	case ReturnTypeMismatch:
		return "ReturnTypeMismatch"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

type Error struct {
	Kind ErrorKind
	Pos  token.Position
	Msg  string
}

func (e Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// signature is the call-checking view of a function or extern declaration.
type signature struct {
	ret      ast.Type
	params   []ast.Type
	variadic bool
	isExtern bool
}

type checker struct {
	funcs  map[string]signature
	scopes []map[string]ast.Type

	currentReturn ast.Type

	errors []Error
}

// Analyze type-checks a program and returns all diagnostics. An empty result
// means the program is valid. Analyzing the same program twice yields the
// same diagnostics.
func Analyze(prog *ast.Program) []Error {
	c := &checker{
		funcs: make(map[string]signature),
	}

	c.collectGlobals(prog)

	for _, fn := range prog.Funcs {
		c.checkFunc(fn)
	}

	return c.errors
}

func (c *checker) addError(kind ErrorKind, pos token.Position, format string, args ...interface{}) {
	c.errors = append(c.errors, Error{
		Kind: kind,
		Pos:  pos,
		Msg:  fmt.Sprintf(format, args...),
	})
}

// ----- Phase 1: global collection -----

// collectGlobals registers every extern and function signature. A repeated
// name within its namespace is a duplicate-declaration error; the first
// declaration's signature stays in force for call checking.
func (c *checker) collectGlobals(prog *ast.Program) {
	for _, ext := range prog.Externs {
		if prev, ok := c.funcs[ext.Name]; ok {
			if prev.isExtern {
				c.addError(DuplicateVariable, ext.Pos(), "duplicate declaration of extern function %q", ext.Name)
			}
			continue
		}
		c.funcs[ext.Name] = signature{
			ret:      ext.Return,
			params:   ext.ParamTypes,
			variadic: ext.IsVariadic,
			isExtern: true,
		}
	}

	for _, fn := range prog.Funcs {
		params := make([]ast.Type, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = p.Type
		}
		if prev, ok := c.funcs[fn.Name]; ok && !prev.isExtern {
			c.addError(DuplicateVariable, fn.Pos(), "duplicate declaration of function %q", fn.Name)
			continue
		}
		// A definition takes over an extern declaration of the same name.
		c.funcs[fn.Name] = signature{
			ret:    fn.Return,
			params: params,
		}
	}
}

// ----- Phase 2: per-function checking -----

func (c *checker) checkFunc(fn *ast.FunDecl) {
	c.currentReturn = fn.Return
	c.scopes = []map[string]ast.Type{make(map[string]ast.Type)}

	for _, p := range fn.Params {
		c.declare(p.Name, p.Type, p.Pos())
	}

	for _, st := range fn.Body.Stmts {
		c.checkStmt(st)
	}

	c.scopes = nil
}

// ----- Scopes -----

func (c *checker) pushScope() {
	c.scopes = append(c.scopes, make(map[string]ast.Type))
}

func (c *checker) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// declare binds a name in the innermost scope. Re-declaring a name already
// present there is an error and the first binding stays; shadowing an outer
// scope is legal.
func (c *checker) declare(name string, ty ast.Type, pos token.Position) {
	inner := c.scopes[len(c.scopes)-1]
	if _, exists := inner[name]; exists {
		c.addError(DuplicateVariable, pos, "duplicate declaration of %q", name)
		return
	}
	inner[name] = ty
}

// lookup walks scopes innermost to outermost.
func (c *checker) lookup(name string) (ast.Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if ty, ok := c.scopes[i][name]; ok {
			return ty, true
		}
	}
	return 0, false
}

// ----- Statements -----

func (c *checker) checkBlock(b *ast.BlockStmt) {
	c.pushScope()
	for _, st := range b.Stmts {
		c.checkStmt(st)
	}
	c.popScope()
}

func (c *checker) checkStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.DeclStmt:
		c.checkDecl(st)
	case *ast.ReturnStmt:
		c.checkReturn(st)
	case *ast.BlockStmt:
		c.checkBlock(st)
	case *ast.IfStmt:
		c.checkIf(st)
	case *ast.ForStmt:
		c.checkFor(st)
	case *ast.ExprStmt:
		c.checkExpr(st.Expression)
	}
}

func (c *checker) checkDecl(s *ast.DeclStmt) {
	if s.Init != nil {
		if ty, known := c.checkExpr(s.Init); known && ty != s.Type {
			c.addError(TypeMismatch, s.Init.Pos(),
				"cannot initialize %s variable %q with expression of type %s", s.Type, s.Name, ty)
		}
	}
	c.declare(s.Name, s.Type, s.Pos())
}

func (c *checker) checkReturn(s *ast.ReturnStmt) {
	if s.Result == nil {
		c.addError(ReturnTypeMismatch, s.Pos(),
			"function must return a value of type %s", c.currentReturn)
		return
	}
	if ty, known := c.checkExpr(s.Result); known && ty != c.currentReturn {
		c.addError(ReturnTypeMismatch, s.Result.Pos(),
			"cannot return expression of type %s from function returning %s", ty, c.currentReturn)
	}
}

func (c *checker) checkIf(s *ast.IfStmt) {
	c.checkCond(s.Cond)
	c.checkBlock(s.Then)
	if s.Else != nil {
		c.checkStmt(s.Else)
	}
}

func (c *checker) checkFor(s *ast.ForStmt) {
	c.pushScope()
	if s.Init != nil {
		c.checkStmt(s.Init)
	}
	if s.Cond != nil {
		c.checkCond(s.Cond)
	}
	if s.Update != nil {
		c.checkExpr(s.Update)
	}
	c.checkBlock(s.Body)
	c.popScope()
}

// checkCond enforces the boolean-as-int rule for test expressions.
func (c *checker) checkCond(cond ast.Expr) {
	if ty, known := c.checkExpr(cond); known && ty != ast.TypeInt {
		c.addError(TypeMismatch, cond.Pos(), "condition must have type int, got %s", ty)
	}
}

// ----- Expressions -----

// checkExpr returns the expression's type and whether it is known. An
// unresolved name yields an unknown type that propagates without producing
// further errors.
func (c *checker) checkExpr(e ast.Expr) (ast.Type, bool) {
	switch ex := e.(type) {
	case *ast.IntLiteral:
		return ast.TypeInt, true
	case *ast.FloatLiteral:
		return ast.TypeFloat, true
	case *ast.StringLiteral:
		return ast.TypeString, true
	case *ast.IdentExpr:
		ty, ok := c.lookup(ex.Name)
		if !ok {
			c.addError(UndefinedVariable, ex.Pos(), "undefined variable %q", ex.Name)
			return 0, false
		}
		return ty, true
	case *ast.BinaryExpr:
		return c.checkBinary(ex)
	case *ast.AssignExpr:
		return c.checkAssign(ex)
	case *ast.CallExpr:
		return c.checkCall(ex)
	default:
		return 0, false
	}
}

func (c *checker) checkBinary(b *ast.BinaryExpr) (ast.Type, bool) {
	left, lok := c.checkExpr(b.Left)
	right, rok := c.checkExpr(b.Right)

	if b.Op.IsComparison() {
		if lok && rok && left != right {
			c.addError(TypeMismatch, b.OpPos,
				"comparison operands must have the same type, got %s and %s", left, right)
		}
		// Comparisons yield int regardless.
		return ast.TypeInt, true
	}

	if !lok || !rok {
		return 0, false
	}
	if left != right {
		c.addError(TypeMismatch, b.OpPos,
			"operator %q expects matching operand types, got %s and %s", b.Op, left, right)
		return 0, false
	}
	return left, true
}

func (c *checker) checkAssign(a *ast.AssignExpr) (ast.Type, bool) {
	valType, valKnown := c.checkExpr(a.Value)

	varType, ok := c.lookup(a.Name)
	if !ok {
		c.addError(UndefinedVariable, a.Pos(), "undefined variable %q", a.Name)
		return valType, valKnown
	}
	if valKnown && valType != varType {
		c.addError(TypeMismatch, a.Value.Pos(),
			"cannot assign expression of type %s to %s variable %q", valType, varType, a.Name)
	}
	return varType, true
}

// checkCall verifies the callee exists and the arguments match its declared
// fixed parameters. A wrong argument count is reported once; argument types
// are still checked against as many declared parameters as are available.
func (c *checker) checkCall(call *ast.CallExpr) (ast.Type, bool) {
	sig, ok := c.funcs[call.Name]
	if !ok {
		c.addError(UndefinedFunction, call.Pos(), "undefined function %q", call.Name)
		for _, arg := range call.Args {
			c.checkExpr(arg)
		}
		return 0, false
	}

	fixed := len(sig.params)
	argc := len(call.Args)
	if (sig.variadic && argc < fixed) || (!sig.variadic && argc != fixed) {
		c.addError(WrongArgumentCount, call.Pos(),
			"function %q expects %d argument(s), got %d", call.Name, fixed, argc)
	}

	for i, arg := range call.Args {
		argType, known := c.checkExpr(arg)
		if i >= fixed {
			continue
		}
		if known && argType != sig.params[i] {
			c.addError(TypeMismatch, arg.Pos(),
				"argument %d of %q must have type %s, got %s", i+1, call.Name, sig.params[i], argType)
		}
	}

	return sig.ret, true
}

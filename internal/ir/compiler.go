package ir

import (
	"github.com/huangsam/virtuc/internal/ast"
	"github.com/huangsam/virtuc/internal/token"
	"github.com/huangsam/virtuc/internal/value"
)

// Compiler translates a validated AST into a flat instruction sequence.
// Instances are single use; Compile is the entry point.
type Compiler struct {
	code    []Instruction
	entries map[string]int
}

// Compile compiles a program that already passed semantic analysis. Each
// function occupies a contiguous span; its entry index is recorded before
// its body is compiled so forward and self-recursive calls resolve.
func Compile(prog *ast.Program) *Program {
	c := &Compiler{
		entries: make(map[string]int),
	}

	for _, fn := range prog.Funcs {
		c.entries[fn.Name] = len(c.code)
		c.compileFunc(fn)
	}

	return &Program{
		Code:    c.code,
		Entries: c.entries,
	}
}

func (c *Compiler) emit(in Instruction) int {
	c.code = append(c.code, in)
	return len(c.code) - 1
}

// emitJump emits a jump with a sentinel target and returns its index for
// later patching.
func (c *Compiler) emitJump(op OpCode) int {
	return c.emit(Instruction{Op: op, Target: -1})
}

func (c *Compiler) patchJump(idx int) {
	c.code[idx].Target = len(c.code)
}

func (c *Compiler) compileFunc(fn *ast.FunDecl) {
	// The caller pushes arguments in declared order, so the prologue pops
	// and binds them in reverse: the last parameter comes off first.
	for i := len(fn.Params) - 1; i >= 0; i-- {
		c.emit(Instruction{Op: OpStore, Name: fn.Params[i].Name})
	}

	c.compileStmt(fn.Body)

	// Guarantee a terminating instruction: fall-off-the-end returns 0.
	if len(c.code) == 0 || c.code[len(c.code)-1].Op != OpReturn {
		c.emit(Instruction{Op: OpConst, Val: value.NewInt(0)})
		c.emit(Instruction{Op: OpReturn})
	}
}

func (c *Compiler) compileStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.BlockStmt:
		for _, inner := range st.Stmts {
			c.compileStmt(inner)
		}

	case *ast.DeclStmt:
		// Without an initializer nothing is emitted; the variable springs
		// into existence on first store.
		if st.Init != nil {
			c.compileExpr(st.Init)
			c.emit(Instruction{Op: OpStore, Name: st.Name})
		}

	case *ast.ReturnStmt:
		if st.Result != nil {
			c.compileExpr(st.Result)
		} else {
			c.emit(Instruction{Op: OpConst, Val: value.Void()})
		}
		c.emit(Instruction{Op: OpReturn})

	case *ast.IfStmt:
		c.compileIf(st)

	case *ast.ForStmt:
		c.compileFor(st)

	case *ast.ExprStmt:
		c.compileExpr(st.Expression)
		c.emit(Instruction{Op: OpPop})
	}
}

func (c *Compiler) compileIf(s *ast.IfStmt) {
	c.compileExpr(s.Cond)
	jumpIfFalseIdx := c.emitJump(OpJumpIfFalse)

	c.compileStmt(s.Then)
	jumpEndIdx := c.emitJump(OpJump)

	// False branch starts here (the jump target when there is no else).
	c.patchJump(jumpIfFalseIdx)

	if s.Else != nil {
		c.compileStmt(s.Else)
	}

	c.patchJump(jumpEndIdx)
}

func (c *Compiler) compileFor(s *ast.ForStmt) {
	if s.Init != nil {
		c.compileStmt(s.Init)
	}

	condStart := len(c.code)

	exitIdx := -1
	if s.Cond != nil {
		c.compileExpr(s.Cond)
		exitIdx = c.emitJump(OpJumpIfFalse)
	}

	c.compileStmt(s.Body)

	if s.Update != nil {
		c.compileExpr(s.Update)
		c.emit(Instruction{Op: OpPop})
	}

	c.emit(Instruction{Op: OpJump, Target: condStart})

	if exitIdx >= 0 {
		c.patchJump(exitIdx)
	}
}

func (c *Compiler) compileExpr(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.IntLiteral:
		c.emit(Instruction{Op: OpConst, Val: value.NewInt(ex.Value)})

	case *ast.FloatLiteral:
		c.emit(Instruction{Op: OpConst, Val: value.NewFloat(ex.Value)})

	case *ast.StringLiteral:
		c.emit(Instruction{Op: OpConst, Val: value.NewString(ex.Value)})

	case *ast.IdentExpr:
		c.emit(Instruction{Op: OpLoad, Name: ex.Name})

	case *ast.BinaryExpr:
		c.compileExpr(ex.Left)
		c.compileExpr(ex.Right)
		c.emit(Instruction{Op: binaryOp(ex.Op)})

	case *ast.AssignExpr:
		// Store then reload so the assignment leaves its value on the
		// stack for the enclosing expression.
		c.compileExpr(ex.Value)
		c.emit(Instruction{Op: OpStore, Name: ex.Name})
		c.emit(Instruction{Op: OpLoad, Name: ex.Name})

	case *ast.CallExpr:
		for _, arg := range ex.Args {
			c.compileExpr(arg)
		}
		c.emit(Instruction{Op: OpCall, Name: ex.Name, Argc: len(ex.Args)})
	}
}

func binaryOp(op token.Kind) OpCode {
	switch op {
	case token.Plus:
		return OpAdd
	case token.Minus:
		return OpSub
	case token.Star:
		return OpMul
	case token.Slash:
		return OpDiv
	case token.Eq:
		return OpEq
	case token.NotEq:
		return OpNeq
	case token.Lt:
		return OpLt
	case token.LtEq:
		return OpLte
	case token.Gt:
		return OpGt
	case token.GtEq:
		return OpGte
	default:
		return OpHalt
	}
}

package parser_test

import (
	"testing"

	"github.com/huangsam/virtuc/internal/ast"
	"github.com/huangsam/virtuc/internal/parser"
	"github.com/huangsam/virtuc/internal/token"
)

func TestParse_FunctionStructure(t *testing.T) {
	input := `
int add(int a, int b) {
    return a + b;
}

int main() {
    return add(30, 12);
}
`
	prog, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(prog.Funcs) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(prog.Funcs))
	}

	add := prog.Funcs[0]
	if add.Name != "add" || add.Return != ast.TypeInt {
		t.Fatalf("unexpected first function: %s %s", add.Return, add.Name)
	}
	if len(add.Params) != 2 || add.Params[0].Name != "a" || add.Params[1].Name != "b" {
		t.Fatalf("unexpected params: %+v", add.Params)
	}

	main := prog.Funcs[1]
	if len(main.Body.Stmts) != 1 {
		t.Fatalf("expected 1 statement in main, got %d", len(main.Body.Stmts))
	}
	ret, ok := main.Body.Stmts[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("expected return statement, got %T", main.Body.Stmts[0])
	}
	call, ok := ret.Result.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected call expression, got %T", ret.Result)
	}
	if call.Name != "add" || len(call.Args) != 2 {
		t.Fatalf("unexpected call: %s with %d args", call.Name, len(call.Args))
	}
}

func TestParse_Precedence(t *testing.T) {
	prog, err := parser.Parse(`int main() { return 1 + 2 * 3; }`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	ret := prog.Funcs[0].Body.Stmts[0].(*ast.ReturnStmt)
	add, ok := ret.Result.(*ast.BinaryExpr)
	if !ok || add.Op != token.Plus {
		t.Fatalf("expected + at the root, got %T", ret.Result)
	}
	mul, ok := add.Right.(*ast.BinaryExpr)
	if !ok || mul.Op != token.Star {
		t.Fatalf("expected * on the right, got %T", add.Right)
	}
}

func TestParse_ParensOverridePrecedence(t *testing.T) {
	prog, err := parser.Parse(`int main() { return (1 + 2) * 3; }`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	ret := prog.Funcs[0].Body.Stmts[0].(*ast.ReturnStmt)
	mul, ok := ret.Result.(*ast.BinaryExpr)
	if !ok || mul.Op != token.Star {
		t.Fatalf("expected * at the root, got %T", ret.Result)
	}
	if add, ok := mul.Left.(*ast.BinaryExpr); !ok || add.Op != token.Plus {
		t.Fatalf("expected + on the left, got %T", mul.Left)
	}
}

func TestParse_ComparisonDoesNotChain(t *testing.T) {
	if _, err := parser.Parse(`int main() { return 1 < 2 < 3; }`); err == nil {
		t.Fatal("expected syntax error for chained comparison")
	}
}

func TestParse_ComparisonSingle(t *testing.T) {
	prog, err := parser.Parse(`int main() { return 1 + 2 < 3 * 4; }`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	ret := prog.Funcs[0].Body.Stmts[0].(*ast.ReturnStmt)
	cmp, ok := ret.Result.(*ast.BinaryExpr)
	if !ok || cmp.Op != token.Lt {
		t.Fatalf("expected < at the root, got %T", ret.Result)
	}
	if _, ok := cmp.Left.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected additive subtree on the left, got %T", cmp.Left)
	}
	if _, ok := cmp.Right.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected multiplicative subtree on the right, got %T", cmp.Right)
	}
}

func TestParse_AssignIsRightAssociative(t *testing.T) {
	prog, err := parser.Parse(`int main() { int a; int b; a = b = 1; return a; }`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	stmt := prog.Funcs[0].Body.Stmts[2].(*ast.ExprStmt)
	outer, ok := stmt.Expression.(*ast.AssignExpr)
	if !ok || outer.Name != "a" {
		t.Fatalf("expected assignment to a, got %T", stmt.Expression)
	}
	inner, ok := outer.Value.(*ast.AssignExpr)
	if !ok || inner.Name != "b" {
		t.Fatalf("expected nested assignment to b, got %T", outer.Value)
	}
}

func TestParse_ExternVariadic(t *testing.T) {
	prog, err := parser.Parse(`extern int printf(string fmt, ...);`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(prog.Externs) != 1 {
		t.Fatalf("expected 1 extern, got %d", len(prog.Externs))
	}
	ext := prog.Externs[0]
	if ext.Name != "printf" || !ext.IsVariadic {
		t.Fatalf("unexpected extern: %+v", ext)
	}
	if len(ext.ParamTypes) != 1 || ext.ParamTypes[0] != ast.TypeString {
		t.Fatalf("unexpected param types: %v", ext.ParamTypes)
	}
}

func TestParse_IncludeInjectsExterns(t *testing.T) {
	prog, err := parser.Parse("#include <stdio.h>\nint main() { return 0; }")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(prog.Externs) != 1 || prog.Externs[0].Name != "printf" {
		t.Fatalf("expected printf extern from stdio.h, got %+v", prog.Externs)
	}
}

func TestParse_IncludeDedup(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"repeated include", "#include <stdio.h>\n#include <stdio.h>\nint main() { return 0; }"},
		{"explicit extern wins", "extern int printf(string, ...);\n#include <stdio.h>\nint main() { return 0; }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := parser.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if len(prog.Externs) != 1 {
				t.Fatalf("expected 1 extern after dedup, got %d", len(prog.Externs))
			}
		})
	}
}

func TestParse_UnknownIncludeAddsNothing(t *testing.T) {
	prog, err := parser.Parse("#include <math.h>\nint main() { return 0; }")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(prog.Externs) != 0 {
		t.Fatalf("expected no externs, got %d", len(prog.Externs))
	}
	if len(prog.Includes) != 1 || prog.Includes[0].Header != "math.h" {
		t.Fatalf("expected include record for math.h, got %+v", prog.Includes)
	}
}

func TestParse_ForVariants(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantInit   bool
		wantCond   bool
		wantUpdate bool
	}{
		{"full", `int main() { for (int i = 0; i < 10; i = i + 1) {} return 0; }`, true, true, true},
		{"no init", `int main() { int i = 0; for (; i < 10; i = i + 1) {} return 0; }`, false, true, true},
		{"no update", `int main() { for (int i = 0; i < 10;) {} return 0; }`, true, true, false},
		{"infinite", `int main() { for (;;) {} return 0; }`, false, false, false},
		{"expr init", `int main() { int i; for (i = 0; i < 10; i = i + 1) {} return 0; }`, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := parser.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			var loop *ast.ForStmt
			for _, st := range prog.Funcs[0].Body.Stmts {
				if f, ok := st.(*ast.ForStmt); ok {
					loop = f
				}
			}
			if loop == nil {
				t.Fatal("no for statement found")
			}
			if (loop.Init != nil) != tt.wantInit {
				t.Errorf("init presence = %v, want %v", loop.Init != nil, tt.wantInit)
			}
			if (loop.Cond != nil) != tt.wantCond {
				t.Errorf("cond presence = %v, want %v", loop.Cond != nil, tt.wantCond)
			}
			if (loop.Update != nil) != tt.wantUpdate {
				t.Errorf("update presence = %v, want %v", loop.Update != nil, tt.wantUpdate)
			}
		})
	}
}

func TestParse_ElseIfChain(t *testing.T) {
	prog, err := parser.Parse(`
int main() {
    int x = 2;
    if (x == 1) { return 1; } else if (x == 2) { return 2; } else { return 3; }
}
`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	outer := prog.Funcs[0].Body.Stmts[1].(*ast.IfStmt)
	inner, ok := outer.Else.(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected nested if in else branch, got %T", outer.Else)
	}
	if _, ok := inner.Else.(*ast.BlockStmt); !ok {
		t.Fatalf("expected final else block, got %T", inner.Else)
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing semicolon", `int main() { return 0 }`},
		{"missing brace", `int main() { return 0;`},
		{"missing paren", `int main( { return 0; }`},
		{"bad top level", `return 0;`},
		{"variadic not last", `extern int f(..., int);`},
		{"empty expression", `int main() { return ; * 2; }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parser.Parse(tt.input); err == nil {
				t.Fatalf("expected syntax error for %q", tt.input)
			}
		})
	}
}

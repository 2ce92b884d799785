package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/huangsam/virtuc/internal/ir"
	"github.com/huangsam/virtuc/internal/parser"
	"github.com/huangsam/virtuc/internal/semantic"
	"github.com/huangsam/virtuc/internal/value"
	"github.com/huangsam/virtuc/internal/vm"
)

func compile(t *testing.T, src string) *ir.Program {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if errs := semantic.Analyze(prog); len(errs) > 0 {
		t.Fatalf("analysis errors: %v", errs)
	}
	return ir.Compile(prog)
}

func run(t *testing.T, src string) value.Value {
	t.Helper()
	m := vm.New(compile(t, src))
	v, err := m.Run()
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	return v
}

func TestRun_IntPrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int64
	}{
		{
			"constant",
			`int main() { return 42; }`,
			42,
		},
		{
			"arithmetic precedence",
			`int main() { return 2 + 3 * 4; }`,
			14,
		},
		{
			"call",
			`int add(int a, int b) { return a + b; }
			 int main() { return add(30, 12); }`,
			42,
		},
		{
			"param order",
			`int sub(int a, int b) { return a - b; }
			 int main() { return sub(10, 3); }`,
			7,
		},
		{
			"if taken",
			`int main() { int x = 5; if (x > 3) { return 1; } else { return 2; } }`,
			1,
		},
		{
			"else taken",
			`int main() { int x = 2; if (x > 3) { return 1; } else { return 2; } }`,
			2,
		},
		{
			"else if chain",
			`int main() { int x = 2;
			 if (x == 1) { return 10; } else if (x == 2) { return 20; } else { return 30; } }`,
			20,
		},
		{
			"for sum",
			`int main() { int s = 0;
			 for (int i = 0; i < 5; i = i + 1) { s = s + i; }
			 return s; }`,
			10,
		},
		{
			"nested loops",
			`int main() { int n = 0;
			 for (int i = 0; i < 3; i = i + 1) {
			     for (int j = 0; j < 3; j = j + 1) { n = n + 1; }
			 }
			 return n; }`,
			9,
		},
		{
			"recursion",
			`int fib(int n) {
			     if (n < 2) { return n; }
			     return fib(n - 1) + fib(n - 2);
			 }
			 int main() { return fib(6); }`,
			8,
		},
		{
			"comparison yields int",
			`int main() { return 2 < 3; }`,
			1,
		},
		{
			"failed comparison yields zero",
			`int main() { return 3 < 2; }`,
			0,
		},
		{
			"assignment is an expression",
			`int main() { int a; int b; a = b = 21; return a + b; }`,
			42,
		},
		{
			"falls off the end",
			`int main() { int x = 9; }`,
			0,
		},
		{
			"integer division truncates",
			`int main() { return 7 / 2; }`,
			3,
		},
		{
			"shadowed variable",
			`int main() { int x = 1; if (1) { int x = 100; x = x + 1; } return x; }`,
			101,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := run(t, tt.src)
			if v.Kind != value.KindInt || v.Int != tt.want {
				t.Fatalf("expected %d, got %s (%s)", tt.want, v.String(), v.Kind)
			}
		})
	}
}

func TestRun_FloatResult(t *testing.T) {
	v := run(t, `float main() { return 1.0 / 4.0; }`)
	if v.Kind != value.KindFloat || v.Float != 0.25 {
		t.Fatalf("expected 0.25, got %s (%s)", v.String(), v.Kind)
	}
}

// Mixed operands never come out of the compiler, but the VM still promotes
// int and float pairs so hand-built or deserialized code behaves sanely.
func TestRun_MixedArithmeticPromotes(t *testing.T) {
	prog := &ir.Program{
		Code: []ir.Instruction{
			{Op: ir.OpConst, Val: value.NewInt(1)},
			{Op: ir.OpConst, Val: value.NewFloat(2.5)},
			{Op: ir.OpAdd},
			{Op: ir.OpReturn},
		},
		Entries: map[string]int{"main": 0},
	}

	v, err := vm.New(prog).Run()
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if v.Kind != value.KindFloat || v.Float != 3.5 {
		t.Fatalf("expected 3.5, got %s (%s)", v.String(), v.Kind)
	}
}

func TestRun_StringConcat(t *testing.T) {
	var out bytes.Buffer
	src := "#include <stdio.h>\nint main() { printf(\"%s\", \"foo\" + \"bar\"); return 0; }"

	m := vm.New(compile(t, src), vm.WithOutput(&out))
	if _, err := m.Run(); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out.String() != "foobar" {
		t.Fatalf("expected foobar, got %q", out.String())
	}
}

func TestRun_Printf(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"int verb",
			"#include <stdio.h>\nint main() { printf(\"n=%d\\n\", 42); return 0; }",
			"n=42\n",
		},
		{
			"several verbs",
			"#include <stdio.h>\nint main() { printf(\"%d %s %d\", 1, \"mid\", 2); return 0; }",
			"1 mid 2",
		},
		{
			"float verb",
			"#include <stdio.h>\nint main() { float f = 0.5; printf(\"%f\", f); return 0; }",
			"0.500000",
		},
		{
			"escaped percent",
			"#include <stdio.h>\nint main() { printf(\"100%%\"); return 0; }",
			"100%",
		},
		{
			"no verbs",
			"#include <stdio.h>\nint main() { printf(\"plain\"); return 0; }",
			"plain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			m := vm.New(compile(t, tt.src), vm.WithOutput(&out))
			if _, err := m.Run(); err != nil {
				t.Fatalf("Run error: %v", err)
			}
			if out.String() != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, out.String())
			}
		})
	}
}

func TestRun_PrintfReturnsByteCount(t *testing.T) {
	src := "#include <stdio.h>\nint main() { return printf(\"abcd\"); }"

	var out bytes.Buffer
	m := vm.New(compile(t, src), vm.WithOutput(&out))
	v, err := m.Run()
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if v.Int != 4 {
		t.Fatalf("expected 4, got %d", v.Int)
	}
}

func TestRun_MissingMain(t *testing.T) {
	prog := compile(t, `int helper() { return 1; }`)

	_, err := vm.New(prog).Run()
	if err == nil {
		t.Fatal("expected error for missing main")
	}
	if !strings.Contains(err.Error(), "main") {
		t.Fatalf("error should name main: %v", err)
	}
}

func TestRun_MaxSteps(t *testing.T) {
	prog := compile(t, `int main() { for (;;) {} return 0; }`)

	_, err := vm.New(prog, vm.WithMaxSteps(500)).Run()
	if err == nil {
		t.Fatal("expected error for runaway loop")
	}
	if !strings.Contains(err.Error(), "steps") {
		t.Fatalf("error should mention the step limit: %v", err)
	}
}

func TestRun_DivisionByZero(t *testing.T) {
	prog := compile(t, `int main() { int z = 0; return 1 / z; }`)

	_, err := vm.New(prog).Run()
	if err == nil {
		t.Fatal("expected division by zero error")
	}
}

func TestRun_CallUnknownExtern(t *testing.T) {
	prog := compile(t, `extern int getpid(); int main() { return getpid(); }`)

	_, err := vm.New(prog).Run()
	if err == nil {
		t.Fatal("expected error for unbound extern")
	}
	if !strings.Contains(err.Error(), "getpid") {
		t.Fatalf("error should name the callee: %v", err)
	}
}

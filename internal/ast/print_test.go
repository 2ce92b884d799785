package ast_test

import (
	"strings"
	"testing"

	"github.com/huangsam/virtuc/internal/ast"
	"github.com/huangsam/virtuc/internal/parser"
)

func TestDump(t *testing.T) {
	prog, err := parser.Parse(`
#include <stdio.h>

int main() {
    int x = 1 + 2;
    if (x > 2) {
        printf("big\n");
    }
    return x;
}
`)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	out := ast.Dump(prog)
	for _, want := range []string{
		"Program",
		"Include header=stdio.h",
		"Extern int printf(string, ...)",
		"FunDecl int main()",
		"Decl int x",
		"Binary Plus",
		"If",
		"Binary Gt",
		"Call printf",
		`String "big\n"`,
		"Return",
		"Ident x",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestDump_NilNode(t *testing.T) {
	if out := ast.Dump(nil); out != "" {
		t.Fatalf("expected empty dump for nil, got %q", out)
	}
}

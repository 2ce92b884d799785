// Package headers maps C system headers to the extern declarations they
// provide. Including a known header injects its declarations into the
// program's extern table; unknown headers contribute nothing.
package headers

import "github.com/huangsam/virtuc/internal/ast"

// ExternsFor returns the extern declarations implied by including header.
// The slice is freshly allocated on each call so callers may modify it.
func ExternsFor(header string) []*ast.ExternDecl {
	switch header {
	case "stdio.h":
		return []*ast.ExternDecl{
			{
				Return:     ast.TypeInt,
				Name:       "printf",
				ParamTypes: []ast.Type{ast.TypeString},
				IsVariadic: true,
			},
		}
	default:
		return nil
	}
}

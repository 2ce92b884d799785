package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump returns a human-readable representation of the AST.
func Dump(node Node) string {
	var sb strings.Builder
	fprintNode(&sb, node, 0)
	return sb.String()
}

func fprintNode(w io.Writer, n Node, indent int) {
	if n == nil {
		return
	}

	ind := strings.Repeat("  ", indent)

	switch n := n.(type) {
	case *Program:
		fmt.Fprintf(w, "%sProgram\n", ind)
		for _, inc := range n.Includes {
			fprintNode(w, inc, indent+1)
		}
		for _, ext := range n.Externs {
			fprintNode(w, ext, indent+1)
		}
		for _, fn := range n.Funcs {
			fprintNode(w, fn, indent+1)
		}

	case *IncludeDecl:
		fmt.Fprintf(w, "%sInclude header=%s\n", ind, n.Header)

	case *ExternDecl:
		params := make([]string, 0, len(n.ParamTypes)+1)
		for _, t := range n.ParamTypes {
			params = append(params, t.String())
		}
		if n.IsVariadic {
			params = append(params, "...")
		}
		fmt.Fprintf(w, "%sExtern %s %s(%s)\n", ind, n.Return, n.Name, strings.Join(params, ", "))

	case *FunDecl:
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = fmt.Sprintf("%s %s", p.Type, p.Name)
		}
		fmt.Fprintf(w, "%sFunDecl %s %s(%s)\n", ind, n.Return, n.Name, strings.Join(params, ", "))
		fprintNode(w, n.Body, indent+1)

	case *BlockStmt:
		fmt.Fprintf(w, "%sBlock\n", ind)
		for _, st := range n.Stmts {
			fprintNode(w, st, indent+1)
		}

	case *DeclStmt:
		fmt.Fprintf(w, "%sDecl %s %s\n", ind, n.Type, n.Name)
		if n.Init != nil {
			fprintNode(w, n.Init, indent+1)
		}

	case *ReturnStmt:
		fmt.Fprintf(w, "%sReturn\n", ind)
		if n.Result != nil {
			fprintNode(w, n.Result, indent+1)
		}

	case *IfStmt:
		fmt.Fprintf(w, "%sIf\n", ind)
		fmt.Fprintf(w, "%s  Cond:\n", ind)
		fprintNode(w, n.Cond, indent+2)
		fmt.Fprintf(w, "%s  Then:\n", ind)
		fprintNode(w, n.Then, indent+2)
		if n.Else != nil {
			fmt.Fprintf(w, "%s  Else:\n", ind)
			fprintNode(w, n.Else, indent+2)
		}

	case *ForStmt:
		fmt.Fprintf(w, "%sFor\n", ind)
		if n.Init != nil {
			fmt.Fprintf(w, "%s  Init:\n", ind)
			fprintNode(w, n.Init, indent+2)
		}
		if n.Cond != nil {
			fmt.Fprintf(w, "%s  Cond:\n", ind)
			fprintNode(w, n.Cond, indent+2)
		}
		if n.Update != nil {
			fmt.Fprintf(w, "%s  Update:\n", ind)
			fprintNode(w, n.Update, indent+2)
		}
		fmt.Fprintf(w, "%s  Body:\n", ind)
		fprintNode(w, n.Body, indent+2)

	case *ExprStmt:
		fmt.Fprintf(w, "%sExprStmt\n", ind)
		fprintNode(w, n.Expression, indent+1)

	case *IdentExpr:
		fmt.Fprintf(w, "%sIdent %s\n", ind, n.Name)

	case *IntLiteral:
		fmt.Fprintf(w, "%sInt %d\n", ind, n.Value)

	case *FloatLiteral:
		fmt.Fprintf(w, "%sFloat %g\n", ind, n.Value)

	case *StringLiteral:
		fmt.Fprintf(w, "%sString %q\n", ind, n.Value)

	case *BinaryExpr:
		fmt.Fprintf(w, "%sBinary %s\n", ind, n.Op)
		fprintNode(w, n.Left, indent+1)
		fprintNode(w, n.Right, indent+1)

	case *CallExpr:
		fmt.Fprintf(w, "%sCall %s\n", ind, n.Name)
		for _, a := range n.Args {
			fprintNode(w, a, indent+1)
		}

	case *AssignExpr:
		fmt.Fprintf(w, "%sAssign %s\n", ind, n.Name)
		fprintNode(w, n.Value, indent+1)

	default:
		fmt.Fprintf(w, "%s<unknown node %T>\n", ind, n)
	}
}

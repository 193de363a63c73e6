package compiler

import (
	"fmt"
	"strings"

	"github.com/robbyt/go-graphscript/engines/starlark/internal"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// ResultName is the global that holds the value of the last statement.
const ResultName = "_"

// fileOptions enables the dialect extensions scripts may rely on: top level
// loops and conditionals, global reassignment, while loops and recursion.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Compile parses script and compiles it against the standard modules plus
// names. When the last statement is an expression, its value is assigned to
// ResultName so the caller can read it from the program globals.
func Compile(script string, names []string) (*starlarkLib.Program, error) {
	if strings.TrimSpace(script) == "" {
		return nil, ErrContentEmpty
	}

	f, err := fileOptions.Parse("", script, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}
	captureLastExpr(f)

	predeclared := internal.StarlarkModules()
	for _, name := range names {
		if !predeclared.Has(name) {
			predeclared[name] = starlarkLib.None
		}
	}

	prog, err := starlarkLib.FileProgram(f, predeclared.Has)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}
	return prog, nil
}

// captureLastExpr rewrites a trailing expression statement `expr` into
// `_ = expr`.
func captureLastExpr(f *syntax.File) {
	if len(f.Stmts) == 0 {
		return
	}
	last := len(f.Stmts) - 1
	stmt, ok := f.Stmts[last].(*syntax.ExprStmt)
	if !ok {
		return
	}
	start, _ := stmt.Span()
	f.Stmts[last] = &syntax.AssignStmt{
		OpPos: start,
		Op:    syntax.EQ,
		LHS:   &syntax.Ident{NamePos: start, Name: ResultName},
		RHS:   stmt.X,
	}
}

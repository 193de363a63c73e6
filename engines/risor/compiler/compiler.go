package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	risorLib "github.com/risor-io/risor"
	risorCompiler "github.com/risor-io/risor/compiler"
	risorErrors "github.com/risor-io/risor/errz"
	risorParser "github.com/risor-io/risor/parser"
)

// Compile parses and compiles script into bytecode. names are the globals
// the script will be evaluated with, in addition to the Risor builtins.
func Compile(ctx context.Context, script string, names []string) (*risorCompiler.Code, error) {
	if strings.TrimSpace(script) == "" {
		return nil, ErrContentEmpty
	}

	ast, err := risorParser.Parse(ctx, script)
	if err != nil {
		// syntax errors carry a friendlier message with the source location
		errMsg := err.Error()
		var friendlyErr risorErrors.FriendlyError
		if errors.As(err, &friendlyErr) {
			errMsg = friendlyErr.FriendlyErrorMessage()
		}
		return nil, fmt.Errorf("%w: %s", ErrCompileFailed, errMsg)
	}

	globalNames := append(risorLib.NewConfig().GlobalNames(), names...)
	code, err := risorCompiler.Compile(ast, risorCompiler.WithGlobalNames(globalNames))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}
	return code, nil
}

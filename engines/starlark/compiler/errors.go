package compiler

import "errors"

var (
	ErrCompileFailed = errors.New("failed to compile starlark script")
	ErrContentEmpty  = errors.New("starlark script is empty")
)

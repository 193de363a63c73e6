package compiler

import "errors"

var (
	ErrCompileFailed = errors.New("failed to compile risor script")
	ErrContentEmpty  = errors.New("risor script is empty")
)

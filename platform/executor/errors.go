package executor

import "errors"

var (
	ErrNilStore     = errors.New("graph store is nil")
	ErrNilComponent = errors.New("executor component is nil")
)

package lifecycle

import "errors"

var (
	ErrNilFactory    = errors.New("engine factory is nil")
	ErrNilEngine     = errors.New("engine factory returned a nil engine")
	ErrManagerClosed = errors.New("lifecycle manager is closed")
)

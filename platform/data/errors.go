package data

import "errors"

var (
	// ErrStaticProviderNoRuntimeUpdates is returned when runtime data is
	// offered to a StaticProvider.
	ErrStaticProviderNoRuntimeUpdates = errors.New("StaticProvider doesn't support adding data at runtime")

	ErrEmptyContextKey = errors.New("context key is empty")
	ErrEmptyKey        = errors.New("empty keys are not allowed")
	ErrInvalidDataType = errors.New("invalid input data type")
)

package types

import (
	"errors"
	"fmt"
	"strings"
)

// Type names a script engine.
type Type string

const (
	// Starlark engine: https://github.com/google/starlark-go
	Starlark Type = "starlark"
	// Risor engine: https://github.com/risor-io/risor
	Risor Type = "risor"
)

var ErrUnknownType = errors.New("unknown engine type")

// All returns every supported engine type.
func All() []Type {
	return []Type{Starlark, Risor}
}

func (t Type) String() string { return string(t) }

// Parse resolves an engine name, ignoring case and surrounding space.
func Parse(name string) (Type, error) {
	want := Type(strings.ToLower(strings.TrimSpace(name)))
	for _, t := range All() {
		if t == want {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, name)
}

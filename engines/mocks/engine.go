package mocks

import (
	"context"

	"github.com/robbyt/go-graphscript/platform"
	"github.com/robbyt/go-graphscript/platform/result"
	"github.com/stretchr/testify/mock"
)

// Engine is a mock implementation of platform.Engine for testing purposes.
type Engine struct {
	mock.Mock
}

// Eval is a mock implementation of the Eval method.
func (m *Engine) Eval(ctx context.Context, script string, bindings platform.Bindings) (result.Value, error) {
	args := m.Called(ctx, script, bindings)
	v, _ := args.Get(0).(result.Value)
	return v, args.Error(1)
}

// String is a mock implementation of the String method.
func (m *Engine) String() string {
	args := m.Called()
	return args.String(0)
}

// Close is a mock implementation of io.Closer.
func (m *Engine) Close() error {
	args := m.Called()
	return args.Error(0)
}

package options

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/robbyt/go-graphscript/engines/types"
	"github.com/robbyt/go-graphscript/platform/constants"
)

var (
	ErrNoEngineType     = errors.New("no engine type specified")
	ErrInvalidThreshold = errors.New("replacement threshold must be positive")
	ErrInvalidTimeout   = errors.New("timeout cannot be negative")
	ErrReservedBinding  = errors.New("binding name is reserved")
)

// Config holds all configuration for creating a script executor
type Config struct {
	// Logger for every component
	handler slog.Handler
	// Engine to build (starlark, risor)
	engineType types.Type
	// Executions served by one interpreter handle before it is rebuilt
	replacementThreshold int64
	// Per-execution deadline, zero for none
	timeout time.Duration
	// Starlark step limit, zero for none
	maxSteps uint64
	// Prefix of node and relationship URIs
	baseURI string
	// Variables visible to every script, overridden by request parameters
	staticBindings map[string]any
}

// Option is a function that modifies Config
type Option func(*Config) error

// WithEngine selects the script engine
func WithEngine(engineType types.Type) Option {
	return func(c *Config) error {
		t, err := types.Parse(string(engineType))
		if err != nil {
			return err
		}
		c.engineType = t
		return nil
	}
}

// WithLogHandler sets the log handler. A nil handler keeps the current one.
func WithLogHandler(handler slog.Handler) Option {
	return func(c *Config) error {
		if handler != nil {
			c.handler = handler
		}
		return nil
	}
}

// WithReplacementThreshold sets how many executions an interpreter handle
// serves before it is replaced.
func WithReplacementThreshold(n int64) Option {
	return func(c *Config) error {
		if n < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidThreshold, n)
		}
		c.replacementThreshold = n
		return nil
	}
}

// WithTimeout bounds every execution.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return fmt.Errorf("%w: %s", ErrInvalidTimeout, d)
		}
		c.timeout = d
		return nil
	}
}

// WithMaxSteps limits the steps of one Starlark evaluation. Risor ignores it.
func WithMaxSteps(steps uint64) Option {
	return func(c *Config) error {
		c.maxSteps = steps
		return nil
	}
}

// WithBaseURI sets the prefix of node and relationship self URIs
func WithBaseURI(uri string) Option {
	return func(c *Config) error {
		c.baseURI = uri
		return nil
	}
}

// WithStaticBindings adds variables bound in every execution. Later calls
// merge into earlier ones. The graph variable cannot be bound statically.
func WithStaticBindings(bindings map[string]any) Option {
	return func(c *Config) error {
		if _, ok := bindings[constants.Graph]; ok {
			return fmt.Errorf("%w: %q", ErrReservedBinding, constants.Graph)
		}
		if c.staticBindings == nil {
			c.staticBindings = make(map[string]any, len(bindings))
		}
		maps.Copy(c.staticBindings, bindings)
		return nil
	}
}

// Apply runs opts against the config in order, stopping at the first error
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return fmt.Errorf("error applying option: %w", err)
		}
	}
	return nil
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.engineType == "" {
		return ErrNoEngineType
	}
	if _, err := types.Parse(string(c.engineType)); err != nil {
		return err
	}
	if c.replacementThreshold < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, c.replacementThreshold)
	}
	if c.timeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.timeout)
	}
	return nil
}

// GetHandler returns the configured log handler
func (c *Config) GetHandler() slog.Handler {
	return c.handler
}

// SetHandler sets the log handler
func (c *Config) SetHandler(handler slog.Handler) {
	c.handler = handler
}

// GetEngineType returns the configured engine type
func (c *Config) GetEngineType() types.Type {
	return c.engineType
}

// SetEngineType sets the engine type
func (c *Config) SetEngineType(engineType types.Type) {
	c.engineType = engineType
}

func (c *Config) GetReplacementThreshold() int64 {
	return c.replacementThreshold
}

func (c *Config) GetTimeout() time.Duration {
	return c.timeout
}

func (c *Config) GetMaxSteps() uint64 {
	return c.maxSteps
}

func (c *Config) GetBaseURI() string {
	return c.baseURI
}

// GetStaticBindings returns a copy of the static bindings
func (c *Config) GetStaticBindings() map[string]any {
	return maps.Clone(c.staticBindings)
}

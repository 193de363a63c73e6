package options

import (
	"log/slog"
	"os"

	"github.com/robbyt/go-graphscript/engines/types"
	"github.com/robbyt/go-graphscript/platform/constants"
	"github.com/robbyt/go-graphscript/platform/representation"
)

// DefaultConfig initializes a Config with sensible defaults
func DefaultConfig(engineType types.Type) *Config {
	cfg := &Config{}
	cfg.SetEngineType(engineType)
	cfg.SetHandler(DefaultHandler())
	cfg.replacementThreshold = constants.DefaultReplacementThreshold
	cfg.baseURI = representation.DefaultBaseURI
	return cfg
}

// DefaultHandler returns the default logging handler
func DefaultHandler() slog.Handler {
	return slog.NewTextHandler(os.Stdout, nil)
}

// WithDefaults fills in any config properties that are unset
func WithDefaults() Option {
	return func(c *Config) error {
		if c.handler == nil {
			c.handler = DefaultHandler()
		}
		if c.engineType == "" {
			c.engineType = types.Starlark
		}
		if c.replacementThreshold == 0 {
			c.replacementThreshold = constants.DefaultReplacementThreshold
		}
		if c.baseURI == "" {
			c.baseURI = representation.DefaultBaseURI
		}
		return nil
	}
}

package options

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/robbyt/go-graphscript/engines/types"
	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML form of a Config. Unset fields keep their current value.
type fileConfig struct {
	Engine               string         `yaml:"engine"`
	ReplacementThreshold int64          `yaml:"replacementThreshold"`
	Timeout              string         `yaml:"timeout"`
	MaxSteps             uint64         `yaml:"maxSteps"`
	BaseURI              string         `yaml:"baseURI"`
	Bindings             map[string]any `yaml:"bindings"`
}

// FromYAML reads configuration from r. Unknown keys are rejected.
//
//	engine: risor
//	replacementThreshold: 100
//	timeout: 2s
//	bindings:
//	  region: eu
func FromYAML(r io.Reader) Option {
	return func(c *Config) error {
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		var fc fileConfig
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decoding config: %w", err)
		}
		return fc.apply(c)
	}
}

// FromFile reads configuration from a YAML file.
func FromFile(path string) Option {
	return func(c *Config) error {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		if err := FromYAML(bytes.NewReader(raw))(c); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	}
}

func (fc fileConfig) apply(c *Config) error {
	var opts []Option
	if fc.Engine != "" {
		opts = append(opts, WithEngine(types.Type(fc.Engine)))
	}
	if fc.ReplacementThreshold != 0 {
		opts = append(opts, WithReplacementThreshold(fc.ReplacementThreshold))
	}
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		opts = append(opts, WithTimeout(d))
	}
	if fc.MaxSteps != 0 {
		opts = append(opts, WithMaxSteps(fc.MaxSteps))
	}
	if fc.BaseURI != "" {
		opts = append(opts, WithBaseURI(fc.BaseURI))
	}
	if len(fc.Bindings) > 0 {
		opts = append(opts, WithStaticBindings(fc.Bindings))
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

package lifecycle

import "errors"

// FunctionalOption configures a Manager.
type FunctionalOption func(*Manager) error

// WithEngineName labels the handles the factory builds, so failed
// constructions are attributed before any handle exists.
func WithEngineName(name string) FunctionalOption {
	return func(m *Manager) error {
		if name == "" {
			return errors.New("engine name cannot be empty")
		}
		m.name = name
		return nil
	}
}

package helpers

import (
	"log/slog"
	"os"
)

// SetupLogger returns the handler and a grouped logger for a component.
// A nil handler is replaced with a text handler on stdout, grouped under the
// component name, and a warning is logged once so the misconfiguration shows up.
//
// Parameters:
//   - handler: the slog.Handler to use, or nil for the default
//   - component: name of the subsystem (e.g. "starlark", "lifecycle")
//   - groupName: optional group inside the component
func SetupLogger(handler slog.Handler, component string, groupName string) (slog.Handler, *slog.Logger) {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, nil).WithGroup(component)
		slog.New(handler).Warn("Handler is nil, using the default logger configuration.")
	}

	if groupName == "" {
		return handler, slog.New(handler)
	}
	return handler, slog.New(handler.WithGroup(groupName))
}

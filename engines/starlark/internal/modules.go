package internal

import (
	"maps"

	"github.com/robbyt/go-graphscript/platform/constants"
	starlarkJSON "go.starlark.net/lib/json"
	starlarkMath "go.starlark.net/lib/math"
	starlarkTime "go.starlark.net/lib/time"
	starlarkLib "go.starlark.net/starlark"
)

// Module namespaces available to every script.
const (
	namespaceJSON = "json"
	namespaceMath = "math"
	namespaceTime = "time"
)

// StarlarkModules returns a copy of the Starlark universe with the json, math
// and time modules and the Table constructor added. The compiler and the
// engine both use it so that a script resolves the same names at compile
// time and at run time.
func StarlarkModules() starlarkLib.StringDict {
	universe := maps.Clone(starlarkLib.Universe)

	universe[namespaceJSON] = starlarkJSON.Module
	universe[namespaceMath] = starlarkMath.Module
	universe[namespaceTime] = starlarkTime.Module
	universe[constants.TableBuiltin] = starlarkLib.NewBuiltin(constants.TableBuiltin, newTable)

	return universe
}

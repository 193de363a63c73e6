package compiler

import (
	"maps"
	"testing"

	"github.com/robbyt/go-graphscript/engines/starlark/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	starlarkLib "go.starlark.net/starlark"
)

func run(t *testing.T, script string, predeclared starlarkLib.StringDict) starlarkLib.Value {
	t.Helper()
	names := make([]string, 0, len(predeclared))
	for name := range predeclared {
		names = append(names, name)
	}
	prog, err := Compile(script, names)
	require.NoError(t, err)

	env := internal.StarlarkModules()
	maps.Copy(env, predeclared)
	globals, err := prog.Init(&starlarkLib.Thread{Name: "test"}, env)
	require.NoError(t, err)
	return globals[ResultName]
}

func TestCompileCapturesLastExpression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		script string
		want   starlarkLib.Value
	}{
		{name: "single expression", script: "1", want: starlarkLib.MakeInt(1)},
		{name: "semicolon separated", script: "1;\n2", want: starlarkLib.MakeInt(2)},
		{name: "assignment then name", script: "x = 3\nx * 2", want: starlarkLib.MakeInt(6)},
		{name: "trailing assignment", script: "x = 3", want: nil},
		{name: "trailing loop", script: "for i in range(3):\n    x = i\n", want: nil},
		{name: "top level if", script: "if True:\n    1\n", want: nil},
		{name: "while loop", script: "i = 0\nwhile i < 3:\n    i += 1\ni", want: starlarkLib.MakeInt(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(t, tt.script, nil)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			eq, err := starlarkLib.Equal(tt.want, got)
			require.NoError(t, err)
			assert.True(t, eq, "got %s", got)
		})
	}
}

func TestCompileWithNames(t *testing.T) {
	t.Parallel()

	got := run(t, "x + 1", starlarkLib.StringDict{"x": starlarkLib.MakeInt(41)})
	assert.Equal(t, "42", got.String())

	_, err := Compile("x + 1", nil)
	require.ErrorIs(t, err, ErrCompileFailed)
	assert.Contains(t, err.Error(), "undefined: x")
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		script  string
		wantErr error
	}{
		{name: "empty", script: "", wantErr: ErrContentEmpty},
		{name: "blank", script: "  \n\t", wantErr: ErrContentEmpty},
		{name: "syntax", script: "1 +", wantErr: ErrCompileFailed},
		{name: "bad indent", script: "if True:\nx = 1", wantErr: ErrCompileFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.script, nil)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCompileKnowsModules(t *testing.T) {
	t.Parallel()
	got := run(t, `json.encode({"a": math.floor(1.5)})`, nil)
	assert.Equal(t, `"{\"a\":1}"`, got.String())
}

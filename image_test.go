package gscript

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/gscript/builtin"
	"github.com/deepnoodle-ai/gscript/env"
	"github.com/deepnoodle-ai/gscript/errz"
	"github.com/deepnoodle-ai/gscript/vm"
)

func labels(t *testing.T) *env.Environment {
	t.Helper()
	e := env.New()
	bt := env.NewBlockType("main")
	require.NoError(t, bt.AllowFunctions("*"))
	require.NoError(t, bt.AddInput("in.base", 0, builtin.Num))
	require.NoError(t, bt.AddInput("in.tag", 4096, builtin.Str))
	require.NoError(t, bt.AddOutput("out.dmg", 0, builtin.Num))
	require.NoError(t, bt.AddOutput("out.label", 1, builtin.Str))
	e.AddBlockType(bt)
	return e
}

func TestImageStrings(t *testing.T) {
	e := labels(t)
	blocks, err := Compile("out.dmg = in.base * 2\nout.label = in.base > 0 ? \"pos\" : in.tag\n", nil,
		WithEnvironment(e))
	require.NoError(t, err)

	image, err := NewImage(blocks, "main", WithEnvironment(e))
	require.NoError(t, err)
	require.Equal(t, "main", image.Hook())
	require.Equal(t, []string{"out.dmg", "out.label"}, image.OutputNames())

	require.NoError(t, image.Set("in.base", 3))
	require.NoError(t, image.SetString("in.tag", "fire"))
	require.NoError(t, image.Run())
	label, err := image.GetString("out.label")
	require.NoError(t, err)
	require.Equal(t, "pos", label)
	require.Equal(t, map[string]any{"out.dmg": 6.0, "out.label": "pos"}, image.Outputs())

	require.NoError(t, image.Set("in.base", -1))
	require.NoError(t, image.Run())
	label, err = image.GetString("out.label")
	require.NoError(t, err)
	require.Equal(t, "fire", label)
}

func TestImageErrors(t *testing.T) {
	e := labels(t)
	blocks, err := Compile("out.dmg = in.base\n", nil, WithEnvironment(e))
	require.NoError(t, err)
	image, err := NewImage(blocks, "main", WithEnvironment(e))
	require.NoError(t, err)

	require.ErrorContains(t, image.Set("in.bse", 1), "no input")
	require.ErrorContains(t, image.Set("in.tag", 1), "holds a str")
	require.ErrorContains(t, image.SetString("in.base", "x"), "holds a num")
	_, err = image.Get("out.hp")
	require.ErrorContains(t, err, "no output")
	_, err = image.GetString("out.dmg")
	require.ErrorContains(t, err, "holds a num")

	_, err = NewImage(blocks, "on_hit", WithEnvironment(e))
	require.ErrorIs(t, err, errz.MissingHook)
	_, err = NewImage(nil, "main")
	require.ErrorIs(t, err, errz.MissingHook)

	// The artifact's block type is unknown to the default environment.
	other := env.New()
	other.AddBlockType(env.NewBlockType("on_hit"))
	_, err = NewImage(blocks, "main", WithEnvironment(other))
	require.ErrorContains(t, err, "does not declare")
}

func TestRunDoesNotAllocate(t *testing.T) {
	e := labels(t)
	blocks, err := Compile("out.dmg = math.clamp(in.base * 2, 0, 10)\n", nil, WithEnvironment(e))
	require.NoError(t, err)

	image, err := NewImage(blocks, "main", WithEnvironment(e), WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.NoError(t, image.Set("in.base", 3))
	allocs := testing.AllocsPerRun(200, func() {
		if err := image.Run(); err != nil {
			t.Fatal(err)
		}
	})
	require.Zero(t, allocs)
	dmg, err := image.Get("out.dmg")
	require.NoError(t, err)
	require.Equal(t, 6.0, dmg)

	allocs = testing.AllocsPerRun(200, func() {
		if err := Run(blocks, "main", image.Memory); err != nil {
			t.Fatal(err)
		}
	})
	require.Zero(t, allocs)

	// An image over the default environment resolves it once, not per run.
	defaults, err := Compile("let x = 2\n", nil)
	require.NoError(t, err)
	image, err = NewImage(defaults, "main")
	require.NoError(t, err)
	allocs = testing.AllocsPerRun(200, func() {
		if err := image.Run(); err != nil {
			t.Fatal(err)
		}
	})
	require.Zero(t, allocs)
}

func TestImageTracer(t *testing.T) {
	e := labels(t)
	blocks, err := Compile("out.dmg = in.base * 2\n", nil, WithEnvironment(e))
	require.NoError(t, err)
	var steps int
	image, err := NewImage(blocks, "main", WithEnvironment(e), WithTracer(func(vm.StepEvent) { steps++ }))
	require.NoError(t, err)
	require.NoError(t, image.Run())
	require.NoError(t, image.Run())
	require.Equal(t, 2, steps)
}

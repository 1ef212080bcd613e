package gscript

import (
	"bytes"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/deepnoodle-ai/gscript/env"
	"github.com/deepnoodle-ai/gscript/errors"
	"github.com/deepnoodle-ai/gscript/errz"
	"github.com/deepnoodle-ai/gscript/globals"
	"github.com/deepnoodle-ai/gscript/store"
	"github.com/deepnoodle-ai/gscript/vm"
)

type scenario struct {
	Name        string             `yaml:"name"`
	Source      string             `yaml:"source"`
	Params      []string           `yaml:"params"`
	Args        []float64          `yaml:"args"`
	Hook        string             `yaml:"hook"`
	Inputs      map[string]float64 `yaml:"inputs"`
	Globals     map[string]float64 `yaml:"globals"`
	Want        map[string]float64 `yaml:"want"`
	WantGlobals map[string]float64 `yaml:"want_globals"`
	Error       string             `yaml:"error"`
	Fault       string             `yaml:"fault"`
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()
	data, err := os.ReadFile("testdata/scenarios.yaml")
	require.NoError(t, err)
	var scenarios []scenario
	require.NoError(t, yaml.Unmarshal(data, &scenarios))
	require.NotEmpty(t, scenarios)
	return scenarios
}

func combat(t *testing.T) *env.Environment {
	t.Helper()
	e, err := env.LoadFile("env/testdata/combat.yaml")
	require.NoError(t, err)
	return e
}

func TestScenarios(t *testing.T) {
	e := combat(t)
	for _, sc := range loadScenarios(t) {
		t.Run(sc.Name, func(t *testing.T) {
			blocks, err := Compile(sc.Source, sc.Params,
				WithEnvironment(e), WithFilename(sc.Name+".gs"))
			if sc.Error != "" {
				require.Error(t, err)
				require.True(t, errors.HasCode(err, errors.ErrorCode(sc.Error)), "got %v", err)
				return
			}
			require.NoError(t, err)

			hook := sc.Hook
			if hook == "" {
				hook = "main"
			}
			table := globals.New(sc.Globals)
			image, err := NewImage(blocks, hook, WithEnvironment(e), WithGlobals(table))
			if sc.Fault != "" {
				require.Error(t, err)
				require.Equal(t, sc.Fault, errz.KindOf(err).String())
				return
			}
			require.NoError(t, err)
			for name, v := range sc.Inputs {
				require.NoError(t, image.Set(name, v))
			}
			require.NoError(t, image.SetArgs(sc.Args...))
			require.NoError(t, image.Run())

			for name, want := range sc.Want {
				got, err := image.Get(name)
				require.NoError(t, err)
				require.Equal(t, want, got, name)
			}
			for key, want := range sc.WantGlobals {
				require.Equal(t, want, table.Get(key), key)
			}
		})
	}
}

func TestDefaultEnvironment(t *testing.T) {
	blocks, err := Compile("let x = math.sqrt(level)\nG.set(\"root\", x)\n", []string{"level"})
	require.NoError(t, err)
	require.Equal(t, []string{"main"}, blocks.BlockNames())

	table := globals.New(nil)
	image, err := NewImage(blocks, "main", WithGlobals(table))
	require.NoError(t, err)
	require.NoError(t, image.SetArgs(81))
	require.NoError(t, image.Run())
	require.Equal(t, 9.0, table.Get("root"))
}

func TestRunIsRepeatable(t *testing.T) {
	e := combat(t)
	blocks, err := Compile("out.dmg = in.base * in.mult\n", nil, WithEnvironment(e))
	require.NoError(t, err)
	image, err := NewImage(blocks, "main", WithEnvironment(e))
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		require.NoError(t, image.Set("in.base", float64(i)))
		require.NoError(t, image.Set("in.mult", 10))
		require.NoError(t, Run(blocks, "main", image.Memory))
		got, err := image.Get("out.dmg")
		require.NoError(t, err)
		require.Equal(t, float64(i*10), got)
	}
}

func TestRunFault(t *testing.T) {
	blocks, err := Compile("G.set(\"k\", 1)\n", nil)
	require.NoError(t, err)
	image, err := NewImage(blocks, "main")
	require.NoError(t, err)
	err = image.Run()
	require.ErrorIs(t, err, errz.InvalidMemory)
}

func TestCompileThroughCache(t *testing.T) {
	e := combat(t)
	cache := store.NewCache()
	source := "out.dmg = in.base * 2\n"

	first, err := Compile(source, nil, WithEnvironment(e), WithCache(cache))
	require.NoError(t, err)
	second, err := Compile(source, nil, WithEnvironment(e), WithCache(cache))
	require.NoError(t, err)
	require.Same(t, first, second)

	other, err := Compile(source, []string{"level"}, WithEnvironment(e), WithCache(cache))
	require.NoError(t, err)
	require.NotSame(t, first, other)
	require.Equal(t, 2, cache.Len())

	_, err = Compile("out.dmg = in.bse\n", nil, WithEnvironment(e), WithCache(cache))
	require.True(t, errors.HasCode(err, errors.E2001))
	require.Equal(t, 2, cache.Len())
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	_, err := Compile("out.dmg = in.base\n", nil, WithEnvironment(combat(t)), WithLogger(logger))
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"message":"compiled"`)
	require.Contains(t, buf.String(), `"instructions":1`)

	buf.Reset()
	_, err = Compile("out.dmg = ", nil, WithLogger(logger))
	require.Error(t, err)
	require.Contains(t, buf.String(), "parse failed")
}

func TestTracer(t *testing.T) {
	e := combat(t)
	blocks, err := Compile("out.dmg = in.base * in.mult + 1\n", nil, WithEnvironment(e))
	require.NoError(t, err)
	var steps []vm.StepEvent
	image, err := NewImage(blocks, "main", WithEnvironment(e), WithTracer(func(s vm.StepEvent) {
		steps = append(steps, s)
	}))
	require.NoError(t, err)
	require.NoError(t, image.Set("in.base", 2))
	require.NoError(t, image.Set("in.mult", 3))
	require.NoError(t, image.Run())
	require.Len(t, steps, 2)
	require.Equal(t, 6.0, steps[0].Result)
	require.Equal(t, 7.0, steps[1].Result)
}

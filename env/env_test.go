package env

import (
	"strings"
	"testing"

	"github.com/deepnoodle-ai/gscript/builtin"
	"github.com/deepnoodle-ai/gscript/segment"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	e := Default()
	require.Equal(t, "main", e.DefaultBlock)
	main, ok := e.BlockType("main")
	require.True(t, ok)
	require.Equal(t, builtin.CommandNames(), main.Functions())
	v, ok := e.Constant("math.PI")
	require.True(t, ok)
	require.InDelta(t, 3.14159, v, 1e-5)
}

func TestBlockTypeDeclarations(t *testing.T) {
	bt := NewBlockType("main")
	require.Nil(t, bt.AddInput("in.base", 0, builtin.Num))
	require.Nil(t, bt.AddInput("in.tag", 4096+3, builtin.Str))
	require.Nil(t, bt.AddOutput("out.dmg", 2, builtin.Num))

	require.ErrorContains(t, bt.AddInput("in.base", 1, builtin.Num), "already declared as an input")
	require.ErrorContains(t, bt.AddOutput("in.base", 1, builtin.Num), "already declared as an input")
	require.ErrorContains(t, bt.AddOutput("out.other", 2, builtin.Num), "already used by")
	require.NotNil(t, bt.AddInput("in.far", segment.MaxInOutOffset, builtin.Num))
	require.NotNil(t, bt.AddOutput("out.far", 5<<segment.OffsetBits, builtin.Num))
	require.NotNil(t, bt.AddInput("1bad", 0, builtin.Num))

	slot, ok := bt.Input("in.tag")
	require.True(t, ok)
	addr, err := slot.InputAddress()
	require.Nil(t, err)
	require.Equal(t, "in_1[3]", addr.String())

	sizes := bt.InputSizes()
	require.Equal(t, 1, sizes[0])
	require.Equal(t, 4, sizes[1])
	require.Equal(t, 3, bt.OutputSizes()[0])

	require.Nil(t, bt.AllowFunctions("G.*"))
	require.ErrorContains(t, bt.AllowFunctions("nope.*"), "matches no built-in command")
	require.Equal(t, []string{"in.base", "in.tag", "out.dmg", "G.del", "G.get", "G.has", "G.init", "G.set"}, bt.Names())
}

func TestAddConstant(t *testing.T) {
	e := New()
	require.Nil(t, e.AddConstant("CRIT_MULT", 2))
	require.ErrorContains(t, e.AddConstant("math.PI", 3), "built in")
	require.NotNil(t, e.AddConstant("let", 1))
	v, ok := e.Constant("CRIT_MULT")
	require.True(t, ok)
	require.Equal(t, 2.0, v)
}

func TestValidName(t *testing.T) {
	for _, name := range []string{"a", "in.base", "_x", "G.set", "out_0.v2"} {
		require.True(t, ValidName(name), name)
	}
	for _, name := range []string{"", ".a", "a.", "a..b", "1a", "a.1b", "a-b", "hook", "true"} {
		require.False(t, ValidName(name), name)
	}
}

func checkCombat(t *testing.T, e *Environment) {
	t.Helper()
	require.Equal(t, "main", e.DefaultBlock)
	require.Equal(t, []string{"main", "on_hit"}, e.BlockTypes())

	v, ok := e.Constant("ARMOR_CAP")
	require.True(t, ok)
	require.Equal(t, 0.75, v)

	main, _ := e.BlockType("main")
	tag, ok := main.Input("in.tag")
	require.True(t, ok)
	require.Equal(t, Slot{Offset: 4096, Kind: builtin.Str}, tag)
	_, ok = main.Function("math.clamp")
	require.True(t, ok)

	onHit, _ := e.BlockType("on_hit")
	clamp, ok := onHit.Function("clamp")
	require.True(t, ok)
	require.Equal(t, "math.clamp", clamp.Name)
	_, ok = onHit.Function("math.clamp")
	require.False(t, ok)
	hp, _ := onHit.Output("out.hp")
	addr, err := hp.OutputAddress()
	require.Nil(t, err)
	require.Equal(t, "out_2[0]", addr.String())
}

func TestLoadTOML(t *testing.T) {
	e, err := LoadFile("testdata/combat.toml")
	require.Nil(t, err)
	checkCombat(t, e)
}

func TestLoadYAML(t *testing.T) {
	e, err := LoadFile("testdata/combat.yaml")
	require.Nil(t, err)
	checkCombat(t, e)
}

func TestFingerprint(t *testing.T) {
	a, err := LoadFile("testdata/combat.toml")
	require.Nil(t, err)
	b, err := LoadFile("testdata/combat.yaml")
	require.Nil(t, err)
	require.Equal(t, a.Fingerprint(), b.Fingerprint())
	require.Len(t, a.Fingerprint(), 64)

	require.Nil(t, b.AddConstant("EXTRA", 1))
	require.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestToFileRoundTrip(t *testing.T) {
	e, err := LoadFile("testdata/combat.toml")
	require.Nil(t, err)
	rebuilt, err := e.ToFile().Build()
	require.Nil(t, err)
	require.Equal(t, e.Fingerprint(), rebuilt.Fingerprint())
	require.Equal(t, map[string]string{"clamp": "math.clamp"}, e.ToFile().BlockTypes["on_hit"].Aliases)
}

func TestValidationCollectsEveryError(t *testing.T) {
	input := `
default_block = "missing"

[constants]
"math.E" = 1.0

[block_types.main]
functions = ["bogus"]

[block_types.main.inputs]
"in.a" = { offset = 0, kind = "bool" }

[block_types.main.outputs]
"out.a" = { offset = 99999 }

[block_types.main.aliases]
clamp = "math.nope"
`
	_, err := Load(strings.NewReader(input), TOML)
	require.NotNil(t, err)
	msg := err.Error()
	for _, want := range []string{
		`constant "math.E" is built in`,
		`unknown kind "bool"`,
		`output "out.a"`,
		`function pattern "bogus"`,
		`alias "clamp": unknown command "math.nope"`,
		`default block type "missing" is not declared`,
	} {
		require.Contains(t, msg, want)
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("default_block = "), TOML)
	require.ErrorContains(t, err, "parse error")

	_, err = Parse([]byte("unknown_field: 1\n"), YAML)
	require.ErrorContains(t, err, "parse error")

	_, err = Parse(nil, Format("ini"))
	require.ErrorContains(t, err, "unknown environment format")

	_, err = LoadFile("testdata/env.ini")
	require.ErrorContains(t, err, "unknown environment file extension")

	e, err := Parse(nil, YAML)
	require.Nil(t, err)
	require.Equal(t, "main", e.DefaultBlock)
	require.Empty(t, e.BlockTypes())
}

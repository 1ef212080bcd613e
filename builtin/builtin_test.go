package builtin

import (
	"math"
	"testing"

	"github.com/deepnoodle-ai/gscript/op"
	"github.com/stretchr/testify/require"
)

func TestVocabulary(t *testing.T) {
	expected := []string{
		"G.del", "G.get", "G.has", "G.init", "G.set",
		"math.abs", "math.ceil", "math.clamp", "math.cos", "math.degrees",
		"math.floor", "math.is_inf", "math.is_nan", "math.lerp", "math.max",
		"math.min", "math.radians", "math.round", "math.saturate", "math.sin",
		"math.sqrt", "math.tan",
	}
	require.Equal(t, expected, CommandNames())

	for _, name := range []string{"math.PI", "math.E", "math.TAU", "math.MAX",
		"math.MIN", "math.POS_INF", "math.NEG_INF"} {
		_, ok := LookupConstant(name)
		require.True(t, ok, name)
	}
}

func TestCommandsAreConsistentWithOpcodes(t *testing.T) {
	for name, cmd := range Commands() {
		info := op.GetInfo(cmd.Op)
		require.True(t, info.Valid(), name)
		require.Equal(t, info.OperandCount, len(cmd.Args), name)
		require.Equal(t, Num, cmd.Result, name)
	}
}

func TestGlobalSignatures(t *testing.T) {
	cmd, ok := LookupCommand("G.set")
	require.True(t, ok)
	require.Equal(t, []Kind{Str, Num}, cmd.Args)
	require.False(t, cmd.Pure())
	require.Equal(t, "G.set(str, num) num", cmd.Signature())

	cmd, ok = LookupCommand("math.clamp")
	require.True(t, ok)
	require.True(t, cmd.Pure())
}

func TestLookupReturnsCopies(t *testing.T) {
	cmd, _ := LookupCommand("G.init")
	cmd.Args[0] = Num
	again, _ := LookupCommand("G.init")
	require.Equal(t, Str, again.Args[0])
}

func TestConstants(t *testing.T) {
	v, _ := LookupConstant("math.MIN")
	require.Equal(t, -math.MaxFloat64, v)
	v, _ = LookupConstant("math.TAU")
	require.Equal(t, 2*math.Pi, v)
	_, ok := LookupConstant("math.pi")
	require.False(t, ok)
}

func TestMatch(t *testing.T) {
	require.Len(t, Match("*"), len(CommandNames()))
	require.Len(t, Match("G.*"), 5)
	require.Len(t, Match("math.clamp"), 1)
	require.Empty(t, Match("math.nope"))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("string")
	require.Nil(t, err)
	require.Equal(t, Str, k)
	k, err = ParseKind("")
	require.Nil(t, err)
	require.Equal(t, Num, k)
	_, err = ParseKind("bool")
	require.NotNil(t, err)

	var parsed Kind
	require.Nil(t, parsed.UnmarshalText([]byte("str")))
	require.Equal(t, Str, parsed)
}

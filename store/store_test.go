package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/gscript/bytecode"
	"github.com/deepnoodle-ai/gscript/op"
	"github.com/deepnoodle-ai/gscript/segment"
)

// artifact returns out.dmg = in.base * 2 compiled by hand.
func artifact(t *testing.T) *bytecode.ScriptBlocks {
	t.Helper()
	ins, err := bytecode.NewInstruction(op.Multiply,
		segment.MustAddress(segment.Out0, 0),
		segment.MustAddress(segment.In0, 0),
		segment.MustAddress(segment.Constant, 0),
	)
	require.NoError(t, err)
	block := bytecode.NewBlock(bytecode.BlockParams{
		Name:         "main",
		BlockType:    "main",
		Instructions: []bytecode.Instruction{ins},
		Locations:    []bytecode.SourceLocation{{Line: 1, Column: 11}},
	})
	return bytecode.NewScriptBlocks(bytecode.Params{
		Constants: []float64{2},
		Strings:   []string{"combo"},
		Source:    "out.dmg = in.base * 2",
		Blocks:    []*bytecode.Block{block},
	})
}

func requireSameArtifact(t *testing.T, want, got *bytecode.ScriptBlocks) {
	t.Helper()
	require.Equal(t, want.Constants(), got.Constants())
	require.Equal(t, want.Strings(), got.Strings())
	require.Equal(t, want.Source(), got.Source())
	require.Equal(t, want.BlockNames(), got.BlockNames())
	require.Equal(t, want.Block(0).Instructions(), got.Block(0).Instructions())
}

func TestKey(t *testing.T) {
	a := Key("env", "out.dmg = 1", []string{"level"})
	require.Len(t, a, 64)
	require.Equal(t, a, Key("env", "out.dmg = 1", []string{"level"}))

	for _, other := range []string{
		Key("env2", "out.dmg = 1", []string{"level"}),
		Key("env", "out.dmg = 2", []string{"level"}),
		Key("env", "out.dmg = 1", nil),
		Key("env", "out.dmg = 1", []string{"level", "rank"}),
	} {
		require.NotEqual(t, a, other)
	}
}

func TestEntryRoundTrip(t *testing.T) {
	blocks := artifact(t)
	entry, data, err := newEntry("k", blocks)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := decodeEntry("k", entry.Revision.String(), data, entry.Created)
	require.NoError(t, err)
	require.Equal(t, entry.Revision, decoded.Revision)
	requireSameArtifact(t, blocks, decoded.Blocks)

	_, err = decodeEntry("k", "not-a-uuid", data, entry.Created)
	require.Error(t, err)
	_, err = decodeEntry("k", entry.Revision.String(), []byte{0xff}, entry.Created)
	require.Error(t, err)
}

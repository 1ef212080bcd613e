package vm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/gscript/segment"
)

func TestIntern(t *testing.T) {
	mem := NewMemory(artifact("main", nil, []string{"combo"}))
	require.Equal(t, 0.0, mem.Intern("combo"))
	require.Equal(t, 1.0, mem.Intern("fire"))
	require.Equal(t, 1.0, mem.Intern("fire"))

	s, ok := mem.Lookup(1)
	require.True(t, ok)
	require.Equal(t, "fire", s)

	_, ok = mem.Lookup(0.5)
	require.False(t, ok)
	_, ok = mem.Lookup(-1)
	require.False(t, ok)
	_, ok = mem.Lookup(2)
	require.False(t, ok)
}

func TestMemoryDoesNotAliasArtifact(t *testing.T) {
	blocks := artifact("main", []float64{1}, []string{"a"})
	mem := NewMemory(blocks)
	mem.Constants[0] = 99
	mem.Intern("b")
	require.Equal(t, 1.0, blocks.ConstantAt(0))
	require.Equal(t, 1, blocks.StringCount())
}

func TestSetInputAndOutput(t *testing.T) {
	mem := NewMemory(artifact("main", nil, nil))
	require.NoError(t, mem.SetInput(4096+2, 7))
	require.Len(t, mem.Inputs[1], 3)
	require.Equal(t, 7.0, mem.Inputs[1][2])

	mem.Size([segment.InputSegments]int{}, [segment.OutputSegments]int{0, 4})
	mem.Outputs[1][3] = 12
	v, err := mem.Output(4096 + 3)
	require.NoError(t, err)
	require.Equal(t, 12.0, v)

	_, err = mem.Output(5)
	require.Error(t, err)
	require.Error(t, mem.SetInput(-1, 0))
}

func TestReset(t *testing.T) {
	mem := NewMemory(artifact("main", nil, nil))
	mem.Size([segment.InputSegments]int{1}, [segment.OutputSegments]int{1})
	mem.Registers[3] = 1
	mem.Closures[0] = 2
	mem.Outputs[0][0] = 3
	mem.Inputs[0][0] = 4
	mem.Reset()
	require.Equal(t, 0.0, mem.Registers[3])
	require.Equal(t, 0.0, mem.Closures[0])
	require.Equal(t, 0.0, mem.Outputs[0][0])
	require.Equal(t, 4.0, mem.Inputs[0][0])
}

func TestResetDropsInternedStrings(t *testing.T) {
	mem := NewMemory(artifact("main", nil, []string{"combo"}))
	for _, s := range []string{"fire", "ice", "fire", "poison"} {
		mem.Intern(s)
	}
	require.Len(t, mem.Strings, 4)
	mem.Reset()
	require.Equal(t, []string{"combo"}, mem.Strings)
	require.Equal(t, 0.0, mem.Intern("combo"))
	require.Equal(t, 1.0, mem.Intern("ice"))

	for frame := 0; frame < 100; frame++ {
		mem.Reset()
		mem.Intern(fmt.Sprintf("tag%d", frame))
	}
	require.Len(t, mem.Strings, 2)

	literal := &Memory{Strings: []string{"a", "b"}}
	literal.Reset()
	require.Equal(t, []string{"a", "b"}, literal.Strings)
}

package dis

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/gscript/builtin"
	"github.com/deepnoodle-ai/gscript/bytecode"
	"github.com/deepnoodle-ai/gscript/compiler"
	"github.com/deepnoodle-ai/gscript/env"
	"github.com/deepnoodle-ai/gscript/parser"
)

func compile(t *testing.T, src string, params ...string) *bytecode.ScriptBlocks {
	t.Helper()
	e := env.Default()
	main, _ := e.BlockType("main")
	require.NoError(t, main.AddInput("in.base", 0, builtin.Num))
	require.NoError(t, main.AddInput("in.mult", 1, builtin.Num))
	require.NoError(t, main.AddOutput("out.dmg", 0, builtin.Num))
	program, err := parser.Parse(context.Background(), src,
		parser.WithEnvironment(e), parser.WithParams(params...))
	require.NoError(t, err)
	blocks, err := compiler.Compile(program, &compiler.Config{Params: params, Source: src})
	require.NoError(t, err)
	return blocks
}

func noColor(t *testing.T) {
	saved := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = saved })
}

func TestDisassembly(t *testing.T) {
	noColor(t)
	blocks := compile(t, "out.dmg = math.clamp(in.base * in.mult, 0, 100)")
	instructions, err := Disassemble(blocks, 0)
	require.NoError(t, err)
	require.Len(t, instructions, 2)
	require.Equal(t, "CLAMP", instructions[1].Name)
	require.Equal(t, "0, 100", instructions[1].Annotation)

	var buf bytes.Buffer
	require.NoError(t, Print(instructions, &buf))
	expected := strings.TrimSpace(`
+--------+--------+----------+----------------------------+--------+------+
| OFFSET | OPCODE |   DST    |          OPERANDS          |  INFO  | LOC  |
+--------+--------+----------+----------------------------+--------+------+
|      0 | MUL    | reg[0]   | in_0[0], in_0[1]           |        | 1:22 |
|      1 | CLAMP  | out_0[0] | reg[0], const[0], const[1] | 0, 100 | 1:11 |
+--------+--------+----------+----------------------------+--------+------+
`)
	require.Equal(t, expected+"\n", buf.String())
}

func TestAnnotations(t *testing.T) {
	blocks := compile(t, "G.set(\"combo\", level)\n", "level")
	instructions, err := Disassemble(blocks, 0)
	require.NoError(t, err)
	require.Len(t, instructions, 1)
	require.Equal(t, `"combo", level`, instructions[0].Annotation)
}

func TestPrintAll(t *testing.T) {
	noColor(t)
	blocks := compile(t, "let x = in.base * 2\nout.dmg = x\n")
	var buf bytes.Buffer
	require.NoError(t, PrintAll(blocks, &buf))
	out := buf.String()
	require.Contains(t, out, "hook main (block type main, 1 registers, 1 locals)")
	require.Contains(t, out, "locals: x")
	require.Contains(t, out, "| MOVE   | out_0[0] | reg[0]")
}

func TestDisassembleOutOfRange(t *testing.T) {
	blocks := compile(t, "")
	_, err := Disassemble(blocks, 0)
	require.Error(t, err)
}

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "1.5", FormatNumber(1.5))
	require.Equal(t, "1e+21", FormatNumber(1e21))
	require.Equal(t, "+Inf", FormatNumber(1/zero()))
}

func zero() float64 { return 0 }

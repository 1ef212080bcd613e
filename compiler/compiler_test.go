package compiler

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/gscript/ast"
	"github.com/deepnoodle-ai/gscript/builtin"
	"github.com/deepnoodle-ai/gscript/bytecode"
	"github.com/deepnoodle-ai/gscript/env"
	"github.com/deepnoodle-ai/gscript/errors"
	"github.com/deepnoodle-ai/gscript/globals"
	"github.com/deepnoodle-ai/gscript/op"
	"github.com/deepnoodle-ai/gscript/parser"
	"github.com/deepnoodle-ai/gscript/vm"
)

func testEnv(t *testing.T) *env.Environment {
	t.Helper()
	e := env.Default()
	main, ok := e.BlockType("main")
	require.True(t, ok)
	require.NoError(t, main.AddInput("in.base", 0, builtin.Num))
	require.NoError(t, main.AddInput("in.mult", 1, builtin.Num))
	require.NoError(t, main.AddInput("in.tag", 4096, builtin.Str))
	require.NoError(t, main.AddOutput("out.dmg", 0, builtin.Num))
	require.NoError(t, main.AddOutput("out.label", 1, builtin.Str))

	hit := env.NewBlockType("on_hit")
	require.NoError(t, hit.AllowFunctions("G.*", "math.*"))
	require.NoError(t, hit.AddInput("in.damage", 0, builtin.Num))
	require.NoError(t, hit.AddOutput("out.hp", 0, builtin.Num))
	e.AddBlockType(hit)

	require.NoError(t, e.AddConstant("CRIT_MULT", 2))
	return e
}

func compile(t *testing.T, source string, params []string, opts ...parser.Option) (*bytecode.ScriptBlocks, error) {
	t.Helper()
	opts = append([]parser.Option{
		parser.WithEnvironment(testEnv(t)),
		parser.WithFilename("test.gs"),
		parser.WithParams(params...),
	}, opts...)
	program, err := parser.Parse(context.Background(), source, opts...)
	require.NoError(t, err)
	return Compile(program, &Config{Params: params, Filename: "test.gs", Source: source})
}

func mustCompile(t *testing.T, source string, params ...string) *bytecode.ScriptBlocks {
	t.Helper()
	blocks, err := compile(t, source, params)
	require.NoError(t, err)
	return blocks
}

// image returns a memory image sized for the hook's block type.
func image(t *testing.T, blocks *bytecode.ScriptBlocks, hook string) *vm.Memory {
	t.Helper()
	bt, ok := testEnv(t).BlockType(hook)
	require.True(t, ok)
	mem := vm.NewMemory(blocks)
	mem.Size(bt.InputSizes(), bt.OutputSizes())
	mem.Globals = globals.New(nil)
	return mem
}

func listing(b *bytecode.Block) []string {
	var lines []string
	for _, ins := range b.Instructions() {
		lines = append(lines, ins.String())
	}
	return lines
}

func TestClampScenario(t *testing.T) {
	blocks := mustCompile(t, "out.dmg = math.clamp(in.base * in.mult, 0, math.MAX)\n")
	require.Equal(t, []string{"main"}, blocks.BlockNames())
	main := blocks.Block(0)
	require.Equal(t, []string{
		"MUL reg[0], in_0[0], in_0[1]",
		"CLAMP out_0[0], reg[0], const[0], const[1]",
	}, listing(main))
	require.Equal(t, []float64{0, math.MaxFloat64}, blocks.Constants())
	require.Equal(t, 1, main.RegisterCount())

	mem := image(t, blocks, "main")
	mem.Inputs[0][0] = 10
	mem.Inputs[0][1] = 1.5
	require.NoError(t, vm.Run(blocks, "main", mem))
	require.Equal(t, 15.0, mem.Outputs[0][0])
}

func TestLocalsAndParams(t *testing.T) {
	blocks := mustCompile(t, `
let scaled = level * CRIT_MULT
out.dmg = scaled + in.base
G.set("last", out.dmg)
`, "level")
	main := blocks.Block(0)
	require.Equal(t, []string{
		"MUL reg[0], closure[0], const[0]",
		"ADD out_0[0], reg[0], in_0[0]",
		"G_SET reg[1], str[0], out_0[0]",
	}, listing(main))
	require.Equal(t, 2, main.RegisterCount())
	require.Equal(t, 1, main.LocalCount())
	require.Equal(t, "scaled", main.LocalNameAt(0))
	require.Equal(t, []string{"level"}, blocks.Params())

	mem := image(t, blocks, "main")
	require.NoError(t, mem.SetArgs(4))
	mem.Inputs[0][0] = 1
	require.NoError(t, vm.Run(blocks, "main", mem))
	require.Equal(t, 9.0, mem.Outputs[0][0])
	require.Equal(t, 9.0, mem.Globals.Get("last"))
}

func TestLetOfLeafMovesIntoRegister(t *testing.T) {
	blocks := mustCompile(t, "let b = in.base\nout.dmg = b * b\n")
	require.Equal(t, []string{
		"MOVE reg[0], in_0[0]",
		"MUL out_0[0], reg[0], reg[0]",
	}, listing(blocks.Block(0)))
}

func TestFolding(t *testing.T) {
	blocks := mustCompile(t, "out.dmg = 2 * 3 + 1\n")
	code := blocks.Block(0).Instructions()
	require.Len(t, code, 1)
	require.Equal(t, op.Move, code[0].Op)
	require.Equal(t, 7.0, blocks.ConstantAt(code[0].Args[0].Offset()))

	blocks = mustCompile(t, "out.dmg = math.sqrt(16) + in.base\n")
	code = blocks.Block(0).Instructions()
	require.Len(t, code, 1)
	require.Equal(t, op.Add, code[0].Op)
	require.Equal(t, 4.0, blocks.ConstantAt(code[0].Args[0].Offset()))

	blocks = mustCompile(t, "out.dmg = -math.PI\n")
	code = blocks.Block(0).Instructions()
	require.Len(t, code, 1)
	require.Equal(t, -math.Pi, blocks.ConstantAt(code[0].Args[0].Offset()))
}

func TestGlobalsAreNotFolded(t *testing.T) {
	blocks := mustCompile(t, "out.dmg = G.get(\"combo\") + 1\n")
	require.Equal(t, []string{
		"G_GET reg[0], str[0]",
		"ADD out_0[0], reg[0], const[0]",
	}, listing(blocks.Block(0)))
}

func TestConstantDeduplication(t *testing.T) {
	blocks := mustCompile(t, "out.dmg = in.base * 2 + 2\n")
	require.Equal(t, []float64{2}, blocks.Constants())
	require.Equal(t, []string{
		"MUL reg[0], in_0[0], const[0]",
		"ADD out_0[0], reg[0], const[0]",
	}, listing(blocks.Block(0)))

	blocks = mustCompile(t, "out.dmg = in.base * 0 + -0\n")
	require.Equal(t, 2, blocks.ConstantCount())
	require.True(t, math.Signbit(blocks.ConstantAt(blocks.ConstantCount()-1)))
}

func TestStringDeduplication(t *testing.T) {
	blocks := mustCompile(t, "G.set(\"a\", 1)\nG.set(\"b\", G.get(\"a\"))\n")
	require.Equal(t, []string{"a", "b"}, blocks.Strings())
}

func TestTernary(t *testing.T) {
	blocks := mustCompile(t, "out.dmg = in.base > 5 ? in.base : 0\n")
	require.Equal(t, []string{
		"GT reg[0], in_0[0], const[0]",
		"SELECT out_0[0], reg[0], in_0[0], const[1]",
	}, listing(blocks.Block(0)))

	for _, tc := range []struct{ base, want float64 }{{7, 7}, {3, 0}} {
		mem := image(t, blocks, "main")
		mem.Inputs[0][0] = tc.base
		require.NoError(t, vm.Run(blocks, "main", mem))
		require.Equal(t, tc.want, mem.Outputs[0][0])
	}
}

func TestStringValues(t *testing.T) {
	blocks := mustCompile(t, "out.label = in.base > 0 ? \"pos\" : \"neg\"\n")
	mem := image(t, blocks, "main")
	mem.Inputs[0][0] = 2
	require.NoError(t, vm.Run(blocks, "main", mem))
	label, ok := mem.Lookup(mem.Outputs[0][1])
	require.True(t, ok)
	require.Equal(t, "pos", label)
}

func TestStringInputAsGlobalKey(t *testing.T) {
	blocks := mustCompile(t, "G.set(in.tag, in.base)\n")
	mem := image(t, blocks, "main")
	require.NoError(t, mem.SetInput(4096, mem.Intern("fire")))
	mem.Inputs[0][0] = 3
	require.NoError(t, vm.Run(blocks, "main", mem))
	require.Equal(t, 3.0, mem.Globals.Get("fire"))
}

func TestHooks(t *testing.T) {
	blocks := mustCompile(t, `
out.dmg = in.base
hook on_hit {
	out.hp -= in.damage
}
`)
	require.Equal(t, []string{"main", "on_hit"}, blocks.BlockNames())
	hit := blocks.Block(1)
	require.Equal(t, "on_hit", hit.BlockType())
	require.Equal(t, []string{"SUB out_0[0], out_0[0], in_0[0]"}, listing(hit))
	require.Equal(t, 0, hit.RegisterCount())

	mem := image(t, blocks, "on_hit")
	mem.Outputs[0][0] = 100
	mem.Inputs[0][0] = 30
	require.NoError(t, vm.Run(blocks, "on_hit", mem))
	require.Equal(t, 70.0, mem.Outputs[0][0])
}

func TestEmptyProgram(t *testing.T) {
	blocks := mustCompile(t, "")
	require.Equal(t, 0, blocks.BlockCount())

	program := &ast.Program{}
	blocks, err := Compile(program, nil)
	require.NoError(t, err)
	require.Equal(t, bytecode.FormatVersion, blocks.Version())
}

func TestRegisterReuse(t *testing.T) {
	blocks := mustCompile(t, "out.dmg = in.base * in.mult + in.base * in.mult + in.base * in.mult\n")
	require.Equal(t, 2, blocks.Block(0).RegisterCount())
}

// nested builds in.base * in.mult + (... + (in.base)) with depth levels, so
// that depth products are live at the innermost addition.
func nested(depth int) string {
	return "out.dmg = " + strings.Repeat("in.base * in.mult + (", depth) + "in.base" + strings.Repeat(")", depth) + "\n"
}

func TestRegisterBudget(t *testing.T) {
	deep := parser.WithMaxDepth(100000)

	blocks, err := compile(t, nested(48), nil, deep)
	require.NoError(t, err)
	require.Equal(t, 48, blocks.Block(0).RegisterCount())
	mem := image(t, blocks, "main")
	mem.Inputs[0][0] = 1
	mem.Inputs[0][1] = 2
	require.NoError(t, vm.Run(blocks, "main", mem))
	require.Equal(t, 97.0, mem.Outputs[0][0])

	_, err = compile(t, nested(49), nil, deep)
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.E2007))
	require.Contains(t, err.Error(), "script bad command: register exhaustion")
	var cerr *errors.CompileError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, 1, cerr.Line)
	require.Equal(t, "test.gs", cerr.Filename)
	require.NotEmpty(t, cerr.SourceLine)
}

func TestTooManyLocals(t *testing.T) {
	var b strings.Builder
	for i := 0; i <= 24; i++ {
		fmt.Fprintf(&b, "let a%d = in.base + %d\n", i, i)
	}
	_, err := compile(t, b.String(), nil)
	require.True(t, errors.HasCode(err, errors.E2014))
	var cerr *errors.CompileError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, 25, cerr.Line)
}

func TestTooManyParams(t *testing.T) {
	params := make([]string, 33)
	for i := range params {
		params[i] = fmt.Sprintf("p%d", i)
	}
	_, err := compile(t, "out.dmg = p0\n", params)
	require.True(t, errors.HasCode(err, errors.E2009))
}

func TestTooManyConstants(t *testing.T) {
	var b strings.Builder
	for i := 0; i <= 4096; i++ {
		fmt.Fprintf(&b, "out.dmg = in.base + %d\n", i+1)
	}
	_, err := compile(t, b.String(), nil)
	require.True(t, errors.HasCode(err, errors.E2008))
}

func TestTooManyStrings(t *testing.T) {
	var b strings.Builder
	for i := 0; i <= 4096; i++ {
		fmt.Fprintf(&b, "G.has(\"k%d\")\n", i)
	}
	_, err := compile(t, b.String(), nil)
	require.True(t, errors.HasCode(err, errors.E2016))
}

func TestSourceLocations(t *testing.T) {
	blocks := mustCompile(t, "let x = in.base * 2\nout.dmg = x + 1\n")
	main := blocks.Block(0)
	require.Equal(t, bytecode.SourceLocation{Line: 1, Column: 9}, main.LocationAt(0))
	require.Equal(t, bytecode.SourceLocation{Line: 2, Column: 11}, main.LocationAt(1))
	require.Equal(t, "test.gs", blocks.Filename())
	require.Contains(t, blocks.Source(), "out.dmg = x + 1")
}

func TestSerializedFormsExecuteIdentically(t *testing.T) {
	blocks := mustCompile(t, `
let crit = in.mult > 1 ? CRIT_MULT : 1
out.dmg = math.round(in.base * crit * level)
G.init("hits", 0)
hook on_hit { out.hp = math.max(out.hp - in.damage, 0) }
`, "level")

	data, err := bytecode.Marshal(blocks)
	require.NoError(t, err)
	fromJSON, err := bytecode.Unmarshal(data)
	require.NoError(t, err)

	raw, err := bytecode.Encode(blocks)
	require.NoError(t, err)
	fromCBOR, err := bytecode.Decode(raw)
	require.NoError(t, err)

	run := func(b *bytecode.ScriptBlocks) []float64 {
		mem := image(t, b, "main")
		require.NoError(t, mem.SetArgs(3))
		mem.Inputs[0][0] = 2.5
		mem.Inputs[0][1] = 1.5
		require.NoError(t, vm.Run(b, "main", mem))
		return mem.Outputs[0]
	}
	want := run(blocks)
	require.Equal(t, 15.0, want[0])
	require.Equal(t, want, run(fromJSON))
	require.Equal(t, want, run(fromCBOR))
}

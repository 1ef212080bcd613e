package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/gscript/bytecode"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

const (
	damage = "testdata/damage.gs"
	combat = "testdata/combat.toml"
)

func TestCheck(t *testing.T) {
	out, _, err := execute(t, "check", damage, "--env", combat)
	require.NoError(t, err)
	require.Contains(t, out, "testdata/damage.gs: ok (2 hooks: main, on_hit;")

	_, _, err = execute(t, "check", "-c", "out.dmg = in.bse", "--env", combat)
	require.Error(t, err)
	msg := formatError(err, false)
	require.Contains(t, msg, "E2001")
	require.Contains(t, msg, "in.bse")

	_, _, err = execute(t, "check")
	require.ErrorContains(t, err, "no input provided")
	_, _, err = execute(t, "check", damage, "-c", "out.dmg = 1")
	require.ErrorContains(t, err, "multiple input sources")
}

func TestRunText(t *testing.T) {
	out, _, err := execute(t, "run", damage, "--env", combat,
		"--in", "in.base=10", "--in", "in.mult=1.5", "--global", "combo=3")
	require.NoError(t, err)
	require.Equal(t, "out.crit = 3\nout.dmg = 15\nG[\"combo\"] = 3\n", out)
}

func TestRunHook(t *testing.T) {
	out, _, err := execute(t, "run", damage, "--env", combat, "--hook", "on_hit", "--in", "in.damage=80")
	require.NoError(t, err)
	require.Equal(t, "out.hp = -50\n", out)

	_, _, err = execute(t, "run", damage, "--env", combat, "--hook", "on_block")
	require.ErrorContains(t, err, "missing hook")
}

func TestRunJSON(t *testing.T) {
	out, _, err := execute(t, "run", damage, "--env", combat,
		"--in", "in.base=4", "--in", "in.mult=2", "-o", "json")
	require.NoError(t, err)
	var r struct {
		Hook    string             `json:"hook"`
		Outputs map[string]float64 `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Equal(t, "main", r.Hook)
	require.Equal(t, map[string]float64{"out.dmg": 8, "out.crit": 0}, r.Outputs)
}

func TestRunParamsAndArgs(t *testing.T) {
	out, _, err := execute(t, "run", "-c", "out.dmg = level * in.base", "--env", combat,
		"--params", "level", "--arg", "4", "--in", "in.base=2")
	require.NoError(t, err)
	require.Equal(t, "out.crit = 0\nout.dmg = 8\n", out)
}

func TestRunStringInput(t *testing.T) {
	out, _, err := execute(t, "run", "-c", `G.set(in.tag, in.base)`, "--env", combat,
		"--in", "in.tag=fire", "--in", "in.base=7")
	require.NoError(t, err)
	require.Contains(t, out, "G[\"fire\"] = 7\n")
}

func TestRunErrors(t *testing.T) {
	_, _, err := execute(t, "run", damage, "--env", combat, "--in", "in.bse=1")
	require.ErrorContains(t, err, `no input "in.bse"`)
	_, _, err = execute(t, "run", damage, "--env", combat, "--in", "in.base")
	require.ErrorContains(t, err, "expected name=value")
	_, _, err = execute(t, "run", damage, "--env", combat, "--in", "in.base=ten")
	require.ErrorContains(t, err, "not a number")
	_, _, err = execute(t, "run", damage, "--env", combat, "-o", "yaml")
	require.ErrorContains(t, err, "unknown output format")
}

func TestRunTrace(t *testing.T) {
	_, stderr, err := execute(t, "run", damage, "--env", combat,
		"--in", "in.base=2", "--in", "in.mult=3", "--trace")
	require.NoError(t, err)
	require.Contains(t, stderr, "main:0")
	require.Contains(t, stderr, "MUL reg[0], in_0[0], in_0[1]")
	require.Contains(t, stderr, "-> 6 @1:22")
}

func TestEnvironmentFromEnvVar(t *testing.T) {
	t.Setenv("GSCRIPT_ENV", combat)
	out, _, err := execute(t, "run", damage, "--in", "in.base=1", "--in", "in.mult=1")
	require.NoError(t, err)
	require.Contains(t, out, "out.dmg = 1\n")
}

func TestCompileAndRunArtifact(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"damage.cbor", "damage.json"} {
		path := filepath.Join(dir, name)
		_, _, err := execute(t, "compile", damage, "--env", combat, "-o", path)
		require.NoError(t, err)

		out, _, err := execute(t, "run", path, "--env", combat, "--in", "in.base=10", "--in", "in.mult=1.5")
		require.NoError(t, err)
		require.Contains(t, out, "out.dmg = 15\n")
	}

	data, err := os.ReadFile(filepath.Join(dir, "damage.cbor"))
	require.NoError(t, err)
	_, err = bytecode.Decode(data)
	require.NoError(t, err)
}

func TestCompileToStdout(t *testing.T) {
	out, _, err := execute(t, "compile", damage, "--env", combat)
	require.NoError(t, err)
	blocks, err := bytecode.Unmarshal([]byte(out))
	require.NoError(t, err)
	require.Equal(t, []string{"main", "on_hit"}, blocks.BlockNames())

	out, _, err = execute(t, "compile", damage, "--env", combat, "--format", "cbor")
	require.NoError(t, err)
	_, err = bytecode.Decode([]byte(out))
	require.NoError(t, err)

	_, _, err = execute(t, "compile", damage, "--format", "xml")
	require.ErrorContains(t, err, "unknown artifact format")
}

func TestDis(t *testing.T) {
	out, _, err := execute(t, "dis", damage, "--env", combat)
	require.NoError(t, err)
	require.Contains(t, out, "hook main (block type main")
	require.Contains(t, out, "hook on_hit (block type on_hit")
	require.Contains(t, out, "CLAMP")
	require.Contains(t, out, "G_GET")
}

func TestStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "artifacts.db")
	for i := 0; i < 2; i++ {
		out, _, err := execute(t, "--store", "sqlite:"+db, "run", damage, "--env", combat,
			"--in", "in.base=3", "--in", "in.mult=3")
		require.NoError(t, err)
		require.Contains(t, out, "out.dmg = 9\n")
	}
	_, err := os.Stat(db)
	require.NoError(t, err)

	_, _, err = execute(t, "--store", "redis://x", "run", damage, "--env", combat)
	require.ErrorContains(t, err, "unsupported store")
}

func TestTestCommand(t *testing.T) {
	out, _, err := execute(t, "test", "../../testing/testdata/pass", "-v")
	require.NoError(t, err)
	require.Contains(t, out, "--- PASS: ../../testing/testdata/pass/damage_test.yaml/clamp")
	require.Contains(t, out, "PASS\n6 passed, 1 skipped\n")

	out, _, err = execute(t, "test", "../../testing/testdata/fail")
	require.ErrorContains(t, err, "scenario suites failed")
	require.Contains(t, out, "--- FAIL:")
}

func TestBench(t *testing.T) {
	out, _, err := execute(t, "bench", damage, "--env", combat,
		"--in", "in.base=10", "--in", "in.mult=1.5", "-n", "50", "--warmup", "5")
	require.NoError(t, err)
	require.Contains(t, out, "main: 50 runs (5 warmup)\n")
	require.Contains(t, out, "median  ")

	out, _, err = execute(t, "bench", damage, "--env", combat, "--hook", "on_hit", "-n", "20", "-o", "json")
	require.NoError(t, err)
	var r benchResult
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Equal(t, "on_hit", r.Hook)
	require.Equal(t, 20, r.Iterations)
	require.LessOrEqual(t, r.MinNs, r.MedianNs)
	require.LessOrEqual(t, r.MedianNs, r.MaxNs)

	_, _, err = execute(t, "bench", damage, "--env", combat, "-n", "0")
	require.ErrorContains(t, err, "iterations must be positive")
	_, _, err = execute(t, "bench", damage, "--env", combat, "--hook", "on_block")
	require.ErrorContains(t, err, "missing hook")
}

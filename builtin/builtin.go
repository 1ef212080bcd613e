// Package builtin defines the closed vocabulary of gscript: the value kinds,
// the named constants and the callable commands with their argument-kind
// signatures.
//
// This table is the contract between script authors and the compiler.
// Adding a command requires adding both its opcode (package op) and its
// signature here.
package builtin

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/deepnoodle-ai/gscript/op"
)

// Kind is the kind of a value: numeric or string.
type Kind uint8

const (
	Num Kind = iota
	Str
)

// String returns "num" or "str".
func (k Kind) String() string {
	switch k {
	case Num:
		return "num"
	case Str:
		return "str"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind parses the String form of a Kind. Common aliases are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "num", "number", "numeric", "float":
		return Num, nil
	case "str", "string":
		return Str, nil
	default:
		return Num, fmt.Errorf("unknown kind %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Command is a callable built-in operation.
type Command struct {
	Name   string
	Op     op.Code
	Args   []Kind
	Result Kind
}

// Pure reports whether the command only depends on its arguments.
func (c Command) Pure() bool {
	return op.GetInfo(c.Op).Pure
}

// Signature renders the command as "name(num, str) num".
func (c Command) Signature() string {
	args := make([]string, len(c.Args))
	for i, k := range c.Args {
		args[i] = k.String()
	}
	return fmt.Sprintf("%s(%s) %s", c.Name, strings.Join(args, ", "), c.Result)
}

func num(n int) []Kind {
	kinds := make([]Kind, n)
	for i := range kinds {
		kinds[i] = Num
	}
	return kinds
}

var commands = map[string]Command{
	"G.init":        {Name: "G.init", Op: op.GlobalInit, Args: []Kind{Str, Num}},
	"G.get":         {Name: "G.get", Op: op.GlobalGet, Args: []Kind{Str}},
	"G.set":         {Name: "G.set", Op: op.GlobalSet, Args: []Kind{Str, Num}},
	"G.has":         {Name: "G.has", Op: op.GlobalHas, Args: []Kind{Str}},
	"G.del":         {Name: "G.del", Op: op.GlobalDel, Args: []Kind{Str}},
	"math.is_nan":   {Name: "math.is_nan", Op: op.IsNaN, Args: num(1)},
	"math.is_inf":   {Name: "math.is_inf", Op: op.IsInf, Args: num(1)},
	"math.abs":      {Name: "math.abs", Op: op.Abs, Args: num(1)},
	"math.min":      {Name: "math.min", Op: op.Min, Args: num(2)},
	"math.max":      {Name: "math.max", Op: op.Max, Args: num(2)},
	"math.floor":    {Name: "math.floor", Op: op.Floor, Args: num(1)},
	"math.ceil":     {Name: "math.ceil", Op: op.Ceil, Args: num(1)},
	"math.round":    {Name: "math.round", Op: op.Round, Args: num(1)},
	"math.clamp":    {Name: "math.clamp", Op: op.Clamp, Args: num(3)},
	"math.saturate": {Name: "math.saturate", Op: op.Saturate, Args: num(1)},
	"math.lerp":     {Name: "math.lerp", Op: op.Lerp, Args: num(3)},
	"math.sqrt":     {Name: "math.sqrt", Op: op.Sqrt, Args: num(1)},
	"math.degrees":  {Name: "math.degrees", Op: op.Degrees, Args: num(1)},
	"math.radians":  {Name: "math.radians", Op: op.Radians, Args: num(1)},
	"math.sin":      {Name: "math.sin", Op: op.Sin, Args: num(1)},
	"math.cos":      {Name: "math.cos", Op: op.Cos, Args: num(1)},
	"math.tan":      {Name: "math.tan", Op: op.Tan, Args: num(1)},
}

var constants = map[string]float64{
	"math.PI":      math.Pi,
	"math.E":       math.E,
	"math.TAU":     2 * math.Pi,
	"math.MAX":     math.MaxFloat64,
	"math.MIN":     -math.MaxFloat64,
	"math.POS_INF": math.Inf(1),
	"math.NEG_INF": math.Inf(-1),
}

// LookupCommand returns the built-in command with the given name.
func LookupCommand(name string) (Command, bool) {
	cmd, ok := commands[name]
	if !ok {
		return Command{}, false
	}
	return cmd.clone(), true
}

// LookupConstant returns the built-in constant with the given name.
func LookupConstant(name string) (float64, bool) {
	v, ok := constants[name]
	return v, ok
}

// Commands returns a copy of the full command table.
func Commands() map[string]Command {
	result := make(map[string]Command, len(commands))
	for name, cmd := range commands {
		result[name] = cmd.clone()
	}
	return result
}

// Constants returns a copy of the built-in constant table.
func Constants() map[string]float64 {
	result := make(map[string]float64, len(constants))
	for name, v := range constants {
		result[name] = v
	}
	return result
}

// CommandNames returns the sorted names of all built-in commands.
func CommandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Match returns the built-in commands whose names match a pattern. A
// pattern is either an exact name, "*" for every command, or a prefix
// ending in ".*" such as "math.*".
func Match(pattern string) []Command {
	var matched []Command
	for _, name := range CommandNames() {
		if matchPattern(pattern, name) {
			matched = append(matched, commands[name].clone())
		}
	}
	return matched
}

func matchPattern(pattern, name string) bool {
	switch {
	case pattern == "*":
		return true
	case strings.HasSuffix(pattern, ".*"):
		return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*"))
	default:
		return pattern == name
	}
}

func (c Command) clone() Command {
	args := make([]Kind, len(c.Args))
	copy(args, c.Args)
	c.Args = args
	return c
}

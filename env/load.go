package env

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/deepnoodle-ai/gscript/builtin"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Format is an environment file format.
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unknown environment file extension %q", filepath.Ext(path))
}

// File is the on-disk form of an Environment:
//
//	default_block = "main"
//
//	[constants]
//	CRIT_MULT = 2.0
//
//	[block_types.main]
//	functions = ["math.*", "G.*"]
//	aliases = { clamp = "math.clamp" }
//	inputs = { "in.base" = { offset = 0 }, "in.tag" = { offset = 1, kind = "str" } }
//	outputs = { "out.dmg" = { offset = 0 } }
type File struct {
	DefaultBlock string                   `toml:"default_block" yaml:"default_block"`
	Constants    map[string]float64       `toml:"constants" yaml:"constants"`
	BlockTypes   map[string]BlockTypeFile `toml:"block_types" yaml:"block_types"`
}

// BlockTypeFile is the on-disk form of a BlockType.
type BlockTypeFile struct {
	Inputs    map[string]SlotFile `toml:"inputs" yaml:"inputs"`
	Outputs   map[string]SlotFile `toml:"outputs" yaml:"outputs"`
	Functions []string            `toml:"functions" yaml:"functions"`
	Aliases   map[string]string   `toml:"aliases" yaml:"aliases"`
}

// SlotFile is the on-disk form of a Slot. Kind defaults to "num".
type SlotFile struct {
	Offset int    `toml:"offset" yaml:"offset"`
	Kind   string `toml:"kind" yaml:"kind"`
}

// LoadFile reads an environment from a TOML or YAML file.
func LoadFile(path string) (*Environment, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	e, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// Load reads an environment in the given format.
func Load(r io.Reader, format Format) (*Environment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data, format)
}

// Parse decodes and validates an environment.
func Parse(data []byte, format Format) (*Environment, error) {
	var f File
	switch format {
	case TOML:
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("parse error: %w", err)
		}
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && err != io.EOF {
			return nil, fmt.Errorf("parse error: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown environment format %q", format)
	}
	return f.Build()
}

// Build validates the file and converts it into an Environment. Every
// problem found is reported, not only the first.
func (f *File) Build() (*Environment, error) {
	var result *multierror.Error
	e := New()
	if f.DefaultBlock != "" {
		if !ValidName(f.DefaultBlock) || strings.Contains(f.DefaultBlock, ".") {
			result = multierror.Append(result, fmt.Errorf("invalid default block name %q", f.DefaultBlock))
		}
		e.DefaultBlock = f.DefaultBlock
	}
	for _, name := range sortedKeys(f.Constants) {
		if err := e.AddConstant(name, f.Constants[name]); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, name := range sortedKeys(f.BlockTypes) {
		bt, errs := f.BlockTypes[name].build(name)
		for _, err := range errs {
			result = multierror.Append(result, fmt.Errorf("block type %q: %w", name, err))
		}
		e.AddBlockType(bt)
	}
	if _, ok := e.BlockType(e.DefaultBlock); !ok && len(f.BlockTypes) > 0 {
		result = multierror.Append(result, fmt.Errorf("default block type %q is not declared", e.DefaultBlock))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return e, nil
}

func (f BlockTypeFile) build(name string) (*BlockType, []error) {
	var errs []error
	if !ValidName(name) || strings.Contains(name, ".") {
		errs = append(errs, fmt.Errorf("invalid block type name"))
	}
	bt := NewBlockType(name)
	for _, in := range sortedKeys(f.Inputs) {
		slot := f.Inputs[in]
		kind, err := builtin.ParseKind(slot.Kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("input %q: %w", in, err))
			continue
		}
		if err := bt.AddInput(in, slot.Offset, kind); err != nil {
			errs = append(errs, err)
		}
	}
	for _, out := range sortedKeys(f.Outputs) {
		slot := f.Outputs[out]
		kind, err := builtin.ParseKind(slot.Kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("output %q: %w", out, err))
			continue
		}
		if err := bt.AddOutput(out, slot.Offset, kind); err != nil {
			errs = append(errs, err)
		}
	}
	if err := bt.AllowFunctions(f.Functions...); err != nil {
		errs = append(errs, err)
	}
	for _, alias := range sortedKeys(f.Aliases) {
		target := f.Aliases[alias]
		cmd, ok := builtin.LookupCommand(target)
		if !ok {
			errs = append(errs, fmt.Errorf("alias %q: unknown command %q", alias, target))
			continue
		}
		if err := bt.AddFunction(alias, cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return bt, errs
}

// ToFile converts an environment back into its on-disk form.
func (e *Environment) ToFile() *File {
	f := &File{
		DefaultBlock: e.DefaultBlock,
		Constants:    map[string]float64{},
		BlockTypes:   map[string]BlockTypeFile{},
	}
	for _, name := range e.Constants() {
		if _, ok := builtin.LookupConstant(name); !ok {
			f.Constants[name] = e.constants[name]
		}
	}
	for _, name := range e.BlockTypes() {
		bt := e.blockTypes[name]
		bf := BlockTypeFile{
			Inputs:  map[string]SlotFile{},
			Outputs: map[string]SlotFile{},
			Aliases: map[string]string{},
		}
		for in, s := range bt.inputs {
			bf.Inputs[in] = SlotFile{Offset: s.Offset, Kind: s.Kind.String()}
		}
		for out, s := range bt.outputs {
			bf.Outputs[out] = SlotFile{Offset: s.Offset, Kind: s.Kind.String()}
		}
		for _, fn := range bt.Functions() {
			cmd := bt.functions[fn]
			if cmd.Name == fn {
				bf.Functions = append(bf.Functions, fn)
			} else {
				bf.Aliases[fn] = cmd.Name
			}
		}
		f.BlockTypes[name] = bf
	}
	return f
}

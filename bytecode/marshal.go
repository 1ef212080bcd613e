package bytecode

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/fxamacker/cbor/v2"

	"github.com/deepnoodle-ai/gscript/op"
	"github.com/deepnoodle-ai/gscript/segment"
)

type jsonState struct {
	Version   int          `json:"version"`
	Filename  string       `json:"filename,omitempty"`
	Params    []string     `json:"params,omitempty"`
	Constants []jsonNumber `json:"constants,omitempty"`
	Strings   []string     `json:"strings,omitempty"`
	Blocks    []jsonBlock  `json:"blocks"`
	Source    string       `json:"source,omitempty"`
}

type jsonBlock struct {
	Name         string            `json:"name"`
	BlockType    string            `json:"block_type"`
	Registers    int               `json:"registers"`
	Locals       int               `json:"locals"`
	LocalNames   []string          `json:"local_names,omitempty"`
	Instructions []jsonInstruction `json:"instructions"`
}

type jsonInstruction struct {
	Op   string   `json:"op"`
	Dst  string   `json:"dst"`
	Args []string `json:"args,omitempty"`
	Loc  string   `json:"loc,omitempty"`
}

// jsonNumber is a float64 whose JSON form also covers the non-finite
// values, which are written as the strings "NaN", "+Inf" and "-Inf".
type jsonNumber float64

func (n jsonNumber) MarshalJSON() ([]byte, error) {
	v := float64(n)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (n *jsonNumber) UnmarshalJSON(data []byte) error {
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("invalid constant %s", data)
	}
	*n = jsonNumber(v)
	return nil
}

func (s *ScriptBlocks) jsonState() jsonState {
	state := jsonState{
		Version:  s.version,
		Filename: s.filename,
		Params:   s.params,
		Strings:  s.strings,
		Source:   s.source,
		Blocks:   make([]jsonBlock, 0, len(s.blocks)),
	}
	for _, c := range s.constants {
		state.Constants = append(state.Constants, jsonNumber(c))
	}
	for _, b := range s.blocks {
		jb := jsonBlock{
			Name:         b.name,
			BlockType:    b.blockType,
			Registers:    b.registerCount,
			Locals:       b.localCount,
			LocalNames:   b.localNames,
			Instructions: make([]jsonInstruction, 0, len(b.instructions)),
		}
		for ip, ins := range b.instructions {
			ji := jsonInstruction{Op: ins.Op.String(), Dst: ins.Dst.String()}
			for _, a := range ins.Operands() {
				ji.Args = append(ji.Args, a.String())
			}
			if loc := b.LocationAt(ip); !loc.IsZero() {
				ji.Loc = loc.String()
			}
			jb.Instructions = append(jb.Instructions, ji)
		}
		state.Blocks = append(state.Blocks, jb)
	}
	return state
}

// MarshalJSON implements json.Marshaler.
func (s *ScriptBlocks) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.jsonState())
}

// Marshal returns the indented JSON form of the artifact.
func Marshal(s *ScriptBlocks) ([]byte, error) {
	return json.MarshalIndent(s.jsonState(), "", "  ")
}

// Unmarshal parses and validates the JSON form of an artifact.
func Unmarshal(data []byte) (*ScriptBlocks, error) {
	var state jsonState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal json: %w", err)
	}
	p := Params{
		Version:   state.Version,
		Filename:  state.Filename,
		Params:    state.Params,
		Strings:   state.Strings,
		Source:    state.Source,
		Constants: make([]float64, 0, len(state.Constants)),
	}
	if p.Version == 0 {
		return nil, fmt.Errorf("bytecode: unmarshal json: missing version")
	}
	for _, c := range state.Constants {
		p.Constants = append(p.Constants, float64(c))
	}
	for _, jb := range state.Blocks {
		bp := BlockParams{
			Name:          jb.Name,
			BlockType:     jb.BlockType,
			RegisterCount: jb.Registers,
			LocalCount:    jb.Locals,
			LocalNames:    jb.LocalNames,
		}
		hasLocations := false
		for ip, ji := range jb.Instructions {
			ins, loc, err := decodeJSONInstruction(ji)
			if err != nil {
				return nil, fmt.Errorf("bytecode: block %q instruction %d: %w", jb.Name, ip, err)
			}
			bp.Instructions = append(bp.Instructions, ins)
			bp.Locations = append(bp.Locations, loc)
			hasLocations = hasLocations || !loc.IsZero()
		}
		if !hasLocations {
			bp.Locations = nil
		}
		p.Blocks = append(p.Blocks, NewBlock(bp))
	}
	return load(NewScriptBlocks(p))
}

func decodeJSONInstruction(ji jsonInstruction) (Instruction, SourceLocation, error) {
	code, ok := op.Lookup(ji.Op)
	if !ok {
		return Instruction{}, SourceLocation{}, fmt.Errorf("unknown opcode %q", ji.Op)
	}
	if len(ji.Args) > segment.MaxFunctionArguments {
		return Instruction{}, SourceLocation{}, fmt.Errorf("%d operands exceed the limit of %d",
			len(ji.Args), segment.MaxFunctionArguments)
	}
	dst, err := segment.ParseAddress(ji.Dst)
	if err != nil {
		return Instruction{}, SourceLocation{}, err
	}
	ins := Instruction{Op: code, Argc: uint8(len(ji.Args)), Dst: dst}
	for i, a := range ji.Args {
		if ins.Args[i], err = segment.ParseAddress(a); err != nil {
			return Instruction{}, SourceLocation{}, err
		}
	}
	loc, err := ParseSourceLocation(ji.Loc)
	if err != nil {
		return Instruction{}, SourceLocation{}, err
	}
	return ins, loc, nil
}

// cborEncMode is a canonical encoder, so equal artifacts encode to equal
// bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type cborState struct {
	Version   int         `cbor:"1,keyasint"`
	Filename  string      `cbor:"2,keyasint,omitempty"`
	Params    []string    `cbor:"3,keyasint,omitempty"`
	Constants []float64   `cbor:"4,keyasint,omitempty"`
	Strings   []string    `cbor:"5,keyasint,omitempty"`
	Blocks    []cborBlock `cbor:"6,keyasint"`
	Source    string      `cbor:"7,keyasint,omitempty"`
}

type cborBlock struct {
	_            struct{} `cbor:",toarray"`
	Name         string
	BlockType    string
	Registers    int
	Locals       int
	LocalNames   []string
	Instructions []cborInstruction
	Locations    []cborLocation
}

type cborInstruction struct {
	_    struct{} `cbor:",toarray"`
	Op   uint8
	Dst  uint16
	Args []uint16
}

type cborLocation struct {
	_      struct{} `cbor:",toarray"`
	Line   int
	Column int
}

// MarshalBinary implements encoding.BinaryMarshaler using canonical CBOR.
func (s *ScriptBlocks) MarshalBinary() ([]byte, error) {
	state := cborState{
		Version:   s.version,
		Filename:  s.filename,
		Params:    s.params,
		Constants: s.constants,
		Strings:   s.strings,
		Source:    s.source,
		Blocks:    make([]cborBlock, 0, len(s.blocks)),
	}
	for _, b := range s.blocks {
		cb := cborBlock{
			Name:       b.name,
			BlockType:  b.blockType,
			Registers:  b.registerCount,
			Locals:     b.localCount,
			LocalNames: b.localNames,
		}
		for _, ins := range b.instructions {
			ci := cborInstruction{Op: uint8(ins.Op), Dst: uint16(ins.Dst), Args: []uint16{}}
			for _, a := range ins.Operands() {
				ci.Args = append(ci.Args, uint16(a))
			}
			cb.Instructions = append(cb.Instructions, ci)
		}
		for _, loc := range b.locations {
			cb.Locations = append(cb.Locations, cborLocation{Line: loc.Line, Column: loc.Column})
		}
		state.Blocks = append(state.Blocks, cb)
	}
	return cborEncMode.Marshal(state)
}

// Encode returns the canonical CBOR form of the artifact.
func Encode(s *ScriptBlocks) ([]byte, error) {
	return s.MarshalBinary()
}

// Decode parses and validates the CBOR form of an artifact.
func Decode(data []byte) (*ScriptBlocks, error) {
	var state cborState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal cbor: %w", err)
	}
	p := Params{
		Version:   state.Version,
		Filename:  state.Filename,
		Params:    state.Params,
		Constants: state.Constants,
		Strings:   state.Strings,
		Source:    state.Source,
	}
	if p.Version == 0 {
		return nil, fmt.Errorf("bytecode: unmarshal cbor: missing version")
	}
	for _, cb := range state.Blocks {
		bp := BlockParams{
			Name:          cb.Name,
			BlockType:     cb.BlockType,
			RegisterCount: cb.Registers,
			LocalCount:    cb.Locals,
			LocalNames:    cb.LocalNames,
		}
		for ip, ci := range cb.Instructions {
			if len(ci.Args) > segment.MaxFunctionArguments {
				return nil, fmt.Errorf("bytecode: block %q instruction %d: %d operands exceed the limit of %d",
					cb.Name, ip, len(ci.Args), segment.MaxFunctionArguments)
			}
			ins := Instruction{Op: op.Code(ci.Op), Argc: uint8(len(ci.Args)), Dst: segment.Address(ci.Dst)}
			for i, a := range ci.Args {
				ins.Args[i] = segment.Address(a)
			}
			bp.Instructions = append(bp.Instructions, ins)
		}
		for _, loc := range cb.Locations {
			bp.Locations = append(bp.Locations, SourceLocation{Line: loc.Line, Column: loc.Column})
		}
		p.Blocks = append(p.Blocks, NewBlock(bp))
	}
	return load(NewScriptBlocks(p))
}

func load(s *ScriptBlocks) (*ScriptBlocks, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("bytecode: invalid artifact: %w", err)
	}
	return s, nil
}

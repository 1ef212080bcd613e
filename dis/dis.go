// Package dis supports analysis of gscript bytecode by disassembling it.
package dis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/deepnoodle-ai/gscript/bytecode"
	"github.com/deepnoodle-ai/gscript/internal/table"
	"github.com/deepnoodle-ai/gscript/segment"
)

// Instruction is one disassembled instruction.
type Instruction struct {
	Offset   int
	Name     string
	Dst      segment.Address
	Operands []segment.Address

	// Annotation lists the values of constant, string and closure operands.
	Annotation string

	Location bytecode.SourceLocation
}

// Disassemble returns the instructions of the block at index.
func Disassemble(blocks *bytecode.ScriptBlocks, index int) ([]Instruction, error) {
	if index < 0 || index >= blocks.BlockCount() {
		return nil, fmt.Errorf("block index out of range: %d", index)
	}
	block := blocks.Block(index)
	instructions := make([]Instruction, 0, block.InstructionCount())
	for ip := 0; ip < block.InstructionCount(); ip++ {
		ins := block.InstructionAt(ip)
		annotation, err := annotate(blocks, ins.Operands())
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", ip, err)
		}
		instructions = append(instructions, Instruction{
			Offset:     ip,
			Name:       ins.Op.String(),
			Dst:        ins.Dst,
			Operands:   ins.Operands(),
			Annotation: annotation,
			Location:   block.LocationAt(ip),
		})
	}
	return instructions, nil
}

func annotate(blocks *bytecode.ScriptBlocks, operands []segment.Address) (string, error) {
	var values []string
	for _, a := range operands {
		off := a.Offset()
		switch a.Segment() {
		case segment.Constant:
			if off >= blocks.ConstantCount() {
				return "", fmt.Errorf("constant index out of range: %d", off)
			}
			values = append(values, FormatNumber(blocks.ConstantAt(off)))
		case segment.String:
			if off >= blocks.StringCount() {
				return "", fmt.Errorf("string index out of range: %d", off)
			}
			values = append(values, strconv.Quote(truncate(blocks.StringAt(off))))
		case segment.Closure:
			if off < blocks.ParamCount() {
				values = append(values, blocks.Params()[off])
			}
		}
	}
	return strings.Join(values, ", "), nil
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:37] + "..."
	}
	return s
}

// FormatNumber renders a float in its shortest exact form.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Print a table of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) error {
	bold := color.New(color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	var rows [][]string
	for _, instr := range instructions {
		operands := make([]string, len(instr.Operands))
		for i, a := range instr.Operands {
			operands[i] = a.String()
		}
		loc := ""
		if !instr.Location.IsZero() {
			loc = faint(instr.Location.String())
		}
		annotation := ""
		if instr.Annotation != "" {
			annotation = yellow(instr.Annotation)
		}
		rows = append(rows, []string{
			strconv.Itoa(instr.Offset),
			bold(instr.Name),
			instr.Dst.String(),
			strings.Join(operands, ", "),
			annotation,
			loc,
		})
	}
	return table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "DST", "OPERANDS", "INFO", "LOC"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(rows).
		Render()
}

// PrintAll writes every block of the artifact, each under a heading with
// its block type and register usage.
func PrintAll(blocks *bytecode.ScriptBlocks, writer io.Writer) error {
	heading := color.New(color.FgCyan, color.Bold).SprintFunc()
	for i := 0; i < blocks.BlockCount(); i++ {
		block := blocks.Block(i)
		if i > 0 {
			fmt.Fprintln(writer)
		}
		fmt.Fprintf(writer, "%s (block type %s, %d registers, %d locals)\n",
			heading("hook "+block.Name()), block.BlockType(), block.RegisterCount(), block.LocalCount())
		if n := block.LocalNameCount(); n > 0 {
			names := make([]string, n)
			for j := range names {
				names[j] = block.LocalNameAt(j)
			}
			fmt.Fprintf(writer, "locals: %s\n", strings.Join(names, ", "))
		}
		instructions, err := Disassemble(blocks, i)
		if err != nil {
			return fmt.Errorf("hook %s: %w", block.Name(), err)
		}
		if len(instructions) == 0 {
			fmt.Fprintln(writer, "(no instructions)")
			continue
		}
		if err := Print(instructions, writer); err != nil {
			return err
		}
	}
	return nil
}

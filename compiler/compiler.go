// Package compiler lowers a resolved gscript AST into ScriptBlocks.
//
// # Addressing
//
// Leaves never produce instructions. A parameter is its closure slot, an
// input or output is its segment address, a number or constant is an entry
// in the shared constant pool and a string literal is an entry in the
// string pool. A local is the register reserved by its let statement.
//
// # Registers
//
// Every operator and call emits exactly one instruction. The result of a
// nested expression goes to a temporary register that is released as soon
// as the enclosing instruction consumes it, so registers are reused
// first-fit. A statement that writes an output targets the output address
// directly. Running out of registers is a compile error, never a runtime
// condition.
//
// # Folding
//
// An operator or pure command whose operands are all constants is
// evaluated during compilation with vm.Fold, the same kernels the VM runs,
// and becomes a constant pool entry.
package compiler

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/gscript/ast"
	"github.com/deepnoodle-ai/gscript/bytecode"
	"github.com/deepnoodle-ai/gscript/errors"
	"github.com/deepnoodle-ai/gscript/op"
	"github.com/deepnoodle-ai/gscript/segment"
	"github.com/deepnoodle-ai/gscript/vm"
)

// Config holds compiler configuration options.
type Config struct {
	// Params are the formal parameter names of the script. Parameter i is
	// bound to closure slot i.
	Params []string

	// Filename is the source filename, used for error messages.
	Filename string

	// Source is the original source code. It is embedded in the artifact
	// and used to quote source lines in errors.
	Source string
}

// Compiler is used to compile a gscript AST into ScriptBlocks. A Compiler
// is used once.
type Compiler struct {
	params   []string
	filename string
	source   string
	lines    []string

	constants *pool[uint64, float64]
	strings   *pool[string, string]

	// state of the block being compiled
	block     *ast.Block
	regs      registers
	locals    []segment.Address
	code      []bytecode.Instruction
	locations []bytecode.SourceLocation
	current   ast.Node
}

// Compile compiles the given program and returns immutable bytecode. Pass
// nil for cfg to use default settings. Compilation stops at the first
// error, which is returned as an *errors.CompileError.
func Compile(program *ast.Program, cfg *Config) (*bytecode.ScriptBlocks, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return c.CompileProgram(program)
}

// New creates and returns a new Compiler. Pass nil for cfg to use defaults.
func New(cfg *Config) (*Compiler, error) {
	c := &Compiler{
		constants: newPool[uint64, float64](errors.E2008, "constants"),
		strings:   newPool[string, string](errors.E2016, "strings"),
	}
	if cfg != nil {
		c.params = append([]string(nil), cfg.Params...)
		c.filename = cfg.Filename
		c.source = cfg.Source
	}
	if c.source != "" {
		c.lines = strings.Split(c.source, "\n")
	}
	if len(c.params) > segment.MaxClosure {
		err := &errors.CompileError{
			Code:     errors.E2009,
			Filename: c.filename,
			Message: fmt.Sprintf("script declares %d parameters, the limit is %d",
				len(c.params), segment.MaxClosure),
		}
		return nil, err
	}
	return c, nil
}

// CompileProgram compiles every block of the program.
func (c *Compiler) CompileProgram(program *ast.Program) (*bytecode.ScriptBlocks, error) {
	if program == nil {
		return nil, fmt.Errorf("compile error: nil program")
	}
	blocks := make([]*bytecode.Block, 0, len(program.Blocks))
	for _, b := range program.Blocks {
		block, err := c.compileBlock(b)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	result := bytecode.NewScriptBlocks(bytecode.Params{
		Params:    c.params,
		Constants: c.constants.values,
		Strings:   c.strings.values,
		Source:    c.source,
		Filename:  c.filename,
		Blocks:    blocks,
	})
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("compile error: generated invalid bytecode: %w", err)
	}
	return result, nil
}

func (c *Compiler) compileBlock(b *ast.Block) (*bytecode.Block, error) {
	c.block = b
	c.regs = registers{}
	c.locals = c.locals[:0]
	c.code = nil
	c.locations = nil
	c.current = b
	for _, stmt := range b.Stmts {
		if err := c.compileStmt(stmt); err != nil {
			return nil, err
		}
	}
	return bytecode.NewBlock(bytecode.BlockParams{
		Name:          b.Name,
		BlockType:     b.BlockType,
		Instructions:  c.code,
		Locations:     c.locations,
		RegisterCount: c.regs.count(),
		LocalCount:    len(b.Locals),
		LocalNames:    b.Locals,
	}), nil
}

func (c *Compiler) compileStmt(stmt ast.Stmt) error {
	c.current = stmt
	switch stmt := stmt.(type) {
	case *ast.Let:
		return c.compileLet(stmt)
	case *ast.Assign:
		return c.compileAssign(stmt)
	case *ast.Control:
		v, err := c.compileExpr(stmt.X)
		if err != nil {
			return err
		}
		c.release(v)
		return nil
	case *ast.BadStmt:
		return c.errorf(errors.E1003, stmt, "syntax error in statement")
	default:
		panic(fmt.Sprintf("compile error: unknown statement type: %T", stmt))
	}
}

func (c *Compiler) compileLet(stmt *ast.Let) error {
	index := stmt.Local()
	if index != len(c.locals) {
		return c.errorf(errors.E2019, stmt.Name, "local %s declared out of order", stmt.Name.Name)
	}
	if index >= segment.MaxLocal {
		return c.errorf(errors.E2014, stmt.Name, "too many locals: %s would be local %d, the limit is %d",
			stmt.Name.Name, index+1, segment.MaxLocal)
	}
	v, err := c.compileExpr(stmt.Value)
	if err != nil {
		return err
	}
	if v.temp {
		c.regs.reserve(v.addr.Offset())
		c.locals = append(c.locals, v.addr)
		return nil
	}
	r, ok := c.regs.alloc()
	if !ok {
		return c.exhausted(stmt)
	}
	c.regs.reserve(r)
	dst := segment.MustAddress(segment.Register, r)
	c.locals = append(c.locals, dst)
	c.current = stmt
	return c.emit(op.Move, dst, v.addr)
}

func (c *Compiler) compileAssign(stmt *ast.Assign) error {
	sym := stmt.Name.Symbol
	if sym == nil || sym.Kind != ast.SymOutput {
		return c.errorf(errors.E2020, stmt.Name, "cannot assign to %s", stmt.Name.Name)
	}
	dst, err := segment.OutputAddress(sym.Index)
	if err != nil {
		return c.errorf(errors.E2020, stmt.Name, "output %s: %v", stmt.Name.Name, err)
	}
	if stmt.Op == "=" {
		return c.compileInto(stmt.Value, dst)
	}
	code, ok := compoundOps[stmt.Op]
	if !ok {
		return c.errorf(errors.E1003, stmt, "unknown assignment operator %s", stmt.Op)
	}
	v, err := c.compileExpr(stmt.Value)
	if err != nil {
		return err
	}
	c.release(v)
	c.current = stmt
	return c.emit(code, dst, dst, v.addr)
}

var compoundOps = map[string]op.Code{
	"+=": op.Add,
	"-=": op.Subtract,
	"*=": op.Multiply,
	"/=": op.Divide,
}

// value is the address an expression evaluated to. Temporary values own
// their register until released.
type value struct {
	addr segment.Address
	temp bool
}

func (c *Compiler) release(v value) {
	if v.temp {
		c.regs.free(v.addr.Offset())
	}
}

// compileExpr compiles x into a temporary register, or returns the address
// of a leaf without emitting code.
func (c *Compiler) compileExpr(x ast.Expr) (value, error) {
	if code, operands, ok := operation(x); ok {
		return c.compileOperation(x, code, operands, nil)
	}
	return c.compileLeaf(x)
}

// compileInto compiles x so that its value ends up at dst.
func (c *Compiler) compileInto(x ast.Expr, dst segment.Address) error {
	if code, operands, ok := operation(x); ok {
		_, err := c.compileOperation(x, code, operands, &dst)
		return err
	}
	v, err := c.compileLeaf(x)
	if err != nil {
		return err
	}
	c.current = x
	return c.emit(op.Move, dst, v.addr)
}

func (c *Compiler) compileOperation(node ast.Expr, code op.Code, operands []ast.Expr, dst *segment.Address) (value, error) {
	if len(operands) > segment.MaxFunctionArguments {
		return value{}, c.errorf(errors.E2015, node, "%d operands, the limit is %d",
			len(operands), segment.MaxFunctionArguments)
	}
	args := make([]value, len(operands))
	for i, operand := range operands {
		v, err := c.compileExpr(operand)
		if err != nil {
			return value{}, err
		}
		args[i] = v
	}
	addrs := make([]segment.Address, len(args))
	for i, a := range args {
		addrs[i] = a.addr
	}
	c.current = node
	if folded, ok := c.fold(code, addrs); ok {
		addr, err := c.constant(node, folded)
		if err != nil {
			return value{}, err
		}
		if dst != nil {
			return value{addr: *dst}, c.emit(op.Move, *dst, addr)
		}
		return value{addr: addr}, nil
	}
	for i := len(args) - 1; i >= 0; i-- {
		c.release(args[i])
	}
	result := value{}
	if dst != nil {
		result.addr = *dst
	} else {
		r, ok := c.regs.alloc()
		if !ok {
			return value{}, c.exhausted(node)
		}
		result = value{addr: segment.MustAddress(segment.Register, r), temp: true}
	}
	return result, c.emit(code, result.addr, addrs...)
}

// fold evaluates a pure operation whose operands are all constants.
func (c *Compiler) fold(code op.Code, addrs []segment.Address) (float64, bool) {
	if !op.GetInfo(code).Pure {
		return 0, false
	}
	args := make([]float64, len(addrs))
	for i, a := range addrs {
		if a.Segment() != segment.Constant {
			return 0, false
		}
		args[i] = c.constants.values[a.Offset()]
	}
	return vm.Fold(code, args...)
}

func (c *Compiler) compileLeaf(x ast.Expr) (value, error) {
	switch x := x.(type) {
	case *ast.Number:
		addr, err := c.constant(x, x.Value)
		return value{addr: addr}, err
	case *ast.String:
		addr, err := c.str(x, x.Value)
		return value{addr: addr}, err
	case *ast.Ident:
		return c.compileIdent(x)
	case *ast.BadExpr:
		return value{}, c.errorf(errors.E1004, x, "syntax error in expression")
	default:
		panic(fmt.Sprintf("compile error: unknown expression type: %T", x))
	}
}

func (c *Compiler) compileIdent(x *ast.Ident) (value, error) {
	sym := x.Symbol
	if sym == nil {
		return value{}, c.errorf(errors.E2001, x, "symbol not found: %s", x.Name)
	}
	var (
		addr segment.Address
		err  error
	)
	switch sym.Kind {
	case ast.SymLocal:
		if sym.Index < 0 || sym.Index >= len(c.locals) {
			return value{}, c.errorf(errors.E2001, x, "local %s used before its declaration", x.Name)
		}
		addr = c.locals[sym.Index]
	case ast.SymParam:
		if sym.Index < 0 || sym.Index >= len(c.params) {
			return value{}, c.errorf(errors.E2001, x, "parameter %s is not declared", x.Name)
		}
		addr = segment.MustAddress(segment.Closure, sym.Index)
	case ast.SymInput:
		addr, err = segment.InputAddress(sym.Index)
	case ast.SymOutput:
		addr, err = segment.OutputAddress(sym.Index)
	case ast.SymConstant:
		addr, err = c.constant(x, sym.Value)
		return value{addr: addr}, err
	default:
		return value{}, c.errorf(errors.E2022, x, "%s %s used as a value", sym.Kind, x.Name)
	}
	if err != nil {
		return value{}, c.errorf(errors.E2001, x, "%s %s: %v", sym.Kind, x.Name, err)
	}
	return value{addr: addr}, nil
}

// operation reports the opcode and operands of an expression that emits an
// instruction.
func operation(x ast.Expr) (op.Code, []ast.Expr, bool) {
	switch x := x.(type) {
	case *ast.Prefix:
		code, ok := prefixOps[x.Op]
		return code, []ast.Expr{x.X}, ok
	case *ast.Infix:
		code, ok := infixOps[x.Op]
		return code, []ast.Expr{x.X, x.Y}, ok
	case *ast.Ternary:
		return op.Select, []ast.Expr{x.Cond, x.IfTrue, x.IfFalse}, true
	case *ast.Call:
		cmd := x.Command()
		if cmd == nil {
			return op.Invalid, nil, false
		}
		return cmd.Op, x.Args, true
	}
	return op.Invalid, nil, false
}

var prefixOps = map[string]op.Code{
	"-": op.Negate,
	"!": op.Not,
}

var infixOps = map[string]op.Code{
	"+":  op.Add,
	"-":  op.Subtract,
	"*":  op.Multiply,
	"/":  op.Divide,
	"%":  op.Modulo,
	"==": op.Equal,
	"!=": op.NotEqual,
	"<":  op.LessThan,
	"<=": op.LessThanOrEqual,
	">":  op.GreaterThan,
	">=": op.GreaterThanOrEqual,
	"&&": op.And,
	"||": op.Or,
}

func (c *Compiler) emit(code op.Code, dst segment.Address, args ...segment.Address) error {
	ins, err := bytecode.NewInstruction(code, dst, args...)
	if err != nil {
		return c.errorf(errors.E1003, c.current, "%v", err)
	}
	c.code = append(c.code, ins)
	c.locations = append(c.locations, c.location())
	return nil
}

func (c *Compiler) location() bytecode.SourceLocation {
	if c.current == nil {
		return bytecode.SourceLocation{}
	}
	pos := c.current.Pos()
	if !pos.IsValid() {
		return bytecode.SourceLocation{}
	}
	return bytecode.SourceLocation{Line: pos.LineNumber(), Column: pos.ColumnNumber()}
}

func (c *Compiler) constant(node ast.Node, v float64) (segment.Address, error) {
	index, ok := c.constants.add(bitsOf(v), v)
	if !ok {
		return 0, c.errorf(c.constants.code, node, "more than %d %s", segment.MaxOffset+1, c.constants.what)
	}
	return segment.MustAddress(segment.Constant, index), nil
}

func (c *Compiler) str(node ast.Node, s string) (segment.Address, error) {
	index, ok := c.strings.add(s, s)
	if !ok {
		return 0, c.errorf(c.strings.code, node, "more than %d %s", segment.MaxOffset+1, c.strings.what)
	}
	return segment.MustAddress(segment.String, index), nil
}

func (c *Compiler) exhausted(node ast.Node) error {
	return c.errorf(errors.E2007, node,
		"script bad command: register exhaustion (hook %s needs more than %d registers)",
		c.block.Name, segment.MaxRegister)
}

// errorf creates a CompileError positioned at node, quoting its source line.
func (c *Compiler) errorf(code errors.ErrorCode, node ast.Node, format string, args ...any) error {
	err := errors.New(code, node.Pos(), node.End(), format, args...)
	if c.filename != "" {
		err.Filename = c.filename
	}
	if c.block != nil {
		err.BlockType = c.block.BlockType
	}
	if line := node.Pos().Line; node.Pos().IsValid() && line < len(c.lines) {
		err.SourceLine = c.lines[line]
	}
	return err
}

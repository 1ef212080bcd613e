package ast

import (
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/gscript/builtin"
	"github.com/deepnoodle-ai/gscript/internal/token"
)

// Ident is an expression node that refers to a symbol by name.
type Ident struct {
	NamePos token.Position // position of identifier
	Name    string         // identifier name, possibly dotted
	Symbol  *Symbol        // resolved symbol; nil if unresolved
}

func (x *Ident) exprNode() {}

func (x *Ident) Pos() token.Position { return x.NamePos }
func (x *Ident) End() token.Position { return x.NamePos.Advance(len(x.Name)) }

func (x *Ident) String() string { return x.Name }

func (x *Ident) Kind() builtin.Kind {
	if x.Symbol == nil {
		return builtin.Num
	}
	return x.Symbol.ValueKind
}

// Number is a numeric literal. true and false parse to 1 and 0.
type Number struct {
	ValuePos token.Position // position of the literal
	Literal  string         // literal text as written
	Value    float64        // parsed value
}

func (x *Number) exprNode() {}

func (x *Number) Pos() token.Position { return x.ValuePos }
func (x *Number) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }
func (x *Number) Kind() builtin.Kind  { return builtin.Num }

func (x *Number) String() string {
	if x.Literal != "" {
		return x.Literal
	}
	return strconv.FormatFloat(x.Value, 'g', -1, 64)
}

// String is a string literal.
type String struct {
	ValuePos token.Position // position of the opening quote
	EndPos   token.Position // position after the closing quote
	Value    string         // unescaped contents
}

func (x *String) exprNode() {}

func (x *String) Pos() token.Position { return x.ValuePos }
func (x *String) End() token.Position { return x.EndPos }
func (x *String) Kind() builtin.Kind  { return builtin.Str }
func (x *String) String() string      { return strconv.Quote(x.Value) }

// Prefix is an operator expression where the operator precedes the operand.
// Examples include "!x" and "-x".
type Prefix struct {
	OpPos token.Position // position of operator
	Op    string         // operator: "!" or "-"
	X     Expr           // operand
}

func (x *Prefix) exprNode() {}

func (x *Prefix) Pos() token.Position { return x.OpPos }
func (x *Prefix) End() token.Position { return x.X.End() }
func (x *Prefix) Kind() builtin.Kind  { return builtin.Num }

func (x *Prefix) String() string {
	return "(" + x.Op + x.X.String() + ")"
}

// Infix is an operator expression where the operator is between the operands.
// Examples include "x + y" and "a <= b".
type Infix struct {
	X     Expr           // left operand
	OpPos token.Position // position of operator
	Op    string         // operator: "+", "-", "==", "&&", etc.
	Y     Expr           // right operand
}

func (x *Infix) exprNode() {}

func (x *Infix) Pos() token.Position { return x.X.Pos() }
func (x *Infix) End() token.Position { return x.Y.End() }
func (x *Infix) Kind() builtin.Kind  { return builtin.Num }

func (x *Infix) String() string {
	return "(" + x.X.String() + " " + x.Op + " " + x.Y.String() + ")"
}

// Ternary is a conditional expression: cond ? ifTrue : ifFalse.
type Ternary struct {
	Cond     Expr           // condition
	Question token.Position // position of "?"
	IfTrue   Expr           // value when cond is truthy
	Colon    token.Position // position of ":"
	IfFalse  Expr           // value otherwise
}

func (x *Ternary) exprNode() {}

func (x *Ternary) Pos() token.Position { return x.Cond.Pos() }
func (x *Ternary) End() token.Position { return x.IfFalse.End() }
func (x *Ternary) Kind() builtin.Kind  { return x.IfTrue.Kind() }

func (x *Ternary) String() string {
	return "(" + x.Cond.String() + " ? " + x.IfTrue.String() + " : " + x.IfFalse.String() + ")"
}

// Call is a call to a built-in command.
type Call struct {
	Fun    *Ident         // function name; Fun.Symbol.Command is the target
	Lparen token.Position // position of "("
	Args   []Expr         // arguments
	Rparen token.Position // position of ")"
}

func (x *Call) exprNode() {}

func (x *Call) Pos() token.Position { return x.Fun.Pos() }
func (x *Call) End() token.Position { return x.Rparen.Advance(1) }

func (x *Call) Kind() builtin.Kind {
	if cmd := x.Command(); cmd != nil {
		return cmd.Result
	}
	return builtin.Num
}

// Command returns the resolved command, or nil.
func (x *Call) Command() *builtin.Command {
	if x.Fun.Symbol == nil {
		return nil
	}
	return x.Fun.Symbol.Command
}

func (x *Call) String() string {
	args := make([]string, 0, len(x.Args))
	for _, a := range x.Args {
		args = append(args, a.String())
	}
	return x.Fun.String() + "(" + strings.Join(args, ", ") + ")"
}

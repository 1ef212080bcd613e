package ast

import (
	"github.com/deepnoodle-ai/gscript/internal/token"
)

// Let declares a block-local value: "let x = value".
type Let struct {
	Let   token.Position // position of "let" keyword
	Name  *Ident         // declared name; Name.Symbol is the local
	Value Expr           // initial value
}

func (s *Let) stmtNode() {}

func (s *Let) Pos() token.Position { return s.Let }
func (s *Let) End() token.Position { return s.Value.End() }

func (s *Let) String() string {
	return "let " + s.Name.String() + " = " + s.Value.String()
}

// Local returns the local slot index of the declared name.
func (s *Let) Local() int {
	if s.Name.Symbol == nil {
		return -1
	}
	return s.Name.Symbol.Index
}

// Assign writes to an output or local: "out.x = v" or "out.x += v".
type Assign struct {
	Name  *Ident         // target
	OpPos token.Position // position of the operator
	Op    string         // "=", "+=", "-=", "*=" or "/="
	Value Expr           // right-hand side
}

func (s *Assign) stmtNode() {}

func (s *Assign) Pos() token.Position { return s.Name.Pos() }
func (s *Assign) End() token.Position { return s.Value.End() }

func (s *Assign) String() string {
	return s.Name.String() + " " + s.Op + " " + s.Value.String()
}

// Control is an expression used as a statement. The parser only accepts
// calls here, since any other expression has no effect.
type Control struct {
	X Expr
}

func (s *Control) stmtNode() {}

func (s *Control) Pos() token.Position { return s.X.Pos() }
func (s *Control) End() token.Position { return s.X.End() }
func (s *Control) String() string      { return s.X.String() }

// Package ast defines the abstract syntax tree representation of gscript
// code. Identifiers in the tree carry the symbol they were resolved to
// during parsing, so later stages never look names up again.
package ast

import (
	"strings"

	"github.com/deepnoodle-ai/gscript/builtin"
	"github.com/deepnoodle-ai/gscript/internal/token"
)

// Node represents a portion of the syntax tree. All nodes have position
// information indicating where they appear in the source code.
type Node interface {
	// Pos returns the position of the first character belonging to the node.
	Pos() token.Position

	// End returns the position of the first character immediately after the node.
	End() token.Position

	// String returns a human friendly representation of the Node. This should
	// be similar to the original source code, but not necessarily identical.
	String() string
}

// Stmt represents a statement node. Statements cause side effects but
// do not evaluate to a value.
type Stmt interface {
	Node
	stmtNode()
}

// Expr represents an expression node. Expressions evaluate to a value
// of a statically known kind.
type Expr interface {
	Node
	exprNode()

	// Kind returns the kind of value the expression produces.
	Kind() builtin.Kind
}

// BadExpr represents an expression containing syntax errors.
// It is used by the parser to continue parsing after an error,
// allowing subsequent errors to be detected without giving up.
type BadExpr struct {
	From token.Position // start of bad expression
	To   token.Position // end of bad expression
}

func (x *BadExpr) exprNode() {}

func (x *BadExpr) Pos() token.Position { return x.From }
func (x *BadExpr) End() token.Position { return x.To }
func (x *BadExpr) String() string      { return "<bad expression>" }
func (x *BadExpr) Kind() builtin.Kind  { return builtin.Num }

// BadStmt represents a statement containing syntax errors.
type BadStmt struct {
	From token.Position // start of bad statement
	To   token.Position // end of bad statement
}

func (x *BadStmt) stmtNode() {}

func (x *BadStmt) Pos() token.Position { return x.From }
func (x *BadStmt) End() token.Position { return x.To }
func (x *BadStmt) String() string      { return "<bad statement>" }

// Block is one named straight-line statement sequence. Top-level statements
// form the default block; each hook declaration forms its own block.
type Block struct {
	Hook      token.Position // position of "hook" keyword; zero for the default block
	Name      string         // hook name selected by callers at run time
	NamePos   token.Position // position of the hook name
	BlockType string         // block type whose tables resolved the names
	Lbrace    token.Position // position of "{"
	Stmts     []Stmt         // statements in source order
	Rbrace    token.Position // position of "}"
	Locals    []string       // names declared with let, indexed by Let.Local
}

// IsDefault reports whether the block holds the top-level statements.
func (b *Block) IsDefault() bool { return !b.Lbrace.IsValid() }

func (b *Block) Pos() token.Position {
	if !b.IsDefault() {
		return b.Hook
	}
	if len(b.Stmts) > 0 {
		return b.Stmts[0].Pos()
	}
	return token.NoPos
}

func (b *Block) End() token.Position {
	if !b.IsDefault() {
		return b.Rbrace.Advance(1)
	}
	if len(b.Stmts) > 0 {
		return b.Stmts[len(b.Stmts)-1].End()
	}
	return token.NoPos
}

func (b *Block) String() string {
	var out strings.Builder
	indent := ""
	if !b.IsDefault() {
		out.WriteString("hook " + b.Name + " {\n")
		indent = "    "
	}
	for _, stmt := range b.Stmts {
		out.WriteString(indent)
		out.WriteString(stmt.String())
		out.WriteString("\n")
	}
	if !b.IsDefault() {
		out.WriteString("}\n")
	}
	return out.String()
}

// Program represents a complete parsed script.
type Program struct {
	Blocks []*Block // default block first, then hooks in source order
}

func (p *Program) Pos() token.Position {
	if len(p.Blocks) > 0 {
		return p.Blocks[0].Pos()
	}
	return token.NoPos
}

func (p *Program) End() token.Position {
	if len(p.Blocks) > 0 {
		return p.Blocks[len(p.Blocks)-1].End()
	}
	return token.NoPos
}

func (p *Program) String() string {
	var out strings.Builder
	for i, b := range p.Blocks {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(b.String())
	}
	return out.String()
}

// Block returns the block with the given hook name, or nil.
func (p *Program) Block(name string) *Block {
	for _, b := range p.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

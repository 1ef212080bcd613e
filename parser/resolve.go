package parser

import (
	"github.com/deepnoodle-ai/gscript/ast"
	"github.com/deepnoodle-ai/gscript/builtin"
	"github.com/deepnoodle-ai/gscript/errors"
)

// lookup classifies a name in priority order: local, parameter, input,
// output, constant, function. It returns nil when nothing matches.
func (p *Parser) lookup(name string) *ast.Symbol {
	if sym, ok := p.locals[name]; ok {
		return sym
	}
	for i, param := range p.params {
		if param == name {
			return &ast.Symbol{Kind: ast.SymParam, Name: name, Index: i, ValueKind: builtin.Num}
		}
	}
	if bt := p.blockType; bt != nil {
		if slot, ok := bt.Input(name); ok {
			return &ast.Symbol{Kind: ast.SymInput, Name: name, Index: slot.Offset, ValueKind: slot.Kind}
		}
		if slot, ok := bt.Output(name); ok {
			return &ast.Symbol{Kind: ast.SymOutput, Name: name, Index: slot.Offset, ValueKind: slot.Kind}
		}
	}
	if v, ok := p.env.Constant(name); ok {
		return &ast.Symbol{Kind: ast.SymConstant, Name: name, Value: v, ValueKind: builtin.Num}
	}
	if bt := p.blockType; bt != nil {
		if cmd, ok := bt.Function(name); ok {
			return &ast.Symbol{Kind: ast.SymFunction, Name: name, ValueKind: cmd.Result, Command: &cmd}
		}
	}
	return nil
}

// resolve looks up an identifier and records "symbol not found" when it
// does not resolve.
func (p *Parser) resolve(ident *ast.Ident) *ast.Symbol {
	if sym := p.lookup(ident.Name); sym != nil {
		return sym
	}
	if p.unresolving {
		return nil
	}
	blockType := ""
	if p.blockType != nil {
		blockType = p.blockType.Name
	}
	err := p.setNodeError(errors.E2001, ident, "symbol not found: %s (block type %q)", ident.Name, blockType)
	err.Suggestions = errors.SuggestSimilar(ident.Name, p.candidates())
	return nil
}

func (p *Parser) candidates() []string {
	var names []string
	for name := range p.locals {
		names = append(names, name)
	}
	names = append(names, p.params...)
	if p.blockType != nil {
		names = append(names, p.blockType.Names()...)
	}
	return append(names, p.env.Constants()...)
}

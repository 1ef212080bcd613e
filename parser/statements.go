package parser

import (
	"strings"

	"github.com/deepnoodle-ai/gscript/ast"
	"github.com/deepnoodle-ai/gscript/builtin"
	"github.com/deepnoodle-ai/gscript/env"
	"github.com/deepnoodle-ai/gscript/errors"
	"github.com/deepnoodle-ai/gscript/internal/token"
)

func (p *Parser) parseStatement() ast.Stmt {
	switch p.curToken.Type {
	case token.LET:
		return p.parseLet()
	case token.HOOK:
		p.setTokenError(errors.E1003, p.curToken, "hook declarations cannot be nested")
		return nil
	case token.IDENT:
		if token.IsAssignment(p.peekToken.Type) {
			return p.parseAssign()
		}
	}
	return p.parseExpressionStatement()
}

// parseHook parses "hook NAME { stmts }" into a new block whose block type
// is NAME.
func (p *Parser) parseHook() {
	hookTok := p.curToken
	p.stmtErrorCount = p.errors.Count()
	if !p.expectPeek("hook declaration", token.IDENT) {
		p.synchronize()
		return
	}
	nameTok := p.curToken
	block := &ast.Block{
		Hook:      hookTok.StartPosition,
		Name:      nameTok.Literal,
		NamePos:   nameTok.StartPosition,
		BlockType: nameTok.Literal,
	}
	p.blockType = nil
	switch {
	case p.hookNames[block.Name]:
		p.setTokenError(errors.E2017, nameTok, "duplicate hook %s", block.Name)
	case !env.ValidName(block.Name):
		p.setTokenError(errors.E1006, nameTok, "invalid hook name %s", block.Name)
	}
	p.hookNames[block.Name] = true
	p.enterBlock(block, nameTok)
	if !p.expectPeek("hook declaration", token.LBRACE) {
		p.synchronize()
		return
	}
	block.Lbrace = p.curToken.StartPosition
	p.hooks = append(p.hooks, block)
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.setTokenError(errors.E1007, p.curToken, "unclosed '{' of hook %s", block.Name)
			return
		}
		if p.tooManyErrors() {
			return
		}
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}
		p.parseBlockStatement()
		if !p.curTokenIs(token.RBRACE) {
			p.nextToken()
		}
	}
	block.Rbrace = p.curToken.StartPosition
}

// enterDefaultBlock makes the block of top-level statements current,
// creating it on first use.
func (p *Parser) enterDefaultBlock() {
	if p.defaultBlock != nil {
		if p.block != p.defaultBlock {
			p.block = p.defaultBlock
			p.blockType, _ = p.env.BlockType(p.defaultBlock.BlockType)
			p.unresolving = p.blockType == nil
			p.locals = localsOf(p.defaultBlock)
		}
		return
	}
	name := p.env.DefaultBlock
	block := &ast.Block{Name: name, BlockType: name}
	p.defaultBlock = block
	p.blockType = nil
	if p.hookNames[name] {
		p.setTokenError(errors.E2017, p.curToken,
			"duplicate hook %s: top-level statements form the %s block", name, name)
	}
	p.hookNames[name] = true
	p.enterBlock(block, p.curToken)
}

func (p *Parser) enterBlock(block *ast.Block, at token.Token) {
	p.block = block
	p.locals = map[string]*ast.Symbol{}
	bt, ok := p.env.BlockType(block.BlockType)
	if !ok {
		p.blockType = nil
		p.unresolving = true
		err := errors.New(errors.E2018, at.StartPosition, at.EndPosition,
			"unknown block type %s", block.BlockType)
		err.Filename = p.filename
		err.SourceLine = p.l.GetLineText(at)
		err.BlockType = block.BlockType
		err.Suggestions = errors.SuggestSimilar(block.BlockType, p.env.BlockTypes())
		p.addError(err)
		return
	}
	p.blockType = bt
	p.unresolving = false
}

func localsOf(block *ast.Block) map[string]*ast.Symbol {
	locals := map[string]*ast.Symbol{}
	for _, stmt := range block.Stmts {
		if let, ok := stmt.(*ast.Let); ok && let.Name.Symbol != nil {
			locals[let.Name.Name] = let.Name.Symbol
		}
	}
	return locals
}

func (p *Parser) parseLet() ast.Stmt {
	letPos := p.curToken.StartPosition
	if !p.expectPeek("let statement", token.IDENT) {
		return nil
	}
	nameTok := p.curToken
	name := &ast.Ident{NamePos: nameTok.StartPosition, Name: nameTok.Literal}
	if !p.expectPeek("let statement", token.ASSIGN) {
		return nil
	}
	p.nextToken()
	p.eatNewlines()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	if existing := p.lookup(name.Name); existing != nil {
		p.setTokenError(errors.E2019, nameTok, "%s is already declared as %s", name.Name, article(existing.Kind.String()))
		return nil
	}
	name.Symbol = &ast.Symbol{
		Kind:      ast.SymLocal,
		Name:      name.Name,
		Index:     len(p.block.Locals),
		ValueKind: value.Kind(),
	}
	p.block.Locals = append(p.block.Locals, name.Name)
	p.locals[name.Name] = name.Symbol
	return &ast.Let{Let: letPos, Name: name, Value: value}
}

func (p *Parser) parseAssign() ast.Stmt {
	name := &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
	p.nextToken()
	opTok := p.curToken
	p.nextToken()
	p.eatNewlines()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	stmt := &ast.Assign{Name: name, OpPos: opTok.StartPosition, Op: opTok.Literal, Value: value}
	if !p.resolveTarget(stmt) {
		return nil
	}
	return stmt
}

// resolveTarget resolves and checks the target of an assignment.
func (p *Parser) resolveTarget(stmt *ast.Assign) bool {
	name := stmt.Name
	sym := p.resolve(name)
	if sym == nil {
		return p.unresolving
	}
	name.Symbol = sym
	switch sym.Kind {
	case ast.SymOutput:
	case ast.SymLocal:
		p.setNodeError(errors.E2020, name, "cannot assign to local %s: locals are assigned once", name.Name)
		return false
	default:
		p.setNodeError(errors.E2020, name, "cannot assign to %s %s", sym.Kind, name.Name)
		return false
	}
	if stmt.Op != "=" && sym.ValueKind != builtin.Num {
		p.setNodeError(errors.E2022, name, "operator %s requires a num target, %s is %s",
			stmt.Op, name.Name, sym.ValueKind)
		return false
	}
	if got := stmt.Value.Kind(); got != sym.ValueKind {
		p.setNodeError(errors.E2013, stmt.Value, "cannot assign %s value to %s output %s",
			got, sym.ValueKind, name.Name)
		return false
	}
	return true
}

func (p *Parser) parseExpressionStatement() ast.Stmt {
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	if _, ok := expr.(*ast.Call); !ok {
		p.setNodeError(errors.E2023, expr, "expression has no effect (only calls may be used as statements)")
		return nil
	}
	return &ast.Control{X: expr}
}

// checkParams validates the formal parameter names.
func (p *Parser) checkParams() {
	seen := map[string]bool{}
	for _, name := range p.params {
		if !env.ValidName(name) {
			p.addError(&errors.CompileError{Code: errors.E1006, Filename: p.filename,
				Message: "invalid parameter name " + quote(name)})
			continue
		}
		if seen[name] {
			p.addError(&errors.CompileError{Code: errors.E2019, Filename: p.filename,
				Message: "duplicate parameter " + name})
		}
		seen[name] = true
	}
}

func quote(s string) string {
	return "\"" + s + "\""
}

// article prefixes a noun with "a" or "an".
func article(noun string) string {
	if noun != "" && strings.ContainsRune("aeiou", rune(noun[0])) {
		return "an " + noun
	}
	return "a " + noun
}

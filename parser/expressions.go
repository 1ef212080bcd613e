package parser

import (
	"strconv"

	"github.com/deepnoodle-ai/gscript/ast"
	"github.com/deepnoodle-ai/gscript/builtin"
	"github.com/deepnoodle-ai/gscript/errors"
	"github.com/deepnoodle-ai/gscript/internal/token"
	"github.com/deepnoodle-ai/gscript/segment"
)

func (p *Parser) parseExpression(precedence int) ast.Expr {
	if p.hadNewError() {
		return nil
	}
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.maxDepth {
		p.setTokenError(errors.E1009, p.curToken, "maximum nesting depth exceeded")
		return nil
	}
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.setTokenError(errors.E1004, p.curToken, "unexpected %s (expected an expression)",
			tokenDescription(p.curToken))
		return nil
	}
	left := prefix()
	if left == nil {
		return nil
	}
	for !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parseIdent() ast.Expr {
	ident := &ast.Ident{NamePos: p.curToken.StartPosition, Name: p.curToken.Literal}
	if p.peekTokenIs(token.LPAREN) {
		return p.parseCall(ident)
	}
	sym := p.resolve(ident)
	if sym == nil {
		if p.unresolving {
			return ident
		}
		return nil
	}
	if sym.Kind == ast.SymFunction {
		p.setNodeError(errors.E2022, ident, "function %s used as a value (missing call parentheses?)", ident.Name)
		return nil
	}
	ident.Symbol = sym
	return ident
}

func (p *Parser) parseNumber() ast.Expr {
	tok := p.curToken
	value, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.setTokenError(errors.E1008, tok, "invalid decimal literal: %s", tok.Literal)
		return nil
	}
	return &ast.Number{ValuePos: tok.StartPosition, Literal: tok.Literal, Value: value}
}

func (p *Parser) parseBoolean() ast.Expr {
	value := 0.0
	if p.curTokenIs(token.TRUE) {
		value = 1
	}
	return &ast.Number{ValuePos: p.curToken.StartPosition, Literal: p.curToken.Literal, Value: value}
}

func (p *Parser) parseString() ast.Expr {
	return &ast.String{
		ValuePos: p.curToken.StartPosition,
		EndPos:   p.curToken.EndPosition,
		Value:    p.curToken.Literal,
	}
}

func (p *Parser) parsePrefixExpr() ast.Expr {
	opPos := p.curToken.StartPosition
	op := p.curToken.Literal
	p.nextToken()
	right := p.parseExpression(PREFIX)
	if right == nil {
		return nil
	}
	if !p.checkOperand(op, 0, right) {
		return nil
	}
	return &ast.Prefix{OpPos: opPos, Op: op, X: right}
}

func (p *Parser) parseInfixExpr(left ast.Expr) ast.Expr {
	opPos := p.curToken.StartPosition
	op := p.curToken.Literal
	precedence := p.currentPrecedence()
	p.nextToken()
	p.eatNewlines()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	if !p.checkOperand(op, 1, left) || !p.checkOperand(op, 2, right) {
		return nil
	}
	return &ast.Infix{X: left, OpPos: opPos, Op: op, Y: right}
}

// checkOperand enforces that operators only take numeric operands. Operand
// 0 is the single operand of a prefix operator.
func (p *Parser) checkOperand(op string, n int, x ast.Expr) bool {
	if x.Kind() == builtin.Num {
		return true
	}
	if n == 0 {
		p.setNodeError(errors.E2011, x, "operand of '%s' must be num, got %s", op, x.Kind())
	} else {
		p.setNodeError(errors.E2011, x, "operand %d of '%s' must be num, got %s", n, op, x.Kind())
	}
	return false
}

func (p *Parser) parseTernary(cond ast.Expr) ast.Expr {
	question := p.curToken.StartPosition
	if !p.checkOperand("?", 1, cond) {
		return nil
	}
	p.nextToken()
	p.eatNewlines()
	ifTrue := p.parseExpression(LOWEST)
	if ifTrue == nil {
		return nil
	}
	for p.peekTokenIs(token.NEWLINE) {
		p.nextToken()
	}
	if !p.expectPeek("ternary expression", token.COLON) {
		return nil
	}
	colon := p.curToken.StartPosition
	p.nextToken()
	p.eatNewlines()
	ifFalse := p.parseExpression(LOWEST)
	if ifFalse == nil {
		return nil
	}
	if ifTrue.Kind() != ifFalse.Kind() {
		p.setNodeError(errors.E2022, ifFalse, "ternary branches have different kinds (%s and %s)",
			ifTrue.Kind(), ifFalse.Kind())
		return nil
	}
	return &ast.Ternary{Cond: cond, Question: question, IfTrue: ifTrue, Colon: colon, IfFalse: ifFalse}
}

func (p *Parser) parseGroupedExpr() ast.Expr {
	p.nextToken()
	p.eatNewlines()
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	for p.peekTokenIs(token.NEWLINE) {
		p.nextToken()
	}
	if !p.expectPeek("grouped expression", token.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) parseCall(fun *ast.Ident) ast.Expr {
	p.nextToken() // move to '('
	call := &ast.Call{Fun: fun, Lparen: p.curToken.StartPosition}
	p.nextToken()
	p.eatNewlines()
	if !p.curTokenIs(token.RPAREN) {
		for {
			arg := p.parseExpression(LOWEST)
			if arg == nil {
				return nil
			}
			call.Args = append(call.Args, arg)
			for p.peekTokenIs(token.NEWLINE) {
				p.nextToken()
			}
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken() // move to ','
			p.nextToken()
			p.eatNewlines()
		}
		if !p.expectPeek("call arguments", token.RPAREN) {
			return nil
		}
	}
	call.Rparen = p.curToken.StartPosition
	if !p.resolveCall(call) {
		return nil
	}
	return call
}

// resolveCall resolves the callee and checks the arguments against its
// signature.
func (p *Parser) resolveCall(call *ast.Call) bool {
	fun := call.Fun
	sym := p.lookup(fun.Name)
	if sym == nil {
		if p.unresolving {
			return true
		}
		err := p.setNodeError(errors.E2002, fun, "unknown function %s", fun.Name)
		if p.blockType != nil {
			err.Suggestions = errors.SuggestSimilar(fun.Name, p.blockType.Functions())
		}
		return false
	}
	if sym.Kind != ast.SymFunction {
		p.setNodeError(errors.E2021, fun, "%s is %s, not a function", fun.Name, article(sym.Kind.String()))
		return false
	}
	fun.Symbol = sym
	cmd := sym.Command
	if len(call.Args) > segment.MaxFunctionArguments {
		p.setNodeError(errors.E2015, call, "%s called with %d arguments, the limit is %d",
			fun.Name, len(call.Args), segment.MaxFunctionArguments)
		return false
	}
	if len(call.Args) != len(cmd.Args) {
		err := p.setNodeError(errors.E2012, call, "%s expects %d arguments, got %d",
			fun.Name, len(cmd.Args), len(call.Args))
		err.Note = "signature: " + cmd.Signature()
		return false
	}
	for i, arg := range call.Args {
		if got, want := arg.Kind(), cmd.Args[i]; got != want {
			err := p.setNodeError(errors.E2011, arg, "argument %d of %s must be %s, got %s",
				i+1, fun.Name, want, got)
			err.Note = "signature: " + cmd.Signature()
			return false
		}
	}
	return true
}

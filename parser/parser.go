// Package parser generates the abstract syntax tree (AST) for a script.
//
// Identifier resolution and type checking happen during parsing: every name
// in the returned tree carries the symbol it resolved to in the tables of
// its block type, and every call has been checked against its signature.
//
// A parser is created by calling New() with a lexer as input. The parser should
// then be used only once, by calling parser.Parse() to produce the AST.
package parser

import (
	"context"
	"strings"

	"github.com/deepnoodle-ai/gscript/ast"
	"github.com/deepnoodle-ai/gscript/env"
	"github.com/deepnoodle-ai/gscript/errors"
	"github.com/deepnoodle-ai/gscript/internal/lexer"
	"github.com/deepnoodle-ai/gscript/internal/token"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// statementTerminators defines tokens that can end a statement.
//
// Newlines end statements except directly after a binary operator, "?",
// ":", "(" or ",", where the expression continues on the next line.
var statementTerminators = map[token.Type]bool{
	token.SEMICOLON: true,
	token.NEWLINE:   true,
	token.RBRACE:    true,
	token.EOF:       true,
}

// Parse the provided input as gscript source code and return the AST. This
// is shorthand for creating a Lexer and Parser and then calling Parse.
func Parse(ctx context.Context, input string, options ...Option) (*ast.Program, error) {
	l := lexer.New(input)
	p := New(l, options...)
	return p.Parse(ctx)
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithFilename sets the file name recorded in positions and errors.
func WithFilename(filename string) Option {
	return func(p *Parser) {
		p.filename = filename
	}
}

// WithMaxDepth sets the maximum expression nesting depth.
// The default is 200.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// WithEnvironment sets the tables names are resolved against. The default
// is env.Default().
func WithEnvironment(e *env.Environment) Option {
	return func(p *Parser) {
		p.env = e
	}
}

// WithParams declares the formal parameter names of the script. Parameter
// i is bound to closure slot i.
func WithParams(names ...string) Option {
	return func(p *Parser) {
		p.params = append([]string(nil), names...)
	}
}

// DefaultMaxDepth is the default maximum nesting depth for parsing.
const DefaultMaxDepth = 200

// MaxErrors is the maximum number of errors to collect before stopping.
const MaxErrors = 10

// Parser object
type Parser struct {
	ctx context.Context

	l *lexer.Lexer

	prevToken token.Token
	curToken  token.Token
	peekToken token.Token

	// lexer error attached to peekToken, reported once it becomes current
	peekErr error

	errors errors.CompileErrors

	// error count at the start of the current statement
	stmtErrorCount int

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn

	filename string
	depth    int
	maxDepth int

	env    *env.Environment
	params []string

	// resolution state for the block being parsed
	block       *ast.Block
	blockType   *env.BlockType
	locals      map[string]*ast.Symbol
	unresolving bool // block type unknown; resolution errors are suppressed

	defaultBlock *ast.Block
	hooks        []*ast.Block
	hookNames    map[string]bool
}

// New returns a Parser for the program provided by the given Lexer.
func New(l *lexer.Lexer, options ...Option) *Parser {
	p := &Parser{
		l:              l,
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
		maxDepth:       DefaultMaxDepth,
		hookNames:      map[string]bool{},
	}
	for _, opt := range options {
		opt(p)
	}
	if p.env == nil {
		p.env = env.Default()
	}
	if p.filename != "" {
		l.SetFilename(p.filename)
	}

	// Prime the token pump
	p.nextToken()
	p.nextToken()

	p.registerPrefix(token.BANG, p.parsePrefixExpr)
	p.registerPrefix(token.EOF, p.illegalToken)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.IDENT, p.parseIdent)
	p.registerPrefix(token.ILLEGAL, p.illegalToken)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(token.MINUS, p.parsePrefixExpr)
	p.registerPrefix(token.NUMBER, p.parseNumber)
	p.registerPrefix(token.STRING, p.parseString)
	p.registerPrefix(token.TRUE, p.parseBoolean)

	p.registerInfix(token.AND, p.parseInfixExpr)
	p.registerInfix(token.ASTERISK, p.parseInfixExpr)
	p.registerInfix(token.EQ, p.parseInfixExpr)
	p.registerInfix(token.GT_EQUALS, p.parseInfixExpr)
	p.registerInfix(token.GT, p.parseInfixExpr)
	p.registerInfix(token.LT_EQUALS, p.parseInfixExpr)
	p.registerInfix(token.LT, p.parseInfixExpr)
	p.registerInfix(token.MINUS, p.parseInfixExpr)
	p.registerInfix(token.MOD, p.parseInfixExpr)
	p.registerInfix(token.NOT_EQ, p.parseInfixExpr)
	p.registerInfix(token.OR, p.parseInfixExpr)
	p.registerInfix(token.PLUS, p.parseInfixExpr)
	p.registerInfix(token.QUESTION, p.parseTernary)
	p.registerInfix(token.SLASH, p.parseInfixExpr)

	return p
}

func (p *Parser) registerPrefix(tokenType token.Type, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.Type, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// nextToken moves to the next token from the lexer. A lexer error is
// reported when the offending token becomes the current token.
func (p *Parser) nextToken() {
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	curErr := p.peekErr
	p.peekToken, p.peekErr = p.l.Next()
	if curErr != nil {
		p.lexError(p.curToken, curErr)
	}
}

// Parse the program that is provided via the lexer. On failure the
// partial program is returned together with the errors.
func (p *Parser) Parse(ctx context.Context) (*ast.Program, error) {
	p.ctx = ctx
	p.checkParams()
	for !p.curTokenIs(token.EOF) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if p.tooManyErrors() {
			break
		}
		switch p.curToken.Type {
		case token.NEWLINE, token.SEMICOLON:
			p.nextToken()
			continue
		case token.HOOK:
			p.parseHook()
		case token.RBRACE:
			p.setTokenError(errors.E1001, p.curToken, "unexpected '}' outside of a hook")
		default:
			p.enterDefaultBlock()
			p.parseBlockStatement()
		}
		p.nextToken()
	}
	program := &ast.Program{}
	if p.defaultBlock != nil {
		program.Blocks = append(program.Blocks, p.defaultBlock)
	}
	program.Blocks = append(program.Blocks, p.hooks...)
	if p.errors.HasErrors() {
		return program, p.errors.ToError()
	}
	return program, nil
}

// parseBlockStatement parses one statement into the current block and
// recovers at the next statement boundary on failure.
func (p *Parser) parseBlockStatement() {
	p.stmtErrorCount = p.errors.Count()
	stmt := p.parseStatementStrict()
	if stmt != nil {
		p.block.Stmts = append(p.block.Stmts, stmt)
	} else if p.hadNewError() {
		p.synchronize()
	}
}

func (p *Parser) parseStatementStrict() ast.Stmt {
	stmt := p.parseStatement()
	if stmt == nil {
		return nil
	}
	if p.peekTokenIs(token.ILLEGAL) {
		p.nextToken()
		return nil
	}
	if !statementTerminators[p.peekToken.Type] {
		p.setTokenError(errors.E1001, p.peekToken, "unexpected %s following statement",
			tokenDescription(p.peekToken))
		return nil
	}
	if p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return stmt
}

func (p *Parser) addError(err *errors.CompileError) {
	if err.BlockType == "" && p.blockType != nil {
		err.BlockType = p.blockType.Name
	}
	p.errors.Add(err)
}

func (p *Parser) tooManyErrors() bool {
	return p.errors.Count() >= MaxErrors
}

// hadNewError returns true if an error was added during the current statement.
func (p *Parser) hadNewError() bool {
	return p.errors.Count() > p.stmtErrorCount
}

// synchronize skips tokens until a statement boundary is reached.
func (p *Parser) synchronize() {
	for !p.curTokenIs(token.EOF) {
		if statementTerminators[p.curToken.Type] && !p.curTokenIs(token.RBRACE) {
			return
		}
		if statementTerminators[p.peekToken.Type] {
			return
		}
		prev := p.curToken.StartPosition
		p.nextToken()
		if p.curToken.StartPosition == prev {
			return
		}
	}
}

func (p *Parser) setTokenError(code errors.ErrorCode, t token.Token, msg string, args ...any) {
	err := errors.New(code, t.StartPosition, t.EndPosition, msg, args...)
	err.Filename = p.filename
	err.SourceLine = p.l.GetLineText(t)
	p.addError(err)
}

func (p *Parser) setNodeError(code errors.ErrorCode, n ast.Node, msg string, args ...any) *errors.CompileError {
	start := n.Pos()
	err := errors.New(code, start, n.End(), msg, args...)
	err.Filename = p.filename
	err.SourceLine = p.l.GetLineText(token.Token{StartPosition: start})
	p.addError(err)
	return err
}

func (p *Parser) lexError(t token.Token, cause error) {
	msg := cause.Error()
	code := errors.E1001
	switch {
	case strings.HasPrefix(msg, "unterminated string"):
		code = errors.E1002
	case strings.HasPrefix(msg, "invalid decimal literal"):
		code = errors.E1008
	case strings.HasPrefix(msg, "invalid escape sequence"):
		code = errors.E1010
	}
	p.setTokenError(code, t, "%s", msg)
}

func (p *Parser) illegalToken() ast.Expr {
	// Lexer errors were already reported by nextToken.
	if p.curTokenIs(token.EOF) {
		p.setTokenError(errors.E1004, p.curToken, "unexpected end of input (expected an expression)")
	} else if !p.hadNewError() {
		p.setTokenError(errors.E1001, p.curToken, "illegal token %s", p.curToken.Literal)
	}
	return nil
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peekToken.Type == t
}

// expectPeek advances if the next token has the given type, and records an
// error otherwise.
func (p *Parser) expectPeek(context string, t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	if p.peekTokenIs(token.ILLEGAL) {
		p.nextToken()
		return false
	}
	code := errors.E1001
	switch {
	case t == token.IDENT:
		code = errors.E1006
	case p.peekTokenIs(token.EOF) && (t == token.RPAREN || t == token.RBRACE):
		code = errors.E1007
	}
	p.setTokenError(code, p.peekToken, "unexpected %s while parsing %s (expected %s)",
		tokenDescription(p.peekToken), context, tokenTypeDescription(t))
	return false
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) currentPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) eatNewlines() {
	for p.curTokenIs(token.NEWLINE) {
		p.nextToken()
	}
}

func tokenDescription(t token.Token) string {
	switch t.Type {
	case token.EOF:
		return "end of input"
	case token.NEWLINE:
		return "end of line"
	case token.IDENT:
		return "identifier " + t.Literal
	case token.NUMBER:
		return "number " + t.Literal
	case token.STRING:
		return "string"
	}
	return "'" + t.Literal + "'"
}

func tokenTypeDescription(t token.Type) string {
	switch t {
	case token.IDENT:
		return "an identifier"
	case token.EOF:
		return "end of input"
	}
	return "'" + string(t) + "'"
}

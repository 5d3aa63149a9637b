// Package parser turns a lexer.Token stream into an ast.Node tree
// using a Pratt (top-down operator precedence) expression parser plus
// statement-level declaration/assignment disambiguation.
package parser

import (
	"github.com/akashmaji946/meg/ast"
	"github.com/akashmaji946/meg/diag"
	"github.com/akashmaji946/meg/lexer"
)

// unaryParseFunction is a nud: it consumes the token that starts an
// expression and returns the node it denotes. The triggering token
// has already been consumed when this is invoked.
type unaryParseFunction func(p *Parser, tok lexer.Token) ast.Node

// Parser holds two-token lookahead over a fixed token slice, a
// diagnostics sink, and the nud registration table.
type Parser struct {
	tokens []lexer.Token
	pos    int
	sink   *diag.Sink

	nudFuncs map[lexer.Kind]unaryParseFunction
}

// New builds a Parser over tokens, reporting syntax errors to sink.
func New(tokens []lexer.Token, sink *diag.Sink) *Parser {
	p := &Parser{tokens: tokens, sink: sink}
	p.registerNudFuncs()
	return p
}

func (p *Parser) registerNudFuncs() {
	p.nudFuncs = map[lexer.Kind]unaryParseFunction{
		lexer.Identifier:      nudIdentifier,
		lexer.IntegerLiteral:  nudLiteral(ast.IntLiteral),
		lexer.FloatLiteral:    nudLiteral(ast.FloatLiteral),
		lexer.StringLiteral:   nudLiteral(ast.StrLiteral),
		lexer.LParen:          nudParen,
		lexer.Operator:        nudPrefixOp,
		lexer.LBrace:          nudBlock,
		lexer.If:              nudIf,
		lexer.While:           nudWhile,
		lexer.Loop:           nudLoop,
		lexer.Fn:             nudFunction,
	}
}

// peek returns the next token without consuming it.
func (p *Parser) peek() lexer.Token {
	return p.peekAt(0)
}

// peekAt returns the token n positions ahead without consuming it.
func (p *Parser) peekAt(n int) lexer.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[idx]
}

// consume returns the next token and advances past it.
func (p *Parser) consume() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

// consumeOfKind consumes and returns the next token if it has kind k,
// else reports a diagnostic and returns ok=false without consuming.
func (p *Parser) consumeOfKind(k lexer.Kind) (lexer.Token, bool) {
	if p.peek().Kind == k {
		return p.consume(), true
	}
	p.sink.Report(diag.Parser, p.peek().Position, "expected %s, found %s %q", k, p.peek().Kind, p.peek().Lexeme)
	return lexer.Token{}, false
}

// tryConsumeOfKind consumes and returns the next token if it has kind
// k; it is side-effect-free (no diagnostic, no consumption) otherwise.
func (p *Parser) tryConsumeOfKind(k lexer.Kind) (lexer.Token, bool) {
	if p.peek().Kind == k {
		return p.consume(), true
	}
	return lexer.Token{}, false
}

// consumeIdentifier consumes and returns the next token's lexeme if it
// is an Identifier, else reports a diagnostic.
func (p *Parser) consumeIdentifier() (string, bool) {
	tok, ok := p.consumeOfKind(lexer.Identifier)
	if !ok {
		return "", false
	}
	return tok.Lexeme, true
}

func (p *Parser) skipNewlines() {
	for {
		if _, ok := p.tryConsumeOfKind(lexer.Newline); !ok {
			return
		}
	}
}

// Parse parses the whole token stream as a top-level block.
func Parse(tokens []lexer.Token, sink *diag.Sink) *ast.Block {
	p := New(tokens, sink)
	return p.block()
}

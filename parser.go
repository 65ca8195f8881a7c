// Package vyper provides a parser for the [Vyper language].
//
// The parser implements an error-resilient parser that produces a concrete syntax tree (CST)
// representation of Vyper source code. It can parse syntactically invalid input and recover to
// continue parsing, collecting all errors encountered during parsing.
//
// # Grammar
//
// The parser recognizes the statement structure of Vyper. Expressions are kept as the flat
// sequence of tokens of their logical line with brackets checked for balance:
//
//	file          : { statement } EOF
//	statement     : decorator | compound_stmt | simple_stmt
//	decorator     : '@' tokens NEWLINE
//	compound_stmt : tokens ':' NEWLINE block
//	simple_stmt   : tokens NEWLINE
//	block         : INDENT statement { statement } DEDENT
//
// A definition with its body on the same line like an interface function
// "def name() -> uint256: view" is a simple statement.
//
// [Vyper language]: https://docs.vyperlang.org
package vyper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teleivo/vyper/internal/assert"
	"github.com/teleivo/vyper/token"
)

// Error represents a parse error in Vyper source code.
// The position Pos points to the beginning of the offending token, and the error condition is
// described by Msg.
type Error struct {
	Pos token.Position
	Msg string
}

// Error formats the error as "line:column: message".
func (e Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Parser parses Vyper source code into a concrete syntax tree.
//
// Parser continues parsing after encountering errors, collecting all errors for later retrieval
// via [Parser.Errors].
//
// The parser decides on the current token alone and produces a [Tree] that preserves all tokens
// from the source including their prefixes.
type Parser struct {
	scanner  *Scanner
	curToken token.Token
	errors   []Error
}

// NewParser creates a new parser that parses the given Vyper source code.
func NewParser(src []byte) *Parser {
	scanner := NewScanner(src)

	p := Parser{
		scanner: scanner,
	}

	// initialize current token
	p.nextToken()

	return &p
}

func (p *Parser) nextToken() {
	p.curToken = p.scanner.Next()
}

// Errors returns all parse and scan errors collected during parsing.
func (p *Parser) Errors() []Error {
	return p.errors
}

// Parse parses the Vyper source code and returns the concrete syntax tree representation.
//
// The returned [Tree] has kind [KindFile] and contains zero or more statements followed by the EOF
// token. The EOF token holds comments and blank lines after the last statement in its prefix.
// Parse always returns a tree, even when errors are encountered. Syntax errors are collected and
// can be retrieved via [Parser.Errors].
func (p *Parser) Parse() *Tree {
	f := &Tree{Kind: KindFile}
	for !p.curTokenIs(token.EOF) {
		p.parseStatement(f)
	}
	f.appendToken(p.curToken)
	return f
}

// Parse parses src and returns the tree. The error joins all parse errors if there are any.
func Parse(src []byte) (*Tree, error) {
	p := NewParser(src)
	tree := p.Parse()
	if len(p.errors) == 0 {
		return tree, nil
	}
	errs := make([]error, len(p.errors))
	for i, err := range p.errors {
		errs[i] = err
	}
	return tree, errors.Join(errs...)
}

// parseStatement parses a statement and appends it to parent.
//
//	statement : decorator | compound_stmt | simple_stmt
func (p *Parser) parseStatement(parent *Tree) {
	switch {
	case p.curTokenIs(token.Indent):
		p.error("unexpected indent")
		errTree := &Tree{Kind: KindErrorTree}
		errTree.appendTree(p.parseBlock())
		parent.appendTree(errTree)
		return
	case p.curTokenIs(token.Dedent | token.Newline):
		p.wrapError(parent)
		return
	}

	stmt := &Tree{Kind: KindSimpleStmt}
	if p.curTokenIs(token.At) {
		stmt.Kind = KindDecorator
	}

	last := p.parseLogicalLine(stmt)
	if last == token.Colon && stmt.Kind == KindSimpleStmt {
		if p.curTokenIs(token.Indent) {
			stmt.Kind = KindCompoundStmt
			stmt.appendTree(p.parseBlock())
		} else {
			p.error("expected an indented block")
		}
	}
	parent.appendTree(stmt)
}

// parseLogicalLine consumes the tokens of a logical line into stmt up to and including its NEWLINE.
// It returns the kind of the last token before the NEWLINE.
func (p *Parser) parseLogicalLine(stmt *Tree) token.Kind {
	var open []token.Token
	var last token.Kind
	for !p.curTokenIs(token.Newline | token.EOF) {
		switch {
		case p.curTokenIs(token.ERROR | token.Indent | token.Dedent):
			p.wrapError(stmt)
			continue
		case p.curTokenIs(token.Opening):
			open = append(open, p.curToken)
		case p.curTokenIs(token.Closing):
			if len(open) == 0 {
				p.wrapError(stmt)
				continue
			}
			want := closing(open[len(open)-1].Kind)
			if !p.curTokenIs(want) {
				p.wrapErrorExpected(stmt, want)
				continue
			}
			open = open[:len(open)-1]
		}
		last = p.curToken.Kind
		p.consume(stmt)
	}

	for _, tok := range open {
		p.errors = append(p.errors, Error{
			Pos: tok.Start,
			Msg: fmt.Sprintf("'%s' was never closed", tok.Literal),
		})
	}

	if p.curTokenIs(token.Newline) {
		p.consume(stmt)
	}
	return last
}

// closing returns the closing bracket kind matching the opening bracket kind.
func closing(opening token.Kind) token.Kind {
	switch opening {
	case token.LeftParen:
		return token.RightParen
	case token.LeftBracket:
		return token.RightBracket
	case token.LeftBrace:
		return token.RightBrace
	}
	panic(fmt.Errorf("%s is not an opening bracket", opening))
}

// parseBlock parses an indented block.
//
//	block : INDENT statement { statement } DEDENT
func (p *Parser) parseBlock() *Tree {
	assert.That(p.curTokenIs(token.Indent), "current token must be INDENT, got %s", p.curToken)
	block := &Tree{Kind: KindBlock}
	p.consume(block)

	for !p.curTokenIs(token.Dedent | token.EOF) {
		p.parseStatement(block)
	}
	p.expect(block, token.Dedent)

	return block
}

func (p *Parser) curTokenIs(want token.Kind) bool {
	return p.curToken.Kind&want != 0
}

// expect consumes the current token into t if it is of kind want. It records an error otherwise.
func (p *Parser) expect(t *Tree, want token.Kind) bool {
	if p.curTokenIs(want) {
		p.consume(t)
		return true
	}

	p.errorExpected(want)
	return false
}

// consume appends the current token to tree t and advances to the next token.
func (p *Parser) consume(t *Tree) {
	t.appendToken(p.curToken)
	p.nextToken()
}

// error records a parse error at current position with custom message.
func (p *Parser) error(msg string) {
	p.errors = append(p.errors, Error{
		Pos: p.curToken.Start,
		Msg: msg,
	})
}

// errorExpected records "expected X or Y" at current position.
func (p *Parser) errorExpected(want token.Kind) {
	p.error("expected " + want.String())
}

// wrapError consumes curToken into ErrorTree, records error, advances.
// For ERROR tokens, uses the scanner's error message; otherwise records "unexpected token X".
func (p *Parser) wrapError(t *Tree) {
	// Record error before consume advances
	if p.curToken.Kind == token.ERROR { // scanner error
		p.error(p.curToken.Error)
	} else { // parsing error
		var msg strings.Builder
		msg.WriteString("unexpected token ")
		writeToken(p.curToken, &msg)
		p.error(msg.String())
	}

	errTree := &Tree{Kind: KindErrorTree}
	p.consume(errTree)
	t.appendTree(errTree)
}

// wrapErrorExpected consumes curToken into ErrorTree, records error, advances.
// For ERROR tokens, uses the scanner's error message; otherwise records "unexpected token X, expected Y".
func (p *Parser) wrapErrorExpected(t *Tree, want token.Kind) {
	// Record error before consume advances
	if p.curToken.Kind == token.ERROR { // scanner error
		p.error(p.curToken.Error)
	} else { // parsing error
		var msg strings.Builder
		msg.WriteString("unexpected token ")
		writeToken(p.curToken, &msg)
		msg.WriteString(", expected ")
		msg.WriteString(want.String())
		p.error(msg.String())
	}

	errTree := &Tree{Kind: KindErrorTree}
	p.consume(errTree)
	t.appendTree(errTree)
}

func writeToken(tok token.Token, msg *strings.Builder) {
	if tok.IsKeyword() {
		msg.WriteString(tok.Literal)
		return
	}

	switch tok.Kind {
	case token.Name, token.Number, token.String:
		msg.WriteString(tok.Kind.String())
		msg.WriteRune(' ')
	case token.Newline, token.Indent, token.Dedent, token.EOF:
		msg.WriteString(tok.Kind.String())
		return
	}
	msg.WriteRune('\'')
	msg.WriteString(tok.Literal)
	msg.WriteRune('\'')
}

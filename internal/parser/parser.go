// Package parser consumes a scanned token stream and builds an ast.Tree:
// one flat, post-order node array per script, with a Statement entry per
// top-level statement. It is a straightforward recursive-descent parser;
// precedence among expression operators is handled by a chain of mutually
// recursive parseX functions (expr.go), one per precedence level, rather
// than an operator-precedence table, matching the shape the grammar calls
// for rather than generalizing ahead of need.
package parser

import (
	"github.com/sqlweave/engine/internal/ast"
	"github.com/sqlweave/engine/internal/scanner"
	"github.com/sqlweave/engine/internal/token"
)

// Parser holds the state of one parse: the token cursor, the tree under
// construction, and the name registry the scanner produced for this script
// (identifier nodes carry NameIDs from this registry as their Value).
type Parser struct {
	toks []token.Token
	pos  int
	reg  *scanner.NameRegistry

	tree *ast.Tree
	errs []Error
}

// New returns a Parser ready to consume toks (normally scanner.Result.Tokens)
// against reg (normally scanner.Result.Registry).
func New(toks []token.Token, reg *scanner.NameRegistry) *Parser {
	return &Parser{toks: toks, reg: reg, tree: ast.NewTree()}
}

// Parse parses every statement in the token stream (each terminated by a
// SEMICOLON or EOF) and returns the built tree plus any syntax errors
// encountered. A statement with a syntax error still contributes whatever
// nodes were built before the error, so completion over a half-typed
// statement still has something to work with.
func Parse(toks []token.Token, reg *scanner.NameRegistry) (*ast.Tree, []Error) {
	p := New(toks, reg)
	for !p.atEOF() {
		p.skipSemicolons()
		if p.atEOF() {
			break
		}
		p.parseStatement()
	}
	return p.tree, p.errs
}

func (p *Parser) cur() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) token.Token {
	idx := p.pos + n
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[idx]
}

func (p *Parser) atEOF() bool { return p.cur().Kind == token.EOF }

func (p *Parser) advance() token.Token {
	tok := p.cur()
	if tok.Kind != token.EOF {
		p.pos++
	}
	return tok
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) atAny(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.cur().Kind == k {
			return true
		}
	}
	return false
}

// accept consumes and returns true if the current token is k.
func (p *Parser) accept(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// expect consumes the current token if it is k, else records a syntax
// error and leaves the cursor in place so synchronization can take over.
func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errorUnexpected(k.String())
	return token.Token{}, false
}

func (p *Parser) skipSemicolons() {
	for p.accept(token.SEMICOLON) {
	}
}

// syncToStatementBoundary advances past tokens until it reaches a SEMICOLON
// (consumed) or EOF (left for the caller to observe), so one malformed
// statement doesn't corrupt the parse of every statement after it.
func (p *Parser) syncToStatementBoundary() {
	for !p.atEOF() {
		if p.accept(token.SEMICOLON) {
			return
		}
		p.advance()
	}
}

// internName interns tok's literal (the scanner already interned it during
// scanning; Intern here is idempotent and just looks up the same id) and
// returns it as a Node Value.
func (p *Parser) internName(tok token.Token) int32 {
	return int32(p.reg.Intern(tok.Literal))
}

func (p *Parser) addLiteral(tok token.Token) int32 {
	return int32(p.tree.AddLiteral(tok.Literal))
}

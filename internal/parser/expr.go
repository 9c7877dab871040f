package parser

import (
	"strconv"
	"strings"

	"github.com/sqlweave/engine/internal/ast"
	"github.com/sqlweave/engine/internal/token"
)

// parseExpr parses a full expression at the lowest precedence level (OR).
func (p *Parser) parseExpr() ast.NodeID {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.NodeID {
	pos := p.cur().Pos
	b := ast.NewNary(ast.NodeOrExpr)
	first := p.parseAnd()
	b.TryMerge(p.tree, first)
	for p.accept(token.OR) {
		b.TryMerge(p.tree, p.parseAnd())
	}
	if b.Len() == 1 {
		return first
	}
	return b.Finish(p.tree, pos)
}

func (p *Parser) parseAnd() ast.NodeID {
	pos := p.cur().Pos
	b := ast.NewNary(ast.NodeAndExpr)
	first := p.parseNot()
	b.TryMerge(p.tree, first)
	for p.accept(token.AND) {
		b.TryMerge(p.tree, p.parseNot())
	}
	if b.Len() == 1 {
		// A lone operand is returned unwrapped rather than committed as a
		// one-child NodeAndExpr (parseOr does the same for NodeOrExpr).
		return first
	}
	return b.Finish(p.tree, pos)
}

func (p *Parser) parseNot() ast.NodeID {
	if p.at(token.NOT) {
		pos := p.advance().Pos
		operand := p.parseNot()
		return p.tree.AddNode(pos, ast.NodeNotExpr, 0, 0, operand)
	}
	return p.parseComparison()
}

// parseComparison handles the single precedence level covering binary
// comparisons, IN, BETWEEN, the LIKE family, and IS, all of which bind
// tighter than NOT/AND/OR but looser than arithmetic. Postgres does not
// actually chain these (a = b = c is not meaningful) so there is no loop
// here beyond the optional single suffix.
func (p *Parser) parseComparison() ast.NodeID {
	lhs := p.parseAdditive()

	switch {
	case p.atAny(token.EQ, token.NEQ, token.LT, token.GT, token.LE, token.GE):
		op := binOpFor(p.advance().Kind)
		rhs := p.parseAdditive()
		return p.tree.AddNode(p.tree.Node(lhs).Pos, ast.NodeBinaryExpr, uint16(op), 0, lhs, rhs)

	case p.at(token.IN):
		p.advance()
		return p.parseInTail(lhs, false)
	case p.at(token.NOT_LA) && p.fusedSecond() == token.IN:
		p.advance()
		return p.parseInTail(lhs, true)

	case p.at(token.BETWEEN):
		p.advance()
		return p.parseBetweenTail(lhs, false)
	case p.at(token.NOT_LA) && p.fusedSecond() == token.BETWEEN:
		p.advance()
		return p.parseBetweenTail(lhs, true)

	case p.atAny(token.LIKE, token.ILIKE, token.SIMILAR):
		kind := p.advance().Kind
		return p.parseMatchTail(lhs, matchKindFor(kind), false)
	case p.at(token.NOT_LA) && isMatchFusion(p.fusedSecond()):
		second := p.fusedSecond()
		p.advance()
		return p.parseMatchTail(lhs, matchKindFor(second), true)

	case p.at(token.IS):
		pos := p.advance().Pos
		negated := p.accept(token.NOT)
		op := p.parseIsPredicate(negated)
		return p.tree.AddNode(pos, ast.NodeIsExpr, uint16(op), 0, lhs)
	}
	return lhs
}

// fusedSecond recovers the second keyword folded into a NOT_LA token by the
// scanner's lookahead rewrite (its Literal is "NOT <second>") instead of
// adding a dedicated field to token.Token.
func (p *Parser) fusedSecond() token.Kind {
	lit := p.cur().Literal
	parts := strings.SplitN(lit, " ", 2)
	if len(parts) != 2 {
		return token.ILLEGAL
	}
	return token.Lookup(strings.ToUpper(parts[1]))
}

func isMatchFusion(k token.Kind) bool {
	switch k {
	case token.LIKE, token.ILIKE, token.SIMILAR:
		return true
	}
	return false
}

func (p *Parser) parseInTail(lhs ast.NodeID, negated bool) ast.NodeID {
	pos := p.cur().Pos
	attr := uint16(0)
	if negated {
		attr |= ast.NegatedFlag
	}
	if _, ok := p.expect(token.LPAREN); !ok {
		return lhs
	}
	var items []ast.NodeID
	items = append(items, lhs)
	if p.atSelectStart() {
		items = append(items, p.parseSubquery())
	} else {
		for {
			items = append(items, p.parseExpr())
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN)
	return p.tree.AddNode(pos, ast.NodeInExpr, attr, 0, items...)
}

func (p *Parser) parseBetweenTail(lhs ast.NodeID, negated bool) ast.NodeID {
	pos := p.cur().Pos
	attr := uint16(0)
	if negated {
		attr |= ast.NegatedFlag
	}
	low := p.parseAdditive()
	p.expect(token.AND)
	high := p.parseAdditive()
	return p.tree.AddNode(pos, ast.NodeBetweenExpr, attr, 0, lhs, low, high)
}

func (p *Parser) parseMatchTail(lhs ast.NodeID, mk ast.MatchKind, negated bool) ast.NodeID {
	pos := p.cur().Pos
	if mk == ast.MatchSimilar {
		p.expect(token.TO)
	}
	attr := uint16(mk)
	if negated {
		attr |= ast.NegatedFlag
	}
	rhs := p.parseAdditive()
	return p.tree.AddNode(pos, ast.NodeMatchExpr, attr, 0, lhs, rhs)
}

// parseIsPredicate parses the suffix of "IS [NOT] ..." after IS (and any
// NOT) has already been consumed, returning the matching UnaryOp.
func (p *Parser) parseIsPredicate(negated bool) ast.UnaryOp {
	switch {
	case p.accept(token.NULL):
		if negated {
			return ast.UnIsNotNull
		}
		return ast.UnIsNull
	case p.accept(token.TRUE):
		if negated {
			return ast.UnIsNotTrue
		}
		return ast.UnIsTrue
	case p.accept(token.FALSE):
		if negated {
			return ast.UnIsNotFalse
		}
		return ast.UnIsFalse
	case p.accept(token.UNKNOWN_KW):
		if negated {
			return ast.UnIsNotUnknown
		}
		return ast.UnIsUnknown
	}
	p.errorUnexpected("NULL, TRUE, FALSE, or UNKNOWN")
	return ast.UnNone
}

func binOpFor(k token.Kind) ast.BinOp {
	switch k {
	case token.EQ:
		return ast.OpEq
	case token.NEQ:
		return ast.OpNeq
	case token.LT:
		return ast.OpLt
	case token.GT:
		return ast.OpGt
	case token.LE:
		return ast.OpLe
	case token.GE:
		return ast.OpGe
	case token.PLUS:
		return ast.OpAdd
	case token.MINUS:
		return ast.OpSub
	case token.STAR:
		return ast.OpMul
	case token.SLASH:
		return ast.OpDiv
	case token.PERCENT:
		return ast.OpMod
	case token.CONCAT:
		return ast.OpConcat
	}
	return ast.OpNone
}

func matchKindFor(k token.Kind) ast.MatchKind {
	switch k {
	case token.LIKE:
		return ast.MatchLike
	case token.ILIKE:
		return ast.MatchILike
	case token.SIMILAR:
		return ast.MatchSimilar
	}
	return ast.MatchNone
}

func (p *Parser) parseAdditive() ast.NodeID {
	lhs := p.parseMultiplicative()
	for p.atAny(token.PLUS, token.MINUS, token.CONCAT) {
		pos := p.cur().Pos
		op := binOpFor(p.advance().Kind)
		rhs := p.parseMultiplicative()
		lhs = p.tree.AddNode(pos, ast.NodeBinaryExpr, uint16(op), 0, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseMultiplicative() ast.NodeID {
	lhs := p.parseUnary()
	for p.atAny(token.STAR, token.SLASH, token.PERCENT, token.CARET) {
		pos := p.cur().Pos
		op := binOpFor(p.advance().Kind)
		rhs := p.parseUnary()
		lhs = p.tree.AddNode(pos, ast.NodeBinaryExpr, uint16(op), 0, lhs, rhs)
	}
	return lhs
}

func (p *Parser) parseUnary() ast.NodeID {
	if p.atAny(token.MINUS, token.PLUS) {
		pos := p.cur().Pos
		neg := p.advance().Kind == token.MINUS
		operand := p.parseUnary()
		if !neg {
			return operand
		}
		return p.tree.AddNode(pos, ast.NodeUnaryExpr, uint16(ast.UnNeg), 0, operand)
	}
	if p.at(token.NOT) {
		pos := p.advance().Pos
		operand := p.parseUnary()
		return p.tree.AddNode(pos, ast.NodeNotExpr, 0, 0, operand)
	}
	return p.parseCastPostfix()
}

func (p *Parser) parseCastPostfix() ast.NodeID {
	expr := p.parsePrimary()
	for p.accept(token.TYPECAST) {
		pos := p.cur().Pos
		typeRef := p.parseTypeRef()
		expr = p.tree.AddNode(pos, ast.NodeCastExpr, 0, 0, expr, typeRef)
	}
	return expr
}

func (p *Parser) parseTypeRef() ast.NodeID {
	pos := p.cur().Pos
	name := p.advance()
	id := p.internName(name)
	for p.accept(token.LBRACKET) {
		p.expect(token.RBRACKET)
	}
	return p.tree.AddLeaf(pos, ast.NodeColumnTypeRef, 0, id)
}

func (p *Parser) atSelectStart() bool {
	return p.at(token.SELECT) || p.at(token.WITH) || p.at(token.WITH_LA)
}

func (p *Parser) parsePrimary() ast.NodeID {
	tok := p.cur()
	switch tok.Kind {
	case token.INT:
		p.advance()
		return p.tree.AddLeaf(tok.Pos, ast.NodeLiteralInt, 0, p.addLiteral(tok))
	case token.FLOAT:
		p.advance()
		return p.tree.AddLeaf(tok.Pos, ast.NodeLiteralFloat, 0, p.addLiteral(tok))
	case token.STRING, token.ESTRING, token.DOLLARTEXT, token.BITSTRING, token.HEXSTRING:
		p.advance()
		return p.tree.AddLeaf(tok.Pos, ast.NodeLiteralString, 0, p.addLiteral(tok))
	case token.NULL:
		p.advance()
		return p.tree.AddLeaf(tok.Pos, ast.NodeLiteralNull, 0, 0)
	case token.TRUE:
		p.advance()
		return p.tree.AddLeaf(tok.Pos, ast.NodeLiteralBool, 0, 1)
	case token.FALSE:
		p.advance()
		return p.tree.AddLeaf(tok.Pos, ast.NodeLiteralBool, 0, 0)
	case token.PARAM:
		p.advance()
		n, _ := strconv.Atoi(strings.TrimPrefix(tok.Literal, "$"))
		return p.tree.AddLeaf(tok.Pos, ast.NodeParamExpr, 0, int32(n))
	case token.STAR:
		p.advance()
		return p.tree.AddNode(tok.Pos, ast.NodeStarExpr, 0, 0)
	case token.LPAREN:
		p.advance()
		if p.atSelectStart() {
			sub := p.parseSubquery()
			p.expect(token.RPAREN)
			return sub
		}
		inner := p.parseExpr()
		p.expect(token.RPAREN)
		return inner
	case token.EXISTS:
		p.advance()
		p.expect(token.LPAREN)
		sub := p.parseSubquery()
		p.expect(token.RPAREN)
		return p.tree.AddNode(tok.Pos, ast.NodeUnaryExpr, uint16(ast.UnNone), 0, sub)
	case token.CASE:
		return p.parseCaseExpr()
	case token.CAST:
		return p.parseCastExpr()
	case token.ARRAY:
		return p.parseArrayExpr()
	case token.IDENT:
		return p.parseIdentOrCall()
	}
	p.errorUnexpected("expression")
	p.advance()
	return p.tree.AddLeaf(tok.Pos, ast.NodeLiteralNull, 0, 0)
}

// parseIdentOrCall parses a possibly-dotted identifier path (t.col,
// schema.tbl.col, t.*) and, if immediately followed by '(', reinterprets it
// as a function call instead of a column reference.
func (p *Parser) parseIdentOrCall() ast.NodeID {
	pos := p.cur().Pos
	first := p.advance()

	if p.at(token.LPAREN) {
		return p.parseCallTail(pos, first)
	}

	var parts scopedPool
	parts.push(p.tree.AddLeaf(first.Pos, ast.NodeIdentPart, 0, p.internName(first)))
	for p.at(token.DOT) {
		p.advance()
		if p.accept(token.STAR) {
			return p.tree.AddNode(pos, ast.NodeStarExpr, 0, 0, parts.release()...)
		}
		seg := p.advance()
		parts.push(p.tree.AddLeaf(seg.Pos, ast.NodeIdentPart, 0, p.internName(seg)))
	}
	return p.tree.AddNode(pos, ast.NodeColumnRef, 0, 0, parts.release()...)
}

func (p *Parser) parseCallTail(pos token.Pos, name token.Token) ast.NodeID {
	p.expect(token.LPAREN)
	attr := uint16(0)
	if p.accept(token.DISTINCT) {
		attr = 1
	}
	var args scopedPool
	if p.at(token.STAR) {
		p.advance()
	} else if !p.at(token.RPAREN) {
		for {
			args.push(p.parseExpr())
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN)
	return p.tree.AddNode(pos, ast.NodeFunctionCall, attr, p.internName(name), args.release()...)
}

func (p *Parser) parseCaseExpr() ast.NodeID {
	pos := p.advance().Pos // CASE
	attr := uint16(0)
	var scratch scopedPool
	if !p.at(token.WHEN) {
		scratch.push(p.parseExpr())
		attr |= 0x2
	}
	for p.accept(token.WHEN) {
		condPos := p.cur().Pos
		cond := p.parseExpr()
		p.expect(token.THEN)
		result := p.parseExpr()
		scratch.push(p.tree.AddNode(condPos, ast.NodeWhenClause, 0, 0, cond, result))
	}
	if p.accept(token.ELSE) {
		scratch.push(p.parseExpr())
		attr |= 0x1
	}
	p.expect(token.END)
	return p.tree.AddNode(pos, ast.NodeCaseExpr, attr, 0, scratch.release()...)
}

func (p *Parser) parseCastExpr() ast.NodeID {
	pos := p.advance().Pos // CAST
	p.expect(token.LPAREN)
	expr := p.parseExpr()
	p.expect(token.AS)
	typeRef := p.parseTypeRef()
	p.expect(token.RPAREN)
	return p.tree.AddNode(pos, ast.NodeCastExpr, 0, 0, expr, typeRef)
}

func (p *Parser) parseArrayExpr() ast.NodeID {
	pos := p.advance().Pos // ARRAY
	p.expect(token.LBRACKET)
	var items scopedPool
	if !p.at(token.RBRACKET) {
		for {
			items.push(p.parseExpr())
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RBRACKET)
	return p.tree.AddNode(pos, ast.NodeArrayExpr, 0, 0, items.release()...)
}

// parseSubquery parses a SELECT (or set-op chain) appearing as a subquery
// operand and wraps it in NodeSubquery so callers can distinguish "this
// child is a nested statement" from an ordinary expression child at a
// glance, without checking the child's Type against every statement kind.
func (p *Parser) parseSubquery() ast.NodeID {
	pos := p.cur().Pos
	inner := p.parseSelectOrSetOp()
	return p.tree.AddNode(pos, ast.NodeSubquery, 0, 0, inner)
}

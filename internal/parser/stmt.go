package parser

import (
	"strings"

	"github.com/sqlweave/engine/internal/ast"
	"github.com/sqlweave/engine/internal/token"
)

// parseStatement dispatches on the current token's kind to the right
// top-level statement grammar and records the result in the tree's
// Statement index. Statements this component doesn't model in depth
// (ALTER TABLE's many sub-actions, the full DDL constraint grammar) are
// parsed just far enough to produce a correctly shaped node tree — this
// engine never enforces DDL, only understands enough of it to keep the
// catalog and completion engine informed.
func (p *Parser) parseStatement() {
	var root ast.NodeID
	var typ ast.NodeType

	switch {
	case p.atSelectStart():
		root = p.parseSelectOrSetOp()
		typ = p.tree.Node(root).Type

	case p.at(token.INSERT):
		root = p.parseInsertStmt()
		typ = ast.NodeInsertStmt
	case p.at(token.UPDATE):
		root = p.parseUpdateStmt()
		typ = ast.NodeUpdateStmt
	case p.at(token.DELETE):
		root = p.parseDeleteStmt()
		typ = ast.NodeDeleteStmt

	case p.at(token.CREATE):
		root, typ = p.parseCreateStmt()
	case p.at(token.DROP):
		root = p.parseDropStmt()
		typ = ast.NodeDropStmt
	case p.at(token.ALTER):
		root = p.parseAlterTableStmt()
		typ = ast.NodeAlterTableStmt
	case p.at(token.EXPLAIN):
		root = p.parseExplainStmt()
		typ = ast.NodeExplainStmt

	default:
		p.errorUnexpected("a statement")
		p.syncToStatementBoundary()
		return
	}

	p.tree.AddStatement(typ, root)
}

// parseSelectOrSetOp parses one SELECT (with its optional leading WITH
// clause) and then folds in any trailing UNION/INTERSECT/EXCEPT arms,
// producing a NodeSetOpStmt root when at least one set operator is present.
func (p *Parser) parseSelectOrSetOp() ast.NodeID {
	pos := p.cur().Pos
	lhs := p.parseSelectStmt()
	for {
		var kind ast.SetOpKind
		switch {
		case p.at(token.UNION):
			p.advance()
			kind = ast.SetOpUnion
			if p.accept(token.ALL) {
				kind = ast.SetOpUnionAll
			} else {
				p.accept(token.DISTINCT)
			}
		case p.at(token.INTERSECT):
			p.advance()
			kind = ast.SetOpIntersect
			p.accept(token.DISTINCT)
		case p.at(token.EXCEPT):
			p.advance()
			kind = ast.SetOpExcept
			p.accept(token.DISTINCT)
		default:
			return lhs
		}
		rhs := p.parseSelectStmt()
		lhs = p.tree.AddNode(pos, ast.NodeSetOpStmt, uint16(kind), 0, lhs, rhs)
	}
}

// parseSelectStmt parses a single SELECT, including an optional leading
// WITH clause. Clauses are appended as children in source order and
// distinguished by the analyzer purely by each child's Type, rather than by
// fixed positional slots, since most of them are optional.
func (p *Parser) parseSelectStmt() ast.NodeID {
	pos := p.cur().Pos
	var children scopedPool

	if p.at(token.WITH) || p.at(token.WITH_LA) {
		children.push(p.parseWithClause())
	}

	p.expect(token.SELECT)
	attr := uint16(0)
	if p.accept(token.DISTINCT) {
		attr = 1
		if p.accept(token.ON) {
			p.expect(token.LPAREN)
			for {
				p.parseExpr()
				if !p.accept(token.COMMA) {
					break
				}
			}
			p.expect(token.RPAREN)
		}
	} else {
		p.accept(token.ALL)
	}

	children.push(p.parseTargetList())

	if p.accept(token.FROM) {
		children.push(p.parseFromList())
	}
	if p.accept(token.WHERE) {
		children.push(p.parseExpr())
	}
	if p.accept(token.GROUP) {
		p.expect(token.BY)
		children.push(p.parseGroupByClause())
	}
	if p.accept(token.HAVING) {
		children.push(p.parseExpr())
	}
	if p.accept(token.ORDER) {
		p.expect(token.BY)
		p.parseOrderByItems(&children)
	}
	if p.atAny(token.LIMIT, token.OFFSET, token.FETCH) {
		children.push(p.parseLimitClause())
	}

	return p.tree.AddNode(pos, ast.NodeSelectStmt, attr, 0, children.release()...)
}

func (p *Parser) parseWithClause() ast.NodeID {
	pos := p.advance().Pos // WITH / WITH_LA ("WITH RECURSIVE" never fuses, RECURSIVE is its own token)
	attr := uint16(0)
	if p.accept(token.RECURSIVE) {
		attr = 1
	}
	var ctes scopedPool
	for {
		ctePos := p.cur().Pos
		name := p.advance()
		p.expect(token.AS)
		p.expect(token.LPAREN)
		body := p.parseSubqueryBody()
		p.expect(token.RPAREN)
		ctes.push(p.tree.AddNode(ctePos, ast.NodeCTE, 0, p.internName(name), body))
		if !p.accept(token.COMMA) {
			break
		}
	}
	return p.tree.AddNode(pos, ast.NodeWithClause, attr, 0, ctes.release()...)
}

// parseSubqueryBody parses a statement body that appears already bracketed
// by the caller's own parentheses (a CTE body, an IN(...) subquery), as
// opposed to parseSubquery which supplies the NodeSubquery wrapper itself.
func (p *Parser) parseSubqueryBody() ast.NodeID {
	return p.parseSelectOrSetOp()
}

func (p *Parser) parseTargetList() ast.NodeID {
	pos := p.cur().Pos
	var items scopedPool
	for {
		items.push(p.parseTargetItem())
		if !p.accept(token.COMMA) {
			break
		}
	}
	return p.tree.AddNode(pos, ast.NodeTargetList, 0, 0, items.release()...)
}

func (p *Parser) parseTargetItem() ast.NodeID {
	pos := p.cur().Pos
	expr := p.parseExpr()
	if p.accept(token.AS) {
		name := p.advance()
		return p.tree.AddNode(pos, ast.NodeAlias, 0, p.internName(name), expr)
	}
	// Every clause keyword (FROM, WHERE, ...) is its own reserved token
	// kind, never IDENT, so a bare trailing identifier unambiguously means
	// an implicit column alias ("SELECT x y").
	if p.at(token.IDENT) {
		name := p.advance()
		return p.tree.AddNode(pos, ast.NodeAlias, 0, p.internName(name), expr)
	}
	return expr
}

func (p *Parser) parseFromList() ast.NodeID {
	left := p.parseTableRef()
	for p.accept(token.COMMA) {
		pos := p.cur().Pos
		right := p.parseTableRef()
		left = p.tree.AddNode(pos, ast.NodeJoin, uint16(ast.JoinCross), 0, left, right)
	}
	for {
		kind, ok := p.acceptJoinKind()
		if !ok {
			break
		}
		pos := p.cur().Pos
		right := p.parseTableRef()
		join := []ast.NodeID{left, right}
		if p.accept(token.ON) {
			join = append(join, p.parseExpr())
		} else if p.accept(token.USING) {
			p.expect(token.LPAREN)
			var cols scopedPool
			for {
				c := p.advance()
				cols.push(p.tree.AddLeaf(c.Pos, ast.NodeIdentPart, 0, p.internName(c)))
				if !p.accept(token.COMMA) {
					break
				}
			}
			p.expect(token.RPAREN)
			join = append(join, p.tree.AddNode(pos, ast.NodeTargetList, 0, 0, cols.release()...))
		}
		left = p.tree.AddNode(pos, ast.NodeJoin, uint16(kind), 0, join...)
	}
	return left
}

func (p *Parser) acceptJoinKind() (ast.JoinKind, bool) {
	switch {
	case p.accept(token.JOIN):
		return ast.JoinInner, true
	case p.accept(token.INNER):
		p.expect(token.JOIN)
		return ast.JoinInner, true
	case p.accept(token.LEFT):
		p.accept(token.OUTER)
		p.expect(token.JOIN)
		return ast.JoinLeft, true
	case p.accept(token.RIGHT):
		p.accept(token.OUTER)
		p.expect(token.JOIN)
		return ast.JoinRight, true
	case p.accept(token.FULL):
		p.accept(token.OUTER)
		p.expect(token.JOIN)
		return ast.JoinFull, true
	case p.accept(token.CROSS):
		p.expect(token.JOIN)
		return ast.JoinCross, true
	}
	return ast.JoinInner, false
}

// parseTableRef parses one FROM-list primary: a (possibly qualified) table
// name or a parenthesized subquery, plus an optional alias.
func (p *Parser) parseTableRef() ast.NodeID {
	pos := p.cur().Pos
	attr := uint16(0)
	if p.accept(token.LATERAL) {
		attr = 1
	}

	var children scopedPool
	if p.at(token.LPAREN) {
		p.advance()
		children.push(p.parseSubquery())
		p.expect(token.RPAREN)
	} else {
		children.push(p.parseDottedName())
	}

	if p.accept(token.AS) {
		name := p.advance()
		children.push(p.tree.AddNode(name.Pos, ast.NodeAlias, 0, p.internName(name)))
	} else if p.at(token.IDENT) {
		name := p.advance()
		children.push(p.tree.AddNode(name.Pos, ast.NodeAlias, 0, p.internName(name)))
	}

	return p.tree.AddNode(pos, ast.NodeTableRef, attr, 0, children.release()...)
}

// parseDottedName parses a bare (possibly schema-qualified) name into a
// NodeColumnRef-shaped chain of NodeIdentPart children; it is reused for
// table names, since the engine doesn't need a distinct node shape for "a
// dotted path used as a table" versus "a dotted path used as a column".
func (p *Parser) parseDottedName() ast.NodeID {
	pos := p.cur().Pos
	var parts scopedPool
	first := p.advance()
	parts.push(p.tree.AddLeaf(first.Pos, ast.NodeIdentPart, 0, p.internName(first)))
	for p.accept(token.DOT) {
		seg := p.advance()
		parts.push(p.tree.AddLeaf(seg.Pos, ast.NodeIdentPart, 0, p.internName(seg)))
	}
	return p.tree.AddNode(pos, ast.NodeColumnRef, 0, 0, parts.release()...)
}

func (p *Parser) parseGroupByClause() ast.NodeID {
	pos := p.cur().Pos
	var items scopedPool
	for {
		items.push(p.parseExpr())
		if !p.accept(token.COMMA) {
			break
		}
	}
	return p.tree.AddNode(pos, ast.NodeGroupByClause, 0, 0, items.release()...)
}

// parseOrderByItems appends one NodeOrderByItem per comma-separated item
// directly onto children, rather than wrapping them in their own
// container node (there is no NodeOrderByClause type; the analyzer finds
// them by scanning for consecutive NodeOrderByItem children).
//
// AttributeKey bits: 0x1 DESC, 0x2 an explicit NULLS clause was given,
// 0x4 (meaningful only with 0x2) NULLS FIRST rather than NULLS LAST.
func (p *Parser) parseOrderByItems(children *scopedPool) {
	for {
		pos := p.cur().Pos
		expr := p.parseExpr()
		attr := uint16(0)
		if p.accept(token.DESC) {
			attr |= 0x1
		} else {
			p.accept(token.ASC)
		}
		if p.at(token.NULLS_LA) {
			lit := p.advance().Literal // "NULLS FIRST" or "NULLS LAST"
			attr |= 0x2
			if strings.HasSuffix(strings.ToUpper(lit), "FIRST") {
				attr |= 0x4
			}
		}
		children.push(p.tree.AddNode(pos, ast.NodeOrderByItem, attr, 0, expr))
		if !p.accept(token.COMMA) {
			break
		}
	}
}

func (p *Parser) parseLimitClause() ast.NodeID {
	pos := p.cur().Pos
	var attr uint16
	var children scopedPool
	sawLimit := false
	limitFirst := true
	for p.atAny(token.LIMIT, token.OFFSET, token.FETCH) {
		switch {
		case p.accept(token.LIMIT):
			attr |= 0x1
			sawLimit = true
			children.push(p.parseExpr())
		case p.accept(token.OFFSET):
			attr |= 0x2
			if !sawLimit {
				limitFirst = false
			}
			children.push(p.parseExpr())
			if !p.accept(token.ROW) {
				p.accept(token.ROWS)
			}
		case p.accept(token.FETCH):
			if !p.accept(token.FIRST) {
				p.accept(token.NEXT)
			}
			attr |= 0x1
			sawLimit = true
			children.push(p.parseExpr())
			if !p.accept(token.ROW) {
				p.accept(token.ROWS)
			}
			p.expect(token.ONLY)
		}
	}
	if limitFirst {
		attr |= 0x4
	}
	return p.tree.AddNode(pos, ast.NodeLimitClause, attr, 0, children.release()...)
}

func (p *Parser) parseReturningClause() ast.NodeID {
	pos := p.cur().Pos
	var items scopedPool
	for {
		items.push(p.parseTargetItem())
		if !p.accept(token.COMMA) {
			break
		}
	}
	return p.tree.AddNode(pos, ast.NodeReturningClause, 0, 0, items.release()...)
}

// parseInsertStmt parses INSERT INTO table [(cols)] {VALUES (...)[, (...)]*
// | select} [ON CONFLICT ...] [RETURNING ...].
func (p *Parser) parseInsertStmt() ast.NodeID {
	pos := p.advance().Pos // INSERT
	p.expect(token.INTO)

	var children scopedPool
	children.push(p.parseDottedName())

	if p.at(token.LPAREN) {
		p.advance()
		var cols scopedPool
		for {
			c := p.advance()
			cols.push(p.tree.AddLeaf(c.Pos, ast.NodeIdentPart, 0, p.internName(c)))
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
		children.push(p.tree.AddNode(pos, ast.NodeTargetList, 0, 0, cols.release()...))
	}

	if p.accept(token.VALUES) {
		children.push(p.parseValuesList())
	} else if p.atSelectStart() {
		children.push(p.parseSubquery())
	} else {
		p.errorUnexpected("VALUES or SELECT")
	}

	if p.accept(token.ON) {
		children.push(p.parseOnConflictClause())
	}
	if p.accept(token.RETURNING) {
		children.push(p.parseReturningClause())
	}

	return p.tree.AddNode(pos, ast.NodeInsertStmt, 0, 0, children.release()...)
}

func (p *Parser) parseValuesList() ast.NodeID {
	pos := p.cur().Pos
	var rows scopedPool
	for {
		rowPos := p.cur().Pos
		p.expect(token.LPAREN)
		var vals scopedPool
		for {
			vals.push(p.parseExpr())
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
		rows.push(p.tree.AddNode(rowPos, ast.NodeTargetList, 0, 0, vals.release()...))
		if !p.accept(token.COMMA) {
			break
		}
	}
	return p.tree.AddNode(pos, ast.NodeValuesList, 0, 0, rows.release()...)
}

// parseOnConflictClause parses the tail of "ON CONFLICT [(cols)] {DO
// NOTHING | DO UPDATE SET col=expr,... [WHERE cond]}" with ON already
// consumed. AttributeKey bit 0x1 marks DO NOTHING (no assignment/where
// children follow); otherwise children are [optional conflict-target
// NodeTargetList][assignment NodeBinaryExpr(OpEq) list][optional WHERE
// expr last, present only when bit 0x2 is set].
func (p *Parser) parseOnConflictClause() ast.NodeID {
	pos := p.advance().Pos // CONFLICT
	var attr uint16
	var children scopedPool

	if p.at(token.LPAREN) {
		p.advance()
		var cols scopedPool
		for {
			c := p.advance()
			cols.push(p.tree.AddLeaf(c.Pos, ast.NodeIdentPart, 0, p.internName(c)))
			if !p.accept(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
		children.push(p.tree.AddNode(pos, ast.NodeTargetList, 0, 0, cols.release()...))
	}

	p.expect(token.DO)
	if p.accept(token.NOTHING) {
		attr |= 0x1
		return p.tree.AddNode(pos, ast.NodeOnConflictClause, attr, 0, children.release()...)
	}
	p.expect(token.UPDATE)
	p.expect(token.SET)
	for {
		assignPos := p.cur().Pos
		name := p.advance()
		col := p.tree.AddLeaf(name.Pos, ast.NodeIdentPart, 0, p.internName(name))
		p.expect(token.EQ)
		val := p.parseExpr()
		children.push(p.tree.AddNode(assignPos, ast.NodeBinaryExpr, uint16(ast.OpEq), 0, col, val))
		if !p.accept(token.COMMA) {
			break
		}
	}
	if p.accept(token.WHERE) {
		attr |= 0x2
		children.push(p.parseExpr())
	}
	return p.tree.AddNode(pos, ast.NodeOnConflictClause, attr, 0, children.release()...)
}

// parseUpdateStmt parses UPDATE table [AS alias] SET col=expr,... [FROM
// fromlist] [WHERE cond] [RETURNING ...].
func (p *Parser) parseUpdateStmt() ast.NodeID {
	pos := p.advance().Pos // UPDATE
	var children scopedPool
	children.push(p.parseTableRef())
	p.expect(token.SET)
	for {
		assignPos := p.cur().Pos
		name := p.advance()
		col := p.tree.AddLeaf(name.Pos, ast.NodeIdentPart, 0, p.internName(name))
		p.expect(token.EQ)
		val := p.parseExpr()
		children.push(p.tree.AddNode(assignPos, ast.NodeBinaryExpr, uint16(ast.OpEq), 0, col, val))
		if !p.accept(token.COMMA) {
			break
		}
	}
	if p.accept(token.FROM) {
		children.push(p.parseFromList())
	}
	if p.accept(token.WHERE) {
		children.push(p.parseExpr())
	}
	if p.accept(token.RETURNING) {
		children.push(p.parseReturningClause())
	}
	return p.tree.AddNode(pos, ast.NodeUpdateStmt, 0, 0, children.release()...)
}

// parseDeleteStmt parses DELETE FROM table [AS alias] [USING fromlist]
// [WHERE cond] [RETURNING ...].
func (p *Parser) parseDeleteStmt() ast.NodeID {
	pos := p.advance().Pos // DELETE
	p.expect(token.FROM)
	var children scopedPool
	children.push(p.parseTableRef())
	if p.accept(token.USING) {
		children.push(p.parseFromList())
	}
	if p.accept(token.WHERE) {
		children.push(p.parseExpr())
	}
	if p.accept(token.RETURNING) {
		children.push(p.parseReturningClause())
	}
	return p.tree.AddNode(pos, ast.NodeDeleteStmt, 0, 0, children.release()...)
}

// parseExplainStmt wraps the statement it introduces; this engine never
// executes a plan, so the only thing worth modeling is "this subtree was
// introduced under EXPLAIN" for the analyzer and completion to skip past.
func (p *Parser) parseExplainStmt() ast.NodeID {
	pos := p.advance().Pos // EXPLAIN
	attr := uint16(0)
	if p.accept(token.ANALYZE) {
		attr = 1
	}
	if p.accept(token.LPAREN) {
		for !p.at(token.RPAREN) && !p.atEOF() {
			p.advance()
		}
		p.expect(token.RPAREN)
	}
	var inner ast.NodeID
	switch {
	case p.atSelectStart():
		inner = p.parseSelectOrSetOp()
	case p.at(token.INSERT):
		inner = p.parseInsertStmt()
	case p.at(token.UPDATE):
		inner = p.parseUpdateStmt()
	case p.at(token.DELETE):
		inner = p.parseDeleteStmt()
	default:
		p.errorUnexpected("a statement")
		return p.tree.AddNode(pos, ast.NodeExplainStmt, attr, 0)
	}
	return p.tree.AddNode(pos, ast.NodeExplainStmt, attr, 0, inner)
}

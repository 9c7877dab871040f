package parser

import (
	"github.com/sqlweave/engine/internal/ast"
	"github.com/sqlweave/engine/internal/token"
)

// parseCreateStmt dispatches the handful of CREATE forms this engine cares
// about for catalog and completion purposes. It does not attempt the full
// breadth of Postgres DDL (CREATE FUNCTION, CREATE TRIGGER, CREATE TYPE,
// ...): enforcing or even fully modeling DDL semantics is out of scope, and
// a script that never creates tables/views/indexes/schemas through SQL
// still gets its catalog populated directly via pgschema introspection.
func (p *Parser) parseCreateStmt() (ast.NodeID, ast.NodeType) {
	pos := p.advance().Pos // CREATE
	if p.accept(token.OR) {
		p.expect(token.REPLACE)
	}
	p.accept(token.TEMP)
	p.accept(token.TEMPORARY)
	materialized := false
	if p.at(token.MATERIALIZED) {
		p.advance()
		materialized = true
	}

	unique := p.accept(token.UNIQUE)
	switch {
	case p.accept(token.TABLE):
		return p.parseCreateTableStmt(pos), ast.NodeCreateTableStmt
	case p.accept(token.VIEW):
		return p.parseCreateViewStmt(pos, materialized), ast.NodeCreateViewStmt
	case p.accept(token.INDEX):
		return p.parseCreateIndexStmt(pos, unique), ast.NodeCreateIndexStmt
	case p.accept(token.SCHEMA):
		return p.parseCreateSchemaStmt(pos), ast.NodeCreateSchemaStmt
	}
	p.errorUnexpected("TABLE, VIEW, INDEX, or SCHEMA")
	return p.tree.AddNode(pos, ast.NodeCreateTableStmt, 0, 0), ast.NodeCreateTableStmt
}

// parseCreateTableStmt parses CREATE TABLE [IF NOT EXISTS] name (
// col type [constraints], ... [, table-level constraint]* ). Constraint
// bodies are skipped token-by-token to their closing paren rather than
// parsed in full, since this engine never validates or enforces them — it
// only needs each column's name and declared type for the catalog.
func (p *Parser) parseCreateTableStmt(pos token.Pos) ast.NodeID {
	p.acceptIfNotExists()
	var children scopedPool
	children.push(p.parseDottedName())
	p.expect(token.LPAREN)
	if !p.at(token.RPAREN) {
		for {
			if p.atAny(token.CONSTRAINT, token.PRIMARY, token.FOREIGN, token.UNIQUE, token.CHECK) {
				children.push(p.parseTableConstraint())
			} else {
				children.push(p.parseColumnDef())
			}
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN)
	return p.tree.AddNode(pos, ast.NodeCreateTableStmt, 0, 0, children.release()...)
}

func (p *Parser) acceptIfNotExists() bool {
	if p.accept(token.IF_KW) {
		p.expect(token.NOT)
		p.expect(token.EXISTS)
		return true
	}
	return false
}

// parseColumnDef parses "name type [constraint-clauses...]", skipping any
// constraint clause bodies it doesn't need to understand in depth.
func (p *Parser) parseColumnDef() ast.NodeID {
	pos := p.cur().Pos
	name := p.advance()
	typeRef := p.parseTypeRef()
	var children scopedPool
	children.push(typeRef)
	for !p.atAny(token.COMMA, token.RPAREN) && !p.atEOF() {
		switch {
		case p.accept(token.PRIMARY):
			p.expect(token.KEY)
		case p.accept(token.UNIQUE), p.accept(token.NOT), p.accept(token.NULL):
		case p.accept(token.DEFAULT):
			p.parseAdditive()
		case p.accept(token.REFERENCES):
			p.parseDottedName()
			if p.accept(token.LPAREN) {
				for !p.at(token.RPAREN) && !p.atEOF() {
					p.advance()
				}
				p.expect(token.RPAREN)
			}
		case p.accept(token.CHECK):
			p.expect(token.LPAREN)
			p.parseExpr()
			p.expect(token.RPAREN)
		case p.accept(token.GENERATED):
			for !p.atAny(token.COMMA, token.RPAREN) && !p.atEOF() {
				p.advance()
			}
		default:
			p.advance()
		}
	}
	return p.tree.AddNode(pos, ast.NodeColumnDef, 0, p.internName(name), children.release()...)
}

// parseTableConstraint skips a table-level constraint clause wholesale,
// recording only its shape (an opaque NodeConstraintDef) since the engine
// never enforces constraints.
func (p *Parser) parseTableConstraint() ast.NodeID {
	pos := p.cur().Pos
	depth := 0
	for !p.atEOF() {
		if p.at(token.LPAREN) {
			depth++
		} else if p.at(token.RPAREN) {
			if depth == 0 {
				break
			}
			depth--
		} else if p.at(token.COMMA) && depth == 0 {
			break
		}
		p.advance()
	}
	return p.tree.AddLeaf(pos, ast.NodeConstraintDef, 0, 0)
}

func (p *Parser) parseCreateViewStmt(pos token.Pos, materialized bool) ast.NodeID {
	attr := uint16(0)
	if materialized {
		attr = 1
	}
	var children scopedPool
	children.push(p.parseDottedName())
	p.expect(token.AS)
	children.push(p.parseSelectOrSetOp())
	return p.tree.AddNode(pos, ast.NodeCreateViewStmt, attr, 0, children.release()...)
}

// parseCreateIndexStmt parses CREATE [UNIQUE] INDEX [name] ON table (col,
// ...); unique records whether UNIQUE was already consumed by the caller.
func (p *Parser) parseCreateIndexStmt(pos token.Pos, unique bool) ast.NodeID {
	p.acceptIfNotExists()
	var children scopedPool
	_ = unique
	if p.at(token.IDENT) {
		name := p.advance()
		children.push(p.tree.AddLeaf(name.Pos, ast.NodeIdentPart, 0, p.internName(name)))
	}
	p.expect(token.ON)
	children.push(p.parseDottedName())
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
	children.push(p.tree.AddNode(pos, ast.NodeTargetList, 0, 0, cols.release()...))
	return p.tree.AddNode(pos, ast.NodeCreateIndexStmt, 0, 0, children.release()...)
}

func (p *Parser) parseCreateSchemaStmt(pos token.Pos) ast.NodeID {
	p.acceptIfNotExists()
	name := p.advance()
	id := p.tree.AddLeaf(name.Pos, ast.NodeIdentPart, 0, p.internName(name))
	return p.tree.AddNode(pos, ast.NodeCreateSchemaStmt, 0, 0, id)
}

// parseDropStmt parses DROP {TABLE|VIEW|INDEX|SCHEMA} [IF EXISTS] name
// [CASCADE|RESTRICT], recording only the target name and kind since
// there's nothing more for the catalog to act on.
func (p *Parser) parseDropStmt() ast.NodeID {
	pos := p.advance().Pos // DROP
	var attr uint16
	switch {
	case p.accept(token.TABLE):
		attr = 0
	case p.accept(token.VIEW):
		attr = 1
	case p.accept(token.INDEX):
		attr = 2
	case p.accept(token.SCHEMA):
		attr = 3
	default:
		p.errorUnexpected("TABLE, VIEW, INDEX, or SCHEMA")
	}
	p.acceptIfNotExists()
	var children scopedPool
	children.push(p.parseDottedName())
	for p.accept(token.COMMA) {
		children.push(p.parseDottedName())
	}
	if !p.accept(token.CASCADE) {
		p.accept(token.RESTRICT)
	}
	return p.tree.AddNode(pos, ast.NodeDropStmt, attr, 0, children.release()...)
}

// parseAlterTableStmt parses ALTER TABLE [IF EXISTS] name <action>, where
// the action body (ADD COLUMN, DROP COLUMN, ALTER COLUMN, RENAME, ...) is
// recorded as an opaque NodeConstraintDef span: this engine tracks that a
// table's shape may have changed, not the exact delta, which is instead
// re-derived by re-running pgschema introspection against the live
// database rather than simulated token-by-token here.
func (p *Parser) parseAlterTableStmt() ast.NodeID {
	pos := p.advance().Pos // ALTER
	p.expect(token.TABLE)
	p.acceptIfNotExists()
	var children scopedPool
	children.push(p.parseDottedName())
	for !p.atAny(token.SEMICOLON, token.EOF) {
		actionPos := p.cur().Pos
		depth := 0
		for !p.atEOF() {
			if p.at(token.LPAREN) {
				depth++
			} else if p.at(token.RPAREN) {
				depth--
			} else if p.at(token.COMMA) && depth <= 0 {
				break
			} else if p.at(token.SEMICOLON) && depth <= 0 {
				break
			}
			p.advance()
		}
		children.push(p.tree.AddLeaf(actionPos, ast.NodeConstraintDef, 0, 0))
		if !p.accept(token.COMMA) {
			break
		}
	}
	return p.tree.AddNode(pos, ast.NodeAlterTableStmt, 0, 0, children.release()...)
}

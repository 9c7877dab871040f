package completion

import (
	"strings"

	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/cursor"
	"github.com/sqlweave/engine/internal/token"
)

// dottedPath detects a cursor sitting inside or immediately after a
// "ident.ident. ..." chain and returns its already-typed qualifier parts
// plus whatever partial text follows the final dot. tableCtx reports
// whether the token preceding the whole chain suggests a table-name
// position (FROM/JOIN/INTO/UPDATE/a list comma in one of those clauses) as
// opposed to a column-name position (SELECT/WHERE/ON/SET/GROUP BY).
func dottedPath(tokens []token.Token, c *cursor.Cursor) (parts []string, prefix string, tableCtx bool, ok bool) {
	if c.TokenIndex < 0 {
		return nil, "", false, false
	}
	idx := c.TokenIndex
	switch {
	case tokens[idx].Kind == token.DOT && c.RelPos != cursor.Before:
		// cursor sits on or past the dot itself; nothing typed after it yet.
	case tokens[idx].Kind == token.IDENT && idx > 0 && tokens[idx-1].Kind == token.DOT &&
		(c.RelPos == cursor.InsideSymbol || c.RelPos == cursor.After):
		if c.RelPos == cursor.InsideSymbol {
			prefix = tokens[idx].Literal[:c.Offset-tokens[idx].Pos.Offset]
		} else {
			prefix = tokens[idx].Literal
		}
		idx--
	default:
		return nil, "", false, false
	}

	// idx is now at a DOT; walk backward over ident.dot.ident.dot... pairs.
	chainStart := idx
	for chainStart >= 0 && tokens[chainStart].Kind == token.DOT {
		if chainStart == 0 || tokens[chainStart-1].Kind != token.IDENT {
			break
		}
		parts = append([]string{tokens[chainStart-1].Literal}, parts...)
		chainStart -= 2
	}
	if len(parts) == 0 {
		return nil, "", false, false
	}
	return parts, prefix, precedingKeywordIsTableLike(tokens, chainStart), true
}

// precedingKeywordIsTableLike mirrors internal/scanner's own cheap
// positional classification (see NameTags), applied to the token
// immediately before an identifier or dotted-name chain rather than to a
// single identifier.
func precedingKeywordIsTableLike(tokens []token.Token, beforeIdx int) bool {
	if beforeIdx < 0 {
		return true
	}
	switch tokens[beforeIdx].Kind {
	case token.FROM, token.JOIN, token.INTO, token.UPDATE, token.COMMA:
		return true
	case token.SELECT, token.WHERE, token.ON, token.SET, token.BY:
		return false
	}
	return true
}

func offerDottedPath(top *topK, cat *catalog.Catalog, parts []string, prefix string, tableCtx bool) {
	if cat == nil {
		return
	}
	switch {
	case len(parts) == 1:
		// "schema." (or "db." treated the same way, since a completion
		// client rarely distinguishes the two for a single bare qualifier):
		// offer tables in any database whose schema matches.
		offerTablesMatching(top, cat, "", parts[0], prefix)
	case len(parts) == 2 && tableCtx:
		// "db.schema.": offer tables of that exact (database, schema) pair.
		offerTablesMatching(top, cat, parts[0], parts[1], prefix)
	case len(parts) == 2:
		// "schema.table." in a column position: offer that table's columns.
		offerColumnsMatching(top, cat, "", parts[0], parts[1], prefix)
	case len(parts) == 3:
		// "db.schema.table.": offer that table's columns.
		offerColumnsMatching(top, cat, parts[0], parts[1], parts[2], prefix)
	}
}

func offerTablesMatching(top *topK, cat *catalog.Catalog, db, schema, prefix string) {
	for _, nt := range cat.AllTables() {
		if db != "" && !strings.EqualFold(nt.Table.Name.Database, db) {
			continue
		}
		if !strings.EqualFold(nt.Table.Name.Schema, schema) {
			continue
		}
		top.Offer(Candidate{
			Name:  nt.Table.Name.Table,
			Kind:  CandidateTable,
			Score: matchModifier(nt.Table.Name.Table, prefix) + DotSchemaScoreModifier,
		})
	}
}

func offerColumnsMatching(top *topK, cat *catalog.Catalog, db, schema, table, prefix string) {
	for _, nt := range cat.AllTables() {
		if db != "" && !strings.EqualFold(nt.Table.Name.Database, db) {
			continue
		}
		if !strings.EqualFold(nt.Table.Name.Schema, schema) || !strings.EqualFold(nt.Table.Name.Table, table) {
			continue
		}
		for _, col := range nt.Table.Columns {
			top.Offer(Candidate{
				Name:  col,
				Kind:  CandidateColumn,
				Score: matchModifier(col, prefix) + DotTableScoreModifier,
			})
		}
	}
}

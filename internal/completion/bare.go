package completion

import (
	"strings"

	"github.com/sqlweave/engine/internal/analyzer"
	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/cursor"
	"github.com/sqlweave/engine/internal/scanner"
	"github.com/sqlweave/engine/internal/token"
)

// partialIdentifierText returns the identifier text already typed up to
// the cursor, or "" if the cursor isn't sitting on/after a plain
// identifier token.
func partialIdentifierText(tokens []token.Token, c *cursor.Cursor) string {
	if c.TokenIndex < 0 {
		return ""
	}
	tok := tokens[c.TokenIndex]
	// A cursor at the very start of a token that directly abuts a preceding
	// identifier ("use|;") sits right after that identifier.
	if c.RelPos == cursor.InsideSymbol && c.Offset == tok.Pos.Offset && c.TokenIndex > 0 {
		prev := tokens[c.TokenIndex-1]
		if prev.Kind == token.IDENT && prev.Pos.Offset+len(prev.Literal) == c.Offset {
			return prev.Literal
		}
	}
	if tok.Kind != token.IDENT {
		return ""
	}
	switch c.RelPos {
	case cursor.InsideSymbol:
		return tok.Literal[:c.Offset-tok.Pos.Offset]
	case cursor.After:
		return tok.Literal
	default:
		return ""
	}
}

// wantsTableName reports whether the token immediately before the cursor's
// (possibly partial) identifier suggests a table-name position.
func wantsTableName(tokens []token.Token, c *cursor.Cursor) bool {
	return precedingKeywordIsTableLike(tokens, precedingTokenIndex(tokens, c))
}

// offerBareIdentifier scores every in-scope name and every catalog
// table/column as a candidate, per §4.7's "candidates come from all
// in-scope names plus catalog tables/columns" bullet. NameTags never gate
// a candidate out, only rank it (see scanner.NameTags's doc comment):
// nothing here is excluded by wantTable, it only shifts the tag-likelihood
// term.
func offerBareIdentifier(top *topK, tokens []token.Token, c *cursor.Cursor, script *analyzer.AnalyzedScript, reg *scanner.NameRegistry, cat *catalog.Catalog, text string) {
	wantTable := wantsTableName(tokens, c)

	unresolvedCols, peerNames := scopeUnresolvedContext(c, script)

	if script != nil && len(c.Scopes) > 0 {
		offerInScopeNames(top, script, reg, c.Scopes[0], text, wantTable, unresolvedCols)
	}
	if cat != nil {
		offerCatalogNames(top, cat, reg, text, wantTable, unresolvedCols, peerNames)
	}
}

// scopeUnresolvedContext collects the column names that are unresolved in
// the cursor's innermost scope (for ResolvingTableScoreModifier: would a
// candidate table resolve one of these), and, if the cursor itself sits on
// an unresolved column reference, the names peering with it across a
// QueryGraphEdge (for UnresolvedPeerScoreModifier).
func scopeUnresolvedContext(c *cursor.Cursor, script *analyzer.AnalyzedScript) (unresolvedCols []string, peerNames []string) {
	if script == nil || len(c.Scopes) == 0 {
		return nil, nil
	}
	scopeIdx := c.Scopes[0]
	for _, ei := range script.ExpressionsInScope(scopeIdx) {
		if !script.Expressions[ei].Resolved {
			unresolvedCols = append(unresolvedCols, script.Expressions[ei].ColumnName)
		}
	}

	if c.Context.Kind != cursor.ContextColumnRef {
		return unresolvedCols, nil
	}
	exprIdx := c.Context.ExprIndex
	if script.Expressions[exprIdx].Resolved {
		return unresolvedCols, nil
	}
	for _, edge := range script.GraphEdges {
		switch exprIdx {
		case edge.Left:
			peerNames = append(peerNames, script.Expressions[edge.Right].ColumnName)
		case edge.Right:
			peerNames = append(peerNames, script.Expressions[edge.Left].ColumnName)
		}
	}
	return unresolvedCols, peerNames
}

func offerInScopeNames(top *topK, script *analyzer.AnalyzedScript, reg *scanner.NameRegistry, scopeIdx int, text string, wantTable bool, unresolvedCols []string) {
	scope := script.NameScopes[scopeIdx]
	for _, ti := range scope.Tables {
		offerTableAndColumns(top, reg, script.Tables[ti].Name.Table, scopeTableColumns(script, ti), text, wantTable, unresolvedCols)
	}
	for _, ri := range script.TableRefsInScope(scopeIdx) {
		ref := script.TableReferences[ri]
		if !ref.Resolved {
			continue
		}
		name := ref.Alias
		if name == "" {
			name = ref.Name.Table
		}
		offerTableAndColumns(top, reg, name, resolvedRefColumns(script, ref), text, wantTable, unresolvedCols)
	}
}

func scopeTableColumns(script *analyzer.AnalyzedScript, tableIdx int) []string {
	t := script.Tables[tableIdx]
	cols := make([]string, t.ColumnCount)
	for i := 0; i < t.ColumnCount; i++ {
		cols[i] = script.TableColumns[t.ColumnsBegin+i].ColumnName
	}
	return cols
}

func resolvedRefColumns(script *analyzer.AnalyzedScript, ref analyzer.TableReference) []string {
	if ref.Object.Entry() == script.EntryID {
		return scopeTableColumns(script, int(ref.Object.Index()))
	}
	return nil
}

func offerTableAndColumns(top *topK, reg *scanner.NameRegistry, tableName string, columns []string, text string, wantTable bool, unresolvedCols []string) {
	tableScore := matchModifier(tableName, text) + tagLikelihood(tagsOf(reg, tableName), wantTable)
	if resolvesAny(columns, unresolvedCols) {
		tableScore += ResolvingTableScoreModifier
	}
	top.Offer(Candidate{Name: tableName, Kind: CandidateTable, Score: tableScore})

	for _, col := range columns {
		top.Offer(Candidate{
			Name:  col,
			Kind:  CandidateColumn,
			Score: matchModifier(col, text) + tagLikelihood(tagsOf(reg, col), wantTable),
		})
	}
}

func resolvesAny(columns, unresolvedCols []string) bool {
	for _, want := range unresolvedCols {
		for _, have := range columns {
			if strings.EqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

func offerCatalogNames(top *topK, cat *catalog.Catalog, reg *scanner.NameRegistry, text string, wantTable bool, unresolvedCols, peerNames []string) {
	for _, nt := range cat.AllTables() {
		tableScore := matchModifier(nt.Table.Name.Table, text) + tagLikelihood(tagsOf(reg, nt.Table.Name.Table), wantTable)
		if resolvesAny(nt.Table.Columns, unresolvedCols) {
			tableScore += ResolvingTableScoreModifier
		}
		top.Offer(Candidate{Name: nt.Table.Name.Table, Kind: CandidateTable, Score: tableScore})

		for _, col := range nt.Table.Columns {
			colScore := matchModifier(col, text) + tagLikelihood(tagsOf(reg, col), wantTable)
			if containsFold(peerNames, col) {
				colScore += UnresolvedPeerScoreModifier
			}
			top.Offer(Candidate{Name: col, Kind: CandidateColumn, Score: colScore})
		}
	}
}

func containsFold(names []string, name string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// tagsOf looks up name's accumulated NameTags if the registry has ever
// interned it, or TagNone otherwise (a catalog-only name the current
// script never mentioned starts with no lexical history).
func tagsOf(reg *scanner.NameRegistry, name string) scanner.NameTags {
	if reg == nil {
		return scanner.TagNone
	}
	if id, ok := reg.Lookup(name); ok {
		return reg.Tags(id)
	}
	return scanner.TagNone
}

// Package completion ranks candidate names at a cursor position (§4.7 of
// the spec): a dotted name path, a bare identifier scored against in-scope
// names and the catalog, or the keywords the grammar accepts there. Results
// are gathered into a bounded min-heap (TopK) and drained into a
// score-descending, name-ascending list.
package completion

import (
	"strings"

	"github.com/sqlweave/engine/internal/analyzer"
	"github.com/sqlweave/engine/internal/ast"
	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/cursor"
	"github.com/sqlweave/engine/internal/scanner"
	"github.com/sqlweave/engine/internal/token"
)

// ScoreValueType is a candidate's accumulated ranking score.
type ScoreValueType uint32

const (
	TagLikely   ScoreValueType = 20
	TagUnlikely ScoreValueType = 10
	TagIgnore   ScoreValueType = 0

	KeywordVeryPopular ScoreValueType = 3
	KeywordPopular     ScoreValueType = 2
	KeywordDefault     ScoreValueType = 0

	SubstringScoreModifier ScoreValueType = 15
	PrefixScoreModifier    ScoreValueType = 20

	ResolvingTableScoreModifier ScoreValueType = 2
	UnresolvedPeerScoreModifier ScoreValueType = 2
	DotSchemaScoreModifier      ScoreValueType = 2
	DotTableScoreModifier       ScoreValueType = 2
)

func init() {
	if PrefixScoreModifier <= SubstringScoreModifier {
		panic("completion: PrefixScoreModifier must exceed SubstringScoreModifier")
	}
	if TagUnlikely+SubstringScoreModifier <= TagLikely {
		panic("completion: TagUnlikely+SubstringScoreModifier must exceed TagLikely")
	}
	if TagUnlikely+KeywordVeryPopular >= TagLikely {
		panic("completion: TagUnlikely+KeywordVeryPopular must stay below TagLikely")
	}
}

// CandidateKind distinguishes a named candidate (a table, column, or alias
// the consumer can insert) from a grammar keyword match (injected as-is,
// not deduplicated against named candidates: topK keeps every offer as-is).
type CandidateKind int

const (
	CandidateTable CandidateKind = iota
	CandidateColumn
	CandidateAlias
	CandidateKeyword
)

// Candidate is one ranked suggestion.
type Candidate struct {
	Name  string
	Kind  CandidateKind
	Score ScoreValueType
}

// Complete ranks up to k candidates for cursor c, dispatching to one of
// three strategies: a dotted name path (c sits inside or right after a
// qualifier chain's dot), otherwise a bare identifier scored against
// in-scope names and the catalog plus whatever keywords the grammar
// accepts at this position. script and cat may be nil (an unanalyzed or
// uncataloged script still gets keyword and lexical-only suggestions).
func Complete(c *cursor.Cursor, tree *ast.Tree, tokens []token.Token, script *analyzer.AnalyzedScript, reg *scanner.NameRegistry, cat *catalog.Catalog, k int) []Candidate {
	top := newTopK(k)

	if parts, prefix, tableCtx, ok := dottedPath(tokens, c); ok {
		offerDottedPath(top, cat, parts, prefix, tableCtx)
		return top.finish()
	}

	text := partialIdentifierText(tokens, c)
	offerBareIdentifier(top, tokens, c, script, reg, cat, text)
	offerExpectedKeywords(top, tokens, c, text)
	return top.finish()
}

// matchModifier scores name against the partially typed text: a prefix
// match outranks a substring match (required relation: PREFIX > SUBSTRING),
// and an empty text is a trivial prefix of everything (edge case: cursor
// right after a bare dot with nothing typed yet still ranks every table in
// scope via PrefixScoreModifier).
func matchModifier(name, text string) ScoreValueType {
	if text == "" {
		return PrefixScoreModifier
	}
	lname, ltext := strings.ToLower(name), strings.ToLower(text)
	switch {
	case strings.HasPrefix(lname, ltext):
		return PrefixScoreModifier
	case strings.Contains(lname, ltext):
		return SubstringScoreModifier
	default:
		return 0
	}
}

// tagLikelihood reads the lexical+semantic NameTags the scanner and
// analyzer accumulated for a name and scores how likely it is to fit a
// position that wants a table name (wantTable) or a column name.
func tagLikelihood(tags scanner.NameTags, wantTable bool) ScoreValueType {
	tableish := tags.Has(scanner.TagTableName) || tags.Has(scanner.TagTableLike)
	columnish := tags.Has(scanner.TagColumnName) || tags.Has(scanner.TagColumnLike)
	if wantTable {
		switch {
		case tableish:
			return TagLikely
		case columnish:
			return TagUnlikely
		default:
			return TagIgnore
		}
	}
	switch {
	case columnish:
		return TagLikely
	case tableish:
		return TagUnlikely
	default:
		return TagIgnore
	}
}

var keywordPopularity = map[token.Kind]ScoreValueType{
	token.SELECT: KeywordVeryPopular,
	token.FROM:   KeywordVeryPopular,
	token.WHERE:  KeywordVeryPopular,
	token.INSERT: KeywordPopular,
	token.UPDATE: KeywordPopular,
	token.DELETE: KeywordPopular,
	token.VALUES: KeywordPopular,
	token.JOIN:   KeywordPopular,
	token.ON:     KeywordPopular,
	token.GROUP:  KeywordPopular,
	token.ORDER:  KeywordPopular,
	token.AND:    KeywordPopular,
}

func popularityOf(k token.Kind) ScoreValueType {
	if s, ok := keywordPopularity[k]; ok {
		return s
	}
	return KeywordDefault
}

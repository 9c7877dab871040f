package completion

import (
	"github.com/sqlweave/engine/internal/cursor"
	"github.com/sqlweave/engine/internal/token"
)

// nextKeywords is a simplified stand-in for a true grammar FIRST-set query:
// internal/parser doesn't expose "what tokens are accepted at this parser
// state", so this offers the keywords that most often follow a given
// preceding keyword in this grammar, grouped by clause. This is a deliberate
// Open Question decision (see DESIGN.md) rather than a grammar-derived set.
var nextKeywords = map[token.Kind][]token.Kind{
	token.ILLEGAL: {token.SELECT, token.INSERT, token.UPDATE, token.DELETE, token.WITH, token.CREATE},

	token.SELECT: {token.DISTINCT, token.ALL},
	token.FROM:   {},
	token.WHERE:  {},
	token.JOIN:   {},
	token.ON:     {},
	token.GROUP:  {token.BY},
	token.ORDER:  {token.BY},
	token.BY:     {},

	token.UPDATE: {token.SET},
	token.SET:    {},
	token.INSERT: {token.INTO},
	token.INTO:   {token.VALUES},
	token.VALUES: {},
	token.DELETE: {token.FROM},

	token.CREATE: {token.TABLE, token.VIEW, token.INDEX, token.SCHEMA},
	token.TABLE:  {token.IF_KW},

	token.IDENT: {
		token.FROM, token.WHERE, token.JOIN, token.ON, token.GROUP, token.ORDER,
		token.LIMIT, token.OFFSET, token.HAVING, token.AND, token.OR, token.AS,
	},
}

// offerExpectedKeywords injects grammar-keyword candidates scored by
// popularity and by how well the keyword's own text matches whatever's
// already typed, keyed off the token immediately preceding the cursor.
func offerExpectedKeywords(top *topK, tokens []token.Token, c *cursor.Cursor, text string) {
	prevKind := token.ILLEGAL
	if idx := precedingTokenIndex(tokens, c); idx >= 0 {
		prevKind = tokens[idx].Kind
	}

	kinds, ok := nextKeywords[prevKind]
	if !ok {
		return
	}
	for _, k := range kinds {
		top.Offer(Candidate{
			Name:  k.String(),
			Kind:  CandidateKeyword,
			Score: popularityOf(k) + matchModifier(k.String(), text),
		})
	}
}

// precedingTokenIndex returns the index of the token that should classify
// what comes next at the cursor: the token before a still-being-typed
// identifier (InsideSymbol), the identifier itself once it's fully typed
// (After), the token before EOF (AtEOF, since the EOF token carries no
// useful clause context of its own), or -1 at the start of input.
func precedingTokenIndex(tokens []token.Token, c *cursor.Cursor) int {
	switch c.RelPos {
	case cursor.Before:
		return -1
	case cursor.AtEOF:
		return c.PrevTokenIndex
	case cursor.InsideSymbol:
		return c.TokenIndex - 1
	default: // After
		return c.TokenIndex
	}
}

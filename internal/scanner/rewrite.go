package scanner

import "github.com/sqlweave/engine/internal/token"

// Rewrite folds specific two-token keyword sequences into single fused
// token kinds so the parser never needs more than one token of lookahead,
// returning the (shorter, or equal-length) rewritten stream.
//
// Fusions, applied left to right over the token stream:
//
//	NOT + {BETWEEN, IN, LIKE, ILIKE, SIMILAR} -> NOT_LA
//	NULLS + {FIRST, LAST}                      -> NULLS_LA
//	WITH + {TIME, ORDINALITY}                  -> WITH_LA
func Rewrite(toks []token.Token) []token.Token {
	out := toks[:0:0] // independent backing array; toks may still be referenced elsewhere
	for read := 0; read < len(toks); read++ {
		cur := toks[read]
		if read+1 < len(toks) && fuses(cur.Kind, toks[read+1].Kind) {
			cur.Kind = fusedKind(cur.Kind)
			cur.Literal = cur.Literal + " " + toks[read+1].Literal
			out = append(out, cur)
			read++ // consume the second token too
			continue
		}
		out = append(out, cur)
	}
	return out
}

func fuses(a, b token.Kind) bool {
	switch a {
	case token.NOT:
		switch b {
		case token.BETWEEN, token.IN, token.LIKE, token.ILIKE, token.SIMILAR:
			return true
		}
	case token.NULLS:
		switch b {
		case token.FIRST, token.LAST:
			return true
		}
	case token.WITH:
		switch b {
		case token.TIME, token.ORDINALITY:
			return true
		}
	}
	return false
}

func fusedKind(a token.Kind) token.Kind {
	switch a {
	case token.NOT:
		return token.NOT_LA
	case token.NULLS:
		return token.NULLS_LA
	case token.WITH:
		return token.WITH_LA
	}
	return a
}

package scanner

import (
	"testing"

	"github.com/sqlweave/engine/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestScanBasicSelect(t *testing.T) {
	res := Scan("SELECT a, b FROM t WHERE a = 1;")
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	want := []token.Kind{
		token.SELECT, token.IDENT, token.COMMA, token.IDENT, token.FROM, token.IDENT,
		token.WHERE, token.IDENT, token.EQ, token.INT, token.SEMICOLON, token.EOF,
	}
	got := kinds(res.Tokens)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNotLikeLookaheadFusion(t *testing.T) {
	res := Scan("SELECT 1 WHERE a NOT LIKE 'x' AND b NOT IN (1)")
	var found bool
	for _, tok := range res.Tokens {
		if tok.Kind == token.NOT_LA {
			if !found && tok.Literal != "NOT LIKE" {
				t.Fatalf("unexpected literal for first NOT_LA: %q", tok.Literal)
			}
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a NOT_LA token, got kinds %v", kinds(res.Tokens))
	}
	count := 0
	for _, tok := range res.Tokens {
		if tok.Kind == token.NOT_LA {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 NOT_LA fusions (LIKE, IN), got %d", count)
	}
}

func TestNullsLookaheadFusion(t *testing.T) {
	res := Scan("SELECT a FROM t ORDER BY a NULLS FIRST, b NULLS LAST")
	var lits []string
	for _, tok := range res.Tokens {
		if tok.Kind == token.NULLS_LA {
			lits = append(lits, tok.Literal)
		}
	}
	if len(lits) != 2 || lits[0] != "NULLS FIRST" || lits[1] != "NULLS LAST" {
		t.Fatalf("unexpected NULLS_LA fusions: %v", lits)
	}
}

func TestWithOrdinalityLookaheadFusion(t *testing.T) {
	res := Scan("SELECT * FROM unnest(a) WITH ORDINALITY")
	found := false
	for _, tok := range res.Tokens {
		if tok.Kind == token.WITH_LA {
			found = true
			if tok.Literal != "WITH ORDINALITY" {
				t.Fatalf("unexpected literal: %q", tok.Literal)
			}
		}
	}
	if !found {
		t.Fatalf("expected WITH_LA fusion in %v", kinds(res.Tokens))
	}
}

func TestBareNotIsNotFused(t *testing.T) {
	res := Scan("SELECT NOT a")
	for _, tok := range res.Tokens {
		if tok.Kind == token.NOT_LA {
			t.Fatalf("bare NOT should not fuse: %v", kinds(res.Tokens))
		}
	}
}

func TestStringLiteralEscapes(t *testing.T) {
	res := Scan(`SELECT 'it''s a test'`)
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	found := false
	for _, tok := range res.Tokens {
		if tok.Kind == token.STRING {
			found = true
			if tok.Literal != "it's a test" {
				t.Fatalf("got literal %q", tok.Literal)
			}
		}
	}
	if !found {
		t.Fatalf("no STRING token produced")
	}
}

func TestDollarQuotedString(t *testing.T) {
	res := Scan("SELECT $tag$hello $$ world$tag$")
	if len(res.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	found := false
	for _, tok := range res.Tokens {
		if tok.Kind == token.DOLLARTEXT {
			found = true
			if tok.Literal != "hello $$ world" {
				t.Fatalf("got literal %q", tok.Literal)
			}
		}
	}
	if !found {
		t.Fatalf("no DOLLARTEXT token produced")
	}
}

func TestPositionalParam(t *testing.T) {
	res := Scan("SELECT a FROM t WHERE id = $1")
	found := false
	for _, tok := range res.Tokens {
		if tok.Kind == token.PARAM && tok.Literal == "$1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected $1 PARAM token, got %v", kinds(res.Tokens))
	}
}

func TestUnterminatedStringRecordsError(t *testing.T) {
	res := Scan("SELECT 'oops")
	if len(res.Errors) == 0 {
		t.Fatalf("expected a lexical error for unterminated string")
	}
}

func TestNameRegistryTagsTableAndColumn(t *testing.T) {
	res := Scan("SELECT a FROM users WHERE a = 1")
	colID, ok := res.Registry.Lookup("a")
	if !ok {
		t.Fatalf("expected 'a' to be interned")
	}
	if !res.Registry.Tags(colID).Has(TagColumnLike) {
		t.Fatalf("expected 'a' to be tagged column-like")
	}
	tableID, ok := res.Registry.Lookup("users")
	if !ok {
		t.Fatalf("expected 'users' to be interned")
	}
	if !res.Registry.Tags(tableID).Has(TagTableLike) {
		t.Fatalf("expected 'users' to be tagged table-like")
	}
}

func TestNameRegistryTagsQualifiedAndFunctionLike(t *testing.T) {
	res := Scan("SELECT t.col FROM t WHERE count(t.col) > 0")
	colID, _ := res.Registry.Lookup("col")
	if !res.Registry.Tags(colID).Has(TagQualified) {
		t.Fatalf("expected 'col' to be tagged qualified")
	}
	fnID, _ := res.Registry.Lookup("count")
	if !res.Registry.Tags(fnID).Has(TagFunctionLike) {
		t.Fatalf("expected 'count' to be tagged function-like")
	}
}

package lineage

import (
	"strings"
	"testing"
)

func normalizeSQL(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestRewriteSelectInjectPKsSingleTable(t *testing.T) {
	cat := NewStaticCatalog(
		map[string][]string{"public.actor": {"id", "name"}},
		map[string][]string{"public.actor": {"id"}},
	)

	gotSQL, gotAdds, err := RewriteSelectInjectPKs("SELECT name FROM actor", cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantAdds := map[string][]string{"actor": {"_pk_actor_id"}}
	if !equalProv(gotAdds, wantAdds) {
		t.Fatalf("adds mismatch\nexpected: %#v\ngot: %#v", wantAdds, gotAdds)
	}
	if !strings.Contains(normalizeSQL(gotSQL), "_pk_actor_id") {
		t.Fatalf("expected rewritten SQL to project _pk_actor_id, got: %s", gotSQL)
	}
}

func TestRewriteSelectInjectPKsAliasedTable(t *testing.T) {
	cat := NewStaticCatalog(
		map[string][]string{"public.actor": {"id", "name"}},
		map[string][]string{"public.actor": {"id"}},
	)

	_, gotAdds, err := RewriteSelectInjectPKs("SELECT a.name FROM actor a", cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantAdds := map[string][]string{"a": {"_pk_a_id"}}
	if !equalProv(gotAdds, wantAdds) {
		t.Fatalf("adds mismatch\nexpected: %#v\ngot: %#v", wantAdds, gotAdds)
	}
}

func TestRewriteSelectInjectPKsJoin(t *testing.T) {
	cat := NewStaticCatalog(
		map[string][]string{
			"public.actor": {"id", "name"},
			"public.film":  {"id", "title", "actor_id"},
		},
		map[string][]string{
			"public.actor": {"id"},
			"public.film":  {"id"},
		},
	)

	_, gotAdds, err := RewriteSelectInjectPKs(
		"SELECT a.name, f.title FROM actor a JOIN film f ON f.actor_id = a.id", cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantAdds := map[string][]string{
		"a": {"_pk_a_id"},
		"f": {"_pk_f_id"},
	}
	if !equalProv(gotAdds, wantAdds) {
		t.Fatalf("adds mismatch\nexpected: %#v\ngot: %#v", wantAdds, gotAdds)
	}
}

func TestRewriteSelectInjectPKsNoFromClause(t *testing.T) {
	cat := NewStaticCatalog(nil, nil)

	gotSQL, gotAdds, err := RewriteSelectInjectPKs("SELECT 1", cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotAdds) != 0 {
		t.Fatalf("expected no injected aliases, got %#v", gotAdds)
	}
	if normalizeSQL(gotSQL) != normalizeSQL("SELECT 1") {
		t.Fatalf("expected SQL to be unchanged, got: %s", gotSQL)
	}
}

func TestRewriteSelectInjectPKsSkipsTableWithoutKnownPK(t *testing.T) {
	cat := NewStaticCatalog(
		map[string][]string{"public.unkeyed": {"name"}},
		nil, // no PK registered for unkeyed
	)

	gotSQL, gotAdds, err := RewriteSelectInjectPKs("SELECT name FROM unkeyed", cat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotAdds) != 0 {
		t.Fatalf("expected no injected aliases when no PK is known, got %#v", gotAdds)
	}
	if strings.Contains(gotSQL, "_pk_") {
		t.Fatalf("did not expect any _pk_ projection, got: %s", gotSQL)
	}
}

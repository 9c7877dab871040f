package lineage

import (
	"reflect"
	"sort"
	"testing"
)

var testCatalog = NewStaticCatalog(map[string][]string{
	"actor":        {"id", "name", "first_name", "last_name"},
	"public.actor": {"id", "name", "first_name", "last_name"},
	"film":         {"id", "title", "revenue", "actor_id"},
	"public.film":  {"id", "title", "revenue", "actor_id"},
}, nil)

func sortMapValues(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		cp := append([]string(nil), v...)
		sort.Strings(cp)
		out[k] = cp
	}
	return out
}

func equalProv(a, b map[string][]string) bool {
	a = sortMapValues(a)
	b = sortMapValues(b)
	return reflect.DeepEqual(a, b)
}

func TestResolveProvenanceCases(t *testing.T) {
	cases := []struct {
		id       string
		query    string
		expected map[string][]string
		wantErr  bool
	}{
		{
			id:       "simple select",
			query:    "SELECT id, name FROM actor",
			expected: map[string][]string{"id": {"actor.id"}, "name": {"actor.name"}},
		},
		{
			id:    "aliased table",
			query: "SELECT a.name FROM actor a",
			expected: map[string][]string{
				"name": {"actor.name"},
			},
		},
		{
			id:    "join with qualified columns",
			query: "SELECT a.name, f.title FROM actor a JOIN film f ON f.actor_id = a.id",
			expected: map[string][]string{
				"name":  {"actor.name"},
				"title": {"film.title"},
			},
		},
		{
			id:    "aggregate expression",
			query: "SELECT SUM(f.revenue) FROM film f",
			expected: map[string][]string{
				"SUM(f.revenue)": {"film.revenue"},
			},
		},
		{
			id:    "concat expression with alias",
			query: "SELECT a.first_name || a.last_name AS full_name FROM actor a",
			expected: map[string][]string{
				"full_name": {"actor.first_name", "actor.last_name"},
			},
		},
		{
			id:    "star on single table",
			query: "SELECT * FROM actor",
			expected: map[string][]string{
				"*": {"actor.*"},
			},
		},
		{
			id:    "unqualified column single table",
			query: "SELECT name FROM actor",
			expected: map[string][]string{
				"name": {"actor.name"},
			},
		},
		{
			id:      "only select is supported",
			query:   "UPDATE actor SET name = 'x'",
			wantErr: true,
		},
	}

	for _, c := range cases {
		t.Run(c.id, func(t *testing.T) {
			got, err := ResolveProvenance(c.query, testCatalog)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !equalProv(got, c.expected) {
				t.Fatalf("provenance mismatch\nexpected: %#v\ngot:      %#v",
					sortMapValues(c.expected), sortMapValues(got))
			}
		})
	}
}

func TestResolveProvenanceAmbiguousColumnErrors(t *testing.T) {
	cat := NewStaticCatalog(map[string][]string{
		"a": {"id"},
		"b": {"id"},
	}, nil)
	_, err := ResolveProvenance("SELECT id FROM a, b", cat)
	if err == nil {
		t.Fatalf("expected ambiguous column error, got none")
	}
}

func TestResolveProvenanceCTE(t *testing.T) {
	got, err := ResolveProvenance(
		"WITH recent AS (SELECT id, name FROM actor) SELECT name FROM recent",
		testCatalog,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string][]string{"name": {"actor.name"}}
	if !equalProv(got, want) {
		t.Fatalf("provenance mismatch\nexpected: %#v\ngot:      %#v", want, got)
	}
}

package pgschema

import (
	"reflect"
	"testing"
)

func TestSchemaFilterEmpty(t *testing.T) {
	clause, args := schemaFilter("table_schema", 0, nil)
	if clause != "" || args != nil {
		t.Fatalf("expected no clause/args for an empty schema list, got %q %v", clause, args)
	}
}

func TestSchemaFilterBindsParameters(t *testing.T) {
	clause, args := schemaFilter("table_schema", 0, []string{"public", "app"})
	want := " AND table_schema IN ($1, $2)"
	if clause != want {
		t.Fatalf("clause = %q, want %q", clause, want)
	}
	if !reflect.DeepEqual(args, []any{"public", "app"}) {
		t.Fatalf("args = %v", args)
	}
	// The schema names themselves must never appear in the generated SQL
	// text: they're bound as parameters, not interpolated.
	for _, s := range []string{"public", "app"} {
		if containsSubstring(clause, s) {
			t.Fatalf("clause %q leaks schema name %q into the query text", clause, s)
		}
	}
}

func TestSchemaFilterOffsetsPlaceholders(t *testing.T) {
	clause, _ := schemaFilter("kcu.table_schema", 2, []string{"public"})
	want := " AND kcu.table_schema IN ($3)"
	if clause != want {
		t.Fatalf("clause = %q, want %q", clause, want)
	}
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestBuildDescriptorsGroupsBySchemaPreservingOrder(t *testing.T) {
	order := []qualifiedTable{
		{schema: "public", table: "users"},
		{schema: "public", table: "orders"},
		{schema: "app", table: "widgets"},
	}
	columns := map[qualifiedTable][]string{
		{"public", "users"}:  {"id", "email"},
		{"public", "orders"}: {"id", "user_id"},
		{"app", "widgets"}:   {"id"},
	}

	got := buildDescriptors("mydb", order, columns)
	if len(got) != 2 {
		t.Fatalf("expected 2 schema descriptors, got %d", len(got))
	}
	if got[0].SchemaName != "public" || got[1].SchemaName != "app" {
		t.Fatalf("expected schema discovery order public, app; got %q, %q", got[0].SchemaName, got[1].SchemaName)
	}
	if len(got[0].Tables) != 2 || got[0].Tables[0].TableName != "users" || got[0].Tables[1].TableName != "orders" {
		t.Fatalf("expected public's tables in discovery order, got %+v", got[0].Tables)
	}
	if got[0].DatabaseName != "mydb" || got[1].DatabaseName != "mydb" {
		t.Fatalf("expected every descriptor to carry the database name, got %+v", got)
	}
	wantCols := []string{"id", "email"}
	for i, c := range got[0].Tables[0].Columns {
		if c.ColumnName != wantCols[i] {
			t.Fatalf("users.Columns[%d] = %q, want %q", i, c.ColumnName, wantCols[i])
		}
	}
}

func TestChecksumStableAcrossKeyIterationOrder(t *testing.T) {
	base := buildDescriptors("mydb",
		[]qualifiedTable{{"public", "users"}, {"public", "orders"}},
		map[qualifiedTable][]string{
			{"public", "users"}:  {"id", "email"},
			{"public", "orders"}: {"id", "user_id"},
		},
	)
	a := Snapshot{Descriptors: base, Keys: map[string][]string{"public.users": {"id"}, "public.orders": {"id"}}}
	b := Snapshot{Descriptors: base, Keys: map[string][]string{"public.orders": {"id"}, "public.users": {"id"}}}
	if a.Checksum() != b.Checksum() {
		t.Fatalf("expected identical snapshots to hash the same regardless of map order: %q != %q", a.Checksum(), b.Checksum())
	}
}

func TestChecksumChangesWithSchema(t *testing.T) {
	a := Snapshot{Descriptors: buildDescriptors("mydb",
		[]qualifiedTable{{"public", "users"}},
		map[qualifiedTable][]string{{"public", "users"}: {"id"}},
	)}
	b := Snapshot{Descriptors: buildDescriptors("mydb",
		[]qualifiedTable{{"public", "users"}},
		map[qualifiedTable][]string{{"public", "users"}: {"id", "email"}},
	)}
	if a.Checksum() == b.Checksum() {
		t.Fatalf("expected adding a column to change the checksum")
	}
}

func TestSnapshotTableNamesSortsAcrossSchemas(t *testing.T) {
	snap := Snapshot{Descriptors: buildDescriptors("mydb",
		[]qualifiedTable{{"app", "widgets"}, {"public", "users"}},
		map[qualifiedTable][]string{
			{"app", "widgets"}: {"id"},
			{"public", "users"}: {"id"},
		},
	)}
	got := snap.TableNames()
	want := []string{"app.widgets", "public.users"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TableNames() = %v, want %v", got, want)
	}
}

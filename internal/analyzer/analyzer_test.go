package analyzer_test

import (
	"testing"

	"github.com/sqlweave/engine/internal/analyzer"
	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/handle"
	"github.com/sqlweave/engine/internal/parser"
	"github.com/sqlweave/engine/internal/scanner"
	"github.com/sqlweave/engine/internal/status"
)

func analyze(t *testing.T, cat *catalog.Catalog, entry handle.EntryID, src string) *analyzer.AnalyzedScript {
	t.Helper()
	res := scanner.Scan(src)
	if len(res.Errors) != 0 {
		t.Fatalf("scan errors: %v", res.Errors)
	}
	tree, perrs := parser.Parse(res.Tokens, res.Registry)
	if len(perrs) != 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	return analyzer.Analyze(tree, res.Registry, entry, cat)
}

func TestAnalyzeResolvesDeclaredTable(t *testing.T) {
	cat := catalog.New()
	script := analyze(t, cat, 1, `
		CREATE TABLE users (id int, name text);
		SELECT id, name FROM users;
	`)

	if len(script.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", script.Errors)
	}
	if len(script.Tables) != 1 || script.Tables[0].Name.Table != "users" {
		t.Fatalf("expected one declared table 'users', got %+v", script.Tables)
	}
	if len(script.TableReferences) != 1 || !script.TableReferences[0].Resolved {
		t.Fatalf("expected one resolved table reference, got %+v", script.TableReferences)
	}
	for _, expr := range script.Expressions {
		if !expr.Resolved {
			t.Errorf("expected %q to resolve, got unresolved", expr.ColumnName)
		}
	}
}

func TestAnalyzeUnresolvedTableAndColumn(t *testing.T) {
	cat := catalog.New()
	script := analyze(t, cat, 1, `SELECT missing_col FROM missing_table;`)

	if len(script.TableReferences) != 1 || script.TableReferences[0].Resolved {
		t.Fatalf("expected the table reference to stay unresolved, got %+v", script.TableReferences)
	}
	foundUnresolvedTable := false
	foundUnresolvedColumn := false
	for _, e := range script.Errors {
		switch e.Code {
		case status.UnresolvedTable:
			foundUnresolvedTable = true
		case status.UnresolvedColumn:
			foundUnresolvedColumn = true
		}
	}
	if !foundUnresolvedTable {
		t.Errorf("expected an unresolved-table diagnostic, got %v", script.Errors)
	}
	if !foundUnresolvedColumn {
		t.Errorf("expected an unresolved-column diagnostic, got %v", script.Errors)
	}
}

func TestAnalyzeAmbiguousColumn(t *testing.T) {
	cat := catalog.New()
	script := analyze(t, cat, 1, `
		CREATE TABLE a (id int, val int);
		CREATE TABLE b (id int, other int);
		SELECT id FROM a JOIN b ON a.id = b.id;
	`)

	var sawAmbiguous bool
	for _, e := range script.Errors {
		if e.Code == status.AmbiguousColumn {
			sawAmbiguous = true
		}
	}
	if !sawAmbiguous {
		t.Fatalf("expected an ambiguous-column diagnostic, got %v", script.Errors)
	}
}

func TestAnalyzeJoinOnProducesQueryGraphEdge(t *testing.T) {
	cat := catalog.New()
	script := analyze(t, cat, 1, `
		CREATE TABLE a (id int);
		CREATE TABLE b (a_id int);
		SELECT a.id FROM a JOIN b ON a.id = b.a_id;
	`)

	if len(script.GraphEdges) != 1 {
		t.Fatalf("expected exactly one query graph edge, got %d: %+v", len(script.GraphEdges), script.GraphEdges)
	}
}

func TestAnalyzeCTEIsVisibleToMainQuery(t *testing.T) {
	cat := catalog.New()
	script := analyze(t, cat, 1, `
		WITH recent AS (SELECT id, created_at FROM events)
		SELECT id FROM recent;
	`)

	var foundDerived bool
	for _, tbl := range script.Tables {
		if tbl.Derived && tbl.Name.Table == "recent" {
			foundDerived = true
		}
	}
	if !foundDerived {
		t.Fatalf("expected a derived table named 'recent', got %+v", script.Tables)
	}
	for _, ref := range script.TableReferences {
		if ref.Name.Table == "recent" && !ref.Resolved {
			t.Errorf("expected the CTE reference to resolve, got %+v", ref)
		}
	}
}

func TestAnalyzeFromSubqueryDerivesColumns(t *testing.T) {
	cat := catalog.New()
	script := analyze(t, cat, 1, `
		SELECT t.total FROM (SELECT count(*) AS total FROM orders) AS t;
	`)

	var derived *analyzer.TableDeclaration
	for i := range script.Tables {
		if script.Tables[i].Derived {
			derived = &script.Tables[i]
		}
	}
	if derived == nil {
		t.Fatalf("expected a derived table for the FROM subquery, got %+v", script.Tables)
	}
	for _, expr := range script.Expressions {
		if expr.ColumnName == "total" && !expr.Resolved {
			t.Errorf("expected t.total to resolve against the derived table, got %+v", expr)
		}
	}
}

func TestAnalyzeResolvesAcrossCatalog(t *testing.T) {
	cat := catalog.New()
	if err := cat.AddDescriptorPool(100, 0); err != nil {
		t.Fatalf("AddDescriptorPool: %v", err)
	}
	err := cat.AddSchemaDescriptor(100, catalog.SchemaDescriptor{
		DatabaseName: "", SchemaName: "",
		Tables: []catalog.SchemaTable{
			{TableName: "customers", Columns: []catalog.SchemaTableColumn{{ColumnName: "id"}, {ColumnName: "email"}}},
		},
	})
	if err != nil {
		t.Fatalf("AddSchemaDescriptor: %v", err)
	}

	script := analyze(t, cat, 1, `SELECT email FROM customers;`)
	if len(script.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", script.Errors)
	}
	if !script.TableReferences[0].Resolved {
		t.Fatalf("expected the catalog-backed table to resolve")
	}
}

package script_test

import (
	"testing"

	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/handle"
	"github.com/sqlweave/engine/internal/script"
)

func TestScanParseAnalyzeStaging(t *testing.T) {
	s := script.NewWithText(1, catalog.New(), `select id from users;`)

	scanned := s.Scan()
	if len(scanned.Tokens) == 0 {
		t.Fatalf("expected tokens from scan")
	}

	parsed, err := s.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed.Tree.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(parsed.Tree.Statements))
	}

	analyzed, err := s.Analyze()
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(analyzed.TableReferences) != 1 || analyzed.TableReferences[0].Name.Table != "users" {
		t.Fatalf("expected one table reference to 'users', got %+v", analyzed.TableReferences)
	}
}

func TestScanIsCached(t *testing.T) {
	s := script.NewWithText(1, nil, `select 1;`)
	first := s.Scan()
	second := s.Scan()
	if first != second {
		t.Fatalf("expected Scan to return the cached *ScannedScript on a second call")
	}
}

func TestEditInvalidatesCachedStages(t *testing.T) {
	s := script.NewWithText(1, nil, `select 1;`)
	_, _ = s.Parse()
	if _, err := s.Analyze(); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	s.Edit(7, 1, "2")
	if s.Text() != `select 2;` {
		t.Fatalf("expected edited text, got %q", s.Text())
	}

	parsed, err := s.Parse()
	if err != nil {
		t.Fatalf("Parse after edit: %v", err)
	}
	if parsed.Text != `select 2;` {
		t.Fatalf("expected re-scan after edit to reflect new text, got %q", parsed.Text)
	}
}

func TestLoadIntoCatalogAndReplace(t *testing.T) {
	cat := catalog.New()
	s := script.NewWithText(handle.EntryID(5), cat, `create table users(id, email);`)

	if err := s.LoadIntoCatalog(0); err != nil {
		t.Fatalf("LoadIntoCatalog: %v", err)
	}
	if _, _, ok := cat.FindTable(catalog.QualifiedTableName{Table: "users"}); !ok {
		t.Fatalf("expected 'users' to resolve after loading into the catalog")
	}

	// Editing and reloading under the same entry id must not collide with
	// the registration LoadIntoCatalog already made above.
	s.Edit(s.Len(), 0, "\n-- noop")
	if err := s.LoadIntoCatalog(0); err != nil {
		t.Fatalf("LoadIntoCatalog after edit: %v", err)
	}
}

func TestCursorAndCompleteWithoutAnalysis(t *testing.T) {
	s := script.NewWithText(1, nil, `select id from users;`)
	c, err := s.Cursor(9)
	if err != nil {
		t.Fatalf("Cursor: %v", err)
	}
	if c.NodeID == 0 {
		t.Fatalf("expected a located node")
	}

	cands, err := s.Complete(9, 5)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	_ = cands // no catalog/analysis bound; just must not error
}

func TestDropFromCatalogIsIdempotent(t *testing.T) {
	s := script.NewWithText(1, catalog.New(), `select 1;`)
	if err := s.DropFromCatalog(); err != nil {
		t.Fatalf("expected dropping an unloaded script to be a no-op, got %v", err)
	}
}

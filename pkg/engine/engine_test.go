package engine_test

import (
	"testing"

	"github.com/sqlweave/engine/pkg/engine"
)

func TestOpenEditCursorComplete(t *testing.T) {
	cat := engine.NewCatalog()
	s := cat.OpenScript(`select id from users;`)

	if s.Text() != `select id from users;` {
		t.Fatalf("Text() = %q", s.Text())
	}

	s.Edit(7, 2, "id, name")
	if s.Text() != `select id, name from users;` {
		t.Fatalf("Text() after Edit = %q", s.Text())
	}

	if err := s.Analyze(0); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	cur, err := s.Cursor(10)
	if err != nil {
		t.Fatalf("Cursor: %v", err)
	}
	if cur == nil {
		t.Fatalf("expected a non-nil cursor")
	}

	cands, err := s.Complete(7, 5)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(cands) == 0 {
		t.Fatalf("expected at least one completion candidate")
	}
}

func TestTwoScriptsShareCatalogResolution(t *testing.T) {
	cat := engine.NewCatalog()

	decl := cat.OpenScript(`create table widgets (id int, name text);`)
	if err := decl.Analyze(0); err != nil {
		t.Fatalf("Analyze (decl): %v", err)
	}

	query := cat.OpenScript(`select name from widgets;`)
	if err := query.Analyze(1); err != nil {
		t.Fatalf("Analyze (query): %v", err)
	}

	diags, err := query.Diagnostics()
	if err != nil {
		t.Fatalf("Diagnostics: %v", err)
	}
	for _, d := range diags {
		if d.Stage == "analyze" {
			t.Fatalf("expected widgets.name to resolve against the other open script, got diagnostic: %+v", d)
		}
	}

	names := cat.TableNames()
	found := false
	for _, n := range names {
		if n == "widgets" || n == "public.widgets" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected widgets among TableNames(), got %v", names)
	}
}

func TestDiagnosticsReportsParseError(t *testing.T) {
	cat := engine.NewCatalog()
	s := cat.OpenScript(`select from;`)

	diags, err := s.Diagnostics()
	if err != nil {
		t.Fatalf("Diagnostics: %v", err)
	}
	var sawParseError bool
	for _, d := range diags {
		if d.Stage == "parse" {
			sawParseError = true
		}
	}
	if !sawParseError {
		t.Fatalf("expected at least one parse-stage diagnostic, got %+v", diags)
	}
}

func TestScriptCloseRevokesVisibility(t *testing.T) {
	cat := engine.NewCatalog()
	decl := cat.OpenScript(`create table widgets (id int);`)
	if err := decl.Analyze(0); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if err := decl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	query := cat.OpenScript(`select id from widgets;`)
	if err := query.Analyze(1); err != nil {
		t.Fatalf("Analyze (query): %v", err)
	}
	diags, err := query.Diagnostics()
	if err != nil {
		t.Fatalf("Diagnostics: %v", err)
	}
	var sawUnresolved bool
	for _, d := range diags {
		if d.Stage == "analyze" {
			sawUnresolved = true
		}
	}
	if !sawUnresolved {
		t.Fatalf("expected widgets to be unresolved after its declaring script closed, got %+v", diags)
	}
}

package fixtures

import (
	"reflect"
	"testing"
)

type widget struct {
	ID   int64  `db:"id,pk,autoinc"`
	Name string `db:"name"`
	SKU  string `db:"sku"`
}

type unnamedRow struct {
	ID int64 `db:"id,pk,autoinc"`
}

func TestColumnsAndValuesSkipsAutoincAndUntagged(t *testing.T) {
	w := widget{ID: 1, Name: "bolt", SKU: "B-1"}
	cols, vals := columnsAndValues(w)

	wantCols := []string{"name", "sku"}
	if !reflect.DeepEqual(cols, wantCols) {
		t.Fatalf("cols = %v, want %v", cols, wantCols)
	}
	wantVals := []any{"bolt", "B-1"}
	if !reflect.DeepEqual(vals, wantVals) {
		t.Fatalf("vals = %v, want %v", vals, wantVals)
	}
}

func TestInsertSQLBuildsPositionalPlaceholders(t *testing.T) {
	w := widget{Name: "bolt", SKU: "B-1"}
	query, vals := insertSQL("widgets", w)

	want := "INSERT INTO widgets (name, sku) VALUES ($1, $2) RETURNING id"
	if query != want {
		t.Fatalf("query = %q, want %q", query, want)
	}
	if len(vals) != 2 {
		t.Fatalf("expected 2 bound values, got %d", len(vals))
	}
}

func (widget) TableName() string { return "widgets" }

func TestTableNameOfPrefersTableNameMethod(t *testing.T) {
	if got := tableNameOf(widget{}); got != "widgets" {
		t.Fatalf("tableNameOf(widget{}) = %q, want %q", got, "widgets")
	}
}

func TestTableNameOfFallsBackToPluralizedTypeName(t *testing.T) {
	if got := tableNameOf(unnamedRow{}); got != "unnamedrows" {
		t.Fatalf("tableNameOf(unnamedRow{}) = %q, want %q", got, "unnamedrows")
	}
}

func TestFakePopulatesFields(t *testing.T) {
	type person struct {
		Name  string `faker:"name"`
		Email string `faker:"email"`
	}
	p, err := Fake[person]()
	if err != nil {
		t.Fatalf("Fake: %v", err)
	}
	if p.Name == "" || p.Email == "" {
		t.Fatalf("expected faker to populate both fields, got %+v", p)
	}
}

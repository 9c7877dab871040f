//go:build integration

package fixtures_test

import (
	"context"
	"testing"

	"github.com/sqlweave/engine/internal/fixtures"
)

type widget struct {
	ID   int64  `db:"id,pk,autoinc"`
	Name string `db:"name"`
}

func (widget) TableName() string { return "widgets" }

func TestMain(m *testing.M) {
	// BootOnce wants a *testing.T for Fatalf/Helper; TestMain only gets a
	// *testing.M, so a standalone instance stands in, the same dummy the
	// fixgres_demo grounding source itself uses here.
	fixtures.BootOnce(&testing.T{}, fixtures.WithDBName("engine_test"))
	m.Run()
}

func TestSandboxIsolatesSchemas(t *testing.T) {
	sbx := fixtures.NewSandbox(t)

	if _, err := sbx.DB.ExecContext(context.Background(),
		`CREATE TABLE widgets (id serial PRIMARY KEY, name text)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	id, err := fixtures.Insert(context.Background(), sbx.DB, widget{Name: "bolt"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected a generated id")
	}

	var name string
	if err := sbx.DB.QueryRowContext(context.Background(),
		`SELECT name FROM widgets WHERE id = $1`, id).Scan(&name); err != nil {
		t.Fatalf("select: %v", err)
	}
	if name != "bolt" {
		t.Fatalf("name = %q, want %q", name, "bolt")
	}
}

//go:build integration

package pgschema_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/handle"
	"github.com/sqlweave/engine/internal/pgschema"
)

// bootPostgres starts a disposable Postgres container the same way
// internal/fixtures does for its own integration tests, without depending
// on that package (this one exercises pgschema directly against a real
// information_schema rather than fixtures' goose-migrated fixtures).
func bootPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		postgres.WithDatabase("app"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("pass"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://postgres:pass@%s:%s/app?sslmode=disable", host, port.Port())

	db, err := pgschema.OpenPgx(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestIntrospectFindsLiveTables(t *testing.T) {
	db := bootPostgres(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE users (id serial PRIMARY KEY, email text NOT NULL);
		CREATE TABLE orders (id serial PRIMARY KEY, user_id integer REFERENCES users(id));
	`); err != nil {
		t.Fatalf("create tables: %v", err)
	}

	snap, err := pgschema.Introspect(ctx, db, []string{"public"})
	if err != nil {
		t.Fatalf("Introspect: %v", err)
	}

	names := snap.TableNames()
	if len(names) != 2 || names[0] != "public.orders" || names[1] != "public.users" {
		t.Fatalf("TableNames() = %v", names)
	}
	if pks := snap.Keys["public.users"]; len(pks) != 1 || pks[0] != "id" {
		t.Fatalf("expected users.id as primary key, got %v", pks)
	}
}

func TestLoadCatalogRegistersDescriptors(t *testing.T) {
	db := bootPostgres(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `CREATE TABLE widgets (id serial PRIMARY KEY, name text);`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	cat := catalog.New()
	if _, err := pgschema.LoadCatalog(ctx, db, cat, handle.EntryID(1), 0, []string{"public"}); err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if _, _, ok := cat.FindTable(catalog.QualifiedTableName{Table: "widgets"}); !ok {
		t.Fatalf("expected widgets to resolve after LoadCatalog")
	}

	// Reloading under the same pool id must replace rather than collide.
	if _, err := pgschema.LoadCatalog(ctx, db, cat, handle.EntryID(1), 0, []string{"public"}); err != nil {
		t.Fatalf("LoadCatalog (reload): %v", err)
	}
}

func TestAutoRefresherDetectsSchemaChange(t *testing.T) {
	db := bootPostgres(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `CREATE TABLE widgets (id serial PRIMARY KEY);`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	cat := catalog.New()
	var changes int
	ar := pgschema.NewAutoRefresher(db, cat, handle.EntryID(1), 0, []string{"public"}, func(pgschema.Snapshot) {
		changes++
	})

	changed, err := ar.RefreshOnce(ctx)
	if err != nil {
		t.Fatalf("RefreshOnce: %v", err)
	}
	if !changed || changes != 1 {
		t.Fatalf("expected the first RefreshOnce to report a change, got changed=%v changes=%d", changed, changes)
	}

	changed, err = ar.RefreshOnce(ctx)
	if err != nil {
		t.Fatalf("RefreshOnce (unchanged): %v", err)
	}
	if changed || changes != 1 {
		t.Fatalf("expected an unchanged schema to report no change, got changed=%v changes=%d", changed, changes)
	}

	if _, err := db.ExecContext(ctx, `ALTER TABLE widgets ADD COLUMN name text;`); err != nil {
		t.Fatalf("alter table: %v", err)
	}
	changed, err = ar.RefreshOnce(ctx)
	if err != nil {
		t.Fatalf("RefreshOnce (after alter): %v", err)
	}
	if !changed || changes != 2 {
		t.Fatalf("expected the schema change to be detected, got changed=%v changes=%d", changed, changes)
	}
}

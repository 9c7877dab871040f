//go:build integration

package fixtures

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"
)

// Sandbox is one test's private slice of the booted database: its own
// schema, dropped on Close, so concurrent tests never see each other's
// tables through a shared search_path.
type Sandbox struct {
	DB     *sql.DB
	Schema string
	Seed   int64
	Close  func()
}

var (
	bootOnce sync.Once
	booted   bool
	bootOnceErr error
)

// BootOnce boots the shared container exactly once per test binary; call
// it from TestMain before any NewSandbox.
func BootOnce(t *testing.T, opts ...Option) {
	t.Helper()
	bootOnce.Do(func() {
		booted = true
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		cfg := &config{}
		for _, o := range opts {
			o(cfg)
		}
		bootOnceErr = boot(ctx, cfg)
	})
	if bootOnceErr != nil {
		t.Fatalf("fixtures boot failed: %v", bootOnceErr)
	}
}

// NewSandbox creates a schema named after the current nanosecond
// timestamp (unique within a test binary's lifetime, never attacker
// influenced, so building the DDL string directly is safe here unlike a
// query built from request input) and returns a DB handle whose
// search_path resolves to it ahead of public.
func NewSandbox(t *testing.T) *Sandbox {
	t.Helper()
	if !booted {
		t.Fatalf("fixtures not booted; call fixtures.BootOnce in TestMain first")
	}

	admin, err := sql.Open("pgx", connString)
	if err != nil {
		t.Fatalf("open admin: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := fmt.Sprintf("t_%x", time.Now().UnixNano())
	if _, err := admin.ExecContext(ctx, `CREATE SCHEMA "`+schema+`"`); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	db, err := sql.Open("pgx", withSearchPath(connString, schema))
	if err != nil {
		t.Fatalf("open sandbox: %v", err)
	}

	sbx := &Sandbox{DB: db, Schema: schema, Seed: time.Now().UnixNano()}
	sbx.Close = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = admin.ExecContext(ctx, `DROP SCHEMA IF EXISTS "`+schema+`" CASCADE`)
		_ = db.Close()
		_ = admin.Close()
	}
	t.Cleanup(sbx.Close)
	return sbx
}

func withSearchPath(base, schema string) string {
	u, _ := url.Parse(base)
	q := u.Query()
	q.Set("options", fmt.Sprintf("-csearch_path=%s,public", schema))
	u.RawQuery = q.Encode()
	return u.String()
}

// Package engine is the embedding-facing facade over the incremental SQL
// analysis engine: one Catalog shared by any number of open Scripts, each
// offering the same Scan -> Parse -> Analyze -> Cursor/Complete surface
// internal/script gives its own callers, plus cross-script catalog sync
// against a live Postgres database. Everything under internal/ is free to
// change shape; this package is the boundary that isn't.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/completion"
	"github.com/sqlweave/engine/internal/cursor"
	"github.com/sqlweave/engine/internal/handle"
	"github.com/sqlweave/engine/internal/pgschema"
	"github.com/sqlweave/engine/internal/script"
)

// Cursor and Candidate are re-exported rather than wrapped: both are
// already plain data (no behavior an embedder shouldn't see directly), so
// an alias avoids a needless copy of every field internal/cursor and
// internal/completion add.
type Cursor = cursor.Cursor
type Candidate = completion.Candidate

// Diagnostic unifies the three independent error shapes a script can
// accumulate (scanner.Error, parser.Error, *status.Error from the
// analyzer) behind one type, since an embedder showing squiggly
// underlines doesn't care which stage caught the problem.
type Diagnostic struct {
	Stage   string // "scan", "parse", or "analyze"
	Offset  int
	Line    int
	Column  int
	Message string
}

// Catalog is the cross-script name-resolution catalog (§6): every open
// Script and every synced database schema registers into the same
// instance, so a column reference in one script can resolve against a
// table declared by another, or against a live database table pulled in
// by SyncSchema.
type Catalog struct {
	mu        sync.Mutex
	cat       *catalog.Catalog
	nextID    uint32
	refresher *pgschema.AutoRefresher
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{cat: catalog.New(), nextID: 1}
}

// allocID mints a fresh handle.EntryID, unique within this Catalog for as
// long as it stays in use. Catalog owns id allocation so a caller never
// has to track its own counter just to avoid colliding with another
// open Script or a synced descriptor pool.
func (c *Catalog) allocID() handle.EntryID {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	return handle.EntryID(id)
}

// OpenScript returns a new Script over text, bound to this Catalog but not
// yet registered in it: call Script.Analyze (or let Cursor/Complete do it
// implicitly is deliberately not supported, see internal/script's own doc
// comment) to resolve it against whatever else is currently loaded.
func (c *Catalog) OpenScript(text string) *Script {
	id := c.allocID()
	return &Script{inner: script.NewWithText(id, c.cat, text), id: id}
}

// SyncSchema introspects a live Postgres database via dsn and registers
// its schema as a new descriptor pool in this Catalog. Each call allocates
// a fresh pool id; pools registered by earlier calls stay in the Catalog,
// whatever their rank. driver selects "pgx" (default) or "libpq".
func (c *Catalog) SyncSchema(ctx context.Context, dsn, driver string, rank int, schemas []string) ([]string, error) {
	open := pgschema.OpenPgx
	if driver == "libpq" {
		open = pgschema.OpenLibPQ
	}
	db, err := open(dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	poolID := c.allocID()
	snap, err := pgschema.LoadCatalog(ctx, db, c.cat, poolID, rank, schemas)
	if err != nil {
		return nil, err
	}
	return snap.TableNames(), nil
}

// WatchSchema opens dsn and re-syncs it into this Catalog every interval
// until the returned stop func is called, via pgschema.AutoRefresher: a
// long-lived workbench process wants schema drift to show up in
// completions without a manual SyncSchema call on every edit.
func (c *Catalog) WatchSchema(ctx context.Context, dsn, driver string, rank int, schemas []string, interval time.Duration) (stop func(), err error) {
	open := pgschema.OpenPgx
	if driver == "libpq" {
		open = pgschema.OpenLibPQ
	}
	db, err := open(dsn)
	if err != nil {
		return nil, err
	}

	poolID := c.allocID()
	c.mu.Lock()
	c.refresher = pgschema.NewAutoRefresher(db, c.cat, poolID, rank, schemas, nil)
	c.mu.Unlock()

	return c.refresher.Start(ctx, interval)
}

// Raw exposes the underlying internal/catalog.Catalog this Catalog wraps,
// for callers that need to hand it to a lower-level package built directly
// against internal/catalog (internal/protocolapi's REST/WS surface, which
// predates this facade and manages its own Script lifecycle rather than
// going through pkg/engine.Script).
func (c *Catalog) Raw() *catalog.Catalog {
	return c.cat
}

// TableNames lists every "schema.table" currently resolvable in this
// Catalog, across every open Script and every synced descriptor pool.
func (c *Catalog) TableNames() []string {
	var names []string
	for _, t := range c.cat.AllTables() {
		names = append(names, t.Table.Name.String())
	}
	return names
}

// Script is one open SQL text buffer, analyzed against its owning
// Catalog.
type Script struct {
	inner *script.Script
	id    handle.EntryID
}

// Text returns the script's current full text.
func (s *Script) Text() string { return s.inner.Text() }

// Len returns the script's length in codepoints.
func (s *Script) Len() int { return s.inner.Len() }

// Edit replaces [offset, offset+deleteCount) with insert and invalidates
// every cached analysis stage.
func (s *Script) Edit(offset, deleteCount int, insert string) {
	s.inner.Edit(offset, deleteCount, insert)
}

// Analyze resolves the script against its Catalog and loads the result
// back in at rank, so other scripts (and this one, on future Cursor/
// Complete calls) can see its declared tables. Safe to call again after
// an Edit; it replaces the prior registration under this script's id.
func (s *Script) Analyze(rank int) error {
	return s.inner.LoadIntoCatalog(rank)
}

// Close drops this script's catalog registration. The Script itself
// remains usable (Text/Edit/Cursor/Complete keep working); only its
// visibility to other scripts' resolution is revoked.
func (s *Script) Close() error {
	return s.inner.DropFromCatalog()
}

// Cursor places offset against the script's latest parse and (if Analyze
// has been called since the last Edit) analysis.
func (s *Script) Cursor(offset int) (*Cursor, error) {
	return s.inner.Cursor(offset)
}

// Complete ranks up to k completion candidates at offset.
func (s *Script) Complete(offset, k int) ([]Candidate, error) {
	return s.inner.Complete(offset, k)
}

// Diagnostics returns every scan, parse, and analysis error accumulated
// against the script's current text, stage first then source order,
// re-parsing/re-analyzing if a prior Edit invalidated the cache.
func (s *Script) Diagnostics() ([]Diagnostic, error) {
	parsed, err := s.inner.Parse()
	if err != nil {
		return nil, err
	}
	var out []Diagnostic
	for _, e := range parsed.ScannedScript.Errors {
		out = append(out, Diagnostic{Stage: "scan", Offset: e.Pos.Offset, Line: e.Pos.Line, Column: e.Pos.Column, Message: e.Message})
	}
	for _, e := range parsed.Errors {
		out = append(out, Diagnostic{Stage: "parse", Offset: e.Pos.Offset, Line: e.Pos.Line, Column: e.Pos.Column, Message: e.Message})
	}
	analyzed, err := s.inner.Analyze()
	if err != nil {
		return out, err
	}
	for _, e := range analyzed.Errors {
		d := Diagnostic{Stage: "analyze", Message: e.Message}
		if e.Location != nil {
			d.Offset = e.Location.Offset
		}
		out = append(out, d)
	}
	return out, nil
}

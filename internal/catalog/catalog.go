// Package catalog implements the cross-script registry (§4.5 of the spec):
// a ranked ordered set of entries (analyzed scripts or descriptor pools),
// global id generators for (database, schema, table) triples shared across
// every entry, and a monotonically increasing version counter that analyzed
// scripts use to detect staleness.
//
// Catalog deliberately does not import internal/analyzer: analyzer depends
// on catalog (to resolve names against it and to mint table/column ids
// during CREATE TABLE processing), so the dependency only runs one way.
// Catalog instead accepts any entry satisfying TableProvider, the narrow
// interface it actually needs.
package catalog

import (
	"fmt"
	"sort"

	"github.com/sqlweave/engine/internal/handle"
	"github.com/sqlweave/engine/internal/status"
)

// DatabaseID, SchemaID, and TableID are catalog-wide ids minted by the
// generators below. Each is stable for as long as the identifying tuple
// exists in some loaded entry, and is reused (never re-minted) across every
// script or descriptor pool that names the same tuple.
type DatabaseID uint32
type SchemaID uint32
type TableID uint32

// QualifiedTableName names a table with 0-3 known components; an empty
// string marks a component absent (the spec's "sentinel-null"), e.g. a bare
// "FROM t" reference has Database == Schema == "".
type QualifiedTableName struct {
	Database string
	Schema   string
	Table    string
}

func (q QualifiedTableName) String() string {
	switch {
	case q.Database != "" && q.Schema != "":
		return fmt.Sprintf("%s.%s.%s", q.Database, q.Schema, q.Table)
	case q.Schema != "":
		return fmt.Sprintf("%s.%s", q.Schema, q.Table)
	default:
		return q.Table
	}
}

// TableDescriptor is the shape every catalog entry exposes per table: enough
// for FindTable to match a QualifiedTableName and for the analyzer to build
// its alias/column resolution maps. DatabaseID/SchemaID/TableID are always
// populated from this Catalog's own generators, even for a table that came
// from a descriptor pool rather than a CREATE TABLE.
type TableDescriptor struct {
	Database DatabaseID
	Schema   SchemaID
	Table    TableID
	Name     QualifiedTableName
	Columns  []string
}

// TableProvider is the minimal shape a catalog entry (an analyzed script, or
// the descriptor pool type defined in this package) must implement so the
// catalog can index and serve its tables without importing the entry's
// defining package.
type TableProvider interface {
	CatalogTables() []TableDescriptor
}

// EntryKind distinguishes the two catalog entry shapes.
type EntryKind int

const (
	EntryScript EntryKind = iota
	EntryDescriptorPool
)

type entrySlot struct {
	id    handle.EntryID
	rank  int
	seq   int // insertion order, breaks rank ties
	kind  EntryKind
	entry TableProvider
	pool  *DescriptorPool // non-nil iff kind == EntryDescriptorPool
}

// Catalog is the process-wide (in this engine's single-threaded model,
// per-embedding-host) registry described in §4.5. Zero value is not usable;
// construct with New.
type Catalog struct {
	version uint64
	nextSeq int

	entries map[handle.EntryID]*entrySlot

	databases map[string]DatabaseID
	schemas   map[schemaKey]SchemaID
	tables    map[tableKey]TableID
	nextDB    DatabaseID
	nextSchema SchemaID
	nextTable  TableID
}

type schemaKey struct {
	db   DatabaseID
	name string
}

type tableKey struct {
	db     DatabaseID
	schema SchemaID
	name   string
}

// New returns an empty catalog at version 0.
func New() *Catalog {
	return &Catalog{
		entries:   make(map[handle.EntryID]*entrySlot),
		databases: make(map[string]DatabaseID),
		schemas:   make(map[schemaKey]SchemaID),
		tables:    make(map[tableKey]TableID),
	}
}

// Version returns the current monotonic version counter.
func (c *Catalog) Version() uint64 { return c.version }

func (c *Catalog) bump() { c.version++ }

// AllocateDatabase returns the existing id for name if already known, else
// mints a new one and bumps the version.
func (c *Catalog) AllocateDatabase(name string) DatabaseID {
	if id, ok := c.databases[name]; ok {
		return id
	}
	c.nextDB++
	id := c.nextDB
	c.databases[name] = id
	c.bump()
	return id
}

// AllocateSchema returns the existing id for (db, name) if already known,
// else mints a new one and bumps the version.
func (c *Catalog) AllocateSchema(db DatabaseID, name string) SchemaID {
	key := schemaKey{db, name}
	if id, ok := c.schemas[key]; ok {
		return id
	}
	c.nextSchema++
	id := c.nextSchema
	c.schemas[key] = id
	c.bump()
	return id
}

// AllocateTable returns the existing id for (db, schema, name) if already
// known, else mints a new one and bumps the version.
func (c *Catalog) AllocateTable(db DatabaseID, schema SchemaID, name string) TableID {
	key := tableKey{db, schema, name}
	if id, ok := c.tables[key]; ok {
		return id
	}
	c.nextTable++
	id := c.nextTable
	c.tables[key] = id
	c.bump()
	return id
}

// LoadScript inserts script's table set into the catalog under id at rank,
// retaining script (normally an *analyzer.AnalyzedScript) until DropScript
// or Clear revokes it. Returns ExternalIDCollision if id is already loaded as
// any kind of entry.
func (c *Catalog) LoadScript(id handle.EntryID, rank int, script TableProvider) error {
	if _, exists := c.entries[id]; exists {
		return status.New(status.ExternalIDCollision, fmt.Sprintf("catalog entry id %d already in use", id))
	}
	c.entries[id] = &entrySlot{id: id, rank: rank, seq: c.nextSeq, kind: EntryScript, entry: script}
	c.nextSeq++
	c.bump()
	return nil
}

// DropScript removes the entry loaded under id. Returns CatalogScriptUnknown
// if no such script entry exists.
func (c *Catalog) DropScript(id handle.EntryID) error {
	slot, ok := c.entries[id]
	if !ok || slot.kind != EntryScript {
		return status.New(status.CatalogScriptUnknown, fmt.Sprintf("no script entry with id %d", id))
	}
	delete(c.entries, id)
	c.bump()
	return nil
}

// Clear resets entries and id generators to empty, but never resets the
// version counter (it keeps increasing, per §3).
func (c *Catalog) Clear() {
	c.entries = make(map[handle.EntryID]*entrySlot)
	c.databases = make(map[string]DatabaseID)
	c.schemas = make(map[schemaKey]SchemaID)
	c.tables = make(map[tableKey]TableID)
	c.nextDB, c.nextSchema, c.nextTable = 0, 0, 0
	c.bump()
}

// AddDescriptorPool creates an empty named slot that AddSchemaDescriptor
// populates. Returns ExternalIDCollision if id is already in use.
func (c *Catalog) AddDescriptorPool(id handle.EntryID, rank int) error {
	if _, exists := c.entries[id]; exists {
		return status.New(status.ExternalIDCollision, fmt.Sprintf("catalog entry id %d already in use", id))
	}
	pool := &DescriptorPool{}
	c.entries[id] = &entrySlot{id: id, rank: rank, seq: c.nextSeq, kind: EntryDescriptorPool, entry: pool, pool: pool}
	c.nextSeq++
	c.bump()
	return nil
}

// DropDescriptorPool removes the pool loaded under id.
func (c *Catalog) DropDescriptorPool(id handle.EntryID) error {
	slot, ok := c.entries[id]
	if !ok || slot.kind != EntryDescriptorPool {
		return status.New(status.CatalogDescriptorPoolUnknown, fmt.Sprintf("no descriptor pool with id %d", id))
	}
	delete(c.entries, id)
	c.bump()
	return nil
}

// AddSchemaDescriptor takes one already-decoded SchemaDescriptor (§6's
// {database_name, schema_name, tables: [{table_name, columns: [{column_name}]}]}
// logical schema; DecodeSchemaDescriptor reads the internal/wire-framed
// form) and registers its tables into
// the pool loaded under poolID, minting their ids from this catalog's own
// generators so they participate in FindTable exactly like a CREATE TABLE
// would.
func (c *Catalog) AddSchemaDescriptor(poolID handle.EntryID, desc SchemaDescriptor) error {
	slot, ok := c.entries[poolID]
	if !ok || slot.kind != EntryDescriptorPool {
		return status.New(status.CatalogDescriptorPoolUnknown, fmt.Sprintf("no descriptor pool with id %d", poolID))
	}
	if desc.Tables == nil {
		return status.New(status.CatalogDescriptorTablesNull, "schema descriptor has a nil tables list")
	}
	dbID := c.AllocateDatabase(desc.DatabaseName)
	schemaID := c.AllocateSchema(dbID, desc.SchemaName)
	for _, t := range desc.Tables {
		if t.TableName == "" {
			return status.New(status.CatalogDescriptorTableNameEmpty, "schema descriptor table has an empty name")
		}
		qname := QualifiedTableName{Database: desc.DatabaseName, Schema: desc.SchemaName, Table: t.TableName}
		for _, existing := range slot.pool.tables {
			if existing.Name == qname {
				return status.New(status.CatalogDescriptorTableNameCollision,
					fmt.Sprintf("table %s already registered in this descriptor pool", qname))
			}
		}
		tableID := c.AllocateTable(dbID, schemaID, t.TableName)
		cols := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			cols[i] = col.ColumnName
		}
		slot.pool.tables = append(slot.pool.tables, TableDescriptor{
			Database: dbID, Schema: schemaID, Table: tableID, Name: qname, Columns: cols,
		})
	}
	c.bump()
	return nil
}

// orderedSlots returns every entry sorted by (rank ascending, insertion
// order ascending) — the order FindTable and DescribeEntries both walk,
// since the spec ties descriptor-pool and script ranks into a single
// namespace (see DESIGN.md's Open Question decision).
func (c *Catalog) orderedSlots() []*entrySlot {
	out := make([]*entrySlot, 0, len(c.entries))
	for _, s := range c.entries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].rank != out[j].rank {
			return out[i].rank < out[j].rank
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// FindTable returns the first match for q across every loaded entry, in
// rank order, per §4.5. A query component left empty matches any value in
// the candidate; the table name component is always required.
func (c *Catalog) FindTable(q QualifiedTableName) (handle.GlobalObjectID, TableDescriptor, bool) {
	for _, slot := range c.orderedSlots() {
		tables := slot.entry.CatalogTables()
		for i, t := range tables {
			if !qualifiedMatches(q, t.Name) {
				continue
			}
			return handle.Pack(slot.id, uint32(i)), t, true
		}
	}
	return handle.NullObjectID, TableDescriptor{}, false
}

func qualifiedMatches(query, candidate QualifiedTableName) bool {
	if candidate.Table != query.Table {
		return false
	}
	if query.Schema != "" && query.Schema != candidate.Schema {
		return false
	}
	if query.Database != "" && query.Database != candidate.Database {
		return false
	}
	return true
}

// TableAt resolves a GlobalObjectID previously returned by FindTable (or
// minted by the analyzer for a table in the script currently being
// analyzed, once that script is itself loaded) back to its TableDescriptor.
func (c *Catalog) TableAt(id handle.GlobalObjectID) (TableDescriptor, bool) {
	slot, ok := c.entries[id.Entry()]
	if !ok {
		return TableDescriptor{}, false
	}
	tables := slot.entry.CatalogTables()
	idx := id.Index()
	if int(idx) >= len(tables) {
		return TableDescriptor{}, false
	}
	return tables[idx], true
}

// NamedTable pairs a TableDescriptor with the GlobalObjectID it lives under,
// for callers (completion's dotted-path candidates) that need to enumerate
// every table rather than look one up by exact name.
type NamedTable struct {
	Object handle.GlobalObjectID
	Table  TableDescriptor
}

// AllTables returns every table across every loaded entry, in rank order.
func (c *Catalog) AllTables() []NamedTable {
	var out []NamedTable
	for _, slot := range c.orderedSlots() {
		for i, t := range slot.entry.CatalogTables() {
			out = append(out, NamedTable{Object: handle.Pack(slot.id, uint32(i)), Table: t})
		}
	}
	return out
}

// EntrySummary is what catalog_describe_entries / catalog_get_statistics
// (§6) report per entry: enough for a debugging client to render the
// catalog's current contents without retaining a live reference to it.
type EntrySummary struct {
	ID         handle.EntryID
	Rank       int
	Kind       EntryKind
	TableCount int
}

// DescribeEntries returns a summary of every loaded entry, in rank order.
func (c *Catalog) DescribeEntries() []EntrySummary {
	slots := c.orderedSlots()
	out := make([]EntrySummary, len(slots))
	for i, s := range slots {
		out[i] = EntrySummary{ID: s.id, Rank: s.rank, Kind: s.kind, TableCount: len(s.entry.CatalogTables())}
	}
	return out
}

// DescribeEntriesOf returns the summary for a single entry.
func (c *Catalog) DescribeEntriesOf(id handle.EntryID) (EntrySummary, bool) {
	s, ok := c.entries[id]
	if !ok {
		return EntrySummary{}, false
	}
	return EntrySummary{ID: s.id, Rank: s.rank, Kind: s.kind, TableCount: len(s.entry.CatalogTables())}, true
}

// Script returns the TableProvider loaded under id, type-asserted by the
// caller back to its concrete type (normally *analyzer.AnalyzedScript);
// kept as `any` here so this package never imports internal/analyzer.
func (c *Catalog) Script(id handle.EntryID) (any, bool) {
	s, ok := c.entries[id]
	if !ok || s.kind != EntryScript {
		return nil, false
	}
	return s.entry, true
}

// Statistics is what catalog_get_statistics (§6) reports.
type Statistics struct {
	Version             uint64
	ScriptCount         int
	DescriptorPoolCount int
	TableCount          int
}

// Statistics summarizes the catalog's current contents.
func (c *Catalog) Statistics() Statistics {
	var stats Statistics
	stats.Version = c.version
	for _, s := range c.entries {
		switch s.kind {
		case EntryScript:
			stats.ScriptCount++
		case EntryDescriptorPool:
			stats.DescriptorPoolCount++
		}
		stats.TableCount += len(s.entry.CatalogTables())
	}
	return stats
}

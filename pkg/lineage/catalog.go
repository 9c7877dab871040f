// Package lineage resolves column provenance for a single SELECT statement
// and rewrites SELECTs to project the primary keys of every source table, so
// a downstream cell-edit layer can trace a result column back to a concrete
// table.column and address the row it came from.
package lineage

import (
	"github.com/sqlweave/engine/internal/pgschema"
)

// Catalog is the minimal schema surface ResolveProvenance and
// RewriteSelectInjectPKs need: whether a qualified table has a column, and
// its primary key columns in declared order. Qualified names are either bare
// ("actor") or schema-qualified ("public.actor").
type Catalog interface {
	Columns(qualified string) ([]string, bool)
	PrimaryKeys(qualified string) ([]string, bool)
}

// StaticCatalog is a Catalog backed by plain maps, useful for tests and for
// any caller that already has the shape in memory.
type StaticCatalog struct {
	cols map[string][]string
	pks  map[string][]string
}

func NewStaticCatalog(cols, pks map[string][]string) *StaticCatalog {
	return &StaticCatalog{cols: cols, pks: pks}
}

func (c *StaticCatalog) Columns(qualified string) ([]string, bool) {
	v, ok := c.cols[qualified]
	return v, ok
}

func (c *StaticCatalog) PrimaryKeys(qualified string) ([]string, bool) {
	v, ok := c.pks[qualified]
	return v, ok
}

// FromSnapshot adapts a live pgschema.Snapshot into a Catalog, indexing each
// table under both its bare name and its "schema.table" qualified name so
// callers can reference either form.
func FromSnapshot(snap pgschema.Snapshot) *StaticCatalog {
	cols := map[string][]string{}
	for _, desc := range snap.Descriptors {
		for _, table := range desc.Tables {
			names := make([]string, len(table.Columns))
			for i, c := range table.Columns {
				names[i] = c.ColumnName
			}
			qualified := desc.SchemaName + "." + table.TableName
			cols[qualified] = names
			cols[table.TableName] = names
		}
	}

	pks := map[string][]string{}
	for qualified, keys := range snap.Keys {
		pks[qualified] = keys
		if i := lastDot(qualified); i >= 0 {
			pks[qualified[i+1:]] = keys
		}
	}

	return &StaticCatalog{cols: cols, pks: pks}
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

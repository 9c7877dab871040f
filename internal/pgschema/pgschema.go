// Package pgschema introspects a live PostgreSQL database's
// information_schema and turns the result into catalog.SchemaDescriptor
// values, so a long-lived workbench can keep its cross-script catalog (§3)
// current with whatever the database actually looks like, rather than
// relying solely on what scripts declare themselves.
package pgschema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/handle"
)

// OpenPgx opens dsn with the pgx/v5 stdlib driver, registered above as
// "pgx". This is the default: pgx's binary protocol and connection
// handling are the more actively maintained of the two drivers this
// package wires in.
func OpenPgx(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// OpenLibPQ opens dsn with the lib/pq driver, registered above as
// "postgres". Kept for deployments already standardized on it (connection
// poolers and proxies that only speak lib/pq's startup handshake).
func OpenLibPQ(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}

// Snapshot is one information_schema sweep: the descriptors ready to load
// into a catalog, plus the primary key columns per "schema.table", kept
// separately since catalog.SchemaTableColumn carries no key metadata (§6's
// logical schema is name-resolution shaped, not DDL-shaped). Snapshot.Keys
// is there for callers doing something richer than name resolution with
// the same sweep, e.g. a lineage or diffing tool, rather than forcing a
// second round trip.
type Snapshot struct {
	Descriptors []catalog.SchemaDescriptor
	Keys        map[string][]string // "schema.table" -> ordered primary key columns
}

// Introspect runs two information_schema queries against db: one walking
// every column of every table, one walking primary-key membership, both
// restricted to schemas if non-empty (and always excluding pg_catalog and
// information_schema themselves). Rows are ordered so columns land in
// ordinal_position order within each table, matching declaration order.
func Introspect(ctx context.Context, db *sql.DB, schemas []string) (Snapshot, error) {
	dbName, err := currentDatabase(ctx, db)
	if err != nil {
		return Snapshot{}, err
	}

	columns, order, err := loadColumns(ctx, db, schemas)
	if err != nil {
		return Snapshot{}, err
	}
	keys, err := loadPrimaryKeys(ctx, db, schemas)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Descriptors: buildDescriptors(dbName, order, columns),
		Keys:        keys,
	}, nil
}

func currentDatabase(ctx context.Context, db *sql.DB) (string, error) {
	var name string
	if err := db.QueryRowContext(ctx, "SELECT current_database()").Scan(&name); err != nil {
		return "", fmt.Errorf("current_database: %w", err)
	}
	return name, nil
}

type qualifiedTable struct {
	schema, table string
}

// schemaFilter builds "AND <column> IN ($n, $n+1, ...)" with schemas passed
// as bound parameters rather than interpolated into the query text, and
// returns the args to pass alongside. paramOffset is the number of
// placeholders already used earlier in the same query.
func schemaFilter(column string, paramOffset int, schemas []string) (clause string, args []any) {
	if len(schemas) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(schemas))
	args = make([]any, len(schemas))
	for i, s := range schemas {
		placeholders[i] = fmt.Sprintf("$%d", paramOffset+i+1)
		args[i] = s
	}
	return fmt.Sprintf(" AND %s IN (%s)", column, strings.Join(placeholders, ", ")), args
}

// loadColumns returns, per "schema.table", its columns in ordinal order,
// and a separate ordered list of the qualifiedTables seen (in query order)
// so buildDescriptors can emit schemas/tables deterministically without
// sorting map keys.
func loadColumns(ctx context.Context, db *sql.DB, schemas []string) (map[qualifiedTable][]string, []qualifiedTable, error) {
	query := `
		SELECT table_schema, table_name, column_name
		FROM information_schema.columns
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')`
	clause, args := schemaFilter("table_schema", 0, schemas)
	query += clause + " ORDER BY table_schema, table_name, ordinal_position"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[qualifiedTable][]string)
	var order []qualifiedTable
	for rows.Next() {
		var schema, table, column string
		if err := rows.Scan(&schema, &table, &column); err != nil {
			return nil, nil, fmt.Errorf("scan column: %w", err)
		}
		key := qualifiedTable{schema, table}
		if _, seen := columns[key]; !seen {
			order = append(order, key)
		}
		columns[key] = append(columns[key], column)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("row iteration (columns): %w", err)
	}
	return columns, order, nil
}

// loadPrimaryKeys mirrors loadColumns but joins table_constraints to
// key_column_usage on constraint_name and table_schema, restricted to
// PRIMARY KEY constraints, the same join pg_lineage's catalog loader uses.
func loadPrimaryKeys(ctx context.Context, db *sql.DB, schemas []string) (map[string][]string, error) {
	query := `
		SELECT kcu.table_schema, kcu.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		  AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND kcu.table_schema NOT IN ('pg_catalog', 'information_schema')`
	clause, args := schemaFilter("kcu.table_schema", 0, schemas)
	query += clause + " ORDER BY kcu.table_schema, kcu.table_name, kcu.ordinal_position"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query primary keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string][]string)
	for rows.Next() {
		var schema, table, column string
		if err := rows.Scan(&schema, &table, &column); err != nil {
			return nil, fmt.Errorf("scan pk: %w", err)
		}
		key := schema + "." + table
		keys[key] = append(keys[key], column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration (pkeys): %w", err)
	}
	return keys, nil
}

// buildDescriptors groups the flat qualifiedTable->columns map into one
// SchemaDescriptor per schema, tables kept in the order loadColumns
// discovered them (ordinal query order), not re-sorted: a descriptor's
// table order has no resolution meaning, but preserving discovery order
// keeps Snapshot reproducible across otherwise-identical runs.
func buildDescriptors(dbName string, order []qualifiedTable, columns map[qualifiedTable][]string) []catalog.SchemaDescriptor {
	bySchema := make(map[string]*catalog.SchemaDescriptor)
	var schemaOrder []string

	for _, qt := range order {
		desc, ok := bySchema[qt.schema]
		if !ok {
			desc = &catalog.SchemaDescriptor{DatabaseName: dbName, SchemaName: qt.schema}
			bySchema[qt.schema] = desc
			schemaOrder = append(schemaOrder, qt.schema)
		}
		cols := make([]catalog.SchemaTableColumn, len(columns[qt]))
		for i, c := range columns[qt] {
			cols[i] = catalog.SchemaTableColumn{ColumnName: c}
		}
		desc.Tables = append(desc.Tables, catalog.SchemaTable{TableName: qt.table, Columns: cols})
	}

	out := make([]catalog.SchemaDescriptor, len(schemaOrder))
	for i, name := range schemaOrder {
		out[i] = *bySchema[name]
	}
	return out
}

// LoadCatalog introspects db and registers every schema found as a
// descriptor pool in cat under poolID, replacing any pool already
// registered there (AddDescriptorPool errors on a second call under the
// same id otherwise, unlike LoadScript's script-rank replace semantics).
func LoadCatalog(ctx context.Context, db *sql.DB, cat *catalog.Catalog, poolID handle.EntryID, rank int, schemas []string) (Snapshot, error) {
	snap, err := Introspect(ctx, db, schemas)
	if err != nil {
		return Snapshot{}, err
	}
	_ = cat.DropDescriptorPool(poolID) // ignore: fine if nothing was registered yet
	if err := cat.AddDescriptorPool(poolID, rank); err != nil {
		return Snapshot{}, err
	}
	for _, desc := range snap.Descriptors {
		if err := cat.AddSchemaDescriptor(poolID, desc); err != nil {
			return Snapshot{}, err
		}
	}
	return snap, nil
}

// TableNames returns every "schema.table" Snapshot covers, sorted, for
// logging and diagnostics.
func (s Snapshot) TableNames() []string {
	var names []string
	for _, d := range s.Descriptors {
		for _, t := range d.Tables {
			names = append(names, d.SchemaName+"."+t.TableName)
		}
	}
	sort.Strings(names)
	return names
}

package analyzer

import (
	"fmt"
	"strings"

	"github.com/sqlweave/engine/internal/ast"
	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/scanner"
	"github.com/sqlweave/engine/internal/status"
)

// colSpec is one column to give a TableDeclaration being registered: its
// name and (when known) the AST node that introduced it, for diagnostics
// that point at the column rather than the whole table.
type colSpec struct {
	name    string
	astNode ast.NodeID
	// tagNode is the leaf node whose Value holds this column's interned
	// NameID, for semantic tagging; 0 when astNode is itself an interior
	// node (e.g. a whole NodeColumnRef) with nothing to tag.
	tagNode ast.NodeID
}

// registerTableDeclaration mints catalog ids for q (via the shared
// generators, so a real CREATE TABLE and a descriptor-pool entry for the
// same table converge on one id) and appends a TableDeclaration plus its
// columns, skipping and flagging any column name repeated within cols.
func (w *walker) registerTableDeclaration(q catalog.QualifiedTableName, astNode ast.NodeID, derived bool, cols []colSpec) int {
	dbID := w.cat.AllocateDatabase(q.Database)
	schemaID := w.cat.AllocateSchema(dbID, q.Schema)
	tableID := w.cat.AllocateTable(dbID, schemaID, q.Table)

	tableIdx := len(w.script.Tables)
	begin := len(w.script.TableColumns)
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		key := strings.ToLower(c.name)
		if seen[key] {
			w.nodeError(c.astNode, status.DuplicateTableColumn,
				fmt.Sprintf("duplicate column %q in table %s", c.name, q.String()))
			continue
		}
		seen[key] = true
		if c.tagNode != 0 {
			w.tagName(c.tagNode, scanner.TagColumnName)
		}
		w.script.TableColumns = append(w.script.TableColumns, TableColumn{
			ColumnName: c.name, ASTNode: c.astNode, Table: tableIdx,
		})
	}

	w.script.Tables = append(w.script.Tables, TableDeclaration{
		Database: dbID, Schema: schemaID, Table: tableID,
		Name: q, ASTNode: astNode, Derived: derived,
		ColumnsBegin: begin, ColumnCount: len(w.script.TableColumns) - begin,
	})
	return tableIdx
}

// deriveSubqueryTable synthesizes the TableDeclaration for a FROM (SELECT
// ...) AS alias entry, named after its alias (an unaliased FROM-subquery has
// no name any outer reference could use, but is still registered so its
// column references resolve locally).
func (w *walker) deriveSubqueryTable(subqueryChild ast.NodeID, alias string) int {
	children := w.tree.ChildrenOf(subqueryChild)
	if len(children) == 0 {
		return -1
	}
	cols := w.deriveColumns(children[0])
	return w.registerTableDeclaration(catalog.QualifiedTableName{Table: alias}, subqueryChild, true, cols)
}

// deriveColumns walks a statement body (a SelectStmt, a SetOpStmt chain, or
// a Subquery wrapper) to recover the column names its result set exposes,
// without executing or type-checking anything: a CTE or FROM-subquery's
// visible columns are exactly its target list's output names.
func (w *walker) deriveColumns(body ast.NodeID) []colSpec {
	node := w.tree.Node(body)
	switch node.Type {
	case ast.NodeSetOpStmt:
		children := w.tree.ChildrenOf(body)
		if len(children) == 0 {
			return nil
		}
		// A set operation's output column names are taken from its first
		// arm, matching Postgres: every arm must already agree on arity, and
		// only the first arm's aliases are visible to an outer reference.
		return w.deriveColumns(children[0])
	case ast.NodeSubquery:
		children := w.tree.ChildrenOf(body)
		if len(children) == 0 {
			return nil
		}
		return w.deriveColumns(children[0])
	case ast.NodeSelectStmt:
		for _, c := range w.tree.ChildrenOf(body) {
			if w.tree.Node(c).Type == ast.NodeTargetList {
				return w.deriveTargetListColumns(c)
			}
		}
	}
	return nil
}

// deriveTargetListColumns names each projection item that can be named: an
// explicit "AS alias" or a bare column reference (named after its last
// dotted segment). A bare "*"/"alias.*" item can't be named without a live
// lookup of the table(s) it expands, so it's recorded as StarExpansion on
// the owning NameScope instead of invented here; any other expression
// (a literal, a function call, arithmetic) has no name an outer query could
// reference and is simply skipped.
func (w *walker) deriveTargetListColumns(targetList ast.NodeID) []colSpec {
	var cols []colSpec
	for _, item := range w.tree.ChildrenOf(targetList) {
		n := w.tree.Node(item)
		switch n.Type {
		case ast.NodeAlias:
			cols = append(cols, colSpec{name: w.nameText(item), astNode: item, tagNode: item})
		case ast.NodeColumnRef:
			parts := w.tree.ChildrenOf(item)
			if len(parts) == 0 {
				continue
			}
			last := parts[len(parts)-1]
			cols = append(cols, colSpec{name: w.nameText(last), astNode: item, tagNode: last})
		}
	}
	return cols
}

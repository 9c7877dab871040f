package analyzer

import (
	"fmt"
	"strings"

	"github.com/sqlweave/engine/internal/ast"
	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/handle"
	"github.com/sqlweave/engine/internal/status"
)

// scopeTable is one table visible while resolving names within a scope: the
// target of one of the scope's resolved TableReferences (a real table, or a
// CTE/subquery-derived table the reference names).
type scopeTable struct {
	alias   string
	object  handle.GlobalObjectID
	columns []string
}

// resolveScope is the name-resolution step triggered whenever the walker
// closes a scope root (a SELECT, an UPDATE, a DELETE, or an INSERT): it
// resolves every table reference and column expression st accumulated
// against the tables visible in this scope, stamps ScopeRoot on each so
// they never participate in an ancestor's resolution (CloseScope, per the
// component's design), and materializes the scope's own NameScope entry.
func (w *walker) resolveScope(root ast.NodeID, st nodeState) {
	script := w.script

	var tables []scopeTable
	for _, cteIdx := range st.ctes {
		script.Tables[cteIdx].ScopeRoot = root
	}

	for _, refIdx := range st.tableRefs {
		ref := &script.TableReferences[refIdx]
		ref.StatementID = w.tree.StatementAt(ref.ASTNode)
		ref.ScopeRoot = root

		alias := ref.Alias
		if alias == "" {
			alias = ref.Name.Table
		}

		// An unqualified name that matches a CTE this scope introduced
		// refers to that CTE's derived table.
		if !ref.Resolved && ref.Name.Schema == "" && ref.Name.Database == "" {
			for _, cteIdx := range st.ctes {
				if strings.EqualFold(script.Tables[cteIdx].Name.Table, ref.Name.Table) {
					ref.Resolved = true
					ref.Object = script.TableGlobalID(cteIdx)
					break
				}
			}
		}

		if ref.Resolved {
			// Already resolved to a derived table: a FROM-subquery's (in
			// visitTableRef) or a CTE's (just above).
			tables = append(tables, scopeTable{alias: alias, object: ref.Object, columns: w.columnsOfObject(ref.Object)})
			continue
		}

		if obj, cols, ok := w.resolveTableName(ref.Name); ok {
			ref.Resolved = true
			ref.Object = obj
			tables = append(tables, scopeTable{alias: alias, object: obj, columns: cols})
		} else {
			w.nodeError(ref.ASTNode, status.UnresolvedTable,
				fmt.Sprintf("unresolved table %q", ref.Name.String()))
		}
	}

	for _, exprIdx := range st.expressions {
		expr := &script.Expressions[exprIdx]
		expr.StatementID = w.tree.StatementAt(expr.ASTNode)
		expr.ScopeRoot = root
		w.resolveColumnExpr(expr, tables)
	}

	w.recordScope(root, st, tables)
}

func (w *walker) resolveColumnExpr(expr *Expression, tables []scopeTable) {
	var candidates []scopeTable
	for _, t := range tables {
		if expr.TableAlias != "" && !strings.EqualFold(t.alias, expr.TableAlias) {
			continue
		}
		if idx := indexOfFold(t.columns, expr.ColumnName); idx >= 0 {
			candidates = append(candidates, t)
		}
	}
	switch len(candidates) {
	case 0:
		w.nodeError(expr.ASTNode, status.UnresolvedColumn,
			fmt.Sprintf("unresolved column %q", expr.ColumnName))
	case 1:
		expr.Resolved = true
		expr.Object = candidates[0].object
		expr.ColumnIdx = indexOfFold(candidates[0].columns, expr.ColumnName)
	default:
		w.nodeError(expr.ASTNode, status.AmbiguousColumn,
			fmt.Sprintf("ambiguous column %q", expr.ColumnName))
	}
}

// resolveTableName looks a table name up first among this script's own
// already-declared (non-derived) tables, in declaration order, then against
// the shared catalog — so a table this script itself created shadows a
// same-named table loaded from elsewhere, matching how a script reads
// naturally top-to-bottom.
func (w *walker) resolveTableName(q catalog.QualifiedTableName) (handle.GlobalObjectID, []string, bool) {
	for i, t := range w.script.Tables {
		if t.Derived {
			continue
		}
		if qualifiedMatchesLocal(q, t.Name) {
			return w.script.TableGlobalID(i), w.columnsOfTable(i), true
		}
	}
	if w.cat != nil {
		if obj, desc, ok := w.cat.FindTable(q); ok {
			return obj, desc.Columns, true
		}
	}
	return handle.NullObjectID, nil, false
}

func qualifiedMatchesLocal(query, candidate catalog.QualifiedTableName) bool {
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

// columnsOfObject returns the column names of a table already known to
// exist under obj, consulting this script's own (possibly not yet
// LoadScript'd) tables when obj belongs to it, or the shared catalog
// otherwise.
func (w *walker) columnsOfObject(obj handle.GlobalObjectID) []string {
	if obj.Entry() == w.script.EntryID {
		idx := int(obj.Index())
		if idx < 0 || idx >= len(w.script.Tables) {
			return nil
		}
		return w.columnsOfTable(idx)
	}
	if w.cat != nil {
		if desc, ok := w.cat.TableAt(obj); ok {
			return desc.Columns
		}
	}
	return nil
}

func (w *walker) columnsOfTable(idx int) []string {
	t := w.script.Tables[idx]
	cols := make([]string, t.ColumnCount)
	for i := 0; i < t.ColumnCount; i++ {
		cols[i] = w.script.TableColumns[t.ColumnsBegin+i].ColumnName
	}
	return cols
}

func indexOfFold(names []string, name string) int {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

// recordScope chains this scope's table references and expressions into
// index-linked lists (the substitution this component uses in place of the
// original design's intrusive chunk-buffer lists, per DESIGN.md) and
// appends the scope's own NameScope entry. Parent/Children links and the
// set of tables declared with this scope root are filled in afterward by
// materializeScopes, once every scope in the script exists.
func (w *walker) recordScope(root ast.NodeID, st nodeState, tables []scopeTable) {
	_ = tables
	script := w.script

	headRef := -1
	for i := len(st.tableRefs) - 1; i >= 0; i-- {
		idx := st.tableRefs[i]
		script.TableReferences[idx].scopeNext = headRef
		headRef = idx
	}
	headExpr := -1
	for i := len(st.expressions) - 1; i >= 0; i-- {
		idx := st.expressions[i]
		script.Expressions[idx].scopeNext = headExpr
		headExpr = idx
	}

	scopeIdx := len(script.NameScopes)
	script.NameScopes = append(script.NameScopes, NameScope{
		ID: scopeIdx, Root: root, Parent: -1,
		TableRefsHead:   headRef,
		ExpressionsHead: headExpr,
		StarExpansion:   st.starSeen,
	})
	script.ScopeByRoot[root] = scopeIdx
}

// materializeScopes fills in each NameScope's Parent/Children links (by
// walking up the AST from its root to the nearest ancestor node that is
// itself a scope root) and the set of tables declared with that scope,
// once every scope in the script has been recorded.
func (w *walker) materializeScopes() {
	script := w.script
	for i := range script.NameScopes {
		scope := &script.NameScopes[i]
		parent := w.findParentScope(scope.Root)
		scope.Parent = parent
		if parent >= 0 {
			script.NameScopes[parent].Children = append(script.NameScopes[parent].Children, i)
		}
	}
	for ti, t := range script.Tables {
		if t.ScopeRoot == 0 {
			continue
		}
		if si, ok := script.ScopeByRoot[t.ScopeRoot]; ok {
			script.NameScopes[si].Tables = append(script.NameScopes[si].Tables, ti)
		}
	}
}

func (w *walker) findParentScope(root ast.NodeID) int {
	id := w.tree.Node(root).ParentID
	for id != 0 {
		if si, ok := w.script.ScopeByRoot[id]; ok {
			return si
		}
		id = w.tree.Node(id).ParentID
	}
	return -1
}

package analyzer

import (
	"github.com/sqlweave/engine/internal/ast"
	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/handle"
	"github.com/sqlweave/engine/internal/scanner"
	"github.com/sqlweave/engine/internal/status"
	"github.com/sqlweave/engine/internal/token"
)

// Analyze runs the name-resolution pass over tree: a single forward scan in
// node-id order, which is also strict post-order (every node's children
// were built, and therefore already visited, before it — see
// internal/ast's package doc), discovering table declarations, table
// references, and column references, and resolving what it can against
// cat's global id generators and FindTable.
//
// entryID is this script's own stable catalog entry id, assigned once at
// script creation independent of whether or when the script is actually
// LoadScript'd into cat (see DESIGN.md) — it lets tables this script itself
// declares mint valid, stable GlobalObjectIDs before the script has any
// catalog presence at all.
func Analyze(tree *ast.Tree, reg *scanner.NameRegistry, entryID handle.EntryID, cat *catalog.Catalog) *AnalyzedScript {
	script := &AnalyzedScript{
		Tree:        tree,
		Registry:    reg,
		EntryID:     entryID,
		ScopeByRoot: make(map[ast.NodeID]int),
	}
	if cat != nil {
		script.CatalogVersion = cat.Version()
	}
	w := &walker{script: script, tree: tree, reg: reg, cat: cat}
	w.run()
	w.materializeScopes()
	return script
}

// nodeState is what one AST subtree hands up to its parent during the
// forward scan: the still-open table references and column expressions it
// contains, plus any derived tables (CTEs, FROM-list subqueries) it
// introduced, and whether a bare "*"/"alias.*" target-list item was seen
// directly in it. A scope root (a SELECT, an UPDATE, a DELETE, an INSERT)
// consumes all of this in resolveScope and returns an empty nodeState, so
// nothing crosses a scope boundary.
type nodeState struct {
	tableRefs   []int
	expressions []int
	ctes        []int
	starSeen    bool
}

func mergeInto(dst *nodeState, src nodeState) {
	dst.tableRefs = append(dst.tableRefs, src.tableRefs...)
	dst.expressions = append(dst.expressions, src.expressions...)
	dst.ctes = append(dst.ctes, src.ctes...)
	dst.starSeen = dst.starSeen || src.starSeen
}

type walker struct {
	script *AnalyzedScript
	tree   *ast.Tree
	reg    *scanner.NameRegistry
	cat    *catalog.Catalog

	states wakeVector
}

func (w *walker) state(id ast.NodeID) nodeState {
	return w.states.Get(id)
}

func (w *walker) setState(id ast.NodeID, st nodeState) {
	w.states.Set(id, st)
}

func (w *walker) childState(ids []ast.NodeID) nodeState {
	var st nodeState
	for _, c := range ids {
		mergeInto(&st, w.state(c))
	}
	return st
}

// freeChildren drops every id in ids whose parent is id from the wake
// window: by the time visit(id) returns, nothing will ever read such a
// child's raw state again (see wakeVector's doc comment), so holding it any
// longer just pins memory behind the scan front. A child whose ParentID
// points elsewhere (an AND/OR operand that NaryBuilder.TryMerge spliced out
// of id into a later flattened node) is left for that later parent.
func (w *walker) freeChildren(id ast.NodeID, ids []ast.NodeID) {
	for _, c := range ids {
		if w.tree.Node(c).ParentID == id {
			w.states.Erase(c)
		}
	}
}

func (w *walker) run() {
	for id := ast.NodeID(1); int(id) <= len(w.tree.Nodes); id++ {
		w.visit(id)
	}
}

// visit dispatches one node by type. Node kinds with no case here (NodeJoin,
// NodeSubquery, NodeWhenClause, and every other purely-structural wrapper)
// fall through to the default: merge children state and pass it straight
// up, which is exactly right for a node that neither introduces a scope nor
// resolves a name itself.
func (w *walker) visit(id ast.NodeID) {
	node := w.tree.Node(id)
	children := w.tree.ChildrenOf(id)

	switch node.Type {
	case ast.NodeIdentPart, ast.NodeLiteralInt, ast.NodeLiteralFloat, ast.NodeLiteralString,
		ast.NodeLiteralNull, ast.NodeLiteralBool, ast.NodeParamExpr, ast.NodeColumnTypeRef,
		ast.NodeConstraintDef:
		w.setState(id, nodeState{})

	case ast.NodeColumnRef:
		w.visitColumnRef(id, node, children)

	case ast.NodeStarExpr:
		w.setState(id, nodeState{starSeen: true})

	case ast.NodeAlias:
		w.setState(id, w.childState(children))

	case ast.NodeTableRef:
		w.visitTableRef(id, node, children)

	case ast.NodeWithClause:
		w.visitWithClause(id, node, children)

	case ast.NodeSelectStmt, ast.NodeUpdateStmt, ast.NodeDeleteStmt:
		st := w.childState(children)
		w.resolveScope(id, st)
		w.setState(id, nodeState{})

	case ast.NodeSetOpStmt:
		w.setState(id, w.childState(children))

	case ast.NodeInsertStmt:
		w.visitInsert(id, node, children)

	case ast.NodeCreateTableStmt:
		w.visitCreateTable(id, node, children)

	case ast.NodeCreateViewStmt:
		w.visitCreateView(id, node, children)

	case ast.NodeBinaryExpr:
		w.visitBinaryExpr(id, node, children)

	default:
		w.setState(id, w.childState(children))
	}

	w.freeChildren(id, children)
}

func (w *walker) nodeError(id ast.NodeID, code status.Code, message string) {
	pos := w.tree.Node(id).Pos
	w.script.Errors = append(w.script.Errors, status.At(code, posLocation(pos), message))
}

func posLocation(pos token.Pos) status.Location {
	return status.Location{Offset: pos.Offset}
}

func (w *walker) nameText(id ast.NodeID) string {
	return w.reg.Text(scanner.NameID(w.tree.Node(id).Value))
}

// tagName merges tags into the registry entry for leaf id's interned name,
// the semantic counterpart to the lexical tags the scanner already set
// (see scanner.NameTags): completion scoring reads these once analysis has
// run to prefer names used the way the cursor's position expects.
func (w *walker) tagName(id ast.NodeID, tags scanner.NameTags) {
	w.reg.Tag(scanner.NameID(w.tree.Node(id).Value), tags)
}

// qualifiedNameOf reads a dotted-name NodeColumnRef (built by
// parser.parseDottedName) into a 1-3 component table name, rightmost part
// as the table and working backward through schema then database.
func (w *walker) qualifiedNameOf(id ast.NodeID) catalog.QualifiedTableName {
	children := w.tree.ChildrenOf(id)
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = w.nameText(c)
	}
	n := len(children)
	switch n {
	case 1:
		w.tagName(children[0], scanner.TagTableName)
	case 2:
		w.tagName(children[0], scanner.TagSchemaName)
		w.tagName(children[1], scanner.TagTableName)
	case 3:
		w.tagName(children[0], scanner.TagDatabaseName)
		w.tagName(children[1], scanner.TagSchemaName)
		w.tagName(children[2], scanner.TagTableName)
	}
	var q catalog.QualifiedTableName
	switch len(parts) {
	case 0:
		return q
	case 1:
		q.Table = parts[0]
	case 2:
		q.Schema, q.Table = parts[0], parts[1]
	default:
		m := len(parts)
		q.Database, q.Schema, q.Table = parts[m-3], parts[m-2], parts[m-1]
	}
	return q
}

func isTablePathContext(t ast.NodeType) bool {
	switch t {
	case ast.NodeTableRef, ast.NodeCreateTableStmt, ast.NodeCreateViewStmt,
		ast.NodeCreateIndexStmt, ast.NodeInsertStmt, ast.NodeDropStmt, ast.NodeAlterTableStmt:
		return true
	}
	return false
}

func isComparisonOp(op ast.BinOp) bool {
	switch op {
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		return true
	}
	return false
}

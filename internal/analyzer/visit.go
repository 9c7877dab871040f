package analyzer

import (
	"github.com/sqlweave/engine/internal/ast"
	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/scanner"
)

// visitColumnRef classifies a NodeColumnRef by its parent's node type: the
// parser reuses this one shape both for a dotted table-name path
// (parseDottedName) and for a genuine column reference
// (parseIdentOrCall), and by analysis time every node's ParentID is already
// final, so the distinction is a simple lookup rather than needing a
// parser-side hint.
func (w *walker) visitColumnRef(id ast.NodeID, node ast.Node, children []ast.NodeID) {
	if node.ParentID != 0 && isTablePathContext(w.tree.Node(node.ParentID).Type) {
		w.setState(id, nodeState{})
		return
	}

	if len(children) == 0 {
		w.setState(id, nodeState{})
		return
	}
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = w.nameText(c)
	}
	expr := Expression{ASTNode: id, StatementID: -1}
	if len(parts) == 1 {
		expr.ColumnName = parts[0]
		w.tagName(children[0], scanner.TagColumnName)
	} else {
		expr.TableAlias = parts[len(parts)-2]
		expr.ColumnName = parts[len(parts)-1]
		w.tagName(children[len(children)-2], scanner.TagTableAlias)
		w.tagName(children[len(children)-1], scanner.TagColumnName)
	}
	w.script.Expressions = append(w.script.Expressions, expr)
	idx := len(w.script.Expressions) - 1
	w.setState(id, nodeState{expressions: []int{idx}})
}

// visitTableRef builds one TableReference from a NodeTableRef, deriving a
// synthetic TableDeclaration first when the reference names a subquery
// rather than a real table (the FROM (SELECT ...) AS alias case).
func (w *walker) visitTableRef(id ast.NodeID, node ast.Node, children []ast.NodeID) {
	st := w.childState(children)

	var alias string
	var subqueryChild, nameChild ast.NodeID
	for _, c := range children {
		switch w.tree.Node(c).Type {
		case ast.NodeSubquery:
			subqueryChild = c
		case ast.NodeColumnRef:
			nameChild = c
		case ast.NodeAlias:
			alias = w.nameText(c)
			w.tagName(c, scanner.TagTableAlias)
		}
	}

	ref := TableReference{ASTNode: id, StatementID: -1, Alias: alias}
	switch {
	case subqueryChild != 0:
		tableIdx := w.deriveSubqueryTable(subqueryChild, alias)
		if tableIdx >= 0 {
			ref.Name = w.script.Tables[tableIdx].Name
			// A FROM-subquery's identity is already known (it's the table
			// just derived above), so it's resolved on the spot rather than
			// looked up by name in resolveScope: nothing else could ever be
			// named the same as this anonymous derived table.
			ref.Resolved = true
			ref.Object = w.script.TableGlobalID(tableIdx)
			st.ctes = append(st.ctes, tableIdx)
		}
	case nameChild != 0:
		ref.Name = w.qualifiedNameOf(nameChild)
	}

	w.script.TableReferences = append(w.script.TableReferences, ref)
	st.tableRefs = append(st.tableRefs, len(w.script.TableReferences)-1)
	// The alias/name/subquery children contributed nothing of their own
	// (already consumed above); only a nested subquery's own derived-table
	// bookkeeping (st.ctes, added by deriveSubqueryTable through the table
	// declaration itself, not through child state) should survive.
	st.expressions = nil
	w.setState(id, st)
}

// visitWithClause registers one derived TableDeclaration per CTE, visible
// to the SELECT the WithClause is attached to via the bubbled-up st.ctes,
// which resolveScope consumes when it processes that SELECT.
func (w *walker) visitWithClause(id ast.NodeID, node ast.Node, children []ast.NodeID) {
	var st nodeState
	for _, c := range children {
		cteNode := w.tree.Node(c)
		if cteNode.Type != ast.NodeCTE {
			continue
		}
		name := w.nameText(c)
		w.tagName(c, scanner.TagTableName)
		bodyChildren := w.tree.ChildrenOf(c)
		if len(bodyChildren) == 0 {
			continue
		}
		cols := w.deriveColumns(bodyChildren[0])
		tableIdx := w.registerTableDeclaration(catalog.QualifiedTableName{Table: name}, c, true, cols)
		st.ctes = append(st.ctes, tableIdx)
	}
	w.setState(id, st)
}

// visitInsert synthesizes a TableReference for INSERT's target table (held
// as a bare dotted-name NodeColumnRef rather than a NodeTableRef, since
// INSERT never takes an alias there) and folds it into this statement's own
// scope alongside any RETURNING/VALUES column references.
func (w *walker) visitInsert(id ast.NodeID, node ast.Node, children []ast.NodeID) {
	st := w.childState(children)

	var nameChild ast.NodeID
	for _, c := range children {
		if w.tree.Node(c).Type == ast.NodeColumnRef {
			nameChild = c
			break
		}
	}
	if nameChild != 0 {
		ref := TableReference{ASTNode: id, StatementID: -1, Name: w.qualifiedNameOf(nameChild)}
		w.script.TableReferences = append(w.script.TableReferences, ref)
		st.tableRefs = append(st.tableRefs, len(w.script.TableReferences)-1)
	}

	w.resolveScope(id, st)
	w.setState(id, nodeState{})
}

func (w *walker) visitCreateTable(id ast.NodeID, node ast.Node, children []ast.NodeID) {
	var nameChild ast.NodeID
	var cols []colSpec
	for _, c := range children {
		switch w.tree.Node(c).Type {
		case ast.NodeColumnRef:
			nameChild = c
		case ast.NodeColumnDef:
			cols = append(cols, colSpec{name: w.nameText(c), astNode: c, tagNode: c})
		}
	}
	if nameChild != 0 {
		w.registerTableDeclaration(w.qualifiedNameOf(nameChild), id, false, cols)
	}
	w.setState(id, nodeState{})
}

func (w *walker) visitCreateView(id ast.NodeID, node ast.Node, children []ast.NodeID) {
	if len(children) >= 2 {
		q := w.qualifiedNameOf(children[0])
		cols := w.deriveColumns(children[1])
		w.registerTableDeclaration(q, id, false, cols)
	}
	w.setState(id, nodeState{})
}

// visitBinaryExpr emits a QueryGraphEdge whenever a comparison operator's
// two operands each resolve (at this point in the scan) to exactly one
// bubbled-up column expression — the adaptation this engine uses in place
// of the n-ary-comparison-node trigger described for the original design,
// since only AND/OR flatten into n-ary nodes here (see DESIGN.md).
func (w *walker) visitBinaryExpr(id ast.NodeID, node ast.Node, children []ast.NodeID) {
	st := w.childState(children)
	if len(children) == 2 && isComparisonOp(ast.BinOp(node.AttributeKey)) {
		lhs := w.state(children[0])
		rhs := w.state(children[1])
		if len(lhs.expressions) == 1 && len(rhs.expressions) == 1 {
			w.script.GraphEdges = append(w.script.GraphEdges, QueryGraphEdge{
				Op:    ast.BinOp(node.AttributeKey),
				Left:  lhs.expressions[0],
				Right: rhs.expressions[0],
			})
		}
	}
	w.setState(id, st)
}

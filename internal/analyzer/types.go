// Package analyzer implements the name-resolution pass (§4.4 of the spec):
// a single left-to-right post-order walk of a parsed script's flat AST that
// discovers table declarations, table references, and column references,
// and resolves the references it can against both the tables declared
// earlier in the same script and the catalog of previously analyzed
// scripts and descriptor pools.
//
// Per the spec's own Design Notes (§9), the intrusive chunk-buffer lists the
// original design uses are replaced here with plain slices on AnalyzedScript
// plus int indices: the unexported scopeNext fields of TableReference and
// Expression chain entries
// belonging to the same NameScope the way an intrusive list would, without
// any raw pointers.
package analyzer

import (
	"github.com/sqlweave/engine/internal/ast"
	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/handle"
	"github.com/sqlweave/engine/internal/scanner"
	"github.com/sqlweave/engine/internal/status"
)

// TableDeclaration is a table known to exist because this script declared
// it: a real CREATE TABLE/CREATE VIEW, or a derived table synthesized for a
// CTE or a FROM-list subquery (see deriveColumns in derive.go). Every
// TableDeclaration gets a GlobalObjectID in this script's own catalog entry
// slot, whether or not the script has yet been LoadScript'd into a Catalog.
type TableDeclaration struct {
	Database catalog.DatabaseID
	Schema   catalog.SchemaID
	Table    catalog.TableID
	Name     catalog.QualifiedTableName
	ASTNode  ast.NodeID
	Derived  bool // true for a CTE/subquery-synthesized declaration, not a real CREATE

	ColumnsBegin int // index into AnalyzedScript.TableColumns
	ColumnCount  int

	ScopeRoot ast.NodeID // 0 ("no scope yet") until CloseScope stamps it
}

// TableColumn is one column of a TableDeclaration, referenced by a
// contiguous [ColumnsBegin, ColumnsBegin+ColumnCount) slice of
// AnalyzedScript.TableColumns.
type TableColumn struct {
	ColumnName string
	ASTNode    ast.NodeID
	Table      int // index into AnalyzedScript.Tables
}

// TableReference is one FROM/JOIN/UPDATE/DELETE/INSERT-target mention of a
// table by name, resolved or not.
type TableReference struct {
	Name     catalog.QualifiedTableName
	Alias    string // "" if none given
	Resolved bool
	Object   handle.GlobalObjectID // valid iff Resolved

	ASTNode     ast.NodeID
	StatementID int        // -1 until resolveScope assigns it as the owning scope closes
	ScopeRoot   ast.NodeID // 0 until CloseScope stamps it

	scopeNext int // index-linked-list pointer within the owning NameScope, -1 = end
}

// Expression is one column reference found in an expression position,
// resolved or not.
type Expression struct {
	TableAlias string // "" if the reference was unqualified
	ColumnName string
	Resolved   bool
	Object     handle.GlobalObjectID // the owning table, valid iff Resolved
	ColumnIdx  int                   // index into that table's columns, valid iff Resolved

	ASTNode     ast.NodeID
	StatementID int
	ScopeRoot   ast.NodeID

	scopeNext int
}

// QueryGraphEdge links two column references that appear on opposite sides
// of a binary comparison within the same expression subtree (§4.4's
// OBJECT_SQL_NARY_EXPRESSION bullet, adapted to this engine's AST shape:
// comparisons here are plain NodeBinaryExpr nodes, not n-ary, since only
// AND/OR flatten — see DESIGN.md).
type QueryGraphEdge struct {
	Op    ast.BinOp
	Left  int // index into AnalyzedScript.Expressions
	Right int // index into AnalyzedScript.Expressions
}

// NameScope is a region of the AST within which table references and
// column references resolve against a specific set of visible tables —
// materialized in the post-pass by walking every distinct ScopeRoot that
// CloseScope stamped.
type NameScope struct {
	ID       int
	Root     ast.NodeID
	Parent   int // index into AnalyzedScript.NameScopes, -1 if none
	Children []int

	TableRefsHead  int // head of this scope's own TableReference index-list, -1 if empty
	ExpressionsHead int // head of this scope's own Expression index-list, -1 if empty
	Tables         []int // indices into AnalyzedScript.Tables declared with this scope root

	// StarExpansion marks that a bare "*" or "alias.*" target-list item was
	// seen directly in this scope and never expanded to concrete columns
	// (supplemented feature D.2): completion uses this to special-case
	// suggesting "alias.col" right after the cursor sits past a bare "*".
	StarExpansion bool
}

// AnalyzedScript is the output of one Analyze call: the parsed script's
// discovered tables, references, expressions, scopes, and diagnostics, plus
// the catalog version seen at analysis time.
type AnalyzedScript struct {
	Tree     *ast.Tree
	Registry *scanner.NameRegistry
	EntryID  handle.EntryID // this script's own stable catalog entry id (§3)

	Tables          []TableDeclaration
	TableColumns    []TableColumn
	TableReferences []TableReference
	Expressions     []Expression
	GraphEdges      []QueryGraphEdge
	NameScopes      []NameScope

	// ScopeByRoot maps an AST node id that roots a scope (a SELECT, an
	// UPDATE, a DELETE, or an INSERT) to its index in NameScopes, mirroring the spec's
	// name_scopes_by_root_node.
	ScopeByRoot map[ast.NodeID]int

	CatalogVersion uint64
	Errors         []*status.Error
}

// CatalogTables implements catalog.TableProvider so an AnalyzedScript can be
// LoadScript'd directly.
func (a *AnalyzedScript) CatalogTables() []catalog.TableDescriptor {
	out := make([]catalog.TableDescriptor, len(a.Tables))
	for i, t := range a.Tables {
		cols := make([]string, t.ColumnCount)
		for j := 0; j < t.ColumnCount; j++ {
			cols[j] = a.TableColumns[t.ColumnsBegin+j].ColumnName
		}
		out[i] = catalog.TableDescriptor{
			Database: t.Database, Schema: t.Schema, Table: t.Table,
			Name: t.Name, Columns: cols,
		}
	}
	return out
}

// TableGlobalID returns the GlobalObjectID of a.Tables[idx], packed against
// this script's own entry id.
func (a *AnalyzedScript) TableGlobalID(idx int) handle.GlobalObjectID {
	return handle.Pack(a.EntryID, uint32(idx))
}

// TableRefsInScope walks the index-linked list recordScope built for
// NameScopes[scopeIdx] and returns the TableReference indices belonging to
// that scope directly (not any ancestor scope's), in source order.
func (a *AnalyzedScript) TableRefsInScope(scopeIdx int) []int {
	var out []int
	for i := a.NameScopes[scopeIdx].TableRefsHead; i >= 0; i = a.TableReferences[i].scopeNext {
		out = append(out, i)
	}
	return out
}

// ExpressionsInScope is TableRefsInScope's counterpart for Expressions.
func (a *AnalyzedScript) ExpressionsInScope(scopeIdx int) []int {
	var out []int
	for i := a.NameScopes[scopeIdx].ExpressionsHead; i >= 0; i = a.Expressions[i].scopeNext {
		out = append(out, i)
	}
	return out
}


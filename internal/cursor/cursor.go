// Package cursor maps a text offset into a script to the token, AST node,
// enclosing name scopes, and referenced table/column at that offset.
//
// Placement never mutates anything it's given: a Cursor borrows the tree,
// token slice, and AnalyzedScript passed to Place, and is only valid as
// long as those stay put. An edit to the underlying script invalidates
// every Cursor placed against its old snapshot; nothing here detects that
// on its own, since the snapshot lifetime is internal/script's concern.
package cursor

import (
	"github.com/sqlweave/engine/internal/analyzer"
	"github.com/sqlweave/engine/internal/ast"
	"github.com/sqlweave/engine/internal/token"
)

// RelativePosition describes where Offset falls relative to the symbol at
// TokenIndex.
type RelativePosition int

const (
	// Before means Offset precedes the first token (TokenIndex is -1).
	Before RelativePosition = iota
	// InsideSymbol means Offset falls within the token's own span.
	InsideSymbol
	// After means Offset falls in the gap after the token but before the
	// next one (usually whitespace).
	After
	// AtEOF means the located token is the scan's terminal EOF marker.
	AtEOF
)

func (p RelativePosition) String() string {
	switch p {
	case Before:
		return "before"
	case InsideSymbol:
		return "inside-symbol"
	case After:
		return "after"
	case AtEOF:
		return "at-eof"
	default:
		return "unknown"
	}
}

// ContextKind classifies what kind of name, if any, the cursor sits on.
type ContextKind int

const (
	ContextNone ContextKind = iota
	ContextTableRef
	ContextColumnRef
)

// Context names the specific table/column reference the cursor's node path
// resolves to, scoped to the innermost enclosing NameScope.
type Context struct {
	Kind ContextKind

	// TableRefIndex indexes analyzer.AnalyzedScript.TableReferences, valid
	// iff Kind == ContextTableRef.
	TableRefIndex int

	// ExprIndex indexes analyzer.AnalyzedScript.Expressions, valid iff
	// Kind == ContextColumnRef.
	ExprIndex int
}

// Cursor is the result of one Place call.
type Cursor struct {
	Offset int

	// TokenIndex is the index of the last token with Pos.Offset <= Offset,
	// or -1 if Offset precedes every token (an empty script, or Offset in
	// leading whitespace before the first symbol).
	TokenIndex     int
	PrevTokenIndex int // TokenIndex - 1, or -1 if there's no earlier token
	RelPos         RelativePosition

	// StatementIndex is the index into Tree.Statements whose span contains
	// Offset, or -1 if the script hasn't been parsed or Offset precedes
	// every statement.
	StatementIndex int

	// NodeID is the innermost AST node containing Offset, 0 if
	// StatementIndex is -1.
	NodeID ast.NodeID
	// Path runs from NodeID up to (and including) its statement root,
	// innermost first.
	Path []ast.NodeID

	// Scopes holds NameScope indices from analyzer.AnalyzedScript.NameScopes,
	// innermost first. Nil unless a non-nil AnalyzedScript was passed to
	// Place and Offset fell within some parsed scope.
	Scopes []int

	Context Context
}

// Place locates offset within tokens (always), tree (if the script has
// been parsed), and script (if the script has been analyzed and that
// analysis still reflects tree — callers are responsible for passing nil
// once a later edit has invalidated it).
func Place(tree *ast.Tree, tokens []token.Token, script *analyzer.AnalyzedScript, offset int) *Cursor {
	c := &Cursor{Offset: offset, TokenIndex: -1, PrevTokenIndex: -1, StatementIndex: -1}
	c.placeToken(tokens)
	if tree != nil {
		c.placeNode(tree)
		if script != nil {
			c.placeScopes(script)
			c.placeContext(tree, script)
		}
	}
	return c
}

func (c *Cursor) placeToken(tokens []token.Token) {
	if len(tokens) == 0 || c.Offset < tokens[0].Pos.Offset {
		return
	}
	lo, hi, idx := 0, len(tokens)-1, 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if tokens[mid].Pos.Offset <= c.Offset {
			idx = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	c.TokenIndex = idx
	if idx > 0 {
		c.PrevTokenIndex = idx - 1
	}

	tok := tokens[idx]
	switch {
	case tok.Kind == token.EOF:
		c.RelPos = AtEOF
	case c.Offset < tok.Pos.Offset+len(tok.Literal):
		c.RelPos = InsideSymbol
	default:
		c.RelPos = After
	}
}

// placeNode finds the statement owning Offset, then descends from its root
// toward the leaves, at each step following the last child whose own start
// position is still <= Offset (children appear in source order, so their
// start positions ascend) until no child qualifies.
func (c *Cursor) placeNode(tree *ast.Tree) {
	si := statementAtOffset(tree, c.Offset)
	c.StatementIndex = si
	if si < 0 {
		return
	}
	id := tree.Statements[si].Root
	for {
		children := tree.ChildrenOf(id)
		next := ast.NodeID(0)
		for _, child := range children {
			if tree.Node(child).Pos.Offset <= c.Offset {
				next = child
			} else {
				break
			}
		}
		if next == 0 {
			break
		}
		id = next
	}
	c.NodeID = id
	c.Path = pathToRoot(tree, id)
}

func statementAtOffset(tree *ast.Tree, offset int) int {
	stmts := tree.Statements
	best := -1
	lo, hi := 0, len(stmts)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if tree.Node(stmts[mid].Root).Pos.Offset <= offset {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

func pathToRoot(tree *ast.Tree, id ast.NodeID) []ast.NodeID {
	path := []ast.NodeID{id}
	for {
		n := tree.Node(id)
		if n.ParentID == 0 {
			return path
		}
		id = n.ParentID
		path = append(path, id)
	}
}

// placeScopes walks Path outward from the innermost node until it finds a
// node that roots a NameScope, then follows that scope's Parent chain.
func (c *Cursor) placeScopes(script *analyzer.AnalyzedScript) {
	for _, id := range c.Path {
		si, ok := script.ScopeByRoot[id]
		if !ok {
			continue
		}
		for s := si; s >= 0; s = script.NameScopes[s].Parent {
			c.Scopes = append(c.Scopes, s)
		}
		return
	}
}

// placeContext looks for a table-ref or column-ref node in Path, stopping
// at the innermost enclosing scope's root since an outer scope's
// references aren't "at" this cursor position.
func (c *Cursor) placeContext(tree *ast.Tree, script *analyzer.AnalyzedScript) {
	limit := ast.NodeID(-1)
	if len(c.Scopes) > 0 {
		limit = script.NameScopes[c.Scopes[0]].Root
	}
	for _, id := range c.Path {
		switch tree.Node(id).Type {
		case ast.NodeTableRef:
			for i, ref := range script.TableReferences {
				if ref.ASTNode == id {
					c.Context = Context{Kind: ContextTableRef, TableRefIndex: i}
					return
				}
			}
		case ast.NodeColumnRef:
			for i, expr := range script.Expressions {
				if expr.ASTNode == id {
					c.Context = Context{Kind: ContextColumnRef, ExprIndex: i}
					return
				}
			}
		}
		if id == limit {
			return
		}
	}
}

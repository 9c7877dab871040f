package ast

import (
	"testing"

	"github.com/sqlweave/engine/internal/token"
)

func TestAddNodeSetsParentAndOrdering(t *testing.T) {
	tr := NewTree()
	leaf1 := tr.AddLeaf(token.Pos{}, NodeLiteralInt, 0, 1)
	leaf2 := tr.AddLeaf(token.Pos{}, NodeLiteralInt, 0, 2)
	parent := tr.AddNode(token.Pos{}, NodeBinaryExpr, 0, 0, leaf1, leaf2)

	if leaf1 >= parent || leaf2 >= parent {
		t.Fatalf("expected children to precede parent in post-order: leaf1=%d leaf2=%d parent=%d", leaf1, leaf2, parent)
	}
	if tr.Node(leaf1).ParentID != parent {
		t.Fatalf("leaf1 parent = %d, want %d", tr.Node(leaf1).ParentID, parent)
	}
	if tr.Node(leaf2).ParentID != parent {
		t.Fatalf("leaf2 parent = %d, want %d", tr.Node(leaf2).ParentID, parent)
	}
	children := tr.ChildrenOf(parent)
	if len(children) != 2 || children[0] != leaf1 || children[1] != leaf2 {
		t.Fatalf("ChildrenOf(parent) = %v, want [%d %d]", children, leaf1, leaf2)
	}
}

func TestNodeIDsAreMonotonicByConstructionOrder(t *testing.T) {
	tr := NewTree()
	var prev NodeID
	for i := 0; i < 10; i++ {
		id := tr.AddLeaf(token.Pos{}, NodeLiteralInt, 0, int32(i))
		if id <= prev {
			t.Fatalf("node id %d did not increase past previous %d", id, prev)
		}
		prev = id
	}
}

func TestStatementRangeCoversAllItsNodes(t *testing.T) {
	tr := NewTree()

	a1 := tr.AddLeaf(token.Pos{}, NodeColumnRef, 0, 1)
	a2 := tr.AddLeaf(token.Pos{}, NodeColumnRef, 0, 2)
	stmt1Root := tr.AddNode(token.Pos{}, NodeSelectStmt, 0, 0, a1, a2)
	tr.AddStatement(NodeSelectStmt, stmt1Root)

	b1 := tr.AddLeaf(token.Pos{}, NodeColumnRef, 0, 3)
	stmt2Root := tr.AddNode(token.Pos{}, NodeDeleteStmt, 0, 0, b1)
	tr.AddStatement(NodeDeleteStmt, stmt2Root)

	for _, id := range []NodeID{a1, a2, stmt1Root} {
		if got := tr.StatementAt(id); got != 0 {
			t.Fatalf("StatementAt(%d) = %d, want 0", id, got)
		}
	}
	for _, id := range []NodeID{b1, stmt2Root} {
		if got := tr.StatementAt(id); got != 1 {
			t.Fatalf("StatementAt(%d) = %d, want 1", id, got)
		}
	}
}

func TestNaryBuilderFlattensSameKindOperand(t *testing.T) {
	tr := NewTree()

	// Build "(a AND b)" as its own AndExpr node first, simulating a
	// parenthesized sub-chain parsed independently.
	a := tr.AddLeaf(token.Pos{}, NodeColumnRef, 0, 1)
	b := tr.AddLeaf(token.Pos{}, NodeColumnRef, 0, 2)
	inner := NewNary(NodeAndExpr)
	inner.TryMerge(tr, a)
	inner.TryMerge(tr, b)
	innerID := inner.Finish(tr, token.Pos{})

	c := tr.AddLeaf(token.Pos{}, NodeColumnRef, 0, 3)

	outer := NewNary(NodeAndExpr)
	outer.TryMerge(tr, innerID)
	outer.TryMerge(tr, c)
	outerID := outer.Finish(tr, token.Pos{})

	children := tr.ChildrenOf(outerID)
	if len(children) != 3 {
		t.Fatalf("expected flattened AndExpr with 3 children, got %d: %v", len(children), children)
	}
	if children[0] != a || children[1] != b || children[2] != c {
		t.Fatalf("unexpected flattened children: %v", children)
	}
}

func TestNaryBuilderDoesNotMergeDifferentKind(t *testing.T) {
	tr := NewTree()
	a := tr.AddLeaf(token.Pos{}, NodeColumnRef, 0, 1)
	b := tr.AddLeaf(token.Pos{}, NodeColumnRef, 0, 2)
	or := NewNary(NodeOrExpr)
	or.TryMerge(tr, a)
	or.TryMerge(tr, b)
	orID := or.Finish(tr, token.Pos{})

	c := tr.AddLeaf(token.Pos{}, NodeColumnRef, 0, 3)
	and := NewNary(NodeAndExpr)
	and.TryMerge(tr, orID)
	and.TryMerge(tr, c)
	andID := and.Finish(tr, token.Pos{})

	children := tr.ChildrenOf(andID)
	if len(children) != 2 || children[0] != orID {
		t.Fatalf("OrExpr child should not flatten into AndExpr parent, got %v", children)
	}
}

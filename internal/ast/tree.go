// Package ast holds the parsed representation of a SQL script: a single
// flat, contiguously stored array of Node records built in strict
// post-order, plus a statement index over it. Every node after the first
// has a lower id than its parent (post-order), which lets later passes
// (the analyzer, the cursor) do a single forward or backward scan instead
// of recursing through pointers.
package ast

import "github.com/sqlweave/engine/internal/token"

// NodeID indexes into Tree.Nodes. The zero value is never assigned to a
// real node; AddNode's first return value is always 1.
type NodeID int32

// Node is one entry in the flat tree. For leaf nodes (no children) Value
// carries the node's payload (a scanner.NameID, a literal pool index, an
// interned string table index, depending on Type); for interior nodes
// Value is unused and the node's direct children are found via
// ChildrenBegin/ChildrenCount into Tree.Children.
type Node struct {
	Pos           token.Pos
	Type          NodeType
	AttributeKey  uint16 // operator/modifier discriminant scoped to Type (e.g. which binary operator)
	ParentID      NodeID
	ChildrenBegin int32
	ChildrenCount int32
	Value         int32
}

// Statement indexes one top-level statement parsed from a script.
type Statement struct {
	Type      NodeType
	Root      NodeID
	NodesFrom NodeID // first node id belonging to this statement (inclusive)
	NodesTo   NodeID // last node id belonging to this statement (inclusive, == Root)
}

// Tree is the output of parsing one script: every statement's nodes, in
// the order they were built.
type Tree struct {
	Nodes      []Node
	Children   []NodeID // per-node direct-child-id pool, sliced by ChildrenBegin/ChildrenCount
	Statements []Statement
	Literals   []string // exact source text of literal tokens, indexed by LiteralID
}

// NewTree returns an empty tree ready for AddNode calls.
func NewTree() *Tree {
	return &Tree{}
}

// LiteralID indexes into Tree.Literals. The zero value is never a valid id.
type LiteralID int32

// AddLiteral interns lit's exact source spelling (already unescaped by the
// scanner) and returns an id a leaf Node's Value field can carry.
func (t *Tree) AddLiteral(lit string) LiteralID {
	t.Literals = append(t.Literals, lit)
	return LiteralID(len(t.Literals))
}

// Literal returns the source text recorded under id.
func (t *Tree) Literal(id LiteralID) string {
	if id <= 0 || int(id) > len(t.Literals) {
		return ""
	}
	return t.Literals[id-1]
}

// AddNode appends a new node built from already-finished children (each
// must already exist in t.Nodes), patches their ParentID to point at the
// new node, and returns the new node's id. Called in post-order: every
// child is fully built, including its own descendants, before its parent.
func (t *Tree) AddNode(pos token.Pos, typ NodeType, attributeKey uint16, value int32, children ...NodeID) NodeID {
	id := NodeID(len(t.Nodes) + 1)
	begin := len(t.Children)
	for _, c := range children {
		t.Nodes[c-1].ParentID = id
	}
	t.Children = append(t.Children, children...)
	t.Nodes = append(t.Nodes, Node{
		Pos:           pos,
		Type:          typ,
		AttributeKey:  attributeKey,
		ChildrenBegin: int32(begin),
		ChildrenCount: int32(len(children)),
		Value:         value,
	})
	return id
}

// AddLeaf is AddNode for a terminal node: no children, Value carries the
// payload.
func (t *Tree) AddLeaf(pos token.Pos, typ NodeType, attributeKey uint16, value int32) NodeID {
	return t.AddNode(pos, typ, attributeKey, value)
}

// Node returns the Node record for id. Ids are 1-based; id 0 is invalid.
func (t *Tree) Node(id NodeID) Node {
	return t.Nodes[id-1]
}

// ChildrenOf returns the direct child ids of id, in source order.
func (t *Tree) ChildrenOf(id NodeID) []NodeID {
	n := t.Node(id)
	return t.Children[n.ChildrenBegin : n.ChildrenBegin+n.ChildrenCount]
}

// AddStatement records a completed top-level statement whose root is
// root. NodesFrom is derived from the lowest-numbered node introduced
// since the previous statement was closed, so Cursor and the analyzer can
// binary-search "which statement owns text offset X" without storing an
// explicit per-node statement pointer.
func (t *Tree) AddStatement(typ NodeType, root NodeID) {
	from := NodeID(1)
	if len(t.Statements) > 0 {
		from = t.Statements[len(t.Statements)-1].NodesTo + 1
	}
	t.Statements = append(t.Statements, Statement{
		Type:      typ,
		Root:      root,
		NodesFrom: from,
		NodesTo:   root,
	})
}

// StatementAt returns the index into t.Statements whose node range
// contains id, or -1 if id is out of range (never the case for an id
// returned by this tree's own AddNode calls).
func (t *Tree) StatementAt(id NodeID) int {
	lo, hi := 0, len(t.Statements)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		s := t.Statements[mid]
		switch {
		case id < s.NodesFrom:
			hi = mid - 1
		case id > s.NodesTo:
			lo = mid + 1
		default:
			return mid
		}
	}
	return -1
}

// NaryBuilder accumulates the operands of an associative n-ary operator
// (AND, OR) across a left-to-right parse, flattening any operand that is
// itself a same-kind node (e.g. a parenthesized sub-chain) into its own
// operands instead of nesting it, so "a AND b AND c" and
// "(a AND b) AND c" both produce one 3-child AndExpr node.
type NaryBuilder struct {
	typ      NodeType
	children []NodeID
}

// NewNary starts accumulating operands for an n-ary node of the given
// kind.
func NewNary(typ NodeType) *NaryBuilder {
	return &NaryBuilder{typ: typ}
}

// TryMerge adds operand to the accumulator, splicing in its children
// instead of the operand itself when operand is already a node of the
// same kind being accumulated.
func (b *NaryBuilder) TryMerge(t *Tree, operand NodeID) {
	if t.Node(operand).Type == b.typ {
		b.children = append(b.children, t.ChildrenOf(operand)...)
		return
	}
	b.children = append(b.children, operand)
}

// Len reports how many operands have been merged so far.
func (b *NaryBuilder) Len() int { return len(b.children) }

// Finish commits the accumulated operands as a single node and returns its
// id. The builder must not be reused afterward.
func (b *NaryBuilder) Finish(t *Tree, pos token.Pos) NodeID {
	return t.AddNode(pos, b.typ, 0, 0, b.children...)
}

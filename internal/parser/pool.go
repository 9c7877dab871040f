package parser

import "github.com/sqlweave/engine/internal/ast"

// scopedPool is a transient, reusable scratch buffer for collecting child
// node ids while a grammar production is in progress (a target list, a
// FROM item chain, an argument list). Every production that opens one
// calls release when it commits the collected ids into an ast.AddNode
// call, so the pool is always empty again before the next sibling
// production opens it.
type scopedPool struct {
	buf []ast.NodeID
}

func (p *scopedPool) push(id ast.NodeID) {
	p.buf = append(p.buf, id)
}

// release returns the accumulated ids as an independent slice (so the
// caller can hand it to ast.AddNode, which may outlive further reuse of
// the pool's backing array) and resets the pool to empty.
func (p *scopedPool) release() []ast.NodeID {
	out := append([]ast.NodeID(nil), p.buf...)
	p.buf = p.buf[:0]
	return out
}

func (p *scopedPool) empty() bool { return len(p.buf) == 0 }

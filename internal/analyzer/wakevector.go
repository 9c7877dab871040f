package analyzer

import "github.com/sqlweave/engine/internal/ast"

// wakeVector holds nodeState only for the ids still needed by an unvisited
// ancestor, the same shape as the original engine's WakeVector
// (flatsql/utils/wake_vector.h): a forward scan's in-flight state forms a
// moving window trailing the read front, bounded on the left by the
// smallest node id whose parent hasn't been visited yet, so the backing
// store never needs one slot per node in the tree at once. Set grows the
// window on the right; Erase frees a slot and, exactly as wake_vector.h's
// Erase does, slides the window's left edge forward while the freed run at
// the front is contiguous, since this pass's ascending scan order means an
// id once erased is never addressed again.
type wakeVector struct {
	values []*nodeState
	offset int // id of values[0], 1-based; 0 while empty
}

func (v *wakeVector) index(id ast.NodeID) (int, bool) {
	if len(v.values) == 0 {
		return 0, false
	}
	idx := int(id) - v.offset
	if idx < 0 || idx >= len(v.values) {
		return 0, false
	}
	return idx, true
}

// Set records st for id, extending the window rightward with empty slots
// if id is further ahead than anything seen so far.
func (v *wakeVector) Set(id ast.NodeID, st nodeState) {
	if len(v.values) == 0 {
		v.offset = int(id)
	}
	idx := int(id) - v.offset
	for idx >= len(v.values) {
		v.values = append(v.values, nil)
	}
	v.values[idx] = &st
}

// Get returns id's state, or the zero nodeState if it was never set or has
// already been erased.
func (v *wakeVector) Get(id ast.NodeID) nodeState {
	idx, ok := v.index(id)
	if !ok || v.values[idx] == nil {
		return nodeState{}
	}
	return *v.values[idx]
}

// Erase frees id's slot. Only the one parent a post-order tree ever gives a
// node is entitled to call this, once it has read everything it needs from
// id's state.
func (v *wakeVector) Erase(id ast.NodeID) {
	idx, ok := v.index(id)
	if !ok {
		return
	}
	v.values[idx] = nil
	for len(v.values) > 0 && v.values[0] == nil {
		v.values = v.values[1:]
		v.offset++
	}
}

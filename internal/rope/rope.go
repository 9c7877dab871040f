// Package rope implements a balanced-tree text buffer that supports
// O(log n) insert/erase/replace while maintaining byte, codepoint, and
// line-break statistics at every level.
package rope

import "strings"

// Rope is a mutable, editable text buffer. The zero value is not usable;
// construct with New or FromString.
type Rope struct {
	root node
}

// New returns an empty rope.
func New() *Rope {
	return &Rope{root: newLeaf(nil)}
}

// FromString builds a rope containing exactly s.
func FromString(s string) *Rope {
	r := New()
	r.Insert(0, s)
	return r
}

// Stats returns the aggregate TextStats for the whole rope.
func (r *Rope) Stats() TextStats {
	return r.root.stats()
}

// Len returns the number of codepoints in the rope.
func (r *Rope) Len() int {
	return r.root.stats().Codepoints
}

// String materializes the rope's full text.
func (r *Rope) String() string {
	return r.Read(0, r.Len())
}

// Read copies out the codepoint range [charIdx, charIdx+count).
func (r *Rope) Read(charIdx, count int) string {
	if count <= 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(count)
	readNode(r.root, charIdx, count, &sb)
	return sb.String()
}

func readNode(n node, charIdx, count int, sb *strings.Builder) {
	if count <= 0 {
		return
	}
	switch t := n.(type) {
	case *leafNode:
		cps := t.cachedStat.Codepoints
		if charIdx >= cps || charIdx < 0 {
			return
		}
		end := charIdx + count
		if end > cps {
			end = cps
		}
		startByte := codepointToByteOffset(t.buf, charIdx)
		endByte := codepointToByteOffset(t.buf, end)
		sb.Write(t.buf[startByte:endByte])
	case *innerNode:
		acc := 0
		for i, c := range t.children {
			childCps := t.childStats[i].Codepoints
			childStart, childEnd := acc, acc+childCps
			acc = childEnd
			overlapStart := max(charIdx, childStart)
			overlapEnd := min(charIdx+count, childEnd)
			if overlapStart < overlapEnd {
				readNode(c, overlapStart-childStart, overlapEnd-overlapStart, sb)
			}
			if acc >= charIdx+count {
				break
			}
		}
	}
}

// Insert splices text into the rope at codepoint offset charIdx. Text is
// chunked into pieces no larger than a leaf's capacity, each spliced in via
// insertBounded, so a single Insert call may perform several leaf splits.
func (r *Rope) Insert(charIdx int, text string) {
	if text == "" {
		return
	}
	for _, piece := range chunkByCodepoint(text, leafCapacity) {
		r.insertBounded(charIdx, []byte(piece))
		charIdx += runeCount(piece)
	}
}

func runeCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// insertBounded inserts a single piece (already ≤ leaf capacity) at charIdx,
// descending by codepoint offset and splitting any leaf or inner
// node that overflows its capacity/fanout, propagating a new root upward
// when the split reaches the top.
func (r *Rope) insertBounded(charIdx int, piece []byte) {
	updated, split := insertNode(r.root, charIdx, piece)
	r.root = updated
	if split != nil {
		r.root = newInner([]node{r.root, split})
	}
}

func insertNode(n node, charIdx int, piece []byte) (updated node, split node) {
	switch t := n.(type) {
	case *leafNode:
		offset := codepointToByteOffset(t.buf, charIdx)
		merged := make([]byte, 0, len(t.buf)+len(piece))
		merged = append(merged, t.buf[:offset]...)
		merged = append(merged, piece...)
		merged = append(merged, t.buf[offset:]...)
		if len(merged) <= leafCapacity {
			t.buf = merged
			t.refreshStats()
			return t, nil
		}
		mid := findNearestCodepoint(merged, len(merged)/2)
		if mid <= 0 || mid >= len(merged) {
			// No interior boundary found (single oversized codepoint run);
			// keep the buffer oversized rather than corrupt it.
			t.buf = merged
			t.refreshStats()
			return t, nil
		}
		leftBuf := append([]byte(nil), merged[:mid]...)
		rightBuf := append([]byte(nil), merged[mid:]...)
		t.buf = leftBuf
		t.refreshStats()
		right := newLeaf(rightBuf)
		spliceLeafAfter(t, right)
		return t, right

	case *innerNode:
		idx, rel := t.findChild(charIdx)
		updatedChild, splitChild := insertNode(t.children[idx], rel, piece)
		t.children[idx] = updatedChild
		t.childStats[idx] = updatedChild.stats()
		if splitChild == nil {
			return t, nil
		}
		t.children = insertNodeAt(t.children, idx+1, splitChild)
		t.childStats = insertStatAt(t.childStats, idx+1, splitChild.stats())
		if inner, ok := splitChild.(*innerNode); ok {
			spliceInnerAfter(t, inner)
		}
		if len(t.children) <= innerFanout {
			return t, nil
		}
		return splitInner(t)
	}
	panic("rope: unknown node kind")
}

func splitInner(t *innerNode) (node, node) {
	mid := len(t.children) / 2
	rightChildren := append([]node(nil), t.children[mid:]...)
	rightStats := append([]TextStats(nil), t.childStats[mid:]...)
	t.children = t.children[:mid]
	t.childStats = t.childStats[:mid]
	right := &innerNode{children: rightChildren, childStats: rightStats}
	spliceInnerAfter(t, right)
	return t, right
}

func insertNodeAt(s []node, idx int, v node) []node {
	s = append(s, nil)
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

func insertStatAt(s []TextStats, idx int, v TextStats) []TextStats {
	s = append(s, TextStats{})
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

func spliceLeafAfter(orig, next *leafNode) {
	next.next = orig.next
	if orig.next != nil {
		orig.next.prev = next
	}
	orig.next = next
	next.prev = orig
}

func spliceInnerAfter(orig, next *innerNode) {
	next.next = orig.next
	if orig.next != nil {
		orig.next.prev = next
	}
	orig.next = next
	next.prev = orig
}

func unlinkLeaf(l *leafNode) {
	if l.prev != nil {
		l.prev.next = l.next
	}
	if l.next != nil {
		l.next.prev = l.prev
	}
	l.prev, l.next = nil, nil
}

func unlinkInner(n *innerNode) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	n.prev, n.next = nil, nil
}

// Remove deletes the codepoint range [charIdx, charIdx+count). Leaves that
// become empty are unlinked from the tree and from the sibling chain;
// an inner node that loses every child is removed the same way, and the
// tree's height collapses back down afterward if the root ends up with a
// single child.
func (r *Rope) Remove(charIdx, count int) {
	if count <= 0 {
		return
	}
	updated := removeNode(r.root, charIdx, count)
	if updated == nil {
		r.root = newLeaf(nil)
		return
	}
	r.root = updated
	r.collapseSingleChildChains()
}

func removeNode(n node, charIdx, count int) node {
	switch t := n.(type) {
	case *leafNode:
		cps := t.cachedStat.Codepoints
		if count <= 0 || charIdx >= cps || charIdx+count <= 0 {
			return t
		}
		start := max(charIdx, 0)
		end := min(charIdx+count, cps)
		startByte := codepointToByteOffset(t.buf, start)
		endByte := codepointToByteOffset(t.buf, end)
		merged := make([]byte, 0, len(t.buf)-(endByte-startByte))
		merged = append(merged, t.buf[:startByte]...)
		merged = append(merged, t.buf[endByte:]...)
		if len(merged) == 0 {
			unlinkLeaf(t)
			return nil
		}
		t.buf = merged
		t.refreshStats()
		return t

	case *innerNode:
		acc := 0
		newChildren := make([]node, 0, len(t.children))
		newStats := make([]TextStats, 0, len(t.children))
		for i, c := range t.children {
			childCps := t.childStats[i].Codepoints
			childStart, childEnd := acc, acc+childCps
			acc = childEnd
			overlapStart := max(charIdx, childStart)
			overlapEnd := min(charIdx+count, childEnd)
			if overlapStart < overlapEnd {
				updated := removeNode(c, overlapStart-childStart, overlapEnd-overlapStart)
				if updated != nil {
					newChildren = append(newChildren, updated)
					newStats = append(newStats, updated.stats())
				}
			} else {
				newChildren = append(newChildren, c)
				newStats = append(newStats, t.childStats[i])
			}
		}
		if len(newChildren) == 0 {
			unlinkInner(t)
			return nil
		}
		t.children = newChildren
		t.childStats = newStats
		return t
	}
	panic("rope: unknown node kind")
}

func (r *Rope) collapseSingleChildChains() {
	for {
		inner, ok := r.root.(*innerNode)
		if !ok || len(inner.children) != 1 {
			return
		}
		r.root = inner.children[0]
	}
}

func isEmptyNode(n node) bool {
	s := n.stats()
	return s.Bytes == 0 && s.Codepoints == 0
}

// SplitOff detaches everything from charIdx onward into a new, independently
// balanced Rope; the receiver retains the prefix.
func (r *Rope) SplitOff(charIdx int) *Rope {
	left, right := splitNode(r.root, charIdx)
	if left == nil {
		left = newLeaf(nil)
	}
	if right == nil {
		right = newLeaf(nil)
	}
	lastLeft := lastLeaf(left)
	firstRight := firstLeaf(right)
	if lastLeft != nil {
		lastLeft.next = nil
	}
	if firstRight != nil {
		firstRight.prev = nil
	}
	r.root = left
	r.collapseSingleChildChains()
	out := &Rope{root: right}
	out.collapseSingleChildChains()
	return out
}

func splitNode(n node, charIdx int) (left, right node) {
	switch t := n.(type) {
	case *leafNode:
		cps := t.cachedStat.Codepoints
		if charIdx <= 0 {
			return nil, t
		}
		if charIdx >= cps {
			return t, nil
		}
		offset := codepointToByteOffset(t.buf, charIdx)
		leftBuf := append([]byte(nil), t.buf[:offset]...)
		rightBuf := append([]byte(nil), t.buf[offset:]...)
		newLeft := newLeaf(leftBuf)
		newRight := newLeaf(rightBuf)
		newLeft.prev = t.prev
		if t.prev != nil {
			t.prev.next = newLeft
		}
		newLeft.next = newRight
		newRight.prev = newLeft
		newRight.next = t.next
		if t.next != nil {
			t.next.prev = newRight
		}
		return newLeft, newRight

	case *innerNode:
		idx, rel := t.findChild(charIdx)
		childLeft, childRight := splitNode(t.children[idx], rel)
		leftParts := append([]node(nil), t.children[:idx]...)
		if childLeft != nil && !isEmptyNode(childLeft) {
			leftParts = append(leftParts, childLeft)
		}
		rightParts := make([]node, 0, len(t.children)-idx)
		if childRight != nil && !isEmptyNode(childRight) {
			rightParts = append(rightParts, childRight)
		}
		rightParts = append(rightParts, t.children[idx+1:]...)
		return assembleParts(leftParts), assembleParts(rightParts)
	}
	panic("rope: unknown node kind")
}

func assembleParts(parts []node) node {
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return parts[0]
	default:
		return newInner(parts)
	}
}

func firstLeaf(n node) *leafNode {
	for {
		switch t := n.(type) {
		case *leafNode:
			return t
		case *innerNode:
			if len(t.children) == 0 {
				return nil
			}
			n = t.children[0]
		default:
			return nil
		}
	}
}

func lastLeaf(n node) *leafNode {
	for {
		switch t := n.(type) {
		case *leafNode:
			return t
		case *innerNode:
			if len(t.children) == 0 {
				return nil
			}
			n = t.children[len(t.children)-1]
		default:
			return nil
		}
	}
}

func height(n node) int {
	switch t := n.(type) {
	case *leafNode:
		return 0
	case *innerNode:
		if len(t.children) == 0 {
			return 1
		}
		return 1 + height(t.children[0])
	}
	return 0
}

// Append concatenates other onto the end of r; other is left empty
// afterward since its nodes are relinked into r rather than copied.
func (r *Rope) Append(other *Rope) {
	if other == nil || isEmptyNode(other.root) {
		return
	}
	if isEmptyNode(r.root) {
		r.root = other.root
		other.root = newLeaf(nil)
		return
	}

	lastOfLeft := lastLeaf(r.root)
	firstOfRight := firstLeaf(other.root)

	hL := height(r.root)
	hR := height(other.root)

	switch {
	case hL == hR:
		r.root = newInner([]node{r.root, other.root})
	case hL > hR:
		updated, split := attachRightSpine(r.root, other.root, hL-hR-1)
		if split != nil {
			r.root = newInner([]node{updated, split})
		} else {
			r.root = updated
		}
	default:
		updated, split := attachLeftSpine(other.root, r.root, hR-hL-1)
		if split != nil {
			r.root = newInner([]node{split, updated})
		} else {
			r.root = updated
		}
	}
	r.collapseSingleChildChains()
	other.root = newLeaf(nil)

	if lastOfLeft != nil && firstOfRight != nil {
		lastOfLeft.next = firstOfRight
		firstOfRight.prev = lastOfLeft
	}
}

// attachRightSpine descends depth levels down n's rightmost spine and
// attaches other as a new last child there, splitting and propagating
// overflow upward exactly like insertNode's inner-node case.
func attachRightSpine(n node, other node, depth int) (updated node, split node) {
	inner, ok := n.(*innerNode)
	if !ok {
		// Reached leaf level without exhausting depth; shouldn't happen for
		// well-formed heights, but degrade gracefully by wrapping.
		return n, other
	}
	if depth == 0 {
		inner.children = append(inner.children, other)
		inner.childStats = append(inner.childStats, other.stats())
		if len(inner.children) <= innerFanout {
			return inner, nil
		}
		return splitInner(inner)
	}
	lastIdx := len(inner.children) - 1
	updatedChild, splitChild := attachRightSpine(inner.children[lastIdx], other, depth-1)
	inner.children[lastIdx] = updatedChild
	inner.childStats[lastIdx] = updatedChild.stats()
	if splitChild == nil {
		return inner, nil
	}
	inner.children = append(inner.children, splitChild)
	inner.childStats = append(inner.childStats, splitChild.stats())
	if len(inner.children) <= innerFanout {
		return inner, nil
	}
	return splitInner(inner)
}

// attachLeftSpine is the mirror of attachRightSpine: it descends n's
// leftmost spine and prepends other as a new first child. The returned
// split, when non-nil, belongs to the LEFT of updated.
func attachLeftSpine(n node, other node, depth int) (updated node, split node) {
	inner, ok := n.(*innerNode)
	if !ok {
		return n, other
	}
	if depth == 0 {
		inner.children = insertNodeAt(inner.children, 0, other)
		inner.childStats = insertStatAt(inner.childStats, 0, other.stats())
		if len(inner.children) <= innerFanout {
			return inner, nil
		}
		left, right := splitInner(inner)
		return right, left
	}
	updatedChild, splitChild := attachLeftSpine(inner.children[0], other, depth-1)
	inner.children[0] = updatedChild
	inner.childStats[0] = updatedChild.stats()
	if splitChild == nil {
		return inner, nil
	}
	inner.children = insertNodeAt(inner.children, 0, splitChild)
	inner.childStats = insertStatAt(inner.childStats, 0, splitChild.stats())
	if len(inner.children) <= innerFanout {
		return inner, nil
	}
	left, right := splitInner(inner)
	return right, left
}

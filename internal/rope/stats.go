package rope

// TextStats aggregates the three quantities every rope node tracks about the
// text beneath it. Every inner node's stats equal the sum of its children's;
// that sum is recomputed incrementally on every mutation, never by walking
// the whole subtree.
type TextStats struct {
	Bytes      int
	Codepoints int
	LineBreaks int
}

// Add returns the element-wise sum of two stats blocks.
func (s TextStats) Add(o TextStats) TextStats {
	return TextStats{
		Bytes:      s.Bytes + o.Bytes,
		Codepoints: s.Codepoints + o.Codepoints,
		LineBreaks: s.LineBreaks + o.LineBreaks,
	}
}

// Sub returns s minus o; used when a child's contribution must be removed
// from a running total without resumming every sibling.
func (s TextStats) Sub(o TextStats) TextStats {
	return TextStats{
		Bytes:      s.Bytes - o.Bytes,
		Codepoints: s.Codepoints - o.Codepoints,
		LineBreaks: s.LineBreaks - o.LineBreaks,
	}
}

// statsOf scans buf once and computes its TextStats from scratch. Used only
// when a leaf's byte buffer is replaced wholesale (initial construction,
// post-split, post-merge); incremental edits should prefer Add/Sub.
func statsOf(buf []byte) TextStats {
	var s TextStats
	for i := 0; i < len(buf); {
		r, size := decodeRune(buf[i:])
		s.Bytes += size
		s.Codepoints++
		if r == '\n' {
			// A lone \n or the second half of \r\n both count as exactly one
			// line break; \r\n is never split across leaves (see codepoint.go),
			// so counting \n alone never double-counts a CRLF pair.
			s.LineBreaks++
		} else if r == '\r' {
			// A \r not immediately followed by \n (e.g. old Mac line endings)
			// still ends a line.
			if i+size >= len(buf) || buf[i+size] != '\n' {
				s.LineBreaks++
			}
		}
		i += size
	}
	return s
}

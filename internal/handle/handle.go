// Package handle packs the cross-script identifiers the catalog and
// analyzer hand around: a GlobalObjectID names a table or column relative to
// the catalog entry that owns it, stable across edits to any other script.
package handle

// EntryID identifies one catalog entry (an analyzed script or a descriptor
// pool) within a Catalog. Caller-supplied, unique within the catalog.
type EntryID uint32

// GlobalObjectID names a table or column as "the object at Index within
// catalog entry Entry" — a table index into that entry's table list, or
// (packed identically) a column index into its column list. The meaning of
// Index is determined entirely by the field the id is stored in; the type
// itself doesn't distinguish table ids from column ids, mirroring how the
// spec's GlobalObjectID is one packed (catalog_entry_id, index) pair reused
// for both.
type GlobalObjectID uint64

// NullObjectID is the sentinel "not yet resolved" / "no object" value.
// Neither Pack nor catalog.Catalog rejects an EntryID of 0, so Pack(0, 0)
// also yields this value; it stays distinct from real objects only while
// callers pick nonzero entry ids.
const NullObjectID GlobalObjectID = 0

// Pack combines an entry id and an in-entry index into one GlobalObjectID.
func Pack(entry EntryID, index uint32) GlobalObjectID {
	return GlobalObjectID(uint64(entry)<<32 | uint64(index))
}

// Entry extracts the EntryID half of id.
func (id GlobalObjectID) Entry() EntryID {
	return EntryID(id >> 32)
}

// Index extracts the in-entry index half of id.
func (id GlobalObjectID) Index() uint32 {
	return uint32(id)
}

// Valid reports whether id is not the null sentinel.
func (id GlobalObjectID) Valid() bool {
	return id != NullObjectID
}

package protocolapi

import (
	"sync"
	"sync/atomic"

	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/handle"
	"github.com/sqlweave/engine/internal/script"
	"github.com/sqlweave/engine/pkg/lineage"
)

// Client abstracts over a websocket connection the way reactive.Client
// does, so Session broadcasting doesn't import gorilla/websocket directly
// and stays testable without a real socket.
type Client struct {
	Send func(msgType string, payload any) error
}

// Session pairs one editor's script.Script with the set of websocket
// clients that subscribed to its diagnostics, the same
// one-resource/many-subscribers shape as reactive.LiveQuery, rehomed from
// live query result rows to script analysis diagnostics.
type Session struct {
	ID       string
	Script   *script.Script
	Registry *SessionRegistry
	Clients  map[*Client]struct{}
	Mu       sync.RWMutex
}

// Broadcast pushes msgType/payload to every client currently subscribed to
// s, dropping (rather than blocking on) a client whose Send errors; the
// caller owns deciding whether that merits disconnecting them.
func (s *Session) Broadcast(msgType string, payload any) {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	for cl := range s.Clients {
		_ = cl.Send(msgType, payload)
	}
}

// SessionRegistry tracks every live Session by id, mirroring
// reactive.Registry's Register/Unregister/Get/Snapshot/ForEach shape.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cat      *catalog.Catalog
	nextID   atomic.Uint32

	lineageMu  sync.RWMutex
	lineageCat lineage.Catalog
}

// NewSessionRegistry returns an empty registry whose sessions all analyze
// against cat (nil is fine: each session then resolves only its own
// declarations).
func NewSessionRegistry(cat *catalog.Catalog) *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session), cat: cat}
}

// Open creates a new Session over sql, registers its script under a fresh
// catalog entry id, and stores it under id.
func (r *SessionRegistry) Open(id, sql string) *Session {
	entryID := handle.EntryID(r.nextID.Add(1))
	sess := &Session{
		ID:       id,
		Script:   script.NewWithText(entryID, r.cat, sql),
		Registry: r,
		Clients:  make(map[*Client]struct{}),
	}
	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()
	return sess
}

// Close drops sess's catalog registration (if any) and removes it from the
// registry.
func (r *SessionRegistry) Close(id string) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return sess.Script.DropFromCatalog()
}

func (r *SessionRegistry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

func (r *SessionRegistry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}

// SetLineageCatalog swaps in the table/primary-key catalog used to rewrite
// SELECTs and resolve column provenance, typically rebuilt each time
// handleCatalogSync pulls a fresh pgschema.Snapshot.
func (r *SessionRegistry) SetLineageCatalog(cat lineage.Catalog) {
	r.lineageMu.Lock()
	defer r.lineageMu.Unlock()
	r.lineageCat = cat
}

// LineageCatalog returns the catalog set by SetLineageCatalog, or nil if
// none has been synced yet.
func (r *SessionRegistry) LineageCatalog() lineage.Catalog {
	r.lineageMu.RLock()
	defer r.lineageMu.RUnlock()
	return r.lineageCat
}

func (r *SessionRegistry) ForEach(fn func(*Session) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, sess := range r.sessions {
		if !fn(sess) {
			break
		}
	}
}

package pgschema

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/handle"
)

// Checksum hashes a deterministic JSON encoding of Descriptors and Keys, so
// two Snapshots taken of an unchanged schema produce the same string
// regardless of map iteration order. Descriptors are already emitted in a
// fixed discovery order (buildDescriptors); Keys is a map and is flattened
// into a sorted slice first.
func (s Snapshot) Checksum() string {
	type kv struct {
		Table   string   `json:"table"`
		Columns []string `json:"columns"`
	}
	keys := make([]kv, 0, len(s.Keys))
	for table, cols := range s.Keys {
		keys = append(keys, kv{Table: table, Columns: cols})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Table < keys[j].Table })

	b, _ := json.Marshal(struct {
		Descriptors []catalog.SchemaDescriptor `json:"descriptors"`
		Keys        []kv                       `json:"keys"`
	}{s.Descriptors, keys})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// AutoRefresher polls a live database on an interval, re-registers its
// descriptor pool in a catalog.Catalog on every poll, and reports (through
// onChange) each poll whose introspected schema checksum changed, the same polling-plus-checksum shape the teacher's
// richcatalog package used (DBCatalog.Refresh comparing Snapshot.Checksum,
// StartAutoRefresh's ticker loop) adapted to call pgschema's own
// Introspect/LoadCatalog directly instead of keeping a second in-memory
// catalog representation: pgschema already has one catalog.Catalog to push
// into, so AutoRefresher wraps that flow rather than duplicating it.
type AutoRefresher struct {
	DB      *sql.DB
	Catalog *catalog.Catalog
	PoolID  handle.EntryID
	Rank    int
	Schemas []string

	mu       sync.RWMutex
	last     Snapshot
	lastSum  string
	onChange func(Snapshot)
}

// NewAutoRefresher returns a refresher ready to Start. onChange, if
// non-nil, is called (not concurrently) each time a poll observes a new
// checksum, after the new snapshot has already replaced db's registered
// descriptor pool.
func NewAutoRefresher(db *sql.DB, cat *catalog.Catalog, poolID handle.EntryID, rank int, schemas []string, onChange func(Snapshot)) *AutoRefresher {
	return &AutoRefresher{DB: db, Catalog: cat, PoolID: poolID, Rank: rank, Schemas: schemas, onChange: onChange}
}

// Snapshot returns the most recently loaded Snapshot (zero value if
// RefreshOnce/Start has not yet completed a poll).
func (a *AutoRefresher) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// RefreshOnce introspects and reloads the catalog's descriptor pool,
// returning whether the schema's checksum changed since the last call. The
// pool is dropped and re-registered on every call, including when the
// checksum is unchanged.
func (a *AutoRefresher) RefreshOnce(ctx context.Context) (changed bool, err error) {
	snap, err := LoadCatalog(ctx, a.DB, a.Catalog, a.PoolID, a.Rank, a.Schemas)
	if err != nil {
		return false, err
	}
	sum := snap.Checksum()

	a.mu.Lock()
	changed = sum != a.lastSum
	a.last, a.lastSum = snap, sum
	onChange := a.onChange
	a.mu.Unlock()

	if changed && onChange != nil {
		onChange(snap)
	}
	return changed, nil
}

// Start polls RefreshOnce every interval until ctx is done, returning a
// stop func that blocks until the polling goroutine has exited. The first
// poll runs synchronously so a caller can observe its error before the
// background loop takes over.
func (a *AutoRefresher) Start(ctx context.Context, interval time.Duration) (stop func(), err error) {
	if _, err := a.RefreshOnce(ctx); err != nil {
		return func() {}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_, _ = a.RefreshOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

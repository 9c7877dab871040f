package protocolapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sqlweave/engine/internal/catalog"
	"github.com/sqlweave/engine/internal/handle"
	"github.com/sqlweave/engine/internal/pgschema"
	"github.com/sqlweave/engine/pkg/lineage"
)

// Handlers bundles the REST surface's shared dependencies, the same
// struct-of-dependencies shape as the teacher's WSHandler, so routes.go can
// wire one value into chi instead of threading each dependency through
// every handler function's closure individually.
type Handlers struct {
	Sessions *SessionRegistry
	Catalog  *catalog.Catalog
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// handleOpenScript creates a session over the request body's SQL text and
// returns its id.
func (h *Handlers) handleOpenScript(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SQL string `json:"sql"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess := h.Sessions.Open(uuid.NewString(), body.SQL)
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": sess.ID})
}

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := h.Sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, errSessionNotFound(id))
		return nil, false
	}
	return sess, true
}

// handleCloseScript drops the session's catalog registration and forgets
// it.
func (h *Handlers) handleCloseScript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Sessions.Close(id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEdit applies one edit and returns the resulting diagnostics,
// broadcasting the same payload to any websocket clients subscribed to
// this session.
func (h *Handlers) handleEdit(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Offset int    `json:"offset"`
		Delete int    `json:"delete"`
		Insert string `json:"insert"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sess.Script.Edit(body.Offset, body.Delete, body.Insert)
	diag := diagnostics(sess)
	sess.Broadcast("diagnostics", diag)
	writeJSON(w, http.StatusOK, diag)
}

func (h *Handlers) handleCursor(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cur, err := sess.Script.Cursor(offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

func (h *Handlers) handleComplete(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	k := 20
	if raw := r.URL.Query().Get("k"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			k = parsed
		}
	}
	cands, err := sess.Script.Complete(offset, k)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, cands)
}

// handleCatalogSync introspects a live database via internal/pgschema and
// loads the result into h.Catalog under the given pool id, so the engine's
// completion/resolution surface can suggest real tables without every
// session having to CREATE TABLE them first.
func (h *Handlers) handleCatalogSync(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DSN     string   `json:"dsn"`
		Driver  string   `json:"driver"` // "pgx" (default) or "libpq"
		PoolID  uint32   `json:"poolId"`
		Rank    int      `json:"rank"`
		Schemas []string `json:"schemas"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	open := pgschema.OpenPgx
	if body.Driver == "libpq" {
		open = pgschema.OpenLibPQ
	}
	db, err := open(body.DSN)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	defer db.Close()

	snap, err := pgschema.LoadCatalog(r.Context(), db, h.Catalog, handle.EntryID(body.PoolID), body.Rank, body.Schemas)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	h.Sessions.SetLineageCatalog(lineage.FromSnapshot(snap))
	writeJSON(w, http.StatusOK, map[string]any{"tables": snap.TableNames()})
}

// handleLineage returns the primary-key-injected rewrite of the session's
// current SQL plus column provenance for both forms. Requires a prior
// catalog sync (handleCatalogSync) so table primary keys are known.
func (h *Handlers) handleLineage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := lineageView(sess)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleEncodeRowHandle packs a row's primary key values (read off the
// query string as pk=col:val pairs) into the opaque handle a client can
// carry instead of resending every primary key column on a later request.
func (h *Handlers) handleEncodeRowHandle(w http.ResponseWriter, r *http.Request) {
	schema := r.URL.Query().Get("schema")
	table := r.URL.Query().Get("table")
	if schema == "" || table == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("schema and table are required"))
		return
	}
	var cols []string
	var vals []any
	for _, kv := range r.URL.Query()["pk"] {
		parts := strings.SplitN(kv, ":", 2)
		if len(parts) != 2 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("malformed pk param %q, want col:val", kv))
			return
		}
		cols = append(cols, parts[0])
		vals = append(vals, parts[1])
	}
	writeJSON(w, http.StatusOK, map[string]string{"handle": lineage.EncodeRowHandle(schema, table, cols, vals)})
}

// handleDecodeRowHandle reverses handleEncodeRowHandle.
func (h *Handlers) handleDecodeRowHandle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Handle string `json:"handle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	schema, table, pk, err := lineage.DecodeRowHandle(body.Handle)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schema": schema, "table": table, "pk": pk})
}

type errSessionNotFound string

func (e errSessionNotFound) Error() string { return "no session with id " + string(e) }

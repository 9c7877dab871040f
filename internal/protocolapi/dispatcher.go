package protocolapi

import (
	"encoding/json"
	"fmt"

	"github.com/sqlweave/engine/pkg/lineage"
)

// HandleMessage decodes one client frame and dispatches it against sess,
// mirroring protocol.HandleMessage's decode-then-switch-on-Type shape but
// acting on a script.Script instead of a reactive.Registry subscription.
// The reply is sent through send rather than returned (for EDIT, the
// diagnostics also go to every subscriber of sess via Broadcast, the sender
// included when it is itself subscribed), so a
// caller driving this over a real websocket and one driving it in a test
// with a recording stub look identical.
func HandleMessage(raw []byte, sess *Session, send func(msgType string, payload any) error) error {
	msg, err := DecodeMessage(raw)
	if err != nil {
		return send("error", map[string]string{"error": "invalid JSON"})
	}

	switch msg.Type {
	case "EDIT":
		var e Edit
		if err := json.Unmarshal(raw, &e); err != nil {
			return send("error", map[string]string{"error": "bad edit: " + err.Error()})
		}
		sess.Script.Edit(e.Offset, e.Delete, e.Insert)
		diag := diagnostics(sess)
		sess.Broadcast("diagnostics", diag)
		return send("edited", diag)

	case "CURSOR":
		var c CursorRequest
		if err := json.Unmarshal(raw, &c); err != nil {
			return send("error", map[string]string{"error": "bad cursor request: " + err.Error()})
		}
		cur, err := sess.Script.Cursor(c.Offset)
		if err != nil {
			return send("error", map[string]string{"error": err.Error()})
		}
		return send("cursor", cur)

	case "COMPLETE":
		var c CompleteRequest
		if err := json.Unmarshal(raw, &c); err != nil {
			return send("error", map[string]string{"error": "bad complete request: " + err.Error()})
		}
		k := c.K
		if k <= 0 {
			k = 20
		}
		cands, err := sess.Script.Complete(c.Offset, k)
		if err != nil {
			return send("error", map[string]string{"error": err.Error()})
		}
		return send("completions", cands)

	case "LINEAGE":
		view, err := lineageView(sess)
		if err != nil {
			return send("error", map[string]string{"error": err.Error()})
		}
		return send("lineage", view)

	default:
		return send("error", map[string]string{"error": fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

// lineageResult is the JSON shape returned for a LINEAGE request: the
// primary-key-injected rewrite of the session's SQL alongside column
// provenance for both the original and rewritten forms, mirroring the
// fields the teacher's live-query registration path computes per
// subscription (Rewritten/PKCols/ProvOrig/ProvRewritten).
type lineageResult struct {
	Rewritten     string              `json:"rewritten"`
	PKCols        map[string][]string `json:"pkCols"`
	ProvOrig      map[string][]string `json:"provOrig"`
	ProvRewritten map[string][]string `json:"provRewritten"`
}

// lineageView computes the rewrite + provenance pair for sess's current SQL
// text against the registry's synced lineage catalog.
func lineageView(sess *Session) (*lineageResult, error) {
	cat := sess.Registry.LineageCatalog()
	if cat == nil {
		return nil, fmt.Errorf("no schema catalog synced yet")
	}

	sql := sess.Script.Text()
	rewritten, pkCols, err := lineage.RewriteSelectInjectPKs(sql, cat)
	if err != nil {
		return nil, fmt.Errorf("rewrite: %w", err)
	}

	provOrig, err := lineage.ResolveProvenance(sql, cat)
	if err != nil {
		return nil, fmt.Errorf("resolve original: %w", err)
	}
	provRewritten, err := lineage.ResolveProvenance(rewritten, cat)
	if err != nil {
		return nil, fmt.Errorf("resolve rewritten: %w", err)
	}

	return &lineageResult{
		Rewritten:     rewritten,
		PKCols:        pkCols,
		ProvOrig:      provOrig,
		ProvRewritten: provRewritten,
	}, nil
}

// diagnosticView is the JSON shape of one scanner/parser/analyzer
// diagnostic, unified across their three distinct error types so a client
// doesn't need three parsers for what it'll render as one squiggly-line
// list.
type diagnosticView struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Offset  int    `json:"offset"`
}

// diagnostics re-runs (or reuses the cache of) every analysis stage and
// flattens their errors into one ordered list: scan errors first, since a
// scan failure makes the parse/analyze errors downstream noise built on a
// token stream that's already wrong.
func diagnostics(sess *Session) []diagnosticView {
	var out []diagnosticView

	scanned := sess.Script.Scan()
	for _, e := range scanned.Errors {
		out = append(out, diagnosticView{Stage: "scan", Message: e.Message, Offset: e.Pos.Offset})
	}

	parsed, err := sess.Script.Parse()
	if err != nil {
		out = append(out, diagnosticView{Stage: "parse", Message: err.Error()})
		return out
	}
	for _, e := range parsed.Errors {
		out = append(out, diagnosticView{Stage: "parse", Message: e.Message, Offset: e.Pos.Offset})
	}

	analyzed, err := sess.Script.Analyze()
	if err != nil {
		out = append(out, diagnosticView{Stage: "analyze", Message: err.Error()})
		return out
	}
	for _, e := range analyzed.Errors {
		dv := diagnosticView{Stage: "analyze", Message: e.Message}
		if e.Location != nil {
			dv.Offset = e.Location.Offset
		}
		out = append(out, dv)
	}
	return out
}

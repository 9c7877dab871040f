package protocolapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler holds the shared registry every connection dispatches against,
// the same shared-resources-on-a-handler-struct shape as the teacher's
// api.WSHandler.
type WSHandler struct {
	Sessions *SessionRegistry
	Log      *zap.Logger
}

// HandleWS upgrades the connection, then loops reading frames and
// dispatching each through HandleMessage against whichever session an
// earlier OPEN frame on this connection established. A connection may OPEN
// at most one session; subsequent OPENs replace which session subsequent
// frames target, but don't close the previous one (other clients may still
// be subscribed to it).
func (h *WSHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := func(msgType string, payload any) error {
		return conn.WriteJSON(map[string]any{"type": msgType, "data": payload})
	}
	cl := &Client{Send: send}

	var sess *Session
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			h.logClose(err)
			break
		}

		msg, err := DecodeMessage(raw)
		if err != nil {
			send("error", map[string]string{"error": "invalid JSON"})
			continue
		}

		if msg.Type == "OPEN" {
			var o Open
			if err := json.Unmarshal(raw, &o); err != nil {
				send("error", map[string]string{"error": "bad open: " + err.Error()})
				continue
			}
			if sess != nil {
				sess.Mu.Lock()
				delete(sess.Clients, cl)
				sess.Mu.Unlock()
			}
			sess = h.Sessions.Open(uuid.NewString(), o.SQL)
			sess.Mu.Lock()
			sess.Clients[cl] = struct{}{}
			sess.Mu.Unlock()
			send("opened", map[string]string{"sessionId": sess.ID})
			continue
		}

		if sess == nil {
			send("error", map[string]string{"error": "no open session; send OPEN first"})
			continue
		}
		if err := HandleMessage(raw, sess, send); err != nil {
			h.Log.Warn("ws send failed", zap.Error(err))
			break
		}
	}

	if sess != nil {
		sess.Mu.Lock()
		delete(sess.Clients, cl)
		sess.Mu.Unlock()
	}
}

func (h *WSHandler) logClose(err error) {
	if ce, ok := err.(*websocket.CloseError); ok {
		if ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway {
			h.Log.Info("ws closed", zap.Int("code", ce.Code))
			return
		}
		h.Log.Warn("ws closed abnormally", zap.Int("code", ce.Code), zap.String("text", ce.Text))
		return
	}
	h.Log.Error("ws read error", zap.Error(err))
}

package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/sprite-ai/specgate/internal/model"
	"github.com/sprite-ai/specgate/internal/review"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // the server binds to localhost by default
	},
}

// WebSocket message types from client.
const (
	wsMsgLoadPending = "load_pending"
	wsMsgApprove     = "approve"
	wsMsgReject      = "reject"
	wsMsgDefer       = "defer"
	wsMsgUndo        = "undo"
	wsMsgFinish      = "finish"
)

// WebSocket message types to client.
const (
	wsMsgPending  = "pending"
	wsMsgDecision = "decision"
	wsMsgSummary  = "summary"
	wsMsgError    = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsLoadPending is the payload for "load_pending". An empty device type
// loads every device.
type wsLoadPending struct {
	DeviceType string `json:"device_type,omitempty"`
}

// wsDecisionMsg is the payload for approve/reject/defer/undo messages.
type wsDecisionMsg struct {
	DeviceType string `json:"device_type"`
	MessageID  string `json:"message_id"`
	Notes      string `json:"notes,omitempty"`
}

type wsPendingResponse struct {
	Messages []review.PendingMessage `json:"messages"`
}

type wsDecisionResponse struct {
	DeviceType string `json:"device_type"`
	MessageID  string `json:"message_id"`
	Decision   string `json:"decision"`
}

type wsSummaryResponse struct {
	Approved int                  `json:"approved"`
	Rejected int                  `json:"rejected"`
	Deferred int                  `json:"deferred"`
	Pending  int                  `json:"pending"`
	Applied  int                  `json:"applied"`
	Messages []wsDecisionResponse `json:"messages"`
}

type sessionKey struct{ device, message string }

type sessionDecision struct {
	status model.ReviewStatus
	notes  string
}

// reviewSession holds the decisions of one connection until "finish".
type reviewSession struct {
	loaded    bool
	pending   []review.PendingMessage
	known     map[sessionKey]bool
	decisions map[sessionKey]sessionDecision
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store == nil {
		s.writeError(w, http.StatusServiceUnavailable, "review store not configured")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	session := &reviewSession{}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("websocket read")
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendWSError(conn, "invalid message format")
			continue
		}

		switch msg.Type {
		case wsMsgLoadPending:
			s.handleWSLoadPending(conn, session, msg.Data)
		case wsMsgApprove:
			s.handleWSDecision(conn, session, msg.Data, model.ReviewApproved)
		case wsMsgReject:
			s.handleWSDecision(conn, session, msg.Data, model.ReviewRejected)
		case wsMsgDefer:
			s.handleWSDecision(conn, session, msg.Data, model.ReviewDeferred)
		case wsMsgUndo:
			s.handleWSUndo(conn, session, msg.Data)
		case wsMsgFinish:
			s.handleWSFinish(conn, session)
		default:
			s.sendWSError(conn, "unknown message type: "+msg.Type)
		}
	}
}

func (s *Server) handleWSLoadPending(conn *websocket.Conn, session *reviewSession, data json.RawMessage) {
	var req wsLoadPending
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			s.sendWSError(conn, "invalid load_pending data")
			return
		}
	}

	s.storeMu.Lock()
	msgs, err := s.opts.Store.Load()
	s.storeMu.Unlock()
	if err != nil {
		s.sendWSError(conn, "loading review store: "+err.Error())
		return
	}

	pending := []review.PendingMessage{}
	for _, p := range review.Pending(msgs) {
		if req.DeviceType == "" || p.DeviceType == req.DeviceType {
			pending = append(pending, p)
		}
	}

	session.loaded = true
	session.pending = pending
	session.known = make(map[sessionKey]bool, len(pending))
	session.decisions = make(map[sessionKey]sessionDecision)
	for _, p := range pending {
		session.known[sessionKey{p.DeviceType, p.MessageID}] = true
	}

	s.sendWSMessage(conn, wsMsgPending, wsPendingResponse{Messages: pending})
}

func (s *Server) sessionTarget(conn *websocket.Conn, session *reviewSession, data json.RawMessage) (wsDecisionMsg, sessionKey, bool) {
	var req wsDecisionMsg
	if !session.loaded {
		s.sendWSError(conn, "no pending messages loaded")
		return req, sessionKey{}, false
	}
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWSError(conn, "invalid decision data")
		return req, sessionKey{}, false
	}
	k := sessionKey{req.DeviceType, req.MessageID}
	if !session.known[k] {
		s.sendWSError(conn, "message not pending: "+req.DeviceType+"/"+req.MessageID)
		return req, sessionKey{}, false
	}
	return req, k, true
}

func (s *Server) handleWSDecision(conn *websocket.Conn, session *reviewSession, data json.RawMessage, status model.ReviewStatus) {
	req, k, ok := s.sessionTarget(conn, session, data)
	if !ok {
		return
	}
	session.decisions[k] = sessionDecision{status: status, notes: strings.TrimSpace(req.Notes)}
	s.sendWSMessage(conn, wsMsgDecision, wsDecisionResponse{DeviceType: k.device, MessageID: k.message, Decision: string(status)})
}

func (s *Server) handleWSUndo(conn *websocket.Conn, session *reviewSession, data json.RawMessage) {
	_, k, ok := s.sessionTarget(conn, session, data)
	if !ok {
		return
	}
	delete(session.decisions, k)
	s.sendWSMessage(conn, wsMsgDecision, wsDecisionResponse{DeviceType: k.device, MessageID: k.message, Decision: string(model.ReviewPending)})
}

// handleWSFinish writes the session's decisions to the store and reports
// what was recorded. The session stays usable; decided messages drop out of
// the next load_pending.
func (s *Server) handleWSFinish(conn *websocket.Conn, session *reviewSession) {
	if !session.loaded {
		s.sendWSError(conn, "no pending messages loaded")
		return
	}

	resp := wsSummaryResponse{Messages: []wsDecisionResponse{}}
	s.storeMu.Lock()
	for _, p := range session.pending {
		k := sessionKey{p.DeviceType, p.MessageID}
		d, ok := session.decisions[k]
		if !ok {
			resp.Pending++
			resp.Messages = append(resp.Messages, wsDecisionResponse{DeviceType: k.device, MessageID: k.message, Decision: string(model.ReviewPending)})
			continue
		}
		if _, err := review.Review(s.opts.Store, k.device, k.message, d.status, d.notes); err != nil {
			s.log.Error().Err(err).Str("device", k.device).Str("message", k.message).Msg("recording review decision")
			resp.Pending++
			resp.Messages = append(resp.Messages, wsDecisionResponse{DeviceType: k.device, MessageID: k.message, Decision: string(model.ReviewPending)})
			continue
		}
		resp.Applied++
		switch d.status {
		case model.ReviewApproved:
			resp.Approved++
		case model.ReviewRejected:
			resp.Rejected++
		default:
			resp.Deferred++
		}
		resp.Messages = append(resp.Messages, wsDecisionResponse{DeviceType: k.device, MessageID: k.message, Decision: string(d.status)})
	}
	s.storeMu.Unlock()

	session.decisions = make(map[sessionKey]sessionDecision)
	s.log.Info().Int("applied", resp.Applied).Int("pending", resp.Pending).Msg("review session finished")
	s.sendWSMessage(conn, wsMsgSummary, resp)
}

func (s *Server) sendWSMessage(conn *websocket.Conn, msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.log.Error().Err(err).Msg("ws marshal")
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Warn().Err(err).Msg("ws write")
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, errMsg string) {
	s.sendWSMessage(conn, wsMsgError, map[string]string{"message": errMsg})
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/matthewbaird/pedigree/internal/event"
	"github.com/matthewbaird/pedigree/internal/menu"
)

// ── Client → Server messages ────────────────────────────────────────────────

// ClientMessage is the envelope for all client-to-server WebSocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "show", "hide", "input", "click", "answer", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID, or the prompt ID of an answer
	Data json.RawMessage `json:"data,omitempty"`
}

// ShowData opens the menu on a node.
type ShowData struct {
	NodeID string `json:"node_id"`
}

// InputData is one field edit.
type InputData struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// ClickData is a pointer press outside the menu.
type ClickData struct {
	Region string `json:"region"` // "menu", "picker" or "canvas"
}

// AnswerData answers a confirm prompt.
type AnswerData struct {
	OK bool `json:"ok"`
}

// ── Server → Client messages ────────────────────────────────────────────────

// ServerMessage is the envelope for all server-to-client WebSocket messages.
type ServerMessage struct {
	Type      string `json:"type"`                 // "hello", "menu", "legends", "confirm", "notify", "open", "event", "error", "pong"
	RequestID string `json:"request_id,omitempty"` // Echoes client ID, or names a prompt
	Data      any    `json:"data,omitempty"`
}

// HelloData is sent when a client connects.
type HelloData struct {
	ClientID string `json:"client_id"`
}

// PromptData carries a confirmation or notice for a node.
type PromptData struct {
	NodeID  string `json:"node_id"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
}

// EventData summarises a domain event.
type EventData struct {
	Type     string `json:"type"`
	NodeID   string `json:"node_id,omitempty"`
	Summary  string `json:"summary"`
	Severity string `json:"severity"`
}

// ErrorData carries an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DefaultConfirmTimeout bounds how long a confirmation waits for an answer.
const DefaultConfirmTimeout = 5 * time.Minute

const writeTimeout = 5 * time.Second

var regions = map[string]menu.Region{
	"menu":   menu.RegionMenu,
	"picker": menu.RegionPicker,
	"canvas": menu.RegionCanvas,
}

// Hub is the push channel to connected editor pages. It relays
// confirmations and notices from the synchronizer, and re-renders the menu
// and legends when domain events change them.
type Hub struct {
	session Session
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	clients map[string]*websocket.Conn
	answers map[string]chan bool
}

// NewHub returns a hub for session.
func NewHub(session Session, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		session: session,
		logger:  logger.With("component", "ws"),
		timeout: DefaultConfirmTimeout,
		clients: make(map[string]*websocket.Conn),
		answers: make(map[string]chan bool),
	}
}

// SetConfirmTimeout changes how long confirmations wait.
func (h *Hub) SetConfirmTimeout(d time.Duration) {
	if d > 0 {
		h.timeout = d
	}
}

// Clients returns the number of connected pages.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades to WebSocket and runs the message loop.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept", "err", err)
		return
	}
	defer conn.CloseNow()

	id := uuid.New().String()
	h.mu.Lock()
	h.clients[id] = conn
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, id)
		h.mu.Unlock()
	}()

	ctx := r.Context()
	log := h.logger.With("client", id)
	log.Info("client connected")
	h.send(ctx, conn, ServerMessage{Type: "hello", Data: HelloData{ClientID: id}})
	h.send(ctx, conn, ServerMessage{Type: "legends", Data: h.session.Legends()})
	h.send(ctx, conn, ServerMessage{Type: "menu", Data: h.session.View()})

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Info("client disconnected", "status", websocket.CloseStatus(err))
			}
			return
		}
		h.handle(ctx, conn, msg)
	}
}

func (h *Hub) handle(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	var err error
	switch msg.Type {
	case "show":
		var data ShowData
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			err = h.session.ShowMenu(ctx, data.NodeID)
		}
	case "hide":
		h.session.HideMenu(ctx)
	case "input":
		var data InputData
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			err = h.session.Input(ctx, data.Field, data.Value)
		}
	case "click":
		var data ClickData
		if err = json.Unmarshal(msg.Data, &data); err == nil {
			region, ok := regions[data.Region]
			if !ok {
				h.sendError(ctx, conn, msg.ID, "invalid_data", fmt.Sprintf("unknown region: %s", data.Region))
				return
			}
			h.session.ClickOutside(ctx, region)
		}
	case "answer":
		var data AnswerData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			h.sendError(ctx, conn, msg.ID, "invalid_data", "invalid answer data")
			return
		}
		h.answer(msg.ID, data.OK)
		return
	case "ping":
		h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		return
	default:
		h.sendError(ctx, conn, msg.ID, "unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
		return
	}
	if err != nil {
		h.sendError(ctx, conn, msg.ID, "rejected", err.Error())
		return
	}
	h.broadcast(ctx, ServerMessage{Type: "menu", RequestID: msg.ID, Data: h.session.View()})
}

func (h *Hub) answer(promptID string, ok bool) {
	h.mu.Lock()
	ch, found := h.answers[promptID]
	delete(h.answers, promptID)
	h.mu.Unlock()
	if found {
		ch <- ok
	}
}

// Confirm asks every connected page and returns the first answer. With no
// page connected, or none answering in time, the answer is no.
func (h *Hub) Confirm(ctx context.Context, nodeID, message string) (bool, error) {
	if h.Clients() == 0 {
		h.logger.Info("no client to confirm, declining", "node", nodeID)
		return false, nil
	}
	id := uuid.New().String()
	ch := make(chan bool, 1)
	h.mu.Lock()
	h.answers[id] = ch
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.answers, id)
		h.mu.Unlock()
	}()

	h.broadcast(ctx, ServerMessage{Type: "confirm", RequestID: id, Data: PromptData{NodeID: nodeID, Message: message}})

	timer := time.NewTimer(h.timeout)
	defer timer.Stop()
	select {
	case ok := <-ch:
		return ok, nil
	case <-timer.C:
		h.logger.Warn("confirmation timed out", "node", nodeID, "prompt", id)
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (h *Hub) Notify(ctx context.Context, nodeID, message string) {
	h.broadcast(ctx, ServerMessage{Type: "notify", Data: PromptData{NodeID: nodeID, Message: message}})
}

func (h *Hub) Open(ctx context.Context, nodeID, url string) {
	h.broadcast(ctx, ServerMessage{Type: "open", Data: PromptData{NodeID: nodeID, URL: url}})
}

// HandleEvent pushes the state a domain event may have changed.
func (h *Hub) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	if h.Clients() == 0 {
		return nil
	}
	switch {
	case strings.HasPrefix(evt.EventType, "legend:"):
		h.broadcast(ctx, ServerMessage{Type: "legends", Data: h.session.Legends()})
		h.broadcast(ctx, ServerMessage{Type: "menu", Data: h.session.View()})
	case evt.EventType == event.TypeChange, evt.EventType == event.TypeLoadFinished:
		h.broadcast(ctx, ServerMessage{Type: "menu", Data: h.session.View()})
	case evt.Category == event.CategoryIdentity, evt.EventType == event.TypeRecordCreated:
		h.broadcast(ctx, ServerMessage{Type: "menu", Data: h.session.View()})
		h.broadcast(ctx, ServerMessage{Type: "event", Data: EventData{
			Type:     evt.EventType,
			NodeID:   evt.NodeID(),
			Summary:  evt.Summary,
			Severity: evt.Severity,
		}})
	}
	return nil
}

func (h *Hub) broadcast(ctx context.Context, msg ServerMessage) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for _, c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		h.send(ctx, c, msg)
	}
}

func (h *Hub) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		h.logger.Debug("write error", "type", msg.Type, "err", err)
	}
}

func (h *Hub) sendError(ctx context.Context, conn *websocket.Conn, requestID, code, message string) {
	h.send(ctx, conn, ServerMessage{
		Type:      "error",
		RequestID: requestID,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}

package live

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/weather-chat/backend/internal/handler/stream"
	agentService "github.com/zhouzirui/weather-chat/backend/internal/service/agent"
	chatService "github.com/zhouzirui/weather-chat/backend/internal/service/chat"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// WebSocketHandler gives a browser UI a full-duplex view of one session:
// it pushes every session update and accepts submit and cancel commands.
type WebSocketHandler struct {
	chatSvc  *chatService.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates the websocket handler.
func NewWebSocketHandler(chatSvc *chatService.Service, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		chatSvc: chatSvc,
		logger:  logger.Named("websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes registers the websocket route.
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// Inbound command types.
const (
	commandSubmit = "submit"
	commandCancel = "cancel"
)

type inboundMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := h.logger.With(zap.String("session", sessionID))
	logger.Debug("connection opened")
	defer logger.Debug("connection closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	feed := stream.Subscribe(session, stream.DefaultFeedBuffer)
	defer feed.Close()

	replies := make(chan outgoingMessage, 8)
	go h.readLoop(ctx, cancel, conn, session, replies)

	if err := h.write(conn, outgoingMessage{Type: "snapshot", SessionID: sessionID, Data: session.Snapshot()}); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var msg outgoingMessage
		select {
		case <-ctx.Done():
			return
		case <-feed.Lagged():
			_ = h.write(conn, outgoingMessage{Type: "lagged", SessionID: sessionID})
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
			continue
		case u := <-feed.Updates():
			msg = outgoingMessage{Type: string(u.Kind), SessionID: sessionID, Data: u}
		case msg = <-replies:
		}

		if err := h.write(conn, msg); err != nil {
			logger.Debug("write failed", zap.Error(err))
			return
		}
	}
}

// readLoop is the only reader of conn; all writes stay on the handler goroutine.
func (h *WebSocketHandler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, session *chatService.Session, replies chan<- outgoingMessage) {
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		if reply, ok := h.handleCommand(session, msg); ok {
			select {
			case replies <- reply:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleCommand(session *chatService.Session, msg inboundMessage) (outgoingMessage, bool) {
	switch msg.Type {
	case commandSubmit:
		_, err := session.Submit(context.Background(), msg.Content)
		switch {
		case err == nil:
			return outgoingMessage{}, false
		case errors.Is(err, agentService.ErrEmptyInput):
			return errorMessage(session.ID(), "content is required"), true
		default:
			return errorMessage(session.ID(), err.Error()), true
		}
	case commandCancel:
		if !session.Cancel() {
			return errorMessage(session.ID(), "no turn in progress"), true
		}
		return outgoingMessage{}, false
	default:
		return errorMessage(session.ID(), "unknown message type: "+msg.Type), true
	}
}

func (h *WebSocketHandler) write(conn *websocket.Conn, msg outgoingMessage) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func errorMessage(sessionID, message string) outgoingMessage {
	return outgoingMessage{
		Type:      "error",
		SessionID: sessionID,
		Data:      map[string]string{"error": message},
	}
}

package stream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	chatService "github.com/zhouzirui/weather-chat/backend/internal/service/chat"
	"github.com/zhouzirui/weather-chat/backend/pkg/utils"
)

const keepAliveInterval = 15 * time.Second

// Handler streams session updates as Server-Sent Events.
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New creates the SSE handler.
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger.Named("sse"),
	}
}

// RegisterRoutes registers the event feed route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session/{sessionID}/events", h.HandleEvents)
}

// HandleEvents sends a "snapshot" event followed by one event per session
// update, named after the update kind, until the client goes away.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	feed := Subscribe(session, DefaultFeedBuffer)
	defer feed.Close()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := utils.SendSSEEvent(w, flusher, "snapshot", session.Snapshot()); err != nil {
		return
	}

	h.logger.Debug("feed opened", zap.String("session", sessionID))
	defer h.logger.Debug("feed closed", zap.String("session", sessionID))

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-feed.Lagged():
			_ = utils.SendSSEEvent(w, flusher, "lagged", map[string]string{"sessionId": sessionID})
			return
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		case u := <-feed.Updates():
			if err := utils.SendSSEEvent(w, flusher, string(u.Kind), u); err != nil {
				h.logger.Debug("feed write failed", zap.Error(err))
				return
			}
		}
	}
}

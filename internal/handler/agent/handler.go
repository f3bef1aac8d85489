package agent

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/weather-chat/backend/internal/model/agent"
	"github.com/zhouzirui/weather-chat/backend/pkg/utils"
)

// Handler serves the agent profiles.
type Handler struct {
	agents agent.Store
}

// New creates the profile handler.
func New(agents agent.Store) *Handler {
	return &Handler{
		agents: agents,
	}
}

// RegisterRoutes registers the profile routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/agents", h.handleListAgents)
}

func (h *Handler) handleListAgents(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.agents.List())
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zhouzirui/weather-chat/backend/internal/handler/agent"
	"github.com/zhouzirui/weather-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/weather-chat/backend/internal/handler/live"
	"github.com/zhouzirui/weather-chat/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/weather-chat/backend/internal/middleware"
	agentModel "github.com/zhouzirui/weather-chat/backend/internal/model/agent"
	chatService "github.com/zhouzirui/weather-chat/backend/internal/service/chat"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Agents  agentModel.Store
	Chat    *chatService.Service
	Logger  *zap.Logger
	Metrics prometheus.Gatherer
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	agentHandler := agent.New(deps.Agents)
	chatHandler := chat.New(deps.Chat)
	streamHandler := stream.New(deps.Chat, logger)
	wsHandler := live.NewWebSocketHandler(deps.Chat, logger)

	r.Route("/api", func(api chi.Router) {
		agentHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterWebSocketRoutes(api)
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	return r
}

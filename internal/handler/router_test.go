package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zhouzirui/weather-chat/backend/internal/metrics"
	agentModel "github.com/zhouzirui/weather-chat/backend/internal/model/agent"
	"github.com/zhouzirui/weather-chat/backend/internal/service/agent"
	chatService "github.com/zhouzirui/weather-chat/backend/internal/service/chat"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)
	recorder.FrameSkipped("malformed")

	store := agentModel.NewMemoryStore(agentModel.Seed())
	client, err := agent.NewClient(agent.ClientConfig{Endpoint: "http://127.0.0.1:0/stream"})
	if err != nil {
		t.Fatalf("NewClient err: %v", err)
	}
	chatSvc := chatService.NewService(store, client, chatService.Options{Metrics: recorder})

	return NewRouter(Deps{Agents: store, Chat: chatSvc, Metrics: registry})
}

func TestRouterServesAPI(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), agentModel.DefaultID) {
		t.Fatalf("expected agent list, got %s", resp.Body.String())
	}
}

func TestRouterServesMetrics(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "weatherchat_") {
		t.Fatalf("expected weatherchat metrics, got %s", resp.Body.String())
	}
}

func TestRouterPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

package agent

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/weather-chat/backend/internal/model/agent"
)

func TestListAgents(t *testing.T) {
	r := chi.NewRouter()
	New(agent.NewMemoryStore(agent.Seed())).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var got []agent.Profile
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode agents: %v", err)
	}
	if len(got) != 1 || got[0].ID != agent.DefaultID {
		t.Fatalf("expected the weather agent, got %+v", got)
	}
	if !got[0].Structured {
		t.Fatalf("expected structured results enabled")
	}
}

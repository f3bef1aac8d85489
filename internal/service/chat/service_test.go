package chat_test

import (
	"context"
	"testing"

	agentModel "github.com/zhouzirui/weather-chat/backend/internal/model/agent"
	chat "github.com/zhouzirui/weather-chat/backend/internal/service/chat"
	"github.com/zhouzirui/weather-chat/backend/internal/service/agent"
)

func newService(t *testing.T) *chat.Service {
	t.Helper()
	client, err := agent.NewClient(agent.ClientConfig{Endpoint: "http://127.0.0.1:0/stream"})
	if err != nil {
		t.Fatalf("NewClient err: %v", err)
	}
	return chat.NewService(agentModel.NewMemoryStore(agentModel.Seed()), client, chat.Options{Greeting: true})
}

func TestServiceGetSession(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, agentModel.DefaultID)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID())
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID() != session.ID() {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID(), session.ID())
	}
	if got.AgentID() != agentModel.DefaultID {
		t.Fatalf("unexpected agent ID: got %s", got.AgentID())
	}

	transcript, err := svc.LoadTranscript(ctx, session.ID())
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 1 {
		t.Fatalf("expected greeting only, got %d messages", len(transcript))
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestServiceCreateSessionUnknownAgent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateSession(ctx, ""); err != chat.ErrAgentRequired {
		t.Fatalf("expected ErrAgentRequired, got %v", err)
	}
	if _, err := svc.CreateSession(ctx, "nope"); err != chat.ErrAgentNotFound {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestServiceEndSession(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, agentModel.DefaultID)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if err := svc.EndSession(ctx, session.ID()); err != nil {
		t.Fatalf("EndSession err: %v", err)
	}
	if _, err := svc.GetSession(ctx, session.ID()); err == nil {
		t.Fatal("expected session to be gone")
	}
	if err := svc.EndSession(ctx, session.ID()); err == nil {
		t.Fatal("expected error ending a missing session")
	}
}

package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/weather-chat/backend/internal/metrics"
	agentModel "github.com/zhouzirui/weather-chat/backend/internal/model/agent"
	"github.com/zhouzirui/weather-chat/backend/internal/model/chat"
	"github.com/zhouzirui/weather-chat/backend/internal/service/agent"
)

var (
	ErrAgentRequired   = errors.New("agent id is required")
	ErrAgentNotFound   = errors.New("agent not found")
	ErrSessionNotFound = errors.New("session not found")
)

// Options configures sessions created by the Service.
type Options struct {
	Request   agent.Options
	Greeting  bool
	ChunkSize int
	Logger    *zap.Logger
	Metrics   *metrics.Recorder
}

// Service keeps the live sessions of the HTTP surface in memory. Nothing
// outlives the process.
type Service struct {
	profiles  agentModel.Store
	transport Transport
	opts      Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates an empty session registry.
func NewService(profiles agentModel.Store, transport Transport, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		profiles:  profiles,
		transport: transport,
		opts:      opts,
		sessions:  make(map[string]*Session),
	}
}

// CreateSession starts a session bound to an agent profile.
func (s *Service) CreateSession(_ context.Context, agentID string) (*Session, error) {
	if agentID == "" {
		return nil, ErrAgentRequired
	}

	profile, ok := s.profiles.FindByID(agentID)
	if !ok {
		return nil, ErrAgentNotFound
	}

	session, err := NewSession(SessionConfig{
		ID:        uuid.NewString(),
		Profile:   profile,
		Builder:   agent.NewBuilder(profile, s.opts.Request),
		Transport: s.transport,
		Greeting:  s.opts.Greeting,
		ChunkSize: s.opts.ChunkSize,
		Logger:    s.opts.Logger,
		Metrics:   s.opts.Metrics,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	s.opts.Logger.Info("session created", zap.String("session", session.ID()), zap.String("agent", agentID))
	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// LoadTranscript returns the messages of the provided session.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Messages(), nil
}

// EndSession cancels any in-flight turn and forgets the session.
func (s *Service) EndSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Cancel()
	return nil
}

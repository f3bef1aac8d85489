package chat

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/weather-chat/backend/internal/metrics"
	agentModel "github.com/zhouzirui/weather-chat/backend/internal/model/agent"
	"github.com/zhouzirui/weather-chat/backend/internal/model/chat"
	"github.com/zhouzirui/weather-chat/backend/internal/service/agent"
	"github.com/zhouzirui/weather-chat/backend/internal/stream"
)

// FailureNotice is appended as the assistant reply when a turn fails.
const FailureNotice = "Error fetching weather. Please try again."

// maxLoggedLine bounds how much of a skipped record goes into the log.
const maxLoggedLine = 256

// ErrBusy is returned by Submit while a turn is in flight.
var ErrBusy = errors.New("a turn is already in progress")

// Transport opens the agent stream for one request.
type Transport interface {
	Open(ctx context.Context, req agentModel.OutboundRequest) (io.ReadCloser, error)
}

// Observer receives every session update in mutation order. Observers run
// synchronously on the goroutine that changed the session; they may read the
// session but must not call Submit or Send.
type Observer func(chat.Update)

// SessionConfig wires a Session.
type SessionConfig struct {
	ID        string
	Profile   agentModel.Profile
	Builder   *agent.Builder
	Transport Transport
	// Greeting seeds the log with the profile greeting.
	Greeting  bool
	ChunkSize int
	Logger    *zap.Logger
	Metrics   *metrics.Recorder
	Now       func() time.Time
}

// Session is the ChatSession state machine. It owns the conversation log,
// which only ever grows, and allows one turn in flight at a time:
//
//	Idle -> Sending -> Streaming -> Idle
//	Idle -> Sending [-> Streaming] -> Error -> Idle
type Session struct {
	id        string
	profile   agentModel.Profile
	builder   *agent.Builder
	transport Transport
	chunkSize int
	logger    *zap.Logger
	metrics   *metrics.Recorder
	now       func() time.Time

	// notifyMu orders mutations together with their notifications.
	notifyMu sync.Mutex

	mu           sync.Mutex
	state        chat.State
	log          []chat.Message
	cancel       context.CancelFunc
	observers    map[int]Observer
	nextObserver int
}

// NewSession creates an idle session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Transport == nil {
		return nil, errors.New("session transport is required")
	}
	if cfg.Builder == nil {
		cfg.Builder = agent.NewBuilder(cfg.Profile, agent.Options{})
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		id:        cfg.ID,
		profile:   cfg.Profile,
		builder:   cfg.Builder,
		transport: cfg.Transport,
		chunkSize: cfg.ChunkSize,
		logger:    logger.Named("session").With(zap.String("session", cfg.ID)),
		metrics:   cfg.Metrics,
		now:       cfg.Now,
		state:     chat.StateIdle,
		log:       make([]chat.Message, 0, 16),
		observers: make(map[int]Observer),
	}

	if cfg.Greeting && strings.TrimSpace(cfg.Profile.Greeting) != "" {
		s.log = append(s.log, s.newMessage(chat.RoleAssistant, cfg.Profile.Greeting))
	}

	return s, nil
}

// ID returns the session identifier, also sent upstream as the thread id.
func (s *Session) ID() string {
	return s.id
}

// AgentID returns the profile the session talks to.
func (s *Session) AgentID() string {
	return s.profile.ID
}

// State returns the current state.
func (s *Session) State() chat.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the conversation log.
func (s *Session) Messages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Snapshot returns the state and log as one consistent view.
func (s *Session) Snapshot() chat.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return chat.Snapshot{
		ID:       s.id,
		AgentID:  s.profile.ID,
		State:    s.state,
		Messages: s.snapshotLocked(),
	}
}

// Subscribe registers fn for future updates and returns a function removing it.
func (s *Session) Subscribe(fn Observer) func() {
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Submit starts a turn. The user message is appended before Submit returns;
// the reply is streamed on a separate goroutine tracked by the returned Turn.
// Blank input and submits while a turn is in flight leave the log unchanged.
// Cancelling ctx aborts the turn.
func (s *Session) Submit(ctx context.Context, userText string) (*Turn, error) {
	req, err := s.builder.Build(userText, s.id)
	if err != nil {
		return nil, err
	}

	var (
		turnCtx context.Context
		cancel  context.CancelFunc
		busy    bool
	)
	s.mutate(func() []chat.Update {
		if s.state != chat.StateIdle {
			busy = true
			return nil
		}

		msg := s.newMessage(chat.RoleUser, userText)
		s.log = append(s.log, msg)
		s.state = chat.StateSending
		turnCtx, cancel = context.WithCancel(ctx)
		s.cancel = cancel

		return []chat.Update{
			s.updateLocked(chat.UpdateAppend, &msg),
			s.updateLocked(chat.UpdateState, nil),
		}
	})
	if busy {
		return nil, ErrBusy
	}

	turn := &Turn{done: make(chan struct{})}
	go s.run(turnCtx, cancel, req, turn)
	return turn, nil
}

// Send submits userText and waits for the turn to finish. On failure the
// returned message is the appended failure notice, if any.
func (s *Session) Send(ctx context.Context, userText string) (chat.Message, error) {
	turn, err := s.Submit(ctx, userText)
	if err != nil {
		return chat.Message{}, err
	}
	err = turn.Wait()
	reply, _ := turn.Reply()
	return reply, err
}

// Cancel aborts the in-flight turn, if any, and reports whether one existed.
// Once the reply is committed the turn can no longer be cancelled.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

func (s *Session) run(ctx context.Context, cancel context.CancelFunc, req agentModel.OutboundRequest, turn *Turn) {
	defer close(turn.done)
	defer cancel()

	start := s.now()

	body, err := s.transport.Open(ctx, req)
	if err != nil {
		s.fail(ctx, turn, start, err)
		return
	}
	defer body.Close()

	// Closing the body unblocks a read parked on a stalled connection.
	stop := context.AfterFunc(ctx, func() { body.Close() })
	defer stop()

	s.transition(chat.StateStreaming)

	dec := stream.NewDecoder(
		stream.WithResults(s.profile.Structured),
		stream.WithSkipHandler(s.onSkip),
	)
	agg := stream.NewAggregator()

	events := stream.NewEventReader(ctx, body, dec, s.chunkSize)
	defer events.Close()

	for {
		ev, err := events.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.fail(ctx, turn, start, &agent.TransportError{Err: err})
			return
		}

		agg.Apply(ev)
		s.mutate(func() []chat.Update {
			u := s.updateLocked(chat.UpdatePartial, nil)
			u.Pending = agg.Pending()
			return []chat.Update{u}
		})
	}

	// Commit point: a later Cancel reports false instead of racing the reply.
	s.mu.Lock()
	cancelled := ctx.Err() != nil
	if !cancelled {
		s.cancel = nil
	}
	s.mu.Unlock()
	if cancelled {
		s.fail(ctx, turn, start, ctx.Err())
		return
	}

	stats := dec.Stats()
	s.metrics.FramesDecoded(stats.Decoded)

	reply := s.complete(agg.Text())
	turn.reply = &reply

	results, contents := agg.Counts()
	elapsed := s.now().Sub(start)
	s.metrics.TurnFinished(metrics.OutcomeOK, elapsed)
	s.logger.Info("turn completed",
		zap.Duration("duration", elapsed),
		zap.Int("results", results),
		zap.Int("contents", contents),
		zap.Int("skipped", stats.Skipped),
	)
}

// complete appends the assistant reply and returns to Idle.
func (s *Session) complete(text string) chat.Message {
	var msg chat.Message
	s.mutate(func() []chat.Update {
		msg = s.newMessage(chat.RoleAssistant, text)
		s.log = append(s.log, msg)
		s.state = chat.StateIdle
		s.cancel = nil
		return []chat.Update{
			s.updateLocked(chat.UpdateAppend, &msg),
			s.updateLocked(chat.UpdateState, nil),
		}
	})
	return msg
}

// fail ends a turn that did not complete. A cancelled turn returns to Idle
// without a reply; any other failure passes through Error and appends
// FailureNotice.
func (s *Session) fail(ctx context.Context, turn *Turn, start time.Time, err error) {
	elapsed := s.now().Sub(start)

	if errors.Is(ctx.Err(), context.Canceled) {
		turn.err = context.Canceled
		s.mutate(func() []chat.Update {
			s.state = chat.StateIdle
			s.cancel = nil
			return []chat.Update{s.updateLocked(chat.UpdateState, nil)}
		})
		s.metrics.TurnFinished(metrics.OutcomeCancelled, elapsed)
		s.logger.Info("turn cancelled", zap.Duration("duration", elapsed))
		return
	}

	var tErr *agent.TransportError
	if !errors.As(err, &tErr) {
		err = &agent.TransportError{Err: err}
	}
	turn.err = err

	s.logger.Warn("turn failed", zap.Error(err), zap.Duration("duration", elapsed))
	s.metrics.TurnFinished(metrics.OutcomeError, elapsed)

	s.transition(chat.StateError)
	notice := s.complete(FailureNotice)
	turn.reply = &notice
}

func (s *Session) transition(state chat.State) {
	s.mutate(func() []chat.Update {
		s.state = state
		return []chat.Update{s.updateLocked(chat.UpdateState, nil)}
	})
}

func (s *Session) onSkip(skip stream.Skip) {
	s.metrics.FrameSkipped(string(skip.Reason))

	line := skip.Line
	if len(line) > maxLoggedLine {
		line = line[:maxLoggedLine]
	}
	s.logger.Debug("stream record skipped",
		zap.String("reason", string(skip.Reason)),
		zap.String("line", line),
		zap.Error(skip.Err),
	)
}

// mutate applies fn under the state lock and then delivers the updates it
// returns, keeping notification order equal to mutation order.
func (s *Session) mutate(fn func() []chat.Update) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	updates := fn()
	observers := make([]Observer, 0, len(s.observers))
	for _, obs := range s.observers {
		observers = append(observers, obs)
	}
	s.mu.Unlock()

	for _, u := range updates {
		for _, obs := range observers {
			obs(u)
		}
	}
}

func (s *Session) updateLocked(kind chat.UpdateKind, appended *chat.Message) chat.Update {
	u := chat.Update{
		Kind:      kind,
		SessionID: s.id,
		State:     s.state,
	}
	if kind == chat.UpdateAppend {
		u.Messages = s.snapshotLocked()
		if appended != nil {
			msg := *appended
			u.Appended = &msg
		}
	}
	return u
}

func (s *Session) snapshotLocked() []chat.Message {
	copied := make([]chat.Message, len(s.log))
	copy(copied, s.log)
	return copied
}

func (s *Session) newMessage(role chat.Role, content string) chat.Message {
	now := s.now()
	return chat.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: chat.DisplayTime(now),
		CreatedAt: now.UTC(),
	}
}

// Turn tracks one submitted message until its reply is appended.
type Turn struct {
	done  chan struct{}
	err   error
	reply *chat.Message
}

// Done is closed when the session is back to Idle.
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the turn ends. It returns nil on success, a
// *agent.TransportError when the failure notice was appended, or
// context.Canceled when the turn was aborted.
func (t *Turn) Wait() error {
	<-t.done
	return t.err
}

// Reply returns the assistant message the turn appended, if any.
func (t *Turn) Reply() (chat.Message, bool) {
	select {
	case <-t.done:
	default:
		return chat.Message{}, false
	}
	if t.reply == nil {
		return chat.Message{}, false
	}
	return *t.reply, true
}

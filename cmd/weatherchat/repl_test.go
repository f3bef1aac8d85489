package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agentModel "github.com/zhouzirui/weather-chat/backend/internal/model/agent"
	chatService "github.com/zhouzirui/weather-chat/backend/internal/service/chat"
)

type scriptTransport struct {
	bodies []string
	err    error
	calls  int
}

func (s *scriptTransport) Open(context.Context, agentModel.OutboundRequest) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	body := s.bodies[s.calls%len(s.bodies)]
	s.calls++
	return io.NopCloser(strings.NewReader(body)), nil
}

func newTestSession(t *testing.T, transport chatService.Transport, greeting bool) *chatService.Session {
	t.Helper()
	profile := agentModel.Seed()[0]
	session, err := chatService.NewSession(chatService.SessionConfig{
		Profile:   profile,
		Transport: transport,
		Greeting:  greeting,
	})
	require.NoError(t, err)
	return session
}

func TestREPLStreamsContentReply(t *testing.T) {
	transport := &scriptTransport{bodies: []string{"0:{\"content\":\"Sunny \"}\n0:{\"content\":\"today\"}\n"}}
	session := newTestSession(t, transport, true)
	var out bytes.Buffer

	err := newREPL(session, &out).run(context.Background(), strings.NewReader("weather in Pune\n/quit\n"), make(chan os.Signal))
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Hi! Ask me about the weather")
	assert.Contains(t, got, "Agent: Sunny today\n")
	assert.Equal(t, 1, strings.Count(got, "Sunny today"))
	assert.Equal(t, 1, transport.calls)
}

func TestREPLPrintsStructuredResult(t *testing.T) {
	wire := `a:{"result":{"location":"Pune","temperature":28,"feelsLike":30,"conditions":"Haze","humidity":55,"windSpeed":8,"windGust":12}}` + "\n"
	session := newTestSession(t, &scriptTransport{bodies: []string{wire}}, false)
	var out bytes.Buffer

	err := newREPL(session, &out).run(context.Background(), strings.NewReader("weather in Pune\n"), make(chan os.Signal))
	require.NoError(t, err)

	assert.Contains(t, out.String(), "📍 Weather in Pune")
	assert.Contains(t, out.String(), "Conditions: Haze")
}

func TestREPLShowsFailureNotice(t *testing.T) {
	session := newTestSession(t, &scriptTransport{err: io.ErrUnexpectedEOF}, false)
	var out bytes.Buffer

	err := newREPL(session, &out).run(context.Background(), strings.NewReader("weather in Oslo\n"), make(chan os.Signal))
	require.NoError(t, err)

	assert.Contains(t, out.String(), chatService.FailureNotice)
}

func TestREPLSkipsBlankLines(t *testing.T) {
	transport := &scriptTransport{bodies: []string{"0:{\"content\":\"ok\"}\n"}}
	session := newTestSession(t, transport, false)
	var out bytes.Buffer

	err := newREPL(session, &out).run(context.Background(), strings.NewReader("\n   \n/exit\n"), make(chan os.Signal))
	require.NoError(t, err)

	assert.Equal(t, 0, transport.calls)
	assert.Empty(t, session.Messages())
}

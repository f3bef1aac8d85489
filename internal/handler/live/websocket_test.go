package live

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agentModel "github.com/zhouzirui/weather-chat/backend/internal/model/agent"
	"github.com/zhouzirui/weather-chat/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/weather-chat/backend/internal/service/chat"
)

type bodyTransport string

func (b bodyTransport) Open(context.Context, agentModel.OutboundRequest) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(b))), nil
}

type received struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

func dial(t *testing.T, body string) (*websocket.Conn, *chatservice.Session) {
	t.Helper()

	store := agentModel.NewMemoryStore(agentModel.Seed())
	chatSvc := chatservice.NewService(store, bodyTransport(body), chatservice.Options{})
	session, err := chatSvc.CreateSession(context.Background(), agentModel.DefaultID)
	require.NoError(t, err)

	r := chi.NewRouter()
	NewWebSocketHandler(chatSvc, nil).RegisterWebSocketRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + session.ID()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn, session
}

func readMessage(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketSubmitStreamsReply(t *testing.T) {
	conn, session := dial(t, `a:{"result":{"location":"Pune","temperature":28,"feelsLike":30,"conditions":"Haze","humidity":55,"windSpeed":8,"windGust":12}}`+"\n")

	first := readMessage(t, conn)
	require.Equal(t, "snapshot", first.Type)
	assert.Equal(t, session.ID(), first.SessionID)

	require.NoError(t, conn.WriteJSON(inboundMessage{Type: commandSubmit, Content: "weather in Pune"}))

	var replies []chat.Message
	for len(replies) < 2 {
		msg := readMessage(t, conn)
		if msg.Type != string(chat.UpdateAppend) {
			continue
		}
		var u chat.Update
		require.NoError(t, json.Unmarshal(msg.Data, &u))
		require.NotNil(t, u.Appended)
		replies = append(replies, *u.Appended)
	}

	assert.Equal(t, chat.RoleUser, replies[0].Role)
	assert.Equal(t, chat.RoleAssistant, replies[1].Role)
	assert.Contains(t, replies[1].Content, "📍 Weather in Pune")
}

func TestWebSocketRejectsBadCommands(t *testing.T) {
	conn, _ := dial(t, "")
	require.Equal(t, "snapshot", readMessage(t, conn).Type)

	tests := []struct {
		name string
		in   inboundMessage
		want string
	}{
		{name: "blank submit", in: inboundMessage{Type: commandSubmit, Content: "  "}, want: "content is required"},
		{name: "cancel while idle", in: inboundMessage{Type: commandCancel}, want: "no turn in progress"},
		{name: "unknown type", in: inboundMessage{Type: "shout"}, want: "unknown message type: shout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteJSON(tt.in))

			msg := readMessage(t, conn)
			require.Equal(t, "error", msg.Type)
			var data map[string]string
			require.NoError(t, json.Unmarshal(msg.Data, &data))
			assert.Equal(t, tt.want, data["error"])
		})
	}
}

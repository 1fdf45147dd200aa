package http

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"twitchchat/internal/app/adapters/events"
	"twitchchat/internal/app/adapters/platform/twitch/chat"
	"twitchchat/internal/app/domain/irc"
	"twitchchat/internal/app/domain/message"
	"twitchchat/internal/app/infrastructure/config"
	"twitchchat/internal/app/infrastructure/storage"
	"twitchchat/pkg/logger"
)

const token = "secret"

type fakeChat struct {
	mu      sync.Mutex
	calls   []string
	wanted  map[string]bool
	sendErr error
}

func newFakeChat() *fakeChat {
	return &fakeChat{wanted: make(map[string]bool)}
}

func (f *fakeChat) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeChat) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeChat) Join(channel string) error {
	f.mu.Lock()
	f.wanted[channel] = true
	f.mu.Unlock()
	f.record("join " + channel)
	return nil
}

func (f *fakeChat) Part(channel string) error {
	f.mu.Lock()
	delete(f.wanted, channel)
	f.mu.Unlock()
	f.record("part " + channel)
	return nil
}

func (f *fakeChat) Say(_ context.Context, channel, text string) error {
	f.record("say " + channel + " " + text)
	return f.sendErr
}

func (f *fakeChat) Me(_ context.Context, channel, text string) error {
	f.record("me " + channel + " " + text)
	return f.sendErr
}

func (f *fakeChat) Reply(_ context.Context, channel, parentID, text string, action bool) error {
	call := "reply " + channel + " " + parentID + " " + text
	if action {
		call += " (action)"
	}
	f.record(call)
	return f.sendErr
}

func (f *fakeChat) ChannelStatus(_ context.Context, channel string) (chat.ChannelStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return chat.ChannelStatus{Wanted: f.wanted[channel]}, nil
}

type fixture struct {
	router  *Router
	chat    *fakeChat
	hub     *events.Hub
	manager *config.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager, err := config.New(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, manager.Update(func(cfg *config.Config) { cfg.App.AuthToken = token }))

	f := &fixture{
		chat:    newFakeChat(),
		hub:     events.New(logger.NewNop(), storage.NewCache[*message.RoomState](10, time.Hour)),
		manager: manager,
	}
	f.router = NewRouter(logger.NewNop(), manager, f.chat, f.hub)
	return f
}

func (f *fixture) do(method, path, body string, authorized bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorized {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.Handler().ServeHTTP(w, req)
	return w
}

func parse(t *testing.T, line string) message.ServerMessage {
	t.Helper()
	src, err := irc.Parse(line)
	require.NoError(t, err)
	msg, err := message.Parse(src)
	require.NoError(t, err)
	return msg
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/channels/foo", "", false).Code)

	req := httptest.NewRequest(http.MethodPost, "/channels/foo", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	f.router.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Empty(t, f.chat.Calls())
}

func TestRouter_EmptyTokenStaysClosed(t *testing.T) {
	f := newFixture(t)

	err := f.manager.Update(func(cfg *config.Config) { cfg.App.AuthToken = "" })
	assert.ErrorContains(t, err, "app.auth_token")

	r := NewRouter(logger.NewNop(), f.manager, f.chat, f.hub)
	req := httptest.NewRequest(http.MethodPost, "/channels/foo/messages", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.chat.Calls())
}

func TestRouter_JoinPartPersisted(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/channels/%23Foo", "", true)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"channel":"foo","wanted":true,"joined":false}`, w.Body.String())
	assert.Contains(t, f.manager.Get().App.Channels, "foo")

	w = f.do(http.MethodGet, "/channels/foo", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"channel":"foo","wanted":true,"joined":false}`, w.Body.String())

	w = f.do(http.MethodDelete, "/channels/foo", "", true)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.NotContains(t, f.manager.Get().App.Channels, "foo")

	assert.Equal(t, []string{"join foo", "part foo"}, f.chat.Calls())
}

func TestRouter_ChannelIncludesRoomState(t *testing.T) {
	f := newFixture(t)
	f.hub.Dispatch(parse(t, "@emote-only=1;room-id=1;slow=5 :tmi.twitch.tv ROOMSTATE #foo"))

	w := f.do(http.MethodGet, "/channels/foo", "", true)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		RoomState map[string]any `json:"room_state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.RoomState)
	assert.Equal(t, "roomstate", resp.RoomState["type"])
	assert.Equal(t, true, resp.RoomState["emote_only"])
}

func TestRouter_InvalidChannel(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/channels/a,b", "", true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.chat.Calls())
}

func TestRouter_Send(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "say", body: `{"text":"hello"}`, want: "say foo hello"},
		{name: "action", body: `{"text":"waves","action":true}`, want: "me foo waves"},
		{name: "reply", body: `{"text":"hi","reply_to":"abc"}`, want: "reply foo abc hi"},
		{name: "reply action", body: `{"text":"hi","reply_to":"abc","action":true}`, want: "reply foo abc hi (action)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			w := f.do(http.MethodPost, "/channels/foo/messages", tt.body, true)
			require.Equal(t, http.StatusNoContent, w.Code)
			assert.Equal(t, []string{tt.want}, f.chat.Calls())
		})
	}
}

func TestRouter_SendErrors(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/channels/foo/messages", `{"reply_to":"abc"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.chat.sendErr = chat.ErrClientClosed
	w = f.do(http.MethodPost, "/channels/foo/messages", `{"text":"hi"}`, true)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	f.chat.sendErr = errors.New("write failed")
	w = f.do(http.MethodPost, "/channels/foo/messages", `{"text":"hi"}`, true)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"write failed"}`, w.Body.String())
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/health", "", false)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Contains(t, resp, "uptime")
	assert.Contains(t, resp, "memory_mb")
}

func TestRouter_MetricsBasicAuth(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/metrics", "", false).Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.SetBasicAuth("admin", token)
	w := httptest.NewRecorder()
	f.router.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chat_pool_connections")
}

func TestRouter_EventsFeed(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router.Handler())
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/events?channel=%23Foo"

	ws, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer ws.Close()

	other := parse(t, ":bar!bar@bar.tmi.twitch.tv JOIN #other")
	privmsg := parse(t, "@badge-info=;badges=;color=;display-name=Bar;emotes=;id=1;room-id=1;tmi-sent-ts=1;user-id=2 :bar!bar@bar.tmi.twitch.tv PRIVMSG #foo :hello")

	// the handler subscribes after the upgrade, so keep dispatching until
	// the first message arrives
	stop := make(chan struct{})
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for {
			f.hub.Dispatch(other)
			f.hub.Dispatch(privmsg)
			select {
			case <-stop:
				return
			case <-time.After(20 * time.Millisecond):
			}
		}
	}()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got map[string]any
	err = ws.ReadJSON(&got)
	close(stop)
	<-dispatched

	require.NoError(t, err)
	assert.Equal(t, "privmsg", got["type"])
	assert.Equal(t, "foo", got["channel_login"])
}

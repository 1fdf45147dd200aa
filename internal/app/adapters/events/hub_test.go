package events

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
	"twitchchat/internal/app/domain/irc"
	"twitchchat/internal/app/domain/message"
	"twitchchat/internal/app/infrastructure/storage"
	"twitchchat/pkg/logger"
)

func parse(t *testing.T, line string) message.ServerMessage {
	t.Helper()
	src, err := irc.Parse(line)
	require.NoError(t, err)
	msg, err := message.Parse(src)
	require.NoError(t, err)
	return msg
}

func newHub() *Hub {
	return New(logger.NewNop(), storage.NewCache[*message.RoomState](100, time.Hour))
}

func receive(t *testing.T, ch <-chan message.ServerMessage) message.ServerMessage {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message")
		return nil
	}
}

func TestHub_FanOut(t *testing.T) {
	h := newHub()

	a, cancelA := h.Subscribe()
	defer cancelA()
	b, cancelB := h.Subscribe()
	defer cancelB()

	msg := parse(t, ":foo!foo@foo.tmi.twitch.tv JOIN #bar")
	h.Dispatch(msg)

	assert.Same(t, msg, receive(t, a))
	assert.Same(t, msg, receive(t, b))
}

func TestHub_SlowSubscriberKeepsOrder(t *testing.T) {
	h := newHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	lines := []string{
		":a!a@a.tmi.twitch.tv JOIN #x",
		":b!b@b.tmi.twitch.tv JOIN #x",
		":c!c@c.tmi.twitch.tv JOIN #x",
	}
	for _, line := range lines {
		h.Dispatch(parse(t, line))
	}

	for _, want := range []string{"a", "b", "c"} {
		join, ok := receive(t, ch).(*message.Join)
		require.True(t, ok)
		assert.Equal(t, want, join.UserLogin)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := newHub()
	ch, cancel := h.Subscribe()
	cancel()
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	h.Dispatch(parse(t, "PING :tmi.twitch.tv"))
}

func TestHub_RunClosesSubscriptions(t *testing.T) {
	h := newHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	in := make(chan message.ServerMessage)
	done := make(chan struct{})
	go func() {
		h.Run(context.Background(), in)
		close(done)
	}()

	msg := parse(t, "PING :tmi.twitch.tv")
	in <- msg
	assert.Same(t, msg, receive(t, ch))

	close(in)
	<-done

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := h.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}

func TestHub_RoomStateMerged(t *testing.T) {
	h := newHub()

	h.Dispatch(parse(t, "@emote-only=0;followers-only=-1;r9k=0;room-id=40286300;slow=0;subs-only=0 :tmi.twitch.tv ROOMSTATE #randers"))
	h.Dispatch(parse(t, "@room-id=40286300;slow=10 :tmi.twitch.tv ROOMSTATE #randers"))

	state, ok := h.RoomState("randers")
	require.True(t, ok)
	require.NotNil(t, state.SlowMode)
	assert.Equal(t, 10*time.Second, *state.SlowMode)
	require.NotNil(t, state.EmoteOnly)
	assert.False(t, *state.EmoteOnly)
	require.NotNil(t, state.FollowersOnly)
	assert.False(t, state.FollowersOnly.Enabled)

	assert.Equal(t, []string{"randers"}, h.Rooms())

	_, ok = h.RoomState("other")
	assert.False(t, ok)
}

func TestChannelOf(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{line: ":foo!foo@foo.tmi.twitch.tv JOIN #Bar", want: "bar"},
		{line: "@room-id=1 :tmi.twitch.tv ROOMSTATE #randers", want: "randers"},
		{line: "PING :tmi.twitch.tv", want: ""},
		{line: ":tmi.twitch.tv 001 justinfan12345 :Welcome, GLHF!", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ChannelOf(parse(t, tt.line)))
		})
	}
}

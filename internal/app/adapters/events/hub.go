package events

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"twitchchat/internal/app/adapters/metrics"
	"twitchchat/internal/app/domain/message"
	"twitchchat/internal/app/infrastructure/mailbox"
	"twitchchat/internal/app/infrastructure/storage"
	"twitchchat/pkg/logger"
)

// Hub fans the client's inbound stream out to any number of subscribers and
// keeps the last known settings of every room.
type Hub struct {
	log   logger.Logger
	rooms *storage.Cache[*message.RoomState]

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	done   bool
}

type subscriber struct {
	box    *mailbox.Mailbox[message.ServerMessage]
	out    chan message.ServerMessage
	cancel context.CancelFunc
}

func New(log logger.Logger, rooms *storage.Cache[*message.RoomState]) *Hub {
	return &Hub{
		log:   log,
		rooms: rooms,
		subs:  make(map[int]*subscriber),
	}
}

// Run dispatches every message from in until in is closed or ctx is done.
// All subscriptions end when Run returns.
func (h *Hub) Run(ctx context.Context, in <-chan message.ServerMessage) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				h.log.Info("Event stream ended")
				return
			}
			h.Dispatch(msg)
		}
	}
}

// Dispatch records room state carried by msg and hands msg to every
// subscriber. It never blocks on a slow subscriber.
func (h *Hub) Dispatch(msg message.ServerMessage) {
	start := time.Now()
	defer func() {
		metrics.DispatchTime.Observe(time.Since(start).Seconds())
	}()

	if m, ok := msg.(*message.RoomState); ok {
		h.rooms.Update(m.ChannelLogin, func(old *message.RoomState, found bool) *message.RoomState {
			if !found {
				return m
			}
			return old.Merge(m)
		})
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range h.subs {
		s.box.Push(msg)
	}
}

// Subscribe registers a new subscriber. The returned channel is closed after
// cancel is called or the hub stops.
func (h *Hub) Subscribe() (<-chan message.ServerMessage, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &subscriber{
		box:    mailbox.New[message.ServerMessage](),
		out:    make(chan message.ServerMessage),
		cancel: cancel,
	}

	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		cancel()
		close(s.out)
		return s.out, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = s
	count := len(h.subs)
	h.mu.Unlock()

	metrics.EventSubscribers.Set(float64(count))
	h.log.Debug("Event subscriber added", slog.Int("id", id), slog.Int("subscribers", count))

	go s.pump(ctx)

	return s.out, func() { h.unsubscribe(id) }
}

func (h *Hub) unsubscribe(id int) {
	h.mu.Lock()
	s, ok := h.subs[id]
	if ok {
		delete(h.subs, id)
	}
	count := len(h.subs)
	h.mu.Unlock()

	if !ok {
		return
	}
	s.stop()
	metrics.EventSubscribers.Set(float64(count))
	h.log.Debug("Event subscriber removed", slog.Int("id", id), slog.Int("subscribers", count))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[int]*subscriber)
	h.done = true
	h.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
	metrics.EventSubscribers.Set(0)
}

// RoomState returns the merged settings last seen for channel.
func (h *Hub) RoomState(channel string) (*message.RoomState, bool) {
	return h.rooms.Get(channel)
}

// Rooms lists the channels with known settings.
func (h *Hub) Rooms() []string {
	return h.rooms.Keys()
}

func (s *subscriber) pump(ctx context.Context) {
	defer close(s.out)

	for {
		msg, ok := s.box.Pop(ctx)
		if !ok {
			return
		}

		select {
		case s.out <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (s *subscriber) stop() {
	s.box.Close()
	s.cancel()
}

// ChannelOf returns the channel login a message belongs to, or "" for
// messages that are not bound to a channel.
func ChannelOf(msg message.ServerMessage) string {
	src := msg.Source()
	if src == nil {
		return ""
	}
	param, ok := src.Param(0)
	if !ok || !strings.HasPrefix(param, "#") {
		return ""
	}
	return strings.ToLower(param[1:])
}

package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"log/slog"
	"time"
	"twitchchat/internal/app/adapters/events"
	"twitchchat/internal/app/adapters/platform/twitch/chat"
)

const writeWait = 10 * time.Second

// EventsHandler streams every inbound chat message as JSON over a
// WebSocket. ?channel= limits the feed to one channel.
func (h *Handlers) EventsHandler(c *gin.Context) {
	var filter string
	if raw := c.Query("channel"); raw != "" {
		channel, err := chat.NormalizeChannel(raw)
		if err != nil {
			h.fail(c, err)
			return
		}
		filter = channel
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	feed, cancel := h.events.Subscribe()
	defer cancel()

	// the feed is one-way; reading only notices the peer going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.log.Debug("Event feed opened", slog.String("channel", filter))
	defer h.log.Debug("Event feed closed", slog.String("channel", filter))

	for {
		select {
		case <-gone:
			return
		case msg, ok := <-feed:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if filter != "" && events.ChannelOf(msg) != filter {
				continue
			}

			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(msg); err != nil {
				h.log.Debug("Event feed write failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}

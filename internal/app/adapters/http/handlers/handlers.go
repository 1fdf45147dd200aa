package handlers

import (
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"log/slog"
	"net/http"
	"time"
	"twitchchat/internal/app/adapters/platform/twitch/chat"
	"twitchchat/internal/app/adapters/platform/twitch/chat/connection"
	"twitchchat/internal/app/domain/message"
	"twitchchat/pkg/logger"
)

const requestTimeout = 10 * time.Second

type Chat interface {
	Join(channel string) error
	Part(channel string) error
	Say(ctx context.Context, channel, text string) error
	Me(ctx context.Context, channel, text string) error
	Reply(ctx context.Context, channel, parentID, text string, action bool) error
	ChannelStatus(ctx context.Context, channel string) (chat.ChannelStatus, error)
}

type Events interface {
	Subscribe() (<-chan message.ServerMessage, func())
	RoomState(channel string) (*message.RoomState, bool)
}

// Channels persists the wanted channel list across restarts.
type Channels interface {
	AddChannel(channel string) error
	RemoveChannel(channel string) error
}

type Handlers struct {
	log      logger.Logger
	chat     Chat
	events   Events
	channels Channels
	started  time.Time
	upgrader websocket.Upgrader
}

func New(log logger.Logger, chat Chat, events Events, channels Channels) *Handlers {
	return &Handlers{
		log:      log,
		chat:     chat,
		events:   events,
		channels: channels,
		started:  time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, chat.ErrInvalidChannel), errors.Is(err, chat.ErrInvalidMessage):
		status = http.StatusBadRequest
	case errors.Is(err, chat.ErrClientClosed):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, connection.ErrConnectTimeout):
		status = http.StatusGatewayTimeout
	}

	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", err, slog.String("path", c.FullPath()))
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

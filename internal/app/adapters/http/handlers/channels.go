package handlers

import (
	"context"
	"github.com/gin-gonic/gin"
	"log/slog"
	"net/http"
	"twitchchat/internal/app/adapters/platform/twitch/chat"
	"twitchchat/internal/app/domain/message"
)

type channelResponse struct {
	Channel   string             `json:"channel"`
	Wanted    bool               `json:"wanted"`
	Joined    bool               `json:"joined"`
	RoomState *message.RoomState `json:"room_state,omitempty"`
}

type sendRequest struct {
	Text    string `json:"text" binding:"required"`
	ReplyTo string `json:"reply_to"`
	Action  bool   `json:"action"`
}

func (h *Handlers) ChannelHandler(c *gin.Context) {
	channel, err := chat.NormalizeChannel(c.Param("channel"))
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	status, err := h.chat.ChannelStatus(ctx, channel)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := channelResponse{Channel: channel, Wanted: status.Wanted, Joined: status.Joined}
	if state, ok := h.events.RoomState(channel); ok {
		resp.RoomState = state
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) JoinHandler(c *gin.Context) {
	channel, err := chat.NormalizeChannel(c.Param("channel"))
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.chat.Join(channel); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.channels.AddChannel(channel); err != nil {
		h.log.Error("Failed to persist channel", err, slog.String("channel", channel))
	}

	c.JSON(http.StatusAccepted, channelResponse{Channel: channel, Wanted: true})
}

func (h *Handlers) PartHandler(c *gin.Context) {
	channel, err := chat.NormalizeChannel(c.Param("channel"))
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.chat.Part(channel); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.channels.RemoveChannel(channel); err != nil {
		h.log.Error("Failed to persist channel", err, slog.String("channel", channel))
	}

	c.JSON(http.StatusAccepted, channelResponse{Channel: channel})
}

func (h *Handlers) SendHandler(c *gin.Context) {
	channel, err := chat.NormalizeChannel(c.Param("channel"))
	if err != nil {
		h.fail(c, err)
		return
	}

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	switch {
	case req.ReplyTo != "":
		err = h.chat.Reply(ctx, channel, req.ReplyTo, req.Text, req.Action)
	case req.Action:
		err = h.chat.Me(ctx, channel, req.Text)
	default:
		err = h.chat.Say(ctx, channel, req.Text)
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

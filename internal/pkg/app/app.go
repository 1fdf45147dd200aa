package app

import (
	"context"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"log/slog"
	"os"
	"time"
	"twitchchat/internal/app/adapters/events"
	router "twitchchat/internal/app/adapters/http"
	"twitchchat/internal/app/adapters/metrics"
	"twitchchat/internal/app/adapters/platform/twitch/chat"
	"twitchchat/internal/app/adapters/platform/twitch/transport"
	"twitchchat/internal/app/domain/message"
	"twitchchat/internal/app/infrastructure/config"
	"twitchchat/internal/app/infrastructure/storage"
	"twitchchat/pkg/logger"
)

const connectTimeout = 30 * time.Second

type Options struct {
	ConfigPath string

	// LogLevel overrides app.log_level when set.
	LogLevel string
}

// Run starts the chat client, the event hub and the HTTP server and blocks
// until ctx is done or the HTTP server fails.
func Run(ctx context.Context, opts Options) error {
	manager, err := config.New(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := manager.Get()

	level := cfg.App.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	log := logger.New(logger.Options{
		Level:  level,
		Output: os.Stdout,
		File:   cfg.App.LogFile,
	})
	gin.SetMode(cfg.App.GinMode)

	prometheus.MustRegister(metrics.DispatchTime)

	client := chat.NewClient(ClientConfig(cfg), logger.With(log, slog.String("component", "chat")))
	defer client.Close()

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	err = client.Connect(connectCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("connecting to chat: %w", err)
	}

	for _, channel := range cfg.App.Channels {
		if err := client.Join(channel); err != nil {
			log.Error("Failed to join channel", err, slog.String("channel", channel))
			continue
		}
		log.Info("Joining channel", slog.String("channel", channel))
	}

	rooms := storage.NewCache[*message.RoomState](cfg.Cache.RoomStateCapacity, cfg.Cache.RoomStateTTL)
	hub := events.New(logger.With(log, slog.String("component", "events")), rooms)
	go hub.Run(ctx, client.Messages())

	r := router.NewRouter(log, manager, client, hub)
	return r.Run(ctx)
}

// ClientConfig maps the file configuration onto the chat client policy.
// An empty login connects anonymously.
func ClientConfig(cfg *config.Config) chat.Config {
	c := chat.AnonymousConfig()
	if cfg.App.Login != "" {
		c = chat.DefaultConfig(cfg.App.Login, cfg.App.OAuth)
	}

	c.MaxChannelsPerConnection = cfg.IRC.MaxChannelsPerConnection
	c.MaxWaitingMessagesPerConnection = cfg.IRC.MaxWaitingMessagesPerConnection
	c.TimePerMessage = cfg.IRC.TimePerMessage
	c.PingEvery = cfg.IRC.PingEvery
	c.PongTimeout = cfg.IRC.PongTimeout
	c.NewConnectionEvery = cfg.IRC.NewConnectionEvery
	c.ConnectTimeout = cfg.IRC.ConnectTimeout
	c.SendRate = cfg.IRC.SendRate.Limit()
	if cfg.IRC.SendRate.Messages > 0 {
		c.SendBurst = cfg.IRC.SendRate.Messages
	}

	var proxy *transport.Proxy
	if cfg.Proxy != nil && cfg.Proxy.Address != "" && cfg.Proxy.Port != 0 {
		proxy = &transport.Proxy{Address: cfg.Proxy.Address, Port: cfg.Proxy.Port}
	}
	c.Dialer = transport.NewWebSocketDialer(cfg.IRC.URL, proxy)

	return c
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

func (m *Manager) validate(cfg *Config) error {
	// app
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if cfg.App.LogLevel != "" && !validLevels[cfg.App.LogLevel] {
		return fmt.Errorf("app.log_level must be one of trace, debug, info, warn, error; got %s", cfg.App.LogLevel)
	}

	validGinModes := map[string]bool{"debug": true, "release": true, "test": true}
	if cfg.App.GinMode != "" && !validGinModes[cfg.App.GinMode] {
		return fmt.Errorf("app.gin_mode must be one of debug, release, test; got %s", cfg.App.GinMode)
	}

	if cfg.App.Login != "" && cfg.App.OAuth == "" {
		return errors.New("app.oauth is required when app.login is set")
	}
	cfg.App.OAuth = strings.TrimPrefix(cfg.App.OAuth, "oauth:")

	if cfg.App.Channels == nil {
		cfg.App.Channels = []string{}
	}
	for _, ch := range cfg.App.Channels {
		if strings.TrimPrefix(strings.TrimSpace(ch), "#") == "" {
			return errors.New("app.channels must not contain empty names")
		}
	}

	// irc
	if cfg.IRC.URL == "" {
		cfg.IRC.URL = DefaultURL
	}
	u, err := url.Parse(cfg.IRC.URL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return fmt.Errorf("irc.url must be a ws:// or wss:// url; got %s", cfg.IRC.URL)
	}

	if cfg.IRC.MaxChannelsPerConnection < 1 || cfg.IRC.MaxChannelsPerConnection > 500 {
		return errors.New("irc.max_channels_per_connection must be [1,500]")
	}
	if cfg.IRC.MaxWaitingMessagesPerConnection < 1 {
		return errors.New("irc.max_waiting_messages_per_connection must be positive")
	}
	if cfg.IRC.TimePerMessage < 0 {
		return errors.New("irc.time_per_message must not be negative")
	}
	if cfg.IRC.PingEvery <= 0 {
		return errors.New("irc.ping_every must be positive")
	}
	if cfg.IRC.PongTimeout <= 0 || cfg.IRC.PongTimeout >= cfg.IRC.PingEvery {
		return errors.New("irc.pong_timeout must be positive and shorter than irc.ping_every")
	}
	if cfg.IRC.NewConnectionEvery < 0 {
		return errors.New("irc.new_connection_every must not be negative")
	}
	if cfg.IRC.ConnectTimeout <= 0 {
		return errors.New("irc.connect_timeout must be positive")
	}

	// limiter
	if (cfg.IRC.SendRate.Messages != 0 && cfg.IRC.SendRate.Per == 0) || (cfg.IRC.SendRate.Messages == 0 && cfg.IRC.SendRate.Per != 0) {
		return errors.New("irc.send_rate.messages and irc.send_rate.per must both be set or both be zero")
	}
	if cfg.IRC.SendRate.Messages < 0 || cfg.IRC.SendRate.Per < 0 {
		return errors.New("irc.send_rate must not be negative")
	}

	// proxy
	if cfg.Proxy != nil && cfg.Proxy.Address != "" && (cfg.Proxy.Port < 1 || cfg.Proxy.Port > 65535) {
		return errors.New("proxy.port must be [1,65535]")
	}

	// http
	if cfg.HTTP.CertDomains == nil {
		cfg.HTTP.CertDomains = []string{}
	}
	if cfg.App.AuthToken == "" {
		return errors.New("app.auth_token is required")
	}

	// cache
	if cfg.Cache.RoomStateCapacity < 0 {
		return errors.New("cache.room_state_capacity must not be negative")
	}
	if cfg.Cache.RoomStateTTL < 0 {
		return errors.New("cache.room_state_ttl must not be negative")
	}

	return nil
}

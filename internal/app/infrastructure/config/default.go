package config

import "time"

const DefaultURL = "wss://irc-ws.chat.twitch.tv:443"

func (m *Manager) GetDefault() *Config {
	return &Config{
		App: App{
			LogLevel: "info",
			GinMode:  "release",
			Channels: []string{},
		},
		IRC: IRC{
			URL:                             DefaultURL,
			MaxChannelsPerConnection:        90,
			MaxWaitingMessagesPerConnection: 5,
			TimePerMessage:                  150 * time.Millisecond,
			PingEvery:                       30 * time.Second,
			PongTimeout:                     5 * time.Second,
			NewConnectionEvery:              2 * time.Second,
			ConnectTimeout:                  20 * time.Second,
			SendRate: Limiter{
				Messages: 20,
				Per:      30 * time.Second,
			},
		},
		HTTP: HTTP{
			Address:     "127.0.0.1:8080",
			CertDomains: []string{},
		},
		Cache: Cache{
			RoomStateTTL:      24 * time.Hour,
			RoomStateCapacity: 10_000,
		},
	}
}

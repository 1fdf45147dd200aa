package config

import (
	"golang.org/x/time/rate"
	"time"
)

type Config struct {
	App   App    `json:"app"`
	IRC   IRC    `json:"irc"`
	Proxy *Proxy `json:"proxy"`
	HTTP  HTTP   `json:"http"`
	Cache Cache  `json:"cache"`
}

type App struct {
	LogLevel  string   `json:"log_level"`
	LogFile   string   `json:"log_file"`
	GinMode   string   `json:"gin_mode"`
	Login     string   `json:"login"` // empty logs in anonymously
	OAuth     string   `json:"oauth"`
	AuthToken string   `json:"auth_token"`
	Channels  []string `json:"channels"`
}

type IRC struct {
	URL                             string        `json:"url"`
	MaxChannelsPerConnection        int           `json:"max_channels_per_connection"`
	MaxWaitingMessagesPerConnection int           `json:"max_waiting_messages_per_connection"`
	TimePerMessage                  time.Duration `json:"time_per_message"`
	PingEvery                       time.Duration `json:"ping_every"`
	PongTimeout                     time.Duration `json:"pong_timeout"`
	NewConnectionEvery              time.Duration `json:"new_connection_every"`
	ConnectTimeout                  time.Duration `json:"connect_timeout"`
	SendRate                        Limiter       `json:"send_rate"`
}

type Proxy struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

type HTTP struct {
	Address     string   `json:"address"`
	CertDomains []string `json:"cert_domains"`
}

type Cache struct {
	RoomStateTTL      time.Duration `json:"room_state_ttl"`
	RoomStateCapacity int           `json:"room_state_capacity"`
}

type Limiter struct {
	Messages int           `json:"messages"`
	Per      time.Duration `json:"per"`
}

// Limit converts the window to a token rate. A zero window disables pacing.
func (l Limiter) Limit() rate.Limit {
	if l.Messages <= 0 || l.Per <= 0 {
		return 0
	}
	return rate.Every(l.Per / time.Duration(l.Messages))
}

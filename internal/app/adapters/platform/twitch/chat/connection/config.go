package connection

import (
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
	"time"
	"twitchchat/internal/app/adapters/platform/twitch/transport"
)

type Config struct {
	Login string
	Token string

	// Admission caps how many connections may be opening at once. It is
	// shared by every connection of a client.
	Admission          *semaphore.Weighted
	NewConnectionEvery time.Duration
	ConnectTimeout     time.Duration

	PingEvery   time.Duration
	PongTimeout time.Duration

	// SendRate paces outbound lines other than PING and PONG. Zero disables pacing.
	SendRate  rate.Limit
	SendBurst int

	Dialer transport.Dialer
}

func DefaultConfig(login, token string) Config {
	return Config{
		Login:              login,
		Token:              token,
		Admission:          semaphore.NewWeighted(1),
		NewConnectionEvery: 2 * time.Second,
		ConnectTimeout:     20 * time.Second,
		PingEvery:          30 * time.Second,
		PongTimeout:        5 * time.Second,
		SendRate:           rate.Every(time.Second * 30 / 20),
		SendBurst:          20,
		Dialer:             transport.NewWebSocketDialer(transport.DefaultURL, nil),
	}
}

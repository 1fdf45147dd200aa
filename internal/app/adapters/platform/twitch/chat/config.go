package chat

import (
	"fmt"
	"math/rand/v2"
	"time"
	"twitchchat/internal/app/adapters/platform/twitch/chat/connection"
)

// Config is the per-client policy. It is read-only once the client exists.
type Config struct {
	connection.Config

	MaxChannelsPerConnection        int
	MaxWaitingMessagesPerConnection int

	// TimePerMessage is how long one outbound message is assumed to stay in
	// flight when deciding whether a connection is busy.
	TimePerMessage time.Duration
}

func DefaultConfig(login, token string) Config {
	return Config{
		Config:                          connection.DefaultConfig(login, token),
		MaxChannelsPerConnection:        90,
		MaxWaitingMessagesPerConnection: 5,
		TimePerMessage:                  150 * time.Millisecond,
	}
}

// AnonymousConfig logs in as a read-only justinfan user.
func AnonymousConfig() Config {
	return DefaultConfig(fmt.Sprintf("justinfan%d", 10000+rand.IntN(90000)), "anonymous")
}

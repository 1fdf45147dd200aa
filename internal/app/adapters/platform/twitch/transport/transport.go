package transport

import (
	"context"
	"errors"
	"twitchchat/internal/app/domain/irc"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")

// Item is one inbound line: either a parsed message or the error that
// prevented reading or parsing it.
type Item struct {
	Message *irc.Message
	Err     error
}

// Transport is one established chat socket. Incoming is closed once the
// remote side ends the stream or the transport is closed. Reconnecting is the
// caller's job.
type Transport interface {
	Incoming() <-chan Item
	Send(ctx context.Context, msg *irc.Message) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context) (Transport, error)
}

type DialerFunc func(ctx context.Context) (Transport, error)

func (f DialerFunc) Dial(ctx context.Context) (Transport, error) {
	return f(ctx)
}

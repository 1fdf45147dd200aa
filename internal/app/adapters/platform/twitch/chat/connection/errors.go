package connection

import (
	"errors"
	"fmt"
)

var (
	ErrConnectTimeout   = errors.New("transport failed to connect: connect timed out")
	ErrReconnectCommand = errors.New("received RECONNECT command from server")
	ErrPingTimeout      = errors.New("did not receive a PONG back after sending PING")
	ErrRemoteClosed     = errors.New("remote server unexpectedly closed connection")
	ErrClosed           = errors.New("connection closed")
)

// Error wraps a transport failure with the stage it happened in:
// "connect", "incoming", "outgoing" or "parse".
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CauseLabel names the reason a connection closed, for metrics and logs.
func CauseLabel(err error) string {
	var cerr *Error
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrConnectTimeout):
		return "connect_timeout"
	case errors.Is(err, ErrReconnectCommand):
		return "reconnect"
	case errors.Is(err, ErrPingTimeout):
		return "ping_timeout"
	case errors.Is(err, ErrRemoteClosed):
		return "remote_closed"
	case errors.As(err, &cerr):
		return cerr.Op
	default:
		return "other"
	}
}

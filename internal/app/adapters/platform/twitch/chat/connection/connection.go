package connection

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"twitchchat/internal/app/adapters/platform/twitch/transport"
	"twitchchat/internal/app/domain/irc"
	"twitchchat/internal/app/domain/message"
	"twitchchat/internal/app/infrastructure/mailbox"
	"twitchchat/pkg/logger"
)

// Event is what a connection reports to its owner: either an inbound
// message, or the final notice that the connection is closed.
type Event struct {
	Message message.ServerMessage
	Closed  bool
	Cause   error
}

// Connection is one physical chat socket driven by its own goroutine.
// It is created in the initializing state and dials immediately.
type Connection struct {
	log logger.Logger
	cfg Config

	ctx    context.Context
	cancel context.CancelFunc

	commands *mailbox.Mailbox[command]
	events   *mailbox.Mailbox[Event]

	state state
}

func New(cfg Config, log logger.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Connection{
		log:      log,
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		commands: mailbox.New[command](),
		events:   mailbox.New[Event](),
	}
	c.state = &initializingState{conn: c}

	go c.run()
	go c.initTransport()

	return c
}

// Enqueue queues msg for sending without waiting. When reply is non-nil it
// receives exactly one result; it should have room for it.
func (c *Connection) Enqueue(msg *irc.Message, reply chan<- error) {
	if !c.commands.Push(sendCommand{msg: msg, reply: reply}) && reply != nil {
		reply <- ErrClosed
	}
}

// Send queues msg and waits until it was written or failed.
func (c *Connection) Send(ctx context.Context, msg *irc.Message) error {
	reply := make(chan error, 1)
	c.Enqueue(msg, reply)

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return ErrClosed
	}
}

// Next waits for the next event. ok is false once the connection was
// released with Close and every pending event was consumed, or ctx is done.
func (c *Connection) Next(ctx context.Context) (Event, bool) {
	return c.events.Pop(ctx)
}

// Close releases the connection: the socket and every helper goroutine stop.
// No Closed event is emitted for it.
func (c *Connection) Close() {
	c.cancel()
}

func (c *Connection) run() {
	defer c.shutdown()

	for c.ctx.Err() == nil {
		cmd, ok := c.commands.Pop(c.ctx)
		if !ok {
			return
		}

		switch cmd := cmd.(type) {
		case sendCommand:
			c.state.send(cmd.msg, cmd.reply)
		case transportReadyCommand:
			c.state = c.state.onTransportReady(cmd.transport, cmd.err)
		case sendErrorCommand:
			c.state = c.state.onSendError(cmd.err)
		case incomingCommand:
			c.state = c.state.onIncoming(cmd.item, cmd.ok)
		case sendPingCommand:
			c.state.sendPing()
		case checkPongCommand:
			c.state = c.state.checkPong()
		}
	}
}

func (c *Connection) shutdown() {
	c.commands.Close()
	c.state.release()

	for _, cmd := range c.commands.Drain() {
		switch cmd := cmd.(type) {
		case sendCommand:
			if cmd.reply != nil {
				cmd.reply <- ErrClosed
			}
		case transportReadyCommand:
			if cmd.transport != nil {
				_ = cmd.transport.Close()
			}
		}
	}

	c.events.Close()
}

func (c *Connection) initTransport() {
	tr, err := c.dial()

	if !c.commands.Push(transportReadyCommand{transport: tr, err: err}) && tr != nil {
		_ = tr.Close()
	}
}

func (c *Connection) dial() (transport.Transport, error) {
	if c.cfg.Admission != nil {
		if err := c.cfg.Admission.Acquire(c.ctx, 1); err != nil {
			return nil, &Error{Op: "connect", Err: err}
		}
	}

	ctx, cancel := c.ctx, context.CancelFunc(func() {})
	if c.cfg.ConnectTimeout > 0 {
		ctx, cancel = context.WithTimeout(c.ctx, c.cfg.ConnectTimeout)
	}
	defer cancel()

	tr, err := c.cfg.Dialer.Dial(ctx)
	if err != nil {
		if c.cfg.Admission != nil {
			c.cfg.Admission.Release(1)
		}
		if c.ctx.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrConnectTimeout
		}
		return nil, &Error{Op: "connect", Err: err}
	}

	if c.cfg.Admission != nil {
		time.AfterFunc(c.cfg.NewConnectionEvery, func() {
			c.cfg.Admission.Release(1)
		})
	}

	c.log.Debug("Transport connected")
	return tr, nil
}

func (c *Connection) emit(e Event) {
	c.events.Push(e)
}

func (c *Connection) closed(cause error) state {
	c.log.Warn("Connection closed", slog.String("cause", cause.Error()))
	c.emit(Event{Closed: true, Cause: cause})

	return &closedState{cause: cause}
}

type command interface{}

type sendCommand struct {
	msg   *irc.Message
	reply chan<- error
}

type transportReadyCommand struct {
	transport transport.Transport
	err       error
}

type sendErrorCommand struct {
	err error
}

type incomingCommand struct {
	item transport.Item
	ok   bool
}

type (
	sendPingCommand  struct{}
	checkPongCommand struct{}
)

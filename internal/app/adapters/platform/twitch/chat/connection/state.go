package connection

import (
	"context"
	"errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
	"log/slog"
	"time"
	"twitchchat/internal/app/adapters/metrics"
	"twitchchat/internal/app/adapters/platform/twitch/transport"
	"twitchchat/internal/app/domain/irc"
	"twitchchat/internal/app/domain/message"
	"twitchchat/internal/app/infrastructure/mailbox"
)

// state is one stage of a connection's life. Transitions only go forward:
// initializing -> open -> closed, or initializing -> closed.
type state interface {
	send(msg *irc.Message, reply chan<- error)
	onTransportReady(tr transport.Transport, err error) state
	onSendError(err error) state
	onIncoming(item transport.Item, ok bool) state
	sendPing()
	checkPong() state
	// release frees what the state owns when the connection is dropped.
	release()
}

type outbound struct {
	msg   *irc.Message
	reply chan<- error
}

func (o outbound) answer(err error) {
	if o.reply != nil {
		o.reply <- err
	}
}

type initializingState struct {
	conn  *Connection
	queue []outbound
}

func (s *initializingState) send(msg *irc.Message, reply chan<- error) {
	s.queue = append(s.queue, outbound{msg: msg, reply: reply})
}

func (s *initializingState) onTransportReady(tr transport.Transport, err error) state {
	if err != nil {
		return s.close(err)
	}

	open := newOpenState(s.conn, tr)

	cfg := s.conn.cfg
	open.send(irc.New("CAP", "REQ", "twitch.tv/tags twitch.tv/commands"), nil)
	open.send(irc.New("PASS", "oauth:"+cfg.Token), nil)
	open.send(irc.New("NICK", cfg.Login), nil)

	for _, o := range s.queue {
		open.send(o.msg, o.reply)
	}
	s.queue = nil

	s.conn.log.Info("Connection open", slog.String("login", cfg.Login))
	return open
}

func (s *initializingState) onSendError(err error) state {
	return s.close(err)
}

func (s *initializingState) onIncoming(transport.Item, bool) state { return s }
func (s *initializingState) sendPing() {}
func (s *initializingState) checkPong() state { return s }

func (s *initializingState) release() {
	for _, o := range s.queue {
		o.answer(ErrClosed)
	}
	s.queue = nil
}

func (s *initializingState) close(cause error) state {
	for _, o := range s.queue {
		o.answer(cause)
	}
	s.queue = nil

	return s.conn.closed(cause)
}

type openState struct {
	conn      *Connection
	transport transport.Transport

	outgoing *mailbox.Mailbox[outbound]
	limiter  *rate.Limiter
	stop     context.CancelFunc

	pongReceived bool
}

func newOpenState(conn *Connection, tr transport.Transport) *openState {
	ctx, stop := context.WithCancel(conn.ctx)

	s := &openState{
		conn:      conn,
		transport: tr,
		outgoing:  mailbox.New[outbound](),
		stop:      stop,
	}
	if conn.cfg.SendRate > 0 {
		burst := conn.cfg.SendBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(conn.cfg.SendRate, burst)
	}

	go s.forwardIncoming(ctx)
	go s.forwardOutgoing(ctx)
	if conn.cfg.PingEvery > 0 {
		go s.keepalive(ctx)
	}

	return s
}

func (s *openState) send(msg *irc.Message, reply chan<- error) {
	s.outgoing.Push(outbound{msg: msg, reply: reply})
}

func (s *openState) onTransportReady(tr transport.Transport, _ error) state {
	if tr != nil {
		_ = tr.Close()
	}
	return s
}

func (s *openState) onSendError(err error) state {
	return s.close(err)
}

func (s *openState) onIncoming(item transport.Item, ok bool) state {
	if !ok {
		return s.close(ErrRemoteClosed)
	}
	if item.Err != nil {
		var perr *irc.ParseError
		if errors.As(item.Err, &perr) {
			return s.close(&Error{Op: "parse", Err: item.Err})
		}
		return s.close(&Error{Op: "incoming", Err: item.Err})
	}

	msg, err := message.ParseLenient(item.Message)
	if err != nil {
		s.conn.log.Debug("Forwarding message as generic", slog.String("error", err.Error()), slog.String("line", item.Message.String()))
	}
	s.conn.emit(Event{Message: msg})

	switch msg.(type) {
	case *message.Ping:
		s.send(irc.New("PONG", "tmi.twitch.tv"), nil)
	case *message.Pong:
		s.pongReceived = true
	case *message.Reconnect:
		return s.close(ErrReconnectCommand)
	}

	return s
}

func (s *openState) sendPing() {
	s.pongReceived = false
	s.send(irc.New("PING", "tmi.twitch.tv"), nil)
}

func (s *openState) checkPong() state {
	if !s.pongReceived {
		return s.close(ErrPingTimeout)
	}
	return s
}

func (s *openState) release() {
	s.shutdown(ErrClosed)
}

func (s *openState) close(cause error) state {
	s.shutdown(cause)
	return s.conn.closed(cause)
}

func (s *openState) shutdown(cause error) {
	s.stop()
	s.outgoing.Close()
	_ = s.transport.Close()

	for _, o := range s.outgoing.Drain() {
		o.answer(cause)
	}
}

func (s *openState) forwardIncoming(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-s.transport.Incoming():
			if !s.conn.commands.Push(incomingCommand{item: item, ok: ok}) {
				return
			}
			if !ok || item.Err != nil {
				return
			}
		}
	}
}

func (s *openState) forwardOutgoing(ctx context.Context) {
	for {
		o, ok := s.outgoing.Pop(ctx)
		if !ok {
			return
		}
		if ctx.Err() != nil {
			o.answer(ErrClosed)
			continue
		}

		if s.limiter != nil && !unpaced(o.msg) {
			if err := s.limiter.Wait(ctx); err != nil {
				o.answer(ErrClosed)
				continue
			}
		}

		result := "ok"
		err := s.transport.Send(ctx, o.msg)
		if err != nil {
			result = "error"
			err = &Error{Op: "outgoing", Err: err}
			s.conn.commands.Push(sendErrorCommand{err: err})
		}
		metrics.MessagesSent.With(prometheus.Labels{"result": result}).Inc()
		o.answer(err)
	}
}

func (s *openState) keepalive(ctx context.Context) {
	ticker := time.NewTicker(s.conn.cfg.PingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if !s.conn.commands.Push(sendPingCommand{}) {
			return
		}

		timer := time.NewTimer(s.conn.cfg.PongTimeout)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if !s.conn.commands.Push(checkPongCommand{}) {
			return
		}
	}
}

// unpaced reports whether msg is keepalive traffic, which never waits for
// the send limiter.
func unpaced(msg *irc.Message) bool {
	return msg.Command == "PING" || msg.Command == "PONG"
}

type closedState struct {
	cause error
}

func (s *closedState) send(_ *irc.Message, reply chan<- error) {
	if reply != nil {
		reply <- s.cause
	}
}

func (s *closedState) onTransportReady(tr transport.Transport, _ error) state {
	if tr != nil {
		_ = tr.Close()
	}
	return s
}

func (s *closedState) onSendError(error) state { return s }
func (s *closedState) onIncoming(transport.Item, bool) state { return s }
func (s *closedState) sendPing() {}
func (s *closedState) checkPong() state { return s }
func (s *closedState) release() {}

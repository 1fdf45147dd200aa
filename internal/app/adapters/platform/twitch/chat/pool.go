package chat

import (
	"context"
	"github.com/prometheus/client_golang/prometheus"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"
	"twitchchat/internal/app/adapters/metrics"
	"twitchchat/internal/app/adapters/platform/twitch/chat/connection"
	"twitchchat/internal/app/domain/irc"
	"twitchchat/internal/app/domain/message"
	"twitchchat/internal/app/infrastructure/mailbox"
	"twitchchat/pkg/logger"
)

type poolCommand interface{}

type connectCommand struct {
	done chan<- struct{}
}

type joinCommand struct {
	channel string
}

type partCommand struct {
	channel string
}

type sendCommand struct {
	msg   *irc.Message
	reply chan<- error
}

type statusCommand struct {
	channel string
	reply   chan<- ChannelStatus
}

type incomingCommand struct {
	connID int
	event  connection.Event
}

// ChannelStatus tells whether a channel is wanted by the client and whether
// the server confirmed the join.
type ChannelStatus struct {
	Wanted bool `json:"wanted"`
	Joined bool `json:"joined"`
}

// pool owns every physical connection. All fields are touched only from
// the run goroutine; other goroutines talk to it through commands.
type pool struct {
	log logger.Logger
	cfg Config

	ctx      context.Context
	commands *mailbox.Mailbox[poolCommand]
	out      *mailbox.Mailbox[message.ServerMessage]

	connections []*poolConnection
	nextID      int

	whisperConnID  int
	hasWhisperConn bool

	now func() time.Time
}

func newPool(ctx context.Context, cfg Config, log logger.Logger, out *mailbox.Mailbox[message.ServerMessage]) *pool {
	return &pool{
		log:      log,
		cfg:      cfg,
		ctx:      ctx,
		commands: mailbox.New[poolCommand](),
		out:      out,
		now:      time.Now,
	}
}

func (p *pool) run() {
	defer p.shutdown()

	for p.ctx.Err() == nil {
		cmd, ok := p.commands.Pop(p.ctx)
		if !ok {
			return
		}

		switch cmd := cmd.(type) {
		case connectCommand:
			if len(p.connections) == 0 {
				p.connections = append(p.connections, p.newConnection())
			}
			close(cmd.done)
		case joinCommand:
			p.join(cmd.channel)
		case partCommand:
			p.part(cmd.channel)
		case sendCommand:
			p.send(cmd.msg, cmd.reply)
		case statusCommand:
			cmd.reply <- p.status(cmd.channel)
		case incomingCommand:
			p.onEvent(cmd.connID, cmd.event)
		}

		p.updateGauges()
	}
}

func (p *pool) shutdown() {
	p.commands.Close()

	for _, pc := range p.connections {
		pc.release()
	}
	p.connections = nil

	for _, cmd := range p.commands.Drain() {
		switch cmd := cmd.(type) {
		case connectCommand:
			close(cmd.done)
		case sendCommand:
			cmd.reply <- ErrClientClosed
		case statusCommand:
			cmd.reply <- ChannelStatus{}
		}
	}

	p.out.Close()
	metrics.PoolConnections.Set(0)
}

func (p *pool) newConnection() *poolConnection {
	id := p.nextID
	p.nextID++

	log := logger.With(p.log, slog.Int("conn", id))
	conn := connection.New(p.cfg.Config, log)

	ctx, stop := context.WithCancel(p.ctx)
	go p.relay(ctx, id, conn)

	metrics.ConnectionsOpened.Inc()
	p.log.Debug("New connection", slog.Int("id", id))

	return newPoolConnection(id, conn, stop, p.cfg.MaxWaitingMessagesPerConnection)
}

// relay forwards one connection's events into the pool's mailbox until the
// connection is released.
func (p *pool) relay(ctx context.Context, id int, conn *connection.Connection) {
	for {
		e, ok := conn.Next(ctx)
		if !ok {
			return
		}
		if !p.commands.Push(incomingCommand{connID: id, event: e}) {
			return
		}
		if e.Closed {
			return
		}
	}
}

func (p *pool) find(match func(pc *poolConnection) bool) int {
	for i, pc := range p.connections {
		if match(pc) {
			return i
		}
	}
	return -1
}

// take removes the connection at i from the order.
func (p *pool) take(i int) *poolConnection {
	pc := p.connections[i]
	p.connections = append(p.connections[:i], p.connections[i+1:]...)
	return pc
}

func (p *pool) join(channel string) {
	if p.find(func(pc *poolConnection) bool { return pc.wants(channel) && pc.hasJoined(channel) }) >= 0 {
		return
	}

	var pc *poolConnection
	if i := p.find(func(pc *poolConnection) bool { return pc.wants(channel) }); i >= 0 {
		pc = p.take(i)
	} else if i := p.find(func(pc *poolConnection) bool {
		return pc.channelsLimitNotReached(p.cfg.MaxChannelsPerConnection)
	}); i >= 0 {
		pc = p.take(i)
	} else {
		pc = p.newConnection()
	}

	pc.conn.Enqueue(irc.New("JOIN", "#"+channel), nil)
	pc.registerSentMessage(p.now())
	pc.wanted[channel] = struct{}{}

	p.connections = append(p.connections, pc)
}

func (p *pool) part(channel string) {
	i := p.find(func(pc *poolConnection) bool { return pc.wants(channel) })
	if i < 0 {
		return
	}
	pc := p.take(i)

	pc.conn.Enqueue(irc.New("PART", "#"+channel), nil)
	pc.registerSentMessage(p.now())
	delete(pc.wanted, channel)

	p.connections = append(p.connections, pc)
}

func (p *pool) send(msg *irc.Message, reply chan<- error) {
	now := p.now()

	var pc *poolConnection
	if i := p.find(func(pc *poolConnection) bool {
		return pc.notBusy(now, p.cfg.TimePerMessage, p.cfg.MaxWaitingMessagesPerConnection)
	}); i >= 0 {
		pc = p.take(i)
	} else {
		pc = p.newConnection()
	}

	pc.conn.Enqueue(msg, reply)
	pc.registerSentMessage(now)

	p.connections = append(p.connections, pc)
}

func (p *pool) status(channel string) ChannelStatus {
	var st ChannelStatus
	for _, pc := range p.connections {
		if pc.wants(channel) {
			st.Wanted = true
			st.Joined = st.Joined || pc.hasJoined(channel)
		}
	}
	return st
}

func (p *pool) onEvent(connID int, e connection.Event) {
	if e.Closed {
		p.onClosed(connID, e.Cause)
		return
	}

	msg := e.Message
	metrics.MessagesReceived.With(prometheus.Labels{"command": msg.Source().Command}).Inc()

	switch m := msg.(type) {
	case *message.Whisper:
		if !p.hasWhisperConn {
			p.whisperConnID, p.hasWhisperConn = connID, true
		} else if p.whisperConnID != connID {
			return
		}
	case *message.Join:
		if p.isSelf(m.UserLogin) {
			if i := p.find(func(pc *poolConnection) bool { return pc.id == connID }); i >= 0 {
				p.connections[i].joined[m.ChannelLogin] = struct{}{}
			}
		}
	case *message.Part:
		if p.isSelf(m.UserLogin) {
			if i := p.find(func(pc *poolConnection) bool { return pc.id == connID }); i >= 0 {
				delete(p.connections[i].joined, m.ChannelLogin)
			}
		}
	}

	p.out.Push(msg)
}

func (p *pool) isSelf(login string) bool {
	return strings.EqualFold(login, p.cfg.Login)
}

func (p *pool) onClosed(connID int, cause error) {
	i := p.find(func(pc *poolConnection) bool { return pc.id == connID })
	if i < 0 {
		return
	}
	pc := p.take(i)
	pc.release()

	metrics.ConnectionsClosed.With(prometheus.Labels{"cause": connection.CauseLabel(cause)}).Inc()
	p.log.Warn("Connection removed from pool", slog.Int("id", connID), slog.Int("channels", len(pc.wanted)), slog.String("cause", cause.Error()))

	if p.hasWhisperConn && p.whisperConnID == connID {
		p.hasWhisperConn = false
	}

	for _, channel := range slices.Sorted(maps.Keys(pc.wanted)) {
		p.join(channel)
	}

	if len(p.connections) == 0 {
		p.connections = append(p.connections, p.newConnection())
	}
}

func (p *pool) updateGauges() {
	var wanted, joined int
	for _, pc := range p.connections {
		wanted += len(pc.wanted)
		joined += len(pc.joined)
	}

	metrics.PoolConnections.Set(float64(len(p.connections)))
	metrics.WantedChannels.Set(float64(wanted))
	metrics.JoinedChannels.Set(float64(joined))
}

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"twitchchat/internal/app/domain/irc"
	"twitchchat/internal/app/domain/message"
	"twitchchat/internal/app/infrastructure/mailbox"
	"twitchchat/pkg/logger"
)

var (
	ErrClientClosed   = errors.New("chat client closed")
	ErrInvalidChannel = errors.New("invalid channel name")
	ErrInvalidMessage = errors.New("invalid chat message")
)

// Client is the handle to a pool of chat connections. It is safe for
// concurrent use; every call is forwarded to the pool goroutine in order.
type Client struct {
	log  logger.Logger
	pool *pool

	ctx    context.Context
	cancel context.CancelFunc

	messages chan message.ServerMessage
	once     sync.Once
}

func NewClient(cfg Config, log logger.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	out := mailbox.New[message.ServerMessage]()

	c := &Client{
		log:      log,
		pool:     newPool(ctx, cfg, log, out),
		ctx:      ctx,
		cancel:   cancel,
		messages: make(chan message.ServerMessage),
	}

	go c.pool.run()
	go c.pump(out)

	return c
}

// pump moves the pool's unbounded output onto the Messages channel.
func (c *Client) pump(out *mailbox.Mailbox[message.ServerMessage]) {
	defer close(c.messages)

	for {
		msg, ok := out.Pop(c.ctx)
		if !ok {
			return
		}

		select {
		case c.messages <- msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// Messages is the unified inbound stream of every connection, in arrival
// order per connection. It is closed by Close.
func (c *Client) Messages() <-chan message.ServerMessage {
	return c.messages
}

// Connect makes sure at least one connection exists. It does not wait for
// the connection to be open.
func (c *Client) Connect(ctx context.Context) error {
	done := make(chan struct{})
	if !c.pool.commands.Push(connectCommand{done: done}) {
		return ErrClientClosed
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return ErrClientClosed
	}
}

func (c *Client) Join(channel string) error {
	login, err := NormalizeChannel(channel)
	if err != nil {
		return err
	}
	if !c.pool.commands.Push(joinCommand{channel: login}) {
		return ErrClientClosed
	}
	return nil
}

func (c *Client) Part(channel string) error {
	login, err := NormalizeChannel(channel)
	if err != nil {
		return err
	}
	if !c.pool.commands.Push(partCommand{channel: login}) {
		return ErrClientClosed
	}
	return nil
}

// SendMessage writes msg on a connection that is not busy and waits for
// the result of the write. A message that would not go out as a single
// line is rejected with ErrInvalidMessage before it is queued.
func (c *Client) SendMessage(ctx context.Context, msg *irc.Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	reply := make(chan error, 1)
	if !c.pool.commands.Push(sendCommand{msg: msg, reply: reply}) {
		return ErrClientClosed
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return ErrClientClosed
	}
}

// Say posts text to channel. Text that Twitch would read as a chat command
// is escaped so it is posted verbatim.
func (c *Client) Say(ctx context.Context, channel, text string) error {
	login, err := NormalizeChannel(channel)
	if err != nil {
		return err
	}
	return c.SendMessage(ctx, irc.New("PRIVMSG", "#"+login, escapeCommand(text)))
}

// Me posts text to channel as an action.
func (c *Client) Me(ctx context.Context, channel, text string) error {
	login, err := NormalizeChannel(channel)
	if err != nil {
		return err
	}
	return c.SendMessage(ctx, irc.New("PRIVMSG", "#"+login, "/me "+text))
}

// Reply posts text to channel as a threaded reply to the message parentID.
func (c *Client) Reply(ctx context.Context, channel, parentID, text string, action bool) error {
	login, err := NormalizeChannel(channel)
	if err != nil {
		return err
	}

	if action {
		text = "/me " + text
	} else {
		text = escapeCommand(text)
	}

	tags := irc.TagsFrom("reply-parent-msg-id", parentID)
	return c.SendMessage(ctx, irc.NewWithTags(tags, "PRIVMSG", "#"+login, text))
}

func (c *Client) ChannelStatus(ctx context.Context, channel string) (ChannelStatus, error) {
	login, err := NormalizeChannel(channel)
	if err != nil {
		return ChannelStatus{}, err
	}

	reply := make(chan ChannelStatus, 1)
	if !c.pool.commands.Push(statusCommand{channel: login, reply: reply}) {
		return ChannelStatus{}, ErrClientClosed
	}

	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return ChannelStatus{}, ctx.Err()
	case <-c.ctx.Done():
		return ChannelStatus{}, ErrClientClosed
	}
}

// Close drops every connection and closes the Messages channel.
func (c *Client) Close() {
	c.once.Do(func() {
		c.cancel()
		c.log.Info("Chat client closed")
	})
}

// NormalizeChannel turns "#Foo" or "foo" into the login "foo". Logins
// consist of ASCII letters, digits and underscores only.
func NormalizeChannel(channel string) (string, error) {
	login := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(channel), "#")))
	if login == "" {
		return "", ErrInvalidChannel
	}
	for i := 0; i < len(login); i++ {
		c := login[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' {
			return "", ErrInvalidChannel
		}
	}
	return login, nil
}

func escapeCommand(text string) string {
	if strings.HasPrefix(text, "/") || strings.HasPrefix(text, ".") {
		return ". " + text
	}
	return text
}

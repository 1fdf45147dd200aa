package transport

import (
	"context"
	"errors"
	"fmt"
	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
	"twitchchat/internal/app/domain/irc"
)

const DefaultURL = "wss://irc-ws.chat.twitch.tv:443"

type Proxy struct {
	Address string
	Port    int
}

// WebSocketDialer connects to the Twitch chat WebSocket endpoint, optionally
// through a SOCKS5 proxy.
type WebSocketDialer struct {
	URL              string
	Proxy            *Proxy
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

func NewWebSocketDialer(url string, p *Proxy) *WebSocketDialer {
	if url == "" {
		url = DefaultURL
	}
	return &WebSocketDialer{
		URL:              url,
		Proxy:            p,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

func (d *WebSocketDialer) Dial(ctx context.Context) (Transport, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}

	if d.Proxy != nil && d.Proxy.Address != "" && d.Proxy.Port != 0 {
		socks, err := proxy.SOCKS5("tcp", fmt.Sprintf("%s:%d", d.Proxy.Address, d.Proxy.Port), nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 proxy: %w", err)
		}

		dialer.Proxy = nil
		dialer.NetDialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := socks.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return socks.Dial(network, addr)
		}
	}

	conn, resp, err := dialer.DialContext(ctx, d.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", d.URL, err)
	}

	return newWebSocket(conn, d.WriteTimeout), nil
}

type webSocket struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	incoming chan Item
	done     chan struct{}

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newWebSocket(conn *websocket.Conn, writeTimeout time.Duration) *webSocket {
	ws := &webSocket{
		conn:         conn,
		writeTimeout: writeTimeout,
		incoming:     make(chan Item, 64),
		done:         make(chan struct{}),
	}
	go ws.readLoop()

	return ws
}

func (ws *webSocket) Incoming() <-chan Item {
	return ws.incoming
}

func (ws *webSocket) readLoop() {
	defer close(ws.incoming)

	for {
		_, data, err := ws.conn.ReadMessage()
		if err != nil {
			select {
			case <-ws.done:
				return
			default:
			}

			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			ws.emit(Item{Err: fmt.Errorf("read websocket: %w", err)})
			return
		}

		// a single frame may carry several lines
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSuffix(line, "\r")
			if line == "" {
				continue
			}

			msg, err := irc.Parse(line)
			if !ws.emit(Item{Message: msg, Err: err}) {
				return
			}
		}
	}
}

func (ws *webSocket) emit(item Item) bool {
	select {
	case ws.incoming <- item:
		return true
	case <-ws.done:
		return false
	}
}

func (ws *webSocket) Send(ctx context.Context, msg *irc.Message) error {
	select {
	case <-ws.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()

	var deadline time.Time
	if ws.writeTimeout > 0 {
		deadline = time.Now().Add(ws.writeTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	_ = ws.conn.SetWriteDeadline(deadline)

	if err := ws.conn.WriteMessage(websocket.TextMessage, []byte(msg.String())); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return ErrClosed
		}
		return fmt.Errorf("write websocket: %w", err)
	}
	return nil
}

func (ws *webSocket) Close() error {
	var err error
	ws.closeOnce.Do(func() {
		close(ws.done)

		ws.writeMu.Lock()
		_ = ws.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		ws.writeMu.Unlock()

		err = ws.conn.Close()
	})
	return err
}

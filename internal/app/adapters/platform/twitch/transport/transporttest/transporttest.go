// Package transporttest provides an in-memory transport for exercising the
// connection and pool logic without a network.
package transporttest

import (
	"context"
	"sync"
	"time"
	"twitchchat/internal/app/adapters/platform/twitch/transport"
	"twitchchat/internal/app/domain/irc"
)

// Dialer hands out a new Transport on every Dial.
type Dialer struct {
	mu         sync.Mutex
	transports []*Transport
	err        error
	hang       bool
	dialed     chan *Transport
}

func NewDialer() *Dialer {
	return &Dialer{dialed: make(chan *Transport, 1024)}
}

// SetError makes subsequent dials fail with err. Pass nil to succeed again.
func (d *Dialer) SetError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// SetHang makes subsequent dials block until their context is done.
func (d *Dialer) SetHang(hang bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hang = hang
}

func (d *Dialer) Dial(ctx context.Context) (transport.Transport, error) {
	d.mu.Lock()
	err, hang := d.err, d.hang
	d.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	t := NewTransport()
	d.mu.Lock()
	d.transports = append(d.transports, t)
	d.mu.Unlock()
	d.dialed <- t

	return t, nil
}

// Next waits for the next successful dial.
func (d *Dialer) Next(timeout time.Duration) *Transport {
	select {
	case t := <-d.dialed:
		return t
	case <-time.After(timeout):
		return nil
	}
}

func (d *Dialer) Transports() []*Transport {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Transport(nil), d.transports...)
}

func (d *Dialer) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transports)
}

// Transport records every sent line and lets tests inject inbound lines.
type Transport struct {
	incoming chan transport.Item

	mu      sync.Mutex
	sent    []string
	sendErr error
	closed  bool
	ended   bool
}

func NewTransport() *Transport {
	return &Transport{incoming: make(chan transport.Item, 1024)}
}

func (t *Transport) Incoming() <-chan transport.Item {
	return t.incoming
}

func (t *Transport) Send(_ context.Context, msg *irc.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return transport.ErrClosed
	}
	if t.sendErr != nil {
		return t.sendErr
	}
	t.sent = append(t.sent, msg.String())
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	t.endLocked()
	return nil
}

// Receive parses line and delivers it as an inbound item.
func (t *Transport) Receive(line string) {
	msg, err := irc.Parse(line)
	t.push(transport.Item{Message: msg, Err: err})
}

// Fail delivers a stream error.
func (t *Transport) Fail(err error) {
	t.push(transport.Item{Err: err})
}

// Hangup ends the inbound stream as if the server closed the socket.
func (t *Transport) Hangup() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endLocked()
}

func (t *Transport) SetSendError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendErr = err
}

func (t *Transport) push(item transport.Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ended {
		return
	}
	t.incoming <- item
}

func (t *Transport) endLocked() {
	if t.ended {
		return
	}
	t.ended = true
	close(t.incoming)
}

func (t *Transport) Sent() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.sent...)
}

// SentCount counts sent lines equal to line.
func (t *Transport) SentCount(line string) int {
	n := 0
	for _, s := range t.Sent() {
		if s == line {
			n++
		}
	}
	return n
}

func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

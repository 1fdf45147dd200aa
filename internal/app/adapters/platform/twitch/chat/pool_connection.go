package chat

import (
	"time"
	"twitchchat/internal/app/adapters/platform/twitch/chat/connection"
)

// poolConnection is the pool's bookkeeping for one physical connection.
// Only the pool goroutine touches it.
type poolConnection struct {
	id   int
	conn *connection.Connection

	// stop ends the goroutine relaying this connection's events.
	stop func()

	wanted map[string]struct{}
	joined map[string]struct{}

	sendTimes    []time.Time
	maxSendTimes int
}

func newPoolConnection(id int, conn *connection.Connection, stop func(), maxWaiting int) *poolConnection {
	return &poolConnection{
		id:           id,
		conn:         conn,
		stop:         stop,
		wanted:       make(map[string]struct{}),
		joined:       make(map[string]struct{}),
		maxSendTimes: maxWaiting * 2,
	}
}

func (pc *poolConnection) wants(channel string) bool {
	_, ok := pc.wanted[channel]
	return ok
}

func (pc *poolConnection) hasJoined(channel string) bool {
	_, ok := pc.joined[channel]
	return ok
}

func (pc *poolConnection) registerSentMessage(now time.Time) {
	pc.sendTimes = append(pc.sendTimes, now)
	if len(pc.sendTimes) > pc.maxSendTimes {
		pc.sendTimes = pc.sendTimes[len(pc.sendTimes)-pc.maxSendTimes:]
	}
}

func (pc *poolConnection) channelsLimitNotReached(limit int) bool {
	return len(pc.wanted) < limit
}

// notBusy replays the recent sends as a queue where each message occupies
// the connection for timePerMessage, and reports whether fewer than
// maxWaiting of them are still pending at now.
func (pc *poolConnection) notBusy(now time.Time, timePerMessage time.Duration, maxWaiting int) bool {
	waiting := len(pc.sendTimes)

	var lastFinished time.Time
	for _, sent := range pc.sendTimes {
		start := sent
		if lastFinished.After(start) {
			start = lastFinished
		}

		finished := start.Add(timePerMessage)
		if !finished.Before(now) {
			break
		}

		lastFinished = finished
		waiting--
	}

	return waiting < maxWaiting
}

func (pc *poolConnection) release() {
	pc.stop()
	pc.conn.Close()
}

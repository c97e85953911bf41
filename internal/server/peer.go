package server

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Aulris16/space-invaders-alike/internal/logger"
	"github.com/Aulris16/space-invaders-alike/internal/store"
)

// Peer is one connected game client
type Peer struct {
	ID   uint64
	Conn *websocket.Conn
	Send chan []byte

	mu     sync.Mutex
	closed bool
	subs   map[uint64]store.Subscription
}

func newPeer(id uint64, conn *websocket.Conn) *Peer {
	return &Peer{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
		subs: make(map[uint64]store.Subscription),
	}
}

// reply answers requests that carry an ID. Writes without one are only logged on failure.
func (p *Peer) reply(req store.Request, data []byte, exists bool, err error) {
	if req.ID == 0 {
		if err != nil {
			logger.Log.WithError(err).WithFields(logrus.Fields{
				"peer": p.ID,
				"op":   req.Op,
				"path": req.Path,
			}).Warn("request failed")
		}
		return
	}

	frame := store.Frame{Kind: store.KindResponse, ID: req.ID}
	if err != nil {
		frame.Error = err.Error()
	} else if exists {
		frame.Exists = true
		frame.Value = data
	}
	p.send(frame)
}

// send queues a frame without blocking. Store handlers call it from other peers' goroutines.
func (p *Peer) send(frame store.Frame) {
	data, err := store.EncodeFrame(frame)
	if err != nil {
		logger.Log.WithError(err).WithField("peer", p.ID).Error("encoding frame")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.Send <- data:
	default:
		// Channel full, skip
		logger.Log.WithField("peer", p.ID).Warn("send buffer full, dropping frame")
	}
}

// track remembers a subscription so it is released on disconnect
func (p *Peer) track(id uint64, sub store.Subscription) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	previous := p.subs[id]
	p.subs[id] = sub
	p.mu.Unlock()

	if previous != nil {
		previous.Unsubscribe()
	}
}

func (p *Peer) untrack(id uint64) {
	p.mu.Lock()
	sub, ok := p.subs[id]
	delete(p.subs, id)
	p.mu.Unlock()

	if ok {
		sub.Unsubscribe()
	}
}

// close stops sends and releases every subscription, returning how many there were
func (p *Peer) close() int {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0
	}
	p.closed = true
	close(p.Send)
	subs := p.subs
	p.subs = nil
	p.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	return len(subs)
}

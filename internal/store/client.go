package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Aulris16/space-invaders-alike/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Client is a Store backed by a relay server over a websocket
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	pending map[uint64]chan Frame
	subs    map[uint64]Handler
	nextID  uint64
}

type clientSubscription struct {
	client *Client
	id     uint64
	once   sync.Once
}

// Dial connects to a relay at url, e.g. ws://localhost:8080/ws
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, url, err)
	}

	c := &Client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		pending: make(map[uint64]chan Frame),
		subs:    make(map[uint64]Handler),
	}
	go c.readPump()
	go c.writePump()
	return c, nil
}

// Close drops the connection. Pending calls fail with ErrUnavailable.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}

// Done is closed once the connection is gone
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Get returns the encoded value at path
func (c *Client) Get(ctx context.Context, path string) ([]byte, bool, error) {
	if _, err := SplitPath(path); err != nil {
		return nil, false, err
	}
	frame, err := c.call(ctx, Request{Op: OpGet, Path: path})
	if err != nil {
		return nil, false, err
	}
	if !frame.Exists {
		return nil, false, nil
	}
	return frame.Value, true, nil
}

// Set replaces the value at path without waiting for the relay. It never
// blocks on a slow connection.
func (c *Client) Set(ctx context.Context, path string, value any) error {
	if _, err := SplitPath(path); err != nil {
		return err
	}
	req := Request{Op: OpSet, Path: path}
	if value != nil {
		data, err := msgpack.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		req.Value = data
	}
	return c.post(ctx, req)
}

// Update merges fields into the map at path without waiting for the relay
func (c *Client) Update(ctx context.Context, path string, fields map[string]any) error {
	if _, err := SplitPath(path); err != nil {
		return err
	}
	data, err := msgpack.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return c.post(ctx, Request{Op: OpUpdate, Path: path, Fields: data})
}

// Remove deletes path without waiting for the relay
func (c *Client) Remove(ctx context.Context, path string) error {
	if _, err := SplitPath(path); err != nil {
		return err
	}
	return c.post(ctx, Request{Op: OpRemove, Path: path})
}

// Subscribe registers h with the relay. The handler runs on the read goroutine.
func (c *Client) Subscribe(ctx context.Context, path string, h Handler) (Subscription, error) {
	if _, err := SplitPath(path); err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("subscribe %s: nil handler", path)
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs[id] = h
	c.mu.Unlock()

	if _, err := c.call(ctx, Request{Op: OpSubscribe, Path: path, Sub: id}); err != nil {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
		return nil, err
	}
	return &clientSubscription{client: c, id: id}, nil
}

func (s *clientSubscription) Unsubscribe() {
	s.once.Do(func() {
		c := s.client
		c.mu.Lock()
		delete(c.subs, s.id)
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		if err := c.post(ctx, Request{Op: OpUnsubscribe, Sub: s.id}); err != nil {
			logger.Log.WithError(err).Debug("unsubscribe not delivered")
		}
	})
}

// call sends a request and waits for its response frame
func (c *Client) call(ctx context.Context, req Request) (Frame, error) {
	reply := make(chan Frame, 1)

	c.mu.Lock()
	c.nextID++
	req.ID = c.nextID
	c.pending[req.ID] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	if err := c.enqueue(ctx, req); err != nil {
		return Frame{}, err
	}

	select {
	case frame := <-reply:
		if frame.Error != "" {
			return frame, fmt.Errorf("%s %s: %s", req.Op, req.Path, frame.Error)
		}
		return frame, nil
	case <-c.done:
		return Frame{}, fmt.Errorf("%w: connection closed", ErrUnavailable)
	case <-ctx.Done():
		return Frame{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

// post queues a write that nothing waits on. It never blocks: when the
// send buffer is full the write is dropped and ErrUnavailable returned.
func (c *Client) post(ctx context.Context, req Request) error {
	data, err := EncodeRequest(req)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", req.Op, err)
	}
	if err := c.open(ctx); err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return fmt.Errorf("%w: send buffer full, dropping %s %s", ErrUnavailable, req.Op, req.Path)
	}
}

// enqueue queues a request whose reply the caller waits for, blocking
// until the write pump has room or ctx ends
func (c *Client) enqueue(ctx context.Context, req Request) error {
	data, err := EncodeRequest(req)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", req.Op, err)
	}
	if err := c.open(ctx); err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return fmt.Errorf("%w: connection closed", ErrUnavailable)
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

func (c *Client) open(ctx context.Context) error {
	select {
	case <-c.done:
		return fmt.Errorf("%w: connection closed", ErrUnavailable)
	default:
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// readPump dispatches replies and subscription events
func (c *Client) readPump() {
	defer c.Close()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				logger.Log.WithError(err).Warn("store connection lost")
			}
			return
		}

		frame, err := DecodeFrame(data)
		if err != nil {
			logger.Log.WithError(err).Warn("dropping malformed store frame")
			continue
		}

		switch frame.Kind {
		case KindResponse:
			c.mu.Lock()
			reply, ok := c.pending[frame.ID]
			c.mu.Unlock()
			if ok {
				reply <- frame
			}
		case KindEvent:
			c.mu.Lock()
			handler, ok := c.subs[frame.Sub]
			c.mu.Unlock()
			if ok {
				var value []byte
				if frame.Exists {
					value = frame.Value
				}
				handler(value, frame.Exists)
			}
		}
	}
}

// writePump owns all writes to the connection and keeps it alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				logger.Log.WithError(err).Debug("store write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

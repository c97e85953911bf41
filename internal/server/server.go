package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Aulris16/space-invaders-alike/internal/logger"
	"github.com/Aulris16/space-invaders-alike/internal/netsync"
	"github.com/Aulris16/space-invaders-alike/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow connections from any origin
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// RoomInfo is one entry of the /rooms listing
type RoomInfo struct {
	Code      string         `json:"code"`
	Players   int            `json:"players"`
	Status    netsync.Status `json:"status"`
	CreatedAt int64          `json:"createdAt"`
}

// Server relays store operations between game clients. Every connection
// reads and writes the same in-memory document tree.
type Server struct {
	store *store.Memory

	mu     sync.Mutex
	peers  map[uint64]*Peer
	nextID uint64

	httpServer *http.Server
}

// NewServer creates a relay over docs. A nil docs starts from an empty tree.
func NewServer(docs *store.Memory) *Server {
	if docs == nil {
		docs = store.NewMemory()
	}
	return &Server{
		store: docs,
		peers: make(map[uint64]*Peer),
	}
}

// Handler routes /ws and /rooms
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/rooms", s.handleRooms)
	return mux
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	logger.Log.WithField("addr", addr).Info("relay listening")
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drops the open ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpServer
	peers := make([]*Peer, 0, len(s.peers))
	for _, peer := range s.peers {
		peers = append(peers, peer)
	}
	s.mu.Unlock()

	var err error
	if httpServer != nil {
		err = httpServer.Shutdown(ctx)
	}
	for _, peer := range peers {
		peer.Conn.Close()
	}
	return err
}

// Peers returns the number of connected clients
func (s *Server) Peers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	peer := s.addPeer(conn)
	logger.Log.WithFields(logrus.Fields{
		"peer":   peer.ID,
		"remote": r.RemoteAddr,
	}).Info("peer connected")

	go s.handlePeerReads(peer)
	go s.handlePeerWrites(peer)
}

// handleRooms lists every room document as JSON
func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rooms, err := s.Rooms(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("listing rooms")
		http.Error(w, "could not list rooms", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rooms); err != nil {
		logger.Log.WithError(err).Debug("writing room list")
	}
}

// Rooms returns every room in the store ordered by code
func (s *Server) Rooms(ctx context.Context) ([]RoomInfo, error) {
	data, exists, err := s.store.Get(ctx, netsync.RoomsPath())
	if err != nil {
		return nil, err
	}
	list := make([]RoomInfo, 0)
	if !exists {
		return list, nil
	}

	rooms, err := netsync.DecodeRooms(data)
	if err != nil {
		return nil, err
	}
	for code, room := range rooms {
		list = append(list, RoomInfo{
			Code:      code,
			Players:   room.Players,
			Status:    room.Status,
			CreatedAt: room.CreatedAt,
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list, nil
}

func (s *Server) addPeer(conn *websocket.Conn) *Peer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	peer := newPeer(s.nextID, conn)
	s.peers[peer.ID] = peer
	return peer
}

func (s *Server) removePeer(peer *Peer) {
	s.mu.Lock()
	_, exists := s.peers[peer.ID]
	delete(s.peers, peer.ID)
	s.mu.Unlock()

	if exists {
		released := peer.close()
		logger.Log.WithFields(logrus.Fields{
			"peer":          peer.ID,
			"subscriptions": released,
		}).Info("peer disconnected")
	}
}

// handlePeerReads applies requests in the order the peer sent them
func (s *Server) handlePeerReads(peer *Peer) {
	defer func() {
		peer.Conn.Close()
		s.removePeer(peer)
	}()

	peer.Conn.SetReadLimit(maxMessageSize)
	peer.Conn.SetReadDeadline(time.Now().Add(pongWait))
	peer.Conn.SetPongHandler(func(string) error {
		peer.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ctx := context.Background()
	for {
		_, data, err := peer.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Log.WithError(err).WithField("peer", peer.ID).Warn("websocket error")
			}
			return
		}

		req, err := store.DecodeRequest(data)
		if err != nil {
			logger.Log.WithError(err).WithField("peer", peer.ID).Warn("dropping malformed request")
			continue
		}
		s.apply(ctx, peer, req)
	}
}

// handlePeerWrites owns every write to the connection
func (s *Server) handlePeerWrites(peer *Peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		peer.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-peer.Send:
			peer.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				peer.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := peer.Conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				logger.Log.WithError(err).WithField("peer", peer.ID).Debug("write failed")
				return
			}

		case <-ticker.C:
			peer.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := peer.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// apply runs one request against the shared store
func (s *Server) apply(ctx context.Context, peer *Peer, req store.Request) {
	switch req.Op {
	case store.OpGet:
		data, exists, err := s.store.Get(ctx, req.Path)
		peer.reply(req, data, exists, err)

	case store.OpSet:
		var value any
		if len(req.Value) > 0 {
			if err := msgpack.Unmarshal(req.Value, &value); err != nil {
				peer.reply(req, nil, false, err)
				return
			}
		}
		peer.reply(req, nil, false, s.store.Set(ctx, req.Path, value))

	case store.OpUpdate:
		var fields map[string]any
		if err := msgpack.Unmarshal(req.Fields, &fields); err != nil {
			peer.reply(req, nil, false, err)
			return
		}
		peer.reply(req, nil, false, s.store.Update(ctx, req.Path, fields))

	case store.OpRemove:
		peer.reply(req, nil, false, s.store.Remove(ctx, req.Path))

	case store.OpSubscribe:
		subID := req.Sub
		sub, err := s.store.Subscribe(ctx, req.Path, func(data []byte, exists bool) {
			peer.send(store.Frame{Kind: store.KindEvent, Sub: subID, Exists: exists, Value: data})
		})
		if err == nil {
			peer.track(subID, sub)
		}
		peer.reply(req, nil, false, err)

	case store.OpUnsubscribe:
		peer.untrack(req.Sub)

	default:
		peer.reply(req, nil, false, errors.New("unknown op "+req.Op))
	}
}

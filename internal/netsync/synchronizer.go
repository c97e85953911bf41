package netsync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Aulris16/space-invaders-alike/internal/logger"
	"github.com/Aulris16/space-invaders-alike/internal/store"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrStoreUnavailable = errors.New("shared store unavailable, try again")
	ErrNotInRoom        = errors.New("not in a room")
)

// InboxSize bounds the number of undrained room events. Peer snapshots do
// not queue: only the latest one is kept.
const InboxSize = 64

// MessageKind identifies what a store event means for the local game
type MessageKind int

const (
	// OpponentUpdate carries a fresh peer snapshot
	OpponentUpdate MessageKind = iota
	// OpponentGone means the peer snapshot disappeared, usually because the host closed the room
	OpponentGone
	// RoomReady tells the host a guest has joined the waiting room
	RoomReady
)

func (k MessageKind) String() string {
	switch k {
	case OpponentUpdate:
		return "opponent_update"
	case OpponentGone:
		return "opponent_gone"
	case RoomReady:
		return "room_ready"
	default:
		return "unknown"
	}
}

// Message is one queued store event
type Message struct {
	Kind     MessageKind
	Snapshot Snapshot

	generation uint64
}

// peerState is the newest thing heard on the peer's snapshot slot.
// A nil snap means the slot was deleted.
type peerState struct {
	generation uint64
	snap       *Snapshot
}

// Synchronizer owns one peer's side of a room. Its methods are called from
// the game loop goroutine only; store callbacks never touch its fields and
// only push onto the inbox or replace the latest peer state.
type Synchronizer struct {
	store store.Store
	rng   Rand
	now   func() time.Time

	inbox chan Message
	peer  atomic.Pointer[peerState]

	role       Role
	code       string
	generation uint64
	subs       []store.Subscription
	roomSub    store.Subscription
	opponent   *Snapshot
}

// NewSynchronizer creates a synchronizer over s. A nil s makes every room
// operation fail with ErrStoreUnavailable.
func NewSynchronizer(s store.Store, rng Rand) *Synchronizer {
	return &Synchronizer{
		store: s,
		rng:   rng,
		now:   time.Now,
		inbox: make(chan Message, InboxSize),
	}
}

// Role reports whether this peer hosts or joined the room
func (s *Synchronizer) Role() Role {
	return s.role
}

// Code is the current room code, empty outside a room
func (s *Synchronizer) Code() string {
	return s.code
}

// InRoom reports whether CreateRoom or JoinRoom succeeded and Leave has not run since
func (s *Synchronizer) InRoom() bool {
	return s.role != RoleNone
}

// Opponent returns a copy of the last snapshot the peer published, or nil
func (s *Synchronizer) Opponent() *Snapshot {
	if s.opponent == nil {
		return nil
	}
	snap := *s.opponent
	return &snap
}

// CreateRoom writes a waiting room document and watches it for a guest.
// A RoomReady message is queued once the room records two players.
func (s *Synchronizer) CreateRoom(ctx context.Context, hostID string) (string, error) {
	if s.store == nil {
		return "", ErrStoreUnavailable
	}
	if err := s.Leave(ctx); err != nil {
		logger.Log.WithError(err).Debug("leaving previous room")
	}

	code := GenerateRoomCode(s.rng)
	room := RoomState{
		Host:      hostID,
		Players:   1,
		Status:    StatusWaiting,
		CreatedAt: s.now().UnixMilli(),
	}
	if err := s.store.Set(ctx, RoomPath(code), room); err != nil {
		return "", storeError("create room", err)
	}

	s.enter(RoleHost, code)
	if err := s.watchRoom(ctx); err != nil {
		s.Leave(ctx)
		return "", err
	}

	logger.Log.WithFields(logrus.Fields{
		"room": code,
		"host": hostID,
	}).Info("room created")
	return code, nil
}

// JoinRoom records this peer as the guest of an existing waiting room and
// starts listening for the host's snapshots.
func (s *Synchronizer) JoinRoom(ctx context.Context, code, guestID string) error {
	if s.store == nil {
		return ErrStoreUnavailable
	}
	code, ok := NormalizeRoomCode(code)
	if !ok {
		return fmt.Errorf("%w: %q", ErrRoomNotFound, code)
	}

	data, exists, err := s.store.Get(ctx, RoomPath(code))
	if err != nil {
		return storeError("read room", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, code)
	}
	room, err := DecodeRoom(data)
	if err != nil {
		return err
	}
	if room.Players >= 2 {
		return fmt.Errorf("%w: %s", ErrRoomFull, code)
	}

	if err := s.Leave(ctx); err != nil {
		logger.Log.WithError(err).Debug("leaving previous room")
	}

	fields := map[string]any{
		"players": 2,
		"guest":   guestID,
	}
	if err := s.store.Update(ctx, RoomPath(code), fields); err != nil {
		return storeError("join room", err)
	}

	s.enter(RoleGuest, code)
	if err := s.watchPeer(ctx); err != nil {
		s.Leave(ctx)
		return err
	}

	logger.Log.WithFields(logrus.Fields{
		"room":  code,
		"guest": guestID,
	}).Info("joined room")
	return nil
}

// StartMatch is called by the host when RoomReady is drained. It marks the
// room as playing, stops watching the room document and starts listening for
// the guest's snapshots.
func (s *Synchronizer) StartMatch(ctx context.Context) error {
	if s.role != RoleHost {
		return ErrNotInRoom
	}
	s.unwatchRoom()
	statusErr := s.store.Update(ctx, RoomPath(s.code), map[string]any{"status": StatusPlaying})
	if err := s.watchPeer(ctx); err != nil {
		return err
	}
	if statusErr != nil {
		return storeError("start match", statusErr)
	}
	return nil
}

// Publish writes the local snapshot to this peer's slot. Nothing waits for
// an acknowledgement; the last write wins.
func (s *Synchronizer) Publish(ctx context.Context, snap Snapshot) error {
	if s.role == RoleNone {
		return ErrNotInRoom
	}
	if snap.LastUpdate == 0 {
		snap.LastUpdate = s.now().UnixMilli()
	}
	if err := s.store.Set(ctx, SnapshotPath(s.code, s.role.Slot()), snap); err != nil {
		return storeError("publish snapshot", err)
	}
	return nil
}

// Finish marks the room as finished after a local game over
func (s *Synchronizer) Finish(ctx context.Context) error {
	if s.role == RoleNone {
		return ErrNotInRoom
	}
	if err := s.store.Update(ctx, RoomPath(s.code), map[string]any{"status": StatusFinished}); err != nil {
		return storeError("finish room", err)
	}
	return nil
}

// Leave releases every subscription and forgets the room. The host also
// deletes the room document; a guest leaves it in place. Calling Leave
// outside a room does nothing.
func (s *Synchronizer) Leave(ctx context.Context) error {
	if s.role == RoleNone {
		return nil
	}

	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	s.roomSub = nil

	var err error
	if s.role == RoleHost {
		if removeErr := s.store.Remove(ctx, RoomPath(s.code)); removeErr != nil {
			err = storeError("remove room", removeErr)
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"room": s.code,
		"role": s.role.String(),
	}).Info("left room")

	s.role = RoleNone
	s.code = ""
	s.opponent = nil
	s.generation++
	s.discardInbox()
	s.peer.Store(nil)
	return err
}

// Drain returns the events queued since the last call, followed by at most
// one opponent message carrying the newest peer state, which it also folds
// into the projection. Events from a room already left are dropped.
func (s *Synchronizer) Drain() []Message {
	var messages []Message
	for done := false; !done; {
		select {
		case msg := <-s.inbox:
			if msg.generation == s.generation {
				messages = append(messages, msg)
			}
		default:
			done = true
		}
	}

	state := s.peer.Swap(nil)
	if state == nil || state.generation != s.generation {
		return messages
	}
	if state.snap == nil {
		s.opponent = nil
		return append(messages, Message{Kind: OpponentGone, generation: state.generation})
	}
	snap := *state.snap
	s.opponent = &snap
	return append(messages, Message{Kind: OpponentUpdate, Snapshot: snap, generation: state.generation})
}

func (s *Synchronizer) enter(role Role, code string) {
	s.generation++
	s.role = role
	s.code = code
	s.opponent = nil
}

// watchRoom queues RoomReady once the waiting room records a second player
func (s *Synchronizer) watchRoom(ctx context.Context) error {
	generation := s.generation
	code := s.code
	var ready atomic.Bool

	sub, err := s.store.Subscribe(ctx, RoomPath(code), func(data []byte, exists bool) {
		if !exists || ready.Load() {
			return
		}
		room, err := DecodeRoom(data)
		if err != nil {
			logger.Log.WithError(err).WithField("room", code).Debug("ignoring room update")
			return
		}
		if room.Players == 2 && room.Status == StatusWaiting && ready.CompareAndSwap(false, true) {
			s.push(Message{Kind: RoomReady, generation: generation})
		}
	})
	if err != nil {
		return storeError("watch room", err)
	}
	s.subs = append(s.subs, sub)
	s.roomSub = sub
	return nil
}

func (s *Synchronizer) unwatchRoom() {
	if s.roomSub == nil {
		return
	}
	s.roomSub.Unsubscribe()
	for i, sub := range s.subs {
		if sub == s.roomSub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
	s.roomSub = nil
}

// watchPeer subscribes to the other player's snapshot slot
func (s *Synchronizer) watchPeer(ctx context.Context) error {
	generation := s.generation
	code := s.code
	var seen atomic.Bool

	sub, err := s.store.Subscribe(ctx, SnapshotPath(code, s.role.PeerSlot()), func(data []byte, exists bool) {
		if !exists {
			if seen.CompareAndSwap(true, false) {
				s.setPeer(&peerState{generation: generation})
			}
			return
		}
		snap, err := DecodeSnapshot(data)
		if err != nil {
			logger.Log.WithError(err).WithField("room", code).Debug("ignoring opponent snapshot")
			return
		}
		seen.Store(true)
		s.setPeer(&peerState{generation: generation, snap: &snap})
	})
	if err != nil {
		return storeError("watch opponent", err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// push never blocks; store handlers run on the writer's goroutine
func (s *Synchronizer) push(msg Message) {
	select {
	case s.inbox <- msg:
	default:
		logger.Log.WithField("kind", msg.Kind.String()).Warn("sync inbox full, dropping event")
	}
}

// setPeer replaces the latest peer state unless a newer room already wrote one
func (s *Synchronizer) setPeer(state *peerState) {
	for {
		current := s.peer.Load()
		if current != nil && current.generation > state.generation {
			return
		}
		if s.peer.CompareAndSwap(current, state) {
			return
		}
	}
}

func (s *Synchronizer) discardInbox() {
	for {
		select {
		case <-s.inbox:
		default:
			return
		}
	}
}

func storeError(action string, err error) error {
	if errors.Is(err, store.ErrUnavailable) {
		return fmt.Errorf("%s: %w: %v", action, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

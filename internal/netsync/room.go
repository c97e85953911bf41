// Package netsync mirrors a local game between two peers through a shared
// document store. Each peer simulates its own formation and publishes a
// small snapshot; the other side only displays it.
package netsync

import (
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Aulris16/space-invaders-alike/internal/store"
)

const (
	roomsRoot       = "rooms"
	roomCodeLength  = 6
	roomCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Status is the lifecycle stage recorded on a room document
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Role decides which snapshot slot a peer writes
type Role int

const (
	RoleNone Role = iota
	RoleHost
	RoleGuest
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RoleGuest:
		return "guest"
	default:
		return "none"
	}
}

// Slot is the gameState key this role publishes to
func (r Role) Slot() string {
	switch r {
	case RoleHost:
		return "player1"
	case RoleGuest:
		return "player2"
	default:
		return ""
	}
}

// PeerSlot is the gameState key this role listens on
func (r Role) PeerSlot() string {
	switch r {
	case RoleHost:
		return "player2"
	case RoleGuest:
		return "player1"
	default:
		return ""
	}
}

// Snapshot is what a peer publishes every tick
type Snapshot struct {
	X                float32 `msgpack:"x"`
	Y                float32 `msgpack:"y"`
	Score            int     `msgpack:"score"`
	Lives            int     `msgpack:"lives"`
	Level            int     `msgpack:"level"`
	EnemiesRemaining int     `msgpack:"enemiesRemaining"`
	LastUpdate       int64   `msgpack:"lastUpdate"`
}

// GameState holds the two published snapshots
type GameState struct {
	Player1 *Snapshot `msgpack:"player1,omitempty"`
	Player2 *Snapshot `msgpack:"player2,omitempty"`
}

// RoomState is the shared document at rooms/<code>
type RoomState struct {
	Host      string     `msgpack:"host"`
	Guest     string     `msgpack:"guest,omitempty"`
	Players   int        `msgpack:"players"`
	Status    Status     `msgpack:"status"`
	CreatedAt int64      `msgpack:"createdAt"`
	GameState *GameState `msgpack:"gameState,omitempty"`
}

// Rand is the randomness room codes are drawn from. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// GenerateRoomCode draws six characters uniformly from [A-Z0-9].
// Existing rooms are not consulted.
func GenerateRoomCode(rng Rand) string {
	var b strings.Builder
	b.Grow(roomCodeLength)
	for i := 0; i < roomCodeLength; i++ {
		b.WriteByte(roomCodeCharset[rng.Intn(len(roomCodeCharset))])
	}
	return b.String()
}

// NormalizeRoomCode upper-cases typed input and reports whether it is a well formed code
func NormalizeRoomCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != roomCodeLength {
		return code, false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(roomCodeCharset, code[i]) < 0 {
			return code, false
		}
	}
	return code, true
}

// RoomsPath is the parent of every room document
func RoomsPath() string {
	return roomsRoot
}

// RoomPath is the document path of one room
func RoomPath(code string) string {
	return store.JoinPath(roomsRoot, code)
}

// SnapshotPath is where the given slot publishes inside a room
func SnapshotPath(code, slot string) string {
	return store.JoinPath(roomsRoot, code, "gameState", slot)
}

// DecodeRoom unmarshals a room document read from a store
func DecodeRoom(data []byte) (RoomState, error) {
	var room RoomState
	if err := msgpack.Unmarshal(data, &room); err != nil {
		return RoomState{}, fmt.Errorf("decode room: %w", err)
	}
	return room, nil
}

// DecodeRooms unmarshals the whole rooms collection, keyed by code
func DecodeRooms(data []byte) (map[string]RoomState, error) {
	rooms := make(map[string]RoomState)
	if len(data) == 0 {
		return rooms, nil
	}
	if err := msgpack.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return rooms, nil
}

// DecodeSnapshot unmarshals a published snapshot
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

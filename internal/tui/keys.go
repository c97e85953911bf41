package tui

import (
	"sync"
	"time"

	"github.com/Aulris16/space-invaders-alike/internal/game"
)

// HoldWindow is how long one key press counts as held. Terminals report
// presses and auto-repeat but never releases.
const HoldWindow = 180 * time.Millisecond

// Keys turns key presses into the held-key Input the simulation expects
type Keys struct {
	mu  sync.Mutex
	now func() time.Time

	left, right, fire time.Time
	pause             bool
}

// NewKeys creates a tracker reading time from now, or time.Now when nil
func NewKeys(now func() time.Time) *Keys {
	if now == nil {
		now = time.Now
	}
	return &Keys{now: now}
}

// Left holds left and releases right
func (k *Keys) Left() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.left = k.now().Add(HoldWindow)
	k.right = time.Time{}
}

// Right holds right and releases left
func (k *Keys) Right() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.right = k.now().Add(HoldWindow)
	k.left = time.Time{}
}

// Fire holds the trigger
func (k *Keys) Fire() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.fire = k.now().Add(HoldWindow)
}

// TogglePause queues one pause toggle for the next frame
func (k *Keys) TogglePause() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pause = true
}

// Release drops every held key
func (k *Keys) Release() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.left, k.right, k.fire = time.Time{}, time.Time{}, time.Time{}
	k.pause = false
}

// Input reports what is held right now. A queued pause toggle is consumed.
func (k *Keys) Input() game.Input {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	input := game.Input{
		Left:  now.Before(k.left),
		Right: now.Before(k.right),
		Fire:  now.Before(k.fire),
		Pause: k.pause,
	}
	k.pause = false
	return input
}

// Package store implements the shared document store peers synchronize
// through: a tree of msgpack documents addressed by slash separated paths,
// with live subscriptions on any path.
package store

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnavailable means the store cannot be reached right now. Callers may retry.
	ErrUnavailable = errors.New("store unavailable")
	// ErrBadPath is returned for empty or malformed paths
	ErrBadPath = errors.New("invalid store path")
)

// Handler receives the msgpack encoded value at a subscribed path.
// exists is false when nothing is stored there. Handlers run on the
// writer's goroutine and must not block.
type Handler func(data []byte, exists bool)

// Subscription is a live listener on one path
type Subscription interface {
	Unsubscribe()
}

// Store is a hierarchical document store with last-write-wins semantics
type Store interface {
	// Get returns the encoded value at path
	Get(ctx context.Context, path string) (data []byte, exists bool, err error)
	// Set replaces the value at path. A nil value removes it.
	Set(ctx context.Context, path string, value any) error
	// Update merges fields into the map at path
	Update(ctx context.Context, path string, fields map[string]any) error
	// Remove deletes path and everything below it
	Remove(ctx context.Context, path string) error
	// Subscribe calls h with the current value and again after every change at or below path
	Subscribe(ctx context.Context, path string, h Handler) (Subscription, error)
}

// SplitPath turns "rooms/ABC123/gameState" into its segments
func SplitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, ErrBadPath
	}
	segments := strings.Split(path, "/")
	for _, segment := range segments {
		if segment == "" {
			return nil, ErrBadPath
		}
	}
	return segments, nil
}

// JoinPath builds a path from segments
func JoinPath(segments ...string) string {
	return strings.Join(segments, "/")
}

// overlaps reports whether a change at one path is visible from the other
func overlaps(a, b []string) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

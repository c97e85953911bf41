package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vmihailenco/msgpack/v5"
)

// Memory is an in-process Store. The relay server shares one between all
// connections, and single process games use it directly.
type Memory struct {
	mu     sync.Mutex
	root   map[string]any
	subs   map[uint64]*memorySubscription
	nextID uint64
}

type memorySubscription struct {
	id      uint64
	path    []string
	handler Handler
	store   *Memory
	active  atomic.Bool
}

type delivery struct {
	sub    *memorySubscription
	data   []byte
	exists bool
}

// NewMemory creates an empty store
func NewMemory() *Memory {
	return &Memory{
		root: make(map[string]any),
		subs: make(map[uint64]*memorySubscription),
	}
}

// Get returns the encoded value at path
func (m *Memory) Get(_ context.Context, path string) ([]byte, bool, error) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return encodeNode(lookup(m.root, segments))
}

// Set replaces the value at path
func (m *Memory) Set(_ context.Context, path string, value any) error {
	segments, err := SplitPath(path)
	if err != nil {
		return err
	}
	node, err := normalize(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if node == nil {
		remove(m.root, segments)
	} else {
		parent := ensureMap(m.root, segments[:len(segments)-1])
		parent[segments[len(segments)-1]] = node
	}
	deliveries := m.collect(segments)
	m.mu.Unlock()

	deliver(deliveries)
	return nil
}

// Update merges fields into the map at path, creating it when missing
func (m *Memory) Update(_ context.Context, path string, fields map[string]any) error {
	segments, err := SplitPath(path)
	if err != nil {
		return err
	}
	normalized := make(map[string]any, len(fields))
	for key, value := range fields {
		if normalized[key], err = normalize(value); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}

	m.mu.Lock()
	target := ensureMap(m.root, segments)
	for key, value := range normalized {
		if value == nil {
			delete(target, key)
			continue
		}
		target[key] = value
	}
	deliveries := m.collect(segments)
	m.mu.Unlock()

	deliver(deliveries)
	return nil
}

// Remove deletes path and everything below it
func (m *Memory) Remove(_ context.Context, path string) error {
	segments, err := SplitPath(path)
	if err != nil {
		return err
	}

	m.mu.Lock()
	remove(m.root, segments)
	deliveries := m.collect(segments)
	m.mu.Unlock()

	deliver(deliveries)
	return nil
}

// Subscribe registers h and immediately delivers the current value
func (m *Memory) Subscribe(_ context.Context, path string, h Handler) (Subscription, error) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("subscribe %s: nil handler", path)
	}

	m.mu.Lock()
	m.nextID++
	sub := &memorySubscription{id: m.nextID, path: segments, handler: h, store: m}
	sub.active.Store(true)
	m.subs[sub.id] = sub
	data, exists, err := encodeNode(lookup(m.root, segments))
	m.mu.Unlock()

	if err != nil {
		sub.Unsubscribe()
		return nil, err
	}
	deliver([]delivery{{sub: sub, data: data, exists: exists}})
	return sub, nil
}

// Subscribers returns the number of live subscriptions
func (m *Memory) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// Unsubscribe stops deliveries. It is safe to call more than once.
func (s *memorySubscription) Unsubscribe() {
	if !s.active.CompareAndSwap(true, false) {
		return
	}
	s.store.mu.Lock()
	delete(s.store.subs, s.id)
	s.store.mu.Unlock()
}

// collect snapshots the values every affected subscriber should see. Caller holds mu.
func (m *Memory) collect(changed []string) []delivery {
	var deliveries []delivery
	for _, sub := range m.subs {
		if !overlaps(sub.path, changed) {
			continue
		}
		data, exists, err := encodeNode(lookup(m.root, sub.path))
		if err != nil {
			continue
		}
		deliveries = append(deliveries, delivery{sub: sub, data: data, exists: exists})
	}
	return deliveries
}

func deliver(deliveries []delivery) {
	for _, d := range deliveries {
		if d.sub.active.Load() {
			d.sub.handler(d.data, d.exists)
		}
	}
}

// normalize round-trips a value through msgpack so the tree only holds
// plain maps, slices and scalars
func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := msgpack.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	var node any
	if err := msgpack.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return node, nil
}

func encodeNode(node any) ([]byte, bool, error) {
	if node == nil {
		return nil, false, nil
	}
	data, err := msgpack.Marshal(node)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func lookup(root map[string]any, segments []string) any {
	var node any = root
	for _, segment := range segments {
		children, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		if node, ok = children[segment]; !ok {
			return nil
		}
	}
	return node
}

func ensureMap(root map[string]any, segments []string) map[string]any {
	node := root
	for _, segment := range segments {
		child, ok := node[segment].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[segment] = child
		}
		node = child
	}
	return node
}

func remove(root map[string]any, segments []string) {
	if parent, ok := lookup(root, segments[:len(segments)-1]).(map[string]any); ok {
		delete(parent, segments[len(segments)-1])
	}
}

package store

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore provides thread-safe storage with a publish-subscribe
// mechanism for real-time updates. Snapshots are keyed by widget name, with
// new snapshots replacing previous values.
//
// Subscribers receive updates via buffered channels (buffer size 100).
// Updates are sent non-blocking; if a subscriber's buffer is full, the
// update is dropped for that subscriber to prevent blocking the entire
// system.
type MemoryStore struct {
	mu          sync.RWMutex
	snapshots   map[string]Snapshot
	subscribers map[chan Snapshot]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] implementation.
//
// The store is immediately ready for use. No cleanup is required when done.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots:   make(map[string]Snapshot),
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Update stores a [Snapshot] and notifies all subscribers.
//
// The snapshot is stored using its Widget name as the key. Subsequent
// updates with the same name replace the previous value.
func (m *MemoryStore) Update(snapshot Snapshot) {
	m.mu.Lock()
	m.snapshots[snapshot.Widget] = snapshot
	m.mu.Unlock()

	m.notifySubscribers(snapshot)
}

// SetError records a failed poll for a widget.
//
// The widget's last good entities are preserved; only the error message and
// check timestamp change. If the widget has never had a successful poll, an
// entity-less snapshot is created so the failure is still visible.
func (m *MemoryStore) SetError(widget, message string, checkedAt time.Time) {
	m.mu.Lock()
	snapshot, ok := m.snapshots[widget]
	if !ok {
		snapshot = Snapshot{Widget: widget}
	}
	snapshot.Error = &message
	snapshot.CheckedAt = checkedAt
	m.snapshots[widget] = snapshot
	m.mu.Unlock()

	m.notifySubscribers(snapshot)
}

// Get returns the snapshot for one widget.
func (m *MemoryStore) Get(widget string) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot, ok := m.snapshots[widget]
	return snapshot, ok
}

// GetAll returns a copy of all currently stored snapshots, sorted by widget
// name for deterministic API output.
func (m *MemoryStore) GetAll() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshots := make([]Snapshot, 0, len(m.snapshots))
	for _, snapshot := range m.snapshots {
		snapshots = append(snapshots, snapshot)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Widget < snapshots[j].Widget
	})
	return snapshots
}

// Subscribe creates a new subscription and returns a channel for receiving
// updates.
//
// The returned channel has a buffer of 100 messages. If the buffer fills
// (slow consumer), new updates are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource
// leaks.
func (m *MemoryStore) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 100)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// After calling Unsubscribe, the channel will be closed and no further
// updates will be sent. Safe to call multiple times or with an unknown
// channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Snapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the snapshot to all active subscribers.
//
// This is non-blocking: if a subscriber's channel buffer is full, the
// message is dropped for that subscriber rather than blocking the update
// path.
func (m *MemoryStore) notifySubscribers(snapshot Snapshot) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- snapshot:
		default:
			// subscriber is slow, drop the message
		}
	}
}

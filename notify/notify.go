// Package notify implements the transient user-facing notification bus.
//
// Notifications are process-wide and outlive any single screen: publishers
// push success/error/info messages, subscribers receive a snapshot of the
// live list whenever it changes, and each notification retires itself after
// a fixed delay whether or not anyone displayed it.
package notify

import (
	"sync"
	"time"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// DefaultTTL is how long a notification stays live.
const DefaultTTL = 3500 * time.Millisecond

// Notification is one transient message.
type Notification struct {
	ID      int64
	Message string
	Kind    Kind
}

// Listener receives the current ordered list of live notifications.
type Listener func([]Notification)

// Bus is a single-writer, multi-reader notification queue. Publish never
// fails; Subscribe may be called concurrently and unsubscribing is safe
// even from within a listener callback.
type Bus struct {
	ttl time.Duration

	mu        sync.Mutex
	nextID    int64
	live      []Notification
	listeners map[int64]Listener
	nextSub   int64
}

// NewBus creates a bus with the default TTL.
func NewBus() *Bus {
	return NewBusTTL(DefaultTTL)
}

// NewBusTTL creates a bus with a custom notification lifetime.
func NewBusTTL(ttl time.Duration) *Bus {
	return &Bus{ttl: ttl, listeners: make(map[int64]Listener)}
}

// Success publishes a success notification.
func (b *Bus) Success(msg string) { b.publish(msg, KindSuccess) }

// Error publishes an error notification.
func (b *Bus) Error(msg string) { b.publish(msg, KindError) }

// Info publishes an info notification.
func (b *Bus) Info(msg string) { b.publish(msg, KindInfo) }

func (b *Bus) publish(msg string, kind Kind) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.live = append(b.live, Notification{ID: id, Message: msg, Kind: kind})
	listeners, snapshot := b.snapshotLocked()
	b.mu.Unlock()

	dispatch(listeners, snapshot)

	time.AfterFunc(b.ttl, func() { b.retire(id) })
}

func (b *Bus) retire(id int64) {
	b.mu.Lock()
	idx := -1
	for i, n := range b.live {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		b.mu.Unlock()
		return
	}
	b.live = append(b.live[:idx], b.live[idx+1:]...)
	listeners, snapshot := b.snapshotLocked()
	b.mu.Unlock()

	dispatch(listeners, snapshot)
}

// Subscribe registers a listener and returns its unsubscribe func. The
// listener is immediately invoked with the current list.
func (b *Bus) Subscribe(fn Listener) func() {
	b.mu.Lock()
	b.nextSub++
	key := b.nextSub
	b.listeners[key] = fn
	_, snapshot := b.snapshotLocked()
	b.mu.Unlock()

	fn(snapshot)

	return func() {
		b.mu.Lock()
		delete(b.listeners, key)
		b.mu.Unlock()
	}
}

// Live returns a copy of the currently live notifications.
func (b *Bus) Live() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, snapshot := b.snapshotLocked()
	return snapshot
}

// snapshotLocked copies listeners and the live list so dispatch happens
// outside the lock. Copying the listener set is what makes unsubscribing
// during dispatch safe.
func (b *Bus) snapshotLocked() ([]Listener, []Notification) {
	listeners := make([]Listener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		listeners = append(listeners, fn)
	}
	snapshot := make([]Notification, len(b.live))
	copy(snapshot, b.live)
	return listeners, snapshot
}

func dispatch(listeners []Listener, snapshot []Notification) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}

// Package events fans out data-change notifications inside the process and,
// optionally, to an AMQP exchange.
package events

import (
	"sync"
	"time"
)

// Entity names the kind of record that changed.
type Entity string

const (
	EntityCategory    Entity = "category"
	EntityTransaction Entity = "transaction"
	EntityBudget      Entity = "budget"
	EntityRecurring   Entity = "recurring"
)

// Op names the kind of change.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Change describes one committed mutation.
type Change struct {
	Entity Entity    `json:"entity"`
	Op     Op        `json:"op"`
	ID     uint      `json:"id"`
	At     time.Time `json:"at"`
}

// RoutingKey is the AMQP routing key for the change.
func (c Change) RoutingKey() string {
	return "gastos." + string(c.Entity) + "." + string(c.Op)
}

// Bus delivers changes to every subscriber. Publish never blocks: a
// subscriber whose buffer is full misses the change. Subscribers that only
// need a "something changed" signal can rely on at least one pending value.
// A nil *Bus discards everything.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Change
	next   int
	size   int
	closed bool
}

// NewBus creates a bus whose subscriber channels hold buffer changes.
func NewBus(buffer int) *Bus {
	if buffer < 1 {
		buffer = 1
	}
	return &Bus{subs: make(map[int]chan Change), size: buffer}
}

// Publish sends c to all subscribers, stamping At if unset.
func (b *Bus) Publish(c Change) {
	if b == nil {
		return
	}
	if c.At.IsZero() {
		c.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func removes it
// and closes its channel; it is safe to call more than once.
func (b *Bus) Subscribe() (<-chan Change, func()) {
	if b == nil {
		ch := make(chan Change)
		close(ch)
		return ch, func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Change, b.size)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}

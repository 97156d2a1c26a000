// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package async

import (
	"sync"
	"time"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
)

// EventType enumerates the event kinds spec.md §3 "Event" names.
type EventType string

const (
	EventOperationStarted    EventType = "OPERATION_STARTED"
	EventOperationCompleted  EventType = "OPERATION_COMPLETED"
	EventOperationFailed     EventType = "OPERATION_FAILED"
	EventOperationCancelled  EventType = "OPERATION_CANCELLED"
	EventSystemStatusChanged EventType = "SYSTEM_STATUS_CHANGED"
)

// Event is broadcast to every subscriber and kept in the ring buffer for
// late joiners (spec.md §3 "Event").
type Event struct {
	Type        EventType
	OperationID string
	Payload     *agentdata.AgentData
	Timestamp   time.Time
}

// Subscriber is the callback registered under a subscriber id.
type Subscriber func(Event)

// eventRingCapacity is the default ring buffer size spec.md §3 names
// ("a bounded ring buffer of the last N (default 100)").
const eventRingCapacity = 100

// EventBus implements spec.md §4.7's copy-on-broadcast pattern (and
// SPEC_FULL.md §14's RecentEvents, grounded on original_source's intent
// that late subscribers can catch up): Broadcast snapshots the subscriber
// list under a short lock, releases it, then invokes callbacks outside the
// lock — so a subscriber that (un)subscribes from within its own callback
// can never deadlock against Broadcast (spec.md §9's redesign note on the
// callback-under-mutex pattern).
type EventBus struct {
	mu          sync.Mutex
	subscribers map[string]Subscriber

	ringMu sync.Mutex
	ring   []Event
	head   int
	filled bool
}

// NewEventBus builds an empty EventBus.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string]Subscriber),
		ring:        make([]Event, eventRingCapacity),
	}
}

// Subscribe registers cb under id, replacing any existing subscriber with
// that id.
func (b *EventBus) Subscribe(id string, cb Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[id] = cb
}

// Unsubscribe removes the subscriber registered under id.
func (b *EventBus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, id)
}

// Broadcast delivers event to every current subscriber and records it in
// the ring buffer. A subscriber callback that panics is recovered and
// skipped, never propagated (spec.md §4.7 "a callback that throws is
// logged and skipped").
func (b *EventBus) Broadcast(event Event) {
	b.mu.Lock()
	snapshot := make([]Subscriber, 0, len(b.subscribers))
	for _, cb := range b.subscribers {
		snapshot = append(snapshot, cb)
	}
	b.mu.Unlock()

	b.recordRing(event)

	for _, cb := range snapshot {
		invokeSafely(cb, event)
	}
}

func invokeSafely(cb Subscriber, event Event) {
	defer func() { recover() }()
	cb(event)
}

func (b *EventBus) recordRing(event Event) {
	b.ringMu.Lock()
	defer b.ringMu.Unlock()
	b.ring[b.head] = event
	b.head = (b.head + 1) % len(b.ring)
	if b.head == 0 {
		b.filled = true
	}
}

// RecentEvents returns up to n of the most recently broadcast events,
// oldest first, for a late joiner to catch up on (SPEC_FULL.md §14).
func (b *EventBus) RecentEvents(n int) []Event {
	b.ringMu.Lock()
	defer b.ringMu.Unlock()

	size := len(b.ring)
	if !b.filled {
		size = b.head
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]Event, 0, n)
	start := b.head - n
	for i := 0; i < n; i++ {
		idx := (start + i + len(b.ring)) % len(b.ring)
		out = append(out, b.ring[idx])
	}
	return out
}

// Package events provides the typed publish/subscribe channel connecting the
// collection store to its derived-state consumers. Delivery is synchronous:
// Publish returns only after every subscriber has run, so a mutating
// operation observes its own notification cascade before returning.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cinelog/cinelog/internal/film"
)

// Type identifies the kind of event carried on the bus.
type Type string

const (
	TypeCollectionChanged Type = "collection:changed"
	TypeWatchlistChanged  Type = "watchlist:changed"
	TypeBadgeUnlocked     Type = "badge:unlocked"
	TypeStatsUpdated      Type = "stats:updated"
)

// Event is the envelope delivered to subscribers.
type Event struct {
	ID      string      `json:"id"`
	Type    Type        `json:"type"`
	Time    time.Time   `json:"time"`
	Payload interface{} `json:"payload"`
}

// CollectionChangedPayload carries the full post-mutation collection.
type CollectionChangedPayload struct {
	UserID string      `json:"userId"`
	Films  []film.Film `json:"films"`
}

// WatchlistChangedPayload carries the full post-mutation watchlist. Items is
// left as an opaque value so the watchlist package can publish without an
// import cycle.
type WatchlistChangedPayload struct {
	UserID string      `json:"userId"`
	Items  interface{} `json:"items"`
}

// BadgeUnlockedPayload is published once per badge, on the pass in which it
// first completes.
type BadgeUnlockedPayload struct {
	UserID    string `json:"userId"`
	BadgeID   string `json:"badgeId"`
	BadgeName string `json:"badgeName"`
	Icon      string `json:"icon"`
}

// StatsUpdatedPayload signals that a fresh dashboard snapshot was published.
type StatsUpdatedPayload struct {
	UserID string `json:"userId"`
}

// Handler receives published events.
type Handler func(Event)

// Bus is a synchronous in-process observer list.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]subscription
}

type subscription struct {
	eventType Type
	handler   Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscription)}
}

// Subscribe registers a handler for one event type. The returned function
// removes the subscription.
func (b *Bus) Subscribe(t Type, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = subscription{eventType: t, handler: h}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h Handler) (unsubscribe func()) {
	return b.Subscribe("", h)
}

// Publish delivers the payload to all matching subscribers before returning.
func (b *Bus) Publish(t Type, payload interface{}) {
	ev := Event{
		ID:      uuid.NewString(),
		Type:    t,
		Time:    time.Now().UTC(),
		Payload: payload,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.eventType == t || sub.eventType == "" {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Package events implements the in-process session event bus: a typed,
// closed set of lifecycle signals delivered synchronously to subscribers.
package events

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jobseekr/sessionkit/internal/logging"
)

// Type identifies a session lifecycle signal.
type Type string

const (
	// TokenRefreshed fires after a new access token is installed in the cache.
	TokenRefreshed Type = "tokenRefreshed"
	// TokenCleared fires after the access token cache is explicitly cleared.
	TokenCleared Type = "tokenCleared"
	// SessionExpired fires when a refresh terminally fails and the session
	// can no longer be materialized.
	SessionExpired Type = "sessionExpired"
)

// Event is the payload delivered to subscribers. Token is set only for
// TokenRefreshed.
type Event struct {
	Type  Type
	Token string
}

// Handler consumes an event. Handlers run synchronously at emission time.
type Handler func(Event)

type subscriber struct {
	id uuid.UUID
	fn Handler
}

// Bus is a publish/subscribe channel for session events.
//
// Contract:
//   - Emit invokes all handlers registered for the event's type, in
//     registration order, on the emitting goroutine.
//   - A panicking handler never prevents later handlers from running.
//   - There is no replay: handlers registered after an emission never see it.
type Bus struct {
	mu   sync.Mutex
	subs map[Type][]subscriber
	log  logging.Logger
}

func NewBus(log logging.Logger) *Bus {
	if log == nil {
		log = logging.NewNop()
	}
	return &Bus{subs: make(map[Type][]subscriber), log: log}
}

// Subscribe registers fn for events of type t and returns a function that
// removes the registration. Unsubscribing twice is a no-op.
func (b *Bus) Subscribe(t Type, fn Handler) (unsubscribe func()) {
	id := uuid.New()

	b.mu.Lock()
	b.subs[t] = append(b.subs[t], subscriber{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[t]
		for i, s := range list {
			if s.id == id {
				b.subs[t] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers e to every current subscriber of e.Type.
func (b *Bus) Emit(e Event) {
	b.mu.Lock()
	list := make([]subscriber, len(b.subs[e.Type]))
	copy(list, b.subs[e.Type])
	b.mu.Unlock()

	for _, s := range list {
		b.dispatch(s, e)
	}
}

func (b *Bus) dispatch(s subscriber, e Event) {
	defer func() {
		if p := recover(); p != nil {
			b.log.Error(context.Background(), "event handler panicked", "event", string(e.Type), "panic", p)
		}
	}()
	s.fn(e)
}

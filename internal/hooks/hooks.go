// Package hooks is the notification bus between the client core and its
// callers. The core publishes lifecycle and property events; subscribers
// (scripting layers, the control server, tests) register callback sets and
// receive them synchronously, in subscription order.
package hooks

import "github.com/google/uuid"

// Event names a notification category.
type Event string

const (
	EventManaged         Event = "managed"
	EventUnmanaged       Event = "unmanaged"
	EventListChanged     Event = "list"
	EventFocused         Event = "focus"
	EventUnfocused       Event = "unfocus"
	EventPropertyChanged Event = "property"
)

// Subscriber receives core notifications. Zero-valued fields are skipped,
// so a subscriber only fills in what it cares about. ClientID is the window
// handle of the affected client; list-changed carries none.
type Subscriber struct {
	Managed         func(clientID uint32, startup bool)
	Unmanaged       func(clientID uint32)
	ListChanged     func()
	Focused         func(clientID uint32)
	Unfocused       func(clientID uint32)
	PropertyChanged func(clientID uint32, field string)
}

type registration struct {
	token uuid.UUID
	sub   Subscriber
}

// Bus fans notifications out to registered subscribers. It is not
// goroutine-safe: the core mutates and publishes from the single event-loop
// goroutine only.
type Bus struct {
	subs []registration
}

// NewBus returns an empty notification bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a callback set and returns a token for Unsubscribe.
func (b *Bus) Subscribe(sub Subscriber) uuid.UUID {
	token := uuid.New()
	b.subs = append(b.subs, registration{token: token, sub: sub})
	return token
}

// Unsubscribe removes a previously registered subscriber. Unknown tokens are
// ignored.
func (b *Bus) Unsubscribe(token uuid.UUID) {
	for i, reg := range b.subs {
		if reg.token == token {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Managed notifies that a client entered management.
func (b *Bus) Managed(clientID uint32, startup bool) {
	for _, reg := range b.subs {
		if reg.sub.Managed != nil {
			reg.sub.Managed(clientID, startup)
		}
	}
}

// Unmanaged notifies that a client left management.
func (b *Bus) Unmanaged(clientID uint32) {
	for _, reg := range b.subs {
		if reg.sub.Unmanaged != nil {
			reg.sub.Unmanaged(clientID)
		}
	}
}

// ListChanged notifies that the managed-client list or its order changed.
func (b *Bus) ListChanged() {
	for _, reg := range b.subs {
		if reg.sub.ListChanged != nil {
			reg.sub.ListChanged()
		}
	}
}

// Focused notifies that a client gained focus.
func (b *Bus) Focused(clientID uint32) {
	for _, reg := range b.subs {
		if reg.sub.Focused != nil {
			reg.sub.Focused(clientID)
		}
	}
}

// Unfocused notifies that a client lost focus.
func (b *Bus) Unfocused(clientID uint32) {
	for _, reg := range b.subs {
		if reg.sub.Unfocused != nil {
			reg.sub.Unfocused(clientID)
		}
	}
}

// PropertyChanged notifies that a named client property was committed.
func (b *Bus) PropertyChanged(clientID uint32, field string) {
	for _, reg := range b.subs {
		if reg.sub.PropertyChanged != nil {
			reg.sub.PropertyChanged(clientID, field)
		}
	}
}

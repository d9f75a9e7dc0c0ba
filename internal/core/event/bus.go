package event

import (
	"reflect"
	"sync"
)

// Bus is a synchronous typed event bus. Emit delivers an event to every
// handler before it returns, in subscription order, so observers see events
// in exactly the order they were raised inside one operation.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	nextID   uint64
	handlers map[reflect.Type][]handlerEntry
	all      []handlerEntry
}

type handlerEntry struct {
	id uint64
	fn any
}

// Subscription removes its handler from the bus when Unsubscribe is called.
type Subscription struct {
	bus *Bus
	typ reflect.Type // nil for SubscribeAll
	id  uint64
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]handlerEntry),
	}
}

// Emit delivers event to the typed handlers of T, then to catch-all handlers.
// Handlers may subscribe or unsubscribe from inside a callback; the change
// takes effect for the next Emit.
func Emit[T any](b *Bus, event T) {
	t := reflect.TypeOf((*T)(nil)).Elem()

	b.mu.Lock()
	typed := b.handlers[t]
	all := b.all
	b.mu.Unlock()

	for _, h := range typed {
		h.fn.(func(T))(event)
	}
	for _, h := range all {
		h.fn.(func(any))(event)
	}
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) Subscription {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	// copy-on-write so Emit can iterate a snapshot without holding the lock
	list := make([]handlerEntry, 0, len(b.handlers[t])+1)
	list = append(list, b.handlers[t]...)
	b.handlers[t] = append(list, handlerEntry{id: b.nextID, fn: fn})
	return Subscription{bus: b, typ: t, id: b.nextID}
}

// SubscribeAll registers a handler that receives every event regardless of type.
func (b *Bus) SubscribeAll(fn func(any)) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	list := make([]handlerEntry, 0, len(b.all)+1)
	list = append(list, b.all...)
	b.all = append(list, handlerEntry{id: b.nextID, fn: fn})
	return Subscription{bus: b, id: b.nextID}
}

// Unsubscribe removes the handler. Calling it more than once is a no-op.
func (s Subscription) Unsubscribe() {
	if s.bus == nil {
		return
	}
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.typ == nil {
		b.all = without(b.all, s.id)
		return
	}
	b.handlers[s.typ] = without(b.handlers[s.typ], s.id)
}

func without(list []handlerEntry, id uint64) []handlerEntry {
	out := make([]handlerEntry, 0, len(list))
	for _, h := range list {
		if h.id != id {
			out = append(out, h)
		}
	}
	return out
}

// HandlerCount reports how many handlers (typed and catch-all) are registered.
func (b *Bus) HandlerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.all)
	for _, hs := range b.handlers {
		n += len(hs)
	}
	return n
}

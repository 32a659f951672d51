package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted in tick N are delivered
// in tick N+1: the input system calls SwapBuffers then DispatchAll at tick
// start, so handlers never observe events emitted during their own pass.
type Bus struct {
	mu       sync.Mutex
	front    map[reflect.Type][]any
	back     map[reflect.Type][]any
	handlers map[reflect.Type][]*handler
	nextID   uint64
}

type handler struct {
	id uint64
	fn any
}

// Subscription identifies a registered handler.
type Subscription struct {
	typ reflect.Type
	id  uint64
}

// Valid reports whether the subscription refers to a registered handler slot.
func (s Subscription) Valid() bool { return s.id != 0 }

func NewBus() *Bus {
	return &Bus{
		front:    make(map[reflect.Type][]any),
		back:     make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]*handler),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Emit queues an event into the back buffer. Safe from any goroutine.
func Emit[T any](b *Bus, event T) {
	t := typeOf[T]()
	b.mu.Lock()
	b.back[t] = append(b.back[t], event)
	b.mu.Unlock()
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) Subscription {
	t := typeOf[T]()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers[t] = append(b.handlers[t], &handler{id: b.nextID, fn: fn})
	return Subscription{typ: t, id: b.nextID}
}

// Unsubscribe removes the handler. Unknown subscriptions are ignored.
func (b *Bus) Unsubscribe(s Subscription) {
	if !s.Valid() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	hs := b.handlers[s.typ]
	for i, h := range hs {
		if h.id == s.id {
			b.handlers[s.typ] = append(hs[:i:i], hs[i+1:]...)
			return
		}
	}
}

// Handlers returns the number of handlers registered for T.
func Handlers[T any](b *Bus) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[typeOf[T]()])
}

// SwapBuffers rotates back to front and clears the new back buffer.
// Called once at tick start.
func (b *Bus) SwapBuffers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.front, b.back = b.back, b.front
	for k := range b.back {
		b.back[k] = b.back[k][:0]
	}
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
// Handlers may subscribe, unsubscribe or emit; changes to the handler list
// take effect with the next event.
func (b *Bus) DispatchAll() {
	b.mu.Lock()
	types := make([]reflect.Type, 0, len(b.front))
	for t, events := range b.front {
		if len(events) > 0 {
			types = append(types, t)
		}
	}
	b.mu.Unlock()

	for _, t := range types {
		b.mu.Lock()
		events := append([]any(nil), b.front[t]...)
		b.mu.Unlock()
		for _, ev := range events {
			b.mu.Lock()
			hs := append([]*handler(nil), b.handlers[t]...)
			b.mu.Unlock()
			for _, h := range hs {
				callHandler(h.fn, ev)
			}
		}
	}
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}

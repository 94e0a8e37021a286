// Package eventbus dispatches typed lifecycle events to in-process
// subscribers. A nil *Bus accepts every call and drops every event.
package eventbus

import (
	"context"
	"reflect"
	"sync"
)

// Handler processes events of type T.
type Handler[T any] func(context.Context, T)

type subscription struct {
	fn func(context.Context, any)
}

// Bus routes an event to the handlers registered for its dynamic type.
// Handlers run synchronously on the publishing goroutine, in registration
// order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]*subscription
}

func New() *Bus { return &Bus{handlers: make(map[reflect.Type][]*subscription)} }

func (b *Bus) add(t reflect.Type, fn func(context.Context, any)) (unsubscribe func()) {
	s := &subscription{fn: fn}
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], s)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(t, s) })
	}
}

func (b *Bus) remove(t reflect.Type, s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.handlers[t]
	for i, candidate := range subs {
		if candidate == s {
			subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(b.handlers, t)
		return
	}
	b.handlers[t] = subs
}

func (b *Bus) emit(ctx context.Context, t reflect.Type, e any) {
	b.mu.RLock()
	subs := b.handlers[t]
	b.mu.RUnlock()
	for _, s := range subs {
		s.fn(ctx, e)
	}
}

// Subscribe registers h for events of type T.
func Subscribe[T any](b *Bus, h Handler[T]) (unsubscribe func()) {
	if b == nil {
		return func() {}
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	return b.add(t, func(ctx context.Context, v any) { h(ctx, v.(T)) })
}

// Publish sends e to the handlers subscribed to T.
func Publish[T any](ctx context.Context, b *Bus, e T) {
	if b == nil {
		return
	}
	b.emit(ctx, reflect.TypeOf((*T)(nil)).Elem(), e)
}

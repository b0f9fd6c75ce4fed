package events

import "sync"

// Feed is a typed observer list. Publish invokes subscribers synchronously
// in subscription order on the publisher's goroutine; handlers must not
// block and must not publish back onto the same feed.
type Feed[T any] struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(T)
}

func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{subs: make(map[int]func(T))}
}

// Subscribe registers fn and returns a cancel function. Cancel is
// idempotent and safe to call from any goroutine.
func (f *Feed[T]) Subscribe(fn func(T)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
}

func (f *Feed[T]) Publish(ev T) {
	f.mu.RLock()
	handlers := make([]func(T), 0, len(f.subs))
	for id := 0; id < f.next; id++ {
		if fn, ok := f.subs[id]; ok {
			handlers = append(handlers, fn)
		}
	}
	f.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

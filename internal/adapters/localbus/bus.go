package localbus

// Package localbus provides an in-process ports.ClearBus for single-instance
// deployments using the file tier, where the only other observers of a clear
// are subscribers inside this process.

import (
	"context"
	"sync"

	"github.com/fedefazz/laf-dashboard/internal/ports"
)

// Bus fans clear notices out to in-process subscribers. Delivery is
// asynchronous: a subscriber may itself trigger another clear without
// deadlocking the publisher.
type Bus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]func(ports.ClearNotice)
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{handlers: make(map[int]func(ports.ClearNotice))}
}

func (b *Bus) PublishClear(_ context.Context, notice ports.ClearNotice) error {
	b.mu.Lock()
	handlers := make([]func(ports.ClearNotice), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		go h(notice)
	}
	return nil
}

func (b *Bus) SubscribeClear(handler func(ports.ClearNotice)) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event)
	Subscribe(eventType EventType, handler EventHandler)
	// Wait blocks until every in-flight asynchronous delivery finished.
	Wait()
}

type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
	async     bool
	inflight  sync.WaitGroup
}

// NewInMemoryDispatcher creates a dispatcher that runs handlers inline.
func NewInMemoryDispatcher(logger *zap.Logger) Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
	}
}

// NewAsyncDispatcher creates a dispatcher that delivers every event on its
// own goroutine, so publishers never wait for subscribers.
func NewAsyncDispatcher(logger *zap.Logger) Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
		async:     true,
	}
}

// Publish invokes handlers for the given event. Handler errors and panics
// are logged and never reach the publisher.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}
	if !d.async {
		d.deliver(ctx, event, handlers)
		return
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		d.deliver(context.WithoutCancel(ctx), event, handlers)
	}()
}

func (d *inMemoryDispatcher) deliver(ctx context.Context, event Event, handlers []EventHandler) {
	for _, handler := range handlers {
		d.invoke(ctx, event, handler)
	}
}

func (d *inMemoryDispatcher) invoke(ctx context.Context, event Event, handler EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Any("panic", r))
		}
	}()
	if err := handler(ctx, event); err != nil {
		d.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

func (d *inMemoryDispatcher) Wait() {
	d.inflight.Wait()
}

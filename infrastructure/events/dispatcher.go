// Package events delivers domain events to in-process subscribers.
package events

import (
	"context"
	"sync"

	"famorg/application/ports"
	domainevents "famorg/domain/events"

	"go.uber.org/zap"
)

// Handler reacts to a published event
type Handler func(ctx context.Context, event domainevents.DomainEvent)

// Dispatcher calls every subscriber synchronously, in subscription order.
// A panicking subscriber is logged and does not stop the others.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *zap.Logger
}

var _ ports.EventPublisher = (*Dispatcher)(nil)

// NewDispatcher creates an empty dispatcher
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Subscribe registers a handler for all events
func (d *Dispatcher) Subscribe(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Publish delivers events to every handler
func (d *Dispatcher) Publish(ctx context.Context, evts ...domainevents.DomainEvent) {
	d.mu.RLock()
	handlers := make([]Handler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, evt := range evts {
		d.logger.Debug("Publishing event",
			zap.String("type", evt.GetEventType()),
			zap.String("aggregate", evt.GetAggregateID()),
		)
		for _, h := range handlers {
			d.deliver(ctx, h, evt)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, h Handler, evt domainevents.DomainEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("Event handler panicked",
				zap.String("type", evt.GetEventType()),
				zap.Any("panic", rec),
			)
		}
	}()
	h(ctx, evt)
}

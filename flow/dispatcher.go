package flow

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"notula-server/models"
)

// ErrQueueFull is returned by Submit when the event queue has no room.
var ErrQueueFull = errors.New("event queue full")

const defaultQueueSize = 256

// Handler consumes one event at a time.
type Handler interface {
	Handle(ev models.Event)
}

// Dispatcher funnels events from every connection and from session expiry
// into a single goroutine.
type Dispatcher struct {
	events chan models.Event
	logger *zap.Logger
}

func NewDispatcher(queueSize int, logger *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Dispatcher{
		events: make(chan models.Event, queueSize),
		logger: logger,
	}
}

// Submit enqueues ev without blocking the caller.
func (d *Dispatcher) Submit(ev models.Event) error {
	select {
	case d.events <- ev:
		return nil
	default:
		d.logger.Warn("dropping event, queue full",
			zap.String("owner", ev.OwnerID),
			zap.Int("kind", int(ev.Kind)),
		)
		return ErrQueueFull
	}
}

// Run passes queued events to h one at a time until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, h Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.events:
			d.handle(h, ev)
		}
	}
}

func (d *Dispatcher) handle(h Handler, ev models.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				zap.String("owner", ev.OwnerID),
				zap.Int("kind", int(ev.Kind)),
				zap.Any("panic", r),
			)
		}
	}()
	h.Handle(ev)
}

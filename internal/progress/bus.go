// Package progress provides the in-process event bus generation runs report
// through. Publishers hand events to a buffered channel; a single consumer
// goroutine dispatches them to every subscriber in order.
package progress

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/matthewbaird/crudgen/internal/logging"
)

// Handler processes an event. Calls come from the bus goroutine only.
type Handler interface {
	HandleEvent(ctx context.Context, evt Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Publisher is what a run reports to.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) {}

// Bus is an in-process event bus.
type Bus struct {
	mu          sync.RWMutex
	subscribers []*namedHandler
	events      chan Event
	done        chan struct{}
	log         *zap.Logger

	// sendMu orders Publish against Stop; dispatch never takes it.
	sendMu  sync.RWMutex
	stopped bool
}

type namedHandler struct {
	name    string
	handler Handler
}

// New creates a Bus with the given channel buffer size.
func New(bufSize int, log *zap.Logger) *Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	return &Bus{
		events: make(chan Event, bufSize),
		done:   make(chan struct{}),
		log:    logging.Component(log, "progress"),
	}
}

// Subscribe registers a named handler and returns a func removing it.
func (b *Bus) Subscribe(name string, h Handler) (unsubscribe func()) {
	nh := &namedHandler{name: name, handler: h}
	b.mu.Lock()
	b.subscribers = append(b.subscribers, nh)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subscribers {
			if s == nh {
				b.subscribers = append(b.subscribers[:i:i], b.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Publish queues an event. It blocks while the buffer is full, until ctx is
// done. After Stop it drops the event.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.sendMu.RLock()
	defer b.sendMu.RUnlock()
	if b.stopped {
		b.log.Debug("bus stopped, dropping event", zap.String("kind", string(evt.Kind)))
		return
	}
	select {
	case b.events <- evt:
	case <-ctx.Done():
		b.log.Warn("dropping event", zap.String("kind", string(evt.Kind)), zap.Error(ctx.Err()))
	}
}

// Start begins the consumer goroutine. It runs until Stop.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for evt := range b.events {
			b.dispatch(ctx, evt)
		}
	}()
}

// Stop closes the bus and waits for queued events to be dispatched. Later
// calls to Publish are no-ops.
func (b *Bus) Stop() {
	b.sendMu.Lock()
	if !b.stopped {
		b.stopped = true
		close(b.events)
	}
	b.sendMu.Unlock()
	<-b.done
}

func (b *Bus) dispatch(ctx context.Context, evt Event) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler.HandleEvent(ctx, evt); err != nil {
			b.log.Warn("handler error",
				zap.String("handler", s.name),
				zap.String("kind", string(evt.Kind)),
				zap.Error(err))
		}
	}
}

// Package event provides fire-and-forget publication of domain events
// to independently registered listeners.
package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Default bus settings.
const (
	DefaultWorkers   = 4
	DefaultQueueSize = 1024
)

// Event is a domain event. Name identifies the event kind for subscription.
type Event interface {
	Name() string
}

// Envelope wraps an event with delivery metadata.
type Envelope struct {
	ID    uuid.UUID
	At    time.Time
	Event Event
}

// Handler receives a published event.
type Handler func(ctx context.Context, env Envelope)

// Bus delivers events asynchronously. Delivery is best-effort:
// when the queue is full the event is dropped and a warning logged.
// Publishers never observe listener outcomes.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler

	queue   chan Envelope
	workers int
}

// NewBus creates a bus with the given worker count and queue size.
// Non-positive values fall back to defaults.
func NewBus(workers, queueSize int) *Bus {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Bus{
		handlers: make(map[string][]Handler, 8),
		queue:    make(chan Envelope, queueSize),
		workers:  workers,
	}
}

// Subscribe registers a handler for events with the given name.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// PublishAsync enqueues the event without blocking.
func (b *Bus) PublishAsync(e Event) {
	if e == nil {
		return
	}
	env := Envelope{ID: uuid.New(), At: time.Now(), Event: e}
	select {
	case b.queue <- env:
	default:
		slog.Warn("event queue full, dropping event",
			"event", e.Name(),
			"event_id", env.ID)
	}
}

// Pending returns the number of queued, undelivered events.
func (b *Bus) Pending() int {
	return len(b.queue)
}

// Run starts the delivery workers and blocks until ctx is cancelled.
// Events still queued at cancellation are drained before Run returns.
func (b *Bus) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for range b.workers {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					b.drain()
					return nil
				case env := <-b.queue:
					b.deliver(gctx, env)
				}
			}
		})
	}
	return g.Wait()
}

func (b *Bus) drain() {
	// Listeners get a fresh context: the run context is already done.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case env := <-b.queue:
			b.deliver(ctx, env)
		default:
			return
		}
	}
}

func (b *Bus) deliver(ctx context.Context, env Envelope) {
	b.mu.RLock()
	hs := b.handlers[env.Event.Name()]
	b.mu.RUnlock()

	for _, h := range hs {
		b.safeCall(ctx, h, env)
	}
}

func (b *Bus) safeCall(ctx context.Context, h Handler, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked",
				"event", env.Event.Name(),
				"event_id", env.ID,
				"panic", r)
		}
	}()
	h(ctx, env)
}

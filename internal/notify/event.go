package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Level classifies an event the way a toast would be styled
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Event kinds
const (
	KindAnalysisSaved   = "analysis.saved"
	KindAnalysisUpdated = "analysis.updated"
	KindAnalysisDeleted = "analysis.deleted"
	KindProposalSent    = "proposal.sent"
	KindProposalFailed  = "proposal.failed"
)

// Event is a structured notification
type Event struct {
	Kind       string    `json:"kind"`
	Level      Level     `json:"level"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	AnalysisID string    `json:"analysis_id,omitempty"`
	Time       time.Time `json:"time"`
}

// Publisher accepts events from anywhere in the service
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Subscriber renders or forwards events
type Subscriber interface {
	Handle(ctx context.Context, e Event) error
}

// SubscriberFunc adapts a function to Subscriber
type SubscriberFunc func(ctx context.Context, e Event) error

// Handle calls f
func (f SubscriberFunc) Handle(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Fanout delivers an event to each subscriber in order
type Fanout []Subscriber

// Handle calls every subscriber and joins their errors
func (f Fanout) Handle(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Handle(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Bus queues published events and hands them to a single subscriber
// from its own goroutine
type Bus struct {
	sub    Subscriber
	log    *logrus.Logger
	events chan Event
	done   chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	running atomic.Bool
}

// NewBus creates a bus with a queue of size buffer. Call Run to start delivery.
func NewBus(sub Subscriber, buffer int, log *logrus.Logger) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		sub:    sub,
		log:    log,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
}

// Publish enqueues e, dropping it when the queue is full or the bus is closed
func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.events <- e:
	default:
		b.log.WithField("kind", e.Kind).Warn("Notification queue full, event dropped")
	}
}

// Run delivers events until Close is called and the queue is drained.
// Only the first call consumes; later calls return immediately.
func (b *Bus) Run(ctx context.Context) {
	if !b.running.CompareAndSwap(false, true) {
		return
	}
	defer close(b.done)
	for e := range b.events {
		if err := b.sub.Handle(ctx, e); err != nil {
			b.log.WithError(err).WithField("kind", e.Kind).Error("Failed to deliver notification")
		}
	}
}

// Close stops accepting events and waits for the queue to drain. When Run
// was never started, Close delivers the queued events itself.
func (b *Bus) Close() {
	b.once.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.events)
		b.mu.Unlock()
	})
	b.Run(context.Background())
	<-b.done
}

// Discard is a Publisher that drops every event
type Discard struct{}

// Publish does nothing
func (Discard) Publish(context.Context, Event) {}

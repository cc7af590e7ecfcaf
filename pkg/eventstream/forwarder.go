package eventstream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/pkg/graph"
)

// ForwarderConfig is the configuration for a Forwarder.
type ForwarderConfig struct {
	Store     *graph.Store
	Publisher Publisher
	Source    EventSource

	// QueueSize bounds the events waiting to be published (defaults to 256).
	QueueSize uint

	// PublishTimeout bounds a single publish (defaults to 5s).
	PublishTimeout time.Duration

	Logger *zap.Logger
}

// Forwarder publishes every graph change. Payloads are built on the mutating
// goroutine so they reflect the graph at that moment; publishing happens on a
// background goroutine and never blocks the store.
type Forwarder struct {
	config      *ForwarderConfig
	logger      *zap.Logger
	queue       chan *GraphChangedEvent
	unsubscribe func()
	wg          sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewForwarder subscribes to the store and starts publishing.
func NewForwarder(c *ForwarderConfig) (*Forwarder, error) {
	if c.Store == nil {
		return nil, fmt.Errorf("forwarder requires a graph store")
	}
	if c.Publisher == nil {
		return nil, fmt.Errorf("forwarder requires a publisher")
	}
	if c.QueueSize == 0 {
		c.QueueSize = 256
	}
	if c.PublishTimeout == 0 {
		c.PublishTimeout = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	f := &Forwarder{
		config: c,
		logger: c.Logger,
		queue:  make(chan *GraphChangedEvent, c.QueueSize),
	}

	f.wg.Add(1)
	go f.run()
	f.unsubscribe = c.Store.Subscribe(graph.ObserverFunc(f.onEvent))
	return f, nil
}

func (f *Forwarder) onEvent(e graph.Event) {
	ev := NewGraphChangedEvent(e, f.config.Store, f.config.Source)

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}

	select {
	case f.queue <- ev:
	default:
		f.logger.Error("graph event not published, queue full, event dropped",
			zap.String("event_id", ev.EventID),
			zap.String("kind", string(e.Kind)),
		)
	}
}

func (f *Forwarder) run() {
	defer f.wg.Done()
	for ev := range f.queue {
		ctx, cancel := context.WithTimeout(context.Background(), f.config.PublishTimeout)
		err := f.config.Publisher.PublishGraphChange(ctx, ev)
		cancel()
		if err != nil {
			f.logger.Warn("failed to publish graph event",
				zap.String("event_id", ev.EventID),
				zap.Error(err),
			)
			continue
		}
		f.logger.Debug("graph event published", zap.String("event_id", ev.EventID))
	}
}

// Close stops following the store, publishes what is queued and closes the
// publisher.
func (f *Forwarder) Close() error {
	f.unsubscribe()

	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.mu.Unlock()

	f.wg.Wait()
	return f.config.Publisher.Close()
}

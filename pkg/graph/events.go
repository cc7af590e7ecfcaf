package graph

import (
	"sort"
	"strconv"
	"sync"
)

// Kind is the type of change a notification describes.
type Kind string

const (
	EventAdd    Kind = "add"
	EventUpdate Kind = "update"
	EventRemove Kind = "remove"

	// EventReset is fired once after Replace swaps the whole graph.
	EventReset Kind = "reset"
)

// Collection names the keyed collection an event belongs to.
type Collection string

const (
	CollectionPapers     Collection = "papers"
	CollectionReferences Collection = "references"

	// CollectionAll is used by EventReset.
	CollectionAll Collection = "all"
)

// Event is a single change notification. IDs holds paper ids (decimal) or
// reference ids depending on Collection.
type Event struct {
	Kind       Kind
	Collection Collection
	IDs        []string
}

// PaperIDs decodes IDs for paper events. It returns nil for reference events.
func (e Event) PaperIDs() []int {
	if e.Collection != CollectionPapers {
		return nil
	}
	ids := make([]int, 0, len(e.IDs))
	for _, raw := range e.IDs {
		id, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func paperEvent(kind Kind, ids ...int) Event {
	e := Event{Kind: kind, Collection: CollectionPapers, IDs: make([]string, len(ids))}
	for i, id := range ids {
		e.IDs[i] = strconv.Itoa(id)
	}
	return e
}

func referenceEvent(kind Kind, ids ...string) Event {
	return Event{Kind: kind, Collection: CollectionReferences, IDs: ids}
}

// Observer receives store notifications. OnGraphEvent runs synchronously on
// the goroutine that performed the mutation and must not mutate the store.
type Observer interface {
	OnGraphEvent(Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnGraphEvent(e Event) { f(e) }

type observers struct {
	mu   sync.Mutex
	next uint64
	set  map[uint64]Observer
}

func (o *observers) add(obs Observer) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.set == nil {
		o.set = make(map[uint64]Observer)
	}
	o.next++
	key := o.next
	o.set[key] = obs

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.set, key)
			o.mu.Unlock()
		})
	}
}

// list returns the observers in registration order.
func (o *observers) list() []Observer {
	o.mu.Lock()
	defer o.mu.Unlock()

	keys := make([]uint64, 0, len(o.set))
	for k := range o.set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]Observer, len(keys))
	for i, k := range keys {
		out[i] = o.set[k]
	}
	return out
}

// chanObserver forwards events to a channel. Sends block until the consumer
// reads or the subscription is cancelled.
type chanObserver struct {
	mu     sync.Mutex
	once   sync.Once
	ch     chan Event
	done   chan struct{}
	closed bool
}

func (c *chanObserver) OnGraphEvent(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- e:
	case <-c.done:
	}
}

func (c *chanObserver) close() {
	c.once.Do(func() {
		close(c.done)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.closed = true
		close(c.ch)
	})
}

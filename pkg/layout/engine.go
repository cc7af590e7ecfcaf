// Package layout is a headless stand-in for the graph canvas. It tracks where
// each paper is drawn, places new papers automatically and signals when
// placement has settled, which is all the persistence layer needs from a
// real layout engine.
package layout

import (
	"math"
	"sort"
	"sync"

	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

const (
	spiralStep  = 80.0
	goldenAngle = 2.399963229728653
)

// Engine implements persist.PositionSource, persist.Stabilizer and
// persist.RenderSync.
type Engine struct {
	store *graph.Store

	mu        sync.Mutex
	positions map[int]paper.Point
	placed    int

	handlersMu sync.Mutex
	nextID     uint64
	handlers   map[uint64]func()

	unsubscribe func()
}

// New creates an engine that follows store.
func New(store *graph.Store) *Engine {
	e := &Engine{
		store:     store,
		positions: make(map[int]paper.Point),
		handlers:  make(map[uint64]func()),
	}
	e.relayout()
	e.unsubscribe = store.Subscribe(graph.ObserverFunc(e.onEvent))
	return e
}

// Close stops following the store.
func (e *Engine) Close() {
	e.unsubscribe()
}

func (e *Engine) onEvent(ev graph.Event) {
	switch {
	case ev.Kind == graph.EventReset:
		e.relayout()
	case ev.Collection != graph.CollectionPapers:
	case ev.Kind == graph.EventRemove:
		e.mu.Lock()
		for _, id := range ev.PaperIDs() {
			delete(e.positions, id)
		}
		e.mu.Unlock()
	case ev.Kind == graph.EventAdd:
		for _, id := range ev.PaperIDs() {
			e.place(id)
		}
	case ev.Kind == graph.EventUpdate:
		for _, id := range ev.PaperIDs() {
			e.Refresh(id)
		}
	}
}

// relayout forgets every position and auto-places all papers, the way a
// force-directed engine starts from scratch after a bulk load.
func (e *Engine) relayout() {
	papers := e.store.Papers()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.positions = make(map[int]paper.Point, len(papers))
	e.placed = 0
	for _, p := range papers {
		e.positions[p.ID] = e.nextSlotLocked()
	}
}

// place draws a new paper at its stored position or the next free slot.
func (e *Engine) place(id int) {
	p, ok := e.store.Paper(id)
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if pt, ok := p.Position(); ok {
		e.positions[id] = pt
		return
	}
	e.positions[id] = e.nextSlotLocked()
}

func (e *Engine) nextSlotLocked() paper.Point {
	k := float64(e.placed)
	e.placed++
	r := spiralStep * math.Sqrt(k)
	theta := k * goldenAngle
	return paper.Point{
		X: math.Round(r*math.Cos(theta)*100) / 100,
		Y: math.Round(r*math.Sin(theta)*100) / 100,
	}
}

// Refresh redraws a paper from its stored position, if it has one.
func (e *Engine) Refresh(id int) {
	p, ok := e.store.Paper(id)
	if !ok {
		return
	}
	pt, ok := p.Position()
	if !ok {
		return
	}

	e.mu.Lock()
	e.positions[id] = pt
	e.mu.Unlock()
}

// Positions returns where every paper is currently drawn.
func (e *Engine) Positions() map[int]paper.Point {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[int]paper.Point, len(e.positions))
	for id, pt := range e.positions {
		out[id] = pt
	}
	return out
}

// Position returns where a single paper is drawn.
func (e *Engine) Position(id int) (paper.Point, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pt, ok := e.positions[id]
	return pt, ok
}

// OnStabilized registers fn to run every time Stabilize is called.
func (e *Engine) OnStabilized(fn func()) func() {
	e.handlersMu.Lock()
	defer e.handlersMu.Unlock()

	e.nextID++
	id := e.nextID
	e.handlers[id] = fn
	return func() {
		e.handlersMu.Lock()
		defer e.handlersMu.Unlock()
		delete(e.handlers, id)
	}
}

// Stabilize reports that placement has settled.
func (e *Engine) Stabilize() {
	e.handlersMu.Lock()
	ids := make([]uint64, 0, len(e.handlers))
	for id := range e.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, e.handlers[id])
	}
	e.handlersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

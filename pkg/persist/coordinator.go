// Package persist keeps the graph store and its snapshot medium in sync: it
// saves on every change and, on load, defers applying persisted positions
// until the layout engine has settled.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/localstore"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

const (
	// SnapshotKey is the medium key holding the serialized graph.
	SnapshotKey = "paper-web-data-v1"

	// ExceededKey is set on the medium once a save has hit the quota.
	ExceededKey = "paper-web-storage-exceeded"
)

const (
	defaultFallbackDelay  = 500 * time.Millisecond
	defaultSettleDelay    = 100 * time.Millisecond
	defaultSuppressWindow = time.Second
)

// PositionSource reports where the layout engine currently draws each paper.
type PositionSource interface {
	Positions() map[int]paper.Point
}

// Stabilizer is implemented by layout engines that signal when automatic
// placement has settled. The returned function unregisters fn.
type Stabilizer interface {
	OnStabilized(fn func()) (cancel func())
}

// RenderSync is implemented by layout engines that need an explicit refresh
// after a paper's position was changed underneath them.
type RenderSync interface {
	Refresh(id int)
}

// QuotaNotifier is told when a save did not fit in the medium.
type QuotaNotifier interface {
	StorageExceeded(err error)
}

// Persistence saves the current graph.
type Persistence interface {
	Save()
}

// Config is the configuration for a Coordinator.
type Config struct {
	// Store is the graph being persisted.
	Store *graph.Store

	// Medium holds the snapshot.
	Medium localstore.Medium

	// Layout is the optional layout engine. When it also implements
	// Stabilizer or RenderSync those are used during restoration.
	Layout PositionSource

	// Notifier is optionally told about quota failures.
	Notifier QuotaNotifier

	// FallbackDelay is how long to wait before restoring positions when
	// the layout engine cannot signal stabilization.
	FallbackDelay time.Duration

	// SettleDelay is waited after the stabilized signal before restoring.
	SettleDelay time.Duration

	// SuppressWindow is how long saves stay suppressed after a restore.
	SuppressWindow time.Duration

	Logger *zap.Logger
}

// Coordinator implements Persistence for a graph store.
type Coordinator struct {
	config *Config
	store  *graph.Store
	medium localstore.Medium
	logger *zap.Logger

	unsubscribe func()

	mu         sync.Mutex
	state      State
	generation uint64
	restored   bool
	dirty      bool
	exceeded   bool
	cancels    []func()
	idle       chan struct{}
	restoredCh chan struct{}
}

// New creates a Coordinator and subscribes it to the store.
func New(c *Config) (*Coordinator, error) {
	if c.Store == nil {
		return nil, errors.New("persist: store is required")
	}
	if c.Medium == nil {
		return nil, errors.New("persist: medium is required")
	}
	if c.FallbackDelay == 0 {
		c.FallbackDelay = defaultFallbackDelay
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = defaultSettleDelay
	}
	if c.SuppressWindow == 0 {
		c.SuppressWindow = defaultSuppressWindow
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	co := &Coordinator{
		config:     c,
		store:      c.Store,
		medium:     c.Medium,
		logger:     c.Logger,
		state:      StateIdle,
		idle:       closedChan(),
		restoredCh: closedChan(),
	}
	co.unsubscribe = c.Store.Subscribe(graph.ObserverFunc(co.onEvent))
	return co, nil
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// State returns the current restoration state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StorageExceeded reports whether the last save hit the quota, or the medium
// carried the exceeded flag when it was loaded.
func (c *Coordinator) StorageExceeded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exceeded
}

// Restored returns a channel closed once the current load has applied its
// positions, or right away when there was nothing to restore.
func (c *Coordinator) Restored() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restoredCh
}

// Idle returns a channel closed once the coordinator is back in StateIdle.
func (c *Coordinator) Idle() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idle
}

func (c *Coordinator) onEvent(e graph.Event) {
	c.logger.Debug("graph changed",
		zap.String("kind", string(e.Kind)),
		zap.String("collection", string(e.Collection)),
		zap.Strings("ids", e.IDs),
	)
	c.Save()
}

// Save writes the snapshot unless a load is in progress or saves are
// suppressed, in which case the change is remembered and written once the
// coordinator is idle again. Quota failures are logged and flagged, never
// returned.
func (c *Coordinator) Save() {
	c.mu.Lock()
	switch c.state {
	case StatePopulating, StateRestoringPositions:
		c.mu.Unlock()
		return
	case StateAwaitingStabilization, StateSaveSuppressed:
		c.dirty = true
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("save suppressed", zap.Stringer("state", state))
		return
	}
	c.mu.Unlock()

	c.saveNow(true)
}

// saveNow writes the snapshot. Layout positions are only trusted once the
// persisted ones have been restored.
func (c *Coordinator) saveNow(withLayout bool) {
	data, err := c.encode(withLayout)
	if err != nil {
		c.logger.Error("failed to encode snapshot", zap.Error(err))
		return
	}

	err = c.medium.Set(SnapshotKey, data)
	if errors.Is(err, localstore.ErrQuotaExceeded) {
		c.quotaExceeded(err)
		return
	}
	if err != nil {
		c.logger.Error("failed to save snapshot", zap.Error(err))
		return
	}

	c.mu.Lock()
	wasExceeded := c.exceeded
	c.exceeded = false
	c.dirty = false
	c.mu.Unlock()

	if wasExceeded {
		if err := c.medium.Remove(ExceededKey); err != nil {
			c.logger.Debug("could not clear storage exceeded flag", zap.Error(err))
		}
	}
}

func (c *Coordinator) quotaExceeded(err error) {
	c.logger.Warn("local storage quota exceeded, recent changes may not be saved; export a ZIP for a full backup",
		zap.Error(err),
	)

	c.mu.Lock()
	c.exceeded = true
	c.mu.Unlock()

	if setErr := c.medium.Set(ExceededKey, []byte("true")); setErr != nil {
		c.logger.Debug("could not persist storage exceeded flag", zap.Error(setErr))
	}
	if c.config.Notifier != nil {
		c.config.Notifier.StorageExceeded(err)
	}
}

// Encode returns the snapshot document for the current graph with the
// layout engine's positions baked in.
func (c *Coordinator) Encode() ([]byte, error) {
	return c.encode(true)
}

func (c *Coordinator) encode(withLayout bool) ([]byte, error) {
	snap := c.store.Snapshot()
	if withLayout {
		ApplyPositions(&snap, c.positions())
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

func (c *Coordinator) positions() map[int]paper.Point {
	if c.config.Layout == nil {
		return nil
	}
	return c.config.Layout.Positions()
}

// ApplyPositions overwrites node coordinates with the finite entries of
// positions.
func ApplyPositions(snap *graph.Snapshot, positions map[int]paper.Point) {
	for i := range snap.Nodes {
		pt, ok := positions[snap.Nodes[i].ID]
		if !ok || !pt.Finite() {
			continue
		}
		snap.Nodes[i].SetPosition(pt)
	}
}

// Decode parses a snapshot document.
func Decode(data []byte) (graph.Snapshot, error) {
	var snap graph.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return graph.Snapshot{}, err
	}
	return snap, nil
}

// Load reads the snapshot from the medium into the store and schedules the
// position restore. A missing snapshot leaves an empty graph.
func (c *Coordinator) Load() error {
	if flag, ok, err := c.medium.Get(ExceededKey); err == nil && ok && string(flag) == "true" {
		c.mu.Lock()
		c.exceeded = true
		c.mu.Unlock()
	}

	data, ok, err := c.medium.Get(SnapshotKey)
	if err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	if !ok {
		c.cancelPending()
		c.logger.Debug("no snapshot stored")
		return nil
	}

	snap, err := Decode(data)
	if err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}
	return c.Restore(snap)
}

// Restore replaces the graph with snap and applies its positions once the
// layout engine is ready. Any restore still pending from an earlier load is
// cancelled.
func (c *Coordinator) Restore(snap graph.Snapshot) error {
	gen := c.begin()

	if err := c.store.Replace(snap); err != nil {
		c.finish(gen, StateIdle)
		return fmt.Errorf("loading snapshot: %w", err)
	}

	updates := positionUpdates(snap)
	if len(updates) == 0 {
		c.finish(gen, StateIdle)
		return nil
	}

	c.await(gen, updates)
	return nil
}

// begin cancels any pending restore and enters StatePopulating.
func (c *Coordinator) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.generation++
	c.restored = false
	c.dirty = false
	c.setStateLocked(StatePopulating)
	if isClosed(c.restoredCh) {
		c.restoredCh = make(chan struct{})
	}
	return c.generation
}

// finish ends a cycle that has nothing (left) to restore.
func (c *Coordinator) finish(gen uint64, state State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return
	}
	c.restored = true
	closeOnce(c.restoredCh)
	c.setStateLocked(state)
}

func (c *Coordinator) await(gen uint64, updates []graph.Patch) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateAwaitingStabilization)
	c.mu.Unlock()

	var cancel func()
	if stabilizer, ok := c.config.Layout.(Stabilizer); ok {
		c.logger.Debug("waiting for layout to stabilize", zap.Int("positions", len(updates)))
		cancel = stabilizer.OnStabilized(func() {
			c.afterStabilized(gen, updates)
		})
	} else {
		c.logger.Debug("layout cannot signal stabilization, using fallback timer",
			zap.Duration("delay", c.config.FallbackDelay),
		)
		timer := time.AfterFunc(c.config.FallbackDelay, func() {
			c.restore(gen, updates)
		})
		cancel = func() { timer.Stop() }
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || c.restored {
		cancel()
		return
	}
	c.cancels = append(c.cancels, cancel)
}

func (c *Coordinator) afterStabilized(gen uint64, updates []graph.Patch) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.restored {
		return
	}
	timer := time.AfterFunc(c.config.SettleDelay, func() {
		c.restore(gen, updates)
	})
	c.cancels = append(c.cancels, func() { timer.Stop() })
}

// restore applies the persisted positions at most once per load.
func (c *Coordinator) restore(gen uint64, updates []graph.Patch) {
	c.mu.Lock()
	if gen != c.generation || c.restored {
		c.mu.Unlock()
		return
	}
	c.restored = true
	c.cancelLocked()
	c.setStateLocked(StateRestoringPositions)
	c.mu.Unlock()

	if err := c.store.UpdatePapers(updates); err != nil {
		c.logger.Error("failed to restore positions", zap.Error(err))
	} else {
		c.logger.Debug("positions restored", zap.Int("papers", len(updates)))
	}

	if rs, ok := c.config.Layout.(RenderSync); ok {
		for _, u := range updates {
			rs.Refresh(u.ID)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	closeOnce(c.restoredCh)
	c.setStateLocked(StateSaveSuppressed)

	timer := time.AfterFunc(c.config.SuppressWindow, func() {
		c.resume(gen)
	})
	c.cancels = append(c.cancels, func() { timer.Stop() })
}

// resume ends the suppression window and writes any change made during it.
func (c *Coordinator) resume(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.state != StateSaveSuppressed {
		c.mu.Unlock()
		return
	}
	c.cancels = nil
	c.setStateLocked(StateIdle)
	dirty := c.dirty
	c.mu.Unlock()

	if dirty {
		c.saveNow(true)
	}
}

func positionUpdates(snap graph.Snapshot) []graph.Patch {
	var updates []graph.Patch
	for i := range snap.Nodes {
		n := &snap.Nodes[i]
		pt, ok := n.Position()
		if !ok {
			continue
		}
		physics := true
		if n.Physics != nil {
			physics = *n.Physics
		}
		updates = append(updates, graph.Patch{ID: n.ID, Position: &pt, Physics: &physics})
	}
	return updates
}

func (c *Coordinator) cancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.generation++
	c.restored = true
	closeOnce(c.restoredCh)
	c.setStateLocked(StateIdle)
}

func (c *Coordinator) cancelLocked() {
	for _, cancel := range c.cancels {
		cancel()
	}
	c.cancels = nil
}

func (c *Coordinator) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.logger.Debug("persistence state", zap.Stringer("from", c.state), zap.Stringer("to", s))
	if s == StateIdle {
		closeOnce(c.idle)
	} else if isClosed(c.idle) {
		c.idle = make(chan struct{})
	}
	c.state = s
}

// Close stops pending restores, unsubscribes from the store and writes any
// change that was held back by suppression.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.cancelLocked()
	c.generation++
	dirty := c.dirty && c.state != StatePopulating
	restored := c.restored
	c.setStateLocked(StateIdle)
	c.mu.Unlock()

	c.unsubscribe()
	if dirty {
		c.saveNow(restored)
	}
}

func isClosed(ch chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func closeOnce(ch chan struct{}) {
	if !isClosed(ch) {
		close(ch)
	}
}

// Package graph is the in-memory store of papers and references. Every
// mutation is serialized and fires change notifications, in mutation order,
// to the subscribed observers.
package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

// Store holds the live graph.
//
// Mutations are serialized by opMu, which is held while observers are
// notified; data access is guarded by mu, which is released before
// notifying so observers can read the store.
type Store struct {
	opMu sync.Mutex
	mu   sync.RWMutex

	papers map[int]*paper.Paper
	titles map[string]int

	refs     map[string]*paper.Reference
	refOrder []string
	pairs    map[paper.Pair]string

	newReferenceID func() string

	observers observers
}

// Option configures a Store.
type Option func(*Store)

// WithReferenceIDs overrides how reference ids are generated.
func WithReferenceIDs(fn func() string) Option {
	return func(s *Store) {
		s.newReferenceID = fn
	}
}

// NewStore returns an empty graph store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		papers:         make(map[int]*paper.Paper),
		titles:         make(map[string]int),
		refs:           make(map[string]*paper.Reference),
		pairs:          make(map[paper.Pair]string),
		newReferenceID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot is the serializable form of the whole graph.
type Snapshot struct {
	Nodes []paper.Paper     `json:"nodes"`
	Edges []paper.Reference `json:"edges"`
}

// Subscribe registers o for change notifications. The returned function
// removes the subscription.
func (s *Store) Subscribe(o Observer) (unsubscribe func()) {
	return s.observers.add(o)
}

// SubscribeChan delivers notifications on a channel with the given buffer.
// Delivery blocks the mutating goroutine once the buffer is full, so the
// consumer must keep reading until it calls the returned cancel function,
// which also closes the channel.
func (s *Store) SubscribeChan(buffer int) (<-chan Event, func()) {
	c := &chanObserver{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
	remove := s.observers.add(c)
	return c.ch, func() {
		remove()
		c.close()
	}
}

func (s *Store) notify(events ...Event) {
	if len(events) == 0 {
		return
	}
	obs := s.observers.list()
	for _, e := range events {
		for _, o := range obs {
			o.OnGraphEvent(e)
		}
	}
}

// AddPaper resolves title against the live papers. When a paper with the
// same normalized title exists, meta is merged into it; otherwise a new paper
// is created with the smallest free id.
func (s *Store) AddPaper(title string, meta paper.Metadata) (*paper.Paper, bool, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	p, created, changed, err := s.resolveLocked(title, meta)
	var out *paper.Paper
	if err == nil {
		out = p.Clone()
	}
	s.mu.Unlock()

	if err != nil {
		return nil, false, err
	}

	switch {
	case created:
		s.notify(paperEvent(EventAdd, out.ID))
	case changed:
		s.notify(paperEvent(EventUpdate, out.ID))
	}
	return out, created, nil
}

// Patch describes a partial paper update. Nil fields are left unchanged;
// non-nil string fields are written as given, including "".
type Patch struct {
	ID int

	Title    *string
	Nickname *string
	Authors  *string
	DOI      *string
	Link     *string
	Type     *paper.Type
	Notes    *string
	ColorID  *string

	Position *paper.Point
	Physics  *bool
}

// UpdatePaper applies a single patch.
func (s *Store) UpdatePaper(patch Patch) error {
	return s.UpdatePapers([]Patch{patch})
}

// UpdatePapers applies patches in order, firing one update notification per
// patch. It stops at the first failing patch; patches before it stay
// committed.
func (s *Store) UpdatePapers(patches []Patch) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	var events []Event
	var failure error

	s.mu.Lock()
	for _, patch := range patches {
		if err := s.applyLocked(patch); err != nil {
			failure = fmt.Errorf("update paper %d: %w", patch.ID, err)
			break
		}
		events = append(events, paperEvent(EventUpdate, patch.ID))
	}
	s.mu.Unlock()

	s.notify(events...)
	return failure
}

func (s *Store) applyLocked(patch Patch) error {
	p, ok := s.papers[patch.ID]
	if !ok {
		return ErrPaperNotFound
	}

	if patch.Title != nil {
		title, key, err := cleanTitle(*patch.Title)
		if err != nil {
			return err
		}
		if owner, taken := s.titles[key]; taken && owner != p.ID {
			return ErrDuplicateTitle
		}
		delete(s.titles, paper.NormalizeTitle(p.Title))
		s.titles[key] = p.ID
		p.Title = title
	}

	setText := func(dst *string, v *string) {
		if v != nil {
			*dst = paper.StripTags(*v)
		}
	}
	setText(&p.Nickname, patch.Nickname)
	setText(&p.Authors, patch.Authors)
	setText(&p.DOI, patch.DOI)
	setText(&p.Link, patch.Link)
	if patch.Type != nil {
		p.Type = paper.Type(paper.StripTags(string(*patch.Type)))
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
	if patch.ColorID != nil {
		p.ColorID = *patch.ColorID
	}
	if patch.Position != nil {
		p.SetPosition(*patch.Position)
	}
	if patch.Physics != nil {
		physics := *patch.Physics
		p.Physics = &physics
	}
	return nil
}

// SetAllPinned pins or unpins every paper, one update notification each.
func (s *Store) SetAllPinned(pinned bool) error {
	ids := s.paperIDs()
	patches := make([]Patch, len(ids))
	physics := !pinned
	for i, id := range ids {
		patches[i] = Patch{ID: id, Physics: &physics}
	}
	return s.UpdatePapers(patches)
}

// RemovePaper deletes a paper together with every reference touching it.
func (s *Store) RemovePaper(id int) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	p, ok := s.papers[id]
	if !ok {
		s.mu.Unlock()
		return ErrPaperNotFound
	}

	var removed []string
	for _, refID := range s.refOrder {
		if s.refs[refID].Touches(id) {
			removed = append(removed, refID)
		}
	}
	for _, refID := range removed {
		s.deleteReferenceLocked(refID)
	}
	delete(s.titles, paper.NormalizeTitle(p.Title))
	delete(s.papers, id)
	s.mu.Unlock()

	var events []Event
	if len(removed) > 0 {
		events = append(events, referenceEvent(EventRemove, removed...))
	}
	events = append(events, paperEvent(EventRemove, id))
	s.notify(events...)
	return nil
}

// AddReference connects two existing papers.
func (s *Store) AddReference(from, to int, label string) (*paper.Reference, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	ref, err := s.addReferenceLocked(from, to, label)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.notify(referenceEvent(EventAdd, ref.ID))
	return ref, nil
}

// Cite adds a reference between two papers named by title, creating either
// paper when it does not exist yet.
func (s *Store) Cite(fromTitle, toTitle, label string) (*paper.Reference, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	var events []Event

	s.mu.Lock()
	from, fromCreated, _, err := s.resolveLocked(fromTitle, paper.Metadata{})
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if fromCreated {
		events = append(events, paperEvent(EventAdd, from.ID))
	}

	to, toCreated, _, err := s.resolveLocked(toTitle, paper.Metadata{})
	if err != nil {
		s.mu.Unlock()
		s.notify(events...)
		return nil, err
	}
	if toCreated {
		events = append(events, paperEvent(EventAdd, to.ID))
	}

	ref, err := s.addReferenceLocked(from.ID, to.ID, label)
	s.mu.Unlock()
	if err == nil {
		events = append(events, referenceEvent(EventAdd, ref.ID))
	}

	s.notify(events...)
	return ref, err
}

func (s *Store) addReferenceLocked(from, to int, label string) (*paper.Reference, error) {
	if _, ok := s.papers[from]; !ok {
		return nil, fmt.Errorf("source %d: %w", from, ErrPaperNotFound)
	}
	if _, ok := s.papers[to]; !ok {
		return nil, fmt.Errorf("target %d: %w", to, ErrPaperNotFound)
	}

	pair := paper.Pair{From: from, To: to}
	if _, exists := s.pairs[pair]; exists {
		return nil, ErrDuplicateReference
	}

	ref := &paper.Reference{
		ID:    s.newReferenceID(),
		From:  from,
		To:    to,
		Label: paper.StripTags(label),
	}
	s.insertReferenceLocked(ref)

	out := *ref
	return &out, nil
}

func (s *Store) insertReferenceLocked(ref *paper.Reference) {
	s.refs[ref.ID] = ref
	s.refOrder = append(s.refOrder, ref.ID)
	s.pairs[ref.Key()] = ref.ID
}

func (s *Store) deleteReferenceLocked(id string) {
	ref, ok := s.refs[id]
	if !ok {
		return
	}
	delete(s.refs, id)
	delete(s.pairs, ref.Key())
	for i, rid := range s.refOrder {
		if rid == id {
			s.refOrder = append(s.refOrder[:i], s.refOrder[i+1:]...)
			break
		}
	}
}

// UpdateReferenceLabel replaces a reference's label.
func (s *Store) UpdateReferenceLabel(id, label string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	ref, ok := s.refs[id]
	if !ok {
		s.mu.Unlock()
		return ErrReferenceNotFound
	}
	ref.Label = paper.StripTags(label)
	s.mu.Unlock()

	s.notify(referenceEvent(EventUpdate, id))
	return nil
}

// RemoveReference deletes a single reference.
func (s *Store) RemoveReference(id string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if _, ok := s.refs[id]; !ok {
		s.mu.Unlock()
		return ErrReferenceNotFound
	}
	s.deleteReferenceLocked(id)
	s.mu.Unlock()

	s.notify(referenceEvent(EventRemove, id))
	return nil
}

// Clear removes every reference and paper.
func (s *Store) Clear() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	refIDs := append([]string(nil), s.refOrder...)
	paperIDs := s.paperIDsLocked()

	s.papers = make(map[int]*paper.Paper)
	s.titles = make(map[string]int)
	s.refs = make(map[string]*paper.Reference)
	s.refOrder = nil
	s.pairs = make(map[paper.Pair]string)
	s.mu.Unlock()

	var events []Event
	if len(refIDs) > 0 {
		events = append(events, referenceEvent(EventRemove, refIDs...))
	}
	if len(paperIDs) > 0 {
		events = append(events, paperEvent(EventRemove, paperIDs...))
	}
	s.notify(events...)
}

// Replace swaps the whole graph for the given papers and references in one
// pass. The input is validated first; on error the store is unchanged.
// References without an id get a fresh one.
func (s *Store) Replace(snap Snapshot) error {
	papers, titles, err := validatePapers(snap.Nodes)
	if err != nil {
		return err
	}
	if err := validateEdges(snap.Edges, papers); err != nil {
		return err
	}

	refs := make(map[string]*paper.Reference, len(snap.Edges))
	order := make([]string, 0, len(snap.Edges))
	pairs := make(map[paper.Pair]string, len(snap.Edges))
	for _, e := range snap.Edges {
		ref := e
		ref.Label = paper.StripTags(ref.Label)
		if ref.ID == "" {
			ref.ID = s.newReferenceID()
		}
		if _, dup := refs[ref.ID]; dup {
			ref.ID = s.newReferenceID()
		}
		refs[ref.ID] = &ref
		order = append(order, ref.ID)
		pairs[ref.Key()] = ref.ID
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.papers = papers
	s.titles = titles
	s.refs = refs
	s.refOrder = order
	s.pairs = pairs
	s.mu.Unlock()

	s.notify(Event{Kind: EventReset, Collection: CollectionAll})
	return nil
}

// Validate reports whether snap could be loaded by Replace.
func Validate(snap Snapshot) error {
	papers, _, err := validatePapers(snap.Nodes)
	if err != nil {
		return err
	}
	return validateEdges(snap.Edges, papers)
}

func validateEdges(edges []paper.Reference, papers map[int]*paper.Paper) error {
	pairs := make(map[paper.Pair]struct{}, len(edges))
	for i, e := range edges {
		if _, ok := papers[e.From]; !ok {
			return fmt.Errorf("edge %d source %d: %w", i, e.From, ErrPaperNotFound)
		}
		if _, ok := papers[e.To]; !ok {
			return fmt.Errorf("edge %d target %d: %w", i, e.To, ErrPaperNotFound)
		}
		if _, dup := pairs[e.Key()]; dup {
			return fmt.Errorf("edge %d (%d -> %d): %w", i, e.From, e.To, ErrDuplicateReference)
		}
		pairs[e.Key()] = struct{}{}
	}
	return nil
}

func validatePapers(nodes []paper.Paper) (map[int]*paper.Paper, map[string]int, error) {
	papers := make(map[int]*paper.Paper, len(nodes))
	titles := make(map[string]int, len(nodes))
	for i := range nodes {
		p := nodes[i].Clone()
		if p.ID <= 0 {
			return nil, nil, fmt.Errorf("node %d: invalid id %d", i, p.ID)
		}
		if _, dup := papers[p.ID]; dup {
			return nil, nil, fmt.Errorf("node %d: duplicate id %d", i, p.ID)
		}

		title, key, err := cleanTitle(p.Title)
		if err != nil {
			return nil, nil, fmt.Errorf("node %d: %w", i, err)
		}
		if _, dup := titles[key]; dup {
			return nil, nil, fmt.Errorf("node %d %q: %w", i, title, ErrDuplicateTitle)
		}
		p.Title = title
		meta := paper.Metadata{
			Nickname: p.Nickname,
			Authors:  p.Authors,
			DOI:      p.DOI,
			Link:     p.Link,
			Type:     p.Type,
			Notes:    p.Notes,
			ColorID:  p.ColorID,
		}.Sanitize()
		p.Nickname, p.Authors, p.DOI, p.Link, p.Type = meta.Nickname, meta.Authors, meta.DOI, meta.Link, meta.Type

		papers[p.ID] = p
		titles[key] = p.ID
	}
	return papers, titles, nil
}

// Paper returns a copy of the paper with the given id.
func (s *Store) Paper(id int) (*paper.Paper, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.papers[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// FindByTitle looks a paper up by normalized title.
func (s *Store) FindByTitle(title string) (*paper.Paper, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.titles[paper.NormalizeTitle(paper.StripTags(title))]
	if !ok {
		return nil, false
	}
	return s.papers[id].Clone(), true
}

// Papers returns copies of all papers ordered by id.
func (s *Store) Papers() []*paper.Paper {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.paperIDsLocked()
	out := make([]*paper.Paper, len(ids))
	for i, id := range ids {
		out[i] = s.papers[id].Clone()
	}
	return out
}

// Reference returns a copy of the reference with the given id.
func (s *Store) Reference(id string) (*paper.Reference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, ok := s.refs[id]
	if !ok {
		return nil, false
	}
	out := *ref
	return &out, true
}

// ReferenceBetween returns the reference from -> to, if any.
func (s *Store) ReferenceBetween(from, to int) (*paper.Reference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.pairs[paper.Pair{From: from, To: to}]
	if !ok {
		return nil, false
	}
	out := *s.refs[id]
	return &out, true
}

// References returns copies of all references in insertion order.
func (s *Store) References() []paper.Reference {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]paper.Reference, len(s.refOrder))
	for i, id := range s.refOrder {
		out[i] = *s.refs[id]
	}
	return out
}

// Snapshot returns a consistent copy of the whole graph.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.paperIDsLocked()
	snap := Snapshot{
		Nodes: make([]paper.Paper, len(ids)),
		Edges: make([]paper.Reference, len(s.refOrder)),
	}
	for i, id := range ids {
		snap.Nodes[i] = *s.papers[id].Clone()
	}
	for i, id := range s.refOrder {
		snap.Edges[i] = *s.refs[id]
	}
	return snap
}

// Len returns the number of papers and references.
func (s *Store) Len() (papers, references int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.papers), len(s.refs)
}

func (s *Store) paperIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paperIDsLocked()
}

func (s *Store) paperIDsLocked() []int {
	ids := make([]int, 0, len(s.papers))
	for id := range s.papers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

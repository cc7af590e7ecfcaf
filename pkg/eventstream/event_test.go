package eventstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Ben-Eze/BibWeb/pkg/eventstream"
	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.GraphChangedEvent
	fail   bool
	closed bool
}

func (p *recordingPublisher) PublishGraphChange(_ context.Context, e *eventstream.GraphChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *recordingPublisher) kinds() []graph.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]graph.Kind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Change.Kind
	}
	return out
}

var _ = Describe("Event", func() {
	It("marshals GraphChangedEvent with expected top-level keys", func() {
		store := graph.NewStore()
		_, _, err := store.AddPaper("Attention", paper.Metadata{Authors: "Vaswani"})
		Expect(err).NotTo(HaveOccurred())

		ev := eventstream.NewGraphChangedEvent(
			graph.Event{Kind: graph.EventAdd, Collection: graph.CollectionPapers, IDs: []string{"1"}},
			store,
			eventstream.EventSource{Workspace: "thesis"},
		)
		Expect(ev.Papers).To(HaveLen(1))
		Expect(ev.Papers[0].Authors).To(Equal("Vaswani"))

		payload, err := json.Marshal(ev)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKeyWithValue("event_type", eventstream.EventTypeGraphChanged))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("change"))
		Expect(got).To(HaveKey("papers"))
	})

	It("carries only ids for removals", func() {
		ev := eventstream.NewGraphChangedEvent(
			graph.Event{Kind: graph.EventRemove, Collection: graph.CollectionPapers, IDs: []string{"3"}},
			graph.NewStore(),
			eventstream.EventSource{},
		)
		Expect(ev.Papers).To(BeEmpty())
		Expect(ev.Change.IDs).To(Equal([]string{"3"}))
	})
})

var _ = Describe("Forwarder", func() {
	It("publishes every change in order", func() {
		store := graph.NewStore()
		pub := &recordingPublisher{}
		f, err := eventstream.NewForwarder(&eventstream.ForwarderConfig{Store: store, Publisher: pub})
		Expect(err).NotTo(HaveOccurred())

		_, _ = store.Cite("A", "B", "")
		Expect(store.RemovePaper(1)).To(Succeed())

		Expect(f.Close()).To(Succeed())
		Expect(pub.kinds()).To(Equal([]graph.Kind{
			graph.EventAdd, graph.EventAdd, graph.EventAdd,
			graph.EventRemove, graph.EventRemove,
		}))
		Expect(pub.closed).To(BeTrue())
	})

	It("keeps going when publishing fails", func() {
		store := graph.NewStore()
		pub := &recordingPublisher{fail: true}
		f, err := eventstream.NewForwarder(&eventstream.ForwarderConfig{Store: store, Publisher: pub})
		Expect(err).NotTo(HaveOccurred())

		_, _, err = store.AddPaper("A", paper.Metadata{})
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Close()).To(Succeed())
	})

	It("stops following the store once closed", func() {
		store := graph.NewStore()
		pub := &recordingPublisher{}
		f, err := eventstream.NewForwarder(&eventstream.ForwarderConfig{Store: store, Publisher: pub})
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Close()).To(Succeed())

		_, _, err = store.AddPaper("A", paper.Metadata{})
		Expect(err).NotTo(HaveOccurred())
		Expect(pub.kinds()).To(BeEmpty())
	})
})

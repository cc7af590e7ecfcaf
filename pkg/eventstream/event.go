package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeGraphChanged is emitted after every graph mutation.
	EventTypeGraphChanged = "bibweb.graph.changed"
)

// GraphChangedEvent is a transport-neutral event payload for a graph change.
type GraphChangedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Change        Change      `json:"change"`

	// Papers and References carry the current state of the changed items
	// for add and update changes.
	Papers     []paper.Paper     `json:"papers,omitempty"`
	References []paper.Reference `json:"references,omitempty"`
}

// EventSource identifies which workspace the change happened in.
type EventSource struct {
	Workspace string `json:"workspace"`
	Host      string `json:"host,omitempty"`
}

// Change mirrors a graph notification.
type Change struct {
	Kind       graph.Kind       `json:"kind"`
	Collection graph.Collection `json:"collection"`
	IDs        []string         `json:"ids,omitempty"`
}

// NewGraphChangedEvent builds the payload for e, reading the changed items
// from store.
func NewGraphChangedEvent(e graph.Event, store *graph.Store, source EventSource) *GraphChangedEvent {
	ev := &GraphChangedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeGraphChanged,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Change: Change{
			Kind:       e.Kind,
			Collection: e.Collection,
			IDs:        e.IDs,
		},
	}

	if e.Kind != graph.EventAdd && e.Kind != graph.EventUpdate {
		return ev
	}

	switch e.Collection {
	case graph.CollectionPapers:
		for _, id := range e.PaperIDs() {
			if p, ok := store.Paper(id); ok {
				ev.Papers = append(ev.Papers, *p)
			}
		}
	case graph.CollectionReferences:
		for _, id := range e.IDs {
			if r, ok := store.Reference(id); ok {
				ev.References = append(ev.References, *r)
			}
		}
	}
	return ev
}

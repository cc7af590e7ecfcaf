package nop

import (
	"context"

	"github.com/Ben-Eze/BibWeb/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishGraphChange validates input and otherwise does nothing.
func (p *Publisher) PublishGraphChange(_ context.Context, event *eventstream.GraphChangedEvent) error {
	if event == nil {
		return eventstream.ErrNilGraphEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}

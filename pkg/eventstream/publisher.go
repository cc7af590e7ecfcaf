package eventstream

import "context"

// Publisher publishes graph change events to an event stream backend.
type Publisher interface {
	PublishGraphChange(ctx context.Context, event *GraphChangedEvent) error
	Close() error
}

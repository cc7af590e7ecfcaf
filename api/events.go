package api

import (
	"bufio"
	"encoding/json"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/pkg/eventstream"
	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/sse"
)

const (
	defaultStreamBuffer = 64
	defaultKeepAlive    = 15 * time.Second
)

// handleEvents streams graph changes to the client as Server-Sent Events.
// Each event carries the same payload the change feed publishes. Changes
// are dropped for a client that falls more than StreamBuffer events behind.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	host, _ := os.Hostname()
	source := eventstream.EventSource{Workspace: s.ws.Dir, Host: host}
	store := s.ws.Store

	queue := make(chan *eventstream.GraphChangedEvent, s.config.StreamBuffer)
	unsubscribe := store.Subscribe(graph.ObserverFunc(func(e graph.Event) {
		ev := eventstream.NewGraphChangedEvent(e, store, source)
		select {
		case queue <- ev:
		default:
			s.logger.Warn("event stream client is behind, change dropped",
				zap.String("event_id", ev.EventID),
				zap.String("kind", string(e.Kind)),
			)
		}
	}))

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	remote := c.IP()
	s.logger.Debug("event stream opened", zap.String("remote", remote))

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()
		defer s.logger.Debug("event stream closed", zap.String("remote", remote))

		out := sse.NewWriter(w)
		if err := out.Comment("connected"); err != nil || w.Flush() != nil {
			return
		}

		ticker := time.NewTicker(s.config.KeepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return

			case <-ticker.C:
				if err := out.Comment("ping"); err != nil {
					return
				}

			case ev := <-queue:
				data, err := json.Marshal(ev)
				if err != nil {
					s.logger.Error("failed to encode graph event", zap.Error(err))
					continue
				}
				if err := out.Write(sse.Event{Type: ev.EventType, ID: ev.EventID, Data: string(data)}); err != nil {
					return
				}
			}

			if err := w.Flush(); err != nil {
				return
			}
		}
	})

	return nil
}

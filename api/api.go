package api

import (
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/pkg/session"
)

const defaultBodyLimit = 64 << 20

// Server is the API server for a single open workspace.
type Server struct {
	config   Config
	ws       *session.Session
	validate *validator.Validate
	logger   *zap.Logger
	app      *fiber.App

	done        chan struct{}
	stopOnce    sync.Once
	shutdownErr error
}

// NewServer creates a new API server.
// The session is injected so the server shares the graph, the persistence
// coordinator and the blob store with whatever else has the workspace open.
func NewServer(config Config, ws *session.Session, logger *zap.Logger) *Server {
	if config.BodyLimit == 0 {
		config.BodyLimit = defaultBodyLimit
	}
	if config.StreamBuffer == 0 {
		config.StreamBuffer = defaultStreamBuffer
	}
	if config.KeepAlive == 0 {
		config.KeepAlive = defaultKeepAlive
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             config.BodyLimit,
	})

	s := &Server{
		config:   config,
		ws:       ws,
		validate: newValidator(),
		logger:   logger,
		app:      app,
		done:     make(chan struct{}),
	}

	app.Use(s.observeRequests)

	app.Get("/ping", s.handlePing)
	app.Get("/metrics", adaptor.HTTPHandler(ws.Metrics.Handler()))

	v1 := app.Group("/v1")
	v1.Get("/graph", s.handleGetGraph)
	v1.Get("/status", s.handleStatus)
	v1.Get("/notes", s.handleNotes)
	v1.Get("/events", s.handleEvents)

	v1.Post("/papers", s.handleAddPaper)
	v1.Patch("/papers/:id", s.handleUpdatePaper)
	v1.Delete("/papers/:id", s.handleRemovePaper)

	v1.Post("/references", s.handleAddReference)
	v1.Patch("/references/:id", s.handleUpdateReference)
	v1.Delete("/references/:id", s.handleRemoveReference)

	v1.Put("/positions", s.handlePositions)

	v1.Get("/assets", s.handleListAssets)
	v1.Post("/assets", s.handleUploadAsset)
	v1.Get("/assets/:name", s.handleGetAsset)

	v1.Get("/export", s.handleExport)
	v1.Post("/import", s.handleImport)

	return s
}

// observeRequests records every request against its route pattern so ids
// in paths do not explode the label space.
func (s *Server) observeRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}
	s.ws.Metrics.ObserveRequest(c.Method(), c.Route().Path, status, time.Since(start))
	return err
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown ends open event streams and gracefully shuts down the API
// server.
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() {
		close(s.done)
		s.shutdownErr = s.app.Shutdown()
	})
	return s.shutdownErr
}

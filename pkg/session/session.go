// Package session opens a bibweb workspace: it resolves the .bibweb/
// directory, builds every component from the configuration and loads the
// persisted graph, so commands and the API server share one wiring.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/blob/fsblob"
	"github.com/Ben-Eze/BibWeb/pkg/blob/s3blob"
	"github.com/Ben-Eze/BibWeb/pkg/blob/sqlblob"
	"github.com/Ben-Eze/BibWeb/pkg/bundle"
	"github.com/Ben-Eze/BibWeb/pkg/config"
	"github.com/Ben-Eze/BibWeb/pkg/eventstream"
	"github.com/Ben-Eze/BibWeb/pkg/eventstream/kafka"
	"github.com/Ben-Eze/BibWeb/pkg/eventstream/nop"
	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/layout"
	"github.com/Ben-Eze/BibWeb/pkg/localstore"
	"github.com/Ben-Eze/BibWeb/pkg/metrics"
	"github.com/Ben-Eze/BibWeb/pkg/persist"
)

const (
	snapshotFile = "web.json"
	assetsDir    = "assets"
	assetsDB     = "assets.db"
)

// Options configures Open.
type Options struct {
	// Dir is the resolved workspace directory.
	Dir string

	Config *config.Config

	// Blobs overrides the configured asset provider.
	Blobs blob.Store

	// Medium overrides the snapshot file.
	Medium localstore.Medium

	// Publisher overrides the configured change feed.
	Publisher eventstream.Publisher

	// Metrics is created when nil.
	Metrics *metrics.Collector

	Logger *zap.Logger
}

// Session is an open workspace.
type Session struct {
	Dir    string
	Config *config.Config

	Store     *graph.Store
	Layout    *layout.Engine
	Persist   *persist.Coordinator
	Medium    localstore.Medium
	Blobs     blob.Store
	Registrar *blob.Registrar
	Bundler   *bundle.Bundler
	Metrics   *metrics.Collector

	file         *localstore.File
	forwarder    *eventstream.Forwarder
	stopObserver func()
	logger       *zap.Logger
}

// Open builds the workspace components and loads the persisted graph. It
// returns once persisted positions have been restored or ctx is done.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Config == nil {
		opts.Config = config.NewDefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector()
	}

	s := &Session{
		Dir:     opts.Dir,
		Config:  opts.Config,
		Metrics: opts.Metrics,
		logger:  opts.Logger,
	}

	if err := s.open(ctx, opts); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) open(ctx context.Context, opts Options) error {
	cfg := s.Config
	var err error

	s.Medium = opts.Medium
	if s.Medium == nil {
		s.file, err = localstore.OpenFile(s.SnapshotPath(), cfg.Storage.QuotaBytes, s.logger)
		if err != nil {
			return fmt.Errorf("opening snapshot storage: %w", err)
		}
		s.Medium = s.file
	}

	s.Blobs = opts.Blobs
	if s.Blobs == nil {
		s.Blobs, err = s.openBlobs(ctx)
		if err != nil {
			return err
		}
	}

	s.Store = graph.NewStore()
	s.Layout = layout.New(s.Store)
	s.stopObserver = s.Metrics.Observe(s.Store)

	s.Persist, err = persist.New(&persist.Config{
		Store:          s.Store,
		Medium:         s.Medium,
		Layout:         s.Layout,
		Notifier:       s.Metrics,
		FallbackDelay:  cfg.Restore.FallbackDelay.Duration,
		SettleDelay:    cfg.Restore.SettleDelay.Duration,
		SuppressWindow: cfg.Restore.SuppressWindow.Duration,
		Logger:         s.logger.Named("persist"),
	})
	if err != nil {
		return err
	}

	s.Registrar, err = blob.NewRegistrar(&blob.RegistrarConfig{
		Driver:   s.Blobs,
		OnStored: s.Metrics.AssetStored,
		Logger:   s.logger.Named("registrar"),
	})
	if err != nil {
		return err
	}

	s.Bundler, err = bundle.New(&bundle.Config{
		Store:     s.Store,
		Blobs:     s.Blobs,
		Registrar: s.Registrar,
		Layout:    s.Layout,
		Restorer:  s,
		Logger:    s.logger.Named("bundle"),
	})
	if err != nil {
		return err
	}

	if err := s.startForwarder(opts.Publisher); err != nil {
		return err
	}

	return s.Load(ctx)
}

// SnapshotPath returns where the snapshot file lives.
func (s *Session) SnapshotPath() string {
	if p := s.Config.Storage.SnapshotPath; p != "" {
		return p
	}
	return filepath.Join(s.Dir, snapshotFile)
}

func (s *Session) openBlobs(ctx context.Context) (blob.Store, error) {
	a := s.Config.Assets
	switch a.Provider {
	case "", config.AssetsFS:
		dir := a.Path
		if dir == "" {
			dir = filepath.Join(s.Dir, assetsDir)
		}
		d, err := fsblob.NewOSDriver(dir)
		if err != nil {
			return nil, fmt.Errorf("opening asset directory: %w", err)
		}
		s.logger.Debug("using filesystem assets", zap.String("path", dir))
		return d, nil

	case config.AssetsSQLite:
		path := a.Path
		if path == "" {
			path = filepath.Join(s.Dir, assetsDB)
		}
		d, err := sqlblob.NewSQLiteDriver(path)
		if err != nil {
			return nil, fmt.Errorf("opening SQLite assets: %w", err)
		}
		s.logger.Debug("using SQLite assets", zap.String("path", path))
		return d, nil

	case config.AssetsPostgres:
		if a.DSN == "" {
			return nil, errors.New("assets.dsn is required for the postgres provider")
		}
		d, err := sqlblob.NewPostgresDriver(ctx, a.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening PostgreSQL assets: %w", err)
		}
		s.logger.Debug("using PostgreSQL assets")
		return d, nil

	case config.AssetsS3:
		d, err := s3blob.Open(ctx, &s3blob.Config{
			Bucket:    a.S3Bucket,
			Prefix:    a.S3Prefix,
			Region:    a.S3Region,
			Endpoint:  a.S3Endpoint,
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Logger:    s.logger.Named("s3"),
		})
		if err != nil {
			return nil, fmt.Errorf("opening S3 assets: %w", err)
		}
		s.logger.Debug("using S3 assets", zap.String("bucket", a.S3Bucket))
		return d, nil

	default:
		return nil, fmt.Errorf("unknown assets provider %q", a.Provider)
	}
}

func (s *Session) startForwarder(pub eventstream.Publisher) error {
	ev := s.Config.Events
	if pub == nil {
		switch ev.Provider {
		case "", config.EventsNone:
			pub = nop.NewPublisher()
		case config.EventsKafka:
			kp, err := kafka.NewPublisher(kafka.Config{
				Brokers: ev.Brokers,
				Topic:   ev.Topic,
			})
			if err != nil {
				return fmt.Errorf("creating kafka publisher: %w", err)
			}
			pub = kp
		default:
			return fmt.Errorf("unknown events provider %q", ev.Provider)
		}
	}

	host, _ := os.Hostname()
	f, err := eventstream.NewForwarder(&eventstream.ForwarderConfig{
		Store:     s.Store,
		Publisher: pub,
		Source:    eventstream.EventSource{Workspace: s.Dir, Host: host},
		Logger:    s.logger.Named("events"),
	})
	if err != nil {
		return fmt.Errorf("starting change feed: %w", err)
	}
	s.forwarder = f
	return nil
}

// Restore replaces the graph with snap through the persistence
// coordinator. The headless layout places papers synchronously, so it
// reports itself settled straight away.
func (s *Session) Restore(snap graph.Snapshot) error {
	if err := s.Persist.Restore(snap); err != nil {
		return err
	}
	s.Layout.Stabilize()
	return nil
}

// Load reads the persisted graph and waits for its positions to be
// restored.
func (s *Session) Load(ctx context.Context) error {
	if err := s.Persist.Load(); err != nil {
		return err
	}
	s.Layout.Stabilize()

	select {
	case <-s.Persist.Restored():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Watch reloads the graph whenever the snapshot file is changed by another
// process, until ctx is done. It returns nil right away when the snapshot
// is not file backed.
func (s *Session) Watch(ctx context.Context) error {
	if s.file == nil {
		return nil
	}
	err := s.file.Watch(ctx, func(keys []string) {
		if !slices.Contains(keys, persist.SnapshotKey) {
			return
		}
		s.logger.Info("snapshot changed on disk, reloading", zap.String("path", s.file.Path()))
		if err := s.Load(ctx); err != nil {
			s.logger.Warn("could not reload snapshot", zap.Error(err))
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close flushes pending writes and releases every component in reverse
// order of construction.
func (s *Session) Close() error {
	var errs []error
	if s.Registrar != nil {
		s.Registrar.Close()
	}
	if s.Persist != nil {
		s.Persist.Close()
	}
	if s.forwarder != nil {
		if err := s.forwarder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing change feed: %w", err))
		}
	}
	if s.stopObserver != nil {
		s.stopObserver()
	}
	if s.Layout != nil {
		s.Layout.Close()
	}
	if s.Blobs != nil {
		if err := s.Blobs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing asset store: %w", err))
		}
	}
	return errors.Join(errs...)
}

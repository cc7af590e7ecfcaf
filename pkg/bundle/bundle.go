// Package bundle exports the graph, with its assets, to a single file and
// imports such files back.
//
// A bundle is either a bare JSON document holding the snapshot, or a ZIP
// archive with the snapshot at web.json and every asset under assets/.
package bundle

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/persist"
)

// ErrInvalidFile is returned for a bundle that cannot be parsed or does not
// describe a valid graph. The graph is left untouched.
var ErrInvalidFile = errors.New("invalid bibweb file")

const (
	// DocumentName is the snapshot entry inside an archive.
	DocumentName = "web.json"

	// AssetDir prefixes asset entries inside an archive.
	AssetDir = "assets/"
)

// Format is the kind of file a bundle was written as.
type Format string

const (
	FormatDocument Format = "json"
	FormatArchive  Format = "zip"
)

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// ContentType returns the media type for f.
func (f Format) ContentType() string {
	if f == FormatArchive {
		return "application/zip"
	}
	return "application/json"
}

// Restorer loads a snapshot into the live graph. The persistence coordinator
// implements it so imported positions go through the restoration protocol.
type Restorer interface {
	Restore(snap graph.Snapshot) error
}

// Config is the configuration for a Bundler.
type Config struct {
	Store *graph.Store
	Blobs blob.Driver

	// Registrar, when set, is flushed before exporting and used to store
	// imported assets.
	Registrar *blob.Registrar

	// Layout, when set, supplies current positions for export.
	Layout persist.PositionSource

	// Restorer loads imported snapshots. Defaults to Store.Replace.
	Restorer Restorer

	// Parallelism bounds concurrent asset reads during export.
	Parallelism int

	Logger *zap.Logger
}

// Bundler implements export and import.
type Bundler struct {
	config *Config
	logger *zap.Logger
}

// New creates a Bundler.
func New(c *Config) (*Bundler, error) {
	if c.Store == nil {
		return nil, fmt.Errorf("bundle: store is required")
	}
	if c.Blobs == nil {
		return nil, fmt.Errorf("bundle: blob driver is required")
	}
	if c.Parallelism <= 0 {
		c.Parallelism = 4
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return &Bundler{config: c, logger: c.Logger}, nil
}

func (b *Bundler) restore(snap graph.Snapshot) error {
	if b.config.Restorer != nil {
		return b.config.Restorer.Restore(snap)
	}
	return b.config.Store.Replace(snap)
}

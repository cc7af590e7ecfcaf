package bundle

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

var zipMagic = []byte("PK\x03\x04")

// Report summarizes an import.
type Report struct {
	Format     Format
	Papers     int
	References int

	// Assets lists the names imported assets were stored under.
	Assets []string

	// Renamed maps archive names to the names they were stored under when
	// those differ.
	Renamed map[string]string

	// Failed maps archive names to the error that kept them out.
	Failed map[string]error
}

// IsArchive reports whether data starts like a ZIP file.
func IsArchive(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// Import loads a bundle produced by Export, replacing the current graph.
func (b *Bundler) Import(ctx context.Context, data []byte) (*Report, error) {
	if IsArchive(data) {
		return b.importArchive(ctx, data)
	}

	snap, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	if err := b.restore(snap); err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	return &Report{
		Format:     FormatDocument,
		Papers:     len(snap.Nodes),
		References: len(snap.Edges),
	}, nil
}

// ImportReader reads r fully and imports it.
func (b *Bundler) ImportReader(ctx context.Context, r io.Reader) (*Report, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}
	return b.Import(ctx, data)
}

func parseDocument(data []byte) (graph.Snapshot, error) {
	var snap graph.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return graph.Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if err := graph.Validate(snap); err != nil {
		return graph.Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	return snap, nil
}

func (b *Bundler) importArchive(ctx context.Context, data []byte) (*Report, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	var doc *zip.File
	var entries []*zip.File
	for _, f := range zr.File {
		switch {
		case f.Name == DocumentName:
			doc = f
		case strings.HasPrefix(f.Name, AssetDir) && !f.FileInfo().IsDir():
			entries = append(entries, f)
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: archive has no %s", ErrInvalidFile, DocumentName)
	}

	raw, err := readEntry(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	snap, err := parseDocument(raw)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Format:  FormatArchive,
		Renamed: make(map[string]string),
		Failed:  make(map[string]error),
	}
	for _, f := range entries {
		requested := strings.TrimPrefix(f.Name, AssetDir)
		name, err := b.importAsset(ctx, f, requested)
		if err != nil {
			b.logger.Error("failed to import asset, skipping",
				zap.String("asset", requested),
				zap.Error(err),
			)
			report.Failed[requested] = err
			continue
		}
		report.Assets = append(report.Assets, name)
		if name != requested {
			report.Renamed[requested] = name
		}
	}

	rewriteLinks(&snap, report.Renamed)

	if err := b.restore(snap); err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	report.Papers = len(snap.Nodes)
	report.References = len(snap.Edges)
	return report, nil
}

func (b *Bundler) importAsset(ctx context.Context, f *zip.File, name string) (string, error) {
	data, err := readEntry(f)
	if err != nil {
		return "", err
	}
	a := blob.NewAsset(name, data, "")
	if !f.Modified.IsZero() {
		a.SavedAt = f.Modified.UTC()
	}

	if b.config.Registrar != nil {
		return b.config.Registrar.Register(ctx, a, blob.ReuseIdentical())
	}
	return blob.Register(ctx, b.config.Blobs, a, blob.ReuseIdentical())
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name, err)
	}
	return data, nil
}

// rewriteLinks points asset links at the names the assets were stored under.
func rewriteLinks(snap *graph.Snapshot, renamed map[string]string) {
	if len(renamed) == 0 {
		return
	}
	for i := range snap.Nodes {
		name := paper.AssetName(snap.Nodes[i].Link)
		if to, ok := renamed[name]; ok {
			snap.Nodes[i].Link = paper.AssetLink(to)
		}
	}
}

package bundle

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
	"github.com/Ben-Eze/BibWeb/pkg/graph"
	"github.com/Ben-Eze/BibWeb/pkg/persist"
)

// Snapshot returns the graph with the layout's current positions applied.
func (b *Bundler) Snapshot() graph.Snapshot {
	snap := b.config.Store.Snapshot()
	if b.config.Layout != nil {
		persist.ApplyPositions(&snap, b.config.Layout.Positions())
	}
	return snap
}

// Export writes a JSON document when there are no assets, otherwise a ZIP
// archive, and reports which one it wrote. Pending asset registrations are
// waited for first.
func (b *Bundler) Export(ctx context.Context, w io.Writer) (Format, error) {
	if b.config.Registrar != nil {
		if err := b.config.Registrar.Flush(ctx); err != nil {
			return "", fmt.Errorf("waiting for pending assets: %w", err)
		}
	}

	infos, err := b.config.Blobs.List(ctx)
	if err != nil {
		return "", fmt.Errorf("listing assets: %w", err)
	}

	if len(infos) == 0 {
		return FormatDocument, b.WriteDocument(w)
	}
	return FormatArchive, b.writeArchive(ctx, w, infos)
}

// WriteDocument writes the snapshot as indented JSON.
func (b *Bundler) WriteDocument(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b.Snapshot()); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

func (b *Bundler) writeArchive(ctx context.Context, w io.Writer, infos []blob.Info) error {
	assets, err := b.readAssets(ctx, infos)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	doc, err := zw.Create(DocumentName)
	if err != nil {
		return fmt.Errorf("creating %s: %w", DocumentName, err)
	}
	if err := b.WriteDocument(doc); err != nil {
		return err
	}

	for _, a := range assets {
		if a == nil {
			continue
		}
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     AssetDir + a.Name,
			Method:   zip.Deflate,
			Modified: a.SavedAt,
		})
		if err != nil {
			return fmt.Errorf("creating entry for %q: %w", a.Name, err)
		}
		if _, err := f.Write(a.Data); err != nil {
			return fmt.Errorf("writing asset %q: %w", a.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	return nil
}

// readAssets fetches every asset concurrently. Assets deleted since they
// were listed are left nil.
func (b *Bundler) readAssets(ctx context.Context, infos []blob.Info) ([]*blob.Asset, error) {
	assets := make([]*blob.Asset, len(infos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.config.Parallelism)
	for i, info := range infos {
		g.Go(func() error {
			a, err := b.config.Blobs.Get(gctx, info.Name)
			if blob.IsNotFound(err) {
				b.logger.Warn("asset disappeared during export", zap.String("asset", info.Name))
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading asset %q: %w", info.Name, err)
			}
			assets[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

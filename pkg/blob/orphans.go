package blob

import (
	"context"
	"fmt"

	"github.com/Ben-Eze/BibWeb/pkg/paper"
)

// Orphans lists stored assets that no paper links to. Nothing is deleted.
func Orphans(ctx context.Context, d Driver, papers []*paper.Paper) ([]Info, error) {
	linked := make(map[string]struct{}, len(papers))
	for _, p := range papers {
		if name := paper.AssetName(p.Link); name != "" {
			linked[name] = struct{}{}
		}
	}

	infos, err := d.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}

	var orphans []Info
	for _, info := range infos {
		if _, ok := linked[info.Name]; !ok {
			orphans = append(orphans, info)
		}
	}
	return orphans, nil
}

// Missing lists the asset names linked from papers that the store does not
// hold, keyed by paper id.
func Missing(ctx context.Context, d Driver, papers []*paper.Paper) (map[int]string, error) {
	missing := make(map[int]string)
	for _, p := range papers {
		name := paper.AssetName(p.Link)
		if name == "" {
			continue
		}
		ok, err := d.Has(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("checking asset %q: %w", name, err)
		}
		if !ok {
			missing[p.ID] = name
		}
	}
	return missing, nil
}

// TotalSize reports how many bytes the store holds.
func TotalSize(ctx context.Context, d Driver) (int64, error) {
	size, err := d.Size(ctx)
	if err != nil {
		return 0, fmt.Errorf("measuring asset store: %w", err)
	}
	return size, nil
}

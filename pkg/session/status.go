package session

import (
	"context"
	"fmt"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
)

// Status summarizes a workspace for `bibweb status` and GET /v1/status.
type Status struct {
	Dir        string        `json:"dir"`
	Papers     int           `json:"papers"`
	References int           `json:"references"`
	State      string        `json:"state"`
	Storage    StorageStatus `json:"storage"`
	Assets     AssetStatus   `json:"assets"`
}

// StorageStatus describes the snapshot medium.
type StorageStatus struct {
	Path     string `json:"path,omitempty"`
	Used     int64  `json:"used"`
	Quota    int64  `json:"quota"`
	Exceeded bool   `json:"exceeded"`
}

// AssetStatus describes the blob store.
type AssetStatus struct {
	Provider string `json:"provider"`
	Count    int    `json:"count"`
	Bytes    int64  `json:"bytes"`

	// Missing maps paper ids to asset links that do not resolve.
	Missing map[int]string `json:"missing,omitempty"`
}

// Status gathers the current workspace status.
func (s *Session) Status(ctx context.Context) (*Status, error) {
	papers, refs := s.Store.Len()
	used, quota := s.Medium.Usage()

	st := &Status{
		Dir:        s.Dir,
		Papers:     papers,
		References: refs,
		State:      s.Persist.State().String(),
		Storage: StorageStatus{
			Used:     used,
			Quota:    quota,
			Exceeded: s.Persist.StorageExceeded(),
		},
		Assets: AssetStatus{
			Provider: s.Config.Assets.Provider,
		},
	}
	if s.file != nil {
		st.Storage.Path = s.file.Path()
	}

	infos, err := s.Blobs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	st.Assets.Count = len(infos)

	st.Assets.Bytes, err = blob.TotalSize(ctx, s.Blobs)
	if err != nil {
		return nil, err
	}

	st.Assets.Missing, err = blob.Missing(ctx, s.Blobs, s.Store.Papers())
	if err != nil {
		return nil, fmt.Errorf("checking asset links: %w", err)
	}

	return st, nil
}

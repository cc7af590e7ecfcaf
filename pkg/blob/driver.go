// Package blob stores binary attachments (PDFs, videos) by name, separately
// from the graph snapshot. Papers point at them with "assets/<name>" links.
package blob

import (
	"context"
	"time"
)

// Info describes a stored asset without its contents.
type Info struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	MimeType string    `json:"mimeType"`
	SavedAt  time.Time `json:"savedAt"`
}

// Asset is a stored binary object.
type Asset struct {
	Info
	Data []byte `json:"-"`
}

// NewAsset builds an asset for data, filling in size, mime type and saved time.
func NewAsset(name string, data []byte, mimeType string) *Asset {
	if mimeType == "" {
		mimeType = DetectMimeType(name, data)
	}
	return &Asset{
		Info: Info{
			Name:     name,
			Size:     int64(len(data)),
			MimeType: mimeType,
			SavedAt:  time.Now().UTC(),
		},
		Data: data,
	}
}

// Driver defines the interface for persisting and retrieving assets in a
// storage backend. Names are flat: they never contain a path separator.
type Driver interface {
	// Put stores an asset under a.Name, replacing any existing asset with
	// that name. Callers that must not overwrite go through Register.
	Put(ctx context.Context, a *Asset) error

	// Get retrieves an asset by name. A missing asset returns ErrNotFound.
	Get(ctx context.Context, name string) (*Asset, error)

	// Has checks if an asset exists.
	Has(ctx context.Context, name string) (bool, error)

	// List returns every asset's metadata ordered by name.
	List(ctx context.Context) ([]Info, error)

	// Delete removes an asset. Deleting a missing asset is not an error.
	Delete(ctx context.Context, name string) error

	// Clear removes every asset.
	Clear(ctx context.Context) error

	// Size returns the total bytes of stored asset contents.
	Size(ctx context.Context) (int64, error)

	// Close closes the store and releases any resources.
	Close() error
}

// Settings is the small companion store for user preferences that live next
// to the assets, like the last export directory.
type Settings interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SaveSetting(ctx context.Context, key, value string) error
}

// Store is a Driver that also keeps settings. Every driver in this module
// implements it.
type Store interface {
	Driver
	Settings
}

// Setting keys.
const (
	SettingLastExportDir = "lastExportDir"
	SettingLastImportDir = "lastImportDir"
)

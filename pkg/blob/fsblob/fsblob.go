// Package fsblob stores assets on a hackpadfs file system: the host disk for
// the CLI, an in-memory FS for tests and IndexedDB in the browser build.
//
// Layout:
//
//	data/<name>        asset contents
//	meta/<name>.json   asset metadata
//	settings.json      settings map
package fsblob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"

	"github.com/Ben-Eze/BibWeb/pkg/blob"
)

const (
	dataDir      = "data"
	metaDir      = "meta"
	settingsFile = "settings.json"
)

// Driver implements blob.Store on a hackpadfs.FS.
type Driver struct {
	fs hackpadfs.FS

	// mu serializes writes so data and metadata files stay paired.
	mu sync.RWMutex
}

// NewDriver uses fsys as the store root.
func NewDriver(fsys hackpadfs.FS) (*Driver, error) {
	for _, dir := range []string{dataDir, metaDir} {
		if err := hackpadfs.MkdirAll(fsys, dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s dir: %w", dir, err)
		}
	}
	return &Driver{fs: fsys}, nil
}

// NewOSDriver roots the store at dir on the host file system.
func NewOSDriver(dir string) (*Driver, error) {
	host := osfs.NewFS()
	root, err := host.FromOSPath(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving asset dir %s: %w", dir, err)
	}
	if err := hackpadfs.MkdirAll(host, root, 0o755); err != nil {
		return nil, fmt.Errorf("creating asset dir %s: %w", dir, err)
	}
	sub, err := host.Sub(root)
	if err != nil {
		return nil, fmt.Errorf("opening asset dir %s: %w", dir, err)
	}
	return NewDriver(sub)
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("invalid asset name %q", name)
	}
	return nil
}

func dataPath(name string) string { return path.Join(dataDir, name) }
func metaPath(name string) string { return path.Join(metaDir, name+".json") }

func (d *Driver) Put(_ context.Context, a *blob.Asset) error {
	if a == nil {
		return errors.New("cannot store nil asset")
	}
	if err := validName(a.Name); err != nil {
		return err
	}

	info := a.Info
	info.Size = int64(len(a.Data))
	meta, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encoding asset metadata: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := hackpadfs.WriteFullFile(d.fs, dataPath(a.Name), a.Data, 0o644); err != nil {
		return fmt.Errorf("writing asset %q: %w", a.Name, err)
	}
	if err := hackpadfs.WriteFullFile(d.fs, metaPath(a.Name), meta, 0o644); err != nil {
		return fmt.Errorf("writing asset metadata %q: %w", a.Name, err)
	}
	return nil
}

func (d *Driver) Get(ctx context.Context, name string) (*blob.Asset, error) {
	if validName(name) != nil {
		return nil, blob.ErrNotFound{Name: name}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	info, err := d.readInfo(name)
	if err != nil {
		return nil, err
	}
	data, err := hackpadfs.ReadFile(d.fs, dataPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, blob.ErrNotFound{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("reading asset %q: %w", name, err)
	}
	return &blob.Asset{Info: info, Data: data}, nil
}

func (d *Driver) readInfo(name string) (blob.Info, error) {
	raw, err := hackpadfs.ReadFile(d.fs, metaPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return blob.Info{}, blob.ErrNotFound{Name: name}
	}
	if err != nil {
		return blob.Info{}, fmt.Errorf("reading asset metadata %q: %w", name, err)
	}
	var info blob.Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return blob.Info{}, fmt.Errorf("decoding asset metadata %q: %w", name, err)
	}
	info.Name = name
	return info, nil
}

func (d *Driver) Has(_ context.Context, name string) (bool, error) {
	if validName(name) != nil {
		return false, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	_, err := hackpadfs.Stat(d.fs, metaPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking asset %q: %w", name, err)
	}
	return true, nil
}

func (d *Driver) List(_ context.Context) ([]blob.Info, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.listLocked()
}

func (d *Driver) listLocked() ([]blob.Info, error) {
	entries, err := hackpadfs.ReadDir(d.fs, metaDir)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}

	infos := make([]blob.Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := d.readInfo(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (d *Driver) Delete(_ context.Context, name string) error {
	if validName(name) != nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.deleteLocked(name)
}

func (d *Driver) deleteLocked(name string) error {
	for _, p := range []string{metaPath(name), dataPath(name)} {
		if err := hackpadfs.Remove(d.fs, p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("deleting asset %q: %w", name, err)
		}
	}
	return nil
}

func (d *Driver) Clear(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	infos, err := d.listLocked()
	if err != nil {
		return err
	}
	for _, info := range infos {
		if err := d.deleteLocked(info.Name); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) Size(ctx context.Context) (int64, error) {
	infos, err := d.List(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, info := range infos {
		total += info.Size
	}
	return total, nil
}

func (d *Driver) readSettings() (map[string]string, error) {
	settings := make(map[string]string)
	raw, err := hackpadfs.ReadFile(d.fs, settingsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return settings, nil
}

func (d *Driver) GetSetting(_ context.Context, key string) (string, bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	settings, err := d.readSettings()
	if err != nil {
		return "", false, err
	}
	v, ok := settings[key]
	return v, ok, nil
}

func (d *Driver) SaveSetting(_ context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	settings, err := d.readSettings()
	if err != nil {
		return err
	}
	settings[key] = value
	raw, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := hackpadfs.WriteFullFile(d.fs, settingsFile, raw, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// Close is a no-op; the underlying FS is owned by the caller.
func (d *Driver) Close() error {
	return nil
}

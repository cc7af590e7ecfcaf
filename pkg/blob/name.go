package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
)

// CleanName reduces name to a flat file name. It returns "" when nothing
// usable is left.
func CleanName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	switch name {
	case ".", "/", "..":
		return ""
	}
	return name
}

// candidateName returns "<stem>-<n><ext>", or name itself for n == 0.
func candidateName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		stem, ext = ext, ""
	}
	return fmt.Sprintf("%s-%d%s", stem, n, ext)
}

// UniqueName returns name if it is free, otherwise the first free
// "<stem>-<n><ext>" starting at n = 1.
func UniqueName(ctx context.Context, d Driver, name string) (string, error) {
	for n := 0; ; n++ {
		candidate := candidateName(name, n)
		exists, err := d.Has(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("checking asset %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
}

type registerOptions struct {
	reuseIdentical bool
}

// RegisterOption tunes Register.
type RegisterOption func(*registerOptions)

// ReuseIdentical makes Register return an existing name instead of creating
// a new one when the stored asset has exactly the same contents.
func ReuseIdentical() RegisterOption {
	return func(o *registerOptions) {
		o.reuseIdentical = true
	}
}

// Register stores a under a name that does not collide with any existing
// asset and returns that name. Existing assets are never overwritten.
func Register(ctx context.Context, d Driver, a *Asset, opts ...RegisterOption) (string, error) {
	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}

	base := CleanName(a.Name)
	if base == "" {
		return "", fmt.Errorf("invalid asset name %q", a.Name)
	}

	if o.reuseIdentical {
		existing, err := d.Get(ctx, base)
		switch {
		case err == nil && bytes.Equal(existing.Data, a.Data):
			return base, nil
		case err != nil && !IsNotFound(err):
			return "", fmt.Errorf("reading asset %q: %w", base, err)
		}
	}

	name, err := UniqueName(ctx, d, base)
	if err != nil {
		return "", err
	}

	stored := *a
	stored.Name = name
	stored.Size = int64(len(a.Data))
	if stored.MimeType == "" {
		stored.MimeType = DetectMimeType(name, a.Data)
	}
	if err := d.Put(ctx, &stored); err != nil {
		return "", fmt.Errorf("storing asset %q: %w", name, err)
	}
	return name, nil
}

// DetectMimeType guesses a mime type from the extension, then the contents.
func DetectMimeType(name string, data []byte) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(data)
}

// IsNotFound reports whether err marks a missing asset.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound{})
}

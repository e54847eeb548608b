// Package storage keeps uploaded product images on the local filesystem.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local writes files under Dir and serves them from URLPrefix.
type Local struct {
	Dir       string
	URLPrefix string
}

func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %q: %w", dir, err)
	}
	return &Local{Dir: dir, URLPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (l *Local) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	name = sanitize(name)

	f, err := os.OpenFile(filepath.Join(l.Dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create %q: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("storage: write %q: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: close %q: %w", name, err)
	}

	return l.URLPrefix + "/" + name, nil
}

// Delete removes the file behind a URL previously returned by Save.
// Unknown or foreign URLs are ignored.
func (l *Local) Delete(ctx context.Context, url string) error {
	name, ok := strings.CutPrefix(url, l.URLPrefix+"/")
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(l.Dir, sanitize(name)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete %q: %w", name, err)
	}
	return nil
}

func sanitize(name string) string {
	name = path.Base(filepath.ToSlash(name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}

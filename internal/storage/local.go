package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxKeyAttempts bounds how many random suffixes Save tries before giving up.
const maxKeyAttempts = 5

// Local stores images in a directory on disk.
type Local struct {
	dir     string
	baseURL string

	// create opens a new file for writing and fails with os.ErrExist if
	// it is already there.
	create func(path string) (io.WriteCloser, error)
}

var _ ImageStore = (*Local)(nil)

// NewLocal creates dir/posts if needed. baseURL is the prefix the files are
// served under, e.g. "/media/".
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(filepath.Join(dir, Prefix), 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating %s: %w", dir, err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Local{dir: dir, baseURL: baseURL, create: createExclusive}, nil
}

func createExclusive(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

// Dir is the root directory, for serving the files.
func (l *Local) Dir() string {
	return l.dir
}

// Save writes data to a new file.
//
// O_EXCL makes "create only if it does not exist" a single atomic step, so
// two uploads with the same name can never overwrite each other.
func (l *Local) Save(ctx context.Context, name string, data []byte, _ string) (string, error) {
	key := keyFor(name)

	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		f, err := l.create(l.path(key))
		if errors.Is(err, os.ErrExist) {
			key = alternateKey(keyFor(name))
			continue
		}
		if err != nil {
			return "", fmt.Errorf("storage: creating %s: %w", key, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(l.path(key))
			return "", fmt.Errorf("storage: writing %s: %w", key, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(l.path(key))
			return "", fmt.Errorf("storage: closing %s: %w", key, err)
		}
		return key, nil
	}

	return "", fmt.Errorf("storage: no free key for %q", name)
}

func (l *Local) Delete(_ context.Context, key string) error {
	err := os.Remove(l.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: deleting %s: %w", key, err)
	}
	return nil
}

func (l *Local) URL(key string) string {
	return l.baseURL + key
}

// path maps a key onto the filesystem. Keys always come from keyFor, but
// Clean with a leading "/" keeps a hand-crafted "../" from escaping dir.
func (l *Local) path(key string) string {
	return filepath.Join(l.dir, filepath.FromSlash(filepath.Clean("/"+key)))
}

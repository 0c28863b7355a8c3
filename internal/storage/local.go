package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/anstrom/filecrate/internal/model"
)

// Local stores blobs as flat files under a single directory. The storage key
// is the file name within that directory.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal creates the upload directory if needed and returns a Local store.
// baseURL is the public origin used to compose download URLs.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes the stream to a new file named with a random component, so two
// uploads of identically named files never collide.
func (l *Local) Put(ctx context.Context, ownerID, originalName, contentType string, r io.Reader, size int64) (PutResult, error) {
	key := fmt.Sprintf("%s-%s-%s", ownerID, uuid.NewString(), sanitizeName(originalName))
	path := filepath.Join(l.dir, key)
	dst, err := os.Create(path)
	if err != nil {
		return PutResult{}, fmt.Errorf("create blob file: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(path)
		return PutResult{}, fmt.Errorf("write blob file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return PutResult{}, fmt.Errorf("close blob file: %w", err)
	}
	return PutResult{
		Key:      key,
		Provider: model.ProviderLocal,
		URL:      l.baseURL + "/uploads/" + key,
	}, nil
}

// Get opens the stored file. The content type is not recorded on disk, so the
// caller supplies it from the file record.
func (l *Local) Get(ctx context.Context, key string) (Object, error) {
	path, err := l.safePath(key)
	if err != nil {
		return Object{}, ErrNotFound
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Object{}, ErrNotFound
		}
		return Object{}, fmt.Errorf("open blob file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return Object{}, fmt.Errorf("stat blob file: %w", err)
	}
	return Object{Body: f, Size: info.Size()}, nil
}

// Delete removes the stored file, treating an absent file as success.
func (l *Local) Delete(ctx context.Context, key string) error {
	path, err := l.safePath(key)
	if err != nil {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob file: %w", err)
	}
	return nil
}

// Dir returns the directory served for local downloads.
func (l *Local) Dir() string { return l.dir }

// safePath rejects keys that would escape the upload directory.
func (l *Local) safePath(key string) (string, error) {
	if key == "" || key != filepath.Base(key) {
		return "", fs.ErrInvalid
	}
	return filepath.Join(l.dir, key), nil
}

func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/anstrom/filecrate/internal/model"
)

// Memory keeps blobs in a map guarded by an RWMutex. It exists so the
// registries and handlers can be exercised in tests without disk or a MinIO
// endpoint, and it honours the same contract as the real backends.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	data        []byte
	contentType string
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memObject)}
}

func (m *Memory) Put(ctx context.Context, ownerID, originalName, contentType string, r io.Reader, size int64) (PutResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return PutResult{}, fmt.Errorf("read blob: %w", err)
	}
	key := fmt.Sprintf("%s-%s-%s", ownerID, uuid.NewString(), sanitizeName(originalName))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: data, contentType: contentType}
	return PutResult{
		Key:      key,
		Provider: model.ProviderLocal,
		URL:      "memory://" + key,
	}, nil
}

func (m *Memory) Get(ctx context.Context, key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	return Object{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
	}, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Len reports how many blobs are held, for test assertions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Package storage persists file bytes behind a small capability interface so
// the registries never branch on the active provider. One implementation per
// provider plus an in-memory variant for tests.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/anstrom/filecrate/internal/model"
)

// ErrNotFound is returned when a storage key does not resolve in the backend.
var ErrNotFound = errors.New("object not found")

// PutResult describes where an upload landed.
type PutResult struct {
	Key      string
	Provider model.Provider
	URL      string
}

// Object is a readable stored blob. ContentType may be empty for backends that
// do not record it; callers fall back to the file record's type.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// BlobStore is the capability contract every backend implements. Put must
// produce keys that never collide across calls, which each implementation
// achieves with a random component rather than the file name.
type BlobStore interface {
	Put(ctx context.Context, ownerID, originalName, contentType string, r io.Reader, size int64) (PutResult, error)
	Get(ctx context.Context, key string) (Object, error)
	// Delete is idempotent: removing an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Router holds one store per provider and steers writes to the active one.
// Reads and deletes follow the provider recorded on the file, so blobs written
// under a previously active provider remain reachable.
type Router struct {
	active model.Provider
	stores map[model.Provider]BlobStore
}

// NewRouter builds a Router. Stores for inactive providers may be nil when the
// deployment never wrote under them.
func NewRouter(active model.Provider, stores map[model.Provider]BlobStore) *Router {
	return &Router{active: active, stores: stores}
}

// Put stores bytes in the active provider's backend.
func (r *Router) Put(ctx context.Context, ownerID, originalName, contentType string, body io.Reader, size int64) (PutResult, error) {
	store, ok := r.stores[r.active]
	if !ok {
		return PutResult{}, errors.New("no store configured for active provider " + string(r.active))
	}
	return store.Put(ctx, ownerID, originalName, contentType, body, size)
}

// Get retrieves a blob from the backend the record was written under.
func (r *Router) Get(ctx context.Context, key string, provider model.Provider) (Object, error) {
	store, ok := r.stores[provider]
	if !ok {
		return Object{}, ErrNotFound
	}
	return store.Get(ctx, key)
}

// Delete removes a blob from the backend the record was written under.
func (r *Router) Delete(ctx context.Context, key string, provider model.Provider) error {
	store, ok := r.stores[provider]
	if !ok {
		return nil
	}
	return store.Delete(ctx, key)
}

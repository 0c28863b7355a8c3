// Package share implements the share-grant access model: time-limited,
// token-addressed read grants over a single file or a live collection scope.
// It sits between the HTTP layer and the registries so every rule here is
// testable without a server or a database.
package share

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anstrom/filecrate/internal/apierr"
	"github.com/anstrom/filecrate/internal/model"
)

// DefaultTTLHours applies when share creation omits a TTL or supplies a
// non-positive one. Absent and invalid values both default silently.
const DefaultTTLHours = 72

// GrantStore persists grants.
type GrantStore interface {
	Create(ctx context.Context, grant *model.ShareGrant) error
	GetByToken(ctx context.Context, token string) (*model.ShareGrant, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.ShareGrant, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// FileSource is the slice of the file registry the share model reads from.
type FileSource interface {
	Get(ctx context.Context, ownerID, id string) (*model.FileRecord, error)
	List(ctx context.Context, ownerID string, filter model.FileFilter) ([]model.FileRecord, error)
}

// SharedFile is the listing entry exposed to share-link visitors. It carries
// no storage coordinates or owner identity.
type SharedFile struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	FileType   string    `json:"fileType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Registry creates, resolves and terminates grants. The clock is injectable
// so expiry behaviour is testable at fixed instants.
type Registry struct {
	grants  GrantStore
	files   FileSource
	baseURL string
	now     func() time.Time
}

// NewRegistry constructs a Registry. A nil clock means time.Now.
func NewRegistry(grants GrantStore, files FileSource, baseURL string, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		grants:  grants,
		files:   files,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     now,
	}
}

// CreateFileShare issues a grant bound to exactly one of the owner's files.
func (r *Registry) CreateFileShare(ctx context.Context, ownerID, fileID string, ttlHours int) (*model.ShareGrant, error) {
	if fileID == "" {
		return nil, apierr.Validation("fileId is required")
	}
	file, err := r.files.Get(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	grant := &model.ShareGrant{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Kind:      model.ShareFile,
		FileID:    &file.ID,
		Token:     NewToken(),
		ExpiresAt: r.expiry(ttlHours),
	}
	if err := r.grants.Create(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// CreateCollectionShare issues a grant over the owner's files tagged with the
// collection (optionally narrowed by sub-collection). The collection's
// existence is not checked: an empty collection simply resolves to zero files,
// and the exposed set tracks uploads and retags for the grant's lifetime.
func (r *Registry) CreateCollectionShare(ctx context.Context, ownerID, collection string, subCollection *string, ttlHours int) (*model.ShareGrant, error) {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return nil, apierr.Validation("collection is required")
	}
	grant := &model.ShareGrant{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Kind:          model.ShareCollection,
		Collection:    &collection,
		SubCollection: normalizeTag(subCollection),
		Token:         NewToken(),
		ExpiresAt:     r.expiry(ttlHours),
	}
	if err := r.grants.Create(ctx, grant); err != nil {
		return nil, err
	}
	return grant, nil
}

// Resolve looks a token up and checks its time bound. An unknown token and an
// expired one are distinct failures: the latter tells the visitor the link
// once worked.
func (r *Registry) Resolve(ctx context.Context, token string) (*model.ShareGrant, error) {
	grant, err := r.grants.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if grant.Expired(r.now()) {
		return nil, apierr.Expired("share link expired")
	}
	return grant, nil
}

// ListFilesForGrant returns the files currently visible through the grant. A
// file grant yields zero entries when the file has since been deleted; a
// collection grant re-queries the live set.
func (r *Registry) ListFilesForGrant(ctx context.Context, grant *model.ShareGrant) ([]SharedFile, error) {
	if grant.Kind == model.ShareFile {
		file, err := r.files.Get(ctx, grant.OwnerID, *grant.FileID)
		if err != nil {
			if errors.Is(err, apierr.ErrNotFound) {
				return []SharedFile{}, nil
			}
			return nil, err
		}
		return []SharedFile{toShared(file)}, nil
	}
	filter := model.FileFilter{Collection: deref(grant.Collection)}
	if grant.SubCollection != nil {
		filter.SubCollection = *grant.SubCollection
	}
	files, err := r.files.List(ctx, grant.OwnerID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]SharedFile, 0, len(files))
	for i := range files {
		out = append(out, toShared(&files[i]))
	}
	return out, nil
}

// FileForDownload re-validates that the requested file is inside the grant's
// scope right now. The re-check on every download, not just on listing,
// prevents a stale listing from reaching a file retagged out of scope.
func (r *Registry) FileForDownload(ctx context.Context, grant *model.ShareGrant, fileID string) (*model.FileRecord, error) {
	if grant.Kind == model.ShareFile {
		if *grant.FileID != fileID {
			return nil, apierr.NotFound("file not part of share")
		}
		return r.files.Get(ctx, grant.OwnerID, fileID)
	}
	file, err := r.files.Get(ctx, grant.OwnerID, fileID)
	if err != nil {
		return nil, err
	}
	if file.Collection == nil || *file.Collection != deref(grant.Collection) {
		return nil, apierr.NotFound("file not part of share")
	}
	if grant.SubCollection != nil {
		if file.SubCollection == nil || *file.SubCollection != *grant.SubCollection {
			return nil, apierr.NotFound("file not part of share")
		}
	}
	return file, nil
}

// Terminate deletes one of the owner's grants.
func (r *Registry) Terminate(ctx context.Context, ownerID, grantID string) error {
	return r.grants.Delete(ctx, ownerID, grantID)
}

// List returns the owner's grants.
func (r *Registry) List(ctx context.Context, ownerID string) ([]model.ShareGrant, error) {
	return r.grants.ListByOwner(ctx, ownerID)
}

// URL composes the public share link for a grant.
func (r *Registry) URL(grant *model.ShareGrant) string {
	return r.baseURL + "/share/" + grant.Token
}

// NewToken returns a 128-bit hex token from the secure RNG.
func NewToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// The RNG failing is unrecoverable for token issuance.
		panic("share: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

func (r *Registry) expiry(ttlHours int) time.Time {
	if ttlHours <= 0 {
		ttlHours = DefaultTTLHours
	}
	return r.now().Add(time.Duration(ttlHours) * time.Hour).UTC()
}

func toShared(f *model.FileRecord) SharedFile {
	return SharedFile{
		ID:         f.ID,
		Name:       f.OriginalName,
		Size:       f.Size,
		FileType:   f.ContentType,
		UploadedAt: f.UploadedAt,
	}
}

func normalizeTag(tag *string) *string {
	if tag == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*tag)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

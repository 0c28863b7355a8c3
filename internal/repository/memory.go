package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/anstrom/filecrate/internal/apierr"
	"github.com/anstrom/filecrate/internal/model"
)

// The in-memory registries mirror the SQL repositories' semantics: owner
// scoping, not-found behaviour, ordering and partial updates. They let the
// share registry and the HTTP handlers run in tests without Postgres.

// MemoryUsers is an in-memory UserRepository stand-in.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[string]*model.User)}
}

func (m *MemoryUsers) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, u := range m.users {
		if u.Email == user.Email {
			return apierr.Conflict("email already registered")
		}
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apierr.NotFound("user not found")
}

func (m *MemoryUsers) GetByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apierr.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

// MemoryInvites is an in-memory InviteRepository stand-in.
type MemoryInvites struct {
	mu      sync.Mutex
	invites []*model.InviteCode
}

func NewMemoryInvites() *MemoryInvites {
	return &MemoryInvites{}
}

func (m *MemoryInvites) CreateBatch(ctx context.Context, invites []model.InviteCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for i := range invites {
		invites[i].CreatedAt = now
		cp := invites[i]
		m.invites = append(m.invites, &cp)
	}
	return nil
}

func (m *MemoryInvites) GetByCode(ctx context.Context, code string) (*model.InviteCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invites {
		if inv.Code == code {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, apierr.NotFound("invite not found")
}

func (m *MemoryInvites) MarkUsed(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invites {
		if inv.ID == id {
			if inv.UsedBy != nil {
				return apierr.Forbidden("invite already used")
			}
			now := time.Now().UTC()
			inv.UsedBy = &userID
			inv.UsedAt = &now
			return nil
		}
	}
	return apierr.NotFound("invite not found")
}

func (m *MemoryInvites) List(ctx context.Context, limit int) ([]model.InviteCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.InviteCode, 0, len(m.invites))
	for i := len(m.invites) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.invites[i])
	}
	return out, nil
}

// MemoryFiles is an in-memory FileRepository stand-in. Records are kept in
// insertion order; listings walk it backwards, matching the SQL repository's
// newest-upload-first ordering.
type MemoryFiles struct {
	mu      sync.RWMutex
	records []*model.FileRecord
}

func NewMemoryFiles() *MemoryFiles {
	return &MemoryFiles{}
}

func (m *MemoryFiles) Create(ctx context.Context, rec *model.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	rec.UploadedAt = now
	rec.UpdatedAt = now
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *MemoryFiles) List(ctx context.Context, ownerID string, filter model.FileFilter) ([]model.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.FileRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		rec := m.records[i]
		if rec.OwnerID != ownerID {
			continue
		}
		if filter.Collection != "" && (rec.Collection == nil || *rec.Collection != filter.Collection) {
			continue
		}
		if filter.SubCollection != "" && (rec.SubCollection == nil || *rec.SubCollection != filter.SubCollection) {
			continue
		}
		if filter.Query != "" {
			q := strings.ToLower(filter.Query)
			if !strings.Contains(strings.ToLower(rec.OriginalName), q) &&
				!strings.Contains(strings.ToLower(rec.ContentType), q) {
				continue
			}
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (m *MemoryFiles) Get(ctx context.Context, ownerID, id string) (*model.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec := m.find(ownerID, id)
	if rec == nil {
		return nil, apierr.NotFound("file not found")
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryFiles) Update(ctx context.Context, ownerID, id string, upd model.FileUpdate) (*model.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := false
	if upd.Name != nil && strings.TrimSpace(*upd.Name) != "" {
		changed = true
	}
	if upd.Collection != nil || upd.SubCollection != nil {
		changed = true
	}
	if !changed {
		return nil, apierr.Validation("no changes provided")
	}
	rec := m.find(ownerID, id)
	if rec == nil {
		return nil, apierr.NotFound("file not found")
	}
	if upd.Name != nil {
		if name := strings.TrimSpace(*upd.Name); name != "" {
			rec.OriginalName = name
		}
	}
	if upd.Collection != nil {
		rec.Collection = nullIfEmpty(*upd.Collection)
	}
	if upd.SubCollection != nil {
		rec.SubCollection = nullIfEmpty(*upd.SubCollection)
	}
	rec.UpdatedAt = time.Now().UTC()
	cp := *rec
	return &cp, nil
}

func (m *MemoryFiles) Delete(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, rec := range m.records {
		if rec.ID == id && rec.OwnerID == ownerID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return apierr.NotFound("file not found")
}

func (m *MemoryFiles) SetChecksum(ctx context.Context, id, checksum string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.ID == id {
			sum := checksum
			rec.Checksum = &sum
			rec.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return nil
}

func (m *MemoryFiles) find(ownerID, id string) *model.FileRecord {
	for _, rec := range m.records {
		if rec.ID == id && rec.OwnerID == ownerID {
			return rec
		}
	}
	return nil
}

// MemoryShares is an in-memory ShareRepository stand-in.
type MemoryShares struct {
	mu     sync.Mutex
	grants []*model.ShareGrant
}

func NewMemoryShares() *MemoryShares {
	return &MemoryShares{}
}

func (m *MemoryShares) Create(ctx context.Context, grant *model.ShareGrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	grant.CreatedAt = time.Now().UTC()
	cp := *grant
	m.grants = append(m.grants, &cp)
	return nil
}

func (m *MemoryShares) GetByToken(ctx context.Context, token string) (*model.ShareGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.grants {
		if g.Token == token {
			cp := *g
			return &cp, nil
		}
	}
	return nil, apierr.NotFound("share link not found")
}

func (m *MemoryShares) ListByOwner(ctx context.Context, ownerID string) ([]model.ShareGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ShareGrant
	for i := len(m.grants) - 1; i >= 0; i-- {
		if m.grants[i].OwnerID == ownerID {
			out = append(out, *m.grants[i])
		}
	}
	return out, nil
}

func (m *MemoryShares) Delete(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, g := range m.grants {
		if g.ID == id && g.OwnerID == ownerID {
			m.grants = append(m.grants[:i], m.grants[i+1:]...)
			return nil
		}
	}
	return apierr.NotFound("share link not found")
}

func (m *MemoryShares) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*model.ShareGrant
	var purged int64
	for _, g := range m.grants {
		if g.ExpiresAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, g)
	}
	m.grants = kept
	return purged, nil
}

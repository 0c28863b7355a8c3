package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anstrom/filecrate/internal/apierr"
	"github.com/anstrom/filecrate/internal/model"
)

const shareColumns = `id, owner_id, kind, file_id, collection, sub_collection, token, expires_at, created_at`

// ShareRepository persists share grants. Grants are created and deleted,
// never mutated.
type ShareRepository struct {
	pool *pgxpool.Pool
}

// NewShareRepository constructs a repository.
func NewShareRepository(pool *pgxpool.Pool) *ShareRepository {
	return &ShareRepository{pool: pool}
}

// Create inserts a grant.
func (r *ShareRepository) Create(ctx context.Context, grant *model.ShareGrant) error {
	grant.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO share_links (id, owner_id, kind, file_id, collection, sub_collection, token, expires_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, grant.ID, grant.OwnerID, grant.Kind, grant.FileID, grant.Collection, grant.SubCollection,
		grant.Token, grant.ExpiresAt, grant.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert share: %w", err)
	}
	return nil
}

// GetByToken returns the grant addressed by the token, expired or not.
// Expiry is the resolver's concern, never the store's.
func (r *ShareRepository) GetByToken(ctx context.Context, token string) (*model.ShareGrant, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+shareColumns+" FROM share_links WHERE token=$1", token)
	grant, err := scanShare(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.NotFound("share link not found")
		}
		return nil, err
	}
	return grant, nil
}

// ListByOwner returns the owner's grants newest-first.
func (r *ShareRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.ShareGrant, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+shareColumns+" FROM share_links WHERE owner_id=$1 ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()
	var out []model.ShareGrant
	for rows.Next() {
		grant, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *grant)
	}
	return out, rows.Err()
}

// Delete terminates a grant, owner-scoped like every registry mutation.
func (r *ShareRepository) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM share_links WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete share: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierr.NotFound("share link not found")
	}
	return nil
}

// DeleteExpiredBefore purges grants whose expiry is older than the cutoff.
// Expired-but-unpurged grants are already inert, so this is pure housekeeping.
func (r *ShareRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM share_links WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge shares: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanShare(row rowScanner) (*model.ShareGrant, error) {
	var grant model.ShareGrant
	err := row.Scan(&grant.ID, &grant.OwnerID, &grant.Kind, &grant.FileID, &grant.Collection,
		&grant.SubCollection, &grant.Token, &grant.ExpiresAt, &grant.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan share: %w", err)
	}
	return &grant, nil
}

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

// InviteRepository persists single-use registration codes.
type InviteRepository struct {
	pool *pgxpool.Pool
}

// NewInviteRepository constructs a repository.
func NewInviteRepository(pool *pgxpool.Pool) *InviteRepository {
	return &InviteRepository{pool: pool}
}

// CreateBatch inserts a set of freshly issued codes.
func (r *InviteRepository) CreateBatch(ctx context.Context, invites []model.InviteCode) error {
	now := time.Now().UTC()
	for i := range invites {
		invites[i].CreatedAt = now
		_, err := r.pool.Exec(ctx, `
			INSERT INTO invite_codes (id, code, created_by, used_by, used_at, created_at)
			VALUES ($1,$2,$3,NULL,NULL,$4)
		`, invites[i].ID, invites[i].Code, invites[i].CreatedBy, invites[i].CreatedAt)
		if err != nil {
			return fmt.Errorf("insert invite: %w", err)
		}
	}
	return nil
}

// GetByCode returns the invite with the given code.
func (r *InviteRepository) GetByCode(ctx context.Context, code string) (*model.InviteCode, error) {
	var inv model.InviteCode
	row := r.pool.QueryRow(ctx, `
		SELECT id, code, created_by, used_by, used_at, created_at
		FROM invite_codes WHERE code=$1
	`, code)
	if err := row.Scan(&inv.ID, &inv.Code, &inv.CreatedBy, &inv.UsedBy, &inv.UsedAt, &inv.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.NotFound("invite not found")
		}
		return nil, fmt.Errorf("select invite: %w", err)
	}
	return &inv, nil
}

// MarkUsed flips the single-use flag. It only succeeds while the code is
// unused, so two concurrent registrations cannot both consume it.
func (r *InviteRepository) MarkUsed(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invite_codes SET used_by=$1, used_at=$2 WHERE id=$3 AND used_by IS NULL
	`, userID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark invite used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierr.Forbidden("invite already used")
	}
	return nil
}

// List returns the most recently issued codes, newest first.
func (r *InviteRepository) List(ctx context.Context, limit int) ([]model.InviteCode, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, code, created_by, used_by, used_at, created_at
		FROM invite_codes ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()
	var out []model.InviteCode
	for rows.Next() {
		var inv model.InviteCode
		if err := rows.Scan(&inv.ID, &inv.Code, &inv.CreatedBy, &inv.UsedBy, &inv.UsedAt, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan invite: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

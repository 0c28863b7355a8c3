package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anstrom/filecrate/internal/apierr"
	"github.com/anstrom/filecrate/internal/model"
)

const fileColumns = `id, owner_id, original_name, content_type, size_bytes, file_url,
	storage_key, storage_provider, collection, sub_collection, checksum, uploaded_at, updated_at`

// FileRepository is the catalog of uploaded files. Every operation except
// SetChecksum is scoped to a caller-supplied owner; a miss on ownership and a
// miss on existence are indistinguishable by design.
type FileRepository struct {
	pool *pgxpool.Pool
}

// NewFileRepository constructs a repository.
func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{pool: pool}
}

// Create inserts a new record. Records are never overwritten or re-pointed.
func (r *FileRepository) Create(ctx context.Context, rec *model.FileRecord) error {
	now := time.Now().UTC()
	rec.UploadedAt = now
	rec.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO files (id, owner_id, original_name, content_type, size_bytes, file_url,
			storage_key, storage_provider, collection, sub_collection, checksum, uploaded_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`, rec.ID, rec.OwnerID, rec.OriginalName, rec.ContentType, rec.Size, rec.FileURL,
		rec.StorageKey, rec.Provider, rec.Collection, rec.SubCollection, rec.Checksum, rec.UploadedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

// List returns the owner's files newest-upload-first. The text query matches
// case-insensitively as a substring of the display name or the content type.
func (r *FileRepository) List(ctx context.Context, ownerID string, filter model.FileFilter) ([]model.FileRecord, error) {
	var (
		where = []string{"owner_id = $1"}
		args  = []interface{}{ownerID}
	)
	if filter.Collection != "" {
		args = append(args, filter.Collection)
		where = append(where, "collection = $"+strconv.Itoa(len(args)))
	}
	if filter.SubCollection != "" {
		args = append(args, filter.SubCollection)
		where = append(where, "sub_collection = $"+strconv.Itoa(len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+escapeLike(filter.Query)+"%")
		n := strconv.Itoa(len(args))
		where = append(where, "(original_name ILIKE $"+n+" OR content_type ILIKE $"+n+")")
	}
	query := "SELECT " + fileColumns + " FROM files WHERE " + strings.Join(where, " AND ") +
		" ORDER BY uploaded_at DESC"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()
	var out []model.FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Get returns one of the owner's files.
func (r *FileRepository) Get(ctx context.Context, ownerID, id string) (*model.FileRecord, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+fileColumns+" FROM files WHERE id=$1 AND owner_id=$2", id, ownerID)
	rec, err := scanFile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.NotFound("file not found")
		}
		return nil, err
	}
	return rec, nil
}

// Update applies a partial rename/retag. Nil fields stay untouched; an empty
// collection or sub-collection string clears the tag.
func (r *FileRepository) Update(ctx context.Context, ownerID, id string, upd model.FileUpdate) (*model.FileRecord, error) {
	var (
		sets = []string{}
		args = []interface{}{}
	)
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name != "" {
			args = append(args, name)
			sets = append(sets, "original_name = $"+strconv.Itoa(len(args)))
		}
	}
	if upd.Collection != nil {
		args = append(args, nullIfEmpty(*upd.Collection))
		sets = append(sets, "collection = $"+strconv.Itoa(len(args)))
	}
	if upd.SubCollection != nil {
		args = append(args, nullIfEmpty(*upd.SubCollection))
		sets = append(sets, "sub_collection = $"+strconv.Itoa(len(args)))
	}
	if len(sets) == 0 {
		return nil, apierr.Validation("no changes provided")
	}
	args = append(args, time.Now().UTC())
	sets = append(sets, "updated_at = $"+strconv.Itoa(len(args)))
	args = append(args, id, ownerID)
	query := "UPDATE files SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)-1) + " AND owner_id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + fileColumns
	rec, err := scanFile(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierr.NotFound("file not found")
		}
		return nil, err
	}
	return rec, nil
}

// Delete removes the registry row. Blob deletion is the caller's concern; the
// two operations are deliberately not transactional.
func (r *FileRepository) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierr.NotFound("file not found")
	}
	return nil
}

// SetChecksum stores a computed digest. The worker calls this without owner
// scoping since the job payload originates from a trusted enqueue.
func (r *FileRepository) SetChecksum(ctx context.Context, id, checksum string) error {
	_, err := r.pool.Exec(ctx, `UPDATE files SET checksum=$1, updated_at=$2 WHERE id=$3`,
		checksum, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set checksum: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(row rowScanner) (*model.FileRecord, error) {
	var rec model.FileRecord
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.OriginalName, &rec.ContentType, &rec.Size, &rec.FileURL,
		&rec.StorageKey, &rec.Provider, &rec.Collection, &rec.SubCollection, &rec.Checksum,
		&rec.UploadedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return &rec, nil
}

func nullIfEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Package worker holds the asynq handlers run by the worker binary.
package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"github.com/anstrom/filecrate/internal/model"
	"github.com/anstrom/filecrate/internal/queue"
	"github.com/anstrom/filecrate/internal/storage"
)

// purgeGrace keeps expired grants visible for a day so owners can still see
// what just lapsed in their share list before housekeeping removes it.
const purgeGrace = 24 * time.Hour

// ChecksumStore is the slice of the file registry the worker writes to.
type ChecksumStore interface {
	SetChecksum(ctx context.Context, id, checksum string) error
}

// GrantPurger deletes grants whose expiry predates a cutoff.
type GrantPurger interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// BlobGetter retrieves a stored blob by key and provider.
type BlobGetter interface {
	Get(ctx context.Context, key string, provider model.Provider) (storage.Object, error)
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	files  ChecksumStore
	shares GrantPurger
	store  BlobGetter
}

// NewProcessor constructs a worker processor.
func NewProcessor(files ChecksumStore, shares GrantPurger, store BlobGetter) *Processor {
	return &Processor{files: files, shares: shares, store: store}
}

// Handler registers the task handlers.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ChecksumTask, p.handleChecksum)
	mux.HandleFunc(queue.PurgeSharesTask, p.handlePurge)
	return mux
}

func (p *Processor) handleChecksum(ctx context.Context, task *asynq.Task) error {
	var payload queue.ChecksumPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	obj, err := p.store.Get(ctx, payload.StorageKey, payload.Provider)
	if err != nil {
		return fmt.Errorf("fetch blob for checksum: %w", err)
	}
	defer obj.Body.Close()
	digest := sha256.New()
	if _, err := io.Copy(digest, obj.Body); err != nil {
		return fmt.Errorf("digest blob: %w", err)
	}
	sum := hex.EncodeToString(digest.Sum(nil))
	if err := p.files.SetChecksum(ctx, payload.FileID, sum); err != nil {
		return err
	}
	log.Info().Str("file_id", payload.FileID).Str("checksum", sum).Msg("checksum recorded")
	return nil
}

func (p *Processor) handlePurge(ctx context.Context, task *asynq.Task) error {
	cutoff := time.Now().UTC().Add(-purgeGrace)
	purged, err := p.shares.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if purged > 0 {
		log.Info().Int64("purged", purged).Time("cutoff", cutoff).Msg("expired share links purged")
	}
	return nil
}

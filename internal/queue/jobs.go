// Package queue defines the asynq task names and payloads shared by the API
// server (producer) and the worker (consumer).
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/anstrom/filecrate/internal/model"
)

const (
	// ChecksumTask is scheduled after every upload; the worker streams the
	// blob back and records its SHA-256.
	ChecksumTask = "file:checksum"
	// PurgeSharesTask is fired periodically to clear long-expired grants.
	PurgeSharesTask = "share:purge_expired"
)

// ChecksumPayload tells the worker which blob to digest.
type ChecksumPayload struct {
	FileID     string         `json:"file_id"`
	StorageKey string         `json:"storage_key"`
	Provider   model.Provider `json:"provider"`
}

// EnqueueChecksum enqueues a checksum job for a freshly uploaded file.
func EnqueueChecksum(ctx context.Context, client *asynq.Client, payload ChecksumPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(ChecksumTask, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue checksum task: %w", err)
	}
	return nil
}

// NewPurgeTask builds the periodic share-purge task for the scheduler.
func NewPurgeTask() *asynq.Task {
	return asynq.NewTask(PurgeSharesTask, nil)
}

// Package model contains simple struct definitions shared across packages.
package model

import (
	"time"
)

// Provider identifies which blob store backend holds a file's bytes. The
// provider is recorded per file so records written under one backend remain
// servable after the deployment's active provider changes.
type Provider string

const (
	ProviderLocal Provider = "local"
	ProviderS3    Provider = "s3"
)

// FileRecord holds metadata about an uploaded file. The storage key and
// provider are immutable once set; rename only touches OriginalName.
type FileRecord struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"-"`
	OriginalName  string    `json:"originalName"`
	ContentType   string    `json:"fileType"`
	Size          int64     `json:"size"`
	FileURL       string    `json:"fileUrl"`
	StorageKey    string    `json:"-"`
	Provider      Provider  `json:"storageProvider"`
	Collection    *string   `json:"collection"`
	SubCollection *string   `json:"subCollection"`
	Checksum      *string   `json:"checksum,omitempty"`
	UploadedAt    time.Time `json:"uploadedAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FileFilter narrows a listing. Query matches case-insensitively against the
// display name or content type; empty fields are ignored.
type FileFilter struct {
	Query         string
	Collection    string
	SubCollection string
}

// FileUpdate carries a partial update. Nil pointers leave the field unchanged;
// an empty Collection or SubCollection string clears the tag.
type FileUpdate struct {
	Name          *string
	Collection    *string
	SubCollection *string
}

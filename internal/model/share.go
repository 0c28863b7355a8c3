package model

import "time"

// ShareKind distinguishes a grant bound to one file from a grant over a whole
// collection scope.
type ShareKind string

const (
	ShareFile       ShareKind = "file"
	ShareCollection ShareKind = "collection"
)

// ShareGrant is a time-limited, token-addressed read grant. A collection grant
// resolves against the owner's live file set on every access; nothing is
// snapshotted at creation.
type ShareGrant struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"-"`
	Kind          ShareKind `json:"type"`
	FileID        *string   `json:"fileId,omitempty"`
	Collection    *string   `json:"collection,omitempty"`
	SubCollection *string   `json:"subCollection,omitempty"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expiresAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Expired reports whether the grant is past its time bound at the given
// instant. Validity is re-evaluated on every access, never cached.
func (g *ShareGrant) Expired(now time.Time) bool {
	return !now.Before(g.ExpiresAt)
}

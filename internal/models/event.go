package models

import (
	"time"

	"github.com/google/uuid"
)

// Decision outcomes recorded in the access-event audit log.
const (
	DecisionAuthorized = "authorized"
	DecisionDeferred   = "deferred"
	DecisionResolved   = "resolved"
	DecisionExpired    = "expired"
)

// SnapshotKey is the object-store key of the snapshot saved for a
// deferred request. It is derived from the pending id alone so the
// snapshot stays addressable after the request is resolved or expired.
func SnapshotKey(pendingID string) string {
	return "unknown/" + pendingID + ".jpg"
}

// AccessEvent is one entry in the authorization audit log.
type AccessEvent struct {
	ID           uuid.UUID `json:"id" db:"id"`
	CameraID     string    `json:"camera_id" db:"camera_id"`
	Decision     string    `json:"decision" db:"decision"`
	IdentityName string    `json:"identity_name,omitempty" db:"identity_name"`
	PendingID    string    `json:"pending_id,omitempty" db:"pending_id"`
	Action       string    `json:"action,omitempty" db:"action"`
	SnapshotKey  string    `json:"snapshot_key,omitempty" db:"snapshot_key"`
	Embedding    []float32 `json:"-" db:"embedding"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

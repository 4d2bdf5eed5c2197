// Package approval tracks authorization decisions that were deferred to
// a human. The store is shared between the image ingestion workers
// (Create) and the approval intake handlers (Resolve), with a periodic
// sweep expiring requests nobody answered.
package approval

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AymenENSI/Secure-Entry/internal/observability"
)

// ErrNotPending is returned by Resolve when the id is unknown, already
// resolved, or expired. Callers treat it as "nothing to actuate".
var ErrNotPending = errors.New("approval: request not pending")

type State string

const (
	StatePending  State = "pending"
	StateResolved State = "resolved"
	StateExpired  State = "expired"
)

// PendingRequest is a deferred authorization awaiting a human decision.
// The store owns the canonical entry; methods return copies.
type PendingRequest struct {
	ID        string    `json:"id"`
	CameraID  string    `json:"camera_id"`
	CreatedAt time.Time `json:"created_at"`
	ImageRef  string    `json:"image_ref,omitempty"`
	State     State     `json:"state"`
}

// Store is a mutex-guarded map of outstanding deferred decisions.
// Create, Resolve and Expire are linearizable per entry: whichever
// transition takes the lock first wins, the loser sees ErrNotPending.
type Store struct {
	mu      sync.Mutex
	entries map[string]*PendingRequest
	timeout time.Duration
}

// NewStore creates a store whose pending entries expire after timeout.
func NewStore(timeout time.Duration) *Store {
	return &Store{
		entries: make(map[string]*PendingRequest),
		timeout: timeout,
	}
}

// Create registers a new pending request with a fresh unique id and
// returns a copy of it.
func (s *Store) Create(cameraID string) PendingRequest {
	req := &PendingRequest{
		ID:        uuid.NewString(),
		CameraID:  cameraID,
		CreatedAt: time.Now().UTC(),
		State:     StatePending,
	}

	s.mu.Lock()
	s.entries[req.ID] = req
	observability.PendingApprovals.Set(float64(len(s.entries)))
	s.mu.Unlock()

	return *req
}

// AttachImage records the audit image reference for a pending request.
// A no-op if the request is already gone.
func (s *Store) AttachImage(id, imageRef string) {
	s.mu.Lock()
	if req, ok := s.entries[id]; ok {
		req.ImageRef = imageRef
	}
	s.mu.Unlock()
}

// Resolve atomically transitions a pending request to Resolved and
// removes it, returning a copy. At most one caller succeeds per id;
// everyone else gets ErrNotPending.
func (s *Store) Resolve(id string) (PendingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.entries[id]
	if !ok {
		return PendingRequest{}, ErrNotPending
	}

	req.State = StateResolved
	delete(s.entries, id)
	observability.PendingApprovals.Set(float64(len(s.entries)))
	observability.ApprovalsResolved.Inc()

	return *req, nil
}

// Get returns a copy of a pending request, if present.
func (s *Store) Get(id string) (PendingRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.entries[id]
	if !ok {
		return PendingRequest{}, false
	}
	return *req, true
}

// Pending returns copies of all outstanding requests.
func (s *Store) Pending() []PendingRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PendingRequest, 0, len(s.entries))
	for _, req := range s.entries {
		out = append(out, *req)
	}
	return out
}

// Expire transitions every pending request older than the timeout to
// Expired and removes it, returning copies of the expired requests.
// It iterates a snapshot of the keys and re-checks each entry under
// the lock, so a Resolve racing with the sweep wins if it gets there
// first.
func (s *Store) Expire(now time.Time) []PendingRequest {
	s.mu.Lock()
	keys := make([]string, 0, len(s.entries))
	for id := range s.entries {
		keys = append(keys, id)
	}
	s.mu.Unlock()

	var expired []PendingRequest
	for _, id := range keys {
		s.mu.Lock()
		req, ok := s.entries[id]
		if ok && now.Sub(req.CreatedAt) > s.timeout {
			req.State = StateExpired
			delete(s.entries, id)
			observability.PendingApprovals.Set(float64(len(s.entries)))
			observability.ApprovalsExpired.Inc()
			expired = append(expired, *req)
		}
		s.mu.Unlock()
	}

	return expired
}

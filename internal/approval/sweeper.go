package approval

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper runs the periodic expiry sweep over a Store. It runs as a
// background goroutine and is stopped via its context or Stop.
type Sweeper struct {
	store    *Store
	interval time.Duration
	onExpire func(PendingRequest)
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSweeper creates a sweeper but does not start it. onExpire, if
// non-nil, is called once for each expired request (outside the store
// lock).
func NewSweeper(store *Store, interval time.Duration, onExpire func(PendingRequest)) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		onExpire: onExpire,
		done:     make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
	slog.Info("approval sweeper started", "interval", s.interval.String())
}

// Stop signals the sweeper to exit and waits for it to finish.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Sweeper) sweep() {
	expired := s.store.Expire(time.Now().UTC())
	for _, req := range expired {
		slog.Warn("pending approval expired",
			"id", req.ID,
			"camera", req.CameraID,
			"created_at", req.CreatedAt.Format(time.RFC3339),
		)
		if s.onExpire != nil {
			s.onExpire(req)
		}
	}
}

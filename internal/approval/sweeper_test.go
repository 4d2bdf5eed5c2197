package approval

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSweeper_ExpiresStaleEntries(t *testing.T) {
	store := NewStore(10 * time.Millisecond)
	req := store.Create("cam-1")

	var mu sync.Mutex
	var expired []PendingRequest

	sweeper := NewSweeper(store, 5*time.Millisecond, func(r PendingRequest) {
		mu.Lock()
		expired = append(expired, r)
		mu.Unlock()
	})
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(expired)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("sweeper never expired the stale entry")
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if expired[0].ID != req.ID {
		t.Errorf("expected expired id %s, got %s", req.ID, expired[0].ID)
	}
	if _, ok := store.Get(req.ID); ok {
		t.Error("expired entry still present in store")
	}
}

func TestSweeper_StopTerminates(t *testing.T) {
	store := NewStore(time.Hour)
	sweeper := NewSweeper(store, time.Millisecond, nil)
	sweeper.Start(context.Background())

	done := make(chan struct{})
	go func() {
		sweeper.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
